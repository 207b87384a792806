/*
 * Copyright 2026 the Netwatch Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// TelemetryEvent is the closed set of validated inbound event variants.
// The validator decodes an untyped message into exactly one of these;
// handlers switch over the concrete types.
type TelemetryEvent interface {
	EventType() EventType
}

// DeviceInfo carries the device attributes of a join/idle payload.
type DeviceInfo struct {
	DeviceID   string `json:"device_id"`
	Hostname   string `json:"hostname"`
	IPAddress  string `json:"ip_address"`
	DeviceType string `json:"device_type"`
	OS         string `json:"os"`
	Vendor     string `json:"vendor"`
}

// DeviceJoined marks a device becoming reachable.
type DeviceJoined struct {
	Device    DeviceInfo
	Timestamp time.Time
	Raw       json.RawMessage
}

func (*DeviceJoined) EventType() EventType { return EventDeviceJoined }

// DeviceIdle marks a device going quiet.
type DeviceIdle struct {
	Device    DeviceInfo
	Timestamp time.Time
	Raw       json.RawMessage
}

func (*DeviceIdle) EventType() EventType { return EventDeviceIdle }

// MetricReading is the counter set of a PERIODIC_METRIC_STATE payload.
// Absent numeric fields default to zero.
type MetricReading struct {
	MeasureTime   time.Time
	TotalDevices  int
	ActiveDevices int
	DataSent      int64
	DataReceived  int64
	ARPRequests   int64
	TCPPackets    int64
	UDPPackets    int64
	ICMPPackets   int64
	TotalPackets  int64
}

// DeviceMetricReading is an optional per-device traffic row attached to a
// metric snapshot.
type DeviceMetricReading struct {
	DeviceID     string `json:"device_id"`
	DataSent     int64  `json:"data_sent"`
	DataReceived int64  `json:"data_received"`
}

// PeriodicMetricState carries one network-wide counter snapshot.
type PeriodicMetricState struct {
	Metrics       MetricReading
	DeviceMetrics []DeviceMetricReading
	Raw           json.RawMessage
}

func (*PeriodicMetricState) EventType() EventType { return EventPeriodicMetricState }

// TopologySighting is one device entry of a full-refresh topology snapshot.
// FirstSeen/LastSeen are nil when the source omitted them.
type TopologySighting struct {
	MAC        string
	Hostname   string
	IPAddress  string
	DeviceType string
	OS         string
	Vendor     string
	FirstSeen  *time.Time
	LastSeen   *time.Time
	Online     bool
}

// PeriodicTopologyState carries a full refresh of all known devices. This
// variant is authoritative for device attributes, unlike DeviceJoined.
type PeriodicTopologyState struct {
	Devices []TopologySighting
	Raw     json.RawMessage
}

func (*PeriodicTopologyState) EventType() EventType { return EventPeriodicTopologyState }

// Unrecognized is a message with an unknown subtype. Not an error: it is
// silently ignored so newer engines can emit event types we do not know yet.
type Unrecognized struct {
	Subtype string
}

func (*Unrecognized) EventType() EventType { return EventUnrecognized }

// ValidationError reports a missing or malformed required field in an
// inbound payload. The message is dropped; the connection stays open.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid telemetry payload: field %q %s", e.Field, e.Reason)
}

// ProcessingResult summarizes the store mutations of one dispatched event.
type ProcessingResult struct {
	EventType       EventType `json:"event_type"`
	DeviceID        string    `json:"device_id,omitempty"`
	DevicesUpserted int       `json:"devices_upserted"`
	EventsLogged    int       `json:"events_logged"`
	MetricsRecorded int       `json:"metrics_recorded"`
	SkippedEntries  int       `json:"skipped_entries"`
}

// BroadcastMessage is the envelope fanned out to frontend subscribers after
// each processed event.
type BroadcastMessage struct {
	Event          json.RawMessage `json:"event"`
	DashboardStats *DashboardStats `json:"dashboard_stats"`
}
