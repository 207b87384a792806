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

// Package models defines the shared types exchanged between the Netwatch
// telemetry pipeline, the relational store and the API surface.
package models

import "time"

// DeviceStatus is the stored lifecycle state of a device. IDLE is a derived
// display label and never persisted.
type DeviceStatus string

const (
	DeviceStatusActive   DeviceStatus = "ACTIVE"
	DeviceStatusInactive DeviceStatus = "INACTIVE"
)

// EventType tags an entry in the device event log.
type EventType string

const (
	EventDeviceJoined          EventType = "DEVICE_JOINED"
	EventDeviceIdle            EventType = "DEVICE_IDLE"
	EventPeriodicMetricState   EventType = "PERIODIC_METRIC_STATE"
	EventPeriodicTopologyState EventType = "PERIODIC_TOPOLOGY_STATE"
	EventUnrecognized          EventType = "UNRECOGNIZED"
)

// Device is one row per physical device, keyed by its hardware address.
// FirstSeen is immutable after creation; LastSeen moves with every
// observation referencing the device.
type Device struct {
	DeviceID     string       `json:"device_id"`
	Hostname     string       `json:"hostname,omitempty"`
	IPAddress    string       `json:"ip_address,omitempty"`
	DeviceType   string       `json:"device_type,omitempty"`
	OS           string       `json:"os,omitempty"`
	Vendor       string       `json:"vendor,omitempty"`
	FirstSeen    time.Time    `json:"first_seen"`
	LastSeen     time.Time    `json:"last_seen"`
	Status       DeviceStatus `json:"status"`
	DataSent     int64        `json:"data_sent"`
	DataReceived int64        `json:"data_received"`
	CreatedAt    time.Time    `json:"created_at,omitempty"`
	UpdatedAt    time.Time    `json:"updated_at,omitempty"`
}

// DeviceEvent is an immutable audit log record, one per processed event.
type DeviceEvent struct {
	ID        int64     `json:"id,omitempty"`
	DeviceID  string    `json:"device_id"`
	EventType EventType `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
	RawJSON   string    `json:"raw_json,omitempty"`
}
