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

// Package core implements the Netwatch telemetry pipeline: message
// validation, event dispatch against the store, analytics aggregation and
// fan-out to subscribers.
package core

import (
	"encoding/json"
	"time"

	"github.com/ravindupe/netwatch/pkg/models"
)

type telemetryEnvelope struct {
	Type    string          `json:"type"`
	Subtype string          `json:"subtype"`
	Payload json.RawMessage `json:"payload"`
}

type devicePayload struct {
	Device    *models.DeviceInfo `json:"device"`
	Timestamp string             `json:"timestamp"`
}

type metricFields struct {
	MeasureTime   string `json:"measure_time"`
	TotalDevices  int    `json:"total_devices"`
	ActiveDevices int    `json:"active_devices"`
	DataSent      int64  `json:"data_sent"`
	DataReceived  int64  `json:"data_received"`
	ARPRequests   int64  `json:"arp_requests"`
	TCPPackets    int64  `json:"tcp_packets"`
	UDPPackets    int64  `json:"udp_packets"`
	ICMPPackets   int64  `json:"icmp_packets"`
	TotalPackets  int64  `json:"total_packets"`
}

type metricPayload struct {
	Metrics       *metricFields                `json:"metrics"`
	DeviceMetrics []models.DeviceMetricReading `json:"device_metrics"`
}

type topologySightingFields struct {
	MAC        string `json:"mac"`
	Hostname   string `json:"hostname"`
	IPAddress  string `json:"ip_address"`
	DeviceType string `json:"device_type"`
	OS         string `json:"os"`
	Vendor     string `json:"vendor"`
	FirstSeen  string `json:"first_seen"`
	LastSeen   string `json:"last_seen"`
	Online     bool   `json:"online"`
}

type topologyFields struct {
	Devices []topologySightingFields `json:"devices"`
}

type topologyPayload struct {
	Topology *topologyFields `json:"topology"`
}

// timestampLayouts accepted for inbound ISO-8601 values. A trailing Z (or
// any offset) is handled by RFC 3339; zone-less values are taken as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
}

func parseTimestamp(value string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.UTC(), true
		}
	}

	return time.Time{}, false
}

// ParseTelemetry validates an untyped inbound message and decodes it into
// exactly one event variant. An unknown subtype yields Unrecognized rather
// than an error; a missing or malformed required field yields a
// *models.ValidationError naming the offending field.
func ParseTelemetry(raw []byte) (models.TelemetryEvent, error) {
	var envelope telemetryEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, &models.ValidationError{Field: "message", Reason: "is not valid JSON"}
	}

	switch models.EventType(envelope.Subtype) {
	case models.EventDeviceJoined:
		return parseDeviceEvent(envelope.Payload, true)
	case models.EventDeviceIdle:
		return parseDeviceEvent(envelope.Payload, false)
	case models.EventPeriodicMetricState:
		return parseMetricState(envelope.Payload)
	case models.EventPeriodicTopologyState:
		return parseTopologyState(envelope.Payload)
	default:
		return &models.Unrecognized{Subtype: envelope.Subtype}, nil
	}
}

func parseDeviceEvent(payload json.RawMessage, joined bool) (models.TelemetryEvent, error) {
	if len(payload) == 0 {
		return nil, &models.ValidationError{Field: "payload", Reason: "is missing"}
	}

	var body devicePayload
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, &models.ValidationError{Field: "payload", Reason: "is not a valid object"}
	}

	if body.Device == nil {
		return nil, &models.ValidationError{Field: "payload.device", Reason: "is missing"}
	}

	if body.Device.DeviceID == "" {
		return nil, &models.ValidationError{Field: "payload.device.device_id", Reason: "is missing"}
	}

	if body.Timestamp == "" {
		return nil, &models.ValidationError{Field: "payload.timestamp", Reason: "is missing"}
	}

	ts, ok := parseTimestamp(body.Timestamp)
	if !ok {
		return nil, &models.ValidationError{Field: "payload.timestamp", Reason: "is not a valid ISO-8601 timestamp"}
	}

	if joined {
		return &models.DeviceJoined{Device: *body.Device, Timestamp: ts, Raw: payload}, nil
	}

	return &models.DeviceIdle{Device: *body.Device, Timestamp: ts, Raw: payload}, nil
}

func parseMetricState(payload json.RawMessage) (models.TelemetryEvent, error) {
	if len(payload) == 0 {
		return nil, &models.ValidationError{Field: "payload", Reason: "is missing"}
	}

	var body metricPayload
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, &models.ValidationError{Field: "payload", Reason: "is not a valid object"}
	}

	if body.Metrics == nil {
		return nil, &models.ValidationError{Field: "payload.metrics", Reason: "is missing"}
	}

	if body.Metrics.MeasureTime == "" {
		return nil, &models.ValidationError{Field: "payload.metrics.measure_time", Reason: "is missing"}
	}

	measureTime, ok := parseTimestamp(body.Metrics.MeasureTime)
	if !ok {
		return nil, &models.ValidationError{Field: "payload.metrics.measure_time", Reason: "is not a valid ISO-8601 timestamp"}
	}

	// Absent counters have already defaulted to zero during decoding.
	reading := models.MetricReading{
		MeasureTime:   measureTime,
		TotalDevices:  body.Metrics.TotalDevices,
		ActiveDevices: body.Metrics.ActiveDevices,
		DataSent:      body.Metrics.DataSent,
		DataReceived:  body.Metrics.DataReceived,
		ARPRequests:   body.Metrics.ARPRequests,
		TCPPackets:    body.Metrics.TCPPackets,
		UDPPackets:    body.Metrics.UDPPackets,
		ICMPPackets:   body.Metrics.ICMPPackets,
		TotalPackets:  body.Metrics.TotalPackets,
	}

	return &models.PeriodicMetricState{
		Metrics:       reading,
		DeviceMetrics: body.DeviceMetrics,
		Raw:           payload,
	}, nil
}

func parseTopologyState(payload json.RawMessage) (models.TelemetryEvent, error) {
	if len(payload) == 0 {
		return nil, &models.ValidationError{Field: "payload", Reason: "is missing"}
	}

	var body topologyPayload
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, &models.ValidationError{Field: "payload", Reason: "is not a valid object"}
	}

	if body.Topology == nil {
		return nil, &models.ValidationError{Field: "payload.topology", Reason: "is missing"}
	}

	if body.Topology.Devices == nil {
		return nil, &models.ValidationError{Field: "payload.topology.devices", Reason: "is missing"}
	}

	sightings := make([]models.TopologySighting, 0, len(body.Topology.Devices))

	for _, entry := range body.Topology.Devices {
		sighting := models.TopologySighting{
			MAC:        entry.MAC,
			Hostname:   entry.Hostname,
			IPAddress:  entry.IPAddress,
			DeviceType: entry.DeviceType,
			OS:         entry.OS,
			Vendor:     entry.Vendor,
			Online:     entry.Online,
		}

		// Unparseable per-entry timestamps fall back to "now" at dispatch,
		// the same as absent ones. Entry-level problems never fail the
		// whole snapshot.
		if ts, ok := parseTimestamp(entry.FirstSeen); ok {
			sighting.FirstSeen = &ts
		}

		if ts, ok := parseTimestamp(entry.LastSeen); ok {
			sighting.LastSeen = &ts
		}

		sightings = append(sightings, sighting)
	}

	return &models.PeriodicTopologyState{Devices: sightings, Raw: payload}, nil
}
