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

import "time"

// NetworkMetricSnapshot is one append-only row of network-wide counters
// tagged with the measurement timestamp.
type NetworkMetricSnapshot struct {
	ID            int64     `json:"id,omitempty"`
	MeasureTime   time.Time `json:"measure_time"`
	TotalDevices  int       `json:"total_devices"`
	ActiveDevices int       `json:"active_devices"`
	DataSent      int64     `json:"data_sent"`
	DataReceived  int64     `json:"data_received"`
	ARPRequests   int64     `json:"arp_requests"`
	TCPPackets    int64     `json:"tcp_packets"`
	UDPPackets    int64     `json:"udp_packets"`
	ICMPPackets   int64     `json:"icmp_packets"`
	TotalPackets  int64     `json:"total_packets"`
}

// DeviceMetricSample is one per-device traffic sample, recorded alongside a
// network metric snapshot and used for bandwidth ranking.
type DeviceMetricSample struct {
	ID           int64     `json:"id,omitempty"`
	DeviceID     string    `json:"device_id"`
	MeasureTime  time.Time `json:"measure_time"`
	DataSent     int64     `json:"data_sent"`
	DataReceived int64     `json:"data_received"`
}

// TrafficTotals holds summed counters over a query window.
type TrafficTotals struct {
	TotalPackets int64 `json:"total_packets"`
	TCPPackets   int64 `json:"tcp_packets"`
	UDPPackets   int64 `json:"udp_packets"`
	ICMPPackets  int64 `json:"icmp_packets"`
	ARPRequests  int64 `json:"arp_requests"`
	DataSent     int64 `json:"data_sent"`
	DataReceived int64 `json:"data_received"`
}

// DeviceTraffic is one device's summed byte volume over a query window.
type DeviceTraffic struct {
	DeviceID   string `json:"device_id"`
	TotalBytes int64  `json:"total_bytes"`
}

// DeviceBandwidth ranks one device by its traffic volume over a window.
type DeviceBandwidth struct {
	DeviceID       string  `json:"device_id"`
	TotalTrafficMB float64 `json:"total_traffic_mb"`
}
