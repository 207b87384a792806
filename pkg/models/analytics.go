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

// HealthStatus classifies the network health score.
type HealthStatus string

const (
	HealthStatusHealthy  HealthStatus = "HEALTHY"
	HealthStatusWarning  HealthStatus = "WARNING"
	HealthStatusCritical HealthStatus = "CRITICAL"
)

// DashboardStats is the headline device count summary pushed to frontends
// with every broadcast.
type DashboardStats struct {
	NewDevicesToday int `json:"new_devices_today"`
	InactiveDevices int `json:"inactive_devices"`
	ActiveDevices   int `json:"active_devices"`
	TotalDevices    int `json:"total_devices"`
}

// TrafficSummary aggregates packet and byte counters over the trailing hour.
type TrafficSummary struct {
	TotalPackets   int64   `json:"total_packets"`
	TCPPackets     int64   `json:"tcp_packets"`
	UDPPackets     int64   `json:"udp_packets"`
	ICMPPackets    int64   `json:"icmp_packets"`
	ARPRequests    int64   `json:"arp_requests"`
	DataSentMB     float64 `json:"data_sent_mb"`
	DataReceivedMB float64 `json:"data_received_mb"`
}

// ProtocolDistribution is the percentage share of each protocol over the
// trailing five minutes. All zero when no packets fall in the window.
type ProtocolDistribution struct {
	TCPPercentage  float64 `json:"tcp_percentage"`
	UDPPercentage  float64 `json:"udp_percentage"`
	ICMPPercentage float64 `json:"icmp_percentage"`
	ARPPercentage  float64 `json:"arp_percentage"`
}

// NetworkHealth scores the most recent metric snapshot in the trailing ten
// minutes. With no snapshot in window the network is reported healthy.
type NetworkHealth struct {
	HealthScore int          `json:"health_score"`
	Issues      []string     `json:"issues"`
	Status      HealthStatus `json:"status"`
}

// DeviceConnections counts DEVICE_JOINED events observed today.
type DeviceConnections struct {
	TotalConnectionsToday int `json:"total_connections_today"`
}

// DeviceSummary is the per-device line of the complete analytics listing.
type DeviceSummary struct {
	DeviceID              string       `json:"device_id"`
	IP                    string       `json:"ip"`
	Vendor                string       `json:"vendor"`
	Status                DeviceStatus `json:"status"`
	FirstSeen             *time.Time   `json:"first_seen"`
	LastSeen              *time.Time   `json:"last_seen"`
	ActivityCountLastHour int          `json:"activity_count_last_hour"`
	Hostname              string       `json:"hostname"`
}

// AnalyticsReport is the composite snapshot served on the dashboard
// analytics endpoint.
type AnalyticsReport struct {
	Timestamp            time.Time             `json:"timestamp"`
	DashboardStats       *DashboardStats       `json:"dashboard_stats"`
	TrafficSummary       *TrafficSummary       `json:"traffic_summary"`
	DeviceConnections    *DeviceConnections    `json:"device_connections"`
	ProtocolDistribution *ProtocolDistribution `json:"protocol_distribution"`
	Devices              []DeviceSummary       `json:"devices"`
	NetworkHealth        *NetworkHealth        `json:"network_health"`
}

// DailyReport aggregates one UTC day for reporting.
type DailyReport struct {
	Date              string `json:"date"`
	TotalDevices      int    `json:"total_devices"`
	NewDevices        int    `json:"new_devices"`
	ActiveDevices     int    `json:"active_devices"`
	InactiveDevices   int    `json:"inactive_devices"`
	DataSentBytes     int64  `json:"data_sent_bytes"`
	DataReceivedBytes int64  `json:"data_received_bytes"`
	TotalPackets      int64  `json:"total_packets"`
}

// SwitchNode is the fixed core node anchoring the topology view.
type SwitchNode struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
}

// TopologyDevice is one device in the subscriber-facing topology view.
// Status derives from time since last_seen; ActivityLevel uses a tighter
// threshold set.
type TopologyDevice struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	IP            string     `json:"ip"`
	MAC           string     `json:"mac"`
	Vendor        string     `json:"vendor"`
	Type          string     `json:"type"`
	Status        string     `json:"status"`
	FirstSeen     *time.Time `json:"firstSeen"`
	LastSeen      *time.Time `json:"lastSeen"`
	ActivityLevel string     `json:"activityLevel"`
}

// TopologyView is the payload pushed to topology subscribers.
type TopologyView struct {
	Switch  SwitchNode       `json:"switch"`
	Devices []TopologyDevice `json:"devices"`
}
