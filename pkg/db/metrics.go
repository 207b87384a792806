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

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ravindupe/netwatch/pkg/models"
)

func (t *storeTx) AppendNetworkMetric(ctx context.Context, metric *models.NetworkMetricSnapshot) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO network_metrics (measure_time, total_devices, active_devices,
			data_sent, data_received, arp_requests, tcp_packets, udp_packets,
			icmp_packets, total_packets)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		formatTime(metric.MeasureTime), metric.TotalDevices, metric.ActiveDevices,
		metric.DataSent, metric.DataReceived, metric.ARPRequests, metric.TCPPackets,
		metric.UDPPackets, metric.ICMPPackets, metric.TotalPackets)
	if err != nil {
		return fmt.Errorf("failed to append network metric: %w", err)
	}

	return nil
}

func (t *storeTx) AppendDeviceMetric(ctx context.Context, sample *models.DeviceMetricSample) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO device_metrics (device_id, measure_time, data_sent, data_received)
		VALUES (?, ?, ?, ?)`,
		sample.DeviceID, formatTime(sample.MeasureTime), sample.DataSent, sample.DataReceived)
	if err != nil {
		return fmt.Errorf("failed to append device metric: %w", err)
	}

	// Cumulative per-device counters. A sample for a device we have never
	// seen keeps its history without a devices row.
	_, err = t.tx.ExecContext(ctx, `
		UPDATE devices SET data_sent = data_sent + ?, data_received = data_received + ?
		WHERE device_id = ?`,
		sample.DataSent, sample.DataReceived, sample.DeviceID)
	if err != nil {
		return fmt.Errorf("failed to update device counters: %w", err)
	}

	return nil
}

func (s *Store) sumMetrics(ctx context.Context, where string, arg any) (*models.TrafficTotals, error) {
	var totals models.TrafficTotals

	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(total_packets), 0), COALESCE(SUM(tcp_packets), 0),
			COALESCE(SUM(udp_packets), 0), COALESCE(SUM(icmp_packets), 0),
			COALESCE(SUM(arp_requests), 0), COALESCE(SUM(data_sent), 0),
			COALESCE(SUM(data_received), 0)
		FROM network_metrics WHERE `+where, arg).
		Scan(&totals.TotalPackets, &totals.TCPPackets, &totals.UDPPackets,
			&totals.ICMPPackets, &totals.ARPRequests, &totals.DataSent, &totals.DataReceived)
	if err != nil {
		return nil, fmt.Errorf("failed to sum network metrics: %w", err)
	}

	return &totals, nil
}

// SumMetricsSince sums every counter over snapshots at or after the given
// instant. All-zero totals when no snapshot falls in the window.
func (s *Store) SumMetricsSince(ctx context.Context, since time.Time) (*models.TrafficTotals, error) {
	return s.sumMetrics(ctx, "measure_time >= ?", formatTime(since))
}

// SumMetricsOn sums every counter over snapshots taken on the given UTC day.
func (s *Store) SumMetricsOn(ctx context.Context, day time.Time) (*models.TrafficTotals, error) {
	return s.sumMetrics(ctx, "date(measure_time) = ?", formatDay(day))
}

// LatestMetricSince returns the most recent snapshot at or after the given
// instant, or ErrNotFound when the window is empty.
func (s *Store) LatestMetricSince(ctx context.Context, since time.Time) (*models.NetworkMetricSnapshot, error) {
	var m models.NetworkMetricSnapshot

	var measureTime string

	err := s.db.QueryRowContext(ctx, `
		SELECT id, measure_time, total_devices, active_devices, data_sent,
			data_received, arp_requests, tcp_packets, udp_packets, icmp_packets,
			total_packets
		FROM network_metrics WHERE measure_time >= ?
		ORDER BY measure_time DESC, id DESC LIMIT 1`,
		formatTime(since)).
		Scan(&m.ID, &measureTime, &m.TotalDevices, &m.ActiveDevices, &m.DataSent,
			&m.DataReceived, &m.ARPRequests, &m.TCPPackets, &m.UDPPackets,
			&m.ICMPPackets, &m.TotalPackets)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query latest metric: %w", err)
	}

	if m.MeasureTime, err = parseTime(measureTime); err != nil {
		return nil, err
	}

	return &m, nil
}

// TopBandwidthDevicesSince ranks devices by summed sent+received bytes over
// per-device samples at or after the given instant, descending.
func (s *Store) TopBandwidthDevicesSince(ctx context.Context, since time.Time, limit int) ([]models.DeviceTraffic, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT device_id, SUM(data_sent + data_received) AS total_traffic
		FROM device_metrics WHERE measure_time >= ?
		GROUP BY device_id
		ORDER BY total_traffic DESC
		LIMIT ?`,
		formatTime(since), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to rank bandwidth devices: %w", err)
	}
	defer rows.Close()

	var ranked []models.DeviceTraffic

	for rows.Next() {
		var row models.DeviceTraffic

		if err := rows.Scan(&row.DeviceID, &row.TotalBytes); err != nil {
			return nil, fmt.Errorf("failed to scan bandwidth row: %w", err)
		}

		ranked = append(ranked, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bandwidth rows: %w", err)
	}

	return ranked, nil
}
