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

// Package db provides the relational store behind the telemetry pipeline:
// the devices table, the append-only device event log and the network
// metric time series.
package db

import (
	"context"
	"errors"
	"time"

	"github.com/ravindupe/netwatch/pkg/models"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("db: not found")

// Config holds database connection settings.
type Config struct {
	Path string `json:"path"`
}

// Tx is the mutation surface available inside one atomic unit of work.
// Either every mutation applied through a Tx commits, or none do.
type Tx interface {
	// GetDevice returns the device row for the identifier, or ErrNotFound.
	GetDevice(ctx context.Context, deviceID string) (*models.Device, error)

	// CreateDevice inserts a new device row. FirstSeen is fixed at this
	// point and never changes afterwards.
	CreateDevice(ctx context.Context, device *models.Device) error

	// TouchDevice updates last_seen and status of an existing device,
	// leaving every other attribute alone.
	TouchDevice(ctx context.Context, deviceID string, lastSeen time.Time, status models.DeviceStatus) error

	// RefreshDevice overwrites hostname, IP, OS, vendor, last_seen and
	// status from an authoritative topology snapshot.
	RefreshDevice(ctx context.Context, device *models.Device) error

	// AppendDeviceEvent appends one audit log record.
	AppendDeviceEvent(ctx context.Context, event *models.DeviceEvent) error

	// AppendNetworkMetric appends one network-wide counter snapshot.
	AppendNetworkMetric(ctx context.Context, metric *models.NetworkMetricSnapshot) error

	// AppendDeviceMetric appends one per-device traffic sample and adds it
	// to the device's cumulative counters when the device exists.
	AppendDeviceMetric(ctx context.Context, sample *models.DeviceMetricSample) error
}

// Service is the storage interface used by the event processor and the
// analytics aggregator. Reads outside a transaction never observe partial
// writes from an in-flight unit of work.
type Service interface {
	// WithinTx runs fn inside a transaction: commit when fn returns nil,
	// roll back and propagate its error otherwise.
	WithinTx(ctx context.Context, fn func(tx Tx) error) error

	GetDevice(ctx context.Context, deviceID string) (*models.Device, error)
	ListDevices(ctx context.Context) ([]*models.Device, error)
	CountDevices(ctx context.Context) (int, error)
	CountDevicesByStatus(ctx context.Context, status models.DeviceStatus) (int, error)
	CountDevicesFirstSeenOn(ctx context.Context, day time.Time) (int, error)

	CountDeviceEventsSince(ctx context.Context, deviceID string, since time.Time) (int, error)
	CountEventsByTypeOn(ctx context.Context, eventType models.EventType, day time.Time) (int, error)

	SumMetricsSince(ctx context.Context, since time.Time) (*models.TrafficTotals, error)
	SumMetricsOn(ctx context.Context, day time.Time) (*models.TrafficTotals, error)
	LatestMetricSince(ctx context.Context, since time.Time) (*models.NetworkMetricSnapshot, error)
	TopBandwidthDevicesSince(ctx context.Context, since time.Time, limit int) ([]models.DeviceTraffic, error)

	Close() error
}
