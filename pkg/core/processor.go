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

package core

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/ravindupe/netwatch/pkg/db"
	"github.com/ravindupe/netwatch/pkg/logger"
	"github.com/ravindupe/netwatch/pkg/models"
)

var errUnhandledEvent = errors.New("unhandled telemetry event variant")

const lockShards = 64

// keyedMutex serializes mutations per device identifier so concurrent
// sources upserting the same device cannot interleave inside the store.
type keyedMutex struct {
	shards [lockShards]sync.Mutex
}

func (k *keyedMutex) lock(key string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))

	shard := &k.shards[h.Sum32()%lockShards]
	shard.Lock()

	return shard.Unlock
}

// ProcessorOption customises the EventProcessor.
type ProcessorOption func(*EventProcessor)

// WithProcessorClock injects a deterministic clock (used for tests).
func WithProcessorClock(clock func() time.Time) ProcessorOption {
	return func(p *EventProcessor) {
		if clock != nil {
			p.now = clock
		}
	}
}

// EventProcessor routes validated telemetry events to the handler that
// mutates the store. Each event executes as one atomic unit of work: either
// all its mutations commit, or none do.
type EventProcessor struct {
	store  db.Service
	logger logger.Logger
	locks  keyedMutex
	now    func() time.Time
}

// NewEventProcessor creates a processor writing through the given store.
func NewEventProcessor(store db.Service, log logger.Logger, opts ...ProcessorOption) *EventProcessor {
	p := &EventProcessor{
		store:  store,
		logger: log,
		now:    time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}

	return p
}

// Process dispatches one event. On persistence failure the transaction has
// been rolled back and the event counts as not processed.
func (p *EventProcessor) Process(ctx context.Context, event models.TelemetryEvent) (*models.ProcessingResult, error) {
	switch e := event.(type) {
	case *models.DeviceJoined:
		return p.handleDeviceJoined(ctx, e)
	case *models.DeviceIdle:
		return p.handleDeviceIdle(ctx, e)
	case *models.PeriodicMetricState:
		return p.handleMetricState(ctx, e)
	case *models.PeriodicTopologyState:
		return p.handleTopologyState(ctx, e)
	case *models.Unrecognized:
		// Forward-compatible ingestion: unknown subtypes are a no-op.
		return &models.ProcessingResult{EventType: models.EventUnrecognized}, nil
	default:
		return nil, fmt.Errorf("%w: %T", errUnhandledEvent, event)
	}
}

func (p *EventProcessor) handleDeviceJoined(ctx context.Context, e *models.DeviceJoined) (*models.ProcessingResult, error) {
	unlock := p.locks.lock(e.Device.DeviceID)
	defer unlock()

	result := &models.ProcessingResult{
		EventType: models.EventDeviceJoined,
		DeviceID:  e.Device.DeviceID,
	}

	err := p.store.WithinTx(ctx, func(tx db.Tx) error {
		existing, err := tx.GetDevice(ctx, e.Device.DeviceID)

		switch {
		case errors.Is(err, db.ErrNotFound):
			device := &models.Device{
				DeviceID:   e.Device.DeviceID,
				Hostname:   e.Device.Hostname,
				IPAddress:  e.Device.IPAddress,
				DeviceType: e.Device.DeviceType,
				OS:         e.Device.OS,
				Vendor:     e.Device.Vendor,
				FirstSeen:  e.Timestamp,
				LastSeen:   e.Timestamp,
				Status:     models.DeviceStatusActive,
			}
			if err := tx.CreateDevice(ctx, device); err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			// Join events only move last_seen and status; attributes stay
			// until an authoritative topology snapshot refreshes them.
			if err := tx.TouchDevice(ctx, existing.DeviceID, e.Timestamp, models.DeviceStatusActive); err != nil {
				return err
			}
		}

		result.DevicesUpserted = 1

		if err := tx.AppendDeviceEvent(ctx, &models.DeviceEvent{
			DeviceID:  e.Device.DeviceID,
			EventType: models.EventDeviceJoined,
			Timestamp: e.Timestamp,
			RawJSON:   string(e.Raw),
		}); err != nil {
			return err
		}

		result.EventsLogged = 1

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to process device join: %w", err)
	}

	return result, nil
}

func (p *EventProcessor) handleDeviceIdle(ctx context.Context, e *models.DeviceIdle) (*models.ProcessingResult, error) {
	unlock := p.locks.lock(e.Device.DeviceID)
	defer unlock()

	result := &models.ProcessingResult{
		EventType: models.EventDeviceIdle,
		DeviceID:  e.Device.DeviceID,
	}

	err := p.store.WithinTx(ctx, func(tx db.Tx) error {
		_, err := tx.GetDevice(ctx, e.Device.DeviceID)

		switch {
		case errors.Is(err, db.ErrNotFound):
			// Unknown device: skip the state update, still log the event.
			p.logger.Debug().Str("device_id", e.Device.DeviceID).Msg("Idle event for unknown device")
		case err != nil:
			return err
		default:
			if err := tx.TouchDevice(ctx, e.Device.DeviceID, e.Timestamp, models.DeviceStatusInactive); err != nil {
				return err
			}

			result.DevicesUpserted = 1
		}

		if err := tx.AppendDeviceEvent(ctx, &models.DeviceEvent{
			DeviceID:  e.Device.DeviceID,
			EventType: models.EventDeviceIdle,
			Timestamp: e.Timestamp,
			RawJSON:   string(e.Raw),
		}); err != nil {
			return err
		}

		result.EventsLogged = 1

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to process device idle: %w", err)
	}

	return result, nil
}

func (p *EventProcessor) handleMetricState(ctx context.Context, e *models.PeriodicMetricState) (*models.ProcessingResult, error) {
	result := &models.ProcessingResult{EventType: models.EventPeriodicMetricState}

	err := p.store.WithinTx(ctx, func(tx db.Tx) error {
		snapshot := &models.NetworkMetricSnapshot{
			MeasureTime:   e.Metrics.MeasureTime,
			TotalDevices:  e.Metrics.TotalDevices,
			ActiveDevices: e.Metrics.ActiveDevices,
			DataSent:      e.Metrics.DataSent,
			DataReceived:  e.Metrics.DataReceived,
			ARPRequests:   e.Metrics.ARPRequests,
			TCPPackets:    e.Metrics.TCPPackets,
			UDPPackets:    e.Metrics.UDPPackets,
			ICMPPackets:   e.Metrics.ICMPPackets,
			TotalPackets:  e.Metrics.TotalPackets,
		}
		if err := tx.AppendNetworkMetric(ctx, snapshot); err != nil {
			return err
		}

		result.MetricsRecorded = 1

		for _, dm := range e.DeviceMetrics {
			if dm.DeviceID == "" {
				result.SkippedEntries++
				continue
			}

			if err := tx.AppendDeviceMetric(ctx, &models.DeviceMetricSample{
				DeviceID:     dm.DeviceID,
				MeasureTime:  e.Metrics.MeasureTime,
				DataSent:     dm.DataSent,
				DataReceived: dm.DataReceived,
			}); err != nil {
				return err
			}

			result.MetricsRecorded++
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to process metric state: %w", err)
	}

	return result, nil
}

// handleTopologyState upserts each snapshot entry in its own unit of work:
// one bad entry must not abort the rest of the snapshot.
func (p *EventProcessor) handleTopologyState(ctx context.Context, e *models.PeriodicTopologyState) (*models.ProcessingResult, error) {
	result := &models.ProcessingResult{EventType: models.EventPeriodicTopologyState}

	for i := range e.Devices {
		entry := &e.Devices[i]

		if entry.MAC == "" {
			p.logger.Warn().Int("entry", i).Msg("Topology entry without a MAC, skipping")

			result.SkippedEntries++

			continue
		}

		if err := p.upsertSighting(ctx, entry); err != nil {
			p.logger.Error().Err(err).Str("device_id", entry.MAC).Msg("Failed to apply topology entry")

			result.SkippedEntries++

			continue
		}

		result.DevicesUpserted++
	}

	return result, nil
}

func (p *EventProcessor) upsertSighting(ctx context.Context, entry *models.TopologySighting) error {
	unlock := p.locks.lock(entry.MAC)
	defer unlock()

	now := p.now().UTC()

	firstSeen := now
	if entry.FirstSeen != nil {
		firstSeen = *entry.FirstSeen
	}

	lastSeen := now
	if entry.LastSeen != nil {
		lastSeen = *entry.LastSeen
	}

	status := models.DeviceStatusInactive
	if entry.Online {
		status = models.DeviceStatusActive
	}

	return p.store.WithinTx(ctx, func(tx db.Tx) error {
		_, err := tx.GetDevice(ctx, entry.MAC)

		switch {
		case errors.Is(err, db.ErrNotFound):
			return tx.CreateDevice(ctx, &models.Device{
				DeviceID:   entry.MAC,
				Hostname:   entry.Hostname,
				IPAddress:  entry.IPAddress,
				DeviceType: entry.DeviceType,
				OS:         entry.OS,
				Vendor:     entry.Vendor,
				FirstSeen:  firstSeen,
				LastSeen:   lastSeen,
				Status:     status,
			})
		case err != nil:
			return err
		default:
			// The snapshot is authoritative: overwrite attributes that a
			// join event would have left alone. first_seen stays immutable.
			return tx.RefreshDevice(ctx, &models.Device{
				DeviceID:  entry.MAC,
				Hostname:  entry.Hostname,
				IPAddress: entry.IPAddress,
				OS:        entry.OS,
				Vendor:    entry.Vendor,
				LastSeen:  lastSeen,
				Status:    status,
			})
		}
	})
}
