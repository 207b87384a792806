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
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ravindupe/netwatch/pkg/db"
	"github.com/ravindupe/netwatch/pkg/hub"
	"github.com/ravindupe/netwatch/pkg/logger"
	"github.com/ravindupe/netwatch/pkg/models"
)

const defaultTopologyPushInterval = 5 * time.Second

// ServerOption customises the pipeline server.
type ServerOption func(*Server)

// WithTopologyPushInterval overrides the topology push cadence.
func WithTopologyPushInterval(interval time.Duration) ServerOption {
	return func(s *Server) {
		if interval > 0 {
			s.topologyInterval = interval
		}
	}
}

// WithServerClock injects a deterministic clock (used for tests).
func WithServerClock(clock func() time.Time) ServerOption {
	return func(s *Server) {
		if clock != nil {
			s.now = clock
		}
	}
}

// Server ties the pipeline together: it validates inbound telemetry,
// dispatches it against the store, recomputes dashboard stats and fans the
// enriched message out to frontend subscribers. It owns both hubs and their
// lifecycle.
type Server struct {
	store            db.Service
	processor        *EventProcessor
	analytics        *Analytics
	frontendHub      *hub.Hub
	topologyHub      *hub.Hub
	logger           logger.Logger
	now              func() time.Time
	topologyInterval time.Duration
}

// NewServer wires the pipeline components around the given store.
func NewServer(store db.Service, log logger.Logger, opts ...ServerOption) *Server {
	s := &Server{
		store:            store,
		logger:           log,
		now:              time.Now,
		topologyInterval: defaultTopologyPushInterval,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	s.processor = NewEventProcessor(store, log.WithComponent("processor"), WithProcessorClock(s.now))
	s.analytics = NewAnalytics(store, log.WithComponent("analytics"), WithAnalyticsClock(s.now))
	s.frontendHub = hub.New(log.WithComponent("frontend_hub"))
	s.topologyHub = hub.New(log.WithComponent("topology_hub"))

	return s
}

// FrontendHub exposes the hub receiving enriched event broadcasts.
func (s *Server) FrontendHub() *hub.Hub { return s.frontendHub }

// TopologyHub exposes the hub receiving periodic topology pushes.
func (s *Server) TopologyHub() *hub.Hub { return s.topologyHub }

// HandleTelemetry processes one inbound message end to end. A validation or
// dispatch failure terminates this message only; the caller's ingestion
// loop stays open for subsequent messages.
func (s *Server) HandleTelemetry(ctx context.Context, raw []byte) error {
	event, err := ParseTelemetry(raw)
	if err != nil {
		var vErr *models.ValidationError
		if errors.As(err, &vErr) {
			s.logger.Warn().Str("field", vErr.Field).Msg("Dropping invalid telemetry message")
		}

		return err
	}

	if _, ok := event.(*models.Unrecognized); ok {
		s.logger.Debug().Msg("Ignoring unrecognized telemetry subtype")
		return nil
	}

	result, err := s.processor.Process(ctx, event)
	if err != nil {
		return fmt.Errorf("telemetry event not processed: %w", err)
	}

	s.logger.Debug().
		Str("event_type", string(result.EventType)).
		Str("device_id", result.DeviceID).
		Int("devices_upserted", result.DevicesUpserted).
		Int("skipped_entries", result.SkippedEntries).
		Msg("Telemetry event processed")

	stats, err := s.analytics.DashboardStats(ctx)
	if err != nil {
		// Best-effort enrichment: the event is already committed, so the
		// broadcast still goes out, just without fresh stats.
		s.logger.Error().Err(err).Msg("Failed to recompute dashboard stats")

		stats = nil
	}

	s.frontendHub.Broadcast(&models.BroadcastMessage{
		Event:          json.RawMessage(raw),
		DashboardStats: stats,
	})

	return nil
}

// CompleteAnalytics returns the composite analytics snapshot.
func (s *Server) CompleteAnalytics(ctx context.Context) (*models.AnalyticsReport, error) {
	return s.analytics.Complete(ctx)
}

// TopBandwidthDevices returns the bandwidth ranking over the trailing hour.
func (s *Server) TopBandwidthDevices(ctx context.Context, limit int) ([]models.DeviceBandwidth, error) {
	return s.analytics.TopBandwidthDevices(ctx, limit)
}

// DailyReport aggregates one UTC day.
func (s *Server) DailyReport(ctx context.Context, day time.Time) (*models.DailyReport, error) {
	return s.analytics.DailyReport(ctx, day)
}

// TopologyView renders the current topology for pull consumers and for the
// periodic push.
func (s *Server) TopologyView(ctx context.Context) (*models.TopologyView, error) {
	devices, err := s.store.ListDevices(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build topology view: %w", err)
	}

	return BuildTopologyView(devices, s.now().UTC()), nil
}

// Run drives the periodic topology push until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.topologyInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.pushTopology(ctx)
		}
	}
}

func (s *Server) pushTopology(ctx context.Context) {
	if s.topologyHub.Count() == 0 {
		return
	}

	view, err := s.TopologyView(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to push topology")
		return
	}

	s.topologyHub.Broadcast(view)
}

// Close stops both hubs and releases the store.
func (s *Server) Close() error {
	s.frontendHub.Stop()
	s.topologyHub.Stop()

	return s.store.Close()
}
