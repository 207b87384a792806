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
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ravindupe/netwatch/pkg/logger"
	"github.com/ravindupe/netwatch/pkg/models"
)

type memorySubscriber struct {
	id       string
	mu       sync.Mutex
	received [][]byte
}

func (m *memorySubscriber) ID() string { return m.id }

func (m *memorySubscriber) Send(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.received = append(m.received, data)

	return nil
}

func (m *memorySubscriber) Close() error { return nil }

func (m *memorySubscriber) messages() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([][]byte(nil), m.received...)
}

func newTestServer(t *testing.T, opts ...ServerOption) *Server {
	t.Helper()

	store := newTestStore(t)

	clock := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)
	opts = append([]ServerOption{
		WithServerClock(func() time.Time { return clock }),
	}, opts...)

	return NewServer(store, logger.NewTestLogger(), opts...)
}

func TestHandleTelemetryBroadcastsEnrichedEvent(t *testing.T) {
	server := newTestServer(t)
	sub := &memorySubscriber{id: "frontend-1"}
	server.FrontendHub().Register(sub)

	raw := []byte(`{
		"subtype": "DEVICE_JOINED",
		"payload": {
			"device": {"device_id": "aa:bb:cc:dd:ee:01", "hostname": "office-laptop"},
			"timestamp": "2026-08-27T11:59:00Z"
		}
	}`)

	err := server.HandleTelemetry(context.Background(), raw)
	require.NoError(t, err)

	messages := sub.messages()
	require.Len(t, messages, 1)

	var broadcast models.BroadcastMessage
	require.NoError(t, json.Unmarshal(messages[0], &broadcast))
	require.NotNil(t, broadcast.DashboardStats)
	assert.Equal(t, 1, broadcast.DashboardStats.TotalDevices)
	assert.Equal(t, 1, broadcast.DashboardStats.ActiveDevices)
	assert.Equal(t, 1, broadcast.DashboardStats.NewDevicesToday)

	// The broadcast wraps the original message verbatim.
	assert.JSONEq(t, string(raw), string(broadcast.Event))
}

func TestHandleTelemetryInvalidMessage(t *testing.T) {
	server := newTestServer(t)
	sub := &memorySubscriber{id: "frontend-1"}
	server.FrontendHub().Register(sub)

	err := server.HandleTelemetry(context.Background(), []byte(`{"subtype": "DEVICE_JOINED", "payload": {}}`))
	require.Error(t, err)

	var vErr *models.ValidationError
	assert.ErrorAs(t, err, &vErr)

	// Invalid messages never reach subscribers.
	assert.Empty(t, sub.messages())
}

func TestHandleTelemetryUnknownSubtype(t *testing.T) {
	server := newTestServer(t)
	sub := &memorySubscriber{id: "frontend-1"}
	server.FrontendHub().Register(sub)

	err := server.HandleTelemetry(context.Background(), []byte(`{"subtype": "FIRMWARE_UPDATED", "payload": {}}`))
	require.NoError(t, err)
	assert.Empty(t, sub.messages())
}

func TestHandleTelemetryMetricThenAnalytics(t *testing.T) {
	server := newTestServer(t)

	raw := []byte(`{
		"subtype": "PERIODIC_METRIC_STATE",
		"payload": {
			"metrics": {
				"measure_time": "2026-08-27T11:58:00Z",
				"tcp_packets": 80,
				"udp_packets": 20,
				"total_packets": 100,
				"data_sent": 1048576
			}
		}
	}`)

	require.NoError(t, server.HandleTelemetry(context.Background(), raw))

	report, err := server.CompleteAnalytics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(100), report.TrafficSummary.TotalPackets)
	assert.InDelta(t, 1.0, report.TrafficSummary.DataSentMB, 0.001)
	assert.InDelta(t, 80.0, report.ProtocolDistribution.TCPPercentage, 0.01)
	assert.Equal(t, 100, report.NetworkHealth.HealthScore)
}

func TestTopologyViewReflectsDevices(t *testing.T) {
	server := newTestServer(t)

	raw := []byte(`{
		"subtype": "DEVICE_JOINED",
		"payload": {
			"device": {"device_id": "aa:bb:cc:dd:ee:01", "device_type": "PRINTER"},
			"timestamp": "2026-08-27T11:59:50Z"
		}
	}`)
	require.NoError(t, server.HandleTelemetry(context.Background(), raw))

	view, err := server.TopologyView(context.Background())
	require.NoError(t, err)
	require.Len(t, view.Devices, 1)
	assert.Equal(t, "printer", view.Devices[0].Type)
	assert.Equal(t, "active", view.Devices[0].Status)
}

func TestRunPushesTopologyPeriodically(t *testing.T) {
	server := newTestServer(t, WithTopologyPushInterval(10*time.Millisecond))
	sub := &memorySubscriber{id: "topology-1"}
	server.TopologyHub().Register(sub)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		_ = server.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return len(sub.messages()) >= 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done

	var view models.TopologyView
	require.NoError(t, json.Unmarshal(sub.messages()[0], &view))
	assert.Equal(t, "core-switch-1", view.Switch.ID)
}

func TestRunSkipsPushWithoutSubscribers(t *testing.T) {
	server := newTestServer(t, WithTopologyPushInterval(5*time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	// No subscriber registered: the loop idles and exits on cancellation.
	err := server.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
