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

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ravindupe/netwatch/pkg/core"
	"github.com/ravindupe/netwatch/pkg/db"
	"github.com/ravindupe/netwatch/pkg/logger"
	"github.com/ravindupe/netwatch/pkg/models"
)

func newTestAPI(t *testing.T) (*httptest.Server, *core.Server) {
	t.Helper()

	store, err := db.New(db.Config{Path: filepath.Join(t.TempDir(), "netwatch.db")})
	require.NoError(t, err)

	coreServer := core.NewServer(store, logger.NewTestLogger())
	apiServer := NewAPIServer(coreServer, logger.NewTestLogger())

	ts := httptest.NewServer(apiServer.Router())

	t.Cleanup(func() {
		ts.Close()
		_ = coreServer.Close()
	})

	return ts, coreServer
}

func wsURL(ts *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + path
}

func decodeBody(t *testing.T, resp *http.Response, dst any) {
	t.Helper()

	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dst))
}

func ingestTelemetry(t *testing.T, coreServer *core.Server, raw string) {
	t.Helper()

	require.NoError(t, coreServer.HandleTelemetry(context.Background(), []byte(raw)))
}

func TestRootEndpoint(t *testing.T) {
	ts, _ := newTestAPI(t)

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	decodeBody(t, resp, &body)
	assert.Contains(t, body["message"], "Netwatch")
}

func TestDashboardAnalyticsEndpoint(t *testing.T) {
	ts, coreServer := newTestAPI(t)

	ingestTelemetry(t, coreServer, `{
		"subtype": "DEVICE_JOINED",
		"payload": {
			"device": {"device_id": "aa:bb:cc:dd:ee:01", "hostname": "office-laptop"},
			"timestamp": "`+time.Now().UTC().Format(time.RFC3339)+`"
		}
	}`)

	resp, err := http.Get(ts.URL + "/api/analytics/dashboard")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var report models.AnalyticsReport
	decodeBody(t, resp, &report)
	require.NotNil(t, report.DashboardStats)
	assert.Equal(t, 1, report.DashboardStats.TotalDevices)
	require.Len(t, report.Devices, 1)
	assert.Equal(t, "office-laptop", report.Devices[0].Hostname)
}

func TestBandwidthEndpoint(t *testing.T) {
	ts, coreServer := newTestAPI(t)

	ingestTelemetry(t, coreServer, `{
		"subtype": "PERIODIC_METRIC_STATE",
		"payload": {
			"metrics": {"measure_time": "`+time.Now().UTC().Format(time.RFC3339)+`"},
			"device_metrics": [
				{"device_id": "aa:bb:cc:dd:ee:01", "data_sent": 1048576},
				{"device_id": "aa:bb:cc:dd:ee:02", "data_sent": 5242880}
			]
		}
	}`)

	resp, err := http.Get(ts.URL + "/api/analytics/bandwidth?limit=1")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Devices []models.DeviceBandwidth `json:"devices"`
	}
	decodeBody(t, resp, &body)
	require.Len(t, body.Devices, 1)
	assert.Equal(t, "aa:bb:cc:dd:ee:02", body.Devices[0].DeviceID)
	assert.InDelta(t, 5.0, body.Devices[0].TotalTrafficMB, 0.001)
}

func TestBandwidthEndpointRejectsBadLimit(t *testing.T) {
	ts, _ := newTestAPI(t)

	for _, limit := range []string{"abc", "-3", "0"} {
		resp, err := http.Get(ts.URL + "/api/analytics/bandwidth?limit=" + limit)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		_ = resp.Body.Close()
	}
}

func TestTopologyEndpoint(t *testing.T) {
	ts, coreServer := newTestAPI(t)

	ingestTelemetry(t, coreServer, `{
		"subtype": "DEVICE_JOINED",
		"payload": {
			"device": {"device_id": "aa:bb:cc:dd:ee:01", "device_type": "MOBILE"},
			"timestamp": "`+time.Now().UTC().Format(time.RFC3339)+`"
		}
	}`)

	resp, err := http.Get(ts.URL + "/api/topology")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var view models.TopologyView
	decodeBody(t, resp, &view)
	assert.Equal(t, "core-switch-1", view.Switch.ID)
	require.Len(t, view.Devices, 1)
	assert.Equal(t, "mobile", view.Devices[0].Type)
	assert.Equal(t, "active", view.Devices[0].Status)
}

func TestDailyReportEndpoint(t *testing.T) {
	ts, _ := newTestAPI(t)

	resp, err := http.Get(ts.URL + "/api/reports/daily?date=2026-08-27")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var report models.DailyReport
	decodeBody(t, resp, &report)
	assert.Equal(t, "2026-08-27", report.Date)
	assert.Zero(t, report.TotalDevices)

	resp, err = http.Get(ts.URL + "/api/reports/daily?date=not-a-date")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestDeviceToFrontendRoundTrip(t *testing.T) {
	ts, coreServer := newTestAPI(t)

	frontend, _, err := websocket.DefaultDialer.Dial(wsURL(ts, "/ws/frontend"), nil)
	require.NoError(t, err)

	defer frontend.Close()

	// Registration happens on the server goroutine after the handshake.
	require.Eventually(t, func() bool {
		return coreServer.FrontendHub().Count() > 0
	}, time.Second, 5*time.Millisecond)

	device, _, err := websocket.DefaultDialer.Dial(wsURL(ts, "/ws/device"), nil)
	require.NoError(t, err)

	defer device.Close()

	raw := `{
		"subtype": "DEVICE_JOINED",
		"payload": {
			"device": {"device_id": "aa:bb:cc:dd:ee:01"},
			"timestamp": "` + time.Now().UTC().Format(time.RFC3339) + `"
		}
	}`
	require.NoError(t, device.WriteMessage(websocket.TextMessage, []byte(raw)))

	require.NoError(t, frontend.SetReadDeadline(time.Now().Add(2*time.Second)))

	_, message, err := frontend.ReadMessage()
	require.NoError(t, err)

	var broadcast models.BroadcastMessage
	require.NoError(t, json.Unmarshal(message, &broadcast))
	require.NotNil(t, broadcast.DashboardStats)
	assert.Equal(t, 1, broadcast.DashboardStats.TotalDevices)
	assert.JSONEq(t, raw, string(broadcast.Event))
}

func TestDeviceWSSurvivesInvalidMessage(t *testing.T) {
	ts, coreServer := newTestAPI(t)

	frontend, _, err := websocket.DefaultDialer.Dial(wsURL(ts, "/ws/frontend"), nil)
	require.NoError(t, err)

	defer frontend.Close()

	require.Eventually(t, func() bool {
		return coreServer.FrontendHub().Count() > 0
	}, time.Second, 5*time.Millisecond)

	device, _, err := websocket.DefaultDialer.Dial(wsURL(ts, "/ws/device"), nil)
	require.NoError(t, err)

	defer device.Close()

	// An invalid message is dropped; the next valid one on the same
	// connection still goes through.
	require.NoError(t, device.WriteMessage(websocket.TextMessage, []byte(`not json at all`)))

	valid := `{
		"subtype": "DEVICE_JOINED",
		"payload": {
			"device": {"device_id": "aa:bb:cc:dd:ee:02"},
			"timestamp": "` + time.Now().UTC().Format(time.RFC3339) + `"
		}
	}`
	require.NoError(t, device.WriteMessage(websocket.TextMessage, []byte(valid)))

	require.NoError(t, frontend.SetReadDeadline(time.Now().Add(2*time.Second)))

	_, message, err := frontend.ReadMessage()
	require.NoError(t, err)

	var broadcast models.BroadcastMessage
	require.NoError(t, json.Unmarshal(message, &broadcast))
	assert.JSONEq(t, valid, string(broadcast.Event))
}

func TestTopologyWSSendsInitialView(t *testing.T) {
	ts, coreServer := newTestAPI(t)

	ingestTelemetry(t, coreServer, `{
		"subtype": "DEVICE_JOINED",
		"payload": {
			"device": {"device_id": "aa:bb:cc:dd:ee:01"},
			"timestamp": "`+time.Now().UTC().Format(time.RFC3339)+`"
		}
	}`)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts, "/api/topology/ws"), nil)
	require.NoError(t, err)

	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	_, message, err := conn.ReadMessage()
	require.NoError(t, err)

	var view models.TopologyView
	require.NoError(t, json.Unmarshal(message, &view))
	assert.Equal(t, "core-switch-1", view.Switch.ID)
	require.Len(t, view.Devices, 1)
	assert.Equal(t, "aa:bb:cc:dd:ee:01", view.Devices[0].ID)
}
