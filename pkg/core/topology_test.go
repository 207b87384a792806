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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ravindupe/netwatch/pkg/models"
)

func TestTopologyStatusThresholds(t *testing.T) {
	now := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		lastSeen time.Time
		status   string
		activity string
	}{
		{"just seen", now.Add(-time.Second), "active", "high"},
		{"under a minute", now.Add(-45 * time.Second), "active", "medium"},
		{"a few minutes", now.Add(-3 * time.Minute), "idle", "low"},
		{"long gone", now.Add(-10 * time.Minute), "offline", "low"},
		{"never seen", time.Time{}, "offline", "low"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, topologyStatus(tt.lastSeen, now))
			assert.Equal(t, tt.activity, activityLevel(tt.lastSeen, now))
		})
	}
}

func TestMapDeviceType(t *testing.T) {
	assert.Equal(t, "laptop", mapDeviceType("LAPTOP"))
	assert.Equal(t, "printer", mapDeviceType("PRINTER"))
	assert.Equal(t, "network", mapDeviceType("NETWORK"))
	assert.Equal(t, "network", mapDeviceType("TOASTER"))
	assert.Equal(t, "network", mapDeviceType(""))
}

func TestBuildTopologyView(t *testing.T) {
	now := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)
	firstSeen := now.Add(-time.Hour)
	lastSeen := now.Add(-10 * time.Second)

	devices := []*models.Device{
		{
			DeviceID:   "aa:bb:cc:dd:ee:01",
			Hostname:   "office-laptop",
			IPAddress:  "192.168.1.10",
			DeviceType: "LAPTOP",
			Vendor:     "Dell Inc.",
			FirstSeen:  firstSeen,
			LastSeen:   lastSeen,
		},
		{
			DeviceID: "aa:bb:cc:dd:ee:02",
		},
	}

	view := BuildTopologyView(devices, now)

	assert.Equal(t, "core-switch-1", view.Switch.ID)
	assert.Equal(t, "Core Switch", view.Switch.Name)
	assert.Equal(t, "healthy", view.Switch.Status)
	assert.Equal(t, 400, view.Switch.X)
	assert.Equal(t, 300, view.Switch.Y)

	require.Len(t, view.Devices, 2)

	laptop := view.Devices[0]
	assert.Equal(t, "office-laptop", laptop.Name)
	assert.Equal(t, "aa:bb:cc:dd:ee:01", laptop.MAC)
	assert.Equal(t, "laptop", laptop.Type)
	assert.Equal(t, "active", laptop.Status)
	assert.Equal(t, "high", laptop.ActivityLevel)
	require.NotNil(t, laptop.FirstSeen)
	require.NotNil(t, laptop.LastSeen)
	assert.True(t, laptop.LastSeen.Equal(lastSeen))

	// Without a hostname the hardware address doubles as display name.
	bare := view.Devices[1]
	assert.Equal(t, "aa:bb:cc:dd:ee:02", bare.Name)
	assert.Equal(t, "offline", bare.Status)
	assert.Equal(t, "low", bare.ActivityLevel)
	assert.Nil(t, bare.FirstSeen)
	assert.Nil(t, bare.LastSeen)
}

func TestBuildTopologyViewEmpty(t *testing.T) {
	view := BuildTopologyView(nil, time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC))

	assert.Equal(t, "core-switch-1", view.Switch.ID)
	assert.NotNil(t, view.Devices)
	assert.Empty(t, view.Devices)
}
