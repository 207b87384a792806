package core

import (
	"time"

	"github.com/ravindupe/netwatch/pkg/models"
)

// Status thresholds on time since last_seen; activity uses a tighter set.
const (
	topologyActiveWithin = 60 * time.Second
	topologyIdleWithin   = 300 * time.Second

	activityHighWithin   = 30 * time.Second
	activityMediumWithin = 120 * time.Second
)

var deviceTypeLabels = map[string]string{
	"LAPTOP":  "laptop",
	"MOBILE":  "mobile",
	"PRINTER": "printer",
	"IOT":     "iot",
	"NETWORK": "network",
}

func mapDeviceType(deviceType string) string {
	if label, ok := deviceTypeLabels[deviceType]; ok {
		return label
	}

	return "network"
}

func topologyStatus(lastSeen, now time.Time) string {
	if lastSeen.IsZero() {
		return "offline"
	}

	switch age := now.Sub(lastSeen); {
	case age < topologyActiveWithin:
		return "active"
	case age < topologyIdleWithin:
		return "idle"
	default:
		return "offline"
	}
}

func activityLevel(lastSeen, now time.Time) string {
	if lastSeen.IsZero() {
		return "low"
	}

	switch age := now.Sub(lastSeen); {
	case age < activityHighWithin:
		return "high"
	case age < activityMediumWithin:
		return "medium"
	default:
		return "low"
	}
}

// BuildTopologyView renders the device set around the fixed core switch
// node, deriving display status and activity level from last_seen.
func BuildTopologyView(devices []*models.Device, now time.Time) *models.TopologyView {
	view := &models.TopologyView{
		Switch: models.SwitchNode{
			ID:     "core-switch-1",
			Name:   "Core Switch",
			Status: "healthy",
			X:      400,
			Y:      300,
		},
		Devices: make([]models.TopologyDevice, 0, len(devices)),
	}

	for _, device := range devices {
		name := device.Hostname
		if name == "" {
			name = device.DeviceID
		}

		entry := models.TopologyDevice{
			ID:            device.DeviceID,
			Name:          name,
			IP:            device.IPAddress,
			MAC:           device.DeviceID,
			Vendor:        device.Vendor,
			Type:          mapDeviceType(device.DeviceType),
			Status:        topologyStatus(device.LastSeen, now),
			ActivityLevel: activityLevel(device.LastSeen, now),
		}

		if !device.FirstSeen.IsZero() {
			firstSeen := device.FirstSeen
			entry.FirstSeen = &firstSeen
		}

		if !device.LastSeen.IsZero() {
			lastSeen := device.LastSeen
			entry.LastSeen = &lastSeen
		}

		view.Devices = append(view.Devices, entry)
	}

	return view
}
