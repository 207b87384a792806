package core

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ravindupe/netwatch/pkg/db"
	"github.com/ravindupe/netwatch/pkg/logger"
	"github.com/ravindupe/netwatch/pkg/models"
)

const (
	trafficWindow  = time.Hour
	protocolWindow = 5 * time.Minute
	healthWindow   = 10 * time.Minute

	defaultTopBandwidthLimit = 5

	arpShareThreshold   = 0.3
	highTrafficPackets  = 10000
	udpToTCPRatio       = 2
	arpPenalty          = 20
	trafficPenalty      = 15
	ratioPenalty        = 10
	healthyAboveScore   = 80
	warningAboveScore   = 50
	unknownHostnameName = "Unknown"
)

// AnalyticsOption customises the Analytics aggregator.
type AnalyticsOption func(*Analytics)

// WithAnalyticsClock injects a deterministic clock (used for tests).
func WithAnalyticsClock(clock func() time.Time) AnalyticsOption {
	return func(a *Analytics) {
		if clock != nil {
			a.now = clock
		}
	}
}

// WithTopBandwidthLimit overrides the default ranking size.
func WithTopBandwidthLimit(limit int) AnalyticsOption {
	return func(a *Analytics) {
		if limit > 0 {
			a.topLimit = limit
		}
	}
}

// Analytics computes derived dashboard statistics on demand by querying the
// stores over trailing time windows. It never mutates state.
type Analytics struct {
	store    db.Service
	logger   logger.Logger
	now      func() time.Time
	topLimit int
}

// NewAnalytics creates an aggregator reading from the given store.
func NewAnalytics(store db.Service, log logger.Logger, opts ...AnalyticsOption) *Analytics {
	a := &Analytics{
		store:    store,
		logger:   log,
		now:      time.Now,
		topLimit: defaultTopBandwidthLimit,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}

	return a
}

// DashboardStats returns the headline device counts as of now.
func (a *Analytics) DashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	now := a.now().UTC()

	newToday, err := a.store.CountDevicesFirstSeenOn(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to compute dashboard stats: %w", err)
	}

	active, err := a.store.CountDevicesByStatus(ctx, models.DeviceStatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to compute dashboard stats: %w", err)
	}

	inactive, err := a.store.CountDevicesByStatus(ctx, models.DeviceStatusInactive)
	if err != nil {
		return nil, fmt.Errorf("failed to compute dashboard stats: %w", err)
	}

	total, err := a.store.CountDevices(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compute dashboard stats: %w", err)
	}

	return &models.DashboardStats{
		NewDevicesToday: newToday,
		ActiveDevices:   active,
		InactiveDevices: inactive,
		TotalDevices:    total,
	}, nil
}

// TrafficSummary sums counters over the trailing hour, converting byte sums
// to megabytes rounded to two decimals.
func (a *Analytics) TrafficSummary(ctx context.Context) (*models.TrafficSummary, error) {
	totals, err := a.store.SumMetricsSince(ctx, a.now().UTC().Add(-trafficWindow))
	if err != nil {
		return nil, fmt.Errorf("failed to compute traffic summary: %w", err)
	}

	return &models.TrafficSummary{
		TotalPackets:   totals.TotalPackets,
		TCPPackets:     totals.TCPPackets,
		UDPPackets:     totals.UDPPackets,
		ICMPPackets:    totals.ICMPPackets,
		ARPRequests:    totals.ARPRequests,
		DataSentMB:     bytesToMB(totals.DataSent),
		DataReceivedMB: bytesToMB(totals.DataReceived),
	}, nil
}

// ProtocolDistribution computes each protocol's percentage share of the
// packets seen in the trailing five minutes. All zero when the window holds
// no packets, so there is never a division by zero.
func (a *Analytics) ProtocolDistribution(ctx context.Context) (*models.ProtocolDistribution, error) {
	totals, err := a.store.SumMetricsSince(ctx, a.now().UTC().Add(-protocolWindow))
	if err != nil {
		return nil, fmt.Errorf("failed to compute protocol distribution: %w", err)
	}

	dist := &models.ProtocolDistribution{}

	if totals.TotalPackets <= 0 {
		return dist, nil
	}

	total := float64(totals.TotalPackets)
	dist.TCPPercentage = round2(float64(totals.TCPPackets) / total * 100)
	dist.UDPPercentage = round2(float64(totals.UDPPackets) / total * 100)
	dist.ICMPPercentage = round2(float64(totals.ICMPPackets) / total * 100)
	dist.ARPPercentage = round2(float64(totals.ARPRequests) / total * 100)

	return dist, nil
}

// NetworkHealth scores the most recent snapshot within the trailing ten
// minutes. An empty window reports a perfectly healthy network.
func (a *Analytics) NetworkHealth(ctx context.Context) (*models.NetworkHealth, error) {
	latest, err := a.store.LatestMetricSince(ctx, a.now().UTC().Add(-healthWindow))
	if errors.Is(err, db.ErrNotFound) {
		return &models.NetworkHealth{
			HealthScore: 100,
			Issues:      []string{},
			Status:      models.HealthStatusHealthy,
		}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to compute network health: %w", err)
	}

	score := 100
	issues := []string{}

	if float64(latest.ARPRequests) > float64(latest.TotalPackets)*arpShareThreshold {
		score -= arpPenalty

		issues = append(issues, "ARP traffic unusually high")
	}

	if latest.TotalPackets > highTrafficPackets {
		score -= trafficPenalty

		issues = append(issues, "High network traffic")
	}

	if latest.UDPPackets > latest.TCPPackets*udpToTCPRatio {
		score -= ratioPenalty

		issues = append(issues, "Unusual UDP/TCP ratio")
	}

	if score < 0 {
		score = 0
	}

	status := models.HealthStatusCritical

	switch {
	case score > healthyAboveScore:
		status = models.HealthStatusHealthy
	case score > warningAboveScore:
		status = models.HealthStatusWarning
	}

	return &models.NetworkHealth{HealthScore: score, Issues: issues, Status: status}, nil
}

// TopBandwidthDevices ranks devices by sent+received bytes over the
// trailing hour, descending. A non-positive limit uses the default.
func (a *Analytics) TopBandwidthDevices(ctx context.Context, limit int) ([]models.DeviceBandwidth, error) {
	if limit <= 0 {
		limit = a.topLimit
	}

	rows, err := a.store.TopBandwidthDevicesSince(ctx, a.now().UTC().Add(-trafficWindow), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to rank bandwidth devices: %w", err)
	}

	ranked := make([]models.DeviceBandwidth, 0, len(rows))
	for _, row := range rows {
		ranked = append(ranked, models.DeviceBandwidth{
			DeviceID:       row.DeviceID,
			TotalTrafficMB: bytesToMB(row.TotalBytes),
		})
	}

	return ranked, nil
}

// DeviceConnectionsToday counts DEVICE_JOINED events observed on the
// current UTC day.
func (a *Analytics) DeviceConnectionsToday(ctx context.Context) (*models.DeviceConnections, error) {
	count, err := a.store.CountEventsByTypeOn(ctx, models.EventDeviceJoined, a.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to count device connections: %w", err)
	}

	return &models.DeviceConnections{TotalConnectionsToday: count}, nil
}

// DeviceList returns every known device with its trailing-hour event count.
func (a *Analytics) DeviceList(ctx context.Context) ([]models.DeviceSummary, error) {
	devices, err := a.store.ListDevices(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	since := a.now().UTC().Add(-trafficWindow)
	summaries := make([]models.DeviceSummary, 0, len(devices))

	for _, device := range devices {
		activity, err := a.store.CountDeviceEventsSince(ctx, device.DeviceID, since)
		if err != nil {
			return nil, fmt.Errorf("failed to count device activity: %w", err)
		}

		hostname := device.Hostname
		if hostname == "" {
			hostname = unknownHostnameName
		}

		firstSeen := device.FirstSeen
		lastSeen := device.LastSeen

		summaries = append(summaries, models.DeviceSummary{
			DeviceID:              device.DeviceID,
			IP:                    device.IPAddress,
			Vendor:                device.Vendor,
			Status:                device.Status,
			FirstSeen:             &firstSeen,
			LastSeen:              &lastSeen,
			ActivityCountLastHour: activity,
			Hostname:              hostname,
		})
	}

	return summaries, nil
}

// Complete assembles the full analytics snapshot served on the dashboard
// endpoint.
func (a *Analytics) Complete(ctx context.Context) (*models.AnalyticsReport, error) {
	stats, err := a.DashboardStats(ctx)
	if err != nil {
		return nil, err
	}

	traffic, err := a.TrafficSummary(ctx)
	if err != nil {
		return nil, err
	}

	connections, err := a.DeviceConnectionsToday(ctx)
	if err != nil {
		return nil, err
	}

	distribution, err := a.ProtocolDistribution(ctx)
	if err != nil {
		return nil, err
	}

	devices, err := a.DeviceList(ctx)
	if err != nil {
		return nil, err
	}

	health, err := a.NetworkHealth(ctx)
	if err != nil {
		return nil, err
	}

	return &models.AnalyticsReport{
		Timestamp:            a.now().UTC(),
		DashboardStats:       stats,
		TrafficSummary:       traffic,
		DeviceConnections:    connections,
		ProtocolDistribution: distribution,
		Devices:              devices,
		NetworkHealth:        health,
	}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func bytesToMB(bytes int64) float64 {
	return round2(float64(bytes) / (1024 * 1024))
}
