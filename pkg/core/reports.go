package core

import (
	"context"
	"fmt"
	"time"

	"github.com/ravindupe/netwatch/pkg/models"
)

// DailyReport aggregates device and traffic counters for one UTC day.
func (a *Analytics) DailyReport(ctx context.Context, day time.Time) (*models.DailyReport, error) {
	if day.IsZero() {
		day = a.now()
	}

	day = day.UTC()

	total, err := a.store.CountDevices(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build daily report: %w", err)
	}

	newDevices, err := a.store.CountDevicesFirstSeenOn(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("failed to build daily report: %w", err)
	}

	active, err := a.store.CountDevicesByStatus(ctx, models.DeviceStatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to build daily report: %w", err)
	}

	inactive, err := a.store.CountDevicesByStatus(ctx, models.DeviceStatusInactive)
	if err != nil {
		return nil, fmt.Errorf("failed to build daily report: %w", err)
	}

	totals, err := a.store.SumMetricsOn(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("failed to build daily report: %w", err)
	}

	return &models.DailyReport{
		Date:              day.Format("2006-01-02"),
		TotalDevices:      total,
		NewDevices:        newDevices,
		ActiveDevices:     active,
		InactiveDevices:   inactive,
		DataSentBytes:     totals.DataSent,
		DataReceivedBytes: totals.DataReceived,
		TotalPackets:      totals.TotalPackets,
	}, nil
}
