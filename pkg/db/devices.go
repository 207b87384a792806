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

const deviceColumns = `device_id, hostname, ip_address, device_type, os, vendor,
	first_seen, last_seen, status, data_sent, data_received, created_at, updated_at`

func scanDevice(row interface{ Scan(dest ...any) error }) (*models.Device, error) {
	var d models.Device

	var firstSeen, lastSeen, createdAt, updatedAt string

	err := row.Scan(&d.DeviceID, &d.Hostname, &d.IPAddress, &d.DeviceType, &d.OS, &d.Vendor,
		&firstSeen, &lastSeen, &d.Status, &d.DataSent, &d.DataReceived, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if d.FirstSeen, err = parseTime(firstSeen); err != nil {
		return nil, err
	}

	if d.LastSeen, err = parseTime(lastSeen); err != nil {
		return nil, err
	}

	if d.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}

	if d.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}

	return &d, nil
}

func getDevice(ctx context.Context, q execer, deviceID string) (*models.Device, error) {
	row := q.QueryRowContext(ctx,
		fmt.Sprintf("SELECT %s FROM devices WHERE device_id = ?", deviceColumns), deviceID)

	device, err := scanDevice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("device %q: %w", deviceID, ErrNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query device: %w", err)
	}

	return device, nil
}

// GetDevice returns the device row for the identifier, or ErrNotFound.
func (s *Store) GetDevice(ctx context.Context, deviceID string) (*models.Device, error) {
	return getDevice(ctx, s.db, deviceID)
}

func (t *storeTx) GetDevice(ctx context.Context, deviceID string) (*models.Device, error) {
	return getDevice(ctx, t.tx, deviceID)
}

func (t *storeTx) CreateDevice(ctx context.Context, device *models.Device) error {
	now := formatTime(time.Now())

	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO devices (device_id, hostname, ip_address, device_type, os, vendor,
			first_seen, last_seen, status, data_sent, data_received, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		device.DeviceID, device.Hostname, device.IPAddress, device.DeviceType, device.OS, device.Vendor,
		formatTime(device.FirstSeen), formatTime(device.LastSeen), device.Status,
		device.DataSent, device.DataReceived, now, now)
	if err != nil {
		return fmt.Errorf("failed to create device %q: %w", device.DeviceID, err)
	}

	return nil
}

func (t *storeTx) TouchDevice(ctx context.Context, deviceID string, lastSeen time.Time, status models.DeviceStatus) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE devices SET last_seen = ?, status = ?, updated_at = ?
		WHERE device_id = ?`,
		formatTime(lastSeen), status, formatTime(time.Now()), deviceID)
	if err != nil {
		return fmt.Errorf("failed to touch device %q: %w", deviceID, err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("device %q: %w", deviceID, ErrNotFound)
	}

	return nil
}

func (t *storeTx) RefreshDevice(ctx context.Context, device *models.Device) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE devices SET hostname = ?, ip_address = ?, os = ?, vendor = ?,
			last_seen = ?, status = ?, updated_at = ?
		WHERE device_id = ?`,
		device.Hostname, device.IPAddress, device.OS, device.Vendor,
		formatTime(device.LastSeen), device.Status, formatTime(time.Now()), device.DeviceID)
	if err != nil {
		return fmt.Errorf("failed to refresh device %q: %w", device.DeviceID, err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("device %q: %w", device.DeviceID, ErrNotFound)
	}

	return nil
}

// ListDevices returns every device row ordered by first observation.
func (s *Store) ListDevices(ctx context.Context) ([]*models.Device, error) {
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf("SELECT %s FROM devices ORDER BY first_seen, device_id", deviceColumns))
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	defer rows.Close()

	var devices []*models.Device

	for rows.Next() {
		device, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}

		devices = append(devices, device)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate devices: %w", err)
	}

	return devices, nil
}

// CountDevices returns the total number of device rows.
func (s *Store) CountDevices(ctx context.Context) (int, error) {
	var count int

	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM devices").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count devices: %w", err)
	}

	return count, nil
}

// CountDevicesByStatus counts devices with the given stored status.
func (s *Store) CountDevicesByStatus(ctx context.Context, status models.DeviceStatus) (int, error) {
	var count int

	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM devices WHERE status = ?", status).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count devices by status: %w", err)
	}

	return count, nil
}

// CountDevicesFirstSeenOn counts devices whose first_seen date equals the
// given UTC day.
func (s *Store) CountDevicesFirstSeenOn(ctx context.Context, day time.Time) (int, error) {
	var count int

	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM devices WHERE date(first_seen) = ?", formatDay(day)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count new devices: %w", err)
	}

	return count, nil
}
