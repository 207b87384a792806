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
	"fmt"
	"time"

	"github.com/ravindupe/netwatch/pkg/models"
)

func (t *storeTx) AppendDeviceEvent(ctx context.Context, event *models.DeviceEvent) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO device_events (device_id, event_type, timestamp, raw_json)
		VALUES (?, ?, ?, ?)`,
		event.DeviceID, event.EventType, formatTime(event.Timestamp), event.RawJSON)
	if err != nil {
		return fmt.Errorf("failed to append device event: %w", err)
	}

	return nil
}

// CountDeviceEventsSince counts log entries for one device at or after the
// given instant.
func (s *Store) CountDeviceEventsSince(ctx context.Context, deviceID string, since time.Time) (int, error) {
	var count int

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM device_events
		WHERE device_id = ? AND timestamp >= ?`,
		deviceID, formatTime(since)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count device events: %w", err)
	}

	return count, nil
}

// CountEventsByTypeOn counts log entries of one event type on the given UTC
// day.
func (s *Store) CountEventsByTypeOn(ctx context.Context, eventType models.EventType, day time.Time) (int, error) {
	var count int

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM device_events
		WHERE event_type = ? AND date(timestamp) = ?`,
		eventType, formatDay(day)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count events by type: %w", err)
	}

	return count, nil
}
