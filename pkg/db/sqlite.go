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
	"fmt"
	"time"

	_ "modernc.org/sqlite" // pure-Go sqlite driver
)

// timeLayout is the canonical column format for timestamps. Fixed-width UTC
// so string comparison and sqlite date() agree with time ordering.
const timeLayout = "2006-01-02 15:04:05.000"

// Store implements Service on an embedded SQLite database.
type Store struct {
	db *sql.DB
}

// New opens (and if needed creates) the database at config.Path and applies
// the schema.
func New(config Config) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", config.Path)

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: conn}
	if err := store.migrate(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS devices (
		device_id     TEXT PRIMARY KEY,
		hostname      TEXT NOT NULL DEFAULT '',
		ip_address    TEXT NOT NULL DEFAULT '',
		device_type   TEXT NOT NULL DEFAULT '',
		os            TEXT NOT NULL DEFAULT '',
		vendor        TEXT NOT NULL DEFAULT '',
		first_seen    TEXT NOT NULL,
		last_seen     TEXT NOT NULL,
		status        TEXT NOT NULL,
		data_sent     INTEGER NOT NULL DEFAULT 0,
		data_received INTEGER NOT NULL DEFAULT 0,
		created_at    TEXT NOT NULL,
		updated_at    TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS device_events (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		device_id  TEXT NOT NULL,
		event_type TEXT NOT NULL,
		timestamp  TEXT NOT NULL,
		raw_json   TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS network_metrics (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		measure_time   TEXT NOT NULL,
		total_devices  INTEGER NOT NULL DEFAULT 0,
		active_devices INTEGER NOT NULL DEFAULT 0,
		data_sent      INTEGER NOT NULL DEFAULT 0,
		data_received  INTEGER NOT NULL DEFAULT 0,
		arp_requests   INTEGER NOT NULL DEFAULT 0,
		tcp_packets    INTEGER NOT NULL DEFAULT 0,
		udp_packets    INTEGER NOT NULL DEFAULT 0,
		icmp_packets   INTEGER NOT NULL DEFAULT 0,
		total_packets  INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS device_metrics (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		device_id     TEXT NOT NULL,
		measure_time  TEXT NOT NULL,
		data_sent     INTEGER NOT NULL DEFAULT 0,
		data_received INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_device_events_device ON device_events(device_id, timestamp);
	CREATE INDEX IF NOT EXISTS idx_device_events_type ON device_events(event_type, timestamp);
	CREATE INDEX IF NOT EXISTS idx_network_metrics_time ON network_metrics(measure_time);
	CREATE INDEX IF NOT EXISTS idx_device_metrics_device ON device_metrics(device_id, measure_time);
	`

	_, err := s.db.Exec(schema)

	return err
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// WithinTx runs fn inside a single transaction. The transaction commits when
// fn returns nil and rolls back on error or panic, so no partial writes are
// ever observable outside it.
func (s *Store) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = sqlTx.Rollback()
		}
	}()

	if err := fn(&storeTx{tx: sqlTx}); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	committed = true

	return nil
}

// storeTx adapts *sql.Tx to the Tx mutation surface.
type storeTx struct {
	tx *sql.Tx
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse stored timestamp %q: %w", s, err)
	}

	return t, nil
}

func formatDay(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
