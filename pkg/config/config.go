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

// Package config loads the Netwatch service configuration from a JSON file
// with environment variable overrides.
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ravindupe/netwatch/pkg/db"
	"github.com/ravindupe/netwatch/pkg/logger"
)

const (
	defaultListenAddr           = ":8080"
	defaultDatabasePath         = "netwatch.db"
	defaultTopologyPushInterval = 5 * time.Second
)

// Config is the top-level service configuration.
type Config struct {
	ListenAddr           string         `json:"listen_addr"`
	Database             db.Config      `json:"database"`
	TopologyPushInterval Duration       `json:"topology_push_interval"`
	Logging              *logger.Config `json:"logging,omitempty"`
}

// Duration wraps time.Duration so JSON configs can use strings like "5s".
type Duration time.Duration

// UnmarshalJSON accepts either a duration string or nanoseconds.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch v := raw.(type) {
	case string:
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", v, err)
		}

		*d = Duration(parsed)

		return nil
	case float64:
		*d = Duration(time.Duration(v))
		return nil
	default:
		return fmt.Errorf("invalid duration value %v", raw)
	}
}

// MarshalJSON renders the duration in its string form.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// FileConfigLoader loads configuration from a local JSON file.
type FileConfigLoader struct{}

// Load implements ConfigLoader by reading and unmarshaling a JSON file.
func (*FileConfigLoader) Load(_ context.Context, path string, dst interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file '%s': %w", path, err)
	}

	err = json.Unmarshal(data, dst)
	if err != nil {
		return fmt.Errorf("failed to unmarshal JSON from '%s': %w", path, err)
	}

	return nil
}

// Load reads the configuration at path. A missing path yields pure defaults,
// and NETWATCH_* environment variables override the file in either case.
func Load(ctx context.Context, path string) (*Config, error) {
	cfg := &Config{
		ListenAddr:           defaultListenAddr,
		Database:             db.Config{Path: defaultDatabasePath},
		TopologyPushInterval: Duration(defaultTopologyPushInterval),
	}

	if path != "" {
		loader := &FileConfigLoader{}
		if err := loader.Load(ctx, path, cfg); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if cfg.ListenAddr == "" {
		cfg.ListenAddr = defaultListenAddr
	}

	if cfg.Database.Path == "" {
		cfg.Database.Path = defaultDatabasePath
	}

	if cfg.TopologyPushInterval <= 0 {
		cfg.TopologyPushInterval = Duration(defaultTopologyPushInterval)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if addr := os.Getenv("NETWATCH_LISTEN_ADDR"); addr != "" {
		cfg.ListenAddr = addr
	}

	if dbPath := os.Getenv("NETWATCH_DB_PATH"); dbPath != "" {
		cfg.Database.Path = dbPath
	}

	if raw := os.Getenv("NETWATCH_TOPOLOGY_PUSH_INTERVAL"); raw != "" {
		if interval, err := time.ParseDuration(raw); err == nil && interval > 0 {
			cfg.TopologyPushInterval = Duration(interval)
		}
	}
}
