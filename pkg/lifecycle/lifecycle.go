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

// Package lifecycle runs the Netwatch service: it bootstraps logging,
// starts the API server and the pipeline loop, and shuts everything down
// on SIGINT or SIGTERM.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/ravindupe/netwatch/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// APIService is the HTTP surface the lifecycle manages.
type APIService interface {
	Start() error
	Shutdown(ctx context.Context) error
}

// CoreRunner is the background pipeline the lifecycle drives.
type CoreRunner interface {
	Run(ctx context.Context) error
	Close() error
}

// NewLogger builds the service logger from the given configuration,
// falling back to defaults when config is nil.
func NewLogger(config *logger.Config) (logger.Logger, error) {
	if config == nil {
		config = logger.DefaultConfig()
	}

	log, err := logger.New(config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return log, nil
}

// RunServer blocks until the context is cancelled or a termination signal
// arrives, then drains the API server and closes the pipeline.
func RunServer(ctx context.Context, api APIService, core CoreRunner, log logger.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	apiErr := make(chan error, 1)

	go func() {
		if err := api.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			apiErr <- err
		}
	}()

	coreErr := make(chan error, 1)

	go func() {
		if err := core.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			coreErr <- err
		}
	}()

	var runErr error

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutdown signal received")
	case err := <-apiErr:
		runErr = fmt.Errorf("API server failed: %w", err)
	case err := <-coreErr:
		runErr = fmt.Errorf("pipeline failed: %w", err)
	}

	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := api.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Failed to shut down API server cleanly")
	}

	if err := core.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close pipeline cleanly")
	}

	log.Info().Msg("Shutdown complete")

	return runErr
}
