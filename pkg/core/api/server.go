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

// Package api provides the HTTP and websocket surface of the Netwatch
// backend.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/ravindupe/netwatch/pkg/hub"
	"github.com/ravindupe/netwatch/pkg/logger"
	"github.com/ravindupe/netwatch/pkg/models"
)

const (
	defaultListenAddr = ":8080"

	readHeaderTimeout = 10 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 60 * time.Second
)

// CoreService is the pipeline surface the API depends on.
type CoreService interface {
	HandleTelemetry(ctx context.Context, raw []byte) error
	CompleteAnalytics(ctx context.Context) (*models.AnalyticsReport, error)
	TopBandwidthDevices(ctx context.Context, limit int) ([]models.DeviceBandwidth, error)
	DailyReport(ctx context.Context, day time.Time) (*models.DailyReport, error)
	TopologyView(ctx context.Context) (*models.TopologyView, error)
	FrontendHub() *hub.Hub
	TopologyHub() *hub.Hub
}

// APIServer serves the REST endpoints and the websocket channels.
type APIServer struct {
	core       CoreService
	router     *mux.Router
	httpServer *http.Server
	logger     logger.Logger
	listenAddr string
	upgrader   websocket.Upgrader
}

// NewAPIServer creates an API server around the given pipeline.
func NewAPIServer(core CoreService, log logger.Logger, options ...func(*APIServer)) *APIServer {
	s := &APIServer{
		core:       core,
		router:     mux.NewRouter(),
		logger:     log,
		listenAddr: defaultListenAddr,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}

	for _, o := range options {
		o(s)
	}

	s.setupRoutes()

	return s
}

// WithListenAddr sets the HTTP listen address.
func WithListenAddr(addr string) func(*APIServer) {
	return func(s *APIServer) {
		if addr != "" {
			s.listenAddr = addr
		}
	}
}

func (s *APIServer) setupRoutes() {
	s.router.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)

	s.router.HandleFunc("/ws/device", s.handleDeviceWS)
	s.router.HandleFunc("/ws/frontend", s.handleFrontendWS)
	s.router.HandleFunc("/api/topology/ws", s.handleTopologyWS)

	s.router.HandleFunc("/api/analytics/dashboard", s.handleDashboardAnalytics).Methods(http.MethodGet)
	s.router.HandleFunc("/api/analytics/bandwidth", s.handleTopBandwidth).Methods(http.MethodGet)
	s.router.HandleFunc("/api/topology", s.handleTopology).Methods(http.MethodGet)
	s.router.HandleFunc("/api/reports/daily", s.handleDailyReport).Methods(http.MethodGet)
}

// Router exposes the handler, mainly for tests.
func (s *APIServer) Router() http.Handler {
	return s.router
}

// Start begins serving and blocks until the listener fails or is shut down.
func (s *APIServer) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.listenAddr,
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	s.logger.Info().Str("addr", s.listenAddr).Msg("API server listening")

	return s.httpServer.ListenAndServe()
}

// Shutdown stops the HTTP server gracefully.
func (s *APIServer) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}

	return s.httpServer.Shutdown(ctx)
}

func (s *APIServer) handleRoot(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "Welcome to the Netwatch device monitoring backend"})
}

func (s *APIServer) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

func (s *APIServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
