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

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ravindupe/netwatch/pkg/hub"
	"github.com/ravindupe/netwatch/pkg/models"
)

// wsSubscriber adapts a websocket connection to the hub.Subscriber
// interface. Gorilla connections forbid concurrent writers, so Send holds a
// write mutex.
type wsSubscriber struct {
	id   string
	conn *websocket.Conn
	mu   sync.Mutex
}

func newWSSubscriber(conn *websocket.Conn) *wsSubscriber {
	return &wsSubscriber{id: uuid.NewString(), conn: conn}
}

func (w *wsSubscriber) ID() string { return w.id }

func (w *wsSubscriber) Send(data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.conn.WriteMessage(websocket.TextMessage, data)
}

func (w *wsSubscriber) Close() error {
	return w.conn.Close()
}

// handleDeviceWS ingests telemetry from one device-facing source. Messages
// are processed in arrival order; a bad message is dropped while the
// connection stays open.
func (s *APIServer) handleDeviceWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error().Err(err).Str("remote_addr", r.RemoteAddr).Msg("Failed to upgrade device socket")
		return
	}

	defer conn.Close()

	s.logger.Info().Str("remote_addr", r.RemoteAddr).Msg("Telemetry source connected")

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			s.logger.Info().Str("remote_addr", r.RemoteAddr).Msg("Telemetry source disconnected")
			return
		}

		if err := s.core.HandleTelemetry(r.Context(), raw); err != nil {
			var vErr *models.ValidationError
			if errors.As(err, &vErr) {
				s.logger.Warn().
					Str("remote_addr", r.RemoteAddr).
					Str("field", vErr.Field).
					Msg("Dropped invalid telemetry message")
			} else {
				s.logger.Error().Err(err).Str("remote_addr", r.RemoteAddr).Msg("Telemetry message failed")
			}
		}
	}
}

// handleFrontendWS registers a dashboard observer that receives every
// broadcast until its connection drops.
func (s *APIServer) handleFrontendWS(w http.ResponseWriter, r *http.Request) {
	s.serveSubscriber(w, r, s.core.FrontendHub(), nil)
}

// handleTopologyWS registers a topology observer. The current view is sent
// immediately; afterwards the pipeline pushes refreshes on its cadence.
func (s *APIServer) handleTopologyWS(w http.ResponseWriter, r *http.Request) {
	view, err := s.core.TopologyView(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to build initial topology view")
		s.writeError(w, http.StatusInternalServerError, "topology unavailable")

		return
	}

	s.serveSubscriber(w, r, s.core.TopologyHub(), view)
}

// serveSubscriber upgrades the request, registers the connection with the
// hub and keeps reading until the peer goes away. Subscribers only listen;
// inbound frames are discarded.
func (s *APIServer) serveSubscriber(w http.ResponseWriter, r *http.Request, h *hub.Hub, initial any) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error().Err(err).Str("remote_addr", r.RemoteAddr).Msg("Failed to upgrade subscriber socket")
		return
	}

	sub := newWSSubscriber(conn)

	if initial != nil {
		data, err := json.Marshal(initial)
		if err != nil {
			s.logger.Error().Err(err).Msg("Failed to marshal initial payload")
		} else if err := sub.Send(data); err != nil {
			_ = conn.Close()
			return
		}
	}

	h.Register(sub)
	defer h.Unregister(sub.ID())

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
