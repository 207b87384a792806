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
	"net/http"
	"strconv"
	"time"
)

func (s *APIServer) handleDashboardAnalytics(w http.ResponseWriter, r *http.Request) {
	report, err := s.core.CompleteAnalytics(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to compute analytics")
		s.writeError(w, http.StatusInternalServerError, "analytics unavailable")

		return
	}

	s.writeJSON(w, http.StatusOK, report)
}

func (s *APIServer) handleTopBandwidth(w http.ResponseWriter, r *http.Request) {
	limit := 0

	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			s.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}

		limit = parsed
	}

	ranked, err := s.core.TopBandwidthDevices(r.Context(), limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to rank bandwidth devices")
		s.writeError(w, http.StatusInternalServerError, "bandwidth ranking unavailable")

		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{"devices": ranked})
}

func (s *APIServer) handleTopology(w http.ResponseWriter, r *http.Request) {
	view, err := s.core.TopologyView(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to build topology view")
		s.writeError(w, http.StatusInternalServerError, "topology unavailable")

		return
	}

	s.writeJSON(w, http.StatusOK, view)
}

func (s *APIServer) handleDailyReport(w http.ResponseWriter, r *http.Request) {
	var day time.Time

	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}

		day = parsed
	}

	report, err := s.core.DailyReport(r.Context(), day)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to build daily report")
		s.writeError(w, http.StatusInternalServerError, "report unavailable")

		return
	}

	s.writeJSON(w, http.StatusOK, report)
}
