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

// Package hub manages a set of live subscriber connections and fans
// messages out to all of them, pruning subscribers that fail delivery.
package hub

import (
	"encoding/json"
	"sync"

	"github.com/ravindupe/netwatch/pkg/logger"
)

// Subscriber is one live observer connection. Send must be safe to call
// from the hub's broadcasting goroutine.
type Subscriber interface {
	ID() string
	Send(data []byte) error
	Close() error
}

// Hub owns the live subscriber set. It is the only entity that adds or
// removes entries, and all operations are safe under concurrent use.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]Subscriber
	logger      logger.Logger
}

// New creates an empty hub.
func New(log logger.Logger) *Hub {
	return &Hub{
		subscribers: make(map[string]Subscriber),
		logger:      log,
	}
}

// Register adds a subscriber. It becomes visible to all subsequent
// broadcasts.
func (h *Hub) Register(sub Subscriber) {
	h.mu.Lock()
	h.subscribers[sub.ID()] = sub
	total := len(h.subscribers)
	h.mu.Unlock()

	h.logger.Info().Str("subscriber_id", sub.ID()).Int("total", total).Msg("Subscriber connected")
}

// Unregister removes a subscriber. A no-op when the subscriber is already
// gone, so concurrent double-removal is safe.
func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	sub, ok := h.subscribers[id]
	if ok {
		delete(h.subscribers, id)
	}
	total := len(h.subscribers)
	h.mu.Unlock()

	if !ok {
		return
	}

	_ = sub.Close()

	h.logger.Info().Str("subscriber_id", id).Int("total", total).Msg("Subscriber disconnected")
}

// Count returns the number of live subscribers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.subscribers)
}

// Broadcast marshals message once and attempts delivery to every subscriber
// live at call time. A failed delivery never aborts the pass; failing
// subscribers are removed after the pass completes. Returns the number of
// successful deliveries.
func (h *Hub) Broadcast(message any) int {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to marshal broadcast message")
		return 0
	}

	h.mu.RLock()
	live := make([]Subscriber, 0, len(h.subscribers))
	for _, sub := range h.subscribers {
		live = append(live, sub)
	}
	h.mu.RUnlock()

	var failed []string

	delivered := 0

	for _, sub := range live {
		if err := sub.Send(data); err != nil {
			h.logger.Warn().Err(err).Str("subscriber_id", sub.ID()).Msg("Delivery failed, pruning subscriber")
			failed = append(failed, sub.ID())

			continue
		}

		delivered++
	}

	for _, id := range failed {
		h.Unregister(id)
	}

	return delivered
}

// Stop closes and removes every subscriber.
func (h *Hub) Stop() {
	h.mu.Lock()
	subs := h.subscribers
	h.subscribers = make(map[string]Subscriber)
	h.mu.Unlock()

	for _, sub := range subs {
		_ = sub.Close()
	}
}
