// Package realtime fans committed interactions out to all subscribers of a
// stream channel and tracks ephemeral viewer presence. One logical channel
// exists per stream; events within a channel are delivered in publish order,
// ordering across channels is unspecified.
package realtime

import (
	"sync"
	"time"

	"streamflow/pkg/logger"
	"streamflow/pkg/models"
)

// Event types carried on a stream channel.
const (
	EventInteraction = "interaction"
	EventPresence    = "presence"
)

// Event is one fan-out unit. Exactly one payload field is set, matching Type.
type Event struct {
	Type        string              `json:"type"`
	Interaction *models.Interaction `json:"interaction,omitempty"`
	Presence    *PresenceUpdate     `json:"presence,omitempty"`
}

// PresenceUpdate announces a viewer joining or leaving plus the resulting
// live count. The count is cosmetic; it must never gate access or billing.
type PresenceUpdate struct {
	StreamID string                `json:"stream_id"`
	Action   string                `json:"action"` // "join" or "leave"
	Entry    models.PresenceEntry  `json:"entry"`
	Count    int                   `json:"count"`
	Viewers  []models.PresenceEntry `json:"viewers,omitempty"`
}

// Subscription is one consumer's handle on a stream channel. Multiple local
// consumers may hold independent subscriptions to the same stream; each
// receives every event once.
type Subscription struct {
	hub      *Hub
	streamID string
	ch       chan Event
	once     sync.Once
}

// Events returns the receive channel. It is closed when the subscription is
// released, either by Unsubscribe or because the subscriber fell too far
// behind.
func (s *Subscription) Events() <-chan Event { return s.ch }

// Unsubscribe releases the subscription. Idempotent; safe on every teardown
// path including errors during setup.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.hub.remove(s)
		close(s.ch)
	})
}

type channel struct {
	subs     map[*Subscription]struct{}
	presence map[string]models.PresenceEntry // keyed by connection id
}

// Hub owns all stream channels for this process.
type Hub struct {
	mu     sync.Mutex
	chans  map[string]*channel
	buffer int
}

// NewHub returns a hub whose subscriptions buffer up to buffer events. A
// subscriber that falls a full buffer behind is disconnected rather than
// blocking the publisher.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 64
	}
	return &Hub{chans: make(map[string]*channel), buffer: buffer}
}

func (h *Hub) channelLocked(streamID string) *channel {
	c, ok := h.chans[streamID]
	if !ok {
		c = &channel{
			subs:     make(map[*Subscription]struct{}),
			presence: make(map[string]models.PresenceEntry),
		}
		h.chans[streamID] = c
	}
	return c
}

// Subscribe registers a new consumer on the stream's channel.
func (h *Hub) Subscribe(streamID string) *Subscription {
	sub := &Subscription{hub: h, streamID: streamID, ch: make(chan Event, h.buffer)}
	h.mu.Lock()
	h.channelLocked(streamID).subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.chans[sub.streamID]
	if !ok {
		return
	}
	delete(c.subs, sub)
	if len(c.subs) == 0 && len(c.presence) == 0 {
		delete(h.chans, sub.streamID)
	}
}

// Publish delivers an event to every subscriber of the stream. Subscribers
// whose buffers are full are dropped; delivery to the survivors is in
// publish order.
func (h *Hub) Publish(streamID string, ev Event) {
	h.mu.Lock()
	c, ok := h.chans[streamID]
	if !ok {
		h.mu.Unlock()
		return
	}
	var dropped []*Subscription
	for sub := range c.subs {
		select {
		case sub.ch <- ev:
		default:
			dropped = append(dropped, sub)
		}
	}
	h.mu.Unlock()

	for _, sub := range dropped {
		logger.Warn("subscriber_dropped", "stream", streamID, "reason", "slow consumer")
		sub.Unsubscribe()
	}
}

// PublishInteraction fans out one committed interaction.
func (h *Hub) PublishInteraction(ix models.Interaction) {
	h.Publish(ix.StreamID, Event{Type: EventInteraction, Interaction: &ix})
}

// Join records a viewer connection in the stream's presence set and fans out
// the change. connID must be unique per connection, not per user: the same
// user may watch from several tabs.
func (h *Hub) Join(streamID, connID string, entry models.PresenceEntry) {
	if entry.JoinedAt.IsZero() {
		entry.JoinedAt = time.Now().UTC()
	}
	h.mu.Lock()
	c := h.channelLocked(streamID)
	c.presence[connID] = entry
	count := len(c.presence)
	h.mu.Unlock()

	h.Publish(streamID, Event{Type: EventPresence, Presence: &PresenceUpdate{
		StreamID: streamID, Action: "join", Entry: entry, Count: count,
	}})
}

// Leave removes a viewer connection from the presence set. Idempotent: a
// second leave for the same connID is a no-op.
func (h *Hub) Leave(streamID, connID string) {
	h.mu.Lock()
	c, ok := h.chans[streamID]
	if !ok {
		h.mu.Unlock()
		return
	}
	entry, present := c.presence[connID]
	if !present {
		h.mu.Unlock()
		return
	}
	delete(c.presence, connID)
	count := len(c.presence)
	if len(c.subs) == 0 && len(c.presence) == 0 {
		delete(h.chans, streamID)
	}
	h.mu.Unlock()

	h.Publish(streamID, Event{Type: EventPresence, Presence: &PresenceUpdate{
		StreamID: streamID, Action: "leave", Entry: entry, Count: count,
	}})
}

// PresenceCount returns the live viewer count for a stream.
func (h *Hub) PresenceCount(streamID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.chans[streamID]
	if !ok {
		return 0
	}
	return len(c.presence)
}

// Viewers returns a snapshot of the presence set for a stream.
func (h *Hub) Viewers(streamID string) []models.PresenceEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.chans[streamID]
	if !ok {
		return nil
	}
	out := make([]models.PresenceEntry, 0, len(c.presence))
	for _, e := range c.presence {
		out = append(out, e)
	}
	return out
}
