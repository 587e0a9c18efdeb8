// Package realtime fans relationship events out to connected clients. The hub
// keys delivery by user identity rather than by transport, so any channel
// implementation (websocket today) can plug in.
package realtime

import (
	"sync"

	"github.com/google/uuid"

	"github.com/dcastillo/friendhub/internal/models"
)

// Channel is one live delivery path to a connected client instance.
// Deliver must not block; implementations drop the event when they cannot
// accept it immediately.
type Channel interface {
	Deliver(event models.Event)
}

// Hub maps user ids to their currently registered channels. A user may hold
// any number of channels (one per device); every event addressed to the user
// reaches all of them. The outer map lock is held only for lookups and set
// creation/eviction, so traffic for unrelated users never serializes on a
// single lock.
type Hub struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*channelSet
}

type channelSet struct {
	mu       sync.Mutex
	channels map[Channel]struct{}
	// evicted marks a set that has been removed from the hub map; a racing
	// Register must start over instead of adding to it.
	evicted bool
}

func NewHub() *Hub {
	return &Hub{users: make(map[uuid.UUID]*channelSet)}
}

// Register makes ch reachable for events addressed to userID. Registering the
// same channel twice has no additional effect.
func (h *Hub) Register(userID uuid.UUID, ch Channel) {
	for {
		h.mu.RLock()
		set := h.users[userID]
		h.mu.RUnlock()

		if set == nil {
			h.mu.Lock()
			set = h.users[userID]
			if set == nil {
				set = &channelSet{channels: make(map[Channel]struct{})}
				h.users[userID] = set
			}
			h.mu.Unlock()
		}

		set.mu.Lock()
		if set.evicted {
			set.mu.Unlock()
			continue
		}
		set.channels[ch] = struct{}{}
		set.mu.Unlock()
		return
	}
}

// Deregister removes ch from userID's set. Deregistering a channel that was
// never registered is a no-op.
func (h *Hub) Deregister(userID uuid.UUID, ch Channel) {
	h.mu.RLock()
	set := h.users[userID]
	h.mu.RUnlock()
	if set == nil {
		return
	}

	set.mu.Lock()
	delete(set.channels, ch)
	if len(set.channels) > 0 {
		set.mu.Unlock()
		return
	}
	set.evicted = true
	set.mu.Unlock()

	h.mu.Lock()
	if h.users[userID] == set {
		delete(h.users, userID)
	}
	h.mu.Unlock()
}

// Publish delivers event to every channel currently registered for userID.
// Best effort and fire-and-forget: no registered channels means nothing
// happens, and a slow channel drops the event rather than blocking.
func (h *Hub) Publish(userID uuid.UUID, event models.Event) {
	h.mu.RLock()
	set := h.users[userID]
	h.mu.RUnlock()
	if set == nil {
		return
	}

	for _, ch := range set.snapshot() {
		ch.Deliver(event)
	}
}

// ChannelCount reports how many channels userID currently holds.
func (h *Hub) ChannelCount(userID uuid.UUID) int {
	h.mu.RLock()
	set := h.users[userID]
	h.mu.RUnlock()
	if set == nil {
		return 0
	}

	set.mu.Lock()
	defer set.mu.Unlock()
	return len(set.channels)
}

func (s *channelSet) snapshot() []Channel {
	s.mu.Lock()
	defer s.mu.Unlock()

	channels := make([]Channel, 0, len(s.channels))
	for ch := range s.channels {
		channels = append(channels, ch)
	}
	return channels
}
