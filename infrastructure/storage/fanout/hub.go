// Package fanout delivers appended events to live subscribers of an episode.
package fanout

import (
	"context"
	"slices"
	"sync"

	"github.com/globalapptesting/hrl-go/domain/event"
)

// Buffer is the capacity of each subscription channel. A subscriber that falls
// further behind misses events.
const Buffer = 128

// Hub tracks subscriber channels per episode.
type Hub struct {
	subscribers map[string][]chan event.Event
	closed      bool
	mu          sync.Mutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subscribers: make(map[string][]chan event.Event)}
}

// Subscribe registers a channel for episodeID that is closed when ctx ends.
func (h *Hub) Subscribe(ctx context.Context, episodeID string) (<-chan event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, event.ErrSubscriptionClosed
	}

	ch := make(chan event.Event, Buffer)
	h.subscribers[episodeID] = append(h.subscribers[episodeID], ch)

	go func() {
		<-ctx.Done()
		h.remove(episodeID, ch)
	}()
	return ch, nil
}

// Publish delivers events without blocking.
func (h *Hub) Publish(events ...event.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, e := range events {
		for _, ch := range h.subscribers[e.EpisodeID] {
			select {
			case ch <- e:
			default:
			}
		}
	}
}

// Drop closes every subscription of episodeID.
func (h *Hub) Drop(episodeID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.subscribers[episodeID] {
		close(ch)
	}
	delete(h.subscribers, episodeID)
}

// Close closes all subscriptions and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, subs := range h.subscribers {
		for _, ch := range subs {
			close(ch)
		}
	}
	clear(h.subscribers)
	h.closed = true
}

// Len returns the number of live subscriptions for episodeID.
func (h *Hub) Len(episodeID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers[episodeID])
}

func (h *Hub) remove(episodeID string, ch chan event.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs := h.subscribers[episodeID]
	i := slices.Index(subs, ch)
	if i < 0 {
		return
	}
	close(ch)
	if len(subs) == 1 {
		delete(h.subscribers, episodeID)
		return
	}
	h.subscribers[episodeID] = slices.Delete(subs, i, i+1)
}
