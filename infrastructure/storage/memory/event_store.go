// Package memory provides in-process storage for episode event streams.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/globalapptesting/hrl-go/domain/event"
	"github.com/globalapptesting/hrl-go/infrastructure/storage/fanout"
	"github.com/google/uuid"
)

// EventStore is an in-memory implementation of event.Store.
type EventStore struct {
	streams map[string][]event.Event // episodeID -> events
	hub     *fanout.Hub
	mu      sync.RWMutex
}

// NewEventStore creates a new in-memory event store.
func NewEventStore() *EventStore {
	return &EventStore{
		streams: make(map[string][]event.Event),
		hub:     fanout.NewHub(),
	}
}

// Append persists one or more events atomically. Nothing is stored when any
// event is invalid.
func (s *EventStore) Append(ctx context.Context, events ...event.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(events) == 0 {
		return nil
	}
	for i := range events {
		if err := events[i].Validate(); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batch := slices.Clone(events)
	next := make(map[string]uint64)
	for i := range batch {
		id := batch[i].EpisodeID
		if _, ok := next[id]; !ok {
			next[id] = uint64(len(s.streams[id]))
		}
		next[id]++
		batch[i].Sequence = next[id]
		if batch[i].ID == "" {
			batch[i].ID = uuid.New().String()
		}
	}

	for _, e := range batch {
		s.streams[e.EpisodeID] = append(s.streams[e.EpisodeID], e)
	}
	s.hub.Publish(batch...)
	return nil
}

// LoadEvents retrieves all events for an episode in sequence order.
func (s *EventStore) LoadEvents(ctx context.Context, episodeID string) ([]event.Event, error) {
	return s.LoadEventsFrom(ctx, episodeID, 0)
}

// LoadEventsFrom retrieves events with a sequence number of at least fromSeq.
func (s *EventStore) LoadEventsFrom(ctx context.Context, episodeID string, fromSeq uint64) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	stream := s.streams[episodeID]
	result := make([]event.Event, 0, len(stream))
	for _, e := range stream {
		if e.Sequence >= fromSeq {
			result = append(result, e)
		}
	}
	return result, nil
}

// Subscribe returns a channel that receives new events for an episode. The
// channel is closed when ctx is cancelled.
func (s *EventStore) Subscribe(ctx context.Context, episodeID string) (<-chan event.Event, error) {
	return s.hub.Subscribe(ctx, episodeID)
}

// ListEpisodes returns all episode IDs with events, sorted.
func (s *EventStore) ListEpisodes(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.streams))
	for id := range s.streams {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

// CountEvents returns the number of events for an episode.
func (s *EventStore) CountEvents(ctx context.Context, episodeID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return int64(len(s.streams[episodeID])), nil
}

// DeleteEpisode removes all events for an episode and closes its subscriptions.
func (s *EventStore) DeleteEpisode(ctx context.Context, episodeID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.hub.Drop(episodeID)

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.streams, episodeID)
	return nil
}

// Len returns the total number of events across all episodes.
func (s *EventStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	for _, stream := range s.streams {
		n += len(stream)
	}
	return n
}

var (
	_ event.Store  = (*EventStore)(nil)
	_ event.Lister = (*EventStore)(nil)
)
