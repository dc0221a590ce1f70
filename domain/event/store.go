package event

import "context"

// Store defines the interface for event persistence.
type Store interface {
	// Append persists one or more events atomically. Events are assigned
	// sequence numbers in order of appearance, per episode.
	Append(ctx context.Context, events ...Event) error

	// LoadEvents retrieves all events for an episode in sequence order.
	LoadEvents(ctx context.Context, episodeID string) ([]Event, error)

	// LoadEventsFrom retrieves events with a sequence number of at least fromSeq.
	LoadEventsFrom(ctx context.Context, episodeID string, fromSeq uint64) ([]Event, error)

	// Subscribe returns a channel that receives new events for an episode.
	// The channel is closed when the context is cancelled.
	Subscribe(ctx context.Context, episodeID string) (<-chan Event, error)
}

// Lister is an optional interface for stores that can enumerate episodes.
type Lister interface {
	// ListEpisodes returns all episode IDs with events in the store.
	ListEpisodes(ctx context.Context) ([]string, error)

	// CountEvents returns the number of events for an episode.
	CountEvents(ctx context.Context, episodeID string) (int64, error)
}

// Closer is implemented by stores holding external resources.
type Closer interface {
	Close() error
}
