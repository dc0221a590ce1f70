package event

import "errors"

// Domain errors for event store operations.
var (
	// ErrEpisodeNotFound is returned when no events exist for an episode.
	ErrEpisodeNotFound = errors.New("episode not found in event store")

	// ErrInvalidEvent is returned when an event is malformed.
	ErrInvalidEvent = errors.New("invalid event")

	// ErrConnectionFailed is returned when connection to the store backend fails.
	ErrConnectionFailed = errors.New("event store connection failed")

	// ErrSubscriptionClosed is returned when a subscription channel is closed.
	ErrSubscriptionClosed = errors.New("event subscription closed")
)
