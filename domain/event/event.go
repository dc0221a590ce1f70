// Package event provides the record of an episode as an ordered stream of
// domain events.
package event

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event is one entry in an episode's event stream.
type Event struct {
	// ID is the unique identifier for this event.
	ID string `json:"id"`

	// EpisodeID is the episode this event belongs to.
	EpisodeID string `json:"episode_id"`

	// Type classifies the event.
	Type Type `json:"type"`

	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`

	// Payload contains the event-specific data.
	Payload json.RawMessage `json:"payload"`

	// Sequence is the ordering number within the episode's stream. Stores
	// assign it on append.
	Sequence uint64 `json:"sequence"`

	// Version is the event schema version.
	Version int `json:"version,omitempty"`
}

// NewEvent creates a new event with the given type and payload.
func NewEvent(episodeID string, eventType Type, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}

	return Event{
		EpisodeID: episodeID,
		Type:      eventType,
		Timestamp: time.Now(),
		Payload:   data,
		Version:   1,
	}, nil
}

// UnmarshalPayload decodes the event payload into the given value.
func (e *Event) UnmarshalPayload(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// Validate reports whether the event can be appended to a store.
func (e *Event) Validate() error {
	if e.EpisodeID == "" {
		return fmt.Errorf("%w: missing episode id", ErrInvalidEvent)
	}
	if e.Type == "" {
		return fmt.Errorf("%w: missing type", ErrInvalidEvent)
	}
	return nil
}
