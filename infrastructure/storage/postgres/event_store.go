package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/globalapptesting/hrl-go/domain/event"
	"github.com/globalapptesting/hrl-go/infrastructure/storage/fanout"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EventStore is a PostgreSQL-backed implementation of event.Store.
type EventStore struct {
	pool   *pgxpool.Pool
	schema string
	hub    *fanout.Hub
}

// NewEventStore creates a store over an existing pool.
func NewEventStore(pool *pgxpool.Pool, schema string) *EventStore {
	if schema == "" {
		schema = "public"
	}
	return &EventStore{pool: pool, schema: schema, hub: fanout.NewHub()}
}

func (s *EventStore) tableName() string {
	return pgx.Identifier{s.schema, "episode_events"}.Sanitize()
}

// Migrate creates the events table if it doesn't exist.
func (s *EventStore) Migrate(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id         UUID PRIMARY KEY,
			episode_id TEXT NOT NULL,
			type       TEXT NOT NULL,
			timestamp  TIMESTAMPTZ NOT NULL,
			payload    JSONB,
			sequence   BIGINT NOT NULL,
			version    INT NOT NULL DEFAULT 1,
			UNIQUE (episode_id, sequence)
		)`, s.tableName())

	if _, err := s.pool.Exec(ctx, query); err != nil {
		return s.wrapError(err)
	}
	return nil
}

// Append persists one or more events in a single transaction.
func (s *EventStore) Append(ctx context.Context, events ...event.Event) error {
	if len(events) == 0 {
		return nil
	}
	for i := range events {
		if err := events[i].Validate(); err != nil {
			return err
		}
	}

	stored := make([]event.Event, len(events))
	copy(stored, events)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return s.wrapError(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	maxQuery := fmt.Sprintf("SELECT COALESCE(MAX(sequence), 0) FROM %s WHERE episode_id = $1", s.tableName())
	insertQuery := fmt.Sprintf(`
		INSERT INTO %s (id, episode_id, type, timestamp, payload, sequence, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`, s.tableName())

	next := make(map[string]uint64)
	for i := range stored {
		e := &stored[i]
		if _, ok := next[e.EpisodeID]; !ok {
			var last int64
			if err := tx.QueryRow(ctx, maxQuery, e.EpisodeID).Scan(&last); err != nil {
				return s.wrapError(err)
			}
			next[e.EpisodeID] = uint64(last)
		}
		next[e.EpisodeID]++
		e.Sequence = next[e.EpisodeID]

		if e.ID == "" {
			e.ID = uuid.New().String()
		}
		if e.Version == 0 {
			e.Version = 1
		}

		if _, err := tx.Exec(ctx, insertQuery,
			e.ID, e.EpisodeID, string(e.Type), e.Timestamp, []byte(e.Payload), int64(e.Sequence), e.Version,
		); err != nil {
			return s.wrapError(err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return s.wrapError(err)
	}

	s.hub.Publish(stored...)
	return nil
}

// LoadEvents retrieves all events for an episode in sequence order.
func (s *EventStore) LoadEvents(ctx context.Context, episodeID string) ([]event.Event, error) {
	return s.LoadEventsFrom(ctx, episodeID, 0)
}

// LoadEventsFrom retrieves events with a sequence number of at least fromSeq.
func (s *EventStore) LoadEventsFrom(ctx context.Context, episodeID string, fromSeq uint64) ([]event.Event, error) {
	query := fmt.Sprintf(`
		SELECT id, episode_id, type, timestamp, payload, sequence, version
		FROM %s
		WHERE episode_id = $1 AND sequence >= $2
		ORDER BY sequence ASC`, s.tableName())

	rows, err := s.pool.Query(ctx, query, episodeID, int64(fromSeq))
	if err != nil {
		return nil, s.wrapError(err)
	}
	defer rows.Close()

	events := []event.Event{}
	for rows.Next() {
		var (
			e        event.Event
			typ      string
			sequence int64
		)
		if err := rows.Scan(&e.ID, &e.EpisodeID, &typ, &e.Timestamp, &e.Payload, &sequence, &e.Version); err != nil {
			return nil, s.wrapError(err)
		}
		e.Type = event.Type(typ)
		e.Sequence = uint64(sequence)
		events = append(events, e)
	}
	return events, s.wrapError(rows.Err())
}

// Subscribe returns a channel that receives new events for an episode.
// Only events appended through this store instance are delivered.
func (s *EventStore) Subscribe(ctx context.Context, episodeID string) (<-chan event.Event, error) {
	return s.hub.Subscribe(ctx, episodeID)
}

// ListEpisodes returns all episode IDs with events, sorted.
func (s *EventStore) ListEpisodes(ctx context.Context) ([]string, error) {
	query := fmt.Sprintf("SELECT DISTINCT episode_id FROM %s ORDER BY episode_id", s.tableName())

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, s.wrapError(err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	return ids, s.wrapError(err)
}

// CountEvents returns the number of events for an episode.
func (s *EventStore) CountEvents(ctx context.Context, episodeID string) (int64, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE episode_id = $1", s.tableName())

	var n int64
	if err := s.pool.QueryRow(ctx, query, episodeID).Scan(&n); err != nil {
		return 0, s.wrapError(err)
	}
	return n, nil
}

// Close closes subscriptions. The pool belongs to the caller.
func (s *EventStore) Close() error {
	s.hub.Close()
	return nil
}

func (s *EventStore) wrapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return errors.Join(event.ErrConnectionFailed, err)
}

var (
	_ event.Store  = (*EventStore)(nil)
	_ event.Lister = (*EventStore)(nil)
	_ event.Closer = (*EventStore)(nil)
)
