package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/globalapptesting/hrl-go/domain/event"
	"github.com/globalapptesting/hrl-go/infrastructure/storage/fanout"
	"github.com/google/uuid"
)

const schema = `
CREATE TABLE IF NOT EXISTS episode_events (
	id         TEXT PRIMARY KEY,
	episode_id TEXT NOT NULL,
	type       TEXT NOT NULL,
	sequence   INTEGER NOT NULL,
	timestamp  INTEGER NOT NULL,
	data       BLOB NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_episode_events_seq ON episode_events(episode_id, sequence);
`

// EventStore is a SQLite-backed implementation of event.Store.
type EventStore struct {
	db  *sql.DB
	hub *fanout.Hub
}

// NewEventStore opens a SQLite event store.
func NewEventStore(cfg Config, opts ...Option) (*EventStore, error) {
	for _, opt := range opts {
		opt(&cfg)
	}

	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}

	s := &EventStore{db: db, hub: fanout.NewHub()}
	if cfg.AutoMigrate {
		if err := s.migrate(); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return s, nil
}

func (s *EventStore) migrate() error {
	if _, err := s.db.Exec(schema); err != nil {
		return errors.Join(ErrMigrationFailed, err)
	}
	return nil
}

// Append persists one or more events in a single transaction.
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

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO episode_events (id, episode_id, type, sequence, timestamp, data)
		 VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	stored := make([]event.Event, len(events))
	copy(stored, events)

	next := make(map[string]uint64)
	for i := range stored {
		e := &stored[i]
		seq, ok := next[e.EpisodeID]
		if !ok {
			var last sql.NullInt64
			if err := tx.QueryRowContext(ctx,
				"SELECT MAX(sequence) FROM episode_events WHERE episode_id = ?", e.EpisodeID,
			).Scan(&last); err != nil {
				return err
			}
			seq = uint64(last.Int64)
		}
		seq++
		next[e.EpisodeID] = seq

		e.Sequence = seq
		if e.ID == "" {
			e.ID = uuid.New().String()
		}

		data, err := json.Marshal(e)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx,
			e.ID, e.EpisodeID, string(e.Type), e.Sequence, e.Timestamp.UnixNano(), data,
		); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
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
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT data FROM episode_events WHERE episode_id = ? AND sequence >= ? ORDER BY sequence",
		episodeID, fromSeq,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	events := []event.Event{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var e event.Event
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// Subscribe returns a channel that receives new events for an episode.
// Only events appended through this store instance are delivered.
func (s *EventStore) Subscribe(ctx context.Context, episodeID string) (<-chan event.Event, error) {
	return s.hub.Subscribe(ctx, episodeID)
}

// ListEpisodes returns all episode IDs with events, sorted.
func (s *EventStore) ListEpisodes(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT episode_id FROM episode_events ORDER BY episode_id")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CountEvents returns the number of events for an episode.
func (s *EventStore) CountEvents(ctx context.Context, episodeID string) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM episode_events WHERE episode_id = ?", episodeID,
	).Scan(&n)
	return n, err
}

// DeleteEpisode removes all events for an episode and closes its subscriptions.
func (s *EventStore) DeleteEpisode(ctx context.Context, episodeID string) error {
	s.hub.Drop(episodeID)
	_, err := s.db.ExecContext(ctx, "DELETE FROM episode_events WHERE episode_id = ?", episodeID)
	return err
}

// Close closes subscriptions and the database.
func (s *EventStore) Close() error {
	s.hub.Close()
	return s.db.Close()
}

var (
	_ event.Store  = (*EventStore)(nil)
	_ event.Lister = (*EventStore)(nil)
	_ event.Closer = (*EventStore)(nil)
)
