package badger

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/globalapptesting/hrl-go/domain/event"
	"github.com/globalapptesting/hrl-go/infrastructure/storage/fanout"
	"github.com/google/uuid"
)

// EventStore is a BadgerDB-backed implementation of event.Store.
//
// Keys:
//
//	<prefix>ev:<episodeID>:<seq as 8 big-endian bytes>  event JSON
//	<prefix>seq:<episodeID>                            last sequence
type EventStore struct {
	db     *badger.DB
	prefix string
	hub    *fanout.Hub
	stop   chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

// NewEventStore opens a BadgerDB event store.
func NewEventStore(cfg Config, opts ...Option) (*EventStore, error) {
	for _, opt := range opts {
		opt(&cfg)
	}

	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}

	s := &EventStore{
		db:     db,
		prefix: cfg.KeyPrefix,
		hub:    fanout.NewHub(),
		stop:   make(chan struct{}),
	}
	if cfg.GCInterval > 0 && !cfg.InMemory {
		s.wg.Add(1)
		go s.runGC(cfg.GCInterval, cfg.GCDiscardRatio)
	}
	return s, nil
}

func (s *EventStore) runGC(interval time.Duration, ratio float64) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			// Rewrite as many value log files as qualify.
			for s.db.RunValueLogGC(ratio) == nil {
			}
		}
	}
}

func (s *EventStore) streamPrefix(episodeID string) []byte {
	return []byte(s.prefix + "ev:" + episodeID + ":")
}

func (s *EventStore) eventKey(episodeID string, seq uint64) []byte {
	return binary.BigEndian.AppendUint64(s.streamPrefix(episodeID), seq)
}

func (s *EventStore) seqKey(episodeID string) []byte {
	return []byte(s.prefix + "seq:" + episodeID)
}

func (s *EventStore) lastSeq(txn *badger.Txn, episodeID string) (uint64, error) {
	item, err := txn.Get(s.seqKey(episodeID))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var seq uint64
	err = item.Value(func(val []byte) error {
		if len(val) == 8 {
			seq = binary.BigEndian.Uint64(val)
		}
		return nil
	})
	return seq, err
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

	stored := make([]event.Event, len(events))
	copy(stored, events)

	err := s.db.Update(func(txn *badger.Txn) error {
		next := make(map[string]uint64)
		for i := range stored {
			e := &stored[i]
			seq, ok := next[e.EpisodeID]
			if !ok {
				last, err := s.lastSeq(txn, e.EpisodeID)
				if err != nil {
					return err
				}
				seq = last
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
			if err := txn.Set(s.eventKey(e.EpisodeID, seq), data); err != nil {
				return err
			}
		}

		for episodeID, seq := range next {
			if err := txn.Set(s.seqKey(episodeID), binary.BigEndian.AppendUint64(nil, seq)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
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

	events := []event.Event{}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = s.streamPrefix(episodeID)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(s.eventKey(episodeID, fromSeq)); it.Valid(); it.Next() {
			var e event.Event
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &e)
			}); err != nil {
				return err
			}
			events = append(events, e)
		}
		return nil
	})
	return events, err
}

// Subscribe returns a channel that receives new events for an episode.
func (s *EventStore) Subscribe(ctx context.Context, episodeID string) (<-chan event.Event, error) {
	return s.hub.Subscribe(ctx, episodeID)
}

// ListEpisodes returns all episode IDs with events, in key order.
func (s *EventStore) ListEpisodes(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := []byte(s.prefix + "seq:")
	var ids []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			ids = append(ids, string(it.Item().Key()[len(prefix):]))
		}
		return nil
	})
	return ids, err
}

// CountEvents returns the number of events for an episode.
func (s *EventStore) CountEvents(ctx context.Context, episodeID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var seq uint64
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		seq, err = s.lastSeq(txn, episodeID)
		return err
	})
	return int64(seq), err
}

// DeleteEpisode removes all events for an episode and closes its subscriptions.
func (s *EventStore) DeleteEpisode(ctx context.Context, episodeID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.hub.Drop(episodeID)
	if err := s.db.DropPrefix(s.streamPrefix(episodeID)); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(s.seqKey(episodeID))
	})
}

// Close stops GC, closes subscriptions and closes the database.
func (s *EventStore) Close() error {
	s.once.Do(func() { close(s.stop) })
	s.wg.Wait()
	s.hub.Close()
	return s.db.Close()
}

var (
	_ event.Store  = (*EventStore)(nil)
	_ event.Lister = (*EventStore)(nil)
	_ event.Closer = (*EventStore)(nil)
)
