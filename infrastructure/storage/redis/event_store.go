package redis

import (
	"context"
	"encoding/json"
	"errors"
	"slices"

	"github.com/globalapptesting/hrl-go/domain/event"
	"github.com/globalapptesting/hrl-go/infrastructure/storage/fanout"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// appendRetries bounds optimistic-lock retries when concurrent writers race
// on the same episode.
const appendRetries = 16

// EventStore is a Redis-backed implementation of event.Store.
//
// Keys:
//
//	<prefix>episode:<id>:events  list of event JSON, index = sequence-1
//	<prefix>episodes             set of episode IDs
//	<prefix>episode:<id>:live    Pub/Sub channel for new events
type EventStore struct {
	client redis.UniversalClient
	prefix string
	owned  bool
}

// NewEventStore connects to Redis and verifies the connection.
func NewEventStore(ctx context.Context, cfg Config, opts ...ConfigOption) (*EventStore, error) {
	for _, opt := range opts {
		opt(&cfg)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolSize:     cfg.PoolSize,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Join(event.ErrConnectionFailed, err)
	}

	s := NewEventStoreFromClient(client, cfg.KeyPrefix)
	s.owned = true
	return s, nil
}

// NewEventStoreFromClient creates a store from an existing client. Close does
// not close a client passed in here.
func NewEventStoreFromClient(client redis.UniversalClient, keyPrefix string) *EventStore {
	return &EventStore{client: client, prefix: keyPrefix}
}

func (s *EventStore) streamKey(episodeID string) string {
	return s.prefix + "episode:" + episodeID + ":events"
}

func (s *EventStore) indexKey() string {
	return s.prefix + "episodes"
}

func (s *EventStore) channel(episodeID string) string {
	return s.prefix + "episode:" + episodeID + ":live"
}

// Append persists one or more events in a MULTI/EXEC transaction guarded by
// WATCH on every touched stream.
func (s *EventStore) Append(ctx context.Context, events ...event.Event) error {
	if len(events) == 0 {
		return nil
	}
	for i := range events {
		if err := events[i].Validate(); err != nil {
			return err
		}
	}

	var keys []string
	for _, e := range events {
		if k := s.streamKey(e.EpisodeID); !slices.Contains(keys, k) {
			keys = append(keys, k)
		}
	}

	var stored []event.Event
	var encoded [][]byte
	txf := func(tx *redis.Tx) error {
		stored = make([]event.Event, len(events))
		copy(stored, events)
		encoded = make([][]byte, len(stored))

		next := make(map[string]uint64)
		for i := range stored {
			e := &stored[i]
			if _, ok := next[e.EpisodeID]; !ok {
				n, err := tx.LLen(ctx, s.streamKey(e.EpisodeID)).Result()
				if err != nil {
					return err
				}
				next[e.EpisodeID] = uint64(n)
			}
			next[e.EpisodeID]++
			e.Sequence = next[e.EpisodeID]
			if e.ID == "" {
				e.ID = uuid.New().String()
			}

			data, err := json.Marshal(e)
			if err != nil {
				return err
			}
			encoded[i] = data
		}

		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for i, e := range stored {
				pipe.RPush(ctx, s.streamKey(e.EpisodeID), encoded[i])
				pipe.SAdd(ctx, s.indexKey(), e.EpisodeID)
			}
			return nil
		})
		return err
	}

	var err error
	for range appendRetries {
		err = s.client.Watch(ctx, txf, keys...)
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	if err != nil {
		return s.wrapError(err)
	}

	for i, e := range stored {
		if err := s.client.Publish(ctx, s.channel(e.EpisodeID), encoded[i]).Err(); err != nil {
			return s.wrapError(err)
		}
	}
	return nil
}

// LoadEvents retrieves all events for an episode in sequence order.
func (s *EventStore) LoadEvents(ctx context.Context, episodeID string) ([]event.Event, error) {
	return s.LoadEventsFrom(ctx, episodeID, 0)
}

// LoadEventsFrom retrieves events with a sequence number of at least fromSeq.
func (s *EventStore) LoadEventsFrom(ctx context.Context, episodeID string, fromSeq uint64) ([]event.Event, error) {
	start := int64(0)
	if fromSeq > 1 {
		start = int64(fromSeq - 1)
	}

	raw, err := s.client.LRange(ctx, s.streamKey(episodeID), start, -1).Result()
	if err != nil {
		return nil, s.wrapError(err)
	}

	events := make([]event.Event, 0, len(raw))
	for _, item := range raw {
		var e event.Event
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, nil
}

// Subscribe returns a channel that receives events appended by any process
// sharing this Redis. The channel is closed when ctx is cancelled.
func (s *EventStore) Subscribe(ctx context.Context, episodeID string) (<-chan event.Event, error) {
	pubsub := s.client.Subscribe(ctx, s.channel(episodeID))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, s.wrapError(err)
	}

	out := make(chan event.Event, fanout.Buffer)
	go func() {
		defer close(out)
		defer func() { _ = pubsub.Close() }()

		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var e event.Event
				if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
					continue
				}
				select {
				case out <- e:
				default:
				}
			}
		}
	}()
	return out, nil
}

// ListEpisodes returns all episode IDs with events, sorted.
func (s *EventStore) ListEpisodes(ctx context.Context) ([]string, error) {
	ids, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, s.wrapError(err)
	}
	slices.Sort(ids)
	return ids, nil
}

// CountEvents returns the number of events for an episode.
func (s *EventStore) CountEvents(ctx context.Context, episodeID string) (int64, error) {
	n, err := s.client.LLen(ctx, s.streamKey(episodeID)).Result()
	return n, s.wrapError(err)
}

// DeleteEpisode removes all events for an episode.
func (s *EventStore) DeleteEpisode(ctx context.Context, episodeID string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.streamKey(episodeID))
		pipe.SRem(ctx, s.indexKey(), episodeID)
		return nil
	})
	return s.wrapError(err)
}

// Close closes the client if the store created it.
func (s *EventStore) Close() error {
	if !s.owned {
		return nil
	}
	return s.client.Close()
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
