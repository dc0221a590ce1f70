package sqlite_test

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/globalapptesting/hrl-go/domain/event"
	"github.com/globalapptesting/hrl-go/infrastructure/storage/sqlite"
)

func TestEventStore_AppendAndLoad(t *testing.T) {
	store := newTestEventStore(t)
	ctx := context.Background()
	episodeID := "ep-1"

	events := []event.Event{
		{EpisodeID: episodeID, Type: event.TypeEpisodeStarted, Timestamp: time.Now(), Payload: []byte(`{}`)},
		{EpisodeID: episodeID, Type: event.TypeAgentActivated, Timestamp: time.Now(), Payload: []byte(`{"agent":"strategy"}`)},
	}
	if err := store.Append(ctx, events...); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := store.Append(ctx, event.Event{EpisodeID: episodeID, Type: event.TypeStepCompleted, Payload: []byte(`{}`)}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	loaded, err := store.LoadEvents(ctx, episodeID)
	if err != nil {
		t.Fatalf("LoadEvents failed: %v", err)
	}
	if len(loaded) != 3 {
		t.Fatalf("expected 3 events, got %d", len(loaded))
	}
	for i, e := range loaded {
		if e.Sequence != uint64(i+1) {
			t.Errorf("event %d: sequence = %d, want %d", i, e.Sequence, i+1)
		}
	}
	if loaded[1].Type != event.TypeAgentActivated {
		t.Errorf("event 1 type = %s, want agent.activated", loaded[1].Type)
	}
}

func TestEventStore_LoadEventsFrom(t *testing.T) {
	store := newTestEventStore(t)
	ctx := context.Background()

	for range 4 {
		_ = store.Append(ctx, event.Event{EpisodeID: "ep", Type: event.TypeStepCompleted, Payload: []byte(`{}`)})
	}

	loaded, err := store.LoadEventsFrom(ctx, "ep", 3)
	if err != nil {
		t.Fatalf("LoadEventsFrom failed: %v", err)
	}
	if len(loaded) != 2 || loaded[0].Sequence != 3 {
		t.Errorf("LoadEventsFrom(3) returned %d events, want 2 starting at 3", len(loaded))
	}
}

func TestEventStore_InvalidEventRollsBack(t *testing.T) {
	store := newTestEventStore(t)
	ctx := context.Background()

	err := store.Append(ctx,
		event.Event{EpisodeID: "ep", Type: event.TypeEpisodeStarted},
		event.Event{Type: event.TypeEpisodeEnded},
	)
	if !errors.Is(err, event.ErrInvalidEvent) {
		t.Fatalf("Append error = %v, want ErrInvalidEvent", err)
	}
	if n, _ := store.CountEvents(ctx, "ep"); n != 0 {
		t.Errorf("CountEvents = %d, want 0", n)
	}
}

func TestEventStore_ListAndDelete(t *testing.T) {
	store := newTestEventStore(t)
	ctx := context.Background()

	_ = store.Append(ctx,
		event.Event{EpisodeID: "b", Type: event.TypeEpisodeStarted, Payload: []byte(`{}`)},
		event.Event{EpisodeID: "a", Type: event.TypeEpisodeStarted, Payload: []byte(`{}`)},
	)

	ids, err := store.ListEpisodes(ctx)
	if err != nil {
		t.Fatalf("ListEpisodes failed: %v", err)
	}
	if !slices.Equal(ids, []string{"a", "b"}) {
		t.Errorf("ListEpisodes = %v, want [a b]", ids)
	}

	if err := store.DeleteEpisode(ctx, "a"); err != nil {
		t.Fatalf("DeleteEpisode failed: %v", err)
	}
	if n, _ := store.CountEvents(ctx, "a"); n != 0 {
		t.Errorf("CountEvents(a) = %d, want 0", n)
	}
}

func TestEventStore_Subscribe(t *testing.T) {
	store := newTestEventStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := store.Subscribe(ctx, "ep")
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	_ = store.Append(context.Background(), event.Event{EpisodeID: "ep", Type: event.TypeAgentDone, Payload: []byte(`{}`)})

	select {
	case e := <-ch:
		if e.Sequence != 1 {
			t.Errorf("sequence = %d, want 1", e.Sequence)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func newTestEventStore(t *testing.T) *sqlite.EventStore {
	t.Helper()

	cfg := sqlite.Config{
		DSN:         "file:" + t.TempDir() + "/episodes.db?mode=rwc",
		AutoMigrate: true,
	}

	store, err := sqlite.NewEventStore(cfg)
	if err != nil {
		t.Fatalf("NewEventStore failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}
