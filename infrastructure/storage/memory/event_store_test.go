package memory_test

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/globalapptesting/hrl-go/domain/event"
	"github.com/globalapptesting/hrl-go/infrastructure/storage/memory"
)

func TestEventStore_Append(t *testing.T) {
	t.Parallel()

	t.Run("assigns per-episode sequence numbers", func(t *testing.T) {
		t.Parallel()

		store := memory.NewEventStore()
		ctx := context.Background()

		err := store.Append(ctx,
			event.Event{EpisodeID: "ep-1", Type: event.TypeEpisodeStarted},
			event.Event{EpisodeID: "ep-2", Type: event.TypeEpisodeStarted},
			event.Event{EpisodeID: "ep-1", Type: event.TypeAgentActivated},
		)
		if err != nil {
			t.Fatalf("Append() error = %v", err)
		}
		if err := store.Append(ctx, event.Event{EpisodeID: "ep-1", Type: event.TypeStepCompleted}); err != nil {
			t.Fatalf("Append() error = %v", err)
		}

		events, err := store.LoadEvents(ctx, "ep-1")
		if err != nil {
			t.Fatalf("LoadEvents() error = %v", err)
		}
		if len(events) != 3 {
			t.Fatalf("LoadEvents() returned %d events, want 3", len(events))
		}
		for i, e := range events {
			if e.Sequence != uint64(i+1) {
				t.Errorf("events[%d].Sequence = %d, want %d", i, e.Sequence, i+1)
			}
			if e.ID == "" {
				t.Errorf("events[%d].ID should be assigned", i)
			}
		}
		if store.Len() != 4 {
			t.Errorf("Len() = %d, want 4", store.Len())
		}
	})

	t.Run("rejects invalid batch atomically", func(t *testing.T) {
		t.Parallel()

		store := memory.NewEventStore()
		err := store.Append(context.Background(),
			event.Event{EpisodeID: "ep-1", Type: event.TypeEpisodeStarted},
			event.Event{EpisodeID: "ep-1"},
		)
		if !errors.Is(err, event.ErrInvalidEvent) {
			t.Errorf("Append() error = %v, want ErrInvalidEvent", err)
		}
		if store.Len() != 0 {
			t.Errorf("Len() = %d, want 0 after rejected batch", store.Len())
		}
	})

	t.Run("honours cancelled context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		store := memory.NewEventStore()
		if err := store.Append(ctx, event.Event{EpisodeID: "ep", Type: event.TypeAgentDone}); !errors.Is(err, context.Canceled) {
			t.Errorf("Append() error = %v, want context.Canceled", err)
		}
	})
}

func TestEventStore_LoadEventsFrom(t *testing.T) {
	t.Parallel()

	store := memory.NewEventStore()
	ctx := context.Background()
	for range 5 {
		_ = store.Append(ctx, event.Event{EpisodeID: "ep", Type: event.TypeStepCompleted})
	}

	events, err := store.LoadEventsFrom(ctx, "ep", 4)
	if err != nil {
		t.Fatalf("LoadEventsFrom() error = %v", err)
	}
	if len(events) != 2 || events[0].Sequence != 4 {
		t.Errorf("LoadEventsFrom(4) = %d events starting at %d, want 2 starting at 4", len(events), events[0].Sequence)
	}

	empty, err := store.LoadEvents(ctx, "missing")
	if err != nil || len(empty) != 0 {
		t.Errorf("LoadEvents(missing) = %v, %v, want empty", empty, err)
	}
}

func TestEventStore_Subscribe(t *testing.T) {
	t.Parallel()

	store := memory.NewEventStore()
	ctx, cancel := context.WithCancel(context.Background())

	ch, err := store.Subscribe(ctx, "ep")
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	_ = store.Append(context.Background(),
		event.Event{EpisodeID: "other", Type: event.TypeAgentDone},
		event.Event{EpisodeID: "ep", Type: event.TypeAgentDone},
	)

	select {
	case e := <-ch:
		if e.EpisodeID != "ep" || e.Sequence != 1 {
			t.Errorf("received %+v, want ep event with sequence 1", e)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}

	cancel()
	select {
	case _, ok := <-ch:
		if ok {
			t.Error("channel should be closed after cancel")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestEventStore_ListAndDelete(t *testing.T) {
	t.Parallel()

	store := memory.NewEventStore()
	ctx := context.Background()
	_ = store.Append(ctx,
		event.Event{EpisodeID: "b", Type: event.TypeEpisodeStarted},
		event.Event{EpisodeID: "a", Type: event.TypeEpisodeStarted},
		event.Event{EpisodeID: "a", Type: event.TypeEpisodeEnded},
	)

	ids, err := store.ListEpisodes(ctx)
	if err != nil || !slices.Equal(ids, []string{"a", "b"}) {
		t.Errorf("ListEpisodes() = %v, %v, want [a b]", ids, err)
	}
	if n, _ := store.CountEvents(ctx, "a"); n != 2 {
		t.Errorf("CountEvents(a) = %d, want 2", n)
	}

	if err := store.DeleteEpisode(ctx, "a"); err != nil {
		t.Fatalf("DeleteEpisode() error = %v", err)
	}
	if n, _ := store.CountEvents(ctx, "a"); n != 0 {
		t.Errorf("CountEvents(a) after delete = %d, want 0", n)
	}
}
