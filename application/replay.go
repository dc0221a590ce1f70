package application

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/globalapptesting/hrl-go/domain/agent"
	"github.com/globalapptesting/hrl-go/domain/event"
)

// Replay rebuilds episode summaries from recorded events.
type Replay struct {
	eventStore event.Store
}

// NewReplay creates a replay over eventStore.
func NewReplay(eventStore event.Store) *Replay {
	return &Replay{eventStore: eventStore}
}

// ReconstructEpisode rebuilds the summary of one episode.
func (r *Replay) ReconstructEpisode(ctx context.Context, episodeID string) (*EpisodeSummary, error) {
	events, err := r.eventStore.LoadEvents(ctx, episodeID)
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	if len(events) == 0 {
		return nil, event.ErrEpisodeNotFound
	}
	return applyEvents(episodeID, events)
}

// ReconstructAll rebuilds every episode the store lists. The store must
// implement event.Lister.
func (r *Replay) ReconstructAll(ctx context.Context) ([]*EpisodeSummary, error) {
	lister, ok := r.eventStore.(event.Lister)
	if !ok {
		return nil, errors.New("event store cannot list episodes")
	}
	ids, err := lister.ListEpisodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list episodes: %w", err)
	}

	summaries := make([]*EpisodeSummary, 0, len(ids))
	for _, id := range ids {
		s, err := r.ReconstructEpisode(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("episode %s: %w", id, err)
		}
		summaries = append(summaries, s)
	}
	return summaries, nil
}

// Timeline returns the raw events of an episode.
func (r *Replay) Timeline(ctx context.Context, episodeID string) ([]event.Event, error) {
	events, err := r.eventStore.LoadEvents(ctx, episodeID)
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	if len(events) == 0 {
		return nil, event.ErrEpisodeNotFound
	}
	return events, nil
}

func applyEvents(episodeID string, events []event.Event) (*EpisodeSummary, error) {
	s := &EpisodeSummary{
		EpisodeID: episodeID,
		Rewards:   make(map[agent.ID]float64),
	}

	for _, e := range events {
		switch e.Type {
		case event.TypeAgentActivated:
			var p event.AgentActivatedPayload
			if err := e.UnmarshalPayload(&p); err != nil {
				return nil, fmt.Errorf("unmarshal %s: %w", e.Type, err)
			}
			if id := agent.ID(p.AgentID); !slices.Contains(s.Identities, id) {
				s.Identities = append(s.Identities, id)
			}

		case event.TypeStepCompleted:
			var p event.StepCompletedPayload
			if err := e.UnmarshalPayload(&p); err != nil {
				return nil, fmt.Errorf("unmarshal %s: %w", e.Type, err)
			}
			s.Steps = p.Step
			for id, r := range p.Rewards {
				s.Rewards[agent.ID(id)] += r
			}

		case event.TypeEpisodeEnded:
			var p event.EpisodeEndedPayload
			if err := e.UnmarshalPayload(&p); err != nil {
				return nil, fmt.Errorf("unmarshal %s: %w", e.Type, err)
			}
			s.Handoffs = p.Handoffs
			s.Terminal = true
		}
	}
	return s, nil
}
