package application

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/globalapptesting/hrl-go/domain/agent"
)

// Policy chooses the raw action of the agent identified by id.
type Policy interface {
	Act(ctx context.Context, id agent.ID, observation any) (any, error)
}

// PolicyFunc adapts a function to the Policy interface.
type PolicyFunc func(ctx context.Context, id agent.ID, observation any) (any, error)

// Act implements Policy.
func (f PolicyFunc) Act(ctx context.Context, id agent.ID, observation any) (any, error) {
	return f(ctx, id, observation)
}

// RolloutConfig bounds a rollout.
type RolloutConfig struct {
	// MaxSteps stops the rollout after this many steps. Zero means no bound.
	MaxSteps int
}

// EpisodeSummary describes one episode.
type EpisodeSummary struct {
	EpisodeID string
	Steps     int
	// Rewards sums the rewards of every identity over the episode.
	Rewards map[agent.ID]float64
	// Identities lists the identities that held control, in order of first
	// activation.
	Identities []agent.ID
	// Handoffs counts control transitions, switches and done hand-offs alike.
	Handoffs int
	Terminal bool
}

// TotalReward sums the rewards of all identities.
func (s EpisodeSummary) TotalReward() float64 {
	var total float64
	for _, r := range s.Rewards {
		total += r
	}
	return total
}

// IdentitiesOf returns the identities of one agent, in activation order.
func (s EpisodeSummary) IdentitiesOf(name agent.Name) []agent.ID {
	var ids []agent.ID
	for _, id := range s.Identities {
		if id.Name() == name {
			ids = append(ids, id)
		}
	}
	return ids
}

// Rollout resets o and drives it with policy until every agent of a step is
// done or cfg.MaxSteps is reached. Cancellation is checked between steps.
func Rollout[S any](ctx context.Context, o *Orchestrator[S], policy Policy, cfg RolloutConfig) (EpisodeSummary, error) {
	obs, err := o.Reset(ctx)
	if err != nil {
		return EpisodeSummary{}, err
	}

	summary := EpisodeSummary{
		EpisodeID: o.EpisodeID(),
		Rewards:   make(map[agent.ID]float64),
	}
	_, id := o.Active()
	observation := obs[id]

	for cfg.MaxSteps <= 0 || summary.Steps < cfg.MaxSteps {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		_, id = o.Active()
		raw, err := policy.Act(ctx, id, observation)
		if err != nil {
			return summary, fmt.Errorf("policy for %s: %w", id, err)
		}

		result, err := o.Step(ctx, map[agent.ID]any{id: raw})
		if err != nil {
			return summary, err
		}
		summary.Steps++
		for rid, r := range result.Rewards {
			summary.Rewards[rid] += r
		}

		if result.AllDone() {
			break
		}
		_, id = o.Active()
		observation = result.Observations[id]
	}

	summary.Identities = o.History()
	summary.Handoffs = o.Handoffs()
	summary.Terminal = o.Terminal()

	for _, rid := range slices.Sorted(maps.Keys(summary.Rewards)) {
		o.metrics.RecordReward(ctx, string(rid), summary.Rewards[rid])
	}
	return summary, nil
}
