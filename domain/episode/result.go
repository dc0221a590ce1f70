package episode

import (
	"slices"

	"github.com/globalapptesting/hrl-go/domain/agent"
)

// Synthetic keys that never name an agent.
const (
	// AllKey holds the conjunction of the per-agent done flags of a step.
	AllKey agent.ID = "__all__"

	// CommonKey holds domain-wide diagnostics in the info mapping.
	CommonKey agent.ID = "__common__"
)

// Observations maps agent identities to observations.
type Observations map[agent.ID]any

// Result holds everything a step produced, keyed by agent identity. Usually
// one identity is present; a step that hands control on done carries both the
// finished agent and its successor.
type Result struct {
	Observations Observations
	Rewards      map[agent.ID]float64
	Dones        map[agent.ID]bool
	Infos        map[agent.ID]map[string]any
}

// NewResult returns an empty result.
func NewResult() Result {
	return Result{
		Observations: make(Observations),
		Rewards:      make(map[agent.ID]float64),
		Dones:        make(map[agent.ID]bool),
		Infos:        make(map[agent.ID]map[string]any),
	}
}

// Set records the outputs of one agent. A later Set for the same identity
// overwrites the earlier one.
func (r Result) Set(id agent.ID, observation any, reward float64, done bool, info map[string]any) {
	r.Observations[id] = observation
	r.Rewards[id] = reward
	r.Dones[id] = done
	r.Infos[id] = info
}

// Seal computes the AllKey entry from the per-agent done flags.
func (r Result) Seal() {
	all := true
	for id, done := range r.Dones {
		if id == AllKey {
			continue
		}
		all = all && done
	}
	r.Dones[AllKey] = all
}

// SetCommon stores domain-wide diagnostics under CommonKey.
func (r Result) SetCommon(info map[string]any) {
	r.Infos[CommonKey] = info
}

// AllDone reports the AllKey entry.
func (r Result) AllDone() bool {
	return r.Dones[AllKey]
}

// Agents returns the agent identities present in the result, sorted.
func (r Result) Agents() []agent.ID {
	ids := make([]agent.ID, 0, len(r.Observations))
	for id := range r.Observations {
		if id == AllKey || id == CommonKey {
			continue
		}
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Merge copies every entry of other into r, overwriting shared identities.
func (r Result) Merge(other Result) {
	for id, v := range other.Observations {
		r.Observations[id] = v
	}
	for id, v := range other.Rewards {
		r.Rewards[id] = v
	}
	for id, v := range other.Dones {
		r.Dones[id] = v
	}
	for id, v := range other.Infos {
		r.Infos[id] = v
	}
}

// TotalReward sums the rewards of all agents in the result.
func (r Result) TotalReward() float64 {
	var total float64
	for _, v := range r.Rewards {
		total += v
	}
	return total
}
