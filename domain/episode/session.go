// Package episode holds the per-episode context of an orchestrator: which
// agent is in control, how often each agent has finished, and the results
// produced by a step.
package episode

import (
	"slices"

	"github.com/globalapptesting/hrl-go/domain/agent"
)

// Session is the mutable context of one episode. It is owned by a single
// orchestrator and is not safe for concurrent use. Whether the episode is
// over is decided by the control machine, not the session.
type Session[S any] struct {
	id       string
	active   agent.Name
	activeID agent.ID
	counters map[agent.Name]int
	history  []agent.ID
	prev     S
	steps    int
	started  bool
}

// NewSession returns a session that has not been reset yet.
func NewSession[S any]() *Session[S] {
	return &Session[S]{counters: make(map[agent.Name]int)}
}

// Reset clears all episode context and starts a new episode with the given id.
func (s *Session[S]) Reset(id string, initial S) {
	s.id = id
	s.active = ""
	s.activeID = ""
	clear(s.counters)
	s.history = s.history[:0]
	s.prev = initial
	s.steps = 0
	s.started = true
}

// Activate hands control to name and returns its current identity.
func (s *Session[S]) Activate(name agent.Name) agent.ID {
	s.active = name
	s.activeID = agent.NewID(name, s.counters[name])
	if !slices.Contains(s.history, s.activeID) {
		s.history = append(s.history, s.activeID)
	}
	return s.activeID
}

// Retire records that name reported done, so its next activation gets a
// fresh identity.
func (s *Session[S]) Retire(name agent.Name) {
	s.counters[name]++
}

// Advance stores the state produced by a step and counts the step.
func (s *Session[S]) Advance(state S) {
	s.prev = state
	s.steps++
}

// ID returns the episode identifier.
func (s *Session[S]) ID() string { return s.id }

// Active returns the name and identity of the agent in control.
func (s *Session[S]) Active() (agent.Name, agent.ID) { return s.active, s.activeID }

// Previous returns the state retained from the last reset or step.
func (s *Session[S]) Previous() S { return s.prev }

// Steps returns the number of completed steps.
func (s *Session[S]) Steps() int { return s.steps }

// Started reports whether Reset has been called.
func (s *Session[S]) Started() bool { return s.started }

// Activations returns how many times name has reported done in this episode.
func (s *Session[S]) Activations(name agent.Name) int { return s.counters[name] }

// History returns the distinct identities that held control, in order of
// first activation.
func (s *Session[S]) History() []agent.ID {
	return slices.Clone(s.history)
}
