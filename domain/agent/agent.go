package agent

import (
	"github.com/globalapptesting/hrl-go/domain/action"
	"github.com/globalapptesting/hrl-go/domain/space"
)

// Agent is a decision unit owning one slice of the decision space.
//
// S is the environment state, AS the agent's narrowed view of it, O the
// observation type and R the raw action type produced by the policy.
//
// The orchestrator calls the lifecycle hooks in this order only:
// OnReset once per episode for every agent, OnTakesControl once per
// activation before anything else of that activation, OnStep once per
// decoded action while active, OnGivesControl right before another agent
// becomes active.
type Agent[S, AS, O, R any] interface {
	Name() Name

	// ObservationSpace and ActionSpace describe the static I/O shape.
	ObservationSpace() space.Space
	ActionSpace() space.Space

	// TranslateState narrows the environment state to what the agent may see.
	TranslateState(state S) AS

	// EncodeObservation must be total over every reachable agent state.
	EncodeObservation(state AS) O

	// DecodeAction maps a raw policy output to a well-defined action. Raw
	// actions with no valid mapping in state return an error wrapping
	// ErrUnknownAgentAction or a domain error.
	DecodeAction(state AS, raw R) (action.Action, error)

	// HasDone evaluates local termination from state and the agent's own
	// counters.
	HasDone(state AS) bool

	CalculateReward(prev AS, a action.Action, next AS) float64

	// Info is stored under the agent identity in the step result.
	Info(prev AS, a action.Action, next AS) map[string]any

	OnReset()

	// OnTakesControl may rewrite the environment state, e.g. to record a
	// sub-goal. switchAction is nil when control arrives through reset or a
	// done transition.
	OnTakesControl(state S, switchAction action.Action) S

	OnStep(a action.Action)

	// OnGivesControl receives the switch action that caused the hand-off, or
	// nil when the agent is done.
	OnGivesControl(switchAction action.Action)
}

// Hooks provides the default optional behaviour of an agent. Embed it and
// override what the agent needs.
type Hooks[S, AS any] struct{}

// Info returns an empty mapping.
func (Hooks[S, AS]) Info(AS, action.Action, AS) map[string]any {
	return map[string]any{}
}

// OnReset does nothing.
func (Hooks[S, AS]) OnReset() {}

// OnTakesControl returns state unchanged.
func (Hooks[S, AS]) OnTakesControl(state S, _ action.Action) S {
	return state
}

// OnStep does nothing.
func (Hooks[S, AS]) OnStep(action.Action) {}

// OnGivesControl does nothing.
func (Hooks[S, AS]) OnGivesControl(action.Action) {}
