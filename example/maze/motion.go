package maze

import (
	"github.com/globalapptesting/hrl-go/domain/action"
	"github.com/globalapptesting/hrl-go/domain/agent"
	"github.com/globalapptesting/hrl-go/domain/space"
)

// Motion actions.
const (
	ActionBackward = 0
	ActionForward  = 1
)

// MotionConfig tunes the motion agent.
type MotionConfig struct {
	// MaxSteps bounds the moves per activation.
	MaxSteps int
	// ForwardReward is paid for every move along the heading.
	ForwardReward float64
	// BackwardReward is paid for every other action of the motion agent.
	BackwardReward float64
}

// DefaultMotionConfig returns the built-in motion settings.
func DefaultMotionConfig() MotionConfig {
	return MotionConfig{MaxSteps: 10, ForwardReward: 1.0, BackwardReward: -0.1}
}

// MotionAgent walks a corridor along the heading chosen by the strategy
// agent until it reaches an intersection, a dead end or its move budget.
type MotionAgent struct {
	agent.Hooks[State, State]

	grid    *Grid
	config  MotionConfig
	elapsed int
}

// NewMotionAgent creates a motion agent for grid.
func NewMotionAgent(grid *Grid, config MotionConfig) *MotionAgent {
	return &MotionAgent{grid: grid, config: config}
}

// Name implements agent.Agent.
func (m *MotionAgent) Name() agent.Name { return MotionName }

// Elapsed returns the moves taken in the current activation.
func (m *MotionAgent) Elapsed() int { return m.elapsed }

// ObservationSpace implements agent.Agent.
func (m *MotionAgent) ObservationSpace() space.Space {
	return observationSpace(m.grid, 2)
}

// ActionSpace implements agent.Agent.
func (m *MotionAgent) ActionSpace() space.Space {
	return space.Discrete{N: 2}
}

// TranslateState implements agent.Agent.
func (m *MotionAgent) TranslateState(state State) State { return state }

// EncodeObservation masks the backward and forward moves.
func (m *MotionAgent) EncodeObservation(state State) map[string]any {
	return observation(state, boolMask(
		state.Grid.IsDirectionWalkable(state.Position, state.Direction.Opposite()),
		state.Grid.IsDirectionWalkable(state.Position, state.Direction),
	))
}

// DecodeAction maps 0 to MoveBackward and 1 to MoveForward.
func (m *MotionAgent) DecodeAction(state State, raw int) (action.Action, error) {
	switch raw {
	case ActionBackward:
		if d := state.Direction.Opposite(); !state.Grid.IsDirectionWalkable(state.Position, d) {
			return nil, DirectionNotWalkable(d)
		}
		return MoveBackward{}, nil
	case ActionForward:
		if !state.Grid.IsDirectionWalkable(state.Position, state.Direction) {
			return nil, DirectionNotWalkable(state.Direction)
		}
		return MoveForward{}, nil
	default:
		return nil, agent.UnknownAction(MotionName, raw)
	}
}

// HasDone reports a spent budget, an intersection reached after at least one
// move, or a wall ahead.
func (m *MotionAgent) HasDone(state State) bool {
	switch {
	case m.elapsed >= m.config.MaxSteps:
		return true
	case m.elapsed > 0 && state.Grid.IsIntersection(state.Position):
		return true
	default:
		return !state.Grid.IsDirectionWalkable(state.Position, state.Direction)
	}
}

// CalculateReward pays ForwardReward for a forward move and BackwardReward
// for anything else, including the SetDirection that hands motion control.
func (m *MotionAgent) CalculateReward(_ State, a action.Action, _ State) float64 {
	if _, ok := a.(MoveForward); ok {
		return m.config.ForwardReward
	}
	return m.config.BackwardReward
}

// Info implements agent.Agent.
func (m *MotionAgent) Info(_ State, _ action.Action, next State) map[string]any {
	return map[string]any{
		"elapsed":   m.elapsed,
		"direction": next.Direction.String(),
	}
}

// OnReset implements agent.Agent.
func (m *MotionAgent) OnReset() { m.elapsed = 0 }

// OnTakesControl restarts the move budget and adopts the requested heading.
func (m *MotionAgent) OnTakesControl(state State, switchAction action.Action) State {
	m.elapsed = 0
	if set, ok := switchAction.(SetDirection); ok {
		return state.WithDirection(set.Direction)
	}
	return state
}

// OnStep implements agent.Agent.
func (m *MotionAgent) OnStep(action.Action) { m.elapsed++ }
