package maze

import (
	"github.com/globalapptesting/hrl-go/domain/action"
	"github.com/globalapptesting/hrl-go/domain/agent"
	"github.com/globalapptesting/hrl-go/domain/space"
)

// StrategyConfig tunes the strategy agent.
type StrategyConfig struct {
	// MaxSteps bounds the decisions per episode.
	MaxSteps int
	// GoalReward is paid when a decision ends on the goal tile.
	GoalReward float64
}

// DefaultStrategyConfig returns the built-in strategy settings.
func DefaultStrategyConfig() StrategyConfig {
	return StrategyConfig{MaxSteps: 20, GoalReward: 1.0}
}

// StrategyAgent picks a heading at every intersection and hands control to
// the motion agent.
type StrategyAgent struct {
	agent.Hooks[State, State]

	grid    *Grid
	config  StrategyConfig
	elapsed int
}

// NewStrategyAgent creates a strategy agent for grid.
func NewStrategyAgent(grid *Grid, config StrategyConfig) *StrategyAgent {
	return &StrategyAgent{grid: grid, config: config}
}

// Name implements agent.Agent.
func (s *StrategyAgent) Name() agent.Name { return StrategyName }

// Elapsed returns the decisions taken this episode.
func (s *StrategyAgent) Elapsed() int { return s.elapsed }

// ObservationSpace implements agent.Agent.
func (s *StrategyAgent) ObservationSpace() space.Space {
	return observationSpace(s.grid, len(Directions))
}

// ActionSpace implements agent.Agent.
func (s *StrategyAgent) ActionSpace() space.Space {
	return space.Discrete{N: len(Directions)}
}

// TranslateState implements agent.Agent.
func (s *StrategyAgent) TranslateState(state State) State { return state }

// EncodeObservation marks every walkable heading.
func (s *StrategyAgent) EncodeObservation(state State) map[string]any {
	mask := make([]bool, len(Directions))
	for i, d := range Directions {
		mask[i] = state.Grid.IsDirectionWalkable(state.Position, d)
	}
	return observation(state, boolMask(mask...))
}

// DecodeAction maps a heading index to SetDirection.
func (s *StrategyAgent) DecodeAction(state State, raw int) (action.Action, error) {
	d, err := s.Heading(state, raw)
	if err != nil {
		return nil, err
	}
	return SetDirection{Direction: d}, nil
}

// Heading validates raw as a walkable heading from the current position.
func (s *StrategyAgent) Heading(state State, raw int) (Direction, error) {
	d := Direction(raw)
	if !d.IsValid() {
		return 0, agent.UnknownAction(StrategyName, raw)
	}
	if !state.Grid.IsDirectionWalkable(state.Position, d) {
		return 0, DirectionNotWalkable(d)
	}
	return d, nil
}

// HasDone reports a spent budget or a reached goal.
func (s *StrategyAgent) HasDone(state State) bool {
	return s.elapsed >= s.config.MaxSteps || state.AtGoal()
}

// CalculateReward pays the goal reward on arrival.
func (s *StrategyAgent) CalculateReward(_ State, _ action.Action, next State) float64 {
	if next.AtGoal() {
		return s.config.GoalReward
	}
	return 0
}

// Info implements agent.Agent.
func (s *StrategyAgent) Info(_ State, _ action.Action, next State) map[string]any {
	return map[string]any{
		"elapsed":          s.elapsed,
		"distance_to_goal": next.Grid.Distance(next.Position),
	}
}

// OnReset implements agent.Agent.
func (s *StrategyAgent) OnReset() { s.elapsed = 0 }

// OnStep implements agent.Agent.
func (s *StrategyAgent) OnStep(action.Action) { s.elapsed++ }

func observationSpace(grid *Grid, maskSize int) space.Dict {
	return space.NewDict(
		space.Field{Key: "map", Space: space.Box{Low: Wall, High: GoalTile, Shape: []int{grid.Rows(), grid.Cols()}}},
		space.Field{Key: "position", Space: space.Box{Low: 0, High: float64(max(grid.Rows(), grid.Cols())), Shape: []int{2}}},
		space.Field{Key: "directions_mask", Space: space.MultiBinary{N: maskSize}},
	)
}
