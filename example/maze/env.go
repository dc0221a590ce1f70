package maze

import (
	"github.com/globalapptesting/hrl-go/application"
	"github.com/globalapptesting/hrl-go/domain/action"
	"github.com/globalapptesting/hrl-go/domain/agent"
	"github.com/globalapptesting/hrl-go/domain/config"
	"github.com/globalapptesting/hrl-go/domain/environment"
	"github.com/globalapptesting/hrl-go/domain/routing"
)

// InitialDirection is the heading at the start tile.
const InitialDirection = Left

// Config describes a maze environment.
type Config struct {
	// Map defaults to DefaultMap.
	Map      [][]int
	Strategy StrategyConfig
	Motion   MotionConfig
}

// DefaultConfig returns the built-in maze on the default agent settings.
func DefaultConfig() Config {
	return Config{
		Map:      DefaultMap,
		Strategy: DefaultStrategyConfig(),
		Motion:   DefaultMotionConfig(),
	}
}

// ConfigFrom maps a loaded run configuration onto a maze configuration.
func ConfigFrom(c config.Config) Config {
	cfg := Config{
		Map: c.Env.Map,
		Strategy: StrategyConfig{
			MaxSteps:   c.Agents.Strategy.MaxSteps,
			GoalReward: c.Agents.Strategy.GoalReward,
		},
		Motion: MotionConfig{
			MaxSteps:       c.Agents.Motion.MaxSteps,
			ForwardReward:  c.Agents.Motion.ForwardReward,
			BackwardReward: c.Agents.Motion.BackwardReward,
		},
	}
	if len(cfg.Map) == 0 {
		cfg.Map = DefaultMap
	}
	return cfg
}

// Env applies movement actions to the maze state.
type Env struct {
	grid *Grid
}

// NewDomain returns the maze domain over grid.
func NewDomain(grid *Grid) *Env {
	return &Env{grid: grid}
}

// Grid returns the maze layout.
func (e *Env) Grid() *Grid { return e.grid }

// InitialState places the walker on the start tile.
func (e *Env) InitialState() State {
	return State{Grid: e.grid, Position: e.grid.Start(), Direction: InitialDirection}
}

// Step applies MoveForward and MoveBackward.
func (e *Env) Step(state State, a action.Action) (State, error) {
	switch a.(type) {
	case MoveForward:
		next, err := state.Grid.NextPosition(state.Position, state.Direction)
		if err != nil {
			return state, err
		}
		return state.WithPosition(next), nil
	case MoveBackward:
		if state.Grid.IsIntersection(state.Position) {
			return state, nil
		}
		next, err := state.Grid.NextPosition(state.Position, state.Direction.Opposite())
		if err != nil {
			return state, err
		}
		return state.WithPosition(next), nil
	default:
		return state, environment.UnknownAction(a)
	}
}

// CommonInfo publishes the position and the remaining distance.
func (e *Env) CommonInfo(state State) map[string]any {
	return map[string]any{
		"position":         state.Position.String(),
		"distance_to_goal": state.Grid.Distance(state.Position),
	}
}

// Agents bundles the two maze agents.
type Agents struct {
	Strategy *StrategyAgent
	Motion   *MotionAgent
}

// NewEnv builds a switching orchestrator: the strategy agent picks a heading
// and hands control to the motion agent, which returns control when done.
// opts are applied after the maze wiring.
func NewEnv(cfg Config, opts ...application.Option) (*application.Orchestrator[State], error) {
	o, _, err := NewEnvWithAgents(cfg, opts...)
	return o, err
}

// NewEnvWithAgents is NewEnv that also returns the agents for inspection.
func NewEnvWithAgents(cfg Config, opts ...application.Option) (*application.Orchestrator[State], Agents, error) {
	if len(cfg.Map) == 0 {
		cfg.Map = DefaultMap
	}
	grid, err := NewGrid(cfg.Map)
	if err != nil {
		return nil, Agents{}, err
	}

	agents := Agents{
		Strategy: NewStrategyAgent(grid, cfg.Strategy),
		Motion:   NewMotionAgent(grid, cfg.Motion),
	}
	base := []application.Option{
		application.WithAgents(
			agent.Bind[State, State, map[string]any, int](agents.Strategy),
			agent.Bind[State, State, map[string]any, int](agents.Motion),
		),
		application.WithInitialAgent(StrategyName),
		application.WithTransitionsOnDone(map[agent.Name]agent.Name{
			MotionName:   StrategyName,
			StrategyName: routing.End,
		}),
		application.WithTransitionsOnAction(routing.AgentRule{
			Trigger: routing.All(routing.From(StrategyName), routing.ActionIs[SetDirection]()),
			Target:  MotionName,
		}),
	}

	o, err := application.New[State](NewDomain(grid), append(base, opts...)...)
	if err != nil {
		return nil, Agents{}, err
	}
	return o, agents, nil
}
