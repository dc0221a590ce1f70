// Package procedural runs the maze with the motion agent replaced by a
// procedure: each strategy decision walks the corridor in one step.
package procedural

import (
	"github.com/globalapptesting/hrl-go/application"
	"github.com/globalapptesting/hrl-go/domain/action"
	"github.com/globalapptesting/hrl-go/domain/agent"
	"github.com/globalapptesting/hrl-go/domain/environment"
	"github.com/globalapptesting/hrl-go/domain/procedure"
	"github.com/globalapptesting/hrl-go/domain/routing"
	"github.com/globalapptesting/hrl-go/example/maze"
)

// MotionProcedure is the procedure that walks a corridor.
const MotionProcedure procedure.Name = "motion"

// GoDirection asks the motion procedure to walk towards Direction.
type GoDirection struct {
	action.Procedure
	Direction maze.Direction
}

// Motion walks one tile, then keeps walking until an intersection or a wall.
type Motion struct{}

// Name implements procedure.Procedure.
func (Motion) Name() procedure.Name { return MotionProcedure }

// Execute implements procedure.Procedure.
func (Motion) Execute(state maze.State, request GoDirection) (maze.State, error) {
	state = state.WithDirection(request.Direction)
	for {
		next, err := state.Grid.NextPosition(state.Position, state.Direction)
		if err != nil {
			return state, err
		}
		state = state.WithPosition(next)
		if state.Grid.IsIntersection(state.Position) || !state.Grid.IsDirectionWalkable(state.Position, state.Direction) {
			return state, nil
		}
	}
}

// Strategy is the maze strategy agent emitting GoDirection requests.
type Strategy struct {
	*maze.StrategyAgent
}

// DecodeAction maps a heading index to GoDirection.
func (s Strategy) DecodeAction(state maze.State, raw int) (action.Action, error) {
	d, err := s.Heading(state, raw)
	if err != nil {
		return nil, err
	}
	return GoDirection{Direction: d}, nil
}

// Env is the maze domain without plain actions.
type Env struct {
	*maze.Env
}

// Step rejects every action: all movement goes through the procedure.
func (Env) Step(state maze.State, a action.Action) (maze.State, error) {
	return state, environment.UnknownAction(a)
}

// NewEnv builds the procedural orchestrator. The strategy agent is the only
// agent; the episode ends when it is done.
func NewEnv(cfg maze.Config, opts ...application.Option) (*application.Orchestrator[maze.State], error) {
	o, _, err := NewEnvWithAgent(cfg, opts...)
	return o, err
}

// NewEnvWithAgent is NewEnv that also returns the strategy agent.
func NewEnvWithAgent(cfg maze.Config, opts ...application.Option) (*application.Orchestrator[maze.State], Strategy, error) {
	if len(cfg.Map) == 0 {
		cfg.Map = maze.DefaultMap
	}
	grid, err := maze.NewGrid(cfg.Map)
	if err != nil {
		return nil, Strategy{}, err
	}

	strategy := Strategy{StrategyAgent: maze.NewStrategyAgent(grid, cfg.Strategy)}
	base := []application.Option{
		application.WithAgents(agent.Bind[maze.State, maze.State, map[string]any, int](strategy)),
		application.WithInitialAgent(maze.StrategyName),
		application.WithProcedures(procedure.Bind[maze.State, GoDirection](Motion{})),
		application.WithTransitionsOnDone(map[agent.Name]agent.Name{maze.StrategyName: routing.End}),
		application.WithProceduresOnAction(routing.ProcedureRule{
			Trigger: routing.All(routing.From(maze.StrategyName), routing.ActionIs[GoDirection]()),
			Target:  MotionProcedure,
		}),
	}

	o, err := application.New[maze.State](Env{Env: maze.NewDomain(grid)}, append(base, opts...)...)
	if err != nil {
		return nil, Strategy{}, err
	}
	return o, strategy, nil
}
