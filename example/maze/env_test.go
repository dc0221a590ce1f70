package maze_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/globalapptesting/hrl-go/application"
	"github.com/globalapptesting/hrl-go/domain/agent"
	"github.com/globalapptesting/hrl-go/domain/episode"
	"github.com/globalapptesting/hrl-go/domain/space"
	"github.com/globalapptesting/hrl-go/example/maze"
)

func testConfig() maze.Config {
	cfg := maze.DefaultConfig()
	cfg.Strategy.MaxSteps = 10
	cfg.Motion.MaxSteps = 5
	return cfg
}

func newTestEnv(t *testing.T) (*application.Orchestrator[maze.State], maze.Agents) {
	t.Helper()

	o, agents, err := maze.NewEnvWithAgents(testConfig())
	require.NoError(t, err)
	_, err = o.Reset(context.Background())
	require.NoError(t, err)
	return o, agents
}

// act steps the active agent with raw.
func act(t *testing.T, o *application.Orchestrator[maze.State], raw int) episode.Result {
	t.Helper()

	_, id := o.Active()
	result, err := o.Step(context.Background(), map[agent.ID]any{id: raw})
	require.NoError(t, err, "step %d by %s", o.Steps(), id)
	return result
}

// leg sets a heading and moves forward n times, returning the last result.
func leg(t *testing.T, o *application.Orchestrator[maze.State], d maze.Direction, n int) episode.Result {
	t.Helper()

	act(t, o, int(d))
	var result episode.Result
	for range n {
		result = act(t, o, maze.ActionForward)
	}
	return result
}

func TestEnv_ReachesGoal(t *testing.T) {
	o, _ := newTestEnv(t)

	route := []struct {
		direction maze.Direction
		moves     int
		end       maze.Position
	}{
		{maze.Left, 1, maze.Position{Row: 4, Col: 8}},
		{maze.Down, 2, maze.Position{Row: 6, Col: 8}},
		{maze.Left, 3, maze.Position{Row: 6, Col: 5}},
		{maze.Up, 2, maze.Position{Row: 4, Col: 5}},
		{maze.Up, 3, maze.Position{Row: 1, Col: 5}},
		{maze.Left, 1, maze.Position{Row: 1, Col: 4}},
	}

	for i, r := range route {
		result := leg(t, o, r.direction, r.moves)
		motion := agent.NewID(maze.MotionName, i)

		assert.Equal(t, r.end, o.State().Position, "leg %d", i)
		assert.Equal(t, []agent.ID{motion, "strategy_0"}, result.Agents(), "leg %d", i)
		assert.True(t, result.Dones[motion])
		assert.False(t, result.Dones["strategy_0"])
		assert.False(t, result.AllDone())
	}

	result := leg(t, o, maze.Up, 1)

	assert.Equal(t, maze.Position{Row: 0, Col: 4}, o.State().Position)
	assert.True(t, result.Dones["motion_6"])
	assert.True(t, result.Dones["strategy_0"])
	assert.True(t, result.AllDone())
	assert.Equal(t, 1.0, result.Rewards["strategy_0"])
	assert.Equal(t, 1.0, result.Rewards["motion_6"])
	assert.Equal(t, 0, result.Infos[episode.CommonKey]["distance_to_goal"])
	assert.True(t, o.Terminal())
	assert.Equal(t, 20, o.Steps())
}

func TestEnv_SwitchResultHoldsMotionOnly(t *testing.T) {
	o, agents := newTestEnv(t)

	result := act(t, o, int(maze.Left))

	assert.Equal(t, []agent.ID{"motion_0"}, result.Agents())
	assert.InDelta(t, -0.1, result.Rewards["motion_0"], 1e-9)
	assert.Equal(t, []float32{0, 1}, maze.Mask(result.Observations["motion_0"]))
	assert.Equal(t, maze.Left, o.State().Direction)
	assert.Equal(t, 1, agents.Strategy.Elapsed())
	assert.Equal(t, 0, agents.Motion.Elapsed())
	assert.Equal(t, space.Discrete{N: 2}, o.ActionSpace())
}

func TestEnv_StrategyTimeout(t *testing.T) {
	o, _ := newTestEnv(t)

	var result episode.Result
	for i := range 10 {
		d := maze.Up
		if i%2 == 1 {
			d = maze.Down
		}
		result = leg(t, o, d, 1)
	}

	assert.Equal(t, []agent.ID{"motion_9", "strategy_0"}, result.Agents())
	assert.True(t, result.Dones["strategy_0"])
	assert.True(t, result.AllDone())
	assert.Zero(t, result.Rewards["strategy_0"])
	assert.Equal(t, maze.Position{Row: 4, Col: 9}, o.State().Position)
	assert.True(t, o.Terminal())
}

func TestEnv_MotionTimeout(t *testing.T) {
	o, _ := newTestEnv(t)

	leg(t, o, maze.Left, 1)
	leg(t, o, maze.Down, 2)

	act(t, o, int(maze.Left))
	moves := []struct {
		raw  int
		want maze.Position
	}{
		{maze.ActionForward, maze.Position{Row: 6, Col: 7}},
		{maze.ActionForward, maze.Position{Row: 6, Col: 6}},
		{maze.ActionBackward, maze.Position{Row: 6, Col: 7}},
		{maze.ActionForward, maze.Position{Row: 6, Col: 6}},
	}
	for _, m := range moves {
		result := act(t, o, m.raw)
		assert.Equal(t, m.want, o.State().Position)
		assert.Equal(t, []agent.ID{"motion_2"}, result.Agents())
	}

	result := act(t, o, maze.ActionBackward)

	assert.Equal(t, maze.Position{Row: 6, Col: 7}, o.State().Position)
	assert.Equal(t, []agent.ID{"motion_2", "strategy_0"}, result.Agents())
	assert.True(t, result.Dones["motion_2"])
	assert.False(t, result.Dones["strategy_0"])
	assert.False(t, result.AllDone())
	assert.InDelta(t, -0.1, result.Rewards["motion_2"], 1e-9)
	assert.False(t, o.Terminal())
}

func TestEnv_DecodeErrors(t *testing.T) {
	o, _ := newTestEnv(t)
	ctx := context.Background()

	_, err := o.Step(ctx, map[agent.ID]any{"strategy_0": int(maze.Down)})
	assert.ErrorIs(t, err, maze.ErrDirectionNotWalkable)
	assert.ErrorIs(t, err, application.ErrInvalidAction)

	_, err = o.Step(ctx, map[agent.ID]any{"strategy_0": 9})
	assert.ErrorIs(t, err, application.ErrUnknownAgentAction)

	_, err = o.Step(ctx, map[agent.ID]any{"strategy_0": "left"})
	assert.ErrorIs(t, err, application.ErrUnknownAgentAction)

	_, id := o.Active()
	assert.Equal(t, agent.ID("strategy_0"), id)
	assert.Zero(t, o.Steps())
	assert.Equal(t, o.State().Grid.Start(), o.State().Position)

	act(t, o, int(maze.Up))
	_, err = o.Step(ctx, map[agent.ID]any{"motion_0": maze.ActionBackward})
	assert.ErrorIs(t, err, maze.ErrDirectionNotWalkable, "start tile has nothing below")
}

func TestEnv_ContractViolations(t *testing.T) {
	o, err := maze.NewEnv(testConfig())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = o.Step(ctx, map[agent.ID]any{"strategy_0": 0})
	assert.ErrorIs(t, err, application.ErrContractViolation, "before reset")

	_, err = o.Reset(ctx)
	require.NoError(t, err)

	_, err = o.Step(ctx, map[agent.ID]any{"motion_0": 1})
	assert.ErrorIs(t, err, application.ErrContractViolation, "inactive identity")

	_, err = o.Step(ctx, map[agent.ID]any{"strategy_0": 0, "motion_0": 1})
	assert.ErrorIs(t, err, application.ErrContractViolation, "two actions")

	for i := range 10 {
		d := maze.Up
		if i%2 == 1 {
			d = maze.Down
		}
		leg(t, o, d, 1)
	}
	require.True(t, o.Terminal())

	_, err = o.Step(ctx, map[agent.ID]any{"strategy_0": 0})
	assert.ErrorIs(t, err, application.ErrContractViolation, "after the episode ended")
}

func TestEnv_ResetClearsCounters(t *testing.T) {
	o, agents := newTestEnv(t)

	leg(t, o, maze.Left, 1)
	leg(t, o, maze.Down, 1)
	first := o.EpisodeID()

	obs, err := o.Reset(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, first, o.EpisodeID())
	assert.Contains(t, obs, agent.ID("strategy_0"))
	assert.Equal(t, []agent.ID{"strategy_0"}, o.History())
	assert.Zero(t, agents.Strategy.Elapsed())
	assert.Zero(t, agents.Motion.Elapsed())
	assert.Equal(t, o.State().Grid.Start(), o.State().Position)
	assert.Equal(t, maze.InitialDirection, o.State().Direction)

	result := leg(t, o, maze.Left, 1)
	assert.Contains(t, result.Dones, agent.ID("motion_0"))
}

func TestEnv_Spaces(t *testing.T) {
	o, err := maze.NewEnv(maze.DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, space.Discrete{N: 4}, o.ActionSpace())
	assert.Equal(t,
		"Dict(map: Box(0, 3, (10, 10)), position: Box(0, 10, (2)), directions_mask: MultiBinary(4))",
		o.ObservationSpace().String())

	obs, err := o.Reset(context.Background())
	require.NoError(t, err)
	assert.True(t, o.ObservationSpace().Contains(obs["strategy_0"]))
	assert.Equal(t, []float32{1, 0, 0, 1}, maze.Mask(obs["strategy_0"]))

	result := act(t, o, int(maze.Left))
	assert.True(t, o.ObservationSpace().Contains(result.Observations["motion_0"]))
}

func TestEnv_CommonInfo(t *testing.T) {
	o, _ := newTestEnv(t)

	result := leg(t, o, maze.Left, 1)

	common := result.Infos[episode.CommonKey]
	assert.Equal(t, "(4,8)", common["position"])
	assert.Equal(t, 12, common["distance_to_goal"])
}

func TestNewEnv_InvalidMap(t *testing.T) {
	cfg := maze.DefaultConfig()
	cfg.Map = [][]int{{1, 1}}

	_, err := maze.NewEnv(cfg)
	assert.ErrorIs(t, err, maze.ErrInvalidMap)
}
