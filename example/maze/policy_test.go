package maze_test

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/globalapptesting/hrl-go/application"
	"github.com/globalapptesting/hrl-go/domain/agent"
	"github.com/globalapptesting/hrl-go/domain/episode"
	"github.com/globalapptesting/hrl-go/example/maze"
	"github.com/globalapptesting/hrl-go/infrastructure/storage/memory"
)

func TestShortestPath_Rollout(t *testing.T) {
	o, err := maze.NewEnv(maze.DefaultConfig())
	require.NoError(t, err)

	policy := maze.ShortestPath{Grid: maze.MustGrid(maze.DefaultMap)}
	summary, err := application.Rollout(context.Background(), o, policy, application.RolloutConfig{MaxSteps: 100})
	require.NoError(t, err)

	assert.True(t, summary.Terminal)
	assert.Equal(t, 20, summary.Steps)
	assert.Equal(t, 1.0, summary.Rewards["strategy_0"])
	// 13 forward moves, 7 hand-off steps at -0.1 and the goal.
	assert.InDelta(t, 13.3, summary.TotalReward(), 1e-9)
	assert.Len(t, summary.IdentitiesOf(maze.MotionName), 7)
	assert.Equal(t, []agent.ID{"strategy_0"}, summary.IdentitiesOf(maze.StrategyName))
}

func TestShortestPath_MissingPosition(t *testing.T) {
	policy := maze.ShortestPath{Grid: maze.MustGrid(maze.DefaultMap)}

	_, err := policy.Act(context.Background(), "strategy_0", map[string]any{})
	assert.Error(t, err)

	raw, err := policy.Act(context.Background(), "motion_3", nil)
	require.NoError(t, err)
	assert.Equal(t, maze.ActionForward, raw)
}

func TestRandom_RespectsMask(t *testing.T) {
	policy := maze.NewRandom(7)
	obs := map[string]any{"directions_mask": []float32{0, 1, 0, 0}}

	for range 20 {
		raw, err := policy.Act(context.Background(), "strategy_0", obs)
		require.NoError(t, err)
		assert.Equal(t, 1, raw)
	}

	_, err := policy.Act(context.Background(), "strategy_0", map[string]any{"directions_mask": []float32{0, 0, 0, 0}})
	assert.ErrorIs(t, err, maze.ErrNoLegalAction)
}

func TestRandom_Reproducible(t *testing.T) {
	run := func() application.EpisodeSummary {
		o, err := maze.NewEnv(maze.DefaultConfig())
		require.NoError(t, err)
		summary, err := application.Rollout(context.Background(), o, maze.NewRandom(42), application.RolloutConfig{MaxSteps: 500})
		require.NoError(t, err)
		return summary
	}

	first, second := run(), run()
	assert.Equal(t, first.Steps, second.Steps)
	assert.Equal(t, first.Identities, second.Identities)
	assert.True(t, first.Terminal, "budgets bound every random episode")
}

func TestRollout_Replay(t *testing.T) {
	ctx := context.Background()
	store := memory.NewEventStore()
	o, err := maze.NewEnv(maze.DefaultConfig(), application.WithRecorder(store))
	require.NoError(t, err)

	policy := maze.ShortestPath{Grid: maze.MustGrid(maze.DefaultMap)}
	summary, err := application.Rollout(ctx, o, policy, application.RolloutConfig{})
	require.NoError(t, err)

	replayed, err := application.NewReplay(store).ReconstructEpisode(ctx, summary.EpisodeID)
	require.NoError(t, err)

	assert.Equal(t, summary.Steps, replayed.Steps)
	assert.Equal(t, summary.Identities, replayed.Identities)
	assert.True(t, replayed.Terminal)
	assert.InDelta(t, summary.TotalReward(), replayed.TotalReward(), 1e-9)
}

var identityPattern = regexp.MustCompile(`^(strategy|motion)_\d+$`)

func TestRandomEpisodes_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		seed := rapid.Int64().Draw(t, "seed")
		cfg := maze.DefaultConfig()
		cfg.Strategy.MaxSteps = rapid.IntRange(1, 20).Draw(t, "strategy_max")
		cfg.Motion.MaxSteps = rapid.IntRange(1, 10).Draw(t, "motion_max")

		o, err := maze.NewEnv(cfg)
		if err != nil {
			t.Fatalf("NewEnv: %v", err)
		}
		ctx := context.Background()
		obs, err := o.Reset(ctx)
		if err != nil {
			t.Fatalf("Reset: %v", err)
		}

		policy := maze.NewRandom(seed)
		_, id := o.Active()
		observation := obs[id]
		bound := cfg.Strategy.MaxSteps * (cfg.Motion.MaxSteps + 1)
		for step := 0; !o.Terminal(); step++ {
			if step > bound {
				t.Fatalf("episode still running after %d steps", step)
			}
			raw, err := policy.Act(ctx, id, observation)
			if err != nil {
				t.Fatalf("Act: %v", err)
			}
			result, err := o.Step(ctx, map[agent.ID]any{id: raw})
			if err != nil {
				t.Fatalf("Step: %v", err)
			}

			all := true
			for _, rid := range result.Agents() {
				if !identityPattern.MatchString(string(rid)) {
					t.Fatalf("malformed identity %q", rid)
				}
				all = all && result.Dones[rid]
			}
			if result.AllDone() != all {
				t.Fatalf("%s = %v, want %v", episode.AllKey, result.AllDone(), all)
			}
			if result.AllDone() != o.Terminal() {
				t.Fatalf("all done %v but terminal %v", result.AllDone(), o.Terminal())
			}

			_, id = o.Active()
			observation = result.Observations[id]
		}
	})
}
