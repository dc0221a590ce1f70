package episode_test

import (
	"slices"
	"testing"

	"github.com/globalapptesting/hrl-go/domain/agent"
	"github.com/globalapptesting/hrl-go/domain/episode"
)

func TestSession_Lifecycle(t *testing.T) {
	t.Parallel()

	s := episode.NewSession[int]()
	if s.Started() {
		t.Fatal("new session should not be started")
	}

	s.Reset("ep-1", 10)
	if !s.Started() {
		t.Fatal("after Reset: session not started")
	}
	if s.ID() != "ep-1" || s.Previous() != 10 || s.Steps() != 0 {
		t.Errorf("after Reset: id=%s prev=%d steps=%d", s.ID(), s.Previous(), s.Steps())
	}

	if id := s.Activate("strategy"); id != "strategy_0" {
		t.Errorf("Activate(strategy) = %s, want strategy_0", id)
	}
	if id := s.Activate("motion"); id != "motion_0" {
		t.Errorf("Activate(motion) = %s, want motion_0", id)
	}
	s.Retire("motion")
	if id := s.Activate("strategy"); id != "strategy_0" {
		t.Errorf("re-Activate(strategy) = %s, want strategy_0", id)
	}
	if id := s.Activate("motion"); id != "motion_1" {
		t.Errorf("Activate(motion) after Retire = %s, want motion_1", id)
	}

	name, id := s.Active()
	if name != "motion" || id != "motion_1" {
		t.Errorf("Active() = (%s, %s), want (motion, motion_1)", name, id)
	}

	s.Advance(11)
	s.Advance(12)
	if s.Previous() != 12 || s.Steps() != 2 {
		t.Errorf("after Advance: prev=%d steps=%d", s.Previous(), s.Steps())
	}

	want := []agent.ID{"strategy_0", "motion_0", "motion_1"}
	if got := s.History(); !slices.Equal(got, want) {
		t.Errorf("History() = %v, want %v", got, want)
	}
}

func TestSession_ResetClearsCounters(t *testing.T) {
	t.Parallel()

	s := episode.NewSession[string]()
	s.Reset("a", "x")
	s.Activate("motion")
	s.Retire("motion")
	s.Retire("motion")

	s.Reset("b", "y")
	if s.Activations("motion") != 0 {
		t.Errorf("Activations(motion) = %d, want 0", s.Activations("motion"))
	}
	if id := s.Activate("motion"); id != "motion_0" {
		t.Errorf("Activate(motion) = %s, want motion_0", id)
	}
	if len(s.History()) != 1 {
		t.Errorf("History() = %v, want one entry", s.History())
	}
}

func TestResult_Seal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		dones map[agent.ID]bool
		want  bool
	}{
		{"single running", map[agent.ID]bool{"a_0": false}, false},
		{"single done", map[agent.ID]bool{"a_0": true}, true},
		{"handoff", map[agent.ID]bool{"motion_0": true, "strategy_0": false}, false},
		{"both done", map[agent.ID]bool{"motion_6": true, "strategy_0": true}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := episode.NewResult()
			for id, done := range tt.dones {
				r.Set(id, nil, 0, done, nil)
			}
			r.Seal()
			if got := r.AllDone(); got != tt.want {
				t.Errorf("AllDone() = %v, want %v", got, tt.want)
			}
			// Sealing twice must not let the synthetic key vote.
			r.Seal()
			if got := r.AllDone(); got != tt.want {
				t.Errorf("AllDone() after reseal = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResult_AgentsAndMerge(t *testing.T) {
	t.Parallel()

	r := episode.NewResult()
	r.Set("strategy_0", "obs-s", 0.5, false, map[string]any{})
	r.SetCommon(map[string]any{"position": 3})

	other := episode.NewResult()
	other.Set("motion_0", "obs-m", 1, true, nil)
	other.Set("strategy_0", "obs-s2", 0, false, nil)
	r.Merge(other)
	r.Seal()

	want := []agent.ID{"motion_0", "strategy_0"}
	if got := r.Agents(); !slices.Equal(got, want) {
		t.Errorf("Agents() = %v, want %v", got, want)
	}
	if r.Observations["strategy_0"] != "obs-s2" {
		t.Errorf("Merge should overwrite shared identities, got %v", r.Observations["strategy_0"])
	}
	if r.TotalReward() != 1 {
		t.Errorf("TotalReward() = %v, want 1", r.TotalReward())
	}
	if _, ok := r.Infos[episode.CommonKey]; !ok {
		t.Error("common info missing")
	}
}
