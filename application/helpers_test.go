package application_test

import (
	"context"
	"errors"
	"sync"

	"github.com/globalapptesting/hrl-go/domain/action"
	"github.com/globalapptesting/hrl-go/domain/agent"
	"github.com/globalapptesting/hrl-go/domain/environment"
	"github.com/globalapptesting/hrl-go/domain/event"
	"github.com/globalapptesting/hrl-go/domain/space"
)

// The test domain is a counter on a line. Plain actions push it, switch
// actions delegate to another agent, procedure actions jump.

type push struct {
	action.Plain
	By int
}

type delegate struct{ action.Switch }

type keep struct{ action.NoSwitch }

type jump struct {
	action.Procedure
	To int
}

type line struct{}

func (line) InitialState() int { return 0 }

func (line) Step(state int, a action.Action) (int, error) {
	p, ok := a.(push)
	if !ok {
		return state, environment.UnknownAction(a)
	}
	return state + p.By, nil
}

func (line) CommonInfo(state int) map[string]any {
	return map[string]any{"value": state}
}

// bare is line without common info.
type bare struct{}

func (bare) InitialState() int { return 0 }

func (bare) Step(state int, a action.Action) (int, error) {
	return line{}.Step(state, a)
}

var errOdd = errors.New("odd raw action")

// scripted is a configurable agent that records its hook calls.
type scripted struct {
	agent.Hooks[int, int]

	name   agent.Name
	decode func(state, raw int) (action.Action, error)
	done   func(state int) bool

	calls []string
}

func (s *scripted) Name() agent.Name { return s.name }
func (s *scripted) ObservationSpace() space.Space { return space.Discrete{N: 100} }
func (s *scripted) ActionSpace() space.Space { return space.Discrete{N: 10} }
func (s *scripted) TranslateState(state int) int { return state }
func (s *scripted) EncodeObservation(v int) int { return v }

func (s *scripted) DecodeAction(state, raw int) (action.Action, error) {
	if s.decode != nil {
		return s.decode(state, raw)
	}
	return push{By: raw}, nil
}

func (s *scripted) HasDone(state int) bool {
	return s.done != nil && s.done(state)
}

func (s *scripted) CalculateReward(prev int, _ action.Action, next int) float64 {
	return float64(next - prev)
}

func (s *scripted) OnReset() { s.calls = append(s.calls, "reset") }

func (s *scripted) OnTakesControl(state int, switchAction action.Action) int {
	if switchAction == nil {
		s.calls = append(s.calls, "takes")
	} else {
		s.calls = append(s.calls, "takes:switch")
	}
	return state
}

func (s *scripted) OnStep(action.Action) { s.calls = append(s.calls, "step") }

func (s *scripted) OnGivesControl(switchAction action.Action) {
	if switchAction == nil {
		s.calls = append(s.calls, "gives")
	} else {
		s.calls = append(s.calls, "gives:switch")
	}
}

func bind(s *scripted) agent.Controller[int] {
	return agent.Bind[int, int, int, int](s)
}

// leadDecode maps raw 0 to delegate, 1 to keep, 2 to jump and anything else
// to a push, rejecting odd pushes.
func leadDecode(_ int, raw int) (action.Action, error) {
	switch raw {
	case 0:
		return delegate{}, nil
	case 1:
		return keep{}, nil
	case 2:
		return jump{To: 10}, nil
	}
	if raw%2 == 1 {
		return nil, errOdd
	}
	return push{By: raw}, nil
}

// recordingStore is an event.Store that keeps appended events and can be
// told to fail.
type recordingStore struct {
	mu     sync.Mutex
	events []event.Event
	fail   error
}

func (r *recordingStore) Append(_ context.Context, events ...event.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	r.events = append(r.events, events...)
	return nil
}

func (r *recordingStore) LoadEvents(_ context.Context, episodeID string) ([]event.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []event.Event
	for _, e := range r.events {
		if e.EpisodeID == episodeID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *recordingStore) LoadEventsFrom(ctx context.Context, episodeID string, _ uint64) ([]event.Event, error) {
	return r.LoadEvents(ctx, episodeID)
}

func (r *recordingStore) Subscribe(context.Context, string) (<-chan event.Event, error) {
	return nil, errors.New("not supported")
}

func (r *recordingStore) types() []event.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]event.Type, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}
