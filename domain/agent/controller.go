package agent

import (
	"errors"

	"github.com/globalapptesting/hrl-go/domain/action"
	"github.com/globalapptesting/hrl-go/domain/space"
)

// Controller is an Agent with its private state, observation and raw action
// types erased, so that agents of different shapes can share one
// orchestrator. Every method takes the environment state.
type Controller[S any] interface {
	Name() Name
	ObservationSpace() space.Space
	ActionSpace() space.Space

	Observe(state S) any
	Decode(state S, raw any) (action.Action, error)
	Done(state S) bool
	Reward(prev S, a action.Action, next S) float64
	Info(prev S, a action.Action, next S) map[string]any

	OnReset()
	OnTakesControl(state S, switchAction action.Action) S
	OnStep(a action.Action)
	OnGivesControl(switchAction action.Action)
}

// Bind erases the agent-specific type parameters of a.
func Bind[S, AS, O, R any](a Agent[S, AS, O, R]) Controller[S] {
	return &binding[S, AS, O, R]{agent: a}
}

type binding[S, AS, O, R any] struct {
	agent Agent[S, AS, O, R]
}

func (b *binding[S, AS, O, R]) Name() Name { return b.agent.Name() }
func (b *binding[S, AS, O, R]) ObservationSpace() space.Space { return b.agent.ObservationSpace() }
func (b *binding[S, AS, O, R]) ActionSpace() space.Space { return b.agent.ActionSpace() }
func (b *binding[S, AS, O, R]) OnReset() { b.agent.OnReset() }
func (b *binding[S, AS, O, R]) OnStep(a action.Action) { b.agent.OnStep(a) }
func (b *binding[S, AS, O, R]) OnGivesControl(a action.Action) { b.agent.OnGivesControl(a) }

func (b *binding[S, AS, O, R]) Observe(state S) any {
	return b.agent.EncodeObservation(b.agent.TranslateState(state))
}

// Decode rejects raw actions of the wrong Go type as unknown actions and
// wraps every agent error in a DecodeError.
func (b *binding[S, AS, O, R]) Decode(state S, raw any) (action.Action, error) {
	typed, ok := raw.(R)
	if !ok {
		return nil, UnknownAction(b.agent.Name(), raw)
	}
	a, err := b.agent.DecodeAction(b.agent.TranslateState(state), typed)
	if err != nil {
		var decodeErr *DecodeError
		if errors.As(err, &decodeErr) {
			return nil, err
		}
		return nil, NewDecodeError(b.agent.Name(), raw, err)
	}
	if a == nil {
		return nil, UnknownAction(b.agent.Name(), raw)
	}
	return a, nil
}

func (b *binding[S, AS, O, R]) Done(state S) bool {
	return b.agent.HasDone(b.agent.TranslateState(state))
}

func (b *binding[S, AS, O, R]) Reward(prev S, a action.Action, next S) float64 {
	return b.agent.CalculateReward(b.agent.TranslateState(prev), a, b.agent.TranslateState(next))
}

func (b *binding[S, AS, O, R]) Info(prev S, a action.Action, next S) map[string]any {
	info := b.agent.Info(b.agent.TranslateState(prev), a, b.agent.TranslateState(next))
	if info == nil {
		info = map[string]any{}
	}
	return info
}

func (b *binding[S, AS, O, R]) OnTakesControl(state S, switchAction action.Action) S {
	return b.agent.OnTakesControl(state, switchAction)
}
