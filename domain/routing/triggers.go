package routing

import (
	"github.com/globalapptesting/hrl-go/domain/action"
	"github.com/globalapptesting/hrl-go/domain/agent"
)

// From matches when the active agent is name.
func From(name agent.Name) Trigger {
	return func(active agent.Name, _ action.Action) bool {
		return active == name
	}
}

// OfKind matches actions of the given kind.
func OfKind(kind action.Kind) Trigger {
	return func(_ agent.Name, a action.Action) bool {
		return action.KindOf(a) == kind
	}
}

// Switching matches switch and no-switch requests.
func Switching() Trigger {
	return func(_ agent.Name, a action.Action) bool {
		return action.IsSwitch(a)
	}
}

// ActionIs matches actions of the concrete type T.
func ActionIs[T action.Action]() Trigger {
	return func(_ agent.Name, a action.Action) bool {
		_, ok := a.(T)
		return ok
	}
}

// All matches when every trigger matches.
func All(triggers ...Trigger) Trigger {
	return func(name agent.Name, a action.Action) bool {
		for _, t := range triggers {
			if !t(name, a) {
				return false
			}
		}
		return true
	}
}

// Any matches when at least one trigger matches.
func Any(triggers ...Trigger) Trigger {
	return func(name agent.Name, a action.Action) bool {
		for _, t := range triggers {
			if t(name, a) {
				return true
			}
		}
		return false
	}
}

// Always matches everything.
func Always() Trigger {
	return func(agent.Name, action.Action) bool { return true }
}
