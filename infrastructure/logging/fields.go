package logging

import (
	"time"

	"github.com/felixgeelhaar/bolt/v3"

	"github.com/globalapptesting/hrl-go/domain/action"
	"github.com/globalapptesting/hrl-go/domain/agent"
	"github.com/globalapptesting/hrl-go/domain/procedure"
)

// Field is a function that applies structured data to a log event.
type Field func(*bolt.Event) *bolt.Event

// EpisodeID adds an episode_id field.
func EpisodeID(id string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("episode_id", id)
	}
}

// Agent adds the agent name and identity.
func Agent(name agent.Name, id agent.ID) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("agent", string(name)).Str("agent_id", string(id))
	}
}

// Handoff adds from_agent and to_agent fields.
func Handoff(from, to agent.ID) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("from_agent", string(from)).Str("to_agent", string(to))
	}
}

// ActionKind adds the kind of a decoded action.
func ActionKind(a action.Action) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("action_kind", action.KindOf(a).String())
	}
}

// Procedure adds a procedure field.
func Procedure(name procedure.Name) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("procedure", string(name))
	}
}

// Step adds the step counter.
func Step(n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("step", n)
	}
}

// Reward adds a reward field.
func Reward(r float64) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Float64("reward", r)
	}
}

// Done adds a done field.
func Done(done bool) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Bool("done", done)
	}
}

// Duration adds a duration field in milliseconds.
func Duration(d time.Duration) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int64("duration_ms", d.Milliseconds())
	}
}

// Component adds a component field.
func Component(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("component", name)
	}
}

// ErrorField adds an error field. A nil error adds nothing.
func ErrorField(err error) Field {
	return func(e *bolt.Event) *bolt.Event {
		if err == nil {
			return e
		}
		return e.Err(err)
	}
}
