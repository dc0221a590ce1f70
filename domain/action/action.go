// Package action defines the closed set of messages exchanged between agents
// and the orchestrator.
//
// Every domain action embeds exactly one of the marker types (Plain, Switch,
// NoSwitch, Procedure). The marker fixes the action's Kind, and the
// orchestrator dispatches on that Kind only, never on the payload.
package action

// Kind tags an action with the variant the orchestrator dispatches on.
type Kind uint8

// Action kinds.
const (
	KindPlain     Kind = iota + 1 // Applied by the domain environment hook
	KindSwitch                    // Hands control to another agent
	KindNoSwitch                  // Switch request carrying context only
	KindProcedure                 // Runs a macro-routine
)

// String returns the kind's name.
func (k Kind) String() string {
	switch k {
	case KindPlain:
		return "plain"
	case KindSwitch:
		return "switch"
	case KindNoSwitch:
		return "no_switch"
	case KindProcedure:
		return "procedure"
	default:
		return "unknown"
	}
}

// IsValid returns true for the four declared kinds.
func (k Kind) IsValid() bool {
	return k >= KindPlain && k <= KindProcedure
}

// IsSwitch returns true for kinds that request an agent hand-off.
// NoSwitch is a Switch subtype and routes the same way.
func (k Kind) IsSwitch() bool {
	return k == KindSwitch || k == KindNoSwitch
}

// Action is a decoded agent action.
//
// The interface is sealed: it can only be satisfied by embedding one of the
// marker types of this package.
type Action interface {
	Kind() Kind
	sealed()
}

// Plain marks a domain action consumed by the environment hook.
type Plain struct{}

// Kind implements Action.
func (Plain) Kind() Kind { return KindPlain }
func (Plain) sealed()    {}

// Switch marks a request to transfer control to another agent.
type Switch struct{}

// Kind implements Action.
func (Switch) Kind() Kind { return KindSwitch }
func (Switch) sealed()    {}

// NoSwitch marks a switch request with no domain effect; it only carries
// context for the next agent.
type NoSwitch struct{}

// Kind implements Action.
func (NoSwitch) Kind() Kind { return KindNoSwitch }
func (NoSwitch) sealed()    {}

// Procedure marks a request to run a named macro-routine instead of a single
// domain step.
type Procedure struct{}

// Kind implements Action.
func (Procedure) Kind() Kind { return KindProcedure }
func (Procedure) sealed()    {}

// IsSwitch reports whether a requests an agent hand-off. A nil action is not
// a switch.
func IsSwitch(a Action) bool {
	return a != nil && a.Kind().IsSwitch()
}

// KindOf returns the kind of a, or zero for nil.
func KindOf(a Action) Kind {
	if a == nil {
		return 0
	}
	return a.Kind()
}
