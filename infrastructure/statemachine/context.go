package statemachine

import (
	"github.com/felixgeelhaar/statekit"
)

// Context records the control flow observed by a machine.
type Context struct {
	// Entries counts state entries, including the initial one.
	Entries map[statekit.StateID]int

	// Handoffs counts transitions taken.
	Handoffs int

	// Last is the most recent event that caused a transition.
	Last statekit.EventType
}

func newContext() *Context {
	return &Context{Entries: make(map[statekit.StateID]int)}
}

// recordEntry counts entries into a state. Actions receive a pointer to the
// machine context, so with *Context they receive **Context.
func recordEntry(ctx **Context, event statekit.Event) {
	if ctx == nil || *ctx == nil {
		return
	}
	if state, ok := event.Payload.(statekit.StateID); ok {
		(*ctx).Entries[state]++
	}
}

func recordHandoff(ctx **Context, event statekit.Event) {
	if ctx == nil || *ctx == nil {
		return
	}
	(*ctx).Handoffs++
	(*ctx).Last = event.Type
}
