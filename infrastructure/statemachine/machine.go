// Package statemachine provides the statekit integration for control flow
// between agents: one state per agent, a final state for the end of the
// episode, and events for done handoffs and switch requests.
package statemachine

import (
	"fmt"
	"slices"
	"strings"

	"github.com/felixgeelhaar/statekit"

	"github.com/globalapptesting/hrl-go/domain/agent"
	"github.com/globalapptesting/hrl-go/domain/routing"
)

// StateEnd is the final state entered when an agent with no successor is done.
const StateEnd = statekit.StateID(routing.Finished)

// Event types.
const (
	// EventDone hands control to the OnDone successor of the active agent.
	EventDone statekit.EventType = "done"

	switchPrefix = "switch:"
)

// EventSwitch returns the event that moves control to target.
func EventSwitch(target agent.Name) statekit.EventType {
	return statekit.EventType(switchPrefix + string(target))
}

// Edge is a declared transition of the control graph.
type Edge struct {
	From  statekit.StateID
	Event statekit.EventType
	To    statekit.StateID
}

// Graph is the control graph derived from routing tables.
type Graph struct {
	Initial statekit.StateID
	States  []statekit.StateID
	Edges   []Edge
}

// NewGraph derives the control graph for the given agents and tables. Every
// agent may raise every switch event, since triggers are opaque predicates.
func NewGraph(agents []agent.Name, tables routing.Tables) Graph {
	g := Graph{Initial: statekit.StateID(tables.Initial)}
	targets := tables.SwitchTargets()

	for _, name := range agents {
		from := statekit.StateID(name)
		g.States = append(g.States, from)

		to := StateEnd
		if next, ok := tables.NextOnDone(name); ok {
			to = statekit.StateID(next)
		}
		g.Edges = append(g.Edges, Edge{From: from, Event: EventDone, To: to})

		for _, target := range targets {
			g.Edges = append(g.Edges, Edge{From: from, Event: EventSwitch(target), To: statekit.StateID(target)})
		}
	}
	return g
}

// Outgoing returns the edges leaving state.
func (g Graph) Outgoing(state statekit.StateID) []Edge {
	var out []Edge
	for _, e := range g.Edges {
		if e.From == state {
			out = append(out, e)
		}
	}
	return out
}

// String renders the graph one edge per line.
func (g Graph) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "initial: %s\n", g.Initial)
	for _, e := range g.Edges {
		fmt.Fprintf(&b, "%s --%s--> %s\n", e.From, e.Event, e.To)
	}
	return b.String()
}

// Build compiles the graph into a statekit machine.
func (g Graph) Build() (*statekit.MachineConfig[*Context], error) {
	if len(g.States) == 0 {
		return nil, fmt.Errorf("%w: control graph has no states", routing.ErrInvalidConfiguration)
	}
	if slices.Contains(g.States, StateEnd) {
		return nil, fmt.Errorf("%w: state %s is reserved", routing.ErrInvalidConfiguration, StateEnd)
	}

	mb := statekit.NewMachine[*Context]("control").
		WithInitial(g.Initial).
		WithContext(&Context{}).
		WithAction("enter", recordEntry).
		WithAction("handoff", recordHandoff)

	for _, state := range g.States {
		edges := g.Outgoing(state)
		tb := mb.State(state).
			OnEntry("enter").
			On(edges[0].Event).Target(edges[0].To).Do("handoff")
		for _, e := range edges[1:] {
			tb = tb.On(e.Event).Target(e.To).Do("handoff")
		}
		mb = tb.Done()
	}

	return mb.State(StateEnd).
		Final().
		OnEntry("enter").
		Done().
		Build()
}
