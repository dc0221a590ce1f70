package statemachine

import (
	"errors"
	"fmt"

	"github.com/felixgeelhaar/statekit"

	"github.com/globalapptesting/hrl-go/domain/agent"
)

// ErrUndeclaredTransition indicates an event the current state does not handle.
var ErrUndeclaredTransition = errors.New("undeclared control transition")

// Interpreter tracks which agent holds control for one episode.
type Interpreter struct {
	machine *statekit.MachineConfig[*Context]
	graph   Graph
	interp  *statekit.Interpreter[*Context]
	ctx     *Context
	aborted bool
}

// NewInterpreter builds the machine for graph. Call Start before sending events.
func NewInterpreter(graph Graph) (*Interpreter, error) {
	machine, err := graph.Build()
	if err != nil {
		return nil, err
	}
	return &Interpreter{machine: machine, graph: graph}, nil
}

// Start enters the initial state with a fresh context, discarding any
// previous episode.
func (i *Interpreter) Start() {
	if i.interp != nil {
		i.interp.Stop()
	}

	ctx := newContext()
	interp := statekit.NewInterpreter(i.machine)
	interp.UpdateContext(func(c **Context) {
		*c = ctx
	})
	interp.Start()
	ctx.Entries[i.graph.Initial]++

	i.interp = interp
	i.ctx = ctx
	i.aborted = false
}

// Current returns the agent in control, or End once the episode is over.
func (i *Interpreter) Current() agent.Name {
	if i.interp == nil {
		return ""
	}
	state := i.interp.State().Value
	if state == StateEnd || i.aborted {
		return ""
	}
	return agent.Name(state)
}

// Done hands control to the successor of the active agent and returns it.
// The second result is false when the episode ended.
func (i *Interpreter) Done() (agent.Name, bool, error) {
	to, err := i.send(EventDone)
	if err != nil {
		return "", false, err
	}
	if to == StateEnd {
		return "", false, nil
	}
	return agent.Name(to), true, nil
}

// Switch moves control to target.
func (i *Interpreter) Switch(target agent.Name) error {
	_, err := i.send(EventSwitch(target))
	return err
}

func (i *Interpreter) send(ev statekit.EventType) (statekit.StateID, error) {
	if i.interp == nil {
		return "", fmt.Errorf("%w: machine not started", ErrUndeclaredTransition)
	}
	if i.aborted {
		return "", fmt.Errorf("%w: machine aborted", ErrUndeclaredTransition)
	}

	from := i.interp.State().Value
	to, ok := i.target(from, ev)
	if !ok {
		return "", fmt.Errorf("%w: %s on %s", ErrUndeclaredTransition, from, ev)
	}

	i.interp.Send(statekit.Event{Type: ev, Payload: to})

	if got := i.interp.State().Value; got != to {
		return "", fmt.Errorf("%w: %s on %s reached %s, want %s", ErrUndeclaredTransition, from, ev, got, to)
	}
	return to, nil
}

func (i *Interpreter) target(from statekit.StateID, ev statekit.EventType) (statekit.StateID, bool) {
	for _, e := range i.graph.Outgoing(from) {
		if e.Event == ev {
			return e.To, true
		}
	}
	return "", false
}

// Abort ends the episode without reaching the final state. Every later
// event is rejected until the next Start.
func (i *Interpreter) Abort() {
	if i.interp == nil {
		return
	}
	i.aborted = true
}

// Terminal reports whether the final state was reached or the machine was
// aborted.
func (i *Interpreter) Terminal() bool {
	return i.interp != nil && (i.aborted || i.interp.Done())
}

// Context returns the context of the current episode.
func (i *Interpreter) Context() *Context {
	return i.ctx
}

// Graph returns the compiled control graph.
func (i *Interpreter) Graph() Graph {
	return i.graph
}
