// Package procedure provides macro-actions: routines that advance the
// environment over several domain micro-steps without per-step agent control.
package procedure

import (
	"errors"
	"fmt"

	"github.com/globalapptesting/hrl-go/domain/action"
)

// Name identifies a procedure within an orchestrator.
type Name string

// ErrUnexpectedRequest indicates a procedure received a request of a type it
// does not handle.
var ErrUnexpectedRequest = errors.New("unexpected procedure request")

// Procedure computes a new environment state from the current one and a
// procedure request. Execute must be total over every state in which its
// trigger matched, and returns only when its own termination condition holds.
type Procedure[S any, P action.Action] interface {
	Name() Name
	Execute(state S, request P) (S, error)
}

// Runner is a Procedure with its request type erased.
type Runner[S any] interface {
	Name() Name
	Execute(state S, request action.Action) (S, error)
}

// Bind erases the request type of p.
func Bind[S any, P action.Action](p Procedure[S, P]) Runner[S] {
	return runner[S, P]{procedure: p}
}

type runner[S any, P action.Action] struct {
	procedure Procedure[S, P]
}

func (r runner[S, P]) Name() Name {
	return r.procedure.Name()
}

func (r runner[S, P]) Execute(state S, request action.Action) (S, error) {
	typed, ok := request.(P)
	if !ok {
		return state, fmt.Errorf("%w: procedure %s cannot handle %T", ErrUnexpectedRequest, r.procedure.Name(), request)
	}
	return r.procedure.Execute(state, typed)
}

// Func adapts a function to the Runner interface.
type Func[S any] struct {
	ID  Name
	Run func(state S, request action.Action) (S, error)
}

// Name implements Runner.
func (f Func[S]) Name() Name {
	return f.ID
}

// Execute implements Runner.
func (f Func[S]) Execute(state S, request action.Action) (S, error) {
	return f.Run(state, request)
}
