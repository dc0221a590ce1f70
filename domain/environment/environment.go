// Package environment defines the extension point a concrete domain supplies
// to the orchestrator.
package environment

import (
	"errors"
	"fmt"

	"github.com/globalapptesting/hrl-go/domain/action"
)

// ErrUnknownAction indicates the domain cannot apply the given action.
var ErrUnknownAction = errors.New("unknown action")

// Domain is implemented by every concrete environment. Both methods must be
// deterministic: the orchestrator retains states and replays them.
type Domain[S any] interface {
	InitialState() S

	// Step applies a plain action. The orchestrator never passes switch or
	// procedure requests here.
	Step(state S, a action.Action) (S, error)
}

// CommonInfoProvider is implemented by domains that publish diagnostics
// shared by every agent. The mapping is stored under the "__common__" key of
// each step's info.
type CommonInfoProvider[S any] interface {
	CommonInfo(state S) map[string]any
}

// UnknownAction returns an error wrapping ErrUnknownAction for a.
func UnknownAction(a action.Action) error {
	return fmt.Errorf("%w: %T (%s)", ErrUnknownAction, a, action.KindOf(a))
}
