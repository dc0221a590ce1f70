package agent

import (
	"errors"
	"fmt"
)

// Domain errors for agent decoding.
var (
	// ErrUnknownAgentAction indicates a raw action has no mapping for the agent.
	ErrUnknownAgentAction = errors.New("unknown agent action")

	// ErrInvalidAction is matched by every decode failure, whatever the
	// underlying domain reason.
	ErrInvalidAction = errors.New("invalid agent action")
)

// DecodeError reports a raw action that could not be decoded in the current
// state. It is a per-step failure surfaced to the caller; nothing retries it.
type DecodeError struct {
	Agent Name
	Raw   any
	Err   error
}

// NewDecodeError wraps err for the given agent and raw action.
func NewDecodeError(agent Name, raw any, err error) *DecodeError {
	return &DecodeError{Agent: agent, Raw: raw, Err: err}
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("agent %s: cannot decode action %v: %v", e.Agent, e.Raw, e.Err)
}

// Unwrap exposes both the domain cause and ErrInvalidAction.
func (e *DecodeError) Unwrap() []error {
	return []error{ErrInvalidAction, e.Err}
}

// UnknownAction returns the decode error for a raw action outside the
// agent's action space.
func UnknownAction(agent Name, raw any) *DecodeError {
	return NewDecodeError(agent, raw, ErrUnknownAgentAction)
}
