package application

import (
	"errors"

	"github.com/globalapptesting/hrl-go/domain/agent"
	"github.com/globalapptesting/hrl-go/domain/routing"
)

// Step errors. Nothing is retried: the caller decides whether to reset.
var (
	// ErrContractViolation indicates the caller broke the reset/step
	// protocol: stepping before reset or after the episode ended, or passing
	// anything but exactly one action keyed by the active identity.
	ErrContractViolation = errors.New("orchestrator contract violation")

	// ErrCascadeLimit indicates done hand-offs within one step exceeded the
	// configured bound.
	ErrCascadeLimit = errors.New("done cascade limit exceeded")
)

// Re-exported domain sentinels, so callers can match every failure class of
// the orchestrator through this package.
var (
	ErrInvalidConfiguration = routing.ErrInvalidConfiguration
	ErrMissingNextAgent     = routing.ErrMissingNextAgent
	ErrMissingProcedure     = routing.ErrMissingProcedure
	ErrInvalidAction        = agent.ErrInvalidAction
	ErrUnknownAgentAction   = agent.ErrUnknownAgentAction
)

// errorClass names the failure class of err for metrics.
func errorClass(err error) string {
	switch {
	case errors.Is(err, ErrContractViolation):
		return "contract"
	case errors.Is(err, ErrInvalidAction):
		return "decode"
	case errors.Is(err, ErrMissingNextAgent), errors.Is(err, ErrMissingProcedure):
		return "routing"
	case errors.Is(err, ErrCascadeLimit):
		return "cascade"
	default:
		return "domain"
	}
}
