package routing

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/globalapptesting/hrl-go/domain/agent"
	"github.com/globalapptesting/hrl-go/domain/procedure"
)

// Domain errors for routing.
var (
	// ErrInvalidConfiguration indicates the tables reference unknown agents or
	// procedures, or are otherwise malformed.
	ErrInvalidConfiguration = errors.New("invalid orchestrator configuration")

	// ErrMissingNextAgent indicates a switch request matched no rule.
	ErrMissingNextAgent = errors.New("no next agent for switch request")

	// ErrMissingProcedure indicates a procedure request matched no rule.
	ErrMissingProcedure = errors.New("no procedure for request")
)

// ValidationError describes a single problem with the routing tables.
type ValidationError struct {
	// Path locates the offending entry, e.g. "on_action[2].target".
	Path string
	// Message describes the problem.
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("%d validation errors:\n  - %s", len(e), strings.Join(msgs, "\n  - "))
}

// Unwrap lets errors.Is match ErrInvalidConfiguration.
func (e ValidationErrors) Unwrap() error {
	return ErrInvalidConfiguration
}

// Validate checks that every name referenced by the tables is registered,
// that every agent has a done transition and that the episode can end.
// The result is nil or a ValidationErrors.
func (t Tables) Validate(agents []agent.Name, procedures []procedure.Name) error {
	var errs ValidationErrors
	add := func(path, format string, args ...any) {
		errs = append(errs, ValidationError{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	known := make(map[agent.Name]bool, len(agents))
	for i, name := range agents {
		if name == End {
			add(fmt.Sprintf("agents[%d]", i), "agent name must not be empty")
			continue
		}
		if name == Finished {
			add(fmt.Sprintf("agents[%d]", i), "agent name %q is reserved", name)
		}
		if known[name] {
			add(fmt.Sprintf("agents[%d]", i), "duplicate agent %q", name)
		}
		known[name] = true
	}

	knownProc := make(map[procedure.Name]bool, len(procedures))
	for i, name := range procedures {
		if name == "" {
			add(fmt.Sprintf("procedures[%d]", i), "procedure name must not be empty")
			continue
		}
		if knownProc[name] {
			add(fmt.Sprintf("procedures[%d]", i), "duplicate procedure %q", name)
		}
		knownProc[name] = true
	}

	if len(agents) == 0 {
		add("agents", "at least one agent is required")
	}
	if t.Initial == End {
		add("initial", "initial agent is required")
	} else if !known[t.Initial] {
		add("initial", "unknown agent %q", t.Initial)
	}

	for _, from := range slices.Sorted(maps.Keys(t.OnDone)) {
		to := t.OnDone[from]
		if !known[from] {
			add(fmt.Sprintf("on_done[%s]", from), "unknown agent %q", from)
		}
		if to != End && !known[to] {
			add(fmt.Sprintf("on_done[%s]", from), "unknown target agent %q", to)
		}
	}

	terminal := false
	for _, to := range t.OnDone {
		terminal = terminal || to == End
	}
	if len(agents) > 0 && !terminal {
		add("on_done", "at least one agent must end the episode")
	}
	for _, name := range agents {
		if _, ok := t.OnDone[name]; name != End && !ok {
			add("on_done", "missing entry for agent %q", name)
		}
	}

	for i, rule := range t.OnAction {
		if rule.Trigger == nil {
			add(fmt.Sprintf("on_action[%d].trigger", i), "trigger is required")
		}
		if !known[rule.Target] {
			add(fmt.Sprintf("on_action[%d].target", i), "unknown agent %q", rule.Target)
		}
	}

	for i, rule := range t.Procedures {
		if rule.Trigger == nil {
			add(fmt.Sprintf("procedures_on_action[%d].trigger", i), "trigger is required")
		}
		if !knownProc[rule.Target] {
			add(fmt.Sprintf("procedures_on_action[%d].target", i), "unknown procedure %q", rule.Target)
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}
