// Package routing holds the declarative tables that decide where control goes:
// to which agent when the active one is done, to which agent when it requests
// a switch, and to which procedure when it requests a macro-action.
package routing

import (
	"github.com/globalapptesting/hrl-go/domain/action"
	"github.com/globalapptesting/hrl-go/domain/agent"
	"github.com/globalapptesting/hrl-go/domain/procedure"
)

// End marks an orchestrator-terminal agent in an OnDone table.
const End agent.Name = ""

// Finished names the control state entered after the episode ends. No agent
// may use it.
const Finished agent.Name = "__end__"

// Trigger is a predicate over the active agent name and the decoded action.
type Trigger func(name agent.Name, a action.Action) bool

// Rule maps a trigger to a target. Rules are evaluated in declaration order.
type Rule[T ~string] struct {
	Trigger Trigger
	Target  T
}

// AgentRule routes a switch request to the next agent.
type AgentRule = Rule[agent.Name]

// ProcedureRule routes a procedure request to a procedure.
type ProcedureRule = Rule[procedure.Name]

// Resolve returns the target of the first rule whose trigger matches.
func Resolve[T ~string](rules []Rule[T], name agent.Name, a action.Action) (T, bool) {
	for _, rule := range rules {
		if rule.Trigger(name, a) {
			return rule.Target, true
		}
	}
	var zero T
	return zero, false
}

// Tables groups the switching and termination tables of one orchestrator.
// They are fixed after construction.
type Tables struct {
	// Initial is the agent activated on reset.
	Initial agent.Name

	// OnDone maps an agent that reported done to its successor, or to End.
	OnDone map[agent.Name]agent.Name

	// OnAction routes switch requests.
	OnAction []AgentRule

	// Procedures routes procedure requests.
	Procedures []ProcedureRule
}

// NextOnDone returns the successor of name. The second result is false when
// name is terminal.
func (t Tables) NextOnDone(name agent.Name) (agent.Name, bool) {
	next, ok := t.OnDone[name]
	if !ok || next == End {
		return End, false
	}
	return next, true
}

// SwitchTargets returns the distinct OnAction targets in declaration order.
func (t Tables) SwitchTargets() []agent.Name {
	seen := make(map[agent.Name]bool, len(t.OnAction))
	targets := make([]agent.Name, 0, len(t.OnAction))
	for _, rule := range t.OnAction {
		if seen[rule.Target] {
			continue
		}
		seen[rule.Target] = true
		targets = append(targets, rule.Target)
	}
	return targets
}
