package application

import (
	"github.com/felixgeelhaar/bolt/v3"
	"go.opentelemetry.io/otel/trace"

	"github.com/globalapptesting/hrl-go/domain/agent"
	"github.com/globalapptesting/hrl-go/domain/event"
	"github.com/globalapptesting/hrl-go/domain/procedure"
	"github.com/globalapptesting/hrl-go/domain/routing"
	"github.com/globalapptesting/hrl-go/infrastructure/telemetry"
)

// Option configures an orchestrator.
type Option func(*settings)

// settings collects options before New checks them against the state type.
type settings struct {
	agents     []any
	procedures []any
	tables     routing.Tables
	onDoneSet  bool
	recorder   event.Store
	metrics    *telemetry.Metrics
	tracer     trace.Tracer
	logger     *bolt.Logger
	maxCascade int
}

// WithAgents registers the agents. Names must be unique.
func WithAgents[S any](agents ...agent.Controller[S]) Option {
	return func(s *settings) {
		for _, a := range agents {
			s.agents = append(s.agents, a)
		}
	}
}

// WithInitialAgent sets the agent that takes control on reset.
func WithInitialAgent(name agent.Name) Option {
	return func(s *settings) {
		s.tables.Initial = name
	}
}

// WithProcedures registers the procedures.
func WithProcedures[S any](procedures ...procedure.Runner[S]) Option {
	return func(s *settings) {
		for _, p := range procedures {
			s.procedures = append(s.procedures, p)
		}
	}
}

// WithTransitionsOnDone sets where control goes when an agent reports done.
// routing.End marks an agent whose completion ends the episode. Without this
// option the initial agent ends the episode.
func WithTransitionsOnDone(onDone map[agent.Name]agent.Name) Option {
	return func(s *settings) {
		s.tables.OnDone = onDone
		s.onDoneSet = true
	}
}

// WithTransitionsOnAction sets the ordered switch rules. The first matching
// rule wins.
func WithTransitionsOnAction(rules ...routing.AgentRule) Option {
	return func(s *settings) {
		s.tables.OnAction = append(s.tables.OnAction, rules...)
	}
}

// WithProceduresOnAction sets the ordered procedure rules. The first matching
// rule wins.
func WithProceduresOnAction(rules ...routing.ProcedureRule) Option {
	return func(s *settings) {
		s.tables.Procedures = append(s.tables.Procedures, rules...)
	}
}

// WithRecorder appends episode events to store.
func WithRecorder(store event.Store) Option {
	return func(s *settings) {
		s.recorder = store
	}
}

// WithMetrics records orchestrator metrics.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(s *settings) {
		s.metrics = m
	}
}

// WithTracer overrides the global tracer.
func WithTracer(t trace.Tracer) Option {
	return func(s *settings) {
		s.tracer = t
	}
}

// WithLogger overrides the default logger.
func WithLogger(l *bolt.Logger) Option {
	return func(s *settings) {
		s.logger = l
	}
}

// DefaultMaxCascade bounds the done hand-offs resolved within one step when
// WithMaxCascade is not given. It only stops cascades that never settle.
const DefaultMaxCascade = 1024

// WithMaxCascade bounds the done hand-offs resolved within one step. Values
// below one select DefaultMaxCascade.
func WithMaxCascade(n int) Option {
	return func(s *settings) {
		s.maxCascade = n
	}
}
