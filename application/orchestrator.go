// Package application drives the hierarchical control loop: it hands control
// between agents, runs procedures and aggregates per-agent step results.
package application

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/bolt/v3"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/globalapptesting/hrl-go/domain/action"
	"github.com/globalapptesting/hrl-go/domain/agent"
	"github.com/globalapptesting/hrl-go/domain/environment"
	"github.com/globalapptesting/hrl-go/domain/episode"
	"github.com/globalapptesting/hrl-go/domain/event"
	"github.com/globalapptesting/hrl-go/domain/procedure"
	"github.com/globalapptesting/hrl-go/domain/routing"
	"github.com/globalapptesting/hrl-go/domain/space"
	"github.com/globalapptesting/hrl-go/infrastructure/logging"
	"github.com/globalapptesting/hrl-go/infrastructure/statemachine"
	"github.com/globalapptesting/hrl-go/infrastructure/telemetry"
)

// Orchestrator owns a set of agents and procedures and keeps exactly one
// agent in control. It is not safe for concurrent use.
type Orchestrator[S any] struct {
	domain     environment.Domain[S]
	common     environment.CommonInfoProvider[S]
	agents     map[agent.Name]agent.Controller[S]
	order      []agent.Name
	procedures map[procedure.Name]procedure.Runner[S]
	tables     routing.Tables
	control    *statemachine.Interpreter
	session    *episode.Session[S]
	maxCascade int

	recorder event.Store
	pending  []event.Event
	metrics  *telemetry.Metrics
	tracer   trace.Tracer
	logger   *bolt.Logger
}

// New builds an orchestrator over domain. Every configuration problem is
// reported here, wrapped in ErrInvalidConfiguration.
func New[S any](domain environment.Domain[S], opts ...Option) (*Orchestrator[S], error) {
	if domain == nil {
		return nil, fmt.Errorf("%w: domain is required", ErrInvalidConfiguration)
	}

	var cfg settings
	for _, opt := range opts {
		opt(&cfg)
	}

	o := &Orchestrator[S]{
		domain:     domain,
		agents:     make(map[agent.Name]agent.Controller[S], len(cfg.agents)),
		procedures: make(map[procedure.Name]procedure.Runner[S], len(cfg.procedures)),
		tables:     cfg.tables,
		session:    episode.NewSession[S](),
		recorder:   cfg.recorder,
		metrics:    cfg.metrics,
		tracer:     cfg.tracer,
		logger:     cfg.logger,
	}
	if provider, ok := domain.(environment.CommonInfoProvider[S]); ok {
		o.common = provider
	}
	if o.tracer == nil {
		o.tracer = telemetry.Tracer()
	}

	for i, a := range cfg.agents {
		c, ok := a.(agent.Controller[S])
		if !ok {
			return nil, fmt.Errorf("%w: agents[%d] has state type %T", ErrInvalidConfiguration, i, a)
		}
		o.order = append(o.order, c.Name())
		o.agents[c.Name()] = c
	}

	procNames := make([]procedure.Name, 0, len(cfg.procedures))
	for i, p := range cfg.procedures {
		r, ok := p.(procedure.Runner[S])
		if !ok {
			return nil, fmt.Errorf("%w: procedures[%d] has state type %T", ErrInvalidConfiguration, i, p)
		}
		procNames = append(procNames, r.Name())
		o.procedures[r.Name()] = r
	}

	if !cfg.onDoneSet && o.tables.Initial != routing.End {
		o.tables.OnDone = map[agent.Name]agent.Name{o.tables.Initial: routing.End}
	}
	if err := o.tables.Validate(o.order, procNames); err != nil {
		return nil, err
	}

	o.maxCascade = cfg.maxCascade
	if o.maxCascade <= 0 {
		o.maxCascade = DefaultMaxCascade
	}

	control, err := statemachine.NewInterpreter(statemachine.NewGraph(o.order, o.tables))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	o.control = control

	return o, nil
}

// Reset starts a new episode and returns the observation of the initial
// agent, keyed by its first identity.
func (o *Orchestrator[S]) Reset(ctx context.Context) (episode.Observations, error) {
	ctx, span := telemetry.StartSpan(ctx, o.tracer, "hrl.reset")
	defer span.End()

	if o.session.Started() && !o.control.Terminal() {
		o.metrics.RecordEpisodeEnded(ctx, string(o.tables.Initial))
	}

	for _, name := range o.order {
		o.agents[name].OnReset()
	}

	initial := o.agents[o.tables.Initial]
	state := initial.OnTakesControl(o.domain.InitialState(), nil)

	o.session.Reset(uuid.NewString(), state)
	o.control.Start()
	id := o.session.Activate(o.control.Current())
	span.SetAttributes(attribute.String("episode_id", o.session.ID()), attribute.String("agent_id", string(id)))

	o.pending = o.pending[:0]
	o.emit(event.TypeEpisodeStarted, event.EpisodeStartedPayload{
		InitialAgent: string(o.tables.Initial),
		Agents:       o.agentNames(),
	})
	o.emit(event.TypeAgentActivated, event.AgentActivatedPayload{
		Agent:   string(o.tables.Initial),
		AgentID: string(id),
	})
	o.flush(ctx)

	o.metrics.RecordEpisodeStarted(ctx, string(o.tables.Initial))
	o.metrics.RecordActivation(ctx, string(o.tables.Initial))
	logging.NewEvent(o.log().Info()).
		Add(logging.EpisodeID(o.session.ID()), logging.Agent(o.tables.Initial, id)).
		Msg("episode reset")

	return episode.Observations{id: initial.Observe(state)}, nil
}

// Step applies one raw action of the active agent and returns the outputs of
// every agent that held control during the step.
func (o *Orchestrator[S]) Step(ctx context.Context, actions map[agent.ID]any) (episode.Result, error) {
	start := time.Now()
	name, id := o.session.Active()

	ctx, span := telemetry.StartSpan(ctx, o.tracer, "hrl.step",
		attribute.String("episode_id", o.session.ID()),
		attribute.String("agent_id", string(id)),
	)

	result, kind, err := o.step(ctx, actions)
	telemetry.EndSpan(span, err)
	if err != nil {
		o.metrics.RecordError(ctx, string(name), errorClass(err))
		return episode.Result{}, err
	}

	o.metrics.RecordStep(ctx, string(name), kind.String(), time.Since(start))
	return result, nil
}

func (o *Orchestrator[S]) step(ctx context.Context, actions map[agent.ID]any) (episode.Result, action.Kind, error) {
	if err := o.checkContract(actions); err != nil {
		return episode.Result{}, 0, err
	}

	name, id := o.session.Active()
	current := o.agents[name]
	prev := o.session.Previous()
	o.pending = o.pending[:0]

	a, err := current.Decode(prev, actions[id])
	if err != nil {
		logging.NewEvent(o.log().Warn()).
			Add(logging.EpisodeID(o.session.ID()), logging.Agent(name, id), logging.ErrorField(err)).
			Msg("action decode failed")
		return episode.Result{}, 0, err
	}
	current.OnStep(a)
	o.emit(event.TypeActionDecoded, event.ActionDecodedPayload{
		AgentID: string(id),
		Kind:    a.Kind().String(),
		Action:  fmt.Sprintf("%T", a),
	})

	state, err := o.dispatch(ctx, name, a, prev)
	if err != nil {
		return episode.Result{}, 0, err
	}

	result := episode.NewResult()
	o.populate(result, prev, a, state)

	if state, err = o.cascade(ctx, result, prev, a, state); err != nil {
		return episode.Result{}, 0, err
	}

	result.Seal()
	if o.common != nil {
		result.SetCommon(o.common.CommonInfo(state))
	}
	o.session.Advance(state)

	o.emit(event.TypeStepCompleted, stepPayload(o.session.Steps(), result))
	if o.control.Terminal() {
		o.endEpisode(ctx, false)
	}
	o.flush(ctx)

	return result, a.Kind(), nil
}

func (o *Orchestrator[S]) checkContract(actions map[agent.ID]any) error {
	switch {
	case !o.session.Started():
		return fmt.Errorf("%w: step called before reset", ErrContractViolation)
	case o.control.Terminal():
		return fmt.Errorf("%w: episode %s is over", ErrContractViolation, o.session.ID())
	case len(actions) != 1:
		return fmt.Errorf("%w: expected exactly one action, got %d", ErrContractViolation, len(actions))
	}
	_, id := o.session.Active()
	if _, ok := actions[id]; !ok {
		return fmt.Errorf("%w: expected an action for %s", ErrContractViolation, id)
	}
	return nil
}

// dispatch applies a to prev according to its kind.
func (o *Orchestrator[S]) dispatch(ctx context.Context, name agent.Name, a action.Action, prev S) (S, error) {
	switch {
	case action.IsSwitch(a):
		target, ok := routing.Resolve(o.tables.OnAction, name, a)
		if !ok {
			err := fmt.Errorf("%w: agent %s, action %T", ErrMissingNextAgent, name, a)
			logging.NewEvent(o.log().Error()).Add(logging.EpisodeID(o.session.ID()), logging.ErrorField(err)).Msg("no agent to switch to")
			return prev, err
		}
		if err := o.control.Switch(target); err != nil {
			return prev, fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
		}
		return o.handoff(ctx, prev, a), nil

	case a.Kind() == action.KindProcedure:
		pname, ok := routing.Resolve(o.tables.Procedures, name, a)
		if !ok {
			err := fmt.Errorf("%w: agent %s, action %T", ErrMissingProcedure, name, a)
			logging.NewEvent(o.log().Error()).Add(logging.EpisodeID(o.session.ID()), logging.ErrorField(err)).Msg("no procedure for action")
			return prev, err
		}
		state, err := o.procedures[pname].Execute(prev, a)
		o.metrics.RecordProcedure(ctx, string(pname), err == nil)
		if err != nil {
			return prev, fmt.Errorf("procedure %s: %w", pname, err)
		}
		_, id := o.session.Active()
		o.emit(event.TypeProcedureExecuted, event.ProcedureExecutedPayload{
			AgentID:   string(id),
			Procedure: string(pname),
		})
		logging.NewEvent(o.log().Debug()).Add(logging.EpisodeID(o.session.ID()), logging.Procedure(pname)).Msg("procedure executed")
		return state, nil

	default:
		return o.domain.Step(prev, a)
	}
}

// handoff moves the session to the agent the control machine has just
// entered. switchAction is nil for done transitions.
func (o *Orchestrator[S]) handoff(ctx context.Context, state S, switchAction action.Action) S {
	from, fromID := o.session.Active()
	target := o.control.Current()

	o.agents[from].OnGivesControl(switchAction)
	toID := o.session.Activate(target)
	state = o.agents[target].OnTakesControl(state, switchAction)

	reason := "done"
	if switchAction != nil {
		reason = "switch"
	}
	o.emit(event.TypeAgentReleased, event.AgentReleasedPayload{
		Agent:   string(from),
		AgentID: string(fromID),
		To:      string(toID),
	})
	o.emit(event.TypeAgentActivated, event.AgentActivatedPayload{
		Agent:   string(target),
		AgentID: string(toID),
		Trigger: reason,
	})
	o.metrics.RecordHandoff(ctx, string(from), string(target), reason)
	o.metrics.RecordActivation(ctx, string(target))
	logging.NewEvent(o.log().Debug()).
		Add(logging.EpisodeID(o.session.ID()), logging.Handoff(fromID, toID)).
		Msg("agent switched")

	return state
}

// cascade sends done to the control machine while the active agent reports
// done, handing control to the state it enters. The episode ends when the
// machine reaches its final state.
func (o *Orchestrator[S]) cascade(ctx context.Context, result episode.Result, prev S, a action.Action, state S) (S, error) {
	hops := 0
	defer func() { o.metrics.RecordCascade(ctx, hops) }()

	for {
		name, id := o.session.Active()
		if !result.Dones[id] {
			return state, nil
		}

		o.session.Retire(name)
		next, ok, err := o.control.Done()
		if err != nil {
			return state, fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
		}
		o.emit(event.TypeAgentDone, event.AgentDonePayload{
			Agent:   string(name),
			AgentID: string(id),
			Next:    string(next),
		})
		logging.NewEvent(o.log().Debug()).
			Add(logging.EpisodeID(o.session.ID()), logging.Agent(name, id), logging.Reward(result.Rewards[id])).
			Msg("agent done")

		if !ok {
			return state, nil
		}

		hops++
		if hops > o.maxCascade {
			o.control.Abort()
			o.endEpisode(ctx, true)
			o.flush(ctx)
			return state, fmt.Errorf("%w: more than %d hand-offs after %s", ErrCascadeLimit, o.maxCascade, id)
		}

		state = o.handoff(ctx, state, nil)
		o.populate(result, prev, a, state)
	}
}

// populate stores the outputs of the active agent for the transition from
// prev to next.
func (o *Orchestrator[S]) populate(result episode.Result, prev S, a action.Action, next S) {
	name, id := o.session.Active()
	c := o.agents[name]
	result.Set(id, c.Observe(next), c.Reward(prev, a, next), c.Done(next), c.Info(prev, a, next))
}

// ObservationSpace returns the active agent's observation space, or the
// initial agent's before the first reset.
func (o *Orchestrator[S]) ObservationSpace() space.Space {
	return o.activeOrInitial().ObservationSpace()
}

// ActionSpace returns the active agent's action space, or the initial
// agent's before the first reset.
func (o *Orchestrator[S]) ActionSpace() space.Space {
	return o.activeOrInitial().ActionSpace()
}

func (o *Orchestrator[S]) activeOrInitial() agent.Controller[S] {
	if name, _ := o.session.Active(); name != "" {
		return o.agents[name]
	}
	return o.agents[o.tables.Initial]
}

// Active returns the name and identity of the agent in control.
func (o *Orchestrator[S]) Active() (agent.Name, agent.ID) {
	return o.session.Active()
}

// EpisodeID returns the identifier of the current episode.
func (o *Orchestrator[S]) EpisodeID() string {
	return o.session.ID()
}

// Terminal reports whether the current episode is over.
func (o *Orchestrator[S]) Terminal() bool {
	return o.control.Terminal()
}

// Handoffs returns the number of control transitions taken in the current
// episode, switches and done hand-offs alike.
func (o *Orchestrator[S]) Handoffs() int {
	if ctx := o.control.Context(); ctx != nil {
		return ctx.Handoffs
	}
	return 0
}

// endEpisode records the end of the episode. aborted is true when the
// cascade limit stopped it.
func (o *Orchestrator[S]) endEpisode(ctx context.Context, aborted bool) {
	_, last := o.session.Active()
	o.emit(event.TypeEpisodeEnded, event.EpisodeEndedPayload{
		Steps:     o.session.Steps(),
		LastAgent: string(last),
		Handoffs:  o.Handoffs(),
		Aborted:   aborted,
	})
	o.metrics.RecordEpisodeEnded(ctx, string(o.tables.Initial))
	logging.NewEvent(o.log().Info()).
		Add(logging.EpisodeID(o.session.ID()), logging.Step(o.session.Steps())).
		Msg("episode ended")
}

// Steps returns the number of completed steps of the current episode.
func (o *Orchestrator[S]) Steps() int {
	return o.session.Steps()
}

// History returns the identities that held control in the current episode,
// in order of first activation.
func (o *Orchestrator[S]) History() []agent.ID {
	return o.session.History()
}

// State returns the environment state retained from the last reset or step.
func (o *Orchestrator[S]) State() S {
	return o.session.Previous()
}

// Agents returns the registered agent names in registration order.
func (o *Orchestrator[S]) Agents() []agent.Name {
	return append([]agent.Name(nil), o.order...)
}

// Graph returns the compiled control graph.
func (o *Orchestrator[S]) Graph() statemachine.Graph {
	return o.control.Graph()
}

// Metrics returns the configured metrics, or nil.
func (o *Orchestrator[S]) Metrics() *telemetry.Metrics {
	return o.metrics
}

func (o *Orchestrator[S]) agentNames() []string {
	names := make([]string, len(o.order))
	for i, n := range o.order {
		names[i] = string(n)
	}
	return names
}

func (o *Orchestrator[S]) emit(t event.Type, payload any) {
	if o.recorder == nil {
		return
	}
	e, err := event.NewEvent(o.session.ID(), t, payload)
	if err != nil {
		logging.NewEvent(o.log().Error()).Add(logging.EpisodeID(o.session.ID()), logging.ErrorField(err)).Msg("event encoding failed")
		return
	}
	o.pending = append(o.pending, e)
}

// flush appends the events of the current call. A recorder failure is logged
// and counted but never fails the step: the core does not read events back.
func (o *Orchestrator[S]) flush(ctx context.Context) {
	if o.recorder == nil || len(o.pending) == 0 {
		return
	}
	if err := o.recorder.Append(ctx, o.pending...); err != nil {
		name, _ := o.session.Active()
		o.metrics.RecordError(ctx, string(name), "recording")
		logging.NewEvent(o.log().Error()).Add(logging.EpisodeID(o.session.ID()), logging.ErrorField(err)).Msg("event recording failed")
	}
	o.pending = o.pending[:0]
}

func stepPayload(step int, r episode.Result) event.StepCompletedPayload {
	p := event.StepCompletedPayload{
		Step:    step,
		Rewards: make(map[string]float64, len(r.Rewards)),
		Dones:   make(map[string]bool, len(r.Dones)),
		AllDone: r.AllDone(),
	}
	for id, v := range r.Rewards {
		p.Rewards[string(id)] = v
	}
	for id, v := range r.Dones {
		if id != episode.AllKey {
			p.Dones[string(id)] = v
		}
	}
	return p
}

func (o *Orchestrator[S]) log() *bolt.Logger {
	if o.logger != nil {
		return o.logger
	}
	return logging.Get()
}
