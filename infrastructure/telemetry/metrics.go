// Package telemetry provides OpenTelemetry metrics and tracing for the
// orchestrator.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the orchestrator's metric instruments.
type Metrics struct {
	meter metric.Meter
	attrs []attribute.KeyValue

	// Counters
	episodes    metric.Int64Counter
	steps       metric.Int64Counter
	activations metric.Int64Counter
	handoffs    metric.Int64Counter
	procedures  metric.Int64Counter
	errors      metric.Int64Counter

	// Histograms
	stepDuration   metric.Float64Histogram
	episodeReward  metric.Float64Histogram
	cascadeLengths metric.Int64Histogram

	// Gauges
	activeEpisodes metric.Int64UpDownCounter

	initErr error
}

// MetricsConfig configures the metric instruments.
type MetricsConfig struct {
	// MeterName is the instrumentation scope (default: "github.com/globalapptesting/hrl-go").
	MeterName string
	// MeterVersion is the instrumentation version.
	MeterVersion string
	// Provider overrides the global meter provider.
	Provider metric.MeterProvider
	// Attributes are attached to every measurement.
	Attributes []attribute.KeyValue
}

// DefaultMetricsConfig returns a default metrics configuration.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		MeterName:    "github.com/globalapptesting/hrl-go",
		MeterVersion: "1.0.0",
	}
}

// NewMetrics creates the metric instruments. Instrument creation errors are
// kept and reported by Error; recording on a failed instrument is a no-op.
func NewMetrics(config MetricsConfig) *Metrics {
	if config.MeterName == "" {
		config.MeterName = DefaultMetricsConfig().MeterName
	}
	provider := config.Provider
	if provider == nil {
		provider = otel.GetMeterProvider()
	}

	m := &Metrics{
		meter: provider.Meter(config.MeterName, metric.WithInstrumentationVersion(config.MeterVersion)),
		attrs: config.Attributes,
	}
	m.initErr = m.initInstruments()
	return m
}

func (m *Metrics) initInstruments() error {
	var err error

	m.episodes, err = m.meter.Int64Counter(
		"hrl.episodes",
		metric.WithDescription("Number of episodes started"),
		metric.WithUnit("{episode}"),
	)
	if err != nil {
		return err
	}

	m.steps, err = m.meter.Int64Counter(
		"hrl.steps",
		metric.WithDescription("Number of completed orchestrator steps"),
		metric.WithUnit("{step}"),
	)
	if err != nil {
		return err
	}

	m.activations, err = m.meter.Int64Counter(
		"hrl.agent.activations",
		metric.WithDescription("Number of times an agent took control"),
		metric.WithUnit("{activation}"),
	)
	if err != nil {
		return err
	}

	m.handoffs, err = m.meter.Int64Counter(
		"hrl.handoffs",
		metric.WithDescription("Number of control hand-offs between agents"),
		metric.WithUnit("{handoff}"),
	)
	if err != nil {
		return err
	}

	m.procedures, err = m.meter.Int64Counter(
		"hrl.procedures",
		metric.WithDescription("Number of procedure executions"),
		metric.WithUnit("{execution}"),
	)
	if err != nil {
		return err
	}

	m.errors, err = m.meter.Int64Counter(
		"hrl.errors",
		metric.WithDescription("Number of failed steps"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return err
	}

	m.stepDuration, err = m.meter.Float64Histogram(
		"hrl.step.duration",
		metric.WithDescription("Duration of orchestrator steps"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	m.episodeReward, err = m.meter.Float64Histogram(
		"hrl.episode.reward",
		metric.WithDescription("Total reward collected per agent identity"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return err
	}

	m.cascadeLengths, err = m.meter.Int64Histogram(
		"hrl.cascade.length",
		metric.WithDescription("Number of done hand-offs resolved within one step"),
		metric.WithUnit("{handoff}"),
	)
	if err != nil {
		return err
	}

	m.activeEpisodes, err = m.meter.Int64UpDownCounter(
		"hrl.episodes.active",
		metric.WithDescription("Number of episodes in progress"),
		metric.WithUnit("{episode}"),
	)
	return err
}

// Error returns the instrument initialization error, if any.
func (m *Metrics) Error() error {
	return m.initErr
}

func (m *Metrics) with(attrs ...attribute.KeyValue) metric.MeasurementOption {
	if len(m.attrs) == 0 {
		return metric.WithAttributes(attrs...)
	}
	all := make([]attribute.KeyValue, 0, len(m.attrs)+len(attrs))
	all = append(all, m.attrs...)
	all = append(all, attrs...)
	return metric.WithAttributes(all...)
}

// RecordEpisodeStarted counts a reset.
func (m *Metrics) RecordEpisodeStarted(ctx context.Context, initial string) {
	if m == nil || m.initErr != nil {
		return
	}
	m.episodes.Add(ctx, 1, m.with(attribute.String("agent", initial)))
	m.activeEpisodes.Add(ctx, 1, m.with(attribute.String("agent", initial)))
}

// RecordEpisodeEnded closes an episode.
func (m *Metrics) RecordEpisodeEnded(ctx context.Context, initial string) {
	if m == nil || m.initErr != nil {
		return
	}
	m.activeEpisodes.Add(ctx, -1, m.with(attribute.String("agent", initial)))
}

// RecordStep records a completed step of the given action kind.
func (m *Metrics) RecordStep(ctx context.Context, agent, kind string, duration time.Duration) {
	if m == nil || m.initErr != nil {
		return
	}
	attrs := m.with(
		attribute.String("agent", agent),
		attribute.String("action_kind", kind),
	)
	m.steps.Add(ctx, 1, attrs)
	m.stepDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
}

// RecordActivation counts an agent taking control.
func (m *Metrics) RecordActivation(ctx context.Context, agent string) {
	if m == nil || m.initErr != nil {
		return
	}
	m.activations.Add(ctx, 1, m.with(attribute.String("agent", agent)))
}

// RecordHandoff counts a transfer of control. reason is "switch" or "done".
func (m *Metrics) RecordHandoff(ctx context.Context, from, to, reason string) {
	if m == nil || m.initErr != nil {
		return
	}
	m.handoffs.Add(ctx, 1, m.with(
		attribute.String("from_agent", from),
		attribute.String("to_agent", to),
		attribute.String("reason", reason),
	))
}

// RecordCascade records how many done hand-offs one step resolved.
func (m *Metrics) RecordCascade(ctx context.Context, length int) {
	if m == nil || m.initErr != nil {
		return
	}
	m.cascadeLengths.Record(ctx, int64(length), m.with())
}

// RecordProcedure counts a procedure execution.
func (m *Metrics) RecordProcedure(ctx context.Context, name string, success bool) {
	if m == nil || m.initErr != nil {
		return
	}
	m.procedures.Add(ctx, 1, m.with(
		attribute.String("procedure", name),
		attribute.Bool("success", success),
	))
}

// RecordError counts a failed step by error class.
func (m *Metrics) RecordError(ctx context.Context, agent, class string) {
	if m == nil || m.initErr != nil {
		return
	}
	m.errors.Add(ctx, 1, m.with(
		attribute.String("agent", agent),
		attribute.String("error_class", class),
	))
}

// RecordReward records the total reward an agent identity collected.
func (m *Metrics) RecordReward(ctx context.Context, agent string, reward float64) {
	if m == nil || m.initErr != nil {
		return
	}
	m.episodeReward.Record(ctx, reward, m.with(attribute.String("agent", agent)))
}
