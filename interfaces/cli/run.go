package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/spf13/cobra"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/globalapptesting/hrl-go/application"
	"github.com/globalapptesting/hrl-go/domain/config"
	"github.com/globalapptesting/hrl-go/infrastructure/resilience"
	"github.com/globalapptesting/hrl-go/infrastructure/telemetry"
)

type runOptions struct {
	configPath string
	envFiles   []string
	episodes   int
	maxSteps   int
	policy     string
	seed       int64
	variant    string
	storage    string
	timeout    time.Duration
	trace      bool
	metrics    bool
	verbose    bool
	jsonOutput bool
}

func (a *App) newRunCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Roll out episodes of the maze environment",
		Long: `Roll out episodes of the maze environment with a built-in policy.

Each episode resets the orchestrator and steps it with the policy until every
agent of a step is done or the step limit is reached. Events are recorded to
the configured storage driver.

Examples:
  # Run the built-in maze with the shortest path policy
  hrl run

  # Run ten random episodes from a config file
  hrl run -c maze.yaml --episodes 10 --policy random --seed 7

  # Run the procedural variant and record to sqlite
  hrl run --variant procedural --storage sqlite -c maze.yaml

  # Print spans and metrics
  hrl run --trace --metrics`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runEpisodes(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file (default: built-in maze)")
	cmd.Flags().StringSliceVar(&opts.envFiles, "env-file", nil, "Env files used to expand the configuration")
	cmd.Flags().IntVar(&opts.episodes, "episodes", 0, "Number of episodes (overrides config)")
	cmd.Flags().IntVar(&opts.maxSteps, "max-steps", 0, "Maximum steps per episode (overrides config)")
	cmd.Flags().StringVar(&opts.policy, "policy", "", "Policy: shortest_path or random (overrides config)")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "Seed of the random policy (overrides config)")
	cmd.Flags().StringVar(&opts.variant, "variant", "", "Variant: switching or procedural (overrides config)")
	cmd.Flags().StringVar(&opts.storage, "storage", "", "Storage driver (overrides config)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "Timeout of the whole run")
	cmd.Flags().BoolVar(&opts.trace, "trace", false, "Write spans to stderr")
	cmd.Flags().BoolVar(&opts.metrics, "metrics", false, "Print metrics after the run")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose output")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output results as JSON")

	return cmd
}

// applyOverrides copies set flags onto cfg and revalidates it.
func (o *runOptions) applyOverrides(cfg *config.Config) error {
	if o.episodes > 0 {
		cfg.Episodes = o.episodes
	}
	if o.maxSteps > 0 {
		cfg.MaxSteps = o.maxSteps
	}
	if o.policy != "" {
		cfg.Policy = o.policy
	}
	if o.seed != 0 {
		cfg.Seed = o.seed
	}
	if o.variant != "" {
		cfg.Variant = config.Variant(o.variant)
	}
	if o.storage != "" {
		cfg.Storage.Driver = o.storage
	}
	if o.trace {
		cfg.Telemetry.Tracing = true
	}
	if o.metrics {
		cfg.Telemetry.Metrics = true
	}

	if errs := cfg.Validate(); errs.HasErrors() {
		return fmt.Errorf("%w: %w", config.ErrValidationFailed, errs)
	}
	return nil
}

type runReport struct {
	Episodes []application.EpisodeSummary `json:"episodes"`
	Reached  int                          `json:"reached_goal"`
	Duration string                       `json:"duration"`
}

func (a *App) runEpisodes(ctx context.Context, opts *runOptions) error {
	cfg, err := loadConfig(opts.configPath, false, opts.envFiles...)
	if err != nil {
		return err
	}
	if err := opts.applyOverrides(cfg); err != nil {
		return err
	}

	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	logger := newLogger(cfg.Logging, a.stderr, opts.verbose)
	appOpts := []application.Option{application.WithLogger(logger)}

	if cfg.Telemetry.Tracing {
		shutdown, err := a.installTracing(ctx, cfg.Telemetry)
		if err != nil {
			return fmt.Errorf("failed to install tracing: %w", err)
		}
		defer func() { _ = shutdown(context.Background()) }()
		appOpts = append(appOpts, application.WithTracer(telemetry.Tracer()))
	}

	var reader *sdkmetric.ManualReader
	if cfg.Telemetry.Metrics {
		reader = sdkmetric.NewManualReader()
		mc := telemetry.DefaultMetricsConfig()
		mc.Provider = sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
		mc.MeterVersion = Version
		appOpts = append(appOpts, application.WithMetrics(telemetry.NewMetrics(mc)))
	}

	store, closeStore, err := openStore(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Driver, err)
	}
	defer func() { _ = closeStore() }()
	if store != nil {
		guarded := resilience.NewStoreWithOptions(store,
			resilience.WithRetry(cfg.Storage.Retries, 50*time.Millisecond),
			resilience.WithTimeout(cfg.Storage.Timeout.Duration()),
		)
		appOpts = append(appOpts, application.WithRecorder(guarded))
	}

	o, err := newOrchestrator(cfg, appOpts...)
	if err != nil {
		return fmt.Errorf("failed to build environment: %w", err)
	}
	policy, err := newPolicy(cfg)
	if err != nil {
		return fmt.Errorf("failed to build policy: %w", err)
	}

	logger.Info().
		Str("variant", string(cfg.Variant)).
		Str("policy", cfg.Policy).
		Int("episodes", cfg.Episodes).
		Msg("starting run")

	report := runReport{}
	start := time.Now()
	for i := 0; i < cfg.Episodes; i++ {
		summary, err := application.Rollout(ctx, o, policy, application.RolloutConfig{MaxSteps: cfg.MaxSteps})
		if err != nil {
			return fmt.Errorf("episode %d failed: %w", i+1, err)
		}
		if o.State().AtGoal() {
			report.Reached++
		}
		report.Episodes = append(report.Episodes, summary)
	}
	report.Duration = time.Since(start).String()

	if opts.jsonOutput {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		a.printReport(report, opts.verbose)
	}

	if reader != nil {
		return a.printMetrics(ctx, reader)
	}
	return nil
}

func (a *App) installTracing(ctx context.Context, cfg config.TelemetryConfig) (telemetry.Shutdown, error) {
	tc := telemetry.TraceConfig{
		ServiceName:    "hrl",
		ServiceVersion: Version,
		SampleRate:     cfg.SampleRate,
		Output:         a.stderr,
		PrettyPrint:    cfg.PrettyPrint,
		Endpoint:       cfg.Endpoint,
		Insecure:       cfg.Insecure,
	}
	if cfg.Exporter == config.ExporterOTLP {
		return telemetry.InstallOTLPTracing(ctx, tc)
	}
	return telemetry.InstallStdoutTracing(tc)
}

func (a *App) printReport(report runReport, verbose bool) {
	for i, s := range report.Episodes {
		status := "truncated"
		if s.Terminal {
			status = "terminal"
		}
		fmt.Fprintf(a.stdout, "Episode %d (%s): %d steps, %s, total reward %.2f\n",
			i+1, s.EpisodeID, s.Steps, status, s.TotalReward())
		if !verbose {
			continue
		}
		for _, id := range s.Identities {
			fmt.Fprintf(a.stdout, "  %-12s %.2f\n", id, s.Rewards[id])
		}
	}
	fmt.Fprintf(a.stdout, "\nReached goal: %d/%d\n", report.Reached, len(report.Episodes))
	fmt.Fprintf(a.stdout, "Duration: %s\n", report.Duration)
}

// printMetrics writes one line per counter and histogram.
func (a *App) printMetrics(ctx context.Context, reader *sdkmetric.ManualReader) error {
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		return fmt.Errorf("failed to collect metrics: %w", err)
	}

	lines := make(map[string]string)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				var total int64
				for _, dp := range data.DataPoints {
					total += dp.Value
				}
				lines[m.Name] = fmt.Sprintf("%d", total)
			case metricdata.Sum[float64]:
				var total float64
				for _, dp := range data.DataPoints {
					total += dp.Value
				}
				lines[m.Name] = fmt.Sprintf("%.2f", total)
			case metricdata.Histogram[float64]:
				var count uint64
				var sum float64
				for _, dp := range data.DataPoints {
					count += dp.Count
					sum += dp.Sum
				}
				lines[m.Name] = fmt.Sprintf("count=%d sum=%.2f", count, sum)
			case metricdata.Histogram[int64]:
				var count uint64
				var sum int64
				for _, dp := range data.DataPoints {
					count += dp.Count
					sum += dp.Sum
				}
				lines[m.Name] = fmt.Sprintf("count=%d sum=%d", count, sum)
			}
		}
	}

	fmt.Fprintf(a.stdout, "\nMetrics:\n")
	names := make([]string, 0, len(lines))
	for name := range lines {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		fmt.Fprintf(a.stdout, "  %-28s %s\n", name, lines[name])
	}
	return nil
}
