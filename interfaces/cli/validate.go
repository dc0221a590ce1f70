package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/globalapptesting/hrl-go/domain/config"
	infraconfig "github.com/globalapptesting/hrl-go/infrastructure/config"
)

type validateOptions struct {
	configPath  string
	envFiles    []string
	strict      bool
	printConfig bool
	watch       bool
}

func (a *App) newValidateCmd() *cobra.Command {
	opts := &validateOptions{}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a configuration file",
		Long: `Validate a run configuration for correctness.

This command checks:
  - File format (YAML or JSON) and unknown fields
  - Variant, policy and storage driver names
  - The maze map (rectangular, one start, one goal)
  - Agent step limits
  - The routing tables of the selected variant
  - Environment variable references (in strict mode)

Examples:
  # Validate a configuration file
  hrl validate -c maze.yaml

  # Strict validation (fail on missing env vars)
  hrl validate -c maze.yaml --strict

  # Print the configuration with defaults applied
  hrl validate -c maze.yaml --print

  # Revalidate on every save until interrupted
  hrl validate -c maze.yaml --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.watch {
				return a.watchConfig(cmd.Context(), opts)
			}
			return a.validateConfig(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Enable strict validation (fail on missing env vars)")
	cmd.Flags().StringSliceVar(&opts.envFiles, "env-file", nil, "Env files used to expand the configuration")
	cmd.Flags().BoolVar(&opts.printConfig, "print", false, "Print the configuration with defaults applied")
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "Revalidate whenever the file changes")

	return cmd
}

func (a *App) validateConfig(opts *validateOptions) error {
	if opts.configPath == "" {
		return fmt.Errorf("configuration file path is required (-c flag)")
	}

	cfg, err := loadConfig(opts.configPath, opts.strict, opts.envFiles...)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	o, err := newOrchestrator(cfg)
	if err != nil {
		return fmt.Errorf("environment build failed: %w", err)
	}

	fmt.Fprintf(a.stdout, "✓ Configuration is valid\n")
	fmt.Fprintf(a.stdout, "  Name: %s\n", cfg.Name)
	fmt.Fprintf(a.stdout, "  Version: %s\n", cfg.Version)

	fmt.Fprintf(a.stdout, "\nConfiguration summary:\n")
	fmt.Fprintf(a.stdout, "  Variant: %s\n", cfg.Variant)
	fmt.Fprintf(a.stdout, "  Agents: %v\n", o.Agents())
	fmt.Fprintf(a.stdout, "  Episodes: %d (max %d steps)\n", cfg.Episodes, cfg.MaxSteps)
	fmt.Fprintf(a.stdout, "  Policy: %s\n", cfg.Policy)
	fmt.Fprintf(a.stdout, "  Strategy: max %d steps, goal reward %g\n",
		cfg.Agents.Strategy.MaxSteps, cfg.Agents.Strategy.GoalReward)
	if cfg.Variant != config.VariantProcedural {
		fmt.Fprintf(a.stdout, "  Motion: max %d steps, rewards %g/%g\n",
			cfg.Agents.Motion.MaxSteps, cfg.Agents.Motion.ForwardReward, cfg.Agents.Motion.BackwardReward)
	}
	fmt.Fprintf(a.stdout, "  Storage: %s\n", cfg.Storage.Driver)

	if opts.printConfig {
		format, err := infraconfig.FormatFromPath(opts.configPath)
		if err != nil {
			return err
		}
		data, err := infraconfig.Marshal(cfg, format)
		if err != nil {
			return fmt.Errorf("failed to render configuration: %w", err)
		}
		fmt.Fprintf(a.stdout, "\n%s\n", data)
	}

	return nil
}

// watchConfig validates once, then again on every change until ctx is done.
// Validation failures are reported and do not stop the watch.
func (a *App) watchConfig(ctx context.Context, opts *validateOptions) error {
	if opts.configPath == "" {
		return fmt.Errorf("configuration file path is required (-c flag)")
	}

	check := func() {
		if err := a.validateConfig(opts); err != nil {
			fmt.Fprintf(a.stdout, "✗ %v\n", err)
		}
		fmt.Fprintf(a.stdout, "\nWatching %s for changes...\n", opts.configPath)
	}
	check()
	return infraconfig.Watch(ctx, opts.configPath, check)
}
