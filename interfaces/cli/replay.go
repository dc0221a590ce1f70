package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/globalapptesting/hrl-go/application"
	"github.com/globalapptesting/hrl-go/domain/config"
)

type replayOptions struct {
	configPath string
	storage    string
	path       string
	timeline   bool
	jsonOutput bool
}

func (a *App) newReplayCmd() *cobra.Command {
	opts := &replayOptions{}

	cmd := &cobra.Command{
		Use:   "replay [episode-id]",
		Short: "Rebuild episode summaries from recorded events",
		Long: `Rebuild episode summaries from the events recorded by previous runs.

Without an episode ID every episode in the store is summarized. The store must
be persistent, so the memory and none drivers are rejected.

Examples:
  # Summarize every episode recorded to sqlite
  hrl replay --storage sqlite --path episodes.db

  # Show the event timeline of one episode
  hrl replay -c maze.yaml --timeline 6f1c...`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var episodeID string
			if len(args) > 0 {
				episodeID = args[0]
			}
			return a.replay(cmd.Context(), opts, episodeID)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().StringVar(&opts.storage, "storage", "", "Storage driver (overrides config)")
	cmd.Flags().StringVar(&opts.path, "path", "", "Badger directory or sqlite file (overrides config)")
	cmd.Flags().BoolVar(&opts.timeline, "timeline", false, "Print the raw events of the episode")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func (a *App) replay(ctx context.Context, opts *replayOptions, episodeID string) error {
	cfg, err := loadConfig(opts.configPath, false)
	if err != nil {
		return err
	}
	if opts.storage != "" {
		cfg.Storage.Driver = opts.storage
	}
	if opts.path != "" {
		cfg.Storage.Path = opts.path
	}

	switch cfg.Storage.Driver {
	case config.DriverNone, config.DriverMemory, "":
		return fmt.Errorf("replay needs a persistent storage driver, got %q", cfg.Storage.Driver)
	}
	if opts.timeline && episodeID == "" {
		return fmt.Errorf("--timeline requires an episode ID")
	}

	store, closeStore, err := openStore(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Driver, err)
	}
	defer func() { _ = closeStore() }()

	replay := application.NewReplay(store)

	if opts.timeline {
		events, err := replay.Timeline(ctx, episodeID)
		if err != nil {
			return err
		}
		if opts.jsonOutput {
			return a.writeJSON(events)
		}
		for _, e := range events {
			fmt.Fprintf(a.stdout, "%s  %-20s %s\n", e.Timestamp.Format("15:04:05.000"), e.Type, e.Payload)
		}
		return nil
	}

	var summaries []*application.EpisodeSummary
	if episodeID != "" {
		s, err := replay.ReconstructEpisode(ctx, episodeID)
		if err != nil {
			return err
		}
		summaries = append(summaries, s)
	} else {
		summaries, err = replay.ReconstructAll(ctx)
		if err != nil {
			return err
		}
	}

	if opts.jsonOutput {
		return a.writeJSON(summaries)
	}
	if len(summaries) == 0 {
		fmt.Fprintf(a.stdout, "No episodes recorded\n")
		return nil
	}
	for _, s := range summaries {
		status := "in progress"
		if s.Terminal {
			status = "terminal"
		}
		fmt.Fprintf(a.stdout, "%s: %d steps, %s, total reward %.2f, identities %v\n",
			s.EpisodeID, s.Steps, status, s.TotalReward(), s.Identities)
	}
	return nil
}

func (a *App) writeJSON(v any) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
