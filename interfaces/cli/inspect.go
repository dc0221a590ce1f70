package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/globalapptesting/hrl-go/domain/agent"
	"github.com/globalapptesting/hrl-go/domain/config"
	"github.com/globalapptesting/hrl-go/domain/space"
	"github.com/globalapptesting/hrl-go/example/maze"
	"github.com/globalapptesting/hrl-go/example/maze/procedural"
)

type inspectOptions struct {
	configPath string
	section    string
}

func (a *App) newInspectCmd() *cobra.Command {
	opts := &inspectOptions{}

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Inspect the environment a configuration builds",
		Long: `Inspect the environment built from a configuration.

Sections:
  all     Show every section (default)
  map     Show the maze
  spaces  Show the observation and action space of every agent
  graph   Show the control graph derived from the routing tables

Examples:
  # Inspect the built-in maze
  hrl inspect

  # Show the control graph of the procedural variant
  hrl inspect -c procedural.yaml --section graph`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.inspect(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file (default: built-in maze)")
	cmd.Flags().StringVar(&opts.section, "section", "all", "Section to inspect (all, map, spaces, graph)")

	return cmd
}

type agentSpaces struct {
	name        agent.Name
	observation space.Space
	action      space.Space
}

func (a *App) inspect(opts *inspectOptions) error {
	cfg, err := loadConfig(opts.configPath, false)
	if err != nil {
		return err
	}

	mc := maze.ConfigFrom(*cfg)
	var graph fmt.Stringer
	var spaces []agentSpaces
	if cfg.Variant == config.VariantProcedural {
		o, strategy, err := procedural.NewEnvWithAgent(mc)
		if err != nil {
			return err
		}
		graph = o.Graph()
		spaces = []agentSpaces{
			{maze.StrategyName, strategy.ObservationSpace(), strategy.ActionSpace()},
		}
	} else {
		o, agents, err := maze.NewEnvWithAgents(mc)
		if err != nil {
			return err
		}
		graph = o.Graph()
		spaces = []agentSpaces{
			{maze.StrategyName, agents.Strategy.ObservationSpace(), agents.Strategy.ActionSpace()},
			{maze.MotionName, agents.Motion.ObservationSpace(), agents.Motion.ActionSpace()},
		}
	}

	switch opts.section {
	case "all":
		fmt.Fprintf(a.stdout, "Environment: %s (%s)\n", cfg.Name, cfg.Variant)
		fmt.Fprintf(a.stdout, "═══════════════════════════════════════\n\n")
		if err := a.printMap(mc.Map); err != nil {
			return err
		}
		fmt.Fprintln(a.stdout)
		a.printSpaces(spaces)
		fmt.Fprintln(a.stdout)
		a.printGraph(graph)
	case "map":
		return a.printMap(mc.Map)
	case "spaces":
		a.printSpaces(spaces)
	case "graph":
		a.printGraph(graph)
	default:
		return fmt.Errorf("unknown section: %s", opts.section)
	}
	return nil
}

func (a *App) printMap(tiles [][]int) error {
	grid, err := maze.NewGrid(tiles)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.stdout, "Map (%dx%d, start %s, goal %s, distance %d):\n",
		grid.Rows(), grid.Cols(), grid.Start(), grid.Goal(), grid.Distance(grid.Start()))
	for r := 0; r < grid.Rows(); r++ {
		var b strings.Builder
		b.WriteString("  ")
		for c := 0; c < grid.Cols(); c++ {
			b.WriteByte(tileGlyph(grid.Tile(maze.Position{Row: r, Col: c})))
		}
		fmt.Fprintln(a.stdout, b.String())
	}
	return nil
}

func tileGlyph(tile int) byte {
	switch tile {
	case maze.Wall:
		return '#'
	case maze.StartTile:
		return 'S'
	case maze.GoalTile:
		return 'G'
	default:
		return '.'
	}
}

func (a *App) printSpaces(spaces []agentSpaces) {
	fmt.Fprintf(a.stdout, "Spaces:\n")
	for _, s := range spaces {
		fmt.Fprintf(a.stdout, "  %s\n", s.name)
		fmt.Fprintf(a.stdout, "    observation: %s\n", s.observation)
		fmt.Fprintf(a.stdout, "    action:      %s\n", s.action)
	}
}

func (a *App) printGraph(graph fmt.Stringer) {
	fmt.Fprintf(a.stdout, "Control graph:\n")
	for _, line := range strings.Split(strings.TrimRight(graph.String(), "\n"), "\n") {
		fmt.Fprintf(a.stdout, "  %s\n", line)
	}
}
