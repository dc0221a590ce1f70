// Package config provides the configuration model of an orchestrated maze run.
package config

import "time"

// Variant selects how the maze environment is wired.
type Variant string

// Variants.
const (
	// VariantSwitching hands control between a strategy and a motion agent.
	VariantSwitching Variant = "switching"
	// VariantProcedural runs motion as a procedure of the strategy agent.
	VariantProcedural Variant = "procedural"
)

// Policy names accepted by the run command.
const (
	PolicyShortestPath = "shortest_path"
	PolicyRandom       = "random"
)

// Storage drivers.
const (
	DriverNone     = "none"
	DriverMemory   = "memory"
	DriverBadger   = "badger"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// Config is the complete configuration of a run.
type Config struct {
	// Name is a human-readable name for this configuration.
	Name string `json:"name" yaml:"name"`
	// Version is the configuration schema version.
	Version string `json:"version" yaml:"version"`

	Variant Variant      `json:"variant" yaml:"variant"`
	Env     EnvConfig    `json:"env" yaml:"env"`
	Agents  AgentsConfig `json:"agents" yaml:"agents"`

	// Episodes is the number of episodes to roll out.
	Episodes int `json:"episodes" yaml:"episodes"`
	// MaxSteps bounds each episode in orchestrator steps.
	MaxSteps int `json:"max_steps" yaml:"max_steps"`
	// MaxCascade bounds done hand-offs per step; zero selects the default of 1024.
	MaxCascade int `json:"max_cascade,omitempty" yaml:"max_cascade,omitempty"`
	// Policy drives the agents during a rollout.
	Policy string `json:"policy" yaml:"policy"`
	// Seed seeds the random policy.
	Seed int64 `json:"seed" yaml:"seed"`

	Logging   LoggingConfig   `json:"logging" yaml:"logging"`
	Storage   StorageConfig   `json:"storage" yaml:"storage"`
	Telemetry TelemetryConfig `json:"telemetry" yaml:"telemetry"`
}

// EnvConfig configures the maze.
type EnvConfig struct {
	// Map is the tile grid: 0 wall, 1 corridor, 2 start, 3 goal. Empty uses
	// the built-in map.
	Map [][]int `json:"map,omitempty" yaml:"map,omitempty"`
}

// AgentsConfig holds per-agent settings.
type AgentsConfig struct {
	Strategy StrategyConfig `json:"strategy" yaml:"strategy"`
	Motion   MotionConfig   `json:"motion" yaml:"motion"`
}

// StrategyConfig configures the strategy agent.
type StrategyConfig struct {
	MaxSteps   int     `json:"max_steps" yaml:"max_steps"`
	GoalReward float64 `json:"reward_for_reaching_goal" yaml:"reward_for_reaching_goal"`
}

// MotionConfig configures the motion agent.
type MotionConfig struct {
	MaxSteps       int     `json:"max_steps" yaml:"max_steps"`
	ForwardReward  float64 `json:"reward_for_right_direction" yaml:"reward_for_right_direction"`
	BackwardReward float64 `json:"reward_for_wrong_direction" yaml:"reward_for_wrong_direction"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is one of trace, debug, info, warn, error.
	Level string `json:"level" yaml:"level"`
	// Format is json or console.
	Format string `json:"format" yaml:"format"`
}

// StorageConfig selects the event recorder backend.
type StorageConfig struct {
	Driver string `json:"driver" yaml:"driver"`
	// Path is the badger directory or sqlite file.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
	// DSN is the postgres connection URL.
	DSN    string `json:"dsn,omitempty" yaml:"dsn,omitempty"`
	Schema string `json:"schema,omitempty" yaml:"schema,omitempty"`
	// Address is the redis host:port.
	Address   string   `json:"address,omitempty" yaml:"address,omitempty"`
	Password  string   `json:"password,omitempty" yaml:"password,omitempty"`
	DB        int      `json:"db,omitempty" yaml:"db,omitempty"`
	KeyPrefix string   `json:"key_prefix,omitempty" yaml:"key_prefix,omitempty"`
	Timeout   Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	// Retries is the number of attempts per store call; zero means one.
	Retries int `json:"retries,omitempty" yaml:"retries,omitempty"`
}

// Trace exporters.
const (
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

// TelemetryConfig configures tracing and metrics.
type TelemetryConfig struct {
	Tracing    bool    `json:"tracing" yaml:"tracing"`
	SampleRate float64 `json:"sample_rate" yaml:"sample_rate"`
	// Exporter is stdout or otlp.
	Exporter    string `json:"exporter,omitempty" yaml:"exporter,omitempty"`
	PrettyPrint bool   `json:"pretty_print" yaml:"pretty_print"`
	// Endpoint is the OTLP/gRPC collector address.
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	Insecure bool   `json:"insecure,omitempty" yaml:"insecure,omitempty"`
	Metrics  bool   `json:"metrics" yaml:"metrics"`
}

// Default returns the configuration of the built-in maze run.
func Default() Config {
	return Config{
		Name:    "maze",
		Version: "1",
		Variant: VariantSwitching,
		Agents: AgentsConfig{
			Strategy: StrategyConfig{MaxSteps: 20, GoalReward: 1.0},
			Motion:   MotionConfig{MaxSteps: 10, ForwardReward: 1.0, BackwardReward: -0.1},
		},
		Episodes: 1,
		MaxSteps: 200,
		Policy:   PolicyShortestPath,
		Seed:     1,
		Logging:  LoggingConfig{Level: "info", Format: "console"},
		Storage:  StorageConfig{Driver: DriverMemory, Timeout: Duration(5 * time.Second)},
		Telemetry: TelemetryConfig{
			SampleRate: 1.0,
		},
	}
}

// Duration is a time.Duration that supports JSON/YAML string representation.
type Duration time.Duration

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Duration(d).String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// Duration returns the time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
