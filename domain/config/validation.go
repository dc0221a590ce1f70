package config

import (
	"fmt"
	"strings"
)

// Tile values accepted in a map.
const (
	TileWall     = 0
	TileCorridor = 1
	TileStart    = 2
	TileGoal     = 3
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	// Path is the dotted path to the invalid field.
	Path string
	// Message describes the validation error.
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

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validate checks the configuration and returns every problem found.
func (c *Config) Validate() ValidationErrors {
	var errs ValidationErrors
	add := func(path, format string, args ...any) {
		errs = append(errs, ValidationError{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	if c.Name == "" {
		add("name", "name is required")
	}

	switch c.Variant {
	case VariantSwitching, VariantProcedural:
	default:
		add("variant", "unknown variant %q", c.Variant)
	}

	validateMap(c.Env.Map, add)

	if c.Agents.Strategy.MaxSteps <= 0 {
		add("agents.strategy.max_steps", "max_steps must be positive")
	}
	if c.Variant == VariantSwitching && c.Agents.Motion.MaxSteps <= 0 {
		add("agents.motion.max_steps", "max_steps must be positive")
	}

	if c.Episodes <= 0 {
		add("episodes", "episodes must be positive")
	}
	if c.MaxSteps <= 0 {
		add("max_steps", "max_steps must be positive")
	}
	if c.MaxCascade < 0 {
		add("max_cascade", "max_cascade must be non-negative")
	}

	switch c.Policy {
	case PolicyShortestPath, PolicyRandom:
	default:
		add("policy", "unknown policy %q", c.Policy)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "", "trace", "debug", "info", "warn", "warning", "error":
	default:
		add("logging.level", "unknown level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "", "json", "console":
	default:
		add("logging.format", "unknown format %q", c.Logging.Format)
	}

	validateStorage(c.Storage, add)

	if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
		add("telemetry.sample_rate", "sample_rate must be between 0 and 1")
	}
	switch c.Telemetry.Exporter {
	case "", ExporterStdout:
	case ExporterOTLP:
		if c.Telemetry.Endpoint == "" {
			add("telemetry.endpoint", "endpoint is required for otlp")
		}
	default:
		add("telemetry.exporter", "unknown exporter %q", c.Telemetry.Exporter)
	}

	return errs
}

func validateMap(m [][]int, add func(path, format string, args ...any)) {
	if len(m) == 0 {
		return
	}
	cols := len(m[0])
	if cols == 0 {
		add("env.map", "rows must not be empty")
		return
	}
	var starts, goals int
	for r, row := range m {
		if len(row) != cols {
			add(fmt.Sprintf("env.map[%d]", r), "row has %d tiles, want %d", len(row), cols)
			continue
		}
		for c, v := range row {
			switch v {
			case TileWall, TileCorridor:
			case TileStart:
				starts++
			case TileGoal:
				goals++
			default:
				add(fmt.Sprintf("env.map[%d][%d]", r, c), "unknown tile %d", v)
			}
		}
	}
	if starts != 1 {
		add("env.map", "exactly one start tile is required, found %d", starts)
	}
	if goals != 1 {
		add("env.map", "exactly one goal tile is required, found %d", goals)
	}
}

func validateStorage(s StorageConfig, add func(path, format string, args ...any)) {
	switch s.Driver {
	case "", DriverNone, DriverMemory:
	case DriverBadger, DriverSQLite:
		if s.Path == "" {
			add("storage.path", "path is required for %s", s.Driver)
		}
	case DriverPostgres:
		if s.DSN == "" {
			add("storage.dsn", "dsn is required for postgres")
		}
	case DriverRedis:
		if s.Address == "" {
			add("storage.address", "address is required for redis")
		}
	default:
		add("storage.driver", "unknown driver %q", s.Driver)
	}
	if s.Timeout < 0 {
		add("storage.timeout", "timeout must be non-negative")
	}
	if s.Retries < 0 {
		add("storage.retries", "retries must be non-negative")
	}
}
