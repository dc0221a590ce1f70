package config

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestDuration_JSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		duration Duration
		wantJSON string
	}{
		{"zero value", Duration(0), `"0s"`},
		{"5 seconds", Duration(5 * time.Second), `"5s"`},
		{"1 minute 30 seconds", Duration(90 * time.Second), `"1m30s"`},
		{"milliseconds", Duration(500 * time.Millisecond), `"500ms"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			data, err := json.Marshal(tt.duration)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if string(data) != tt.wantJSON {
				t.Errorf("Marshal() = %s, want %s", data, tt.wantJSON)
			}

			var got Duration
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if got != tt.duration {
				t.Errorf("Unmarshal() = %v, want %v", got, tt.duration)
			}
		})
	}
}

func TestDuration_YAML(t *testing.T) {
	t.Parallel()

	var s StorageConfig
	if err := yaml.Unmarshal([]byte("driver: redis\ntimeout: 250ms\n"), &s); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if s.Timeout.Duration() != 250*time.Millisecond {
		t.Errorf("Timeout = %v, want 250ms", s.Timeout.Duration())
	}

	if err := yaml.Unmarshal([]byte("timeout: soon\n"), &s); err == nil {
		t.Error("Unmarshal() should reject an invalid duration")
	}
}

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()
	if errs := cfg.Validate(); errs.HasErrors() {
		t.Fatalf("Default().Validate() = %v", errs)
	}
	if cfg.Agents.Strategy.MaxSteps != 20 || cfg.Agents.Strategy.GoalReward != 1.0 {
		t.Errorf("strategy defaults = %+v", cfg.Agents.Strategy)
	}
	if cfg.Agents.Motion.MaxSteps != 10 || cfg.Agents.Motion.ForwardReward != 1.0 || cfg.Agents.Motion.BackwardReward != -0.1 {
		t.Errorf("motion defaults = %+v", cfg.Agents.Motion)
	}
	if cfg.Variant != VariantSwitching {
		t.Errorf("Variant = %q, want switching", cfg.Variant)
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		mutate   func(c *Config)
		wantPath string
	}{
		{"missing name", func(c *Config) { c.Name = "" }, "name"},
		{"unknown variant", func(c *Config) { c.Variant = "tabular" }, "variant"},
		{"strategy budget", func(c *Config) { c.Agents.Strategy.MaxSteps = 0 }, "agents.strategy.max_steps"},
		{"motion budget", func(c *Config) { c.Agents.Motion.MaxSteps = -1 }, "agents.motion.max_steps"},
		{"episodes", func(c *Config) { c.Episodes = 0 }, "episodes"},
		{"max steps", func(c *Config) { c.MaxSteps = 0 }, "max_steps"},
		{"max cascade", func(c *Config) { c.MaxCascade = -2 }, "max_cascade"},
		{"policy", func(c *Config) { c.Policy = "greedy" }, "policy"},
		{"log level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"storage driver", func(c *Config) { c.Storage.Driver = "cassandra" }, "storage.driver"},
		{"badger path", func(c *Config) { c.Storage.Driver = DriverBadger }, "storage.path"},
		{"sqlite path", func(c *Config) { c.Storage.Driver = DriverSQLite }, "storage.path"},
		{"postgres dsn", func(c *Config) { c.Storage.Driver = DriverPostgres }, "storage.dsn"},
		{"redis address", func(c *Config) { c.Storage.Driver = DriverRedis }, "storage.address"},
		{"sample rate", func(c *Config) { c.Telemetry.SampleRate = 1.5 }, "telemetry.sample_rate"},
		{"ragged map", func(c *Config) { c.Env.Map = [][]int{{2, 1}, {3}} }, "env.map[1]"},
		{"unknown tile", func(c *Config) { c.Env.Map = [][]int{{2, 7, 3}} }, "env.map[0][1]"},
		{"missing goal", func(c *Config) { c.Env.Map = [][]int{{2, 1, 1}} }, "env.map"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := Default()
			tt.mutate(&cfg)
			errs := cfg.Validate()
			if !errs.HasErrors() {
				t.Fatal("Validate() returned no errors")
			}
			found := false
			for _, e := range errs {
				if e.Path == tt.wantPath {
					found = true
				}
			}
			if !found {
				t.Errorf("Validate() = %v, want an error at %s", errs, tt.wantPath)
			}
		})
	}
}

func TestConfig_ValidateProceduralIgnoresMotion(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Variant = VariantProcedural
	cfg.Agents.Motion.MaxSteps = 0
	if errs := cfg.Validate(); errs.HasErrors() {
		t.Errorf("Validate() = %v, want no errors", errs)
	}
}

func TestValidationErrors_Error(t *testing.T) {
	t.Parallel()

	if got := (ValidationErrors{}).Error(); got != "no validation errors" {
		t.Errorf("empty Error() = %q", got)
	}
	one := ValidationErrors{{Path: "name", Message: "name is required"}}
	if got := one.Error(); got != "name: name is required" {
		t.Errorf("single Error() = %q", got)
	}
	two := append(one, ValidationError{Message: "bad"})
	if got := two.Error(); !strings.HasPrefix(got, "2 validation errors:") || !strings.Contains(got, "  - bad") {
		t.Errorf("multi Error() = %q", got)
	}
}
