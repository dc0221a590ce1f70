package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDotEnvLookup(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.env")
	second := filepath.Join(dir, "second.env")
	if err := os.WriteFile(first, []byte("HRL_DOTENV_POLICY=random\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(second, []byte("HRL_DOTENV_POLICY=shortest_path\nHRL_DOTENV_SEED=9\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("HRL_DOTENV_SEED", "3")

	lookup, err := DotEnvLookup(first, second)
	if err != nil {
		t.Fatalf("DotEnvLookup() error = %v", err)
	}
	if v, _ := lookup("HRL_DOTENV_POLICY"); v != "random" {
		t.Errorf("HRL_DOTENV_POLICY = %q, want the first file's value", v)
	}
	if v, _ := lookup("HRL_DOTENV_SEED"); v != "3" {
		t.Errorf("HRL_DOTENV_SEED = %q, want the process value", v)
	}
	if _, ok := lookup("HRL_DOTENV_UNSET"); ok {
		t.Error("unset variable should not resolve")
	}

	if _, err := DotEnvLookup(filepath.Join(dir, "missing.env")); err == nil {
		t.Error("expected error for a missing file")
	}
}

func TestLoader_WithDotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	if err := os.WriteFile(envFile, []byte("HRL_DOTENV_EPISODES=4\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := NewLoader(WithDotEnv(envFile)).LoadString("name: dotenv\nepisodes: ${HRL_DOTENV_EPISODES}\n", FormatYAML)
	if err != nil {
		t.Fatalf("LoadString() error = %v", err)
	}
	if cfg.Episodes != 4 {
		t.Errorf("Episodes = %d, want 4", cfg.Episodes)
	}

	if _, err := NewLoader(WithDotEnv(filepath.Join(dir, "nope.env"))).LoadString("name: x\n", FormatYAML); err == nil {
		t.Error("expected error for a missing env file")
	}
}
