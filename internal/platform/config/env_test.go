package config

import (
	"strings"
	"testing"
)

type envTestConfig struct {
	Trials int `env:"DECKSIM_TEST_TRIALS" envDefault:"123"`
}

func TestParseEnvDefaults(t *testing.T) {
	var cfg envTestConfig

	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Trials != 123 {
		t.Fatalf("expected default trials 123, got %d", cfg.Trials)
	}
}

func TestParseEnvError(t *testing.T) {
	var cfg envTestConfig
	t.Setenv("DECKSIM_TEST_TRIALS", "not-an-int")

	err := ParseEnv(&cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}
