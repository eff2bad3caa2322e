package cmd

import (
	"context"
	"flag"
	"testing"
)

type testConfig struct {
	Catalog string `env:"CMD_TEST_CATALOG" envDefault:"catalog.yaml"`
	Trials  int    `env:"CMD_TEST_TRIALS" envDefault:"10000"`
}

func TestParseConfigReadsEnvAndFlags(t *testing.T) {
	t.Setenv("CMD_TEST_CATALOG", "env-catalog.yaml")
	t.Setenv("CMD_TEST_TRIALS", "500")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfgRef := testConfig{}
	if err := ParseConfig(&cfgRef); err != nil {
		t.Fatalf("load config defaults: %v", err)
	}
	fs.StringVar(&cfgRef.Catalog, "catalog", cfgRef.Catalog, "catalog path")
	fs.IntVar(&cfgRef.Trials, "trials", cfgRef.Trials, "trial count")

	if err := ParseArgs(fs, []string{"-catalog", "flag-catalog.yaml"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	if cfgRef.Catalog != "flag-catalog.yaml" {
		t.Fatalf("expected flag value for catalog, got %q", cfgRef.Catalog)
	}
	if cfgRef.Trials != 500 {
		t.Fatalf("expected env value for trials, got %d", cfgRef.Trials)
	}
}

func TestParseConfigFromArgsReadsEnvAndFlags(t *testing.T) {
	t.Setenv("CMD_TEST_CATALOG", "env-catalog.yaml")
	t.Setenv("CMD_TEST_TRIALS", "250")

	cfgRef := testConfig{}
	fs := flag.NewFlagSet("configargs", flag.ContinueOnError)
	fs.StringVar(&cfgRef.Catalog, "catalog", "", "catalog path")
	fs.IntVar(&cfgRef.Trials, "trials", 0, "trial count")
	if err := ParseConfigFromArgs(&cfgRef, fs, []string{"-catalog", "flag-catalog.yaml"}); err != nil {
		t.Fatalf("parse config and args: %v", err)
	}
	if cfgRef.Catalog != "flag-catalog.yaml" {
		t.Fatalf("expected parsed flag catalog, got %q", cfgRef.Catalog)
	}
	if cfgRef.Trials != 250 {
		t.Fatalf("expected env default trials, got %d", cfgRef.Trials)
	}
}

func TestParseArgsRejectsNilParser(t *testing.T) {
	if err := ParseArgs(nil, []string{}); err == nil {
		t.Fatal("expected parse args to reject nil parser")
	}
}

func TestRunWithTelemetryRejectsMissingInputs(t *testing.T) {
	if err := RunWithTelemetry(context.Background(), "", func(context.Context) error { return nil }); err == nil {
		t.Fatal("expected missing service error")
	}
	if err := RunWithTelemetry(context.Background(), ServiceSimulate, nil); err == nil {
		t.Fatal("expected missing run function error")
	}
}
