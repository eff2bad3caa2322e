// Package main provides the decksim CLI: it runs Monte Carlo trials over a
// deck list and prints an aggregate JSON report.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	simulatecmd "github.com/louisbranch/decksim/internal/cmd/simulate"
	"github.com/louisbranch/decksim/internal/platform/config"
)

func main() {
	cfg, err := simulatecmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	log.SetPrefix("[SIMULATE] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := simulatecmd.Run(ctx, cfg, os.Stdout); err != nil {
		config.Exitf("simulation failed: %v", err)
	}
}
