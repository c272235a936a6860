package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	ledgercmd "github.com/centbook/centbook/internal/cmd/ledger"
	"github.com/centbook/centbook/internal/platform/config"
)

func main() {
	if err := config.LoadDotenv(".env"); err != nil {
		config.Exitf("load .env: %v", err)
	}

	cfg, args, err := ledgercmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := ledgercmd.Run(ctx, cfg, args); err != nil {
		config.Exitf("%v", err)
	}
}
