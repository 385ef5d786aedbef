package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	treasurycmd "github.com/tavernworks/treasury/internal/cmd/treasuryd"
)

func main() {
	cfg, err := treasurycmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix("[TREASURY] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := treasurycmd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}
