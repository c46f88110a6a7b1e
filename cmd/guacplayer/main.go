package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/guacplayer/guacplayer/internal/cli"
)

var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return cli.Run(ctx, version, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
}
