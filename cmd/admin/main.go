// Command admin runs operator tasks against the tutoring center database.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/EvilEvan/PvtClass-tracker/internal/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		logger.Error().Err(err).Msg("Admin command failed")
		stop()
		os.Exit(1)
	}
}
