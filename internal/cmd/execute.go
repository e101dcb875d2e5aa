package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dotcommander/yteam/internal/config"
)

// Execute wires commands and runs Cobra. It exits with status 1 when the
// command returns an error.
func Execute(build BuildInfo, cfg config.Config, cfgErr error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	root := NewRootCmd(build, cfg, cfgErr)
	err := root.ExecuteContext(ctx)
	stop()
	if err != nil {
		handleError(os.Stderr, err)
		os.Exit(1)
	}
}
