package app

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"chainmetrics/internal/config"
)

// Run assembles the container, starts it, waits for a signal and stops.
func Run(cfg *config.Config) error {
	ctxBuild, cancelBuild := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelBuild()

	container, cleanup, err := Build(ctxBuild, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	if err = container.Start(); err != nil {
		return err
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-sigCtx.Done()

	timeout := cfg.App.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return container.Stop(shutdownCtx)
}
