package app

import (
	"context"
	"errors"
	"net/http"

	"gitlab.com/nevasik7/alerting"
)

type HTTPServer interface {
	Start() error
	Shutdown(ctx context.Context) error
}

// StateFlusher persists aggregate state before the process exits.
type StateFlusher interface {
	PersistState(ctx context.Context) error
}

type App struct {
	alert   alerting.Alerting
	httpSrv HTTPServer
	flusher StateFlusher
}

func NewApp(lg alerting.Alerting, httpSrv HTTPServer, flusher StateFlusher) *App {
	return &App{alert: lg, httpSrv: httpSrv, flusher: flusher}
}

func (a *App) Start() error {
	a.alert.Debug("App started begin...")

	go func() {
		if err := a.httpSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.alert.Fatalf("Start HTTP server is error=%v", err)
		}
	}()

	a.alert.Info("App started")
	return nil
}

// Shutdown stops the HTTP server, then flushes aggregate state so the next
// boot warm-starts from the latest image.
func (a *App) Shutdown(ctx context.Context) error {
	a.alert.Debug("App stopped begin...")

	if err := a.httpSrv.Shutdown(ctx); err != nil {
		return err
	}

	if a.flusher != nil {
		if err := a.flusher.PersistState(ctx); err != nil {
			a.alert.Errorf("Final state flush failed: %v", err)
		}
	}

	a.alert.Info("App stopped")
	return nil
}
