package http

import (
	"chainmetrics/internal/api/http/handlers"
	"chainmetrics/internal/api/http/mw"
	"chainmetrics/internal/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func BuildRouter(
	h *handlers.Handler,
	logMW *mw.LoggingMiddleware,
	gzipMW *mw.GzipMiddleware,
	corsMW *mw.CORSMiddleware,
) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	if logMW != nil {
		r.Use(logMW.Handler)
	}
	if gzipMW != nil {
		r.Use(gzipMW.Handler)
	}
	if corsMW != nil {
		r.Use(corsMW.Handler())
	}

	// tech endpoints
	r.Get("/healthz", h.Healthz)
	r.Get("/readiness", h.Readiness)
	r.Mount("/metrics", metrics.Handler())

	r.Route("/api", func(apiR chi.Router) {
		apiR.Route("/protocols", func(pp chi.Router) {
			pp.Get("/{id}", h.Protocol)
			pp.Get("/{id}/daily/{day}", h.ProtocolDailySnapshot)
		})
		apiR.Route("/markets", func(mm chi.Router) {
			mm.Get("/", h.Markets)
			mm.Get("/{id}", h.Market)
			mm.Get("/{id}/daily/{day}", h.MarketDailySnapshot)
		})
	})

	return r
}
