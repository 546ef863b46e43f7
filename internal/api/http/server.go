package http

import (
	"context"
	"net/http"

	"chainmetrics/internal/api/http/handlers"
	"chainmetrics/internal/api/http/mw"
	"chainmetrics/internal/config"
	"chainmetrics/internal/service"

	"gitlab.com/nevasik7/alerting/logger"
)

type ServerDeps struct {
	Logger     logger.Logger
	Cfg        *config.Config
	AggService *service.AggregatorService
}

type Server struct {
	log logger.Logger
	srv *http.Server
}

func NewServer(d *ServerDeps) *Server {
	h := handlers.NewHandler(d.Logger, d.AggService)

	logMW := mw.NewLogging(d.Logger)
	gzipMW := mw.NewGzip(0, d.Logger)

	var corsMW *mw.CORSMiddleware
	if d.Cfg.API.HTTP.CORS.Enabled {
		corsMW = mw.NewCORS(&d.Cfg.API.HTTP.CORS)
	}

	router := BuildRouter(h, logMW, gzipMW, corsMW)

	return &Server{
		log: d.Logger,
		srv: &http.Server{
			Addr:         d.Cfg.API.HTTP.Addr,
			Handler:      router,
			ReadTimeout:  d.Cfg.API.HTTP.ReadTimeout,
			WriteTimeout: d.Cfg.API.HTTP.WriteTimeout,
			IdleTimeout:  d.Cfg.API.HTTP.IdleTimeout,
		},
	}
}

func (s *Server) Start() error {
	s.log.Infof("HTTP server listening on %s", s.srv.Addr)
	return s.srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
