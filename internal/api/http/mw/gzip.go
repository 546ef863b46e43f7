package mw

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"

	"gitlab.com/nevasik7/alerting/logger"
)

type GzipMiddleware struct {
	Level  int // gzip.NoCompression ... gzip.BestCompression
	Logger logger.Logger

	pool sync.Pool
}

func NewGzip(level int, log logger.Logger) *GzipMiddleware {
	if level == 0 {
		level = gzip.BestSpeed
	}

	m := &GzipMiddleware{Level: level, Logger: log}
	m.pool.New = func() any {
		w, _ := gzip.NewWriterLevel(io.Discard, m.Level)
		return w
	}
	return m
}

func (m *GzipMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// client not support gzip
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			next.ServeHTTP(w, r)
			return
		}

		// already encoded upstream or an event-stream
		if enc := w.Header().Get("Content-Encoding"); enc != "" {
			next.ServeHTTP(w, r)
			return
		}
		if strings.HasPrefix(r.Header.Get("Accept"), "text/event-stream") {
			next.ServeHTTP(w, r)
			return
		}

		gzw := m.pool.Get().(*gzip.Writer)
		defer m.pool.Put(gzw)

		gzw.Reset(w)
		defer func() {
			if err := gzw.Close(); err != nil {
				m.Logger.Errorf("failed to close gzip writer: %v", err)
			}
		}()

		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Del("Content-Length")

		next.ServeHTTP(&gzipResponseWriter{ResponseWriter: w, Writer: gzw}, r)
	})
}

type gzipResponseWriter struct {
	http.ResponseWriter
	io.Writer
}

func (w *gzipResponseWriter) Write(b []byte) (int, error) {
	return w.Writer.Write(b)
}

func (w *gzipResponseWriter) Flush() {
	if f, ok := w.Writer.(*gzip.Writer); ok {
		_ = f.Flush()
	}

	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
