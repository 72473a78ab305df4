// Package server builds the HTTP router and server shared by the marketplace binaries.
package server

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/abgdnv/wallacore/pkg/config"
	"github.com/abgdnv/wallacore/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// NewHTTPServer returns a traced server listening on every interface at cfg.Port.
func NewHTTPServer(cfg config.HTTPConfig, operation string, handler http.Handler) *http.Server {
	srv := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Port),
		MaxHeaderBytes: cfg.MaxHeaderBytes,
		Handler: otelhttp.NewHandler(handler, operation,
			otelhttp.WithSpanNameFormatter(spanName),
		),
	}
	srv.ReadTimeout = cfg.Timeout.Read
	srv.ReadHeaderTimeout = cfg.Timeout.ReadHeader
	srv.WriteTimeout = cfg.Timeout.Write
	srv.IdleTimeout = cfg.Timeout.Idle
	return srv
}

// spanName names server spans "METHOD path". The route pattern is not known yet
// when the span starts, so the raw path is used.
func spanName(operation string, r *http.Request) string {
	if r.URL.Path == "" {
		return operation
	}
	return r.Method + " " + r.URL.Path
}

// NewChiRouter returns a router that assigns request ids, logs every request and recovers panics.
// Trailing slashes are ignored so /api/v1/products and /api/v1/products/ match the same route.
func NewChiRouter(logger *slog.Logger) *chi.Mux {
	mux := chi.NewRouter()
	for _, mw := range []func(http.Handler) http.Handler{
		middleware.RequestID,
		middleware.StripSlashes,
		web.RequestIDInjector,
		web.StructuredLogger(logger),
		web.Recoverer(logger),
	} {
		mux.Use(mw)
	}
	return mux
}
