// Package app wires the marketplace stores, services and HTTP routes together.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/abgdnv/wallacore/internal/config"
	"github.com/abgdnv/wallacore/internal/notify"
	"github.com/abgdnv/wallacore/internal/service"
	"github.com/abgdnv/wallacore/internal/store"
	"github.com/abgdnv/wallacore/internal/thumbnail"
	"github.com/abgdnv/wallacore/internal/transport/rest"
	"github.com/abgdnv/wallacore/internal/workflow"
	pkgconfig "github.com/abgdnv/wallacore/pkg/config"
	"github.com/abgdnv/wallacore/pkg/messaging"
	"github.com/abgdnv/wallacore/pkg/nats"
	"github.com/abgdnv/wallacore/pkg/server"
	"github.com/go-chi/chi/v5"
	"github.com/nats-io/nats.go/jetstream"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const operationName = "marketplace"

type Dependencies struct {
	CatalogService service.CatalogService
	MessageService service.MessageService
	Sessions       *workflow.Registry
	Thumbnails     rest.Thumbnailer
	// Metrics serves /metrics when set.
	Metrics http.Handler
	Logger  *slog.Logger
}

// SetupDependencies opens the catalog and the message log configured in cfg.
// Files are created lazily on the first write.
func SetupDependencies(cfg *config.MarketplaceConfig, clock store.Clock, dispatcher notify.Dispatcher, logger *slog.Logger) *Dependencies {
	catalog := store.NewCatalogStore(cfg.Storage.Catalog)
	messages := store.NewMessageStore(cfg.Storage.Messages, clock)
	logger.Info("Storage configured",
		slog.String("catalog", cfg.Storage.Catalog),
		slog.String("messages", cfg.Storage.Messages))
	return &Dependencies{
		CatalogService: service.NewCatalogService(catalog),
		MessageService: service.NewMessageService(messages, dispatcher, logger),
		Sessions:       workflow.NewRegistry(),
		Thumbnails:     thumbnail.NewGenerator(cfg.Thumbnail, otelhttp.NewTransport(http.DefaultTransport)),
		Logger:         logger,
	}
}

// NewDispatcher builds the notification channel selected by cfg.Notification.Mode.
// js is only used in nats mode. Remote channels are guarded by a circuit breaker.
func NewDispatcher(ctx context.Context, cfg *config.MarketplaceConfig, js jetstream.JetStream, logger *slog.Logger) (notify.Dispatcher, error) {
	var remote notify.Dispatcher
	switch cfg.Notification.Mode {
	case pkgconfig.NotificationModeSMTP:
		remote = notify.NewSMTPDispatcher(cfg.Mail)
	case pkgconfig.NotificationModeNATS:
		if js == nil {
			return nil, fmt.Errorf("nats notification mode requires a JetStream context")
		}
		if _, err := nats.EnsureStream(ctx, js, messaging.MessagesStream, messaging.MessagesSentSubject); err != nil {
			return nil, err
		}
		remote = notify.NewQueueDispatcher(nats.NewNatsPublisher(js))
	default:
		return notify.NewLogDispatcher(logger), nil
	}
	return notify.NewBreakerDispatcher(remote, cfg.Resilience.CircuitBreaker, logger), nil
}

// SetupHttpHandler builds the router with every route of the marketplace.
// Used by E2E tests to run the application inside an httptest.Server.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := server.NewChiRouter(deps.Logger)
	wireRoutes(mux, deps)
	return mux
}

func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	handler := rest.NewHandler(deps.CatalogService, deps.MessageService, deps.Sessions, deps.Thumbnails, deps.Logger)
	handler.RegisterRoutes(mux)
	if deps.Metrics != nil {
		mux.Handle("/metrics", deps.Metrics)
	}
}

// SetupHttpServer creates the traced HTTP server of the marketplace.
func SetupHttpServer(deps *Dependencies, cfg *config.MarketplaceConfig) *http.Server {
	return server.NewHTTPServer(cfg.HTTPServer, operationName, SetupHttpHandler(deps))
}
