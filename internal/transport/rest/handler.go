// Package rest provides HTTP handlers for the catalog, the message log and the reply session.
package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"reflect"

	serrors "github.com/abgdnv/wallacore/internal/errors"
	"github.com/abgdnv/wallacore/internal/service"
	"github.com/abgdnv/wallacore/internal/workflow"
	"github.com/abgdnv/wallacore/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// XSessionID lets one user keep several independent reply sessions. Defaults to the user email.
// Ids are scoped to the caller, so another user sending the same id reaches a different session.
const XSessionID = "X-Session-Id"

// Thumbnailer renders a preview of the photo at url.
type Thumbnailer interface {
	Render(ctx context.Context, url string) ([]byte, error)
}

type Handler struct {
	catalog    service.CatalogService
	messages   service.MessageService
	sessions   *workflow.Registry
	thumbnails Thumbnailer
	validate   *validator.Validate
	logger     *slog.Logger
}

// NewHandler creates a new Handler serving the marketplace API.
func NewHandler(catalog service.CatalogService, messages service.MessageService, sessions *workflow.Registry, thumbnails Thumbnailer, logger *slog.Logger) *Handler {
	return &Handler{
		catalog:    catalog,
		messages:   messages,
		sessions:   sessions,
		thumbnails: thumbnails,
		validate:   newValidator(),
		logger:     logger.With("component", "rest"),
	}
}

// newValidator returns a validator that compares decimals as numbers.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// RegisterRoutes registers the HTTP routes for the marketplace.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", h.HealthCheck)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(web.AuthMiddleware)

		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.ListProducts)
			r.Post("/", h.CreateProduct)
			r.Delete("/{index}", h.DeleteProduct)
			r.Get("/{index}/thumbnail", h.Thumbnail)
		})
		r.Get("/me/products", h.MyProducts)

		r.Route("/messages", func(r chi.Router) {
			r.Get("/", h.ListMessages)
			r.Get("/unread", h.CountUnread)
			r.Delete("/{index}", h.DeleteMessage)
		})

		r.Route("/session", func(r chi.Router) {
			r.Get("/", h.GetSession)
			r.Delete("/", h.CancelSession)
			r.Post("/compose", h.Compose)
			r.Post("/reply", h.Reply)
			r.Post("/send", h.Send)
		})
	})
}

// HealthCheck is a simple health check endpoint.
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// decodeValid decodes the JSON body into dst and validates it.
// On failure the response has been written and false is returned.
func (h *Handler) decodeValid(w http.ResponseWriter, r *http.Request, logger *slog.Logger, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		logger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, logger, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			errorResponse := make(map[string]string)
			for _, fieldErr := range validationErrors {
				errorResponse[fieldErr.Field()] = "failed on rule: " + fieldErr.Tag()
			}
			logger.WarnContext(r.Context(), "Validation errors occurred", "errors", errorResponse)
			web.RespondJSON(w, logger, http.StatusBadRequest, map[string]any{"validation_errors": errorResponse})
			return false
		}
		logger.ErrorContext(r.Context(), "Error validating request body", "error", err)
		web.RespondError(w, logger, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// respondServiceError maps service errors to HTTP status codes.
func respondServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, message string) {
	switch {
	case errors.Is(err, serrors.ErrIndexOutOfRange):
		logger.WarnContext(r.Context(), message, "error", err)
		web.RespondError(w, logger, http.StatusNotFound, err.Error())
	case errors.Is(err, serrors.ErrForbidden):
		logger.WarnContext(r.Context(), message, "error", err)
		web.RespondError(w, logger, http.StatusForbidden, err.Error())
	case errors.Is(err, serrors.ErrNothingToSend):
		logger.WarnContext(r.Context(), message, "error", err)
		web.RespondError(w, logger, http.StatusConflict, err.Error())
	default:
		logger.ErrorContext(r.Context(), message, "error", err)
		web.RespondError(w, logger, http.StatusInternalServerError, message)
	}
}

// sessionID returns the caller's name for the reply session of the request.
func sessionID(r *http.Request, user web.User) string {
	if id := r.Header.Get(XSessionID); id != "" {
		return id
	}
	return user.Email
}
