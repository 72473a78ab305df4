package web

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
)

// ErrorResponse is the body of every non-2xx reply produced by RespondError.
type ErrorResponse struct {
	Error string `json:"error"`
}

// RespondJSON writes payload as the JSON body of a response with the given status.
// A nil payload sends the status alone. Encoding happens before the header is
// written so an unencodable payload still turns into a clean 500.
func RespondJSON(w http.ResponseWriter, logger *slog.Logger, status int, payload any) {
	if payload == nil {
		w.WriteHeader(status)
		return
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		logger.Error("failed to encode response", slog.Int("status", status), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		logger.Debug("failed to write response", slog.Any("error", err))
	}
}

func RespondError(w http.ResponseWriter, logger *slog.Logger, status int, message string) {
	RespondJSON(w, logger, status, ErrorResponse{Error: message})
}

// ParseIndex reads the non-negative {index} path parameter. On failure it has
// already answered 400 and returns false.
func ParseIndex(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (int, bool) {
	return parsePathValidate(r, w, logger, "index", gte(0))
}

// GetUser returns the authenticated caller or answers 401.
func GetUser(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (User, bool) {
	if user, ok := UserFromContext(r.Context()); ok && user.Email != "" {
		return user, true
	}
	RespondError(w, logger, http.StatusUnauthorized, "Unauthorized: Missing or invalid user identity")
	return User{}, false
}
