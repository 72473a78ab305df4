package rest

import (
	"net/http"

	"github.com/abgdnv/wallacore/pkg/web"
)

// ListMessages returns the caller's conversation, most recent first.
func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	user, ok := web.GetUser(w, r, h.logger)
	if !ok {
		return
	}
	list, err := h.messages.ListFor(r.Context(), user.Email)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to fetch messages")
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, list)
}

// CountUnread returns the number of messages the caller received.
func (h *Handler) CountUnread(w http.ResponseWriter, r *http.Request) {
	user, ok := web.GetUser(w, r, h.logger)
	if !ok {
		return
	}
	count, err := h.messages.CountUnread(r.Context(), user.Email)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to count messages")
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, map[string]int{"unread": count})
}

// DeleteMessage removes a message the caller received.
func (h *Handler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	user, ok := web.GetUser(w, r, h.logger)
	if !ok {
		return
	}
	index, ok := web.ParseIndex(w, r, h.logger)
	if !ok {
		return
	}
	if err := h.messages.Delete(r.Context(), user.Email, index); err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to delete message")
		return
	}
	h.logger.InfoContext(r.Context(), "Message deleted successfully", "index", index)
	w.WriteHeader(http.StatusNoContent)
}
