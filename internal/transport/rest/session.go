package rest

import (
	"context"
	"fmt"
	"net/http"

	serrors "github.com/abgdnv/wallacore/internal/errors"
	"github.com/abgdnv/wallacore/internal/service"
	"github.com/abgdnv/wallacore/internal/workflow"
	"github.com/abgdnv/wallacore/pkg/web"
)

// ComposeRequest selects the product whose vendor is messaged.
type ComposeRequest struct {
	ProductIndex *int `json:"product_index" validate:"required,gte=0"`
}

// ReplyRequest selects the received message that is answered.
type ReplyRequest struct {
	MessageIndex *int `json:"message_index" validate:"required,gte=0"`
}

// SendRequest carries the text of the pending message.
type SendRequest struct {
	Text string `json:"text" validate:"required,max=2000"`
}

// SessionResponse describes the pending intent of a session.
type SessionResponse struct {
	Kind   string          `json:"kind"`
	Intent workflow.Intent `json:"intent,omitempty"`
}

// NotificationStatus reports whether the recipient of a sent message was notified.
type NotificationStatus struct {
	Delivered bool   `json:"delivered"`
	Error     string `json:"error,omitempty"`
}

// SendResponse is returned once a message has been stored.
type SendResponse struct {
	Message      service.MessageDto `json:"message"`
	Notification NotificationStatus `json:"notification"`
}

func toSessionResponse(intent workflow.Intent) SessionResponse {
	resp := SessionResponse{Kind: intent.Kind()}
	if _, idle := intent.(workflow.Idle); !idle {
		resp.Intent = intent
	}
	return resp
}

// GetSession returns the pending intent of the caller's session.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	user, ok := web.GetUser(w, r, h.logger)
	if !ok {
		return
	}
	session := h.sessions.Get(user.Email, sessionID(r, user))
	web.RespondJSON(w, h.logger, http.StatusOK, toSessionResponse(session.Intent()))
}

// CancelSession discards the pending intent. With end=true the whole session is dropped (logout).
func (h *Handler) CancelSession(w http.ResponseWriter, r *http.Request) {
	user, ok := web.GetUser(w, r, h.logger)
	if !ok {
		return
	}
	id := sessionID(r, user)
	if r.URL.Query().Get("end") == "true" {
		h.sessions.End(user.Email, id)
		h.logger.InfoContext(r.Context(), "Session ended", "session", id)
	} else {
		h.sessions.Get(user.Email, id).Cancel()
	}
	w.WriteHeader(http.StatusNoContent)
}

// Compose starts a message to the vendor of a product.
func (h *Handler) Compose(w http.ResponseWriter, r *http.Request) {
	user, ok := web.GetUser(w, r, h.logger)
	if !ok {
		return
	}
	var req ComposeRequest
	if !h.decodeValid(w, r, h.logger, &req) {
		return
	}
	product, err := h.catalog.Get(r.Context(), *req.ProductIndex)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to fetch product")
		return
	}
	intent := h.sessions.Get(user.Email, sessionID(r, user)).MessageVendor(product.Name, product.Seller, product.SellerEmail)
	web.RespondJSON(w, h.logger, http.StatusOK, toSessionResponse(intent))
}

// Reply starts an answer to a message the caller received.
func (h *Handler) Reply(w http.ResponseWriter, r *http.Request) {
	user, ok := web.GetUser(w, r, h.logger)
	if !ok {
		return
	}
	var req ReplyRequest
	if !h.decodeValid(w, r, h.logger, &req) {
		return
	}
	msg, err := h.messages.Get(r.Context(), user.Email, *req.MessageIndex)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to fetch message")
		return
	}
	if msg.Direction != service.DirectionReceived {
		err := fmt.Errorf("message %d was sent by %s: %w", msg.Index, user.Email, serrors.ErrForbidden)
		respondServiceError(w, r, h.logger, err, "Cannot reply to own message")
		return
	}
	intent := h.sessions.Get(user.Email, sessionID(r, user)).Reply(msg.Index, msg.Sender, msg.Product)
	web.RespondJSON(w, h.logger, http.StatusOK, toSessionResponse(intent))
}

// Send stores the pending message and notifies its recipient.
// A failed notification is reported in the response body; the message stays stored.
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	user, ok := web.GetUser(w, r, h.logger)
	if !ok {
		return
	}
	var req SendRequest
	if !h.decodeValid(w, r, h.logger, &req) {
		return
	}

	var receipt *service.SendReceipt
	send := workflow.SenderFunc(func(ctx context.Context, sender, recipient, product, body string) error {
		var err error
		receipt, err = h.messages.Send(ctx, sender, recipient, product, body)
		return err
	})
	if err := h.sessions.Get(user.Email, sessionID(r, user)).Send(r.Context(), send, user.Email, req.Text); err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to send message")
		return
	}

	resp := SendResponse{
		Message:      receipt.Message,
		Notification: NotificationStatus{Delivered: receipt.DeliveryErr == nil},
	}
	if receipt.DeliveryErr != nil {
		resp.Notification.Error = receipt.DeliveryErr.Error()
	}
	h.logger.InfoContext(r.Context(), "Message sent", "index", receipt.Message.Index, "delivered", resp.Notification.Delivered)
	web.RespondJSON(w, h.logger, http.StatusCreated, resp)
}
