package contact

import (
	"encoding/json"
	"html"
	"log/slog"
	"net/http"
	"net/mail"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"givegate/internal/notification"
	dErrors "givegate/pkg/domain-errors"
	"givegate/pkg/httputil"
)

// Handler handles the contact-form endpoints.
type Handler struct {
	logger *slog.Logger
	store  Store

	// mailer forwards submissions to staff; nil disables forwarding.
	mailer  notification.Mailer
	staffTo string
}

// NewHandler creates a new contact Handler. staffTo is the inbox submissions
// are forwarded to; leave empty to store without forwarding.
func NewHandler(store Store, mailer notification.Mailer, staffTo string, logger *slog.Logger) *Handler {
	return &Handler{
		logger:  logger,
		store:   store,
		mailer:  mailer,
		staffTo: staffTo,
	}
}

// Register registers the contact routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/contact", h.handleSubmit)
	r.Get("/contact", h.handleList)
}

type submitRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Message  string `json:"message"`
}

func (r *submitRequest) validate() error {
	var violations []dErrors.FieldViolation
	if r.FullName == "" {
		violations = append(violations, dErrors.FieldViolation{Field: "fullName", Message: "Full name is required"})
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		violations = append(violations, dErrors.FieldViolation{Field: "email", Message: "Valid email is required"})
	}
	if r.Message == "" {
		violations = append(violations, dErrors.FieldViolation{Field: "message", Message: "Message is required"})
	}
	if len(violations) > 0 {
		return dErrors.NewValidation(violations)
	}
	return nil
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := req.validate(); err != nil {
		h.logger.WarnContext(ctx, "contact submission rejected", "error", err.Error())
		httputil.WriteJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"message": "Please fill out all required fields correctly.",
		})
		return
	}

	msg := &Message{
		ID:        uuid.New(),
		FullName:  req.FullName,
		Email:     req.Email,
		Message:   req.Message,
		CreatedAt: time.Now(),
	}
	if err := h.store.Create(ctx, msg); err != nil {
		h.logger.ErrorContext(ctx, "failed to store contact message", "error", err.Error())
		httputil.WriteJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"message": "Sorry, there was an error sending your message. Please try again.",
		})
		return
	}

	h.logger.InfoContext(ctx, "new contact message",
		"from", msg.FullName,
		"email", msg.Email,
	)
	h.forward(msg)

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Thank you for your message! We'll get back to you soon.",
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	messages, err := h.store.List(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list contact messages", "error", err.Error())
		httputil.WriteJSON(w, http.StatusInternalServerError, map[string]string{"message": "Error fetching messages"})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, messages)
}

// forward mails the submission to staff, best-effort.
func (h *Handler) forward(msg *Message) {
	if h.mailer == nil || h.staffTo == "" {
		return
	}
	err := h.mailer.Send(notification.Email{
		To:      h.staffTo,
		Subject: "New contact message from " + msg.FullName,
		Text:    "From: " + msg.FullName + " <" + msg.Email + ">\n\n" + msg.Message,
		HTML: "<p><strong>From:</strong> " + html.EscapeString(msg.FullName) +
			" &lt;" + html.EscapeString(msg.Email) + "&gt;</p><p>" + html.EscapeString(msg.Message) + "</p>",
	})
	if err != nil {
		h.logger.Warn("contact forwarding failed", "error", err.Error())
	}
}
