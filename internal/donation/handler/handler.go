// Package handler exposes the donation intake over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"givegate/internal/donation/models"
	dErrors "givegate/pkg/domain-errors"
	"givegate/pkg/httputil"
)

// Service defines the interface for donation intake operations.
type Service interface {
	Process(ctx context.Context, req *models.DonationRequest) (*models.PaymentResult, error)
}

// Handler handles the donation endpoints.
type Handler struct {
	logger    *slog.Logger
	donations Service
	limiter   func(http.Handler) http.Handler
}

// New creates a new donation Handler. limiter is the rate-limit middleware for
// the public intake route; pass nil to disable.
func New(donations Service, logger *slog.Logger, limiter func(http.Handler) http.Handler) *Handler {
	return &Handler{
		logger:    logger,
		donations: donations,
		limiter:   limiter,
	}
}

// Register registers the donation routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(gr chi.Router) {
		if h.limiter != nil {
			gr.Use(h.limiter)
		}
		gr.Post("/donations/process", h.handleProcess)
		// The hosted form issues GET preflights on some browsers; tolerate them.
		gr.Get("/donations/process", h.handleProcess)
	})
}

// processFailure is the 400-level body for rejected intake calls. Validation
// failures name the first offending field.
type processFailure struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Field   string `json:"field,omitempty"`
}

func (h *Handler) handleProcess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.DonationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid donation request body", "error", err.Error())
		httputil.WriteJSON(w, http.StatusBadRequest, processFailure{Error: "Invalid request body"})
		return
	}

	result, err := h.donations.Process(ctx, &req)
	if err != nil {
		var de *dErrors.Error
		if dErrors.HasCode(err, dErrors.CodeValidation) && errors.As(err, &de) {
			h.logger.WarnContext(ctx, "donation request rejected", "error", err.Error())
			failure := processFailure{Error: "Validation failed"}
			if len(de.Fields) > 0 {
				failure.Error = de.Fields[0].Message
				failure.Field = de.Fields[0].Field
			}
			httputil.WriteJSON(w, http.StatusBadRequest, failure)
			return
		}

		h.logger.ErrorContext(ctx, "donation processing failed", "error", err.Error())
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to process donation"))
		return
	}

	if !result.Success {
		httputil.WriteJSON(w, http.StatusBadRequest, result)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}
