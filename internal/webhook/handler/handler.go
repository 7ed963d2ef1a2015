// Package handler receives payment-vendor webhooks and applies the resulting
// donation status transitions.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/webhook"

	"givegate/internal/donation/metrics"
	"givegate/internal/donation/models"
	"givegate/internal/donation/store"
	dErrors "givegate/pkg/domain-errors"
	"givegate/pkg/httputil"
)

// Stripe caps webhook payloads at 64KB; anything larger is not ours.
const maxBodyBytes = int64(65536)

// Handler handles Stripe and PayPal webhook deliveries.
type Handler struct {
	logger        *slog.Logger
	donations     store.DonationStore
	metrics       *metrics.Metrics
	webhookSecret string
}

// New creates a new webhook Handler. webhookSecret is the Stripe endpoint
// signing secret.
func New(donations store.DonationStore, webhookSecret string, m *metrics.Metrics, logger *slog.Logger) *Handler {
	return &Handler{
		logger:        logger,
		donations:     donations,
		metrics:       m,
		webhookSecret: webhookSecret,
	}
}

// Register registers the webhook routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/webhooks/stripe", h.handleStripe)
	r.Post("/webhooks/paypal", h.handlePayPal)
}

func (h *Handler) handleStripe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "unreadable payload"))
		return
	}

	sig := r.Header.Get("Stripe-Signature")
	if sig == "" {
		h.logger.WarnContext(ctx, "stripe webhook missing signature")
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "missing stripe-signature header"))
		return
	}

	event, err := webhook.ConstructEvent(payload, sig, h.webhookSecret)
	if err != nil {
		h.logger.WarnContext(ctx, "stripe webhook signature verification failed", "error", err.Error())
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid signature"))
		return
	}

	if h.metrics != nil {
		h.metrics.WebhookEvents.WithLabelValues("stripe", string(event.Type)).Inc()
	}

	var updateErr error
	switch event.Type {
	case "payment_intent.succeeded":
		updateErr = h.updateByPaymentIntent(r, event, models.StatusCompleted)
	case "payment_intent.payment_failed":
		updateErr = h.updateByPaymentIntent(r, event, models.StatusFailed)
	case "invoice.payment_succeeded":
		updateErr = h.updateByInvoice(r, event, models.StatusCompleted)
	case "invoice.payment_failed":
		updateErr = h.updateByInvoice(r, event, models.StatusFailed)
	default:
		h.logger.InfoContext(ctx, "unhandled stripe event", "event_type", string(event.Type))
	}

	if updateErr != nil {
		h.logger.ErrorContext(ctx, "stripe webhook processing failed",
			"event_type", string(event.Type),
			"error", updateErr.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "webhook processing failed"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"received": true})
}

func (h *Handler) updateByPaymentIntent(r *http.Request, event stripe.Event, status models.DonationStatus) error {
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return err
	}
	return h.updateStatus(r, models.MethodCreditCard, intent.ID, status)
}

// updateByInvoice covers recurring charges. The invoice references the payment
// intent of the originating subscription's first charge only on the first
// cycle; later cycles have no matching record and are logged and acknowledged.
func (h *Handler) updateByInvoice(r *http.Request, event stripe.Event, status models.DonationStatus) error {
	var invoice stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		return err
	}
	if invoice.PaymentIntent == nil || invoice.PaymentIntent.ID == "" {
		h.logger.InfoContext(r.Context(), "stripe invoice event without payment intent",
			"invoice_id", invoice.ID,
		)
		return nil
	}
	return h.updateStatus(r, models.MethodCreditCard, invoice.PaymentIntent.ID, status)
}

// paypalEvent is the slice of a PayPal webhook body this handler reads.
// Signature verification is not implemented; deliveries are trusted as
// received.
type paypalEvent struct {
	EventType string `json:"event_type"`
	Resource  struct {
		ID                 string `json:"id"`
		BillingAgreementID string `json:"billing_agreement_id"`
		SupplementaryData  struct {
			RelatedIDs struct {
				OrderID string `json:"order_id"`
			} `json:"related_ids"`
		} `json:"supplementary_data"`
	} `json:"resource"`
}

// reference picks the identifier matching what intake stored: the order id for
// one-time captures, the subscription id for recurring payments.
func (e *paypalEvent) reference() string {
	if e.Resource.SupplementaryData.RelatedIDs.OrderID != "" {
		return e.Resource.SupplementaryData.RelatedIDs.OrderID
	}
	if e.Resource.BillingAgreementID != "" {
		return e.Resource.BillingAgreementID
	}
	return e.Resource.ID
}

func (h *Handler) handlePayPal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var event paypalEvent
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&event); err != nil {
		h.logger.WarnContext(ctx, "invalid paypal webhook body", "error", err.Error())
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid payload"))
		return
	}
	if event.EventType == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "missing event_type"))
		return
	}

	if h.metrics != nil {
		h.metrics.WebhookEvents.WithLabelValues("paypal", event.EventType).Inc()
	}

	var updateErr error
	switch event.EventType {
	case "PAYMENT.CAPTURE.COMPLETED", "BILLING.SUBSCRIPTION.PAYMENT.COMPLETED":
		updateErr = h.updateStatus(r, models.MethodPayPal, event.reference(), models.StatusCompleted)
	case "PAYMENT.CAPTURE.DENIED", "PAYMENT.CAPTURE.FAILED", "BILLING.SUBSCRIPTION.PAYMENT.FAILED":
		updateErr = h.updateStatus(r, models.MethodPayPal, event.reference(), models.StatusFailed)
	case "BILLING.SUBSCRIPTION.CANCELLED", "BILLING.SUBSCRIPTION.SUSPENDED":
		updateErr = h.updateStatus(r, models.MethodPayPal, event.reference(), models.StatusCancelled)
	default:
		h.logger.InfoContext(ctx, "unhandled paypal event", "event_type", event.EventType)
	}

	if updateErr != nil {
		h.logger.ErrorContext(ctx, "paypal webhook processing failed",
			"event_type", event.EventType,
			"error", updateErr.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "webhook processing failed"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"received": true})
}

// updateStatus applies a status transition. A missing record is logged and
// acknowledged so vendors do not retry deliveries we can never match.
func (h *Handler) updateStatus(r *http.Request, method models.PaymentMethod, reference string, status models.DonationStatus) error {
	ctx := r.Context()
	if reference == "" {
		h.logger.WarnContext(ctx, "webhook event without reference", "payment_method", string(method))
		return nil
	}

	err := h.donations.UpdateStatusByReference(ctx, method, reference, status)
	if errors.Is(err, store.ErrNotFound) {
		h.logger.WarnContext(ctx, "webhook references unknown donation",
			"payment_method", string(method),
			"reference", reference,
		)
		return nil
	}
	if err != nil {
		return err
	}

	h.logger.InfoContext(ctx, "donation status updated",
		"payment_method", string(method),
		"reference", reference,
		"status", string(status),
	)
	return nil
}
