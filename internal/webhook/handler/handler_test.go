package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"givegate/internal/donation/models"
	"givegate/internal/donation/store"
)

const testWebhookSecret = "whsec_test_secret"

func newTestHandler(t *testing.T) (*chi.Mux, *store.MemoryDonationStore) {
	t.Helper()
	donations := store.NewMemoryDonationStore()
	router := chi.NewRouter()
	New(donations, testWebhookSecret, nil, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(router)
	return router, donations
}

func seedDonation(t *testing.T, donations *store.MemoryDonationStore, method models.PaymentMethod, reference string) {
	t.Helper()
	donation := &models.DonationRecord{
		ID:            uuid.New(),
		DonorID:       uuid.New(),
		Amount:        50,
		Currency:      "USD",
		PaymentMethod: method,
		Status:        models.StatusPending,
		CreatedAt:     time.Now(),
	}
	switch method {
	case models.MethodCreditCard:
		donation.StripePaymentIntentID = reference
	case models.MethodPayPal:
		donation.PayPalOrderID = reference
	case models.MethodBankTransfer:
		donation.BankTransferReference = reference
	}
	require.NoError(t, donations.Create(context.Background(), donation))
}

// signStripePayload builds a Stripe-Signature header the verifier accepts.
func signStripePayload(payload []byte, secret string, at time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", at.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func postStripe(router http.Handler, payload []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader(string(payload)))
	if signature != "" {
		req.Header.Set("Stripe-Signature", signature)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func stripeEventPayload(eventType, intentID string) []byte {
	return []byte(fmt.Sprintf(`{"id":"evt_1","type":%q,"data":{"object":{"id":%q,"object":"payment_intent"}}}`, eventType, intentID))
}

// TestStripeSignatureEnforcement verifies unsigned or badly signed payloads
// never reach the store.
func TestStripeSignatureEnforcement(t *testing.T) {
	router, donations := newTestHandler(t)
	seedDonation(t, donations, models.MethodCreditCard, "pi_123")
	payload := stripeEventPayload("payment_intent.succeeded", "pi_123")

	t.Run("missing signature", func(t *testing.T) {
		rec := postStripe(router, payload, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("wrong secret", func(t *testing.T) {
		rec := postStripe(router, payload, signStripePayload(payload, "whsec_other", time.Now()))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("stale timestamp", func(t *testing.T) {
		rec := postStripe(router, payload, signStripePayload(payload, testWebhookSecret, time.Now().Add(-time.Hour)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	donation, err := donations.FindByReference(context.Background(), models.MethodCreditCard, "pi_123")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, donation.Status)
}

// TestStripeEventRouting verifies known event types drive the matching
// status transitions.
func TestStripeEventRouting(t *testing.T) {
	tests := []struct {
		eventType string
		want      models.DonationStatus
	}{
		{"payment_intent.succeeded", models.StatusCompleted},
		{"payment_intent.payment_failed", models.StatusFailed},
	}

	for _, tt := range tests {
		t.Run(tt.eventType, func(t *testing.T) {
			router, donations := newTestHandler(t)
			seedDonation(t, donations, models.MethodCreditCard, "pi_123")

			payload := stripeEventPayload(tt.eventType, "pi_123")
			rec := postStripe(router, payload, signStripePayload(payload, testWebhookSecret, time.Now()))

			require.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, `{"received":true}`, rec.Body.String())

			donation, err := donations.FindByReference(context.Background(), models.MethodCreditCard, "pi_123")
			require.NoError(t, err)
			assert.Equal(t, tt.want, donation.Status)
		})
	}
}

// TestStripeInvoiceEvents verifies invoice events resolve the record through
// the invoice's payment intent.
func TestStripeInvoiceEvents(t *testing.T) {
	router, donations := newTestHandler(t)
	seedDonation(t, donations, models.MethodCreditCard, "pi_sub_1")

	payload := []byte(`{"id":"evt_2","type":"invoice.payment_succeeded","data":{"object":{"id":"in_1","object":"invoice","payment_intent":"pi_sub_1"}}}`)
	rec := postStripe(router, payload, signStripePayload(payload, testWebhookSecret, time.Now()))

	require.Equal(t, http.StatusOK, rec.Code)

	donation, err := donations.FindByReference(context.Background(), models.MethodCreditCard, "pi_sub_1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, donation.Status)
}

// TestStripeUnknownEventAcknowledged verifies unhandled types are acked so
// Stripe stops retrying.
func TestStripeUnknownEventAcknowledged(t *testing.T) {
	router, _ := newTestHandler(t)

	payload := stripeEventPayload("customer.created", "cus_1")
	rec := postStripe(router, payload, signStripePayload(payload, testWebhookSecret, time.Now()))

	assert.Equal(t, http.StatusOK, rec.Code)
}

// TestStripeUnknownReferenceAcknowledged verifies deliveries for records we
// never stored are logged and acked, not errored.
func TestStripeUnknownReferenceAcknowledged(t *testing.T) {
	router, _ := newTestHandler(t)

	payload := stripeEventPayload("payment_intent.succeeded", "pi_unknown")
	rec := postStripe(router, payload, signStripePayload(payload, testWebhookSecret, time.Now()))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func postPayPal(router http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/paypal", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// TestPayPalEventRouting verifies capture and subscription events drive the
// matching transitions, resolving the stored order or subscription id.
func TestPayPalEventRouting(t *testing.T) {
	tests := []struct {
		name      string
		reference string
		body      string
		want      models.DonationStatus
	}{
		{
			name:      "capture completed resolves order id",
			reference: "ORDER-1",
			body:      `{"event_type":"PAYMENT.CAPTURE.COMPLETED","resource":{"id":"CAPTURE-9","supplementary_data":{"related_ids":{"order_id":"ORDER-1"}}}}`,
			want:      models.StatusCompleted,
		},
		{
			name:      "capture denied",
			reference: "ORDER-2",
			body:      `{"event_type":"PAYMENT.CAPTURE.DENIED","resource":{"id":"CAPTURE-9","supplementary_data":{"related_ids":{"order_id":"ORDER-2"}}}}`,
			want:      models.StatusFailed,
		},
		{
			name:      "subscription payment resolves billing agreement",
			reference: "SUB-1",
			body:      `{"event_type":"BILLING.SUBSCRIPTION.PAYMENT.COMPLETED","resource":{"id":"PAY-1","billing_agreement_id":"SUB-1"}}`,
			want:      models.StatusCompleted,
		},
		{
			name:      "subscription cancelled uses resource id",
			reference: "SUB-2",
			body:      `{"event_type":"BILLING.SUBSCRIPTION.CANCELLED","resource":{"id":"SUB-2"}}`,
			want:      models.StatusCancelled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, donations := newTestHandler(t)
			seedDonation(t, donations, models.MethodPayPal, tt.reference)

			rec := postPayPal(router, tt.body)

			require.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, `{"received":true}`, rec.Body.String())

			donation, err := donations.FindByReference(context.Background(), models.MethodPayPal, tt.reference)
			require.NoError(t, err)
			assert.Equal(t, tt.want, donation.Status)
		})
	}
}

// TestPayPalRejectsMalformedDeliveries verifies bodies without a usable
// event_type are 400s.
func TestPayPalRejectsMalformedDeliveries(t *testing.T) {
	router, _ := newTestHandler(t)

	t.Run("invalid json", func(t *testing.T) {
		rec := postPayPal(router, "{not json")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing event_type", func(t *testing.T) {
		rec := postPayPal(router, `{"resource":{"id":"X"}}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown event acknowledged", func(t *testing.T) {
		rec := postPayPal(router, `{"event_type":"CHECKOUT.ORDER.APPROVED","resource":{"id":"ORDER-1"}}`)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
