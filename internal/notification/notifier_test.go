package notification

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"givegate/internal/donation/models"
)

// captureMailer records sent mail and optionally fails.
type captureMailer struct {
	mu   sync.Mutex
	sent []Email
	err  error
}

func (m *captureMailer) Send(email Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, email)
	return nil
}

func (m *captureMailer) all() []Email {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Email(nil), m.sent...)
}

func confirmationRequest() *models.DonationRequest {
	return &models.DonationRequest{
		Amount:        "50",
		PaymentMethod: models.MethodCreditCard,
		FirstName:     "Maria",
		LastName:      "Santos",
		Email:         "maria@example.com",
		Phone:         "5551234567",
	}
}

// TestSendConfirmationSync verifies the rendered confirmation reaches the
// mailer with both bodies populated.
func TestSendConfirmationSync(t *testing.T) {
	mailer := &captureMailer{}
	n := NewNotifier(mailer, slog.New(slog.NewTextHandler(io.Discard, nil)), false)

	n.SendConfirmation(context.Background(), confirmationRequest(), "don-1", &models.PaymentResult{Success: true})

	sent := mailer.all()
	require.Len(t, sent, 1)
	assert.Equal(t, "maria@example.com", sent[0].To)
	assert.Equal(t, "Thank you for your donation - Adelante Story Foundation", sent[0].Subject)
	assert.Contains(t, sent[0].HTML, "Maria Santos")
	assert.Contains(t, sent[0].HTML, "don-1")
	assert.Contains(t, sent[0].Text, "don-1")
}

// TestSendConfirmationAsync verifies goroutine dispatch completes under Wait.
func TestSendConfirmationAsync(t *testing.T) {
	mailer := &captureMailer{}
	n := NewNotifier(mailer, slog.New(slog.NewTextHandler(io.Discard, nil)), true)

	n.SendConfirmation(context.Background(), confirmationRequest(), "don-2", &models.PaymentResult{Success: true})
	n.Wait()

	require.Len(t, mailer.all(), 1)
}

// TestMailerFailureIsSwallowed verifies delivery errors never escape the
// notifier.
func TestMailerFailureIsSwallowed(t *testing.T) {
	mailer := &captureMailer{err: errors.New("smtp timeout")}
	n := NewNotifier(mailer, slog.New(slog.NewTextHandler(io.Discard, nil)), false)

	n.SendConfirmation(context.Background(), confirmationRequest(), "don-3", &models.PaymentResult{Success: true})

	assert.Empty(t, mailer.all())
}

// TestSendFailureNotice verifies the failure notice path end to end.
func TestSendFailureNotice(t *testing.T) {
	mailer := &captureMailer{}
	n := NewNotifier(mailer, slog.New(slog.NewTextHandler(io.Discard, nil)), false)

	n.SendFailure(context.Background(), confirmationRequest(), "Your card was declined.")

	sent := mailer.all()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].Subject, "We could not process your donation")
}

// TestRenderConfirmationVariants pins the recurring subject and the embedded
// bank instructions.
func TestRenderConfirmationVariants(t *testing.T) {
	t.Run("recurring subject and frequency", func(t *testing.T) {
		req := confirmationRequest()
		req.IsRecurring = true
		req.Frequency = models.FrequencyMonthly

		email, err := RenderConfirmation(req, "don-4", &models.PaymentResult{Success: true})
		require.NoError(t, err)
		assert.Equal(t, "Thank you for your recurring donation - Adelante Story Foundation", email.Subject)
		assert.Contains(t, email.HTML, "monthly recurring donation")
		assert.Contains(t, email.Text, "Frequency: monthly")
	})

	t.Run("bank instructions embedded", func(t *testing.T) {
		req := confirmationRequest()
		req.PaymentMethod = models.MethodBankTransfer

		result := &models.PaymentResult{
			Success: true,
			BankTransferInstructions: &models.BankTransferInstructions{
				Reference:    "ASF-1756700000000-AB12CD34",
				Instructions: "Transfer Instructions:\n- Reference: ASF-1756700000000-AB12CD34",
			},
		}

		email, err := RenderConfirmation(req, "don-5", result)
		require.NoError(t, err)
		assert.Contains(t, email.HTML, "ASF-1756700000000-AB12CD34")
		assert.Contains(t, email.Text, "ASF-1756700000000-AB12CD34")
		assert.Contains(t, email.HTML, "Bank Transfer")
	})

	t.Run("donor message quoted", func(t *testing.T) {
		req := confirmationRequest()
		req.Message = "In memory of my grandmother"

		email, err := RenderConfirmation(req, "don-6", &models.PaymentResult{Success: true})
		require.NoError(t, err)
		assert.Contains(t, email.HTML, "In memory of my grandmother")
	})
}

// TestRenderFailure covers the payment-failure notice.
func TestRenderFailure(t *testing.T) {
	email, err := RenderFailure(confirmationRequest(), "Your card was declined.")
	require.NoError(t, err)
	assert.Equal(t, "We could not process your donation - Adelante Story Foundation", email.Subject)
	assert.Contains(t, email.HTML, "Your card was declined.")
	assert.Contains(t, email.Text, "Your card was declined.")
}
