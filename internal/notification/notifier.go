package notification

import (
	"context"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"givegate/internal/donation/models"
)

// Notifier owns the fire-and-forget policy around the mailer. With Async set,
// SendConfirmation dispatches a goroutine and returns immediately; the HTTP
// response never waits on mail delivery. Tests run synchronously so delivery
// can be asserted deterministically.
type Notifier struct {
	mailer Mailer
	logger *slog.Logger
	async  bool

	// errCounter counts failed sends; nil disables the metric.
	errCounter prometheus.Counter

	// wg lets tests and shutdown wait for in-flight sends.
	wg sync.WaitGroup
}

func NewNotifier(mailer Mailer, logger *slog.Logger, async bool) *Notifier {
	return &Notifier{mailer: mailer, logger: logger, async: async}
}

// WithErrorCounter attaches a counter incremented on every failed send.
func (n *Notifier) WithErrorCounter(counter prometheus.Counter) *Notifier {
	n.errCounter = counter
	return n
}

// SendConfirmation delivers the donation confirmation. Failures are logged
// and swallowed; they never reach the caller.
func (n *Notifier) SendConfirmation(ctx context.Context, req *models.DonationRequest, donationID string, result *models.PaymentResult) {
	email, err := RenderConfirmation(req, donationID, result)
	if err != nil {
		n.logger.ErrorContext(ctx, "confirmation email render failed",
			"donation_id", donationID,
			"error", err.Error(),
		)
		return
	}
	n.dispatch(ctx, email, donationID)
}

// SendFailure delivers a payment-failure notice, same best-effort policy.
func (n *Notifier) SendFailure(ctx context.Context, req *models.DonationRequest, reason string) {
	email, err := RenderFailure(req, reason)
	if err != nil {
		n.logger.ErrorContext(ctx, "failure email render failed", "error", err.Error())
		return
	}
	n.dispatch(ctx, email, "")
}

func (n *Notifier) dispatch(ctx context.Context, email Email, donationID string) {
	send := func() {
		if err := n.mailer.Send(email); err != nil {
			if n.errCounter != nil {
				n.errCounter.Inc()
			}
			n.logger.ErrorContext(ctx, "email sending failed",
				"to", email.To,
				"donation_id", donationID,
				"error", err.Error(),
			)
			return
		}
		n.logger.InfoContext(ctx, "email sent", "to", email.To)
	}

	if !n.async {
		send()
		return
	}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		send()
	}()
}

// Wait blocks until all dispatched sends finish. Used by shutdown and tests.
func (n *Notifier) Wait() {
	n.wg.Wait()
}
