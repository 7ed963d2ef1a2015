// Package payment implements the three payment strategies and the dispatch
// that selects between them. Each strategy talks to its vendor through an
// injected client so tests can substitute doubles; no package-level vendor
// singletons exist.
package payment

import (
	"context"
	"log/slog"
	"math"
	"strconv"

	"givegate/internal/donation/models"
)

// Strategy is one payment-method-specific processing path. A strategy either
// returns a result (success or failure case) or an error; the dispatcher
// treats an error identically to a failure result.
type Strategy interface {
	Process(ctx context.Context, req *models.DonationRequest) (*models.PaymentResult, error)
}

// Dispatcher selects exactly one strategy per intake call by payment method.
type Dispatcher struct {
	card   Strategy
	wallet Strategy
	bank   Strategy
	logger *slog.Logger
}

func NewDispatcher(card, wallet, bank Strategy, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{card: card, wallet: wallet, bank: bank, logger: logger}
}

// Process invokes the strategy for the request's payment method. The method
// enum was validated upstream, so the default arm is defensive only; it still
// answers with a failure result rather than panicking.
func (d *Dispatcher) Process(ctx context.Context, req *models.DonationRequest) *models.PaymentResult {
	var strategy Strategy
	switch req.PaymentMethod {
	case models.MethodCreditCard:
		strategy = d.card
	case models.MethodPayPal:
		strategy = d.wallet
	case models.MethodBankTransfer:
		strategy = d.bank
	default:
		d.logger.ErrorContext(ctx, "dispatch reached with unvalidated payment method",
			"payment_method", string(req.PaymentMethod),
		)
		return models.Failure("Invalid payment method")
	}

	result, err := strategy.Process(ctx, req)
	if err != nil {
		d.logger.ErrorContext(ctx, "payment strategy error",
			"payment_method", string(req.PaymentMethod),
			"error", err.Error(),
		)
		return models.Failure("Payment processing failed")
	}
	return result
}

// MinorUnits converts a decimal amount string to integer cents, rounding the
// float64 product to the nearest integer. "19.99" yields 1999.
func MinorUnits(amount string) (int64, error) {
	value, err := strconv.ParseFloat(amount, 64)
	if err != nil {
		return 0, err
	}
	return int64(math.Round(value * 100)), nil
}
