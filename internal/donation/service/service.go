// Package service orchestrates donation intake: validate, dispatch to a
// payment strategy, then persist and notify on success.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"givegate/internal/donation/metrics"
	"givegate/internal/donation/models"
	"givegate/internal/donation/store"
	"givegate/internal/platform/events"
	dErrors "givegate/pkg/domain-errors"
)

// PaymentDispatcher selects and runs one payment strategy per request.
type PaymentDispatcher interface {
	Process(ctx context.Context, req *models.DonationRequest) *models.PaymentResult
}

// Notifier triggers the confirmation email. The implementation decides
// whether to run asynchronously; this service never waits on it.
type Notifier interface {
	SendConfirmation(ctx context.Context, req *models.DonationRequest, donationID string, result *models.PaymentResult)
}

// Service is the donation intake pipeline.
type Service struct {
	dispatcher PaymentDispatcher
	donors     store.DonorStore
	donations  store.DonationStore
	notifier   Notifier
	publisher  events.Publisher
	metrics    *metrics.Metrics
	logger     *slog.Logger
	now        func() time.Time
}

func New(
	dispatcher PaymentDispatcher,
	donors store.DonorStore,
	donations store.DonationStore,
	notifier Notifier,
	publisher events.Publisher,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		dispatcher: dispatcher,
		donors:     donors,
		donations:  donations,
		notifier:   notifier,
		publisher:  publisher,
		metrics:    m,
		logger:     logger,
		now:        time.Now,
	}
}

// Process runs one intake call end to end.
//
// Validation failures short-circuit before any vendor call. A failed payment
// result is returned as-is with nothing persisted and nobody notified. After
// a successful payment, a persistence failure surfaces as an internal error
// (no compensating action exists), while notification and event publishing
// stay best-effort.
func (s *Service) Process(ctx context.Context, req *models.DonationRequest) (*models.PaymentResult, error) {
	if err := req.Validate(); err != nil {
		if s.metrics != nil {
			s.metrics.ValidationFailures.Inc()
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "processing donation",
		"payment_method", string(req.PaymentMethod),
		"amount", req.Amount,
		"recurring", req.IsRecurring,
	)

	result := s.dispatcher.Process(ctx, req)
	if s.metrics != nil {
		s.metrics.IncrementProcessed(string(req.PaymentMethod), result.Success)
	}
	if !result.Success {
		return result, nil
	}

	donationID, err := s.recordDonation(ctx, req, result)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to persist successful donation",
			"payment_method", string(req.PaymentMethod),
			"error", err.Error(),
		)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record donation")
	}
	result.DonationID = donationID.String()

	// Confirmation email is fire-and-forget; the response never waits on it.
	s.notifier.SendConfirmation(ctx, req, result.DonationID, result)

	return result, nil
}

// recordDonation upserts the donor by email, appends the donation record, and
// bumps the donor's running total.
func (s *Service) recordDonation(ctx context.Context, req *models.DonationRequest, result *models.PaymentResult) (uuid.UUID, error) {
	now := s.now()
	amount, err := req.AmountValue()
	if err != nil {
		return uuid.Nil, err
	}

	donorID, err := s.upsertDonor(ctx, req, now)
	if err != nil {
		return uuid.Nil, err
	}

	donation := &models.DonationRecord{
		ID:            uuid.New(),
		DonorID:       donorID,
		Amount:        amount,
		Currency:      "USD",
		PaymentMethod: req.PaymentMethod,
		Status:        models.StatusPending,
		IsRecurring:   req.IsRecurring,
		Frequency:     req.Frequency,
		Message:       req.Message,
		IsAnonymous:   req.IsAnonymous,
		CreatedAt:     now,
		ProcessedAt:   &now,
	}
	// Exactly one method-specific external reference is populated.
	switch req.PaymentMethod {
	case models.MethodCreditCard:
		donation.StripePaymentIntentID = result.PaymentIntentID
	case models.MethodPayPal:
		donation.PayPalOrderID = result.PayPalOrderID
	case models.MethodBankTransfer:
		if result.BankTransferInstructions != nil {
			donation.BankTransferReference = result.BankTransferInstructions.Reference
		}
	}

	if err := s.donations.Create(ctx, donation); err != nil {
		return uuid.Nil, err
	}
	if err := s.donors.IncrementTotal(ctx, donorID, amount); err != nil {
		return uuid.Nil, err
	}

	s.publishCreated(ctx, donation)

	s.logger.InfoContext(ctx, "created donation record",
		"donation_id", donation.ID.String(),
		"donor_id", donorID.String(),
	)
	return donation.ID, nil
}

// upsertDonor creates a donor on first donation by a given email, otherwise
// overwrites contact fields and refreshes lastDonationAt. The email lookup is
// deliberately exact-match.
func (s *Service) upsertDonor(ctx context.Context, req *models.DonationRequest, now time.Time) (uuid.UUID, error) {
	existing, err := s.donors.FindByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return uuid.Nil, err
	}

	if existing != nil {
		existing.FirstName = req.FirstName
		existing.LastName = req.LastName
		existing.Phone = req.Phone
		existing.Address1 = req.Address1
		existing.Address2 = req.Address2
		existing.City = req.City
		existing.State = req.State
		existing.ZipCode = req.ZipCode
		existing.Country = req.Country
		existing.LastDonationAt = now
		if err := s.donors.Update(ctx, existing); err != nil {
			return uuid.Nil, err
		}
		s.logger.InfoContext(ctx, "updated existing donor", "donor_id", existing.ID.String())
		return existing.ID, nil
	}

	donor := &models.Donor{
		ID:             uuid.New(),
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Email:          req.Email,
		Phone:          req.Phone,
		Address1:       req.Address1,
		Address2:       req.Address2,
		City:           req.City,
		State:          req.State,
		ZipCode:        req.ZipCode,
		Country:        req.Country,
		CreatedAt:      now,
		LastDonationAt: now,
	}
	if err := s.donors.Create(ctx, donor); err != nil {
		return uuid.Nil, err
	}
	s.logger.InfoContext(ctx, "created new donor", "donor_id", donor.ID.String())
	return donor.ID, nil
}

func (s *Service) publishCreated(ctx context.Context, donation *models.DonationRecord) {
	if s.publisher == nil {
		return
	}
	// Best-effort; the publisher logs its own failures.
	_ = s.publisher.PublishDonationCreated(ctx, events.DonationCreated{
		DonationID:    donation.ID.String(),
		DonorID:       donation.DonorID.String(),
		Amount:        strconv.FormatFloat(donation.Amount, 'f', 2, 64),
		Currency:      donation.Currency,
		PaymentMethod: string(donation.PaymentMethod),
		IsRecurring:   donation.IsRecurring,
		Timestamp:     donation.CreatedAt.UTC(),
	})
}
