package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"givegate/internal/donation/models"
)

// Postgres stores are pure I/O; upsert decisions and total bookkeeping rules
// live in the service.

type PostgresDonorStore struct {
	pool *pgxpool.Pool
}

func NewPostgresDonorStore(pool *pgxpool.Pool) *PostgresDonorStore {
	return &PostgresDonorStore{pool: pool}
}

func (s *PostgresDonorStore) FindByEmail(ctx context.Context, email string) (*models.Donor, error) {
	// Exact-match on email: no LOWER(), no trimming.
	query := `
		SELECT id, first_name, last_name, email, phone,
		       address1, address2, city, state, zip_code, country,
		       total_donated, created_at, last_donation_at
		FROM donors
		WHERE email = $1
	`
	var donor models.Donor
	err := s.pool.QueryRow(ctx, query, email).Scan(
		&donor.ID, &donor.FirstName, &donor.LastName, &donor.Email, &donor.Phone,
		&donor.Address1, &donor.Address2, &donor.City, &donor.State, &donor.ZipCode, &donor.Country,
		&donor.TotalDonated, &donor.CreatedAt, &donor.LastDonationAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find donor by email: %w", err)
	}
	return &donor, nil
}

func (s *PostgresDonorStore) Create(ctx context.Context, donor *models.Donor) error {
	query := `
		INSERT INTO donors (id, first_name, last_name, email, phone,
		                    address1, address2, city, state, zip_code, country,
		                    total_donated, created_at, last_donation_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := s.pool.Exec(ctx, query,
		donor.ID, donor.FirstName, donor.LastName, donor.Email, donor.Phone,
		donor.Address1, donor.Address2, donor.City, donor.State, donor.ZipCode, donor.Country,
		donor.TotalDonated, donor.CreatedAt, donor.LastDonationAt,
	)
	if err != nil {
		return fmt.Errorf("create donor: %w", err)
	}
	return nil
}

func (s *PostgresDonorStore) Update(ctx context.Context, donor *models.Donor) error {
	query := `
		UPDATE donors
		SET first_name = $2, last_name = $3, phone = $4,
		    address1 = $5, address2 = $6, city = $7, state = $8, zip_code = $9, country = $10,
		    last_donation_at = $11
		WHERE id = $1
	`
	tag, err := s.pool.Exec(ctx, query,
		donor.ID, donor.FirstName, donor.LastName, donor.Phone,
		donor.Address1, donor.Address2, donor.City, donor.State, donor.ZipCode, donor.Country,
		donor.LastDonationAt,
	)
	if err != nil {
		return fmt.Errorf("update donor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresDonorStore) IncrementTotal(ctx context.Context, donorID uuid.UUID, amount float64) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE donors SET total_donated = total_donated + $2 WHERE id = $1`,
		donorID, amount,
	)
	if err != nil {
		return fmt.Errorf("increment donor total: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type PostgresDonationStore struct {
	pool *pgxpool.Pool
}

func NewPostgresDonationStore(pool *pgxpool.Pool) *PostgresDonationStore {
	return &PostgresDonationStore{pool: pool}
}

func (s *PostgresDonationStore) Create(ctx context.Context, donation *models.DonationRecord) error {
	query := `
		INSERT INTO donations (id, donor_id, amount, currency, payment_method, status,
		                       stripe_payment_intent_id, paypal_order_id, bank_transfer_reference,
		                       is_recurring, frequency, message, is_anonymous,
		                       created_at, processed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := s.pool.Exec(ctx, query,
		donation.ID, donation.DonorID, donation.Amount, donation.Currency,
		donation.PaymentMethod, donation.Status,
		nullable(donation.StripePaymentIntentID), nullable(donation.PayPalOrderID), nullable(donation.BankTransferReference),
		donation.IsRecurring, nullable(string(donation.Frequency)), nullable(donation.Message), donation.IsAnonymous,
		donation.CreatedAt, donation.ProcessedAt,
	)
	if err != nil {
		return fmt.Errorf("create donation: %w", err)
	}
	return nil
}

func (s *PostgresDonationStore) FindByReference(ctx context.Context, method models.PaymentMethod, reference string) (*models.DonationRecord, error) {
	query := fmt.Sprintf(`
		SELECT id, donor_id, amount, currency, payment_method, status,
		       COALESCE(stripe_payment_intent_id, ''), COALESCE(paypal_order_id, ''), COALESCE(bank_transfer_reference, ''),
		       is_recurring, COALESCE(frequency, ''), COALESCE(message, ''), is_anonymous,
		       created_at, processed_at
		FROM donations
		WHERE payment_method = $1 AND %s = $2
	`, referenceColumn(method))

	var donation models.DonationRecord
	err := s.pool.QueryRow(ctx, query, method, reference).Scan(
		&donation.ID, &donation.DonorID, &donation.Amount, &donation.Currency,
		&donation.PaymentMethod, &donation.Status,
		&donation.StripePaymentIntentID, &donation.PayPalOrderID, &donation.BankTransferReference,
		&donation.IsRecurring, &donation.Frequency, &donation.Message, &donation.IsAnonymous,
		&donation.CreatedAt, &donation.ProcessedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find donation by reference: %w", err)
	}
	return &donation, nil
}

func (s *PostgresDonationStore) UpdateStatusByReference(ctx context.Context, method models.PaymentMethod, reference string, status models.DonationStatus) error {
	query := fmt.Sprintf(
		`UPDATE donations SET status = $3 WHERE payment_method = $1 AND %s = $2`,
		referenceColumn(method),
	)
	tag, err := s.pool.Exec(ctx, query, method, reference, status)
	if err != nil {
		return fmt.Errorf("update donation status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// referenceColumn maps a payment method to its mutually exclusive reference
// column. Values come from the PaymentMethod enum, never from user input.
func referenceColumn(method models.PaymentMethod) string {
	switch method {
	case models.MethodPayPal:
		return "paypal_order_id"
	case models.MethodBankTransfer:
		return "bank_transfer_reference"
	default:
		return "stripe_payment_intent_id"
	}
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
