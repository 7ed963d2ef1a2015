// Package store persists donors and donation records. Stores are
// interface-driven so the service can run against in-memory state in tests
// and Postgres in production without rewiring business code.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"givegate/internal/donation/models"
)

// ErrNotFound keeps store-level 404s consistent across implementations.
var ErrNotFound = errors.New("record not found")

// DonorStore manages donor identities keyed by email. Lookup is exact-match:
// no case folding or trimming is applied to the email.
type DonorStore interface {
	FindByEmail(ctx context.Context, email string) (*models.Donor, error)
	Create(ctx context.Context, donor *models.Donor) error
	Update(ctx context.Context, donor *models.Donor) error
	IncrementTotal(ctx context.Context, donorID uuid.UUID, amount float64) error
}

// DonationStore appends donation records and serves the webhook handlers'
// status transitions.
type DonationStore interface {
	Create(ctx context.Context, donation *models.DonationRecord) error
	FindByReference(ctx context.Context, method models.PaymentMethod, reference string) (*models.DonationRecord, error)
	UpdateStatusByReference(ctx context.Context, method models.PaymentMethod, reference string, status models.DonationStatus) error
}
