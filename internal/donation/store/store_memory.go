package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"givegate/internal/donation/models"
)

// In-memory stores back the service when no database is configured and keep
// tests hermetic. They intentionally favor clarity over performance.

type MemoryDonorStore struct {
	mu      sync.RWMutex
	byEmail map[string]*models.Donor
}

func NewMemoryDonorStore() *MemoryDonorStore {
	return &MemoryDonorStore{byEmail: make(map[string]*models.Donor)}
}

func (s *MemoryDonorStore) FindByEmail(_ context.Context, email string) (*models.Donor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if donor, ok := s.byEmail[email]; ok {
		copied := *donor
		return &copied, nil
	}
	return nil, ErrNotFound
}

func (s *MemoryDonorStore) Create(_ context.Context, donor *models.Donor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *donor
	s.byEmail[donor.Email] = &copied
	return nil
}

func (s *MemoryDonorStore) Update(_ context.Context, donor *models.Donor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.byEmail[donor.Email]
	if !ok {
		return ErrNotFound
	}
	copied := *donor
	copied.TotalDonated = existing.TotalDonated
	copied.CreatedAt = existing.CreatedAt
	s.byEmail[donor.Email] = &copied
	return nil
}

func (s *MemoryDonorStore) IncrementTotal(_ context.Context, donorID uuid.UUID, amount float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, donor := range s.byEmail {
		if donor.ID == donorID {
			donor.TotalDonated += amount
			return nil
		}
	}
	return ErrNotFound
}

type MemoryDonationStore struct {
	mu        sync.RWMutex
	donations map[uuid.UUID]*models.DonationRecord
}

func NewMemoryDonationStore() *MemoryDonationStore {
	return &MemoryDonationStore{donations: make(map[uuid.UUID]*models.DonationRecord)}
}

func (s *MemoryDonationStore) Create(_ context.Context, donation *models.DonationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *donation
	s.donations[donation.ID] = &copied
	return nil
}

func (s *MemoryDonationStore) FindByReference(_ context.Context, method models.PaymentMethod, reference string) (*models.DonationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if donation := s.findLocked(method, reference); donation != nil {
		copied := *donation
		return &copied, nil
	}
	return nil, ErrNotFound
}

func (s *MemoryDonationStore) UpdateStatusByReference(_ context.Context, method models.PaymentMethod, reference string, status models.DonationStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	donation := s.findLocked(method, reference)
	if donation == nil {
		return ErrNotFound
	}
	donation.Status = status
	return nil
}

func (s *MemoryDonationStore) findLocked(method models.PaymentMethod, reference string) *models.DonationRecord {
	for _, donation := range s.donations {
		if donation.PaymentMethod != method {
			continue
		}
		if externalReference(donation) == reference {
			return donation
		}
	}
	return nil
}

func externalReference(donation *models.DonationRecord) string {
	switch donation.PaymentMethod {
	case models.MethodCreditCard:
		return donation.StripePaymentIntentID
	case models.MethodPayPal:
		return donation.PayPalOrderID
	case models.MethodBankTransfer:
		return donation.BankTransferReference
	}
	return ""
}
