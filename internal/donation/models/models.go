// Package models defines the donation domain types shared by the handler,
// service, payment strategies, and stores.
package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentMethod discriminates the intake dispatch.
type PaymentMethod string

const (
	MethodCreditCard   PaymentMethod = "credit-card"
	MethodPayPal       PaymentMethod = "paypal"
	MethodBankTransfer PaymentMethod = "bank-transfer"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCreditCard, MethodPayPal, MethodBankTransfer:
		return true
	}
	return false
}

// Frequency describes the recurrence of a recurring donation.
type Frequency string

const (
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyAnnually  Frequency = "annually"
)

// DonationStatus tracks a donation record's lifecycle. Transitions past
// pending belong to the webhook handlers.
type DonationStatus string

const (
	StatusPending   DonationStatus = "pending"
	StatusCompleted DonationStatus = "completed"
	StatusFailed    DonationStatus = "failed"
	StatusCancelled DonationStatus = "cancelled"
)

// Donor is the persisted identity of a donating person, keyed by email.
type Donor struct {
	ID             uuid.UUID
	FirstName      string
	LastName       string
	Email          string
	Phone          string
	Address1       string
	Address2       string
	City           string
	State          string
	ZipCode        string
	Country        string
	TotalDonated   float64
	CreatedAt      time.Time
	LastDonationAt time.Time
}

// DonationRecord is created once per successful intake call and never mutated
// by the intake path. At most one of the three external references is set.
type DonationRecord struct {
	ID                    uuid.UUID
	DonorID               uuid.UUID
	Amount                float64
	Currency              string
	PaymentMethod         PaymentMethod
	Status                DonationStatus
	StripePaymentIntentID string
	PayPalOrderID         string
	BankTransferReference string
	IsRecurring           bool
	Frequency             Frequency
	Message               string
	IsAnonymous           bool
	CreatedAt             time.Time
	ProcessedAt           *time.Time
}

// BankTransferInstructions is the human-presentable payload returned for
// bank-transfer donations.
type BankTransferInstructions struct {
	AccountNumber string `json:"accountNumber"`
	RoutingNumber string `json:"routingNumber"`
	AccountName   string `json:"accountName"`
	BankName      string `json:"bankName"`
	Reference     string `json:"reference"`
	Instructions  string `json:"instructions"`
}

// PaymentResult is the uniform outcome shape every strategy returns. Only the
// fields relevant to the processed method are populated.
type PaymentResult struct {
	Success                  bool                      `json:"success"`
	DonationID               string                    `json:"donationId,omitempty"`
	PaymentIntentID          string                    `json:"paymentIntentId,omitempty"`
	ClientSecret             string                    `json:"clientSecret,omitempty"`
	PayPalOrderID            string                    `json:"paypalOrderId,omitempty"`
	RedirectURL              string                    `json:"redirectUrl,omitempty"`
	BankTransferInstructions *BankTransferInstructions `json:"bankTransferInstructions,omitempty"`
	Error                    string                    `json:"error,omitempty"`
}

// Failure builds the failure case of the tagged outcome.
func Failure(message string) *PaymentResult {
	return &PaymentResult{Success: false, Error: message}
}
