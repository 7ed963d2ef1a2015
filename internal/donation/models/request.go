package models

import (
	"net/mail"
	"strconv"

	dErrors "givegate/pkg/domain-errors"
)

// DonationRequest is the externally supplied intake payload. Amount stays a
// string end to end; strategies convert it at their own precision.
type DonationRequest struct {
	Amount        string        `json:"amount"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`

	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`

	// Billing address, required only for credit-card payments.
	Address1 string `json:"address1,omitempty"`
	Address2 string `json:"address2,omitempty"`
	City     string `json:"city,omitempty"`
	State    string `json:"state,omitempty"`
	ZipCode  string `json:"zipCode,omitempty"`
	Country  string `json:"country,omitempty"`

	IsRecurring bool      `json:"isRecurring"`
	Frequency   Frequency `json:"frequency,omitempty"`
	Message     string    `json:"message,omitempty"`
	IsAnonymous bool      `json:"isAnonymous"`
}

// AmountValue parses the decimal amount. Callers must have validated first.
func (r *DonationRequest) AmountValue() (float64, error) {
	return strconv.ParseFloat(r.Amount, 64)
}

// FullName is the donor's display name used in vendor descriptions and email.
func (r *DonationRequest) FullName() string {
	return r.FirstName + " " + r.LastName
}

// Validate enforces the intake rules and accumulates every field-level
// violation into a single validation error. Unset booleans already default to
// false through JSON decoding.
//
// The billing-address rule is conditional: address fields are required iff the
// payment method is credit-card, and a violation is attributed to address1 for
// display purposes.
func (r *DonationRequest) Validate() error {
	var violations []dErrors.FieldViolation
	add := func(field, message string) {
		violations = append(violations, dErrors.FieldViolation{Field: field, Message: message})
	}

	if amount, err := strconv.ParseFloat(r.Amount, 64); err != nil || amount <= 0 {
		add("amount", "Amount must be a positive number")
	}

	if !r.PaymentMethod.Valid() {
		add("paymentMethod", "Payment method must be one of credit-card, paypal, bank-transfer")
	}

	if r.FirstName == "" {
		add("firstName", "First name is required")
	}
	if r.LastName == "" {
		add("lastName", "Last name is required")
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		add("email", "Valid email is required")
	}
	if len(r.Phone) < 10 {
		add("phone", "Valid phone number is required")
	}

	if r.PaymentMethod == MethodCreditCard {
		if r.Address1 == "" || r.City == "" || r.State == "" || r.ZipCode == "" {
			add("address1", "Billing address is required for credit card payments")
		}
	}

	if len(violations) > 0 {
		return dErrors.NewValidation(violations)
	}
	return nil
}
