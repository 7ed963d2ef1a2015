package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "givegate/pkg/domain-errors"
)

func validRequest() *DonationRequest {
	return &DonationRequest{
		Amount:        "50.00",
		PaymentMethod: MethodPayPal,
		FirstName:     "Maria",
		LastName:      "Santos",
		Email:         "maria@example.com",
		Phone:         "5551234567",
	}
}

func violatedFields(t *testing.T, err error) []string {
	t.Helper()
	var de *dErrors.Error
	require.ErrorAs(t, err, &de)
	require.Equal(t, dErrors.CodeValidation, de.Code)
	fields := make([]string, 0, len(de.Fields))
	for _, v := range de.Fields {
		fields = append(fields, v.Field)
	}
	return fields
}

// TestValidateAcceptsWellFormedRequest verifies the happy path for each
// payment method.
func TestValidateAcceptsWellFormedRequest(t *testing.T) {
	t.Run("paypal", func(t *testing.T) {
		require.NoError(t, validRequest().Validate())
	})

	t.Run("bank transfer", func(t *testing.T) {
		req := validRequest()
		req.PaymentMethod = MethodBankTransfer
		require.NoError(t, req.Validate())
	})

	t.Run("credit card with billing address", func(t *testing.T) {
		req := validRequest()
		req.PaymentMethod = MethodCreditCard
		req.Address1 = "123 Main St"
		req.City = "Austin"
		req.State = "TX"
		req.ZipCode = "78701"
		require.NoError(t, req.Validate())
	})
}

// TestValidateFieldRules exercises each rule in isolation.
func TestValidateFieldRules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*DonationRequest)
		field  string
	}{
		{"zero amount", func(r *DonationRequest) { r.Amount = "0" }, "amount"},
		{"negative amount", func(r *DonationRequest) { r.Amount = "-5" }, "amount"},
		{"non-numeric amount", func(r *DonationRequest) { r.Amount = "ten" }, "amount"},
		{"empty amount", func(r *DonationRequest) { r.Amount = "" }, "amount"},
		{"unknown payment method", func(r *DonationRequest) { r.PaymentMethod = "crypto" }, "paymentMethod"},
		{"empty payment method", func(r *DonationRequest) { r.PaymentMethod = "" }, "paymentMethod"},
		{"missing first name", func(r *DonationRequest) { r.FirstName = "" }, "firstName"},
		{"missing last name", func(r *DonationRequest) { r.LastName = "" }, "lastName"},
		{"malformed email", func(r *DonationRequest) { r.Email = "not-an-email" }, "email"},
		{"empty email", func(r *DonationRequest) { r.Email = "" }, "email"},
		{"short phone", func(r *DonationRequest) { r.Phone = "12345" }, "phone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(req)
			err := req.Validate()
			require.Error(t, err)
			assert.Contains(t, violatedFields(t, err), tt.field)
		})
	}
}

// TestValidateBillingAddressConditional verifies the address requirement is
// scoped to credit-card payments and attributed to address1.
func TestValidateBillingAddressConditional(t *testing.T) {
	t.Run("credit card without address fails", func(t *testing.T) {
		req := validRequest()
		req.PaymentMethod = MethodCreditCard
		err := req.Validate()
		require.Error(t, err)
		assert.Equal(t, []string{"address1"}, violatedFields(t, err))
	})

	t.Run("partial address still fails", func(t *testing.T) {
		req := validRequest()
		req.PaymentMethod = MethodCreditCard
		req.Address1 = "123 Main St"
		req.City = "Austin"
		// state and zip missing
		err := req.Validate()
		require.Error(t, err)
		assert.Contains(t, violatedFields(t, err), "address1")
	})

	t.Run("paypal never requires address", func(t *testing.T) {
		req := validRequest()
		req.Address1 = ""
		require.NoError(t, req.Validate())
	})
}

// TestValidateAccumulatesViolations verifies multiple failing fields surface
// in a single error rather than short-circuiting.
func TestValidateAccumulatesViolations(t *testing.T) {
	req := &DonationRequest{}
	err := req.Validate()
	require.Error(t, err)

	fields := violatedFields(t, err)
	assert.ElementsMatch(t,
		[]string{"amount", "paymentMethod", "firstName", "lastName", "email", "phone"},
		fields,
	)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestFullName(t *testing.T) {
	req := validRequest()
	assert.Equal(t, "Maria Santos", req.FullName())
}
