package payment

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"givegate/internal/donation/models"
)

var referencePattern = regexp.MustCompile(`^ASF-\d+-[A-Z0-9]{8}$`)

func testBankAccount() BankAccount {
	return BankAccount{
		AccountName:   "Adelante Story Foundation",
		AccountNumber: "123456789",
		RoutingNumber: "021000021",
		BankName:      "Chase Bank",
	}
}

func bankRequest() *models.DonationRequest {
	return &models.DonationRequest{
		Amount:        "100",
		PaymentMethod: models.MethodBankTransfer,
		FirstName:     "Maria",
		LastName:      "Santos",
		Email:         "maria@example.com",
		Phone:         "5551234567",
	}
}

// TestBankTransferAlwaysSucceeds verifies the strategy needs no vendor and
// returns complete instructions.
func TestBankTransferAlwaysSucceeds(t *testing.T) {
	strategy := NewBankTransferStrategy(testBankAccount(), testLogger())

	result, err := strategy.Process(context.Background(), bankRequest())

	require.NoError(t, err)
	require.True(t, result.Success)
	require.NotNil(t, result.BankTransferInstructions)

	instr := result.BankTransferInstructions
	assert.Equal(t, "123456789", instr.AccountNumber)
	assert.Equal(t, "021000021", instr.RoutingNumber)
	assert.Equal(t, "Adelante Story Foundation", instr.AccountName)
	assert.Equal(t, "Chase Bank", instr.BankName)
	assert.Regexp(t, referencePattern, instr.Reference)
	assert.Contains(t, instr.Instructions, instr.Reference)
	assert.Contains(t, instr.Instructions, "Transfer Amount: $100")
	assert.NotContains(t, instr.Instructions, "RECURRING DONATION NOTE")
}

// TestBankTransferRecurringAddendum verifies recurring requests get the
// standing-order note with the recurring reference format.
func TestBankTransferRecurringAddendum(t *testing.T) {
	strategy := NewBankTransferStrategy(testBankAccount(), testLogger())

	req := bankRequest()
	req.IsRecurring = true
	req.Frequency = models.FrequencyMonthly

	result, err := strategy.Process(context.Background(), req)

	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Contains(t, result.BankTransferInstructions.Instructions, "RECURRING DONATION NOTE")
	assert.Contains(t, result.BankTransferInstructions.Instructions, "monthly recurring donation")
	assert.Contains(t, result.BankTransferInstructions.Instructions, "ASF-RECURRING-[MONTH/YEAR]")
}

// TestBankReferenceUniqueness verifies references stay unique under volume,
// even with a frozen clock where only the random suffix varies.
func TestBankReferenceUniqueness(t *testing.T) {
	strategy := NewBankTransferStrategy(testBankAccount(), testLogger())
	frozen := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	strategy.now = func() time.Time { return frozen }

	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		ref := strategy.newReference()
		require.Regexp(t, referencePattern, ref)
		_, dup := seen[ref]
		require.False(t, dup, "duplicate reference %s", ref)
		seen[ref] = struct{}{}
	}
}
