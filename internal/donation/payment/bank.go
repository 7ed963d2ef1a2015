package payment

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"givegate/internal/donation/models"
)

// ReferencePrefix tags every bank-transfer reference so inbound transfers can
// be matched to donations from bank statements.
const ReferencePrefix = "ASF"

// BankAccount is the static receiving account rendered into instructions.
type BankAccount struct {
	AccountName   string
	AccountNumber string
	RoutingNumber string
	BankName      string
}

// BankTransferStrategy synthesizes transfer instructions without contacting
// any external service. Confirmation of receipt happens out of band.
type BankTransferStrategy struct {
	account BankAccount
	logger  *slog.Logger
	now     func() time.Time
}

func NewBankTransferStrategy(account BankAccount, logger *slog.Logger) *BankTransferStrategy {
	return &BankTransferStrategy{account: account, logger: logger, now: time.Now}
}

func (s *BankTransferStrategy) Process(ctx context.Context, req *models.DonationRequest) (*models.PaymentResult, error) {
	reference := s.newReference()

	s.logger.InfoContext(ctx, "generated bank transfer reference",
		"reference", reference,
		"amount", req.Amount,
	)

	instructions := &models.BankTransferInstructions{
		AccountNumber: s.account.AccountNumber,
		RoutingNumber: s.account.RoutingNumber,
		AccountName:   s.account.AccountName,
		BankName:      s.account.BankName,
		Reference:     reference,
		Instructions:  s.renderInstructions(req, reference),
	}

	return &models.PaymentResult{
		Success:                  true,
		BankTransferInstructions: instructions,
	}, nil
}

// newReference builds a unique human-presentable reference: fixed prefix,
// millisecond timestamp, and an upper-cased 8-character random suffix.
func (s *BankTransferStrategy) newReference() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("%s-%d-%s", ReferencePrefix, s.now().UnixMilli(), suffix)
}

func (s *BankTransferStrategy) renderInstructions(req *models.DonationRequest, reference string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Please include the reference number %q in your transfer memo/description.\n\n", reference)
	b.WriteString("Transfer Instructions:\n")
	fmt.Fprintf(&b, "- Account Name: %s\n", s.account.AccountName)
	fmt.Fprintf(&b, "- Account Number: %s\n", s.account.AccountNumber)
	fmt.Fprintf(&b, "- Routing Number: %s\n", s.account.RoutingNumber)
	fmt.Fprintf(&b, "- Bank Name: %s\n", s.account.BankName)
	fmt.Fprintf(&b, "- Transfer Amount: $%s\n", req.Amount)
	fmt.Fprintf(&b, "- Reference: %s\n\n", reference)
	b.WriteString("IMPORTANT:\n")
	fmt.Fprintf(&b, "- Include the reference number %q in your transfer description\n", reference)
	b.WriteString("- Transfers typically take 3-5 business days to process\n")
	b.WriteString("- You will receive an email confirmation once we receive your transfer\n")
	b.WriteString("- Keep this reference number for your records\n\n")
	b.WriteString("For questions about your transfer, please contact us at donations@adelantestory.com with your reference number.")

	if req.IsRecurring {
		frequency := frequencyOrDefault(req.Frequency)
		fmt.Fprintf(&b, "\n\nRECURRING DONATION NOTE:\nThis is set up as a %s recurring donation. "+
			"Please set up automatic transfers with your bank using the above details and reference format: %q",
			frequency, ReferencePrefix+"-RECURRING-[MONTH/YEAR]")
	}

	return b.String()
}
