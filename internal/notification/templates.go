package notification

import (
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"

	"givegate/internal/donation/models"
)

var confirmationHTML = template.Must(template.New("confirmation").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <div style="background: linear-gradient(135deg, #2563eb, #1d4ed8); padding: 30px; text-align: center;">
    <h1 style="color: white; margin: 0; font-size: 28px;">Thank You!</h1>
    <p style="color: white; margin: 10px 0 0 0; font-size: 16px;">Your generosity makes a difference</p>
  </div>
  <div style="padding: 30px; background: white;">
    <p style="font-size: 16px; color: #333;">Dear {{.FirstName}} {{.LastName}},</p>
    <p style="font-size: 16px; color: #333; line-height: 1.6;">
      Thank you so much for your generous donation of <strong>${{.Amount}}</strong> to Adelante Story Foundation.{{.RecurringText}}
    </p>
    <div style="background: #f3f4f6; padding: 20px; border-radius: 8px; margin: 20px 0;">
      <h3 style="margin: 0 0 15px 0; color: #1f2937;">Donation Details</h3>
      <p style="margin: 5px 0; color: #4b5563;"><strong>Amount:</strong> ${{.Amount}}</p>
      <p style="margin: 5px 0; color: #4b5563;"><strong>Payment Method:</strong> {{.PaymentMethod}}</p>
      <p style="margin: 5px 0; color: #4b5563;"><strong>Donation ID:</strong> {{.DonationID}}</p>
      <p style="margin: 5px 0; color: #4b5563;"><strong>Date:</strong> {{.Date}}</p>
      {{if .Frequency}}<p style="margin: 5px 0; color: #4b5563;"><strong>Frequency:</strong> {{.Frequency}}</p>{{end}}
    </div>
    {{if .Message}}
    <div style="background: #fef3c7; padding: 15px; border-radius: 8px; margin: 20px 0; border-left: 4px solid #f59e0b;">
      <p style="margin: 0; color: #92400e;"><strong>Your Message:</strong></p>
      <p style="margin: 5px 0 0 0; color: #92400e; font-style: italic;">&quot;{{.Message}}&quot;</p>
    </div>
    {{end}}
    {{if .BankInstructions}}
    <div style="background: #ecfdf5; padding: 20px; border-radius: 8px; margin: 20px 0;">
      <h3 style="margin: 0 0 10px 0; color: #065f46;">Bank Transfer Instructions</h3>
      <pre style="white-space: pre-wrap; font-family: inherit; color: #064e3b; margin: 0;">{{.BankInstructions}}</pre>
    </div>
    {{end}}
    <p style="font-size: 16px; color: #333; line-height: 1.6;">
      Your donation will help us continue our mission to empower communities through education,
      connection, and workforce development.
    </p>
  </div>
</div>`))

var failureHTML = template.Must(template.New("failure").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <div style="padding: 30px; background: white;">
    <p style="font-size: 16px; color: #333;">Dear {{.FirstName}} {{.LastName}},</p>
    <p style="font-size: 16px; color: #333; line-height: 1.6;">
      Unfortunately we could not process your donation of <strong>${{.Amount}}</strong>: {{.Reason}}
    </p>
    <p style="font-size: 16px; color: #333; line-height: 1.6;">
      No charge was made. Please try again or contact us at donations@adelantestory.com if the problem persists.
    </p>
  </div>
</div>`))

type confirmationData struct {
	FirstName        string
	LastName         string
	Amount           string
	PaymentMethod    string
	DonationID       string
	Date             string
	Frequency        string
	Message          string
	RecurringText    string
	BankInstructions string
}

// RenderConfirmation builds the confirmation email for a processed donation.
// The bank-transfer variant embeds the transfer instructions.
func RenderConfirmation(req *models.DonationRequest, donationID string, result *models.PaymentResult) (Email, error) {
	amount := formatAmount(req.Amount)

	data := confirmationData{
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Amount:        amount,
		PaymentMethod: methodDisplayName(req.PaymentMethod),
		DonationID:    donationID,
		Date:          time.Now().Format("January 2, 2006"),
		Message:       req.Message,
	}
	if req.IsRecurring {
		data.Frequency = string(req.Frequency)
		data.RecurringText = fmt.Sprintf(" This is a %s recurring donation.", req.Frequency)
	}
	if result.BankTransferInstructions != nil {
		data.BankInstructions = result.BankTransferInstructions.Instructions
	}

	var html strings.Builder
	if err := confirmationHTML.Execute(&html, data); err != nil {
		return Email{}, err
	}

	subject := "Thank you for your donation - Adelante Story Foundation"
	if req.IsRecurring {
		subject = "Thank you for your recurring donation - Adelante Story Foundation"
	}

	return Email{
		To:      req.Email,
		Subject: subject,
		HTML:    html.String(),
		Text:    confirmationText(data),
	}, nil
}

// RenderFailure builds the payment-failure notice.
func RenderFailure(req *models.DonationRequest, reason string) (Email, error) {
	data := struct {
		FirstName, LastName, Amount, Reason string
	}{req.FirstName, req.LastName, formatAmount(req.Amount), reason}

	var html strings.Builder
	if err := failureHTML.Execute(&html, data); err != nil {
		return Email{}, err
	}

	text := fmt.Sprintf("Dear %s %s,\n\nUnfortunately we could not process your donation of $%s: %s\n\n"+
		"No charge was made. Please try again or contact us at donations@adelantestory.com.",
		req.FirstName, req.LastName, data.Amount, reason)

	return Email{
		To:      req.Email,
		Subject: "We could not process your donation - Adelante Story Foundation",
		HTML:    html.String(),
		Text:    text,
	}, nil
}

func confirmationText(data confirmationData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s %s,\n\n", data.FirstName, data.LastName)
	fmt.Fprintf(&b, "Thank you for your donation of $%s to Adelante Story Foundation.%s\n\n", data.Amount, data.RecurringText)
	fmt.Fprintf(&b, "Donation ID: %s\nPayment Method: %s\nDate: %s\n", data.DonationID, data.PaymentMethod, data.Date)
	if data.Frequency != "" {
		fmt.Fprintf(&b, "Frequency: %s\n", data.Frequency)
	}
	if data.BankInstructions != "" {
		fmt.Fprintf(&b, "\n%s\n", data.BankInstructions)
	}
	b.WriteString("\nYour donation helps us empower communities through education, connection, and workforce development.\n")
	return b.String()
}

func methodDisplayName(method models.PaymentMethod) string {
	switch method {
	case models.MethodCreditCard:
		return "Credit Card"
	case models.MethodPayPal:
		return "PayPal"
	case models.MethodBankTransfer:
		return "Bank Transfer"
	}
	return string(method)
}

func formatAmount(amount string) string {
	if value, err := strconv.ParseFloat(amount, 64); err == nil {
		return strconv.FormatFloat(value, 'f', 2, 64)
	}
	return amount
}
