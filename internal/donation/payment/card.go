package payment

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/stripe/stripe-go/v74"
	stripeclient "github.com/stripe/stripe-go/v74/client"

	"givegate/internal/donation/models"
)

// CardClient is the narrow slice of the Stripe API the card strategy needs.
// The production implementation wraps the official client; tests inject fakes.
type CardClient interface {
	CreateCustomer(ctx context.Context, params *stripe.CustomerParams) (*stripe.Customer, error)
	CreatePaymentIntent(ctx context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	CreatePrice(ctx context.Context, params *stripe.PriceParams) (*stripe.Price, error)
	CreateSubscription(ctx context.Context, params *stripe.SubscriptionParams) (*stripe.Subscription, error)
}

type stripeClient struct {
	api *stripeclient.API
}

// NewStripeClient builds a CardClient backed by the official Stripe SDK.
func NewStripeClient(secretKey string) CardClient {
	api := &stripeclient.API{}
	api.Init(secretKey, nil)
	return &stripeClient{api: api}
}

func (c *stripeClient) CreateCustomer(ctx context.Context, params *stripe.CustomerParams) (*stripe.Customer, error) {
	params.Context = ctx
	return c.api.Customers.New(params)
}

func (c *stripeClient) CreatePaymentIntent(ctx context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	params.Context = ctx
	return c.api.PaymentIntents.New(params)
}

func (c *stripeClient) CreatePrice(ctx context.Context, params *stripe.PriceParams) (*stripe.Price, error) {
	params.Context = ctx
	return c.api.Prices.New(params)
}

func (c *stripeClient) CreateSubscription(ctx context.Context, params *stripe.SubscriptionParams) (*stripe.Subscription, error) {
	params.Context = ctx
	return c.api.Subscriptions.New(params)
}

// CardStrategy charges cards through Stripe Payment Intents. Recurring
// donations additionally provision a customer and a subscription schedule.
type CardStrategy struct {
	client CardClient
	logger *slog.Logger
}

func NewCardStrategy(client CardClient, logger *slog.Logger) *CardStrategy {
	return &CardStrategy{client: client, logger: logger}
}

func (s *CardStrategy) Process(ctx context.Context, req *models.DonationRequest) (*models.PaymentResult, error) {
	amount, err := MinorUnits(req.Amount)
	if err != nil {
		return models.Failure("Payment processing failed"), nil
	}

	s.logger.InfoContext(ctx, "creating stripe payment intent",
		"amount", req.Amount,
		"minor_units", amount,
	)

	// A billing profile is only needed when a schedule will reference it.
	var customerID string
	if req.IsRecurring {
		customer, err := s.client.CreateCustomer(ctx, s.customerParams(req))
		if err != nil {
			s.logger.ErrorContext(ctx, "stripe customer creation failed", "error", err.Error())
			return models.Failure(cardFailureMessage(err)), nil
		}
		customerID = customer.ID
		s.logger.InfoContext(ctx, "created stripe customer", "customer_id", customerID)
	}

	intent, err := s.client.CreatePaymentIntent(ctx, s.paymentIntentParams(req, amount, customerID))
	if err != nil {
		s.logger.ErrorContext(ctx, "stripe payment intent failed", "error", err.Error())
		return models.Failure(cardFailureMessage(err)), nil
	}

	// The primary charge is authoritative; schedule provisioning is
	// best-effort and must not fail the donation.
	if req.IsRecurring && customerID != "" {
		s.setupRecurringDonation(ctx, customerID, amount, req.Frequency)
	}

	s.logger.InfoContext(ctx, "created stripe payment intent", "payment_intent_id", intent.ID)

	return &models.PaymentResult{
		Success:         true,
		PaymentIntentID: intent.ID,
		ClientSecret:    intent.ClientSecret,
	}, nil
}

func (s *CardStrategy) customerParams(req *models.DonationRequest) *stripe.CustomerParams {
	country := req.Country
	if country == "" {
		country = "US"
	}
	params := &stripe.CustomerParams{
		Email: stripe.String(req.Email),
		Name:  stripe.String(req.FullName()),
		Phone: stripe.String(req.Phone),
		Address: &stripe.AddressParams{
			Line1:      stripe.String(req.Address1),
			Line2:      stripe.String(req.Address2),
			City:       stripe.String(req.City),
			State:      stripe.String(req.State),
			PostalCode: stripe.String(req.ZipCode),
			Country:    stripe.String(country),
		},
	}
	params.AddMetadata("donor_type", "recurring")
	params.AddMetadata("frequency", string(frequencyOrDefault(req.Frequency)))
	params.AddMetadata("anonymous", strconv.FormatBool(req.IsAnonymous))
	return params
}

func (s *CardStrategy) paymentIntentParams(req *models.DonationRequest, amount int64, customerID string) *stripe.PaymentIntentParams {
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(amount),
		Currency:           stripe.String(string(stripe.CurrencyUSD)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Description:        stripe.String(fmt.Sprintf("Donation to Adelante Story Foundation - %s", req.FullName())),
		ReceiptEmail:       stripe.String(req.Email),
	}
	if customerID != "" {
		params.Customer = stripe.String(customerID)
	}
	params.AddMetadata("donor_first_name", req.FirstName)
	params.AddMetadata("donor_last_name", req.LastName)
	params.AddMetadata("donor_email", req.Email)
	params.AddMetadata("donor_phone", req.Phone)
	params.AddMetadata("is_recurring", strconv.FormatBool(req.IsRecurring))
	params.AddMetadata("frequency", string(req.Frequency))
	params.AddMetadata("is_anonymous", strconv.FormatBool(req.IsAnonymous))
	params.AddMetadata("message", req.Message)
	return params
}

// setupRecurringDonation provisions a price and an incomplete subscription for
// the recurring schedule. Failures are logged and swallowed: the initial
// charge already succeeded and remains the authoritative result.
func (s *CardStrategy) setupRecurringDonation(ctx context.Context, customerID string, amount int64, frequency models.Frequency) {
	interval, intervalCount := stripeInterval(frequencyOrDefault(frequency))

	price, err := s.client.CreatePrice(ctx, &stripe.PriceParams{
		UnitAmount: stripe.Int64(amount),
		Currency:   stripe.String(string(stripe.CurrencyUSD)),
		Recurring: &stripe.PriceRecurringParams{
			Interval:      stripe.String(interval),
			IntervalCount: stripe.Int64(intervalCount),
		},
		ProductData: &stripe.PriceProductDataParams{
			Name: stripe.String("Adelante Story Foundation Recurring Donation"),
		},
	})
	if err != nil {
		s.logger.WarnContext(ctx, "recurring price setup failed, continuing with one-time charge",
			"customer_id", customerID,
			"error", err.Error(),
		)
		return
	}

	subscription, err := s.client.CreateSubscription(ctx, &stripe.SubscriptionParams{
		Customer: stripe.String(customerID),
		Items: []*stripe.SubscriptionItemsParams{
			{Price: stripe.String(price.ID)},
		},
		PaymentBehavior: stripe.String("default_incomplete"),
	})
	if err != nil {
		s.logger.WarnContext(ctx, "recurring subscription setup failed, continuing with one-time charge",
			"customer_id", customerID,
			"error", err.Error(),
		)
		return
	}

	s.logger.InfoContext(ctx, "created stripe subscription", "subscription_id", subscription.ID)
}

func stripeInterval(frequency models.Frequency) (string, int64) {
	switch frequency {
	case models.FrequencyQuarterly:
		return "month", 3
	case models.FrequencyAnnually:
		return "year", 1
	default:
		return "month", 1
	}
}

func frequencyOrDefault(f models.Frequency) models.Frequency {
	if f == "" {
		return models.FrequencyMonthly
	}
	return f
}

// cardFailureMessage surfaces Stripe's user-readable message when one exists,
// otherwise a generic one. Stripe errors are safe to show; they never carry
// secrets.
func cardFailureMessage(err error) string {
	if stripeErr, ok := err.(*stripe.Error); ok && stripeErr.Msg != "" {
		return stripeErr.Msg
	}
	return "Payment processing failed"
}
