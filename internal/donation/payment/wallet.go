package payment

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/plutov/paypal/v4"

	"givegate/internal/donation/models"
)

// WalletClient is the slice of the PayPal REST API the wallet strategy needs.
// *paypal.Client satisfies it directly.
type WalletClient interface {
	CreateOrder(ctx context.Context, intent string, purchaseUnits []paypal.PurchaseUnitRequest, payer *paypal.CreateOrderPayer, appContext *paypal.ApplicationContext) (*paypal.Order, error)
	CreateProduct(ctx context.Context, product paypal.Product) (*paypal.CreateProductResponse, error)
	CreateSubscriptionPlan(ctx context.Context, plan paypal.SubscriptionPlan) (*paypal.CreateSubscriptionPlanResponse, error)
	CreateSubscription(ctx context.Context, sub paypal.SubscriptionBase) (*paypal.SubscriptionDetailResp, error)
}

// NewPayPalClient builds the production wallet client.
func NewPayPalClient(clientID, secret, apiBase string) (WalletClient, error) {
	if apiBase == "" {
		apiBase = paypal.APIBaseSandBox
	}
	return paypal.NewClient(clientID, secret, apiBase)
}

// WalletStrategy processes PayPal donations. One-time donations create an
// order the donor approves via redirect; recurring donations provision a
// product, a billing plan, and a subscription instead.
type WalletStrategy struct {
	client          WalletClient
	frontendBaseURL string
	logger          *slog.Logger
}

func NewWalletStrategy(client WalletClient, frontendBaseURL string, logger *slog.Logger) *WalletStrategy {
	return &WalletStrategy{client: client, frontendBaseURL: frontendBaseURL, logger: logger}
}

func (s *WalletStrategy) Process(ctx context.Context, req *models.DonationRequest) (*models.PaymentResult, error) {
	if s.client == nil {
		s.logger.ErrorContext(ctx, "paypal client not configured")
		return models.Failure("PayPal payment processing failed"), nil
	}
	if req.IsRecurring {
		return s.createSubscription(ctx, req)
	}
	return s.createOrder(ctx, req)
}

func (s *WalletStrategy) createOrder(ctx context.Context, req *models.DonationRequest) (*models.PaymentResult, error) {
	amount, err := req.AmountValue()
	if err != nil {
		return models.Failure("PayPal payment processing failed"), nil
	}
	value := strconv.FormatFloat(amount, 'f', 2, 64)

	s.logger.InfoContext(ctx, "creating paypal order", "amount", value)

	units := []paypal.PurchaseUnitRequest{{
		Description: fmt.Sprintf("Donation to Adelante Story Foundation - %s", req.FullName()),
		Amount: &paypal.PurchaseUnitAmount{
			Currency: "USD",
			Value:    value,
		},
	}}
	payer := &paypal.CreateOrderPayer{
		Name: &paypal.CreateOrderPayerName{
			GivenName: req.FirstName,
			Surname:   req.LastName,
		},
		EmailAddress: req.Email,
	}

	order, err := s.client.CreateOrder(ctx, paypal.OrderIntentCapture, units, payer, s.applicationContext("PAY_NOW"))
	if err != nil {
		s.logger.ErrorContext(ctx, "paypal order creation failed", "error", err.Error())
		return models.Failure("PayPal payment processing failed"), nil
	}

	s.logger.InfoContext(ctx, "paypal order created", "order_id", order.ID)

	return &models.PaymentResult{
		Success:       true,
		PayPalOrderID: order.ID,
		RedirectURL:   approvalURL(order.Links),
	}, nil
}

// createSubscription runs the product -> plan -> subscription chain. Any step
// failing aborts the chain with a generic failure.
func (s *WalletStrategy) createSubscription(ctx context.Context, req *models.DonationRequest) (*models.PaymentResult, error) {
	amount, err := req.AmountValue()
	if err != nil {
		return models.Failure("PayPal subscription setup failed"), nil
	}
	value := strconv.FormatFloat(amount, 'f', 2, 64)
	frequency := frequencyOrDefault(req.Frequency)

	product, err := s.client.CreateProduct(ctx, paypal.Product{
		Name:        "Adelante Story Foundation Recurring Donation",
		Description: fmt.Sprintf("%s recurring donation to Adelante Story Foundation", frequency),
		Type:        paypal.ProductTypeService,
		Category:    paypal.ProductCategory("NON_PROFIT"),
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "paypal product creation failed", "error", err.Error())
		return models.Failure("PayPal subscription setup failed"), nil
	}
	s.logger.InfoContext(ctx, "paypal product created", "product_id", product.ID)

	unit, count := paypalInterval(frequency)
	plan, err := s.client.CreateSubscriptionPlan(ctx, paypal.SubscriptionPlan{
		ProductId:   product.ID,
		Name:        fmt.Sprintf("%s Donation Plan - $%s", frequency, value),
		Description: fmt.Sprintf("%s recurring donation of $%s", frequency, value),
		BillingCycles: []paypal.BillingCycle{{
			Frequency: paypal.Frequency{
				IntervalUnit:  unit,
				IntervalCount: count,
			},
			TenureType: paypal.TenureTypeRegular,
			Sequence:   1,
			PricingScheme: paypal.PricingScheme{
				FixedPrice: paypal.Money{
					Currency: "USD",
					Value:    value,
				},
			},
		}},
		PaymentPreferences: &paypal.PaymentPreferences{
			AutoBillOutstanding:     true,
			SetupFee:                &paypal.Money{Currency: "USD", Value: "0"},
			SetupFeeFailureAction:   paypal.SetupFeeFailureActionContinue,
			PaymentFailureThreshold: 3,
		},
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "paypal plan creation failed", "error", err.Error())
		return models.Failure("PayPal subscription setup failed"), nil
	}
	s.logger.InfoContext(ctx, "paypal plan created", "plan_id", plan.ID)

	subscription, err := s.client.CreateSubscription(ctx, paypal.SubscriptionBase{
		PlanID: plan.ID,
		Subscriber: &paypal.Subscriber{
			Name: paypal.CreateOrderPayerName{
				GivenName: req.FirstName,
				Surname:   req.LastName,
			},
			EmailAddress: req.Email,
		},
		ApplicationContext: s.applicationContext("SUBSCRIBE_NOW"),
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "paypal subscription creation failed", "error", err.Error())
		return models.Failure("PayPal subscription setup failed"), nil
	}
	s.logger.InfoContext(ctx, "paypal subscription created", "subscription_id", subscription.ID)

	// The subscription id travels in the order-id slot; the caller treats it
	// as the method-specific external reference either way.
	return &models.PaymentResult{
		Success:       true,
		PayPalOrderID: subscription.ID,
		RedirectURL:   approvalURL(subscription.Links),
	}, nil
}

func (s *WalletStrategy) applicationContext(userAction string) *paypal.ApplicationContext {
	return &paypal.ApplicationContext{
		BrandName:          "Adelante Story Foundation",
		Locale:             "en-US",
		LandingPage:        "BILLING",
		ShippingPreference: paypal.ShippingPreferenceNoShipping,
		UserAction:         paypal.UserAction(userAction),
		ReturnURL:          s.frontendBaseURL + "/donation/success",
		CancelURL:          s.frontendBaseURL + "/donation/cancelled",
	}
}

// paypalInterval translates a donation frequency into PayPal's billing
// interval pair. Unrecognized values fall back to monthly.
func paypalInterval(frequency models.Frequency) (paypal.IntervalUnit, int) {
	switch frequency {
	case models.FrequencyQuarterly:
		return paypal.IntervalUnitMonth, 3
	case models.FrequencyAnnually:
		return paypal.IntervalUnitYear, 1
	case models.FrequencyMonthly:
		return paypal.IntervalUnitMonth, 1
	default:
		return paypal.IntervalUnitMonth, 1
	}
}

func approvalURL(links []paypal.Link) string {
	for _, link := range links {
		if link.Rel == "approve" {
			return link.Href
		}
	}
	return ""
}
