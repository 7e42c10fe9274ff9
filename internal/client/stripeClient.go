package client

import (
	"context"
	"fmt"
	"marketplace-checkout/internal/config"

	"github.com/stripe/stripe-go/v76"
	stripeclient "github.com/stripe/stripe-go/v76/client"
)

// StripeClient wraps the subset of the card gateway we use: customers,
// hosted checkout sessions, setup intents and payment-method bookkeeping.
type StripeClient interface {
	CreateCustomer(ctx context.Context, email, name string) (string, error)
	CreateCheckoutSession(ctx context.Context, req *CheckoutSessionRequest) (*CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error)
	CreateSetupIntent(ctx context.Context, customerID string) (string, error)
	ListPaymentMethods(ctx context.Context, customerID string) ([]*CardMethod, error)
	GetDefaultPaymentMethod(ctx context.Context, customerID string) (string, error)
	SetDefaultPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error
	GetPaymentMethodOwner(ctx context.Context, paymentMethodID string) (string, error)
	DetachPaymentMethod(ctx context.Context, paymentMethodID string) error
}

type SessionLineItem struct {
	Title      string
	AmountCent int64
	Currency   string
	Quantity   int64
}

type CheckoutSessionRequest struct {
	CustomerID string
	OrderID    string // carried as opaque metadata, echoed back on success
	LineItems  []SessionLineItem
	SuccessURL string
	CancelURL  string
}

type CheckoutSession struct {
	SessionID string
	URL       string
	OrderID   string
	Paid      bool
}

type CardMethod struct {
	ID       string
	Brand    string
	Last4    string
	ExpMonth int64
	ExpYear  int64
}

type stripeClientImpl struct {
	api *stripeclient.API
}

func NewStripeClient(cfg *config.Stripe) StripeClient {
	api := &stripeclient.API{}
	api.Init(cfg.SecretKey, nil)

	return &stripeClientImpl{api: api}
}

func (c *stripeClientImpl) CreateCustomer(ctx context.Context, email, name string) (string, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(email),
		Name:  stripe.String(name),
	}
	params.Context = ctx

	customer, err := c.api.Customers.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe create customer: %w", err)
	}

	return customer.ID, nil
}

func (c *stripeClientImpl) CreateCheckoutSession(ctx context.Context, req *CheckoutSessionRequest) (*CheckoutSession, error) {
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, len(req.LineItems))
	for i, item := range req.LineItems {
		lineItems[i] = &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(item.Currency),
				UnitAmount: stripe.Int64(item.AmountCent),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Title),
				},
			},
			Quantity: stripe.Int64(item.Quantity),
		}
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		LineItems:  lineItems,
	}
	params.Context = ctx
	if req.CustomerID != "" {
		params.Customer = stripe.String(req.CustomerID)
	}
	params.AddMetadata("order_id", req.OrderID)

	session, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe create checkout session: %w", err)
	}

	return &CheckoutSession{
		SessionID: session.ID,
		URL:       session.URL,
		OrderID:   req.OrderID,
	}, nil
}

func (c *stripeClientImpl) GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	session, err := c.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("stripe get checkout session: %w", err)
	}

	return &CheckoutSession{
		SessionID: session.ID,
		URL:       session.URL,
		OrderID:   session.Metadata["order_id"],
		Paid:      session.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
	}, nil
}

func (c *stripeClientImpl) CreateSetupIntent(ctx context.Context, customerID string) (string, error) {
	params := &stripe.SetupIntentParams{
		Customer:           stripe.String(customerID),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	params.Context = ctx

	intent, err := c.api.SetupIntents.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe create setup intent: %w", err)
	}

	return intent.ClientSecret, nil
}

func (c *stripeClientImpl) ListPaymentMethods(ctx context.Context, customerID string) ([]*CardMethod, error) {
	params := &stripe.PaymentMethodListParams{
		Customer: stripe.String(customerID),
		Type:     stripe.String(string(stripe.PaymentMethodTypeCard)),
	}
	params.Context = ctx

	var methods []*CardMethod
	iter := c.api.PaymentMethods.List(params)
	for iter.Next() {
		pm := iter.PaymentMethod()
		if pm.Card == nil {
			continue
		}
		methods = append(methods, &CardMethod{
			ID:       pm.ID,
			Brand:    string(pm.Card.Brand),
			Last4:    pm.Card.Last4,
			ExpMonth: pm.Card.ExpMonth,
			ExpYear:  pm.Card.ExpYear,
		})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("stripe list payment methods: %w", err)
	}

	return methods, nil
}

func (c *stripeClientImpl) GetDefaultPaymentMethod(ctx context.Context, customerID string) (string, error) {
	params := &stripe.CustomerParams{}
	params.Context = ctx

	customer, err := c.api.Customers.Get(customerID, params)
	if err != nil {
		return "", fmt.Errorf("stripe get customer: %w", err)
	}

	if customer.InvoiceSettings == nil || customer.InvoiceSettings.DefaultPaymentMethod == nil {
		return "", nil
	}

	return customer.InvoiceSettings.DefaultPaymentMethod.ID, nil
}

func (c *stripeClientImpl) SetDefaultPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error {
	params := &stripe.CustomerParams{
		InvoiceSettings: &stripe.CustomerInvoiceSettingsParams{
			DefaultPaymentMethod: stripe.String(paymentMethodID),
		},
	}
	params.Context = ctx

	if _, err := c.api.Customers.Update(customerID, params); err != nil {
		return fmt.Errorf("stripe set default payment method: %w", err)
	}

	return nil
}

func (c *stripeClientImpl) GetPaymentMethodOwner(ctx context.Context, paymentMethodID string) (string, error) {
	params := &stripe.PaymentMethodParams{}
	params.Context = ctx

	pm, err := c.api.PaymentMethods.Get(paymentMethodID, params)
	if err != nil {
		return "", fmt.Errorf("stripe get payment method: %w", err)
	}

	if pm.Customer == nil {
		return "", nil
	}

	return pm.Customer.ID, nil
}

func (c *stripeClientImpl) DetachPaymentMethod(ctx context.Context, paymentMethodID string) error {
	params := &stripe.PaymentMethodDetachParams{}
	params.Context = ctx

	if _, err := c.api.PaymentMethods.Detach(paymentMethodID, params); err != nil {
		return fmt.Errorf("stripe detach payment method: %w", err)
	}

	return nil
}
