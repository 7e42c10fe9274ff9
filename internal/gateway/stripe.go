package gateway

import (
	"context"
	"fmt"
	"marketplace-checkout/internal/client"
	"marketplace-checkout/internal/repository"

	"github.com/shopspring/decimal"
)

const NameStripe = "stripe"

type stripeGateway struct {
	client  client.StripeClient
	users   repository.UserRepository
	baseURL string
}

func NewStripeGateway(sc client.StripeClient, users repository.UserRepository, baseURL string) Gateway {
	return &stripeGateway{
		client:  sc,
		users:   users,
		baseURL: baseURL,
	}
}

func (g *stripeGateway) Name() string {
	return NameStripe
}

// ensureCustomer lazily provisions the gateway-side customer and caches
// the id on the user row.
func (g *stripeGateway) ensureCustomer(ctx context.Context, userID string) (string, error) {
	user, err := g.users.FindOrCreate(ctx, userID, "")
	if err != nil {
		return "", fmt.Errorf("load user: %w", err)
	}
	if user.StripeCustomerID != "" {
		return user.StripeCustomerID, nil
	}

	customerID, err := g.client.CreateCustomer(ctx, user.Email, user.Name)
	if err != nil {
		return "", fmt.Errorf("provision stripe customer: %w", err)
	}

	if err := g.users.SetStripeCustomerID(ctx, userID, customerID); err != nil {
		return "", fmt.Errorf("cache stripe customer id: %w", err)
	}

	return customerID, nil
}

// CreateSetupIntent issues the client secret the browser needs to attach
// a new card to the customer.
func (g *stripeGateway) CreateSetupIntent(ctx context.Context, userID string) (string, error) {
	customerID, err := g.ensureCustomer(ctx, userID)
	if err != nil {
		return "", err
	}

	return g.client.CreateSetupIntent(ctx, customerID)
}

func (g *stripeGateway) CreateSession(ctx context.Context, req *SessionRequest) (*Session, error) {
	customerID, err := g.ensureCustomer(ctx, req.Order.UserID)
	if err != nil {
		return nil, err
	}

	lineItems := make([]client.SessionLineItem, len(req.Items))
	for i, item := range req.Items {
		lineItems[i] = client.SessionLineItem{
			Title:      item.Title,
			AmountCent: item.UnitPrice.Mul(decimal.NewFromInt(100)).IntPart(),
			Currency:   item.Currency,
			Quantity:   int64(item.Quantity),
		}
	}

	session, err := g.client.CreateCheckoutSession(ctx, &client.CheckoutSessionRequest{
		CustomerID: customerID,
		OrderID:    req.Order.ID,
		LineItems:  lineItems,
		SuccessURL: g.baseURL + "/api/checkout/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  g.baseURL + "/cart",
	})
	if err != nil {
		return nil, err
	}

	return &Session{
		Gateway:     NameStripe,
		SessionID:   session.SessionID,
		RedirectURL: session.URL,
	}, nil
}

func (g *stripeGateway) Finalize(ctx context.Context, sessionID string) (string, error) {
	session, err := g.client.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if session.OrderID == "" {
		return "", fmt.Errorf("checkout session %s carries no order id", sessionID)
	}

	return session.OrderID, nil
}

func (g *stripeGateway) ListStoredMethods(ctx context.Context, userID string) ([]*StoredMethod, error) {
	customerID, err := g.ensureCustomer(ctx, userID)
	if err != nil {
		return nil, err
	}

	cards, err := g.client.ListPaymentMethods(ctx, customerID)
	if err != nil {
		return nil, err
	}

	defaultID, err := g.client.GetDefaultPaymentMethod(ctx, customerID)
	if err != nil {
		return nil, err
	}

	// a customer with cards but no default gets the first one promoted
	if defaultID == "" && len(cards) > 0 {
		defaultID = cards[0].ID
		if err := g.client.SetDefaultPaymentMethod(ctx, customerID, defaultID); err != nil {
			return nil, err
		}
	}

	methods := make([]*StoredMethod, len(cards))
	for i, card := range cards {
		methods[i] = &StoredMethod{
			ID:      card.ID,
			Kind:    "card",
			Label:   fmt.Sprintf("%s ending %s", card.Brand, card.Last4),
			Default: card.ID == defaultID,
		}
	}

	return methods, nil
}

func (g *stripeGateway) SetDefault(ctx context.Context, userID, methodID string) error {
	customerID, err := g.ensureCustomer(ctx, userID)
	if err != nil {
		return err
	}

	owner, err := g.client.GetPaymentMethodOwner(ctx, methodID)
	if err != nil || owner != customerID {
		return ErrMethodNotFound
	}

	return g.client.SetDefaultPaymentMethod(ctx, customerID, methodID)
}

func (g *stripeGateway) Remove(ctx context.Context, userID, methodID string) error {
	customerID, err := g.ensureCustomer(ctx, userID)
	if err != nil {
		return err
	}

	owner, err := g.client.GetPaymentMethodOwner(ctx, methodID)
	if err != nil || owner != customerID {
		return ErrMethodNotFound
	}

	return g.client.DetachPaymentMethod(ctx, methodID)
}
