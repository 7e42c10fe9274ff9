package gateway

import (
	"context"
	"fmt"
	"marketplace-checkout/internal/client"
)

const NameTelr = "telr"

type telrGateway struct {
	client  client.TelrClient
	baseURL string
}

func NewTelrGateway(tc client.TelrClient, baseURL string) Gateway {
	return &telrGateway{
		client:  tc,
		baseURL: baseURL,
	}
}

func (g *telrGateway) Name() string {
	return NameTelr
}

func (g *telrGateway) CreateSession(ctx context.Context, req *SessionRequest) (*Session, error) {
	resp, err := g.client.CreatePaymentToken(ctx, &client.TokenRequest{
		OrderRef:    req.Order.ID,
		Amount:      req.Order.Total.StringFixed(2),
		Currency:    req.Order.Currency,
		Description: fmt.Sprintf("Order %s", req.Order.ID),
		ReturnOK:    g.baseURL + "/orders?paid=1",
		ReturnFail:  g.baseURL + "/cart?declined=1",
		ReturnAbort: g.baseURL + "/cart",
	})
	if err != nil {
		return nil, err
	}

	return &Session{
		Gateway:     NameTelr,
		SessionID:   resp.GatewayRef,
		RedirectURL: resp.RedirectURL,
	}, nil
}

// Finalization is callback-driven for the token gateway; the redirect back
// to the shop carries nothing trustworthy.
func (g *telrGateway) Finalize(ctx context.Context, sessionID string) (string, error) {
	return "", ErrNotSupported
}

// Stored methods in token-gateway regions are local wallets, a different
// variant; the token gateway itself keeps nothing on file.
func (g *telrGateway) ListStoredMethods(ctx context.Context, userID string) ([]*StoredMethod, error) {
	return nil, ErrNotSupported
}

func (g *telrGateway) SetDefault(ctx context.Context, userID, methodID string) error {
	return ErrNotSupported
}

func (g *telrGateway) Remove(ctx context.Context, userID, methodID string) error {
	return ErrNotSupported
}
