package gateway

import (
	"context"
	"errors"
	"marketplace-checkout/internal/model"
)

var (
	// ErrNotConfigured marks an integration that is absent or disabled;
	// callers degrade (offline completion, empty lists) instead of failing.
	ErrNotConfigured = errors.New("payment gateway not configured")
	// ErrNotSupported marks an operation a gateway family does not offer.
	ErrNotSupported = errors.New("operation not supported by gateway")
	// ErrMethodNotFound covers unknown ids and ids owned by someone else;
	// callers must not distinguish the two.
	ErrMethodNotFound = errors.New("payment method not found")
)

type Session struct {
	Gateway     string
	SessionID   string
	RedirectURL string
}

type SessionRequest struct {
	Order *model.Order
	Items []*model.OrderItem
}

type StoredMethod struct {
	ID      string
	Kind    string
	Label   string
	Default bool
}

// Gateway is the variant interface over the payment families: hosted
// checkout cards, hosted-token redirects and local wallets. Adding a
// family means a new implementation, not new call sites.
type Gateway interface {
	Name() string
	CreateSession(ctx context.Context, req *SessionRequest) (*Session, error)
	Finalize(ctx context.Context, sessionID string) (orderID string, err error)
	ListStoredMethods(ctx context.Context, userID string) ([]*StoredMethod, error)
	SetDefault(ctx context.Context, userID, methodID string) error
	Remove(ctx context.Context, userID, methodID string) error
}

// SetupIntentIssuer is implemented by gateways that collect new cards
// client-side via a setup intent.
type SetupIntentIssuer interface {
	CreateSetupIntent(ctx context.Context, userID string) (clientSecret string, err error)
}

// Selector picks the session gateway for a region. Gulf regions prefer the
// token gateway, everything else the card gateway; unconfigured gateways
// fall through to the wallet variant, whose sessions settle offline.
type Selector struct {
	card   Gateway
	token  Gateway
	wallet Gateway
}

func NewSelector(card, token, wallet Gateway) *Selector {
	return &Selector{
		card:   card,
		token:  token,
		wallet: wallet,
	}
}

func (s *Selector) ForRegion(region model.Region) Gateway {
	switch region {
	case model.RegionAE, model.RegionSA:
		if s.token != nil {
			return s.token
		}
	}
	if s.card != nil {
		return s.card
	}
	return s.wallet
}

// Card is nil when the card gateway is unconfigured.
func (s *Selector) Card() Gateway {
	return s.card
}

func (s *Selector) Wallet() Gateway {
	return s.wallet
}
