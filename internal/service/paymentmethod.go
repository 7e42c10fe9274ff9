package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"marketplace-checkout/internal/dto"
	"marketplace-checkout/internal/gateway"
	"marketplace-checkout/internal/model"
	"marketplace-checkout/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrMethodNotFound is returned for foreign ids too; the message never
	// confirms that someone else's method exists.
	ErrMethodNotFound = errors.New("payment method not found")
	ErrInvalidMethod  = errors.New("invalid payment method details")
)

type PaymentMethodService interface {
	Settings(ctx context.Context, userID string, region model.Region) (*dto.PaymentSettingsResponse, error)
	AddLocalMethod(ctx context.Context, userID string, region model.Region, req *dto.AddLocalMethodRequest) (*dto.StoredMethodView, error)
	CreateSetupIntent(ctx context.Context, userID string) (string, error)
	SetDefault(ctx context.Context, userID, methodID string) error
	Remove(ctx context.Context, userID, methodID string) error
}

type paymentMethodServiceImpl struct {
	db         *gorm.DB
	methodRepo repository.PaymentMethodRepository
	gateways   *gateway.Selector
	setup      gateway.SetupIntentIssuer
}

// NewPaymentMethodService wires the stored-method surface. setup issues
// card-gateway setup intents; pass nil when the card gateway is absent.
func NewPaymentMethodService(
	db *gorm.DB,
	methodRepo repository.PaymentMethodRepository,
	gateways *gateway.Selector,
	setup gateway.SetupIntentIssuer,
) PaymentMethodService {
	return &paymentMethodServiceImpl{
		db:         db,
		methodRepo: methodRepo,
		gateways:   gateways,
		setup:      setup,
	}
}

// Settings lists card methods (degraded to empty when the gateway is
// absent or failing) together with local wallet methods.
func (s *paymentMethodServiceImpl) Settings(ctx context.Context, userID string, region model.Region) (*dto.PaymentSettingsResponse, error) {
	resp := &dto.PaymentSettingsResponse{
		Region:       string(region),
		Currency:     region.Currency(),
		CardMethods:  []dto.StoredMethodView{},
		LocalMethods: []dto.StoredMethodView{},
	}

	if card := s.gateways.Card(); card != nil {
		methods, err := card.ListStoredMethods(ctx, userID)
		if err != nil {
			log.Println("payment settings: card gateway degraded:", err)
		} else {
			resp.CardMethods = toMethodViews(methods)
		}
	}

	local, err := s.gateways.Wallet().ListStoredMethods(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list local methods: %w", err)
	}
	resp.LocalMethods = toMethodViews(local)

	return resp, nil
}

func (s *paymentMethodServiceImpl) AddLocalMethod(ctx context.Context, userID string, region model.Region, req *dto.AddLocalMethodRequest) (*dto.StoredMethodView, error) {
	kind := strings.TrimSpace(req.Kind)
	identifier := strings.TrimSpace(req.Identifier)
	if kind == "" || len(identifier) < 6 {
		return nil, ErrInvalidMethod
	}

	method := &model.LocalPaymentMethod{
		ID:         uuid.NewString(),
		UserID:     userID,
		Region:     string(region),
		Kind:       kind,
		Identifier: maskIdentifier(identifier),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		count, err := s.methodRepo.CountByUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		// first stored method becomes the default
		method.IsDefault = count == 0

		return s.methodRepo.Create(ctx, tx, method)
	})
	if err != nil {
		return nil, fmt.Errorf("store local method: %w", err)
	}

	return &dto.StoredMethodView{
		ID:      method.ID,
		Kind:    method.Kind,
		Label:   method.Identifier,
		Default: method.IsDefault,
	}, nil
}

// CreateSetupIntent returns an empty secret rather than an error when the
// card gateway is absent or down; collecting a card is never a hard fail.
func (s *paymentMethodServiceImpl) CreateSetupIntent(ctx context.Context, userID string) (string, error) {
	if s.setup == nil {
		return "", nil
	}

	secret, err := s.setup.CreateSetupIntent(ctx, userID)
	if err != nil {
		log.Println("setup intent degraded:", err)
		return "", nil
	}

	return secret, nil
}

func (s *paymentMethodServiceImpl) SetDefault(ctx context.Context, userID, methodID string) error {
	gw, err := s.methodGateway(methodID)
	if err != nil {
		return err
	}

	if err := gw.SetDefault(ctx, userID, methodID); err != nil {
		if errors.Is(err, gateway.ErrMethodNotFound) {
			return ErrMethodNotFound
		}
		return fmt.Errorf("set default method: %w", err)
	}

	return nil
}

func (s *paymentMethodServiceImpl) Remove(ctx context.Context, userID, methodID string) error {
	gw, err := s.methodGateway(methodID)
	if err != nil {
		return err
	}

	if err := gw.Remove(ctx, userID, methodID); err != nil {
		if errors.Is(err, gateway.ErrMethodNotFound) {
			return ErrMethodNotFound
		}
		return fmt.Errorf("remove method: %w", err)
	}

	return nil
}

// methodGateway routes by id shape: the card gateway issues pm_ ids, local
// wallet ids are our own uuids.
func (s *paymentMethodServiceImpl) methodGateway(methodID string) (gateway.Gateway, error) {
	if strings.HasPrefix(methodID, "pm_") {
		card := s.gateways.Card()
		if card == nil {
			return nil, ErrMethodNotFound
		}
		return card, nil
	}
	return s.gateways.Wallet(), nil
}

func toMethodViews(methods []*gateway.StoredMethod) []dto.StoredMethodView {
	views := make([]dto.StoredMethodView, len(methods))
	for i, m := range methods {
		views[i] = dto.StoredMethodView{
			ID:      m.ID,
			Kind:    m.Kind,
			Label:   m.Label,
			Default: m.Default,
		}
	}
	return views
}

// maskIdentifier hides all but the last 4 characters.
func maskIdentifier(identifier string) string {
	if len(identifier) <= 4 {
		return identifier
	}
	return strings.Repeat("*", len(identifier)-4) + identifier[len(identifier)-4:]
}
