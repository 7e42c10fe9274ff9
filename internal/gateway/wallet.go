package gateway

import (
	"context"
	"errors"
	"marketplace-checkout/internal/repository"

	"gorm.io/gorm"
)

const NameWallet = "wallet"

// walletGateway is not a gateway in the external sense: methods are
// user-entered identifiers stored masked, and "sessions" settle offline.
// It exists so call sites treat all three families uniformly.
type walletGateway struct {
	db      *gorm.DB
	methods repository.PaymentMethodRepository
}

func NewWalletGateway(db *gorm.DB, methods repository.PaymentMethodRepository) Gateway {
	return &walletGateway{
		db:      db,
		methods: methods,
	}
}

func (g *walletGateway) Name() string {
	return NameWallet
}

func (g *walletGateway) CreateSession(ctx context.Context, req *SessionRequest) (*Session, error) {
	return nil, ErrNotConfigured
}

func (g *walletGateway) Finalize(ctx context.Context, sessionID string) (string, error) {
	return "", ErrNotSupported
}

func (g *walletGateway) ListStoredMethods(ctx context.Context, userID string) ([]*StoredMethod, error) {
	rows, err := g.methods.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	methods := make([]*StoredMethod, len(rows))
	for i, row := range rows {
		methods[i] = &StoredMethod{
			ID:      row.ID,
			Kind:    row.Kind,
			Label:   row.Identifier,
			Default: row.IsDefault,
		}
	}

	return methods, nil
}

// SetDefault swaps the flag in one transaction so the "at most one
// default" invariant holds even when the target id is rejected.
func (g *walletGateway) SetDefault(ctx context.Context, userID, methodID string) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := g.methods.ClearDefault(ctx, tx, userID); err != nil {
			return err
		}

		rows, err := g.methods.MarkDefault(ctx, tx, userID, methodID)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrMethodNotFound
		}

		return nil
	})
}

func (g *walletGateway) Remove(ctx context.Context, userID, methodID string) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		removed, err := g.methods.Delete(ctx, tx, userID, methodID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrMethodNotFound
			}
			return err
		}

		if removed.IsDefault {
			return g.methods.PromoteAny(ctx, tx, userID)
		}

		return nil
	})
}
