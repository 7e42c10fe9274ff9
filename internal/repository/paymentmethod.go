package repository

import (
	"context"
	"errors"
	"marketplace-checkout/internal/model"

	"gorm.io/gorm"
)

type PaymentMethodRepository interface {
	ListByUser(ctx context.Context, userID string) ([]*model.LocalPaymentMethod, error)
	Create(ctx context.Context, tx *gorm.DB, method *model.LocalPaymentMethod) error
	CountByUser(ctx context.Context, tx *gorm.DB, userID string) (int64, error)
	ClearDefault(ctx context.Context, tx *gorm.DB, userID string) error
	MarkDefault(ctx context.Context, tx *gorm.DB, userID, methodID string) (int64, error)
	Delete(ctx context.Context, tx *gorm.DB, userID, methodID string) (*model.LocalPaymentMethod, error)
	PromoteAny(ctx context.Context, tx *gorm.DB, userID string) error
}

type paymentMethodRepoImpl struct {
	db *gorm.DB
}

func NewPaymentMethodRepository(db *gorm.DB) PaymentMethodRepository {
	return &paymentMethodRepoImpl{
		db: db,
	}
}

func (r *paymentMethodRepoImpl) ListByUser(ctx context.Context, userID string) ([]*model.LocalPaymentMethod, error) {
	var methods []*model.LocalPaymentMethod
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at").
		Find(&methods).Error

	if err != nil {
		return nil, err
	}

	return methods, nil
}

func (r *paymentMethodRepoImpl) Create(ctx context.Context, tx *gorm.DB, method *model.LocalPaymentMethod) error {
	return tx.WithContext(ctx).Create(method).Error
}

func (r *paymentMethodRepoImpl) CountByUser(ctx context.Context, tx *gorm.DB, userID string) (int64, error) {
	var count int64
	err := tx.WithContext(ctx).Model(&model.LocalPaymentMethod{}).
		Where("user_id = ?", userID).
		Count(&count).Error

	return count, err
}

func (r *paymentMethodRepoImpl) ClearDefault(ctx context.Context, tx *gorm.DB, userID string) error {
	return tx.WithContext(ctx).Model(&model.LocalPaymentMethod{}).
		Where("user_id = ? AND is_default = ?", userID, true).
		Update("is_default", false).Error
}

// MarkDefault sets the flag only on a row the caller owns; the returned
// row count is how the service detects foreign or unknown ids.
func (r *paymentMethodRepoImpl) MarkDefault(ctx context.Context, tx *gorm.DB, userID, methodID string) (int64, error) {
	result := tx.WithContext(ctx).Model(&model.LocalPaymentMethod{}).
		Where("id = ? AND user_id = ?", methodID, userID).
		Update("is_default", true)

	return result.RowsAffected, result.Error
}

func (r *paymentMethodRepoImpl) Delete(ctx context.Context, tx *gorm.DB, userID, methodID string) (*model.LocalPaymentMethod, error) {
	var method model.LocalPaymentMethod
	err := tx.WithContext(ctx).
		Where("id = ? AND user_id = ?", methodID, userID).
		First(&method).Error
	if err != nil {
		return nil, err
	}

	err = tx.WithContext(ctx).
		Where("id = ? AND user_id = ?", methodID, userID).
		Delete(&model.LocalPaymentMethod{}).Error
	if err != nil {
		return nil, err
	}

	return &method, nil
}

// PromoteAny flags the oldest remaining method as default. No-op when the
// user has no methods left.
func (r *paymentMethodRepoImpl) PromoteAny(ctx context.Context, tx *gorm.DB, userID string) error {
	var method model.LocalPaymentMethod
	err := tx.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at").
		First(&method).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	return tx.WithContext(ctx).Model(&model.LocalPaymentMethod{}).
		Where("id = ?", method.ID).
		Update("is_default", true).Error
}
