package repository

import (
	"context"
	"marketplace-checkout/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository interface {
	FindOrCreate(ctx context.Context, userID, email string) (*model.User, error)
	SetStripeCustomerID(ctx context.Context, userID, customerID string) error
}

type userRepoImpl struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepoImpl{
		db: db,
	}
}

func (r *userRepoImpl) FindOrCreate(ctx context.Context, userID, email string) (*model.User, error) {
	user := model.User{ID: userID, Email: email}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&user).Error
	if err != nil {
		return nil, err
	}

	err = r.db.WithContext(ctx).
		Where("id = ?", userID).
		First(&user).Error
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *userRepoImpl) SetStripeCustomerID(ctx context.Context, userID, customerID string) error {
	return r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userID).
		Update("stripe_customer_id", customerID).Error
}
