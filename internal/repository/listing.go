package repository

import (
	"context"
	"marketplace-checkout/internal/model"

	"gorm.io/gorm"
)

type ListingRepository interface {
	Create(ctx context.Context, listing *model.Listing) error
	FindByID(ctx context.Context, listingID string) (*model.Listing, error)
	FindMany(ctx context.Context, listingIDs []string) ([]*model.Listing, error)
}

type listingRepoImpl struct {
	db *gorm.DB
}

func NewListingRepository(db *gorm.DB) ListingRepository {
	return &listingRepoImpl{
		db: db,
	}
}

func (r *listingRepoImpl) Create(ctx context.Context, listing *model.Listing) error {
	return r.db.WithContext(ctx).Create(listing).Error
}

func (r *listingRepoImpl) FindByID(ctx context.Context, listingID string) (*model.Listing, error) {
	var listing model.Listing
	err := r.db.WithContext(ctx).
		Where("id = ?", listingID).
		First(&listing).Error

	if err != nil {
		return nil, err
	}

	return &listing, nil
}

func (r *listingRepoImpl) FindMany(ctx context.Context, listingIDs []string) ([]*model.Listing, error) {
	var listings []*model.Listing
	err := r.db.WithContext(ctx).
		Where("id IN ?", listingIDs).
		Find(&listings).Error

	if err != nil {
		return nil, err
	}

	return listings, nil
}
