package repository

import (
	"context"
	"marketplace-checkout/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RegionLookupRepository interface {
	Get(ctx context.Context, ip string) (*model.RegionLookup, error)
	Put(ctx context.Context, lookup *model.RegionLookup) error
}

type regionLookupRepoImpl struct {
	db *gorm.DB
}

func NewRegionLookupRepository(db *gorm.DB) RegionLookupRepository {
	return &regionLookupRepoImpl{
		db: db,
	}
}

// Get returns gorm.ErrRecordNotFound for both missing and expired rows.
func (r *regionLookupRepoImpl) Get(ctx context.Context, ip string) (*model.RegionLookup, error) {
	var lookup model.RegionLookup
	err := r.db.WithContext(ctx).
		Where("ip = ? AND expires_at > ?", ip, time.Now()).
		First(&lookup).Error

	if err != nil {
		return nil, err
	}

	return &lookup, nil
}

func (r *regionLookupRepoImpl) Put(ctx context.Context, lookup *model.RegionLookup) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "ip"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"region":     lookup.Region,
			"expires_at": lookup.ExpiresAt,
		}),
	}).Create(lookup).Error
}
