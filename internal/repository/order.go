package repository

import (
	"context"
	"marketplace-checkout/internal/model"
	"time"

	"gorm.io/gorm"
)

type OrderRepository interface {
	Create(ctx context.Context, tx *gorm.DB, order *model.Order) error
	CreateOrderItems(ctx context.Context, tx *gorm.DB, items []*model.OrderItem) error
	FindByID(ctx context.Context, orderID string) (*model.Order, error)
	ListByUser(ctx context.Context, userID string) ([]*model.Order, error)
	GetOrderItems(ctx context.Context, orderID string) ([]*model.OrderItem, error)
	SetGatewayRef(ctx context.Context, tx *gorm.DB, orderID, gateway, ref string) error
	UpdateStatus(ctx context.Context, tx *gorm.DB, orderID string, status model.OrderStatus) error
	MarkPaidOwned(ctx context.Context, orderID, userID string) (int64, error)
	MarkPaidByGateway(ctx context.Context, orderID, gateway string) (int64, error)
}

type orderRepoImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepoImpl{
		db: db,
	}
}

func (r *orderRepoImpl) Create(ctx context.Context, tx *gorm.DB, order *model.Order) error {
	return tx.WithContext(ctx).Create(order).Error
}

func (r *orderRepoImpl) CreateOrderItems(ctx context.Context, tx *gorm.DB, items []*model.OrderItem) error {
	return tx.WithContext(ctx).Create(&items).Error
}

func (r *orderRepoImpl) FindByID(ctx context.Context, orderID string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Where("id = ?", orderID).
		First(&order).Error

	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) ListByUser(ctx context.Context, userID string) ([]*model.Order, error) {
	var orders []*model.Order
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error

	if err != nil {
		return nil, err
	}

	return orders, nil
}

func (r *orderRepoImpl) GetOrderItems(ctx context.Context, orderID string) ([]*model.OrderItem, error) {
	var items []*model.OrderItem
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Find(&items).Error

	if err != nil {
		return nil, err
	}

	return items, nil
}

func (r *orderRepoImpl) SetGatewayRef(ctx context.Context, tx *gorm.DB, orderID, gateway, ref string) error {
	return tx.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]interface{}{
			"gateway":     gateway,
			"gateway_ref": ref,
			"updated_at":  time.Now(),
		}).Error
}

func (r *orderRepoImpl) UpdateStatus(ctx context.Context, tx *gorm.DB, orderID string, status model.OrderStatus) error {
	return tx.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		}).Error
}

// MarkPaidOwned is a blind status overwrite guarded by ownership; repeat
// calls affect one row again with no further side effect.
func (r *orderRepoImpl) MarkPaidOwned(ctx context.Context, orderID, userID string) (int64, error) {
	result := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND user_id = ?", orderID, userID).
		Updates(map[string]interface{}{
			"status":     model.OrderStatusPaid,
			"updated_at": time.Now(),
		})

	return result.RowsAffected, result.Error
}

// MarkPaidByGateway finalizes a server-to-server callback: the order id
// comes from the signed payload, the gateway predicate stops a callback
// from one gateway finalizing an order created against another.
func (r *orderRepoImpl) MarkPaidByGateway(ctx context.Context, orderID, gateway string) (int64, error) {
	result := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND gateway = ?", orderID, gateway).
		Updates(map[string]interface{}{
			"status":     model.OrderStatusPaid,
			"updated_at": time.Now(),
		})

	return result.RowsAffected, result.Error
}
