package repo

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/stepup/internal/models"
)

func (t *Tx) CreateOrder(o *models.Order) error {
	if err := t.db.Omit(clause.Associations).Create(o).Error; err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

func (t *Tx) CreateOrderItem(item *models.OrderItem) error {
	if err := t.db.Create(item).Error; err != nil {
		return fmt.Errorf("create order item: %w", err)
	}
	return nil
}

func (t *Tx) SetOrderTotal(orderID uint, total decimal.Decimal) error {
	if err := t.db.Model(&models.Order{}).Where("id = ?", orderID).Update("total_amount", total).Error; err != nil {
		return fmt.Errorf("set order total: %w", err)
	}
	return nil
}

func (t *Tx) AppendTrackingEvent(ev *models.OrderTrackingEvent) error {
	if err := t.db.Create(ev).Error; err != nil {
		return fmt.Errorf("append tracking event: %w", err)
	}
	return nil
}

func (r *GormRepo) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	var o models.Order
	err := r.DB.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("id = ?", id).
		Take(&o).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *GormRepo) ListOrdersByUser(ctx context.Context, userID uint, offset, limit int) (int64, []models.Order, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Order{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var orders []models.Order
	err := r.DB.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return 0, nil, err
	}
	return total, orders, nil
}
