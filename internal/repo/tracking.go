package repo

import (
	"context"

	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/stepup/internal/models"
)

func (r *GormRepo) ListTrackingEvents(ctx context.Context, orderID uint) ([]models.OrderTrackingEvent, error) {
	var events []models.OrderTrackingEvent
	err := r.DB.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order(clause.OrderBy{Columns: []clause.OrderByColumn{
			{Column: clause.Column{Name: "timestamp"}},
			{Column: clause.Column{Name: "id"}},
		}}).
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (r *GormRepo) AppendTrackingEvent(ctx context.Context, ev *models.OrderTrackingEvent) error {
	return r.DB.WithContext(ctx).Create(ev).Error
}
