package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/stepup/internal/logging"
	"github.com/Skotchmaster/stepup/internal/models"
	"github.com/Skotchmaster/stepup/internal/mykafka"
	"github.com/Skotchmaster/stepup/internal/repo"
)

type TrackingService struct {
	Repo      *repo.GormRepo
	Publisher mykafka.Publisher
}

type AppendTrackingInput struct {
	Status    models.TrackingStatus
	Timestamp time.Time
	Location  string
	Note      string
}

// List returns the order's events oldest first. The caller must be staff, the
// authenticated owner, or an anonymous caller supplying the contact email.
func (svc *TrackingService) List(ctx context.Context, access Access, orderID uint, email string) ([]models.OrderTrackingEvent, error) {
	o, err := svc.Repo.GetOrder(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: order %d", ErrNotFound, orderID)
	}
	if err != nil {
		return nil, err
	}
	if !canViewOrder(access, o, email) {
		return nil, ErrPermissionDenied
	}
	return svc.Repo.ListTrackingEvents(ctx, orderID)
}

func (svc *TrackingService) Append(ctx context.Context, access Access, orderID uint, in AppendTrackingInput) (*models.OrderTrackingEvent, error) {
	if !access.Staff {
		return nil, ErrPermissionDenied
	}
	in.Status = models.TrackingStatus(strings.TrimSpace(string(in.Status)))
	if !in.Status.Valid() {
		return nil, invalid("status", "unknown tracking status")
	}
	if _, err := svc.Repo.GetOrder(ctx, orderID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %d", ErrNotFound, orderID)
		}
		return nil, err
	}

	ts := in.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	ev := &models.OrderTrackingEvent{
		OrderID:   orderID,
		Status:    in.Status,
		Timestamp: ts.UTC(),
		Location:  in.Location,
		Note:      in.Note,
	}
	if err := svc.Repo.AppendTrackingEvent(ctx, ev); err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Info("tracking_append_success", "order_id", orderID, "status", ev.Status)
	publish(ctx, svc.Publisher, mykafka.TopicOrders, strconv.FormatUint(uint64(orderID), 10), EventTrackingAdded, map[string]any{
		"order_id":  orderID,
		"status":    ev.Status,
		"timestamp": ev.Timestamp,
		"location":  ev.Location,
	})
	return ev, nil
}
