package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/mail"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/stepup/internal/logging"
	"github.com/Skotchmaster/stepup/internal/metrics"
	"github.com/Skotchmaster/stepup/internal/models"
	"github.com/Skotchmaster/stepup/internal/money"
	"github.com/Skotchmaster/stepup/internal/mykafka"
	"github.com/Skotchmaster/stepup/internal/repo"
)

type LineRequest struct {
	ProductID uint
	Quantity  int
	Size      string
}

type PlaceOrderInput struct {
	UserID          *uint
	FullName        string
	Email           string
	ShippingAddress string
	PaymentMethod   models.PaymentMethod
	Lines           []LineRequest
}

type OrderService struct {
	Repo      *repo.GormRepo
	Publisher mykafka.Publisher
	Metrics   *metrics.Metrics

	// AutoTracking appends a "placed" tracking event inside the placement transaction.
	AutoTracking bool
}

func validatePlaceOrder(in *PlaceOrderInput) error {
	if len(in.Lines) == 0 {
		return ErrEmptyOrder
	}
	if !in.PaymentMethod.Valid() {
		return ErrInvalidPaymentMethod
	}
	in.FullName = strings.TrimSpace(in.FullName)
	if in.FullName == "" {
		return invalid("full_name", "required")
	}
	in.Email = strings.TrimSpace(in.Email)
	if in.Email == "" {
		return invalid("email", "required")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return invalid("email", "invalid address")
	}
	for _, line := range in.Lines {
		if line.ProductID == 0 {
			return invalid("product_id", "required")
		}
		if line.Quantity < 1 {
			return ErrInvalidQuantity
		}
		if line.Quantity > MaxLineQuantity {
			return ErrQuantityTooLarge
		}
	}
	return nil
}

// PlaceOrder converts the requested lines into an order, decrementing stock
// under exclusive product locks. Either the order, its items, the stock
// decrements and the total all commit together, or nothing is written.
func (svc *OrderService) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order.place")

	if err := validatePlaceOrder(&in); err != nil {
		svc.Metrics.PlacementFailure("validation", 0)
		return nil, err
	}

	demand := make(map[uint]int, len(in.Lines))
	ids := make([]uint, 0, len(in.Lines))
	for _, line := range in.Lines {
		if _, seen := demand[line.ProductID]; !seen {
			ids = append(ids, line.ProductID)
		}
		if demand[line.ProductID] > math.MaxInt-line.Quantity {
			svc.Metrics.PlacementFailure("validation", 0)
			return nil, ErrQuantityTooLarge
		}
		demand[line.ProductID] += line.Quantity
	}
	slices.Sort(ids)

	var order *models.Order
	err := svc.Repo.InTx(ctx, func(tx *repo.Tx) error {
		locked, err := tx.LockProducts(ids)
		if err != nil {
			var missing *repo.MissingProductError
			if errors.As(err, &missing) {
				return &ProductNotFoundError{ProductID: missing.ProductID}
			}
			return err
		}

		var shortages []Shortage
		for _, id := range ids {
			p := locked[id]
			if !p.IsActive {
				return &ProductNotFoundError{ProductID: id}
			}
			if demand[id] > p.Stock {
				shortages = append(shortages, Shortage{
					ProductID: id,
					Title:     p.Title,
					Requested: demand[id],
					Available: p.Stock,
				})
			}
		}
		if len(shortages) > 0 {
			return &InsufficientStockError{Shortages: shortages}
		}

		o := &models.Order{
			UserID:          in.UserID,
			FullName:        in.FullName,
			Email:           in.Email,
			ShippingAddress: in.ShippingAddress,
			PaymentMethod:   in.PaymentMethod,
			TotalAmount:     decimal.Zero,
		}
		if err := tx.CreateOrder(o); err != nil {
			return err
		}

		total := decimal.Zero
		for _, line := range in.Lines {
			p := locked[line.ProductID]
			item := models.OrderItem{
				OrderID:   o.ID,
				ProductID: p.ID,
				Title:     p.Title,
				Price:     p.Price,
				Quantity:  line.Quantity,
				Size:      line.Size,
			}
			if err := tx.CreateOrderItem(&item); err != nil {
				return err
			}
			o.Items = append(o.Items, item)

			total = total.Add(money.LineTotal(p.Price, line.Quantity))
			p.Stock = max(p.Stock-line.Quantity, 0)
		}

		for _, id := range ids {
			if err := tx.SaveStock(locked[id]); err != nil {
				return err
			}
		}

		if err := tx.SetOrderTotal(o.ID, total); err != nil {
			return err
		}
		o.TotalAmount = total

		if svc.AutoTracking {
			ev := models.OrderTrackingEvent{
				OrderID:   o.ID,
				Status:    models.StatusPlaced,
				Timestamp: time.Now().UTC(),
				Note:      models.StatusPlaced.Label(),
			}
			if err := tx.AppendTrackingEvent(&ev); err != nil {
				return err
			}
			o.TrackingEvents = append(o.TrackingEvents, ev)
		}

		order = o
		return nil
	})
	if err != nil {
		var short *InsufficientStockError
		switch {
		case errors.As(err, &short):
			svc.Metrics.PlacementFailure("insufficient_stock", len(short.Shortages))
			l.Warn("place_order_rejected", "reason", "insufficient stock", "shortages", len(short.Shortages))
		case errors.Is(err, ErrNotFound):
			svc.Metrics.PlacementFailure("product_not_found", 0)
			l.Warn("place_order_rejected", "reason", "product not found", "error", err)
		default:
			svc.Metrics.PlacementFailure("internal", 0)
			l.Error("place_order_error", "error", err)
		}
		return nil, err
	}

	svc.Metrics.OrderPlaced()
	l.Info("place_order_success", "order_id", order.ID, "total", money.Format(order.TotalAmount), "lines", len(order.Items))

	publish(ctx, svc.Publisher, mykafka.TopicOrders, strconv.FormatUint(uint64(order.ID), 10), EventOrderPlaced, orderPlacedPayload(order))
	return order, nil
}

type orderPlacedLine struct {
	ProductID uint   `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size,omitempty"`
	Price     string `json:"price"`
}

type orderPlaced struct {
	OrderID       uint              `json:"order_id"`
	UserID        *uint             `json:"user_id,omitempty"`
	Email         string            `json:"email"`
	PaymentMethod string            `json:"payment_method"`
	TotalAmount   string            `json:"total_amount"`
	Lines         []orderPlacedLine `json:"lines"`
}

func orderPlacedPayload(o *models.Order) orderPlaced {
	lines := make([]orderPlacedLine, len(o.Items))
	for i, it := range o.Items {
		lines[i] = orderPlacedLine{ProductID: it.ProductID, Quantity: it.Quantity, Size: it.Size, Price: money.Format(it.Price)}
	}
	return orderPlaced{
		OrderID:       o.ID,
		UserID:        o.UserID,
		Email:         o.Email,
		PaymentMethod: string(o.PaymentMethod),
		TotalAmount:   money.Format(o.TotalAmount),
		Lines:         lines,
	}
}

// CheckoutCart places an order for a cart owned by the caller. Submitted lines
// take precedence; when none are given the cart's own lines are ordered. The
// cart is cleared after commit and a failure to clear it is only logged.
func (svc *OrderService) CheckoutCart(ctx context.Context, access Access, cartID uint, in PlaceOrderInput) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order.checkout_cart", "cart_id", cartID)

	cart, err := svc.Repo.GetCart(ctx, cartID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: cart %d", ErrNotFound, cartID)
	}
	if err != nil {
		return nil, err
	}
	if err := authorizeCart(access, cart); err != nil {
		return nil, err
	}

	if len(in.Lines) == 0 {
		for _, it := range cart.Items {
			in.Lines = append(in.Lines, LineRequest{ProductID: it.ProductID, Quantity: it.Quantity, Size: it.Size})
		}
	}
	in.UserID = access.UserID

	order, err := svc.PlaceOrder(ctx, in)
	if err != nil {
		return nil, err
	}

	if err := svc.Repo.ClearCart(ctx, cart.ID); err != nil {
		l.Warn("clear_cart_error", "order_id", order.ID, "error", err)
	}
	return order, nil
}

// canViewOrder: staff, the authenticated owner, or an anonymous caller that
// knows the order's contact email.
func canViewOrder(access Access, o *models.Order, email string) bool {
	if access.Staff {
		return true
	}
	if access.Authenticated() {
		return access.Is(o.UserID)
	}
	email = strings.TrimSpace(email)
	return email != "" && strings.EqualFold(email, strings.TrimSpace(o.Email))
}

func (svc *OrderService) Get(ctx context.Context, access Access, id uint, email string) (*models.Order, error) {
	o, err := svc.Repo.GetOrder(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: order %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	if !canViewOrder(access, o, email) {
		return nil, ErrPermissionDenied
	}
	return o, nil
}

func (svc *OrderService) ListMine(ctx context.Context, access Access, offset, limit int) (int64, []models.Order, error) {
	if !access.Authenticated() {
		return 0, nil, ErrUnauthorized
	}
	return svc.Repo.ListOrdersByUser(ctx, *access.UserID, offset, limit)
}
