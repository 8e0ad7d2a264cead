package transport

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/stepup/internal/models"
	"github.com/Skotchmaster/stepup/internal/money"
	"github.com/Skotchmaster/stepup/internal/service"
)

// LineItemRequest accepts the product id as either "product" or "product_id".
type LineItemRequest struct {
	Product   uint   `json:"product"`
	ProductID uint   `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size"`
}

func (r LineItemRequest) productID() uint {
	if r.ProductID != 0 {
		return r.ProductID
	}
	return r.Product
}

func (r LineItemRequest) CartLine() service.CartLine {
	return service.CartLine{ProductID: r.productID(), Quantity: r.Quantity, Size: strings.TrimSpace(r.Size)}
}

type PlaceOrderRequest struct {
	FullName        string            `json:"fullname"`
	Email           string            `json:"email"`
	ShippingAddress string            `json:"shipping_address"`
	PaymentMethod   string            `json:"payment_method"`
	Items           []LineItemRequest `json:"items"`
	CartID          *uint             `json:"cart_id"`
}

func (r PlaceOrderRequest) Input() service.PlaceOrderInput {
	lines := make([]service.LineRequest, 0, len(r.Items))
	for _, it := range r.Items {
		lines = append(lines, service.LineRequest{ProductID: it.productID(), Quantity: it.Quantity, Size: strings.TrimSpace(it.Size)})
	}
	return service.PlaceOrderInput{
		FullName:        r.FullName,
		Email:           r.Email,
		ShippingAddress: r.ShippingAddress,
		PaymentMethod:   models.PaymentMethod(strings.ToLower(strings.TrimSpace(r.PaymentMethod))),
		Lines:           lines,
	}
}

type CartRequest struct {
	Items   []LineItemRequest `json:"items"`
	Replace *bool             `json:"replace"`
}

func (r CartRequest) Lines() []service.CartLine {
	out := make([]service.CartLine, 0, len(r.Items))
	for _, it := range r.Items {
		out = append(out, it.CartLine())
	}
	return out
}

type RemoveItemRequest struct {
	ItemID    uint    `json:"item_id"`
	ProductID uint    `json:"product_id"`
	Size      *string `json:"size"`
}

func (r RemoveItemRequest) Remove() service.RemoveRequest {
	return service.RemoveRequest{ItemID: r.ItemID, ProductID: r.ProductID, Size: r.Size}
}

type TrackingEventRequest struct {
	Status    string     `json:"status"`
	Timestamp *time.Time `json:"timestamp"`
	Location  string     `json:"location"`
	Note      string     `json:"note"`
}

func (r TrackingEventRequest) Input() service.AppendTrackingInput {
	in := service.AppendTrackingInput{
		Status:   models.TrackingStatus(r.Status),
		Location: r.Location,
		Note:     r.Note,
	}
	if r.Timestamp != nil {
		in.Timestamp = *r.Timestamp
	}
	return in
}

type RegisterRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
}

func (r RegisterRequest) Input() service.RegisterInput {
	return service.RegisterInput{
		Username:        r.Username,
		Email:           r.Email,
		Password:        r.Password,
		ConfirmPassword: r.ConfirmPassword,
		FirstName:       r.FirstName,
		LastName:        r.LastName,
	}
}

type LoginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) Identifier() string {
	if strings.TrimSpace(r.Username) != "" {
		return r.Username
	}
	return r.Email
}

type CheckoutDetailRequest struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Email          string `json:"email"`
	PhoneNumber    string `json:"phone_number"`
	CardHolderName string `json:"card_holder_name"`
	RawCardNumber  string `json:"raw_card_number"`
	RawExpiration  string `json:"raw_expiration"`
	PaymentToken   string `json:"payment_token"`
	PaymentMethod  string `json:"payment_method"`
	AddressLine1   string `json:"address_line1"`
	City           string `json:"city"`
	State          string `json:"state"`
	Pincode        string `json:"pincode"`
	Landmark       string `json:"landmark"`
}

func (r CheckoutDetailRequest) Input() service.CheckoutDetailInput {
	return service.CheckoutDetailInput(r)
}

type CreateProductRequest struct {
	Title       string  `json:"title"`
	Subtitle    string  `json:"subtitle"`
	Slug        string  `json:"slug"`
	Price       string  `json:"price"`
	MRP         *string `json:"mrp"`
	Stock       int     `json:"stock"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Style       string  `json:"style"`
	BrandID     *uint   `json:"brand_id"`
	SizeIDs     []uint  `json:"size_ids"`
	ColorIDs    []uint  `json:"color_ids"`
	Rating      float64 `json:"rating"`
	IsActive    *bool   `json:"is_active"`
}

func parseOptionalMoney(field string, s *string) (*decimal.Decimal, error) {
	if s == nil {
		return nil, nil
	}
	d, err := money.Parse(*s)
	if err != nil {
		return nil, &service.ValidationError{Field: field, Reason: err.Error()}
	}
	return &d, nil
}

func (r CreateProductRequest) Input() (service.CreateProductInput, error) {
	price, err := parseOptionalMoney("price", &r.Price)
	if err != nil {
		return service.CreateProductInput{}, err
	}
	mrp, err := parseOptionalMoney("mrp", r.MRP)
	if err != nil {
		return service.CreateProductInput{}, err
	}
	return service.CreateProductInput{
		Title:       r.Title,
		Subtitle:    r.Subtitle,
		Slug:        r.Slug,
		Price:       *price,
		MRP:         mrp,
		Stock:       r.Stock,
		Description: r.Description,
		Category:    r.Category,
		Style:       r.Style,
		BrandID:     r.BrandID,
		SizeIDs:     r.SizeIDs,
		ColorIDs:    r.ColorIDs,
		Rating:      r.Rating,
		IsActive:    r.IsActive,
	}, nil
}

type PatchProductRequest struct {
	Title       *string  `json:"title"`
	Subtitle    *string  `json:"subtitle"`
	Slug        *string  `json:"slug"`
	Price       *string  `json:"price"`
	MRP         *string  `json:"mrp"`
	Stock       *int     `json:"stock"`
	Description *string  `json:"description"`
	Category    *string  `json:"category"`
	Style       *string  `json:"style"`
	BrandID     *uint    `json:"brand_id"`
	SizeIDs     []uint   `json:"size_ids"`
	ColorIDs    []uint   `json:"color_ids"`
	Rating      *float64 `json:"rating"`
	IsActive    *bool    `json:"is_active"`
}

func (r PatchProductRequest) Input() (service.PatchProductInput, error) {
	price, err := parseOptionalMoney("price", r.Price)
	if err != nil {
		return service.PatchProductInput{}, err
	}
	mrp, err := parseOptionalMoney("mrp", r.MRP)
	if err != nil {
		return service.PatchProductInput{}, err
	}
	return service.PatchProductInput{
		Title:       r.Title,
		Subtitle:    r.Subtitle,
		Slug:        r.Slug,
		Price:       price,
		MRP:         mrp,
		Stock:       r.Stock,
		Description: r.Description,
		Category:    r.Category,
		Style:       r.Style,
		BrandID:     r.BrandID,
		SizeIDs:     r.SizeIDs,
		ColorIDs:    r.ColorIDs,
		Rating:      r.Rating,
		IsActive:    r.IsActive,
	}, nil
}
