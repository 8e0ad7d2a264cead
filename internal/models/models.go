package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	CategoryWomens = "womens"
	CategoryMens   = "mens"
	CategoryKids   = "kids"
)

func ValidCategory(c string) bool {
	switch c {
	case CategoryWomens, CategoryMens, CategoryKids:
		return true
	}
	return false
}

type Brand struct {
	ID   uint   `gorm:"primaryKey;autoIncrement"         json:"id"`
	Name string `gorm:"size:120;uniqueIndex;not null"    json:"name"`
	Slug string `gorm:"size:140;uniqueIndex;not null"    json:"slug"`
}

type Size struct {
	ID    uint   `gorm:"primaryKey;autoIncrement"  json:"id"`
	Label string `gorm:"size:40;not null"          json:"label"`
}

type Color struct {
	ID   uint   `gorm:"primaryKey;autoIncrement"  json:"id"`
	Name string `gorm:"size:50;not null"          json:"name"`
	Hex  string `gorm:"size:7;not null"           json:"hex"`
}

type Product struct {
	ID          uint                `gorm:"primaryKey;autoIncrement"`
	Title       string              `gorm:"size:200;not null"`
	Subtitle    string              `gorm:"size:255"`
	Slug        string              `gorm:"size:220;uniqueIndex;not null"`
	Price       decimal.Decimal     `gorm:"type:decimal(10,2);not null"`
	MRP         decimal.NullDecimal `gorm:"type:decimal(10,2)"`
	Stock       int                 `gorm:"not null;check:stock >= 0"`
	Description string              `gorm:"type:text"`
	Category    string              `gorm:"size:40;not null;index"`
	Style       string              `gorm:"size:80"`
	BrandID     *uint               `gorm:"index"`
	Brand       *Brand
	Sizes       []Size  `gorm:"many2many:product_sizes"`
	Colors      []Color `gorm:"many2many:product_colors"`
	Images      []ProductImage
	Rating      float64 `gorm:"not null"`
	IsActive    bool    `gorm:"not null;index"`
	CreatedAt   time.Time `gorm:"index"`
}

type ProductImage struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	ProductID uint   `gorm:"index;not null"`
	Path      string `gorm:"size:255;not null"`
	AltText   string `gorm:"size:200"`
	Position  int    `gorm:"not null"`
}

type Cart struct {
	ID        uint       `gorm:"primaryKey;autoIncrement"`
	UserID    *uint      `gorm:"index"`
	Handle    string     `gorm:"size:64;index"`
	Items     []CartItem `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type CartItem struct {
	ID        uint    `gorm:"primaryKey;autoIncrement"`
	CartID    uint    `gorm:"not null;uniqueIndex:idx_cart_product_size"`
	ProductID uint    `gorm:"not null;uniqueIndex:idx_cart_product_size"`
	Product   Product
	Size      string  `gorm:"size:64;not null;uniqueIndex:idx_cart_product_size"`
	Quantity  int     `gorm:"not null;check:quantity >= 1"`
}

type PaymentMethod string

const (
	PaymentGPay     PaymentMethod = "gpay"
	PaymentPayPal   PaymentMethod = "paypal"
	PaymentClearpay PaymentMethod = "clearpay"
	PaymentKlarna   PaymentMethod = "klarna"
	PaymentCOD      PaymentMethod = "cod"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentGPay, PaymentPayPal, PaymentClearpay, PaymentKlarna, PaymentCOD:
		return true
	}
	return false
}

type Order struct {
	ID              uint            `gorm:"primaryKey;autoIncrement"`
	UserID          *uint           `gorm:"index"`
	FullName        string          `gorm:"size:255;not null"`
	Email           string          `gorm:"size:254;not null"`
	ShippingAddress string          `gorm:"type:text"`
	PaymentMethod   PaymentMethod   `gorm:"size:20;not null"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Paid            bool            `gorm:"not null"`
	CreatedAt       time.Time       `gorm:"index"`
	Items           []OrderItem
	TrackingEvents  []OrderTrackingEvent
}

// OrderItem is a snapshot of the product at order time.
type OrderItem struct {
	ID        uint            `gorm:"primaryKey;autoIncrement"`
	OrderID   uint            `gorm:"index;not null"`
	ProductID uint            `gorm:"index;not null"`
	Title     string          `gorm:"size:255;not null"`
	Price     decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Quantity  int             `gorm:"not null;check:quantity >= 1"`
	Size      string          `gorm:"size:50"`
}

type TrackingStatus string

const (
	StatusPlaced         TrackingStatus = "placed"
	StatusDispatched     TrackingStatus = "dispatched"
	StatusInTransit      TrackingStatus = "in_transit"
	StatusOutForDelivery TrackingStatus = "out_for_delivery"
	StatusDelivered      TrackingStatus = "delivered"
	StatusCancelled      TrackingStatus = "cancelled"
)

var trackingLabels = map[TrackingStatus]string{
	StatusPlaced:         "Order Placed",
	StatusDispatched:     "Order Dispatched",
	StatusInTransit:      "Order in transit",
	StatusOutForDelivery: "Out for delivery",
	StatusDelivered:      "Delivered",
	StatusCancelled:      "Cancelled",
}

func (s TrackingStatus) Valid() bool {
	_, ok := trackingLabels[s]
	return ok
}

func (s TrackingStatus) Label() string {
	return trackingLabels[s]
}

type OrderTrackingEvent struct {
	ID        uint           `gorm:"primaryKey;autoIncrement"`
	OrderID   uint           `gorm:"index;not null"`
	Status    TrackingStatus `gorm:"size:32;not null"`
	Timestamp time.Time      `gorm:"index;not null"`
	Location  string         `gorm:"size:255"`
	Note      string         `gorm:"type:text"`
}

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"`
	Username     string `gorm:"size:150;uniqueIndex;not null"`
	Email        string `gorm:"size:254;uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	FirstName    string `gorm:"size:150"`
	LastName     string `gorm:"size:150"`
	IsActive     bool   `gorm:"not null"`
	IsStaff      bool   `gorm:"not null"`
	CreatedAt    time.Time
}

// CheckoutDetail keeps non-sensitive checkout metadata. Full card numbers and CVV are never stored.
type CheckoutDetail struct {
	ID             uint   `gorm:"primaryKey;autoIncrement"`
	UserID         *uint  `gorm:"index"`
	FirstName      string `gorm:"size:100;not null"`
	LastName       string `gorm:"size:100"`
	Email          string `gorm:"size:254;not null"`
	PhoneNumber    string `gorm:"size:20"`
	CardHolderName string `gorm:"size:150"`
	CardLast4      string `gorm:"size:4"`
	CardBrand      string `gorm:"size:50"`
	CardExpiry     string `gorm:"size:7"`
	PaymentToken   string `gorm:"size:255"`
	PaymentMethod  string `gorm:"size:50;not null"`
	AddressLine1   string `gorm:"size:255;not null"`
	City           string `gorm:"size:100;not null"`
	State          string `gorm:"size:100;not null"`
	Pincode        string `gorm:"size:20;not null"`
	Landmark       string `gorm:"size:150"`
	CreatedAt      time.Time `gorm:"index"`
}

func All() []any {
	return []any{
		&Brand{}, &Size{}, &Color{}, &Product{}, &ProductImage{},
		&User{}, &Cart{}, &CartItem{},
		&Order{}, &OrderItem{}, &OrderTrackingEvent{},
		&CheckoutDetail{},
	}
}
