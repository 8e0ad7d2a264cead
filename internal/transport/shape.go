package transport

import (
	"strings"
	"time"

	"github.com/Skotchmaster/stepup/internal/models"
	"github.com/Skotchmaster/stepup/internal/money"
	"github.com/Skotchmaster/stepup/internal/repo"
)

// ReadableTimeLayout renders tracking timestamps as "May 21,2025 | 03:45 PM".
const ReadableTimeLayout = "Jan 02,2006 | 03:04 PM"

const variantThumbLimit = 5

// Shaper turns models into response bodies. SiteURL prefixes relative media paths.
type Shaper struct {
	SiteURL string
}

func (s Shaper) MediaURL(path string) string {
	if path == "" || strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return s.SiteURL + "/media/" + strings.TrimLeft(path, "/")
}

type BrandResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type ImageResponse struct {
	ID      uint   `json:"id"`
	URL     string `json:"url"`
	AltText string `json:"alt_text"`
	Order   int    `json:"order"`
}

type ProductResponse struct {
	ID            uint            `json:"id"`
	Title         string          `json:"title"`
	Subtitle      string          `json:"subtitle"`
	Slug          string          `json:"slug"`
	Price         string          `json:"price"`
	MRP           *string         `json:"mrp"`
	Stock         int             `json:"stock"`
	Description   string          `json:"description,omitempty"`
	Category      string          `json:"category"`
	Style         string          `json:"style"`
	Brand         *BrandResponse  `json:"brand"`
	Sizes         []models.Size   `json:"sizes"`
	Colors        []models.Color  `json:"colors"`
	Rating        float64         `json:"rating"`
	IsActive      bool            `json:"is_active"`
	Images        []ImageResponse `json:"images"`
	VariantThumbs []string        `json:"variant_thumbs"`
}

func (s Shaper) Product(p *models.Product) ProductResponse {
	out := ProductResponse{
		ID:            p.ID,
		Title:         p.Title,
		Subtitle:      p.Subtitle,
		Slug:          p.Slug,
		Price:         money.Format(p.Price),
		Stock:         p.Stock,
		Description:   p.Description,
		Category:      p.Category,
		Style:         p.Style,
		Sizes:         p.Sizes,
		Colors:        p.Colors,
		Rating:        p.Rating,
		IsActive:      p.IsActive,
		Images:        make([]ImageResponse, 0, len(p.Images)),
		VariantThumbs: make([]string, 0, variantThumbLimit),
	}
	if out.Sizes == nil {
		out.Sizes = []models.Size{}
	}
	if out.Colors == nil {
		out.Colors = []models.Color{}
	}
	if p.MRP.Valid {
		mrp := money.Format(p.MRP.Decimal)
		out.MRP = &mrp
	}
	if p.Brand != nil {
		out.Brand = &BrandResponse{ID: p.Brand.ID, Name: p.Brand.Name, Slug: p.Brand.Slug}
	}
	for _, img := range p.Images {
		url := s.MediaURL(img.Path)
		out.Images = append(out.Images, ImageResponse{ID: img.ID, URL: url, AltText: img.AltText, Order: img.Position})
		if len(out.VariantThumbs) < variantThumbLimit {
			out.VariantThumbs = append(out.VariantThumbs, url)
		}
	}
	return out
}

func (s Shaper) Products(items []models.Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(items))
	for i := range items {
		out = append(out, s.Product(&items[i]))
	}
	return out
}

type FiltersResponse struct {
	Styles []string       `json:"styles"`
	Sizes  []models.Size  `json:"sizes"`
	Brands []models.Brand `json:"brands"`
	Colors []models.Color `json:"colors"`
}

func Filters(f *repo.Filters) FiltersResponse {
	out := FiltersResponse{Styles: f.Styles, Sizes: f.Sizes, Brands: f.Brands, Colors: f.Colors}
	if out.Styles == nil {
		out.Styles = []string{}
	}
	if out.Sizes == nil {
		out.Sizes = []models.Size{}
	}
	if out.Brands == nil {
		out.Brands = []models.Brand{}
	}
	if out.Colors == nil {
		out.Colors = []models.Color{}
	}
	return out
}

type CartProductResponse struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
	Slug  string `json:"slug"`
	Price string `json:"price"`
	Stock int    `json:"stock"`
	Image string `json:"image,omitempty"`
}

type CartItemResponse struct {
	ID        uint                `json:"id"`
	ProductID uint                `json:"product_id"`
	Product   CartProductResponse `json:"product"`
	Quantity  int                 `json:"quantity"`
	Size      string              `json:"size"`
	LineTotal string              `json:"line_total"`
}

type CartResponse struct {
	ID        uint               `json:"id"`
	User      *uint              `json:"user"`
	Handle    string             `json:"handle,omitempty"`
	Items     []CartItemResponse `json:"items"`
	Total     string             `json:"total"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

func (s Shaper) Cart(c *models.Cart) CartResponse {
	out := CartResponse{
		ID:        c.ID,
		User:      c.UserID,
		Handle:    c.Handle,
		Items:     make([]CartItemResponse, 0, len(c.Items)),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	if c.UserID != nil {
		out.Handle = ""
	}
	total := money.Sum()
	for _, it := range c.Items {
		line := money.LineTotal(it.Product.Price, it.Quantity)
		total = total.Add(line)
		prod := CartProductResponse{
			ID:    it.Product.ID,
			Title: it.Product.Title,
			Slug:  it.Product.Slug,
			Price: money.Format(it.Product.Price),
			Stock: it.Product.Stock,
		}
		if len(it.Product.Images) > 0 {
			prod.Image = s.MediaURL(it.Product.Images[0].Path)
		}
		out.Items = append(out.Items, CartItemResponse{
			ID:        it.ID,
			ProductID: it.ProductID,
			Product:   prod,
			Quantity:  it.Quantity,
			Size:      it.Size,
			LineTotal: money.Format(line),
		})
	}
	out.Total = money.Format(total)
	return out
}

type OrderItemResponse struct {
	ID        uint   `json:"id"`
	Product   uint   `json:"product"`
	Title     string `json:"title"`
	Price     string `json:"price"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size"`
	LineTotal string `json:"line_total"`
}

type OrderResponse struct {
	ID              uint                `json:"id"`
	User            *uint               `json:"user"`
	FullName        string              `json:"fullname"`
	Email           string              `json:"email"`
	ShippingAddress string              `json:"shipping_address"`
	PaymentMethod   string              `json:"payment_method"`
	TotalAmount     string              `json:"total_amount"`
	Paid            bool                `json:"paid"`
	CreatedAt       time.Time           `json:"created_at"`
	Items           []OrderItemResponse `json:"items"`
}

func Order(o *models.Order) OrderResponse {
	out := OrderResponse{
		ID:              o.ID,
		User:            o.UserID,
		FullName:        o.FullName,
		Email:           o.Email,
		ShippingAddress: o.ShippingAddress,
		PaymentMethod:   string(o.PaymentMethod),
		TotalAmount:     money.Format(o.TotalAmount),
		Paid:            o.Paid,
		CreatedAt:       o.CreatedAt,
		Items:           make([]OrderItemResponse, 0, len(o.Items)),
	}
	for _, it := range o.Items {
		out.Items = append(out.Items, OrderItemResponse{
			ID:        it.ID,
			Product:   it.ProductID,
			Title:     it.Title,
			Price:     money.Format(it.Price),
			Quantity:  it.Quantity,
			Size:      it.Size,
			LineTotal: money.Format(money.LineTotal(it.Price, it.Quantity)),
		})
	}
	return out
}

func Orders(items []models.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(items))
	for i := range items {
		out = append(out, Order(&items[i]))
	}
	return out
}

type TrackingEventResponse struct {
	ID                uint      `json:"id"`
	Status            string    `json:"status"`
	StatusLabel       string    `json:"status_label"`
	Timestamp         time.Time `json:"timestamp"`
	TimestampReadable string    `json:"timestamp_readable"`
	Location          string    `json:"location"`
	Note              string    `json:"note"`
}

func TrackingEvent(ev *models.OrderTrackingEvent) TrackingEventResponse {
	return TrackingEventResponse{
		ID:                ev.ID,
		Status:            string(ev.Status),
		StatusLabel:       ev.Status.Label(),
		Timestamp:         ev.Timestamp,
		TimestampReadable: ev.Timestamp.UTC().Format(ReadableTimeLayout),
		Location:          ev.Location,
		Note:              ev.Note,
	}
}

func TrackingEvents(items []models.OrderTrackingEvent) []TrackingEventResponse {
	out := make([]TrackingEventResponse, 0, len(items))
	for i := range items {
		out = append(out, TrackingEvent(&items[i]))
	}
	return out
}

type UserResponse struct {
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	IsActive  bool   `json:"is_active"`
	IsStaff   bool   `json:"is_staff"`
}

func User(u *models.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		IsActive:  u.IsActive,
		IsStaff:   u.IsStaff,
	}
}

type CheckoutDetailResponse struct {
	ID             uint      `json:"id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Email          string    `json:"email"`
	PhoneNumber    string    `json:"phone_number"`
	CardHolderName string    `json:"card_holder_name"`
	MaskedCard     string    `json:"masked_card,omitempty"`
	CardBrand      string    `json:"card_brand,omitempty"`
	CardExpiry     string    `json:"card_expiry,omitempty"`
	PaymentMethod  string    `json:"payment_method"`
	AddressLine1   string    `json:"address_line1"`
	City           string    `json:"city"`
	State          string    `json:"state"`
	Pincode        string    `json:"pincode"`
	Landmark       string    `json:"landmark"`
	CreatedAt      time.Time `json:"created_at"`
}

func CheckoutDetail(d *models.CheckoutDetail) CheckoutDetailResponse {
	out := CheckoutDetailResponse{
		ID:             d.ID,
		FirstName:      d.FirstName,
		LastName:       d.LastName,
		Email:          d.Email,
		PhoneNumber:    d.PhoneNumber,
		CardHolderName: d.CardHolderName,
		CardBrand:      d.CardBrand,
		CardExpiry:     d.CardExpiry,
		PaymentMethod:  d.PaymentMethod,
		AddressLine1:   d.AddressLine1,
		City:           d.City,
		State:          d.State,
		Pincode:        d.Pincode,
		Landmark:       d.Landmark,
		CreatedAt:      d.CreatedAt,
	}
	if d.CardLast4 != "" {
		out.MaskedCard = "**** **** **** " + d.CardLast4
	}
	return out
}

type PageMeta struct {
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
	HasPrev    bool  `json:"has_prev"`
	HasNext    bool  `json:"has_next"`
}

func Meta(page, offset, limit int, total int64) PageMeta {
	pages := int64(0)
	if limit > 0 {
		pages = (total + int64(limit) - 1) / int64(limit)
	}
	return PageMeta{
		Page:       page,
		Size:       limit,
		Total:      total,
		TotalPages: pages,
		HasPrev:    offset > 0,
		HasNext:    int64(offset+limit) < total,
	}
}
