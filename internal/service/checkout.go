package service

import (
	"context"
	"strings"

	"github.com/Skotchmaster/stepup/internal/logging"
	"github.com/Skotchmaster/stepup/internal/models"
	"github.com/Skotchmaster/stepup/internal/repo"
)

const paymentMethodCard = "card"

type CheckoutDetailService struct {
	Repo *repo.GormRepo
}

type CheckoutDetailInput struct {
	FirstName      string
	LastName       string
	Email          string
	PhoneNumber    string
	CardHolderName string
	RawCardNumber  string
	RawExpiration  string
	PaymentToken   string
	PaymentMethod  string
	AddressLine1   string
	City           string
	State          string
	Pincode        string
	Landmark       string
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CardBrand is a naive BIN lookup covering VISA and MASTERCARD only.
func CardBrand(digits string) string {
	switch {
	case strings.HasPrefix(digits, "4"):
		return "VISA"
	case len(digits) >= 2 && digits[0] == '5' && digits[1] >= '1' && digits[1] <= '5':
		return "MASTERCARD"
	}
	return ""
}

// Create stores contact and shipping data. Of a raw card number only the last
// four digits and the brand are kept.
func (svc *CheckoutDetailService) Create(ctx context.Context, access Access, in CheckoutDetailInput) (*models.CheckoutDetail, error) {
	pm := strings.ToLower(strings.TrimSpace(in.PaymentMethod))
	if pm == "" {
		pm = string(models.PaymentCOD)
	}

	required := []struct{ field, value string }{
		{"first_name", in.FirstName},
		{"email", in.Email},
		{"address_line1", in.AddressLine1},
		{"city", in.City},
		{"state", in.State},
		{"pincode", in.Pincode},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return nil, invalid(r.field, "required")
		}
	}

	if len(in.RawExpiration) > 7 {
		return nil, invalid("raw_expiration", "expected MM/YY or MM/YYYY")
	}

	digits := digitsOnly(in.RawCardNumber)
	if pm == paymentMethodCard && digits == "" && strings.TrimSpace(in.PaymentToken) == "" {
		return nil, invalid("payment_method", "card payments require card number or gateway token")
	}

	d := &models.CheckoutDetail{
		UserID:         access.UserID,
		FirstName:      strings.TrimSpace(in.FirstName),
		LastName:       strings.TrimSpace(in.LastName),
		Email:          strings.TrimSpace(in.Email),
		PhoneNumber:    in.PhoneNumber,
		CardHolderName: in.CardHolderName,
		CardExpiry:     in.RawExpiration,
		PaymentToken:   in.PaymentToken,
		PaymentMethod:  pm,
		AddressLine1:   in.AddressLine1,
		City:           in.City,
		State:          in.State,
		Pincode:        in.Pincode,
		Landmark:       in.Landmark,
	}
	if len(digits) >= 4 {
		d.CardLast4 = digits[len(digits)-4:]
	}
	if digits != "" {
		d.CardBrand = CardBrand(digits)
	}

	if err := svc.Repo.CreateCheckoutDetail(ctx, d); err != nil {
		logging.FromContext(ctx).Error("checkout_detail_error", "status", 500, "error", err)
		return nil, err
	}
	return d, nil
}
