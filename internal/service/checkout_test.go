package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checkoutInput() CheckoutDetailInput {
	return CheckoutDetailInput{
		FirstName:    "Jane",
		Email:        "jane@example.com",
		AddressLine1: "1 Main St",
		City:         "Leeds",
		State:        "West Yorkshire",
		Pincode:      "LS1",
	}
}

func TestCardBrand(t *testing.T) {
	tests := map[string]string{
		"4111111111111111": "VISA",
		"5105105105105100": "MASTERCARD",
		"5500000000000004": "MASTERCARD",
		"5600000000000000": "",
		"378282246310005":  "",
	}
	for digits, want := range tests {
		assert.Equal(t, want, CardBrand(digits), digits)
	}
}

func TestCheckoutDetail_KeepsOnlyLast4(t *testing.T) {
	f := newFixture(t)
	u := f.user("u", false)
	svc := &CheckoutDetailService{Repo: f.repo}

	in := checkoutInput()
	in.PaymentMethod = "card"
	in.RawCardNumber = "4111 1111 1111 1234"
	in.RawExpiration = "08/28"

	d, err := svc.Create(ctx, User(u.ID), in)
	require.NoError(t, err)
	assert.Equal(t, "1234", d.CardLast4)
	assert.Equal(t, "VISA", d.CardBrand)
	assert.Equal(t, "08/28", d.CardExpiry)
	require.NotNil(t, d.UserID)
	assert.Equal(t, u.ID, *d.UserID)
}

func TestCheckoutDetail_Validation(t *testing.T) {
	f := newFixture(t)
	svc := &CheckoutDetailService{Repo: f.repo}

	in := checkoutInput()
	in.PaymentMethod = "card"
	_, err := svc.Create(ctx, Anonymous(), in)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "payment_method", ve.Field)

	in = checkoutInput()
	in.City = ""
	_, err = svc.Create(ctx, Anonymous(), in)
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "city", ve.Field)

	d, err := svc.Create(ctx, Anonymous(), checkoutInput())
	require.NoError(t, err)
	assert.Equal(t, "cod", d.PaymentMethod)
	assert.Nil(t, d.UserID)
}
