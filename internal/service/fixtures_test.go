package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/stepup/internal/db/dbtest"
	"github.com/Skotchmaster/stepup/internal/models"
	"github.com/Skotchmaster/stepup/internal/mykafka"
	"github.com/Skotchmaster/stepup/internal/repo"
)

type fixture struct {
	t    *testing.T
	db   *gorm.DB
	repo *repo.GormRepo
	pub  *mykafka.Memory
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gdb := dbtest.New(t)
	return &fixture{t: t, db: gdb, repo: repo.New(gdb), pub: &mykafka.Memory{}}
}

// newPostgresFixture runs against a real Postgres with row locks and a
// connection pool; skipped unless dbtest.PostgresDSNEnv is set.
func newPostgresFixture(t *testing.T) *fixture {
	t.Helper()
	gdb := dbtest.Postgres(t)
	return &fixture{t: t, db: gdb, repo: repo.New(gdb), pub: &mykafka.Memory{}}
}

func (f *fixture) orders() *OrderService {
	return &OrderService{Repo: f.repo, Publisher: f.pub}
}

func (f *fixture) carts() *CartService {
	return &CartService{Repo: f.repo}
}

func (f *fixture) product(title, price string, stock int) *models.Product {
	f.t.Helper()
	p := &models.Product{
		Title:    title,
		Slug:     fmt.Sprintf("%s-%s", title, uuid.NewString()),
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
		Category: models.CategoryWomens,
		IsActive: true,
	}
	require.NoError(f.t, f.db.Create(p).Error)
	return p
}

func (f *fixture) user(username string, staff bool) *models.User {
	f.t.Helper()
	u := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		IsActive:     true,
		IsStaff:      staff,
	}
	require.NoError(f.t, f.db.Create(u).Error)
	return u
}

func (f *fixture) stock(id uint) int {
	f.t.Helper()
	var p models.Product
	require.NoError(f.t, f.db.Where("id = ?", id).Take(&p).Error)
	return p.Stock
}

func (f *fixture) count(model any) int64 {
	f.t.Helper()
	var n int64
	require.NoError(f.t, f.db.Model(model).Count(&n).Error)
	return n
}

func orderInput(lines ...LineRequest) PlaceOrderInput {
	return PlaceOrderInput{
		FullName:        "Jane Doe",
		Email:           "jane@example.com",
		ShippingAddress: "1 Main St",
		PaymentMethod:   models.PaymentCOD,
		Lines:           lines,
	}
}

func line(p *models.Product, qty int, size string) LineRequest {
	return LineRequest{ProductID: p.ID, Quantity: qty, Size: size}
}

var ctx = context.Background()
