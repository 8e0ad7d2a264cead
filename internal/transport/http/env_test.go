package httpserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/stepup/internal/db/dbtest"
	"github.com/Skotchmaster/stepup/internal/hash"
	"github.com/Skotchmaster/stepup/internal/metrics"
	authmw "github.com/Skotchmaster/stepup/internal/middleware/auth"
	"github.com/Skotchmaster/stepup/internal/models"
	"github.com/Skotchmaster/stepup/internal/mykafka"
	"github.com/Skotchmaster/stepup/internal/repo"
	"github.com/Skotchmaster/stepup/internal/service"
	"github.com/Skotchmaster/stepup/internal/tokens"
	"github.com/Skotchmaster/stepup/internal/transport"
)

var jwtSecret = []byte("handler-test-secret")

type testEnv struct {
	t    *testing.T
	E    *echo.Echo
	DB   *gorm.DB
	Pub  *mykafka.Memory
	Auth *service.AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	gdb := dbtest.New(t)
	r := repo.New(gdb)
	pub := &mykafka.Memory{}
	m := metrics.New("test")
	shape := transport.Shaper{SiteURL: "https://shop.test"}

	authSvc := &service.AuthService{
		Repo:           r,
		Publisher:      pub,
		JWTSecret:      jwtSecret,
		AccessTokenTTL: time.Hour,
		VerifyTokenTTL: time.Hour,
		SiteURL:        "https://shop.test",
	}

	e := echo.New()
	e.Use(m.Middleware())
	Register(e, &Deps{
		DB:       r,
		Metrics:  m,
		Identity: authmw.NewIdentity(jwtSecret, r),
		CatalogHandler: &CatalogHTTP{
			Svc:   &service.CatalogService{Repo: r, Publisher: pub},
			Shape: shape,
		},
		CartHandler: &CartHTTP{Svc: &service.CartService{Repo: r}, Shape: shape},
		OrderHandler: &OrderHTTP{
			Svc:      &service.OrderService{Repo: r, Publisher: pub, Metrics: m},
			Tracking: &service.TrackingService{Repo: r, Publisher: pub},
		},
		AuthHandler:     &AuthHTTP{Svc: authSvc},
		CheckoutHandler: &CheckoutHTTP{Svc: &service.CheckoutDetailService{Repo: r}},
	})

	return &testEnv{t: t, E: e, DB: gdb, Pub: pub, Auth: authSvc}
}

// doJSONRequest serves body as JSON through the full router.
func (env *testEnv) doJSONRequest(method, path string, body any, mods ...func(*http.Request)) *httptest.ResponseRecorder {
	env.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, m := range mods {
		m(req)
	}
	rec := httptest.NewRecorder()
	env.E.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func asUser(t *testing.T, u *models.User) func(*http.Request) {
	t.Helper()
	role := tokens.RoleUser
	if u.IsStaff {
		role = tokens.RoleStaff
	}
	tok, err := tokens.SignAccessToken(jwtSecret, u.ID, role, u.Email, time.Now().Add(time.Hour))
	require.NoError(t, err)
	return func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: tokens.AccessCookie, Value: tok})
	}
}

func withHandle(handle string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set(authmw.CartHandleHeader, handle) }
}

func (env *testEnv) product(title, price string, stock int) *models.Product {
	env.t.Helper()
	p := &models.Product{
		Title:    title,
		Slug:     fmt.Sprintf("%s-%s", title, uuid.NewString()),
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
		Category: models.CategoryMens,
		IsActive: true,
	}
	require.NoError(env.t, env.DB.Create(p).Error)
	return p
}

func (env *testEnv) user(username string, staff bool) *models.User {
	env.t.Helper()
	pw, err := hash.HashPassword("correct-horse")
	require.NoError(env.t, err)
	u := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: pw,
		IsActive:     true,
		IsStaff:      staff,
	}
	require.NoError(env.t, env.DB.Create(u).Error)
	return u
}

func (env *testEnv) stock(id uint) int {
	env.t.Helper()
	var p models.Product
	require.NoError(env.t, env.DB.Where("id = ?", id).Take(&p).Error)
	return p.Stock
}

func orderBody(items ...map[string]any) map[string]any {
	return map[string]any{
		"fullname":         "Jane Doe",
		"email":            "jane@example.com",
		"shipping_address": "1 Main St",
		"payment_method":   "cod",
		"items":            items,
	}
}

func item(p *models.Product, qty int) map[string]any {
	return map[string]any{"product": p.ID, "quantity": qty}
}
