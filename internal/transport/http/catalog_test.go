package httpserver

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/stepup/internal/models"
	"github.com/Skotchmaster/stepup/internal/transport"
)

func TestCatalog_ListDetailAndSearch(t *testing.T) {
	env := newTestEnv(t)
	p := env.product("trail runner", "59.90", 3)
	env.product("wool sock", "9.50", 3)
	require.NoError(t, env.DB.Create(&models.ProductImage{ProductID: p.ID, Path: "products/trail.jpg"}).Error)

	rec := env.doJSONRequest(http.MethodGet, "/api/v1/products?limit=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Count   int64                       `json:"count"`
		Results []transport.ProductResponse `json:"results"`
	}](t, rec)
	assert.Equal(t, int64(2), list.Count)
	assert.Len(t, list.Results, 1)

	rec = env.doJSONRequest(http.MethodGet, fmt.Sprintf("/api/v1/products/%d", p.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[transport.ProductResponse](t, rec)
	assert.Equal(t, "59.90", got.Price)
	assert.Equal(t, []string{"https://shop.test/media/products/trail.jpg"}, got.VariantThumbs)

	assert.Equal(t, http.StatusNotFound, env.doJSONRequest(http.MethodGet, "/api/v1/products/999999", nil).Code)

	rec = env.doJSONRequest(http.MethodGet, "/api/v1/products/search?q=trail", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	found := decode[struct {
		Data []transport.ProductResponse `json:"data"`
		Meta transport.PageMeta          `json:"meta"`
	}](t, rec)
	require.Len(t, found.Data, 1)
	assert.Equal(t, p.ID, found.Data[0].ID)

	assert.Equal(t, http.StatusBadRequest, env.doJSONRequest(http.MethodGet, "/api/v1/products/search", nil).Code)

	rec = env.doJSONRequest(http.MethodGet, "/api/v1/filters?category=mens", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCatalog_AdminRequiresStaff(t *testing.T) {
	env := newTestEnv(t)
	staff := env.user("boss", true)
	user := env.user("ada", false)

	body := map[string]any{"title": "Court", "slug": "court", "price": "10", "stock": 4, "category": "kids"}

	assert.Equal(t, http.StatusUnauthorized, env.doJSONRequest(http.MethodPost, "/api/v1/admin/products", body).Code)
	assert.Equal(t, http.StatusForbidden, env.doJSONRequest(http.MethodPost, "/api/v1/admin/products", body, asUser(t, user)).Code)

	rec := env.doJSONRequest(http.MethodPost, "/api/v1/admin/products", map[string]any{"title": "x", "slug": "x", "price": "1.999", "category": "kids"}, asUser(t, staff))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "price", decode[ErrorBody](t, rec).Field)

	rec = env.doJSONRequest(http.MethodPost, "/api/v1/admin/products", body, asUser(t, staff))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[transport.ProductResponse](t, rec)
	assert.Equal(t, "10.00", created.Price)

	assert.Equal(t, http.StatusConflict, env.doJSONRequest(http.MethodPost, "/api/v1/admin/products", body, asUser(t, staff)).Code)

	path := fmt.Sprintf("/api/v1/admin/products/%d", created.ID)
	rec = env.doJSONRequest(http.MethodPatch, path, map[string]any{"stock": 9, "price": "12.5"}, asUser(t, staff))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	patched := decode[transport.ProductResponse](t, rec)
	assert.Equal(t, 9, patched.Stock)
	assert.Equal(t, "12.50", patched.Price)

	assert.Equal(t, http.StatusNoContent, env.doJSONRequest(http.MethodDelete, path, nil, asUser(t, staff)).Code)
	assert.Equal(t, http.StatusNotFound, env.doJSONRequest(http.MethodGet, fmt.Sprintf("/api/v1/products/%d", created.ID), nil).Code)
	assert.Len(t, env.Pub.ByType("product_deleted"), 1)
}

func TestCatalog_DemotedStaffLosesAdmin(t *testing.T) {
	env := newTestEnv(t)
	staff := env.user("boss", true)
	tok := asUser(t, staff)

	body := map[string]any{"title": "Court", "slug": "court", "price": "10", "stock": 4, "category": "kids"}
	require.NoError(t, env.DB.Model(&models.User{}).Where("id = ?", staff.ID).Update("is_staff", false).Error)

	assert.Equal(t, http.StatusForbidden, env.doJSONRequest(http.MethodPost, "/api/v1/admin/products", body, tok).Code)
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, http.StatusOK, env.doJSONRequest(http.MethodGet, "/health/live", nil).Code)
	assert.Equal(t, http.StatusOK, env.doJSONRequest(http.MethodGet, "/health/ready", nil).Code)

	env.doJSONRequest(http.MethodGet, "/api/v1/products", nil)
	rec := env.doJSONRequest(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}
