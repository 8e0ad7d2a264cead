package httpserver

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authmw "github.com/Skotchmaster/stepup/internal/middleware/auth"
	"github.com/Skotchmaster/stepup/internal/transport"
)

func TestCart_AnonymousHandleFlow(t *testing.T) {
	env := newTestEnv(t)
	p := env.product("runner", "19.99", 10)

	rec := env.doJSONRequest(http.MethodGet, "/api/v1/cart/my", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cart := decode[transport.CartResponse](t, rec)
	require.NotEmpty(t, cart.Handle)
	assert.Equal(t, cart.Handle, rec.Header().Get(authmw.CartHandleHeader))
	assert.Contains(t, rec.Header().Get("Set-Cookie"), "cartHandle="+cart.Handle)

	rec = env.doJSONRequest(http.MethodGet, "/api/v1/cart/my", nil, withHandle(cart.Handle))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, cart.ID, decode[transport.CartResponse](t, rec).ID)

	add := fmt.Sprintf("/api/v1/cart/%d/add_item", cart.ID)
	require.Equal(t, http.StatusOK, env.doJSONRequest(http.MethodPost, add, map[string]any{"product_id": p.ID, "quantity": 2}, withHandle(cart.Handle)).Code)
	rec = env.doJSONRequest(http.MethodPost, add, map[string]any{"product_id": p.ID, "quantity": 3}, withHandle(cart.Handle))
	require.Equal(t, http.StatusOK, rec.Code)

	got := decode[transport.CartResponse](t, rec)
	require.Len(t, got.Items, 1)
	assert.Equal(t, 5, got.Items[0].Quantity)
	assert.Equal(t, "99.95", got.Total)

	rec = env.doJSONRequest(http.MethodPost, add, map[string]any{"product_id": p.ID, "quantity": 1}, withHandle("someone-else"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "not permitted", decode[ErrorBody](t, rec).Error)

	rec = env.doJSONRequest(http.MethodPost, add, map[string]any{"product_id": p.ID, "quantity": 0}, withHandle(cart.Handle))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCart_UpdateMergeAndReplace(t *testing.T) {
	env := newTestEnv(t)
	a := env.product("runner", "10.00", 10)
	b := env.product("sock", "2.00", 10)
	u := env.user("ada", false)

	rec := env.doJSONRequest(http.MethodPost, "/api/v1/cart", map[string]any{
		"items": []map[string]any{{"product_id": a.ID, "quantity": 1}},
	}, asUser(t, u))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	cart := decode[transport.CartResponse](t, rec)
	assert.Empty(t, cart.Handle)
	path := fmt.Sprintf("/api/v1/cart/%d", cart.ID)

	merge := map[string]any{"items": []map[string]any{{"product_id": b.ID, "quantity": 4}}}
	for i := 0; i < 2; i++ {
		rec = env.doJSONRequest(http.MethodPatch, path, merge, asUser(t, u))
		require.Equal(t, http.StatusOK, rec.Code)
	}
	got := decode[transport.CartResponse](t, rec)
	assert.Len(t, got.Items, 2)
	assert.Equal(t, "18.00", got.Total)

	rec = env.doJSONRequest(http.MethodPut, path, merge, asUser(t, u))
	require.Equal(t, http.StatusOK, rec.Code)
	got = decode[transport.CartResponse](t, rec)
	require.Len(t, got.Items, 1)
	assert.Equal(t, b.ID, got.Items[0].ProductID)

	rec = env.doJSONRequest(http.MethodPost, path+"/remove_item", map[string]any{"product_id": b.ID}, asUser(t, u))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[transport.CartResponse](t, rec).Items)

	rec = env.doJSONRequest(http.MethodPost, path+"/remove_item", map[string]any{"product_id": b.ID}, asUser(t, u))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	assert.Equal(t, http.StatusForbidden, env.doJSONRequest(http.MethodGet, path, nil, asUser(t, env.user("eve", false))).Code)
}

func TestCart_DeleteItemAndClear(t *testing.T) {
	env := newTestEnv(t)
	a := env.product("runner", "10.00", 10)
	u := env.user("ada", false)

	rec := env.doJSONRequest(http.MethodPost, "/api/v1/cart", map[string]any{
		"items": []map[string]any{{"product_id": a.ID, "quantity": 1, "size": "42"}},
	}, asUser(t, u))
	require.Equal(t, http.StatusCreated, rec.Code)
	cart := decode[transport.CartResponse](t, rec)
	require.Len(t, cart.Items, 1)

	rec = env.doJSONRequest(http.MethodDelete, fmt.Sprintf("/api/v1/cart-items/%d", cart.Items[0].ID), nil, asUser(t, u))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[transport.CartResponse](t, rec).Items)

	rec = env.doJSONRequest(http.MethodDelete, fmt.Sprintf("/api/v1/cart/%d/items", cart.ID), nil, asUser(t, u))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
