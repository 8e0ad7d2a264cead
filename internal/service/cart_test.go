package service

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/stepup/internal/models"
)

type lineState struct {
	ProductID uint
	Size      string
	Quantity  int
}

func cartState(c *models.Cart) []lineState {
	out := make([]lineState, 0, len(c.Items))
	for _, it := range c.Items {
		out = append(out, lineState{ProductID: it.ProductID, Size: it.Size, Quantity: it.Quantity})
	}
	return out
}

func TestCartMine_AuthenticatedIsStable(t *testing.T) {
	f := newFixture(t)
	u := f.user("u", false)

	first, err := f.carts().Mine(ctx, User(u.ID))
	require.NoError(t, err)
	second, err := f.carts().Mine(ctx, User(u.ID))
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Empty(t, first.Handle)
}

func TestCartMine_AnonymousGetsHandle(t *testing.T) {
	f := newFixture(t)

	cart, err := f.carts().Mine(ctx, Anonymous())
	require.NoError(t, err)
	require.NotEmpty(t, cart.Handle)

	again, err := f.carts().Mine(ctx, Access{CartHandle: cart.Handle})
	require.NoError(t, err)
	assert.Equal(t, cart.ID, again.ID)

	fresh, err := f.carts().Mine(ctx, Access{CartHandle: "unknown"})
	require.NoError(t, err)
	assert.NotEqual(t, cart.ID, fresh.ID)
}

func TestCartAddItem_IsAdditive(t *testing.T) {
	f := newFixture(t)
	u := f.user("u", false)
	a := f.product("a", "10.00", 10)
	access := User(u.ID)

	cart, err := f.carts().Mine(ctx, access)
	require.NoError(t, err)

	_, err = f.carts().AddItem(ctx, access, cart.ID, CartLine{ProductID: a.ID, Quantity: 2, Size: "M"})
	require.NoError(t, err)
	got, err := f.carts().AddItem(ctx, access, cart.ID, CartLine{ProductID: a.ID, Quantity: 3, Size: "M"})
	require.NoError(t, err)

	assert.Equal(t, []lineState{{a.ID, "M", 5}}, cartState(got))

	got, err = f.carts().AddItem(ctx, access, cart.ID, CartLine{ProductID: a.ID, Quantity: 1, Size: "L"})
	require.NoError(t, err)
	assert.Equal(t, []lineState{{a.ID, "M", 5}, {a.ID, "L", 1}}, cartState(got))
}

func TestCartAddItem_Rejections(t *testing.T) {
	f := newFixture(t)
	u := f.user("u", false)
	a := f.product("a", "10.00", 10)
	access := User(u.ID)
	cart, err := f.carts().Mine(ctx, access)
	require.NoError(t, err)

	_, err = f.carts().AddItem(ctx, access, cart.ID, CartLine{ProductID: a.ID, Quantity: 0})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = f.carts().AddItem(ctx, access, cart.ID, CartLine{ProductID: 777, Quantity: 1})
	var nf *ProductNotFoundError
	assert.ErrorAs(t, err, &nf)

	_, err = f.carts().AddItem(ctx, access, cart.ID+50, CartLine{ProductID: a.ID, Quantity: 1})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCartAddItem_ConcurrentAddsToNewLine(t *testing.T) {
	f := newFixture(t)
	u := f.user("u", false)
	a := f.product("a", "10.00", 10)
	access := User(u.ID)
	cart, err := f.carts().Mine(ctx, access)
	require.NoError(t, err)

	const adds = 6
	errs := make(chan error, adds)
	var wg sync.WaitGroup
	for i := 0; i < adds; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.carts().AddItem(ctx, access, cart.ID, CartLine{ProductID: a.ID, Quantity: 2, Size: "M"})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := f.carts().Get(ctx, access, cart.ID)
	require.NoError(t, err)
	assert.Equal(t, []lineState{{a.ID, "M", 2 * adds}}, cartState(got))
}

func TestCartAddItem_QuantityCap(t *testing.T) {
	f := newFixture(t)
	u := f.user("u", false)
	a := f.product("a", "10.00", 10)
	access := User(u.ID)
	cart, err := f.carts().Mine(ctx, access)
	require.NoError(t, err)

	_, err = f.carts().AddItem(ctx, access, cart.ID, CartLine{ProductID: a.ID, Quantity: math.MaxInt})
	require.ErrorIs(t, err, ErrQuantityTooLarge)

	_, err = f.carts().AddItem(ctx, access, cart.ID, CartLine{ProductID: a.ID, Quantity: MaxLineQuantity})
	require.NoError(t, err)
	_, err = f.carts().AddItem(ctx, access, cart.ID, CartLine{ProductID: a.ID, Quantity: 1})
	require.ErrorIs(t, err, ErrQuantityTooLarge)

	_, err = f.carts().Update(ctx, access, cart.ID, []CartLine{{ProductID: a.ID, Quantity: MaxLineQuantity + 1}}, false)
	require.ErrorIs(t, err, ErrQuantityTooLarge)

	got, err := f.carts().Get(ctx, access, cart.ID)
	require.NoError(t, err)
	assert.Equal(t, []lineState{{a.ID, "", MaxLineQuantity}}, cartState(got))
}

func TestCartUpdate_MergeOverwritesAndIsIdempotent(t *testing.T) {
	f := newFixture(t)
	u := f.user("u", false)
	a := f.product("a", "10.00", 10)
	b := f.product("b", "5.00", 10)
	c := f.product("c", "1.00", 10)
	access := User(u.ID)

	cart, err := f.carts().Create(ctx, access, []CartLine{
		{ProductID: a.ID, Quantity: 2, Size: "M"},
		{ProductID: c.ID, Quantity: 1},
	})
	require.NoError(t, err)

	in := []CartLine{
		{ProductID: a.ID, Quantity: 4, Size: "M"},
		{ProductID: b.ID, Quantity: 1, Size: "S"},
	}
	once, err := f.carts().Update(ctx, access, cart.ID, in, false)
	require.NoError(t, err)
	twice, err := f.carts().Update(ctx, access, cart.ID, in, false)
	require.NoError(t, err)

	want := []lineState{{a.ID, "M", 4}, {c.ID, "", 1}, {b.ID, "S", 1}}
	assert.Equal(t, want, cartState(once))
	assert.Equal(t, cartState(once), cartState(twice))
}

func TestCartUpdate_ReplaceDropsUnmentioned(t *testing.T) {
	f := newFixture(t)
	u := f.user("u", false)
	a := f.product("a", "10.00", 10)
	b := f.product("b", "5.00", 10)
	access := User(u.ID)

	cart, err := f.carts().Create(ctx, access, []CartLine{
		{ProductID: a.ID, Quantity: 2, Size: "M"},
		{ProductID: a.ID, Quantity: 1, Size: "L"},
	})
	require.NoError(t, err)

	got, err := f.carts().Update(ctx, access, cart.ID, []CartLine{
		{ProductID: a.ID, Quantity: 7, Size: "L"},
		{ProductID: b.ID, Quantity: 1},
	}, true)
	require.NoError(t, err)

	assert.ElementsMatch(t, []lineState{{a.ID, "L", 7}, {b.ID, "", 1}}, cartState(got))

	emptied, err := f.carts().Update(ctx, access, cart.ID, nil, true)
	require.NoError(t, err)
	assert.Empty(t, emptied.Items)
}

func TestCartUpdate_DuplicatesLastWins(t *testing.T) {
	f := newFixture(t)
	u := f.user("u", false)
	a := f.product("a", "10.00", 10)
	access := User(u.ID)
	cart, err := f.carts().Mine(ctx, access)
	require.NoError(t, err)

	got, err := f.carts().Update(ctx, access, cart.ID, []CartLine{
		{ProductID: a.ID, Quantity: 2, Size: "M"},
		{ProductID: a.ID, Quantity: 6, Size: "M"},
	}, false)
	require.NoError(t, err)
	assert.Equal(t, []lineState{{a.ID, "M", 6}}, cartState(got))
}

func TestCartUpdate_RejectsBadLinesWithoutWriting(t *testing.T) {
	f := newFixture(t)
	u := f.user("u", false)
	a := f.product("a", "10.00", 10)
	access := User(u.ID)
	cart, err := f.carts().Create(ctx, access, []CartLine{{ProductID: a.ID, Quantity: 2}})
	require.NoError(t, err)

	_, err = f.carts().Update(ctx, access, cart.ID, []CartLine{{ProductID: a.ID, Quantity: 0}}, true)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = f.carts().Update(ctx, access, cart.ID, []CartLine{{ProductID: a.ID, Quantity: 9}, {ProductID: 4040, Quantity: 1}}, true)
	var nf *ProductNotFoundError
	require.ErrorAs(t, err, &nf)

	got, err := f.carts().Get(ctx, access, cart.ID)
	require.NoError(t, err)
	assert.Equal(t, []lineState{{a.ID, "", 2}}, cartState(got))
}

func TestCart_OwnershipIsEnforced(t *testing.T) {
	f := newFixture(t)
	owner := f.user("owner", false)
	other := f.user("other", false)
	a := f.product("a", "10.00", 10)

	userCart, err := f.carts().Mine(ctx, User(owner.ID))
	require.NoError(t, err)
	anonCart, err := f.carts().Mine(ctx, Anonymous())
	require.NoError(t, err)

	line := CartLine{ProductID: a.ID, Quantity: 1}
	cases := []struct {
		name   string
		access Access
		cartID uint
	}{
		{"other user", User(other.ID), userCart.ID},
		{"anonymous on user cart", Access{CartHandle: anonCart.Handle}, userCart.ID},
		{"anonymous without handle", Anonymous(), anonCart.ID},
		{"anonymous wrong handle", Access{CartHandle: "guess"}, anonCart.ID},
		{"user on anonymous cart", User(owner.ID), anonCart.ID},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.carts().AddItem(ctx, tc.access, tc.cartID, line)
			assert.ErrorIs(t, err, ErrPermissionDenied)
			_, err = f.carts().Update(ctx, tc.access, tc.cartID, []CartLine{line}, true)
			assert.ErrorIs(t, err, ErrPermissionDenied)
			_, err = f.carts().Get(ctx, tc.access, tc.cartID)
			assert.ErrorIs(t, err, ErrPermissionDenied)
		})
	}

	got, err := f.carts().AddItem(ctx, Access{CartHandle: anonCart.Handle}, anonCart.ID, line)
	require.NoError(t, err)
	assert.Len(t, got.Items, 1)
	assert.Equal(t, int64(1), f.count(&models.CartItem{}))
}

func TestCartRemoveItem(t *testing.T) {
	f := newFixture(t)
	u := f.user("u", false)
	a := f.product("a", "10.00", 10)
	b := f.product("b", "5.00", 10)
	access := User(u.ID)

	cart, err := f.carts().Create(ctx, access, []CartLine{
		{ProductID: a.ID, Quantity: 1, Size: "M"},
		{ProductID: a.ID, Quantity: 1, Size: "L"},
		{ProductID: b.ID, Quantity: 3},
	})
	require.NoError(t, err)

	size := "L"
	got, err := f.carts().RemoveItem(ctx, access, cart.ID, RemoveRequest{ProductID: a.ID, Size: &size})
	require.NoError(t, err)
	assert.Equal(t, []lineState{{a.ID, "M", 1}, {b.ID, "", 3}}, cartState(got))

	got, err = f.carts().RemoveItem(ctx, access, cart.ID, RemoveRequest{ItemID: got.Items[1].ID})
	require.NoError(t, err)
	assert.Equal(t, []lineState{{a.ID, "M", 1}}, cartState(got))

	_, err = f.carts().RemoveItem(ctx, access, cart.ID, RemoveRequest{ProductID: b.ID})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.carts().RemoveItem(ctx, access, cart.ID, RemoveRequest{})
	assert.ErrorIs(t, err, ErrValidation)

	got, err = f.carts().RemoveCartItem(ctx, access, got.Items[0].ID)
	require.NoError(t, err)
	assert.Empty(t, got.Items)
}

func TestCartClear(t *testing.T) {
	f := newFixture(t)
	u := f.user("u", false)
	a := f.product("a", "10.00", 10)
	access := User(u.ID)
	cart, err := f.carts().Create(ctx, access, []CartLine{{ProductID: a.ID, Quantity: 2}})
	require.NoError(t, err)

	require.NoError(t, f.carts().Clear(ctx, access, cart.ID))
	assert.Zero(t, f.count(&models.CartItem{}))
	assert.ErrorIs(t, f.carts().Clear(ctx, User(u.ID+1), cart.ID), ErrPermissionDenied)
}
