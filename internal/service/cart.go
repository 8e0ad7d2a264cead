package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/stepup/internal/logging"
	"github.com/Skotchmaster/stepup/internal/models"
	"github.com/Skotchmaster/stepup/internal/repo"
)

type CartService struct {
	Repo *repo.GormRepo
}

type CartLine struct {
	ProductID uint
	Quantity  int
	Size      string
}

type RemoveRequest struct {
	ItemID    uint
	ProductID uint
	Size      *string
}

// authorizeCart lets through the owning user, or an anonymous caller holding
// the handle of an anonymous cart.
func authorizeCart(access Access, cart *models.Cart) error {
	if access.Authenticated() {
		if access.Is(cart.UserID) {
			return nil
		}
		return ErrPermissionDenied
	}
	if cart.UserID != nil || cart.Handle == "" || access.CartHandle == "" {
		return ErrPermissionDenied
	}
	if subtle.ConstantTimeCompare([]byte(cart.Handle), []byte(access.CartHandle)) != 1 {
		return ErrPermissionDenied
	}
	return nil
}

func validateLines(lines []CartLine) error {
	for _, line := range lines {
		if line.ProductID == 0 {
			return invalid("product_id", "required")
		}
		if line.Quantity < 1 {
			return ErrInvalidQuantity
		}
		if line.Quantity > MaxLineQuantity {
			return ErrQuantityTooLarge
		}
	}
	return nil
}

// collapse keeps the last occurrence of every (product, size) key, in order of first appearance.
func collapse(lines []CartLine) ([]repo.CartKey, map[repo.CartKey]int) {
	keys := make([]repo.CartKey, 0, len(lines))
	qty := make(map[repo.CartKey]int, len(lines))
	for _, line := range lines {
		k := repo.CartKey{ProductID: line.ProductID, Size: line.Size}
		if _, seen := qty[k]; !seen {
			keys = append(keys, k)
		}
		qty[k] = line.Quantity
	}
	return keys, qty
}

func (svc *CartService) newCart(ctx context.Context, access Access) (*models.Cart, error) {
	cart := &models.Cart{UserID: access.UserID}
	if !access.Authenticated() {
		cart.Handle = uuid.NewString()
	}
	if err := svc.Repo.CreateCart(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (svc *CartService) load(ctx context.Context, access Access, id uint) (*models.Cart, error) {
	cart, err := svc.Repo.GetCart(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: cart %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	if err := authorizeCart(access, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// Mine returns the caller's cart, creating it when absent. A new anonymous
// cart carries a fresh handle the caller must present on later requests.
func (svc *CartService) Mine(ctx context.Context, access Access) (*models.Cart, error) {
	var (
		cart *models.Cart
		err  error
	)
	switch {
	case access.Authenticated():
		cart, err = svc.Repo.FindUserCart(ctx, *access.UserID)
	case access.CartHandle != "":
		cart, err = svc.Repo.FindCartByHandle(ctx, access.CartHandle)
	default:
		err = gorm.ErrRecordNotFound
	}
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	cart, err = svc.newCart(ctx, access)
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("cart_created", "cart_id", cart.ID, "anonymous", !access.Authenticated())
	return cart, nil
}

func (svc *CartService) Create(ctx context.Context, access Access, lines []CartLine) (*models.Cart, error) {
	if err := validateLines(lines); err != nil {
		return nil, err
	}
	cart, err := svc.newCart(ctx, access)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return cart, nil
	}

	owner := access
	owner.CartHandle = cart.Handle
	return svc.Update(ctx, owner, cart.ID, lines, false)
}

func (svc *CartService) Get(ctx context.Context, access Access, id uint) (*models.Cart, error) {
	return svc.load(ctx, access, id)
}

// AddItem increments the (product, size) line by line.Quantity or creates it.
// It runs under the cart row lock, so it serializes with Update.
func (svc *CartService) AddItem(ctx context.Context, access Access, cartID uint, line CartLine) (*models.Cart, error) {
	if err := validateLines([]CartLine{line}); err != nil {
		return nil, err
	}
	key := repo.CartKey{ProductID: line.ProductID, Size: line.Size}

	err := svc.Repo.InTx(ctx, func(tx *repo.Tx) error {
		cart, err := tx.LockCart(cartID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: cart %d", ErrNotFound, cartID)
		}
		if err != nil {
			return err
		}
		if err := authorizeCart(access, cart); err != nil {
			return err
		}

		products, err := tx.ProductsByID([]uint{line.ProductID})
		if err != nil {
			return err
		}
		if p, ok := products[line.ProductID]; !ok || !p.IsActive {
			return &ProductNotFoundError{ProductID: line.ProductID}
		}

		quantity := line.Quantity
		for _, it := range cart.Items {
			if it.ProductID == key.ProductID && it.Size == key.Size {
				quantity += it.Quantity
				break
			}
		}
		if quantity > MaxLineQuantity {
			return ErrQuantityTooLarge
		}

		if err := tx.SetCartItemQuantity(cartID, key, quantity); err != nil {
			return err
		}
		return tx.TouchCart(cartID)
	})
	if err != nil {
		return nil, err
	}
	return svc.Repo.GetCart(ctx, cartID)
}

// Update sets the quantity of every incoming (product, size) key. With replace
// set, lines whose key is absent from the input are deleted. Duplicate keys in
// the input collapse to their last occurrence.
func (svc *CartService) Update(ctx context.Context, access Access, cartID uint, lines []CartLine, replace bool) (*models.Cart, error) {
	if err := validateLines(lines); err != nil {
		return nil, err
	}
	keys, qty := collapse(lines)

	err := svc.Repo.InTx(ctx, func(tx *repo.Tx) error {
		cart, err := tx.LockCart(cartID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: cart %d", ErrNotFound, cartID)
		}
		if err != nil {
			return err
		}
		if err := authorizeCart(access, cart); err != nil {
			return err
		}

		if len(keys) > 0 {
			ids := make([]uint, 0, len(keys))
			for _, k := range keys {
				ids = append(ids, k.ProductID)
			}
			products, err := tx.ProductsByID(ids)
			if err != nil {
				return err
			}
			for _, k := range keys {
				if p, ok := products[k.ProductID]; !ok || !p.IsActive {
					return &ProductNotFoundError{ProductID: k.ProductID}
				}
			}
		}

		for _, k := range keys {
			if err := tx.SetCartItemQuantity(cartID, k, qty[k]); err != nil {
				return err
			}
		}

		if replace {
			for _, it := range cart.Items {
				if _, keep := qty[repo.CartKey{ProductID: it.ProductID, Size: it.Size}]; keep {
					continue
				}
				if err := tx.DeleteCartItemByID(it.ID); err != nil {
					return err
				}
			}
		}
		return tx.TouchCart(cartID)
	})
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Info("cart_update_success", "cart_id", cartID, "lines", len(keys), "replace", replace)
	return svc.Repo.GetCart(ctx, cartID)
}

func (svc *CartService) RemoveItem(ctx context.Context, access Access, cartID uint, req RemoveRequest) (*models.Cart, error) {
	if req.ItemID == 0 && req.ProductID == 0 {
		return nil, invalid("item_id", "item_id or product_id required")
	}
	if _, err := svc.load(ctx, access, cartID); err != nil {
		return nil, err
	}

	var (
		removed int64
		err     error
	)
	if req.ItemID != 0 {
		removed, err = svc.Repo.DeleteCartItem(ctx, cartID, req.ItemID)
	} else {
		removed, err = svc.Repo.DeleteCartItemsByProduct(ctx, cartID, req.ProductID, req.Size)
	}
	if err != nil {
		return nil, err
	}
	if removed == 0 {
		return nil, fmt.Errorf("%w: no matching cart item", ErrNotFound)
	}
	return svc.Repo.GetCart(ctx, cartID)
}

// RemoveCartItem deletes one line by its own id and returns the owning cart.
func (svc *CartService) RemoveCartItem(ctx context.Context, access Access, itemID uint) (*models.Cart, error) {
	item, err := svc.Repo.GetCartItem(ctx, itemID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: cart item %d", ErrNotFound, itemID)
	}
	if err != nil {
		return nil, err
	}
	return svc.RemoveItem(ctx, access, item.CartID, RemoveRequest{ItemID: itemID})
}

func (svc *CartService) Clear(ctx context.Context, access Access, cartID uint) error {
	if _, err := svc.load(ctx, access, cartID); err != nil {
		return err
	}
	return svc.Repo.ClearCart(ctx, cartID)
}
