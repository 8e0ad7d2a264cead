package repo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/stepup/internal/models"
)

type CartKey struct {
	ProductID uint
	Size      string
}

func preloadCart(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Items.Product")
}

func (r *GormRepo) GetCart(ctx context.Context, id uint) (*models.Cart, error) {
	var cart models.Cart
	if err := preloadCart(r.DB.WithContext(ctx)).Where("id = ?", id).Take(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *GormRepo) FindUserCart(ctx context.Context, userID uint) (*models.Cart, error) {
	var cart models.Cart
	err := preloadCart(r.DB.WithContext(ctx)).
		Where("user_id = ?", userID).
		Order("id ASC").
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *GormRepo) FindCartByHandle(ctx context.Context, handle string) (*models.Cart, error) {
	var cart models.Cart
	err := preloadCart(r.DB.WithContext(ctx)).
		Where("handle = ? AND user_id IS NULL", handle).
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *GormRepo) CreateCart(ctx context.Context, cart *models.Cart) error {
	return r.DB.WithContext(ctx).Omit("Items").Create(cart).Error
}

func (r *GormRepo) GetCartItem(ctx context.Context, id uint) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.DB.WithContext(ctx).Where("id = ?", id).Take(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *GormRepo) DeleteCartItem(ctx context.Context, cartID, itemID uint) (int64, error) {
	res := r.DB.WithContext(ctx).Where("cart_id = ? AND id = ?", cartID, itemID).Delete(&models.CartItem{})
	return res.RowsAffected, res.Error
}

// DeleteCartItemsByProduct removes every line of the product, or only the
// line with the given size when size is non-nil.
func (r *GormRepo) DeleteCartItemsByProduct(ctx context.Context, cartID, productID uint, size *string) (int64, error) {
	q := r.DB.WithContext(ctx).Where("cart_id = ? AND product_id = ?", cartID, productID)
	if size != nil {
		q = q.Where("size = ?", *size)
	}
	res := q.Delete(&models.CartItem{})
	return res.RowsAffected, res.Error
}

func (r *GormRepo) ClearCart(ctx context.Context, cartID uint) error {
	return r.DB.WithContext(ctx).Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error
}

// LockCart takes the cart row lock that serializes add, merge and replace updates.
func (t *Tx) LockCart(id uint) (*models.Cart, error) {
	var cart models.Cart
	err := t.db.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).Take(&cart).Error
	if err != nil {
		return nil, err
	}
	if err := t.db.Where("cart_id = ?", id).Order("id ASC").Find(&cart.Items).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

// SetCartItemQuantity overwrites the quantity of the keyed line or creates it.
func (t *Tx) SetCartItemQuantity(cartID uint, key CartKey, quantity int) error {
	var item models.CartItem
	err := t.db.Where("cart_id = ? AND product_id = ? AND size = ?", cartID, key.ProductID, key.Size).Take(&item).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		item = models.CartItem{CartID: cartID, ProductID: key.ProductID, Size: key.Size, Quantity: quantity}
		return t.db.Omit("Product").Create(&item).Error
	case err != nil:
		return err
	}
	if item.Quantity == quantity {
		return nil
	}
	return t.db.Model(&models.CartItem{}).Where("id = ?", item.ID).Update("quantity", quantity).Error
}

func (t *Tx) DeleteCartItemByID(id uint) error {
	if err := t.db.Where("id = ?", id).Delete(&models.CartItem{}).Error; err != nil {
		return fmt.Errorf("delete cart item %d: %w", id, err)
	}
	return nil
}

func (t *Tx) TouchCart(cartID uint) error {
	return t.db.Model(&models.Cart{}).Where("id = ?", cartID).Update("updated_at", t.db.NowFunc()).Error
}
