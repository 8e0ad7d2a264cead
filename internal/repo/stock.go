package repo

import (
	"errors"
	"fmt"
	"slices"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/stepup/internal/models"
)

type MissingProductError struct {
	ProductID uint
}

func (e *MissingProductError) Error() string {
	return fmt.Sprintf("product %d not found", e.ProductID)
}

func (e *MissingProductError) Unwrap() error { return gorm.ErrRecordNotFound }

// LockProducts takes an exclusive row lock on every distinct product id in
// ascending id order and returns the locked rows keyed by id. Callers that
// lock several products always acquire them in the same order.
func (t *Tx) LockProducts(ids []uint) (map[uint]*models.Product, error) {
	ordered := slices.Clone(ids)
	slices.Sort(ordered)
	ordered = slices.Compact(ordered)

	locked := make(map[uint]*models.Product, len(ordered))
	for _, id := range ordered {
		var p models.Product
		err := t.db.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			Take(&p).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &MissingProductError{ProductID: id}
		}
		if err != nil {
			return nil, fmt.Errorf("lock product %d: %w", id, err)
		}
		locked[id] = &p
	}
	return locked, nil
}

// SaveStock writes the stock of a product previously returned by LockProducts.
func (t *Tx) SaveStock(p *models.Product) error {
	res := t.db.Model(&models.Product{}).Where("id = ?", p.ID).Update("stock", p.Stock)
	if res.Error != nil {
		return fmt.Errorf("save stock of product %d: %w", p.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return &MissingProductError{ProductID: p.ID}
	}
	return nil
}

// ProductsByID loads products without locking, used for cart validation.
func (t *Tx) ProductsByID(ids []uint) (map[uint]*models.Product, error) {
	var rows []models.Product
	if err := t.db.Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[uint]*models.Product, len(rows))
	for i := range rows {
		out[rows[i].ID] = &rows[i]
	}
	return out, nil
}
