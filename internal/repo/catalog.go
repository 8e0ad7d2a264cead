package repo

import (
	"context"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/stepup/internal/models"
)

type ProductFilter struct {
	Category string
	Search   string
	Style    string
	Brand    string // id or slug
	Color    string // "#hex", id or name
	Size     string // id or label
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	_, err := strconv.ParseUint(s, 10, 64)
	return err == nil
}

func (f ProductFilter) scope(db *gorm.DB) *gorm.DB {
	db = db.Where("products.is_active = ?", true)

	if f.Category != "" {
		db = db.Where("LOWER(products.category) = LOWER(?)", f.Category)
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		db = db.Where("(LOWER(products.title) LIKE ? OR LOWER(products.subtitle) LIKE ? OR LOWER(products.description) LIKE ?)", like, like, like)
	}
	if f.Style != "" {
		db = db.Where("LOWER(products.style) = LOWER(?)", f.Style)
	}
	if f.Brand != "" {
		if isDigits(f.Brand) {
			db = db.Where("products.brand_id = ?", f.Brand)
		} else {
			db = db.Where("products.brand_id IN (SELECT id FROM brands WHERE slug = ?)", f.Brand)
		}
	}
	if c := strings.TrimSpace(f.Color); c != "" {
		const sub = "products.id IN (SELECT pc.product_id FROM product_colors pc JOIN colors c ON c.id = pc.color_id WHERE "
		switch {
		case strings.HasPrefix(c, "#"):
			db = db.Where(sub+"LOWER(c.hex) = LOWER(?))", c)
		case isDigits(c):
			db = db.Where(sub+"c.id = ?)", c)
		default:
			db = db.Where(sub+"LOWER(c.name) = LOWER(?))", c)
		}
	}
	if f.Size != "" {
		const sub = "products.id IN (SELECT ps.product_id FROM product_sizes ps JOIN sizes s ON s.id = ps.size_id WHERE "
		if isDigits(f.Size) {
			db = db.Where(sub+"s.id = ?)", f.Size)
		} else {
			db = db.Where(sub+"LOWER(s.label) = LOWER(?))", f.Size)
		}
	}
	return db
}

func preloadProduct(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Brand").
		Preload("Sizes").
		Preload("Colors").
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC, id ASC") })
}

func (r *GormRepo) ListProducts(ctx context.Context, f ProductFilter, offset, limit int) (int64, []models.Product, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Product{}).Scopes(f.scope).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.Product
	err := preloadProduct(r.DB.WithContext(ctx)).
		Scopes(f.scope).
		Order("products.created_at DESC, products.id DESC").
		Offset(offset).
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	if err := preloadProduct(r.DB.WithContext(ctx)).Where("id = ?", id).Take(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// ProductsByIDs returns active products in the order of ids; unknown ids are skipped.
func (r *GormRepo) ProductsByIDs(ctx context.Context, ids []uint) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}
	var rows []models.Product
	if err := preloadProduct(r.DB.WithContext(ctx)).Where("id IN ? AND is_active = ?", ids, true).Find(&rows).Error; err != nil {
		return nil, err
	}
	byID := make(map[uint]models.Product, len(rows))
	for _, p := range rows {
		byID[p.ID] = p
	}
	out := make([]models.Product, 0, len(rows))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

type Filters struct {
	Styles []string
	Sizes  []models.Size
	Brands []models.Brand
	Colors []models.Color
}

func (r *GormRepo) FiltersForCategory(ctx context.Context, category string) (*Filters, error) {
	base := func() *gorm.DB {
		q := r.DB.WithContext(ctx).Model(&models.Product{}).Where("is_active = ?", true)
		if category != "" {
			q = q.Where("LOWER(category) = LOWER(?)", category)
		}
		return q
	}

	var out Filters
	if err := base().Where("style <> ''").Distinct().Order("style ASC").Pluck("style", &out.Styles).Error; err != nil {
		return nil, err
	}
	if err := r.DB.WithContext(ctx).
		Where("id IN (SELECT size_id FROM product_sizes WHERE product_id IN (?))", base().Select("id")).
		Order("id ASC").Find(&out.Sizes).Error; err != nil {
		return nil, err
	}
	if err := r.DB.WithContext(ctx).
		Where("id IN (?)", base().Where("brand_id IS NOT NULL").Select("brand_id")).
		Order("id ASC").Find(&out.Brands).Error; err != nil {
		return nil, err
	}
	if err := r.DB.WithContext(ctx).
		Where("id IN (SELECT color_id FROM product_colors WHERE product_id IN (?))", base().Select("id")).
		Order("id ASC").Find(&out.Colors).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *GormRepo) CreateProduct(ctx context.Context, p *models.Product) error {
	return r.DB.WithContext(ctx).Create(p).Error
}

// SaveProduct writes scalar columns of a locked product. Associations are
// replaced only when the corresponding slice is non-nil.
func (t *Tx) SaveProduct(p *models.Product) error {
	if err := t.db.Omit("Brand", "Sizes", "Colors", "Images").Save(p).Error; err != nil {
		return err
	}
	if p.Sizes != nil {
		if err := t.db.Model(p).Association("Sizes").Replace(p.Sizes); err != nil {
			return err
		}
	}
	if p.Colors != nil {
		if err := t.db.Model(p).Association("Colors").Replace(p.Colors); err != nil {
			return err
		}
	}
	return nil
}

func (r *GormRepo) SlugTaken(ctx context.Context, slug string, exceptID uint) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Product{}).Where("slug = ? AND id <> ?", slug, exceptID).Count(&n).Error
	return n > 0, err
}

func (r *GormRepo) DeleteProduct(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p := models.Product{ID: id}
		if err := tx.Model(&p).Association("Sizes").Clear(); err != nil {
			return err
		}
		if err := tx.Model(&p).Association("Colors").Clear(); err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", id).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", id).Delete(&models.ProductImage{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Product{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *GormRepo) SizesByIDs(ctx context.Context, ids []uint) ([]models.Size, error) {
	out := []models.Size{}
	if len(ids) == 0 {
		return out, nil
	}
	err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&out).Error
	return out, err
}

func (r *GormRepo) ColorsByIDs(ctx context.Context, ids []uint) ([]models.Color, error) {
	out := []models.Color{}
	if len(ids) == 0 {
		return out, nil
	}
	err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&out).Error
	return out, err
}

func (r *GormRepo) BrandExists(ctx context.Context, id uint) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Brand{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}
