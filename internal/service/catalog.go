package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/stepup/internal/logging"
	"github.com/Skotchmaster/stepup/internal/models"
	"github.com/Skotchmaster/stepup/internal/money"
	"github.com/Skotchmaster/stepup/internal/mykafka"
	"github.com/Skotchmaster/stepup/internal/repo"
)

// ProductIndex is the full-text product index kept in sync after commits.
type ProductIndex interface {
	Put(ctx context.Context, p *models.Product) error
	Delete(ctx context.Context, id uint) error
	Search(ctx context.Context, query string, from, size int) (int64, []uint, error)
}

type CatalogService struct {
	Repo      *repo.GormRepo
	Index     ProductIndex
	Publisher mykafka.Publisher
}

type CreateProductInput struct {
	Title       string
	Subtitle    string
	Slug        string
	Price       decimal.Decimal
	MRP         *decimal.Decimal
	Stock       int
	Description string
	Category    string
	Style       string
	BrandID     *uint
	SizeIDs     []uint
	ColorIDs    []uint
	Rating      float64
	IsActive    *bool
}

type PatchProductInput struct {
	Title       *string
	Subtitle    *string
	Slug        *string
	Price       *decimal.Decimal
	MRP         *decimal.Decimal
	Stock       *int
	Description *string
	Category    *string
	Style       *string
	BrandID     *uint
	SizeIDs     []uint
	ColorIDs    []uint
	Rating      *float64
	IsActive    *bool
}

func validateProduct(p *models.Product) error {
	switch {
	case strings.TrimSpace(p.Title) == "":
		return invalid("title", "required")
	case strings.TrimSpace(p.Slug) == "":
		return invalid("slug", "required")
	case p.Price.IsNegative():
		return invalid("price", "must not be negative")
	case p.MRP.Valid && p.MRP.Decimal.IsNegative():
		return invalid("mrp", "must not be negative")
	case p.Stock < 0:
		return invalid("stock", "must not be negative")
	case !models.ValidCategory(p.Category):
		return invalid("category", "must be one of womens, mens, kids")
	}
	return nil
}

func (svc *CatalogService) List(ctx context.Context, f repo.ProductFilter, offset, limit int) (int64, []models.Product, error) {
	return svc.Repo.ListProducts(ctx, f, offset, limit)
}

func (svc *CatalogService) Get(ctx context.Context, id uint) (*models.Product, error) {
	p, err := svc.Repo.GetProduct(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !p.IsActive) {
		return nil, &ProductNotFoundError{ProductID: id}
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (svc *CatalogService) Filters(ctx context.Context, category string) (*repo.Filters, error) {
	return svc.Repo.FiltersForCategory(ctx, category)
}

// Search queries the full-text index and falls back to a database match when
// no index is configured or the index is unreachable.
func (svc *CatalogService) Search(ctx context.Context, query string, offset, limit int) (int64, []models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.search")

	query = strings.TrimSpace(query)
	if query == "" {
		return 0, []models.Product{}, nil
	}

	if svc.Index != nil {
		total, ids, err := svc.Index.Search(ctx, query, offset, limit)
		if err == nil {
			items, err := svc.Repo.ProductsByIDs(ctx, ids)
			if err != nil {
				return 0, nil, err
			}
			return total, items, nil
		}
		l.Warn("search_index_error", "reason", "falling back to database", "error", err)
	}

	return svc.Repo.ListProducts(ctx, repo.ProductFilter{Search: query}, offset, limit)
}

func (svc *CatalogService) resolveAssociations(ctx context.Context, p *models.Product, brandID *uint, sizeIDs, colorIDs []uint) error {
	if brandID != nil {
		ok, err := svc.Repo.BrandExists(ctx, *brandID)
		if err != nil {
			return err
		}
		if !ok {
			return invalid("brand", fmt.Sprintf("brand %d does not exist", *brandID))
		}
		p.BrandID = brandID
	}
	if sizeIDs != nil {
		sizes, err := svc.Repo.SizesByIDs(ctx, sizeIDs)
		if err != nil {
			return err
		}
		if len(sizes) != len(uniq(sizeIDs)) {
			return invalid("sizes", "unknown size id")
		}
		p.Sizes = sizes
	}
	if colorIDs != nil {
		colors, err := svc.Repo.ColorsByIDs(ctx, colorIDs)
		if err != nil {
			return err
		}
		if len(colors) != len(uniq(colorIDs)) {
			return invalid("colors", "unknown color id")
		}
		p.Colors = colors
	}
	return nil
}

func uniq(ids []uint) map[uint]struct{} {
	out := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}

func (svc *CatalogService) ensureSlugFree(ctx context.Context, slug string, exceptID uint) error {
	taken, err := svc.Repo.SlugTaken(ctx, slug, exceptID)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("%w: slug %q already in use", ErrConflict, slug)
	}
	return nil
}

func (svc *CatalogService) Create(ctx context.Context, access Access, in CreateProductInput) (*models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.create_product")
	if !access.Staff {
		return nil, ErrPermissionDenied
	}

	p := &models.Product{
		Title:       strings.TrimSpace(in.Title),
		Subtitle:    in.Subtitle,
		Slug:        strings.TrimSpace(in.Slug),
		Price:       in.Price,
		Stock:       in.Stock,
		Description: in.Description,
		Category:    strings.ToLower(strings.TrimSpace(in.Category)),
		Style:       in.Style,
		Rating:      in.Rating,
		IsActive:    in.IsActive == nil || *in.IsActive,
	}
	if in.MRP != nil {
		p.MRP = decimal.NewNullDecimal(*in.MRP)
	}
	if err := validateProduct(p); err != nil {
		return nil, err
	}
	if err := svc.ensureSlugFree(ctx, p.Slug, 0); err != nil {
		return nil, err
	}
	if err := svc.resolveAssociations(ctx, p, in.BrandID, in.SizeIDs, in.ColorIDs); err != nil {
		return nil, err
	}

	if err := svc.Repo.CreateProduct(ctx, p); err != nil {
		l.Error("create_product_error", "status", 500, "error", err)
		return nil, err
	}

	out, err := svc.Repo.GetProduct(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	l.Info("create_product_success", "product_id", out.ID)
	svc.afterWrite(ctx, out, EventProductCreated)
	return out, nil
}

// Patch applies the non-nil fields. The row is locked for the update so a
// restock cannot overwrite a concurrent checkout's decrement.
func (svc *CatalogService) Patch(ctx context.Context, access Access, id uint, in PatchProductInput) (*models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.patch_product", "product_id", id)
	if !access.Staff {
		return nil, ErrPermissionDenied
	}

	if in.Slug != nil {
		if err := svc.ensureSlugFree(ctx, strings.TrimSpace(*in.Slug), id); err != nil {
			return nil, err
		}
	}
	var assoc models.Product
	if err := svc.resolveAssociations(ctx, &assoc, in.BrandID, in.SizeIDs, in.ColorIDs); err != nil {
		return nil, err
	}

	err := svc.Repo.InTx(ctx, func(tx *repo.Tx) error {
		locked, err := tx.LockProducts([]uint{id})
		if err != nil {
			var missing *repo.MissingProductError
			if errors.As(err, &missing) {
				return &ProductNotFoundError{ProductID: id}
			}
			return err
		}
		p := locked[id]

		if in.Title != nil {
			p.Title = strings.TrimSpace(*in.Title)
		}
		if in.Subtitle != nil {
			p.Subtitle = *in.Subtitle
		}
		if in.Slug != nil {
			p.Slug = strings.TrimSpace(*in.Slug)
		}
		if in.Price != nil {
			p.Price = *in.Price
		}
		if in.MRP != nil {
			p.MRP = decimal.NewNullDecimal(*in.MRP)
		}
		if in.Stock != nil {
			p.Stock = *in.Stock
		}
		if in.Description != nil {
			p.Description = *in.Description
		}
		if in.Category != nil {
			p.Category = strings.ToLower(strings.TrimSpace(*in.Category))
		}
		if in.Style != nil {
			p.Style = *in.Style
		}
		if in.Rating != nil {
			p.Rating = *in.Rating
		}
		if in.IsActive != nil {
			p.IsActive = *in.IsActive
		}
		if assoc.BrandID != nil {
			p.BrandID = assoc.BrandID
		}
		p.Sizes = assoc.Sizes
		p.Colors = assoc.Colors

		if err := validateProduct(p); err != nil {
			return err
		}
		return tx.SaveProduct(p)
	})
	if err != nil {
		if !errors.Is(err, ErrValidation) && !errors.Is(err, ErrNotFound) {
			l.Error("patch_product_error", "status", 500, "error", err)
		}
		return nil, err
	}

	out, err := svc.Repo.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	l.Info("patch_product_success")
	svc.afterWrite(ctx, out, EventProductUpdated)
	return out, nil
}

func (svc *CatalogService) Delete(ctx context.Context, access Access, id uint) error {
	l := logging.FromContext(ctx).With("svc", "catalog.delete_product", "product_id", id)
	if !access.Staff {
		return ErrPermissionDenied
	}

	if err := svc.Repo.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &ProductNotFoundError{ProductID: id}
		}
		l.Error("delete_product_error", "status", 500, "error", err)
		return err
	}

	l.Info("delete_product_success")
	if svc.Index != nil {
		if err := svc.Index.Delete(ctx, id); err != nil {
			l.Warn("search_index_error", "op", "delete", "error", err)
		}
	}
	publish(ctx, svc.Publisher, mykafka.TopicProducts, strconv.FormatUint(uint64(id), 10), EventProductDeleted, map[string]any{"product_id": id})
	return nil
}

func (svc *CatalogService) afterWrite(ctx context.Context, p *models.Product, eventType string) {
	if svc.Index != nil {
		if err := svc.Index.Put(ctx, p); err != nil {
			logging.FromContext(ctx).Warn("search_index_error", "op", "put", "product_id", p.ID, "error", err)
		}
	}
	publish(ctx, svc.Publisher, mykafka.TopicProducts, strconv.FormatUint(uint64(p.ID), 10), eventType, map[string]any{
		"product_id": p.ID,
		"slug":       p.Slug,
		"price":      money.Format(p.Price),
		"stock":      p.Stock,
		"is_active":  p.IsActive,
	})
}
