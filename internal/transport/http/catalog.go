package httpserver

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/stepup/internal/logging"
	authmw "github.com/Skotchmaster/stepup/internal/middleware/auth"
	"github.com/Skotchmaster/stepup/internal/repo"
	"github.com/Skotchmaster/stepup/internal/service"
	"github.com/Skotchmaster/stepup/internal/transport"
	"github.com/Skotchmaster/stepup/internal/util"
)

type CatalogHTTP struct {
	Svc   *service.CatalogService
	Shape transport.Shaper
}

func (h *CatalogHTTP) GetProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_products")

	f := repo.ProductFilter{
		Category: strings.TrimSpace(c.QueryParam("category")),
		Search:   strings.TrimSpace(c.QueryParam("search")),
		Style:    strings.TrimSpace(c.QueryParam("style")),
		Brand:    strings.TrimSpace(c.QueryParam("brand")),
		Color:    strings.TrimSpace(c.QueryParam("color")),
		Size:     strings.TrimSpace(c.QueryParam("size")),
	}
	limit, offset := util.Window(
		util.ParseIntDefault(c.QueryParam("limit"), util.DefaultPageSize),
		util.ParseIntDefault(c.QueryParam("offset"), 0),
	)

	total, items, err := h.Svc.List(ctx, f, offset, limit)
	if err != nil {
		return fail(l, "get_products_error", err)
	}

	l.Info("get_products_success", "count", len(items))
	return c.JSON(http.StatusOK, map[string]any{
		"count":   total,
		"limit":   limit,
		"offset":  offset,
		"results": h.Shape.Products(items),
	})
}

func (h *CatalogHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_product")

	id, ok := util.ParseID(c.Param("id"))
	if !ok {
		return badID(l, "get_product_error", c.Param("id"))
	}

	p, err := h.Svc.Get(ctx, id)
	if err != nil {
		return fail(l, "get_product_error", err)
	}
	return c.JSON(http.StatusOK, h.Shape.Product(p))
}

func (h *CatalogHTTP) SearchProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.search")

	q := strings.TrimSpace(c.QueryParam("q"))
	if q == "" {
		l.Warn("search_error", "status", http.StatusBadRequest, "reason", "empty query")
		return echo.NewHTTPError(http.StatusBadRequest, ErrorBody{Error: "query required", Field: "q"})
	}

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, items, err := h.Svc.Search(ctx, q, offset, limit)
	if err != nil {
		return fail(l, "search_error", err)
	}

	l.Info("search_success", "total", total)
	return c.JSON(http.StatusOK, map[string]any{
		"data": h.Shape.Products(items),
		"meta": transport.Meta(page, offset, limit, total),
	})
}

func (h *CatalogHTTP) GetFilters(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.filters")

	f, err := h.Svc.Filters(ctx, strings.TrimSpace(c.QueryParam("category")))
	if err != nil {
		return fail(l, "get_filters_error", err)
	}
	return c.JSON(http.StatusOK, transport.Filters(f))
}

func (h *CatalogHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.create")

	var req transport.CreateProductRequest
	if err := c.Bind(&req); err != nil {
		return badBody(l, "create_product_error", err)
	}
	in, err := req.Input()
	if err != nil {
		return fail(l, "create_product_error", err)
	}

	p, err := h.Svc.Create(ctx, authmw.AccessFrom(c), in)
	if err != nil {
		return fail(l, "create_product_error", err)
	}

	l.Info("create_product_success", "product_id", p.ID)
	return c.JSON(http.StatusCreated, h.Shape.Product(p))
}

func (h *CatalogHTTP) PatchProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.patch")

	id, ok := util.ParseID(c.Param("id"))
	if !ok {
		return badID(l, "patch_product_error", c.Param("id"))
	}

	var req transport.PatchProductRequest
	if err := c.Bind(&req); err != nil {
		return badBody(l, "patch_product_error", err)
	}
	in, err := req.Input()
	if err != nil {
		return fail(l, "patch_product_error", err)
	}

	p, err := h.Svc.Patch(ctx, authmw.AccessFrom(c), id, in)
	if err != nil {
		return fail(l, "patch_product_error", err)
	}

	l.Info("patch_product_success", "product_id", p.ID)
	return c.JSON(http.StatusOK, h.Shape.Product(p))
}

func (h *CatalogHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.delete")

	id, ok := util.ParseID(c.Param("id"))
	if !ok {
		return badID(l, "delete_product_error", c.Param("id"))
	}

	if err := h.Svc.Delete(ctx, authmw.AccessFrom(c), id); err != nil {
		return fail(l, "delete_product_error", err)
	}

	l.Info("delete_product_success", "product_id", id)
	return c.NoContent(http.StatusNoContent)
}
