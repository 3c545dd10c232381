package handlers

import (
	"strings"

	"bikeshop/internal/domain"
	applog "bikeshop/internal/log"
	"bikeshop/internal/repos"
	"bikeshop/internal/services"
	"bikeshop/internal/validate"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 50
)

type CatalogHandler struct {
	Catalog *services.CatalogService
	Home    *services.HomepageService
}

func splitSlugs(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func priceParam(c *fiber.Ctx, name string) (*decimal.Decimal, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || d.IsNegative() {
		return nil, services.Invalid(name, "Enter a valid number.")
	}
	return &d, nil
}

// productFilter reads the listing query string shared by products, categories and brands.
func productFilter(c *fiber.Ctx, p page) (repos.ProductFilter, error) {
	f := repos.ProductFilter{
		CategorySlugs: splitSlugs(c.Query("category")),
		BrandSlugs:    splitSlugs(c.Query("brand")),
		Featured:      strings.EqualFold(c.Query("is_featured"), "true"),
		OnSale:        strings.EqualFold(c.Query("on_sale"), "true"),
		Ordering:      strings.TrimSpace(c.Query("ordering")),
		Limit:         p.Size,
		Offset:        p.Offset(),
	}
	var err error
	if f.MinPrice, err = priceParam(c, "min_price"); err != nil {
		return f, err
	}
	if f.MaxPrice, err = priceParam(c, "max_price"); err != nil {
		return f, err
	}
	if raw := c.Query("search"); strings.TrimSpace(raw) != "" {
		q, valid := validate.Q(raw)
		if !valid {
			applog.Security(c, "validation.fail", map[string]any{"field": "search"})
			return f, services.Invalid("search", "Enter a valid keyword")
		}
		f.Q = q
	}
	return f, nil
}

func (h *CatalogHandler) Products(c *fiber.Ctx) error {
	p := pageParams(c)
	f, err := productFilter(c, p)
	if err != nil {
		return serviceError(c, "product.list", err, "")
	}
	list, total, err := h.Catalog.ListProducts(c.UserContext(), f)
	if err != nil {
		return serviceError(c, "product.list", err, "")
	}
	data, valid := pageData(c, productViews(list), len(list), p, total)
	if !valid {
		return fail(c, fiber.StatusNotFound, "Invalid page.", nil)
	}
	sections, err := h.Home.FeaturedSections(c.UserContext())
	if err != nil {
		return serviceError(c, "product.list", err, "")
	}
	data["featured_sections"] = sections
	return ok(c, "Data retrieved successfully", data)
}

func (h *CatalogHandler) Product(c *fiber.Ctx) error {
	d, err := h.Catalog.Product(c.UserContext(), c.Params("slug"))
	if err != nil {
		return serviceError(c, "product.get", err, "")
	}
	return ok(c, "Product retrieved successfully", newProductDetailView(d))
}

func (h *CatalogHandler) Categories(c *fiber.Ctx) error {
	cats, err := h.Catalog.Categories(c.UserContext())
	if err != nil {
		return serviceError(c, "category.list", err, "")
	}
	return ok(c, "Categories retrieved successfully", cats)
}

func (h *CatalogHandler) Category(c *fiber.Ctx) error {
	p := pageParams(c)
	f, err := productFilter(c, p)
	if err != nil {
		return serviceError(c, "category.get", err, "")
	}
	cat, list, total, err := h.Catalog.Category(c.UserContext(), c.Params("slug"), f)
	if err != nil {
		return serviceError(c, "category.get", err, "")
	}
	data, valid := pageData(c, productViews(list), len(list), p, total)
	if !valid {
		return fail(c, fiber.StatusNotFound, "Invalid page.", nil)
	}
	data["category"] = cat
	return ok(c, "Category retrieved successfully", data)
}

func (h *CatalogHandler) Brands(c *fiber.Ctx) error {
	brands, err := h.Catalog.Brands(c.UserContext())
	if err != nil {
		return serviceError(c, "brand.list", err, "")
	}
	return ok(c, "Brands retrieved successfully", brands)
}

func (h *CatalogHandler) Brand(c *fiber.Ctx) error {
	p := pageParams(c)
	f, err := productFilter(c, p)
	if err != nil {
		return serviceError(c, "brand.get", err, "")
	}
	b, list, total, err := h.Catalog.Brand(c.UserContext(), c.Params("slug"), f)
	if err != nil {
		return serviceError(c, "brand.get", err, "")
	}
	data, valid := pageData(c, productViews(list), len(list), p, total)
	if !valid {
		return fail(c, fiber.StatusNotFound, "Invalid page.", nil)
	}
	data["brand"] = b
	return ok(c, "Brand retrieved successfully", data)
}

func (h *CatalogHandler) Search(c *fiber.Ctx) error {
	rawQ := c.Query("q")
	if strings.TrimSpace(rawQ) == "" {
		return fail(c, fiber.StatusBadRequest, "Search query 'q' is required",
			map[string][]string{"q": {"This field is required"}})
	}
	q, valid := validate.Q(rawQ)
	if !valid {
		applog.Security(c, "validation.fail", map[string]any{"field": "q", "value": rawQ})
		return fail(c, fiber.StatusBadRequest, "Enter a valid keyword", map[string][]string{"q": {"Enter a valid keyword"}})
	}
	typ := strings.ToLower(strings.TrimSpace(c.Query("type")))
	if typ == "" {
		return fail(c, fiber.StatusBadRequest, "Search type 'type' is required",
			map[string][]string{"type": {"This field is required. Must be one of: product, brand, category"}})
	}
	limit := validate.Limit(c.Query("limit"), defaultSearchLimit, maxSearchLimit)

	res, err := h.Catalog.Search(c.UserContext(), q, typ, limit)
	if err != nil {
		return serviceError(c, "search", err, "")
	}
	if products, isProducts := res.Results.([]domain.Product); isProducts {
		res.Results = productViews(products)
	}
	return ok(c, "Search results retrieved successfully", res)
}

func (h *CatalogHandler) Homepage(c *fiber.Ctx) error {
	home, err := h.Home.Homepage(c.UserContext())
	if err != nil {
		return serviceError(c, "homepage", err, "")
	}
	return ok(c, "Homepage data retrieved successfully", home)
}
