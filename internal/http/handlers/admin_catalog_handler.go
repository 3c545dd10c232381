package handlers

import (
	"time"

	applog "bikeshop/internal/log"
	"bikeshop/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// AdminCatalogHandler serves back-office catalog and storefront content edits.
type AdminCatalogHandler struct {
	Catalog *services.CatalogService
	Home    *services.HomepageService
}

type categoryReq struct {
	Name         string `json:"name" validate:"required,max=100"`
	Slug         string `json:"slug" validate:"max=120"`
	ParentID     *int64 `json:"parent_id"`
	Description  string `json:"description"`
	Image        string `json:"image" validate:"max=255"`
	DisplayOrder int    `json:"display_order" validate:"gte=0"`
}

type brandReq struct {
	Name        string `json:"name" validate:"required,max=100"`
	Slug        string `json:"slug" validate:"max=120"`
	Description string `json:"description"`
	Logo        string `json:"logo" validate:"max=255"`
	Website     string `json:"website" validate:"omitempty,url"`
}

type productReq struct {
	Title             string              `json:"title" validate:"required,max=200"`
	Slug              string              `json:"slug" validate:"max=220"`
	CategoryID        *int64              `json:"category_id"`
	BrandID           *int64              `json:"brand_id"`
	Description       string              `json:"description"`
	Price             decimal.Decimal     `json:"price"`
	SalePrice         decimal.NullDecimal `json:"sale_price"`
	Stock             int                 `json:"stock" validate:"gte=0"`
	LowStockThreshold *int                `json:"low_stock_threshold" validate:"omitempty,gte=0"`
	IsFeatured        bool                `json:"is_featured"`
	Images            []string            `json:"images" validate:"max=10,dive,max=255"`
}

type variantReq struct {
	SKU               string              `json:"sku" validate:"required,max=100"`
	Price             decimal.Decimal     `json:"price"`
	SalePrice         decimal.NullDecimal `json:"sale_price"`
	Stock             int                 `json:"stock" validate:"gte=0"`
	AttributeValueIDs []int64             `json:"attribute_value_ids"`
}

type attributeReq struct {
	Name   string   `json:"name" validate:"required,max=50"`
	Values []string `json:"values" validate:"dive,max=100"`
}

type bannerReq struct {
	Title         string     `json:"title" validate:"required,max=200"`
	Subtitle      string     `json:"subtitle" validate:"max=300"`
	Image         string     `json:"image" validate:"required,max=255"`
	MobileImage   string     `json:"mobile_image" validate:"max=255"`
	LinkProductID *int64     `json:"link_product_id"`
	ButtonText    string     `json:"button_text" validate:"max=50"`
	DisplayOrder  int        `json:"display_order" validate:"gte=0"`
	StartDate     *time.Time `json:"start_date"`
	EndDate       *time.Time `json:"end_date"`
}

type sectionReq struct {
	Title        string  `json:"title" validate:"required,max=200"`
	Subtitle     string  `json:"subtitle" validate:"max=300"`
	SectionType  string  `json:"section_type"`
	MaxProducts  int     `json:"max_products"`
	DisplayOrder int     `json:"display_order" validate:"gte=0"`
	ProductIDs   []int64 `json:"product_ids"`
}

type sectionProductsReq struct {
	ProductIDs []int64 `json:"product_ids"`
}

func (h *AdminCatalogHandler) CreateCategory(c *fiber.Ctx) error {
	var req categoryReq
	if err := bind(c, &req); err != nil {
		return serviceError(c, "admin.category.create", err, "")
	}
	cat, err := h.Catalog.CreateCategory(c.UserContext(), services.CategoryInput{
		Name: req.Name, Slug: req.Slug, ParentID: req.ParentID,
		Description: req.Description, Image: req.Image, DisplayOrder: req.DisplayOrder,
	})
	if err != nil {
		return serviceError(c, "admin.category.create", err, "")
	}
	applog.Audit(c, "admin.category.create", map[string]any{"category_id": cat.ID, "slug": cat.Slug})
	return created(c, "Category created successfully", cat)
}

func (h *AdminCatalogHandler) CreateBrand(c *fiber.Ctx) error {
	var req brandReq
	if err := bind(c, &req); err != nil {
		return serviceError(c, "admin.brand.create", err, "")
	}
	b, err := h.Catalog.CreateBrand(c.UserContext(), services.BrandInput{
		Name: req.Name, Slug: req.Slug, Description: req.Description, Logo: req.Logo, Website: req.Website,
	})
	if err != nil {
		return serviceError(c, "admin.brand.create", err, "")
	}
	applog.Audit(c, "admin.brand.create", map[string]any{"brand_id": b.ID, "slug": b.Slug})
	return created(c, "Brand created successfully", b)
}

func (h *AdminCatalogHandler) CreateProduct(c *fiber.Ctx) error {
	var req productReq
	if err := bind(c, &req); err != nil {
		return serviceError(c, "admin.product.create", err, "")
	}
	p, err := h.Catalog.CreateProduct(c.UserContext(), services.ProductInput{
		Title: req.Title, Slug: req.Slug, CategoryID: req.CategoryID, BrandID: req.BrandID,
		Description: req.Description, Price: req.Price, SalePrice: req.SalePrice, Stock: req.Stock,
		LowStockThreshold: req.LowStockThreshold, IsFeatured: req.IsFeatured, Images: req.Images,
	})
	if err != nil {
		return serviceError(c, "admin.product.create", err, "")
	}
	applog.Audit(c, "admin.product.create", map[string]any{"product_id": p.ID, "slug": p.Slug})
	return created(c, "Product created successfully", newProductView(*p))
}

func (h *AdminCatalogHandler) CreateVariant(c *fiber.Ctx) error {
	productID, valid := idParam(c, "id")
	if !valid {
		return fail(c, fiber.StatusNotFound, "Product not found", nil)
	}
	var req variantReq
	if err := bind(c, &req); err != nil {
		return serviceError(c, "admin.variant.create", err, "")
	}
	v, err := h.Catalog.CreateVariant(c.UserContext(), productID, services.VariantInput{
		SKU: req.SKU, Price: req.Price, SalePrice: req.SalePrice, Stock: req.Stock, AttributeValueIDs: req.AttributeValueIDs,
	})
	if err != nil {
		return serviceError(c, "admin.variant.create", err, "")
	}
	applog.Audit(c, "admin.variant.create", map[string]any{"product_id": productID, "sku": v.SKU})
	return created(c, "Variant created successfully", variantView{ProductVariant: *v, CurrentPrice: v.EffectivePrice(), Display: v.AttributesDisplay()})
}

func (h *AdminCatalogHandler) CreateAttribute(c *fiber.Ctx) error {
	var req attributeReq
	if err := bind(c, &req); err != nil {
		return serviceError(c, "admin.attribute.create", err, "")
	}
	at, err := h.Catalog.CreateAttribute(c.UserContext(), req.Name, req.Values)
	if err != nil {
		return serviceError(c, "admin.attribute.create", err, "")
	}
	applog.Audit(c, "admin.attribute.create", map[string]any{"attribute_id": at.ID, "values": len(at.Values)})
	return created(c, "Attribute created successfully", at)
}

func (h *AdminCatalogHandler) SetProductActive(c *fiber.Ctx) error {
	productID, valid := idParam(c, "id")
	if !valid {
		return fail(c, fiber.StatusNotFound, "Product not found", nil)
	}
	var req activeReq
	if err := bind(c, &req); err != nil {
		return serviceError(c, "admin.product.active", err, "")
	}
	if err := h.Catalog.SetProductActive(c.UserContext(), productID, *req.IsActive); err != nil {
		return serviceError(c, "admin.product.active", err, "")
	}
	applog.Audit(c, "admin.product.active", map[string]any{"product_id": productID, "is_active": *req.IsActive})
	return ok(c, "Product updated successfully", fiber.Map{"id": productID, "is_active": *req.IsActive})
}

func (h *AdminCatalogHandler) Banners(c *fiber.Ctx) error {
	list, err := h.Home.Banners(c.UserContext())
	if err != nil {
		return serviceError(c, "admin.banner.list", err, "")
	}
	return ok(c, "Banners retrieved successfully", list)
}

func (h *AdminCatalogHandler) CreateBanner(c *fiber.Ctx) error {
	var req bannerReq
	if err := bind(c, &req); err != nil {
		return serviceError(c, "admin.banner.create", err, "")
	}
	b, err := h.Home.CreateBanner(c.UserContext(), services.BannerInput{
		Title: req.Title, Subtitle: req.Subtitle, Image: req.Image, MobileImage: req.MobileImage,
		LinkProductID: req.LinkProductID, ButtonText: req.ButtonText, DisplayOrder: req.DisplayOrder,
		StartDate: req.StartDate, EndDate: req.EndDate,
	})
	if err != nil {
		return serviceError(c, "admin.banner.create", err, "")
	}
	applog.Audit(c, "admin.banner.create", map[string]any{"banner_id": b.ID})
	return created(c, "Banner created successfully", b)
}

func (h *AdminCatalogHandler) ToggleBanner(c *fiber.Ctx) error {
	id, valid := idParam(c, "id")
	if !valid {
		return fail(c, fiber.StatusNotFound, "Banner not found", nil)
	}
	active, err := h.Home.ToggleBanner(c.UserContext(), id)
	if err != nil {
		return serviceError(c, "admin.banner.toggle", err, "")
	}
	applog.Audit(c, "admin.banner.toggle", map[string]any{"banner_id": id, "is_active": active})
	return ok(c, "Banner updated successfully", fiber.Map{"id": id, "is_active": active})
}

func (h *AdminCatalogHandler) DeleteBanner(c *fiber.Ctx) error {
	id, valid := idParam(c, "id")
	if !valid {
		return fail(c, fiber.StatusNotFound, "Banner not found", nil)
	}
	if err := h.Home.DeleteBanner(c.UserContext(), id); err != nil {
		return serviceError(c, "admin.banner.delete", err, "")
	}
	applog.Audit(c, "admin.banner.delete", map[string]any{"banner_id": id})
	return ok(c, "Banner deleted successfully", nil)
}

func (h *AdminCatalogHandler) CreateSection(c *fiber.Ctx) error {
	var req sectionReq
	if err := bind(c, &req); err != nil {
		return serviceError(c, "admin.section.create", err, "")
	}
	s, err := h.Home.CreateSection(c.UserContext(), services.SectionInput{
		Title: req.Title, Subtitle: req.Subtitle, SectionType: req.SectionType,
		MaxProducts: req.MaxProducts, DisplayOrder: req.DisplayOrder, ProductIDs: req.ProductIDs,
	})
	if err != nil {
		return serviceError(c, "admin.section.create", err, "")
	}
	applog.Audit(c, "admin.section.create", map[string]any{"section_id": s.ID, "type": s.SectionType})
	return created(c, "Featured section created successfully", s)
}

func (h *AdminCatalogHandler) SetSectionProducts(c *fiber.Ctx) error {
	id, valid := idParam(c, "id")
	if !valid {
		return fail(c, fiber.StatusNotFound, "Featured section not found", nil)
	}
	var req sectionProductsReq
	if err := bind(c, &req); err != nil {
		return serviceError(c, "admin.section.products", err, "")
	}
	s, err := h.Home.SetSectionProducts(c.UserContext(), id, req.ProductIDs)
	if err != nil {
		return serviceError(c, "admin.section.products", err, "")
	}
	applog.Audit(c, "admin.section.products", map[string]any{"section_id": id, "products": len(s.Products)})
	return ok(c, "Featured section updated successfully", s)
}

type categoryPatchReq struct {
	Name         *string `json:"name" validate:"omitempty,max=100"`
	Slug         *string `json:"slug" validate:"omitempty,max=120"`
	ParentID     *int64  `json:"parent_id" validate:"omitempty,gte=0"`
	Description  *string `json:"description"`
	Image        *string `json:"image" validate:"omitempty,max=255"`
	DisplayOrder *int    `json:"display_order" validate:"omitempty,gte=0"`
	IsActive     *bool   `json:"is_active"`
}

type brandPatchReq struct {
	Name        *string `json:"name" validate:"omitempty,max=100"`
	Slug        *string `json:"slug" validate:"omitempty,max=120"`
	Description *string `json:"description"`
	Logo        *string `json:"logo" validate:"omitempty,max=255"`
	Website     *string `json:"website" validate:"omitempty,url"`
	IsActive    *bool   `json:"is_active"`
}

type productPatchReq struct {
	Title             *string          `json:"title" validate:"omitempty,max=200"`
	Slug              *string          `json:"slug" validate:"omitempty,max=220"`
	CategoryID        *int64           `json:"category_id" validate:"omitempty,gte=0"`
	BrandID           *int64           `json:"brand_id" validate:"omitempty,gte=0"`
	Description       *string          `json:"description"`
	Price             *decimal.Decimal `json:"price"`
	SalePrice         *decimal.Decimal `json:"sale_price"`
	ClearSalePrice    bool             `json:"clear_sale_price"`
	Stock             *int             `json:"stock" validate:"omitempty,gte=0"`
	LowStockThreshold *int             `json:"low_stock_threshold" validate:"omitempty,gte=0"`
	IsFeatured        *bool            `json:"is_featured"`
	IsActive          *bool            `json:"is_active"`
}

type variantPatchReq struct {
	SKU            *string          `json:"sku" validate:"omitempty,max=100"`
	Price          *decimal.Decimal `json:"price"`
	SalePrice      *decimal.Decimal `json:"sale_price"`
	ClearSalePrice bool             `json:"clear_sale_price"`
	Stock          *int             `json:"stock" validate:"omitempty,gte=0"`
	IsActive       *bool            `json:"is_active"`
}

type attributePatchReq struct {
	Name      *string  `json:"name" validate:"omitempty,max=50"`
	AddValues []string `json:"add_values" validate:"dive,max=100"`
}

type attributeValueReq struct {
	Value string `json:"value" validate:"required,max=100"`
}

func (h *AdminCatalogHandler) UpdateCategory(c *fiber.Ctx) error {
	id, valid := idParam(c, "id")
	if !valid {
		return fail(c, fiber.StatusNotFound, "Category not found", nil)
	}
	var req categoryPatchReq
	if err := bind(c, &req); err != nil {
		return serviceError(c, "admin.category.update", err, "")
	}
	cat, err := h.Catalog.UpdateCategory(c.UserContext(), id, services.CategoryPatch{
		Name: req.Name, Slug: req.Slug, ParentID: req.ParentID, Description: req.Description,
		Image: req.Image, DisplayOrder: req.DisplayOrder, IsActive: req.IsActive,
	})
	if err != nil {
		return serviceError(c, "admin.category.update", err, "")
	}
	applog.Audit(c, "admin.category.update", map[string]any{"category_id": id, "slug": cat.Slug})
	return ok(c, "Category updated successfully", cat)
}

func (h *AdminCatalogHandler) DeleteCategory(c *fiber.Ctx) error {
	id, valid := idParam(c, "id")
	if !valid {
		return fail(c, fiber.StatusNotFound, "Category not found", nil)
	}
	if err := h.Catalog.DeleteCategory(c.UserContext(), id); err != nil {
		return serviceError(c, "admin.category.delete", err, "")
	}
	applog.Audit(c, "admin.category.delete", map[string]any{"category_id": id})
	return ok(c, "Category deleted successfully", nil)
}

func (h *AdminCatalogHandler) UpdateBrand(c *fiber.Ctx) error {
	id, valid := idParam(c, "id")
	if !valid {
		return fail(c, fiber.StatusNotFound, "Brand not found", nil)
	}
	var req brandPatchReq
	if err := bind(c, &req); err != nil {
		return serviceError(c, "admin.brand.update", err, "")
	}
	b, err := h.Catalog.UpdateBrand(c.UserContext(), id, services.BrandPatch{
		Name: req.Name, Slug: req.Slug, Description: req.Description, Logo: req.Logo,
		Website: req.Website, IsActive: req.IsActive,
	})
	if err != nil {
		return serviceError(c, "admin.brand.update", err, "")
	}
	applog.Audit(c, "admin.brand.update", map[string]any{"brand_id": id, "slug": b.Slug})
	return ok(c, "Brand updated successfully", b)
}

func (h *AdminCatalogHandler) DeleteBrand(c *fiber.Ctx) error {
	id, valid := idParam(c, "id")
	if !valid {
		return fail(c, fiber.StatusNotFound, "Brand not found", nil)
	}
	if err := h.Catalog.DeleteBrand(c.UserContext(), id); err != nil {
		return serviceError(c, "admin.brand.delete", err, "")
	}
	applog.Audit(c, "admin.brand.delete", map[string]any{"brand_id": id})
	return ok(c, "Brand deleted successfully", nil)
}

func (h *AdminCatalogHandler) UpdateProduct(c *fiber.Ctx) error {
	id, valid := idParam(c, "id")
	if !valid {
		return fail(c, fiber.StatusNotFound, "Product not found", nil)
	}
	var req productPatchReq
	if err := bind(c, &req); err != nil {
		return serviceError(c, "admin.product.update", err, "")
	}
	p, err := h.Catalog.UpdateProduct(c.UserContext(), id, services.ProductPatch{
		Title: req.Title, Slug: req.Slug, CategoryID: req.CategoryID, BrandID: req.BrandID,
		Description: req.Description, Price: req.Price, SalePrice: req.SalePrice, ClearSalePrice: req.ClearSalePrice,
		Stock: req.Stock, LowStockThreshold: req.LowStockThreshold, IsFeatured: req.IsFeatured, IsActive: req.IsActive,
	})
	if err != nil {
		return serviceError(c, "admin.product.update", err, "")
	}
	applog.Audit(c, "admin.product.update", map[string]any{"product_id": id, "slug": p.Slug})
	return ok(c, "Product updated successfully", newProductView(*p))
}

func (h *AdminCatalogHandler) DeleteProduct(c *fiber.Ctx) error {
	id, valid := idParam(c, "id")
	if !valid {
		return fail(c, fiber.StatusNotFound, "Product not found", nil)
	}
	if err := h.Catalog.DeleteProduct(c.UserContext(), id); err != nil {
		return serviceError(c, "admin.product.delete", err, "")
	}
	applog.Audit(c, "admin.product.delete", map[string]any{"product_id": id})
	return ok(c, "Product deleted successfully", nil)
}

func (h *AdminCatalogHandler) UpdateVariant(c *fiber.Ctx) error {
	id, valid := idParam(c, "id")
	if !valid {
		return fail(c, fiber.StatusNotFound, "Variant not found", nil)
	}
	var req variantPatchReq
	if err := bind(c, &req); err != nil {
		return serviceError(c, "admin.variant.update", err, "")
	}
	v, err := h.Catalog.UpdateVariant(c.UserContext(), id, services.VariantPatch{
		SKU: req.SKU, Price: req.Price, SalePrice: req.SalePrice, ClearSalePrice: req.ClearSalePrice,
		Stock: req.Stock, IsActive: req.IsActive,
	})
	if err != nil {
		return serviceError(c, "admin.variant.update", err, "")
	}
	applog.Audit(c, "admin.variant.update", map[string]any{"variant_id": id, "sku": v.SKU})
	return ok(c, "Variant updated successfully", variantView{ProductVariant: *v, CurrentPrice: v.EffectivePrice(), Display: v.AttributesDisplay()})
}

func (h *AdminCatalogHandler) DeleteVariant(c *fiber.Ctx) error {
	id, valid := idParam(c, "id")
	if !valid {
		return fail(c, fiber.StatusNotFound, "Variant not found", nil)
	}
	if err := h.Catalog.DeleteVariant(c.UserContext(), id); err != nil {
		return serviceError(c, "admin.variant.delete", err, "")
	}
	applog.Audit(c, "admin.variant.delete", map[string]any{"variant_id": id})
	return ok(c, "Variant deleted successfully", nil)
}

func (h *AdminCatalogHandler) GetAttribute(c *fiber.Ctx) error {
	id, valid := idParam(c, "id")
	if !valid {
		return fail(c, fiber.StatusNotFound, "Attribute not found", nil)
	}
	at, err := h.Catalog.Attribute(c.UserContext(), id)
	if err != nil {
		return serviceError(c, "admin.attribute.get", err, "")
	}
	return ok(c, "Data retrieved successfully", at)
}

func (h *AdminCatalogHandler) UpdateAttribute(c *fiber.Ctx) error {
	id, valid := idParam(c, "id")
	if !valid {
		return fail(c, fiber.StatusNotFound, "Attribute not found", nil)
	}
	var req attributePatchReq
	if err := bind(c, &req); err != nil {
		return serviceError(c, "admin.attribute.update", err, "")
	}
	at, err := h.Catalog.UpdateAttribute(c.UserContext(), id, req.Name, req.AddValues)
	if err != nil {
		return serviceError(c, "admin.attribute.update", err, "")
	}
	applog.Audit(c, "admin.attribute.update", map[string]any{"attribute_id": id, "values": len(at.Values)})
	return ok(c, "Attribute updated successfully", at)
}

func (h *AdminCatalogHandler) DeleteAttribute(c *fiber.Ctx) error {
	id, valid := idParam(c, "id")
	if !valid {
		return fail(c, fiber.StatusNotFound, "Attribute not found", nil)
	}
	if err := h.Catalog.DeleteAttribute(c.UserContext(), id); err != nil {
		return serviceError(c, "admin.attribute.delete", err, "")
	}
	applog.Audit(c, "admin.attribute.delete", map[string]any{"attribute_id": id})
	return ok(c, "Attribute deleted successfully", nil)
}

func (h *AdminCatalogHandler) UpdateAttributeValue(c *fiber.Ctx) error {
	id, valid := idParam(c, "id")
	if !valid {
		return fail(c, fiber.StatusNotFound, "Attribute value not found", nil)
	}
	var req attributeValueReq
	if err := bind(c, &req); err != nil {
		return serviceError(c, "admin.attribute_value.update", err, "")
	}
	v, err := h.Catalog.UpdateAttributeValue(c.UserContext(), id, req.Value)
	if err != nil {
		return serviceError(c, "admin.attribute_value.update", err, "")
	}
	applog.Audit(c, "admin.attribute_value.update", map[string]any{"value_id": id})
	return ok(c, "Attribute value updated successfully", v)
}

func (h *AdminCatalogHandler) DeleteAttributeValue(c *fiber.Ctx) error {
	id, valid := idParam(c, "id")
	if !valid {
		return fail(c, fiber.StatusNotFound, "Attribute value not found", nil)
	}
	if err := h.Catalog.DeleteAttributeValue(c.UserContext(), id); err != nil {
		return serviceError(c, "admin.attribute_value.delete", err, "")
	}
	applog.Audit(c, "admin.attribute_value.delete", map[string]any{"value_id": id})
	return ok(c, "Attribute value deleted successfully", nil)
}
