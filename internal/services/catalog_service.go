package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"bikeshop/internal/domain"
	"bikeshop/internal/repos"

	"github.com/gosimple/slug"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type CatalogService struct {
	DB    *sqlx.DB
	Cats  *repos.CategoryRepo
	Prods *repos.ProductRepo
}

func NewCatalogService(db *sqlx.DB) *CatalogService {
	return &CatalogService{DB: db, Cats: repos.NewCategoryRepo(db), Prods: repos.NewProductRepo(db)}
}

func (s *CatalogService) ListProducts(ctx context.Context, f repos.ProductFilter) ([]domain.Product, int, error) {
	if f.Ordering != "" && !repos.ValidOrdering(f.Ordering) {
		return nil, 0, Invalid("ordering", fmt.Sprintf("%q is not a valid ordering.", f.Ordering))
	}
	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		return nil, 0, Invalid("min_price", "min_price cannot be greater than max_price")
	}
	return s.Prods.List(ctx, f)
}

// ProductDetail is a product with its gallery, active variants and the
// attribute values those variants offer, grouped by attribute type.
type ProductDetail struct {
	domain.Product
	AvailableAttributes map[string][]string `json:"available_attributes"`
}

func (s *CatalogService) Product(ctx context.Context, productSlug string) (*ProductDetail, error) {
	p, err := s.Prods.BySlug(ctx, productSlug)
	if err != nil {
		return nil, notFound("Product", err)
	}
	if !p.IsActive {
		return nil, &NotFoundError{What: "Product"}
	}
	if p.Images, err = s.Prods.Images(ctx, p.ID); err != nil {
		return nil, err
	}
	if p.Variants, err = s.Prods.Variants(ctx, p.ID, true); err != nil {
		return nil, err
	}
	return &ProductDetail{Product: *p, AvailableAttributes: availableAttributes(p.Variants)}, nil
}

func availableAttributes(vs []domain.ProductVariant) map[string][]string {
	seen := map[string]map[string]bool{}
	out := map[string][]string{}
	for _, v := range vs {
		for _, a := range v.Attributes {
			if seen[a.TypeName] == nil {
				seen[a.TypeName] = map[string]bool{}
			}
			if !seen[a.TypeName][a.Value] {
				seen[a.TypeName][a.Value] = true
				out[a.TypeName] = append(out[a.TypeName], a.Value)
			}
		}
	}
	for k := range out {
		sort.Strings(out[k])
	}
	return out
}

func (s *CatalogService) Categories(ctx context.Context) ([]repos.CategoryCount, error) {
	return s.Cats.List(ctx, 0)
}

func (s *CatalogService) Category(ctx context.Context, categorySlug string, f repos.ProductFilter) (*domain.Category, []domain.Product, int, error) {
	c, err := s.Cats.BySlug(ctx, categorySlug)
	if err != nil {
		return nil, nil, 0, notFound("Category", err)
	}
	f.CategoryID = c.ID
	list, total, err := s.ListProducts(ctx, f)
	return c, list, total, err
}

func (s *CatalogService) Brands(ctx context.Context) ([]repos.BrandCount, error) {
	return s.Cats.Brands(ctx, 0)
}

func (s *CatalogService) Brand(ctx context.Context, brandSlug string, f repos.ProductFilter) (*domain.Brand, []domain.Product, int, error) {
	b, err := s.Cats.BrandBySlug(ctx, brandSlug)
	if err != nil {
		return nil, nil, 0, notFound("Brand", err)
	}
	f.BrandID = b.ID
	list, total, err := s.ListProducts(ctx, f)
	return b, list, total, err
}

const (
	SearchProduct  = "product"
	SearchCategory = "category"
	SearchBrand    = "brand"
)

type SearchResult struct {
	Query   string `json:"query"`
	Type    string `json:"type"`
	Count   int    `json:"count"`
	Results any    `json:"results"`
}

// Search matches active products, categories or brands by name and description.
func (s *CatalogService) Search(ctx context.Context, q, typ string, limit int) (*SearchResult, error) {
	res := &SearchResult{Query: q, Type: typ}
	switch typ {
	case SearchProduct:
		list, _, err := s.Prods.List(ctx, repos.ProductFilter{Q: q, Limit: limit})
		if err != nil {
			return nil, err
		}
		res.Results, res.Count = list, len(list)
	case SearchCategory:
		list, err := s.Cats.Search(ctx, q, limit)
		if err != nil {
			return nil, err
		}
		res.Results, res.Count = list, len(list)
	case SearchBrand:
		list, err := s.Cats.SearchBrands(ctx, q, limit)
		if err != nil {
			return nil, err
		}
		res.Results, res.Count = list, len(list)
	default:
		return nil, Invalid("type", "Invalid type. Must be one of: product, category, brand")
	}
	return res, nil
}

// ---------- Back office ----------

// slugFor normalizes an explicit slug or derives one from name.
func slugFor(explicit, name string) (string, error) {
	if strings.TrimSpace(explicit) == "" {
		s := slug.Make(name)
		if s == "" {
			return "", Invalid("slug", "Could not derive a slug from the name")
		}
		return s, nil
	}
	if !slug.IsSlug(explicit) {
		return "", Invalid("slug", `Enter a valid "slug" consisting of letters, numbers, underscores or hyphens.`)
	}
	return explicit, nil
}

type CategoryInput struct {
	Name         string
	Slug         string
	ParentID     *int64
	Description  string
	Image        string
	DisplayOrder int
}

func (s *CatalogService) CreateCategory(ctx context.Context, in CategoryInput) (*domain.Category, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, Invalid("name", "This field is required.")
	}
	sl, err := slugFor(in.Slug, name)
	if err != nil {
		return nil, err
	}
	if taken, err := s.Cats.NameOrSlugTaken(ctx, "categories", name, sl, 0); err != nil {
		return nil, err
	} else if taken {
		return nil, Invalid("slug", "category with this name or slug already exists.")
	}
	if in.ParentID != nil {
		if _, err := s.Cats.ByID(ctx, *in.ParentID); err != nil {
			return nil, notFound("Parent category", err)
		}
	}
	c := &domain.Category{Name: name, Slug: sl, ParentID: in.ParentID, Description: in.Description,
		Image: in.Image, DisplayOrder: in.DisplayOrder, IsActive: true}
	if err := s.Cats.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

type BrandInput struct {
	Name        string
	Slug        string
	Description string
	Logo        string
	Website     string
}

func (s *CatalogService) CreateBrand(ctx context.Context, in BrandInput) (*domain.Brand, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, Invalid("name", "This field is required.")
	}
	sl, err := slugFor(in.Slug, name)
	if err != nil {
		return nil, err
	}
	if taken, err := s.Cats.NameOrSlugTaken(ctx, "brands", name, sl, 0); err != nil {
		return nil, err
	} else if taken {
		return nil, Invalid("slug", "brand with this name or slug already exists.")
	}
	b := &domain.Brand{Name: name, Slug: sl, Description: in.Description, Logo: in.Logo, Website: in.Website, IsActive: true}
	if err := s.Cats.CreateBrand(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

type ProductInput struct {
	Title             string
	Slug              string
	CategoryID        *int64
	BrandID           *int64
	Description       string
	Price             decimal.Decimal
	SalePrice         decimal.NullDecimal
	Stock             int
	LowStockThreshold *int
	IsFeatured        bool
	Images            []string
}

func checkPrices(price decimal.Decimal, sale decimal.NullDecimal) error {
	if !price.IsPositive() {
		return Invalid("price", "Price must be greater than 0")
	}
	if !domain.ValidSalePrice(price, sale) {
		return Invalid("sale_price", "Sale price must be less than regular price")
	}
	return nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput) (*domain.Product, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, Invalid("title", "This field is required.")
	}
	if err := checkPrices(in.Price, in.SalePrice); err != nil {
		return nil, err
	}
	if in.Stock < 0 {
		return nil, Invalid("stock", "Ensure this value is greater than or equal to 0.")
	}
	sl, err := slugFor(in.Slug, title)
	if err != nil {
		return nil, err
	}
	threshold := 5
	if in.LowStockThreshold != nil {
		if *in.LowStockThreshold < 0 {
			return nil, Invalid("low_stock_threshold", "Ensure this value is greater than or equal to 0.")
		}
		threshold = *in.LowStockThreshold
	}

	var id int64
	err = repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		prods := repos.NewProductRepo(tx)
		cats := repos.NewCategoryRepo(tx)
		if taken, err := prods.SlugTaken(ctx, sl, 0); err != nil {
			return err
		} else if taken {
			return Invalid("slug", "product with this slug already exists.")
		}
		if in.CategoryID != nil {
			if _, err := cats.ByID(ctx, *in.CategoryID); err != nil {
				return notFound("Category", err)
			}
		}
		if in.BrandID != nil {
			if _, err := cats.BrandByID(ctx, *in.BrandID); err != nil {
				return notFound("Brand", err)
			}
		}
		p := &domain.Product{Title: title, Slug: sl, CategoryID: in.CategoryID, BrandID: in.BrandID,
			Description: in.Description, Price: in.Price, SalePrice: in.SalePrice, Stock: in.Stock,
			LowStockThreshold: threshold, IsFeatured: in.IsFeatured, IsActive: true}
		if err := prods.Create(ctx, p); err != nil {
			return err
		}
		for i, path := range in.Images {
			if err := prods.AddImage(ctx, &domain.ProductImage{ProductID: p.ID, Path: path, AltText: title, Position: i}); err != nil {
				return err
			}
		}
		id = p.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	p, err := s.Prods.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Images, err = s.Prods.Images(ctx, id)
	return p, err
}

type VariantInput struct {
	SKU               string
	Price             decimal.Decimal
	SalePrice         decimal.NullDecimal
	Stock             int
	AttributeValueIDs []int64
}

func (s *CatalogService) CreateVariant(ctx context.Context, productID int64, in VariantInput) (*domain.ProductVariant, error) {
	sku := strings.TrimSpace(in.SKU)
	if sku == "" {
		return nil, Invalid("sku", "This field is required.")
	}
	if err := checkPrices(in.Price, in.SalePrice); err != nil {
		return nil, err
	}
	if in.Stock < 0 {
		return nil, Invalid("stock", "Ensure this value is greater than or equal to 0.")
	}
	var id int64
	err := repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		prods := repos.NewProductRepo(tx)
		if _, err := prods.ByID(ctx, productID); err != nil {
			return notFound("Product", err)
		}
		if taken, err := prods.SKUTaken(ctx, sku, 0); err != nil {
			return err
		} else if taken {
			return Invalid("sku", "product variant with this sku already exists.")
		}
		vals, err := prods.AttributeValues(ctx, in.AttributeValueIDs)
		if err != nil {
			return err
		}
		if len(vals) != len(in.AttributeValueIDs) {
			return Invalid("attribute_value_ids", "One or more attribute values do not exist")
		}
		types := map[int64]bool{}
		for _, v := range vals {
			if types[v.TypeID] {
				return Invalid("attribute_value_ids", "A variant can hold only one value per attribute type")
			}
			types[v.TypeID] = true
		}
		v := &domain.ProductVariant{ProductID: productID, SKU: sku, Price: in.Price, SalePrice: in.SalePrice,
			Stock: in.Stock, IsActive: true}
		if err := prods.CreateVariant(ctx, v, in.AttributeValueIDs); err != nil {
			return err
		}
		id = v.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Prods.VariantByID(ctx, id)
}

// AttributeWithValues is an attribute type and the values created under it.
type AttributeWithValues struct {
	domain.AttributeType
	Values []domain.AttributeValue `json:"values"`
}

func (s *CatalogService) CreateAttribute(ctx context.Context, name string, values []string) (*AttributeWithValues, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, Invalid("name", "This field is required.")
	}
	out := &AttributeWithValues{AttributeType: domain.AttributeType{Name: name, Slug: slug.Make(name)}}
	err := repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		if taken, err := repos.NewCategoryRepo(tx).NameOrSlugTaken(ctx, "attribute_types", name, out.Slug, 0); err != nil {
			return err
		} else if taken {
			return Invalid("name", "attribute type with this name already exists.")
		}
		prods := repos.NewProductRepo(tx)
		if err := prods.CreateAttributeType(ctx, &out.AttributeType); err != nil {
			return err
		}
		seen := map[string]bool{}
		for _, raw := range values {
			val := strings.TrimSpace(raw)
			if val == "" || seen[strings.ToLower(val)] {
				continue
			}
			seen[strings.ToLower(val)] = true
			av := domain.AttributeValue{TypeID: out.ID, TypeName: out.Name, Value: val}
			if err := prods.CreateAttributeValue(ctx, &av); err != nil {
				return err
			}
			out.Values = append(out.Values, av)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *CatalogService) SetProductActive(ctx context.Context, productID int64, active bool) error {
	return notFound("Product", s.Prods.SetActive(ctx, productID, active))
}

const errVariantStock = "This product has variants. Please set stock per variant"

// trimmed returns the trimmed value of a set field, or a required-field error when it is blank.
func trimmed(field string, v *string) (string, error) {
	out := strings.TrimSpace(*v)
	if out == "" {
		return "", Invalid(field, "This field is required.")
	}
	return out, nil
}

// optionalRef turns a patch reference into a column value; 0 clears it.
func optionalRef(id int64) *int64 {
	if id == 0 {
		return nil
	}
	return &id
}

// CategoryPatch carries the fields to change; nil leaves a field as is and
// ParentID 0 moves the category to the top level.
type CategoryPatch struct {
	Name         *string
	Slug         *string
	ParentID     *int64
	Description  *string
	Image        *string
	DisplayOrder *int
	IsActive     *bool
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id int64, in CategoryPatch) (*domain.Category, error) {
	var out *domain.Category
	err := repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		cats := repos.NewCategoryRepo(tx)
		c, err := cats.ByID(ctx, id)
		if err != nil {
			return notFound("Category", err)
		}
		if in.Name != nil {
			if c.Name, err = trimmed("name", in.Name); err != nil {
				return err
			}
		}
		if in.Slug != nil {
			if c.Slug, err = slugFor(*in.Slug, c.Name); err != nil {
				return err
			}
		}
		if taken, err := cats.NameOrSlugTaken(ctx, "categories", c.Name, c.Slug, c.ID); err != nil {
			return err
		} else if taken {
			return Invalid("slug", "category with this name or slug already exists.")
		}
		if in.ParentID != nil {
			if *in.ParentID != 0 {
				if err := checkParent(ctx, cats, c.ID, *in.ParentID); err != nil {
					return err
				}
			}
			c.ParentID = optionalRef(*in.ParentID)
		}
		if in.DisplayOrder != nil {
			if *in.DisplayOrder < 0 {
				return Invalid("display_order", "Ensure this value is greater than or equal to 0.")
			}
			c.DisplayOrder = *in.DisplayOrder
		}
		if in.Description != nil {
			c.Description = *in.Description
		}
		if in.Image != nil {
			c.Image = *in.Image
		}
		if in.IsActive != nil {
			c.IsActive = *in.IsActive
		}
		if err := cats.Update(ctx, c); err != nil {
			return err
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// checkParent rejects a parent that is the category itself or lies below it.
func checkParent(ctx context.Context, cats *repos.CategoryRepo, id, parentID int64) error {
	for cur := parentID; ; {
		if cur == id {
			return Invalid("parent_id", "A category cannot be moved under itself")
		}
		p, err := cats.ByID(ctx, cur)
		if err != nil {
			return notFound("Parent category", err)
		}
		if p.ParentID == nil {
			return nil
		}
		cur = *p.ParentID
	}
}

// DeleteCategory removes a category with its subcategories. Their products
// remain and lose the category.
func (s *CatalogService) DeleteCategory(ctx context.Context, id int64) error {
	return notFound("Category", s.Cats.Delete(ctx, id))
}

type BrandPatch struct {
	Name        *string
	Slug        *string
	Description *string
	Logo        *string
	Website     *string
	IsActive    *bool
}

func (s *CatalogService) UpdateBrand(ctx context.Context, id int64, in BrandPatch) (*domain.Brand, error) {
	var out *domain.Brand
	err := repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		cats := repos.NewCategoryRepo(tx)
		b, err := cats.BrandByID(ctx, id)
		if err != nil {
			return notFound("Brand", err)
		}
		if in.Name != nil {
			if b.Name, err = trimmed("name", in.Name); err != nil {
				return err
			}
		}
		if in.Slug != nil {
			if b.Slug, err = slugFor(*in.Slug, b.Name); err != nil {
				return err
			}
		}
		if taken, err := cats.NameOrSlugTaken(ctx, "brands", b.Name, b.Slug, b.ID); err != nil {
			return err
		} else if taken {
			return Invalid("slug", "brand with this name or slug already exists.")
		}
		if in.Description != nil {
			b.Description = *in.Description
		}
		if in.Logo != nil {
			b.Logo = *in.Logo
		}
		if in.Website != nil {
			b.Website = *in.Website
		}
		if in.IsActive != nil {
			b.IsActive = *in.IsActive
		}
		if err := cats.UpdateBrand(ctx, b); err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteBrand removes a brand; its products remain without one.
func (s *CatalogService) DeleteBrand(ctx context.Context, id int64) error {
	return notFound("Brand", s.Cats.DeleteBrand(ctx, id))
}

// ProductPatch carries the fields to change. CategoryID and BrandID 0 clear
// the reference; ClearSalePrice drops the sale price.
type ProductPatch struct {
	Title             *string
	Slug              *string
	CategoryID        *int64
	BrandID           *int64
	Description       *string
	Price             *decimal.Decimal
	SalePrice         *decimal.Decimal
	ClearSalePrice    bool
	Stock             *int
	LowStockThreshold *int
	IsFeatured        *bool
	IsActive          *bool
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id int64, in ProductPatch) (*domain.Product, error) {
	err := repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		prods := repos.NewProductRepo(tx)
		cats := repos.NewCategoryRepo(tx)
		p, err := prods.ByID(ctx, id)
		if err != nil {
			return notFound("Product", err)
		}
		if in.Title != nil {
			if p.Title, err = trimmed("title", in.Title); err != nil {
				return err
			}
		}
		if in.Slug != nil {
			if p.Slug, err = slugFor(*in.Slug, p.Title); err != nil {
				return err
			}
			if taken, err := prods.SlugTaken(ctx, p.Slug, p.ID); err != nil {
				return err
			} else if taken {
				return Invalid("slug", "product with this slug already exists.")
			}
		}
		if in.CategoryID != nil {
			if *in.CategoryID != 0 {
				if _, err := cats.ByID(ctx, *in.CategoryID); err != nil {
					return notFound("Category", err)
				}
			}
			p.CategoryID = optionalRef(*in.CategoryID)
		}
		if in.BrandID != nil {
			if *in.BrandID != 0 {
				if _, err := cats.BrandByID(ctx, *in.BrandID); err != nil {
					return notFound("Brand", err)
				}
			}
			p.BrandID = optionalRef(*in.BrandID)
		}
		if in.Price != nil {
			p.Price = *in.Price
		}
		switch {
		case in.ClearSalePrice:
			p.SalePrice = decimal.NullDecimal{}
		case in.SalePrice != nil:
			p.SalePrice = decimal.NullDecimal{Decimal: *in.SalePrice, Valid: true}
		}
		if err := checkPrices(p.Price, p.SalePrice); err != nil {
			return err
		}
		if in.Stock != nil {
			if *in.Stock < 0 {
				return Invalid("stock", "Ensure this value is greater than or equal to 0.")
			}
			if p.HasVariants() {
				return &RuleError{Message: errVariantStock}
			}
			p.Stock = *in.Stock
		}
		if in.LowStockThreshold != nil {
			if *in.LowStockThreshold < 0 {
				return Invalid("low_stock_threshold", "Ensure this value is greater than or equal to 0.")
			}
			p.LowStockThreshold = *in.LowStockThreshold
		}
		if in.Description != nil {
			p.Description = *in.Description
		}
		if in.IsFeatured != nil {
			p.IsFeatured = *in.IsFeatured
		}
		if in.IsActive != nil {
			p.IsActive = *in.IsActive
		}
		return prods.Update(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	p, err := s.Prods.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Images, err = s.Prods.Images(ctx, id)
	return p, err
}

// DeleteProduct removes a product with its variants, images and cart lines.
// Order lines keep their title, SKU and attribute snapshot.
func (s *CatalogService) DeleteProduct(ctx context.Context, id int64) error {
	return notFound("Product", s.Prods.Delete(ctx, id))
}

type VariantPatch struct {
	SKU            *string
	Price          *decimal.Decimal
	SalePrice      *decimal.Decimal
	ClearSalePrice bool
	Stock          *int
	IsActive       *bool
}

func (s *CatalogService) UpdateVariant(ctx context.Context, id int64, in VariantPatch) (*domain.ProductVariant, error) {
	err := repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		prods := repos.NewProductRepo(tx)
		v, err := prods.VariantByID(ctx, id)
		if err != nil {
			return notFound("Variant", err)
		}
		if in.SKU != nil {
			if v.SKU, err = trimmed("sku", in.SKU); err != nil {
				return err
			}
			if taken, err := prods.SKUTaken(ctx, v.SKU, v.ID); err != nil {
				return err
			} else if taken {
				return Invalid("sku", "product variant with this sku already exists.")
			}
		}
		if in.Price != nil {
			v.Price = *in.Price
		}
		switch {
		case in.ClearSalePrice:
			v.SalePrice = decimal.NullDecimal{}
		case in.SalePrice != nil:
			v.SalePrice = decimal.NullDecimal{Decimal: *in.SalePrice, Valid: true}
		}
		if err := checkPrices(v.Price, v.SalePrice); err != nil {
			return err
		}
		if in.Stock != nil {
			if *in.Stock < 0 {
				return Invalid("stock", "Ensure this value is greater than or equal to 0.")
			}
			v.Stock = *in.Stock
		}
		if in.IsActive != nil {
			v.IsActive = *in.IsActive
		}
		return prods.UpdateVariant(ctx, v)
	})
	if err != nil {
		return nil, err
	}
	return s.Prods.VariantByID(ctx, id)
}

func (s *CatalogService) DeleteVariant(ctx context.Context, id int64) error {
	return notFound("Variant", s.Prods.DeleteVariant(ctx, id))
}

// Attribute returns an attribute type with its values.
func (s *CatalogService) Attribute(ctx context.Context, id int64) (*AttributeWithValues, error) {
	t, err := s.Prods.AttributeTypeByID(ctx, id)
	if err != nil {
		return nil, notFound("Attribute", err)
	}
	vals, err := s.Prods.ValuesOfType(ctx, id)
	if err != nil {
		return nil, err
	}
	return &AttributeWithValues{AttributeType: *t, Values: vals}, nil
}

// UpdateAttribute renames an attribute type and appends any new values.
// Values already present (case-insensitive) are skipped.
func (s *CatalogService) UpdateAttribute(ctx context.Context, id int64, name *string, addValues []string) (*AttributeWithValues, error) {
	err := repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		prods := repos.NewProductRepo(tx)
		t, err := prods.AttributeTypeByID(ctx, id)
		if err != nil {
			return notFound("Attribute", err)
		}
		if name != nil {
			if t.Name, err = trimmed("name", name); err != nil {
				return err
			}
			t.Slug = slug.Make(t.Name)
			if taken, err := repos.NewCategoryRepo(tx).NameOrSlugTaken(ctx, "attribute_types", t.Name, t.Slug, t.ID); err != nil {
				return err
			} else if taken {
				return Invalid("name", "attribute type with this name already exists.")
			}
			if err := prods.RenameAttributeType(ctx, t); err != nil {
				return err
			}
		}
		for _, raw := range addValues {
			val := strings.TrimSpace(raw)
			if val == "" {
				continue
			}
			if taken, err := prods.ValueTaken(ctx, t.ID, val, 0); err != nil {
				return err
			} else if taken {
				continue
			}
			if err := prods.CreateAttributeValue(ctx, &domain.AttributeValue{TypeID: t.ID, Value: val}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Attribute(ctx, id)
}

// DeleteAttribute removes the type, its values and their links to variants.
func (s *CatalogService) DeleteAttribute(ctx context.Context, id int64) error {
	return notFound("Attribute", s.Prods.DeleteAttributeType(ctx, id))
}

func (s *CatalogService) UpdateAttributeValue(ctx context.Context, id int64, value string) (*domain.AttributeValue, error) {
	val := strings.TrimSpace(value)
	if val == "" {
		return nil, Invalid("value", "This field is required.")
	}
	var out domain.AttributeValue
	err := repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		prods := repos.NewProductRepo(tx)
		vals, err := prods.AttributeValues(ctx, []int64{id})
		if err != nil {
			return err
		}
		if len(vals) == 0 {
			return &NotFoundError{What: "Attribute value"}
		}
		out = vals[0]
		if taken, err := prods.ValueTaken(ctx, out.TypeID, val, id); err != nil {
			return err
		} else if taken {
			return Invalid("value", "attribute value with this value already exists.")
		}
		out.Value = val
		return prods.UpdateAttributeValue(ctx, id, val)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *CatalogService) DeleteAttributeValue(ctx context.Context, id int64) error {
	return notFound("Attribute value", s.Prods.DeleteAttributeValue(ctx, id))
}
