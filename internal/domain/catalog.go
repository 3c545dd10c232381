package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID           int64     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Slug         string    `db:"slug" json:"slug"`
	ParentID     *int64    `db:"parent_id" json:"parent_id"`
	Description  string    `db:"description" json:"description"`
	Image        string    `db:"image" json:"image"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	DisplayOrder int       `db:"display_order" json:"display_order"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

type Brand struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Slug        string    `db:"slug" json:"slug"`
	Description string    `db:"description" json:"description"`
	Logo        string    `db:"logo" json:"logo"`
	Website     string    `db:"website" json:"website"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

type Product struct {
	ID                int64               `db:"id" json:"id"`
	Title             string              `db:"title" json:"title"`
	Slug              string              `db:"slug" json:"slug"`
	BrandID           *int64              `db:"brand_id" json:"brand_id"`
	BrandName         string              `db:"brand_name" json:"brand_name"`
	CategoryID        *int64              `db:"category_id" json:"category_id"`
	CategoryName      string              `db:"category_name" json:"category_name"`
	Description       string              `db:"description" json:"description"`
	Price             decimal.Decimal     `db:"price" json:"price"`
	SalePrice         decimal.NullDecimal `db:"sale_price" json:"sale_price"`
	Stock             int                 `db:"stock" json:"stock"`
	LowStockThreshold int                 `db:"low_stock_threshold" json:"low_stock_threshold"`
	IsFeatured        bool                `db:"is_featured" json:"is_featured"`
	IsActive          bool                `db:"is_active" json:"is_active"`
	VariantCount      int                 `db:"variant_count" json:"variant_count"`
	PrimaryImage      string              `db:"primary_image" json:"primary_image"`
	CreatedAt         time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time           `db:"updated_at" json:"updated_at"`

	Images   []ProductImage   `db:"-" json:"images,omitempty"`
	Variants []ProductVariant `db:"-" json:"variants,omitempty"`
}

func (p Product) EffectivePrice() decimal.Decimal { return EffectivePrice(p.Price, p.SalePrice) }
func (p Product) OnSale() bool                    { return OnSale(p.Price, p.SalePrice) }
func (p Product) HasVariants() bool               { return p.VariantCount > 0 }

// DiscountPercent is the sale discount rounded to a whole percent, 0 when not on sale.
func (p Product) DiscountPercent() int {
	if !p.OnSale() || p.Price.IsZero() {
		return 0
	}
	off := p.Price.Sub(p.SalePrice.Decimal).Div(p.Price).Mul(decimal.NewFromInt(100))
	return int(off.Round(0).IntPart())
}

func (p Product) StockStatus() string { return StockStatus(p.Stock, p.LowStockThreshold) }

type ProductImage struct {
	ID        int64  `db:"id" json:"id"`
	ProductID int64  `db:"product_id" json:"-"`
	Path      string `db:"path" json:"image"`
	AltText   string `db:"alt_text" json:"alt_text"`
	Position  int    `db:"position" json:"position"`
}

type AttributeType struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
	Slug string `db:"slug" json:"slug"`
}

type AttributeValue struct {
	ID       int64  `db:"id" json:"id"`
	TypeID   int64  `db:"attribute_type_id" json:"attribute_type_id"`
	TypeName string `db:"type_name" json:"attribute_type"`
	Value    string `db:"value" json:"value"`
}

type ProductVariant struct {
	ID        int64               `db:"id" json:"id"`
	ProductID int64               `db:"product_id" json:"product_id"`
	SKU       string              `db:"sku" json:"sku"`
	Price     decimal.Decimal     `db:"price" json:"price"`
	SalePrice decimal.NullDecimal `db:"sale_price" json:"sale_price"`
	Stock     int                 `db:"stock" json:"stock"`
	IsActive  bool                `db:"is_active" json:"is_active"`
	CreatedAt time.Time           `db:"created_at" json:"created_at"`

	Attributes []AttributeValue `db:"-" json:"attributes"`
}

func (v ProductVariant) EffectivePrice() decimal.Decimal { return EffectivePrice(v.Price, v.SalePrice) }
func (v ProductVariant) OnSale() bool                    { return OnSale(v.Price, v.SalePrice) }

// AttributesDisplay renders attributes as "Color: Red, Size: M".
func (v ProductVariant) AttributesDisplay() string {
	parts := make([]string, 0, len(v.Attributes))
	for _, a := range v.Attributes {
		parts = append(parts, a.TypeName+": "+a.Value)
	}
	return strings.Join(parts, ", ")
}

// EffectivePrice is the sale price when one is set, else the list price.
func EffectivePrice(price decimal.Decimal, sale decimal.NullDecimal) decimal.Decimal {
	if sale.Valid {
		return sale.Decimal
	}
	return price
}

func OnSale(price decimal.Decimal, sale decimal.NullDecimal) bool {
	return sale.Valid && sale.Decimal.LessThan(price)
}

// ValidSalePrice reports whether sale is either unset or strictly below price.
func ValidSalePrice(price decimal.Decimal, sale decimal.NullDecimal) bool {
	return !sale.Valid || (sale.Decimal.LessThan(price) && !sale.Decimal.IsNegative())
}

const (
	InStock    = "IN_STOCK"
	LowStock   = "LOW_STOCK"
	OutOfStock = "OUT_OF_STOCK"
)

func StockStatus(stock, lowThreshold int) string {
	switch {
	case stock <= 0:
		return OutOfStock
	case stock <= lowThreshold:
		return LowStock
	default:
		return InStock
	}
}

type Availability struct {
	Status string `json:"status"` // IN_STOCK | LOW_STOCK | OUT_OF_STOCK
	Qty    int    `json:"qty"`
}
