package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Cart struct {
	ID         int64     `db:"id" json:"id"`
	UserID     *int64    `db:"user_id" json:"user_id"`
	SessionKey *string   `db:"session_key" json:"-"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`

	Items []CartItem `db:"-" json:"items"`
}

func (c Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range c.Items {
		sum = sum.Add(it.Total())
	}
	return sum
}

func (c Cart) TotalSavings() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range c.Items {
		sum = sum.Add(it.Savings())
	}
	return sum
}

func (c Cart) TotalItems() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

// ItemTarget is the live state of the variant or product a cart line points at.
type ItemTarget struct {
	TargetExists    bool                `db:"target_exists" json:"-"`
	TargetActive    bool                `db:"target_active" json:"-"`
	TargetProductID *int64              `db:"target_product_id" json:"-"`
	TargetStock     int                 `db:"target_stock" json:"-"`
	TargetPrice     decimal.Decimal     `db:"target_price" json:"-"`
	TargetSalePrice decimal.NullDecimal `db:"target_sale_price" json:"-"`
}

type CartItem struct {
	ID                int64           `db:"id" json:"id"`
	CartID            int64           `db:"cart_id" json:"-"`
	VariantID         *int64          `db:"variant_id" json:"variant_id"`
	ProductID         *int64          `db:"product_id" json:"product_id"`
	Quantity          int             `db:"quantity" json:"quantity"`
	PriceSnapshot     decimal.Decimal `db:"price_snapshot" json:"price_snapshot"`
	ProductTitle      string          `db:"product_title" json:"product_title"`
	VariantSKU        string          `db:"variant_sku" json:"variant_sku"`
	VariantAttributes string          `db:"variant_attributes" json:"variant_attributes"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time       `db:"updated_at" json:"updated_at"`

	ItemTarget
}

func (i CartItem) Total() decimal.Decimal {
	return i.PriceSnapshot.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Savings is (list price - effective price) * quantity at current prices, never negative.
func (i CartItem) Savings() decimal.Decimal {
	if !i.TargetExists || !OnSale(i.TargetPrice, i.TargetSalePrice) {
		return decimal.Zero
	}
	diff := i.TargetPrice.Sub(i.TargetSalePrice.Decimal)
	return diff.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func (i CartItem) IsAvailable() bool {
	return i.TargetExists && i.TargetActive && i.TargetStock > 0
}

// CurrentPrice is the target's effective price right now.
func (i CartItem) CurrentPrice() decimal.Decimal {
	return EffectivePrice(i.TargetPrice, i.TargetSalePrice)
}

func (i CartItem) IsPriceChanged() bool {
	return i.TargetExists && !i.PriceSnapshot.Equal(i.CurrentPrice())
}

func (i CartItem) DisplayTitle() string {
	if i.VariantAttributes != "" {
		return i.ProductTitle + " - " + i.VariantAttributes
	}
	return i.ProductTitle
}

func (i CartItem) IsVariant() bool { return i.VariantID != nil }
