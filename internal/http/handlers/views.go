package handlers

import (
	"bikeshop/internal/domain"
	"bikeshop/internal/services"

	"github.com/shopspring/decimal"
)

// productView adds the derived pricing and stock fields clients render.
type productView struct {
	domain.Product
	CurrentPrice decimal.Decimal `json:"current_price"`
	Sale         bool            `json:"is_on_sale"`
	Discount     int             `json:"discount_percentage"`
	Availability string          `json:"stock_status"`
	Variants     []variantView   `json:"variants,omitempty"`
}

type variantView struct {
	domain.ProductVariant
	CurrentPrice decimal.Decimal `json:"current_price"`
	Display      string          `json:"attributes_display"`
}

func newProductView(p domain.Product) productView {
	v := productView{
		Product:      p,
		CurrentPrice: p.EffectivePrice(),
		Sale:         p.OnSale(),
		Discount:     p.DiscountPercent(),
		Availability: p.StockStatus(),
	}
	for _, pv := range p.Variants {
		v.Variants = append(v.Variants, variantView{ProductVariant: pv, CurrentPrice: pv.EffectivePrice(), Display: pv.AttributesDisplay()})
	}
	return v
}

func productViews(ps []domain.Product) []productView {
	out := make([]productView, len(ps))
	for i, p := range ps {
		out[i] = newProductView(p)
	}
	return out
}

type productDetailView struct {
	productView
	AvailableAttributes map[string][]string `json:"available_attributes"`
}

func newProductDetailView(d *services.ProductDetail) productDetailView {
	return productDetailView{productView: newProductView(d.Product), AvailableAttributes: d.AvailableAttributes}
}

type cartItemView struct {
	domain.CartItem
	Title        string          `json:"display_title"`
	LineTotal    decimal.Decimal `json:"total_price"`
	LineSavings  decimal.Decimal `json:"savings"`
	Available    bool            `json:"is_available"`
	LivePrice    decimal.Decimal `json:"current_price"`
	PriceChanged bool            `json:"is_price_changed"`
}

func newCartItemView(it domain.CartItem) cartItemView {
	return cartItemView{
		CartItem:     it,
		Title:        it.DisplayTitle(),
		LineTotal:    it.Total(),
		LineSavings:  it.Savings(),
		Available:    it.IsAvailable(),
		LivePrice:    it.CurrentPrice(),
		PriceChanged: it.IsPriceChanged(),
	}
}

type cartView struct {
	ID           int64           `json:"id"`
	Items        []cartItemView  `json:"items"`
	TotalItems   int             `json:"total_items"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	TotalSavings decimal.Decimal `json:"total_savings"`
}

func newCartView(c *domain.Cart) cartView {
	v := cartView{
		ID:           c.ID,
		Items:        make([]cartItemView, 0, len(c.Items)),
		TotalItems:   c.TotalItems(),
		Subtotal:     c.Subtotal(),
		TotalSavings: c.TotalSavings(),
	}
	for _, it := range c.Items {
		v.Items = append(v.Items, newCartItemView(it))
	}
	return v
}

type orderView struct {
	*domain.Order
	TotalItems           int    `json:"total_items"`
	PaymentMethodDisplay string `json:"payment_method_display,omitempty"`
	CanCancel            bool   `json:"can_cancel"`
}

func newOrderView(o *domain.Order) orderView {
	v := orderView{Order: o, TotalItems: o.TotalItems(), CanCancel: o.CanCancel()}
	if o.Payment != nil {
		v.PaymentMethodDisplay = o.Payment.MethodName()
	}
	return v
}

func orderViews(orders []domain.Order) []orderView {
	out := make([]orderView, len(orders))
	for i := range orders {
		out[i] = newOrderView(&orders[i])
	}
	return out
}
