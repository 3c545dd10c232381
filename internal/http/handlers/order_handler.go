package handlers

import (
	"bikeshop/internal/domain"
	applog "bikeshop/internal/log"
	"bikeshop/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type OrderHandler struct {
	Order *services.OrderService
}

// createOrderReq accepts saved address ids, inline addresses, or the guest_* variants.
type createOrderReq struct {
	BillingAddressID     *int64                `json:"billing_address_id"`
	ShippingAddressID    *int64                `json:"shipping_address_id"`
	BillingAddress       *domain.AddressFields `json:"billing_address"`
	ShippingAddress      *domain.AddressFields `json:"shipping_address"`
	GuestBillingAddress  *domain.AddressFields `json:"guest_billing_address"`
	GuestShippingAddress *domain.AddressFields `json:"guest_shipping_address"`
	GuestEmail           string                `json:"guest_email" validate:"omitempty,email"`
	GuestPhone           string                `json:"guest_phone" validate:"omitempty,max=20"`
	Discount             decimal.Decimal       `json:"discount"`
	ShippingCost         decimal.Decimal       `json:"shipping_cost"`
	Notes                string                `json:"notes" validate:"max=500"`
	PaymentMethod        string                `json:"payment_method"`
}

func firstAddress(fs ...*domain.AddressFields) *domain.AddressFields {
	for _, f := range fs {
		if f != nil {
			return f
		}
	}
	return nil
}

func (h *OrderHandler) Create(c *fiber.Ctx) error {
	var req createOrderReq
	if err := bind(c, &req); err != nil {
		return serviceError(c, "order.create", err, "")
	}
	a := actor(c, false)
	if !a.Authenticated() && a.SessionKey == "" {
		return fail(c, fiber.StatusBadRequest, "Cart not found", nil)
	}
	o, err := h.Order.Create(c.UserContext(), a, services.CreateOrderInput{
		BillingAddressID:  req.BillingAddressID,
		ShippingAddressID: req.ShippingAddressID,
		BillingAddress:    firstAddress(req.BillingAddress, req.GuestBillingAddress),
		ShippingAddress:   firstAddress(req.ShippingAddress, req.GuestShippingAddress),
		GuestEmail:        req.GuestEmail,
		GuestPhone:        req.GuestPhone,
		Discount:          req.Discount,
		ShippingCost:      req.ShippingCost,
		Notes:             req.Notes,
		PaymentMethod:     req.PaymentMethod,
	})
	if err != nil {
		return serviceError(c, "order.create", err, "")
	}
	applog.Audit(c, "order.create", map[string]any{
		"order_number": o.OrderNumber,
		"total":        o.TotalPrice.StringFixed(2),
		"items":        o.TotalItems(),
	})
	return created(c, "Order created successfully", newOrderView(o))
}

func (h *OrderHandler) List(c *fiber.Ctx) error {
	a := actor(c, false)
	if !a.Authenticated() && a.SessionKey == "" {
		return ok(c, "No orders found", fiber.Map{"items": []orderView{}, "pagination": fiber.Map{}})
	}
	p := pageParams(c)
	list, total, err := h.Order.List(c.UserContext(), a, p.Size, p.Offset())
	if err != nil {
		return serviceError(c, "order.list", err, "")
	}
	return paginated(c, "Data retrieved successfully", orderViews(list), len(list), p, total)
}

func (h *OrderHandler) Detail(c *fiber.Ctx) error {
	o, err := h.Order.Get(c.UserContext(), actor(c, false), c.Params("order_number"))
	if err != nil {
		return serviceError(c, "order.get", err, "")
	}
	return ok(c, "Order details retrieved successfully", newOrderView(o))
}

func (h *OrderHandler) Cancel(c *fiber.Ctx) error {
	o, err := h.Order.Cancel(c.UserContext(), actor(c, false), c.Params("order_number"))
	if err != nil {
		return serviceError(c, "order.cancel", err, "")
	}
	applog.Audit(c, "order.cancel", map[string]any{"order_number": o.OrderNumber})
	return ok(c, "Order cancelled successfully", newOrderView(o))
}
