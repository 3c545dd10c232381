package handlers

import (
	applog "bikeshop/internal/log"
	"bikeshop/internal/services"

	"github.com/gofiber/fiber/v2"
)

type CartHandler struct {
	Cart *services.CartService
}

type addItemReq struct {
	VariantID *int64 `json:"variant_id"`
	ProductID *int64 `json:"product_id"`
	Quantity  *int   `json:"quantity"`
}

type updateItemReq struct {
	Quantity int `json:"quantity"`
}

func (h *CartHandler) View(c *fiber.Ctx) error {
	cart, err := h.Cart.Get(c.UserContext(), actor(c, true))
	if err != nil {
		return serviceError(c, "cart.view", err, "")
	}
	return ok(c, "Cart retrieved successfully", newCartView(cart))
}

func (h *CartHandler) Add(c *fiber.Ctx) error {
	var req addItemReq
	if err := bind(c, &req); err != nil {
		return serviceError(c, "cart.add", err, "")
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}
	a := actor(c, true)
	line, err := h.Cart.AddItem(c.UserContext(), a, services.AddItemInput{
		VariantID: req.VariantID, ProductID: req.ProductID, Quantity: qty,
	})
	if err != nil {
		return serviceError(c, "cart.add", err, "")
	}
	cart, err := h.Cart.Get(c.UserContext(), a)
	if err != nil {
		return serviceError(c, "cart.add", err, "")
	}
	applog.Info(c, "cart.add", map[string]any{"item_id": line.ID, "qty": qty})
	return created(c, "Item added to cart successfully", fiber.Map{
		"item": newCartItemView(*line),
		"cart": newCartView(cart),
	})
}

func (h *CartHandler) Update(c *fiber.Ctx) error {
	id, valid := idParam(c, "id")
	if !valid {
		return fail(c, fiber.StatusNotFound, "Cart item not found", nil)
	}
	var req updateItemReq
	if err := bind(c, &req); err != nil {
		return serviceError(c, "cart.update", err, "")
	}
	line, err := h.Cart.UpdateQuantity(c.UserContext(), actor(c, false), id, req.Quantity)
	if err != nil {
		return serviceError(c, "cart.update", err, "")
	}
	applog.Info(c, "cart.update", map[string]any{"item_id": id, "qty": req.Quantity})
	return ok(c, "Cart item updated successfully", newCartItemView(*line))
}

func (h *CartHandler) Remove(c *fiber.Ctx) error {
	id, valid := idParam(c, "id")
	if !valid {
		return fail(c, fiber.StatusNotFound, "Cart item not found", nil)
	}
	if err := h.Cart.RemoveItem(c.UserContext(), actor(c, false), id); err != nil {
		return serviceError(c, "cart.remove", err, "")
	}
	applog.Info(c, "cart.remove", map[string]any{"item_id": id})
	return ok(c, "Cart item removed successfully", nil)
}

func (h *CartHandler) RefreshPrice(c *fiber.Ctx) error {
	id, valid := idParam(c, "id")
	if !valid {
		return fail(c, fiber.StatusNotFound, "Cart item not found", nil)
	}
	line, err := h.Cart.RefreshItemPrice(c.UserContext(), actor(c, false), id)
	if err != nil {
		return serviceError(c, "cart.refresh_price", err, "")
	}
	return ok(c, "Cart item price refreshed successfully", newCartItemView(*line))
}

func (h *CartHandler) Clear(c *fiber.Ctx) error {
	cleared, err := h.Cart.Clear(c.UserContext(), actor(c, false))
	if err != nil {
		return serviceError(c, "cart.clear", err, "")
	}
	if !cleared {
		return ok(c, "Cart is already empty", nil)
	}
	applog.Info(c, "cart.clear", nil)
	return ok(c, "Cart cleared successfully", nil)
}
