package handlers

import (
	"strconv"
	"strings"

	"bikeshop/internal/services"

	"github.com/gofiber/fiber/v2"
)

type InventoryHandler struct {
	Inv *services.InventoryService
}

func queryID(c *fiber.Ctx, name string) (int64, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	return id, err == nil && id > 0
}

// Check reports live stock for a product or one of its variants.
func (h *InventoryHandler) Check(c *fiber.Ctx) error {
	productID, valid := queryID(c, "product_id")
	if !valid || productID == 0 {
		return fail(c, fiber.StatusBadRequest, "Enter a valid product_id",
			map[string][]string{"product_id": {"A valid integer is required."}})
	}
	variantID, valid := queryID(c, "variant_id")
	if !valid {
		return fail(c, fiber.StatusBadRequest, "Enter a valid variant_id",
			map[string][]string{"variant_id": {"A valid integer is required."}})
	}
	avail, err := h.Inv.CheckAvailability(c.UserContext(), productID, variantID)
	if err != nil {
		return serviceError(c, "inventory.check", err, "")
	}
	return ok(c, "Availability retrieved successfully", avail)
}
