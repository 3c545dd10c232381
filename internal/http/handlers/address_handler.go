package handlers

import (
	applog "bikeshop/internal/log"
	"bikeshop/internal/services"

	"github.com/gofiber/fiber/v2"
)

type AddressHandler struct {
	Addrs *services.AddressService
}

// addressReq leaves unset fields nil so PATCH touches only what was sent.
type addressReq struct {
	Label             *string `json:"label" validate:"omitempty,max=100"`
	AddressType       *string `json:"address_type"`
	Street            *string `json:"street" validate:"omitempty,max=255"`
	City              *string `json:"city" validate:"omitempty,max=100"`
	State             *string `json:"state" validate:"omitempty,max=100"`
	PostalCode        *string `json:"postal_code" validate:"omitempty,max=20"`
	Country           *string `json:"country" validate:"omitempty,max=100"`
	Phone             *string `json:"phone" validate:"omitempty,max=20"`
	IsDefaultBilling  *bool   `json:"is_default_billing"`
	IsDefaultShipping *bool   `json:"is_default_shipping"`
}

func (r addressReq) input() services.AddressInput {
	return services.AddressInput{
		Label: r.Label, AddressType: r.AddressType, Street: r.Street, City: r.City, State: r.State,
		PostalCode: r.PostalCode, Country: r.Country, Phone: r.Phone,
		IsDefaultBilling: r.IsDefaultBilling, IsDefaultShipping: r.IsDefaultShipping,
	}
}

func (h *AddressHandler) List(c *fiber.Ctx) error {
	list, err := h.Addrs.List(c.UserContext(), currentUser(c).ID)
	if err != nil {
		return serviceError(c, "address.list", err, "")
	}
	return ok(c, "Addresses retrieved successfully", list)
}

func (h *AddressHandler) Get(c *fiber.Ctx) error {
	id, valid := idParam(c, "id")
	if !valid {
		return fail(c, fiber.StatusNotFound, "Address not found", nil)
	}
	a, err := h.Addrs.Get(c.UserContext(), currentUser(c).ID, id)
	if err != nil {
		return serviceError(c, "address.get", err, "")
	}
	return ok(c, "Address retrieved successfully", a)
}

func (h *AddressHandler) Create(c *fiber.Ctx) error {
	var req addressReq
	if err := bind(c, &req); err != nil {
		return serviceError(c, "address.create", err, "Address creation failed")
	}
	a, err := h.Addrs.Create(c.UserContext(), currentUser(c).ID, req.input())
	if err != nil {
		return serviceError(c, "address.create", err, "Address creation failed")
	}
	applog.Audit(c, "address.create", map[string]any{"address_id": a.ID, "type": a.AddressType})
	return created(c, "Address created successfully", a)
}

func (h *AddressHandler) Update(c *fiber.Ctx) error {
	id, valid := idParam(c, "id")
	if !valid {
		return fail(c, fiber.StatusNotFound, "Address not found", nil)
	}
	var req addressReq
	if err := bind(c, &req); err != nil {
		return serviceError(c, "address.update", err, "Address update failed")
	}
	a, err := h.Addrs.Update(c.UserContext(), currentUser(c).ID, id, req.input())
	if err != nil {
		return serviceError(c, "address.update", err, "Address update failed")
	}
	applog.Audit(c, "address.update", map[string]any{"address_id": a.ID})
	return ok(c, "Address updated successfully", a)
}

func (h *AddressHandler) Delete(c *fiber.Ctx) error {
	id, valid := idParam(c, "id")
	if !valid {
		return fail(c, fiber.StatusNotFound, "Address not found", nil)
	}
	if err := h.Addrs.Delete(c.UserContext(), currentUser(c).ID, id); err != nil {
		return serviceError(c, "address.delete", err, "")
	}
	applog.Audit(c, "address.delete", map[string]any{"address_id": id})
	return ok(c, "Address deleted successfully", nil)
}
