package handlers

import (
	"strings"

	applog "bikeshop/internal/log"
	"bikeshop/internal/services"

	"github.com/gofiber/fiber/v2"
)

type AdminHandler struct {
	Orders *services.OrderService
	Inv    *services.InventoryService
	Auth   *services.AuthService
}

type orderStatusReq struct {
	Status string `json:"status" validate:"required"`
}

type paymentStatusReq struct {
	PaymentStatus string `json:"payment_status" validate:"required"`
}

type markPaidReq struct {
	TransactionID string `json:"transaction_id" validate:"max=100"`
}

type stockReq struct {
	ProductID int64 `json:"product_id" validate:"gte=0"`
	VariantID int64 `json:"variant_id" validate:"gte=0"`
	Stock     *int  `json:"stock" validate:"required"`
}

type activeReq struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

func (h *AdminHandler) ListOrders(c *fiber.Ctx) error {
	p := pageParams(c)
	list, total, err := h.Orders.AdminList(c.UserContext(),
		strings.TrimSpace(c.Query("status")), strings.TrimSpace(c.Query("payment_status")), p.Size, p.Offset())
	if err != nil {
		return serviceError(c, "admin.orders.list", err, "")
	}
	return paginated(c, "Data retrieved successfully", orderViews(list), len(list), p, total)
}

func (h *AdminHandler) GetOrder(c *fiber.Ctx) error {
	o, err := h.Orders.AdminGet(c.UserContext(), c.Params("order_number"))
	if err != nil {
		return serviceError(c, "admin.orders.get", err, "")
	}
	return ok(c, "Order details retrieved successfully", newOrderView(o))
}

func (h *AdminHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	number := c.Params("order_number")
	var req orderStatusReq
	if err := bind(c, &req); err != nil {
		return serviceError(c, "admin.orders.update", err, "")
	}
	o, err := h.Orders.UpdateStatus(c.UserContext(), number, req.Status)
	if err != nil {
		return serviceError(c, "admin.orders.update", err, "")
	}
	applog.Audit(c, "admin.orders.update", map[string]any{"order_number": number, "status": o.Status})
	return ok(c, "Order status updated successfully", newOrderView(o))
}

func (h *AdminHandler) UpdatePaymentStatus(c *fiber.Ctx) error {
	number := c.Params("order_number")
	var req paymentStatusReq
	if err := bind(c, &req); err != nil {
		return serviceError(c, "admin.orders.payment", err, "")
	}
	o, err := h.Orders.UpdatePaymentStatus(c.UserContext(), number, req.PaymentStatus)
	if err != nil {
		return serviceError(c, "admin.orders.payment", err, "")
	}
	applog.Audit(c, "admin.orders.payment", map[string]any{"order_number": number, "payment_status": o.PaymentStatus})
	return ok(c, "Payment status updated successfully", newOrderView(o))
}

func (h *AdminHandler) MarkPaid(c *fiber.Ctx) error {
	number := c.Params("order_number")
	var req markPaidReq
	if len(c.Body()) > 0 {
		if err := bind(c, &req); err != nil {
			return serviceError(c, "admin.orders.mark_paid", err, "")
		}
	}
	o, err := h.Orders.ConfirmPayment(c.UserContext(), number, req.TransactionID)
	if err != nil {
		return serviceError(c, "admin.orders.mark_paid", err, "")
	}
	applog.Audit(c, "admin.orders.mark_paid", map[string]any{"order_number": number})
	return ok(c, "Payment confirmed successfully", newOrderView(o))
}

func (h *AdminHandler) ListInventory(c *fiber.Ctx) error {
	rows, err := h.Inv.List(c.UserContext())
	if err != nil {
		return serviceError(c, "admin.inventory.list", err, "")
	}
	return ok(c, "Inventory retrieved successfully", rows)
}

func (h *AdminHandler) UpdateInventory(c *fiber.Ctx) error {
	var req stockReq
	if err := bind(c, &req); err != nil {
		applog.Security(c, "validation.fail", map[string]any{"field": "stock"})
		return serviceError(c, "admin.inventory.save", err, "")
	}
	fields := map[string]any{"product_id": req.ProductID, "variant_id": req.VariantID, "stock": *req.Stock}
	if err := h.Inv.SetStock(c.UserContext(), req.ProductID, req.VariantID, *req.Stock); err != nil {
		applog.Error(c, "admin.inventory.save.fail", err, fields)
		return serviceError(c, "admin.inventory.save", err, "")
	}
	applog.Audit(c, "admin.inventory.save", fields)
	return ok(c, "Stock updated successfully", nil)
}

func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	p := pageParams(c)
	list, total, err := h.Auth.ListUsers(c.UserContext(), p.Size, p.Offset())
	if err != nil {
		return serviceError(c, "admin.users.list", err, "")
	}
	return paginated(c, "Data retrieved successfully", list, len(list), p, total)
}

func (h *AdminHandler) SetUserActive(c *fiber.Ctx) error {
	id, valid := idParam(c, "id")
	if !valid {
		return fail(c, fiber.StatusNotFound, "User not found", nil)
	}
	var req activeReq
	if err := bind(c, &req); err != nil {
		return serviceError(c, "admin.users.active", err, "")
	}
	u, err := h.Auth.SetUserActive(c.UserContext(), id, *req.IsActive)
	if err != nil {
		return serviceError(c, "admin.users.active", err, "")
	}
	applog.Audit(c, "admin.users.active", map[string]any{"target_user": id, "is_active": u.IsActive})
	return ok(c, "User updated successfully", u)
}

func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	id, valid := idParam(c, "id")
	if !valid {
		return fail(c, fiber.StatusNotFound, "User not found", nil)
	}
	if me := currentUser(c); me != nil && me.ID == id {
		return fail(c, fiber.StatusBadRequest, "You cannot delete your own account", nil)
	}
	if err := h.Auth.DeleteUser(c.UserContext(), id); err != nil {
		return serviceError(c, "admin.users.delete", err, "")
	}
	applog.Audit(c, "admin.users.delete", map[string]any{"target_user": id})
	return ok(c, "User deleted successfully", nil)
}

type userCreateReq struct {
	Email    string `json:"email" validate:"required,max=254"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name" validate:"max=150"`
	Phone    string `json:"phone" validate:"max=20"`
	Role     string `json:"role" validate:"omitempty,oneof=USER ADMIN"`
	IsActive *bool  `json:"is_active"`
}

type userPatchReq struct {
	Email       *string `json:"email" validate:"omitempty,max=254"`
	Name        *string `json:"name" validate:"omitempty,max=150"`
	Phone       *string `json:"phone" validate:"omitempty,max=20"`
	Role        *string `json:"role" validate:"omitempty,oneof=USER ADMIN"`
	IsActive    *bool   `json:"is_active"`
	NewPassword *string `json:"new_password"`
}

func (h *AdminHandler) CreateUser(c *fiber.Ctx) error {
	var req userCreateReq
	if err := bind(c, &req); err != nil {
		return serviceError(c, "admin.users.create", err, "")
	}
	active := req.IsActive == nil || *req.IsActive
	u, err := h.Auth.CreateUser(c.UserContext(), services.AdminUserInput{
		RegisterInput: services.RegisterInput{Email: req.Email, Password: req.Password, Name: req.Name, Phone: req.Phone},
		Role:          req.Role,
		IsActive:      active,
	})
	if err != nil {
		return serviceError(c, "admin.users.create", err, "")
	}
	applog.Audit(c, "admin.users.create", map[string]any{"target_user": u.ID, "role": u.Role})
	return created(c, "User created successfully", u)
}

func (h *AdminHandler) UpdateUser(c *fiber.Ctx) error {
	id, valid := idParam(c, "id")
	if !valid {
		return fail(c, fiber.StatusNotFound, "User not found", nil)
	}
	var req userPatchReq
	if err := bind(c, &req); err != nil {
		return serviceError(c, "admin.users.update", err, "")
	}
	if me := currentUser(c); me != nil && me.ID == id {
		if (req.IsActive != nil && !*req.IsActive) || (req.Role != nil && *req.Role != me.Role) {
			return fail(c, fiber.StatusBadRequest, "You cannot disable or demote your own account", nil)
		}
	}
	u, err := h.Auth.UpdateUser(c.UserContext(), id, services.UserPatch{
		Email: req.Email, Name: req.Name, Phone: req.Phone, Role: req.Role,
		IsActive: req.IsActive, NewPassword: req.NewPassword,
	})
	if err != nil {
		return serviceError(c, "admin.users.update", err, "")
	}
	applog.Audit(c, "admin.users.update", map[string]any{
		"target_user": id, "role": u.Role, "is_active": u.IsActive, "password_changed": req.NewPassword != nil && *req.NewPassword != "",
	})
	return ok(c, "User updated successfully", u)
}
