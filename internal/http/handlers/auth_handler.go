package handlers

import (
	"bikeshop/internal/domain"
	applog "bikeshop/internal/log"
	"bikeshop/internal/services"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	Auth  *services.AuthService
	Addrs *services.AddressService
	Reset *services.PasswordResetService
}

type registerReq struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name" validate:"max=150"`
	Phone    string `json:"phone" validate:"max=20"`
}

type loginReq struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type profileReq struct {
	Name  *string `json:"name" validate:"omitempty,max=150"`
	Phone *string `json:"phone" validate:"omitempty,max=20"`
}

type changePasswordReq struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required"`
}

type forgotPasswordReq struct {
	Email string `json:"email" validate:"required"`
}

type verifyTokenReq struct {
	Token string `json:"token" validate:"required"`
}

type resetPasswordReq struct {
	Token           string `json:"token" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

type profileView struct {
	*domain.User
	Addresses []domain.Address `json:"addresses"`
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerReq
	if err := bind(c, &req); err != nil {
		return serviceError(c, "auth.register", err, "Registration failed")
	}
	u, err := h.Auth.Register(c.UserContext(), services.RegisterInput{
		Email: req.Email, Password: req.Password, Name: req.Name, Phone: req.Phone,
	})
	if err != nil {
		return serviceError(c, "auth.register", err, "Registration failed")
	}
	token, err := h.Auth.Tokens.Issue(u)
	if err != nil {
		return serviceError(c, "auth.register", err, "")
	}
	c.Locals(applog.UserIDKey, u.ID)
	applog.Audit(c, "auth.register", map[string]any{"email": u.Email})
	return created(c, "User registered successfully", fiber.Map{"user": u, "token": token})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginReq
	if err := bind(c, &req); err != nil {
		return serviceError(c, "auth.login", err, "Invalid credentials")
	}
	u, token, err := h.Auth.Login(c.UserContext(), c.Cookies(sidCookie), req.Email, req.Password)
	if err != nil {
		return serviceError(c, "auth.login", err, "Invalid credentials")
	}
	c.Locals(applog.UserIDKey, u.ID)
	applog.Audit(c, "auth.login.success", nil)
	return ok(c, "Login successful", fiber.Map{"user": u, "token": token})
}

// Logout detaches the guest session from the account; the bearer token simply expires.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if sid := c.Cookies(sidCookie); sid != "" {
		if err := h.Auth.Logout(c.UserContext(), sid); err != nil {
			return serviceError(c, "auth.logout", err, "")
		}
	}
	c.ClearCookie(sidCookie)
	applog.Audit(c, "auth.logout", nil)
	return ok(c, "Logout successful", nil)
}

func (h *AuthHandler) Profile(c *fiber.Ctx) error {
	u := currentUser(c)
	addrs, err := h.Addrs.List(c.UserContext(), u.ID)
	if err != nil {
		return serviceError(c, "auth.profile", err, "")
	}
	return ok(c, "Profile retrieved successfully", profileView{User: u, Addresses: addrs})
}

func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	var req profileReq
	if err := bind(c, &req); err != nil {
		return serviceError(c, "auth.profile.update", err, "Profile update failed")
	}
	u, err := h.Auth.UpdateProfile(c.UserContext(), currentUser(c).ID, req.Name, req.Phone)
	if err != nil {
		return serviceError(c, "auth.profile.update", err, "Profile update failed")
	}
	applog.Audit(c, "auth.profile.update", nil)
	return ok(c, "Profile updated successfully", u)
}

func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	var req changePasswordReq
	if err := bind(c, &req); err != nil {
		return serviceError(c, "auth.password.change", err, "Password change failed")
	}
	if err := h.Auth.ChangePassword(c.UserContext(), currentUser(c).ID, req.OldPassword, req.NewPassword); err != nil {
		applog.Security(c, "auth.password.change.fail", nil)
		return serviceError(c, "auth.password.change", err, "Password change failed")
	}
	applog.Audit(c, "auth.password.change", nil)
	return ok(c, "Password changed successfully", nil)
}

// ForgotPassword answers the same way whether or not the account exists.
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req forgotPasswordReq
	if err := bind(c, &req); err != nil {
		return serviceError(c, "auth.password.forgot", err, "Invalid email address")
	}
	if err := h.Reset.RequestReset(c.UserContext(), req.Email); err != nil {
		return serviceError(c, "auth.password.forgot", err, "Invalid email address")
	}
	applog.Info(c, "auth.password.forgot", nil)
	return ok(c, "If an account exists with this email, you will receive a password reset link shortly.", nil)
}

func (h *AuthHandler) VerifyResetToken(c *fiber.Ctx) error {
	var req verifyTokenReq
	if err := bind(c, &req); err != nil {
		return serviceError(c, "auth.password.verify", err, "Invalid or expired token")
	}
	email, err := h.Reset.VerifyToken(c.UserContext(), req.Token)
	if err != nil {
		return serviceError(c, "auth.password.verify", err, "Invalid or expired token")
	}
	return ok(c, "Token is valid", fiber.Map{"email": email})
}

func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req resetPasswordReq
	if err := bind(c, &req); err != nil {
		return serviceError(c, "auth.password.reset", err, "Password reset failed")
	}
	u, err := h.Reset.ResetPassword(c.UserContext(), req.Token, req.NewPassword, req.ConfirmPassword)
	if err != nil {
		applog.Security(c, "auth.password.reset.fail", nil)
		return serviceError(c, "auth.password.reset", err, "Password reset failed")
	}
	c.Locals(applog.UserIDKey, u.ID)
	applog.Audit(c, "auth.password.reset", nil)
	return ok(c, "Password reset successfully. You can now login with your new password.", nil)
}
