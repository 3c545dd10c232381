package handlers

import (
	"errors"
	"strings"

	"bikeshop/internal/domain"
	applog "bikeshop/internal/log"
	"bikeshop/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	userKey   = "user"
	sidCookie = "sid"
)

// Authenticate resolves an optional bearer token. A request without one passes
// through as a guest; a bad or stale token is rejected.
func Authenticate(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		h := c.Get(fiber.HeaderAuthorization)
		if h == "" {
			return c.Next()
		}
		raw, found := strings.CutPrefix(h, "Bearer ")
		if !found || strings.TrimSpace(raw) == "" {
			return fail(c, fiber.StatusUnauthorized, "Invalid authorization header", nil)
		}
		u, err := auth.CurrentUser(c.UserContext(), strings.TrimSpace(raw))
		if err != nil {
			applog.Security(c, "auth.token.reject", map[string]any{"reason": err.Error()})
			if errors.Is(err, services.ErrAccountDisabled) {
				return fail(c, fiber.StatusUnauthorized, "User account is disabled.", nil)
			}
			return fail(c, fiber.StatusUnauthorized, "Invalid or expired token", nil)
		}
		c.Locals(userKey, u)
		c.Locals(applog.UserIDKey, u.ID)
		return c.Next()
	}
}

// RequireUser rejects guests.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if currentUser(c) == nil {
			return fail(c, fiber.StatusUnauthorized, "Authentication credentials were not provided.", nil)
		}
		return c.Next()
	}
}

func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		u := currentUser(c)
		if u == nil {
			applog.Security(c, "access.denied.admin", map[string]any{"reason": "anonymous"})
			return fail(c, fiber.StatusUnauthorized, "Authentication credentials were not provided.", nil)
		}
		if !u.IsAdmin() {
			applog.Security(c, "access.denied.admin", map[string]any{"role": u.Role})
			return fail(c, fiber.StatusForbidden, "You do not have permission to perform this action.", nil)
		}
		return c.Next()
	}
}

func currentUser(c *fiber.Ctx) *domain.User {
	u, _ := c.Locals(userKey).(*domain.User)
	return u
}

// ensureSID returns the guest session id, minting the cookie on first use.
func ensureSID(c *fiber.Ctx) string {
	sid := c.Cookies(sidCookie)
	if sid == "" {
		sid = uuid.NewString()
		c.Cookie(&fiber.Cookie{Name: sidCookie, Value: sid, Path: "/", HTTPOnly: true, SameSite: fiber.CookieSameSiteLaxMode})
	}
	return sid
}

// actor identifies who is acting. Guests get a session cookie when mint is set;
// read-only paths pass false so a bare visit does not create one.
func actor(c *fiber.Ctx, mint bool) services.Actor {
	sid := c.Cookies(sidCookie)
	if u := currentUser(c); u != nil {
		return services.Actor{UserID: u.ID, SessionKey: sid}
	}
	if mint {
		sid = ensureSID(c)
	}
	return services.Actor{SessionKey: sid}
}
