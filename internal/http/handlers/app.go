package handlers

import (
	"errors"
	"log"
	"path/filepath"
	"strings"
	"time"

	"bikeshop/internal/config"
	applog "bikeshop/internal/log"
	"bikeshop/internal/mail"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/jmoiron/sqlx"
)

const bodyLimit = 1 << 20 // 1 MiB

// errorHandler turns anything a handler returns unhandled into the envelope.
func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) && fe.Code != fiber.StatusInternalServerError {
		if fe.Code == fiber.StatusRequestEntityTooLarge {
			applog.Security(c, "request.too_large", nil)
		}
		return fail(c, fe.Code, fe.Message, nil)
	}
	applog.Error(c, "server.error", err, nil)
	return fail(c, fiber.StatusInternalServerError, msgServerError, nil)
}

func tooMany(action, message string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		applog.Security(c, action, nil)
		return fail(c, fiber.StatusTooManyRequests, message, nil)
	}
}

// mediaHandler serves files under dir, refusing traversal attempts.
func mediaHandler(dir string) fiber.Handler {
	if !filepath.IsAbs(dir) {
		if abs, err := filepath.Abs(dir); err == nil {
			dir = abs
		}
	}
	log.Printf("[static] /media -> %s", dir)
	return func(c *fiber.Ctx) error {
		path := c.Params("*")
		rawLower := strings.ToLower(path)
		// encoded traversal, raw .. and null bytes
		if strings.Contains(rawLower, "..") || strings.Contains(rawLower, "%2e") || strings.Contains(rawLower, "\x00") {
			applog.Security(c, "media.traversal.block", map[string]any{"path": path})
			return fail(c, fiber.StatusNotFound, "Not found", nil)
		}
		clean := filepath.Clean(path)
		if clean == "." || strings.Contains(clean, "..") || filepath.IsAbs(clean) {
			applog.Security(c, "media.traversal.block", map[string]any{"path": path})
			return fail(c, fiber.StatusNotFound, "Not found", nil)
		}
		return c.SendFile(filepath.Join(dir, clean), true)
	}
}

// NewApp builds the HTTP surface: middleware, guarded media and the JSON API.
func NewApp(cfg config.Config, db *sqlx.DB, sender mail.Sender) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "bikeshop",
		BodyLimit:    bodyLimit,
		ErrorHandler: errorHandler,
	})

	// ---------- Middlewares ----------
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(applog.StartedKey, time.Now())
		return c.Next()
	})
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowCredentials: cfg.CORSOrigins != "*",
	}))
	if cfg.RateLimit > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        cfg.RateLimit,
			Expiration: time.Minute,
			Next: func(c *fiber.Ctx) bool {
				return strings.HasPrefix(c.Path(), "/media/")
			},
			LimitReached: tooMany("rate.global.hit", "Request was throttled. Please retry soon."),
		}))
	}

	deps := NewDeps(db, cfg, sender)
	app.Use(Authenticate(deps.Auth))

	app.Get("/healthz", func(c *fiber.Ctx) error {
		if err := db.PingContext(c.UserContext()); err != nil {
			applog.Error(c, "health.db", err, nil)
			return fail(c, fiber.StatusServiceUnavailable, "Database unavailable", nil)
		}
		return ok(c, "OK", nil)
	})
	app.Get("/media/*", mediaHandler(cfg.MediaDir))

	api := app.Group("/api")

	// Auth & account
	loginHandlers := []fiber.Handler{deps.AuthHandler.Login}
	if cfg.LoginRateLimit > 0 {
		loginHandlers = append([]fiber.Handler{limiter.New(limiter.Config{
			Max:          cfg.LoginRateLimit,
			Expiration:   10 * time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string { return c.IP() + "|login" },
			LimitReached: tooMany("rate.login.hit", "Too many attempts. Please try again later."),
		})}, loginHandlers...)
	}
	auth := api.Group("/auth")
	auth.Post("/register", deps.AuthHandler.Register)
	auth.Post("/login", loginHandlers...)
	auth.Post("/logout", deps.AuthHandler.Logout)
	auth.Post("/forgot-password", deps.AuthHandler.ForgotPassword)
	auth.Post("/verify-reset-token", deps.AuthHandler.VerifyResetToken)
	auth.Post("/reset-password", deps.AuthHandler.ResetPassword)
	auth.Get("/profile", RequireUser(), deps.AuthHandler.Profile)
	auth.Patch("/profile", RequireUser(), deps.AuthHandler.UpdateProfile)
	auth.Post("/change-password", RequireUser(), deps.AuthHandler.ChangePassword)
	addrs := auth.Group("/addresses", RequireUser())
	addrs.Get("/", deps.AddressHandler.List)
	addrs.Post("/", deps.AddressHandler.Create)
	addrs.Get("/:id", deps.AddressHandler.Get)
	addrs.Patch("/:id", deps.AddressHandler.Update)
	addrs.Delete("/:id", deps.AddressHandler.Delete)

	// Catalog
	api.Get("/products", deps.CatalogHandler.Products)
	api.Get("/products/:slug", deps.CatalogHandler.Product)
	api.Get("/categories", deps.CatalogHandler.Categories)
	api.Get("/categories/:slug", deps.CatalogHandler.Category)
	api.Get("/brands", deps.CatalogHandler.Brands)
	api.Get("/brands/:slug", deps.CatalogHandler.Brand)
	api.Get("/search", deps.CatalogHandler.Search)
	api.Get("/homepage", deps.CatalogHandler.Homepage)

	// Cart & orders
	api.Get("/cart", deps.CartHandler.View)
	api.Post("/cart/items", deps.CartHandler.Add)
	api.Patch("/cart/items/:id", deps.CartHandler.Update)
	api.Delete("/cart/items/:id", deps.CartHandler.Remove)
	api.Post("/cart/items/:id/refresh-price", deps.CartHandler.RefreshPrice)
	api.Delete("/cart/clear", deps.CartHandler.Clear)
	api.Get("/orders", deps.OrderHandler.List)
	api.Post("/orders/create", deps.OrderHandler.Create)
	api.Get("/orders/:order_number", deps.OrderHandler.Detail)
	api.Patch("/orders/:order_number/cancel", deps.OrderHandler.Cancel)

	availLimiter := limiter.New(limiter.Config{
		Max:        15,
		Expiration: 30 * time.Second,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|avail"
		},
		LimitReached: tooMany("rate.availability.hit", "rate limit exceeded, retry soon"),
	})
	api.Get("/v1/availability", availLimiter, deps.InventoryHandler.Check)

	// Back office
	admin := api.Group("/admin", RequireAdmin())
	admin.Get("/orders", deps.AdminHandler.ListOrders)
	admin.Get("/orders/:order_number", deps.AdminHandler.GetOrder)
	admin.Patch("/orders/:order_number/status", deps.AdminHandler.UpdateOrderStatus)
	admin.Patch("/orders/:order_number/payment", deps.AdminHandler.UpdatePaymentStatus)
	admin.Post("/orders/:order_number/mark-paid", deps.AdminHandler.MarkPaid)
	admin.Get("/inventory", deps.AdminHandler.ListInventory)
	admin.Patch("/inventory", deps.AdminHandler.UpdateInventory)
	admin.Get("/users", deps.AdminHandler.ListUsers)
	admin.Patch("/users/:id/active", deps.AdminHandler.SetUserActive)
	admin.Delete("/users/:id", deps.AdminHandler.DeleteUser)
	admin.Post("/users", deps.AdminHandler.CreateUser)
	admin.Patch("/users/:id", deps.AdminHandler.UpdateUser)
	admin.Post("/categories", deps.AdminCatalogHandler.CreateCategory)
	admin.Post("/brands", deps.AdminCatalogHandler.CreateBrand)
	admin.Post("/products", deps.AdminCatalogHandler.CreateProduct)
	admin.Post("/products/:id/variants", deps.AdminCatalogHandler.CreateVariant)
	admin.Patch("/products/:id/active", deps.AdminCatalogHandler.SetProductActive)
	admin.Patch("/categories/:id", deps.AdminCatalogHandler.UpdateCategory)
	admin.Delete("/categories/:id", deps.AdminCatalogHandler.DeleteCategory)
	admin.Patch("/brands/:id", deps.AdminCatalogHandler.UpdateBrand)
	admin.Delete("/brands/:id", deps.AdminCatalogHandler.DeleteBrand)
	admin.Patch("/products/:id", deps.AdminCatalogHandler.UpdateProduct)
	admin.Delete("/products/:id", deps.AdminCatalogHandler.DeleteProduct)
	admin.Patch("/variants/:id", deps.AdminCatalogHandler.UpdateVariant)
	admin.Delete("/variants/:id", deps.AdminCatalogHandler.DeleteVariant)
	admin.Post("/attributes", deps.AdminCatalogHandler.CreateAttribute)
	admin.Get("/attributes/:id", deps.AdminCatalogHandler.GetAttribute)
	admin.Patch("/attributes/:id", deps.AdminCatalogHandler.UpdateAttribute)
	admin.Delete("/attributes/:id", deps.AdminCatalogHandler.DeleteAttribute)
	admin.Patch("/attribute-values/:id", deps.AdminCatalogHandler.UpdateAttributeValue)
	admin.Delete("/attribute-values/:id", deps.AdminCatalogHandler.DeleteAttributeValue)
	admin.Get("/banners", deps.AdminCatalogHandler.Banners)
	admin.Post("/banners", deps.AdminCatalogHandler.CreateBanner)
	admin.Patch("/banners/:id/toggle", deps.AdminCatalogHandler.ToggleBanner)
	admin.Delete("/banners/:id", deps.AdminCatalogHandler.DeleteBanner)
	admin.Post("/sections", deps.AdminCatalogHandler.CreateSection)
	admin.Put("/sections/:id/products", deps.AdminCatalogHandler.SetSectionProducts)

	app.Use(func(c *fiber.Ctx) error {
		return fail(c, fiber.StatusNotFound, "Not found", nil)
	})
	return app
}
