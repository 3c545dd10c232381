package handlers

import (
	"errors"

	applog "bikeshop/internal/log"
	"bikeshop/internal/services"

	"github.com/gofiber/fiber/v2"
)

// envelope is the body shape of every API response.
type envelope struct {
	Status     bool   `json:"status"`
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
	Data       any    `json:"data"`
}

const msgServerError = "Something went wrong. Please try again."

func reply(c *fiber.Ctx, code int, message string, data any) error {
	if data == nil {
		data = fiber.Map{}
	}
	return c.Status(code).JSON(envelope{
		Status:     code < 400,
		StatusCode: code,
		Message:    message,
		Data:       data,
	})
}

func ok(c *fiber.Ctx, message string, data any) error {
	return reply(c, fiber.StatusOK, message, data)
}

func created(c *fiber.Ctx, message string, data any) error {
	return reply(c, fiber.StatusCreated, message, data)
}

// fail writes an error envelope; errs, when present, lands in data.errors.
func fail(c *fiber.Ctx, code int, message string, errs map[string][]string) error {
	data := fiber.Map{}
	if len(errs) > 0 {
		data["errors"] = errs
	}
	return reply(c, code, message, data)
}

// serviceError maps a service error onto the envelope. Validation failures
// use failMsg as the headline when one is given.
func serviceError(c *fiber.Ctx, action string, err error, failMsg string) error {
	var (
		ve *services.ValidationError
		re *services.RuleError
		nf *services.NotFoundError
		oe *services.OrderCreateError
	)
	switch {
	case errors.As(err, &ve):
		msg := ve.Message
		if failMsg != "" {
			msg = failMsg
		}
		return fail(c, fiber.StatusBadRequest, msg, ve.Fields)
	case errors.As(err, &re):
		return fail(c, fiber.StatusBadRequest, re.Message, nil)
	case errors.As(err, &nf):
		return fail(c, fiber.StatusNotFound, nf.Error(), nil)
	case errors.Is(err, services.ErrNotFound):
		return fail(c, fiber.StatusNotFound, "Not found", nil)
	case errors.Is(err, services.ErrBadCreds):
		applog.Security(c, action+".fail", map[string]any{"reason": "bad_credentials"})
		return fail(c, fiber.StatusUnauthorized, "Invalid credentials",
			map[string][]string{"non_field_errors": {"Invalid email or password."}})
	case errors.Is(err, services.ErrAccountDisabled):
		applog.Security(c, action+".fail", map[string]any{"reason": "disabled"})
		return fail(c, fiber.StatusUnauthorized, "Invalid credentials",
			map[string][]string{"non_field_errors": {"User account is disabled."}})
	case errors.Is(err, services.ErrInvalidToken):
		return fail(c, fiber.StatusUnauthorized, "Invalid or expired token", nil)
	case errors.Is(err, services.ErrEmailDelivery):
		applog.Error(c, action+".fail", err, nil)
		return fail(c, fiber.StatusInternalServerError, "Failed to send reset email. Please try again.", nil)
	case errors.As(err, &oe):
		applog.Error(c, action+".fail", err, nil)
		return fail(c, fiber.StatusInternalServerError, oe.Error(), nil)
	default:
		applog.Error(c, action+".fail", err, nil)
		return fail(c, fiber.StatusInternalServerError, msgServerError, nil)
	}
}
