package handlers

import (
	"strconv"

	"bikeshop/internal/services"
	"bikeshop/internal/validate"

	"github.com/gofiber/fiber/v2"
)

// bind decodes the JSON body into dst and runs its validate tags.
func bind(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return &services.ValidationError{
			Message: "Invalid data",
			Fields:  map[string][]string{"non_field_errors": {"Malformed request body."}},
		}
	}
	if errs := validate.Struct(dst); len(errs) > 0 {
		return &services.ValidationError{Message: "Invalid data", Fields: errs}
	}
	return nil
}

// idParam parses a positive integer route parameter.
func idParam(c *fiber.Ctx, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	return id, err == nil && id > 0
}
