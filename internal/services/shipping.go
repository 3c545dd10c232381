package services

import (
	"strings"

	"bikeshop/internal/config"

	"github.com/shopspring/decimal"
)

// ShippingCost returns override when it is positive, otherwise the city tier.
// An empty city (no shipping address) falls into the standard tier.
func ShippingCost(city string, override decimal.Decimal, c config.Commerce) decimal.Decimal {
	if override.IsPositive() {
		return override
	}
	if city != "" && strings.EqualFold(strings.TrimSpace(city), c.ShippingPrimaryCity) {
		return c.ShippingPrimaryCost
	}
	return c.ShippingStandardCost
}
