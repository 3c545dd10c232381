package handlers_test

import (
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dhaka() map[string]string {
	return map[string]string{
		"phone": "01700000009", "street": "12 Lake Rd", "city": "Dhaka", "state": "Dhaka", "postal_code": "1207",
	}
}

func sessionCookies(t *testing.T, resp *http.Response) []*http.Cookie {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == "sid" && c.Value != "" {
			assert.True(t, c.HttpOnly)
			return []*http.Cookie{c}
		}
	}
	t.Fatal("no sid cookie on response")
	return nil
}

type orderBody struct {
	OrderNumber          string          `json:"order_number"`
	Status               string          `json:"status"`
	PaymentStatus        string          `json:"payment_status"`
	Subtotal             decimal.Decimal `json:"subtotal"`
	ShippingCost         decimal.Decimal `json:"shipping_cost"`
	TotalPrice           decimal.Decimal `json:"total_price"`
	TotalItems           int             `json:"total_items"`
	CanCancel            bool            `json:"can_cancel"`
	PaymentMethodDisplay string          `json:"payment_method_display"`
	ShippingAddress      struct {
		City string `json:"city"`
	} `json:"shipping_address"`
}

func TestGuestCartCheckoutAndCancel(t *testing.T) {
	env := newEnv(t)
	helmet := env.productID(t, "abus-aduro-helmet")
	buf := captureLogs(t)

	resp, body := env.do(t, http.MethodPost, "/api/cart/items", map[string]any{"product_id": helmet, "quantity": 2})
	require.Equal(t, http.StatusCreated, resp.StatusCode, body.Message)
	assert.Equal(t, "Item added to cart successfully", body.Message)
	sid := sessionCookies(t, resp)

	resp, body = env.do(t, http.MethodGet, "/api/cart", nil, withCookies(sid))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var cart struct {
		TotalItems int             `json:"total_items"`
		Subtotal   decimal.Decimal `json:"subtotal"`
		Items      []struct {
			ID         int64           `json:"id"`
			Title      string          `json:"display_title"`
			TotalPrice decimal.Decimal `json:"total_price"`
		} `json:"items"`
	}
	body.into(t, &cart)
	assert.Equal(t, 2, cart.TotalItems)
	assert.True(t, decimal.NewFromInt(130).Equal(cart.Subtotal), cart.Subtotal.String())
	require.Len(t, cart.Items, 1)

	resp, body = env.do(t, http.MethodPatch, "/api/cart/items/"+itoa(cart.Items[0].ID), map[string]int{"quantity": 0}, withCookies(sid))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body.errors(t)["quantity"], "Quantity must be at least 1")

	resp, body = env.do(t, http.MethodPost, "/api/orders/create", map[string]any{
		"guest_email":            "guest@example.com",
		"guest_billing_address":  dhaka(),
		"guest_shipping_address": dhaka(),
	}, withCookies(sid))
	require.Equal(t, http.StatusCreated, resp.StatusCode, body.Message)
	assert.Equal(t, "Order created successfully", body.Message)
	var o orderBody
	body.into(t, &o)
	assert.Equal(t, "ORD-1", o.OrderNumber)
	assert.Equal(t, "pending", o.Status)
	assert.Equal(t, 2, o.TotalItems)
	assert.True(t, decimal.NewFromInt(60).Equal(o.ShippingCost), o.ShippingCost.String())
	assert.True(t, decimal.NewFromInt(190).Equal(o.TotalPrice), o.TotalPrice.String())
	assert.True(t, o.CanCancel)
	assert.Equal(t, "Cash on Delivery", o.PaymentMethodDisplay)
	assert.Equal(t, "Dhaka", o.ShippingAddress.City)

	l, found := findLog(buf, "order.create")
	require.True(t, found)
	assert.Equal(t, "ORD-1", l.Fields["order_number"])

	resp, body = env.do(t, http.MethodGet, "/api/v1/availability?product_id="+itoa(helmet), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var avail struct {
		Qty int `json:"qty"`
	}
	body.into(t, &avail)
	assert.Equal(t, 23, avail.Qty)

	_, body = env.do(t, http.MethodGet, "/api/cart", nil, withCookies(sid))
	body.into(t, &cart)
	assert.Zero(t, cart.TotalItems)

	resp, body = env.do(t, http.MethodGet, "/api/orders", nil, withCookies(sid))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list struct {
		Items      []orderBody `json:"items"`
		Pagination struct {
			Total int `json:"total"`
		} `json:"pagination"`
	}
	body.into(t, &list)
	require.Len(t, list.Items, 1)
	assert.Equal(t, 1, list.Pagination.Total)

	// another browser cannot see it
	resp, body = env.do(t, http.MethodGet, "/api/orders/ORD-1", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Order not found", body.Message)

	resp, body = env.do(t, http.MethodPatch, "/api/orders/ORD-1/cancel", nil, withCookies(sid))
	require.Equal(t, http.StatusOK, resp.StatusCode, body.Message)
	body.into(t, &o)
	assert.Equal(t, "cancelled", o.Status)
	assert.False(t, o.CanCancel)

	_, body = env.do(t, http.MethodGet, "/api/v1/availability?product_id="+itoa(helmet), nil)
	body.into(t, &avail)
	assert.Equal(t, 25, avail.Qty)

	resp, body = env.do(t, http.MethodPatch, "/api/orders/ORD-1/cancel", nil, withCookies(sid))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Cannot cancel order with status: cancelled", body.Message)
}

func TestGuestWithoutSession(t *testing.T) {
	env := newEnv(t)

	resp, body := env.do(t, http.MethodGet, "/api/orders", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "No orders found", body.Message)

	resp, body = env.do(t, http.MethodPost, "/api/orders/create", map[string]any{
		"guest_billing_address": dhaka(), "guest_shipping_address": dhaka(),
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Cart not found", body.Message)
}

func TestCartRejectsProductWithVariants(t *testing.T) {
	env := newEnv(t)
	trek := env.productID(t, "trek-marlin-5")

	resp, body := env.do(t, http.MethodPost, "/api/cart/items", map[string]any{"product_id": trek})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body.errors(t)["product_id"], "This product has variants. Please use variant_id instead")

	resp, body = env.do(t, http.MethodPost, "/api/cart/items", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.NotEmpty(t, body.errors(t)["error"])
}

func TestCheckoutStopsOnInsufficientStock(t *testing.T) {
	env := newEnv(t)
	red := env.variantID(t, "TRK-MRL5-M-RED")

	resp, _ := env.do(t, http.MethodPost, "/api/cart/items", map[string]any{"variant_id": red, "quantity": 2})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	sid := sessionCookies(t, resp)

	// someone else buys the stock first
	_, err := env.db.Exec(`UPDATE product_variants SET stock = 1 WHERE id = ?`, red)
	require.NoError(t, err)

	resp, body := env.do(t, http.MethodPost, "/api/orders/create", map[string]any{
		"guest_billing_address": dhaka(), "guest_shipping_address": dhaka(),
	}, withCookies(sid))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body.Message, "Only 1 available.")
}

func TestCustomerCheckoutWithInlineAddresses(t *testing.T) {
	env := newEnv(t)
	tok := env.login(t, "alice@bikeshop.test")
	talon := env.productID(t, "giant-talon-3")

	resp, _ := env.do(t, http.MethodPost, "/api/cart/items", map[string]any{"product_id": talon}, withToken(tok))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	ctg := map[string]string{"phone": "01700000010", "street": "5 Port St", "city": "Chittagong", "state": "Chattogram", "postal_code": "4000"}
	resp, body := env.do(t, http.MethodPost, "/api/orders/create", map[string]any{
		"billing_address": ctg, "shipping_address": ctg, "payment_method": "bkash",
	}, withToken(tok))
	require.Equal(t, http.StatusCreated, resp.StatusCode, body.Message)
	var o orderBody
	body.into(t, &o)
	assert.True(t, decimal.NewFromInt(120).Equal(o.ShippingCost), o.ShippingCost.String())
	assert.True(t, decimal.NewFromInt(840).Equal(o.TotalPrice), o.TotalPrice.String())

	resp, body = env.do(t, http.MethodGet, "/api/orders/"+o.OrderNumber, nil, withToken(tok))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Order details retrieved successfully", body.Message)

	bob := env.login(t, "bob@bikeshop.test")
	resp, _ = env.do(t, http.MethodGet, "/api/orders/"+o.OrderNumber, nil, withToken(bob))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
