package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusShipped    = "shipped"
	StatusDelivered  = "delivered"
	StatusCancelled  = "cancelled"

	PaymentUnpaid   = "unpaid"
	PaymentPaid     = "paid"
	PaymentFailed   = "failed"
	PaymentRefunded = "refunded"
)

// forward edges of the fulfilment machine; cancellation is handled by CanCancel
var statusNext = map[string]string{
	StatusPending:    StatusProcessing,
	StatusProcessing: StatusShipped,
	StatusShipped:    StatusDelivered,
}

var paymentNext = map[string][]string{
	PaymentUnpaid: {PaymentPaid, PaymentFailed},
	PaymentPaid:   {PaymentRefunded},
}

func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

func ValidPaymentStatus(s string) bool {
	switch s {
	case PaymentUnpaid, PaymentPaid, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

// CanTransition reports whether an order may move from one fulfilment status to another.
func CanTransition(from, to string) bool {
	if to == StatusCancelled {
		return from == StatusPending || from == StatusProcessing
	}
	return statusNext[from] == to
}

func CanTransitionPayment(from, to string) bool {
	for _, s := range paymentNext[from] {
		if s == to {
			return true
		}
	}
	return false
}

var paymentMethods = map[string]string{
	"cod":   "Cash on Delivery",
	"card":  "Credit/Debit Card",
	"bkash": "bKash",
	"nagad": "Nagad",
}

func ValidPaymentMethod(m string) bool {
	_, ok := paymentMethods[m]
	return ok
}

func PaymentMethodName(m string) string {
	if n, ok := paymentMethods[m]; ok {
		return n
	}
	return m
}

// AddressFields is an address carried inline on a guest order.
type AddressFields struct {
	Label      string `json:"label"`
	Phone      string `json:"phone" validate:"required,max=20"`
	Street     string `json:"street" validate:"required,max=255"`
	City       string `json:"city" validate:"required,max=100"`
	State      string `json:"state" validate:"required,max=100"`
	PostalCode string `json:"postal_code" validate:"required,max=20"`
	Country    string `json:"country" validate:"max=100"`
}

func (a AddressFields) Value() (driver.Value, error) {
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (a *AddressFields) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return json.Unmarshal([]byte(v), a)
	case []byte:
		return json.Unmarshal(v, a)
	}
	return errors.New("address: unsupported scan type")
}

type Order struct {
	ID                   int64           `db:"id" json:"id"`
	OrderNumber          string          `db:"order_number" json:"order_number"`
	UserID               *int64          `db:"user_id" json:"user_id"`
	SessionKey           string          `db:"session_key" json:"-"`
	GuestEmail           string          `db:"guest_email" json:"guest_email"`
	GuestPhone           string          `db:"guest_phone" json:"guest_phone"`
	GuestBillingAddress  *AddressFields  `db:"guest_billing_address" json:"-"`
	GuestShippingAddress *AddressFields  `db:"guest_shipping_address" json:"-"`
	BillingAddressID     *int64          `db:"billing_address_id" json:"-"`
	ShippingAddressID    *int64          `db:"shipping_address_id" json:"-"`
	Status               string          `db:"status" json:"status"`
	PaymentStatus        string          `db:"payment_status" json:"payment_status"`
	Subtotal             decimal.Decimal `db:"subtotal" json:"subtotal"`
	Discount             decimal.Decimal `db:"discount" json:"discount"`
	ShippingCost         decimal.Decimal `db:"shipping_cost" json:"shipping_cost"`
	TotalPrice           decimal.Decimal `db:"total_price" json:"total_price"`
	Notes                string          `db:"notes" json:"notes"`
	CreatedAt            time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time       `db:"updated_at" json:"updated_at"`

	BillingAddress  *AddressFields `db:"-" json:"billing_address"`
	ShippingAddress *AddressFields `db:"-" json:"shipping_address"`
	Items           []OrderItem    `db:"-" json:"items,omitempty"`
	Payment         *Payment       `db:"-" json:"payment,omitempty"`
}

func (o Order) TotalItems() int {
	n := 0
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}

func (o Order) CanCancel() bool {
	return CanTransition(o.Status, StatusCancelled) && o.PaymentStatus != PaymentPaid
}

// OrderTotal is subtotal - discount + shipping.
func OrderTotal(subtotal, discount, shipping decimal.Decimal) decimal.Decimal {
	return subtotal.Sub(discount).Add(shipping)
}

type OrderItem struct {
	ID                int64           `db:"id" json:"id"`
	OrderID           int64           `db:"order_id" json:"-"`
	ProductID         *int64          `db:"product_id" json:"product_id"`
	VariantID         *int64          `db:"variant_id" json:"variant_id"`
	ProductTitle      string          `db:"product_title" json:"product_title"`
	VariantSKU        string          `db:"variant_sku" json:"variant_sku"`
	VariantAttributes string          `db:"variant_attributes" json:"variant_attributes"`
	Quantity          int             `db:"quantity" json:"quantity"`
	UnitPrice         decimal.Decimal `db:"unit_price" json:"unit_price"`
	Subtotal          decimal.Decimal `db:"subtotal" json:"subtotal"`
}

type Payment struct {
	ID            int64           `db:"id" json:"id"`
	OrderID       int64           `db:"order_id" json:"-"`
	Method        string          `db:"method" json:"method"`
	TransactionID string          `db:"transaction_id" json:"transaction_id"`
	Amount        decimal.Decimal `db:"amount" json:"amount"`
	PaidAt        *time.Time      `db:"paid_at" json:"paid_at"`
	Success       bool            `db:"success" json:"success"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}

func (p Payment) MethodName() string { return PaymentMethodName(p.Method) }
