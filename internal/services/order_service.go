package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bikeshop/internal/config"
	"bikeshop/internal/domain"
	"bikeshop/internal/repos"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type OrderService struct {
	DB       *sqlx.DB
	Orders   *repos.OrderRepo
	Addrs    *repos.AddressRepo
	Commerce config.Commerce
	Now      func() time.Time
}

func NewOrderService(db *sqlx.DB, commerce config.Commerce) *OrderService {
	return &OrderService{
		DB:       db,
		Orders:   repos.NewOrderRepo(db),
		Addrs:    repos.NewAddressRepo(db),
		Commerce: commerce,
		Now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateOrderInput is a checkout request. Authenticated actors reference a saved
// address by id or supply fields; guests always supply fields plus contact details.
type CreateOrderInput struct {
	BillingAddressID  *int64
	ShippingAddressID *int64
	BillingAddress    *domain.AddressFields
	ShippingAddress   *domain.AddressFields
	GuestEmail        string
	GuestPhone        string
	Discount          decimal.Decimal
	ShippingCost      decimal.Decimal
	Notes             string
	PaymentMethod     string
}

// OrderCreateError wraps unexpected failures inside the checkout transaction.
type OrderCreateError struct{ Err error }

func (e *OrderCreateError) Error() string { return "Failed to create order: " + e.Err.Error() }
func (e *OrderCreateError) Unwrap() error { return e.Err }

// isCents reports whether d has at most two decimal places.
func isCents(d decimal.Decimal) bool { return d.Equal(d.Round(2)) }

func (s *OrderService) validateCreate(a Actor, in *CreateOrderInput) error {
	if in.PaymentMethod == "" {
		in.PaymentMethod = "cod"
	}
	if !domain.ValidPaymentMethod(in.PaymentMethod) {
		return Invalid("payment_method", fmt.Sprintf("%q is not a valid choice.", in.PaymentMethod))
	}
	if in.Discount.IsNegative() {
		return Invalid("discount", "Discount cannot be negative")
	}
	if in.ShippingCost.IsNegative() {
		return Invalid("shipping_cost", "Shipping cost cannot be negative")
	}
	if !isCents(in.Discount) {
		return Invalid("discount", "Ensure that there are no more than 2 decimal places.")
	}
	if !isCents(in.ShippingCost) {
		return Invalid("shipping_cost", "Ensure that there are no more than 2 decimal places.")
	}
	if a.Authenticated() {
		if in.BillingAddressID == nil && in.BillingAddress == nil {
			return Invalid("billing_address", "Billing address is required")
		}
		if in.ShippingAddressID == nil && in.ShippingAddress == nil {
			return Invalid("shipping_address", "Shipping address is required")
		}
		return nil
	}
	if in.BillingAddress == nil {
		return Invalid("guest_billing_address", "Billing address details are required for guest checkout")
	}
	if in.ShippingAddress == nil {
		return Invalid("guest_shipping_address", "Shipping address details are required for guest checkout")
	}
	return nil
}

// Create turns the actor's cart into an order in one transaction: stock is
// re-checked and decremented, the payment row is opened and the cart emptied.
func (s *OrderService) Create(ctx context.Context, a Actor, in CreateOrderInput) (*domain.Order, error) {
	if err := s.validateCreate(a, &in); err != nil {
		return nil, err
	}
	for _, f := range []*domain.AddressFields{in.BillingAddress, in.ShippingAddress} {
		if f != nil && f.Country == "" {
			f.Country = s.Commerce.DefaultCountry
		}
	}

	var number string
	err := repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		carts := repos.NewCartRepo(tx)
		cart, err := findCart(ctx, carts, a)
		if errors.Is(err, repos.ErrNotFound) {
			return &RuleError{Message: "Cart not found"}
		}
		if err != nil {
			return err
		}
		lines, err := carts.Items(ctx, cart.ID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return &RuleError{Message: "Cart is empty"}
		}
		for _, it := range lines {
			if it.Quantity > it.TargetStock {
				return ruleErr("Insufficient stock for %s. Only %d available.", it.DisplayTitle(), it.TargetStock)
			}
		}

		o := &domain.Order{
			Status:        domain.StatusPending,
			PaymentStatus: domain.PaymentUnpaid,
			GuestEmail:    strings.TrimSpace(in.GuestEmail),
			GuestPhone:    strings.TrimSpace(in.GuestPhone),
			Discount:      in.Discount,
			Notes:         in.Notes,
		}
		var shipCity string
		if a.Authenticated() {
			uid := a.UserID
			o.UserID = &uid
			addrs := repos.NewAddressRepo(tx)
			billing, err := orderAddress(ctx, addrs, a.UserID, in.BillingAddressID, in.BillingAddress, domain.AddressBilling)
			if err != nil {
				return err
			}
			shipping, err := orderAddress(ctx, addrs, a.UserID, in.ShippingAddressID, in.ShippingAddress, domain.AddressShipping)
			if err != nil {
				return err
			}
			o.BillingAddressID, o.ShippingAddressID = &billing.ID, &shipping.ID
			shipCity = shipping.City
		} else {
			o.SessionKey = a.SessionKey
			o.GuestBillingAddress = in.BillingAddress
			o.GuestShippingAddress = in.ShippingAddress
			shipCity = in.ShippingAddress.City
		}

		o.ShippingCost = ShippingCost(shipCity, in.ShippingCost, s.Commerce)
		o.Subtotal = (domain.Cart{Items: lines}).Subtotal()
		o.TotalPrice = domain.OrderTotal(o.Subtotal, o.Discount, o.ShippingCost)
		if o.TotalPrice.IsNegative() {
			return Invalid("discount", "Discount cannot exceed the subtotal plus shipping")
		}

		orders := repos.NewOrderRepo(tx)
		n, err := orders.NextNumber(ctx)
		if err != nil {
			return err
		}
		o.OrderNumber = fmt.Sprintf("%s-%d", s.Commerce.OrderNumberPrefix, n)
		if err := orders.Create(ctx, o); err != nil {
			return err
		}

		prods := repos.NewProductRepo(tx)
		for _, it := range lines {
			oi := &domain.OrderItem{
				OrderID:           o.ID,
				ProductID:         it.TargetProductID,
				VariantID:         it.VariantID,
				ProductTitle:      it.ProductTitle,
				VariantSKU:        it.VariantSKU,
				VariantAttributes: it.VariantAttributes,
				Quantity:          it.Quantity,
				UnitPrice:         it.PriceSnapshot,
				Subtotal:          it.Total(),
			}
			if err := orders.InsertItem(ctx, oi); err != nil {
				return err
			}
			if it.VariantID != nil {
				err = prods.DecrementVariantStock(ctx, *it.VariantID, it.Quantity)
			} else {
				err = prods.DecrementStock(ctx, *it.ProductID, it.Quantity)
			}
			if errors.Is(err, repos.ErrInsufficientStock) {
				return ruleErr("Insufficient stock for %s. Only %d available.", it.DisplayTitle(), it.TargetStock)
			}
			if err != nil {
				return err
			}
		}

		if err := orders.CreatePayment(ctx, &domain.Payment{OrderID: o.ID, Method: in.PaymentMethod, Amount: o.TotalPrice}); err != nil {
			return err
		}
		if err := carts.Clear(ctx, cart.ID); err != nil {
			return err
		}
		number = o.OrderNumber
		return nil
	})
	if err != nil {
		var ve *ValidationError
		var re *RuleError
		var nf *NotFoundError
		if errors.As(err, &ve) || errors.As(err, &re) || errors.As(err, &nf) {
			return nil, err
		}
		return nil, &OrderCreateError{Err: err}
	}
	return s.Get(ctx, a, number)
}

// orderAddress resolves an owned saved address or stores the supplied fields as a new non-default address.
func orderAddress(ctx context.Context, addrs *repos.AddressRepo, userID int64, id *int64, f *domain.AddressFields, typ string) (*domain.Address, error) {
	if id != nil {
		a, err := addrs.Owned(ctx, userID, *id)
		if err != nil {
			what := "Billing address"
			if typ == domain.AddressShipping {
				what = "Shipping address"
			}
			return nil, notFound(what, err)
		}
		return a, nil
	}
	label := f.Label
	if label == "" {
		label = "Checkout Address"
	}
	a := &domain.Address{
		UserID: &userID, AddressType: typ, Label: label, Phone: f.Phone, Street: f.Street,
		City: f.City, State: f.State, PostalCode: f.PostalCode, Country: f.Country,
	}
	return a, addrs.Create(ctx, a)
}

// Get loads an order visible to the actor with its lines, payment and addresses.
func (s *OrderService) Get(ctx context.Context, a Actor, number string) (*domain.Order, error) {
	return s.load(ctx, number, a.orderScope())
}

// AdminGet loads any order by number.
func (s *OrderService) AdminGet(ctx context.Context, number string) (*domain.Order, error) {
	return s.load(ctx, number, repos.OrderScope{All: true})
}

func (s *OrderService) load(ctx context.Context, number string, scope repos.OrderScope) (*domain.Order, error) {
	o, err := s.Orders.ByNumber(ctx, number, scope)
	if err != nil {
		return nil, notFound("Order", err)
	}
	if o.Items, err = s.Orders.Items(ctx, o.ID); err != nil {
		return nil, err
	}
	if p, err := s.Orders.Payment(ctx, o.ID); err == nil {
		o.Payment = p
	} else if !errors.Is(err, repos.ErrNotFound) {
		return nil, err
	}
	o.BillingAddress, err = s.addressFields(ctx, o.BillingAddressID, o.GuestBillingAddress)
	if err != nil {
		return nil, err
	}
	o.ShippingAddress, err = s.addressFields(ctx, o.ShippingAddressID, o.GuestShippingAddress)
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (s *OrderService) addressFields(ctx context.Context, id *int64, guest *domain.AddressFields) (*domain.AddressFields, error) {
	if id == nil {
		return guest, nil
	}
	a, err := s.Addrs.ByID(ctx, *id)
	if errors.Is(err, repos.ErrNotFound) {
		return guest, nil
	}
	if err != nil {
		return nil, err
	}
	f := a.Fields()
	return &f, nil
}

// List returns the actor's orders, newest first.
func (s *OrderService) List(ctx context.Context, a Actor, limit, offset int) ([]domain.Order, int, error) {
	return s.listWithItems(ctx, repos.OrderListFilter{Scope: a.orderScope(), Limit: limit, Offset: offset})
}

// AdminList lists every order, optionally filtered by status and payment status.
func (s *OrderService) AdminList(ctx context.Context, status, paymentStatus string, limit, offset int) ([]domain.Order, int, error) {
	if status != "" && !domain.ValidStatus(status) {
		return nil, 0, Invalid("status", fmt.Sprintf("%q is not a valid choice.", status))
	}
	if paymentStatus != "" && !domain.ValidPaymentStatus(paymentStatus) {
		return nil, 0, Invalid("payment_status", fmt.Sprintf("%q is not a valid choice.", paymentStatus))
	}
	return s.listWithItems(ctx, repos.OrderListFilter{
		Scope: repos.OrderScope{All: true}, Status: status, PaymentStatus: paymentStatus, Limit: limit, Offset: offset,
	})
}

func (s *OrderService) listWithItems(ctx context.Context, f repos.OrderListFilter) ([]domain.Order, int, error) {
	list, total, err := s.Orders.List(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	for i := range list {
		if list[i].Items, err = s.Orders.Items(ctx, list[i].ID); err != nil {
			return nil, 0, err
		}
	}
	return list, total, nil
}

// Cancel cancels an actor's order, restoring stock and failing the payment.
func (s *OrderService) Cancel(ctx context.Context, a Actor, number string) (*domain.Order, error) {
	if !a.Authenticated() && a.SessionKey == "" {
		return nil, &NotFoundError{What: "Order"}
	}
	return s.cancel(ctx, number, a.orderScope())
}

func (s *OrderService) cancel(ctx context.Context, number string, scope repos.OrderScope) (*domain.Order, error) {
	err := repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		orders := repos.NewOrderRepo(tx)
		o, err := orders.ByNumber(ctx, number, scope)
		if err != nil {
			return notFound("Order", err)
		}
		if !domain.CanTransition(o.Status, domain.StatusCancelled) {
			return ruleErr("Cannot cancel order with status: %s", o.Status)
		}
		if o.PaymentStatus == domain.PaymentPaid {
			return &RuleError{Message: "Cannot cancel paid order. Please contact support for refund."}
		}
		items, err := orders.Items(ctx, o.ID)
		if err != nil {
			return err
		}
		prods := repos.NewProductRepo(tx)
		for _, it := range items {
			switch {
			case it.VariantID != nil:
				err = prods.IncrementVariantStock(ctx, *it.VariantID, it.Quantity)
			case it.ProductID != nil:
				err = prods.IncrementStock(ctx, *it.ProductID, it.Quantity)
			default:
				continue
			}
			if err != nil && !errors.Is(err, repos.ErrNotFound) {
				return err
			}
		}
		if err := orders.SetStatus(ctx, o.ID, domain.StatusCancelled); err != nil {
			return err
		}
		return orders.SetPaymentStatus(ctx, o.ID, domain.PaymentFailed)
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, number, scope)
}

// UpdateStatus moves an order along the fulfilment machine. Cancelling goes
// through the same path as a customer cancellation so stock is restored.
func (s *OrderService) UpdateStatus(ctx context.Context, number, status string) (*domain.Order, error) {
	if !domain.ValidStatus(status) {
		return nil, Invalid("status", fmt.Sprintf("%q is not a valid choice.", status))
	}
	all := repos.OrderScope{All: true}
	if status == domain.StatusCancelled {
		return s.cancel(ctx, number, all)
	}
	o, err := s.Orders.ByNumber(ctx, number, all)
	if err != nil {
		return nil, notFound("Order", err)
	}
	if !domain.CanTransition(o.Status, status) {
		return nil, ruleErr("Cannot change order status from %s to %s", o.Status, status)
	}
	if err := s.Orders.SetStatus(ctx, o.ID, status); err != nil {
		return nil, err
	}
	return s.load(ctx, number, all)
}

// ConfirmPayment marks an unpaid, non-cancelled order's payment as successful.
func (s *OrderService) ConfirmPayment(ctx context.Context, number, transactionID string) (*domain.Order, error) {
	all := repos.OrderScope{All: true}
	err := repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		orders := repos.NewOrderRepo(tx)
		o, err := orders.ByNumber(ctx, number, all)
		if err != nil {
			return notFound("Order", err)
		}
		if o.Status == domain.StatusCancelled {
			return &RuleError{Message: "Cannot confirm payment for a cancelled order"}
		}
		if !domain.CanTransitionPayment(o.PaymentStatus, domain.PaymentPaid) {
			return ruleErr("Cannot mark payment as paid from status: %s", o.PaymentStatus)
		}
		if _, err := orders.Payment(ctx, o.ID); err != nil {
			return notFound("Payment", err)
		}
		return orders.MarkPaid(ctx, o.ID, strings.TrimSpace(transactionID), s.Now())
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, number, all)
}

// UpdatePaymentStatus applies an admin payment transition (paid, failed, refunded).
func (s *OrderService) UpdatePaymentStatus(ctx context.Context, number, paymentStatus string) (*domain.Order, error) {
	if !domain.ValidPaymentStatus(paymentStatus) {
		return nil, Invalid("payment_status", fmt.Sprintf("%q is not a valid choice.", paymentStatus))
	}
	if paymentStatus == domain.PaymentPaid {
		return s.ConfirmPayment(ctx, number, "")
	}
	all := repos.OrderScope{All: true}
	o, err := s.Orders.ByNumber(ctx, number, all)
	if err != nil {
		return nil, notFound("Order", err)
	}
	if !domain.CanTransitionPayment(o.PaymentStatus, paymentStatus) {
		return nil, ruleErr("Cannot change payment status from %s to %s", o.PaymentStatus, paymentStatus)
	}
	if err := s.Orders.SetPaymentStatus(ctx, o.ID, paymentStatus); err != nil {
		return nil, err
	}
	return s.load(ctx, number, all)
}
