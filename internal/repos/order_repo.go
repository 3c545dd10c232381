package repos

import (
	"context"
	"strings"
	"time"

	"bikeshop/internal/domain"
)

type OrderRepo struct{ db DBTX }

func NewOrderRepo(db DBTX) *OrderRepo { return &OrderRepo{db: db} }

// OrderScope restricts lookups to one owner. A zero scope with All unset matches nothing.
type OrderScope struct {
	UserID     int64
	SessionKey string
	All        bool
}

func (s OrderScope) where() (string, []any) {
	switch {
	case s.All:
		return "1=1", nil
	case s.UserID > 0:
		return "user_id = ?", []any{s.UserID}
	case s.SessionKey != "":
		return "user_id IS NULL AND session_key = ?", []any{s.SessionKey}
	}
	return "0=1", nil
}

const orderColumns = `id, order_number, user_id, session_key, guest_email, guest_phone,
  guest_billing_address, guest_shipping_address, billing_address_id, shipping_address_id,
  status, payment_status, subtotal, discount, shipping_cost, total_price, notes, created_at, updated_at`

// NextNumber bumps the order-number counter and returns the new value.
func (r *OrderRepo) NextNumber(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.GetContext(ctx, &n, `UPDATE counters SET value = value + 1 WHERE name = 'order_number' RETURNING value`)
	return n, err
}

func (r *OrderRepo) Create(ctx context.Context, o *domain.Order) error {
	ts := now()
	res, err := r.db.ExecContext(ctx, `
	  INSERT INTO orders
	    (order_number, user_id, session_key, guest_email, guest_phone, guest_billing_address, guest_shipping_address,
	     billing_address_id, shipping_address_id, status, payment_status, subtotal, discount, shipping_cost,
	     total_price, notes, created_at, updated_at)
	  VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		o.OrderNumber, o.UserID, o.SessionKey, o.GuestEmail, o.GuestPhone, o.GuestBillingAddress, o.GuestShippingAddress,
		o.BillingAddressID, o.ShippingAddressID, o.Status, o.PaymentStatus, o.Subtotal, o.Discount, o.ShippingCost,
		o.TotalPrice, o.Notes, ts, ts)
	if err != nil {
		return err
	}
	o.CreatedAt, o.UpdatedAt = ts, ts
	o.ID, err = res.LastInsertId()
	return err
}

func (r *OrderRepo) InsertItem(ctx context.Context, it *domain.OrderItem) error {
	res, err := r.db.ExecContext(ctx, `
	  INSERT INTO order_items(order_id, product_id, variant_id, product_title, variant_sku, variant_attributes,
	    quantity, unit_price, subtotal)
	  VALUES(?,?,?,?,?,?,?,?,?)`,
		it.OrderID, it.ProductID, it.VariantID, it.ProductTitle, it.VariantSKU, it.VariantAttributes,
		it.Quantity, it.UnitPrice, it.Subtotal)
	if err != nil {
		return err
	}
	it.ID, err = res.LastInsertId()
	return err
}

func (r *OrderRepo) CreatePayment(ctx context.Context, p *domain.Payment) error {
	p.CreatedAt = now()
	res, err := r.db.ExecContext(ctx, `
	  INSERT INTO payments(order_id, method, transaction_id, amount, paid_at, success, created_at)
	  VALUES(?,?,?,?,?,?,?)`,
		p.OrderID, p.Method, p.TransactionID, p.Amount, p.PaidAt, p.Success, p.CreatedAt)
	if err != nil {
		return err
	}
	p.ID, err = res.LastInsertId()
	return err
}

// ByNumber finds an order inside scope; ErrNotFound when it does not exist or belongs to someone else.
func (r *OrderRepo) ByNumber(ctx context.Context, number string, scope OrderScope) (*domain.Order, error) {
	w, args := scope.where()
	var o domain.Order
	err := r.db.GetContext(ctx, &o, `SELECT `+orderColumns+` FROM orders WHERE order_number = ? AND `+w,
		append([]any{number}, args...)...)
	if err != nil {
		return nil, notFound(err)
	}
	return &o, nil
}

func (r *OrderRepo) Items(ctx context.Context, orderID int64) ([]domain.OrderItem, error) {
	out := []domain.OrderItem{}
	err := r.db.SelectContext(ctx, &out, `
		SELECT id, order_id, product_id, variant_id, product_title, variant_sku, variant_attributes,
		  quantity, unit_price, subtotal
		FROM order_items WHERE order_id = ? ORDER BY id`, orderID)
	return out, err
}

func (r *OrderRepo) Payment(ctx context.Context, orderID int64) (*domain.Payment, error) {
	var p domain.Payment
	err := r.db.GetContext(ctx, &p, `SELECT id, order_id, method, transaction_id, amount, paid_at, success, created_at
		FROM payments WHERE order_id = ?`, orderID)
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// OrderListFilter narrows the admin and customer order lists.
type OrderListFilter struct {
	Scope         OrderScope
	Status        string
	PaymentStatus string
	Limit         int
	Offset        int
}

func (r *OrderRepo) List(ctx context.Context, f OrderListFilter) ([]domain.Order, int, error) {
	w, args := f.Scope.where()
	conds := []string{w}
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, f.Status)
	}
	if f.PaymentStatus != "" {
		conds = append(conds, "payment_status = ?")
		args = append(args, f.PaymentStatus)
	}
	where := " WHERE " + strings.Join(conds, " AND ")

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM orders`+where, args...); err != nil {
		return nil, 0, err
	}
	limit := f.Limit
	if limit <= 0 {
		limit = -1
	}
	out := []domain.Order{}
	err := r.db.SelectContext(ctx, &out, `SELECT `+orderColumns+` FROM orders`+where+
		` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`, append(args, limit, f.Offset)...)
	return out, total, err
}

func (r *OrderRepo) SetStatus(ctx context.Context, orderID int64, status string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE orders SET status = ?, updated_at = ? WHERE id = ?`, status, now(), orderID)
	return err
}

func (r *OrderRepo) SetPaymentStatus(ctx context.Context, orderID int64, paymentStatus string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE orders SET payment_status = ?, updated_at = ? WHERE id = ?`, paymentStatus, now(), orderID)
	return err
}

// MarkPaid records a successful payment and flips the order's payment status.
func (r *OrderRepo) MarkPaid(ctx context.Context, orderID int64, transactionID string, at time.Time) error {
	if _, err := r.db.ExecContext(ctx, `
		UPDATE payments SET success = 1, paid_at = ?,
		  transaction_id = CASE WHEN ? <> '' THEN ? ELSE transaction_id END
		WHERE order_id = ?`, at, transactionID, transactionID, orderID); err != nil {
		return err
	}
	return r.SetPaymentStatus(ctx, orderID, domain.PaymentPaid)
}
