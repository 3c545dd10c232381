package repos

import (
	"context"

	"bikeshop/internal/domain"

	"github.com/shopspring/decimal"
)

type CartRepo struct{ db DBTX }

func NewCartRepo(db DBTX) *CartRepo { return &CartRepo{db: db} }

const cartColumns = `id, user_id, session_key, created_at, updated_at`

func (r *CartRepo) ForUser(ctx context.Context, userID int64) (*domain.Cart, error) {
	var c domain.Cart
	if err := r.db.GetContext(ctx, &c, `SELECT `+cartColumns+` FROM carts WHERE user_id = ?`, userID); err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (r *CartRepo) ForSession(ctx context.Context, sessionKey string) (*domain.Cart, error) {
	var c domain.Cart
	if err := r.db.GetContext(ctx, &c, `SELECT `+cartColumns+` FROM carts WHERE session_key = ?`, sessionKey); err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// Create inserts a cart owned by exactly one of userID (non-zero) or sessionKey.
func (r *CartRepo) Create(ctx context.Context, userID int64, sessionKey string) (*domain.Cart, error) {
	c := domain.Cart{CreatedAt: now()}
	c.UpdatedAt = c.CreatedAt
	if userID > 0 {
		c.UserID = &userID
	} else {
		c.SessionKey = &sessionKey
	}
	res, err := r.db.ExecContext(ctx, `INSERT INTO carts(user_id,session_key,created_at,updated_at) VALUES(?,?,?,?)`,
		c.UserID, c.SessionKey, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if c.ID, err = res.LastInsertId(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CartRepo) Touch(ctx context.Context, cartID int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE carts SET updated_at = ? WHERE id = ?`, now(), cartID)
	return err
}

func (r *CartRepo) Delete(ctx context.Context, cartID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM carts WHERE id = ?`, cartID)
	return err
}

const cartItemSelect = `
  SELECT ci.id, ci.cart_id, ci.variant_id, ci.product_id, ci.quantity, ci.price_snapshot,
    ci.product_title, ci.variant_sku, ci.variant_attributes, ci.created_at, ci.updated_at,
    CASE WHEN ci.variant_id IS NOT NULL THEN v.id IS NOT NULL ELSE p.id IS NOT NULL END AS target_exists,
    CASE WHEN ci.variant_id IS NOT NULL THEN COALESCE(v.is_active AND vp.is_active, 0)
         ELSE COALESCE(p.is_active, 0) END AS target_active,
    COALESCE(v.product_id, p.id) AS target_product_id,
    COALESCE(v.stock, p.stock, 0) AS target_stock,
    COALESCE(v.price, p.price, 0) AS target_price,
    CASE WHEN ci.variant_id IS NOT NULL THEN v.sale_price ELSE p.sale_price END AS target_sale_price
  FROM cart_items ci
  LEFT JOIN product_variants v ON v.id = ci.variant_id
  LEFT JOIN products vp ON vp.id = v.product_id
  LEFT JOIN products p ON p.id = ci.product_id`

// Items returns the cart's lines joined with the live state of their targets.
func (r *CartRepo) Items(ctx context.Context, cartID int64) ([]domain.CartItem, error) {
	out := []domain.CartItem{}
	err := r.db.SelectContext(ctx, &out, cartItemSelect+` WHERE ci.cart_id = ? ORDER BY ci.created_at, ci.id`, cartID)
	return out, err
}

func (r *CartRepo) Item(ctx context.Context, cartID, itemID int64) (*domain.CartItem, error) {
	var it domain.CartItem
	if err := r.db.GetContext(ctx, &it, cartItemSelect+` WHERE ci.cart_id = ? AND ci.id = ?`, cartID, itemID); err != nil {
		return nil, notFound(err)
	}
	return &it, nil
}

// FindLine returns the line for the given target, matching by variant when variantID is set.
func (r *CartRepo) FindLine(ctx context.Context, cartID int64, variantID, productID *int64) (*domain.CartItem, error) {
	var it domain.CartItem
	var err error
	if variantID != nil {
		err = r.db.GetContext(ctx, &it, cartItemSelect+` WHERE ci.cart_id = ? AND ci.variant_id = ?`, cartID, *variantID)
	} else {
		err = r.db.GetContext(ctx, &it, cartItemSelect+` WHERE ci.cart_id = ? AND ci.product_id = ?`, cartID, productID)
	}
	if err != nil {
		return nil, notFound(err)
	}
	return &it, nil
}

func (r *CartRepo) InsertItem(ctx context.Context, it *domain.CartItem) error {
	ts := now()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO cart_items(cart_id,variant_id,product_id,quantity,price_snapshot,
		  product_title,variant_sku,variant_attributes,created_at,updated_at)
		VALUES(?,?,?,?,?,?,?,?,?,?)`,
		it.CartID, it.VariantID, it.ProductID, it.Quantity, it.PriceSnapshot,
		it.ProductTitle, it.VariantSKU, it.VariantAttributes, ts, ts)
	if err != nil {
		return err
	}
	it.CreatedAt, it.UpdatedAt = ts, ts
	it.ID, err = res.LastInsertId()
	return err
}

func (r *CartRepo) SetQuantity(ctx context.Context, itemID int64, qty int) error {
	_, err := r.db.ExecContext(ctx, `UPDATE cart_items SET quantity = ?, updated_at = ? WHERE id = ?`, qty, now(), itemID)
	return err
}

func (r *CartRepo) SetPriceSnapshot(ctx context.Context, itemID int64, price decimal.Decimal) error {
	_, err := r.db.ExecContext(ctx, `UPDATE cart_items SET price_snapshot = ?, updated_at = ? WHERE id = ?`, price, now(), itemID)
	return err
}

// MoveItem reassigns a line to another cart.
func (r *CartRepo) MoveItem(ctx context.Context, itemID, toCartID int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE cart_items SET cart_id = ?, updated_at = ? WHERE id = ?`, toCartID, now(), itemID)
	return err
}

func (r *CartRepo) DeleteItem(ctx context.Context, cartID, itemID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = ? AND id = ?`, cartID, itemID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Clear removes every line but keeps the cart row.
func (r *CartRepo) Clear(ctx context.Context, cartID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = ?`, cartID)
	return err
}
