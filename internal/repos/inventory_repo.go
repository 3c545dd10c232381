package repos

import (
	"context"
)

type InventoryRepo struct{ db DBTX }

func NewInventoryRepo(db DBTX) *InventoryRepo { return &InventoryRepo{db: db} }

// InventoryRow is one stock-holding unit: a variant, or a product sold without variants.
type InventoryRow struct {
	ProductID         int64  `db:"product_id" json:"product_id"`
	VariantID         *int64 `db:"variant_id" json:"variant_id"`
	Title             string `db:"title" json:"title"`
	SKU               string `db:"sku" json:"sku"`
	Stock             int    `db:"stock" json:"stock"`
	LowStockThreshold int    `db:"low_stock_threshold" json:"low_stock_threshold"`
	IsActive          bool   `db:"is_active" json:"is_active"`
}

// ListAll returns every stock row, out-of-stock and low-stock rows first.
func (r *InventoryRepo) ListAll(ctx context.Context) ([]InventoryRow, error) {
	rows := []InventoryRow{}
	err := r.db.SelectContext(ctx, &rows, `
		SELECT * FROM (
		  SELECT p.id AS product_id, NULL AS variant_id, p.title, 'PROD-' || p.id AS sku,
		    p.stock, p.low_stock_threshold, p.is_active
		  FROM products p
		  WHERE NOT EXISTS (SELECT 1 FROM product_variants v WHERE v.product_id = p.id)
		  UNION ALL
		  SELECT p.id, v.id, p.title, v.sku, v.stock, p.low_stock_threshold, v.is_active AND p.is_active
		  FROM product_variants v JOIN products p ON p.id = v.product_id
		)
		ORDER BY (stock > low_stock_threshold), stock, title, sku
	`)
	return rows, err
}

// ProductQty returns current stock and low-stock threshold of an active product.
// A missing or hidden product yields ErrNotFound.
func (r *InventoryRepo) ProductQty(ctx context.Context, productID int64) (int, int, error) {
	var row struct {
		Stock     int `db:"stock"`
		Threshold int `db:"low_stock_threshold"`
	}
	err := r.db.GetContext(ctx, &row, `SELECT stock, low_stock_threshold FROM products WHERE id = ? AND is_active = 1`, productID)
	if err != nil {
		return 0, 0, notFound(err)
	}
	return row.Stock, row.Threshold, nil
}

// VariantQty returns a variant's stock with its product's low-stock threshold.
func (r *InventoryRepo) VariantQty(ctx context.Context, variantID int64) (int, int, error) {
	var row struct {
		Stock     int `db:"stock"`
		Threshold int `db:"low_stock_threshold"`
	}
	err := r.db.GetContext(ctx, &row, `
		SELECT v.stock, p.low_stock_threshold
		FROM product_variants v JOIN products p ON p.id = v.product_id
		WHERE v.id = ? AND v.is_active = 1 AND p.is_active = 1`, variantID)
	if err != nil {
		return 0, 0, notFound(err)
	}
	return row.Stock, row.Threshold, nil
}
