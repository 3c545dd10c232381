package services_test

import (
	"context"
	"testing"

	"bikeshop/internal/config"
	"bikeshop/internal/domain"
	"bikeshop/internal/repos"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// seededDB returns an in-memory database loaded with the demo catalog and users.
func seededDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, repos.SeedDemo(context.Background(), db))
	return db
}

func commerce() config.Commerce { return config.DefaultCommerce() }

func productBySlug(t *testing.T, db *sqlx.DB, slug string) *domain.Product {
	t.Helper()
	p, err := repos.NewProductRepo(db).BySlug(context.Background(), slug)
	require.NoError(t, err)
	return p
}

func variantBySKU(t *testing.T, db *sqlx.DB, sku string) int64 {
	t.Helper()
	var id int64
	require.NoError(t, db.Get(&id, `SELECT id FROM product_variants WHERE sku = ?`, sku))
	return id
}

func userByEmail(t *testing.T, db *sqlx.DB, email string) *domain.User {
	t.Helper()
	u, err := repos.NewUserRepo(db).ByEmail(context.Background(), email)
	require.NoError(t, err)
	return u
}

// mkProduct adds a variant-less active product.
func mkProduct(t *testing.T, db *sqlx.DB, slug, price, sale string, stock int) *domain.Product {
	t.Helper()
	p := &domain.Product{Title: slug, Slug: slug, Price: decimal.RequireFromString(price), Stock: stock,
		LowStockThreshold: 5, IsActive: true}
	if sale != "" {
		p.SalePrice = decimal.NullDecimal{Decimal: decimal.RequireFromString(sale), Valid: true}
	}
	require.NoError(t, repos.NewProductRepo(db).Create(context.Background(), p))
	return p
}

func stockOf(t *testing.T, db *sqlx.DB, productID int64) int {
	t.Helper()
	var n int
	require.NoError(t, db.Get(&n, `SELECT stock FROM products WHERE id = ?`, productID))
	return n
}

func ptr[T any](v T) *T { return &v }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertDec(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, dec(want).Equal(got), "want %s, got %s", want, got)
}
