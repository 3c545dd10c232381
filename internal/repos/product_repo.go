package repos

import (
	"context"
	"strings"

	"bikeshop/internal/domain"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type ProductRepo struct{ db DBTX }

func NewProductRepo(db DBTX) *ProductRepo { return &ProductRepo{db: db} }

const productSelect = `
  SELECT
    p.id, p.title, p.slug, p.brand_id, COALESCE(b.name,'') AS brand_name,
    p.category_id, COALESCE(c.name,'') AS category_name, p.description,
    p.price, p.sale_price, p.stock, p.low_stock_threshold, p.is_featured, p.is_active,
    (SELECT COUNT(*) FROM product_variants v WHERE v.product_id = p.id AND v.is_active = 1) AS variant_count,
    COALESCE((SELECT i.path FROM product_images i WHERE i.product_id = p.id ORDER BY i.position, i.id LIMIT 1),'') AS primary_image,
    p.created_at, p.updated_at
  FROM products p
  LEFT JOIN brands b ON b.id = p.brand_id
  LEFT JOIN categories c ON c.id = p.category_id`

// ProductFilter narrows product listings. Zero values mean "no filter".
type ProductFilter struct {
	CategorySlugs []string
	BrandSlugs    []string
	CategoryID    int64
	BrandID       int64
	MinPrice      *decimal.Decimal
	MaxPrice      *decimal.Decimal
	Featured      bool
	OnSale        bool
	Q             string
	Ordering      string
	IncludeHidden bool
	Limit         int
	Offset        int
}

var productOrderings = map[string]string{
	"price":       "p.price ASC",
	"-price":      "p.price DESC",
	"created_at":  "p.created_at ASC",
	"-created_at": "p.created_at DESC",
	"title":       "LOWER(p.title) ASC",
	"-title":      "LOWER(p.title) DESC",
}

// ValidOrdering reports whether o is an accepted ordering key.
func ValidOrdering(o string) bool {
	_, ok := productOrderings[o]
	return ok
}

func (f ProductFilter) where() (string, []any, error) {
	conds := []string{}
	args := []any{}
	if !f.IncludeHidden {
		conds = append(conds, `p.is_active = 1`)
	}
	if len(f.CategorySlugs) > 0 {
		q, a, err := sqlx.In(`c.slug IN (?)`, f.CategorySlugs)
		if err != nil {
			return "", nil, err
		}
		conds = append(conds, q)
		args = append(args, a...)
	}
	if len(f.BrandSlugs) > 0 {
		q, a, err := sqlx.In(`b.slug IN (?)`, f.BrandSlugs)
		if err != nil {
			return "", nil, err
		}
		conds = append(conds, q)
		args = append(args, a...)
	}
	if f.CategoryID > 0 {
		conds = append(conds, `p.category_id = ?`)
		args = append(args, f.CategoryID)
	}
	if f.BrandID > 0 {
		conds = append(conds, `p.brand_id = ?`)
		args = append(args, f.BrandID)
	}
	// price bounds match either the base price or any variant price
	if f.MinPrice != nil {
		v := f.MinPrice.InexactFloat64()
		conds = append(conds, `(p.price >= ? OR EXISTS (SELECT 1 FROM product_variants v WHERE v.product_id = p.id AND v.price >= ?))`)
		args = append(args, v, v)
	}
	if f.MaxPrice != nil {
		v := f.MaxPrice.InexactFloat64()
		conds = append(conds, `(p.price <= ? OR EXISTS (SELECT 1 FROM product_variants v WHERE v.product_id = p.id AND v.price <= ?))`)
		args = append(args, v, v)
	}
	if f.Featured {
		conds = append(conds, `p.is_featured = 1`)
	}
	if f.OnSale {
		conds = append(conds, `((p.sale_price IS NOT NULL AND p.sale_price < p.price)
		  OR EXISTS (SELECT 1 FROM product_variants v WHERE v.product_id = p.id AND v.sale_price IS NOT NULL))`)
	}
	if q := strings.ToLower(strings.TrimSpace(f.Q)); q != "" {
		conds = append(conds, `(LOWER(p.title) LIKE ? OR LOWER(p.description) LIKE ?)`)
		args = append(args, "%"+q+"%", "%"+q+"%")
	}
	if len(conds) == 0 {
		return "", args, nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

// List returns one page of products plus the total match count.
func (r *ProductRepo) List(ctx context.Context, f ProductFilter) ([]domain.Product, int, error) {
	where, args, err := f.where()
	if err != nil {
		return nil, 0, err
	}
	var total int
	countQ := `SELECT COUNT(*) FROM products p
	  LEFT JOIN brands b ON b.id = p.brand_id
	  LEFT JOIN categories c ON c.id = p.category_id` + where
	if err := r.db.GetContext(ctx, &total, r.db.Rebind(countQ), args...); err != nil {
		return nil, 0, err
	}

	order, ok := productOrderings[f.Ordering]
	if !ok {
		order = productOrderings["-created_at"]
	}
	limit := f.Limit
	if limit <= 0 {
		limit = -1
	}
	q := productSelect + where + ` ORDER BY ` + order + `, p.id DESC LIMIT ? OFFSET ?`
	out := []domain.Product{}
	if err := r.db.SelectContext(ctx, &out, r.db.Rebind(q), append(args, limit, f.Offset)...); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *ProductRepo) BySlug(ctx context.Context, slug string) (*domain.Product, error) {
	var p domain.Product
	if err := r.db.GetContext(ctx, &p, productSelect+` WHERE p.slug = ?`, slug); err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *ProductRepo) ByID(ctx context.Context, id int64) (*domain.Product, error) {
	var p domain.Product
	if err := r.db.GetContext(ctx, &p, productSelect+` WHERE p.id = ?`, id); err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// SlugTaken reports whether another product than exceptID uses slug.
func (r *ProductRepo) SlugTaken(ctx context.Context, slug string, exceptID int64) (bool, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM products WHERE slug = ? AND id <> ?`, slug, exceptID)
	return n > 0, err
}

func (r *ProductRepo) Create(ctx context.Context, p *domain.Product) error {
	ts := now()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO products(title,slug,brand_id,category_id,description,price,sale_price,stock,
		  low_stock_threshold,is_featured,is_active,created_at,updated_at)
		VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		p.Title, p.Slug, p.BrandID, p.CategoryID, p.Description, p.Price, p.SalePrice, p.Stock,
		p.LowStockThreshold, p.IsFeatured, p.IsActive, ts, ts)
	if err != nil {
		return err
	}
	p.CreatedAt, p.UpdatedAt = ts, ts
	p.ID, err = res.LastInsertId()
	return err
}

func (r *ProductRepo) Update(ctx context.Context, p *domain.Product) error {
	p.UpdatedAt = now()
	return r.exec1(ctx, `
		UPDATE products SET title=?, slug=?, brand_id=?, category_id=?, description=?, price=?, sale_price=?,
		  stock=?, low_stock_threshold=?, is_featured=?, is_active=?, updated_at=?
		WHERE id=?`,
		p.Title, p.Slug, p.BrandID, p.CategoryID, p.Description, p.Price, p.SalePrice,
		p.Stock, p.LowStockThreshold, p.IsFeatured, p.IsActive, p.UpdatedAt, p.ID)
}

// Delete removes the product with its images and variants. Cart lines go with it;
// order lines keep their snapshot and lose the reference.
func (r *ProductRepo) Delete(ctx context.Context, id int64) error {
	return r.exec1(ctx, `DELETE FROM products WHERE id = ?`, id)
}

func (r *ProductRepo) SetActive(ctx context.Context, id int64, active bool) error {
	return r.exec1(ctx, `UPDATE products SET is_active = ?, updated_at = ? WHERE id = ?`, active, now(), id)
}

func (r *ProductRepo) SetStock(ctx context.Context, id int64, stock int) error {
	return r.exec1(ctx, `UPDATE products SET stock = ?, updated_at = ? WHERE id = ?`, stock, now(), id)
}

func (r *ProductRepo) SetVariantStock(ctx context.Context, id int64, stock int) error {
	return r.exec1(ctx, `UPDATE product_variants SET stock = ? WHERE id = ?`, stock, id)
}

// DecrementStock atomically subtracts qty if enough stock exists.
// Returns ErrInsufficientStock when the guard fails.
func (r *ProductRepo) DecrementStock(ctx context.Context, id int64, qty int) error {
	return r.guarded(ctx, `UPDATE products SET stock = stock - ?, updated_at = ? WHERE id = ? AND stock >= ?`, qty, now(), id, qty)
}

func (r *ProductRepo) DecrementVariantStock(ctx context.Context, id int64, qty int) error {
	return r.guarded(ctx, `UPDATE product_variants SET stock = stock - ? WHERE id = ? AND stock >= ?`, qty, id, qty)
}

func (r *ProductRepo) IncrementStock(ctx context.Context, id int64, qty int) error {
	_, err := r.db.ExecContext(ctx, `UPDATE products SET stock = stock + ?, updated_at = ? WHERE id = ?`, qty, now(), id)
	return err
}

func (r *ProductRepo) IncrementVariantStock(ctx context.Context, id int64, qty int) error {
	_, err := r.db.ExecContext(ctx, `UPDATE product_variants SET stock = stock + ? WHERE id = ?`, qty, id)
	return err
}

func (r *ProductRepo) guarded(ctx context.Context, q string, args ...any) error {
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrInsufficientStock
	}
	return nil
}

func (r *ProductRepo) exec1(ctx context.Context, q string, args ...any) error {
	return execOne(ctx, r.db, q, args...)
}

// ---------- Images ----------

func (r *ProductRepo) Images(ctx context.Context, productID int64) ([]domain.ProductImage, error) {
	out := []domain.ProductImage{}
	err := r.db.SelectContext(ctx, &out, `SELECT id, product_id, path, alt_text, position
		FROM product_images WHERE product_id = ? ORDER BY position, id`, productID)
	return out, err
}

func (r *ProductRepo) AddImage(ctx context.Context, img *domain.ProductImage) error {
	res, err := r.db.ExecContext(ctx, `INSERT INTO product_images(product_id,path,alt_text,position) VALUES(?,?,?,?)`,
		img.ProductID, img.Path, img.AltText, img.Position)
	if err != nil {
		return err
	}
	img.ID, err = res.LastInsertId()
	return err
}

// ---------- Variants ----------

const variantColumns = `id, product_id, sku, price, sale_price, stock, is_active, created_at`

// Variants returns a product's variants with their attributes attached.
func (r *ProductRepo) Variants(ctx context.Context, productID int64, activeOnly bool) ([]domain.ProductVariant, error) {
	q := `SELECT ` + variantColumns + ` FROM product_variants WHERE product_id = ?`
	if activeOnly {
		q += ` AND is_active = 1`
	}
	out := []domain.ProductVariant{}
	if err := r.db.SelectContext(ctx, &out, q+` ORDER BY id`, productID); err != nil {
		return nil, err
	}
	if err := r.attachAttributes(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ProductRepo) VariantByID(ctx context.Context, id int64) (*domain.ProductVariant, error) {
	var v domain.ProductVariant
	if err := r.db.GetContext(ctx, &v, `SELECT `+variantColumns+` FROM product_variants WHERE id = ?`, id); err != nil {
		return nil, notFound(err)
	}
	one := []domain.ProductVariant{v}
	if err := r.attachAttributes(ctx, one); err != nil {
		return nil, err
	}
	return &one[0], nil
}

func (r *ProductRepo) attachAttributes(ctx context.Context, vs []domain.ProductVariant) error {
	if len(vs) == 0 {
		return nil
	}
	ids := make([]int64, len(vs))
	for i, v := range vs {
		ids[i] = v.ID
	}
	q, args, err := sqlx.In(`
		SELECT va.variant_id, av.id, av.attribute_type_id, t.name AS type_name, av.value
		FROM variant_attributes va
		JOIN attribute_values av ON av.id = va.attribute_value_id
		JOIN attribute_types t ON t.id = av.attribute_type_id
		WHERE va.variant_id IN (?)
		ORDER BY t.name, av.value`, ids)
	if err != nil {
		return err
	}
	var rows []struct {
		VariantID int64 `db:"variant_id"`
		domain.AttributeValue
	}
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(q), args...); err != nil {
		return err
	}
	byVariant := map[int64][]domain.AttributeValue{}
	for _, row := range rows {
		byVariant[row.VariantID] = append(byVariant[row.VariantID], row.AttributeValue)
	}
	for i := range vs {
		vs[i].Attributes = byVariant[vs[i].ID]
		if vs[i].Attributes == nil {
			vs[i].Attributes = []domain.AttributeValue{}
		}
	}
	return nil
}

func (r *ProductRepo) CreateVariant(ctx context.Context, v *domain.ProductVariant, attributeValueIDs []int64) error {
	ts := now()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO product_variants(product_id,sku,price,sale_price,stock,is_active,created_at)
		VALUES(?,?,?,?,?,?,?)`, v.ProductID, v.SKU, v.Price, v.SalePrice, v.Stock, v.IsActive, ts)
	if err != nil {
		return err
	}
	if v.ID, err = res.LastInsertId(); err != nil {
		return err
	}
	v.CreatedAt = ts
	for _, avID := range attributeValueIDs {
		if _, err := r.db.ExecContext(ctx, `INSERT INTO variant_attributes(variant_id, attribute_value_id) VALUES(?,?)`, v.ID, avID); err != nil {
			return err
		}
	}
	return nil
}

func (r *ProductRepo) UpdateVariant(ctx context.Context, v *domain.ProductVariant) error {
	return r.exec1(ctx, `UPDATE product_variants SET sku=?, price=?, sale_price=?, stock=?, is_active=? WHERE id=?`,
		v.SKU, v.Price, v.SalePrice, v.Stock, v.IsActive, v.ID)
}

func (r *ProductRepo) DeleteVariant(ctx context.Context, id int64) error {
	return r.exec1(ctx, `DELETE FROM product_variants WHERE id = ?`, id)
}

func (r *ProductRepo) SKUTaken(ctx context.Context, sku string, exceptID int64) (bool, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM product_variants WHERE sku = ? AND id <> ?`, sku, exceptID)
	return n > 0, err
}

// ---------- Attributes ----------

func (r *ProductRepo) CreateAttributeType(ctx context.Context, t *domain.AttributeType) error {
	res, err := r.db.ExecContext(ctx, `INSERT INTO attribute_types(name, slug) VALUES(?,?)`, t.Name, t.Slug)
	if err != nil {
		return err
	}
	t.ID, err = res.LastInsertId()
	return err
}

func (r *ProductRepo) CreateAttributeValue(ctx context.Context, v *domain.AttributeValue) error {
	res, err := r.db.ExecContext(ctx, `INSERT INTO attribute_values(attribute_type_id, value) VALUES(?,?)`, v.TypeID, v.Value)
	if err != nil {
		return err
	}
	v.ID, err = res.LastInsertId()
	return err
}

func (r *ProductRepo) RenameAttributeType(ctx context.Context, t *domain.AttributeType) error {
	return r.exec1(ctx, `UPDATE attribute_types SET name=?, slug=? WHERE id=?`, t.Name, t.Slug, t.ID)
}

// DeleteAttributeType drops the type, its values and every variant link to them.
func (r *ProductRepo) DeleteAttributeType(ctx context.Context, id int64) error {
	return r.exec1(ctx, `DELETE FROM attribute_types WHERE id = ?`, id)
}

func (r *ProductRepo) ValuesOfType(ctx context.Context, typeID int64) ([]domain.AttributeValue, error) {
	out := []domain.AttributeValue{}
	err := r.db.SelectContext(ctx, &out, `SELECT av.id, av.attribute_type_id, t.name AS type_name, av.value
		FROM attribute_values av JOIN attribute_types t ON t.id = av.attribute_type_id
		WHERE av.attribute_type_id = ? ORDER BY av.value`, typeID)
	return out, err
}

// ValueTaken reports whether typeID already holds value (case-insensitive) under another id.
func (r *ProductRepo) ValueTaken(ctx context.Context, typeID int64, value string, exceptID int64) (bool, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM attribute_values
		WHERE attribute_type_id = ? AND LOWER(value) = LOWER(?) AND id <> ?`, typeID, value, exceptID)
	return n > 0, err
}

func (r *ProductRepo) UpdateAttributeValue(ctx context.Context, id int64, value string) error {
	return r.exec1(ctx, `UPDATE attribute_values SET value=? WHERE id=?`, value, id)
}

func (r *ProductRepo) DeleteAttributeValue(ctx context.Context, id int64) error {
	return r.exec1(ctx, `DELETE FROM attribute_values WHERE id = ?`, id)
}

func (r *ProductRepo) AttributeTypes(ctx context.Context) ([]domain.AttributeType, error) {
	out := []domain.AttributeType{}
	err := r.db.SelectContext(ctx, &out, `SELECT id, name, slug FROM attribute_types ORDER BY name`)
	return out, err
}

func (r *ProductRepo) AttributeValues(ctx context.Context, ids []int64) ([]domain.AttributeValue, error) {
	out := []domain.AttributeValue{}
	if len(ids) == 0 {
		return out, nil
	}
	q, args, err := sqlx.In(`SELECT av.id, av.attribute_type_id, t.name AS type_name, av.value
		FROM attribute_values av JOIN attribute_types t ON t.id = av.attribute_type_id
		WHERE av.id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	err = r.db.SelectContext(ctx, &out, r.db.Rebind(q), args...)
	return out, err
}

func (r *ProductRepo) AttributeTypeByID(ctx context.Context, id int64) (*domain.AttributeType, error) {
	var t domain.AttributeType
	if err := r.db.GetContext(ctx, &t, `SELECT id, name, slug FROM attribute_types WHERE id = ?`, id); err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}
