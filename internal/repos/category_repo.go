package repos

import (
	"context"
	"strings"

	"bikeshop/internal/domain"
)

// CategoryRepo serves both categories and brands; they share shape and lookups.
type CategoryRepo struct{ db DBTX }

func NewCategoryRepo(db DBTX) *CategoryRepo { return &CategoryRepo{db: db} }

const categoryColumns = `id, name, slug, parent_id, description, image, is_active, display_order, created_at`
const brandColumns = `id, name, slug, description, logo, website, is_active, created_at`

// CategoryCount is a category with the number of active products in it.
type CategoryCount struct {
	domain.Category
	ProductCount int `db:"product_count" json:"product_count"`
}

type BrandCount struct {
	domain.Brand
	ProductCount int `db:"product_count" json:"product_count"`
}

func (r *CategoryRepo) List(ctx context.Context, limit int) ([]CategoryCount, error) {
	if limit <= 0 {
		limit = -1
	}
	out := []CategoryCount{}
	err := r.db.SelectContext(ctx, &out, `
	  SELECT c.id, c.name, c.slug, c.parent_id, c.description, c.image, c.is_active, c.display_order, c.created_at,
	    (SELECT COUNT(*) FROM products p WHERE p.category_id = c.id AND p.is_active = 1) AS product_count
	  FROM categories c
	  WHERE c.is_active = 1
	  ORDER BY c.display_order, c.name
	  LIMIT ?`, limit)
	return out, err
}

func (r *CategoryRepo) BySlug(ctx context.Context, slug string) (*domain.Category, error) {
	var c domain.Category
	if err := r.db.GetContext(ctx, &c, `SELECT `+categoryColumns+` FROM categories WHERE slug = ? AND is_active = 1`, slug); err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (r *CategoryRepo) ByID(ctx context.Context, id int64) (*domain.Category, error) {
	var c domain.Category
	if err := r.db.GetContext(ctx, &c, `SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id); err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// ChildrenWithProducts returns active child categories that hold at least one active product.
func (r *CategoryRepo) ChildrenWithProducts(ctx context.Context, limit int) ([]domain.Category, error) {
	out := []domain.Category{}
	err := r.db.SelectContext(ctx, &out, `
	  SELECT `+categoryColumns+` FROM categories c
	  WHERE c.is_active = 1 AND c.parent_id IS NOT NULL
	    AND EXISTS (SELECT 1 FROM products p WHERE p.category_id = c.id AND p.is_active = 1)
	  ORDER BY c.display_order, c.name
	  LIMIT ?`, limit)
	return out, err
}

func (r *CategoryRepo) Search(ctx context.Context, q string, limit int) ([]domain.Category, error) {
	like := "%" + strings.ToLower(q) + "%"
	out := []domain.Category{}
	err := r.db.SelectContext(ctx, &out, `SELECT `+categoryColumns+` FROM categories
	  WHERE is_active = 1 AND (LOWER(name) LIKE ? OR LOWER(description) LIKE ?)
	  ORDER BY display_order, name LIMIT ?`, like, like, limit)
	return out, err
}

func (r *CategoryRepo) Create(ctx context.Context, c *domain.Category) error {
	c.CreatedAt = now()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO categories(name,slug,parent_id,description,image,is_active,display_order,created_at)
		VALUES(?,?,?,?,?,?,?,?)`,
		c.Name, c.Slug, c.ParentID, c.Description, c.Image, c.IsActive, c.DisplayOrder, c.CreatedAt)
	if err != nil {
		return err
	}
	c.ID, err = res.LastInsertId()
	return err
}

func (r *CategoryRepo) Update(ctx context.Context, c *domain.Category) error {
	return execOne(ctx, r.db, `
		UPDATE categories SET name=?, slug=?, parent_id=?, description=?, image=?, is_active=?, display_order=?
		WHERE id=?`,
		c.Name, c.Slug, c.ParentID, c.Description, c.Image, c.IsActive, c.DisplayOrder, c.ID)
}

// Delete removes the category and its subtree; their products stay, uncategorized.
func (r *CategoryRepo) Delete(ctx context.Context, id int64) error {
	return execOne(ctx, r.db, `DELETE FROM categories WHERE id = ?`, id)
}

// ---------- Brands ----------

func (r *CategoryRepo) Brands(ctx context.Context, limit int) ([]BrandCount, error) {
	if limit <= 0 {
		limit = -1
	}
	out := []BrandCount{}
	err := r.db.SelectContext(ctx, &out, `
	  SELECT b.id, b.name, b.slug, b.description, b.logo, b.website, b.is_active, b.created_at,
	    (SELECT COUNT(*) FROM products p WHERE p.brand_id = b.id AND p.is_active = 1) AS product_count
	  FROM brands b
	  WHERE b.is_active = 1
	  ORDER BY b.name
	  LIMIT ?`, limit)
	return out, err
}

func (r *CategoryRepo) BrandBySlug(ctx context.Context, slug string) (*domain.Brand, error) {
	var b domain.Brand
	if err := r.db.GetContext(ctx, &b, `SELECT `+brandColumns+` FROM brands WHERE slug = ? AND is_active = 1`, slug); err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

func (r *CategoryRepo) BrandByID(ctx context.Context, id int64) (*domain.Brand, error) {
	var b domain.Brand
	if err := r.db.GetContext(ctx, &b, `SELECT `+brandColumns+` FROM brands WHERE id = ?`, id); err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

func (r *CategoryRepo) SearchBrands(ctx context.Context, q string, limit int) ([]domain.Brand, error) {
	like := "%" + strings.ToLower(q) + "%"
	out := []domain.Brand{}
	err := r.db.SelectContext(ctx, &out, `SELECT `+brandColumns+` FROM brands
	  WHERE is_active = 1 AND (LOWER(name) LIKE ? OR LOWER(description) LIKE ?)
	  ORDER BY name LIMIT ?`, like, like, limit)
	return out, err
}

func (r *CategoryRepo) CreateBrand(ctx context.Context, b *domain.Brand) error {
	b.CreatedAt = now()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO brands(name,slug,description,logo,website,is_active,created_at)
		VALUES(?,?,?,?,?,?,?)`,
		b.Name, b.Slug, b.Description, b.Logo, b.Website, b.IsActive, b.CreatedAt)
	if err != nil {
		return err
	}
	b.ID, err = res.LastInsertId()
	return err
}

// NameOrSlugTaken checks uniqueness in table "categories", "brands" or "attribute_types",
// ignoring the row exceptID.
func (r *CategoryRepo) NameOrSlugTaken(ctx context.Context, table, name, slug string, exceptID int64) (bool, error) {
	switch table {
	case "categories", "brands", "attribute_types":
	default:
		return false, ErrNotFound
	}
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM `+table+` WHERE (LOWER(name) = LOWER(?) OR slug = ?) AND id <> ?`, name, slug, exceptID)
	return n > 0, err
}

func (r *CategoryRepo) UpdateBrand(ctx context.Context, b *domain.Brand) error {
	return execOne(ctx, r.db, `UPDATE brands SET name=?, slug=?, description=?, logo=?, website=?, is_active=? WHERE id=?`,
		b.Name, b.Slug, b.Description, b.Logo, b.Website, b.IsActive, b.ID)
}

func (r *CategoryRepo) DeleteBrand(ctx context.Context, id int64) error {
	return execOne(ctx, r.db, `DELETE FROM brands WHERE id = ?`, id)
}
