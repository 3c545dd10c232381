package repos

import (
	"context"

	"bikeshop/internal/domain"
)

type ContentRepo struct{ db DBTX }

func NewContentRepo(db DBTX) *ContentRepo { return &ContentRepo{db: db} }

const bannerSelect = `
  SELECT bn.id, bn.title, bn.subtitle, bn.image, bn.mobile_image, bn.link_product_id, p.slug AS link_slug,
    bn.button_text, bn.display_order, bn.is_active, bn.start_date, bn.end_date, bn.created_at
  FROM banners bn
  LEFT JOIN products p ON p.id = bn.link_product_id`

// ActiveBanners returns active banners in display order; date windows are checked by the caller.
func (r *ContentRepo) ActiveBanners(ctx context.Context) ([]domain.Banner, error) {
	out := []domain.Banner{}
	err := r.db.SelectContext(ctx, &out, bannerSelect+` WHERE bn.is_active = 1 ORDER BY bn.display_order, bn.id DESC`)
	return out, err
}

func (r *ContentRepo) Banners(ctx context.Context) ([]domain.Banner, error) {
	out := []domain.Banner{}
	err := r.db.SelectContext(ctx, &out, bannerSelect+` ORDER BY bn.display_order, bn.id DESC`)
	return out, err
}

func (r *ContentRepo) CreateBanner(ctx context.Context, b *domain.Banner) error {
	b.CreatedAt = now()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO banners(title,subtitle,image,mobile_image,link_product_id,button_text,display_order,is_active,
		  start_date,end_date,created_at)
		VALUES(?,?,?,?,?,?,?,?,?,?,?)`,
		b.Title, b.Subtitle, b.Image, b.MobileImage, b.LinkProductID, b.ButtonText, b.DisplayOrder, b.IsActive,
		b.StartDate, b.EndDate, b.CreatedAt)
	if err != nil {
		return err
	}
	b.ID, err = res.LastInsertId()
	return err
}

// ToggleBanner flips is_active and returns the new value.
func (r *ContentRepo) ToggleBanner(ctx context.Context, id int64) (bool, error) {
	var active bool
	err := r.db.GetContext(ctx, &active, `UPDATE banners SET is_active = 1 - is_active WHERE id = ? RETURNING is_active`, id)
	if err != nil {
		return false, notFound(err)
	}
	return active, nil
}

func (r *ContentRepo) DeleteBanner(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM banners WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

const sectionColumns = `id, title, subtitle, section_type, max_products, display_order, is_active, created_at`

func (r *ContentRepo) ActiveSections(ctx context.Context) ([]domain.FeaturedSection, error) {
	out := []domain.FeaturedSection{}
	err := r.db.SelectContext(ctx, &out, `SELECT `+sectionColumns+` FROM featured_sections
		WHERE is_active = 1 ORDER BY display_order, id`)
	return out, err
}

func (r *ContentRepo) SectionByID(ctx context.Context, id int64) (*domain.FeaturedSection, error) {
	var s domain.FeaturedSection
	if err := r.db.GetContext(ctx, &s, `SELECT `+sectionColumns+` FROM featured_sections WHERE id = ?`, id); err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

func (r *ContentRepo) CreateSection(ctx context.Context, s *domain.FeaturedSection) error {
	s.CreatedAt = now()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO featured_sections(title,subtitle,section_type,max_products,display_order,is_active,created_at)
		VALUES(?,?,?,?,?,?,?)`,
		s.Title, s.Subtitle, s.SectionType, s.MaxProducts, s.DisplayOrder, s.IsActive, s.CreatedAt)
	if err != nil {
		return err
	}
	s.ID, err = res.LastInsertId()
	return err
}

// SetSectionProducts replaces the section's selection, keeping the given order.
func (r *ContentRepo) SetSectionProducts(ctx context.Context, sectionID int64, productIDs []int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM featured_section_products WHERE section_id = ?`, sectionID); err != nil {
		return err
	}
	for i, pid := range productIDs {
		if _, err := r.db.ExecContext(ctx, `INSERT INTO featured_section_products(section_id, product_id, position)
			VALUES(?,?,?) ON CONFLICT(section_id, product_id) DO NOTHING`, sectionID, pid, i); err != nil {
			return err
		}
	}
	return nil
}

// SectionProducts returns up to limit active products selected for the section.
func (r *ContentRepo) SectionProducts(ctx context.Context, sectionID int64, limit int) ([]domain.Product, error) {
	out := []domain.Product{}
	err := r.db.SelectContext(ctx, &out, productSelect+`
		JOIN featured_section_products fsp ON fsp.product_id = p.id
		WHERE fsp.section_id = ? AND p.is_active = 1
		ORDER BY fsp.position, p.id
		LIMIT ?`, sectionID, limit)
	return out, err
}
