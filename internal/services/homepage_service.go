package services

import (
	"context"
	"strings"
	"time"

	"bikeshop/internal/domain"
	"bikeshop/internal/repos"

	"github.com/jmoiron/sqlx"
)

const (
	homepageCategoryLimit = 20
	homepageBrandLimit    = 20
	homepageChildLimit    = 3
	homepageChildProducts = 8
)

type HomepageService struct {
	DB      *sqlx.DB
	Content *repos.ContentRepo
	Cats    *repos.CategoryRepo
	Prods   *repos.ProductRepo
	Now     func() time.Time
}

func NewHomepageService(db *sqlx.DB) *HomepageService {
	return &HomepageService{
		DB:      db,
		Content: repos.NewContentRepo(db),
		Cats:    repos.NewCategoryRepo(db),
		Prods:   repos.NewProductRepo(db),
		Now:     func() time.Time { return time.Now().UTC() },
	}
}

type CategoryProducts struct {
	Category domain.Category  `json:"category"`
	Products []domain.Product `json:"products"`
}

type Homepage struct {
	Banners          []domain.Banner          `json:"banners"`
	FeaturedSections []domain.FeaturedSection `json:"featured_sections"`
	Categories       []repos.CategoryCount    `json:"categories"`
	Brands           []repos.BrandCount       `json:"brands"`
	CategoryProducts []CategoryProducts       `json:"category_products"`
}

func (s *HomepageService) Homepage(ctx context.Context) (*Homepage, error) {
	banners, err := s.VisibleBanners(ctx)
	if err != nil {
		return nil, err
	}
	sections, err := s.FeaturedSections(ctx)
	if err != nil {
		return nil, err
	}
	cats, err := s.Cats.List(ctx, homepageCategoryLimit)
	if err != nil {
		return nil, err
	}
	brands, err := s.Cats.Brands(ctx, homepageBrandLimit)
	if err != nil {
		return nil, err
	}
	children, err := s.Cats.ChildrenWithProducts(ctx, homepageChildLimit)
	if err != nil {
		return nil, err
	}
	cp := make([]CategoryProducts, 0, len(children))
	for _, c := range children {
		list, _, err := s.Prods.List(ctx, repos.ProductFilter{CategoryID: c.ID, Limit: homepageChildProducts})
		if err != nil {
			return nil, err
		}
		cp = append(cp, CategoryProducts{Category: c, Products: list})
	}
	return &Homepage{Banners: banners, FeaturedSections: sections, Categories: cats, Brands: brands, CategoryProducts: cp}, nil
}

// FeaturedSections returns the active sections, each filled up to its max_products.
func (s *HomepageService) FeaturedSections(ctx context.Context) ([]domain.FeaturedSection, error) {
	sections, err := s.Content.ActiveSections(ctx)
	if err != nil {
		return nil, err
	}
	for i := range sections {
		if sections[i].Products, err = s.Content.SectionProducts(ctx, sections[i].ID, sections[i].MaxProducts); err != nil {
			return nil, err
		}
	}
	return sections, nil
}

// VisibleBanners returns active banners whose date window contains now.
func (s *HomepageService) VisibleBanners(ctx context.Context) ([]domain.Banner, error) {
	all, err := s.Content.ActiveBanners(ctx)
	if err != nil {
		return nil, err
	}
	now := s.Now()
	out := make([]domain.Banner, 0, len(all))
	for _, b := range all {
		if b.IsVisible(now) {
			out = append(out, b)
		}
	}
	return out, nil
}

// ---------- Back office ----------

type BannerInput struct {
	Title         string
	Subtitle      string
	Image         string
	MobileImage   string
	LinkProductID *int64
	ButtonText    string
	DisplayOrder  int
	StartDate     *time.Time
	EndDate       *time.Time
}

func (s *HomepageService) Banners(ctx context.Context) ([]domain.Banner, error) {
	return s.Content.Banners(ctx)
}

func (s *HomepageService) CreateBanner(ctx context.Context, in BannerInput) (*domain.Banner, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, Invalid("title", "This field is required.")
	}
	if strings.TrimSpace(in.Image) == "" {
		return nil, Invalid("image", "This field is required.")
	}
	if in.StartDate != nil && in.EndDate != nil && in.EndDate.Before(*in.StartDate) {
		return nil, Invalid("end_date", "End date must be after start date")
	}
	if in.LinkProductID != nil {
		if _, err := s.Prods.ByID(ctx, *in.LinkProductID); err != nil {
			return nil, notFound("Product", err)
		}
	}
	b := &domain.Banner{Title: strings.TrimSpace(in.Title), Subtitle: in.Subtitle, Image: in.Image,
		MobileImage: in.MobileImage, LinkProductID: in.LinkProductID, ButtonText: in.ButtonText,
		DisplayOrder: in.DisplayOrder, IsActive: true, StartDate: in.StartDate, EndDate: in.EndDate}
	if b.ButtonText == "" {
		b.ButtonText = "Shop Now"
	}
	if err := s.Content.CreateBanner(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *HomepageService) ToggleBanner(ctx context.Context, id int64) (bool, error) {
	active, err := s.Content.ToggleBanner(ctx, id)
	return active, notFound("Banner", err)
}

func (s *HomepageService) DeleteBanner(ctx context.Context, id int64) error {
	return notFound("Banner", s.Content.DeleteBanner(ctx, id))
}

type SectionInput struct {
	Title        string
	Subtitle     string
	SectionType  string
	MaxProducts  int
	DisplayOrder int
	ProductIDs   []int64
}

func (s *HomepageService) CreateSection(ctx context.Context, in SectionInput) (*domain.FeaturedSection, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, Invalid("title", "This field is required.")
	}
	if in.SectionType == "" {
		in.SectionType = domain.SectionCustom
	}
	if !domain.ValidSectionType(in.SectionType) {
		return nil, Invalid("section_type", `"`+in.SectionType+`" is not a valid choice.`)
	}
	if in.MaxProducts == 0 {
		in.MaxProducts = 8
	}
	if in.MaxProducts < 1 || in.MaxProducts > domain.MaxSectionProducts {
		return nil, Invalid("max_products", "Ensure this value is between 1 and 50.")
	}
	sec := &domain.FeaturedSection{Title: strings.TrimSpace(in.Title), Subtitle: in.Subtitle, SectionType: in.SectionType,
		MaxProducts: in.MaxProducts, DisplayOrder: in.DisplayOrder, IsActive: true}
	err := repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		content := repos.NewContentRepo(tx)
		if err := content.CreateSection(ctx, sec); err != nil {
			return err
		}
		return setSectionProducts(ctx, tx, sec.ID, in.ProductIDs)
	})
	if err != nil {
		return nil, err
	}
	sec.Products, err = s.Content.SectionProducts(ctx, sec.ID, sec.MaxProducts)
	return sec, err
}

// SetSectionProducts replaces a section's hand-picked products, in order.
func (s *HomepageService) SetSectionProducts(ctx context.Context, sectionID int64, productIDs []int64) (*domain.FeaturedSection, error) {
	err := repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		if _, err := repos.NewContentRepo(tx).SectionByID(ctx, sectionID); err != nil {
			return notFound("Featured section", err)
		}
		return setSectionProducts(ctx, tx, sectionID, productIDs)
	})
	if err != nil {
		return nil, err
	}
	sec, err := s.Content.SectionByID(ctx, sectionID)
	if err != nil {
		return nil, err
	}
	sec.Products, err = s.Content.SectionProducts(ctx, sec.ID, sec.MaxProducts)
	return sec, err
}

func setSectionProducts(ctx context.Context, tx *sqlx.Tx, sectionID int64, productIDs []int64) error {
	prods := repos.NewProductRepo(tx)
	for _, id := range productIDs {
		if _, err := prods.ByID(ctx, id); err != nil {
			return notFound("Product", err)
		}
	}
	return repos.NewContentRepo(tx).SetSectionProducts(ctx, sectionID, productIDs)
}
