package domain

import "time"

type Banner struct {
	ID            int64      `db:"id" json:"id"`
	Title         string     `db:"title" json:"title"`
	Subtitle      string     `db:"subtitle" json:"subtitle"`
	Image         string     `db:"image" json:"image"`
	MobileImage   string     `db:"mobile_image" json:"mobile_image"`
	LinkProductID *int64     `db:"link_product_id" json:"link_product_id"`
	LinkSlug      *string    `db:"link_slug" json:"link_product_slug"`
	ButtonText    string     `db:"button_text" json:"button_text"`
	DisplayOrder  int        `db:"display_order" json:"display_order"`
	IsActive      bool       `db:"is_active" json:"is_active"`
	StartDate     *time.Time `db:"start_date" json:"start_date"`
	EndDate       *time.Time `db:"end_date" json:"end_date"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}

// IsVisible is true when the banner is active and now lies within its optional date window.
func (b Banner) IsVisible(now time.Time) bool {
	if !b.IsActive {
		return false
	}
	if b.StartDate != nil && now.Before(*b.StartDate) {
		return false
	}
	if b.EndDate != nil && now.After(*b.EndDate) {
		return false
	}
	return true
}

const (
	SectionNew      = "new"
	SectionFeatured = "featured"
	SectionSale     = "sale"
	SectionPopular  = "popular"
	SectionCustom   = "custom"

	MaxSectionProducts = 50
)

func ValidSectionType(t string) bool {
	switch t {
	case SectionNew, SectionFeatured, SectionSale, SectionPopular, SectionCustom:
		return true
	}
	return false
}

type FeaturedSection struct {
	ID           int64     `db:"id" json:"id"`
	Title        string    `db:"title" json:"title"`
	Subtitle     string    `db:"subtitle" json:"subtitle"`
	SectionType  string    `db:"section_type" json:"section_type"`
	MaxProducts  int       `db:"max_products" json:"max_products"`
	DisplayOrder int       `db:"display_order" json:"display_order"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`

	Products []Product `db:"-" json:"products"`
}
