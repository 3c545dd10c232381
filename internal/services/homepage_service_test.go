package services_test

import (
	"context"
	"testing"
	"time"

	"bikeshop/internal/domain"
	"bikeshop/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHomepageAssemblesContent(t *testing.T) {
	db := seededDB(t)
	home := services.NewHomepageService(db)

	h, err := home.Homepage(context.Background())
	require.NoError(t, err)
	assert.Len(t, h.Banners, 2)
	require.Len(t, h.FeaturedSections, 2)
	assert.Equal(t, "Featured Bikes", h.FeaturedSections[0].Title)
	assert.Equal(t, []string{"Trek Marlin 5", "Giant Contend AR", "Giant Talon 3"}, titles(h.FeaturedSections[0].Products))
	assert.NotEmpty(t, h.Categories)
	assert.NotEmpty(t, h.Brands)
	assert.LessOrEqual(t, len(h.CategoryProducts), 3)
	for _, cp := range h.CategoryProducts {
		assert.NotNil(t, cp.Category.ParentID, "only child categories are showcased")
		assert.NotEmpty(t, cp.Products)
	}
}

func TestBannerDateWindow(t *testing.T) {
	db := seededDB(t)
	ctx := context.Background()
	home := services.NewHomepageService(db)
	now := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	home.Now = func() time.Time { return now }

	past := now.Add(-48 * time.Hour)
	yesterday := now.Add(-24 * time.Hour)
	tomorrow := now.Add(24 * time.Hour)

	_, err := home.CreateBanner(ctx, services.BannerInput{Title: "Expired", Image: "b/x.jpg", StartDate: &past, EndDate: &yesterday})
	require.NoError(t, err)
	_, err = home.CreateBanner(ctx, services.BannerInput{Title: "Upcoming", Image: "b/y.jpg", StartDate: &tomorrow})
	require.NoError(t, err)
	live, err := home.CreateBanner(ctx, services.BannerInput{Title: "Live", Image: "b/z.jpg", StartDate: &yesterday, EndDate: &tomorrow})
	require.NoError(t, err)
	assert.Equal(t, "Shop Now", live.ButtonText)

	visible, err := home.VisibleBanners(ctx)
	require.NoError(t, err)
	names := []string{}
	for _, b := range visible {
		names = append(names, b.Title)
	}
	assert.Contains(t, names, "Live")
	assert.NotContains(t, names, "Expired")
	assert.NotContains(t, names, "Upcoming")

	active, err := home.ToggleBanner(ctx, live.ID)
	require.NoError(t, err)
	assert.False(t, active)
	visible, err = home.VisibleBanners(ctx)
	require.NoError(t, err)
	assert.Len(t, visible, 2)

	all, err := home.Banners(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 5)

	require.NoError(t, home.DeleteBanner(ctx, live.ID))
	assert.ErrorIs(t, home.DeleteBanner(ctx, live.ID), services.ErrNotFound)
	_, err = home.ToggleBanner(ctx, live.ID)
	assert.EqualError(t, err, "Banner not found")

	_, err = home.CreateBanner(ctx, services.BannerInput{Title: "Backwards", Image: "b/w.jpg", StartDate: &tomorrow, EndDate: &yesterday})
	var ve *services.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "end_date")
	_, err = home.CreateBanner(ctx, services.BannerInput{Title: "Linked", Image: "b/l.jpg", LinkProductID: ptr(int64(9999))})
	assert.EqualError(t, err, "Product not found")
}

func TestFeaturedSections(t *testing.T) {
	db := seededDB(t)
	ctx := context.Background()
	home := services.NewHomepageService(db)
	helmet := productBySlug(t, db, "abus-aduro-helmet")
	light := productBySlug(t, db, "rechargeable-light-set")
	talon := productBySlug(t, db, "giant-talon-3")

	sec, err := home.CreateSection(ctx, services.SectionInput{Title: "Commuter Kit", ProductIDs: []int64{light.ID, helmet.ID}})
	require.NoError(t, err)
	assert.Equal(t, domain.SectionCustom, sec.SectionType)
	assert.Equal(t, 8, sec.MaxProducts)
	assert.Equal(t, []string{"Rechargeable Light Set", "Abus Aduro Helmet"}, titles(sec.Products))

	sec, err = home.SetSectionProducts(ctx, sec.ID, []int64{talon.ID, light.ID, talon.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{"Giant Talon 3", "Rechargeable Light Set"}, titles(sec.Products))

	_, err = home.SetSectionProducts(ctx, sec.ID, []int64{helmet.ID, 9999})
	assert.EqualError(t, err, "Product not found")
	sec, err = home.SetSectionProducts(ctx, sec.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, sec.Products)

	_, err = home.SetSectionProducts(ctx, 9999, nil)
	assert.EqualError(t, err, "Featured section not found")

	small, err := home.CreateSection(ctx, services.SectionInput{Title: "Top pick", SectionType: domain.SectionPopular, MaxProducts: 1,
		ProductIDs: []int64{helmet.ID, light.ID}})
	require.NoError(t, err)
	assert.Len(t, small.Products, 1, "max_products caps the listing")

	var ve *services.ValidationError
	_, err = home.CreateSection(ctx, services.SectionInput{Title: "Huge", MaxProducts: 51})
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "max_products")
	_, err = home.CreateSection(ctx, services.SectionInput{Title: "Odd", SectionType: "trending"})
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "section_type")
}
