package services_test

import (
	"context"
	"testing"

	"bikeshop/internal/domain"
	"bikeshop/internal/repos"
	"bikeshop/internal/services"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func titles(ps []domain.Product) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Title
	}
	return out
}

func TestProductDetailGroupsAttributes(t *testing.T) {
	db := seededDB(t)
	ctx := context.Background()
	cat := services.NewCatalogService(db)

	d, err := cat.Product(ctx, "trek-marlin-5")
	require.NoError(t, err)
	assert.Len(t, d.Variants, 2)
	assert.Equal(t, map[string][]string{
		"Color":      {"Black", "Red"},
		"Frame Size": {"M", "S"},
	}, d.AvailableAttributes)
	assert.Equal(t, "Trek", d.BrandName)

	require.NoError(t, cat.SetProductActive(ctx, d.ID, false))
	_, err = cat.Product(ctx, "trek-marlin-5")
	assert.EqualError(t, err, "Product not found")
	assert.ErrorIs(t, cat.SetProductActive(ctx, 9999, true), services.ErrNotFound)
}

func TestListProductsValidatesFilters(t *testing.T) {
	db := seededDB(t)
	ctx := context.Background()
	cat := services.NewCatalogService(db)

	_, _, err := cat.ListProducts(ctx, repos.ProductFilter{Ordering: "popularity"})
	var ve *services.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "ordering")

	lo, hi := decimal.NewFromInt(500), decimal.NewFromInt(100)
	_, _, err = cat.ListProducts(ctx, repos.ProductFilter{MinPrice: &lo, MaxPrice: &hi})
	require.ErrorAs(t, err, &ve)

	list, total, err := cat.ListProducts(ctx, repos.ProductFilter{Ordering: "-price"})
	require.NoError(t, err)
	assert.Equal(t, 6, total)
	assert.Equal(t, "Giant Contend AR", list[0].Title)
	assert.Equal(t, "Rechargeable Light Set", list[len(list)-1].Title)
}

func TestCategoryAndBrandListings(t *testing.T) {
	db := seededDB(t)
	ctx := context.Background()
	cat := services.NewCatalogService(db)

	c, list, total, err := cat.Category(ctx, "mountain-bikes", repos.ProductFilter{Ordering: "title"})
	require.NoError(t, err)
	assert.Equal(t, "Mountain Bikes", c.Name)
	assert.Equal(t, 2, total)
	assert.Equal(t, []string{"Giant Talon 3", "Trek Marlin 5"}, titles(list))

	b, list, _, err := cat.Brand(ctx, "giant", repos.ProductFilter{})
	require.NoError(t, err)
	assert.Equal(t, "Giant", b.Name)
	assert.ElementsMatch(t, []string{"Giant Talon 3", "Giant Contend AR"}, titles(list))

	_, _, _, err = cat.Category(ctx, "unicycles", repos.ProductFilter{})
	assert.EqualError(t, err, "Category not found")
	_, _, _, err = cat.Brand(ctx, "acme", repos.ProductFilter{})
	assert.EqualError(t, err, "Brand not found")
}

func TestSearchByType(t *testing.T) {
	db := seededDB(t)
	ctx := context.Background()
	cat := services.NewCatalogService(db)

	res, err := cat.Search(ctx, "giant", services.SearchProduct, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)
	assert.ElementsMatch(t, []string{"Giant Talon 3", "Giant Contend AR"}, titles(res.Results.([]domain.Product)))

	res, err = cat.Search(ctx, "helmet", services.SearchCategory, 10)
	require.NoError(t, err)
	require.GreaterOrEqual(t, res.Count, 1)
	names := []string{}
	for _, c := range res.Results.([]domain.Category) {
		names = append(names, c.Name)
	}
	assert.Contains(t, names, "Helmets")

	res, err = cat.Search(ctx, "abus", services.SearchBrand, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Count)

	res, err = cat.Search(ctx, "giant", services.SearchProduct, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Count)

	_, err = cat.Search(ctx, "giant", "shop", 10)
	assert.EqualError(t, err, "Invalid type. Must be one of: product, category, brand (type: Invalid type. Must be one of: product, category, brand)")
}

func TestAdminCreatesCategoriesAndBrands(t *testing.T) {
	db := seededDB(t)
	ctx := context.Background()
	cat := services.NewCatalogService(db)
	bicycles, err := repos.NewCategoryRepo(db).BySlug(ctx, "bicycles")
	require.NoError(t, err)

	c, err := cat.CreateCategory(ctx, services.CategoryInput{Name: "Gravel Bikes", ParentID: &bicycles.ID})
	require.NoError(t, err)
	assert.Equal(t, "gravel-bikes", c.Slug)

	_, err = cat.CreateCategory(ctx, services.CategoryInput{Name: "Gravel Bikes"})
	var ve *services.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "slug")

	_, err = cat.CreateCategory(ctx, services.CategoryInput{Name: "Tandems", Slug: "Bad Slug!"})
	require.ErrorAs(t, err, &ve)

	_, err = cat.CreateCategory(ctx, services.CategoryInput{Name: "Tandems", ParentID: ptr(int64(9999))})
	assert.EqualError(t, err, "Parent category not found")

	b, err := cat.CreateBrand(ctx, services.BrandInput{Name: "Specialized Bikes"})
	require.NoError(t, err)
	assert.Equal(t, "specialized-bikes", b.Slug)
	_, err = cat.CreateBrand(ctx, services.BrandInput{Name: "Trek"})
	require.ErrorAs(t, err, &ve)
}

func TestAdminCreatesProductsAndVariants(t *testing.T) {
	db := seededDB(t)
	ctx := context.Background()
	cat := services.NewCatalogService(db)

	_, err := cat.CreateProduct(ctx, services.ProductInput{Title: "Freebie", Price: decimal.Zero})
	assert.EqualError(t, err, "Price must be greater than 0 (price: Price must be greater than 0)")

	_, err = cat.CreateProduct(ctx, services.ProductInput{Title: "Upside down", Price: dec("100"),
		SalePrice: decimal.NullDecimal{Decimal: dec("100"), Valid: true}})
	var ve *services.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Sale price must be less than regular price", ve.Message)

	_, err = cat.CreateProduct(ctx, services.ProductInput{Title: "Giant Talon 3", Price: dec("700")})
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "slug")

	p, err := cat.CreateProduct(ctx, services.ProductInput{Title: "Kona Unit X", Price: dec("1100"),
		Images: []string{"products/kona/main.jpg", "products/kona/side.jpg"}})
	require.NoError(t, err)
	assert.Equal(t, "kona-unit-x", p.Slug)
	assert.Equal(t, 5, p.LowStockThreshold)
	assert.Len(t, p.Images, 2)
	assert.Equal(t, "products/kona/main.jpg", p.PrimaryImage)

	wheel, err := cat.CreateAttribute(ctx, "Wheel Size", []string{"27.5", "29", "29", " "})
	require.NoError(t, err)
	require.Len(t, wheel.Values, 2)
	_, err = cat.CreateAttribute(ctx, "wheel size", nil)
	require.ErrorAs(t, err, &ve)

	_, err = cat.CreateVariant(ctx, p.ID, services.VariantInput{SKU: "KONA-X", Price: dec("1100"),
		AttributeValueIDs: []int64{wheel.Values[0].ID, wheel.Values[1].ID}})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "A variant can hold only one value per attribute type", ve.Message)

	_, err = cat.CreateVariant(ctx, p.ID, services.VariantInput{SKU: "TRK-MRL5-S-BLK", Price: dec("1100")})
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "sku")

	v, err := cat.CreateVariant(ctx, p.ID, services.VariantInput{SKU: "KONA-X-29", Price: dec("1100"), Stock: 2,
		AttributeValueIDs: []int64{wheel.Values[1].ID}})
	require.NoError(t, err)
	assert.Equal(t, "Wheel Size: 29", v.AttributesDisplay())

	d, err := cat.Product(ctx, "kona-unit-x")
	require.NoError(t, err)
	assert.True(t, d.HasVariants())
	assert.Equal(t, []string{"29"}, d.AvailableAttributes["Wheel Size"])
}

func TestAdminEditsCategoriesAndBrands(t *testing.T) {
	db := seededDB(t)
	ctx := context.Background()
	cat := services.NewCatalogService(db)
	var ve *services.ValidationError

	parent, err := cat.CreateCategory(ctx, services.CategoryInput{Name: "Parts"})
	require.NoError(t, err)
	child, err := cat.CreateCategory(ctx, services.CategoryInput{Name: "Chains", ParentID: &parent.ID})
	require.NoError(t, err)

	c, err := cat.UpdateCategory(ctx, child.ID, services.CategoryPatch{Name: ptr("Drivetrain"), Slug: ptr("")})
	require.NoError(t, err)
	assert.Equal(t, "Drivetrain", c.Name)
	assert.Equal(t, "drivetrain", c.Slug)
	assert.Equal(t, &parent.ID, c.ParentID)

	_, err = cat.UpdateCategory(ctx, parent.ID, services.CategoryPatch{ParentID: &child.ID})
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "parent_id")
	_, err = cat.UpdateCategory(ctx, child.ID, services.CategoryPatch{Name: ptr("Helmets")})
	require.ErrorAs(t, err, &ve)
	_, err = cat.UpdateCategory(ctx, 9999, services.CategoryPatch{})
	assert.ErrorIs(t, err, services.ErrNotFound)

	c, err = cat.UpdateCategory(ctx, child.ID, services.CategoryPatch{ParentID: ptr(int64(0))})
	require.NoError(t, err)
	assert.Nil(t, c.ParentID)

	// products of a deleted category stay, uncategorized
	p := mkProduct(t, db, "kmc-x11", "40", "", 5)
	_, err = cat.UpdateProduct(ctx, p.ID, services.ProductPatch{CategoryID: &parent.ID})
	require.NoError(t, err)
	require.NoError(t, cat.DeleteCategory(ctx, parent.ID))
	got, err := cat.Product(ctx, "kmc-x11")
	require.NoError(t, err)
	assert.Nil(t, got.CategoryID)
	assert.ErrorIs(t, cat.DeleteCategory(ctx, parent.ID), services.ErrNotFound)

	abus := productBySlug(t, db, "abus-aduro-helmet")
	b, err := cat.UpdateBrand(ctx, *abus.BrandID, services.BrandPatch{Website: ptr("https://abus.example")})
	require.NoError(t, err)
	assert.Equal(t, "https://abus.example", b.Website)
	_, err = cat.UpdateBrand(ctx, b.ID, services.BrandPatch{Name: ptr("Trek")})
	require.ErrorAs(t, err, &ve)

	require.NoError(t, cat.DeleteBrand(ctx, b.ID))
	abus = productBySlug(t, db, "abus-aduro-helmet")
	assert.Nil(t, abus.BrandID)
}

func TestAdminEditsProductsAndVariants(t *testing.T) {
	db := seededDB(t)
	ctx := context.Background()
	cat := services.NewCatalogService(db)
	var ve *services.ValidationError
	var re *services.RuleError

	light := productBySlug(t, db, "rechargeable-light-set")
	p, err := cat.UpdateProduct(ctx, light.ID, services.ProductPatch{
		Title: ptr("USB Light Set"), SalePrice: ptr(dec("20")), Stock: ptr(9), IsFeatured: ptr(true),
	})
	require.NoError(t, err)
	assert.Equal(t, "USB Light Set", p.Title)
	assert.Equal(t, "rechargeable-light-set", p.Slug, "slug is kept unless set")
	assertDec(t, "20", p.EffectivePrice())
	assert.Equal(t, 9, p.Stock)
	assert.True(t, p.IsFeatured)

	_, err = cat.UpdateProduct(ctx, light.ID, services.ProductPatch{Price: ptr(dec("15"))})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Sale price must be less than regular price", ve.Message)

	p, err = cat.UpdateProduct(ctx, light.ID, services.ProductPatch{Price: ptr(dec("15")), ClearSalePrice: true})
	require.NoError(t, err)
	assert.False(t, p.SalePrice.Valid)

	_, err = cat.UpdateProduct(ctx, light.ID, services.ProductPatch{Slug: ptr("giant-talon-3")})
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "slug")

	trek := productBySlug(t, db, "trek-marlin-5")
	_, err = cat.UpdateProduct(ctx, trek.ID, services.ProductPatch{Stock: ptr(3)})
	require.ErrorAs(t, err, &re)

	vid := variantBySKU(t, db, "TRK-MRL5-M-RED")
	v, err := cat.UpdateVariant(ctx, vid, services.VariantPatch{SKU: ptr("TRK-MRL5-M-RD"), Stock: ptr(8)})
	require.NoError(t, err)
	assert.Equal(t, "TRK-MRL5-M-RD", v.SKU)
	assert.Equal(t, 8, v.Stock)
	assert.NotEmpty(t, v.Attributes)

	_, err = cat.UpdateVariant(ctx, vid, services.VariantPatch{SKU: ptr("TRK-MRL5-S-BLK")})
	require.ErrorAs(t, err, &ve)
	_, err = cat.UpdateVariant(ctx, vid, services.VariantPatch{Stock: ptr(-1)})
	require.ErrorAs(t, err, &ve)

	require.NoError(t, cat.DeleteVariant(ctx, vid))
	d, err := cat.Product(ctx, "trek-marlin-5")
	require.NoError(t, err)
	assert.Len(t, d.Variants, 1)
	assert.ErrorIs(t, cat.DeleteVariant(ctx, vid), services.ErrNotFound)
}

func TestAdminEditsAttributes(t *testing.T) {
	db := seededDB(t)
	ctx := context.Background()
	cat := services.NewCatalogService(db)
	var ve *services.ValidationError

	wheel, err := cat.CreateAttribute(ctx, "Wheel Size", []string{"27.5"})
	require.NoError(t, err)

	at, err := cat.UpdateAttribute(ctx, wheel.ID, ptr("Wheel Diameter"), []string{"29", "27.5", " "})
	require.NoError(t, err)
	assert.Equal(t, "wheel-diameter", at.Slug)
	require.Len(t, at.Values, 2)

	_, err = cat.UpdateAttribute(ctx, wheel.ID, ptr("Color"), nil)
	require.ErrorAs(t, err, &ve)

	val, err := cat.UpdateAttributeValue(ctx, at.Values[0].ID, "26")
	require.NoError(t, err)
	assert.Equal(t, "26", val.Value)
	_, err = cat.UpdateAttributeValue(ctx, at.Values[0].ID, "29")
	require.ErrorAs(t, err, &ve)

	require.NoError(t, cat.DeleteAttributeValue(ctx, at.Values[0].ID))
	at, err = cat.Attribute(ctx, wheel.ID)
	require.NoError(t, err)
	assert.Len(t, at.Values, 1)

	// dropping a type unlinks its values from existing variants
	colorID := func() int64 {
		var id int64
		require.NoError(t, db.Get(&id, `SELECT id FROM attribute_types WHERE name = 'Color'`))
		return id
	}()
	require.NoError(t, cat.DeleteAttribute(ctx, colorID))
	d, err := cat.Product(ctx, "trek-marlin-5")
	require.NoError(t, err)
	assert.NotContains(t, d.AvailableAttributes, "Color")
	assert.Contains(t, d.AvailableAttributes, "Frame Size")
	_, err = cat.Attribute(ctx, colorID)
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestDeleteProductKeepsOrderHistory(t *testing.T) {
	db := seededDB(t)
	ctx := context.Background()
	cat := services.NewCatalogService(db)
	orders := services.NewOrderService(db, commerce())
	trek := productBySlug(t, db, "trek-marlin-5")
	vid := variantBySKU(t, db, "TRK-MRL5-S-BLK")
	a := services.Actor{SessionKey: "history"}

	_, err := services.NewCartService(db).AddItem(ctx, a, services.AddItemInput{VariantID: &vid, Quantity: 1})
	require.NoError(t, err)
	o, err := orders.Create(ctx, a, guestCheckout(dhaka()))
	require.NoError(t, err)

	// another shopper still has the bike carted
	other := services.Actor{SessionKey: "browsing"}
	_, err = services.NewCartService(db).AddItem(ctx, other, services.AddItemInput{VariantID: &vid, Quantity: 1})
	require.NoError(t, err)

	require.NoError(t, cat.DeleteProduct(ctx, trek.ID))
	_, err = cat.Product(ctx, "trek-marlin-5")
	assert.ErrorIs(t, err, services.ErrNotFound)

	got, err := orders.Get(ctx, a, o.OrderNumber)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	it := got.Items[0]
	assert.Nil(t, it.ProductID)
	assert.Nil(t, it.VariantID)
	assert.Equal(t, "Trek Marlin 5", it.ProductTitle)
	assert.Equal(t, "TRK-MRL5-S-BLK", it.VariantSKU)
	assert.Contains(t, it.VariantAttributes, "Color: Black")
	assertDec(t, "799", it.UnitPrice)

	cart, err := services.NewCartService(db).Get(ctx, other)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.ErrorIs(t, cat.DeleteProduct(ctx, trek.ID), services.ErrNotFound)
}
