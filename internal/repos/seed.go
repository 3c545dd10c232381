package repos

import (
	"context"
	_ "embed"
	"fmt"

	"bikeshop/internal/domain"
	applog "bikeshop/internal/log"

	"github.com/gosimple/slug"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var seedYAML []byte

type seedFile struct {
	Users []struct {
		Email    string `yaml:"email"`
		Name     string `yaml:"name"`
		Phone    string `yaml:"phone"`
		Role     string `yaml:"role"`
		Password string `yaml:"password"`
	} `yaml:"users"`
	Categories []seedCategory `yaml:"categories"`
	Brands     []struct {
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
		Website     string `yaml:"website"`
	} `yaml:"brands"`
	Attributes []struct {
		Name   string   `yaml:"name"`
		Values []string `yaml:"values"`
	} `yaml:"attributes"`
	Products []struct {
		Title             string   `yaml:"title"`
		Category          string   `yaml:"category"`
		Brand             string   `yaml:"brand"`
		Description       string   `yaml:"description"`
		Price             string   `yaml:"price"`
		SalePrice         string   `yaml:"sale_price"`
		Stock             int      `yaml:"stock"`
		LowStockThreshold int      `yaml:"low_stock_threshold"`
		Featured          bool     `yaml:"featured"`
		Images            []string `yaml:"images"`
		Variants          []struct {
			SKU        string            `yaml:"sku"`
			Price      string            `yaml:"price"`
			SalePrice  string            `yaml:"sale_price"`
			Stock      int               `yaml:"stock"`
			Attributes map[string]string `yaml:"attributes"`
		} `yaml:"variants"`
	} `yaml:"products"`
	Banners []struct {
		Title      string `yaml:"title"`
		Subtitle   string `yaml:"subtitle"`
		Image      string `yaml:"image"`
		Product    string `yaml:"product"`
		ButtonText string `yaml:"button_text"`
	} `yaml:"banners"`
	Sections []struct {
		Title       string   `yaml:"title"`
		Type        string   `yaml:"type"`
		MaxProducts int      `yaml:"max_products"`
		Products    []string `yaml:"products"`
	} `yaml:"sections"`
}

type seedCategory struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Children    []seedCategory `yaml:"children"`
}

// SeedDemo loads the embedded demo catalog, users and homepage content.
// Users are upserted on every call; the rest only when no products exist yet.
func SeedDemo(ctx context.Context, db *sqlx.DB) error {
	var f seedFile
	if err := yaml.Unmarshal(seedYAML, &f); err != nil {
		return fmt.Errorf("parse seed: %w", err)
	}
	return InTx(ctx, db, func(tx *sqlx.Tx) error {
		for _, u := range f.Users {
			role := u.Role
			if role == "" {
				role = domain.RoleUser
			}
			h, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO users(email,name,phone,password_hash,role,is_active,created_at)
				VALUES(?,?,?,?,?,1,?)
				ON CONFLICT DO NOTHING`, u.Email, u.Name, u.Phone, string(h), role, now()); err != nil {
				return err
			}
		}

		var n int
		if err := tx.GetContext(ctx, &n, `SELECT COUNT(*) FROM products`); err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		if err := seedCatalog(ctx, tx, f); err != nil {
			return err
		}
		applog.Event(applog.LevelInfo, "seed.catalog", nil, map[string]any{
			"products": len(f.Products), "banners": len(f.Banners), "sections": len(f.Sections),
		})
		return nil
	})
}

func seedCatalog(ctx context.Context, tx *sqlx.Tx, f seedFile) error {
	cats := NewCategoryRepo(tx)
	prods := NewProductRepo(tx)
	content := NewContentRepo(tx)

	catIDs := map[string]int64{}
	var addCats func(list []seedCategory, parent *int64) error
	addCats = func(list []seedCategory, parent *int64) error {
		for i, sc := range list {
			c := domain.Category{Name: sc.Name, Slug: slug.Make(sc.Name), ParentID: parent,
				Description: sc.Description, IsActive: true, DisplayOrder: i}
			if err := cats.Create(ctx, &c); err != nil {
				return err
			}
			catIDs[c.Slug] = c.ID
			id := c.ID
			if err := addCats(sc.Children, &id); err != nil {
				return err
			}
		}
		return nil
	}
	if err := addCats(f.Categories, nil); err != nil {
		return err
	}

	brandIDs := map[string]int64{}
	for _, sb := range f.Brands {
		b := domain.Brand{Name: sb.Name, Slug: slug.Make(sb.Name), Description: sb.Description, Website: sb.Website, IsActive: true}
		if err := cats.CreateBrand(ctx, &b); err != nil {
			return err
		}
		brandIDs[b.Slug] = b.ID
	}

	// attribute values keyed by "Type=Value"
	attrIDs := map[string]int64{}
	for _, sa := range f.Attributes {
		t := domain.AttributeType{Name: sa.Name, Slug: slug.Make(sa.Name)}
		if err := prods.CreateAttributeType(ctx, &t); err != nil {
			return err
		}
		for _, val := range sa.Values {
			v := domain.AttributeValue{TypeID: t.ID, Value: val}
			if err := prods.CreateAttributeValue(ctx, &v); err != nil {
				return err
			}
			attrIDs[sa.Name+"="+val] = v.ID
		}
	}

	prodIDs := map[string]int64{}
	for _, sp := range f.Products {
		price, sale, err := seedPrices(sp.Price, sp.SalePrice)
		if err != nil {
			return fmt.Errorf("product %q: %w", sp.Title, err)
		}
		p := domain.Product{Title: sp.Title, Slug: slug.Make(sp.Title), Description: sp.Description,
			Price: price, SalePrice: sale, Stock: sp.Stock, LowStockThreshold: 5, IsFeatured: sp.Featured, IsActive: true}
		if sp.LowStockThreshold > 0 {
			p.LowStockThreshold = sp.LowStockThreshold
		}
		if id, ok := catIDs[sp.Category]; ok {
			p.CategoryID = &id
		}
		if id, ok := brandIDs[sp.Brand]; ok {
			p.BrandID = &id
		}
		if err := prods.Create(ctx, &p); err != nil {
			return fmt.Errorf("product %q: %w", sp.Title, err)
		}
		prodIDs[p.Slug] = p.ID
		for i, path := range sp.Images {
			if err := prods.AddImage(ctx, &domain.ProductImage{ProductID: p.ID, Path: path, AltText: p.Title, Position: i}); err != nil {
				return err
			}
		}
		for _, sv := range sp.Variants {
			vp, vs, err := seedPrices(sv.Price, sv.SalePrice)
			if err != nil {
				return fmt.Errorf("variant %q: %w", sv.SKU, err)
			}
			var avIDs []int64
			for typ, val := range sv.Attributes {
				id, ok := attrIDs[typ+"="+val]
				if !ok {
					return fmt.Errorf("variant %q: unknown attribute %s=%s", sv.SKU, typ, val)
				}
				avIDs = append(avIDs, id)
			}
			v := domain.ProductVariant{ProductID: p.ID, SKU: sv.SKU, Price: vp, SalePrice: vs, Stock: sv.Stock, IsActive: true}
			if err := prods.CreateVariant(ctx, &v, avIDs); err != nil {
				return err
			}
		}
	}

	for i, sb := range f.Banners {
		b := domain.Banner{Title: sb.Title, Subtitle: sb.Subtitle, Image: sb.Image, ButtonText: sb.ButtonText,
			DisplayOrder: i, IsActive: true}
		if b.ButtonText == "" {
			b.ButtonText = "Shop Now"
		}
		if id, ok := prodIDs[sb.Product]; ok {
			b.LinkProductID = &id
		}
		if err := content.CreateBanner(ctx, &b); err != nil {
			return err
		}
	}

	for i, ss := range f.Sections {
		s := domain.FeaturedSection{Title: ss.Title, SectionType: ss.Type, MaxProducts: ss.MaxProducts,
			DisplayOrder: i, IsActive: true}
		if err := content.CreateSection(ctx, &s); err != nil {
			return err
		}
		var ids []int64
		for _, ps := range ss.Products {
			if id, ok := prodIDs[ps]; ok {
				ids = append(ids, id)
			}
		}
		if err := content.SetSectionProducts(ctx, s.ID, ids); err != nil {
			return err
		}
	}
	return nil
}

func seedPrices(price, sale string) (decimal.Decimal, decimal.NullDecimal, error) {
	p, err := decimal.NewFromString(price)
	if err != nil {
		return decimal.Zero, decimal.NullDecimal{}, err
	}
	if sale == "" {
		return p, decimal.NullDecimal{}, nil
	}
	s, err := decimal.NewFromString(sale)
	if err != nil {
		return decimal.Zero, decimal.NullDecimal{}, err
	}
	return p, decimal.NullDecimal{Decimal: s, Valid: true}, nil
}
