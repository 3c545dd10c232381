package handlers

import (
	"bikeshop/internal/config"
	"bikeshop/internal/mail"
	"bikeshop/internal/repos"
	"bikeshop/internal/services"

	"github.com/jmoiron/sqlx"
)

type Deps struct {
	Auth *services.AuthService

	AuthHandler         *AuthHandler
	AddressHandler      *AddressHandler
	CatalogHandler      *CatalogHandler
	CartHandler         *CartHandler
	OrderHandler        *OrderHandler
	InventoryHandler    *InventoryHandler
	AdminHandler        *AdminHandler
	AdminCatalogHandler *AdminCatalogHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config, sender mail.Sender) *Deps {
	prodRepo := repos.NewProductRepo(db)
	invRepo := repos.NewInventoryRepo(db)

	catalogSvc := services.NewCatalogService(db)
	homeSvc := services.NewHomepageService(db)
	invSvc := services.NewInventoryService(invRepo, prodRepo)
	cartSvc := services.NewCartService(db)
	orderSvc := services.NewOrderService(db, cfg.Commerce)
	addrSvc := services.NewAddressService(db, cfg.Commerce)
	resetSvc := services.NewPasswordResetService(db, sender, cfg.Commerce)
	authSvc := &services.AuthService{
		Users:  repos.NewUserRepo(db),
		Carts:  cartSvc,
		Tokens: services.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL),
	}

	return &Deps{
		Auth:                authSvc,
		AuthHandler:         &AuthHandler{Auth: authSvc, Addrs: addrSvc, Reset: resetSvc},
		AddressHandler:      &AddressHandler{Addrs: addrSvc},
		CatalogHandler:      &CatalogHandler{Catalog: catalogSvc, Home: homeSvc},
		CartHandler:         &CartHandler{Cart: cartSvc},
		OrderHandler:        &OrderHandler{Order: orderSvc},
		InventoryHandler:    &InventoryHandler{Inv: invSvc},
		AdminHandler:        &AdminHandler{Orders: orderSvc, Inv: invSvc, Auth: authSvc},
		AdminCatalogHandler: &AdminCatalogHandler{Catalog: catalogSvc, Home: homeSvc},
	}
}
