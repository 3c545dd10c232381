package services

import (
	"context"
	"errors"

	"bikeshop/internal/domain"
	"bikeshop/internal/repos"
)

type InventoryService struct {
	Inv   *repos.InventoryRepo
	Prods *repos.ProductRepo
}

func NewInventoryService(inv *repos.InventoryRepo, prods *repos.ProductRepo) *InventoryService {
	return &InventoryService{Inv: inv, Prods: prods}
}

// CheckAvailability converts stock to IN_STOCK / LOW_STOCK / OUT_OF_STOCK for
// a variant when variantID is set, otherwise for the base product.
// Unknown or hidden targets report OUT_OF_STOCK.
func (s *InventoryService) CheckAvailability(ctx context.Context, productID, variantID int64) (domain.Availability, error) {
	var qty, threshold int
	var err error
	if variantID > 0 {
		qty, threshold, err = s.Inv.VariantQty(ctx, variantID)
	} else {
		qty, threshold, err = s.Inv.ProductQty(ctx, productID)
	}
	if errors.Is(err, repos.ErrNotFound) {
		return domain.Availability{Status: domain.OutOfStock, Qty: 0}, nil
	}
	if err != nil {
		return domain.Availability{}, err
	}
	return domain.Availability{Status: domain.StockStatus(qty, threshold), Qty: qty}, nil
}

func (s *InventoryService) List(ctx context.Context) ([]repos.InventoryRow, error) {
	return s.Inv.ListAll(ctx)
}

// SetStock overwrites the stock of a variant, or of a product sold without variants.
func (s *InventoryService) SetStock(ctx context.Context, productID, variantID int64, qty int) error {
	if qty < 0 {
		return Invalid("stock", "Ensure this value is greater than or equal to 0.")
	}
	if variantID > 0 {
		return notFound("Variant", s.Prods.SetVariantStock(ctx, variantID, qty))
	}
	p, err := s.Prods.ByID(ctx, productID)
	if err != nil {
		return notFound("Product", err)
	}
	if p.HasVariants() {
		return &RuleError{Message: "This product has variants. Please set stock per variant"}
	}
	return s.Prods.SetStock(ctx, productID, qty)
}
