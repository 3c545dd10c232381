package services

import (
	"context"
	"errors"
	"fmt"

	"bikeshop/internal/domain"
	"bikeshop/internal/repos"

	"github.com/jmoiron/sqlx"
)

type CartService struct {
	DB    *sqlx.DB
	Carts *repos.CartRepo
}

func NewCartService(db *sqlx.DB) *CartService {
	return &CartService{DB: db, Carts: repos.NewCartRepo(db)}
}

// AddItemInput targets exactly one of a variant or a base product.
type AddItemInput struct {
	VariantID *int64
	ProductID *int64
	Quantity  int
}

// findCart returns the actor's cart without creating one.
func findCart(ctx context.Context, carts *repos.CartRepo, a Actor) (*domain.Cart, error) {
	if a.Authenticated() {
		return carts.ForUser(ctx, a.UserID)
	}
	if a.SessionKey == "" {
		return nil, repos.ErrNotFound
	}
	return carts.ForSession(ctx, a.SessionKey)
}

func getOrCreateCart(ctx context.Context, carts *repos.CartRepo, a Actor) (*domain.Cart, error) {
	c, err := findCart(ctx, carts, a)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, repos.ErrNotFound) {
		return nil, err
	}
	if !a.Authenticated() && a.SessionKey == "" {
		return nil, errors.New("cart: actor has neither user nor session")
	}
	return carts.Create(ctx, a.UserID, a.SessionKey)
}

// Get returns the actor's cart with its lines, creating it on first access.
// An authenticated actor that still carries a guest session has that guest cart merged in.
func (s *CartService) Get(ctx context.Context, a Actor) (*domain.Cart, error) {
	var cart *domain.Cart
	err := repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		if a.Authenticated() && a.SessionKey != "" {
			if err := mergeGuestCart(ctx, tx, a.UserID, a.SessionKey); err != nil {
				return err
			}
		}
		carts := repos.NewCartRepo(tx)
		c, err := getOrCreateCart(ctx, carts, a)
		if err != nil {
			return err
		}
		if c.Items, err = carts.Items(ctx, c.ID); err != nil {
			return err
		}
		cart = c
		return nil
	})
	return cart, err
}

// Merge folds the guest cart of sessionKey into the user's cart and deletes the guest cart.
func (s *CartService) Merge(ctx context.Context, userID int64, sessionKey string) error {
	return repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		return mergeGuestCart(ctx, tx, userID, sessionKey)
	})
}

func mergeGuestCart(ctx context.Context, tx *sqlx.Tx, userID int64, sessionKey string) error {
	carts := repos.NewCartRepo(tx)
	guest, err := carts.ForSession(ctx, sessionKey)
	if errors.Is(err, repos.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	userCart, err := getOrCreateCart(ctx, carts, Actor{UserID: userID})
	if err != nil {
		return err
	}
	lines, err := carts.Items(ctx, guest.ID)
	if err != nil {
		return err
	}
	for _, it := range lines {
		existing, err := carts.FindLine(ctx, userCart.ID, it.VariantID, it.ProductID)
		switch {
		case err == nil:
			if err := carts.SetQuantity(ctx, existing.ID, existing.Quantity+it.Quantity); err != nil {
				return err
			}
		case errors.Is(err, repos.ErrNotFound):
			if err := carts.MoveItem(ctx, it.ID, userCart.ID); err != nil {
				return err
			}
		default:
			return err
		}
	}
	if err := carts.Delete(ctx, guest.ID); err != nil {
		return err
	}
	return carts.Touch(ctx, userCart.ID)
}

func validateAddInput(in AddItemInput) error {
	if in.VariantID == nil && in.ProductID == nil {
		return Invalid("error", "Either variant_id or product_id must be provided")
	}
	if in.VariantID != nil && in.ProductID != nil {
		return Invalid("error", "Cannot provide both variant_id and product_id")
	}
	if in.Quantity < 1 {
		return Invalid("quantity", "Quantity must be at least 1")
	}
	return nil
}

// AddItem adds quantity of a variant or product, summing into an existing line for the same target.
func (s *CartService) AddItem(ctx context.Context, a Actor, in AddItemInput) (*domain.CartItem, error) {
	if err := validateAddInput(in); err != nil {
		return nil, err
	}
	var line *domain.CartItem
	err := repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		carts := repos.NewCartRepo(tx)
		prods := repos.NewProductRepo(tx)

		cart, err := getOrCreateCart(ctx, carts, a)
		if err != nil {
			return err
		}

		item := domain.CartItem{CartID: cart.ID, VariantID: in.VariantID, ProductID: in.ProductID}
		var stock int
		if in.VariantID != nil {
			v, err := prods.VariantByID(ctx, *in.VariantID)
			if err != nil {
				return notFound("Variant", err)
			}
			parent, err := prods.ByID(ctx, v.ProductID)
			if err != nil {
				return notFound("Product", err)
			}
			if !v.IsActive || !parent.IsActive {
				return Invalid("variant_id", "This product variant is not available")
			}
			stock = v.Stock
			item.PriceSnapshot = v.EffectivePrice()
			item.ProductTitle = parent.Title
			item.VariantSKU = v.SKU
			item.VariantAttributes = v.AttributesDisplay()
		} else {
			p, err := prods.ByID(ctx, *in.ProductID)
			if err != nil {
				return notFound("Product", err)
			}
			if !p.IsActive {
				return Invalid("product_id", "This product is not available")
			}
			if p.HasVariants() {
				return Invalid("product_id", "This product has variants. Please use variant_id instead")
			}
			stock = p.Stock
			item.PriceSnapshot = p.EffectivePrice()
			item.ProductTitle = p.Title
			item.VariantSKU = fmt.Sprintf("PROD-%d", p.ID)
		}
		if in.Quantity > stock {
			return ruleErr("Only %d items available in stock", stock)
		}

		existing, err := carts.FindLine(ctx, cart.ID, in.VariantID, in.ProductID)
		switch {
		case err == nil:
			qty := existing.Quantity + in.Quantity
			if qty > stock {
				return ruleErr("Only %d items available in stock", stock)
			}
			if err := carts.SetQuantity(ctx, existing.ID, qty); err != nil {
				return err
			}
			item.ID = existing.ID
		case errors.Is(err, repos.ErrNotFound):
			item.Quantity = in.Quantity
			if err := carts.InsertItem(ctx, &item); err != nil {
				return err
			}
		default:
			return err
		}
		if err := carts.Touch(ctx, cart.ID); err != nil {
			return err
		}
		line, err = carts.Item(ctx, cart.ID, item.ID)
		return err
	})
	return line, err
}

// UpdateQuantity sets a line's quantity; it may not exceed the target's current stock.
func (s *CartService) UpdateQuantity(ctx context.Context, a Actor, itemID int64, qty int) (*domain.CartItem, error) {
	if qty < 1 {
		return nil, Invalid("quantity", "Quantity must be at least 1")
	}
	var line *domain.CartItem
	err := repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		carts := repos.NewCartRepo(tx)
		it, err := ownedItem(ctx, carts, a, itemID)
		if err != nil {
			return err
		}
		if qty > it.TargetStock {
			return ruleErr("Only %d items available in stock", it.TargetStock)
		}
		if err := carts.SetQuantity(ctx, it.ID, qty); err != nil {
			return err
		}
		line, err = carts.Item(ctx, it.CartID, it.ID)
		return err
	})
	return line, err
}

func (s *CartService) RemoveItem(ctx context.Context, a Actor, itemID int64) error {
	cart, err := findCart(ctx, s.Carts, a)
	if err != nil {
		return notFound("Cart item", err)
	}
	return notFound("Cart item", s.Carts.DeleteItem(ctx, cart.ID, itemID))
}

// Clear empties the cart and reports whether anything was removed.
func (s *CartService) Clear(ctx context.Context, a Actor) (bool, error) {
	cart, err := findCart(ctx, s.Carts, a)
	if errors.Is(err, repos.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	items, err := s.Carts.Items(ctx, cart.ID)
	if err != nil || len(items) == 0 {
		return false, err
	}
	return true, s.Carts.Clear(ctx, cart.ID)
}

// RefreshItemPrice re-snapshots a line at the target's current effective price.
func (s *CartService) RefreshItemPrice(ctx context.Context, a Actor, itemID int64) (*domain.CartItem, error) {
	var line *domain.CartItem
	err := repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		carts := repos.NewCartRepo(tx)
		it, err := ownedItem(ctx, carts, a, itemID)
		if err != nil {
			return err
		}
		if err := carts.SetPriceSnapshot(ctx, it.ID, it.CurrentPrice()); err != nil {
			return err
		}
		line, err = carts.Item(ctx, it.CartID, it.ID)
		return err
	})
	return line, err
}

func ownedItem(ctx context.Context, carts *repos.CartRepo, a Actor, itemID int64) (*domain.CartItem, error) {
	cart, err := findCart(ctx, carts, a)
	if err != nil {
		return nil, notFound("Cart item", err)
	}
	it, err := carts.Item(ctx, cart.ID, itemID)
	if err != nil {
		return nil, notFound("Cart item", err)
	}
	if !it.TargetExists {
		return nil, &NotFoundError{What: "Cart item"}
	}
	return it, nil
}
