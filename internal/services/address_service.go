package services

import (
	"context"
	"strings"

	"bikeshop/internal/config"
	"bikeshop/internal/domain"
	"bikeshop/internal/repos"

	"github.com/jmoiron/sqlx"
)

type AddressService struct {
	DB       *sqlx.DB
	Addrs    *repos.AddressRepo
	Commerce config.Commerce
}

func NewAddressService(db *sqlx.DB, commerce config.Commerce) *AddressService {
	return &AddressService{DB: db, Addrs: repos.NewAddressRepo(db), Commerce: commerce}
}

// AddressInput is a create or partial update; nil fields are left unchanged on update.
type AddressInput struct {
	Label             *string
	AddressType       *string
	Street            *string
	City              *string
	State             *string
	PostalCode        *string
	Country           *string
	Phone             *string
	IsDefaultBilling  *bool
	IsDefaultShipping *bool
}

func (in AddressInput) apply(a *domain.Address) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&a.Label, in.Label)
	set(&a.AddressType, in.AddressType)
	set(&a.Street, in.Street)
	set(&a.City, in.City)
	set(&a.State, in.State)
	set(&a.PostalCode, in.PostalCode)
	set(&a.Country, in.Country)
	set(&a.Phone, in.Phone)
	if in.IsDefaultBilling != nil {
		a.IsDefaultBilling = *in.IsDefaultBilling
	}
	if in.IsDefaultShipping != nil {
		a.IsDefaultShipping = *in.IsDefaultShipping
	}
}

func checkAddress(a *domain.Address) error {
	ve := &ValidationError{Message: "Invalid data", Fields: map[string][]string{}}
	if !domain.ValidAddressType(a.AddressType) {
		ve.Fields["address_type"] = []string{`"` + a.AddressType + `" is not a valid choice.`}
	}
	for field, val := range map[string]string{
		"street": a.Street, "city": a.City, "state": a.State, "postal_code": a.PostalCode, "phone": a.Phone,
	} {
		if val == "" {
			ve.Fields[field] = []string{"This field is required."}
		}
	}
	if a.IsDefaultBilling && a.AddressType != domain.AddressBilling {
		ve.Fields["is_default_billing"] = []string{"Only a billing address can be the default billing address"}
	}
	if a.IsDefaultShipping && a.AddressType != domain.AddressShipping {
		ve.Fields["is_default_shipping"] = []string{"Only a shipping address can be the default shipping address"}
	}
	if len(ve.Fields) > 0 {
		return ve
	}
	return nil
}

func (s *AddressService) List(ctx context.Context, userID int64) ([]domain.Address, error) {
	return s.Addrs.ListByUser(ctx, userID)
}

func (s *AddressService) Get(ctx context.Context, userID, id int64) (*domain.Address, error) {
	a, err := s.Addrs.Owned(ctx, userID, id)
	return a, notFound("Address", err)
}

func (s *AddressService) Create(ctx context.Context, userID int64, in AddressInput) (*domain.Address, error) {
	a := &domain.Address{UserID: &userID, Country: s.Commerce.DefaultCountry}
	in.apply(a)
	if a.Country == "" {
		a.Country = s.Commerce.DefaultCountry
	}
	if err := checkAddress(a); err != nil {
		return nil, err
	}
	err := repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		addrs := repos.NewAddressRepo(tx)
		if err := addrs.UnsetDefaults(ctx, userID, a.AddressType, 0, a.IsDefaultBilling, a.IsDefaultShipping); err != nil {
			return err
		}
		return addrs.Create(ctx, a)
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Update applies in to an owned address. Setting a default clears the flag on
// the user's other addresses of the same type in the same transaction.
func (s *AddressService) Update(ctx context.Context, userID, id int64, in AddressInput) (*domain.Address, error) {
	var out *domain.Address
	err := repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		addrs := repos.NewAddressRepo(tx)
		a, err := addrs.Owned(ctx, userID, id)
		if err != nil {
			return notFound("Address", err)
		}
		in.apply(a)
		if err := checkAddress(a); err != nil {
			return err
		}
		if err := addrs.UnsetDefaults(ctx, userID, a.AddressType, a.ID, a.IsDefaultBilling, a.IsDefaultShipping); err != nil {
			return err
		}
		if err := addrs.Update(ctx, a); err != nil {
			return err
		}
		out = a
		return nil
	})
	return out, err
}

func (s *AddressService) Delete(ctx context.Context, userID, id int64) error {
	return notFound("Address", s.Addrs.Delete(ctx, userID, id))
}
