package domain

import "time"

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"

	AddressBilling  = "billing"
	AddressShipping = "shipping"
)

type User struct {
	ID        int64     `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	Name      string    `db:"name" json:"name"`
	Phone     string    `db:"phone" json:"phone"`
	Hash      string    `db:"password_hash" json:"-"`
	Role      string    `db:"role" json:"role"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

type Address struct {
	ID                int64     `db:"id" json:"id"`
	UserID            *int64    `db:"user_id" json:"-"`
	Label             string    `db:"label" json:"label"`
	AddressType       string    `db:"address_type" json:"address_type"`
	Street            string    `db:"street" json:"street"`
	City              string    `db:"city" json:"city"`
	State             string    `db:"state" json:"state"`
	PostalCode        string    `db:"postal_code" json:"postal_code"`
	Country           string    `db:"country" json:"country"`
	Phone             string    `db:"phone" json:"phone"`
	IsDefaultBilling  bool      `db:"is_default_billing" json:"is_default_billing"`
	IsDefaultShipping bool      `db:"is_default_shipping" json:"is_default_shipping"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

func ValidAddressType(t string) bool { return t == AddressBilling || t == AddressShipping }

// DefaultsMatchType reports whether each default flag is only set on an address of its own type.
func (a Address) DefaultsMatchType() bool {
	if a.IsDefaultBilling && a.AddressType != AddressBilling {
		return false
	}
	if a.IsDefaultShipping && a.AddressType != AddressShipping {
		return false
	}
	return true
}

func (a Address) Fields() AddressFields {
	return AddressFields{
		Label: a.Label, Phone: a.Phone, Street: a.Street, City: a.City,
		State: a.State, PostalCode: a.PostalCode, Country: a.Country,
	}
}

type PasswordResetToken struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	Token     string    `db:"token"`
	ExpiresAt time.Time `db:"expires_at"`
	Used      bool      `db:"used"`
	CreatedAt time.Time `db:"created_at"`
}

// IsValid is true while the token is unused and now is before ExpiresAt.
func (t PasswordResetToken) IsValid(now time.Time) bool {
	return !t.Used && now.Before(t.ExpiresAt)
}
