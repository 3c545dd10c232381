package repos

import (
	"context"

	"bikeshop/internal/domain"
)

type AddressRepo struct{ db DBTX }

func NewAddressRepo(db DBTX) *AddressRepo { return &AddressRepo{db: db} }

const addressColumns = `id, user_id, label, address_type, street, city, state, postal_code, country, phone,
  is_default_billing, is_default_shipping, created_at, updated_at`

func (r *AddressRepo) ListByUser(ctx context.Context, userID int64) ([]domain.Address, error) {
	out := []domain.Address{}
	err := r.db.SelectContext(ctx, &out, `SELECT `+addressColumns+` FROM addresses WHERE user_id = ?
		ORDER BY is_default_billing DESC, is_default_shipping DESC, created_at DESC, id DESC`, userID)
	return out, err
}

// Owned returns the address only when it belongs to userID.
func (r *AddressRepo) Owned(ctx context.Context, userID, id int64) (*domain.Address, error) {
	var a domain.Address
	if err := r.db.GetContext(ctx, &a, `SELECT `+addressColumns+` FROM addresses WHERE id = ? AND user_id = ?`, id, userID); err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

func (r *AddressRepo) ByID(ctx context.Context, id int64) (*domain.Address, error) {
	var a domain.Address
	if err := r.db.GetContext(ctx, &a, `SELECT `+addressColumns+` FROM addresses WHERE id = ?`, id); err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

// UnsetDefaults clears the given default flags on the user's other addresses of the same type.
func (r *AddressRepo) UnsetDefaults(ctx context.Context, userID int64, addressType string, exceptID int64, billing, shipping bool) error {
	if billing {
		if _, err := r.db.ExecContext(ctx, `UPDATE addresses SET is_default_billing = 0, updated_at = ?
			WHERE user_id = ? AND address_type = ? AND id <> ? AND is_default_billing = 1`,
			now(), userID, addressType, exceptID); err != nil {
			return err
		}
	}
	if shipping {
		if _, err := r.db.ExecContext(ctx, `UPDATE addresses SET is_default_shipping = 0, updated_at = ?
			WHERE user_id = ? AND address_type = ? AND id <> ? AND is_default_shipping = 1`,
			now(), userID, addressType, exceptID); err != nil {
			return err
		}
	}
	return nil
}

func (r *AddressRepo) Create(ctx context.Context, a *domain.Address) error {
	ts := now()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO addresses(user_id,label,address_type,street,city,state,postal_code,country,phone,
		  is_default_billing,is_default_shipping,created_at,updated_at)
		VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		a.UserID, a.Label, a.AddressType, a.Street, a.City, a.State, a.PostalCode, a.Country, a.Phone,
		a.IsDefaultBilling, a.IsDefaultShipping, ts, ts)
	if err != nil {
		return err
	}
	a.CreatedAt, a.UpdatedAt = ts, ts
	a.ID, err = res.LastInsertId()
	return err
}

func (r *AddressRepo) Update(ctx context.Context, a *domain.Address) error {
	a.UpdatedAt = now()
	_, err := r.db.ExecContext(ctx, `
		UPDATE addresses SET label=?, address_type=?, street=?, city=?, state=?, postal_code=?, country=?, phone=?,
		  is_default_billing=?, is_default_shipping=?, updated_at=?
		WHERE id = ? AND user_id = ?`,
		a.Label, a.AddressType, a.Street, a.City, a.State, a.PostalCode, a.Country, a.Phone,
		a.IsDefaultBilling, a.IsDefaultShipping, a.UpdatedAt, a.ID, a.UserID)
	return err
}

func (r *AddressRepo) Delete(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM addresses WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
