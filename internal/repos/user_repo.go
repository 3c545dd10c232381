package repos

import (
	"context"
	"strings"

	"bikeshop/internal/domain"
)

type UserRepo struct{ DB DBTX }

func NewUserRepo(db DBTX) *UserRepo { return &UserRepo{DB: db} }

const userColumns = `id,email,name,phone,password_hash,role,is_active,created_at`

func (r *UserRepo) ByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := r.DB.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE LOWER(email)=LOWER(?)`, strings.TrimSpace(email))
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *UserRepo) ByID(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	err := r.DB.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE id=?`, id)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *UserRepo) EmailTaken(ctx context.Context, email string) (bool, error) {
	var n int
	err := r.DB.GetContext(ctx, &n, `SELECT COUNT(*) FROM users WHERE LOWER(email)=LOWER(?)`, strings.TrimSpace(email))
	return n > 0, err
}

// EmailTakenByOther is EmailTaken ignoring the account exceptID.
func (r *UserRepo) EmailTakenByOther(ctx context.Context, email string, exceptID int64) (bool, error) {
	var n int
	err := r.DB.GetContext(ctx, &n, `SELECT COUNT(*) FROM users WHERE LOWER(email)=LOWER(?) AND id<>?`, strings.TrimSpace(email), exceptID)
	return n > 0, err
}

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	if u.Role == "" {
		u.Role = domain.RoleUser
	}
	u.IsActive = true
	u.CreatedAt = now()
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO users(email,name,phone,password_hash,role,is_active,created_at,updated_at)
		VALUES(?,?,?,?,?,1,?,?)`,
		strings.TrimSpace(u.Email), u.Name, u.Phone, u.Hash, u.Role, u.CreatedAt, u.CreatedAt)
	if err != nil {
		return err
	}
	u.ID, err = res.LastInsertId()
	return err
}

func (r *UserRepo) UpdateProfile(ctx context.Context, id int64, name, phone string) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE users SET name=?, phone=?, updated_at=? WHERE id=?`, name, phone, now(), id)
	return err
}

func (r *UserRepo) UpdateAccount(ctx context.Context, u *domain.User) error {
	return execOne(ctx, r.DB, `UPDATE users SET email=?, name=?, phone=?, role=?, is_active=?, updated_at=? WHERE id=?`,
		strings.TrimSpace(u.Email), u.Name, u.Phone, u.Role, u.IsActive, now(), u.ID)
}

func (r *UserRepo) SetPassword(ctx context.Context, id int64, hash string) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE users SET password_hash=?, updated_at=? WHERE id=?`, hash, now(), id)
	return err
}

func (r *UserRepo) SetActive(ctx context.Context, id int64, active bool) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE users SET is_active=?, updated_at=? WHERE id=?`, active, now(), id)
	return err
}

// List returns users (admins excluded) newest first.
func (r *UserRepo) List(ctx context.Context, limit, offset int) ([]domain.User, int, error) {
	var total int
	if err := r.DB.GetContext(ctx, &total, `SELECT COUNT(*) FROM users WHERE role <> 'ADMIN'`); err != nil {
		return nil, 0, err
	}
	users := []domain.User{}
	err := r.DB.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users WHERE role <> 'ADMIN'
		ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`, limit, offset)
	return users, total, err
}

func (r *UserRepo) BindSession(ctx context.Context, sid string, userID int64) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO sessions(id,user_id,created_at,last_seen)
                          VALUES(?,?,?,?)
                          ON CONFLICT(id) DO UPDATE SET user_id=excluded.user_id,last_seen=excluded.last_seen`,
		sid, userID, now(), now())
	return err
}

func (r *UserRepo) UnbindSession(ctx context.Context, sid string) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE sessions SET user_id=NULL,last_seen=? WHERE id=?`, now(), sid)
	return err
}

// DeleteUserCascade removes the user. Carts, addresses and reset tokens cascade;
// orders keep their rows with user_id nulled for audit.
func (r *UserRepo) DeleteUserCascade(ctx context.Context, userID int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM users WHERE id=? AND role <> 'ADMIN'`, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
