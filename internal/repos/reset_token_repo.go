package repos

import (
	"context"

	"bikeshop/internal/domain"
)

type ResetTokenRepo struct{ db DBTX }

func NewResetTokenRepo(db DBTX) *ResetTokenRepo { return &ResetTokenRepo{db: db} }

// InvalidateAll marks every unused token of the user as used.
func (r *ResetTokenRepo) InvalidateAll(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE password_reset_tokens SET used = 1 WHERE user_id = ? AND used = 0`, userID)
	return err
}

func (r *ResetTokenRepo) Create(ctx context.Context, t *domain.PasswordResetToken) error {
	t.CreatedAt = now()
	res, err := r.db.ExecContext(ctx, `INSERT INTO password_reset_tokens(user_id, token, expires_at, used, created_at)
		VALUES(?,?,?,0,?)`, t.UserID, t.Token, t.ExpiresAt.UTC(), t.CreatedAt)
	if err != nil {
		return err
	}
	t.ID, err = res.LastInsertId()
	return err
}

func (r *ResetTokenRepo) ByToken(ctx context.Context, token string) (*domain.PasswordResetToken, error) {
	var t domain.PasswordResetToken
	err := r.db.GetContext(ctx, &t, `SELECT id, user_id, token, expires_at, used, created_at
		FROM password_reset_tokens WHERE token = ?`, token)
	if err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

func (r *ResetTokenRepo) ForUser(ctx context.Context, userID int64) ([]domain.PasswordResetToken, error) {
	out := []domain.PasswordResetToken{}
	err := r.db.SelectContext(ctx, &out, `SELECT id, user_id, token, expires_at, used, created_at
		FROM password_reset_tokens WHERE user_id = ? ORDER BY id`, userID)
	return out, err
}

func (r *ResetTokenRepo) MarkUsed(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE password_reset_tokens SET used = 1 WHERE id = ?`, id)
	return err
}
