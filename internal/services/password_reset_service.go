package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"time"

	"bikeshop/internal/config"
	"bikeshop/internal/domain"
	"bikeshop/internal/mail"
	"bikeshop/internal/repos"
	"bikeshop/internal/validate"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
)

type PasswordResetService struct {
	DB       *sqlx.DB
	Users    *repos.UserRepo
	Tokens   *repos.ResetTokenRepo
	Mailer   mail.Sender
	Renderer *mail.Renderer
	Commerce config.Commerce
	Now      func() time.Time
}

func NewPasswordResetService(db *sqlx.DB, sender mail.Sender, commerce config.Commerce) *PasswordResetService {
	return &PasswordResetService{
		DB:       db,
		Users:    repos.NewUserRepo(db),
		Tokens:   repos.NewResetTokenRepo(db),
		Mailer:   sender,
		Renderer: &mail.Renderer{},
		Commerce: commerce,
		Now:      func() time.Time { return time.Now().UTC() },
	}
}

// newResetToken returns 32 random bytes, URL-safe base64 encoded without padding.
func newResetToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Generate invalidates the user's unused tokens and stores a fresh one.
func (s *PasswordResetService) Generate(ctx context.Context, userID int64) (*domain.PasswordResetToken, error) {
	raw, err := newResetToken()
	if err != nil {
		return nil, err
	}
	t := &domain.PasswordResetToken{UserID: userID, Token: raw, ExpiresAt: s.Now().Add(s.Commerce.ResetTokenTTL)}
	err = repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		tokens := repos.NewResetTokenRepo(tx)
		if err := tokens.InvalidateAll(ctx, userID); err != nil {
			return err
		}
		return tokens.Create(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// RequestReset emails a reset link when the address belongs to an account and
// stays silent otherwise. A delivery failure returns ErrEmailDelivery; the token is kept.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) error {
	addr, ok := validate.Email(email)
	if !ok {
		return Invalid("email", "Enter a valid email address.")
	}
	u, err := s.Users.ByEmail(ctx, addr)
	if errors.Is(err, repos.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	t, err := s.Generate(ctx, u.ID)
	if err != nil {
		return err
	}
	name := u.Name
	if name == "" {
		name = u.Email
	}
	msg, err := s.Renderer.ResetPassword(u.Email, mail.ResetData{
		Name:      name,
		Email:     u.Email,
		ResetURL:  s.Commerce.FrontendURL + "/reset-password?token=" + url.QueryEscape(t.Token),
		ExpiresIn: humanDuration(s.Commerce.ResetTokenTTL),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEmailDelivery, err)
	}
	if err := s.Mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("%w: %v", ErrEmailDelivery, err)
	}
	return nil
}

func humanDuration(d time.Duration) string {
	switch {
	case d == time.Hour:
		return "1 hour"
	case d%time.Hour == 0:
		return fmt.Sprintf("%d hours", d/time.Hour)
	case d%time.Minute == 0:
		return fmt.Sprintf("%d minutes", d/time.Minute)
	}
	return d.String()
}

func (s *PasswordResetService) validToken(ctx context.Context, tokens *repos.ResetTokenRepo, raw string) (*domain.PasswordResetToken, error) {
	if raw == "" {
		return nil, Invalid("token", "This field is required.")
	}
	t, err := tokens.ByToken(ctx, raw)
	if errors.Is(err, repos.ErrNotFound) {
		return nil, Invalid("token", "Invalid token")
	}
	if err != nil {
		return nil, err
	}
	if !t.IsValid(s.Now()) {
		return nil, Invalid("token", "Token has expired or already been used")
	}
	return t, nil
}

// VerifyToken returns the account email for a usable token.
func (s *PasswordResetService) VerifyToken(ctx context.Context, raw string) (string, error) {
	t, err := s.validToken(ctx, s.Tokens, raw)
	if err != nil {
		return "", err
	}
	u, err := s.Users.ByID(ctx, t.UserID)
	if err != nil {
		return "", notFound("User", err)
	}
	return u.Email, nil
}

// ResetPassword sets a new password from a usable token, then marks it and
// every other unused token of the user as used.
func (s *PasswordResetService) ResetPassword(ctx context.Context, raw, newPassword, confirm string) (*domain.User, error) {
	if newPassword != confirm {
		return nil, Invalid("confirm_password", "Passwords do not match")
	}
	if problems := validate.Password(newPassword); len(problems) > 0 {
		return nil, &ValidationError{Message: "Password reset failed", Fields: map[string][]string{"new_password": problems}}
	}
	h, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	var user *domain.User
	err = repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		tokens := repos.NewResetTokenRepo(tx)
		t, err := s.validToken(ctx, tokens, raw)
		if err != nil {
			return err
		}
		users := repos.NewUserRepo(tx)
		if user, err = users.ByID(ctx, t.UserID); err != nil {
			return notFound("User", err)
		}
		if err := users.SetPassword(ctx, user.ID, string(h)); err != nil {
			return err
		}
		if err := tokens.MarkUsed(ctx, t.ID); err != nil {
			return err
		}
		return tokens.InvalidateAll(ctx, user.ID)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}
