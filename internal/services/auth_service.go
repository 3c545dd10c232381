package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bikeshop/internal/domain"
	"bikeshop/internal/repos"
	"bikeshop/internal/validate"

	"golang.org/x/crypto/bcrypt"
)

type AuthService struct {
	Users  *repos.UserRepo
	Carts  *CartService
	Tokens *TokenIssuer
}

type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Phone    string
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	email, ok := validate.Email(in.Email)
	if !ok {
		return nil, Invalid("email", "Enter a valid email address.")
	}
	if problems := validate.Password(in.Password); len(problems) > 0 {
		return nil, &ValidationError{Message: "Invalid data", Fields: map[string][]string{"password": problems}}
	}
	name := strings.TrimSpace(in.Name)
	if name != "" {
		if name, ok = validate.Name(name); !ok {
			return nil, Invalid("name", "Ensure this field has no more than 150 characters.")
		}
	}
	taken, err := s.Users.EmailTaken(ctx, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, Invalid("email", "A user with this email already exists.")
	}
	h, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &domain.User{Email: email, Name: name, Phone: strings.TrimSpace(in.Phone), Hash: string(h), Role: domain.RoleUser}
	if err := s.Users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login checks credentials and issues a bearer token. When sid carries a guest
// session, it is bound to the user and the guest cart is merged.
func (s *AuthService) Login(ctx context.Context, sid, email, password string) (*domain.User, string, error) {
	u, err := s.Users.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repos.ErrNotFound) {
			return nil, "", ErrBadCreds
		}
		return nil, "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return nil, "", ErrBadCreds
	}
	if !u.IsActive {
		return nil, "", ErrAccountDisabled
	}
	if sid != "" {
		if err := s.Users.BindSession(ctx, sid, u.ID); err != nil {
			return nil, "", err
		}
		if s.Carts != nil {
			if err := s.Carts.Merge(ctx, u.ID, sid); err != nil {
				return nil, "", err
			}
		}
	}
	token, err := s.Tokens.Issue(u)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (s *AuthService) Logout(ctx context.Context, sid string) error {
	return s.Users.UnbindSession(ctx, sid)
}

// CurrentUser resolves the user behind a bearer token, rejecting disabled accounts.
func (s *AuthService) CurrentUser(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.Tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	u, err := s.Users.ByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repos.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if !u.IsActive {
		return nil, ErrAccountDisabled
	}
	return u, nil
}

func (s *AuthService) Profile(ctx context.Context, userID int64) (*domain.User, error) {
	u, err := s.Users.ByID(ctx, userID)
	return u, notFound("User", err)
}

// UpdateProfile changes only the fields that are set.
func (s *AuthService) UpdateProfile(ctx context.Context, userID int64, name, phone *string) (*domain.User, error) {
	u, err := s.Users.ByID(ctx, userID)
	if err != nil {
		return nil, notFound("User", err)
	}
	if name != nil {
		n := strings.TrimSpace(*name)
		if len(n) > 150 {
			return nil, Invalid("name", "Ensure this field has no more than 150 characters.")
		}
		u.Name = n
	}
	if phone != nil {
		p := strings.TrimSpace(*phone)
		if len(p) > 20 {
			return nil, Invalid("phone", "Ensure this field has no more than 20 characters.")
		}
		u.Phone = p
	}
	if err := s.Users.UpdateProfile(ctx, userID, u.Name, u.Phone); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error {
	u, err := s.Users.ByID(ctx, userID)
	if err != nil {
		return notFound("User", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(oldPassword)) != nil {
		return Invalid("old_password", "Old password is incorrect")
	}
	if oldPassword == newPassword {
		return Invalid("new_password", "New password must be different from old password")
	}
	if problems := validate.Password(newPassword); len(problems) > 0 {
		return &ValidationError{Message: "Invalid data", Fields: map[string][]string{"new_password": problems}}
	}
	h, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.Users.SetPassword(ctx, userID, string(h))
}

func (s *AuthService) ListUsers(ctx context.Context, limit, offset int) ([]domain.User, int, error) {
	return s.Users.List(ctx, limit, offset)
}

func (s *AuthService) SetUserActive(ctx context.Context, userID int64, active bool) (*domain.User, error) {
	u, err := s.Users.ByID(ctx, userID)
	if err != nil {
		return nil, notFound("User", err)
	}
	if u.IsAdmin() {
		return nil, &RuleError{Message: "Cannot change the status of an admin account"}
	}
	if err := s.Users.SetActive(ctx, userID, active); err != nil {
		return nil, err
	}
	u.IsActive = active
	return u, nil
}

// DeleteUser removes a non-admin account; orders survive with the owner cleared.
func (s *AuthService) DeleteUser(ctx context.Context, userID int64) error {
	return notFound("User", s.Users.DeleteUserCascade(ctx, userID))
}

// AdminUserInput creates an account from the back office.
type AdminUserInput struct {
	RegisterInput
	Role     string
	IsActive bool
}

func validRole(r string) bool { return r == domain.RoleUser || r == domain.RoleAdmin }

func (s *AuthService) CreateUser(ctx context.Context, in AdminUserInput) (*domain.User, error) {
	if in.Role == "" {
		in.Role = domain.RoleUser
	}
	if !validRole(in.Role) {
		return nil, Invalid("role", fmt.Sprintf("%q is not a valid choice.", in.Role))
	}
	u, err := s.Register(ctx, in.RegisterInput)
	if err != nil {
		return nil, err
	}
	if u.Role != in.Role || !in.IsActive {
		u.Role, u.IsActive = in.Role, in.IsActive
		if err := s.Users.UpdateAccount(ctx, u); err != nil {
			return nil, err
		}
	}
	return u, nil
}

// UserPatch carries the account fields to change; NewPassword replaces the password when set.
type UserPatch struct {
	Email       *string
	Name        *string
	Phone       *string
	Role        *string
	IsActive    *bool
	NewPassword *string
}

func (s *AuthService) UpdateUser(ctx context.Context, userID int64, in UserPatch) (*domain.User, error) {
	u, err := s.Users.ByID(ctx, userID)
	if err != nil {
		return nil, notFound("User", err)
	}
	if in.Email != nil {
		email, ok := validate.Email(*in.Email)
		if !ok {
			return nil, Invalid("email", "Enter a valid email address.")
		}
		taken, err := s.Users.EmailTakenByOther(ctx, email, u.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, Invalid("email", "A user with this email already exists.")
		}
		u.Email = email
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name != "" {
			var ok bool
			if name, ok = validate.Name(name); !ok {
				return nil, Invalid("name", "Ensure this field has no more than 150 characters.")
			}
		}
		u.Name = name
	}
	if in.Phone != nil {
		u.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Role != nil {
		if !validRole(*in.Role) {
			return nil, Invalid("role", fmt.Sprintf("%q is not a valid choice.", *in.Role))
		}
		u.Role = *in.Role
	}
	if in.IsActive != nil {
		u.IsActive = *in.IsActive
	}
	var hash string
	if in.NewPassword != nil && *in.NewPassword != "" {
		if problems := validate.Password(*in.NewPassword); len(problems) > 0 {
			return nil, &ValidationError{Message: "Invalid data", Fields: map[string][]string{"new_password": problems}}
		}
		h, err := bcrypt.GenerateFromPassword([]byte(*in.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		hash = string(h)
	}
	if err := s.Users.UpdateAccount(ctx, u); err != nil {
		return nil, notFound("User", err)
	}
	if hash != "" {
		if err := s.Users.SetPassword(ctx, u.ID, hash); err != nil {
			return nil, err
		}
	}
	return u, nil
}
