package account

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

type Service struct {
	store Store
	cost  int
}

func NewService(store Store, bcryptCost int) *Service {
	if bcryptCost == 0 {
		bcryptCost = 12
	}
	return &Service{store: store, cost: bcryptCost}
}

func (s *Service) Store() Store { return s.store }

var nonUsername = regexp.MustCompile(`[^a-zA-Z0-9_]+`)

// usernameFrom derives a username from the email local part when signup
// does not provide one.
func usernameFrom(email string) string {
	local, _, _ := strings.Cut(email, "@")
	u := nonUsername.ReplaceAllString(local, "_")
	if len(u) > 20 {
		u = u[:20]
	}
	for len(u) < 3 {
		u += "_"
	}
	return u
}

// Signup creates a regular account. Admins are only created by
// EnsureAdmin or promoted by another admin.
func (s *Service) Signup(ctx context.Context, in SignupInput) (User, error) {
	role := strings.ToLower(strings.TrimSpace(in.Role))
	switch role {
	case "", RoleUser:
		role = RoleUser
	case RoleAdmin:
		return User{}, ErrAdminSignup
	default:
		return User{}, ErrInvalidRole
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	username := strings.TrimSpace(in.Username)
	if username == "" {
		username = usernameFrom(email)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}
	return s.store.Create(ctx, User{
		Username: username,
		Fullname: strings.TrimSpace(in.Fullname),
		Email:    email,
		Role:     role,
	}, string(hash))
}

// Authenticate returns ErrNotFound for an unknown email and
// ErrInvalidCredentials for a wrong password.
func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	u, hash, err := s.store.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

func (s *Service) Get(ctx context.Context, id int64) (User, error) {
	return s.store.GetByID(ctx, id)
}

func (s *Service) ChangePassword(ctx context.Context, id int64, oldPassword, newPassword string) error {
	u, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.Authenticate(ctx, u.Email, oldPassword); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.store.UpdatePassword(ctx, id, string(hash))
}

// SetRole changes a user's role. The last remaining admin cannot be demoted.
func (s *Service) SetRole(ctx context.Context, id int64, role string) (User, error) {
	role = strings.ToLower(strings.TrimSpace(role))
	if !ValidRole(role) {
		return User{}, ErrInvalidRole
	}
	u, err := s.store.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	if u.Role == role {
		return u, nil
	}
	if u.IsAdmin() {
		n, err := s.store.CountRole(ctx, RoleAdmin)
		if err != nil {
			return User{}, err
		}
		if n <= 1 {
			return User{}, ErrLastAdmin
		}
	}
	if err := s.store.UpdateRole(ctx, id, role); err != nil {
		return User{}, err
	}
	u.Role = role
	return u, nil
}

// EnsureAdmin creates the admin account, or promotes the existing user
// with that email or username. created reports which happened.
func (s *Service) EnsureAdmin(ctx context.Context, email, username, password string) (u User, created bool, err error) {
	email = strings.ToLower(strings.TrimSpace(email))
	existing, err := s.store.FindByEmailOrUsername(ctx, email, username)
	switch {
	case err == nil:
		if existing.IsAdmin() {
			return existing, false, nil
		}
		if err := s.store.UpdateRole(ctx, existing.ID, RoleAdmin); err != nil {
			return User{}, false, err
		}
		existing.Role = RoleAdmin
		return existing, false, nil
	case !errors.Is(err, ErrNotFound):
		return User{}, false, err
	}
	if len(password) < 6 {
		return User{}, false, errors.New("admin password must be at least 6 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return User{}, false, fmt.Errorf("hash password: %w", err)
	}
	u, err = s.store.Create(ctx, User{Username: username, Fullname: "Administrator", Email: email, Role: RoleAdmin}, string(hash))
	return u, err == nil, err
}

func (s *Service) ListWithFeedback(ctx context.Context) ([]UserWithFeedback, error) {
	return s.store.ListWithFeedback(ctx)
}
