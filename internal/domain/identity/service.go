package identity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/clinic/clinic/internal/platform/auth"
)

const bcryptCost = 10

type Service struct {
	users  UserRepository
	tokens *auth.TokenIssuer
	policy auth.Policy
}

func NewService(users UserRepository, tokens *auth.TokenIssuer, policy auth.Policy) *Service {
	return &Service{users: users, tokens: tokens, policy: policy}
}

// RegisterInput is the payload for self-service registration and for staff
// creating accounts.
type RegisterInput struct {
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	Name      string  `json:"name"`
	DNI       string  `json:"dni"`
	Phone     *string `json:"phone,omitempty"`
	Address   *string `json:"address,omitempty"`
	BirthDate *string `json:"birth_date,omitempty"`
}

func parseBirthDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse(BirthDateLayout, *s)
	if err != nil {
		return nil, fmt.Errorf("birth_date must be in YYYY-MM-DD format")
	}
	return &t, nil
}

// Register creates a patient account. The role is always USER here; staff
// accounts are provisioned through the admin user management endpoints.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	if err := validateRegisterInput(in); err != nil {
		return nil, err
	}

	birthDate, err := parseBirthDate(in.BirthDate)
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &User{
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash: string(hash),
		Name:         strings.TrimSpace(in.Name),
		DNI:          strings.TrimSpace(in.DNI),
		Phone:        in.Phone,
		Address:      in.Address,
		BirthDate:    birthDate,
		Role:         auth.RoleUser,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func validateRegisterInput(in RegisterInput) error {
	if strings.TrimSpace(in.Email) == "" || !strings.Contains(in.Email, "@") {
		return fmt.Errorf("a valid email is required")
	}
	if len(in.Password) < 6 {
		return fmt.Errorf("password must be at least 6 characters")
	}
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if strings.TrimSpace(in.DNI) == "" {
		return fmt.Errorf("dni is required")
	}
	return nil
}

// Login verifies credentials and issues a session token. The same error is
// returned for unknown emails and wrong passwords.
func (s *Service) Login(ctx context.Context, email, password string) (*User, string, error) {
	u, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, "", ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(auth.Actor{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role})
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	return u, token, nil
}

// Get returns a single user. Patients may only look up themselves.
func (s *Service) Get(ctx context.Context, actor auth.Actor, id uuid.UUID) (*User, error) {
	if !actor.IsStaff() && actor.ID != id {
		return nil, auth.ErrForbidden
	}
	return s.users.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, actor auth.Actor, limit, offset int) ([]*User, int, error) {
	if !s.policy.CanManageUsers(actor) {
		return nil, 0, auth.ErrForbidden
	}
	return s.users.List(ctx, limit, offset)
}

// UpdateInput carries the mutable user fields. Nil fields are left untouched.
type UpdateInput struct {
	Email     *string `json:"email,omitempty"`
	Password  *string `json:"password,omitempty"`
	Name      *string `json:"name,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Address   *string `json:"address,omitempty"`
	BirthDate *string `json:"birth_date,omitempty"`
	Role      *string `json:"role,omitempty"`
}

// Update modifies a user account. Patients may edit their own profile but
// never their role; role changes are staff-only.
func (s *Service) Update(ctx context.Context, actor auth.Actor, id uuid.UUID, in UpdateInput) (*User, error) {
	if !actor.IsStaff() && actor.ID != id {
		return nil, auth.ErrForbidden
	}
	if in.Role != nil && !s.policy.CanManageUsers(actor) {
		return nil, auth.ErrForbidden
	}

	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Email != nil {
		if !strings.Contains(*in.Email, "@") {
			return nil, fmt.Errorf("a valid email is required")
		}
		u.Email = strings.ToLower(strings.TrimSpace(*in.Email))
	}
	if in.Password != nil {
		if len(*in.Password) < 6 {
			return nil, fmt.Errorf("password must be at least 6 characters")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		u.PasswordHash = string(hash)
	}
	if in.Name != nil {
		u.Name = strings.TrimSpace(*in.Name)
	}
	if in.Phone != nil {
		u.Phone = in.Phone
	}
	if in.Address != nil {
		u.Address = in.Address
	}
	if in.BirthDate != nil {
		birthDate, err := parseBirthDate(in.BirthDate)
		if err != nil {
			return nil, err
		}
		u.BirthDate = birthDate
	}
	if in.Role != nil {
		if *in.Role != auth.RoleUser && *in.Role != auth.RoleAdmin {
			return nil, fmt.Errorf("invalid role: %s", *in.Role)
		}
		u.Role = *in.Role
	}

	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Delete removes a user account. Staff-only.
func (s *Service) Delete(ctx context.Context, actor auth.Actor, id uuid.UUID) error {
	if !s.policy.CanManageUsers(actor) {
		return auth.ErrForbidden
	}
	return s.users.Delete(ctx, id)
}
