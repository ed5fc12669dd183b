package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/parceldesk/parceldesk/internal/authz"
)

var (
	ErrNotFound       = errors.New("users: not found")
	ErrDuplicateEmail = errors.New("users: email already registered")
)

// RepositoryPort defines data access methods for accounts.
type RepositoryPort interface {
	CreateUser(ctx context.Context, user User) (*User, error)
	GetUser(ctx context.Context, id int64) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)
	UpdateRole(ctx context.Context, id int64, role authz.Role, permissions []authz.Permission) error
	UpdatePermissions(ctx context.Context, id int64, permissions []authz.Permission) error
	SetActive(ctx context.Context, id int64, active bool) error
}

// Service handles account business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// CreateUser registers an account and seeds it with the role's default
// permission set.
func (s *Service) CreateUser(ctx context.Context, input CreateUserInput) (*User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, fmt.Errorf("users: email is required")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("users: name is required")
	}
	if len(input.Password) < 8 {
		return nil, fmt.Errorf("users: password must be at least 8 characters")
	}
	role := input.Role
	if role == "" {
		role = authz.RoleCustomer
	}
	if !role.Valid() {
		return nil, fmt.Errorf("users: unknown role %q", role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	return s.repo.CreateUser(ctx, User{
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		Role:         role,
		Permissions:  authz.DefaultPermissions(role),
		IsActive:     true,
	})
}

// GetUser fetches one account.
func (s *Service) GetUser(ctx context.Context, id int64) (*User, error) {
	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}

// FindByEmail fetches one account by email, nil when absent.
func (s *Service) FindByEmail(ctx context.Context, email string) (*User, error) {
	return s.repo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
}

// ListUsers returns all accounts.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.repo.ListUsers(ctx)
}

// SetRole changes the account's role and replaces its permission set with
// the new role's defaults. Custom grants do not survive a role change.
func (s *Service) SetRole(ctx context.Context, id int64, role authz.Role) (*User, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("users: unknown role %q", role)
	}
	if err := s.repo.UpdateRole(ctx, id, role, authz.DefaultPermissions(role)); err != nil {
		return nil, err
	}
	return s.GetUser(ctx, id)
}

// SetActive enables or disables an account.
func (s *Service) SetActive(ctx context.Context, id int64, active bool) error {
	return s.repo.SetActive(ctx, id, active)
}

// GrantPermission adds one permission to the account. Duplicate
// (resource, action) pairs are dropped rather than appended twice.
func (s *Service) GrantPermission(ctx context.Context, id int64, perm authz.Permission) (*User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if authz.ContainsPermission(user.Permissions, perm) {
		return user, nil
	}
	updated := append(append([]authz.Permission(nil), user.Permissions...), perm)
	if err := s.repo.UpdatePermissions(ctx, id, updated); err != nil {
		return nil, err
	}
	user.Permissions = updated
	return user, nil
}

// RevokePermission removes one permission by exact (resource, action) match.
func (s *Service) RevokePermission(ctx context.Context, id int64, perm authz.Permission) (*User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	updated := make([]authz.Permission, 0, len(user.Permissions))
	for _, p := range user.Permissions {
		if p == perm {
			continue
		}
		updated = append(updated, p)
	}
	if len(updated) == len(user.Permissions) {
		return user, nil
	}
	if err := s.repo.UpdatePermissions(ctx, id, updated); err != nil {
		return nil, err
	}
	user.Permissions = updated
	return user, nil
}

// ApplyRoleDefaults resets the account's permissions to its role's default
// set. The replacement is total, not additive.
func (s *Service) ApplyRoleDefaults(ctx context.Context, id int64) (*User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	defaults := authz.DefaultPermissions(user.Role)
	if err := s.repo.UpdatePermissions(ctx, id, defaults); err != nil {
		return nil, err
	}
	user.Permissions = defaults
	return user, nil
}
