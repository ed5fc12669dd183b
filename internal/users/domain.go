package users

import (
	"time"

	"github.com/parceldesk/parceldesk/internal/authz"
)

// User is an operator or customer account. Permissions hold the account's
// explicit grants; role defaults are applied at creation and can later be
// reapplied, replacing the custom set.
type User struct {
	ID           int64              `json:"id"`
	Email        string             `json:"email"`
	Name         string             `json:"name"`
	PasswordHash string             `json:"-"`
	Role         authz.Role         `json:"role"`
	Permissions  []authz.Permission `json:"permissions"`
	IsActive     bool               `json:"is_active"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// Actor converts the account into the authorization view used by the
// permission checks.
func (u *User) Actor() *authz.Actor {
	if u == nil {
		return nil
	}
	return &authz.Actor{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Role:        u.Role,
		Permissions: append([]authz.Permission(nil), u.Permissions...),
		IsActive:    u.IsActive,
	}
}

// CreateUserInput carries the fields accepted when registering an account.
type CreateUserInput struct {
	Email    string
	Name     string
	Password string
	Role     authz.Role
}
