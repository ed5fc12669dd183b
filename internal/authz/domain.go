package authz

import "fmt"

// Role is the coarse grouping every account belongs to.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleDispatcher Role = "dispatcher"
	RoleAgent      Role = "agent"
	RoleWarehouse  Role = "warehouse"
	RoleAccounting Role = "accounting"
	RoleCustomer   Role = "customer"
)

// Valid reports whether the role is part of the fixed enumeration.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDispatcher, RoleAgent, RoleWarehouse, RoleAccounting, RoleCustomer:
		return true
	default:
		return false
	}
}

// ParseRole converts a stored string into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("authz: unknown role %q", s)
	}
	return r, nil
}

// Action is an operation verb scoped within a resource.
type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionExport Action = "export"

	// Wildcard matches every action or resource.
	Wildcard = "*"
)

// Domain resources permissions are scoped to.
const (
	ResOrders    = "orders"
	ResInvoices  = "invoices"
	ResPayments  = "payments"
	ResUsers     = "users"
	ResFleet     = "fleet"
	ResWarehouse = "warehouse"
	ResReturns   = "returns"
	ResReports   = "reports"
	ResCustomers = "customers"
)

// Permission is an immutable (resource, action) pair. Either side may be
// the wildcard "*".
type Permission struct {
	Resource string `json:"resource"`
	Action   Action `json:"action"`
}

// Actor is the signed-in user authorization decisions are evaluated against.
// It is passed explicitly to every check; there is no ambient lookup.
type Actor struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Email       string       `json:"email"`
	Role        Role         `json:"role"`
	Permissions []Permission `json:"permissions"`
	IsActive    bool         `json:"is_active"`

	// Degraded marks an actor synthesised by the lookup-timeout fallback
	// rather than loaded from storage.
	Degraded bool `json:"degraded,omitempty"`
}
