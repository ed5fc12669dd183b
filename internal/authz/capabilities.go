package authz

// capability is everything a role implies: its human label, the top-level
// navigation sections it may see, and the permission set applied to new
// accounts. All consumers derive from this one table so the label, the nav
// allow-list, and the permission defaults cannot drift apart.
type capability struct {
	Label    string
	Sections []string
	Defaults []Permission
}

var capabilities = map[Role]capability{
	RoleAdmin: {
		Label:    "Administrator",
		Sections: []string{"dashboard", "orders", "fleet", "warehouse", "returns", "invoices", "payments", "reports", "users"},
		Defaults: []Permission{{Resource: Wildcard, Action: Wildcard}},
	},
	RoleDispatcher: {
		Label:    "Dispatcher",
		Sections: []string{"dashboard", "orders", "fleet", "returns"},
		Defaults: []Permission{
			{Resource: ResOrders, Action: ActionCreate},
			{Resource: ResOrders, Action: ActionRead},
			{Resource: ResOrders, Action: ActionUpdate},
			{Resource: ResOrders, Action: ActionExport},
			{Resource: ResFleet, Action: ActionRead},
			{Resource: ResFleet, Action: ActionUpdate},
			{Resource: ResCustomers, Action: ActionRead},
			{Resource: ResReturns, Action: ActionRead},
		},
	},
	RoleAgent: {
		Label:    "Delivery Agent",
		Sections: []string{"dashboard", "orders", "returns"},
		Defaults: []Permission{
			{Resource: ResOrders, Action: ActionRead},
			{Resource: ResOrders, Action: ActionUpdate},
			{Resource: ResReturns, Action: ActionCreate},
			{Resource: ResReturns, Action: ActionRead},
		},
	},
	RoleWarehouse: {
		Label:    "Warehouse Staff",
		Sections: []string{"dashboard", "orders", "warehouse", "returns"},
		Defaults: []Permission{
			{Resource: ResWarehouse, Action: Wildcard},
			{Resource: ResOrders, Action: ActionRead},
			{Resource: ResOrders, Action: ActionUpdate},
			{Resource: ResReturns, Action: ActionRead},
			{Resource: ResReturns, Action: ActionUpdate},
		},
	},
	RoleAccounting: {
		Label:    "Accounting",
		Sections: []string{"dashboard", "orders", "invoices", "payments", "reports"},
		Defaults: []Permission{
			{Resource: ResInvoices, Action: ActionRead},
			{Resource: ResInvoices, Action: ActionExport},
			{Resource: ResPayments, Action: ActionCreate},
			{Resource: ResPayments, Action: ActionRead},
			{Resource: ResReports, Action: ActionRead},
			{Resource: ResReports, Action: ActionExport},
			{Resource: ResOrders, Action: ActionRead},
		},
	},
	RoleCustomer: {
		Label:    "Customer",
		Sections: []string{"dashboard", "orders", "invoices"},
		Defaults: []Permission{
			{Resource: ResOrders, Action: ActionRead},
			{Resource: ResInvoices, Action: ActionRead},
		},
	},
}

// Roles lists all roles in display order.
func Roles() []Role {
	return []Role{RoleAdmin, RoleDispatcher, RoleAgent, RoleWarehouse, RoleAccounting, RoleCustomer}
}

// RoleLabel returns the human readable name for a role.
func RoleLabel(r Role) string {
	return capabilities[r].Label
}

// NavSections returns the top-level sections visible to a role.
func NavSections(r Role) []string {
	src := capabilities[r].Sections
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// DefaultPermissions returns the permission set applied at account creation.
// Applying it later replaces the account's custom set, it is not additive.
func DefaultPermissions(r Role) []Permission {
	src := capabilities[r].Defaults
	out := make([]Permission, len(src))
	copy(out, src)
	return out
}
