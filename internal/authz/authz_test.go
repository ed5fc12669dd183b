package authz

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHasPermissionAdminBypass(t *testing.T) {
	admin := &Actor{ID: 1, Role: RoleAdmin, IsActive: true}
	for _, resource := range []string{ResOrders, ResInvoices, ResUsers, "anything"} {
		for _, action := range []Action{ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionExport} {
			require.True(t, HasPermission(admin, resource, action),
				"admin must pass %s:%s with an empty permission list", resource, action)
		}
	}
}

func TestHasPermissionFailsClosedOnNilActor(t *testing.T) {
	require.False(t, HasPermission(nil, ResOrders, ActionRead))
	require.False(t, HasPermission(nil, Wildcard, Wildcard))
}

func TestHasPermissionExactMatch(t *testing.T) {
	actor := &Actor{
		ID:   2,
		Role: RoleAgent,
		Permissions: []Permission{
			{Resource: ResOrders, Action: ActionRead},
		},
		IsActive: true,
	}
	require.True(t, HasPermission(actor, ResOrders, ActionRead))
	require.False(t, HasPermission(actor, ResOrders, ActionUpdate))
	require.False(t, HasPermission(actor, ResInvoices, ActionRead))
}

func TestHasPermissionWildcardResource(t *testing.T) {
	actor := &Actor{
		ID:   3,
		Role: RoleAccounting,
		Permissions: []Permission{
			{Resource: Wildcard, Action: ActionRead},
		},
		IsActive: true,
	}
	// A wildcard resource grants its action everywhere, and nothing more.
	require.True(t, HasPermission(actor, ResOrders, ActionRead))
	require.True(t, HasPermission(actor, ResInvoices, ActionRead))
	require.False(t, HasPermission(actor, ResOrders, ActionUpdate))
}

func TestHasPermissionWildcardAction(t *testing.T) {
	actor := &Actor{
		ID:   4,
		Role: RoleWarehouse,
		Permissions: []Permission{
			{Resource: ResWarehouse, Action: Wildcard},
		},
		IsActive: true,
	}
	require.True(t, HasPermission(actor, ResWarehouse, ActionCreate))
	require.True(t, HasPermission(actor, ResWarehouse, ActionDelete))
	require.False(t, HasPermission(actor, ResOrders, ActionRead))
}

func TestHasPermissionEmptyListDenies(t *testing.T) {
	actor := &Actor{ID: 5, Role: RoleCustomer, IsActive: true}
	require.False(t, HasPermission(actor, ResOrders, ActionRead))
}

func TestContainsPermission(t *testing.T) {
	set := []Permission{
		{Resource: ResOrders, Action: ActionRead},
		{Resource: ResOrders, Action: ActionUpdate},
	}
	require.True(t, ContainsPermission(set, Permission{Resource: ResOrders, Action: ActionRead}))
	require.False(t, ContainsPermission(set, Permission{Resource: ResOrders, Action: ActionDelete}))
}

func TestParseRole(t *testing.T) {
	role, err := ParseRole("dispatcher")
	require.NoError(t, err)
	require.Equal(t, RoleDispatcher, role)

	_, err = ParseRole("superuser")
	require.Error(t, err)
}
