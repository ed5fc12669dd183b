// Package authz implements the role and permission model for the back
// office. Checks are pure predicates over an in-memory Actor and always
// fail closed: a missing actor or an empty permission list denies.
package authz

// HasPermission reports whether the actor may perform action on resource.
//
// The admin role bypasses the permission list entirely. Every other role is
// granted only what its permission entries match: a wildcard on either side
// of the pair, or the exact (resource, action) pair. A wildcard resource
// does not widen the action: {"*", read} grants read everywhere and nothing
// else.
func HasPermission(actor *Actor, resource string, action Action) bool {
	if actor == nil {
		return false
	}
	if actor.Role == RoleAdmin {
		return true
	}
	for _, p := range actor.Permissions {
		if matches(p, resource, action) {
			return true
		}
	}
	return false
}

func matches(p Permission, resource string, action Action) bool {
	if p.Resource != Wildcard && p.Resource != resource {
		return false
	}
	return p.Action == Wildcard || p.Action == action
}

// ContainsPermission reports whether the set already holds the exact pair.
func ContainsPermission(set []Permission, p Permission) bool {
	for _, existing := range set {
		if existing == p {
			return true
		}
	}
	return false
}
