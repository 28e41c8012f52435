// Package rbac implements the two-tier authorization model: platform-global
// roles composed with per-store roles.
//
// Checks are pure decision functions over closed role sets, evaluated in a
// fixed order that fails closed:
//
//	d := rbac.Authorize(principal, storeID, rbac.StoreAdmin, rbac.StoreManager)
//	if err := d.Err(); err != nil {
//	    return err      // forbidden, with the deny reason in the message
//	}
//
// Principals are built from the current user record, not from token claims,
// so role changes and revocations take effect on the next request.
package rbac

import "github.com/tradeyard/tradeyard/pkg/errs"

// ─── Roles ────────────────────────────────────────────────────────────────────

// GlobalRole is a platform-wide privilege level, independent of any store.
type GlobalRole string

const (
	RoleCustomer   GlobalRole = "customer"
	RoleAdmin      GlobalRole = "admin"
	RoleSuperadmin GlobalRole = "superadmin"
)

// Valid reports whether r is one of the known global roles.
func (r GlobalRole) Valid() bool {
	switch r {
	case RoleCustomer, RoleAdmin, RoleSuperadmin:
		return true
	}
	return false
}

// StoreRole is a privilege level scoped to a single store.
type StoreRole string

const (
	StoreAdmin   StoreRole = "store_admin"
	StoreManager StoreRole = "store_manager"
	StoreStaff   StoreRole = "store_staff"
)

// Valid reports whether r is one of the known store roles.
func (r StoreRole) Valid() bool {
	switch r {
	case StoreAdmin, StoreManager, StoreStaff:
		return true
	}
	return false
}

// KnownStoreRoles lists every assignable store role, for input validation.
func KnownStoreRoles() []StoreRole {
	return []StoreRole{StoreAdmin, StoreManager, StoreStaff}
}

// ─── Principal ────────────────────────────────────────────────────────────────

// Principal is the identity a decision is made for. StoreRoles maps store id
// to the role assigned in that store.
type Principal struct {
	ID         string
	GlobalRole GlobalRole
	StoreRoles map[string]StoreRole
}

// ─── Decisions ────────────────────────────────────────────────────────────────

// DenyReason explains a negative decision.
type DenyReason string

const (
	// ReasonNoStoreAccess: the principal holds no role in the store at all.
	ReasonNoStoreAccess DenyReason = "no_store_access"
	// ReasonInsufficientStoreRole: the principal has a role in the store,
	// but not one the action accepts.
	ReasonInsufficientStoreRole DenyReason = "insufficient_store_role"
)

// Decision is the outcome of an authorization check. Role carries the store
// role the principal was matched (or denied) with, for audit and response
// shaping; it is empty when a global role decided.
type Decision struct {
	Allowed bool
	Reason  DenyReason
	Role    StoreRole
}

// Err converts a deny decision into a forbidden error for the HTTP layer.
// Allowed decisions return nil.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	switch d.Reason {
	case ReasonNoStoreAccess:
		return errs.Forbidden("you do not have access to this store")
	case ReasonInsufficientStoreRole:
		return errs.Forbidden("your store role does not permit this action")
	default:
		return errs.Forbidden("forbidden")
	}
}

// Authorize decides whether p may perform an action on the store identified
// by storeID, where allowed lists the store roles the action accepts.
// First match wins:
//
//  1. global superadmin → allow, unconditionally
//  2. global admin → allow, bypassing all store-role checks
//  3. p's role for this exact store id: absent → deny (no store access);
//     present and in allowed → allow; present otherwise → deny
//     (insufficient store role)
func Authorize(p Principal, storeID string, allowed ...StoreRole) Decision {
	switch p.GlobalRole {
	case RoleSuperadmin, RoleAdmin:
		return Decision{Allowed: true}
	}
	role, ok := p.StoreRoles[storeID]
	if !ok {
		return Decision{Reason: ReasonNoStoreAccess}
	}
	for _, a := range allowed {
		if role == a {
			return Decision{Allowed: true, Role: role}
		}
	}
	return Decision{Reason: ReasonInsufficientStoreRole, Role: role}
}

// AuthorizeSelfOrStaff behaves like Authorize but additionally allows p to
// act on its own record (subjectID) even without any store role. Used on
// staff endpoints that double as self-service.
func AuthorizeSelfOrStaff(p Principal, storeID, subjectID string, allowed ...StoreRole) Decision {
	d := Authorize(p, storeID, allowed...)
	if d.Allowed {
		return d
	}
	if p.ID != "" && p.ID == subjectID {
		return Decision{Allowed: true, Role: d.Role}
	}
	return d
}
