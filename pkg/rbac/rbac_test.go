package rbac

import (
	"errors"
	"testing"

	"github.com/tradeyard/tradeyard/pkg/errs"
)

func staff(storeID string, role StoreRole) Principal {
	return Principal{
		ID:         "user-1",
		GlobalRole: RoleCustomer,
		StoreRoles: map[string]StoreRole{storeID: role},
	}
}

func TestSuperadminAlwaysAllowed(t *testing.T) {
	p := Principal{ID: "root", GlobalRole: RoleSuperadmin}
	// No store role entry at all, against every role combination.
	for _, allowed := range [][]StoreRole{
		{StoreAdmin},
		{StoreAdmin, StoreManager},
		{StoreStaff},
		nil,
	} {
		d := Authorize(p, "store-42", allowed...)
		if !d.Allowed {
			t.Fatalf("superadmin denied with allowed=%v: %+v", allowed, d)
		}
	}
}

func TestAdminBypassesStoreRoles(t *testing.T) {
	p := Principal{ID: "admin-1", GlobalRole: RoleAdmin}
	d := Authorize(p, "store-42", StoreAdmin)
	if !d.Allowed {
		t.Fatalf("admin denied: %+v", d)
	}
	if d.Role != "" {
		t.Fatalf("global allow should not carry a store role, got %q", d.Role)
	}
}

func TestNoStoreAccess(t *testing.T) {
	p := Principal{ID: "user-1", GlobalRole: RoleCustomer}
	d := Authorize(p, "store-42", StoreStaff)
	if d.Allowed || d.Reason != ReasonNoStoreAccess {
		t.Fatalf("got %+v, want deny with %s", d, ReasonNoStoreAccess)
	}
}

func TestInsufficientStoreRole(t *testing.T) {
	d := Authorize(staff("store-42", StoreStaff), "store-42", StoreAdmin)
	if d.Allowed || d.Reason != ReasonInsufficientStoreRole {
		t.Fatalf("got %+v, want deny with %s", d, ReasonInsufficientStoreRole)
	}
	if d.Role != StoreStaff {
		t.Fatalf("deny should carry the resolved role, got %q", d.Role)
	}
}

func TestRoleScopedToExactStore(t *testing.T) {
	// store_admin in one store means nothing in another.
	d := Authorize(staff("store-1", StoreAdmin), "store-2", StoreStaff)
	if d.Allowed || d.Reason != ReasonNoStoreAccess {
		t.Fatalf("got %+v, want deny with %s", d, ReasonNoStoreAccess)
	}
}

func TestUpgradedRoleReResolved(t *testing.T) {
	p := staff("store-42", StoreStaff)
	if d := Authorize(p, "store-42", StoreAdmin); d.Allowed {
		t.Fatalf("staff unexpectedly allowed: %+v", d)
	}
	// Role upgraded in the registry and principal rebuilt from the record.
	p.StoreRoles["store-42"] = StoreAdmin
	d := Authorize(p, "store-42", StoreAdmin)
	if !d.Allowed || d.Role != StoreAdmin {
		t.Fatalf("upgraded principal denied: %+v", d)
	}
}

func TestAllowCarriesMatchedRole(t *testing.T) {
	d := Authorize(staff("store-42", StoreManager), "store-42", StoreAdmin, StoreManager)
	if !d.Allowed || d.Role != StoreManager {
		t.Fatalf("got %+v, want allow with role %s", d, StoreManager)
	}
}

func TestAuthorizeSelfOrStaff(t *testing.T) {
	outsider := Principal{ID: "user-7", GlobalRole: RoleCustomer}

	if d := AuthorizeSelfOrStaff(outsider, "store-42", "user-7", StoreAdmin); !d.Allowed {
		t.Fatalf("self access denied: %+v", d)
	}
	if d := AuthorizeSelfOrStaff(outsider, "store-42", "user-8", StoreAdmin); d.Allowed {
		t.Fatalf("non-self outsider allowed: %+v", d)
	}
	// Staff with a qualifying role may act on others.
	d := AuthorizeSelfOrStaff(staff("store-42", StoreAdmin), "store-42", "user-8", StoreAdmin)
	if !d.Allowed {
		t.Fatalf("qualifying staff denied: %+v", d)
	}
}

func TestDecisionErr(t *testing.T) {
	if err := (Decision{Allowed: true}).Err(); err != nil {
		t.Fatalf("allow produced error: %v", err)
	}
	err := (Decision{Reason: ReasonNoStoreAccess}).Err()
	if !errors.Is(err, errs.Forbidden("")) {
		t.Fatalf("deny error kind = %v, want forbidden", errs.KindOf(err))
	}
}

func TestRoleValidity(t *testing.T) {
	for _, r := range KnownStoreRoles() {
		if !r.Valid() {
			t.Fatalf("%q should be valid", r)
		}
	}
	if StoreRole("owner").Valid() {
		t.Fatal("unknown store role accepted")
	}
	if !RoleSuperadmin.Valid() || GlobalRole("root").Valid() {
		t.Fatal("global role validity check broken")
	}
}
