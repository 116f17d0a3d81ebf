package models

import (
	"reflect"
	"testing"
)

func TestNormalizeRoles(t *testing.T) {
	roles := NormalizeRoles([]UserRole{" Owner ", "staff", "OWNER", ""})
	want := []UserRole{RoleOwner, RoleStaff}
	if !reflect.DeepEqual(roles, want) {
		t.Errorf("NormalizeRoles = %v, want %v", roles, want)
	}
}

func TestEnsureDefaultRole(t *testing.T) {
	if got := EnsureDefaultRole(nil); !reflect.DeepEqual(got, []UserRole{RoleViewer}) {
		t.Errorf("empty list should default to viewer, got %v", got)
	}
	existing := []UserRole{RoleStaff}
	if got := EnsureDefaultRole(existing); !reflect.DeepEqual(got, existing) {
		t.Errorf("non-empty list should be unchanged, got %v", got)
	}
}

func TestHasAtLeast(t *testing.T) {
	if !HasAtLeast([]UserRole{RoleOwner}, RoleStaff) {
		t.Error("owner should satisfy staff")
	}
	if HasAtLeast([]UserRole{RoleViewer}, RoleStaff) {
		t.Error("viewer should not satisfy staff")
	}
	if HasAtLeast([]UserRole{RoleOwner}, UserRole("superadmin")) {
		t.Error("unknown required role should never be satisfied")
	}
}

func TestHighestRole(t *testing.T) {
	if got := HighestRole([]UserRole{RoleStaff, RoleOwner, RoleViewer}); got != RoleOwner {
		t.Errorf("HighestRole = %s, want owner", got)
	}
	if got := HighestRole(nil); got != RoleViewer {
		t.Errorf("HighestRole(nil) = %s, want viewer", got)
	}
}

func TestIsValidRoleList(t *testing.T) {
	if IsValidRoleList(nil) {
		t.Error("empty list is not valid")
	}
	if IsValidRoleList([]UserRole{RoleOwner, "admin"}) {
		t.Error("unknown role invalidates the list")
	}
	if !IsValidRoleList([]UserRole{RoleViewer, RoleStaff}) {
		t.Error("known roles should be valid")
	}
}
