package models

import "strings"

// UserRole is an operator's role within a tenant. Roles form a strict
// hierarchy: viewer < staff < owner. Tier entitlements are a separate
// axis (see internal/tier): roles say who may act, tiers say what the
// tenant has paid for.
type UserRole string

const (
	RoleViewer UserRole = "viewer"
	RoleStaff  UserRole = "staff"
	RoleOwner  UserRole = "owner"
)

var roleRanks = map[UserRole]int{
	RoleViewer: 0,
	RoleStaff:  1,
	RoleOwner:  2,
}

func IsValidRole(role UserRole) bool {
	_, ok := roleRanks[role]
	return ok
}

func IsValidRoleList(roles []UserRole) bool {
	if len(roles) == 0 {
		return false
	}
	for _, role := range roles {
		if !IsValidRole(role) {
			return false
		}
	}
	return true
}

// NormalizeRoles lowercases, trims, and deduplicates a role list,
// preserving first-seen order.
func NormalizeRoles(roles []UserRole) []UserRole {
	seen := make(map[UserRole]bool, len(roles))
	normalized := make([]UserRole, 0, len(roles))
	for _, role := range roles {
		r := UserRole(strings.ToLower(strings.TrimSpace(string(role))))
		if r == "" || seen[r] {
			continue
		}
		seen[r] = true
		normalized = append(normalized, r)
	}
	return normalized
}

// EnsureDefaultRole guarantees a non-empty role list; an empty list
// becomes viewer-only.
func EnsureDefaultRole(roles []UserRole) []UserRole {
	if len(roles) == 0 {
		return []UserRole{RoleViewer}
	}
	return roles
}

// HasAtLeast reports whether any role in the list meets the required
// rank.
func HasAtLeast(roles []UserRole, required UserRole) bool {
	need, ok := roleRanks[required]
	if !ok {
		return false
	}
	for _, role := range roles {
		if rank, ok := roleRanks[role]; ok && rank >= need {
			return true
		}
	}
	return false
}

// HighestRole returns the highest-ranked role in the list, defaulting to
// viewer for an empty list.
func HighestRole(roles []UserRole) UserRole {
	highest := RoleViewer
	for _, role := range roles {
		if rank, ok := roleRanks[role]; ok && rank > roleRanks[highest] {
			highest = role
		}
	}
	return highest
}
