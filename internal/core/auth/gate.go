// Package auth derives access tiers from the acting identity and answers
// authorization checks. It is pure policy: no state, no store access, the
// role is recomputed on every call.
package auth

import (
	"strings"

	"github.com/vbarbosa/retail-pos/internal/core/domain"
)

var (
	managerTokens = []string{"gerente", "manager"}
	clerkTokens   = []string{"funcionario", "vendedor", "employee", "seller"}
)

// ResolveRole maps an identity to a role. Comparison is case-insensitive;
// the exact match for "admin" wins over any substring rule, and identities
// matching nothing get the least-privileged role.
func ResolveRole(identity string) domain.Role {
	id := strings.ToLower(strings.TrimSpace(identity))

	if id == "admin" {
		return domain.RoleAdministrator
	}
	for _, tok := range managerTokens {
		if strings.Contains(id, tok) {
			return domain.RoleManager
		}
	}
	for _, tok := range clerkTokens {
		if strings.Contains(id, tok) {
			return domain.RoleClerk
		}
	}
	return domain.RoleGuest
}

// Authorize reports whether the identity may perform an operation restricted
// to the given roles. Administrators pass every check, including an empty
// requirement set (admin-only operations).
func Authorize(identity string, required ...domain.Role) bool {
	role := ResolveRole(identity)
	if role == domain.RoleAdministrator {
		return true
	}
	for _, r := range required {
		if role == r {
			return true
		}
	}
	return false
}
