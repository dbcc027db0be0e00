package auth

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vbarbosa/retail-pos/internal/core/domain"
)

func TestResolveRole(t *testing.T) {
	tests := []struct {
		identity string
		want     domain.Role
	}{
		{"admin", domain.RoleAdministrator},
		{"ADMIN", domain.RoleAdministrator},
		{"  admin  ", domain.RoleAdministrator},
		{"gerente2", domain.RoleManager},
		{"StoreManager", domain.RoleManager},
		{"funcionario1", domain.RoleClerk},
		{"vendedor_9", domain.RoleClerk},
		{"employee-7", domain.RoleClerk},
		{"best.seller", domain.RoleClerk},
		{"guest123", domain.RoleGuest},
		{"", domain.RoleGuest},
		// exact-match rule: "admin" as a substring is not enough
		{"administrator", domain.RoleGuest},
		{"admin2", domain.RoleGuest},
	}

	for _, tt := range tests {
		t.Run(tt.identity, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveRole(tt.identity))
		})
	}
}

func TestResolveRole_Total(t *testing.T) {
	// Any string resolves to exactly one of the four roles.
	known := map[domain.Role]bool{
		domain.RoleAdministrator: true,
		domain.RoleManager:       true,
		domain.RoleClerk:         true,
		domain.RoleGuest:         true,
	}

	inputs := []string{"", " ", "\t", "árvore", "管理", "admin\x00", "a"}
	for i := 0; i < 100; i++ {
		inputs = append(inputs, fmt.Sprintf("user-%d", i))
	}

	for _, in := range inputs {
		assert.True(t, known[ResolveRole(in)], "identity %q resolved outside the role set", in)
	}
}

func TestAuthorize_AdministratorPassesEverything(t *testing.T) {
	assert.True(t, Authorize("admin", domain.RoleClerk))
	assert.True(t, Authorize("admin", domain.RoleManager))
	assert.True(t, Authorize("admin")) // empty requirement set: admin-only
}

func TestAuthorize_RequiredRoles(t *testing.T) {
	assert.True(t, Authorize("funcionario1", domain.RoleClerk))
	assert.False(t, Authorize("funcionario1", domain.RoleManager))
	assert.True(t, Authorize("gerente1", domain.RoleManager))
	assert.False(t, Authorize("gerente1", domain.RoleClerk))
	assert.False(t, Authorize("guest123", domain.RoleClerk, domain.RoleManager))
	assert.False(t, Authorize("guest123"))
}
