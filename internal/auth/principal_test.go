package auth

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/petrolia/termlab/internal/fault"
	"github.com/petrolia/termlab/internal/identity/entity"
)

func activePrincipal(role entity.Role) *Principal {
	companyID := int64(1)
	return &Principal{
		UserID:        10,
		Role:          role,
		CompanyID:     &companyID,
		UserActive:    true,
		CompanyActive: true,
	}
}

func TestCanWrite(t *testing.T) {
	assert.NoError(t, activePrincipal(entity.RoleAdmin).CanWrite())
	assert.NoError(t, activePrincipal(entity.RoleUser).CanWrite())

	visitor := activePrincipal(entity.RoleVisitor)
	assert.True(t, errors.Is(visitor.CanWrite(), fault.ErrForbidden))

	inactive := activePrincipal(entity.RoleAdmin)
	inactive.UserActive = false
	assert.True(t, errors.Is(inactive.CanWrite(), fault.ErrForbidden))

	deadCompany := activePrincipal(entity.RoleAdmin)
	deadCompany.CompanyActive = false
	assert.True(t, errors.Is(deadCompany.CanWrite(), fault.ErrForbidden))
}

func TestRequireAdmin(t *testing.T) {
	assert.NoError(t, activePrincipal(entity.RoleSuperadmin).RequireAdmin())
	assert.NoError(t, activePrincipal(entity.RoleAdmin).RequireAdmin())
	assert.True(t, errors.Is(activePrincipal(entity.RoleUser).RequireAdmin(), fault.ErrForbidden))
	assert.True(t, errors.Is(activePrincipal(entity.RoleVisitor).RequireAdmin(), fault.ErrForbidden))
}

func TestSameCompany(t *testing.T) {
	p := activePrincipal(entity.RoleUser)
	assert.True(t, p.SameCompany(1))
	assert.False(t, p.SameCompany(2))

	// superadmins are company-unscoped
	assert.True(t, activePrincipal(entity.RoleSuperadmin).SameCompany(99))

	orphan := activePrincipal(entity.RoleUser)
	orphan.CompanyID = nil
	assert.False(t, orphan.SameCompany(1))
}

func TestCanActOnTerminal(t *testing.T) {
	// admins cover their whole company without grants
	admin := activePrincipal(entity.RoleAdmin)
	assert.NoError(t, admin.CanActOnTerminal(1, 5))
	assert.True(t, errors.Is(admin.CanActOnTerminal(2, 5), fault.ErrForbidden))

	// plain users need an explicit terminal grant
	user := activePrincipal(entity.RoleUser)
	assert.True(t, errors.Is(user.CanActOnTerminal(1, 5), fault.ErrForbidden))

	user.TerminalIDs = []int64{5, 6}
	assert.NoError(t, user.CanActOnTerminal(1, 5))
	assert.True(t, errors.Is(user.CanActOnTerminal(1, 7), fault.ErrForbidden))

	// a grant on the terminal does not cross company boundaries
	assert.True(t, errors.Is(user.CanActOnTerminal(2, 5), fault.ErrForbidden))
}
