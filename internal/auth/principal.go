package auth

import (
	"github.com/petrolia/termlab/internal/fault"
	"github.com/petrolia/termlab/internal/identity/entity"
)

// Principal is the authenticated caller as the services see it: account,
// role, company and the terminals the account may act on.
type Principal struct {
	UserID             int64
	Role               entity.Role
	CompanyID          *int64
	UserActive         bool
	CompanyActive      bool
	MustChangePassword bool
	TerminalIDs        []int64
}

// IsAdmin reports whether the principal holds admin or superadmin.
func (p *Principal) IsAdmin() bool { return p.Role.IsAdmin() }

// HasTerminal reports whether the terminal is among the principal's grants.
func (p *Principal) HasTerminal(terminalID int64) bool {
	for _, id := range p.TerminalIDs {
		if id == terminalID {
			return true
		}
	}
	return false
}

// SameCompany reports whether the given company is the principal's own.
// Superadmins are company-unscoped.
func (p *Principal) SameCompany(companyID int64) bool {
	if p.Role == entity.RoleSuperadmin {
		return true
	}
	return p.CompanyID != nil && *p.CompanyID == companyID
}

// CanWrite rejects visitors and principals whose account or company is
// inactive. Every mutating service call starts here.
func (p *Principal) CanWrite() error {
	if !p.UserActive || !p.CompanyActive {
		return fault.Forbidden("account inactive")
	}
	if p.Role == entity.RoleVisitor {
		return fault.Forbidden("read-only role")
	}
	return nil
}

// RequireAdmin rejects principals below admin.
func (p *Principal) RequireAdmin() error {
	if err := p.CanWrite(); err != nil {
		return err
	}
	if !p.IsAdmin() {
		return fault.Forbidden("admin role required")
	}
	return nil
}

// CanActOnTerminal authorizes a write scoped to a terminal of the given
// company. Admins cover their whole company; users need an explicit grant.
func (p *Principal) CanActOnTerminal(terminalCompanyID, terminalID int64) error {
	if err := p.CanWrite(); err != nil {
		return err
	}
	if !p.SameCompany(terminalCompanyID) {
		return fault.Forbidden("terminal outside company")
	}
	if p.IsAdmin() {
		return nil
	}
	if !p.HasTerminal(terminalID) {
		return fault.Forbidden("terminal not granted")
	}
	return nil
}
