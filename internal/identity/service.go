// Package identity implements companies, terminals, users and their grants,
// including terminal-code normalization and auto-assignment.
package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/petrolia/termlab/internal/auth"
	"github.com/petrolia/termlab/internal/fault"
	"github.com/petrolia/termlab/internal/identity/entity"
	"github.com/petrolia/termlab/internal/identity/repo"
)

// Service orchestrates identity and tenancy flows.
type Service struct {
	companies *repo.CompanyRepo
	terminals *repo.TerminalRepo
	users     *repo.UserRepo
	hasher    auth.PasswordHasher
}

func NewService(companies *repo.CompanyRepo, terminals *repo.TerminalRepo, users *repo.UserRepo, hasher auth.PasswordHasher) *Service {
	if hasher == nil {
		hasher = auth.BcryptHasher{Cost: 12}
	}
	return &Service{companies: companies, terminals: terminals, users: users, hasher: hasher}
}

// ---- companies ----

type CompanyInput struct {
	Name        string             `json:"name"`
	CompanyType entity.CompanyType `json:"company_type"`
	IsActive    *bool              `json:"is_active"`
}

func (s *Service) CreateCompany(ctx context.Context, p *auth.Principal, in CompanyInput) (*entity.Company, error) {
	if err := p.RequireAdmin(); err != nil {
		return nil, err
	}
	if p.Role != entity.RoleSuperadmin {
		return nil, fault.Forbidden("superadmin role required")
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, fault.Invalid("company name required")
	}
	if in.CompanyType == "" {
		in.CompanyType = entity.CompanyClient
	}
	if !in.CompanyType.Valid() {
		return nil, fault.Invalid("unknown company type")
	}
	c := &entity.Company{Name: in.Name, CompanyType: in.CompanyType, IsActive: true}
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
	if err := s.companies.Create(ctx, c); err != nil {
		return nil, fault.FromStore(err, "company")
	}
	return c, nil
}

func (s *Service) GetCompany(ctx context.Context, p *auth.Principal, id int64) (*entity.Company, error) {
	if !p.SameCompany(id) {
		return nil, fault.NotFound("company")
	}
	c, err := s.companies.GetByID(ctx, id)
	if err != nil {
		return nil, fault.FromStore(err, "company")
	}
	return c, nil
}

func (s *Service) UpdateCompany(ctx context.Context, p *auth.Principal, id int64, in CompanyInput) (*entity.Company, error) {
	if err := p.RequireAdmin(); err != nil {
		return nil, err
	}
	if !p.SameCompany(id) {
		return nil, fault.NotFound("company")
	}
	c, err := s.companies.GetByID(ctx, id)
	if err != nil {
		return nil, fault.FromStore(err, "company")
	}
	if in.Name != "" {
		c.Name = in.Name
	}
	if in.CompanyType != "" {
		if !in.CompanyType.Valid() {
			return nil, fault.Invalid("unknown company type")
		}
		c.CompanyType = in.CompanyType
	}
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
	if _, err := s.companies.Update(ctx, c); err != nil {
		return nil, fault.FromStore(err, "company")
	}
	return c, nil
}

// ---- terminals ----

type TerminalInput struct {
	Name          string  `json:"name"`
	TerminalCode  *string `json:"terminal_code"`
	HasLab        *bool   `json:"has_lab"`
	LabTerminalID *int64  `json:"lab_terminal_id"`
}

// CreateTerminal creates a terminal for the principal's company. An explicit
// terminal_code must normalize cleanly; when absent one is derived from the
// terminal name, falling back to the TRA.. sequence on collision.
func (s *Service) CreateTerminal(ctx context.Context, p *auth.Principal, companyID int64, in TerminalInput) (*entity.CompanyTerminal, error) {
	if err := p.RequireAdmin(); err != nil {
		return nil, err
	}
	if !p.SameCompany(companyID) {
		return nil, fault.Forbidden("company mismatch")
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, fault.Invalid("terminal name required")
	}

	t := &entity.CompanyTerminal{CompanyID: companyID, Name: in.Name}
	if in.HasLab != nil {
		t.HasLab = *in.HasLab
	}
	if in.TerminalCode != nil {
		code, ok := NormalizeTerminalCode(*in.TerminalCode)
		if !ok {
			return nil, fault.Invalid("terminal code not normalizable")
		}
		t.TerminalCode = &code
	}
	if in.LabTerminalID != nil {
		if err := s.checkLabTerminal(ctx, companyID, *in.LabTerminalID, 0); err != nil {
			return nil, err
		}
		t.LabTerminalID = in.LabTerminalID
	}

	if err := s.terminals.Create(ctx, t); err != nil {
		return nil, fault.FromStore(err, "terminal")
	}
	if t.TerminalCode == nil {
		if err := s.autoAssignCode(ctx, t); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (s *Service) GetTerminal(ctx context.Context, p *auth.Principal, id int64) (*entity.CompanyTerminal, error) {
	t, err := s.terminals.GetByID(ctx, id)
	if err != nil {
		return nil, fault.FromStore(err, "terminal")
	}
	if !p.SameCompany(t.CompanyID) {
		return nil, fault.NotFound("terminal")
	}
	return t, nil
}

func (s *Service) ListTerminals(ctx context.Context, p *auth.Principal, companyID int64, limit, offset int) ([]*entity.CompanyTerminal, error) {
	if !p.SameCompany(companyID) {
		return nil, fault.NotFound("company")
	}
	return s.terminals.ListByCompany(ctx, companyID, limit, offset)
}

func (s *Service) UpdateTerminal(ctx context.Context, p *auth.Principal, id int64, in TerminalInput) (*entity.CompanyTerminal, error) {
	if err := p.RequireAdmin(); err != nil {
		return nil, err
	}
	t, err := s.terminals.GetByID(ctx, id)
	if err != nil {
		return nil, fault.FromStore(err, "terminal")
	}
	if !p.SameCompany(t.CompanyID) {
		return nil, fault.NotFound("terminal")
	}
	if in.Name != "" {
		t.Name = in.Name
	}
	if in.HasLab != nil {
		t.HasLab = *in.HasLab
	}
	if in.TerminalCode != nil {
		code, ok := NormalizeTerminalCode(*in.TerminalCode)
		if !ok {
			return nil, fault.Invalid("terminal code not normalizable")
		}
		t.TerminalCode = &code
	}
	if in.LabTerminalID != nil {
		if err := s.checkLabTerminal(ctx, t.CompanyID, *in.LabTerminalID, t.ID); err != nil {
			return nil, err
		}
		t.LabTerminalID = in.LabTerminalID
	}
	if _, err := s.terminals.Update(ctx, t); err != nil {
		return nil, fault.FromStore(err, "terminal")
	}
	return t, nil
}

// checkLabTerminal enforces the self-edge rules: the lab target belongs to
// the same company, has a lab, and is not itself routed to another lab
// (no lab-of-lab chains, which also rules out cycles).
func (s *Service) checkLabTerminal(ctx context.Context, companyID, labID, selfID int64) error {
	if labID == selfID && selfID != 0 {
		// a lab terminal may analyze its own samples
		return nil
	}
	lab, err := s.terminals.GetByID(ctx, labID)
	if err != nil {
		return fault.FromStore(err, "lab terminal")
	}
	if lab.CompanyID != companyID {
		return fault.Invalid("lab terminal belongs to another company")
	}
	if !lab.HasLab {
		return fault.Invalid("lab terminal has no laboratory")
	}
	if lab.LabTerminalID != nil && *lab.LabTerminalID != lab.ID {
		return fault.Invalid("lab terminal is itself routed to a laboratory")
	}
	return nil
}

// autoAssignCode derives a code from the terminal name, then walks the
// fallback sequence. Uniqueness is enforced by the store; a concurrent
// winner surfaces as a unique violation and we move to the next candidate.
func (s *Service) autoAssignCode(ctx context.Context, t *entity.CompanyTerminal) error {
	used, err := s.terminals.CodesInUse(ctx, t.CompanyID)
	if err != nil {
		return err
	}
	candidates := make([]string, 0, 1)
	if derived, ok := NormalizeTerminalCode(t.Name); ok {
		candidates = append(candidates, derived)
	}
	candidates = append(candidates, FallbackCodes()...)

	for _, code := range candidates {
		if used[code] {
			continue
		}
		if err := s.terminals.SetCode(ctx, t.ID, code); err != nil {
			mapped := fault.FromStore(err, "terminal code")
			if errors.Is(mapped, fault.ErrConflict) {
				continue // raced with another allocator, try next
			}
			return mapped
		}
		t.TerminalCode = &code
		return nil
	}
	return fault.Conflict("terminal code space exhausted")
}

// ---- users ----

type UserInput struct {
	Name     string      `json:"name"`
	LastName string      `json:"last_name"`
	Email    string      `json:"email"`
	Role     entity.Role `json:"role"`
	PhotoURL *string     `json:"photo_url"`
	Password string      `json:"password"`
	IsActive *bool       `json:"is_active"`
}

func (s *Service) CreateUser(ctx context.Context, p *auth.Principal, in UserInput) (*entity.User, error) {
	if err := p.RequireAdmin(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Email) == "" || strings.TrimSpace(in.Name) == "" {
		return nil, fault.Invalid("name and email required")
	}
	if in.Role == "" {
		in.Role = entity.RoleUser
	}
	if !in.Role.Valid() {
		return nil, fault.Invalid("unknown role")
	}
	if in.Role == entity.RoleSuperadmin && p.Role != entity.RoleSuperadmin {
		return nil, fault.Forbidden("only superadmin may create superadmins")
	}
	if len(in.Password) < 8 {
		return nil, fault.Invalid("password too short")
	}
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	u := &entity.User{
		Name:         in.Name,
		LastName:     in.LastName,
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		Role:         in.Role,
		PhotoURL:     in.PhotoURL,
		PasswordHash: hash,
		IsActive:     true,
		CompanyID:    p.CompanyID,
	}
	if in.IsActive != nil {
		u.IsActive = *in.IsActive
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, fault.FromStore(err, "user")
	}
	return u, nil
}

func (s *Service) GetUser(ctx context.Context, p *auth.Principal, id int64) (*entity.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fault.FromStore(err, "user")
	}
	if u.CompanyID != nil && !p.SameCompany(*u.CompanyID) {
		return nil, fault.NotFound("user")
	}
	return u, nil
}

func (s *Service) UpdateUser(ctx context.Context, p *auth.Principal, id int64, in UserInput) (*entity.User, error) {
	if err := p.RequireAdmin(); err != nil {
		return nil, err
	}
	u, err := s.GetUser(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if in.Name != "" {
		u.Name = in.Name
	}
	if in.LastName != "" {
		u.LastName = in.LastName
	}
	if in.Email != "" {
		u.Email = strings.ToLower(strings.TrimSpace(in.Email))
	}
	if in.Role != "" {
		if !in.Role.Valid() {
			return nil, fault.Invalid("unknown role")
		}
		if in.Role == entity.RoleSuperadmin && p.Role != entity.RoleSuperadmin {
			return nil, fault.Forbidden("only superadmin may assign superadmin")
		}
		u.Role = in.Role
	}
	if in.PhotoURL != nil {
		u.PhotoURL = in.PhotoURL
	}
	if in.IsActive != nil {
		u.IsActive = *in.IsActive
	}
	if _, err := s.users.Update(ctx, u); err != nil {
		return nil, fault.FromStore(err, "user")
	}
	if in.Password != "" {
		if len(in.Password) < 8 {
			return nil, fault.Invalid("password too short")
		}
		hash, err := s.hasher.Hash(in.Password)
		if err != nil {
			return nil, err
		}
		if err := s.users.SetPassword(ctx, id, hash); err != nil {
			return nil, err
		}
	}
	return u, nil
}

// DeactivateUser is the delete operation: accounts are never removed.
func (s *Service) DeactivateUser(ctx context.Context, p *auth.Principal, id int64) error {
	if err := p.RequireAdmin(); err != nil {
		return err
	}
	u, err := s.GetUser(ctx, p, id)
	if err != nil {
		return err
	}
	u.IsActive = false
	_, err = s.users.Update(ctx, u)
	return fault.FromStore(err, "user")
}

// GrantTerminal links a user to a terminal they may act on.
func (s *Service) GrantTerminal(ctx context.Context, p *auth.Principal, userID, terminalID int64) error {
	if err := p.RequireAdmin(); err != nil {
		return err
	}
	if _, err := s.GetUser(ctx, p, userID); err != nil {
		return err
	}
	if _, err := s.GetTerminal(ctx, p, terminalID); err != nil {
		return err
	}
	return fault.FromStore(s.users.GrantTerminal(ctx, userID, terminalID), "user terminal")
}

func (s *Service) RevokeTerminal(ctx context.Context, p *auth.Principal, userID, terminalID int64) error {
	if err := p.RequireAdmin(); err != nil {
		return err
	}
	n, err := s.users.RevokeTerminal(ctx, userID, terminalID)
	if err != nil {
		return fault.FromStore(err, "user terminal")
	}
	if n == 0 {
		return fault.NotFound("user terminal")
	}
	return nil
}
