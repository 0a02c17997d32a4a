// Package entity defines the identity and tenancy rows: companies, their
// terminals, user accounts and the user↔terminal grants.
package entity

import "time"

// Role is the user_role enum.
type Role string

const (
	RoleSuperadmin Role = "superadmin"
	RoleAdmin      Role = "admin"
	RoleUser       Role = "user"
	RoleVisitor    Role = "visitor"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperadmin, RoleAdmin, RoleUser, RoleVisitor:
		return true
	}
	return false
}

// IsAdmin reports whether the role may mutate any row within its company.
func (r Role) IsAdmin() bool { return r == RoleSuperadmin || r == RoleAdmin }

// CompanyType is the company_type enum.
type CompanyType string

const (
	CompanyClient  CompanyType = "client"
	CompanyPartner CompanyType = "partner"
)

func (c CompanyType) Valid() bool {
	return c == CompanyClient || c == CompanyPartner
}

type Company struct {
	ID          int64       `db:"id" json:"id"`
	Name        string      `db:"name" json:"name"`
	CompanyType CompanyType `db:"company_type" json:"company_type"`
	IsActive    bool        `db:"is_active" json:"is_active"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updated_at"`
}

// CompanyTerminal is a physical site where samples are drawn and equipment
// is deployed. TerminalCode is null or matches ^[A-Z0-9]{3,4}$ and is unique
// within the company. LabTerminalID points at the terminal whose laboratory
// analyzes this terminal's samples; the target must itself have a lab.
type CompanyTerminal struct {
	ID                 int64     `db:"id" json:"id"`
	CompanyID          int64     `db:"company_id" json:"company_id"`
	Name               string    `db:"name" json:"name"`
	TerminalCode       *string   `db:"terminal_code" json:"terminal_code"`
	HasLab             bool      `db:"has_lab" json:"has_lab"`
	LabTerminalID      *int64    `db:"lab_terminal_id" json:"lab_terminal_id"`
	NextSampleSequence int64     `db:"next_sample_sequence" json:"next_sample_sequence"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

type User struct {
	ID                 int64     `db:"id" json:"id"`
	Name               string    `db:"name" json:"name"`
	LastName           string    `db:"last_name" json:"last_name"`
	Email              string    `db:"email" json:"email"`
	Role               Role      `db:"role" json:"role"`
	PhotoURL           *string   `db:"photo_url" json:"photo_url"`
	PasswordHash       string    `db:"password_hash" json:"-"`
	RefreshTokenHash   *string   `db:"refresh_token_hash" json:"-"`
	MustChangePassword bool      `db:"must_change_password" json:"must_change_password"`
	IsActive           bool      `db:"is_active" json:"is_active"`
	CompanyID          *int64    `db:"company_id" json:"company_id"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

type UserTerminal struct {
	ID         int64 `db:"id" json:"id"`
	UserID     int64 `db:"user_id" json:"user_id"`
	TerminalID int64 `db:"terminal_id" json:"terminal_id"`
}
