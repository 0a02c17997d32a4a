package entity

import "time"

// CompanyBlock is an operational grouping owned by a company. Blocks carry
// no dependents, so unlike samples and equipment they delete physically.
type CompanyBlock struct {
	ID              int64     `db:"id" json:"id"`
	CompanyID       int64     `db:"company_id" json:"company_id"`
	Name            string    `db:"name" json:"name"`
	IsActive        bool      `db:"is_active" json:"is_active"`
	CreatedByUserID int64     `db:"created_by_user_id" json:"created_by_user_id"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}
