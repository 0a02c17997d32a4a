package repo

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/petrolia/termlab/internal/identity/entity"
)

// CompanyRepo provides data access for the companies table.
type CompanyRepo struct {
	db *sqlx.DB
}

func NewCompanyRepo(db *sqlx.DB) *CompanyRepo { return &CompanyRepo{db: db} }

const companyColumns = `id, name, company_type, is_active, created_at, updated_at`

func (r *CompanyRepo) Create(ctx context.Context, c *entity.Company) error {
	const q = `INSERT INTO companies (name, company_type, is_active)
	           VALUES ($1, $2, $3)
	           RETURNING ` + companyColumns
	return r.db.GetContext(ctx, c, q, c.Name, c.CompanyType, c.IsActive)
}

func (r *CompanyRepo) GetByID(ctx context.Context, id int64) (*entity.Company, error) {
	const q = `SELECT ` + companyColumns + ` FROM companies WHERE id=$1`
	var c entity.Company
	if err := r.db.GetContext(ctx, &c, q, id); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CompanyRepo) List(ctx context.Context, limit, offset int) ([]*entity.Company, error) {
	const q = `SELECT ` + companyColumns + ` FROM companies ORDER BY id LIMIT $1 OFFSET $2`
	out := []*entity.Company{}
	if err := r.db.SelectContext(ctx, &out, q, limit, offset); err != nil {
		return nil, err
	}
	return out, nil
}

// Update rewrites the mutable columns and returns the affected row count.
func (r *CompanyRepo) Update(ctx context.Context, c *entity.Company) (int64, error) {
	const q = `UPDATE companies SET name=$2, company_type=$3, is_active=$4, updated_at=NOW()
	           WHERE id=$1`
	res, err := r.db.ExecContext(ctx, q, c.ID, c.Name, c.CompanyType, c.IsActive)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
