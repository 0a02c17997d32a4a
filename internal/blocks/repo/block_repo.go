package repo

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/petrolia/termlab/internal/blocks/entity"
)

// BlockRepo provides data access for the company_blocks table.
type BlockRepo struct {
	db *sqlx.DB
}

func NewBlockRepo(db *sqlx.DB) *BlockRepo { return &BlockRepo{db: db} }

const blockColumns = `id, company_id, name, is_active, created_by_user_id, created_at, updated_at`

func (r *BlockRepo) Create(ctx context.Context, b *entity.CompanyBlock) error {
	const q = `INSERT INTO company_blocks (company_id, name, is_active, created_by_user_id)
	           VALUES ($1, $2, $3, $4)
	           RETURNING ` + blockColumns
	return r.db.GetContext(ctx, b, q, b.CompanyID, b.Name, b.IsActive, b.CreatedByUserID)
}

func (r *BlockRepo) GetByID(ctx context.Context, id int64) (*entity.CompanyBlock, error) {
	const q = `SELECT ` + blockColumns + ` FROM company_blocks WHERE id=$1`
	var b entity.CompanyBlock
	if err := r.db.GetContext(ctx, &b, q, id); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BlockRepo) ListByCompany(ctx context.Context, companyID int64, limit, offset int) ([]*entity.CompanyBlock, error) {
	const q = `SELECT ` + blockColumns + ` FROM company_blocks
	           WHERE company_id=$1 ORDER BY id LIMIT $2 OFFSET $3`
	out := []*entity.CompanyBlock{}
	if err := r.db.SelectContext(ctx, &out, q, companyID, limit, offset); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *BlockRepo) Update(ctx context.Context, b *entity.CompanyBlock) (int64, error) {
	const q = `UPDATE company_blocks SET name=$2, is_active=$3, updated_at=NOW() WHERE id=$1`
	res, err := r.db.ExecContext(ctx, q, b.ID, b.Name, b.IsActive)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *BlockRepo) Delete(ctx context.Context, id int64) (int64, error) {
	const q = `DELETE FROM company_blocks WHERE id=$1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
