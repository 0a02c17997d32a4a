package repo

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/petrolia/termlab/internal/identity/entity"
)

// TerminalRepo provides data access for the company_terminals table.
type TerminalRepo struct {
	db *sqlx.DB
}

func NewTerminalRepo(db *sqlx.DB) *TerminalRepo { return &TerminalRepo{db: db} }

const terminalColumns = `id, company_id, name, terminal_code, has_lab, lab_terminal_id,
	next_sample_sequence, created_at, updated_at`

func (r *TerminalRepo) Create(ctx context.Context, t *entity.CompanyTerminal) error {
	const q = `INSERT INTO company_terminals (company_id, name, terminal_code, has_lab, lab_terminal_id)
	           VALUES ($1, $2, $3, $4, $5)
	           RETURNING ` + terminalColumns
	return r.db.GetContext(ctx, t, q, t.CompanyID, t.Name, t.TerminalCode, t.HasLab, t.LabTerminalID)
}

func (r *TerminalRepo) GetByID(ctx context.Context, id int64) (*entity.CompanyTerminal, error) {
	const q = `SELECT ` + terminalColumns + ` FROM company_terminals WHERE id=$1`
	var t entity.CompanyTerminal
	if err := r.db.GetContext(ctx, &t, q, id); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TerminalRepo) ListByCompany(ctx context.Context, companyID int64, limit, offset int) ([]*entity.CompanyTerminal, error) {
	const q = `SELECT ` + terminalColumns + ` FROM company_terminals
	           WHERE company_id=$1 ORDER BY id LIMIT $2 OFFSET $3`
	out := []*entity.CompanyTerminal{}
	if err := r.db.SelectContext(ctx, &out, q, companyID, limit, offset); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *TerminalRepo) Update(ctx context.Context, t *entity.CompanyTerminal) (int64, error) {
	const q = `UPDATE company_terminals SET name=$2, terminal_code=$3, has_lab=$4,
	                                        lab_terminal_id=$5, updated_at=NOW()
	           WHERE id=$1`
	res, err := r.db.ExecContext(ctx, q, t.ID, t.Name, t.TerminalCode, t.HasLab, t.LabTerminalID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CodesInUse returns every non-null terminal code of the company, for the
// auto-assignment collision scan.
func (r *TerminalRepo) CodesInUse(ctx context.Context, companyID int64) (map[string]bool, error) {
	const q = `SELECT terminal_code FROM company_terminals
	           WHERE company_id=$1 AND terminal_code IS NOT NULL`
	var codes []string
	if err := r.db.SelectContext(ctx, &codes, q, companyID); err != nil {
		return nil, err
	}
	used := make(map[string]bool, len(codes))
	for _, c := range codes {
		used[c] = true
	}
	return used, nil
}

// SetCode assigns a terminal code; the partial unique constraint on
// (company_id, terminal_code) makes concurrent winners explicit.
func (r *TerminalRepo) SetCode(ctx context.Context, id int64, code string) error {
	const q = `UPDATE company_terminals SET terminal_code=$2, updated_at=NOW() WHERE id=$1`
	_, err := r.db.ExecContext(ctx, q, id, code)
	return err
}
