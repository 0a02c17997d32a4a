package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/petrolia/termlab/internal/operations/entity"
)

// ExternalRepo persists the external-analysis catalog: analysis types, the
// per-terminal cadence overrides and the performed records.
type ExternalRepo struct {
	db *sqlx.DB
}

func NewExternalRepo(db *sqlx.DB) *ExternalRepo { return &ExternalRepo{db: db} }

func (r *ExternalRepo) CreateType(ctx context.Context, t *entity.ExternalAnalysisType) error {
	const q = `INSERT INTO external_analysis_types (name, default_frequency_days)
	           VALUES ($1, $2)
	           RETURNING id, name, default_frequency_days`
	return r.db.GetContext(ctx, t, q, t.Name, t.DefaultFrequencyDays)
}

func (r *ExternalRepo) GetType(ctx context.Context, id int64) (*entity.ExternalAnalysisType, error) {
	const q = `SELECT id, name, default_frequency_days FROM external_analysis_types WHERE id=$1`
	var t entity.ExternalAnalysisType
	if err := r.db.GetContext(ctx, &t, q, id); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *ExternalRepo) ListTypes(ctx context.Context) ([]*entity.ExternalAnalysisType, error) {
	const q = `SELECT id, name, default_frequency_days FROM external_analysis_types ORDER BY name`
	out := []*entity.ExternalAnalysisType{}
	if err := r.db.SelectContext(ctx, &out, q); err != nil {
		return nil, err
	}
	return out, nil
}

// SetTerminalFrequency upserts the cadence override for one terminal.
func (r *ExternalRepo) SetTerminalFrequency(ctx context.Context, o *entity.ExternalAnalysisTerminal) error {
	const q = `INSERT INTO external_analysis_terminals (terminal_id, analysis_type_id, frequency_days)
	           VALUES ($1, $2, $3)
	           ON CONFLICT (terminal_id, analysis_type_id)
	           DO UPDATE SET frequency_days = EXCLUDED.frequency_days
	           RETURNING id, terminal_id, analysis_type_id, frequency_days`
	return r.db.GetContext(ctx, o, q, o.TerminalID, o.AnalysisTypeID, o.FrequencyDays)
}

// TerminalFrequency returns the override row for the pair, or nil when the
// terminal has none.
func (r *ExternalRepo) TerminalFrequency(ctx context.Context, terminalID, analysisTypeID int64) (*entity.ExternalAnalysisTerminal, error) {
	const q = `SELECT id, terminal_id, analysis_type_id, frequency_days
	           FROM external_analysis_terminals WHERE terminal_id=$1 AND analysis_type_id=$2`
	var o entity.ExternalAnalysisTerminal
	err := r.db.GetContext(ctx, &o, q, terminalID, analysisTypeID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

const externalRecordColumns = `id, terminal_id, analysis_type_id, analysis_company_id, performed_at,
	report_number, report_pdf_url, result_value, result_unit, result_uncertainty, method, created_at`

func (r *ExternalRepo) CreateRecord(ctx context.Context, rec *entity.ExternalAnalysisRecord) error {
	const q = `INSERT INTO external_analysis_records
	             (terminal_id, analysis_type_id, analysis_company_id, performed_at,
	              report_number, report_pdf_url, result_value, result_unit, result_uncertainty, method)
	           VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	           RETURNING ` + externalRecordColumns
	return r.db.GetContext(ctx, rec, q,
		rec.TerminalID, rec.AnalysisTypeID, rec.AnalysisCompanyID, rec.PerformedAt,
		rec.ReportNumber, rec.ReportPDFURL, rec.ResultValue, rec.ResultUnit, rec.ResultUncertainty, rec.Method)
}

func (r *ExternalRepo) ListRecords(ctx context.Context, terminalID int64, limit, offset int) ([]*entity.ExternalAnalysisRecord, error) {
	const q = `SELECT ` + externalRecordColumns + ` FROM external_analysis_records
	           WHERE terminal_id=$1 ORDER BY performed_at DESC, id DESC LIMIT $2 OFFSET $3`
	out := []*entity.ExternalAnalysisRecord{}
	if err := r.db.SelectContext(ctx, &out, q, terminalID, limit, offset); err != nil {
		return nil, err
	}
	return out, nil
}

// LastPerformedAt returns the most recent record instant for the pair, or nil
// when the analysis has never been performed.
func (r *ExternalRepo) LastPerformedAt(ctx context.Context, terminalID, analysisTypeID int64) (*time.Time, error) {
	var last *time.Time
	const q = `SELECT MAX(performed_at) FROM external_analysis_records
	           WHERE terminal_id=$1 AND analysis_type_id=$2`
	if err := r.db.GetContext(ctx, &last, q, terminalID, analysisTypeID); err != nil {
		return nil, err
	}
	return last, nil
}
