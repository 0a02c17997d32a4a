// Package repo provides data access for samples, analyses and the
// append-only analysis edit history.
package repo

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/petrolia/termlab/internal/fault"
	"github.com/petrolia/termlab/internal/sample/entity"
)

// SampleRepo persists samples and their analyses. Sample creation allocates
// the per-terminal sequence under a row-level lock on the terminal; analysis
// updates write their history row in the same transaction.
type SampleRepo struct {
	db *sqlx.DB
}

func NewSampleRepo(db *sqlx.DB) *SampleRepo { return &SampleRepo{db: db} }

const sampleColumns = `id, terminal_id, code, sequence, product_name, identifier, analyzed_at,
	lab_humidity, lab_temperature, thermohygrometer_id, created_by_user_id, created_at, updated_at`

// Create inserts the sample, deriving code and sequence from the terminal's
// counter. The terminal row is locked for the duration of the transaction so
// concurrent creators allocate strictly increasing, gap-free sequences.
func (r *SampleRepo) Create(ctx context.Context, s *entity.Sample) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var term struct {
		TerminalCode *string `db:"terminal_code"`
		NextSequence int64   `db:"next_sample_sequence"`
	}
	if err := tx.GetContext(ctx, &term,
		`SELECT terminal_code, next_sample_sequence FROM company_terminals WHERE id=$1 FOR UPDATE`,
		s.TerminalID); err != nil {
		return err
	}
	if term.TerminalCode == nil {
		return fault.Conflict("terminal has no terminal code assigned")
	}

	s.Sequence = term.NextSequence
	s.Code = fmt.Sprintf("%s-%04d", *term.TerminalCode, s.Sequence)
	if s.ProductName == "" {
		s.ProductName = "Crudo"
	}

	const q = `INSERT INTO samples
	             (terminal_id, code, sequence, product_name, identifier, analyzed_at,
	              lab_humidity, lab_temperature, thermohygrometer_id, created_by_user_id)
	           VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	           RETURNING ` + sampleColumns
	if err := tx.GetContext(ctx, s, q,
		s.TerminalID, s.Code, s.Sequence, s.ProductName, s.Identifier, s.AnalyzedAt,
		s.LabHumidity, s.LabTemperature, s.ThermohygrometerID, s.CreatedByUserID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE company_terminals SET next_sample_sequence = next_sample_sequence + 1, updated_at = NOW()
		 WHERE id=$1`, s.TerminalID); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *SampleRepo) GetByID(ctx context.Context, id int64) (*entity.Sample, error) {
	const q = `SELECT ` + sampleColumns + ` FROM samples WHERE id=$1`
	var s entity.Sample
	if err := r.db.GetContext(ctx, &s, q, id); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SampleRepo) ListByTerminal(ctx context.Context, terminalID int64, limit, offset int) ([]*entity.Sample, error) {
	const q = `SELECT ` + sampleColumns + ` FROM samples
	           WHERE terminal_id=$1 ORDER BY sequence DESC LIMIT $2 OFFSET $3`
	out := []*entity.Sample{}
	if err := r.db.SelectContext(ctx, &out, q, terminalID, limit, offset); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *SampleRepo) Update(ctx context.Context, s *entity.Sample) (*entity.Sample, error) {
	const q = `UPDATE samples SET
	             product_name=$2, identifier=$3, analyzed_at=$4, lab_humidity=$5,
	             lab_temperature=$6, thermohygrometer_id=$7, updated_at=NOW()
	           WHERE id=$1
	           RETURNING ` + sampleColumns
	var out entity.Sample
	if err := r.db.GetContext(ctx, &out, q,
		s.ID, s.ProductName, s.Identifier, s.AnalyzedAt, s.LabHumidity,
		s.LabTemperature, s.ThermohygrometerID); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a sample that has never been analyzed. Analyzed samples are
// immutable records and the attempt fails.
func (r *SampleRepo) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var state struct {
		Analyzed  bool `db:"analyzed"`
		HasChilds bool `db:"has_analyses"`
	}
	const q = `SELECT s.analyzed_at IS NOT NULL AS analyzed,
	                  EXISTS (SELECT 1 FROM sample_analyses a WHERE a.sample_id = s.id) AS has_analyses
	           FROM samples s WHERE s.id=$1 FOR UPDATE`
	if err := tx.GetContext(ctx, &state, q, id); err != nil {
		return err
	}
	if state.Analyzed || state.HasChilds {
		return fault.InUse("sample")
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM samples WHERE id=$1`, id); err != nil {
		return err
	}
	return tx.Commit()
}

const analysisColumns = `id, sample_id, analysis_type, product_name, temp_obs_f, lectura_api,
	api_60f, water_value, hydrometer_id, thermometer_id, kf_equipment_id, kf_factor_avg,
	water_balance_id, water_sample_weight, water_sample_weight_unit, water_volume_consumed,
	water_volume_unit, created_at, updated_at`

func (r *SampleRepo) CreateAnalysis(ctx context.Context, a *entity.Analysis) error {
	const q = `INSERT INTO sample_analyses
	             (sample_id, analysis_type, product_name, temp_obs_f, lectura_api, api_60f,
	              water_value, hydrometer_id, thermometer_id, kf_equipment_id, kf_factor_avg,
	              water_balance_id, water_sample_weight, water_sample_weight_unit,
	              water_volume_consumed, water_volume_unit)
	           VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	           RETURNING ` + analysisColumns
	return r.db.GetContext(ctx, a, q,
		a.SampleID, a.AnalysisType, a.ProductName, a.TempObsF, a.LecturaAPI, a.API60F,
		a.WaterValue, a.HydrometerID, a.ThermometerID, a.KFEquipmentID, a.KFFactorAvg,
		a.WaterBalanceID, a.WaterSampleWeight, a.WaterSampleWeightUnit,
		a.WaterVolumeConsumed, a.WaterVolumeUnit)
}

func (r *SampleRepo) GetAnalysis(ctx context.Context, id int64) (*entity.Analysis, error) {
	const q = `SELECT ` + analysisColumns + ` FROM sample_analyses WHERE id=$1`
	var a entity.Analysis
	if err := r.db.GetContext(ctx, &a, q, id); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *SampleRepo) ListAnalyses(ctx context.Context, sampleID int64) ([]*entity.Analysis, error) {
	const q = `SELECT ` + analysisColumns + ` FROM sample_analyses WHERE sample_id=$1 ORDER BY id`
	out := []*entity.Analysis{}
	if err := r.db.SelectContext(ctx, &out, q, sampleID); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateAnalysis applies an edit under a row lock and records the field diff
// as exactly one history row — both in the same transaction. A no-op edit
// writes nothing. The apply callback mutates the freshly-read row; the diff
// callback returns nil when nothing changed.
func (r *SampleRepo) UpdateAnalysis(
	ctx context.Context,
	id, changedByUserID int64,
	apply func(*entity.Analysis) error,
	diff func(before, after *entity.Analysis) *entity.AnalysisHistory,
) (*entity.Analysis, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var before entity.Analysis
	if err := tx.GetContext(ctx, &before,
		`SELECT `+analysisColumns+` FROM sample_analyses WHERE id=$1 FOR UPDATE`, id); err != nil {
		return nil, err
	}
	after := before
	if err := apply(&after); err != nil {
		return nil, err
	}

	h := diff(&before, &after)
	if h == nil {
		if err := tx.Commit(); err != nil {
			return nil, err
		}
		return &before, nil
	}
	h.ChangedByUserID = changedByUserID

	const uq = `UPDATE sample_analyses SET
	              analysis_type=$2, product_name=$3, temp_obs_f=$4, lectura_api=$5, api_60f=$6,
	              water_value=$7, hydrometer_id=$8, thermometer_id=$9, kf_equipment_id=$10,
	              kf_factor_avg=$11, water_balance_id=$12, water_sample_weight=$13,
	              water_sample_weight_unit=$14, water_volume_consumed=$15, water_volume_unit=$16,
	              updated_at=NOW()
	            WHERE id=$1
	            RETURNING ` + analysisColumns
	var updated entity.Analysis
	if err := tx.GetContext(ctx, &updated, uq,
		after.ID, after.AnalysisType, after.ProductName, after.TempObsF, after.LecturaAPI,
		after.API60F, after.WaterValue, after.HydrometerID, after.ThermometerID,
		after.KFEquipmentID, after.KFFactorAvg, after.WaterBalanceID, after.WaterSampleWeight,
		after.WaterSampleWeightUnit, after.WaterVolumeConsumed, after.WaterVolumeUnit); err != nil {
		return nil, err
	}

	const hq = `INSERT INTO sample_analysis_history
	              (sample_id, sample_analysis_id, changed_by_user_id,
	               analysis_type_before, analysis_type_after,
	               product_name_before, product_name_after,
	               temp_obs_f_before, temp_obs_f_after,
	               lectura_api_before, lectura_api_after,
	               api_60f_before, api_60f_after,
	               water_value_before, water_value_after,
	               hydrometer_id_before, hydrometer_id_after,
	               thermometer_id_before, thermometer_id_after,
	               kf_equipment_id_before, kf_equipment_id_after,
	               kf_factor_avg_before, kf_factor_avg_after,
	               water_balance_id_before, water_balance_id_after,
	               water_sample_weight_before, water_sample_weight_after,
	               water_sample_weight_unit_before, water_sample_weight_unit_after,
	               water_volume_consumed_before, water_volume_consumed_after,
	               water_volume_unit_before, water_volume_unit_after)
	            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
	                    $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30,
	                    $31, $32, $33)`
	if _, err := tx.ExecContext(ctx, hq,
		h.SampleID, h.SampleAnalysisID, h.ChangedByUserID,
		h.AnalysisTypeBefore, h.AnalysisTypeAfter,
		h.ProductNameBefore, h.ProductNameAfter,
		h.TempObsFBefore, h.TempObsFAfter,
		h.LecturaAPIBefore, h.LecturaAPIAfter,
		h.API60FBefore, h.API60FAfter,
		h.WaterValueBefore, h.WaterValueAfter,
		h.HydrometerIDBefore, h.HydrometerIDAfter,
		h.ThermometerIDBefore, h.ThermometerIDAfter,
		h.KFEquipmentIDBefore, h.KFEquipmentIDAfter,
		h.KFFactorAvgBefore, h.KFFactorAvgAfter,
		h.WaterBalanceIDBefore, h.WaterBalanceIDAfter,
		h.WaterSampleWeightBefore, h.WaterSampleWeightAfter,
		h.WaterSampleWeightUnitBefore, h.WaterSampleWeightUnitAfter,
		h.WaterVolumeConsumedBefore, h.WaterVolumeConsumedAfter,
		h.WaterVolumeUnitBefore, h.WaterVolumeUnitAfter); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &updated, nil
}

const historyColumns = `id, sample_id, sample_analysis_id, changed_by_user_id, changed_at,
	analysis_type_before, analysis_type_after, product_name_before, product_name_after,
	temp_obs_f_before, temp_obs_f_after, lectura_api_before, lectura_api_after,
	api_60f_before, api_60f_after, water_value_before, water_value_after,
	hydrometer_id_before, hydrometer_id_after, thermometer_id_before, thermometer_id_after,
	kf_equipment_id_before, kf_equipment_id_after, kf_factor_avg_before, kf_factor_avg_after,
	water_balance_id_before, water_balance_id_after,
	water_sample_weight_before, water_sample_weight_after,
	water_sample_weight_unit_before, water_sample_weight_unit_after,
	water_volume_consumed_before, water_volume_consumed_after,
	water_volume_unit_before, water_volume_unit_after`

func (r *SampleRepo) AnalysisHistory(ctx context.Context, analysisID int64) ([]*entity.AnalysisHistory, error) {
	const q = `SELECT ` + historyColumns + ` FROM sample_analysis_history
	           WHERE sample_analysis_id=$1 ORDER BY changed_at, id`
	out := []*entity.AnalysisHistory{}
	if err := r.db.SelectContext(ctx, &out, q, analysisID); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *SampleRepo) SampleHistory(ctx context.Context, sampleID int64) ([]*entity.AnalysisHistory, error) {
	const q = `SELECT ` + historyColumns + ` FROM sample_analysis_history
	           WHERE sample_id=$1 ORDER BY changed_at, id`
	out := []*entity.AnalysisHistory{}
	if err := r.db.SelectContext(ctx, &out, q, sampleID); err != nil {
		return nil, err
	}
	return out, nil
}
