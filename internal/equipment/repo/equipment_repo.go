package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/petrolia/termlab/internal/equipment/entity"
	"github.com/petrolia/termlab/internal/fault"
)

// EquipmentRepo provides data access for equipment rows, their component
// serials and measure specs, and the two append-only history tables. Every
// mutation that touches a history interval locks the equipment row first so
// only one concurrent type/terminal change can succeed.
type EquipmentRepo struct {
	db *sqlx.DB
}

func NewEquipmentRepo(db *sqlx.DB) *EquipmentRepo { return &EquipmentRepo{db: db} }

const equipmentColumns = `id, equipment_type_id, terminal_id, created_by_user_id, internal_code,
	status, inspection_days_override, weight_class, nominal_mass_value, nominal_mass_unit,
	emp_value, created_at, updated_at`

// Create inserts the equipment row, its serials and specs, and opens the
// initial type and terminal history intervals at created_at — all in one
// transaction.
func (r *EquipmentRepo) Create(ctx context.Context, e *entity.Equipment, serials []entity.ComponentSerial, specs []entity.MeasureSpec) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const q = `INSERT INTO equipment
	             (equipment_type_id, terminal_id, created_by_user_id, internal_code, status,
	              inspection_days_override, weight_class, nominal_mass_value, nominal_mass_unit, emp_value)
	           VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	           RETURNING ` + equipmentColumns
	if err := tx.GetContext(ctx, e, q,
		e.EquipmentTypeID, e.TerminalID, e.CreatedByUserID, e.InternalCode, e.Status,
		e.InspectionDaysOverride, e.WeightClass, e.NominalMassValue, e.NominalMassUnit, e.EMPValue); err != nil {
		return err
	}
	for _, s := range serials {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO equipment_component_serials (equipment_id, component_name, serial)
			 VALUES ($1, $2, $3)`, e.ID, s.ComponentName, s.Serial); err != nil {
			return err
		}
	}
	for _, sp := range specs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO equipment_measure_specs (equipment_id, measure, min_value, max_value, resolution)
			 VALUES ($1, $2, $3, $4, $5)`,
			e.ID, sp.Measure, sp.MinValue, sp.MaxValue, sp.Resolution); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO equipment_type_history (equipment_id, equipment_type_id, started_at, changed_by_user_id)
		 VALUES ($1, $2, $3, $4)`,
		e.ID, e.EquipmentTypeID, e.CreatedAt, e.CreatedByUserID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO equipment_terminal_history (equipment_id, terminal_id, started_at, changed_by_user_id)
		 VALUES ($1, $2, $3, $4)`,
		e.ID, e.TerminalID, e.CreatedAt, e.CreatedByUserID); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *EquipmentRepo) GetByID(ctx context.Context, id int64) (*entity.Equipment, error) {
	const q = `SELECT ` + equipmentColumns + ` FROM equipment WHERE id=$1`
	var e entity.Equipment
	if err := r.db.GetContext(ctx, &e, q, id); err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *EquipmentRepo) ListByTerminal(ctx context.Context, terminalID int64, limit, offset int) ([]*entity.Equipment, error) {
	const q = `SELECT ` + equipmentColumns + ` FROM equipment
	           WHERE terminal_id=$1 ORDER BY id LIMIT $2 OFFSET $3`
	out := []*entity.Equipment{}
	if err := r.db.SelectContext(ctx, &out, q, terminalID, limit, offset); err != nil {
		return nil, err
	}
	return out, nil
}

// Update rewrites the mutable scalar columns. Type and terminal moves go
// through ChangeType / ChangeTerminal so history stays consistent.
func (r *EquipmentRepo) Update(ctx context.Context, e *entity.Equipment) (int64, error) {
	const q = `UPDATE equipment SET internal_code=$2, status=$3, inspection_days_override=$4,
	                                weight_class=$5, nominal_mass_value=$6, nominal_mass_unit=$7,
	                                emp_value=$8, updated_at=NOW()
	           WHERE id=$1`
	res, err := r.db.ExecContext(ctx, q,
		e.ID, e.InternalCode, e.Status, e.InspectionDaysOverride,
		e.WeightClass, e.NominalMassValue, e.NominalMassUnit, e.EMPValue)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ChangeType closes the open type-history interval and opens a new one in
// the same transaction, under a row lock on the equipment. Returns false
// without writing when the type is unchanged.
func (r *EquipmentRepo) ChangeType(ctx context.Context, equipmentID, newTypeID, changedBy int64, at time.Time) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	var currentTypeID int64
	if err := tx.GetContext(ctx, &currentTypeID,
		`SELECT equipment_type_id FROM equipment WHERE id=$1 FOR UPDATE`, equipmentID); err != nil {
		return false, err
	}
	if currentTypeID == newTypeID {
		return false, tx.Commit()
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE equipment SET equipment_type_id=$2, updated_at=NOW() WHERE id=$1`,
		equipmentID, newTypeID); err != nil {
		return false, err
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE equipment_type_history SET ended_at=$2
		 WHERE equipment_id=$1 AND ended_at IS NULL`, equipmentID, at)
	if err != nil {
		return false, err
	}
	if n, _ := res.RowsAffected(); n != 1 {
		return false, fault.Conflict("equipment type history has no open interval")
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO equipment_type_history (equipment_id, equipment_type_id, started_at, changed_by_user_id)
		 VALUES ($1, $2, $3, $4)`, equipmentID, newTypeID, at, changedBy); err != nil {
		return false, err
	}
	return true, tx.Commit()
}

// ChangeTerminal is the location counterpart of ChangeType.
func (r *EquipmentRepo) ChangeTerminal(ctx context.Context, equipmentID, newTerminalID, changedBy int64, at time.Time) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	var currentTerminalID int64
	if err := tx.GetContext(ctx, &currentTerminalID,
		`SELECT terminal_id FROM equipment WHERE id=$1 FOR UPDATE`, equipmentID); err != nil {
		return false, err
	}
	if currentTerminalID == newTerminalID {
		return false, tx.Commit()
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE equipment SET terminal_id=$2, updated_at=NOW() WHERE id=$1`,
		equipmentID, newTerminalID); err != nil {
		return false, err
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE equipment_terminal_history SET ended_at=$2
		 WHERE equipment_id=$1 AND ended_at IS NULL`, equipmentID, at)
	if err != nil {
		return false, err
	}
	if n, _ := res.RowsAffected(); n != 1 {
		return false, fault.Conflict("equipment terminal history has no open interval")
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO equipment_terminal_history (equipment_id, terminal_id, started_at, changed_by_user_id)
		 VALUES ($1, $2, $3, $4)`, equipmentID, newTerminalID, at, changedBy); err != nil {
		return false, err
	}
	return true, tx.Commit()
}

func (r *EquipmentRepo) TypeHistory(ctx context.Context, equipmentID int64) ([]*entity.TypeHistory, error) {
	const q = `SELECT id, equipment_id, equipment_type_id, started_at, ended_at, changed_by_user_id
	           FROM equipment_type_history WHERE equipment_id=$1 ORDER BY started_at`
	out := []*entity.TypeHistory{}
	if err := r.db.SelectContext(ctx, &out, q, equipmentID); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *EquipmentRepo) TerminalHistory(ctx context.Context, equipmentID int64) ([]*entity.TerminalHistory, error) {
	const q = `SELECT id, equipment_id, terminal_id, started_at, ended_at, changed_by_user_id
	           FROM equipment_terminal_history WHERE equipment_id=$1 ORDER BY started_at`
	out := []*entity.TerminalHistory{}
	if err := r.db.SelectContext(ctx, &out, q, equipmentID); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *EquipmentRepo) Serials(ctx context.Context, equipmentID int64) ([]entity.ComponentSerial, error) {
	const q = `SELECT id, equipment_id, component_name, serial
	           FROM equipment_component_serials WHERE equipment_id=$1 ORDER BY id`
	out := []entity.ComponentSerial{}
	if err := r.db.SelectContext(ctx, &out, q, equipmentID); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *EquipmentRepo) Specs(ctx context.Context, equipmentID int64) ([]entity.MeasureSpec, error) {
	const q = `SELECT id, equipment_id, measure, min_value, max_value, resolution
	           FROM equipment_measure_specs WHERE equipment_id=$1 ORDER BY measure`
	out := []entity.MeasureSpec{}
	if err := r.db.SelectContext(ctx, &out, q, equipmentID); err != nil {
		return nil, err
	}
	return out, nil
}

// Spec returns the spec for one measure, or nil when none is declared.
func (r *EquipmentRepo) Spec(ctx context.Context, equipmentID int64, measure entity.Measure) (*entity.MeasureSpec, error) {
	const q = `SELECT id, equipment_id, measure, min_value, max_value, resolution
	           FROM equipment_measure_specs WHERE equipment_id=$1 AND measure=$2`
	var sp entity.MeasureSpec
	if err := r.db.GetContext(ctx, &sp, q, equipmentID, measure); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &sp, nil
}
