package repo

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/petrolia/termlab/internal/equipment/entity"
)

// TypeRepo provides data access for equipment types and their children:
// declared measures, per-measure maximum errors and verification items.
type TypeRepo struct {
	db *sqlx.DB
}

func NewTypeRepo(db *sqlx.DB) *TypeRepo { return &TypeRepo{db: db} }

const typeColumns = `id, name, role, observations, inspection_days, created_at, updated_at`

// Create inserts the type row together with its measures and max errors in
// one transaction.
func (r *TypeRepo) Create(ctx context.Context, t *entity.EquipmentType, measures []entity.Measure, maxErrors []entity.TypeMaxError) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const q = `INSERT INTO equipment_types (name, role, observations, inspection_days)
	           VALUES ($1, $2, $3, $4)
	           RETURNING ` + typeColumns
	if err := tx.GetContext(ctx, t, q, t.Name, t.Role, t.Observations, t.InspectionDays); err != nil {
		return err
	}
	for _, m := range measures {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO equipment_type_measures (equipment_type_id, measure) VALUES ($1, $2)`,
			t.ID, m); err != nil {
			return err
		}
	}
	for _, me := range maxErrors {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO equipment_type_max_errors (equipment_type_id, measure, max_error_value)
			 VALUES ($1, $2, $3)`,
			t.ID, me.Measure, me.MaxErrorValue); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *TypeRepo) GetByID(ctx context.Context, id int64) (*entity.EquipmentType, error) {
	const q = `SELECT ` + typeColumns + ` FROM equipment_types WHERE id=$1`
	var t entity.EquipmentType
	if err := r.db.GetContext(ctx, &t, q, id); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TypeRepo) List(ctx context.Context, limit, offset int) ([]*entity.EquipmentType, error) {
	const q = `SELECT ` + typeColumns + ` FROM equipment_types ORDER BY name, role LIMIT $1 OFFSET $2`
	out := []*entity.EquipmentType{}
	if err := r.db.SelectContext(ctx, &out, q, limit, offset); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *TypeRepo) Update(ctx context.Context, t *entity.EquipmentType) (int64, error) {
	const q = `UPDATE equipment_types SET name=$2, role=$3, observations=$4,
	                                      inspection_days=$5, updated_at=NOW()
	           WHERE id=$1`
	res, err := r.db.ExecContext(ctx, q, t.ID, t.Name, t.Role, t.Observations, t.InspectionDays)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Measures lists the measures an equipment type declares.
func (r *TypeRepo) Measures(ctx context.Context, typeID int64) ([]entity.Measure, error) {
	const q = `SELECT measure FROM equipment_type_measures WHERE equipment_type_id=$1 ORDER BY measure`
	out := []entity.Measure{}
	if err := r.db.SelectContext(ctx, &out, q, typeID); err != nil {
		return nil, err
	}
	return out, nil
}

// ReplaceMeasures rewrites the declared-measure set atomically.
func (r *TypeRepo) ReplaceMeasures(ctx context.Context, typeID int64, measures []entity.Measure) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM equipment_type_measures WHERE equipment_type_id=$1`, typeID); err != nil {
		return err
	}
	for _, m := range measures {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO equipment_type_measures (equipment_type_id, measure) VALUES ($1, $2)`,
			typeID, m); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *TypeRepo) MaxErrors(ctx context.Context, typeID int64) ([]entity.TypeMaxError, error) {
	const q = `SELECT id, equipment_type_id, measure, max_error_value
	           FROM equipment_type_max_errors WHERE equipment_type_id=$1 ORDER BY measure`
	out := []entity.TypeMaxError{}
	if err := r.db.SelectContext(ctx, &out, q, typeID); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *TypeRepo) UpsertMaxError(ctx context.Context, me *entity.TypeMaxError) error {
	const q = `INSERT INTO equipment_type_max_errors (equipment_type_id, measure, max_error_value)
	           VALUES ($1, $2, $3)
	           ON CONFLICT (equipment_type_id, measure)
	           DO UPDATE SET max_error_value = EXCLUDED.max_error_value
	           RETURNING id`
	return r.db.GetContext(ctx, &me.ID, q, me.EquipmentTypeID, me.Measure, me.MaxErrorValue)
}

const verificationItemColumns = `id, equipment_type_id, item, response_type, is_required, sort_order,
	expected_bool, expected_text_options, expected_number, expected_number_min, expected_number_max`

func (r *TypeRepo) AddVerificationItem(ctx context.Context, it *entity.VerificationItem) error {
	const q = `INSERT INTO equipment_type_verification_items
	             (equipment_type_id, item, response_type, is_required, sort_order,
	              expected_bool, expected_text_options, expected_number,
	              expected_number_min, expected_number_max)
	           VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	           RETURNING ` + verificationItemColumns
	return r.db.GetContext(ctx, it, q,
		it.EquipmentTypeID, it.Item, it.ResponseType, it.IsRequired, it.SortOrder,
		it.ExpectedBool, it.ExpectedTextOptions, it.ExpectedNumber,
		it.ExpectedNumberMin, it.ExpectedNumberMax)
}

// VerificationItems lists the checklist in its declared order.
func (r *TypeRepo) VerificationItems(ctx context.Context, typeID int64) ([]*entity.VerificationItem, error) {
	const q = `SELECT ` + verificationItemColumns + `
	           FROM equipment_type_verification_items
	           WHERE equipment_type_id=$1 ORDER BY sort_order, id`
	out := []*entity.VerificationItem{}
	if err := r.db.SelectContext(ctx, &out, q, typeID); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *TypeRepo) DeleteVerificationItem(ctx context.Context, id int64) (int64, error) {
	const q = `DELETE FROM equipment_type_verification_items WHERE id=$1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
