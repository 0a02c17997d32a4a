// Package repo provides data access for the operational event tables.
package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/petrolia/termlab/internal/operations/entity"
)

// EventRepo persists readings, inspections, verifications and calibrations.
// Child rows (responses, results) are written in the same transaction as the
// parent so a failure never leaves partial events behind.
type EventRepo struct {
	db *sqlx.DB
}

func NewEventRepo(db *sqlx.DB) *EventRepo { return &EventRepo{db: db} }

func (r *EventRepo) CreateReading(ctx context.Context, rd *entity.Reading) error {
	const q = `INSERT INTO equipment_readings (equipment_id, value_celsius, measured_at, created_by_user_id)
	           VALUES ($1, $2, $3, $4)
	           RETURNING id, equipment_id, value_celsius, measured_at, created_by_user_id, created_at`
	return r.db.GetContext(ctx, rd, q, rd.EquipmentID, rd.ValueCelsius, rd.MeasuredAt, rd.CreatedByUserID)
}

func (r *EventRepo) ListReadings(ctx context.Context, equipmentID int64, limit, offset int) ([]*entity.Reading, error) {
	const q = `SELECT id, equipment_id, value_celsius, measured_at, created_by_user_id, created_at
	           FROM equipment_readings WHERE equipment_id=$1
	           ORDER BY measured_at DESC, id DESC LIMIT $2 OFFSET $3`
	out := []*entity.Reading{}
	if err := r.db.SelectContext(ctx, &out, q, equipmentID, limit, offset); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *EventRepo) CreateInspection(ctx context.Context, in *entity.Inspection) error {
	const q = `INSERT INTO equipment_inspections (equipment_id, inspected_at, notes, is_ok, created_by_user_id)
	           VALUES ($1, $2, $3, $4, $5)
	           RETURNING id, equipment_id, inspected_at, notes, is_ok, created_by_user_id, created_at`
	return r.db.GetContext(ctx, in, q, in.EquipmentID, in.InspectedAt, in.Notes, in.IsOK, in.CreatedByUserID)
}

func (r *EventRepo) ListInspections(ctx context.Context, equipmentID int64, limit, offset int) ([]*entity.Inspection, error) {
	const q = `SELECT id, equipment_id, inspected_at, notes, is_ok, created_by_user_id, created_at
	           FROM equipment_inspections WHERE equipment_id=$1
	           ORDER BY inspected_at DESC, id DESC LIMIT $2 OFFSET $3`
	out := []*entity.Inspection{}
	if err := r.db.SelectContext(ctx, &out, q, equipmentID, limit, offset); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateVerification writes the verification and all its responses in one
// transaction. Callers evaluate is_ok flags before handing the rows over.
func (r *EventRepo) CreateVerification(ctx context.Context, v *entity.Verification, responses []*entity.VerificationResponse) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const q = `INSERT INTO equipment_verifications (equipment_id, verified_at, created_by_user_id, notes, is_ok)
	           VALUES ($1, $2, $3, $4, $5)
	           RETURNING id, equipment_id, verified_at, created_by_user_id, notes, is_ok, created_at`
	if err := tx.GetContext(ctx, v, q, v.EquipmentID, v.VerifiedAt, v.CreatedByUserID, v.Notes, v.IsOK); err != nil {
		return err
	}
	for _, resp := range responses {
		resp.VerificationID = v.ID
		const rq = `INSERT INTO equipment_verification_responses
		              (verification_id, verification_item_id, response_type, value_bool, value_text, value_number, is_ok)
		            VALUES ($1, $2, $3, $4, $5, $6, $7)
		            RETURNING id`
		if err := tx.GetContext(ctx, &resp.ID, rq,
			resp.VerificationID, resp.VerificationItemID, resp.ResponseType,
			resp.ValueBool, resp.ValueText, resp.ValueNumber, resp.IsOK); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *EventRepo) GetVerification(ctx context.Context, id int64) (*entity.Verification, error) {
	const q = `SELECT id, equipment_id, verified_at, created_by_user_id, notes, is_ok, created_at
	           FROM equipment_verifications WHERE id=$1`
	var v entity.Verification
	if err := r.db.GetContext(ctx, &v, q, id); err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *EventRepo) ListVerifications(ctx context.Context, equipmentID int64, limit, offset int) ([]*entity.Verification, error) {
	const q = `SELECT id, equipment_id, verified_at, created_by_user_id, notes, is_ok, created_at
	           FROM equipment_verifications WHERE equipment_id=$1
	           ORDER BY verified_at DESC, id DESC LIMIT $2 OFFSET $3`
	out := []*entity.Verification{}
	if err := r.db.SelectContext(ctx, &out, q, equipmentID, limit, offset); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *EventRepo) VerificationResponses(ctx context.Context, verificationID int64) ([]*entity.VerificationResponse, error) {
	const q = `SELECT id, verification_id, verification_item_id, response_type, value_bool, value_text, value_number, is_ok
	           FROM equipment_verification_responses WHERE verification_id=$1 ORDER BY id`
	out := []*entity.VerificationResponse{}
	if err := r.db.SelectContext(ctx, &out, q, verificationID); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateCalibration writes the calibration and all its result points in one
// transaction.
func (r *EventRepo) CreateCalibration(ctx context.Context, c *entity.Calibration, results []*entity.CalibrationResult) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const q = `INSERT INTO equipment_calibrations
	             (equipment_id, calibrated_at, created_by_user_id, calibration_company_id,
	              certificate_number, certificate_pdf_url, notes)
	           VALUES ($1, $2, $3, $4, $5, $6, $7)
	           RETURNING id, equipment_id, calibrated_at, created_by_user_id, calibration_company_id,
	                     certificate_number, certificate_pdf_url, notes, created_at`
	if err := tx.GetContext(ctx, c, q,
		c.EquipmentID, c.CalibratedAt, c.CreatedByUserID, c.CalibrationCompanyID,
		c.CertificateNumber, c.CertificatePDFURL, c.Notes); err != nil {
		return err
	}
	for _, res := range results {
		res.CalibrationID = c.ID
		const rq = `INSERT INTO equipment_calibration_results
		              (calibration_id, point_label, reference_value, measured_value, unit,
		               error_value, tolerance_value, is_ok, volume_value,
		               systematic_error, systematic_emp, random_error, random_emp,
		               uncertainty_value, k_value)
		            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		            RETURNING id`
		if err := tx.GetContext(ctx, &res.ID, rq,
			res.CalibrationID, res.PointLabel, res.ReferenceValue, res.MeasuredValue, res.Unit,
			res.ErrorValue, res.ToleranceValue, res.IsOK, res.VolumeValue,
			res.SystematicError, res.SystematicEMP, res.RandomError, res.RandomEMP,
			res.UncertaintyValue, res.KValue); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *EventRepo) GetCalibration(ctx context.Context, id int64) (*entity.Calibration, error) {
	const q = `SELECT id, equipment_id, calibrated_at, created_by_user_id, calibration_company_id,
	                  certificate_number, certificate_pdf_url, notes, created_at
	           FROM equipment_calibrations WHERE id=$1`
	var c entity.Calibration
	if err := r.db.GetContext(ctx, &c, q, id); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *EventRepo) ListCalibrations(ctx context.Context, equipmentID int64, limit, offset int) ([]*entity.Calibration, error) {
	const q = `SELECT id, equipment_id, calibrated_at, created_by_user_id, calibration_company_id,
	                  certificate_number, certificate_pdf_url, notes, created_at
	           FROM equipment_calibrations WHERE equipment_id=$1
	           ORDER BY calibrated_at DESC, id DESC LIMIT $2 OFFSET $3`
	out := []*entity.Calibration{}
	if err := r.db.SelectContext(ctx, &out, q, equipmentID, limit, offset); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *EventRepo) CalibrationResults(ctx context.Context, calibrationID int64) ([]*entity.CalibrationResult, error) {
	const q = `SELECT id, calibration_id, point_label, reference_value, measured_value, unit,
	                  error_value, tolerance_value, is_ok, volume_value,
	                  systematic_error, systematic_emp, random_error, random_emp,
	                  uncertainty_value, k_value
	           FROM equipment_calibration_results WHERE calibration_id=$1 ORDER BY id`
	out := []*entity.CalibrationResult{}
	if err := r.db.SelectContext(ctx, &out, q, calibrationID); err != nil {
		return nil, err
	}
	return out, nil
}

// LatestCalibration returns the most recent calibration for the equipment, or
// nil when none exists.
func (r *EventRepo) LatestCalibration(ctx context.Context, equipmentID int64) (*entity.Calibration, error) {
	const q = `SELECT id, equipment_id, calibrated_at, created_by_user_id, calibration_company_id,
	                  certificate_number, certificate_pdf_url, notes, created_at
	           FROM equipment_calibrations WHERE equipment_id=$1
	           ORDER BY calibrated_at DESC, id DESC LIMIT 1`
	var c entity.Calibration
	err := r.db.GetContext(ctx, &c, q, equipmentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// LastEventTimes returns the newest calibration, verification and inspection
// instants for the equipment. Each is nil when no such event exists.
func (r *EventRepo) LastEventTimes(ctx context.Context, equipmentID int64) (calibrated, verified, inspected *time.Time, err error) {
	var row struct {
		Calibrated *time.Time `db:"calibrated"`
		Verified   *time.Time `db:"verified"`
		Inspected  *time.Time `db:"inspected"`
	}
	const q = `SELECT
	             (SELECT MAX(calibrated_at) FROM equipment_calibrations WHERE equipment_id=$1) AS calibrated,
	             (SELECT MAX(verified_at)   FROM equipment_verifications WHERE equipment_id=$1) AS verified,
	             (SELECT MAX(inspected_at)  FROM equipment_inspections  WHERE equipment_id=$1) AS inspected`
	if err := r.db.GetContext(ctx, &row, q, equipmentID); err != nil {
		return nil, nil, nil, err
	}
	return row.Calibrated, row.Verified, row.Inspected, nil
}
