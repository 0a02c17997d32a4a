// Package entity holds the operational event rows: readings, inspections,
// verifications, calibrations and external analyses.
package entity

import (
	"time"

	equipment "github.com/petrolia/termlab/internal/equipment/entity"
)

type Reading struct {
	ID              int64     `db:"id" json:"id"`
	EquipmentID     int64     `db:"equipment_id" json:"equipment_id"`
	ValueCelsius    float64   `db:"value_celsius" json:"value_celsius"`
	MeasuredAt      time.Time `db:"measured_at" json:"measured_at"`
	CreatedByUserID int64     `db:"created_by_user_id" json:"created_by_user_id"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

type Inspection struct {
	ID              int64     `db:"id" json:"id"`
	EquipmentID     int64     `db:"equipment_id" json:"equipment_id"`
	InspectedAt     time.Time `db:"inspected_at" json:"inspected_at"`
	Notes           *string   `db:"notes" json:"notes"`
	IsOK            *bool     `db:"is_ok" json:"is_ok"`
	CreatedByUserID int64     `db:"created_by_user_id" json:"created_by_user_id"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

type Verification struct {
	ID              int64     `db:"id" json:"id"`
	EquipmentID     int64     `db:"equipment_id" json:"equipment_id"`
	VerifiedAt      time.Time `db:"verified_at" json:"verified_at"`
	CreatedByUserID int64     `db:"created_by_user_id" json:"created_by_user_id"`
	Notes           *string   `db:"notes" json:"notes"`
	IsOK            *bool     `db:"is_ok" json:"is_ok"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

type VerificationResponse struct {
	ID                 int64                  `db:"id" json:"id"`
	VerificationID     int64                  `db:"verification_id" json:"verification_id"`
	VerificationItemID int64                  `db:"verification_item_id" json:"verification_item_id"`
	ResponseType       equipment.ResponseType `db:"response_type" json:"response_type"`
	ValueBool          *bool                  `db:"value_bool" json:"value_bool"`
	ValueText          *string                `db:"value_text" json:"value_text"`
	ValueNumber        *float64               `db:"value_number" json:"value_number"`
	IsOK               *bool                  `db:"is_ok" json:"is_ok"`
}

type Calibration struct {
	ID                   int64     `db:"id" json:"id"`
	EquipmentID          int64     `db:"equipment_id" json:"equipment_id"`
	CalibratedAt         time.Time `db:"calibrated_at" json:"calibrated_at"`
	CreatedByUserID      int64     `db:"created_by_user_id" json:"created_by_user_id"`
	CalibrationCompanyID *int64    `db:"calibration_company_id" json:"calibration_company_id"`
	CertificateNumber    string    `db:"certificate_number" json:"certificate_number"`
	CertificatePDFURL    *string   `db:"certificate_pdf_url" json:"certificate_pdf_url"`
	Notes                *string   `db:"notes" json:"notes"`
	CreatedAt            time.Time `db:"created_at" json:"created_at"`
}

type CalibrationResult struct {
	ID               int64    `db:"id" json:"id"`
	CalibrationID    int64    `db:"calibration_id" json:"calibration_id"`
	PointLabel       *string  `db:"point_label" json:"point_label"`
	ReferenceValue   *float64 `db:"reference_value" json:"reference_value"`
	MeasuredValue    *float64 `db:"measured_value" json:"measured_value"`
	Unit             *string  `db:"unit" json:"unit"`
	ErrorValue       *float64 `db:"error_value" json:"error_value"`
	ToleranceValue   *float64 `db:"tolerance_value" json:"tolerance_value"`
	IsOK             *bool    `db:"is_ok" json:"is_ok"`
	VolumeValue      *float64 `db:"volume_value" json:"volume_value"`
	SystematicError  *float64 `db:"systematic_error" json:"systematic_error"`
	SystematicEMP    *float64 `db:"systematic_emp" json:"systematic_emp"`
	RandomError      *float64 `db:"random_error" json:"random_error"`
	RandomEMP        *float64 `db:"random_emp" json:"random_emp"`
	UncertaintyValue *float64 `db:"uncertainty_value" json:"uncertainty_value"`
	KValue           *float64 `db:"k_value" json:"k_value"`
}

type ExternalAnalysisType struct {
	ID                   int64  `db:"id" json:"id"`
	Name                 string `db:"name" json:"name"`
	DefaultFrequencyDays int    `db:"default_frequency_days" json:"default_frequency_days"`
}

// ExternalAnalysisTerminal overrides the default cadence for one terminal.
// FrequencyDays of zero means "inherit the type default".
type ExternalAnalysisTerminal struct {
	ID             int64 `db:"id" json:"id"`
	TerminalID     int64 `db:"terminal_id" json:"terminal_id"`
	AnalysisTypeID int64 `db:"analysis_type_id" json:"analysis_type_id"`
	FrequencyDays  int   `db:"frequency_days" json:"frequency_days"`
}

type ExternalAnalysisRecord struct {
	ID                int64     `db:"id" json:"id"`
	TerminalID        int64     `db:"terminal_id" json:"terminal_id"`
	AnalysisTypeID    int64     `db:"analysis_type_id" json:"analysis_type_id"`
	AnalysisCompanyID *int64    `db:"analysis_company_id" json:"analysis_company_id"`
	PerformedAt       time.Time `db:"performed_at" json:"performed_at"`
	ReportNumber      *string   `db:"report_number" json:"report_number"`
	ReportPDFURL      *string   `db:"report_pdf_url" json:"report_pdf_url"`
	ResultValue       *float64  `db:"result_value" json:"result_value"`
	ResultUnit        *string   `db:"result_unit" json:"result_unit"`
	ResultUncertainty *float64  `db:"result_uncertainty" json:"result_uncertainty"`
	Method            *string   `db:"method" json:"method"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
}

// StatusProjection is the derived calibration/verification status of one
// equipment row. It is computed on demand, never persisted.
type StatusProjection struct {
	EquipmentID         int64      `json:"equipment_id"`
	LastCalibratedAt    *time.Time `json:"last_calibrated_at"`
	LastVerifiedAt      *time.Time `json:"last_verified_at"`
	LastInspectedAt     *time.Time `json:"last_inspected_at"`
	NextInspectionDueAt *time.Time `json:"next_inspection_due_at"`
	OverallIsOK         *bool      `json:"overall_is_ok"`
}
