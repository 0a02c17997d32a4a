// Package entity defines the equipment catalog rows and the controlled
// vocabularies shared by the operational-event and sample models.
package entity

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Status is the equipment_status enum. Values are only ever added
// (needs_review arrived after the initial set); none are removed.
type Status string

const (
	StatusStored      Status = "stored"
	StatusInUse       Status = "in_use"
	StatusMaintenance Status = "maintenance"
	StatusLost        Status = "lost"
	StatusDisposed    Status = "disposed"
	StatusUnknown     Status = "unknown"
	StatusNeedsReview Status = "needs_review"
)

func (s Status) Valid() bool {
	switch s {
	case StatusStored, StatusInUse, StatusMaintenance, StatusLost,
		StatusDisposed, StatusUnknown, StatusNeedsReview:
		return true
	}
	return false
}

// Measure is the measure_type enum. weight, api, percent_pv and
// relative_humidity are later additions.
type Measure string

const (
	MeasureTemperature      Measure = "temperature"
	MeasurePressure         Measure = "pressure"
	MeasureLength           Measure = "length"
	MeasureWeight           Measure = "weight"
	MeasureAPI              Measure = "api"
	MeasurePercentPV        Measure = "percent_pv"
	MeasureRelativeHumidity Measure = "relative_humidity"
)

func (m Measure) Valid() bool {
	switch m {
	case MeasureTemperature, MeasurePressure, MeasureLength, MeasureWeight,
		MeasureAPI, MeasurePercentPV, MeasureRelativeHumidity:
		return true
	}
	return false
}

// Role is the equipment_role enum: the traceability tier of an instrument.
type Role string

const (
	RoleReference Role = "reference"
	RoleWorking   Role = "working"
)

func (r Role) Valid() bool { return r == RoleReference || r == RoleWorking }

// ResponseType is the response_type enum for verification items.
type ResponseType string

const (
	ResponseBool   ResponseType = "boolean"
	ResponseText   ResponseType = "text"
	ResponseNumber ResponseType = "number"
)

func (t ResponseType) Valid() bool {
	return t == ResponseBool || t == ResponseText || t == ResponseNumber
}

// MassUnit is the mass_unit enum for nominal masses and sample weights.
type MassUnit string

const (
	UnitGram      MassUnit = "g"
	UnitKilogram  MassUnit = "kg"
	UnitMilligram MassUnit = "mg"
	UnitPound     MassUnit = "lb"
)

func (u MassUnit) Valid() bool {
	switch u {
	case UnitGram, UnitKilogram, UnitMilligram, UnitPound:
		return true
	}
	return false
}

// EquipmentType classifies instruments: (name, role) is unique, so the same
// model can exist once as a reference standard and once as working
// equipment. InspectionDays is the type-level inspection cadence; equipment
// rows may override it.
type EquipmentType struct {
	ID             int64     `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	Role           Role      `db:"role" json:"role"`
	Observations   *string   `db:"observations" json:"observations"`
	InspectionDays *int      `db:"inspection_days" json:"inspection_days"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

type TypeMeasure struct {
	ID              int64   `db:"id" json:"id"`
	EquipmentTypeID int64   `db:"equipment_type_id" json:"equipment_type_id"`
	Measure         Measure `db:"measure" json:"measure"`
}

type TypeMaxError struct {
	ID              int64           `db:"id" json:"id"`
	EquipmentTypeID int64           `db:"equipment_type_id" json:"equipment_type_id"`
	Measure         Measure         `db:"measure" json:"measure"`
	MaxErrorValue   decimal.Decimal `db:"max_error_value" json:"max_error_value"`
}

// VerificationItem is one checklist entry of an equipment type. Exactly one
// family of expected_* fields is meaningful for a given response type.
type VerificationItem struct {
	ID                  int64          `db:"id" json:"id"`
	EquipmentTypeID     int64          `db:"equipment_type_id" json:"equipment_type_id"`
	Item                string         `db:"item" json:"item"`
	ResponseType        ResponseType   `db:"response_type" json:"response_type"`
	IsRequired          bool           `db:"is_required" json:"is_required"`
	SortOrder           int            `db:"sort_order" json:"sort_order"`
	ExpectedBool        *bool          `db:"expected_bool" json:"expected_bool"`
	ExpectedTextOptions pq.StringArray `db:"expected_text_options" json:"expected_text_options"`
	ExpectedNumber      *float64       `db:"expected_number" json:"expected_number"`
	ExpectedNumberMin   *float64       `db:"expected_number_min" json:"expected_number_min"`
	ExpectedNumberMax   *float64       `db:"expected_number_max" json:"expected_number_max"`
}

// Equipment is a physical instrument deployed at a terminal. EMPValue is the
// maximum permissible error of a weight standard, numeric(12,6).
type Equipment struct {
	ID                     int64            `db:"id" json:"id"`
	EquipmentTypeID        int64            `db:"equipment_type_id" json:"equipment_type_id"`
	TerminalID             int64            `db:"terminal_id" json:"terminal_id"`
	CreatedByUserID        int64            `db:"created_by_user_id" json:"created_by_user_id"`
	InternalCode           *string          `db:"internal_code" json:"internal_code"`
	Status                 Status           `db:"status" json:"status"`
	InspectionDaysOverride *int             `db:"inspection_days_override" json:"inspection_days_override"`
	WeightClass            *string          `db:"weight_class" json:"weight_class"`
	NominalMassValue       *float64         `db:"nominal_mass_value" json:"nominal_mass_value"`
	NominalMassUnit        *MassUnit        `db:"nominal_mass_unit" json:"nominal_mass_unit"`
	EMPValue               *decimal.Decimal `db:"emp_value" json:"emp_value"`
	CreatedAt              time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt              time.Time        `db:"updated_at" json:"updated_at"`
}

type ComponentSerial struct {
	ID            int64  `db:"id" json:"id"`
	EquipmentID   int64  `db:"equipment_id" json:"equipment_id"`
	ComponentName string `db:"component_name" json:"component_name"`
	Serial        string `db:"serial" json:"serial"`
}

// MeasureSpec is the working range and resolution of one measure of one
// instrument. Resolution feeds the verification evaluator's numeric
// equality.
type MeasureSpec struct {
	ID          int64    `db:"id" json:"id"`
	EquipmentID int64    `db:"equipment_id" json:"equipment_id"`
	Measure     Measure  `db:"measure" json:"measure"`
	MinValue    *float64 `db:"min_value" json:"min_value"`
	MaxValue    *float64 `db:"max_value" json:"max_value"`
	Resolution  *float64 `db:"resolution" json:"resolution"`
}

// TypeHistory is one interval of an equipment's type assignment. Intervals
// are half-open [started_at, ended_at); the open interval has a null
// ended_at. Append-only.
type TypeHistory struct {
	ID              int64      `db:"id" json:"id"`
	EquipmentID     int64      `db:"equipment_id" json:"equipment_id"`
	EquipmentTypeID int64      `db:"equipment_type_id" json:"equipment_type_id"`
	StartedAt       time.Time  `db:"started_at" json:"started_at"`
	EndedAt         *time.Time `db:"ended_at" json:"ended_at"`
	ChangedByUserID int64      `db:"changed_by_user_id" json:"changed_by_user_id"`
}

// TerminalHistory is the location counterpart of TypeHistory.
type TerminalHistory struct {
	ID              int64      `db:"id" json:"id"`
	EquipmentID     int64      `db:"equipment_id" json:"equipment_id"`
	TerminalID      int64      `db:"terminal_id" json:"terminal_id"`
	StartedAt       time.Time  `db:"started_at" json:"started_at"`
	EndedAt         *time.Time `db:"ended_at" json:"ended_at"`
	ChangedByUserID int64      `db:"changed_by_user_id" json:"changed_by_user_id"`
}
