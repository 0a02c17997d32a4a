// Package entity holds the crude-oil sample rows, their lab analyses and the
// field-level analysis edit history.
package entity

import (
	"time"

	equipment "github.com/petrolia/termlab/internal/equipment/entity"
)

type Sample struct {
	ID                 int64      `db:"id" json:"id"`
	TerminalID         int64      `db:"terminal_id" json:"terminal_id"`
	Code               string     `db:"code" json:"code"`
	Sequence           int64      `db:"sequence" json:"sequence"`
	ProductName        string     `db:"product_name" json:"product_name"`
	Identifier         *string    `db:"identifier" json:"identifier"`
	AnalyzedAt         *time.Time `db:"analyzed_at" json:"analyzed_at"`
	LabHumidity        *float64   `db:"lab_humidity" json:"lab_humidity"`
	LabTemperature     *float64   `db:"lab_temperature" json:"lab_temperature"`
	ThermohygrometerID *int64     `db:"thermohygrometer_id" json:"thermohygrometer_id"`
	CreatedByUserID    int64      `db:"created_by_user_id" json:"created_by_user_id"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
}

type Analysis struct {
	ID                    int64               `db:"id" json:"id"`
	SampleID              int64               `db:"sample_id" json:"sample_id"`
	AnalysisType          string              `db:"analysis_type" json:"analysis_type"`
	ProductName           string              `db:"product_name" json:"product_name"`
	TempObsF              *float64            `db:"temp_obs_f" json:"temp_obs_f"`
	LecturaAPI            *float64            `db:"lectura_api" json:"lectura_api"`
	API60F                *float64            `db:"api_60f" json:"api_60f"`
	WaterValue            *float64            `db:"water_value" json:"water_value"`
	HydrometerID          *int64              `db:"hydrometer_id" json:"hydrometer_id"`
	ThermometerID         *int64              `db:"thermometer_id" json:"thermometer_id"`
	KFEquipmentID         *int64              `db:"kf_equipment_id" json:"kf_equipment_id"`
	KFFactorAvg           *float64            `db:"kf_factor_avg" json:"kf_factor_avg"`
	WaterBalanceID        *int64              `db:"water_balance_id" json:"water_balance_id"`
	WaterSampleWeight     *float64            `db:"water_sample_weight" json:"water_sample_weight"`
	WaterSampleWeightUnit *equipment.MassUnit `db:"water_sample_weight_unit" json:"water_sample_weight_unit"`
	WaterVolumeConsumed   *float64            `db:"water_volume_consumed" json:"water_volume_consumed"`
	WaterVolumeUnit       *string             `db:"water_volume_unit" json:"water_volume_unit"`
	CreatedAt             time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time           `db:"updated_at" json:"updated_at"`
}

// AnalysisHistory is one append-only edit record. Only the field pairs that
// actually changed in the edit are populated.
type AnalysisHistory struct {
	ID               int64     `db:"id" json:"id"`
	SampleID         int64     `db:"sample_id" json:"sample_id"`
	SampleAnalysisID int64     `db:"sample_analysis_id" json:"sample_analysis_id"`
	ChangedByUserID  int64     `db:"changed_by_user_id" json:"changed_by_user_id"`
	ChangedAt        time.Time `db:"changed_at" json:"changed_at"`

	AnalysisTypeBefore          *string  `db:"analysis_type_before" json:"analysis_type_before"`
	AnalysisTypeAfter           *string  `db:"analysis_type_after" json:"analysis_type_after"`
	ProductNameBefore           *string  `db:"product_name_before" json:"product_name_before"`
	ProductNameAfter            *string  `db:"product_name_after" json:"product_name_after"`
	TempObsFBefore              *float64 `db:"temp_obs_f_before" json:"temp_obs_f_before"`
	TempObsFAfter               *float64 `db:"temp_obs_f_after" json:"temp_obs_f_after"`
	LecturaAPIBefore            *float64 `db:"lectura_api_before" json:"lectura_api_before"`
	LecturaAPIAfter             *float64 `db:"lectura_api_after" json:"lectura_api_after"`
	API60FBefore                *float64 `db:"api_60f_before" json:"api_60f_before"`
	API60FAfter                 *float64 `db:"api_60f_after" json:"api_60f_after"`
	WaterValueBefore            *float64 `db:"water_value_before" json:"water_value_before"`
	WaterValueAfter             *float64 `db:"water_value_after" json:"water_value_after"`
	HydrometerIDBefore          *int64   `db:"hydrometer_id_before" json:"hydrometer_id_before"`
	HydrometerIDAfter           *int64   `db:"hydrometer_id_after" json:"hydrometer_id_after"`
	ThermometerIDBefore         *int64   `db:"thermometer_id_before" json:"thermometer_id_before"`
	ThermometerIDAfter          *int64   `db:"thermometer_id_after" json:"thermometer_id_after"`
	KFEquipmentIDBefore         *int64   `db:"kf_equipment_id_before" json:"kf_equipment_id_before"`
	KFEquipmentIDAfter          *int64   `db:"kf_equipment_id_after" json:"kf_equipment_id_after"`
	KFFactorAvgBefore           *float64 `db:"kf_factor_avg_before" json:"kf_factor_avg_before"`
	KFFactorAvgAfter            *float64 `db:"kf_factor_avg_after" json:"kf_factor_avg_after"`
	WaterBalanceIDBefore        *int64   `db:"water_balance_id_before" json:"water_balance_id_before"`
	WaterBalanceIDAfter         *int64   `db:"water_balance_id_after" json:"water_balance_id_after"`
	WaterSampleWeightBefore     *float64 `db:"water_sample_weight_before" json:"water_sample_weight_before"`
	WaterSampleWeightAfter      *float64 `db:"water_sample_weight_after" json:"water_sample_weight_after"`
	WaterSampleWeightUnitBefore *string  `db:"water_sample_weight_unit_before" json:"water_sample_weight_unit_before"`
	WaterSampleWeightUnitAfter  *string  `db:"water_sample_weight_unit_after" json:"water_sample_weight_unit_after"`
	WaterVolumeConsumedBefore   *float64 `db:"water_volume_consumed_before" json:"water_volume_consumed_before"`
	WaterVolumeConsumedAfter    *float64 `db:"water_volume_consumed_after" json:"water_volume_consumed_after"`
	WaterVolumeUnitBefore       *string  `db:"water_volume_unit_before" json:"water_volume_unit_before"`
	WaterVolumeUnitAfter        *string  `db:"water_volume_unit_after" json:"water_volume_unit_after"`
}
