package sample

import (
	"github.com/petrolia/termlab/internal/sample/entity"
)

func ptrEq[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func clone[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// DiffAnalysis computes the field-level diff between two analysis states.
// It returns a history row carrying only the changed before/after pairs, or
// nil when the edit is a no-op.
func DiffAnalysis(before, after *entity.Analysis) *entity.AnalysisHistory {
	h := &entity.AnalysisHistory{
		SampleID:         before.SampleID,
		SampleAnalysisID: before.ID,
	}
	changed := false

	if before.AnalysisType != after.AnalysisType {
		h.AnalysisTypeBefore, h.AnalysisTypeAfter = clone(&before.AnalysisType), clone(&after.AnalysisType)
		changed = true
	}
	if before.ProductName != after.ProductName {
		h.ProductNameBefore, h.ProductNameAfter = clone(&before.ProductName), clone(&after.ProductName)
		changed = true
	}
	if !ptrEq(before.TempObsF, after.TempObsF) {
		h.TempObsFBefore, h.TempObsFAfter = clone(before.TempObsF), clone(after.TempObsF)
		changed = true
	}
	if !ptrEq(before.LecturaAPI, after.LecturaAPI) {
		h.LecturaAPIBefore, h.LecturaAPIAfter = clone(before.LecturaAPI), clone(after.LecturaAPI)
		changed = true
	}
	if !ptrEq(before.API60F, after.API60F) {
		h.API60FBefore, h.API60FAfter = clone(before.API60F), clone(after.API60F)
		changed = true
	}
	if !ptrEq(before.WaterValue, after.WaterValue) {
		h.WaterValueBefore, h.WaterValueAfter = clone(before.WaterValue), clone(after.WaterValue)
		changed = true
	}
	if !ptrEq(before.HydrometerID, after.HydrometerID) {
		h.HydrometerIDBefore, h.HydrometerIDAfter = clone(before.HydrometerID), clone(after.HydrometerID)
		changed = true
	}
	if !ptrEq(before.ThermometerID, after.ThermometerID) {
		h.ThermometerIDBefore, h.ThermometerIDAfter = clone(before.ThermometerID), clone(after.ThermometerID)
		changed = true
	}
	if !ptrEq(before.KFEquipmentID, after.KFEquipmentID) {
		h.KFEquipmentIDBefore, h.KFEquipmentIDAfter = clone(before.KFEquipmentID), clone(after.KFEquipmentID)
		changed = true
	}
	if !ptrEq(before.KFFactorAvg, after.KFFactorAvg) {
		h.KFFactorAvgBefore, h.KFFactorAvgAfter = clone(before.KFFactorAvg), clone(after.KFFactorAvg)
		changed = true
	}
	if !ptrEq(before.WaterBalanceID, after.WaterBalanceID) {
		h.WaterBalanceIDBefore, h.WaterBalanceIDAfter = clone(before.WaterBalanceID), clone(after.WaterBalanceID)
		changed = true
	}
	if !ptrEq(before.WaterSampleWeight, after.WaterSampleWeight) {
		h.WaterSampleWeightBefore, h.WaterSampleWeightAfter = clone(before.WaterSampleWeight), clone(after.WaterSampleWeight)
		changed = true
	}
	if !ptrEq(before.WaterSampleWeightUnit, after.WaterSampleWeightUnit) {
		h.WaterSampleWeightUnitBefore = massUnitString(before.WaterSampleWeightUnit)
		h.WaterSampleWeightUnitAfter = massUnitString(after.WaterSampleWeightUnit)
		changed = true
	}
	if !ptrEq(before.WaterVolumeConsumed, after.WaterVolumeConsumed) {
		h.WaterVolumeConsumedBefore, h.WaterVolumeConsumedAfter = clone(before.WaterVolumeConsumed), clone(after.WaterVolumeConsumed)
		changed = true
	}
	if !ptrEq(before.WaterVolumeUnit, after.WaterVolumeUnit) {
		h.WaterVolumeUnitBefore, h.WaterVolumeUnitAfter = clone(before.WaterVolumeUnit), clone(after.WaterVolumeUnit)
		changed = true
	}

	if !changed {
		return nil
	}
	return h
}

func massUnitString[T ~string](u *T) *string {
	if u == nil {
		return nil
	}
	s := string(*u)
	return &s
}
