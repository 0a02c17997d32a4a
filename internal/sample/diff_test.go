package sample

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	equipment "github.com/petrolia/termlab/internal/equipment/entity"
	"github.com/petrolia/termlab/internal/sample/entity"
)

func f64(v float64) *float64 { return &v }
func i64(v int64) *int64     { return &v }

func baseAnalysis() entity.Analysis {
	return entity.Analysis{
		ID:           42,
		SampleID:     7,
		AnalysisType: "api",
		ProductName:  "Crudo",
		TempObsF:     f64(75.2),
		LecturaAPI:   f64(31.4),
		HydrometerID: i64(3),
	}
}

func TestDiffAnalysisNoop(t *testing.T) {
	before := baseAnalysis()
	after := before
	assert.Nil(t, DiffAnalysis(&before, &after))
}

func TestDiffAnalysisScalarChange(t *testing.T) {
	before := baseAnalysis()
	after := before
	after.LecturaAPI = f64(32.0)

	h := DiffAnalysis(&before, &after)
	require.NotNil(t, h)
	assert.Equal(t, int64(7), h.SampleID)
	assert.Equal(t, int64(42), h.SampleAnalysisID)

	require.NotNil(t, h.LecturaAPIBefore)
	require.NotNil(t, h.LecturaAPIAfter)
	assert.Equal(t, 31.4, *h.LecturaAPIBefore)
	assert.Equal(t, 32.0, *h.LecturaAPIAfter)

	// untouched fields stay out of the history row
	assert.Nil(t, h.TempObsFBefore)
	assert.Nil(t, h.TempObsFAfter)
	assert.Nil(t, h.AnalysisTypeBefore)
	assert.Nil(t, h.HydrometerIDBefore)
}

func TestDiffAnalysisNilTransitions(t *testing.T) {
	before := baseAnalysis()
	after := before

	// set a previously-null field
	after.WaterValue = f64(0.25)
	h := DiffAnalysis(&before, &after)
	require.NotNil(t, h)
	assert.Nil(t, h.WaterValueBefore)
	require.NotNil(t, h.WaterValueAfter)
	assert.Equal(t, 0.25, *h.WaterValueAfter)

	// clear a previously-set field
	after = before
	after.HydrometerID = nil
	h = DiffAnalysis(&before, &after)
	require.NotNil(t, h)
	require.NotNil(t, h.HydrometerIDBefore)
	assert.Equal(t, int64(3), *h.HydrometerIDBefore)
	assert.Nil(t, h.HydrometerIDAfter)
}

func TestDiffAnalysisMassUnit(t *testing.T) {
	before := baseAnalysis()
	g := equipment.UnitGram
	kg := equipment.UnitKilogram
	before.WaterSampleWeightUnit = &g

	after := before
	after.WaterSampleWeightUnit = &kg

	h := DiffAnalysis(&before, &after)
	require.NotNil(t, h)
	require.NotNil(t, h.WaterSampleWeightUnitBefore)
	require.NotNil(t, h.WaterSampleWeightUnitAfter)
	assert.Equal(t, "g", *h.WaterSampleWeightUnitBefore)
	assert.Equal(t, "kg", *h.WaterSampleWeightUnitAfter)
}

func TestDiffAnalysisMultipleFields(t *testing.T) {
	before := baseAnalysis()
	after := before
	after.AnalysisType = "water"
	after.ThermometerID = i64(9)
	after.TempObsF = nil

	h := DiffAnalysis(&before, &after)
	require.NotNil(t, h)
	assert.Equal(t, "api", *h.AnalysisTypeBefore)
	assert.Equal(t, "water", *h.AnalysisTypeAfter)
	assert.Nil(t, h.ThermometerIDBefore)
	assert.Equal(t, int64(9), *h.ThermometerIDAfter)
	assert.Equal(t, 75.2, *h.TempObsFBefore)
	assert.Nil(t, h.TempObsFAfter)
}
