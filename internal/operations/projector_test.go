package operations

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petrolia/termlab/internal/operations/entity"
)

func TestEffectiveFrequencyDays(t *testing.T) {
	assert.Equal(t, 15, EffectiveFrequencyDays(15, 30))
	assert.Equal(t, 30, EffectiveFrequencyDays(0, 30))
	assert.Equal(t, 30, EffectiveFrequencyDays(-1, 30))
}

func TestNextAnalysisDue(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// never performed: due immediately
	assert.Equal(t, now, NextAnalysisDue(nil, 30, now))

	last := time.Date(2025, 5, 10, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, last.AddDate(0, 0, 30), NextAnalysisDue(&last, 30, now))
}

func TestProjectStatusInspectionDue(t *testing.T) {
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	inspected := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	override := 10
	typeDays := 90

	// override wins over the type default
	proj := ProjectStatus(7, created, nil, nil, &inspected, &override, &typeDays, nil)
	require.NotNil(t, proj.NextInspectionDueAt)
	assert.Equal(t, inspected.AddDate(0, 0, 10), *proj.NextInspectionDueAt)

	// type default applies when no override
	proj = ProjectStatus(7, created, nil, nil, &inspected, nil, &typeDays, nil)
	require.NotNil(t, proj.NextInspectionDueAt)
	assert.Equal(t, inspected.AddDate(0, 0, 90), *proj.NextInspectionDueAt)

	// never inspected: baseline is the creation time
	proj = ProjectStatus(7, created, nil, nil, nil, nil, &typeDays, nil)
	require.NotNil(t, proj.NextInspectionDueAt)
	assert.Equal(t, created.AddDate(0, 0, 90), *proj.NextInspectionDueAt)

	// no cadence configured at all
	proj = ProjectStatus(7, created, nil, nil, &inspected, nil, nil, nil)
	assert.Nil(t, proj.NextInspectionDueAt)
}

func TestProjectStatusOverallIsOK(t *testing.T) {
	created := time.Now().UTC()

	proj := ProjectStatus(7, created, nil, nil, nil, nil, nil, []*entity.CalibrationResult{
		{IsOK: boolPtr(true)},
		{IsOK: boolPtr(true)},
	})
	require.NotNil(t, proj.OverallIsOK)
	assert.True(t, *proj.OverallIsOK)

	proj = ProjectStatus(7, created, nil, nil, nil, nil, nil, []*entity.CalibrationResult{
		{IsOK: boolPtr(true)},
		{IsOK: boolPtr(false)},
	})
	require.NotNil(t, proj.OverallIsOK)
	assert.False(t, *proj.OverallIsOK)

	// results without verdicts leave the overall undetermined
	proj = ProjectStatus(7, created, nil, nil, nil, nil, nil, []*entity.CalibrationResult{{}})
	assert.Nil(t, proj.OverallIsOK)

	proj = ProjectStatus(7, created, nil, nil, nil, nil, nil, nil)
	assert.Nil(t, proj.OverallIsOK)
}

func TestProjectStatusCarriesEventTimes(t *testing.T) {
	created := time.Now().UTC()
	cal := created.Add(-24 * time.Hour)
	ver := created.Add(-48 * time.Hour)

	proj := ProjectStatus(7, created, &cal, &ver, nil, nil, nil, nil)
	assert.Equal(t, int64(7), proj.EquipmentID)
	assert.Equal(t, &cal, proj.LastCalibratedAt)
	assert.Equal(t, &ver, proj.LastVerifiedAt)
	assert.Nil(t, proj.LastInspectedAt)
}
