package operations

import (
	"time"

	"github.com/petrolia/termlab/internal/operations/entity"
)

// EffectiveFrequencyDays resolves the cadence for a (terminal, analysis type)
// pair: a positive terminal override wins, zero inherits the type default.
func EffectiveFrequencyDays(terminalOverride, typeDefault int) int {
	if terminalOverride > 0 {
		return terminalOverride
	}
	return typeDefault
}

// NextAnalysisDue returns when the next external analysis is due. With no
// prior record the analysis is due immediately.
func NextAnalysisDue(lastPerformed *time.Time, frequencyDays int, now time.Time) time.Time {
	if lastPerformed == nil {
		return now
	}
	return lastPerformed.AddDate(0, 0, frequencyDays)
}

// inspectionCadenceDays picks the equipment override when set, else the type
// default. Nil means no cadence is configured.
func inspectionCadenceDays(override, typeDefault *int) *int {
	if override != nil && *override > 0 {
		return override
	}
	if typeDefault != nil && *typeDefault > 0 {
		return typeDefault
	}
	return nil
}

// ProjectStatus derives the calibration/verification standing of one
// equipment row from its persisted events. The inspection baseline is the
// last inspection, falling back to the equipment's creation time.
func ProjectStatus(
	equipmentID int64,
	createdAt time.Time,
	lastCalibratedAt, lastVerifiedAt, lastInspectedAt *time.Time,
	inspectionDaysOverride, typeInspectionDays *int,
	latestCalibrationResults []*entity.CalibrationResult,
) entity.StatusProjection {
	proj := entity.StatusProjection{
		EquipmentID:      equipmentID,
		LastCalibratedAt: lastCalibratedAt,
		LastVerifiedAt:   lastVerifiedAt,
		LastInspectedAt:  lastInspectedAt,
	}

	if cadence := inspectionCadenceDays(inspectionDaysOverride, typeInspectionDays); cadence != nil {
		baseline := createdAt
		if lastInspectedAt != nil {
			baseline = *lastInspectedAt
		}
		due := baseline.AddDate(0, 0, *cadence)
		proj.NextInspectionDueAt = &due
	}

	evaluated := false
	overall := true
	for _, res := range latestCalibrationResults {
		if res.IsOK == nil {
			continue
		}
		evaluated = true
		overall = overall && *res.IsOK
	}
	if evaluated {
		proj.OverallIsOK = &overall
	}
	return proj
}
