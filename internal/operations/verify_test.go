package operations

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	equipment "github.com/petrolia/termlab/internal/equipment/entity"
	"github.com/petrolia/termlab/internal/fault"
	"github.com/petrolia/termlab/internal/operations/entity"
)

func boolPtr(b bool) *bool        { return &b }
func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }

func boolItem(id int64, expected bool, required bool) *equipment.VerificationItem {
	return &equipment.VerificationItem{
		ID:           id,
		Item:         "check",
		ResponseType: equipment.ResponseBool,
		IsRequired:   required,
		ExpectedBool: boolPtr(expected),
	}
}

func TestEvaluateVerificationBool(t *testing.T) {
	items := []*equipment.VerificationItem{boolItem(1, true, true)}

	responses := []*entity.VerificationResponse{
		{VerificationItemID: 1, ValueBool: boolPtr(true)},
	}
	overall, err := EvaluateVerification(items, responses, nil)
	require.NoError(t, err)
	require.NotNil(t, overall)
	assert.True(t, *overall)
	require.NotNil(t, responses[0].IsOK)
	assert.True(t, *responses[0].IsOK)

	responses = []*entity.VerificationResponse{
		{VerificationItemID: 1, ValueBool: boolPtr(false)},
	}
	overall, err = EvaluateVerification(items, responses, nil)
	require.NoError(t, err)
	require.NotNil(t, overall)
	assert.False(t, *overall)
}

func TestEvaluateVerificationTextOptions(t *testing.T) {
	items := []*equipment.VerificationItem{{
		ID:                  1,
		Item:                "surface condition",
		ResponseType:        equipment.ResponseText,
		ExpectedTextOptions: []string{"clean", "worn"},
	}}

	overall, err := EvaluateVerification(items, []*entity.VerificationResponse{
		{VerificationItemID: 1, ValueText: strPtr("clean")},
	}, nil)
	require.NoError(t, err)
	require.NotNil(t, overall)
	assert.True(t, *overall)

	overall, err = EvaluateVerification(items, []*entity.VerificationResponse{
		{VerificationItemID: 1, ValueText: strPtr("cracked")},
	}, nil)
	require.NoError(t, err)
	require.NotNil(t, overall)
	assert.False(t, *overall)
}

func TestEvaluateVerificationNumberWithinResolution(t *testing.T) {
	items := []*equipment.VerificationItem{{
		ID:             1,
		Item:           "zero point",
		ResponseType:   equipment.ResponseNumber,
		ExpectedNumber: floatPtr(100.0),
	}}

	// off by less than the instrument resolution counts as equal
	res := 0.5
	overall, err := EvaluateVerification(items, []*entity.VerificationResponse{
		{VerificationItemID: 1, ValueNumber: floatPtr(100.4)},
	}, &res)
	require.NoError(t, err)
	require.NotNil(t, overall)
	assert.True(t, *overall)

	overall, err = EvaluateVerification(items, []*entity.VerificationResponse{
		{VerificationItemID: 1, ValueNumber: floatPtr(100.6)},
	}, &res)
	require.NoError(t, err)
	require.NotNil(t, overall)
	assert.False(t, *overall)

	// without a resolution the comparison is exact
	overall, err = EvaluateVerification(items, []*entity.VerificationResponse{
		{VerificationItemID: 1, ValueNumber: floatPtr(100.4)},
	}, nil)
	require.NoError(t, err)
	require.NotNil(t, overall)
	assert.False(t, *overall)
}

func TestEvaluateVerificationNumberBounds(t *testing.T) {
	items := []*equipment.VerificationItem{{
		ID:                1,
		Item:              "humidity",
		ResponseType:      equipment.ResponseNumber,
		ExpectedNumberMin: floatPtr(30),
		ExpectedNumberMax: floatPtr(60),
	}}

	for value, want := range map[float64]bool{30: true, 45: true, 60: true, 29.9: false, 60.1: false} {
		overall, err := EvaluateVerification(items, []*entity.VerificationResponse{
			{VerificationItemID: 1, ValueNumber: floatPtr(value)},
		}, nil)
		require.NoError(t, err)
		require.NotNil(t, overall)
		assert.Equal(t, want, *overall, "value %v", value)
	}

	// open upper bound
	items[0].ExpectedNumberMax = nil
	overall, err := EvaluateVerification(items, []*entity.VerificationResponse{
		{VerificationItemID: 1, ValueNumber: floatPtr(500)},
	}, nil)
	require.NoError(t, err)
	require.NotNil(t, overall)
	assert.True(t, *overall)
}

func TestEvaluateVerificationRequiredWithoutValue(t *testing.T) {
	items := []*equipment.VerificationItem{boolItem(1, true, true)}

	_, err := EvaluateVerification(items, []*entity.VerificationResponse{
		{VerificationItemID: 1},
	}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, fault.ErrMissingField))
}

func TestEvaluateVerificationOptionalWithoutValue(t *testing.T) {
	items := []*equipment.VerificationItem{boolItem(1, true, false)}

	// an unanswered optional item is expressed by omitting the row, not by
	// sending an empty one
	_, err := EvaluateVerification(items, []*entity.VerificationResponse{
		{VerificationItemID: 1},
	}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, fault.ErrInvalidInput))
}

func TestEvaluateVerificationRequiredUnanswered(t *testing.T) {
	items := []*equipment.VerificationItem{
		boolItem(1, true, false),
		boolItem(2, true, true),
	}

	// item 2 is required but has no response at all: overall undetermined
	overall, err := EvaluateVerification(items, []*entity.VerificationResponse{
		{VerificationItemID: 1, ValueBool: boolPtr(true)},
	}, nil)
	require.NoError(t, err)
	assert.Nil(t, overall)
}

func TestEvaluateVerificationOverallConjunction(t *testing.T) {
	items := []*equipment.VerificationItem{
		boolItem(1, true, false),
		boolItem(2, true, false),
	}
	responses := []*entity.VerificationResponse{
		{VerificationItemID: 1, ValueBool: boolPtr(true)},
		{VerificationItemID: 2, ValueBool: boolPtr(false)},
	}
	overall, err := EvaluateVerification(items, responses, nil)
	require.NoError(t, err)
	require.NotNil(t, overall)
	assert.False(t, *overall)
}

func TestEvaluateVerificationRejectsUnknownAndDuplicate(t *testing.T) {
	items := []*equipment.VerificationItem{boolItem(1, true, false)}

	_, err := EvaluateVerification(items, []*entity.VerificationResponse{
		{VerificationItemID: 99, ValueBool: boolPtr(true)},
	}, nil)
	assert.True(t, errors.Is(err, fault.ErrInvalidInput))

	_, err = EvaluateVerification(items, []*entity.VerificationResponse{
		{VerificationItemID: 1, ValueBool: boolPtr(true)},
		{VerificationItemID: 1, ValueBool: boolPtr(true)},
	}, nil)
	assert.True(t, errors.Is(err, fault.ErrInvalidInput))
}

func TestEvaluateVerificationWrongValueKind(t *testing.T) {
	items := []*equipment.VerificationItem{boolItem(1, true, false)}

	_, err := EvaluateVerification(items, []*entity.VerificationResponse{
		{VerificationItemID: 1, ValueNumber: floatPtr(1)},
	}, nil)
	assert.True(t, errors.Is(err, fault.ErrInvalidInput))
}
