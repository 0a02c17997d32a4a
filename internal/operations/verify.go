package operations

import (
	"math"

	equipment "github.com/petrolia/termlab/internal/equipment/entity"
	"github.com/petrolia/termlab/internal/fault"
	"github.com/petrolia/termlab/internal/operations/entity"
)

// checkResponseShape enforces that exactly one value column is set and that
// it matches the item's declared response type.
func checkResponseShape(item *equipment.VerificationItem, resp *entity.VerificationResponse) error {
	set := 0
	if resp.ValueBool != nil {
		set++
	}
	if resp.ValueText != nil {
		set++
	}
	if resp.ValueNumber != nil {
		set++
	}
	if set == 0 {
		if item.IsRequired {
			return fault.MissingField("response for required item " + item.Item)
		}
		// unanswered optional items are expressed by omitting the row
		return fault.Invalid("response for item " + item.Item + " carries no value")
	}
	if set > 1 {
		return fault.Invalid("response carries more than one value")
	}
	switch item.ResponseType {
	case equipment.ResponseBool:
		if resp.ValueBool == nil {
			return fault.Invalid("item " + item.Item + " expects a boolean response")
		}
	case equipment.ResponseText:
		if resp.ValueText == nil {
			return fault.Invalid("item " + item.Item + " expects a text response")
		}
	case equipment.ResponseNumber:
		if resp.ValueNumber == nil {
			return fault.Invalid("item " + item.Item + " expects a numeric response")
		}
	}
	return nil
}

// evaluateResponse computes is_ok for one response against the item's
// expectations. A nil result means the item declares no expectation.
// Numeric equality is judged within the equipment's resolution when one is
// known.
func evaluateResponse(item *equipment.VerificationItem, resp *entity.VerificationResponse, resolution *float64) *bool {
	if item.ExpectedBool != nil {
		ok := resp.ValueBool != nil && *resp.ValueBool == *item.ExpectedBool
		return &ok
	}
	if len(item.ExpectedTextOptions) > 0 {
		ok := false
		if resp.ValueText != nil {
			for _, opt := range item.ExpectedTextOptions {
				if *resp.ValueText == opt {
					ok = true
					break
				}
			}
		}
		return &ok
	}
	if item.ExpectedNumber != nil {
		if resp.ValueNumber == nil {
			ok := false
			return &ok
		}
		tol := 0.0
		if resolution != nil {
			tol = *resolution
		}
		ok := math.Abs(*resp.ValueNumber-*item.ExpectedNumber) <= tol
		return &ok
	}
	if item.ExpectedNumberMin != nil || item.ExpectedNumberMax != nil {
		if resp.ValueNumber == nil {
			ok := false
			return &ok
		}
		ok := true
		if item.ExpectedNumberMin != nil && *resp.ValueNumber < *item.ExpectedNumberMin {
			ok = false
		}
		if item.ExpectedNumberMax != nil && *resp.ValueNumber > *item.ExpectedNumberMax {
			ok = false
		}
		return &ok
	}
	return nil
}

// EvaluateVerification fills in per-response is_ok flags and returns the
// overall verdict. The verdict is nil (undetermined) when a required item has
// no response at all, or when no response carries an expectation; otherwise
// it is the conjunction of the evaluated responses.
func EvaluateVerification(items []*equipment.VerificationItem, responses []*entity.VerificationResponse, resolution *float64) (*bool, error) {
	byItem := make(map[int64]*entity.VerificationResponse, len(responses))
	itemByID := make(map[int64]*equipment.VerificationItem, len(items))
	for _, it := range items {
		itemByID[it.ID] = it
	}
	for _, resp := range responses {
		item, known := itemByID[resp.VerificationItemID]
		if !known {
			return nil, fault.Invalid("response references an unknown checklist item")
		}
		if _, dup := byItem[resp.VerificationItemID]; dup {
			return nil, fault.Invalid("duplicate response for item " + item.Item)
		}
		byItem[resp.VerificationItemID] = resp
		resp.ResponseType = item.ResponseType
		if err := checkResponseShape(item, resp); err != nil {
			return nil, err
		}
		resp.IsOK = evaluateResponse(item, resp, resolution)
	}

	undetermined := false
	for _, it := range items {
		if it.IsRequired {
			if _, answered := byItem[it.ID]; !answered {
				undetermined = true
			}
		}
	}
	if undetermined {
		return nil, nil
	}

	evaluated := false
	overall := true
	for _, resp := range responses {
		if resp.IsOK == nil {
			continue
		}
		evaluated = true
		overall = overall && *resp.IsOK
	}
	if !evaluated {
		return nil, nil
	}
	return &overall, nil
}
