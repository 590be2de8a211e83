package models

// MeasurementType selects which unit-bearing field group is live on an item
// or purchase line. Exactly one type is live at a time.
type MeasurementType string

const (
	MeasurementTypeQuantity MeasurementType = "Quantity"
	MeasurementTypeWeight   MeasurementType = "Weight"
	MeasurementTypeLength   MeasurementType = "Length"
	MeasurementTypeArea     MeasurementType = "Area"
	MeasurementTypeVolume   MeasurementType = "Volume"
)

func AllMeasurementTypes() []MeasurementType {
	return []MeasurementType{
		MeasurementTypeQuantity,
		MeasurementTypeWeight,
		MeasurementTypeLength,
		MeasurementTypeArea,
		MeasurementTypeVolume,
	}
}

func (t MeasurementType) Valid() bool {
	switch t {
	case MeasurementTypeQuantity, MeasurementTypeWeight, MeasurementTypeLength,
		MeasurementTypeArea, MeasurementTypeVolume:
		return true
	}
	return false
}

// measurementUnits holds the allowed unit symbols per measurement type.
// Quantity is a bare count and carries no unit.
var measurementUnits = map[MeasurementType][]string{
	MeasurementTypeQuantity: {},
	MeasurementTypeWeight:   {"g", "kg", "lb", "oz"},
	MeasurementTypeLength:   {"mm", "cm", "m", "in", "ft"},
	MeasurementTypeArea:     {"sqcm", "sqm", "sqft"},
	MeasurementTypeVolume:   {"ml", "l", "floz", "gal"},
}

// UnitsFor returns the allowed unit symbols of a measurement type. The
// result is a copy; callers cannot reach the shared unit table through it.
func UnitsFor(t MeasurementType) []string {
	units := measurementUnits[t]
	out := make([]string, len(units))
	copy(out, units)
	return out
}

func ValidUnit(t MeasurementType, unit string) bool {
	if t == MeasurementTypeQuantity {
		return unit == ""
	}
	for _, u := range measurementUnits[t] {
		if u == unit {
			return true
		}
	}
	return false
}

// DiscountType records which discount field drove the last edit on a line:
// percentage ('P') or absolute amount ('A'). The other field is re-derived.
type DiscountType string

const (
	DiscountTypePercentage DiscountType = "P"
	DiscountTypeAmount     DiscountType = "A"
)

// LineItemField names the editable inputs of a purchase line for DeriveLine.
type LineItemField string

const (
	LineFieldMeasurementAmount  LineItemField = "MeasurementAmount"
	LineFieldOriginalCost       LineItemField = "OriginalCost"
	LineFieldDiscountPercentage LineItemField = "DiscountPercentage"
	LineFieldDiscountAmount     LineItemField = "DiscountAmount"
)

// BreakdownMode selects whether derived records create new items or allocate
// to existing ones. Switching mode is destructive: it discards uncommitted
// records and restores full capacity.
type BreakdownMode string

const (
	BreakdownModeCreateNew        BreakdownMode = "CreateNew"
	BreakdownModeAllocateExisting BreakdownMode = "AllocateExisting"
)

type BreakdownStatus string

const (
	BreakdownStatusIdle       BreakdownStatus = "Idle"
	BreakdownStatusEditing    BreakdownStatus = "Editing"
	BreakdownStatusCommitting BreakdownStatus = "Committing"
	BreakdownStatusClosed     BreakdownStatus = "Closed"
)

type DerivedRecordKind string

const (
	DerivedRecordKindNewItem    DerivedRecordKind = "NewItem"
	DerivedRecordKindAllocation DerivedRecordKind = "Allocation"
)
