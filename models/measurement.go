package models

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

func lowerType(t MeasurementType) string {
	return strings.ToLower(string(t))
}

// Measurement is the single live amount+unit pair of an item or line.
type Measurement struct {
	Type   MeasurementType `json:"type"`
	Amount decimal.Decimal `json:"amount"`
	Unit   string          `json:"unit"`
}

func (m Measurement) Validate() error {
	if !m.Type.Valid() {
		return fmt.Errorf("invalid measurement type %q", string(m.Type))
	}
	if m.Amount.IsNegative() {
		return fmt.Errorf("%s amount must be zero or greater", lowerType(m.Type))
	}
	if !ValidUnit(m.Type, m.Unit) {
		return fmt.Errorf("invalid %s unit %q", lowerType(m.Type), m.Unit)
	}
	return nil
}

// Capacity holds one amount per measurement type. Only the field matching a
// source item's tracking type is ever interpreted; the others stay zero.
type Capacity struct {
	Quantity decimal.Decimal `json:"quantity"`
	Weight   decimal.Decimal `json:"weight"`
	Length   decimal.Decimal `json:"length"`
	Area     decimal.Decimal `json:"area"`
	Volume   decimal.Decimal `json:"volume"`
}

func (c Capacity) Get(t MeasurementType) decimal.Decimal {
	switch t {
	case MeasurementTypeQuantity:
		return c.Quantity
	case MeasurementTypeWeight:
		return c.Weight
	case MeasurementTypeLength:
		return c.Length
	case MeasurementTypeArea:
		return c.Area
	case MeasurementTypeVolume:
		return c.Volume
	}
	return decimal.Zero
}

func (c Capacity) with(t MeasurementType, v decimal.Decimal) Capacity {
	switch t {
	case MeasurementTypeQuantity:
		c.Quantity = v
	case MeasurementTypeWeight:
		c.Weight = v
	case MeasurementTypeLength:
		c.Length = v
	case MeasurementTypeArea:
		c.Area = v
	case MeasurementTypeVolume:
		c.Volume = v
	}
	return c
}
