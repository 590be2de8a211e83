package models

import (
	"fmt"

	"bitbucket.org/mmdatafocus/stockroom_backend/utils"
	"github.com/shopspring/decimal"
)

// PurchaseLineItem is one purchased unit of work. OriginalCost is the total
// paid for the line as entered; CostPerUnit, the discount pair and TotalCost
// are derived and kept consistent by DeriveLine.
type PurchaseLineItem struct {
	ID                 int             `gorm:"primary_key" json:"id"`
	PurchaseId         int             `gorm:"index;not null" json:"purchase_id"`
	ItemId             int             `gorm:"index;default:null" json:"item_id"`
	AssetId            int             `gorm:"index;default:null" json:"asset_id"`
	PurchasedBy        MeasurementType `gorm:"type:enum('Quantity','Weight','Length','Area','Volume');not null" json:"purchased_by"`
	MeasurementAmount  decimal.Decimal `gorm:"type:decimal(20,5);default:0" json:"measurement_amount"`
	MeasurementUnit    string          `gorm:"size:10;default:null" json:"measurement_unit"`
	OriginalCost       decimal.Decimal `gorm:"type:decimal(20,5);default:0" json:"original_cost"`
	CostPerUnit        decimal.Decimal `gorm:"type:decimal(20,5);default:0" json:"cost_per_unit"`
	DiscountType       *DiscountType   `gorm:"type:enum('P','A');default:null" json:"discount_type"`
	DiscountPercentage decimal.Decimal `gorm:"type:decimal(20,5);default:0" json:"discount_percentage"`
	DiscountAmount     decimal.Decimal `gorm:"type:decimal(20,5);default:0" json:"discount_amount"`
	TotalCost          decimal.Decimal `gorm:"type:decimal(20,5);default:0" json:"total_cost"`
}

// DeriveLine applies one field edit and returns a fully consistent line.
// A negative value is a validation failure: the prior line is returned
// unchanged. A zero divisor never errors; the derived value is 0.
func DeriveLine(line PurchaseLineItem, field LineItemField, value decimal.Decimal) (PurchaseLineItem, error) {
	if value.IsNegative() {
		return line, utils.ErrorNegativeValue
	}

	switch field {
	case LineFieldMeasurementAmount:
		line.MeasurementAmount = value
	case LineFieldOriginalCost:
		line.OriginalCost = value
	case LineFieldDiscountPercentage:
		line.DiscountPercentage = value
		mode := DiscountTypePercentage
		line.DiscountType = &mode
	case LineFieldDiscountAmount:
		line.DiscountAmount = value
		mode := DiscountTypeAmount
		line.DiscountType = &mode
	default:
		return line, fmt.Errorf("unknown line item field %q", string(field))
	}

	return line.recalc(), nil
}

// recalc re-derives CostPerUnit, the discount pair and TotalCost from the
// current inputs, honoring which discount field drove the last edit.
func (line PurchaseLineItem) recalc() PurchaseLineItem {
	if line.MeasurementAmount.IsPositive() {
		line.CostPerUnit = utils.RoundAmount(line.OriginalCost.Div(line.MeasurementAmount))
	} else {
		line.CostPerUnit = decimal.Zero
	}

	baseAmount := line.MeasurementAmount.Mul(line.CostPerUnit)

	decimalOneHundred := decimal.NewFromInt(100)
	switch utils.DereferencePtr(line.DiscountType, DiscountTypeAmount) {
	case DiscountTypePercentage:
		line.DiscountAmount = utils.RoundAmount(baseAmount.Mul(line.DiscountPercentage).Div(decimalOneHundred))
	default:
		if baseAmount.IsPositive() {
			line.DiscountPercentage = utils.RoundAmount(line.DiscountAmount.Mul(decimalOneHundred).Div(baseAmount))
		} else {
			line.DiscountPercentage = decimal.Zero
		}
	}
	line.DiscountPercentage = utils.RoundAmount(line.DiscountPercentage)
	line.DiscountAmount = utils.RoundAmount(line.DiscountAmount)

	totalCost := baseAmount.Sub(line.DiscountAmount)
	if totalCost.IsNegative() {
		totalCost = decimal.Zero
	}
	line.TotalCost = utils.RoundAmount(totalCost)

	return line
}
