package utils

import "github.com/shopspring/decimal"

// AmountPrecision is the fixed scale for every derived monetary and
// measurement value. Rounding after each recomputation keeps repeated edits
// from accumulating floating-point drift.
const AmountPrecision = 5

func RoundAmount(d decimal.Decimal) decimal.Decimal {
	return d.Round(AmountPrecision)
}
