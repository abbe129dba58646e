package utils

import (
	"math"

	"github.com/shopspring/decimal"
)

// DecToFloat converts for charting, precision loss is fine at this point
func DecToFloat(d decimal.Decimal) float64 {
	f := d.InexactFloat64()
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// NullDecToFloatPtr returns nil for a null subgraph value
func NullDecToFloatPtr(d decimal.NullDecimal) *float64 {
	if !d.Valid {
		return nil
	}
	f := DecToFloat(d.Decimal)
	return &f
}

// FloatPtr is a shorthand for tests and literals
func FloatPtr(f float64) *float64 {
	return &f
}

