// Package money normalizes heterogeneous numeric input into exact decimal
// amounts and positive integer quantities. Parsing is deliberately
// permissive: user-entered and legacy catalog data must never abort an
// operation, so unparseable input degrades to zero instead of failing.
package money

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// ToAmount coerces input into a decimal amount. Finite numbers pass
// through; everything else is coerced via its string form. Strings may be
// locale formatted: when a comma appears after the last dot the comma is
// taken as the decimal separator and dots as thousands separators,
// otherwise the string is assumed to already be dot-decimal.
// Unparseable input yields zero, never an error.
func ToAmount(input interface{}) decimal.Decimal {
	switch v := input.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return v
	case int:
		return decimal.NewFromInt(int64(v))
	case int32:
		return decimal.NewFromInt32(v)
	case int64:
		return decimal.NewFromInt(v)
	case float32:
		return fromFloat(float64(v))
	case float64:
		return fromFloat(v)
	case string:
		return fromString(v)
	default:
		return fromString(fmt.Sprintf("%v", input))
	}
}

// ToQuantity floors the normalized amount to an integer and clamps to a
// minimum of 1. A quantity of zero is expressed as line removal, never as
// a zero-quantity line, so this can not return less than 1.
func ToQuantity(input interface{}) int32 {
	q := ToAmount(input).IntPart()
	if q < 1 {
		return 1
	}
	if q > math.MaxInt32 {
		return math.MaxInt32
	}
	return int32(q)
}

func fromFloat(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

func fromString(s string) decimal.Decimal {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',', r == '-':
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return decimal.Zero
	}

	lastComma := strings.LastIndex(cleaned, ",")
	lastDot := strings.LastIndex(cleaned, ".")
	if lastComma > lastDot {
		// "1.234,56" -> comma is the decimal separator
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.Replace(cleaned, ",", ".", 1)
	} else {
		// already dot-decimal; commas can only be thousands separators
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return d
}
