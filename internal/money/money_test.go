package money

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestToAmount(t *testing.T) {
	tests := []struct {
		name     string
		input    interface{}
		expected string
	}{
		{
			name:     "given float should pass through",
			input:    1234.56,
			expected: "1234.56",
		},
		{
			name:     "given int should pass through",
			input:    42,
			expected: "42",
		},
		{
			name:     "given plain dot-decimal string should parse",
			input:    "1234.56",
			expected: "1234.56",
		},
		{
			name:     "given comma decimal with dot thousands should disambiguate",
			input:    "1.234,56",
			expected: "1234.56",
		},
		{
			name:     "given dot decimal with comma thousands should disambiguate",
			input:    "1,234.56",
			expected: "1234.56",
		},
		{
			name:     "given currency prefix and whitespace should strip",
			input:    "$ 1.234,50",
			expected: "1234.5",
		},
		{
			name:     "given negative locale string should keep sign",
			input:    "-1.000,25",
			expected: "-1000.25",
		},
		{
			name:     "given garbage should yield zero",
			input:    "abc",
			expected: "0",
		},
		{
			name:     "given empty string should yield zero",
			input:    "",
			expected: "0",
		},
		{
			name:     "given nil should yield zero",
			input:    nil,
			expected: "0",
		},
		{
			name:     "given NaN should yield zero",
			input:    math.NaN(),
			expected: "0",
		},
		{
			name:     "given positive infinity should yield zero",
			input:    math.Inf(1),
			expected: "0",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expected, err := decimal.NewFromString(tt.expected)
			assert.NoError(t, err)
			assert.True(
				t,
				expected.Equal(ToAmount(tt.input)),
				"expected %s got %s",
				expected,
				ToAmount(tt.input),
			)
		})
	}
}

func TestToQuantity(t *testing.T) {
	tests := []struct {
		name     string
		input    interface{}
		expected int32
	}{
		{name: "given positive integer should pass through", input: 5, expected: 5},
		{name: "given fractional should floor", input: 2.9, expected: 2},
		{name: "given zero should clamp to one", input: 0, expected: 1},
		{name: "given negative should clamp to one", input: -3, expected: 1},
		{name: "given garbage should clamp to one", input: "abc", expected: 1},
		{name: "given numeric string should parse", input: "12", expected: 12},
		{name: "given locale string should parse", input: "1.000,00", expected: 1000},
		{name: "given bare dot grouping should read as decimal", input: "1.000", expected: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ToQuantity(tt.input))
		})
	}
}

func TestToQuantityNeverBelowOne(t *testing.T) {
	for _, q := range []interface{}{0, -1, -1000, 0.4, "-7", "0", ""} {
		assert.GreaterOrEqual(t, ToQuantity(q), int32(1))
	}
}
