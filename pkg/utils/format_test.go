package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		value    float64
		decimals int
		want     string
	}{
		{0, 2, "0,00"},
		{5, 2, "5,00"},
		{1234.56, 2, "1.234,56"},
		{-1234.56, 2, "-1.234,56"},
		{1234567.891, 2, "1.234.567,89"},
		{100, 0, "100"},
		{999999.999, 2, "1.000.000,00"},
		{66.66666, 1, "66,7"},
		{123456, 2, "123.456,00"},
		{math.NaN(), 2, "N/A"},
		{math.Inf(1), 2, "N/A"},
		{math.Inf(-1), 2, "N/A"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatNumber(tt.value, tt.decimals), "FormatNumber(%v, %d)", tt.value, tt.decimals)
	}
}

func TestFormatCurrency(t *testing.T) {
	assert.Equal(t, "$1.234,56", FormatCurrency(1234.56))
	assert.Equal(t, "-$5.735,00", FormatCurrency(-5735))
	assert.Equal(t, "N/A", FormatCurrency(math.NaN()))
}

func TestFormatPnLAndPercent(t *testing.T) {
	assert.Equal(t, "+$500,00", FormatPnL(500))
	assert.Equal(t, "-$1.000,00", FormatPnL(-1000))
	assert.Equal(t, "$0,00", FormatPnL(0))
	assert.Equal(t, "+12,50%", FormatPercent(12.5))
	assert.Equal(t, "-3,00%", FormatPercent(-3))
}

func TestFormatBreakevens(t *testing.T) {
	assert.Equal(t, "none in range", FormatBreakevens(nil))
	assert.Equal(t, "$94,00 and $106,00", FormatBreakevens([]float64{94, 106}))
}

func TestFormatExtreme(t *testing.T) {
	assert.Equal(t, "Unlimited", FormatExtreme(5400, true))
	assert.Equal(t, "$205,00", FormatExtreme(205, false))
}
