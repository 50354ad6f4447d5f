// Package utils provides shared utility functions.
package utils

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// NotAvailable is printed in place of NaN and infinite values.
const NotAvailable = "N/A"

// FormatNumber formats a number with a fixed number of decimals, dots between
// thousands and a decimal comma: 1234.5 becomes "1.234,50".
func FormatNumber(value float64, decimals int) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return NotAvailable
	}
	if decimals < 0 {
		decimals = 0
	}

	str := decimal.NewFromFloat(value).StringFixed(int32(decimals))

	negative := strings.HasPrefix(str, "-")
	str = strings.TrimPrefix(str, "-")

	intPart, decPart, _ := strings.Cut(str, ".")
	result := groupThousands(intPart)
	if decPart != "" {
		result += "," + decPart
	}
	if negative {
		result = "-" + result
	}
	return result
}

// groupThousands inserts a dot every three digits from the right.
func groupThousands(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}

	var b strings.Builder
	lead := n % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// FormatCurrency formats an amount in dollars with two decimals.
func FormatCurrency(amount float64) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return NotAvailable
	}
	formatted := FormatNumber(amount, 2)
	if strings.HasPrefix(formatted, "-") {
		return "-$" + strings.TrimPrefix(formatted, "-")
	}
	return "$" + formatted
}

// FormatPercent formats a percentage with sign.
func FormatPercent(value float64) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return NotAvailable
	}
	sign := ""
	if value > 0 {
		sign = "+"
	}
	return sign + FormatNumber(value, 2) + "%"
}

// FormatPnL formats P&L with an explicit sign on gains.
func FormatPnL(pnl float64) string {
	formatted := FormatCurrency(pnl)
	if pnl > 0 {
		return "+" + formatted
	}
	return formatted
}

// FormatExtreme formats a maximum profit or loss, or "Unlimited" when the
// curve keeps growing past the sampled window.
func FormatExtreme(value float64, unbounded bool) string {
	if unbounded {
		return "Unlimited"
	}
	return FormatCurrency(value)
}

// FormatBreakevens lists breakeven prices, or says there are none in range.
func FormatBreakevens(prices []float64) string {
	if len(prices) == 0 {
		return "none in range"
	}
	parts := make([]string, len(prices))
	for i, p := range prices {
		parts[i] = FormatCurrency(p)
	}
	return strings.Join(parts, " and ")
}
