package utils

import (
	"math"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Property: FormatNumber groups digits by three with dots, uses a decimal
// comma, and preserves the value when parsed back.
func TestProperty_NumberFormatting(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())
	properties := gopter.NewProperties(parameters)

	properties.Property("FormatNumber produces grouped, round-trippable output", prop.ForAll(
		func(amount float64) bool {
			formatted := FormatNumber(amount, 2)

			body := strings.TrimPrefix(formatted, "-")
			intPart, decPart, ok := strings.Cut(body, ",")
			if !ok || len(decPart) != 2 {
				t.Logf("Expected two decimals for %f, got %s", amount, formatted)
				return false
			}

			groups := strings.Split(intPart, ".")
			if len(groups[0]) == 0 || len(groups[0]) > 3 {
				t.Logf("Bad leading group for %f: %s", amount, formatted)
				return false
			}
			for _, g := range groups[1:] {
				if len(g) != 3 {
					t.Logf("Bad group %q for %f: %s", g, amount, formatted)
					return false
				}
			}

			plain := strings.ReplaceAll(intPart, ".", "") + "." + decPart
			parsed, err := strconv.ParseFloat(plain, 64)
			if err != nil {
				t.Logf("Failed to parse %s: %v", plain, err)
				return false
			}
			if strings.HasPrefix(formatted, "-") {
				parsed = -parsed
			}
			if math.Abs(parsed-amount) > 0.005+1e-9*math.Abs(amount) {
				t.Logf("Value mismatch: %f formatted as %s", amount, formatted)
				return false
			}
			return true
		},
		gen.Float64Range(-1e12, 1e12),
	))

	properties.Property("non-finite values are not available", prop.ForAll(
		func(sign int) bool {
			return FormatNumber(math.Inf(sign), 2) == NotAvailable && FormatCurrency(math.NaN()) == NotAvailable
		},
		gen.OneConstOf(1, -1),
	))

	properties.TestingRun(t)
}
