package analysis

import (
	"math"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"options-strategist/internal/models"
	"options-strategist/internal/payoff"
)

func randomLeg(side, kind int, strike, premium float64, qty int) models.Leg {
	leg := models.Leg{
		Action:   models.ActionBuy,
		Type:     models.Call,
		Strike:   strike,
		Premium:  premium,
		Quantity: qty,
		Active:   true,
	}
	if side%2 == 1 {
		leg.Action = models.ActionSell
	}
	switch kind % 3 {
	case 1:
		leg.Type = models.Put
	case 2:
		leg.Type = models.Underlying
		leg.Premium = strike
	}
	return leg
}

// Property: every breakeven lies inside the sampled window, in ascending order,
// and the total payoff there is close to zero.
func TestProperty_BreakevensAreRoots(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("payoff vanishes at each breakeven", prop.ForAll(
		func(s1, k1, s2, k2 int, x1, x2, p1, p2 float64) bool {
			legs := []models.Leg{
				randomLeg(s1, k1, x1, p1, 1),
				randomLeg(s2, k2, x2, p2, 2),
			}
			s, err := Summarize(legs, models.MarketState{UnderlyingPrice: 100})
			if err != nil {
				return false
			}
			prev := math.Inf(-1)
			for _, be := range s.Breakevens {
				if be < s.Window.Start || be > s.Window.End || be <= prev {
					t.Logf("breakeven %v out of order or window %+v", be, s.Window)
					return false
				}
				prev = be
				v := payoff.Aggregate(legs, be).Total
				// Interpolation is exact on linear segments; kinks inside a
				// step bound the error by the steepest slope times the step.
				if math.Abs(v) > 300*s.Step+1e-6 {
					t.Logf("payoff %v at breakeven %v", v, be)
					return false
				}
			}
			return true
		},
		gen.IntRange(0, 1), gen.IntRange(0, 2),
		gen.IntRange(0, 1), gen.IntRange(0, 2),
		gen.Float64Range(50, 150), gen.Float64Range(50, 150),
		gen.Float64Range(0, 10), gen.Float64Range(0, 10),
	))

	properties.TestingRun(t)
}

// Property: return on risk is reported only for bounded strategies with a loss.
func TestProperty_ReturnOnRiskRequiresBoundedLoss(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("ror implies bounded and negative max loss", prop.ForAll(
		func(s1, k1, s2, k2 int, x1, x2, p1, p2 float64) bool {
			legs := []models.Leg{
				randomLeg(s1, k1, x1, p1, 1),
				randomLeg(s2, k2, x2, p2, 1),
			}
			s, err := Summarize(legs, models.MarketState{UnderlyingPrice: 100})
			if err != nil {
				return false
			}
			if s.ReturnOnRisk == nil {
				return true
			}
			return !s.UnboundedProfit && !s.UnboundedLoss && s.MaxLoss < 0
		},
		gen.IntRange(0, 1), gen.IntRange(0, 2),
		gen.IntRange(0, 1), gen.IntRange(0, 2),
		gen.Float64Range(50, 150), gen.Float64Range(50, 150),
		gen.Float64Range(0, 10), gen.Float64Range(0, 10),
	))

	properties.TestingRun(t)
}
