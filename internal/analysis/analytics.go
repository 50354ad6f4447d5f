// Package analysis derives risk figures from sampled payoff curves: breakevens,
// extremes, unbounded-risk flags, return on risk, scenario tables and chart
// series.
package analysis

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"options-strategist/internal/errors"
	"options-strategist/internal/models"
)

// Analysis holds the statistics of one aggregate payoff curve.
//
// The unbounded flags are a sampling heuristic: a boundary sample that lies
// strictly beyond every interior sample is taken to mean the payoff keeps
// growing past the window. They are only as good as the grid and window.
type Analysis struct {
	Breakevens      []float64 `json:"breakevens"`
	MaxProfit       float64   `json:"maxProfit"`
	MaxProfitPrice  float64   `json:"maxProfitPrice"`
	MaxLoss         float64   `json:"maxLoss"`
	MaxLossPrice    float64   `json:"maxLossPrice"`
	UnboundedProfit bool      `json:"unboundedProfit"`
	UnboundedLoss   bool      `json:"unboundedLoss"`
	ReturnOnRisk    *float64  `json:"returnOnRisk"`
	Step            float64   `json:"step"`
}

// Analyze computes breakevens, extremes and risk flags for an ascending curve.
// An empty curve yields ErrNoData.
func Analyze(curve models.SampledCurve) (Analysis, error) {
	if len(curve) == 0 {
		return Analysis{}, errors.ErrNoData
	}

	prices := curve.Prices()
	values := curve.Values()

	var a Analysis
	if len(curve) > 1 {
		a.Step = prices[1] - prices[0]
	}

	hi := floats.MaxIdx(values)
	lo := floats.MinIdx(values)
	a.MaxProfit, a.MaxProfitPrice = values[hi], prices[hi]
	a.MaxLoss, a.MaxLossPrice = values[lo], prices[lo]

	if n := len(values); n > 2 {
		first, last := values[0], values[n-1]
		interior := values[1 : n-1]
		innerMax, innerMin := floats.Max(interior), floats.Min(interior)
		tolMax, tolMin := flatTolerance(innerMax), flatTolerance(innerMin)
		a.UnboundedProfit = first > innerMax+tolMax || last > innerMax+tolMax
		a.UnboundedLoss = first < innerMin-tolMin || last < innerMin-tolMin
	}

	if !a.UnboundedProfit && !a.UnboundedLoss && a.MaxLoss < 0 {
		ror := 100 * a.MaxProfit / math.Abs(a.MaxLoss)
		a.ReturnOnRisk = &ror
	}

	a.Breakevens = Breakevens(curve, a.Step)
	return a, nil
}

// Breakevens returns the interpolated zero crossings of the curve. Crossings
// within two steps of an earlier one are merged into it.
func Breakevens(curve models.SampledCurve, step float64) []float64 {
	out := []float64{}
	for i := 1; i < len(curve); i++ {
		p0, p1 := curve[i-1], curve[i]
		if math.IsNaN(p0.Value) || math.IsNaN(p1.Value) {
			continue
		}
		if sign(p0.Value) == sign(p1.Value) {
			continue
		}
		be := p0.Price - p0.Value*(p1.Price-p0.Price)/(p1.Value-p0.Value)
		if isNear(out, be, 2*step) {
			continue
		}
		out = append(out, be)
	}
	return out
}

// flatTolerance absorbs rounding noise on flat wings, where every sample is
// mathematically equal to its neighbours.
func flatTolerance(x float64) float64 {
	return 1e-9 * math.Max(1, math.Abs(x))
}

func isNear(found []float64, x, tol float64) bool {
	for _, b := range found {
		if math.Abs(b-x) <= tol {
			return true
		}
	}
	return false
}

// sign is -1, 0 or +1. Zero is its own sign so a sample that lands exactly on
// a breakeven registers as a crossing.
func sign(x float64) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}
