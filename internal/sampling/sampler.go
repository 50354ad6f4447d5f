// Package sampling builds the settlement price grids used to evaluate payoff
// curves.
package sampling

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"

	"options-strategist/internal/errors"
	"options-strategist/internal/models"
)

// Policy selects how the price window and resolution are chosen.
type Policy int

const (
	// PolicyChart spans half to one and a half times spot. Used for plotting.
	PolicyChart Policy = iota
	// PolicySummary is anchored on strikes and entry prices. Used for statistics.
	PolicySummary
)

const (
	chartSteps    = 200
	chartHalfSpan = 0.5

	summarySteps    = 500
	summaryMinRange = 40.0
	summaryPadding  = 1.5
	defaultAnchorLo = 80.0
	defaultAnchorHi = 120.0
)

func (p Policy) String() string {
	switch p {
	case PolicyChart:
		return "chart"
	case PolicySummary:
		return "summary"
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

// ParsePolicy parses a policy name.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "chart", "symmetric", "plot":
		return PolicyChart, nil
	case "summary", "anchored", "stats":
		return PolicySummary, nil
	}
	return 0, errors.Wrapf(errors.ErrInvalidPolicy, "%q", s)
}

// Window is an inclusive price range split into equal steps.
type Window struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Steps int     `json:"steps"`
}

// Step returns the distance between adjacent samples.
func (w Window) Step() float64 {
	return (w.End - w.Start) / float64(w.Steps)
}

// Prices returns Steps+1 evenly spaced prices from Start to End, or nil when
// the step is not positive.
func (w Window) Prices() []float64 {
	step := w.Step()
	if !(step > 0) || math.IsInf(step, 0) || w.Steps < 1 {
		return nil
	}
	return floats.Span(make([]float64, w.Steps+1), w.Start, w.End)
}

// WindowFor computes the sampling window for a policy.
func WindowFor(policy Policy, legs []models.Leg, market models.MarketState) Window {
	if policy == PolicySummary {
		return anchoredWindow(legs)
	}
	return chartWindow(market.UnderlyingPrice)
}

// Sample returns the ascending settlement prices for the policy. The result is
// empty when the window collapses.
func Sample(policy Policy, legs []models.Leg, market models.MarketState) []float64 {
	return WindowFor(policy, legs, market).Prices()
}

func chartWindow(spot float64) Window {
	span := spot * chartHalfSpan
	return Window{
		Start: math.Max(0, spot-span),
		End:   spot + span,
		Steps: chartSteps,
	}
}

func anchoredWindow(legs []models.Leg) Window {
	lo, hi := defaultAnchorLo, defaultAnchorHi
	if anchors := Anchors(legs); len(anchors) > 0 {
		lo, hi = floats.Min(anchors), floats.Max(anchors)
	}
	rng := math.Max(summaryMinRange, hi-lo)
	return Window{
		Start: math.Max(0, lo-rng*summaryPadding),
		End:   hi + rng*summaryPadding,
		Steps: summarySteps,
	}
}

// Anchors returns the strictly positive strikes and the underlying entry prices
// of the active legs.
func Anchors(legs []models.Leg) []float64 {
	var out []float64
	for _, l := range legs {
		if !l.Active {
			continue
		}
		if l.Type == models.Underlying {
			out = append(out, l.Premium)
			continue
		}
		if l.Strike > 0 {
			out = append(out, l.Strike)
		}
	}
	return out
}
