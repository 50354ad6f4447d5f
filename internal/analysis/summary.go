package analysis

import (
	"options-strategist/internal/errors"
	"options-strategist/internal/models"
	"options-strategist/internal/payoff"
	"options-strategist/internal/sampling"
)

// Summary is the strategy overview: curve statistics over the anchored window
// plus the payoff at the current spot.
type Summary struct {
	Analysis
	SpotPrice    float64         `json:"spotPrice"`
	PayoffAtSpot float64         `json:"payoffAtSpot"`
	Window       sampling.Window `json:"window"`
	Tail         TailRisk        `json:"tail"`
}

// Summarize samples the active legs on the anchored grid and analyzes the total
// payoff. Without active legs, or when the window collapses, it returns ErrNoData.
func Summarize(legs []models.Leg, market models.MarketState) (Summary, error) {
	active := payoff.ActiveLegs(legs)
	if len(active) == 0 {
		return Summary{}, errors.ErrNoData
	}

	window := sampling.WindowFor(sampling.PolicySummary, active, market)
	curve := payoff.TotalCurve(active, window.Prices())

	a, err := Analyze(curve)
	if err != nil {
		return Summary{}, err
	}

	return Summary{
		Analysis:     a,
		SpotPrice:    market.UnderlyingPrice,
		PayoffAtSpot: payoff.Aggregate(active, market.UnderlyingPrice).Total,
		Window:       window,
		Tail:         ClassifyTail(active),
	}, nil
}

// TailRisk classifies risk from the payoff slope above the highest strike.
// Prices are floored at zero, so only the upper tail can be unbounded.
type TailRisk struct {
	UpperSlope      float64 `json:"upperSlope"`
	UnboundedProfit bool    `json:"unboundedProfit"`
	UnboundedLoss   bool    `json:"unboundedLoss"`
}

// ClassifyTail computes the exact tail classification of the active legs.
// It complements the sampled flags of Analyze, which depend on the window.
func ClassifyTail(legs []models.Leg) TailRisk {
	var slope float64
	for _, l := range legs {
		if !l.Active {
			continue
		}
		switch l.Type {
		case models.Call, models.Underlying:
			slope += payoff.Sign(l.Action) * float64(l.Quantity) * payoff.Multiplier(l)
		}
	}
	return TailRisk{
		UpperSlope:      slope,
		UnboundedProfit: slope > 0,
		UnboundedLoss:   slope < 0,
	}
}
