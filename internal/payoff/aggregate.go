package payoff

import (
	"options-strategist/internal/models"
	"options-strategist/internal/pricing"
)

// Totals holds a figure summed over all active legs and per group.
type Totals struct {
	Total    float64            `json:"total"`
	PerGroup map[string]float64 `json:"perGroup"`
}

// GreekTotals holds position greeks over all active legs and per group.
type GreekTotals struct {
	Total    models.Greeks            `json:"total"`
	PerGroup map[string]models.Greeks `json:"perGroup"`
}

// CurveSet holds the total curve and one curve per group over the same prices.
type CurveSet struct {
	Total    models.SampledCurve            `json:"total"`
	PerGroup map[string]models.SampledCurve `json:"perGroup"`
}

// ActiveLegs returns the active legs in their original order.
func ActiveLegs(legs []models.Leg) []models.Leg {
	out := make([]models.Leg, 0, len(legs))
	for _, l := range legs {
		if l.Active {
			out = append(out, l)
		}
	}
	return out
}

// Partition groups the active legs by group id. Groups are returned in order of
// first appearance and named after their id.
func Partition(legs []models.Leg) []models.Group {
	var groups []models.Group
	index := make(map[string]int)
	for _, l := range legs {
		if !l.Active {
			continue
		}
		id := l.Group()
		i, ok := index[id]
		if !ok {
			i = len(groups)
			index[id] = i
			groups = append(groups, models.Group{ID: id, Name: id})
		}
		groups[i].Legs = append(groups[i].Legs, l)
	}
	return groups
}

// Aggregate sums the terminal payoff of the active legs at one settlement price.
func Aggregate(legs []models.Leg, price float64) Totals {
	return sumBy(legs, func(l models.Leg) float64 {
		return Payoff(price, l)
	})
}

// Theoretical returns the model P&L of one leg if spot moves to price:
// the Black-Scholes value less the premium paid, signed and scaled.
func Theoretical(leg models.Leg, price float64, params models.ModelParameters) float64 {
	value := pricing.LegPrice(leg, price, params)
	return (value - leg.Premium) * float64(leg.Quantity) * Multiplier(leg) * Sign(leg.Action)
}

// AggregateTheoretical sums the model P&L of the active legs at one spot price.
func AggregateTheoretical(legs []models.Leg, price float64, params models.ModelParameters) Totals {
	return sumBy(legs, func(l models.Leg) float64 {
		return Theoretical(l, price, params)
	})
}

// AggregateGreeks sums position greeks of the active legs at the given spot.
// Each leg contributes its unit greeks scaled by quantity and side.
func AggregateGreeks(legs []models.Leg, spot float64, params models.ModelParameters) GreekTotals {
	out := GreekTotals{PerGroup: make(map[string]models.Greeks)}
	for _, l := range legs {
		if !l.Active {
			continue
		}
		g := pricing.LegGreeks(l, spot, params).Scale(float64(l.Quantity) * Sign(l.Action))
		out.Total = out.Total.Add(g)
		out.PerGroup[l.Group()] = out.PerGroup[l.Group()].Add(g)
	}
	return out
}

// AggregateCurve evaluates the total and per-group payoff at every price.
func AggregateCurve(legs []models.Leg, prices []float64) CurveSet {
	active := ActiveLegs(legs)
	out := CurveSet{
		Total:    make(models.SampledCurve, len(prices)),
		PerGroup: make(map[string]models.SampledCurve),
	}
	for _, g := range Partition(active) {
		out.PerGroup[g.ID] = make(models.SampledCurve, len(prices))
	}
	for i, p := range prices {
		totals := Aggregate(active, p)
		out.Total[i] = models.CurvePoint{Price: p, Value: totals.Total}
		for id, v := range totals.PerGroup {
			out.PerGroup[id][i] = models.CurvePoint{Price: p, Value: v}
		}
	}
	return out
}

// TotalCurve evaluates only the total payoff at every price.
func TotalCurve(legs []models.Leg, prices []float64) models.SampledCurve {
	active := ActiveLegs(legs)
	curve := make(models.SampledCurve, len(prices))
	for i, p := range prices {
		var total float64
		for _, l := range active {
			total += Payoff(p, l)
		}
		curve[i] = models.CurvePoint{Price: p, Value: total}
	}
	return curve
}

func sumBy(legs []models.Leg, value func(models.Leg) float64) Totals {
	out := Totals{PerGroup: make(map[string]float64)}
	for _, l := range legs {
		if !l.Active {
			continue
		}
		v := value(l)
		out.Total += v
		out.PerGroup[l.Group()] += v
	}
	return out
}
