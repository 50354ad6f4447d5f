package analysis

import (
	"options-strategist/internal/models"
	"options-strategist/internal/payoff"
	"options-strategist/internal/sampling"
)

// TotalSeriesName names the series that sums every group.
const TotalSeriesName = "Total"

// Series is one plotted payoff line.
type Series struct {
	GroupID string              `json:"groupId,omitempty"`
	Name    string              `json:"name"`
	Points  models.SampledCurve `json:"points"`
}

// Chart holds the payoff lines over the chart grid around spot.
type Chart struct {
	SpotPrice float64  `json:"spotPrice"`
	Series    []Series `json:"series"`
}

// BuildChart samples the chart window and returns one series per group,
// followed by the total. Groups missing from names are labelled "Group <id>".
func BuildChart(legs []models.Leg, market models.MarketState, names map[string]string) Chart {
	active := payoff.ActiveLegs(legs)
	chart := Chart{SpotPrice: market.UnderlyingPrice, Series: []Series{}}

	prices := sampling.Sample(sampling.PolicyChart, active, market)
	if len(active) == 0 || len(prices) == 0 {
		return chart
	}

	curves := payoff.AggregateCurve(active, prices)
	for _, g := range payoff.Partition(active) {
		name, ok := names[g.ID]
		if !ok || name == "" {
			name = models.DefaultGroupName(g.ID)
		}
		chart.Series = append(chart.Series, Series{
			GroupID: g.ID,
			Name:    name,
			Points:  curves.PerGroup[g.ID],
		})
	}
	chart.Series = append(chart.Series, Series{Name: TotalSeriesName, Points: curves.Total})
	return chart
}
