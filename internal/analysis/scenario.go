package analysis

import (
	"options-strategist/internal/models"
	"options-strategist/internal/payoff"
)

// Shock grid bounds in percent of spot.
const (
	MinShockPercent  = -20
	MaxShockPercent  = 20
	ShockStepPercent = 2
)

// Figures pairs the terminal payoff with the model P&L at one price.
type Figures struct {
	Finish      float64 `json:"finish"`
	Theoretical float64 `json:"theoretical"`
}

// ScenarioRow is one line of the scenario table.
type ScenarioRow struct {
	ShockPercent int                `json:"shockPercent"`
	Price        float64            `json:"price"`
	PerGroup     map[string]Figures `json:"perGroup"`
	Total        Figures            `json:"total"`
	Current      bool               `json:"current"`
}

// ScenarioTable lists P&L at fixed percentage moves of spot. Groups holds the
// group ids present in PerGroup, in order of first appearance.
type ScenarioTable struct {
	Groups []string      `json:"groups"`
	Rows   []ScenarioRow `json:"rows"`
}

// Shocks returns the shock grid from MinShockPercent to MaxShockPercent inclusive.
func Shocks() []int {
	out := make([]int, 0, (MaxShockPercent-MinShockPercent)/ShockStepPercent+1)
	for i := MinShockPercent; i <= MaxShockPercent; i += ShockStepPercent {
		out = append(out, i)
	}
	return out
}

// BuildScenarioTable evaluates the active legs at every shocked spot. The table
// is empty when there are no active legs or spot is not positive.
func BuildScenarioTable(legs []models.Leg, market models.MarketState, params models.ModelParameters) ScenarioTable {
	active := payoff.ActiveLegs(legs)
	spot := market.UnderlyingPrice
	if len(active) == 0 || !(spot > 0) {
		return ScenarioTable{Groups: []string{}, Rows: []ScenarioRow{}}
	}

	groups := payoff.Partition(active)
	table := ScenarioTable{
		Groups: make([]string, len(groups)),
		Rows:   make([]ScenarioRow, 0, len(Shocks())),
	}
	for i, g := range groups {
		table.Groups[i] = g.ID
	}

	for _, shock := range Shocks() {
		price := spot * (1 + float64(shock)/100)
		finish := payoff.Aggregate(active, price)
		theo := payoff.AggregateTheoretical(active, price, params)

		row := ScenarioRow{
			ShockPercent: shock,
			Price:        price,
			PerGroup:     make(map[string]Figures, len(groups)),
			Total:        Figures{Finish: finish.Total, Theoretical: theo.Total},
			Current:      shock == 0,
		}
		for _, id := range table.Groups {
			row.PerGroup[id] = Figures{Finish: finish.PerGroup[id], Theoretical: theo.PerGroup[id]}
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}
