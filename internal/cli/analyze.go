package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"options-strategist/internal/analysis"
	"options-strategist/internal/errors"
	"options-strategist/internal/logging"
	"options-strategist/internal/models"
	"options-strategist/internal/payoff"
	"options-strategist/internal/pricing"
	"options-strategist/internal/sampling"
	"options-strategist/internal/strategy"
	"options-strategist/pkg/utils"
)

// addAnalysisCommands adds the valuation and risk commands.
func addAnalysisCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newPriceCmd(app))
	rootCmd.AddCommand(newGreeksCmd(app))
	rootCmd.AddCommand(newSummaryCmd(app))
	rootCmd.AddCommand(newScenarioTableCmd(app))
	rootCmd.AddCommand(newPayoffCmd(app))
	rootCmd.AddCommand(newCurveCmd(app))
}

func newPriceCmd(app *App) *cobra.Command {
	var (
		typ             string
		spot, strike    float64
		days, rate, vol float64
	)
	cmd := &cobra.Command{
		Use:     "price",
		Short:   "Black-Scholes value and greeks of a single option",
		Example: `  strategist price --type put --spot 100 --strike 95 --days 45 --vol 25`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			t, err := models.ParseInstrumentType(typ)
			if err != nil {
				return errors.NewValidationError("type", typ, err.Error())
			}
			params := models.ModelParameters{TimeToExpiryDays: days, RiskFreeRatePercent: rate, VolatilityPercent: vol}
			if err := strategy.ValidateParameters(params); err != nil {
				return err
			}

			value := pricing.TheoreticalPrice(t, spot, strike, params.Rate(), params.Vol(), params.Years())
			greeks := pricing.Greeks(t, spot, strike, params.Rate(), params.Vol(), params.Years())

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"type":   t,
					"spot":   spot,
					"strike": strike,
					"params": params,
					"price":  value,
					"greeks": greeks,
				})
			}

			d := app.Config.UI.Decimals
			output.Box(fmt.Sprintf("%s %s", strings.ToUpper(string(t)), utils.FormatNumber(strike, 2)), []string{
				"Spot:     " + utils.FormatNumber(spot, 2),
				"Price:    " + output.BoldText(utils.FormatNumber(value, d)),
				"",
				"Delta:    " + utils.FormatNumber(greeks.Delta, 4),
				"Gamma:    " + utils.FormatNumber(greeks.Gamma, 4),
				"Theta:    " + utils.FormatNumber(greeks.Theta, 4) + " /day",
				"Vega:     " + utils.FormatNumber(greeks.Vega, 4) + " /vol pt",
			})
			return nil
		},
	}
	cmd.Flags().StringVarP(&typ, "type", "t", "call", "call or put")
	cmd.Flags().Float64Var(&spot, "spot", strategy.DefaultUnderlyingPrice, "spot price")
	cmd.Flags().Float64VarP(&strike, "strike", "k", strategy.DefaultUnderlyingPrice, "strike price")
	cmd.Flags().Float64Var(&days, "days", app.Config.Model.TimeToExpiryDays, "time to expiry in days")
	cmd.Flags().Float64Var(&rate, "rate", app.Config.Model.RiskFreeRatePercent, "risk-free rate in percent")
	cmd.Flags().Float64Var(&vol, "vol", app.Config.Model.VolatilityPercent, "volatility in percent")
	return cmd
}

func newGreeksCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "greeks",
		Short: "Position greeks of the working strategy",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			s, err := app.loadWorking(cmd.Context())
			if err != nil {
				return err
			}
			start := time.Now()
			totals := payoff.AggregateGreeks(s.EffectiveLegs(), s.Market().UnderlyingPrice, s.Params())
			logging.LogValuation(app.Logger, "greeks", len(s.Legs()), s.Market().UnderlyingPrice, time.Since(start))

			if output.IsJSON() {
				return output.JSON(totals)
			}

			table := NewTable(output, "GROUP", "DELTA", "GAMMA", "THETA", "VEGA")
			for _, id := range s.GroupIDs() {
				g, ok := totals.PerGroup[id]
				if !ok {
					continue
				}
				table.AddRow(s.GroupName(id), fmtGreek(g.Delta), fmtGreek(g.Gamma), fmtGreek(g.Theta), fmtGreek(g.Vega))
			}
			t := totals.Total
			table.AddRow(output.BoldText(analysis.TotalSeriesName), fmtGreek(t.Delta), fmtGreek(t.Gamma), fmtGreek(t.Theta), fmtGreek(t.Vega))
			table.Render()
			return nil
		},
	}
}

func fmtGreek(v float64) string {
	return utils.FormatNumber(v, 4)
}

func newSummaryCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "summary",
		Aliases: []string{"analyze"},
		Short:   "Max profit, max loss, breakevens and return on risk",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			s, err := app.loadWorking(cmd.Context())
			if err != nil {
				return err
			}

			start := time.Now()
			summary, err := analysis.Summarize(s.EffectiveLegs(), s.Market())
			logging.LogValuation(app.Logger, "summary", len(s.Legs()), s.Market().UnderlyingPrice, time.Since(start))
			if errors.Is(err, errors.ErrNoData) {
				if output.IsJSON() {
					return output.JSON(map[string]interface{}{"summary": nil})
				}
				output.Info("No active legs to analyze")
				return nil
			}
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(summary)
			}
			renderSummary(output, s.Name(), summary, app.Config.UI.Decimals)
			return nil
		},
	}
}

func renderSummary(output *Output, name string, s analysis.Summary, decimals int) {
	ror := utils.NotAvailable
	if s.ReturnOnRisk != nil {
		ror = utils.FormatNumber(*s.ReturnOnRisk, 2) + "%"
	}

	maxProfit := utils.FormatExtreme(s.MaxProfit, s.UnboundedProfit)
	maxLoss := utils.FormatExtreme(s.MaxLoss, s.UnboundedLoss)

	lines := []string{
		"Max Profit:     " + output.Green(maxProfit),
		"Max Loss:       " + output.Red(maxLoss),
		"Breakevens:     " + utils.FormatBreakevens(s.Breakevens),
		"Return on Risk: " + ror,
		"",
		"P&L at Spot:    " + output.FormatNumber(s.PayoffAtSpot, decimals) + " @ " + utils.FormatNumber(s.SpotPrice, 2),
	}
	if !s.UnboundedProfit {
		lines = append(lines, "Max Profit at:  "+utils.FormatNumber(s.MaxProfitPrice, 2))
	}
	if !s.UnboundedLoss {
		lines = append(lines, "Max Loss at:    "+utils.FormatNumber(s.MaxLossPrice, 2))
	}
	output.Box(name, lines)
	output.Dim("Sampled %s to %s in steps of %s",
		utils.FormatNumber(s.Window.Start, 2),
		utils.FormatNumber(s.Window.End, 2),
		utils.FormatNumber(s.Step, 4))
	if s.Tail.UnboundedLoss && !s.UnboundedLoss {
		output.Warning("Loss keeps growing above the sampled range")
	}
	if s.Tail.UnboundedProfit && !s.UnboundedProfit {
		output.Info("Profit keeps growing above the sampled range")
	}
}

func newScenarioTableCmd(app *App) *cobra.Command {
	var perGroup bool
	cmd := &cobra.Command{
		Use:     "table",
		Aliases: []string{"scenarios"},
		Short:   "P&L at expiry and now for spot moves of -20% to +20%",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			s, err := app.loadWorking(cmd.Context())
			if err != nil {
				return err
			}

			start := time.Now()
			table := analysis.BuildScenarioTable(s.EffectiveLegs(), s.Market(), s.Params())
			logging.LogValuation(app.Logger, "scenarios", len(s.Legs()), s.Market().UnderlyingPrice, time.Since(start))

			if output.IsJSON() {
				return output.JSON(table)
			}
			if len(table.Rows) == 0 {
				output.Info("No active legs to analyze")
				return nil
			}
			renderScenarioTable(output, s, table, perGroup || len(table.Groups) > 1, app.Config.UI.Decimals)
			return nil
		},
	}
	cmd.Flags().BoolVar(&perGroup, "groups", false, "show per-group columns even for a single group")
	return cmd
}

func renderScenarioTable(output *Output, s strategy.Strategy, table analysis.ScenarioTable, perGroup bool, decimals int) {
	headers := []string{"", "MOVE", "PRICE"}
	if perGroup {
		for _, id := range table.Groups {
			name := strings.ToUpper(s.GroupName(id))
			headers = append(headers, name+" EXPIRY", name+" NOW")
		}
	}
	headers = append(headers, "EXPIRY", "NOW")

	t := NewTable(output, headers...)
	for _, row := range table.Rows {
		marker := ""
		if row.Current {
			marker = "►"
		}
		cells := []string{marker, fmt.Sprintf("%+d%%", row.ShockPercent), utils.FormatNumber(row.Price, 2)}
		if perGroup {
			for _, id := range table.Groups {
				f := row.PerGroup[id]
				cells = append(cells, output.FormatNumber(f.Finish, decimals), output.FormatNumber(f.Theoretical, decimals))
			}
		}
		cells = append(cells, output.FormatNumber(row.Total.Finish, decimals), output.FormatNumber(row.Total.Theoretical, decimals))
		t.AddRow(cells...)
	}
	t.Render()
}

func newPayoffCmd(app *App) *cobra.Command {
	var (
		width, height int
		group         string
	)
	cmd := &cobra.Command{
		Use:     "payoff",
		Aliases: []string{"chart"},
		Short:   "Plot the payoff at expiry around spot",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			s, err := app.loadWorking(cmd.Context())
			if err != nil {
				return err
			}

			start := time.Now()
			chart := analysis.BuildChart(s.EffectiveLegs(), s.Market(), s.Snapshot().GroupNames())
			logging.LogValuation(app.Logger, "chart", len(s.Legs()), s.Market().UnderlyingPrice, time.Since(start))

			if output.IsJSON() {
				return output.JSON(chart)
			}
			if len(chart.Series) == 0 {
				output.Info("No active legs to plot")
				return nil
			}

			series := chart.Series[len(chart.Series)-1]
			if group != "" {
				found := false
				for _, sr := range chart.Series {
					if sr.GroupID == group {
						series, found = sr, true
						break
					}
				}
				if !found {
					return errors.NewValidationError("group", group, "no active legs in group")
				}
			}

			output.Bold("%s: %s", s.Name(), series.Name)
			for _, line := range renderPayoff(series.Points, chart.SpotPrice, width, height) {
				output.Println(line)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&width, "width", app.Config.UI.ChartWidth, "plot width in columns")
	cmd.Flags().IntVar(&height, "height", app.Config.UI.ChartHeight, "plot height in rows")
	cmd.Flags().StringVarP(&group, "group", "g", "", "plot a single group instead of the total")
	return cmd
}

func newCurveCmd(app *App) *cobra.Command {
	var (
		policyName string
		every      int
	)
	cmd := &cobra.Command{
		Use:   "curve",
		Short: "Print the sampled payoff curve",
		Long: `Print the total and per-group payoff at expiry over a price grid.

The chart policy spans half to one and a half times spot in 200 steps. The
summary policy is anchored on the strikes and entry prices in 500 steps.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			policy, err := sampling.ParsePolicy(policyName)
			if err != nil {
				return err
			}
			if every < 1 {
				return errors.NewValidationError("every", every, "must be at least 1")
			}
			s, err := app.loadWorking(cmd.Context())
			if err != nil {
				return err
			}

			legs := payoff.ActiveLegs(s.EffectiveLegs())
			window := sampling.WindowFor(policy, legs, s.Market())
			curves := payoff.AggregateCurve(legs, window.Prices())

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"policy": policy.String(),
					"window": window,
					"curves": curves,
				})
			}
			if len(legs) == 0 || len(curves.Total) == 0 {
				output.Info("No active legs to sample")
				return nil
			}

			t := NewTable(output, "PRICE", "PAYOFF")
			for i := 0; i < len(curves.Total); i += every {
				pt := curves.Total[i]
				t.AddRow(utils.FormatNumber(pt.Price, 2), output.FormatNumber(pt.Value, app.Config.UI.Decimals))
			}
			t.Render()
			output.Dim("%s policy, %d samples", policy, len(curves.Total))
			return nil
		},
	}
	cmd.Flags().StringVar(&policyName, "policy", "summary", "sampling policy: chart or summary")
	cmd.Flags().IntVar(&every, "every", 10, "print every n-th sample")
	return cmd
}
