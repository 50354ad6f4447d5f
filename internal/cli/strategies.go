package cli

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"options-strategist/internal/analysis"
	"options-strategist/internal/logging"
	"options-strategist/internal/models"
	"options-strategist/internal/strategy"
	"options-strategist/internal/workers"
	"options-strategist/pkg/utils"
)

// addStrategyCommands adds commands for the working strategy and the saved collection.
func addStrategyCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:     "strategy",
		Aliases: []string{"s"},
		Short:   "Working and saved strategies",
	}

	cmd.AddCommand(newStrategyShowCmd(app))
	cmd.AddCommand(newStrategyNewCmd(app))
	cmd.AddCommand(newStrategySaveCmd(app))
	cmd.AddCommand(newStrategyLoadCmd(app))
	cmd.AddCommand(newStrategyListCmd(app))
	cmd.AddCommand(newStrategyDeleteCmd(app))
	cmd.AddCommand(newStrategyCompareCmd(app))

	rootCmd.AddCommand(cmd)
}

func newStrategyShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the working strategy",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			s, err := app.loadWorking(cmd.Context())
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(s.Snapshot())
			}
			p := s.Params()
			output.Box(s.Name(), []string{
				"Underlying:  " + utils.FormatCurrency(s.Market().UnderlyingPrice),
				"Expiry:      " + utils.FormatNumber(p.TimeToExpiryDays, 0) + " days",
				"Rate:        " + utils.FormatNumber(p.RiskFreeRatePercent, 2) + "%",
				"Volatility:  " + utils.FormatNumber(p.VolatilityPercent, 2) + "%",
			})
			output.Println()
			renderLegs(output, s)
			return nil
		},
	}
}

func newStrategyNewCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "new [name]",
		Short: "Start a fresh working strategy",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			s := app.newWorking(strings.Join(args, " "))
			if err := app.saveWorking(cmd.Context(), s); err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(s.Snapshot())
			}
			output.Success("✓ Started %s", s.Name())
			return nil
		},
	}
}

func newStrategySaveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "save [name]",
		Short: "Save the working strategy to the collection",
		Long: `Save the working strategy under its name, or under the given name.
An existing strategy with the same name is overwritten.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				return errStoreUnavailable
			}
			s, err := app.loadWorking(cmd.Context())
			if err != nil {
				return err
			}
			if len(args) > 0 {
				if s, err = s.Rename(strings.Join(args, " ")); err != nil {
					return err
				}
				if err := app.saveWorking(cmd.Context(), s); err != nil {
					return err
				}
			}
			saved, err := app.Store.SaveStrategy(cmd.Context(), s.Snapshot())
			if err != nil {
				return err
			}
			logging.LogStrategySaved(app.Logger, saved.Name, len(saved.Legs))
			if output.IsJSON() {
				return output.JSON(saved)
			}
			output.Success("✓ Saved %s (%d legs)", saved.Name, len(saved.Legs))
			return nil
		},
	}
}

func newStrategyLoadCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "load <name>",
		Short: "Replace the working strategy with a saved one",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				return errStoreUnavailable
			}
			saved, err := app.Store.GetStrategy(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			s := strategy.FromSnapshot(saved.Snapshot)
			if err := app.saveWorking(cmd.Context(), s); err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(s.Snapshot())
			}
			output.Success("✓ Loaded %s", s.Name())
			renderLegs(output, s)
			return nil
		},
	}
}

func newStrategyListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List saved strategies",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				return errStoreUnavailable
			}
			saved, err := app.Store.ListStrategies(cmd.Context())
			if err != nil {
				return err
			}
			if output.IsJSON() {
				if saved == nil {
					saved = []models.SavedStrategy{}
				}
				return output.JSON(saved)
			}
			if len(saved) == 0 {
				output.Info("No saved strategies")
				return nil
			}
			table := NewTable(output, "NAME", "LEGS", "UNDERLYING", "UPDATED")
			for _, s := range saved {
				table.AddRow(
					s.Name,
					strconv.Itoa(len(s.Legs)),
					utils.FormatCurrency(s.Market.UnderlyingPrice),
					s.UpdatedAt.Local().Format("2006-01-02 15:04"),
				)
			}
			table.Render()
			return nil
		},
	}
}

func newStrategyDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <name>",
		Aliases: []string{"rm"},
		Short:   "Delete a saved strategy",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				return errStoreUnavailable
			}
			name := strings.Join(args, " ")
			if err := app.Store.DeleteStrategy(cmd.Context(), name); err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]string{"deleted": name})
			}
			output.Success("✓ Deleted %s", name)
			return nil
		},
	}
}

// comparison is one saved strategy's summary in the compare view.
type comparison struct {
	Name      string            `json:"name"`
	Available bool              `json:"available"`
	Summary   *analysis.Summary `json:"summary"`
}

func compareSaved(s models.SavedStrategy) comparison {
	st := strategy.FromSnapshot(s.Snapshot)
	summary, err := analysis.Summarize(st.EffectiveLegs(), st.Market())
	if err != nil {
		return comparison{Name: s.Name}
	}
	return comparison{Name: s.Name, Available: true, Summary: &summary}
}

func newStrategyCompareCmd(app *App) *cobra.Command {
	var jobs int
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare the risk of every saved strategy",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				return errStoreUnavailable
			}
			saved, err := app.Store.ListStrategies(cmd.Context())
			if err != nil {
				return err
			}

			pool := workers.New(jobs)
			pool.Start()
			defer pool.Stop()

			results, err := workers.Map(cmd.Context(), pool, saved, compareSaved)
			if err != nil {
				return err
			}
			app.Logger.Debug().Int("strategies", len(results)).Interface("pool", pool.Stats()).Msg("Compared saved strategies")

			if output.IsJSON() {
				return output.JSON(results)
			}
			if len(results) == 0 {
				output.Info("No saved strategies")
				return nil
			}

			table := NewTable(output, "NAME", "MAX PROFIT", "MAX LOSS", "RETURN ON RISK", "BREAKEVENS")
			for _, r := range results {
				if !r.Available {
					table.AddRow(r.Name, utils.NotAvailable, utils.NotAvailable, utils.NotAvailable, "")
					continue
				}
				sum := r.Summary
				ror := utils.NotAvailable
				if sum.ReturnOnRisk != nil {
					ror = utils.FormatNumber(*sum.ReturnOnRisk, 2) + "%"
				}
				table.AddRow(
					r.Name,
					output.Green(utils.FormatExtreme(sum.MaxProfit, sum.UnboundedProfit)),
					output.Red(utils.FormatExtreme(sum.MaxLoss, sum.UnboundedLoss)),
					ror,
					utils.FormatBreakevens(sum.Breakevens),
				)
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().IntVarP(&jobs, "jobs", "j", 0, "parallel workers (default: number of CPUs)")
	return cmd
}
