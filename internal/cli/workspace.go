package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"options-strategist/internal/errors"
	"options-strategist/internal/logging"
	"options-strategist/internal/models"
	"options-strategist/internal/strategy"
	"options-strategist/pkg/utils"
)

var errStoreUnavailable = fmt.Errorf("strategy store not available: %w", errors.ErrDatabaseError)

// newWorking returns a fresh strategy seeded from the configured defaults.
func (app *App) newWorking(name string) strategy.Strategy {
	s := strategy.New(name)
	if next, err := s.SetUnderlyingPrice(app.Config.Market.UnderlyingPrice); err == nil {
		s = next
	}
	if next, err := s.SetModelParameters(app.Config.Model); err == nil {
		s = next
	}
	return s
}

// loadWorking returns the working strategy, or a fresh one when none was kept.
func (app *App) loadWorking(ctx context.Context) (strategy.Strategy, error) {
	if app.Store == nil {
		return app.newWorking(""), nil
	}
	snap, err := app.Store.LoadCurrent(ctx)
	if errors.Is(err, errors.ErrStrategyNotFound) {
		return app.newWorking(""), nil
	}
	if err != nil {
		return strategy.Strategy{}, err
	}
	return strategy.FromSnapshot(*snap), nil
}

// saveWorking persists the working strategy.
func (app *App) saveWorking(ctx context.Context, s strategy.Strategy) error {
	if app.Store == nil {
		return errStoreUnavailable
	}
	if err := app.Store.SaveCurrent(ctx, s.Snapshot()); err != nil {
		return err
	}
	app.Logger.Debug().Str("strategy", s.Name()).Int("legs", len(s.Legs())).Msg("Working strategy saved")
	return nil
}

// mutateWorking loads the working strategy, applies fn and saves the result.
func (app *App) mutateWorking(ctx context.Context, fn func(strategy.Strategy) (strategy.Strategy, error)) (strategy.Strategy, error) {
	s, err := app.loadWorking(ctx)
	if err != nil {
		return s, err
	}
	next, err := fn(s)
	if err != nil {
		return s, err
	}
	return next, app.saveWorking(ctx, next)
}

// resolveLegID accepts a 1-based position, a full id or a unique id prefix.
func resolveLegID(s strategy.Strategy, ref string) (string, error) {
	legs := s.Legs()
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(legs) {
		return legs[n-1].ID, nil
	}
	var match string
	for _, l := range legs {
		if l.ID == ref {
			return l.ID, nil
		}
		if strings.HasPrefix(l.ID, ref) {
			if match != "" {
				return "", errors.NewValidationError("leg", ref, "ambiguous leg id prefix")
			}
			match = l.ID
		}
	}
	if match == "" {
		return "", errors.Wrapf(errors.ErrLegNotFound, "leg %s", ref)
	}
	return match, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// addWorkspaceCommands adds commands that edit the working strategy.
func addWorkspaceCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newLegCmd(app))
	rootCmd.AddCommand(newMarketCmd(app))
	rootCmd.AddCommand(newParamsCmd(app))
	rootCmd.AddCommand(newGroupCmd(app))
	rootCmd.AddCommand(newTemplateCmd(app))
}

func newLegCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "leg",
		Aliases: []string{"legs"},
		Short:   "Manage strategy legs",
		Long: `Add, edit, toggle and remove the legs of the working strategy.

Legs are referenced by their position in 'leg list' or by an id prefix.`,
	}

	cmd.AddCommand(newLegAddCmd(app))
	cmd.AddCommand(newLegEditCmd(app))
	cmd.AddCommand(newLegListCmd(app))

	cmd.AddCommand(&cobra.Command{
		Use:   "toggle <leg>",
		Short: "Include or exclude a leg from analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			var leg models.Leg
			s, err := app.mutateWorking(cmd.Context(), func(s strategy.Strategy) (strategy.Strategy, error) {
				id, err := resolveLegID(s, args[0])
				if err != nil {
					return s, err
				}
				next, err := s.ToggleLeg(id)
				if err == nil {
					leg, _ = next.Leg(id)
				}
				return next, err
			})
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(leg)
			}
			state := "inactive"
			if leg.Active {
				state = "active"
			}
			output.Success("✓ Leg %s is now %s (%d legs in %s)", shortID(leg.ID), state, len(s.Legs()), s.Name())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:     "rm <leg>",
		Aliases: []string{"remove", "delete"},
		Short:   "Remove a leg",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			var removed string
			s, err := app.mutateWorking(cmd.Context(), func(s strategy.Strategy) (strategy.Strategy, error) {
				id, err := resolveLegID(s, args[0])
				if err != nil {
					return s, err
				}
				removed = id
				return s.DeleteLeg(id)
			})
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]interface{}{"removed": removed, "legs": len(s.Legs())})
			}
			output.Success("✓ Removed leg %s", shortID(removed))
			return nil
		},
	})

	return cmd
}

func newLegAddCmd(app *App) *cobra.Command {
	var group, comment string
	cmd := &cobra.Command{
		Use:   "add <buy|sell> <call|put> <strike> <premium> [qty] [group]",
		Short: "Add a leg to the working strategy",
		Long: `Add a leg to the working strategy.

Underlying legs take an entry price instead of a strike and premium.`,
		Example: `  strategist leg add buy call 100 5
  strategist leg add sell put 95 @2 2
  strategist leg add buy underlying 101.5 100 hedge`,
		Args: cobra.RangeArgs(3, 6),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			leg, err := strategy.ParseLeg(strings.Join(args, " "))
			if err != nil {
				return err
			}
			if group != "" {
				leg.GroupID = group
			}
			leg.Comment = comment

			s, err := app.mutateWorking(cmd.Context(), func(s strategy.Strategy) (strategy.Strategy, error) {
				return s.AddLeg(leg)
			})
			if err != nil {
				return err
			}
			legs := s.Legs()
			added := legs[len(legs)-1]
			logger := logging.WithStrategy(app.Logger, s.Name())
			logger.Debug().Str("leg", added.ID).Msg("Leg added")
			if output.IsJSON() {
				return output.JSON(added)
			}
			output.Success("✓ Added leg %d: %s", len(legs), added)
			return nil
		},
	}
	cmd.Flags().StringVarP(&group, "group", "g", "", "group id")
	cmd.Flags().StringVar(&comment, "comment", "", "free-form note")
	return cmd
}

func newLegEditCmd(app *App) *cobra.Command {
	var (
		action, typ, group, comment string
		strike, premium             float64
		qty                         int
	)
	cmd := &cobra.Command{
		Use:   "edit <leg>",
		Short: "Change fields of an existing leg",
		Example: `  strategist leg edit 2 --premium 2.5
  strategist leg edit 3 --type put --strike 95`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			var patch strategy.LegPatch
			flags := cmd.Flags()
			if flags.Changed("action") {
				a, err := models.ParseAction(action)
				if err != nil {
					return errors.NewValidationError("action", action, err.Error())
				}
				patch.Action = &a
			}
			if flags.Changed("type") {
				t, err := models.ParseInstrumentType(typ)
				if err != nil {
					return errors.NewValidationError("type", typ, err.Error())
				}
				patch.Type = &t
			}
			if flags.Changed("strike") {
				patch.Strike = &strike
			}
			if flags.Changed("premium") {
				patch.Premium = &premium
			}
			if flags.Changed("qty") {
				patch.Quantity = &qty
			}
			if flags.Changed("group") {
				patch.GroupID = &group
			}
			if flags.Changed("comment") {
				patch.Comment = &comment
			}

			var leg models.Leg
			_, err := app.mutateWorking(cmd.Context(), func(s strategy.Strategy) (strategy.Strategy, error) {
				id, err := resolveLegID(s, args[0])
				if err != nil {
					return s, err
				}
				next, err := s.UpdateLeg(id, patch)
				if err == nil {
					leg, _ = next.Leg(id)
				}
				return next, err
			})
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(leg)
			}
			output.Success("✓ Updated leg %s: %s", shortID(leg.ID), leg)
			return nil
		},
	}
	cmd.Flags().StringVar(&action, "action", "", "buy or sell")
	cmd.Flags().StringVar(&typ, "type", "", "call, put or underlying")
	cmd.Flags().Float64Var(&strike, "strike", 0, "strike price")
	cmd.Flags().Float64Var(&premium, "premium", 0, "premium, or entry price for underlying legs")
	cmd.Flags().IntVar(&qty, "qty", 1, "quantity")
	cmd.Flags().StringVarP(&group, "group", "g", "", "group id")
	cmd.Flags().StringVar(&comment, "comment", "", "free-form note")
	return cmd
}

func newLegListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the legs of the working strategy",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			s, err := app.loadWorking(cmd.Context())
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(s.Legs())
			}
			renderLegs(output, s)
			return nil
		},
	}
}

func renderLegs(output *Output, s strategy.Strategy) {
	legs := s.Legs()
	if len(legs) == 0 {
		output.Info("No legs. Add one with 'strategist leg add' or 'strategist template apply'.")
		return
	}
	table := NewTable(output, "#", "ID", "SIDE", "TYPE", "STRIKE", "PREMIUM", "QTY", "GROUP", "STATUS")
	for i, l := range legs {
		strike := utils.FormatNumber(l.Strike, 2)
		if l.Type == models.Underlying {
			strike = "-"
		}
		status := output.Green("active")
		if !l.Active {
			status = output.DimText("off")
		} else if !s.GroupEnabled(l.Group()) {
			status = output.Yellow("group off")
		}
		table.AddRow(
			strconv.Itoa(i+1),
			shortID(l.ID),
			strings.ToUpper(string(l.Action)),
			string(l.Type),
			strike,
			utils.FormatNumber(l.Premium, 2),
			strconv.Itoa(l.Quantity),
			s.GroupName(l.Group()),
			status,
		)
	}
	table.Render()
}

func newMarketCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "market",
		Short: "Market inputs of the working strategy",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set <underlying-price>",
		Short: "Set the spot price of the underlying",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			price, err := strconv.ParseFloat(strings.TrimPrefix(args[0], "@"), 64)
			if err != nil {
				return errors.NewValidationError("underlyingPrice", args[0], "not a number")
			}
			s, err := app.mutateWorking(cmd.Context(), func(s strategy.Strategy) (strategy.Strategy, error) {
				return s.SetUnderlyingPrice(price)
			})
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(s.Market())
			}
			output.Success("✓ Underlying price set to %s", utils.FormatCurrency(s.Market().UnderlyingPrice))
			return nil
		},
	})
	return cmd
}

func newParamsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "params",
		Short: "Model parameters of the working strategy",
	}

	var days, rate, vol float64
	set := &cobra.Command{
		Use:     "set",
		Short:   "Set time to expiry, risk-free rate or volatility",
		Example: `  strategist params set --days 45 --vol 25`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			flags := cmd.Flags()
			s, err := app.mutateWorking(cmd.Context(), func(s strategy.Strategy) (strategy.Strategy, error) {
				p := s.Params()
				if flags.Changed("days") {
					p.TimeToExpiryDays = days
				}
				if flags.Changed("rate") {
					p.RiskFreeRatePercent = rate
				}
				if flags.Changed("vol") {
					p.VolatilityPercent = vol
				}
				return s.SetModelParameters(p)
			})
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(s.Params())
			}
			p := s.Params()
			output.Success("✓ Parameters: %s days, rate %s%%, vol %s%%",
				utils.FormatNumber(p.TimeToExpiryDays, 0),
				utils.FormatNumber(p.RiskFreeRatePercent, 2),
				utils.FormatNumber(p.VolatilityPercent, 2))
			return nil
		},
	}
	set.Flags().Float64Var(&days, "days", 0, "time to expiry in days")
	set.Flags().Float64Var(&rate, "rate", 0, "risk-free rate in percent")
	set.Flags().Float64Var(&vol, "vol", 0, "volatility in percent")
	cmd.AddCommand(set)

	return cmd
}

func newGroupCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "group",
		Aliases: []string{"groups"},
		Short:   "Manage leg groups",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List groups and their settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			s, err := app.loadWorking(cmd.Context())
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(s.Groups())
			}
			counts := make(map[string]int)
			for _, l := range s.Legs() {
				counts[l.Group()]++
			}
			table := NewTable(output, "ID", "NAME", "LEGS", "ENABLED")
			for _, id := range s.GroupIDs() {
				enabled := output.Green("yes")
				if !s.GroupEnabled(id) {
					enabled = output.Red("no")
				}
				table.AddRow(id, s.GroupName(id), strconv.Itoa(counts[id]), enabled)
			}
			table.Render()
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Set the display name of a group",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			name := strings.Join(args[1:], " ")
			if _, err := app.mutateWorking(cmd.Context(), func(s strategy.Strategy) (strategy.Strategy, error) {
				return s.RenameGroup(args[0], name)
			}); err != nil {
				return err
			}
			output.Success("✓ Group %s renamed to %s", args[0], name)
			return nil
		},
	})

	for _, enabled := range []bool{true, false} {
		enabled := enabled
		use, short := "enable <id>", "Include a group in analysis"
		if !enabled {
			use, short = "disable <id>", "Exclude a group from analysis"
		}
		cmd.AddCommand(&cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				output := NewOutput(cmd)
				s, err := app.mutateWorking(cmd.Context(), func(s strategy.Strategy) (strategy.Strategy, error) {
					return s.SetGroupEnabled(args[0], enabled), nil
				})
				if err != nil {
					return err
				}
				state := "enabled"
				if !enabled {
					state = "disabled"
				}
				output.Success("✓ %s %s", s.GroupName(args[0]), state)
				return nil
			},
		})
	}

	return cmd
}

func newTemplateCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "template",
		Aliases: []string{"templates"},
		Short:   "Predefined strategies",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the built-in templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			templates := strategy.Templates()
			if output.IsJSON() {
				return output.JSON(templates)
			}
			for _, t := range templates {
				output.Bold(t.Name)
				for _, l := range t.Legs {
					output.Printf("  %s\n", l)
				}
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:     "apply <name>",
		Short:   "Replace the working legs with a template",
		Example: `  strategist template apply iron-condor`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			t, err := strategy.TemplateByName(strings.Join(args, " "))
			if err != nil {
				return err
			}
			s, err := app.mutateWorking(cmd.Context(), func(s strategy.Strategy) (strategy.Strategy, error) {
				return s.ApplyTemplate(t)
			})
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(s.Snapshot())
			}
			output.Success("✓ Applied %s (%d legs)", t.Name, len(s.Legs()))
			renderLegs(output, s)
			return nil
		},
	})

	return cmd
}
