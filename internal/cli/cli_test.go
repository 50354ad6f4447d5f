package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"options-strategist/internal/analysis"
	"options-strategist/internal/config"
	"options-strategist/internal/errors"
	"options-strategist/internal/models"
	"options-strategist/internal/pricing"
	"options-strategist/internal/store"
	"options-strategist/internal/strategy"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	cfg := config.Default()
	cfg.Dir = t.TempDir()

	st, err := store.NewSQLiteStore(filepath.Join(cfg.Dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	return &App{Config: cfg, Logger: zerolog.Nop(), Store: st}
}

func run(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd := NewRootCmdWithApp(app)
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func mustRun(t *testing.T, app *App, args ...string) string {
	t.Helper()
	out, err := run(t, app, args...)
	require.NoError(t, err, out)
	return out
}

func runJSON(t *testing.T, app *App, dst interface{}, args ...string) {
	t.Helper()
	out := mustRun(t, app, append(args, "--json")...)
	require.NoError(t, json.Unmarshal([]byte(out), dst), out)
}

func TestVersionCmd(t *testing.T) {
	app := newTestApp(t)
	out := mustRun(t, app, "version")
	assert.Contains(t, out, Version)

	var v map[string]string
	runJSON(t, app, &v, "version")
	assert.Equal(t, Version, v["version"])
}

func TestConfigValidateCmd(t *testing.T) {
	app := newTestApp(t)
	out := mustRun(t, app, "config", "validate")
	assert.Contains(t, out, "Configuration is valid")

	app.Config.Server.Port = 0
	_, err := run(t, app, "config", "validate")
	assert.True(t, errors.Is(err, errors.ErrConfigInvalid))
}

func TestTemplateApplyAndSummary(t *testing.T) {
	app := newTestApp(t)
	mustRun(t, app, "template", "apply", "iron-condor")

	var legs []models.Leg
	runJSON(t, app, &legs, "leg", "list")
	require.Len(t, legs, 4)
	for _, l := range legs {
		assert.True(t, l.Active)
		assert.NotEmpty(t, l.ID)
	}

	var summary analysis.Summary
	runJSON(t, app, &summary, "summary")
	assert.InDelta(t, 200, summary.MaxProfit, 1e-6)
	assert.InDelta(t, -300, summary.MaxLoss, 1e-6)
	require.NotNil(t, summary.ReturnOnRisk)
	assert.InDelta(t, 66.6667, *summary.ReturnOnRisk, 1e-3)

	out := mustRun(t, app, "summary")
	assert.Contains(t, out, strategy.TemplateStrategyName)
	assert.Contains(t, out, "$93,00 and $107,00")
	assert.Contains(t, out, "$200,00")
}

func TestLegLifecycle(t *testing.T) {
	app := newTestApp(t)
	mustRun(t, app, "leg", "add", "buy", "call", "100", "5")
	mustRun(t, app, "leg", "add", "sell", "put", "95", "@2", "2")

	var legs []models.Leg
	runJSON(t, app, &legs, "leg", "list")
	require.Len(t, legs, 2)
	assert.Equal(t, 2, legs[1].Quantity)
	assert.Equal(t, models.DefaultGroupID, legs[1].GroupID)

	mustRun(t, app, "leg", "toggle", "1")
	runJSON(t, app, &legs, "leg", "list")
	assert.False(t, legs[0].Active)

	mustRun(t, app, "leg", "edit", legs[1].ID[:8], "--premium", "2.5", "--qty", "3")
	runJSON(t, app, &legs, "leg", "list")
	assert.Equal(t, 2.5, legs[1].Premium)
	assert.Equal(t, 3, legs[1].Quantity)

	mustRun(t, app, "leg", "rm", "1")
	runJSON(t, app, &legs, "leg", "list")
	require.Len(t, legs, 1)
	assert.Equal(t, models.Put, legs[0].Type)
}

func TestLegAdd_Invalid(t *testing.T) {
	app := newTestApp(t)

	_, err := run(t, app, "leg", "add", "buy", "call", "100", "5", "0")
	assert.True(t, errors.Is(err, errors.ErrInputValidation))

	_, err = run(t, app, "leg", "add", "hold", "call", "100", "5")
	assert.True(t, errors.Is(err, errors.ErrInputValidation))

	_, err = run(t, app, "leg", "toggle", "7")
	assert.True(t, errors.Is(err, errors.ErrLegNotFound))
}

func TestMarketAndParams(t *testing.T) {
	app := newTestApp(t)
	mustRun(t, app, "market", "set", "105.5")
	mustRun(t, app, "params", "set", "--days", "45", "--vol", "25")

	var snap models.Snapshot
	runJSON(t, app, &snap, "strategy", "show")
	assert.Equal(t, 105.5, snap.Market.UnderlyingPrice)
	assert.Equal(t, 45.0, snap.Params.TimeToExpiryDays)
	assert.Equal(t, 25.0, snap.Params.VolatilityPercent)
	assert.Equal(t, 5.0, snap.Params.RiskFreeRatePercent)

	_, err := run(t, app, "market", "set", "abc")
	assert.True(t, errors.Is(err, errors.ErrInputValidation))
}

func TestGroupDisableHidesLegs(t *testing.T) {
	app := newTestApp(t)
	mustRun(t, app, "leg", "add", "buy", "call", "100", "5")
	mustRun(t, app, "leg", "add", "buy", "underlying", "100", "10", "hedge")
	mustRun(t, app, "group", "rename", "hedge", "Long", "Stock")
	mustRun(t, app, "group", "disable", "hedge")

	var snap models.Snapshot
	runJSON(t, app, &snap, "strategy", "show")
	assert.Equal(t, "Long Stock", snap.Groups["hedge"].Name)
	assert.False(t, snap.Groups["hedge"].Enabled)

	var summary analysis.Summary
	runJSON(t, app, &summary, "summary")
	assert.True(t, summary.UnboundedProfit)
	assert.InDelta(t, -500, summary.MaxLoss, 1e-6)

	mustRun(t, app, "group", "enable", "hedge")
	runJSON(t, app, &summary, "summary")
	assert.True(t, summary.UnboundedLoss)
}

func TestStrategySaveLoadDelete(t *testing.T) {
	app := newTestApp(t)
	mustRun(t, app, "leg", "add", "buy", "put", "100", "4")
	mustRun(t, app, "strategy", "save", "Protective", "Put")

	mustRun(t, app, "strategy", "new")
	var legs []models.Leg
	runJSON(t, app, &legs, "leg", "list")
	assert.Empty(t, legs)

	mustRun(t, app, "strategy", "load", "Protective", "Put")
	runJSON(t, app, &legs, "leg", "list")
	require.Len(t, legs, 1)
	assert.Equal(t, models.Put, legs[0].Type)

	var saved []models.SavedStrategy
	runJSON(t, app, &saved, "strategy", "list")
	require.Len(t, saved, 1)
	assert.Equal(t, "Protective Put", saved[0].Name)

	mustRun(t, app, "strategy", "delete", "Protective", "Put")
	_, err := run(t, app, "strategy", "load", "Protective", "Put")
	assert.True(t, errors.Is(err, errors.ErrStrategyNotFound))
}

func TestScenarioTableCmd(t *testing.T) {
	app := newTestApp(t)
	mustRun(t, app, "template", "apply", "long", "call")

	out := mustRun(t, app, "table")
	assert.Contains(t, out, "-20%")
	assert.Contains(t, out, "+20%")
	assert.Contains(t, out, "►")

	var table analysis.ScenarioTable
	runJSON(t, app, &table, "table")
	require.Len(t, table.Rows, 21)
	assert.InDelta(t, 1500, table.Rows[20].Total.Finish, 1e-9)
}

func TestAnalysisCmds_NoLegs(t *testing.T) {
	app := newTestApp(t)
	assert.Contains(t, mustRun(t, app, "summary"), "No active legs")
	assert.Contains(t, mustRun(t, app, "table"), "No active legs")
	assert.Contains(t, mustRun(t, app, "payoff"), "No active legs")
}

func TestPayoffCmd(t *testing.T) {
	app := newTestApp(t)
	mustRun(t, app, "template", "apply", "long-straddle")

	out := mustRun(t, app, "payoff", "--width", "40", "--height", "10")
	assert.Contains(t, out, analysis.TotalSeriesName)
	assert.Contains(t, out, "•")

	_, err := run(t, app, "payoff", "--group", "nope")
	assert.True(t, errors.Is(err, errors.ErrInputValidation))
}

func TestCurveCmd(t *testing.T) {
	app := newTestApp(t)
	mustRun(t, app, "template", "apply", "long", "put")

	var curve struct {
		Policy string `json:"policy"`
		Curves struct {
			Total models.SampledCurve `json:"total"`
		} `json:"curves"`
	}
	runJSON(t, app, &curve, "curve", "--policy", "chart")
	assert.Equal(t, "chart", curve.Policy)
	assert.Len(t, curve.Curves.Total, 201)

	_, err := run(t, app, "curve", "--policy", "weekly")
	assert.True(t, errors.Is(err, errors.ErrInvalidPolicy))
}

func TestGreeksCmd(t *testing.T) {
	app := newTestApp(t)
	mustRun(t, app, "leg", "add", "buy", "call", "100", "5", "2")

	var greeks struct {
		Total models.Greeks `json:"total"`
	}
	runJSON(t, app, &greeks, "greeks")
	want := 2 * pricing.Delta(models.Call, 100, 100, 0.05, 0.2, 30.0/365)
	assert.InDelta(t, want, greeks.Total.Delta, 1e-9)
}

func TestPriceCmd(t *testing.T) {
	app := newTestApp(t)

	var res struct {
		Price float64 `json:"price"`
	}
	runJSON(t, app, &res, "price", "--type", "put", "--strike", "95", "--days", "60")
	want := pricing.TheoreticalPrice(models.Put, 100, 95, 0.05, 0.2, 60.0/365)
	assert.InDelta(t, want, res.Price, 1e-9)

	out := mustRun(t, app, "price")
	assert.Contains(t, out, "Delta")
}

func TestWithoutStore(t *testing.T) {
	app := newTestApp(t)
	app.Store = nil

	_, err := run(t, app, "leg", "add", "buy", "call", "100", "5")
	assert.True(t, errors.Is(err, errors.ErrDatabaseError))

	out := mustRun(t, app, "summary")
	assert.Contains(t, out, "No active legs")
}

func TestResolveLegID(t *testing.T) {
	s := strategy.New("")
	var err error
	for i := 0; i < 2; i++ {
		s, err = s.AddLeg(models.Leg{Action: models.ActionBuy, Type: models.Call, Strike: 100, Premium: 1, Quantity: 1})
		require.NoError(t, err)
	}
	legs := s.Legs()

	id, err := resolveLegID(s, "2")
	require.NoError(t, err)
	assert.Equal(t, legs[1].ID, id)

	id, err = resolveLegID(s, legs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, legs[0].ID, id)

	id, err = resolveLegID(s, legs[0].ID[:6])
	if strings.HasPrefix(legs[1].ID, legs[0].ID[:6]) {
		assert.Error(t, err)
	} else {
		require.NoError(t, err)
		assert.Equal(t, legs[0].ID, id)
	}

	_, err = resolveLegID(s, "zzz")
	assert.True(t, errors.Is(err, errors.ErrLegNotFound))

	_, err = resolveLegID(s, "")
	assert.Error(t, err)
}

func TestStrategyCompare(t *testing.T) {
	app := newTestApp(t)
	mustRun(t, app, "template", "apply", "iron", "condor")
	mustRun(t, app, "strategy", "save", "Condor")
	mustRun(t, app, "template", "apply", "long", "straddle")
	mustRun(t, app, "strategy", "save", "Straddle")
	mustRun(t, app, "strategy", "new", "Empty")
	mustRun(t, app, "strategy", "save")

	var results []comparison
	runJSON(t, app, &results, "strategy", "compare", "-j", "2")
	require.Len(t, results, 3)

	assert.Equal(t, "Condor", results[0].Name)
	require.True(t, results[0].Available)
	assert.InDelta(t, 200, results[0].Summary.MaxProfit, 1e-6)

	assert.Equal(t, "Empty", results[1].Name)
	assert.False(t, results[1].Available)

	assert.Equal(t, "Straddle", results[2].Name)
	assert.True(t, results[2].Summary.UnboundedProfit)

	out := mustRun(t, app, "strategy", "compare")
	assert.Contains(t, out, "Unlimited")
	assert.Contains(t, out, "66,67%")
}
