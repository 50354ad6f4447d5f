// Package integration provides end-to-end tests across the strategy workspace,
// the store, the valuation engines and the HTTP API.
package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"options-strategist/internal/analysis"
	"options-strategist/internal/models"
	"options-strategist/internal/server"
	"options-strategist/internal/store"
	"options-strategist/internal/strategy"
	"options-strategist/internal/workers"
)

func openStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "strategies.db"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func buildCondor(t *testing.T) strategy.Strategy {
	t.Helper()
	tmpl, err := strategy.TemplateByName("Iron Condor")
	if err != nil {
		t.Fatalf("Failed to find template: %v", err)
	}
	s, err := strategy.New("").ApplyTemplate(tmpl)
	if err != nil {
		t.Fatalf("Failed to apply template: %v", err)
	}
	if s, err = s.Rename("Condor"); err != nil {
		t.Fatalf("Failed to rename: %v", err)
	}
	// A hedge in its own group, disabled so it stays out of the analysis.
	if s, err = s.AddLeg(models.Leg{
		Action: models.ActionSell, Type: models.Underlying, Premium: 100, Quantity: 50, GroupID: "hedge",
	}); err != nil {
		t.Fatalf("Failed to add hedge: %v", err)
	}
	return s.SetGroupEnabled("hedge", false)
}

// TestEndToEndWorkflow saves a strategy, serves it back over HTTP and checks the
// API analysis matches the engines called directly.
func TestEndToEndWorkflow(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	st := openStore(t)
	s := buildCondor(t)

	if err := st.SaveCurrent(ctx, s.Snapshot()); err != nil {
		t.Fatalf("Failed to save working strategy: %v", err)
	}
	if _, err := st.SaveStrategy(ctx, s.Snapshot()); err != nil {
		t.Fatalf("Failed to save strategy: %v", err)
	}

	srv := httptest.NewServer(server.New(server.Config{
		Log:      zerolog.Nop(),
		Store:    st,
		Defaults: strategy.DefaultParameters(),
	}).Handler())
	defer srv.Close()

	// Fetch the saved strategy
	resp, err := http.Get(srv.URL + "/api/strategies/Condor")
	if err != nil {
		t.Fatalf("Failed to get strategy: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	var saved models.SavedStrategy
	if err := json.NewDecoder(resp.Body).Decode(&saved); err != nil {
		t.Fatalf("Failed to decode strategy: %v", err)
	}
	if len(saved.Legs) != 5 {
		t.Fatalf("Expected 5 legs, got %d", len(saved.Legs))
	}
	if saved.Groups["hedge"].Enabled {
		t.Error("Hedge group should stay disabled after a round trip")
	}

	// Analyze it over the API
	body, _ := json.Marshal(saved.Snapshot)
	resp2, err := http.Post(srv.URL+"/api/analyze", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("Failed to analyze: %v", err)
	}
	defer resp2.Body.Close()

	var got struct {
		Available bool              `json:"available"`
		Summary   *analysis.Summary `json:"summary"`
	}
	if err := json.NewDecoder(resp2.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode summary: %v", err)
	}
	if !got.Available || got.Summary == nil {
		t.Fatal("Expected an available summary")
	}

	want, err := analysis.Summarize(s.EffectiveLegs(), s.Market())
	if err != nil {
		t.Fatalf("Failed to summarize: %v", err)
	}
	if math.Abs(got.Summary.MaxProfit-want.MaxProfit) > 1e-9 || math.Abs(got.Summary.MaxLoss-want.MaxLoss) > 1e-9 {
		t.Errorf("API summary %v/%v differs from engine %v/%v",
			got.Summary.MaxProfit, got.Summary.MaxLoss, want.MaxProfit, want.MaxLoss)
	}
	if math.Abs(want.MaxProfit-200) > 1e-6 || math.Abs(want.MaxLoss+300) > 1e-6 {
		t.Errorf("Disabled hedge leaked into the analysis: %v/%v", want.MaxProfit, want.MaxLoss)
	}

	// The working strategy survives a reopen of the same store
	current, err := st.LoadCurrent(ctx)
	if err != nil {
		t.Fatalf("Failed to load working strategy: %v", err)
	}
	if current.Name != "Condor" {
		t.Errorf("Expected working strategy Condor, got %q", current.Name)
	}
}

// TestConcurrentAnalysis runs many API analyses at once; the engines share no
// state so every response must agree.
func TestConcurrentAnalysis(t *testing.T) {
	s := buildCondor(t)
	handler := server.New(server.Config{Log: zerolog.Nop(), Defaults: strategy.DefaultParameters()}).Handler()

	body, _ := json.Marshal(s.Snapshot())

	const requests = 50
	results := make([]float64, requests)
	var wg sync.WaitGroup
	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/scenarios", bytes.NewReader(body))
			handler.ServeHTTP(rec, req)

			var table analysis.ScenarioTable
			if err := json.Unmarshal(rec.Body.Bytes(), &table); err != nil || len(table.Rows) == 0 {
				results[i] = math.NaN()
				return
			}
			results[i] = table.Rows[len(table.Rows)-1].Total.Theoretical
		}(i)
	}
	wg.Wait()

	for i, r := range results {
		if r != results[0] || math.IsNaN(r) {
			t.Fatalf("Response %d = %v, want %v", i, r, results[0])
		}
	}
}

// TestBatchSummaries summarizes saved strategies on the worker pool and checks
// the results against sequential runs.
func TestBatchSummaries(t *testing.T) {
	ctx := context.Background()
	st := openStore(t)

	for _, tmpl := range strategy.Templates() {
		s, err := strategy.New("").ApplyTemplate(tmpl)
		if err != nil {
			t.Fatalf("Failed to apply %s: %v", tmpl.Name, err)
		}
		if s, err = s.Rename(tmpl.Name); err != nil {
			t.Fatalf("Failed to rename: %v", err)
		}
		if _, err := st.SaveStrategy(ctx, s.Snapshot()); err != nil {
			t.Fatalf("Failed to save %s: %v", tmpl.Name, err)
		}
	}

	saved, err := st.ListStrategies(ctx)
	if err != nil {
		t.Fatalf("Failed to list: %v", err)
	}
	if len(saved) != len(strategy.Templates()) {
		t.Fatalf("Expected %d strategies, got %d", len(strategy.Templates()), len(saved))
	}

	summarize := func(s models.SavedStrategy) analysis.Summary {
		sum, _ := analysis.Summarize(s.Legs, s.Market)
		return sum
	}

	pool := workers.New(4)
	pool.Start()
	defer pool.Stop()

	got, err := workers.Map(ctx, pool, saved, summarize)
	if err != nil {
		t.Fatalf("Map failed: %v", err)
	}
	for i, s := range saved {
		want := summarize(s)
		if got[i].MaxProfit != want.MaxProfit || got[i].MaxLoss != want.MaxLoss {
			t.Errorf("%s: pool result %v/%v, sequential %v/%v",
				s.Name, got[i].MaxProfit, got[i].MaxLoss, want.MaxProfit, want.MaxLoss)
		}
	}
}
