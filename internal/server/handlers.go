package server

import (
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"options-strategist/internal/analysis"
	"options-strategist/internal/errors"
	"options-strategist/internal/logging"
	"options-strategist/internal/models"
	"options-strategist/internal/payoff"
	"options-strategist/internal/pricing"
	"options-strategist/internal/sampling"
	"options-strategist/internal/strategy"
)

// positionRequest is the common body of the valuation routes.
type positionRequest struct {
	Legs   []models.Leg                    `json:"legs"`
	Market models.MarketState              `json:"market"`
	Params *models.ModelParameters         `json:"params,omitempty"`
	Groups map[string]models.GroupSettings `json:"groups,omitempty"`
	Policy string                          `json:"policy,omitempty"`
	Price  *float64                        `json:"price,omitempty"`
}

// position validates the request and returns the strategy it describes.
// Params default to the configured model parameters.
func (s *Server) position(req positionRequest) (strategy.Strategy, error) {
	params := s.defaults
	if req.Params != nil {
		params = *req.Params
	}
	if err := strategy.ValidateParameters(params); err != nil {
		return strategy.Strategy{}, err
	}
	if err := strategy.ValidateMarket(req.Market); err != nil {
		return strategy.Strategy{}, err
	}
	for i := range req.Legs {
		if err := strategy.ValidateLeg(req.Legs[i]); err != nil {
			return strategy.Strategy{}, errors.Wrapf(err, "leg %d", i+1)
		}
	}
	return strategy.FromSnapshot(models.Snapshot{
		Legs:   req.Legs,
		Market: req.Market,
		Params: params,
		Groups: req.Groups,
	}), nil
}

func (s *Server) decodePosition(w http.ResponseWriter, r *http.Request) (strategy.Strategy, bool) {
	var req positionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return strategy.Strategy{}, false
	}
	st, err := s.position(req)
	if err != nil {
		s.writeError(w, r, err)
		return strategy.Strategy{}, false
	}
	return st, true
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"version": Version,
		"service": "options-strategist",
		"store":   s.store != nil,
	})
}

type priceRequest struct {
	Type   models.InstrumentType   `json:"type"`
	Spot   float64                 `json:"spot"`
	Strike float64                 `json:"strike"`
	Params *models.ModelParameters `json:"params,omitempty"`
}

type priceResponse struct {
	Price  float64       `json:"price"`
	Greeks models.Greeks `json:"greeks"`
}

func (s *Server) handlePrice(w http.ResponseWriter, r *http.Request) {
	var req priceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	typ, err := models.ParseInstrumentType(string(req.Type))
	if err != nil {
		s.writeError(w, r, errors.NewValidationError("type", req.Type, err.Error()))
		return
	}
	params := s.defaults
	if req.Params != nil {
		params = *req.Params
	}
	if err := strategy.ValidateParameters(params); err != nil {
		s.writeError(w, r, err)
		return
	}

	rate, vol, years := params.Rate(), params.Vol(), params.Years()
	s.writeJSON(w, http.StatusOK, priceResponse{
		Price:  pricing.TheoreticalPrice(typ, req.Spot, req.Strike, rate, vol, years),
		Greeks: pricing.Greeks(typ, req.Spot, req.Strike, rate, vol, years),
	})
}

type legPayoff struct {
	ID     string  `json:"id"`
	Payoff float64 `json:"payoff"`
}

type payoffResponse struct {
	Price float64       `json:"price"`
	Legs  []legPayoff   `json:"legs"`
	Total payoff.Totals `json:"totals"`
}

// handlePayoff evaluates every active leg at one settlement price, spot by default.
func (s *Server) handlePayoff(w http.ResponseWriter, r *http.Request) {
	var req positionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	st, err := s.position(req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	price := st.Market().UnderlyingPrice
	if req.Price != nil {
		price = *req.Price
	}

	legs := st.EffectiveLegs()
	resp := payoffResponse{Price: price, Legs: []legPayoff{}, Total: payoff.Aggregate(legs, price)}
	for _, l := range payoff.ActiveLegs(legs) {
		resp.Legs = append(resp.Legs, legPayoff{ID: l.ID, Payoff: payoff.Payoff(price, l)})
	}
	s.writeJSON(w, http.StatusOK, resp)
}

type aggregateResponse struct {
	Spot        float64            `json:"spot"`
	Payoff      payoff.Totals      `json:"payoff"`
	Theoretical payoff.Totals      `json:"theoretical"`
	Greeks      payoff.GreekTotals `json:"greeks"`
}

func (s *Server) handleAggregate(w http.ResponseWriter, r *http.Request) {
	st, ok := s.decodePosition(w, r)
	if !ok {
		return
	}
	legs, spot, params := st.EffectiveLegs(), st.Market().UnderlyingPrice, st.Params()

	start := time.Now()
	resp := aggregateResponse{
		Spot:        spot,
		Payoff:      payoff.Aggregate(legs, spot),
		Theoretical: payoff.AggregateTheoretical(legs, spot, params),
		Greeks:      payoff.AggregateGreeks(legs, spot, params),
	}
	logging.LogValuation(logging.FromContext(r.Context()), "aggregate", len(legs), spot, time.Since(start))
	s.writeJSON(w, http.StatusOK, resp)
}

type curveResponse struct {
	Policy string          `json:"policy"`
	Window sampling.Window `json:"window"`
	Curves payoff.CurveSet `json:"curves"`
}

func (s *Server) handleCurve(w http.ResponseWriter, r *http.Request) {
	var req positionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	policy := sampling.PolicyChart
	if req.Policy != "" {
		p, err := sampling.ParsePolicy(req.Policy)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		policy = p
	}
	st, err := s.position(req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	legs := payoff.ActiveLegs(st.EffectiveLegs())
	window := sampling.WindowFor(policy, legs, st.Market())
	s.writeJSON(w, http.StatusOK, curveResponse{
		Policy: policy.String(),
		Window: window,
		Curves: payoff.AggregateCurve(legs, window.Prices()),
	})
}

type analyzeResponse struct {
	Available bool              `json:"available"`
	Summary   *analysis.Summary `json:"summary"`
}

// handleAnalyze returns the strategy summary. Without active legs the summary
// is null and available is false.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	st, ok := s.decodePosition(w, r)
	if !ok {
		return
	}

	start := time.Now()
	summary, err := analysis.Summarize(st.EffectiveLegs(), st.Market())
	logging.LogValuation(logging.FromContext(r.Context()), "summary", len(st.Legs()), st.Market().UnderlyingPrice, time.Since(start))
	if errors.Is(err, errors.ErrNoData) {
		s.writeJSON(w, http.StatusOK, analyzeResponse{})
		return
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, analyzeResponse{Available: true, Summary: &summary})
}

func (s *Server) handleScenarios(w http.ResponseWriter, r *http.Request) {
	st, ok := s.decodePosition(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, analysis.BuildScenarioTable(st.EffectiveLegs(), st.Market(), st.Params()))
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	st, ok := s.decodePosition(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, analysis.BuildChart(st.EffectiveLegs(), st.Market(), st.Snapshot().GroupNames()))
}

// nameParam returns the unescaped strategy name from the path.
func nameParam(r *http.Request) string {
	raw := chi.URLParam(r, "name")
	if name, err := url.PathUnescape(raw); err == nil {
		return name
	}
	return raw
}

func (s *Server) handleListStrategies(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, r, errStoreUnavailable)
		return
	}
	saved, err := s.store.ListStrategies(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if saved == nil {
		saved = []models.SavedStrategy{}
	}
	s.writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleGetStrategy(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, r, errStoreUnavailable)
		return
	}
	saved, err := s.store.GetStrategy(r.Context(), nameParam(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, saved)
}

// handleSaveStrategy stores the body under the name in the path.
func (s *Server) handleSaveStrategy(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, r, errStoreUnavailable)
		return
	}
	var snap models.Snapshot
	if err := decodeJSON(w, r, &snap); err != nil {
		s.writeError(w, r, err)
		return
	}
	snap.Name = nameParam(r)
	if snap.Params == (models.ModelParameters{}) {
		snap.Params = s.defaults
	}
	for i, l := range snap.Legs {
		if err := strategy.ValidateLeg(l); err != nil {
			s.writeError(w, r, errors.Wrapf(err, "leg %d", i+1))
			return
		}
		if l.ID == "" {
			snap.Legs[i].ID = strategy.NewLegID()
		}
	}

	saved, err := s.store.SaveStrategy(r.Context(), strategy.FromSnapshot(snap).Snapshot())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	logging.LogStrategySaved(logging.FromContext(r.Context()), saved.Name, len(saved.Legs))
	s.writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleDeleteStrategy(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, r, errStoreUnavailable)
		return
	}
	name := nameParam(r)
	if err := s.store.DeleteStrategy(r.Context(), name); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
