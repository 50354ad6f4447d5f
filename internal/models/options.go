package models

import (
	"fmt"
	"strings"
)

// DefaultGroupID is the group a leg belongs to when it carries no explicit group.
const DefaultGroupID = "1"

// Action represents the side of a leg.
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
)

// ParseAction parses a leg side, accepting either case.
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy", "b", "long":
		return ActionBuy, nil
	case "sell", "s", "short":
		return ActionSell, nil
	}
	return "", fmt.Errorf("unknown action %q (must be buy or sell)", s)
}

// InstrumentType represents what a leg holds.
type InstrumentType string

const (
	Call       InstrumentType = "call"
	Put        InstrumentType = "put"
	Underlying InstrumentType = "underlying"
)

// ParseInstrumentType parses an instrument type. CE/PE aliases are accepted.
func ParseInstrumentType(s string) (InstrumentType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "call", "c", "ce":
		return Call, nil
	case "put", "p", "pe":
		return Put, nil
	case "underlying", "u", "stock", "spot":
		return Underlying, nil
	}
	return "", fmt.Errorf("unknown instrument type %q (must be call, put or underlying)", s)
}

// IsOption reports whether the instrument is a call or a put.
func (t InstrumentType) IsOption() bool {
	return t == Call || t == Put
}

// Leg represents one component of a multi-leg position.
type Leg struct {
	ID       string         `json:"id"`
	Action   Action         `json:"action"`
	Type     InstrumentType `json:"type"`
	Strike   float64        `json:"strike"`
	Premium  float64        `json:"premium"` // entry price for underlying legs
	Quantity int            `json:"quantity"`
	Active   bool           `json:"active"`
	GroupID  string         `json:"groupId,omitempty"`
	Comment  string         `json:"comment,omitempty"`
}

// Group returns the group the leg is aggregated under.
func (l Leg) Group() string {
	if l.GroupID == "" {
		return DefaultGroupID
	}
	return l.GroupID
}

// EffectiveStrike returns the strike, or 0 for underlying legs.
func (l Leg) EffectiveStrike() float64 {
	if l.Type == Underlying {
		return 0
	}
	return l.Strike
}

// String renders the leg in the same shorthand the CLI accepts.
func (l Leg) String() string {
	if l.Type == Underlying {
		return fmt.Sprintf("%s %d underlying @ %.2f", l.Action, l.Quantity, l.Premium)
	}
	return fmt.Sprintf("%s %d %s %.2f @ %.2f", l.Action, l.Quantity, l.Type, l.Strike, l.Premium)
}

// MarketState holds the spot price of the underlying.
type MarketState struct {
	UnderlyingPrice float64 `json:"underlyingPrice"`
}

// ModelParameters are shared by every leg in a valuation pass.
type ModelParameters struct {
	TimeToExpiryDays    float64 `json:"timeToExpiry" mapstructure:"time_to_expiry_days"`
	RiskFreeRatePercent float64 `json:"riskFreeRate" mapstructure:"risk_free_rate_percent"`
	VolatilityPercent   float64 `json:"volatility" mapstructure:"volatility_percent"`
}

// Years returns the time to expiry in years.
func (p ModelParameters) Years() float64 {
	return p.TimeToExpiryDays / 365
}

// Rate returns the risk-free rate as a decimal.
func (p ModelParameters) Rate() float64 {
	return p.RiskFreeRatePercent / 100
}

// Vol returns the volatility as a decimal.
func (p ModelParameters) Vol() float64 {
	return p.VolatilityPercent / 100
}

// Greeks represents option sensitivities.
type Greeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
}

// Add returns the element-wise sum.
func (g Greeks) Add(o Greeks) Greeks {
	return Greeks{
		Delta: g.Delta + o.Delta,
		Gamma: g.Gamma + o.Gamma,
		Theta: g.Theta + o.Theta,
		Vega:  g.Vega + o.Vega,
	}
}

// Scale multiplies every greek by f.
func (g Greeks) Scale(f float64) Greeks {
	return Greeks{
		Delta: g.Delta * f,
		Gamma: g.Gamma * f,
		Theta: g.Theta * f,
		Vega:  g.Vega * f,
	}
}

// Group is the set of active legs sharing a group id.
type Group struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Legs []Leg  `json:"legs"`
}

// CurvePoint is a single (price, value) sample.
type CurvePoint struct {
	Price float64 `json:"price"`
	Value float64 `json:"value"`
}

// SampledCurve is an ordered sequence of samples, ascending by price.
type SampledCurve []CurvePoint

// Prices returns the price column.
func (c SampledCurve) Prices() []float64 {
	out := make([]float64, len(c))
	for i, p := range c {
		out[i] = p.Price
	}
	return out
}

// Values returns the value column.
func (c SampledCurve) Values() []float64 {
	out := make([]float64, len(c))
	for i, p := range c {
		out[i] = p.Value
	}
	return out
}
