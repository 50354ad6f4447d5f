package strategy

import (
	"math"

	"options-strategist/internal/errors"
	"options-strategist/internal/models"
)

// ValidateLeg checks the invariants every leg must satisfy before it reaches
// the valuation engines.
func ValidateLeg(l models.Leg) error {
	switch l.Action {
	case models.ActionBuy, models.ActionSell:
	default:
		return errors.NewValidationError("action", l.Action, "must be buy or sell")
	}
	switch l.Type {
	case models.Call, models.Put, models.Underlying:
	default:
		return errors.NewValidationError("type", l.Type, "must be call, put or underlying")
	}
	if l.Quantity < 1 {
		return errors.NewValidationError("quantity", l.Quantity, "must be at least 1")
	}
	if !finite(l.Premium) || l.Premium < 0 {
		return errors.NewValidationError("premium", l.Premium, "must be a non-negative number")
	}
	if l.Type.IsOption() && (!finite(l.Strike) || l.Strike < 0) {
		return errors.NewValidationError("strike", l.Strike, "must be a non-negative number")
	}
	return nil
}

// ValidateMarket checks the spot price.
func ValidateMarket(m models.MarketState) error {
	if !finite(m.UnderlyingPrice) || m.UnderlyingPrice < 0 {
		return errors.NewValidationError("underlyingPrice", m.UnderlyingPrice, "must be a non-negative number")
	}
	return nil
}

// ValidateParameters checks the model parameters. Zero volatility is allowed;
// the pricing model reports the resulting values as unavailable.
func ValidateParameters(p models.ModelParameters) error {
	if !finite(p.TimeToExpiryDays) || p.TimeToExpiryDays < 0 {
		return errors.NewValidationError("timeToExpiry", p.TimeToExpiryDays, "must be a non-negative number of days")
	}
	if !finite(p.RiskFreeRatePercent) {
		return errors.NewValidationError("riskFreeRate", p.RiskFreeRatePercent, "must be a number")
	}
	if !finite(p.VolatilityPercent) || p.VolatilityPercent < 0 {
		return errors.NewValidationError("volatility", p.VolatilityPercent, "must be a non-negative number")
	}
	return nil
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
