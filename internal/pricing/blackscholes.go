// Package pricing provides Black-Scholes valuation and greeks for European options.
//
// All functions take spot s, strike k, risk-free rate r (decimal), volatility v
// (decimal) and time to expiry t (years). They never return errors: a zero
// volatility with positive time divides by zero and the resulting Inf/NaN is
// passed through to the caller.
package pricing

import (
	"math"

	"options-strategist/internal/models"
)

// MinTime replaces a non-positive time to expiry inside d1/d2.
const MinTime = 1e-6

// Abramowitz-Stegun 26.2.17 coefficients.
const (
	asB1 = 0.319381530
	asB2 = -0.356563782
	asB3 = 1.781477937
	asB4 = -1.821255978
	asB5 = 1.330274429
	asP  = 0.2316419
	asC  = 0.39894228
)

// NormCDF is the standard normal cumulative distribution function.
func NormCDF(x float64) float64 {
	if x >= 0 {
		t := 1 / (1 + asP*x)
		return 1 - asC*math.Exp(-x*x/2)*t*(t*(t*(t*(t*asB5+asB4)+asB3)+asB2)+asB1)
	}
	t := 1 / (1 - asP*x)
	return asC * math.Exp(-x*x/2) * t * (t*(t*(t*(t*asB5+asB4)+asB3)+asB2) + asB1)
}

// NormPDF is the standard normal probability density function.
func NormPDF(x float64) float64 {
	return math.Exp(-x*x/2) / math.Sqrt(2*math.Pi)
}

// D1 returns the Black-Scholes d1 term.
func D1(s, k, r, v, t float64) float64 {
	if t <= 0 {
		t = MinTime
	}
	return (math.Log(s/k) + (r+v*v/2)*t) / (v * math.Sqrt(t))
}

// D2 returns the Black-Scholes d2 term.
func D2(s, k, r, v, t float64) float64 {
	if t <= 0 {
		t = MinTime
	}
	return D1(s, k, r, v, t) - v*math.Sqrt(t)
}

// CallPrice values a European call. At expiry it is the intrinsic value.
func CallPrice(s, k, r, v, t float64) float64 {
	if t <= 0 {
		return math.Max(0, s-k)
	}
	d1 := D1(s, k, r, v, t)
	d2 := D2(s, k, r, v, t)
	return s*NormCDF(d1) - k*math.Exp(-r*t)*NormCDF(d2)
}

// PutPrice values a European put. At expiry it is the intrinsic value.
func PutPrice(s, k, r, v, t float64) float64 {
	if t <= 0 {
		return math.Max(0, k-s)
	}
	d1 := D1(s, k, r, v, t)
	d2 := D2(s, k, r, v, t)
	return k*math.Exp(-r*t)*NormCDF(-d2) - s*NormCDF(-d1)
}

// TheoreticalPrice values one unit of the instrument. An underlying is worth spot.
func TheoreticalPrice(typ models.InstrumentType, s, k, r, v, t float64) float64 {
	switch typ {
	case models.Underlying:
		return s
	case models.Call:
		return CallPrice(s, k, r, v, t)
	default:
		return PutPrice(s, k, r, v, t)
	}
}

// Delta is the sensitivity of the option value to spot.
//
// At expiry the call delta is 1 only when s > k and the put delta is -1 only
// when s < k; exactly at the money both are 0.
func Delta(typ models.InstrumentType, s, k, r, v, t float64) float64 {
	if t <= 0 {
		if typ == models.Call {
			if s > k {
				return 1
			}
			return 0
		}
		if s < k {
			return -1
		}
		return 0
	}
	nd1 := NormCDF(D1(s, k, r, v, t))
	if typ == models.Call {
		return nd1
	}
	return nd1 - 1
}

// Gamma is the rate of change of delta. Same for calls and puts.
func Gamma(s, k, r, v, t float64) float64 {
	if t <= 0 {
		return 0
	}
	return NormPDF(D1(s, k, r, v, t)) / (s * v * math.Sqrt(t))
}

// Vega per one percentage point of volatility.
func Vega(s, k, r, v, t float64) float64 {
	if t <= 0 {
		return 0
	}
	return s * NormPDF(D1(s, k, r, v, t)) * math.Sqrt(t) / 100
}

// Theta per calendar day.
func Theta(typ models.InstrumentType, s, k, r, v, t float64) float64 {
	if t <= 0 {
		return 0
	}
	d1 := D1(s, k, r, v, t)
	d2 := D2(s, k, r, v, t)
	decay := -(s * NormPDF(d1) * v) / (2 * math.Sqrt(t))
	discount := r * k * math.Exp(-r*t)
	if typ == models.Call {
		return (decay - discount*NormCDF(d2)) / 365
	}
	return (decay + discount*NormCDF(-d2)) / 365
}

// Greeks returns all sensitivities of one unit of the instrument.
// An underlying has delta 1 and no other exposure.
func Greeks(typ models.InstrumentType, s, k, r, v, t float64) models.Greeks {
	if typ == models.Underlying {
		return models.Greeks{Delta: 1}
	}
	return models.Greeks{
		Delta: Delta(typ, s, k, r, v, t),
		Gamma: Gamma(s, k, r, v, t),
		Theta: Theta(typ, s, k, r, v, t),
		Vega:  Vega(s, k, r, v, t),
	}
}

// LegPrice values one unit of the leg at the given spot.
func LegPrice(leg models.Leg, spot float64, params models.ModelParameters) float64 {
	return TheoreticalPrice(leg.Type, spot, leg.EffectiveStrike(), params.Rate(), params.Vol(), params.Years())
}

// LegGreeks returns the unscaled greeks of one unit of the leg.
func LegGreeks(leg models.Leg, spot float64, params models.ModelParameters) models.Greeks {
	return Greeks(leg.Type, spot, leg.EffectiveStrike(), params.Rate(), params.Vol(), params.Years())
}
