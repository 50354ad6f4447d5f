// Package payoff evaluates position legs at settlement and sums them across
// groups. Every terminal value in the module comes from Payoff.
package payoff

import (
	"math"

	"options-strategist/internal/models"
)

// ContractSize is the number of shares per options contract.
const ContractSize = 100

// Sign returns +1 for buy and -1 for sell.
func Sign(a models.Action) float64 {
	if a == models.ActionSell {
		return -1
	}
	return 1
}

// Multiplier returns the per-unit scale of a leg: the contract size for options,
// one share for underlying positions.
func Multiplier(leg models.Leg) float64 {
	if leg.Type == models.Underlying {
		return 1
	}
	return ContractSize
}

// Intrinsic returns the exercise value of one option at the settlement price.
// Underlying legs have no intrinsic value.
func Intrinsic(settlement float64, leg models.Leg) float64 {
	switch leg.Type {
	case models.Call:
		return math.Max(0, settlement-leg.Strike)
	case models.Put:
		return math.Max(0, leg.Strike-settlement)
	}
	return 0
}

// Payoff returns the P&L of the leg if the underlying settles at the given price.
func Payoff(settlement float64, leg models.Leg) float64 {
	qty := float64(leg.Quantity)
	if leg.Type == models.Underlying {
		// Premium is the entry price; no contract multiplier.
		return (settlement - leg.Premium) * Sign(leg.Action) * qty
	}
	net := Intrinsic(settlement, leg) - leg.Premium
	return net * Sign(leg.Action) * qty * ContractSize
}
