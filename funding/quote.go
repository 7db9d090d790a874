// Package funding decides whether a pending content-store upload can proceed
// on the current prepaid balance, and computes a top-up recommendation when
// it cannot. The unit price comes from the store's own pricing call and is
// treated as an opaque quote; this package only compares it against the
// balance and converts for display.
package funding

import "math"

// topUpPrecision is the number of decimal places the recommended top-up is
// rounded to. Rounding is always upward so the recommendation is sufficient.
const topUpPrecision = 4

// Quote is the outcome of a funding-sufficiency check. Derived, never stored
// beyond the interaction that requested it.
type Quote struct {
	RequiredUnits    uint64  // native units the upload costs
	Balance          uint64  // current prepaid balance in native units
	RequiredUSD      float64 // display-only conversion of RequiredUnits
	RecommendedTopUp float64 // native top-up amount, 0 when sufficient
	Sufficient       bool
}

// Advise compares an upload cost against the prepaid balance. usdRate is the
// USD price of one whole native token and is used only for display; the
// sufficiency decision is integer arithmetic over native units. decimals is
// the native unit precision (units per token = 10^decimals).
func Advise(requiredUnits, balance uint64, usdRate float64, decimals int) Quote {
	q := Quote{
		RequiredUnits: requiredUnits,
		Balance:       balance,
		RequiredUSD:   UnitsToNative(requiredUnits, decimals) * usdRate,
		Sufficient:    balance >= requiredUnits,
	}
	if !q.Sufficient {
		shortfall := UnitsToNative(requiredUnits-balance, decimals)
		q.RecommendedTopUp = roundUp(shortfall, topUpPrecision)
	}
	return q
}

// UnitsToNative converts integer native units to whole tokens for display.
func UnitsToNative(units uint64, decimals int) float64 {
	return float64(units) / math.Pow10(decimals)
}

// NativeToUnits converts whole tokens to integer native units.
func NativeToUnits(amount float64, decimals int) uint64 {
	if amount <= 0 {
		return 0
	}
	return uint64(math.Round(amount * math.Pow10(decimals)))
}

// roundUp rounds v upward at the given number of decimal places.
func roundUp(v float64, places int) float64 {
	scale := math.Pow10(places)
	return math.Ceil(v*scale) / scale
}
