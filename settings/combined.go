package settings

import "math"

// shareSumEpsilon absorbs float accumulation noise when checking that the
// profit shares sum to exactly 100.
const shareSumEpsilon = 1e-9

// combinedInputs is the static table of fields whose mutation must trigger
// cross-field revalidation, mapping a field to the dependent fields to
// re-check. Built once, never mutated at runtime.
var combinedInputs = map[string][]string{
	"fee":           {"fee"},
	"minStake":      {"stakeButtons"},
	"minStep":       {"stakeButtons"},
	"stakeButtons":  {"stakeButtons"},
	"profitSharing": {"profitSharing"},
	"terms":         {"terms"},
}

// CombinedInputs returns the dependent fields registered for a field, or nil
// when the field has no combination rule. Callers use this both to run the
// extra checks and to clear now-satisfied dependent errors.
func CombinedInputs(field string) []string {
	return combinedInputs[field]
}

// ValidateCombined runs the combination rules registered for field. Fields
// absent from the combined-inputs table validate trivially. Only the
// settings namespace carries combination rules.
func ValidateCombined(ns Namespace, field string, snap Snapshot) error {
	if ns != NamespaceSettings {
		return nil
	}
	for _, dep := range combinedInputs[field] {
		if err := validateCombination(dep, snap); err != nil {
			return err
		}
	}
	return nil
}

func validateCombination(dep string, snap Snapshot) error {
	s := snap.Settings
	switch dep {
	case "fee":
		if snap.System != nil && s.Fee > snap.System.MaxFee {
			return failf(NamespaceSettings, "fee", "fee cannot exceed the system ceiling of %g%%", snap.System.MaxFee)
		}
	case "stakeButtons":
		if snap.System != nil && len(s.StakeButtons) > int(snap.System.MaxStakeButtons) {
			return failf(NamespaceSettings, "stakeButtons", "at most %d stake buttons are allowed", snap.System.MaxStakeButtons)
		}
		prev := math.Inf(-1)
		for _, v := range s.StakeButtons {
			if v < s.MinStake {
				return failf(NamespaceSettings, "stakeButtons", "stake buttons must be at least the minimum stake (%g)", s.MinStake)
			}
			if v <= prev {
				return failf(NamespaceSettings, "stakeButtons", "stake buttons must be sorted from lowest to highest")
			}
			prev = v
		}
	case "profitSharing":
		if len(s.ProfitSharing) == 0 {
			return nil // emptiness is the single-field rule's concern
		}
		var sum float64
		for _, p := range s.ProfitSharing {
			sum += p.Share
		}
		if math.Abs(sum-100) > shareSumEpsilon {
			return failf(NamespaceSettings, "profitSharing", "profit shares must add up to 100%% (currently %g%%)", sum)
		}
	case "terms":
		if snap.System != nil && len(s.Terms) > int(snap.System.MaxTerms) {
			return failf(NamespaceSettings, "terms", "at most %d terms documents are allowed", snap.System.MaxTerms)
		}
	}
	return nil
}
