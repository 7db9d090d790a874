package settings

import (
	"fmt"
	"regexp"
	"unicode/utf8"
)

// termsIDPattern is the accepted shape of a terms document id.
var termsIDPattern = regexp.MustCompile(`^[A-Za-z0-9]{1,4}$`)

// FieldNames lists every configuration field with a validation rule, in the
// order the full record is checked before submission.
var FieldNames = []string{
	"https",
	"domain",
	"fee",
	"showPot",
	"useCategories",
	"allowReferral",
	"fireThreshold",
	"minStake",
	"minStep",
	"customStakeButton",
	"stakeButtons",
	"designTemplatesHash",
	"categoriesHash",
	"profitSharing",
	"terms",
}

// TermsFieldNames lists every terms draft field, in checking order.
var TermsFieldNames = []string{"id", "title", "description"}

// Snapshot is the validation context: the records as they would look after
// the mutation under test, plus the read-only system config when known.
type Snapshot struct {
	System   *SystemConfig // nil until fetched from the ledger
	Settings *Settings
	Terms    *TermsDraft
}

// ValidateField runs the single-field rule for one field against the
// snapshot. It is purely evaluative: callers own all state mutation.
func ValidateField(ns Namespace, field string, snap Snapshot) error {
	if ns == NamespaceTerms {
		return validateTermsField(field, snap.Terms)
	}
	return validateSettingsField(field, snap.Settings)
}

func validateSettingsField(field string, s *Settings) error {
	switch field {
	case "https", "showPot", "useCategories", "allowReferral", "customStakeButton":
		return nil // booleans carry no rule beyond their type
	case "domain":
		if len(s.Domain) > DomainMaxLen {
			return failf(NamespaceSettings, field, "domain cannot be longer than %d bytes", DomainMaxLen)
		}
	case "fee":
		if s.Fee < 0 || s.Fee > 100 {
			return failf(NamespaceSettings, field, "fee must be between 0 and 100")
		}
	case "fireThreshold":
		if s.FireThreshold > 100_000 {
			return failf(NamespaceSettings, field, "fire threshold cannot exceed 100000")
		}
	case "minStake":
		if s.MinStake <= 0 {
			return failf(NamespaceSettings, field, "minimum stake must be greater than 0")
		}
	case "minStep":
		if s.MinStep <= 0 {
			return failf(NamespaceSettings, field, "stake step must be greater than 0")
		}
	case "stakeButtons":
		for _, v := range s.StakeButtons {
			if v <= 0 {
				return failf(NamespaceSettings, field, "stake buttons must be greater than 0")
			}
		}
	case "designTemplatesHash":
		return validateContentRef(field, s.DesignTemplates)
	case "categoriesHash":
		return validateContentRef(field, s.Categories)
	case "profitSharing":
		if len(s.ProfitSharing) == 0 {
			return failf(NamespaceSettings, field, "at least one profit share is required")
		}
		for i, p := range s.ProfitSharing {
			if p.Share <= 0 || p.Share > 100 {
				return failf(NamespaceSettings, field, "share %d must be between 0 (exclusive) and 100", i+1)
			}
			if p.Treasury.IsZero() {
				return failf(NamespaceSettings, field, "share %d is missing a treasury account", i+1)
			}
		}
	case "terms":
		seen := make(map[string]bool, len(s.Terms))
		for _, t := range s.Terms {
			if !termsIDPattern.MatchString(t.ID) {
				return failf(NamespaceSettings, field, "terms id %q is invalid", t.ID)
			}
			if seen[t.ID] {
				return failf(NamespaceSettings, field, "terms id %q is duplicated", t.ID)
			}
			seen[t.ID] = true
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return nil
}

func validateTermsField(field string, d *TermsDraft) error {
	switch field {
	case "id":
		if !termsIDPattern.MatchString(d.ID) {
			return failf(NamespaceTerms, field, "id must be 1-4 alphanumeric characters")
		}
	case "title":
		if d.Title == "" {
			return failf(NamespaceTerms, field, "title is required")
		}
		if utf8.RuneCountInString(d.Title) > TitleMaxLen {
			return failf(NamespaceTerms, field, "title cannot be longer than %d characters", TitleMaxLen)
		}
	case "description":
		if utf8.RuneCountInString(d.Description) > DescriptionMaxLen {
			return failf(NamespaceTerms, field, "description cannot be longer than %d characters", DescriptionMaxLen)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return nil
}

// validateContentRef checks an optional content-store reference. References
// are opaque identifiers; only emptiness vs plausibility is checked here.
func validateContentRef(field, ref string) error {
	if ref == "" {
		return nil
	}
	if len(ref) > 64 {
		return failf(NamespaceSettings, field, "content reference is too long")
	}
	return nil
}

// ValidateRecord runs every single-field rule for the namespace and returns
// the first failure, or nil. Saving re-runs this before any network call.
func ValidateRecord(ns Namespace, snap Snapshot) error {
	fields := FieldNames
	if ns == NamespaceTerms {
		fields = TermsFieldNames
	}
	for _, field := range fields {
		if err := ValidateField(ns, field, snap); err != nil {
			return err
		}
		if err := ValidateCombined(ns, field, snap); err != nil {
			return err
		}
	}
	return nil
}
