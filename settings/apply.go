package settings

import "fmt"

// Apply stores value into the named field. Values are stored even when they
// would not validate: the caller surfaces the validation error while keeping
// the value visible for correction.
func (s *Settings) Apply(field string, value interface{}) error {
	switch field {
	case "https":
		return applyBool(&s.HTTPS, field, value)
	case "domain":
		return applyString(&s.Domain, field, value)
	case "fee":
		return applyFloat(&s.Fee, field, value)
	case "showPot":
		return applyBool(&s.ShowPot, field, value)
	case "useCategories":
		return applyBool(&s.UseCategories, field, value)
	case "allowReferral":
		return applyBool(&s.AllowReferral, field, value)
	case "fireThreshold":
		f, err := toFloat(field, value)
		if err != nil {
			return err
		}
		if f < 0 {
			f = 0
		}
		s.FireThreshold = uint32(f)
	case "minStake":
		return applyFloat(&s.MinStake, field, value)
	case "minStep":
		return applyFloat(&s.MinStep, field, value)
	case "customStakeButton":
		return applyBool(&s.CustomStakeButton, field, value)
	case "stakeButtons":
		v, ok := value.([]float64)
		if !ok {
			return typeMismatch(field, value)
		}
		s.StakeButtons = append([]float64(nil), v...)
	case "designTemplatesHash":
		return applyString(&s.DesignTemplates, field, value)
	case "categoriesHash":
		return applyString(&s.Categories, field, value)
	case "profitSharing":
		v, ok := value.([]ProfitShare)
		if !ok {
			return typeMismatch(field, value)
		}
		s.ProfitSharing = append([]ProfitShare(nil), v...)
	case "terms":
		v, ok := value.([]TermsRef)
		if !ok {
			return typeMismatch(field, value)
		}
		s.Terms = append([]TermsRef(nil), v...)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return nil
}

// Apply stores value into the named draft field. The id is immutable once
// the on-ledger pointer exists.
func (d *TermsDraft) Apply(field string, value interface{}) error {
	switch field {
	case "id":
		if d.Exists() {
			return failf(NamespaceTerms, field, "id cannot be changed once the document is published")
		}
		return applyString(&d.ID, field, value)
	case "title":
		return applyString(&d.Title, field, value)
	case "description":
		return applyString(&d.Description, field, value)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
}

func applyBool(dst *bool, field string, value interface{}) error {
	v, ok := value.(bool)
	if !ok {
		return typeMismatch(field, value)
	}
	*dst = v
	return nil
}

func applyString(dst *string, field string, value interface{}) error {
	v, ok := value.(string)
	if !ok {
		return typeMismatch(field, value)
	}
	*dst = v
	return nil
}

func applyFloat(dst *float64, field string, value interface{}) error {
	v, err := toFloat(field, value)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func toFloat(field string, value interface{}) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint32:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	}
	return 0, typeMismatch(field, value)
}

func typeMismatch(field string, value interface{}) error {
	return fmt.Errorf("%w: %q does not accept %T", ErrInvalidValue, field, value)
}
