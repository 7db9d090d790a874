package settings

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cubist-collective/cubist-games-go/pda"
)

func treasury(fill byte) pda.PublicKey {
	var pk pda.PublicKey
	for i := range pk {
		pk[i] = fill
	}
	return pk
}

func validRecord() *Settings {
	s := Default()
	s.Domain = "example.com"
	s.ProfitSharing = []ProfitShare{{Treasury: treasury(0x01), Share: 100}}
	return s
}

// --- Settings Field Tests ---

func TestValidateSettingsFields(t *testing.T) {
	tests := []struct {
		name    string
		field   string
		mutate  func(s *Settings)
		wantErr bool
	}{
		{"valid defaults", "fee", func(s *Settings) {}, false},
		{"fee at upper bound", "fee", func(s *Settings) { s.Fee = 100 }, false},
		{"fee above 100", "fee", func(s *Settings) { s.Fee = 100.5 }, true},
		{"fee negative", "fee", func(s *Settings) { s.Fee = -1 }, true},
		{"domain at limit", "domain", func(s *Settings) { s.Domain = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa" }, false},
		{"domain over limit", "domain", func(s *Settings) { s.Domain = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa" }, true},
		{"fire threshold at cap", "fireThreshold", func(s *Settings) { s.FireThreshold = 100_000 }, false},
		{"fire threshold over cap", "fireThreshold", func(s *Settings) { s.FireThreshold = 100_001 }, true},
		{"min stake zero", "minStake", func(s *Settings) { s.MinStake = 0 }, true},
		{"min step zero", "minStep", func(s *Settings) { s.MinStep = 0 }, true},
		{"stake button zero", "stakeButtons", func(s *Settings) { s.StakeButtons = []float64{0, 1} }, true},
		{"profit sharing empty", "profitSharing", func(s *Settings) { s.ProfitSharing = nil }, true},
		{"share over 100", "profitSharing", func(s *Settings) {
			s.ProfitSharing = []ProfitShare{{Treasury: treasury(0x01), Share: 101}}
		}, true},
		{"share zero", "profitSharing", func(s *Settings) {
			s.ProfitSharing = []ProfitShare{{Treasury: treasury(0x01), Share: 0}}
		}, true},
		{"missing treasury", "profitSharing", func(s *Settings) {
			s.ProfitSharing = []ProfitShare{{Share: 100}}
		}, true},
		{"terms id invalid", "terms", func(s *Settings) {
			s.Terms = []TermsRef{{ID: "NBA!", Bump: 255}}
		}, true},
		{"terms id duplicated", "terms", func(s *Settings) {
			s.Terms = []TermsRef{{ID: "NBA", Bump: 255}, {ID: "NBA", Bump: 254}}
		}, true},
		{"terms ok", "terms", func(s *Settings) {
			s.Terms = []TermsRef{{ID: "NBA", Bump: 255}, {ID: "MLB", Bump: 254}}
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validRecord()
			tt.mutate(s)
			err := ValidateField(NamespaceSettings, tt.field, Snapshot{Settings: s})
			if tt.wantErr {
				var verr *ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, NamespaceSettings, verr.Namespace)
				assert.Equal(t, tt.field, verr.Code)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateFieldUnknown(t *testing.T) {
	err := ValidateField(NamespaceSettings, "nope", Snapshot{Settings: validRecord()})
	assert.ErrorIs(t, err, ErrUnknownField)
}

// --- Terms Field Tests ---

func TestValidateTermsFields(t *testing.T) {
	longTitle := make([]rune, TitleMaxLen+1)
	for i := range longTitle {
		longTitle[i] = 'x'
	}
	longDescription := make([]rune, DescriptionMaxLen+1)
	for i := range longDescription {
		longDescription[i] = 'y'
	}

	tests := []struct {
		name    string
		field   string
		draft   TermsDraft
		wantErr bool
	}{
		{"valid draft", "id", TermsDraft{ID: "NBA", Title: "NBA terms"}, false},
		{"id empty", "id", TermsDraft{Title: "t"}, true},
		{"id too long", "id", TermsDraft{ID: "NBAXL", Title: "t"}, true},
		{"id non alphanumeric", "id", TermsDraft{ID: "N-A", Title: "t"}, true},
		{"title missing", "title", TermsDraft{ID: "NBA"}, true},
		{"title too long", "title", TermsDraft{ID: "NBA", Title: string(longTitle)}, true},
		{"description optional", "description", TermsDraft{ID: "NBA", Title: "t"}, false},
		{"description too long", "description", TermsDraft{ID: "NBA", Title: "t", Description: string(longDescription)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := tt.draft
			err := ValidateField(NamespaceTerms, tt.field, Snapshot{Terms: &d})
			if tt.wantErr {
				var verr *ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, NamespaceTerms, verr.Namespace)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// --- Combined Rule Tests ---

func TestValidateCombinedStakeButtons(t *testing.T) {
	tests := []struct {
		name     string
		minStake float64
		buttons  []float64
		system   *SystemConfig
		wantErr  bool
	}{
		{"ascending above minimum", 0.1, []float64{0.1, 0.2, 0.5}, nil, false},
		{"button below minimum", 0.5, []float64{0.1, 0.6}, nil, true},
		{"not strictly ascending", 0.1, []float64{0.2, 0.2}, nil, true},
		{"descending", 0.1, []float64{0.5, 0.2}, nil, true},
		{"over system cap", 0.1, []float64{0.1, 0.2, 0.5}, &SystemConfig{MaxStakeButtons: 2, MaxFee: 100, MaxTerms: 8}, true},
		{"at system cap", 0.1, []float64{0.1, 0.2}, &SystemConfig{MaxStakeButtons: 2, MaxFee: 100, MaxTerms: 8}, false},
		{"empty buttons", 0.1, nil, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validRecord()
			s.MinStake = tt.minStake
			s.StakeButtons = tt.buttons
			err := ValidateCombined(NamespaceSettings, "stakeButtons", Snapshot{System: tt.system, Settings: s})
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateCombinedMinStakeRetriggersButtons(t *testing.T) {
	s := validRecord()
	s.StakeButtons = []float64{0.1, 0.2}
	s.MinStake = 0.3

	// Changing minStake re-runs the stake-button combination rule.
	err := ValidateCombined(NamespaceSettings, "minStake", Snapshot{Settings: s})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "stakeButtons", verr.Code)
}

func TestValidateCombinedFeeCeiling(t *testing.T) {
	s := validRecord()
	s.Fee = 12
	system := &SystemConfig{MaxFee: 10, MaxTerms: 8, MaxStakeButtons: 10}

	err := ValidateCombined(NamespaceSettings, "fee", Snapshot{System: system, Settings: s})
	assert.Error(t, err)

	// Without a system config the ceiling cannot be enforced.
	assert.NoError(t, ValidateCombined(NamespaceSettings, "fee", Snapshot{Settings: s}))
}

func TestValidateCombinedProfitShareSum(t *testing.T) {
	tests := []struct {
		name    string
		shares  []float64
		wantErr bool
	}{
		{"exactly 100", []float64{100}, false},
		{"split to 100", []float64{60, 40}, false},
		{"float noise tolerated", []float64{33.3, 33.3, 33.4}, false},
		{"under 100", []float64{50, 40}, true},
		{"over 100", []float64{60, 50}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validRecord()
			s.ProfitSharing = nil
			for i, share := range tt.shares {
				s.ProfitSharing = append(s.ProfitSharing, ProfitShare{
					Treasury: treasury(byte(i + 1)),
					Share:    share,
				})
			}
			err := ValidateCombined(NamespaceSettings, "profitSharing", Snapshot{Settings: s})
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateCombinedTermsCap(t *testing.T) {
	s := validRecord()
	s.Terms = []TermsRef{{ID: "A", Bump: 255}, {ID: "B", Bump: 255}, {ID: "C", Bump: 255}}
	system := &SystemConfig{MaxFee: 100, MaxTerms: 2, MaxStakeButtons: 10}

	err := ValidateCombined(NamespaceSettings, "terms", Snapshot{System: system, Settings: s})
	assert.Error(t, err)
}

func TestCombinedInputs(t *testing.T) {
	assert.Equal(t, []string{"stakeButtons"}, CombinedInputs("minStake"))
	assert.Nil(t, CombinedInputs("domain"))
}

// --- Record Tests ---

func TestValidateRecordFullPass(t *testing.T) {
	s := validRecord()
	assert.NoError(t, ValidateRecord(NamespaceSettings, Snapshot{Settings: s}))

	s.ProfitSharing[0].Share = 60
	err := ValidateRecord(NamespaceSettings, Snapshot{Settings: s})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "profitSharing", verr.Code)
}

// --- ErrorSet Tests ---

func TestErrorSetRoutesByNamespace(t *testing.T) {
	set := NewErrorSet()

	recorded := set.Record(failf(NamespaceSettings, "fee", "too high"))
	assert.True(t, recorded)
	recorded = set.Record(failf(NamespaceTerms, "title", "required"))
	assert.True(t, recorded)

	assert.True(t, set.Has(NamespaceSettings, "fee"))
	assert.True(t, set.Has(NamespaceTerms, "title"))
	assert.False(t, set.Has(NamespaceSettings, "title"))
	assert.Equal(t, 1, set.Len(NamespaceSettings))
	assert.Equal(t, 1, set.Len(NamespaceTerms))

	set.Clear(NamespaceSettings, "fee")
	assert.False(t, set.Has(NamespaceSettings, "fee"))
	assert.Zero(t, set.Len(NamespaceSettings))

	set.ClearAll(NamespaceTerms)
	assert.Zero(t, set.Len(NamespaceTerms))
	assert.Empty(t, set.Messages(NamespaceTerms))
}

func TestErrorSetIgnoresPlainErrors(t *testing.T) {
	set := NewErrorSet()
	assert.False(t, set.Record(errors.New("not a validation error")))
	assert.Zero(t, set.Len(NamespaceSettings))
}
