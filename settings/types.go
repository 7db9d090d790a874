// Package settings holds the mutable game-configuration record, the
// validation engine that gates every mutation of it, and the fixed-schema
// encoding used when the record is submitted to the ledger program.
package settings

import "github.com/cubist-collective/cubist-games-go/pda"

const (
	// DomainMaxLen is the on-chain byte budget for the domain field.
	DomainMaxLen = 32

	// TitleMaxLen is the maximum length of a terms title in characters.
	TitleMaxLen = 64

	// DescriptionMaxLen is the maximum length of a terms description in
	// characters.
	DescriptionMaxLen = 1000

	// TermsIDMaxLen is the maximum length of a terms document id.
	TermsIDMaxLen = 4

	// DefaultDecimals is the decimal-scaling convention applied to all
	// stake and fee quantities before transmission (native unit precision).
	DefaultDecimals = 9
)

// ProfitShare assigns a percentage of game profit to a treasury account.
type ProfitShare struct {
	Treasury pda.PublicKey `json:"treasury"`
	Share    float64       `json:"share"` // percentage, all shares sum to 100
}

// TermsRef is one entry of the configuration's document index: the id of a
// published Terms & Conditions document and the bump of its derived address.
type TermsRef struct {
	ID   string `json:"id"`
	Bump uint8  `json:"bump"`
}

// Settings is the default configuration applied to newly created games.
// It is mutated field-by-field through the validation gate and submitted as
// a whole on save.
type Settings struct {
	HTTPS             bool          `json:"https"`
	Domain            string        `json:"domain"` // at most DomainMaxLen bytes
	Fee               float64       `json:"fee"`    // percentage within [0, 100]
	ShowPot           bool          `json:"showPot"`
	UseCategories     bool          `json:"useCategories"`
	AllowReferral     bool          `json:"allowReferral"`
	FireThreshold     uint32        `json:"fireThreshold"`
	MinStake          float64       `json:"minStake"`
	MinStep           float64       `json:"minStep"`
	CustomStakeButton bool          `json:"customStakeButton"`
	StakeButtons      []float64     `json:"stakeButtons"`
	DesignTemplates   string        `json:"designTemplatesHash,omitempty"` // optional content reference
	Categories        string        `json:"categoriesHash,omitempty"`      // optional content reference
	ProfitSharing     []ProfitShare `json:"profitSharing"`
	Terms             []TermsRef    `json:"terms"`
}

// Default returns the settings a fresh configuration starts from. Domain and
// HTTPS are populated from the session origin before the first save.
func Default() *Settings {
	return &Settings{
		HTTPS:             true,
		Fee:               7,
		ShowPot:           true,
		AllowReferral:     true,
		FireThreshold:     100,
		MinStake:          0.1,
		MinStep:           0.1,
		CustomStakeButton: true,
		StakeButtons:      []float64{0.1, 0.2, 0.5, 1},
	}
}

// Clone returns a deep copy of the settings record.
func (s *Settings) Clone() *Settings {
	out := *s
	out.StakeButtons = append([]float64(nil), s.StakeButtons...)
	out.ProfitSharing = append([]ProfitShare(nil), s.ProfitSharing...)
	out.Terms = append([]TermsRef(nil), s.Terms...)
	return &out
}

// HasTerms reports whether the document index already references id.
func (s *Settings) HasTerms(id string) bool {
	for _, t := range s.Terms {
		if t.ID == id {
			return true
		}
	}
	return false
}

// SystemConfig is the global, read-only snapshot fetched from the ledger.
// It is owned by the system authority and used here only as validation
// context and for display.
type SystemConfig struct {
	MaxFee          float64 `json:"maxFee"`   // global fee ceiling, percentage
	MaxTerms        uint8   `json:"maxTerms"` // documents per configuration
	MaxStakeButtons uint8   `json:"maxStakeButtons"`
}

// Stats is the read-only per-authority counters account. Never written by
// this engine.
type Stats struct {
	TotalGames    uint64 `json:"totalGames"`
	SettledGames  uint64 `json:"settledGames"`
	TotalVolume   uint64 `json:"totalVolume"` // native units
	UniquePlayers uint64 `json:"uniquePlayers"`
}

// TermsDraft is the short-lived editing record for one Terms & Conditions
// document. Bump is set only when the on-ledger pointer already exists, in
// which case the id is immutable.
type TermsDraft struct {
	ID          string `json:"id"` // at most TermsIDMaxLen alphanumeric chars
	Title       string `json:"title"`
	Description string `json:"description"`
	Bump        *uint8 `json:"-"` // nil until the pointer account exists
	Loading     bool   `json:"-"` // transient, never serialized
}

// Exists reports whether the draft refers to an already-published document.
func (d *TermsDraft) Exists() bool { return d.Bump != nil }
