package pda

import "sync"

// Seed tags for the program accounts. These byte strings are fixed by the
// ledger program and must never change.
var (
	SeedSystemConfig = []byte("SystemConfig")
	SeedConfig       = []byte("Config")
	SeedStats        = []byte("Stats")
	SeedTerms        = []byte("Terms")
)

// ConfigAddresses holds the three deterministic addresses backing a game
// configuration.
type ConfigAddresses struct {
	SystemConfig AddressBump
	Config       AddressBump
	Stats        AddressBump
}

// SystemConfigAddress derives the global system-config account address for
// the system authority.
func SystemConfigAddress(systemAuthority, programID PublicKey) (AddressBump, error) {
	return FindProgramAddress([][]byte{SeedSystemConfig, systemAuthority[:]}, programID)
}

// ConfigAddress derives the configuration account address for an authority.
func ConfigAddress(authority, programID PublicKey) (AddressBump, error) {
	return FindProgramAddress([][]byte{SeedConfig, authority[:]}, programID)
}

// StatsAddress derives the stats account address for an authority.
func StatsAddress(authority, programID PublicKey) (AddressBump, error) {
	return FindProgramAddress([][]byte{SeedStats, authority[:]}, programID)
}

// TermsAddress derives the pointer account address for one Terms & Conditions
// document. documentID participates in the seeds, so each document gets its
// own account under the same authority.
func TermsAddress(authority PublicKey, documentID string, programID PublicKey) (AddressBump, error) {
	return FindProgramAddress([][]byte{SeedTerms, authority[:], []byte(documentID)}, programID)
}

// Resolver derives and caches account addresses for the lifetime of a
// session. Derivation is pure, so cached results never go stale.
type Resolver struct {
	programID       PublicKey
	systemAuthority PublicKey

	mu      sync.Mutex
	configs map[PublicKey]*ConfigAddresses
	terms   map[termsKey]AddressBump
}

type termsKey struct {
	authority PublicKey
	id        string
}

// NewResolver creates a Resolver for the given program and system authority.
func NewResolver(programID, systemAuthority PublicKey) *Resolver {
	return &Resolver{
		programID:       programID,
		systemAuthority: systemAuthority,
		configs:         make(map[PublicKey]*ConfigAddresses),
		terms:           make(map[termsKey]AddressBump),
	}
}

// ProgramID returns the program the resolver derives addresses for.
func (r *Resolver) ProgramID() PublicKey { return r.programID }

// ConfigAddresses returns the system-config, config and stats addresses for
// an authority, deriving them on first use.
func (r *Resolver) ConfigAddresses(authority PublicKey) (*ConfigAddresses, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cached, ok := r.configs[authority]; ok {
		return cached, nil
	}

	system, err := SystemConfigAddress(r.systemAuthority, r.programID)
	if err != nil {
		return nil, err
	}
	config, err := ConfigAddress(authority, r.programID)
	if err != nil {
		return nil, err
	}
	stats, err := StatsAddress(authority, r.programID)
	if err != nil {
		return nil, err
	}

	addrs := &ConfigAddresses{SystemConfig: system, Config: config, Stats: stats}
	r.configs[authority] = addrs
	return addrs, nil
}

// TermsAddress returns the pointer account address for one document,
// deriving it on first use.
func (r *Resolver) TermsAddress(authority PublicKey, documentID string) (AddressBump, error) {
	key := termsKey{authority: authority, id: documentID}

	r.mu.Lock()
	defer r.mu.Unlock()

	if cached, ok := r.terms[key]; ok {
		return cached, nil
	}
	derived, err := TermsAddress(authority, documentID, r.programID)
	if err != nil {
		return AddressBump{}, err
	}
	r.terms[key] = derived
	return derived, nil
}
