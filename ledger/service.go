package ledger

import (
	"context"

	"github.com/cubist-collective/cubist-games-go/pda"
)

// AccountFetcher reads raw account state. Satisfied by RPCClient.
type AccountFetcher interface {
	AccountInfo(ctx context.Context, addr pda.PublicKey) (*Account, error)
}

// ConfigKeys names the accounts passed to the configuration instructions.
// Stats participates only in initializeConfig.
type ConfigKeys struct {
	Authority    pda.PublicKey
	SystemConfig pda.PublicKey
	Config       pda.PublicKey
	Stats        pda.PublicKey
}

// TermsKeys names the accounts passed to the terms instructions.
type TermsKeys struct {
	Authority pda.PublicKey
	Config    pda.PublicKey
	Terms     pda.PublicKey
}

// Program is the set of ledger operations this engine performs: one raw
// account read plus the four mutually exclusive state-mutating calls. Each
// mutating call is a single atomic transaction and may fail with a
// *ProgramError carrying the program's own code and message.
type Program interface {
	AccountFetcher

	// InitializeConfig creates the configuration and stats accounts with
	// the serialized settings record.
	InitializeConfig(ctx context.Context, settingsData []byte, keys ConfigKeys) (string, error)

	// UpdateConfig replaces the settings record of an existing configuration.
	UpdateConfig(ctx context.Context, settingsData []byte, keys ConfigKeys) (string, error)

	// CreateTerms creates the pointer account for a new terms document.
	CreateTerms(ctx context.Context, documentID, contentRef string, keys TermsKeys) (string, error)

	// UpdateTerms repoints an existing terms document at new content.
	UpdateTerms(ctx context.Context, documentID, contentRef string, keys TermsKeys) (string, error)
}
