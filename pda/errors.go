package pda

import "errors"

var (
	// ErrInvalidPublicKey indicates a malformed base58 address.
	ErrInvalidPublicKey = errors.New("pda: invalid public key")

	// ErrInvalidSeeds indicates the seed set cannot be used for derivation
	// (too many seeds, a seed over the size limit, or a derivation that
	// lands on the ed25519 curve).
	ErrInvalidSeeds = errors.New("pda: invalid seeds")

	// ErrNoViableBump indicates no bump value in [0, 255] produced an
	// off-curve address. Statistically this never happens.
	ErrNoViableBump = errors.New("pda: no viable bump found")
)
