package pda

import (
	"crypto/sha256"
	"fmt"

	"filippo.io/edwards25519"
)

const (
	// MaxSeeds is the maximum number of seeds accepted by the derivation.
	MaxSeeds = 16

	// MaxSeedLength is the maximum length of a single seed in bytes.
	MaxSeedLength = 32
)

// pdaMarker is appended to the hash input so program-derived addresses can
// never collide with hashes computed for other purposes.
var pdaMarker = []byte("ProgramDerivedAddress")

// AddressBump pairs a derived address with its disambiguating bump value.
type AddressBump struct {
	Address PublicKey
	Bump    uint8
}

// CreateProgramAddress derives an address from the given seeds and program
// id. The result must not be a valid ed25519 curve point (a PDA has no
// private key); when the digest lands on the curve ErrInvalidSeeds is
// returned and the caller should retry with a different bump seed.
func CreateProgramAddress(seeds [][]byte, programID PublicKey) (PublicKey, error) {
	if len(seeds) > MaxSeeds {
		return PublicKey{}, fmt.Errorf("%w: %d seeds (max %d)", ErrInvalidSeeds, len(seeds), MaxSeeds)
	}
	h := sha256.New()
	for i, seed := range seeds {
		if len(seed) > MaxSeedLength {
			return PublicKey{}, fmt.Errorf("%w: seed %d is %d bytes (max %d)", ErrInvalidSeeds, i, len(seed), MaxSeedLength)
		}
		h.Write(seed)
	}
	h.Write(programID[:])
	h.Write(pdaMarker)

	var out PublicKey
	copy(out[:], h.Sum(nil))

	if isOnCurve(out) {
		return PublicKey{}, fmt.Errorf("%w: derived address is on the curve", ErrInvalidSeeds)
	}
	return out, nil
}

// FindProgramAddress searches bump values from 255 downward for the first
// off-curve derivation. Deterministic: the same seeds and program id always
// yield the same address and bump.
func FindProgramAddress(seeds [][]byte, programID PublicKey) (AddressBump, error) {
	for bump := 255; bump >= 0; bump-- {
		trial := make([][]byte, len(seeds), len(seeds)+1)
		copy(trial, seeds)
		trial = append(trial, []byte{uint8(bump)})

		addr, err := CreateProgramAddress(trial, programID)
		if err == nil {
			return AddressBump{Address: addr, Bump: uint8(bump)}, nil
		}
	}
	return AddressBump{}, ErrNoViableBump
}

// isOnCurve reports whether b decodes to a valid ed25519 curve point.
func isOnCurve(b PublicKey) bool {
	_, err := new(edwards25519.Point).SetBytes(b[:])
	return err == nil
}
