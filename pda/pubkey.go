// Package pda implements program-derived address resolution for the games
// program. Addresses are computed locally from seed values and never looked
// up: the ledger program derives the same addresses from the same seeds, so
// bit-exact reproducibility is required.
package pda

import (
	"fmt"

	"github.com/mr-tron/base58"
)

// PublicKeySize is the length of an account address in bytes.
const PublicKeySize = 32

// PublicKey is a 32-byte account address.
type PublicKey [PublicKeySize]byte

// ParsePublicKey decodes a base58-encoded address.
func ParsePublicKey(s string) (PublicKey, error) {
	var pk PublicKey
	raw, err := base58.Decode(s)
	if err != nil {
		return pk, fmt.Errorf("%w: %w", ErrInvalidPublicKey, err)
	}
	if len(raw) != PublicKeySize {
		return pk, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidPublicKey, PublicKeySize, len(raw))
	}
	copy(pk[:], raw)
	return pk, nil
}

// MustParsePublicKey is ParsePublicKey that panics on error. Intended for
// compile-time constants such as the program ID.
func MustParsePublicKey(s string) PublicKey {
	pk, err := ParsePublicKey(s)
	if err != nil {
		panic(err)
	}
	return pk
}

// String returns the base58 text form of the address.
func (pk PublicKey) String() string { return base58.Encode(pk[:]) }

// Bytes returns the address as a byte slice.
func (pk PublicKey) Bytes() []byte { return pk[:] }

// IsZero reports whether the address is all zeroes.
func (pk PublicKey) IsZero() bool { return pk == PublicKey{} }
