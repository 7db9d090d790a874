package main

import (
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"os"

	"github.com/cubist-collective/cubist-games-go/pda"
)

// localSigner signs transactions with a keypair loaded from disk. It stands
// in for the wallet adapter a hosted deployment would use.
type localSigner struct {
	key ed25519.PrivateKey
}

// loadSigner reads a keypair file: a JSON array of 64 bytes (32-byte seed
// followed by the 32-byte public key).
func loadSigner(path string) (*localSigner, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keypair: %w", err)
	}
	var bytes []byte
	if err := json.Unmarshal(raw, &bytes); err != nil {
		return nil, fmt.Errorf("parse keypair: %w", err)
	}
	if len(bytes) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("keypair must be %d bytes, got %d", ed25519.PrivateKeySize, len(bytes))
	}
	return &localSigner{key: ed25519.PrivateKey(bytes)}, nil
}

// PublicKey implements ledger.Signer.
func (s *localSigner) PublicKey() pda.PublicKey {
	var pk pda.PublicKey
	copy(pk[:], s.key.Public().(ed25519.PublicKey))
	return pk
}

// Sign implements ledger.Signer.
func (s *localSigner) Sign(message []byte) ([]byte, error) {
	return ed25519.Sign(s.key, message), nil
}
