package bundlr

import (
	"context"
	"encoding/hex"
	"fmt"
	"sync"

	"golang.org/x/crypto/blake2b"
)

// MockStore is an in-memory Store for tests and offline development. It
// prices uploads linearly, mints content references from a blake2b digest of
// the payload, and keeps uploaded content retrievable through Fetch.
// Function fields, when set, override the corresponding method.
type MockStore struct {
	PricePerByte uint64
	Funds        uint64

	PriceFn   func(ctx context.Context, byteLength int) (uint64, error)
	BalanceFn func(ctx context.Context) (uint64, error)
	UploadFn  func(ctx context.Context, data []byte) (string, error)
	FundFn    func(ctx context.Context, units uint64) error
	FetchFn   func(ctx context.Context, ref string) ([]byte, error)

	mu      sync.Mutex
	content map[string][]byte
	Uploads int // number of successful uploads
}

func (m *MockStore) Price(ctx context.Context, byteLength int) (uint64, error) {
	if m.PriceFn != nil {
		return m.PriceFn(ctx, byteLength)
	}
	return m.PricePerByte * uint64(byteLength), nil
}

func (m *MockStore) Balance(ctx context.Context) (uint64, error) {
	if m.BalanceFn != nil {
		return m.BalanceFn(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Funds, nil
}

func (m *MockStore) UploadJSON(ctx context.Context, data []byte) (string, error) {
	if m.UploadFn != nil {
		return m.UploadFn(ctx, data)
	}
	sum := blake2b.Sum256(data)
	ref := hex.EncodeToString(sum[:])

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.content == nil {
		m.content = make(map[string][]byte)
	}
	m.content[ref] = append([]byte(nil), data...)
	m.Uploads++
	return ref, nil
}

func (m *MockStore) Fund(ctx context.Context, units uint64) error {
	if m.FundFn != nil {
		return m.FundFn(ctx, units)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Funds += units
	return nil
}

func (m *MockStore) Fetch(ctx context.Context, ref string) ([]byte, error) {
	if m.FetchFn != nil {
		return m.FetchFn(ctx, ref)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.content[ref]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
	}
	return append([]byte(nil), data...), nil
}
