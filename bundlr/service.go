// Package bundlr is the client for the pay-per-byte content store that
// persists Terms & Conditions bodies off-ledger. Only a short content
// reference ends up on-chain; references are opaque and immutable once
// issued.
package bundlr

import "context"

// Store is the content-store surface the engine depends on.
type Store interface {
	// Price quotes the upload cost for a payload of byteLength bytes, in
	// native units. The quote is opaque: callers compare it against the
	// balance but never recompute it.
	Price(ctx context.Context, byteLength int) (uint64, error)

	// Balance returns the prepaid balance in native units.
	Balance(ctx context.Context) (uint64, error)

	// UploadJSON uploads a canonical JSON payload and returns its content
	// reference. A failed upload yields no reference and must not be
	// retried with a stale one.
	UploadJSON(ctx context.Context, data []byte) (string, error)

	// Fund tops up the prepaid balance by the given native units.
	Fund(ctx context.Context, units uint64) error

	// Fetch reads back previously uploaded content by reference.
	Fetch(ctx context.Context, ref string) ([]byte, error)
}
