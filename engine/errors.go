package engine

import "errors"

var (
	// ErrNotAuthorized indicates the session key is not on the operator
	// allow-list.
	ErrNotAuthorized = errors.New("engine: not authorized")

	// ErrSessionClosed indicates the hosting session was torn down while an
	// operation was in flight; its state must not be mutated.
	ErrSessionClosed = errors.New("engine: session closed")

	// ErrPublishInFlight indicates a publish is already running for this
	// document.
	ErrPublishInFlight = errors.New("engine: publish already in flight")

	// ErrConfigMissing indicates a terms operation was attempted before the
	// parent configuration exists on the ledger.
	ErrConfigMissing = errors.New("engine: configuration does not exist yet")

	// ErrTermsLimit indicates the configuration already references the
	// maximum number of terms documents.
	ErrTermsLimit = errors.New("engine: terms document limit reached")
)
