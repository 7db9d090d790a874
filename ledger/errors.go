package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrConnectionFailed indicates the client could not reach the RPC node.
	ErrConnectionFailed = errors.New("ledger: connection failed")

	// ErrInvalidResponse indicates the node returned a malformed or
	// unexpected response.
	ErrInvalidResponse = errors.New("ledger: invalid response")

	// ErrAccountNotFound indicates the requested account does not exist.
	ErrAccountNotFound = errors.New("ledger: account not found")

	// ErrWrongAccountKind indicates account data whose discriminator does
	// not match the expected account type.
	ErrWrongAccountKind = errors.New("ledger: wrong account kind")

	// ErrNoSigner indicates a mutating call was attempted without a signer.
	ErrNoSigner = errors.New("ledger: no transaction signer configured")
)

// ProgramError is a rejection reported by the ledger program itself, as
// opposed to a transport failure. Message is surfaced to the user verbatim.
type ProgramError struct {
	Code    int
	Message string
}

// Error implements the error interface.
func (e *ProgramError) Error() string {
	return fmt.Sprintf("ledger: program error %d: %s", e.Code, e.Message)
}

// AsProgramError unwraps err into a ProgramError when it is one.
func AsProgramError(err error) (*ProgramError, bool) {
	var perr *ProgramError
	if errors.As(err, &perr) {
		return perr, true
	}
	return nil, false
}
