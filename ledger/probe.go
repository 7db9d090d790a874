package ledger

import (
	"context"
	"errors"

	"github.com/cubist-collective/cubist-games-go/pda"
)

// Probe answers "does this account exist?" without ever failing. Existence
// is advisory: it only picks between create and update, and the program
// itself rejects the wrong choice, so a degraded node must not block the
// caller.
type Probe struct {
	Fetcher AccountFetcher
}

// Exists reports whether the account at addr exists. Not-found is false;
// any other fetch failure is logged and also reported as false.
func (p *Probe) Exists(ctx context.Context, addr pda.PublicKey) bool {
	_, err := p.Fetcher.AccountInfo(ctx, addr)
	if err == nil {
		return true
	}
	if !errors.Is(err, ErrAccountNotFound) {
		log.WithError(err).WithField("address", addr.String()).Warn("existence probe failed; assuming account is absent")
	}
	return false
}
