// Package engine owns the mutable editing state: the settings session that
// synchronizes the configuration record with the ledger, and the terms
// session that drives the publish state machine for one document. All
// mutation goes through session methods; collaborators (ledger, content
// store, price oracle) are injected and never constructed here.
package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/cubist-collective/cubist-games-go/bundlr"
	"github.com/cubist-collective/cubist-games-go/ledger"
	"github.com/cubist-collective/cubist-games-go/oracle"
	"github.com/cubist-collective/cubist-games-go/pda"
	"github.com/cubist-collective/cubist-games-go/settings"
	"github.com/cubist-collective/cubist-games-go/statestore"
)

var log = logrus.WithField("prefix", "engine")

// Account type names used to tag ledger account data.
const (
	accountSystemConfig = "SystemConfig"
	accountConfig       = "Config"
	accountStats        = "Stats"
	accountTerms        = "Terms"
)

// Config wires an Engine to its collaborators.
type Config struct {
	Authority pda.PublicKey
	Resolver  *pda.Resolver
	Program   ledger.Program
	Store     bundlr.Store
	Oracle    oracle.Source      // optional; display conversions degrade to 0
	Drafts    *statestore.Store  // optional; no draft persistence when nil
	Origin    settings.Origin    // where the deployment is hosted
	Decimals  int                // zero means settings.DefaultDecimals
	Operators []pda.PublicKey    // allowed keys besides the authority
}

// Engine is the entry point for editing sessions.
type Engine struct {
	cfg   Config
	probe *ledger.Probe
}

// New validates the wiring and returns an Engine.
func New(cfg Config) (*Engine, error) {
	if cfg.Resolver == nil {
		return nil, fmt.Errorf("engine: resolver is required")
	}
	if cfg.Program == nil {
		return nil, fmt.Errorf("engine: ledger program is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("engine: content store is required")
	}
	if cfg.Authority.IsZero() {
		return nil, fmt.Errorf("engine: authority is required")
	}
	if cfg.Decimals == 0 {
		cfg.Decimals = settings.DefaultDecimals
	}
	return &Engine{
		cfg:   cfg,
		probe: &ledger.Probe{Fetcher: cfg.Program},
	}, nil
}

// Authorized reports whether key may operate on this configuration: the
// authority always may, plus any key on the operator allow-list.
func (e *Engine) Authorized(key pda.PublicKey) bool {
	if key == e.cfg.Authority {
		return true
	}
	for _, op := range e.cfg.Operators {
		if key == op {
			return true
		}
	}
	return false
}

// Decimals returns the active decimal-scaling convention.
func (e *Engine) Decimals() int { return e.cfg.Decimals }

// usdRate fetches the display rate, degrading to 0 when the oracle is
// unavailable. Never used for on-chain decisions.
func (e *Engine) usdRate(ctx context.Context) float64 {
	if e.cfg.Oracle == nil {
		return 0
	}
	rate, err := e.cfg.Oracle.UsdPrice(ctx)
	if err != nil {
		log.WithError(err).Warn("usd rate unavailable; display conversion disabled")
		return 0
	}
	return rate
}

// fetchPayload reads an account and strips its type tag. Not-found is
// passed through untouched so callers can branch on it.
func (e *Engine) fetchPayload(ctx context.Context, addr pda.PublicKey, accountName string) ([]byte, error) {
	acct, err := e.cfg.Program.AccountInfo(ctx, addr)
	if err != nil {
		return nil, err
	}
	return ledger.AccountPayload(acct, accountName)
}

// fetchSystemConfig loads the global validation context. A missing or
// unreadable system config only disables the ceilings that depend on it.
func (e *Engine) fetchSystemConfig(ctx context.Context, addr pda.PublicKey) *settings.SystemConfig {
	payload, err := e.fetchPayload(ctx, addr, accountSystemConfig)
	if err != nil {
		if !errors.Is(err, ledger.ErrAccountNotFound) {
			log.WithError(err).Warn("system config unavailable")
		}
		return nil
	}
	sc, err := settings.DecodeSystemConfig(payload, e.cfg.Decimals)
	if err != nil {
		log.WithError(err).Warn("system config undecodable")
		return nil
	}
	return sc
}
