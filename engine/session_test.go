package engine

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cubist-collective/cubist-games-go/bundlr"
	"github.com/cubist-collective/cubist-games-go/ledger"
	"github.com/cubist-collective/cubist-games-go/pda"
	"github.com/cubist-collective/cubist-games-go/settings"
	"github.com/cubist-collective/cubist-games-go/statestore"
)

func key(fill byte) pda.PublicKey {
	var pk pda.PublicKey
	for i := range pk {
		pk[i] = fill
	}
	return pk
}

var (
	programKey   = key(0xf0)
	systemKey    = key(0xf1)
	authorityKey = key(0xa1)
)

// fixture wires an Engine to in-memory collaborators. Ledger accounts are
// faked through a per-address byte map; everything absent from it is
// not-found.
type fixture struct {
	t        *testing.T
	engine   *Engine
	program  *ledger.MockProgram
	store    *bundlr.MockStore
	resolver *pda.Resolver
	addrs    *pda.ConfigAddresses
	accounts map[pda.PublicKey][]byte
}

func newFixture(t *testing.T, opts ...func(*Config)) *fixture {
	t.Helper()

	resolver := pda.NewResolver(programKey, systemKey)
	addrs, err := resolver.ConfigAddresses(authorityKey)
	require.NoError(t, err)

	f := &fixture{
		t:        t,
		resolver: resolver,
		addrs:    addrs,
		accounts: make(map[pda.PublicKey][]byte),
		store:    &bundlr.MockStore{PricePerByte: 1, Funds: 1 << 40},
	}
	f.program = &ledger.MockProgram{
		AccountInfoFn: func(ctx context.Context, addr pda.PublicKey) (*ledger.Account, error) {
			if data, ok := f.accounts[addr]; ok {
				return &ledger.Account{Lamports: 1, Data: data}, nil
			}
			return nil, ledger.ErrAccountNotFound
		},
	}

	cfg := Config{
		Authority: authorityKey,
		Resolver:  resolver,
		Program:   f.program,
		Store:     f.store,
		Origin:    settings.Origin{HTTPS: true, Host: "example.com"},
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	f.engine, err = New(cfg)
	require.NoError(t, err)
	return f
}

func withDrafts(t *testing.T) func(*Config) {
	store, err := statestore.Open(filepath.Join(t.TempDir(), "drafts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return func(cfg *Config) { cfg.Drafts = store }
}

// ledgerRecord is a settings record as it would exist on the ledger.
func ledgerRecord() *settings.Settings {
	rec := settings.Default()
	rec.Domain = "example.com"
	rec.ProfitSharing = []settings.ProfitShare{{Treasury: authorityKey, Share: 100}}
	return rec
}

func (f *fixture) putConfig(rec *settings.Settings) {
	f.accounts[f.addrs.Config.Address] =
		ledger.WrapAccountPayload(accountConfig, settings.Encode(rec, settings.DefaultDecimals))
}

func (f *fixture) putSystemConfig(sc *settings.SystemConfig) {
	f.accounts[f.addrs.SystemConfig.Address] =
		ledger.WrapAccountPayload(accountSystemConfig, settings.EncodeSystemConfig(sc, settings.DefaultDecimals))
}

func (f *fixture) putStats(st *settings.Stats) {
	f.accounts[f.addrs.Stats.Address] =
		ledger.WrapAccountPayload(accountStats, settings.EncodeStats(st))
}

func (f *fixture) session() *SettingsSession {
	f.t.Helper()
	s, err := f.engine.NewSettingsSession(context.Background())
	require.NoError(f.t, err)
	return s
}

// --- Engine Tests ---

func TestNewRequiresCollaborators(t *testing.T) {
	resolver := pda.NewResolver(programKey, systemKey)
	program := &ledger.MockProgram{}
	store := &bundlr.MockStore{}

	_, err := New(Config{Resolver: resolver, Program: program, Store: store})
	assert.Error(t, err) // no authority

	_, err = New(Config{Authority: authorityKey, Program: program, Store: store})
	assert.Error(t, err) // no resolver

	_, err = New(Config{Authority: authorityKey, Resolver: resolver, Store: store})
	assert.Error(t, err) // no program

	eng, err := New(Config{Authority: authorityKey, Resolver: resolver, Program: program, Store: store})
	require.NoError(t, err)
	assert.Equal(t, settings.DefaultDecimals, eng.Decimals())
}

func TestAuthorized(t *testing.T) {
	f := newFixture(t)
	assert.True(t, f.engine.Authorized(authorityKey))
	assert.False(t, f.engine.Authorized(key(0xbb)))

	operator := key(0xcc)
	f = newFixture(t, func(cfg *Config) { cfg.Operators = []pda.PublicKey{operator} })
	assert.True(t, f.engine.Authorized(operator))
	assert.True(t, f.engine.Authorized(authorityKey))
	assert.False(t, f.engine.Authorized(key(0xdd)))
}

// --- Session Bootstrap Tests ---

func TestSessionStartsFromDefaultsWhenNoRecord(t *testing.T) {
	f := newFixture(t)
	s := f.session()

	assert.False(t, s.Exists())
	assert.Nil(t, s.SystemConfig())
	assert.Nil(t, s.Stats())

	rec := s.Settings()
	assert.True(t, rec.HTTPS)
	assert.Equal(t, "example.com", rec.Domain)
	require.Len(t, rec.ProfitSharing, 1)
	assert.Equal(t, authorityKey, rec.ProfitSharing[0].Treasury)
	assert.Equal(t, float64(100), rec.ProfitSharing[0].Share)
}

func TestSessionLoadsLedgerRecord(t *testing.T) {
	f := newFixture(t)
	rec := ledgerRecord()
	rec.Fee = 9
	f.putConfig(rec)
	f.putSystemConfig(&settings.SystemConfig{MaxFee: 10, MaxTerms: 8, MaxStakeButtons: 10})
	f.putStats(&settings.Stats{TotalGames: 3})

	s := f.session()

	assert.True(t, s.Exists())
	assert.Equal(t, float64(9), s.Settings().Fee)
	require.NotNil(t, s.SystemConfig())
	assert.Equal(t, float64(10), s.SystemConfig().MaxFee)
	require.NotNil(t, s.Stats())
	assert.Equal(t, uint64(3), s.Stats().TotalGames)
}

func TestSessionResumesPersistedDraft(t *testing.T) {
	f := newFixture(t, withDrafts(t))

	first := f.session()
	require.Error(t, first.Update("fee", 250.0)) // stored despite being invalid

	second := f.session()
	assert.Equal(t, float64(250), second.Settings().Fee)
}

// --- Update Tests ---

func TestUpdateStoresValueAndRecordsError(t *testing.T) {
	f := newFixture(t)
	s := f.session()

	err := s.Update("fee", 250.0)
	var verr *settings.ValidationError
	require.ErrorAs(t, err, &verr)

	// The value is kept visible for in-place correction.
	assert.Equal(t, float64(250), s.Settings().Fee)
	assert.Contains(t, s.Errors(), "fee")

	require.NoError(t, s.Update("fee", 10.0))
	assert.NotContains(t, s.Errors(), "fee")
}

func TestUpdateRejectsWrongType(t *testing.T) {
	f := newFixture(t)
	s := f.session()

	err := s.Update("fee", "ten")
	assert.ErrorIs(t, err, settings.ErrInvalidValue)
	// Type misuse is not a validation outcome and records nothing.
	assert.Empty(t, s.Errors())
	assert.Equal(t, float64(7), s.Settings().Fee)
}

func TestUpdateClearsDependentCombinedErrors(t *testing.T) {
	f := newFixture(t)
	s := f.session()
	require.NoError(t, s.Update("stakeButtons", []float64{0.1, 0.2}))

	// Raising the minimum stake above the lowest button fails the
	// combination rule under the dependent field's name.
	err := s.Update("minStake", 0.3)
	require.Error(t, err)
	assert.Contains(t, s.Errors(), "stakeButtons")

	// Lowering it again clears the dependent entry.
	require.NoError(t, s.Update("minStake", 0.1))
	assert.NotContains(t, s.Errors(), "stakeButtons")
}

func TestUpdateEnforcesSystemCeilings(t *testing.T) {
	f := newFixture(t)
	f.putConfig(ledgerRecord())
	f.putSystemConfig(&settings.SystemConfig{MaxFee: 10, MaxTerms: 8, MaxStakeButtons: 10})
	s := f.session()

	err := s.Update("fee", 12.0)
	require.Error(t, err)
	assert.Contains(t, s.Errors(), "fee")
}

// --- Save Tests ---

func TestSaveAbortsOnValidationBeforeAnyNetworkCall(t *testing.T) {
	f := newFixture(t)
	submits := 0
	f.program.InitializeConfigFn = func(ctx context.Context, data []byte, keys ledger.ConfigKeys) (string, error) {
		submits++
		return "sig", nil
	}
	f.program.UpdateConfigFn = f.program.InitializeConfigFn

	s := f.session()
	require.Error(t, s.Update("fee", 250.0))

	_, err := s.Save(context.Background())
	var verr *settings.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Zero(t, submits)
	assert.Contains(t, s.Errors(), "fee")
}

func TestSaveCreatesThenUpdates(t *testing.T) {
	f := newFixture(t)
	var initialized, updated [][]byte
	f.program.InitializeConfigFn = func(ctx context.Context, data []byte, keys ledger.ConfigKeys) (string, error) {
		assert.Equal(t, authorityKey, keys.Authority)
		assert.Equal(t, f.addrs.Config.Address, keys.Config)
		assert.Equal(t, f.addrs.Stats.Address, keys.Stats)
		initialized = append(initialized, data)
		return "sig-create", nil
	}
	f.program.UpdateConfigFn = func(ctx context.Context, data []byte, keys ledger.ConfigKeys) (string, error) {
		updated = append(updated, data)
		return "sig-update", nil
	}

	s := f.session()
	sig, err := s.Save(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sig-create", sig)
	assert.True(t, s.Exists())
	require.Len(t, initialized, 1)

	rec, err := settings.Decode(initialized[0], settings.DefaultDecimals)
	require.NoError(t, err)
	assert.Equal(t, "example.com", rec.Domain)
	assert.True(t, rec.HTTPS)

	// The record now exists; the next save updates in place.
	require.NoError(t, s.Update("fee", 5.0))
	sig, err = s.Save(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sig-update", sig)
	require.Len(t, updated, 1)
	assert.Empty(t, initialized[1:])
}

func TestSaveRewritesChangedDomain(t *testing.T) {
	longHost := "a-very-long-deployment-hostname.example.com" // over the byte budget
	f := newFixture(t, func(cfg *Config) {
		cfg.Origin = settings.Origin{HTTPS: true, Host: longHost}
	})
	rec := ledgerRecord()
	rec.Domain = "old.example.com"
	f.putConfig(rec)

	var submitted []byte
	f.program.UpdateConfigFn = func(ctx context.Context, data []byte, keys ledger.ConfigKeys) (string, error) {
		submitted = data
		return "sig", nil
	}

	s := f.session()
	_, err := s.Save(context.Background())
	require.NoError(t, err)

	decoded, err := settings.Decode(submitted, settings.DefaultDecimals)
	require.NoError(t, err)
	assert.Equal(t, settings.TruncateDomain(longHost), decoded.Domain)
	assert.LessOrEqual(t, len(decoded.Domain), settings.DomainMaxLen)
	assert.Equal(t, decoded.Domain, s.Settings().Domain)
}

func TestSaveProgramRejectionLeavesLocalStateUntouched(t *testing.T) {
	f := newFixture(t)
	f.putConfig(ledgerRecord())
	f.program.UpdateConfigFn = func(ctx context.Context, data []byte, keys ledger.ConfigKeys) (string, error) {
		return "", &ledger.ProgramError{Code: 6001, Message: "fee exceeds the system ceiling"}
	}

	s := f.session()
	require.NoError(t, s.Update("fee", 5.0))

	_, err := s.Save(context.Background())
	perr, ok := ledger.AsProgramError(err)
	require.True(t, ok)
	assert.Equal(t, 6001, perr.Code)

	// The edit survives for a corrected resubmit; the rejection is not a
	// local validation failure.
	assert.Equal(t, float64(5), s.Settings().Fee)
	assert.Empty(t, s.Errors())
	assert.True(t, s.Exists())
}

func TestSaveAfterCloseDoesNotCommit(t *testing.T) {
	f := newFixture(t)
	var s *SettingsSession
	f.program.InitializeConfigFn = func(ctx context.Context, data []byte, keys ledger.ConfigKeys) (string, error) {
		s.Close() // torn down while the transaction is in flight
		return "sig", nil
	}

	s = f.session()
	sig, err := s.Save(context.Background())
	assert.ErrorIs(t, err, ErrSessionClosed)
	assert.Equal(t, "sig", sig)
	assert.False(t, s.Exists())
}

func TestSaveClearsPersistedDraft(t *testing.T) {
	f := newFixture(t, withDrafts(t))
	f.program.InitializeConfigFn = func(ctx context.Context, data []byte, keys ledger.ConfigKeys) (string, error) {
		return "sig", nil
	}

	s := f.session()
	require.NoError(t, s.Update("fee", 5.0))
	_, err := f.engine.cfg.Drafts.LoadSettings(authorityKey)
	require.NoError(t, err)

	_, err = s.Save(context.Background())
	require.NoError(t, err)

	_, err = f.engine.cfg.Drafts.LoadSettings(authorityKey)
	assert.ErrorIs(t, err, statestore.ErrNotFound)
}

func TestSessionPropagatesLedgerFailure(t *testing.T) {
	f := newFixture(t)
	f.program.AccountInfoFn = func(ctx context.Context, addr pda.PublicKey) (*ledger.Account, error) {
		return nil, errors.New("node unreachable")
	}

	_, err := f.engine.NewSettingsSession(context.Background())
	assert.Error(t, err)
}
