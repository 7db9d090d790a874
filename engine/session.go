package engine

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/cubist-collective/cubist-games-go/ledger"
	"github.com/cubist-collective/cubist-games-go/pda"
	"github.com/cubist-collective/cubist-games-go/settings"
	"github.com/cubist-collective/cubist-games-go/statestore"
)

// SettingsSession owns one in-flight edit of the configuration record. The
// record is mutated only through Update and submitted as a whole through
// Save; two sessions editing the same record are not reconciled — last write
// wins at the ledger.
type SettingsSession struct {
	engine *Engine
	addrs  *pda.ConfigAddresses

	current *settings.Settings
	system  *settings.SystemConfig // read-only validation context
	stats   *settings.Stats       // read-only display snapshot
	errs    *settings.ErrorSet
	exists  bool

	closed atomic.Bool
}

// NewSettingsSession derives the account addresses, reconciles the local
// record with the ledger-fetched one when it exists, and falls back to a
// persisted draft or the defaults otherwise.
func (e *Engine) NewSettingsSession(ctx context.Context) (*SettingsSession, error) {
	addrs, err := e.cfg.Resolver.ConfigAddresses(e.cfg.Authority)
	if err != nil {
		return nil, err
	}

	s := &SettingsSession{
		engine: e,
		addrs:  addrs,
		errs:   settings.NewErrorSet(),
	}

	s.system = e.fetchSystemConfig(ctx, addrs.SystemConfig.Address)

	payload, err := e.fetchPayload(ctx, addrs.Config.Address, accountConfig)
	switch {
	case err == nil:
		record, derr := settings.Decode(payload, e.cfg.Decimals)
		if derr != nil {
			return nil, derr
		}
		s.current = record
		s.exists = true
	case errors.Is(err, ledger.ErrAccountNotFound):
		s.current = e.loadDraftOrDefault()
	default:
		return nil, err
	}

	if s.exists {
		if statsPayload, serr := e.fetchPayload(ctx, addrs.Stats.Address, accountStats); serr == nil {
			if st, derr := settings.DecodeStats(statsPayload); derr == nil {
				s.stats = st
			}
		}
	}

	return s, nil
}

// loadDraftOrDefault resumes a persisted draft when one exists.
func (e *Engine) loadDraftOrDefault() *settings.Settings {
	if e.cfg.Drafts != nil {
		if draft, err := e.cfg.Drafts.LoadSettings(e.cfg.Authority); err == nil {
			log.Info("resuming persisted settings draft")
			return draft
		} else if !errors.Is(err, statestore.ErrNotFound) {
			log.WithError(err).Warn("draft store unreadable; starting from defaults")
		}
	}
	out := settings.Default()
	out.ApplyOrigin(e.cfg.Origin)
	// A fresh record routes all profit to the authority until edited.
	out.ProfitSharing = []settings.ProfitShare{{Treasury: e.cfg.Authority, Share: 100}}
	return out
}

// Settings returns the record as currently edited.
func (s *SettingsSession) Settings() *settings.Settings { return s.current }

// SystemConfig returns the read-only global snapshot, or nil when unknown.
func (s *SettingsSession) SystemConfig() *settings.SystemConfig { return s.system }

// Stats returns the read-only counters snapshot, or nil when unknown.
func (s *SettingsSession) Stats() *settings.Stats { return s.stats }

// Exists reports whether the configuration record exists on the ledger.
func (s *SettingsSession) Exists() bool { return s.exists }

// Errors returns the settings-namespace error messages.
func (s *SettingsSession) Errors() map[string]string {
	return s.errs.Messages(settings.NamespaceSettings)
}

// Addresses returns the derived account addresses for the session.
func (s *SettingsSession) Addresses() *pda.ConfigAddresses { return s.addrs }

// Close tears the session down; in-flight operations must not write state
// afterwards.
func (s *SettingsSession) Close() { s.closed.Store(true) }

// Update applies one field mutation through the validation gate. The new
// value is always stored (the user corrects it in place); the returned
// ValidationError, if any, is also recorded in the session's error set.
// Errors for dependent combined fields are cleared when the mutation makes
// them valid again.
func (s *SettingsSession) Update(field string, value interface{}) error {
	s.errs.Clear(settings.NamespaceSettings, field)

	updated := s.current.Clone()
	if err := updated.Apply(field, value); err != nil {
		return err // type-level misuse, not a validation outcome
	}

	snap := settings.Snapshot{System: s.system, Settings: updated}
	err := settings.ValidateField(settings.NamespaceSettings, field, snap)
	if err == nil {
		err = settings.ValidateCombined(settings.NamespaceSettings, field, snap)
	}
	if err == nil {
		for _, dep := range settings.CombinedInputs(field) {
			s.errs.Clear(settings.NamespaceSettings, dep)
		}
	} else if !s.errs.Record(err) {
		return err
	}

	s.current = updated
	s.persistDraft()
	return err
}

// persistDraft writes the record through to the draft store, best effort.
func (s *SettingsSession) persistDraft() {
	if s.engine.cfg.Drafts == nil {
		return
	}
	if err := s.engine.cfg.Drafts.SaveSettings(s.engine.cfg.Authority, s.current); err != nil {
		log.WithError(err).Warn("draft persist failed")
	}
}

// Save submits the whole record as a single ledger transaction: create when
// no record exists yet, update otherwise. The domain and protocol fields are
// rewritten from the session origin first when the host changed. Any
// validation failure aborts before any network call; a failed submission
// leaves local state untouched so a corrected resubmit starts from the same
// record.
func (s *SettingsSession) Save(ctx context.Context) (string, error) {
	record := s.current.Clone()
	if record.NewDomain(s.engine.cfg.Origin) {
		record.ApplyOrigin(s.engine.cfg.Origin)
	}

	snap := settings.Snapshot{System: s.system, Settings: record}
	if err := settings.ValidateRecord(settings.NamespaceSettings, snap); err != nil {
		s.errs.Record(err)
		return "", err
	}

	data := settings.Encode(record, s.engine.cfg.Decimals)
	keys := ledger.ConfigKeys{
		Authority:    s.engine.cfg.Authority,
		SystemConfig: s.addrs.SystemConfig.Address,
		Config:       s.addrs.Config.Address,
		Stats:        s.addrs.Stats.Address,
	}

	var sig string
	var err error
	if s.exists {
		sig, err = s.engine.cfg.Program.UpdateConfig(ctx, data, keys)
	} else {
		sig, err = s.engine.cfg.Program.InitializeConfig(ctx, data, keys)
	}
	if err != nil {
		// Terminal for this attempt; no retry, no partial apply.
		return "", err
	}
	if s.closed.Load() {
		return sig, ErrSessionClosed
	}

	s.current = record
	s.exists = true
	s.errs.ClearAll(settings.NamespaceSettings)
	if s.engine.cfg.Drafts != nil {
		if derr := s.engine.cfg.Drafts.DeleteSettings(s.engine.cfg.Authority); derr != nil {
			log.WithError(derr).Warn("draft cleanup failed")
		}
	}
	log.WithField("signature", sig).Info("configuration saved")
	return sig, nil
}
