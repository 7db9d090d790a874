package engine

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/cubist-collective/cubist-games-go/funding"
	"github.com/cubist-collective/cubist-games-go/ledger"
	"github.com/cubist-collective/cubist-games-go/settings"
	"github.com/cubist-collective/cubist-games-go/statestore"
)

// PublishState is the position of a terms-publishing machine.
type PublishState uint8

const (
	StateIdle PublishState = iota
	StateValidating
	StateQuoting
	StateFundingRequired
	StateUploading
	StateProbing
	StateSubmitting
	StateReconciling
)

// String returns the display name of the state.
func (s PublishState) String() string {
	switch s {
	case StateValidating:
		return "validating"
	case StateQuoting:
		return "quoting"
	case StateFundingRequired:
		return "funding-required"
	case StateUploading:
		return "uploading"
	case StateProbing:
		return "probing"
	case StateSubmitting:
		return "submitting"
	case StateReconciling:
		return "reconciling"
	default:
		return "idle"
	}
}

// PublishOutcome reports how a publish attempt ended. FundingRequired is a
// blocking precondition, not a failure: the caller funds the shortfall and
// publishes again without re-entering content.
type PublishOutcome struct {
	FundingRequired bool
	Quote           *funding.Quote
	Created         bool // false means an existing pointer was updated
	ContentRef      string
	Signature       string
}

// TermsSession is the short-lived editing machine for one Terms & Conditions
// document. At most one publish runs per session; separate documents may
// publish concurrently through separate sessions.
type TermsSession struct {
	engine *Engine
	parent *SettingsSession
	draft  *settings.TermsDraft
	quote  *funding.Quote
	state  PublishState

	inFlight atomic.Bool
}

// NewTermsSession opens an empty draft for a new document. The parent
// configuration must already exist and have room in its document index.
func (e *Engine) NewTermsSession(parent *SettingsSession) (*TermsSession, error) {
	if !parent.exists {
		return nil, ErrConfigMissing
	}
	if limit := e.termsLimit(parent); len(parent.current.Terms) >= limit {
		return nil, ErrTermsLimit
	}
	return &TermsSession{engine: e, parent: parent, draft: &settings.TermsDraft{}}, nil
}

// EditTermsSession opens a draft for an already-published document: the
// pointer account is fetched, its content read back from the store and
// decoded into the draft.
func (e *Engine) EditTermsSession(ctx context.Context, parent *SettingsSession, documentID string) (*TermsSession, error) {
	if !parent.exists {
		return nil, ErrConfigMissing
	}
	addr, err := e.cfg.Resolver.TermsAddress(e.cfg.Authority, documentID)
	if err != nil {
		return nil, err
	}
	payload, err := e.fetchPayload(ctx, addr.Address, accountTerms)
	if err != nil {
		return nil, err
	}
	pointer, err := settings.DecodeTermsPointer(payload)
	if err != nil {
		return nil, err
	}
	body, err := e.cfg.Store.Fetch(ctx, pointer.ContentRef)
	if err != nil {
		return nil, err
	}
	content, err := settings.ParseTermsContent(body)
	if err != nil {
		return nil, err
	}
	if parent.closed.Load() {
		return nil, ErrSessionClosed
	}

	bump := pointer.Bump
	return &TermsSession{
		engine: e,
		parent: parent,
		draft: &settings.TermsDraft{
			ID:          documentID,
			Title:       content.Title,
			Description: content.Description,
			Bump:        &bump,
		},
	}, nil
}

// termsLimit returns the per-configuration document cap.
func (e *Engine) termsLimit(parent *SettingsSession) int {
	if parent.system != nil && parent.system.MaxTerms > 0 {
		return int(parent.system.MaxTerms)
	}
	return 8
}

// Draft returns the draft as currently edited.
func (t *TermsSession) Draft() *settings.TermsDraft { return t.draft }

// State returns the machine's current position.
func (t *TermsSession) State() PublishState { return t.state }

// Quote returns the funding quote from the last publish attempt, if any.
func (t *TermsSession) Quote() *funding.Quote { return t.quote }

// Errors returns the terms-namespace error messages.
func (t *TermsSession) Errors() map[string]string {
	return t.parent.errs.Messages(settings.NamespaceTerms)
}

// Update applies one draft field mutation through the validation gate,
// storing the value optimistically like SettingsSession.Update. The id is
// immutable once the document is published.
func (t *TermsSession) Update(field string, value interface{}) error {
	t.parent.errs.Clear(settings.NamespaceTerms, field)

	previousID := t.draft.ID
	if err := t.draft.Apply(field, value); err != nil {
		t.parent.errs.Record(err)
		return err
	}

	snap := settings.Snapshot{Terms: t.draft}
	err := settings.ValidateField(settings.NamespaceTerms, field, snap)
	if err != nil && !t.parent.errs.Record(err) {
		return err
	}
	t.persistDraft(previousID)
	return err
}

// persistDraft writes the draft through to the draft store, best effort.
// When the id changed, the draft stored under the old id is dropped.
func (t *TermsSession) persistDraft(previousID string) {
	drafts := t.engine.cfg.Drafts
	if drafts == nil || t.draft.ID == "" {
		return
	}
	authority := t.engine.cfg.Authority
	if previousID != "" && previousID != t.draft.ID {
		_ = drafts.DeleteTerms(authority, previousID)
	}
	if err := drafts.SaveTerms(authority, t.draft); err != nil {
		log.WithError(err).Warn("terms draft persist failed")
	}
}

// Cancel returns a funding-blocked machine to idle without publishing.
func (t *TermsSession) Cancel() {
	t.state = StateIdle
	t.quote = nil
}

// Fund tops up the prepaid store balance by amount whole native tokens and
// returns the machine to idle so the next Publish re-quotes.
func (t *TermsSession) Fund(ctx context.Context, amount float64) error {
	units := funding.NativeToUnits(amount, t.engine.cfg.Decimals)
	if err := t.engine.cfg.Store.Fund(ctx, units); err != nil {
		return err
	}
	t.Cancel()
	return nil
}

// Publish drives the machine through
// validate → quote → fund-check → upload → probe → submit → reconcile.
// Failure at any step is terminal for the attempt and returns the machine
// to idle with the draft intact; an insufficient balance pauses in
// funding-required instead of failing. Exactly one ledger transaction is
// submitted per successful attempt: createTerms when no pointer account
// existed, updateTerms otherwise.
func (t *TermsSession) Publish(ctx context.Context) (*PublishOutcome, error) {
	if !t.inFlight.CompareAndSwap(false, true) {
		return nil, ErrPublishInFlight
	}
	t.draft.Loading = true
	defer func() {
		t.draft.Loading = false
		t.inFlight.Store(false)
	}()

	t.state = StateValidating
	snap := settings.Snapshot{Terms: t.draft}
	if err := settings.ValidateRecord(settings.NamespaceTerms, snap); err != nil {
		t.parent.errs.Record(err)
		t.state = StateIdle
		return nil, err
	}

	// The canonical byte sequence is priced, funded against and uploaded;
	// it must stay identical across those steps.
	content := t.draft.CanonicalContent()

	t.state = StateQuoting
	price, balance, err := t.quoteConcurrently(ctx, len(content))
	if err != nil {
		t.state = StateIdle
		return nil, err
	}
	if t.parent.closed.Load() {
		return nil, ErrSessionClosed
	}

	quote := funding.Advise(price, balance, t.engine.usdRate(ctx), t.engine.cfg.Decimals)
	t.quote = &quote
	if !quote.Sufficient {
		t.state = StateFundingRequired
		log.WithFields(logrus.Fields{
			"required": quote.RequiredUnits,
			"balance":  quote.Balance,
		}).Info("content store balance insufficient")
		return &PublishOutcome{FundingRequired: true, Quote: &quote}, nil
	}

	t.state = StateUploading
	ref, err := t.engine.cfg.Store.UploadJSON(ctx, content)
	if err != nil {
		// No reference was issued; a retry starts from a fresh upload.
		t.state = StateIdle
		return nil, err
	}
	if t.parent.closed.Load() {
		return nil, ErrSessionClosed
	}

	t.state = StateProbing
	addr, err := t.engine.cfg.Resolver.TermsAddress(t.engine.cfg.Authority, t.draft.ID)
	if err != nil {
		t.state = StateIdle
		return nil, err
	}
	exists := t.engine.probe.Exists(ctx, addr.Address)

	t.state = StateSubmitting
	keys := ledger.TermsKeys{
		Authority: t.engine.cfg.Authority,
		Config:    t.parent.addrs.Config.Address,
		Terms:     addr.Address,
	}
	var sig string
	if exists {
		sig, err = t.engine.cfg.Program.UpdateTerms(ctx, t.draft.ID, ref, keys)
	} else {
		sig, err = t.engine.cfg.Program.CreateTerms(ctx, t.draft.ID, ref, keys)
	}
	if err != nil {
		// The uploaded content stays orphaned; storage is append-only and
		// nothing references it until the pointer transaction succeeds.
		t.state = StateIdle
		return nil, err
	}
	if t.parent.closed.Load() {
		return nil, ErrSessionClosed
	}

	t.state = StateReconciling
	if !exists {
		t.parent.current.Terms = append(t.parent.current.Terms, settings.TermsRef{
			ID:   t.draft.ID,
			Bump: addr.Bump,
		})
		t.parent.persistDraft()
		bump := addr.Bump
		t.draft.Bump = &bump
	}
	t.parent.errs.ClearAll(settings.NamespaceTerms)
	if drafts := t.engine.cfg.Drafts; drafts != nil {
		if derr := drafts.DeleteTerms(t.engine.cfg.Authority, t.draft.ID); derr != nil && !errors.Is(derr, statestore.ErrNotFound) {
			log.WithError(derr).Warn("terms draft cleanup failed")
		}
	}

	t.state = StateIdle
	t.quote = nil
	log.WithFields(logrus.Fields{
		"id":      t.draft.ID,
		"created": !exists,
		"ref":     ref,
	}).Info("terms published")
	return &PublishOutcome{Created: !exists, ContentRef: ref, Signature: sig}, nil
}

// quoteConcurrently issues the price and balance fetches together and joins
// them; either failure aborts the step.
func (t *TermsSession) quoteConcurrently(ctx context.Context, byteLength int) (price, balance uint64, err error) {
	type result struct {
		value uint64
		err   error
	}
	priceCh := make(chan result, 1)
	balanceCh := make(chan result, 1)

	go func() {
		v, e := t.engine.cfg.Store.Price(ctx, byteLength)
		priceCh <- result{value: v, err: e}
	}()
	go func() {
		v, e := t.engine.cfg.Store.Balance(ctx)
		balanceCh <- result{value: v, err: e}
	}()

	p := <-priceCh
	b := <-balanceCh
	if p.err != nil {
		return 0, 0, p.err
	}
	if b.err != nil {
		return 0, 0, b.err
	}
	return p.value, b.value, nil
}
