package ledger

import (
	"context"

	"github.com/cubist-collective/cubist-games-go/pda"
)

// MockProgram is a test double for Program. Function fields must be set
// before the corresponding method is called.
type MockProgram struct {
	AccountInfoFn      func(ctx context.Context, addr pda.PublicKey) (*Account, error)
	InitializeConfigFn func(ctx context.Context, settingsData []byte, keys ConfigKeys) (string, error)
	UpdateConfigFn     func(ctx context.Context, settingsData []byte, keys ConfigKeys) (string, error)
	CreateTermsFn      func(ctx context.Context, documentID, contentRef string, keys TermsKeys) (string, error)
	UpdateTermsFn      func(ctx context.Context, documentID, contentRef string, keys TermsKeys) (string, error)
}

func (m *MockProgram) AccountInfo(ctx context.Context, addr pda.PublicKey) (*Account, error) {
	return m.AccountInfoFn(ctx, addr)
}

func (m *MockProgram) InitializeConfig(ctx context.Context, settingsData []byte, keys ConfigKeys) (string, error) {
	return m.InitializeConfigFn(ctx, settingsData, keys)
}

func (m *MockProgram) UpdateConfig(ctx context.Context, settingsData []byte, keys ConfigKeys) (string, error) {
	return m.UpdateConfigFn(ctx, settingsData, keys)
}

func (m *MockProgram) CreateTerms(ctx context.Context, documentID, contentRef string, keys TermsKeys) (string, error) {
	return m.CreateTermsFn(ctx, documentID, contentRef, keys)
}

func (m *MockProgram) UpdateTerms(ctx context.Context, documentID, contentRef string, keys TermsKeys) (string, error) {
	return m.UpdateTermsFn(ctx, documentID, contentRef, keys)
}
