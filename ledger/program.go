package ledger

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github.com/cubist-collective/cubist-games-go/pda"
)

// discriminatorSize is the length of the method/account tag that prefixes
// instruction data and account data.
const discriminatorSize = 8

// methodDiscriminator tags instruction data with the target method, derived
// the same way on the program side.
func methodDiscriminator(name string) [discriminatorSize]byte {
	var out [discriminatorSize]byte
	sum := sha256.Sum256([]byte("global:" + name))
	copy(out[:], sum[:discriminatorSize])
	return out
}

// accountDiscriminator tags account data with its account type.
func accountDiscriminator(name string) [discriminatorSize]byte {
	var out [discriminatorSize]byte
	sum := sha256.Sum256([]byte("account:" + name))
	copy(out[:], sum[:discriminatorSize])
	return out
}

// AccountPayload verifies that acct holds an account of the named type and
// returns its data with the discriminator stripped.
func AccountPayload(acct *Account, accountName string) ([]byte, error) {
	want := accountDiscriminator(accountName)
	if len(acct.Data) < discriminatorSize || !bytes.Equal(acct.Data[:discriminatorSize], want[:]) {
		return nil, fmt.Errorf("%w: expected %s", ErrWrongAccountKind, accountName)
	}
	return acct.Data[discriminatorSize:], nil
}

// WrapAccountPayload prepends the account discriminator; used by tests and
// tooling that fabricate account state.
func WrapAccountPayload(accountName string, payload []byte) []byte {
	disc := accountDiscriminator(accountName)
	return append(disc[:], payload...)
}

// ProgramClient submits the four mutating program calls over an RPC node.
// Every call compiles a single-instruction transaction, signs it with the
// session signer and submits it; failure is terminal for that attempt.
type ProgramClient struct {
	rpc       *RPCClient
	programID pda.PublicKey
	signer    Signer
}

// NewProgramClient creates a client for the given program. signer may be nil
// for read-only use; mutating calls then fail with ErrNoSigner.
func NewProgramClient(rpc *RPCClient, programID pda.PublicKey, signer Signer) *ProgramClient {
	return &ProgramClient{rpc: rpc, programID: programID, signer: signer}
}

// AccountInfo implements AccountFetcher.
func (p *ProgramClient) AccountInfo(ctx context.Context, addr pda.PublicKey) (*Account, error) {
	return p.rpc.AccountInfo(ctx, addr)
}

// InitializeConfig creates the configuration and stats accounts.
func (p *ProgramClient) InitializeConfig(ctx context.Context, settingsData []byte, keys ConfigKeys) (string, error) {
	data := instructionData("initialize_config", settingsData)
	metas := []AccountMeta{
		{PubKey: keys.Authority, IsSigner: true, IsWritable: true},
		{PubKey: keys.SystemConfig},
		{PubKey: keys.Config, IsWritable: true},
		{PubKey: keys.Stats, IsWritable: true},
	}
	return p.submit(ctx, keys.Authority, metas, data)
}

// UpdateConfig replaces the settings record of an existing configuration.
func (p *ProgramClient) UpdateConfig(ctx context.Context, settingsData []byte, keys ConfigKeys) (string, error) {
	data := instructionData("update_config", settingsData)
	metas := []AccountMeta{
		{PubKey: keys.Authority, IsSigner: true, IsWritable: true},
		{PubKey: keys.SystemConfig},
		{PubKey: keys.Config, IsWritable: true},
	}
	return p.submit(ctx, keys.Authority, metas, data)
}

// CreateTerms creates the pointer account for a new terms document.
func (p *ProgramClient) CreateTerms(ctx context.Context, documentID, contentRef string, keys TermsKeys) (string, error) {
	data := instructionData("create_terms", termsArgs(documentID, contentRef))
	metas := []AccountMeta{
		{PubKey: keys.Authority, IsSigner: true, IsWritable: true},
		{PubKey: keys.Config, IsWritable: true}, // the program bumps its terms counter
		{PubKey: keys.Terms, IsWritable: true},
	}
	return p.submit(ctx, keys.Authority, metas, data)
}

// UpdateTerms repoints an existing terms document at new content.
func (p *ProgramClient) UpdateTerms(ctx context.Context, documentID, contentRef string, keys TermsKeys) (string, error) {
	data := instructionData("update_terms", termsArgs(documentID, contentRef))
	metas := []AccountMeta{
		{PubKey: keys.Authority, IsSigner: true, IsWritable: true},
		{PubKey: keys.Config},
		{PubKey: keys.Terms, IsWritable: true},
	}
	return p.submit(ctx, keys.Authority, metas, data)
}

func (p *ProgramClient) submit(ctx context.Context, payer pda.PublicKey, metas []AccountMeta, data []byte) (string, error) {
	if p.signer == nil {
		return "", ErrNoSigner
	}
	blockhash, err := p.rpc.LatestBlockhash(ctx)
	if err != nil {
		return "", err
	}
	msg, err := CompileMessage(payer, blockhash, []Instruction{{
		ProgramID: p.programID,
		Accounts:  metas,
		Data:      data,
	}})
	if err != nil {
		return "", err
	}
	tx, err := SignTransaction(msg, p.signer)
	if err != nil {
		return "", err
	}
	sig, err := p.rpc.SendTransaction(ctx, tx)
	if err != nil {
		return "", err
	}
	log.WithField("signature", sig).Debug("transaction submitted")
	return sig, nil
}

// instructionData prepends the method discriminator to the argument bytes.
func instructionData(method string, args []byte) []byte {
	disc := methodDiscriminator(method)
	return append(disc[:], args...)
}

// termsArgs encodes the (documentID, contentRef) argument pair.
func termsArgs(documentID, contentRef string) []byte {
	var buf bytes.Buffer
	for _, s := range []string{documentID, contentRef} {
		var lenb [4]byte
		binary.LittleEndian.PutUint32(lenb[:], uint32(len(s)))
		buf.Write(lenb[:])
		buf.WriteString(s)
	}
	return buf.Bytes()
}
