// Package ledger talks to the remote ledger: a JSON-RPC client for account
// reads and transaction submission, the transaction wire codec, and the
// typed program calls that mutate the configuration and terms accounts.
package ledger

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cubist-collective/cubist-games-go/pda"
)

var log = logrus.WithField("prefix", "ledger")

// RPCConfig holds the connection settings for an RPC node.
type RPCConfig struct {
	URL     string
	Timeout time.Duration // zero means 30s
}

// RPCClient is a JSON-RPC 2.0 client for the ledger node. All higher-level
// account and submission methods are built on top of Call.
type RPCClient struct {
	url    string
	client *http.Client
	nextID atomic.Int64
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int64         `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcResponse struct {
	ID     int64           `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// NewRPCClient creates a client for the given node.
func NewRPCClient(cfg RPCConfig) *RPCClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &RPCClient{
		url: cfg.URL,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     90 * time.Second,
				MaxIdleConnsPerHost: 10,
			},
		},
	}
}

// Call invokes a JSON-RPC method. If result is non-nil the response result
// is unmarshaled into it. Transport failures are reported as
// ErrConnectionFailed, undecodable responses as ErrInvalidResponse. Node-side
// errors carrying a program rejection are converted to *ProgramError so the
// caller can surface the program's message verbatim.
func (c *RPCClient) Call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	if params == nil {
		params = []interface{}{}
	}
	reqBody := rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("ledger: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("ledger: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%w: HTTP %d: %s", ErrConnectionFailed, resp.StatusCode, string(respBody))
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("%w: decode response: %w", ErrInvalidResponse, err)
	}

	if rpcResp.ID != reqBody.ID {
		return fmt.Errorf("%w: response ID mismatch: expected %d, got %d",
			ErrInvalidResponse, reqBody.ID, rpcResp.ID)
	}

	if rpcResp.Error != nil {
		if perr := programErrorFrom(rpcResp.Error); perr != nil {
			return perr
		}
		return fmt.Errorf("ledger: rpc error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message)
	}

	if result != nil && rpcResp.Result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("%w: unmarshal result: %w", ErrInvalidResponse, err)
		}
	}

	return nil
}

// programErrorFrom extracts a program rejection from an RPC error, or nil
// when the error is a plain node error. Simulation failures carry the
// instruction error in the data field as {"err":{"InstructionError":[n,{"Custom":code}]}}.
func programErrorFrom(e *rpcError) *ProgramError {
	if len(e.Data) > 0 {
		var data struct {
			Err struct {
				InstructionError []json.RawMessage `json:"InstructionError"`
			} `json:"err"`
		}
		if json.Unmarshal(e.Data, &data) == nil && len(data.Err.InstructionError) == 2 {
			var custom struct {
				Custom int `json:"Custom"`
			}
			if json.Unmarshal(data.Err.InstructionError[1], &custom) == nil {
				return &ProgramError{Code: custom.Custom, Message: e.Message}
			}
		}
	}
	if strings.Contains(e.Message, "custom program error") {
		return &ProgramError{Code: e.Code, Message: e.Message}
	}
	return nil
}

// Account is the raw state of one ledger account.
type Account struct {
	Lamports uint64
	Owner    string
	Data     []byte
}

// AccountInfo fetches an account by address. A missing account is reported
// as ErrAccountNotFound.
func (c *RPCClient) AccountInfo(ctx context.Context, addr pda.PublicKey) (*Account, error) {
	var result struct {
		Value *struct {
			Lamports uint64   `json:"lamports"`
			Owner    string   `json:"owner"`
			Data     []string `json:"data"`
		} `json:"value"`
	}
	params := []interface{}{addr.String(), map[string]string{"encoding": "base64"}}
	if err := c.Call(ctx, "getAccountInfo", params, &result); err != nil {
		return nil, err
	}
	if result.Value == nil {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, addr)
	}
	acct := &Account{Lamports: result.Value.Lamports, Owner: result.Value.Owner}
	if len(result.Value.Data) > 0 {
		raw, err := base64.StdEncoding.DecodeString(result.Value.Data[0])
		if err != nil {
			return nil, fmt.Errorf("%w: account data: %w", ErrInvalidResponse, err)
		}
		acct.Data = raw
	}
	return acct, nil
}

// Balance returns the native-unit balance of an address.
func (c *RPCClient) Balance(ctx context.Context, addr pda.PublicKey) (uint64, error) {
	var result struct {
		Value uint64 `json:"value"`
	}
	if err := c.Call(ctx, "getBalance", []interface{}{addr.String()}, &result); err != nil {
		return 0, err
	}
	return result.Value, nil
}

// LatestBlockhash returns the current blockhash used to anchor transactions.
func (c *RPCClient) LatestBlockhash(ctx context.Context) ([32]byte, error) {
	var result struct {
		Value struct {
			Blockhash string `json:"blockhash"`
		} `json:"value"`
	}
	var hash [32]byte
	if err := c.Call(ctx, "getLatestBlockhash", nil, &result); err != nil {
		return hash, err
	}
	pk, err := pda.ParsePublicKey(result.Value.Blockhash)
	if err != nil {
		return hash, fmt.Errorf("%w: blockhash: %w", ErrInvalidResponse, err)
	}
	copy(hash[:], pk[:])
	return hash, nil
}

// SendTransaction submits a signed transaction and returns its signature.
func (c *RPCClient) SendTransaction(ctx context.Context, signedTx []byte) (string, error) {
	var signature string
	params := []interface{}{
		base64.StdEncoding.EncodeToString(signedTx),
		map[string]string{"encoding": "base64"},
	}
	if err := c.Call(ctx, "sendTransaction", params, &signature); err != nil {
		return "", err
	}
	return signature, nil
}
