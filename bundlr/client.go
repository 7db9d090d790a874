package bundlr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("prefix", "bundlr")

// maxContentResponseSize caps gateway reads (4 MB is far above any terms
// document the validation rules allow through).
const maxContentResponseSize = 4 << 20

// ClientConfig holds the endpoints and identity for a store client.
type ClientConfig struct {
	NodeURL    string        // bundlr node, e.g. "https://node1.bundlr.network"
	GatewayURL string        // content gateway, e.g. "https://arweave.net"
	Currency   string        // native currency name, e.g. "solana"
	Address    string        // funding account address (for balance queries)
	Timeout    time.Duration // zero means 30s
}

// Client talks to a bundlr node for pricing, balance, funding and uploads,
// and to the gateway for content reads.
type Client struct {
	cfg    ClientConfig
	client *http.Client
}

// NewClient creates a content-store client.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	if cfg.Currency == "" {
		cfg.Currency = "solana"
	}
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

// Price implements Store. GET {node}/price/{currency}/{bytes}.
func (c *Client) Price(ctx context.Context, byteLength int) (uint64, error) {
	url := fmt.Sprintf("%s/price/%s/%d", c.cfg.NodeURL, c.cfg.Currency, byteLength)
	body, err := c.get(ctx, url)
	if err != nil {
		return 0, err
	}
	price, err := strconv.ParseUint(strings.TrimSpace(string(body)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: price %q: %w", ErrInvalidResponse, string(body), err)
	}
	return price, nil
}

// Balance implements Store. GET {node}/account/balance/{currency}?address=...
func (c *Client) Balance(ctx context.Context) (uint64, error) {
	url := fmt.Sprintf("%s/account/balance/%s?address=%s", c.cfg.NodeURL, c.cfg.Currency, c.cfg.Address)
	body, err := c.get(ctx, url)
	if err != nil {
		return 0, err
	}
	var resp struct {
		Balance string `json:"balance"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("%w: balance: %w", ErrInvalidResponse, err)
	}
	balance, err := strconv.ParseUint(resp.Balance, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: balance %q: %w", ErrInvalidResponse, resp.Balance, err)
	}
	return balance, nil
}

// UploadJSON implements Store. POST {node}/tx/{currency} with the canonical
// payload; the response carries the issued content reference.
func (c *Client) UploadJSON(ctx context.Context, data []byte) (string, error) {
	url := fmt.Sprintf("%s/tx/%s", c.cfg.NodeURL, c.cfg.Currency)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("bundlr: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("%w: HTTP %d: %s", ErrUploadFailed, resp.StatusCode, string(msg))
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: upload response: %w", ErrInvalidResponse, err)
	}
	if out.ID == "" {
		return "", fmt.Errorf("%w: upload response carries no id", ErrInvalidResponse)
	}
	log.WithFields(logrus.Fields{"ref": out.ID, "bytes": len(data)}).Debug("content uploaded")
	return out.ID, nil
}

// Fund implements Store. POST {node}/account/fund/{currency}.
func (c *Client) Fund(ctx context.Context, units uint64) error {
	url := fmt.Sprintf("%s/account/fund/%s", c.cfg.NodeURL, c.cfg.Currency)
	payload, _ := json.Marshal(map[string]string{
		"amount":  strconv.FormatUint(units, 10),
		"address": c.cfg.Address,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("bundlr: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("bundlr: fund rejected: HTTP %d: %s", resp.StatusCode, string(msg))
	}
	return nil
}

// Fetch implements Store. GET {gateway}/{ref}.
func (c *Client) Fetch(ctx context.Context, ref string) ([]byte, error) {
	url := c.cfg.GatewayURL + "/" + ref
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("bundlr: create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP %d", ErrInvalidResponse, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxContentResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrInvalidResponse, err)
	}
	return data, nil
}

// get fetches a URL and returns the body on 2xx.
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("bundlr: create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: HTTP %d", ErrInvalidResponse, resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxContentResponseSize))
}
