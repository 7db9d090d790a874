// Package oracle fetches the USD reference price of the native token. The
// rate is used only for display conversion, never for on-chain decisions.
package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrUnavailable indicates the price source returned no usable rate.
var ErrUnavailable = errors.New("oracle: price unavailable")

// Source supplies the USD price of one whole native token.
type Source interface {
	UsdPrice(ctx context.Context) (float64, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context) (float64, error)

// UsdPrice implements Source.
func (f SourceFunc) UsdPrice(ctx context.Context) (float64, error) { return f(ctx) }

// Client reads the rate from a coingecko-style simple-price endpoint.
type Client struct {
	URL    string // full query URL, token and currency included
	Token  string // token id inside the response, e.g. "solana"
	client *http.Client
}

// NewClient creates a price client for the given endpoint.
func NewClient(url, token string) *Client {
	return &Client{
		URL:    url,
		Token:  token,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// UsdPrice implements Source. The response shape is
// {"<token>": {"usd": <rate>}}.
func (c *Client) UsdPrice(ctx context.Context) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return 0, fmt.Errorf("oracle: create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: HTTP %d", ErrUnavailable, resp.StatusCode)
	}

	var rates map[string]struct {
		USD float64 `json:"usd"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&rates); err != nil {
		return 0, fmt.Errorf("%w: decode: %w", ErrUnavailable, err)
	}
	rate, ok := rates[c.Token]
	if !ok || rate.USD <= 0 {
		return 0, fmt.Errorf("%w: no rate for %q", ErrUnavailable, c.Token)
	}
	return rate.USD, nil
}
