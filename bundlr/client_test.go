package bundlr

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(ClientConfig{
		NodeURL:    srv.URL,
		GatewayURL: srv.URL + "/gateway",
		Currency:   "solana",
		Address:    "payer-address",
	}), srv
}

// --- Node Endpoint Tests ---

func TestPrice(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/price/solana/42", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "123456\n")
	})
	c, _ := testClient(t, mux)

	price, err := c.Price(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, uint64(123456), price)
}

func TestPriceRejectsGarbage(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "not a number")
	}))

	_, err := c.Price(context.Background(), 42)
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestBalance(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/account/balance/solana", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "payer-address", r.URL.Query().Get("address"))
		fmt.Fprint(w, `{"balance":"5000000"}`)
	})
	c, _ := testClient(t, mux)

	balance, err := c.Balance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(5_000_000), balance)
}

func TestUploadJSON(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/tx/solana", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		fmt.Fprint(w, `{"id":"tx-ref-1"}`)
	})
	c, _ := testClient(t, mux)

	ref, err := c.UploadJSON(context.Background(), []byte(`{"title":"t","description":""}`))
	require.NoError(t, err)
	assert.Equal(t, "tx-ref-1", ref)
}

func TestUploadJSONFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantErr error
	}{
		{
			"node rejects",
			func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "not enough funds", http.StatusPaymentRequired)
			},
			ErrUploadFailed,
		},
		{
			"missing id",
			func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{}`)
			},
			ErrInvalidResponse,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := testClient(t, tt.handler)
			_, err := c.UploadJSON(context.Background(), []byte("{}"))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestFund(t *testing.T) {
	var gotBody string
	mux := http.NewServeMux()
	mux.HandleFunc("/account/fund/solana", func(w http.ResponseWriter, r *http.Request) {
		b := make([]byte, 256)
		n, _ := r.Body.Read(b)
		gotBody = string(b[:n])
		w.WriteHeader(http.StatusOK)
	})
	c, _ := testClient(t, mux)

	require.NoError(t, c.Fund(context.Background(), 250_000))
	assert.Contains(t, gotBody, `"amount":"250000"`)
	assert.Contains(t, gotBody, `"address":"payer-address"`)
}

// --- Gateway Tests ---

func TestFetch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/gateway/tx-ref-1", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"title":"NBA terms","description":"rules"}`)
	})
	c, _ := testClient(t, mux)

	data, err := c.Fetch(context.Background(), "tx-ref-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"NBA terms","description":"rules"}`, string(data))

	_, err = c.Fetch(context.Background(), "missing-ref")
	assert.ErrorIs(t, err, ErrNotFound)
}

// --- MockStore Tests ---

func TestMockStoreRoundTrip(t *testing.T) {
	m := &MockStore{PricePerByte: 2, Funds: 100}

	price, err := m.Price(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(20), price)

	ref, err := m.UploadJSON(context.Background(), []byte("payload"))
	require.NoError(t, err)
	assert.Equal(t, 1, m.Uploads)

	data, err := m.Fetch(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)

	require.NoError(t, m.Fund(context.Background(), 50))
	balance, err := m.Balance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(150), balance)
}
