package api

import (
	"context"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"sticker-pricer/internal/pricing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestClient_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		if r.URL.Path != "/pricing/base-pricing.csv" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte("Square Inches,Base Price\n9,1.36\n"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/pricing/", "secret", time.Second, zaptest.NewLogger(t))

	body, err := c.Fetch(context.Background(), "base-pricing.csv")
	require.NoError(t, err)
	assert.Equal(t, "Square Inches,Base Price\n9,1.36\n", string(body))

	_, err = c.Fetch(context.Background(), "missing.csv")
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestClient_FetchUnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "", time.Second, nil).Fetch(context.Background(), "base.csv")
	assert.ErrorContains(t, err, "unexpected status: 502")
	assert.NotErrorIs(t, err, fs.ErrNotExist)
}

func TestClient_RetriedByLoader(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/base.csv":
			if calls.Add(1) == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write([]byte("Square Inches,Base Price\n9,1.36\n"))
		case "/discounts.csv":
			_, _ = w.Write([]byte("Quantity,9\n100,0.353\n"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	loader := pricing.NewLoader(
		NewClient(srv.URL, "", time.Second, nil),
		nil,
		pricing.LoaderConfig{
			BaseSheet:     "base.csv",
			DiscountSheet: "discounts.csv",
			Retry: pricing.RetryPolicy{
				Attempts:        3,
				InitialInterval: time.Millisecond,
				MaxInterval:     2 * time.Millisecond,
				AttemptTimeout:  time.Second,
			},
		},
		zaptest.NewLogger(t),
	)

	tables, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())

	res := pricing.CalculatePrice(tables.BasePricing, tables.QuantityDiscounts, 9, 100, false)
	assert.InDelta(t, 87.992, res.TotalPrice, 1e-9)
}
