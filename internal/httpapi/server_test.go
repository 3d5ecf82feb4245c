package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"sticker-pricer/internal/pricing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	catalog, err := pricing.NewCatalog(pricing.DefaultProductLines()...)
	require.NoError(t, err)

	tables := &pricing.Tables{
		BasePricing: []pricing.BasePriceRow{
			{AreaUnits: 4, BasePrice: 0.98},
			{AreaUnits: 9, BasePrice: 1.36},
		},
		QuantityDiscounts: []pricing.QuantityDiscountRow{
			{Quantity: 50, DiscountsByArea: map[float64]float64{4: 0.22, 9: 0.24}},
			{Quantity: 100, DiscountsByArea: map[float64]float64{4: 0.34, 9: 0.353}},
		},
	}

	s := NewServer(tables, catalog, zaptest.NewLogger(t))
	s.newID = func() string { return "quote-1" }
	return s
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestQuote_Sticker(t *testing.T) {
	h := newTestServer(t).Routes()

	rec := do(t, h, http.MethodPost, "/api/pricing/quote", `{"width":3,"height":3,"quantity":100}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var out quoteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "quote-1", out.QuoteID)
	assert.Equal(t, "vinyl", out.Product)
	assert.Equal(t, 9.0, out.AreaUnits)
	assert.Equal(t, 1.36, out.Result.BasePrice)
	assert.Equal(t, 0.353, out.Result.DiscountFraction)
	assert.InDelta(t, 87.992, out.Result.TotalPrice, 1e-9)
}

func TestQuote_OptionsAndWholesale(t *testing.T) {
	h := newTestServer(t).Routes()

	body := `{"product":"Chrome","area_units":9,"quantity":100,"rush_order":true,
		"white_ink":"partial","vibrancy_boost":true,"wholesale_approved":true}`
	rec := do(t, h, http.MethodPost, "/api/pricing/quote", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out quoteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))

	unit := 1.36 * (1 - 0.353) * 1.05 * pricing.ChromePremium * pricing.VibrancyMultiplier * pricing.VinylRushMultiplier
	assert.InDelta(t, unit, out.Result.UnitPrice, 1e-9)
	assert.InDelta(t, unit*100*0.85, out.Result.TotalPrice, 1e-9)
}

func TestQuote_ZeroQuantityIsZeroResult(t *testing.T) {
	h := newTestServer(t).Routes()

	rec := do(t, h, http.MethodPost, "/api/pricing/quote", `{"area_units":9,"quantity":0}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var out quoteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, pricing.Result{}, out.Result)
}

func TestQuote_Errors(t *testing.T) {
	h := newTestServer(t).Routes()

	cases := []struct {
		name   string
		body   string
		status int
	}{
		{"bad json", `{"quantity":`, http.StatusBadRequest},
		{"unknown field", `{"qty":5}`, http.StatusBadRequest},
		{"unknown product", `{"product":"magnet","area_units":9,"quantity":5}`, http.StatusNotFound},
		{"unknown white ink", `{"area_units":9,"quantity":5,"white_ink":"gold"}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/pricing/quote", tc.body)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())

			var out errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
			assert.NotEmpty(t, out.Error)
		})
	}
}

func TestTiersAndProducts(t *testing.T) {
	h := newTestServer(t).Routes()

	rec := do(t, h, http.MethodGet, "/api/pricing/tiers", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"discounts_by_area":{"4":0.34,"9":0.353}`)

	rec = do(t, h, http.MethodGet, "/api/pricing/products", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var lines []pricing.ProductLine
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &lines))
	assert.Len(t, lines, len(pricing.DefaultProductLines()))

	rec = do(t, h, http.MethodGet, "/api/pricing/products/banner", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"rush_mode":"surcharge"`)

	rec = do(t, h, http.MethodGet, "/api/pricing/products/magnet", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"area_tiers":2`)
}
