package report

import (
	"bytes"
	"path/filepath"
	"strconv"
	"testing"

	"sticker-pricer/internal/pricing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func testTables() *pricing.Tables {
	return &pricing.Tables{
		BasePricing: []pricing.BasePriceRow{
			{AreaUnits: 9, BasePrice: 1.36},
			{AreaUnits: 16, BasePrice: 1.82},
		},
		QuantityDiscounts: []pricing.QuantityDiscountRow{
			{Quantity: 50, DiscountsByArea: map[float64]float64{9: 0.24, 16: 0.25}},
			{Quantity: 100, DiscountsByArea: map[float64]float64{9: 0.353, 16: 0.365}},
		},
	}
}

func cellFloat(t *testing.T, f *excelize.File, sheet, cell string) float64 {
	t.Helper()
	raw, err := f.GetCellValue(sheet, cell, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	v, err := strconv.ParseFloat(raw, 64)
	require.NoError(t, err, "%s!%s = %q", sheet, cell, raw)
	return v
}

func TestExportPriceGrid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "vinyl.xlsx")
	require.NoError(t, ExportPriceGrid(testTables(), pricing.Vinyl, GridOptions{}, path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{sheetBase, sheetUnit, sheetTotals}, f.GetSheetList())

	assert.Equal(t, 1.36, cellFloat(t, f, sheetBase, "B2"))
	assert.Equal(t, 16.0, cellFloat(t, f, sheetUnit, "C1"))
	assert.Equal(t, 100.0, cellFloat(t, f, sheetUnit, "A3"))

	// quantity 100, area 9
	assert.InDelta(t, 0.87992, cellFloat(t, f, sheetUnit, "B3"), 1e-9)
	assert.InDelta(t, 87.992, cellFloat(t, f, sheetTotals, "B3"), 1e-9)
}

func TestWritePriceGrid_CustomAxesAndFlags(t *testing.T) {
	var buf bytes.Buffer
	opts := GridOptions{
		Areas:      []float64{12.5},
		Quantities: []int{10},
		Flags:      pricing.Request{RushOrder: true},
	}
	require.NoError(t, WritePriceGrid(&buf, testTables(), pricing.Banner, opts))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	want := testTables().Quote(pricing.Banner, pricing.Request{AreaUnits: 12.5, Quantity: 10, RushOrder: true})
	assert.InDelta(t, want.TotalPrice, cellFloat(t, f, sheetTotals, "B2"), 1e-9)
	assert.Greater(t, want.RushSurcharge, 0.0)
}

func TestExportPriceGrid_EmptyTables(t *testing.T) {
	err := ExportPriceGrid(&pricing.Tables{}, pricing.Vinyl, GridOptions{}, filepath.Join(t.TempDir(), "x.xlsx"))
	assert.Error(t, err)
}
