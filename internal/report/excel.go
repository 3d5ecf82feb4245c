package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"sticker-pricer/internal/pricing"

	"github.com/xuri/excelize/v2"
)

const (
	sheetBase   = "Base Prices"
	sheetUnit   = "Unit Prices"
	sheetTotals = "Totals"
)

// GridOptions selects the axes of the exported grid and the flags applied to
// every cell. Empty axes default to the tiers declared by the tables.
type GridOptions struct {
	Areas      []float64
	Quantities []int
	Flags      pricing.Request
}

// ExportPriceGrid writes the grid workbook to path, creating parent
// directories as needed.
func ExportPriceGrid(tables *pricing.Tables, line pricing.ProductLine, opts GridOptions, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create reports directory: %w", err)
		}
	}

	f, err := buildWorkbook(tables, line, opts)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save Excel file: %w", err)
	}
	return nil
}

// WritePriceGrid streams the grid workbook to w.
func WritePriceGrid(w io.Writer, tables *pricing.Tables, line pricing.ProductLine, opts GridOptions) error {
	f, err := buildWorkbook(tables, line, opts)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write Excel file: %w", err)
	}
	return nil
}

func buildWorkbook(tables *pricing.Tables, line pricing.ProductLine, opts GridOptions) (*excelize.File, error) {
	areas := opts.Areas
	if len(areas) == 0 {
		areas = tables.AreaTiers()
	}
	quantities := opts.Quantities
	if len(quantities) == 0 {
		quantities = tables.QuantityTiers()
	}
	if len(areas) == 0 || len(quantities) == 0 {
		return nil, fmt.Errorf("price grid needs at least one area and one quantity")
	}

	f := excelize.NewFile()
	w := &sheetWriter{f: f}

	if err := f.SetSheetName("Sheet1", sheetBase); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	for _, name := range []string{sheetUnit, sheetTotals} {
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to create sheet: %w", err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create style: %w", err)
	}

	// Base prices
	w.set(sheetBase, 1, 1, "Square Inches")
	w.set(sheetBase, 2, 1, "Base Price")
	for i, row := range tables.BasePricing {
		w.set(sheetBase, 1, i+2, row.AreaUnits)
		w.set(sheetBase, 2, i+2, row.BasePrice)
	}
	w.style(sheetBase, 1, 1, 2, 1, bold)

	// Unit and total grids share axes.
	for _, sheet := range []string{sheetUnit, sheetTotals} {
		w.set(sheet, 1, 1, fmt.Sprintf("%s: quantity \\ sq in", line.Name))
		for c, area := range areas {
			w.set(sheet, c+2, 1, area)
		}
		for r, qty := range quantities {
			w.set(sheet, 1, r+2, qty)
		}
		w.style(sheet, 1, 1, len(areas)+1, 1, bold)
		w.style(sheet, 1, 1, 1, len(quantities)+1, bold)
	}

	for r, qty := range quantities {
		for c, area := range areas {
			req := opts.Flags
			req.AreaUnits = area
			req.Quantity = qty
			res := tables.Quote(line, req)

			w.set(sheetUnit, c+2, r+2, res.UnitPrice)
			w.set(sheetTotals, c+2, r+2, res.TotalPrice)
		}
	}

	if w.err != nil {
		f.Close()
		return nil, w.err
	}
	f.SetActiveSheet(1)
	return f, nil
}

// sheetWriter keeps the first cell error so the grid loops stay flat.
type sheetWriter struct {
	f   *excelize.File
	err error
}

func (w *sheetWriter) set(sheet string, col, row int, value any) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		w.err = fmt.Errorf("cell %d,%d: %w", col, row, err)
		return
	}
	if err := w.f.SetCellValue(sheet, cell, value); err != nil {
		w.err = fmt.Errorf("set %s!%s: %w", sheet, cell, err)
	}
}

func (w *sheetWriter) style(sheet string, col1, row1, col2, row2, styleID int) {
	if w.err != nil {
		return
	}
	from, _ := excelize.CoordinatesToCellName(col1, row1)
	to, _ := excelize.CoordinatesToCellName(col2, row2)
	if err := w.f.SetCellStyle(sheet, from, to, styleID); err != nil {
		w.err = fmt.Errorf("style %s!%s:%s: %w", sheet, from, to, err)
	}
}
