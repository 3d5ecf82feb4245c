package pricing

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

var (
	areaHeaderTokens  = []string{"square inch", "sq in", "sq. in", "sqin", "area"}
	priceHeaderTokens = []string{"price"}
	qtyHeaderTokens   = []string{"quantity", "qty"}

	errEmptyCell = errors.New("empty cell")
)

// ParseBasePricing parses the base-price sheet: a header naming an area
// column and a price column, then one row per area tier. Rows that cannot
// be parsed are dropped.
func ParseBasePricing(data []byte, logger *zap.Logger) ([]BasePriceRow, error) {
	const operation = "pricing.ParseBasePricing"

	if logger == nil {
		logger = zap.NewNop()
	}

	records, err := readRecords(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}

	header := records[0]
	areaCol := findColumn(header, areaHeaderTokens)
	priceCol := findColumn(header, priceHeaderTokens)
	if areaCol < 0 || priceCol < 0 || areaCol == priceCol {
		return nil, fmt.Errorf("%s: %w", operation,
			malformed("header %q lacks area and price columns", strings.Join(header, ",")))
	}

	seen := make(map[float64]struct{})
	rows := make([]BasePriceRow, 0, len(records)-1)

	for i, rec := range records[1:] {
		drop := func(reason string, err error) {
			logger.Debug("Dropping base price row",
				zap.Int("record", i+1),
				zap.Strings("fields", rec),
				zap.String("reason", reason),
				zap.Error(err))
		}

		area, err := parseNumber(cell(rec, areaCol))
		if err != nil || area <= 0 {
			drop("invalid area", err)
			continue
		}
		price, err := parseNumber(cell(rec, priceCol))
		if err != nil || price <= 0 {
			drop("invalid price", err)
			continue
		}
		if _, dup := seen[area]; dup {
			drop("duplicate area", nil)
			continue
		}
		seen[area] = struct{}{}

		rows = append(rows, BasePriceRow{AreaUnits: area, BasePrice: price})
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: %w", operation, malformed("no usable base price rows"))
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].AreaUnits < rows[j].AreaUnits })
	return rows, nil
}

// ParseQuantityDiscounts parses the discount matrix. The header row starts
// with a quantity label followed by area tiers; each data row is a quantity
// followed by one discount per tier. Empty cells mean "no entry"; every row
// still carries the header's full tier set.
func ParseQuantityDiscounts(data []byte, logger *zap.Logger) ([]QuantityDiscountRow, error) {
	const operation = "pricing.ParseQuantityDiscounts"

	if logger == nil {
		logger = zap.NewNop()
	}

	records, err := readRecords(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}

	tiers, err := parseTierHeader(records[0])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}

	areaTiers := append([]float64(nil), tiers...)
	sort.Float64s(areaTiers)

	seen := make(map[int]struct{})
	rows := make([]QuantityDiscountRow, 0, len(records)-1)

records:
	for i, rec := range records[1:] {
		drop := func(reason string, err error) {
			logger.Debug("Dropping quantity discount row",
				zap.Int("record", i+1),
				zap.Strings("fields", rec),
				zap.String("reason", reason),
				zap.Error(err))
		}

		qty, err := parseQuantity(cell(rec, 0))
		if err != nil {
			drop("invalid quantity", err)
			continue
		}
		if _, dup := seen[qty]; dup {
			drop("duplicate quantity", nil)
			continue
		}

		discounts := make(map[float64]float64, len(tiers))
		for col, tier := range tiers {
			raw := cell(rec, col+1)
			if strings.TrimSpace(raw) == "" {
				continue
			}
			d, err := parseFraction(raw)
			if err != nil {
				drop(fmt.Sprintf("invalid discount for area %g", tier), err)
				continue records
			}
			discounts[tier] = d
		}

		seen[qty] = struct{}{}
		rows = append(rows, QuantityDiscountRow{Quantity: qty, DiscountsByArea: discounts, AreaTiers: areaTiers})
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: %w", operation, malformed("no usable quantity discount rows"))
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].Quantity < rows[j].Quantity })
	return rows, nil
}

// readRecords strips note lines and returns the remaining CSV records.
// The first record returned is the header.
func readRecords(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\ufeff"))
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, malformed("empty source")
	}

	var kept bytes.Buffer
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" || isNoteLine(line) {
			continue
		}
		kept.WriteString(line)
		kept.WriteByte('\n')
	}

	r := csv.NewReader(&kept)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, malformed("read csv: %v", err)
	}

	out := records[:0]
	for _, rec := range records {
		if !blankRecord(rec) {
			out = append(out, rec)
		}
	}
	if len(out) == 0 {
		return nil, malformed("no header row")
	}
	return out, nil
}

func isNoteLine(line string) bool {
	t := strings.TrimSpace(line)
	t = strings.TrimLeft(t, `"`)
	t = strings.ToLower(t)
	return strings.HasPrefix(t, "#") || strings.HasPrefix(t, "note")
}

func blankRecord(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func findColumn(header []string, tokens []string) int {
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(h))
		for _, tok := range tokens {
			if strings.Contains(h, tok) {
				return i
			}
		}
	}
	return -1
}

func parseTierHeader(header []string) ([]float64, error) {
	if findColumn(header[:1], qtyHeaderTokens) != 0 {
		return nil, malformed("header %q does not start with a quantity column", strings.Join(header, ","))
	}

	tiers := make([]float64, 0, len(header)-1)
	seen := make(map[float64]struct{})
	for _, h := range header[1:] {
		if strings.TrimSpace(h) == "" {
			// Trailing delimiters leave empty header cells.
			tiers = append(tiers, math.NaN())
			continue
		}
		tier, err := parseLeadingNumber(h)
		if err != nil || tier <= 0 {
			return nil, malformed("area tier header %q", h)
		}
		if _, dup := seen[tier]; dup {
			return nil, malformed("duplicate area tier %g", tier)
		}
		seen[tier] = struct{}{}
		tiers = append(tiers, tier)
	}

	if len(seen) == 0 {
		return nil, malformed("no area tiers in header")
	}

	// Drop the placeholders for empty trailing columns, keeping positions.
	for i := len(tiers) - 1; i >= 0 && math.IsNaN(tiers[i]); i-- {
		tiers = tiers[:i]
	}
	for _, t := range tiers {
		if math.IsNaN(t) {
			return nil, malformed("blank area tier between populated tiers")
		}
	}
	return tiers, nil
}

func cell(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return rec[i]
}

// parseNumber accepts plain, quoted, currency-prefixed and
// thousands-separated numbers such as `"1,000"` or `$1.36`.
func parseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"`)
	s = strings.TrimPrefix(strings.TrimSpace(s), "$")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errEmptyCell
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite number %q", s)
	}
	return v, nil
}

// parseLeadingNumber reads the numeric prefix of a header cell such as
// "9 sq in" or "1,000".
func parseLeadingNumber(s string) (float64, error) {
	s = strings.Trim(strings.TrimSpace(s), `"`)
	end := 0
	for end < len(s) && strings.ContainsRune("0123456789.,", rune(s[end])) {
		end++
	}
	return parseNumber(s[:end])
}

func parseQuantity(s string) (int, error) {
	v, err := parseNumber(s)
	if err != nil {
		return 0, err
	}
	if v <= 0 || v != math.Trunc(v) || v > math.MaxInt32 {
		return 0, fmt.Errorf("quantity %v is not a positive integer", v)
	}
	return int(v), nil
}

// parseFraction accepts "0.353" or "35.3%"; the result must lie in [0, 1).
func parseFraction(s string) (float64, error) {
	s = strings.Trim(strings.TrimSpace(s), `"`)
	pct := strings.HasSuffix(s, "%")
	v, err := parseNumber(strings.TrimSuffix(s, "%"))
	if err != nil {
		return 0, err
	}
	if pct {
		v /= 100
	}
	if v < 0 || v >= 1 {
		return 0, fmt.Errorf("discount %v outside [0, 1)", v)
	}
	return v, nil
}
