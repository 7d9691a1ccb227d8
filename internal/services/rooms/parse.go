package rooms

import (
	"errors"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

var (
	errNotNumeric = errors.New("not numeric")
	errOutOfRange = errors.New("out of range")
)

// Column bounds: capacity is INTEGER, base_price_cents is BIGINT.
var (
	minInt32 = decimal.NewFromInt(math.MinInt32)
	maxInt32 = decimal.NewFromInt(math.MaxInt32)
	minInt64 = decimal.NewFromInt(math.MinInt64)
	maxInt64 = decimal.NewFromInt(math.MaxInt64)
)

func parseDecimal(raw string) (decimal.Decimal, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return decimal.Zero, errNotNumeric
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, errNotNumeric
	}
	return d, nil
}

func inRange(d, lo, hi decimal.Decimal) bool {
	return !d.LessThan(lo) && !d.GreaterThan(hi)
}

func parseInt(raw string) (int, error) {
	d, err := parseDecimal(raw)
	if err != nil {
		return 0, err
	}
	d = d.Truncate(0)
	if !inRange(d, minInt32, maxInt32) {
		return 0, errOutOfRange
	}
	return int(d.IntPart()), nil
}

func parseCents(raw string) (int64, error) {
	d, err := parseDecimal(raw)
	if err != nil {
		return 0, err
	}
	d = d.Mul(hundred).Round(0)
	if !inRange(d, minInt64, maxInt64) {
		return 0, errOutOfRange
	}
	return d.IntPart(), nil
}

// CleanText trims raw and returns nil when nothing is left.
func CleanText(raw string) *string {
	v := strings.TrimSpace(raw)
	if v == "" {
		return nil
	}
	return &v
}

// ParseIntOK parses a numeric string and truncates it toward zero.
// "2.9" yields 2 and "-2.9" yields -2. Blank, non-numeric or values outside
// the 32-bit range report false.
func ParseIntOK(raw string) (int, bool) {
	n, err := parseInt(raw)
	return n, err == nil
}

// ParseCents converts a decimal currency string into minor units,
// multiplying by 100 and rounding to the nearest unit.
// "150" yields 15000 and "149.999" yields 15000. Amounts that do not fit in
// int64 cents report false.
func ParseCents(raw string) (int64, bool) {
	n, err := parseCents(raw)
	return n, err == nil
}

// ParseBool reads an HTML checkbox or boolean-ish form value.
func ParseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "on", "true", "1", "yes":
		return true
	default:
		return false
	}
}
