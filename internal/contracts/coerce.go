package contracts

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04:05"
)

// dateLayouts are tried in order. All values are interpreted as UTC.
var dateLayouts = []string{
	dateLayout,
	dateTimeLayout,
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
	"2006/01/02",
	"2006/01/02 15:04:05",
	"01/02/2006",
	"1/2/2006",
	"1/2/2006 15:04",
	"1/2/06",
	"01-02-06",
	"01-02-2006",
	"2-Jan-2006",
	"02-Jan-06",
	"Jan 2, 2006",
	"2 Jan 2006",
}

var (
	errEmpty      = errors.New("empty value")
	errNotInteger = errors.New("not an integer")
)

// ParseDate parses a date or date-time cell
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errEmpty
	}

	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized date format")
}

// FormatDate renders a date the way option lists and tables show it.
// Midnight values drop the time part.
func FormatDate(t time.Time) string {
	t = t.UTC()
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format(dateLayout)
	}
	return t.Format(dateTimeLayout)
}

// ParseVolume parses a share volume. Thousands separators and integral
// floats ("1,200", "100.0", "1.5e6") are accepted.
func ParseVolume(s string) (int64, error) {
	s = cleanNumber(s)
	if s == "" {
		return 0, errEmpty
	}

	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, errNotInteger
	}
	if f > math.MaxInt64 || f < math.MinInt64 {
		return 0, strconv.ErrRange
	}

	return int64(f), nil
}

// ParseAdjClose parses an adjusted close price
func ParseAdjClose(s string) (decimal.Decimal, error) {
	s = cleanNumber(s)
	if s == "" {
		return decimal.Zero, errEmpty
	}
	return decimal.NewFromString(s)
}

func cleanNumber(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, "_", "")
	return s
}
