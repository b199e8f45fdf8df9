// Package normalize turns raw CSV cell values into typed transaction fields.
//
// Dates are accepted in day/month/year order only, separated by '/' or '-',
// with an optional time suffix that is discarded. Amounts may carry currency
// symbols and thousands separators. Rows that fail either parse are skipped,
// never reported as errors.
package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/Veraticus/rfm-segments/internal/model"
	"github.com/shopspring/decimal"
)

// SkipReason explains why a row did not produce a transaction.
type SkipReason int

// Skip reasons, in the order they are checked.
const (
	SkipNone SkipReason = iota
	SkipMissingCustomer
	SkipBadDate
	SkipBadAmount
)

func (r SkipReason) String() string {
	switch r {
	case SkipNone:
		return "none"
	case SkipMissingCustomer:
		return "missing customer"
	case SkipBadDate:
		return "bad date"
	case SkipBadAmount:
		return "bad amount"
	default:
		return "unknown"
	}
}

var (
	nonNumeric   = regexp.MustCompile(`[^0-9.\-]+`)
	numberPrefix = regexp.MustCompile(`^-?(?:[0-9]+(?:\.[0-9]*)?|\.[0-9]+)`)
)

// ParseDate parses a D/M/Y (or D-M-Y) date. Anything after the first
// whitespace is ignored. The date must exist on the calendar; values such as
// 31/02/2024 are rejected rather than rolled over.
func ParseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if i := strings.IndexFunc(s, unicode.IsSpace); i >= 0 {
		s = s[:i]
	}

	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '/' || r == '-' })
	if len(parts) != 3 || strings.Count(s, "/")+strings.Count(s, "-") != 2 {
		return time.Time{}, false
	}

	var nums [3]int
	for i, p := range parts {
		n, ok := parseDigits(p)
		if !ok {
			return time.Time{}, false
		}
		nums[i] = n
	}
	day, month, year := nums[0], nums[1], nums[2]

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

func parseDigits(s string) (int, bool) {
	if s == "" || len(s) > 9 {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	return n, err == nil
}

// ParseAmount strips every character except digits, '.' and '-' and then
// reads the longest leading number, so "₱1,234.50" is 1234.50 and "12-3"
// is 12. It fails when no number is left.
func ParseAmount(s string) (decimal.Decimal, bool) {
	cleaned := nonNumeric.ReplaceAllString(s, "")
	num := numberPrefix.FindString(cleaned)
	if num == "" {
		return decimal.Zero, false
	}

	num = strings.TrimSuffix(num, ".")
	if strings.HasPrefix(num, "-.") {
		num = "-0" + num[1:]
	} else if strings.HasPrefix(num, ".") {
		num = "0" + num
	}

	d, err := decimal.NewFromString(num)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// Row converts one CSV record, keyed by header, into a transaction using the
// column map. The customer id is taken verbatim. A non-SkipNone reason means
// the row must not contribute to any aggregate.
func Row(raw map[string]string, m model.ColumnMap) (model.Transaction, SkipReason) {
	customerID := raw[m.CustomerID]
	if customerID == "" {
		return model.Transaction{}, SkipMissingCustomer
	}

	date, ok := ParseDate(raw[m.Date])
	if !ok {
		return model.Transaction{}, SkipBadDate
	}

	amount, ok := ParseAmount(raw[m.Amount])
	if !ok {
		return model.Transaction{}, SkipBadAmount
	}

	txn := model.Transaction{
		CustomerID: customerID,
		Date:       date,
		Amount:     amount,
	}
	if m.HasLocation() {
		txn.Location = raw[m.Location.Name]
	}
	return txn, SkipNone
}

// Tally records a row outcome in stats.
func Tally(stats *model.RowStats, reason SkipReason) {
	switch reason {
	case SkipNone:
		stats.Accepted++
	case SkipMissingCustomer:
		stats.MissingCustomer++
	case SkipBadDate:
		stats.BadDate++
	case SkipBadAmount:
		stats.BadAmount++
	}
}
