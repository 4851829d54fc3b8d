package bankcsv

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Accepted date layouts, tried in order: Czech dotted, ISO, slashed.
var dateLayouts = []string{
	"2.1.2006",
	"2006-01-02",
	"2/1/2006",
}

var amountSpaces = strings.NewReplacer(
	" ", "",
	"\u00a0", "", // no-break space
	"\u202f", "", // narrow no-break space
)

// BankRow is a Row with its matching fields cleaned.
type BankRow struct {
	Line           int
	VariableSymbol string
	Amount         decimal.Decimal
	Date           *time.Time
	Raw            map[string]string
}

// DateString renders Date as YYYY-MM-DD, or nil.
func (b BankRow) DateString() *string {
	if b.Date == nil {
		return nil
	}
	s := b.Date.Format("2006-01-02")
	return &s
}

// Normalize cleans the matching fields of r and keeps the raw fields for
// reporting. A missing amount column reads as zero.
func (r Row) Normalize() BankRow {
	amount := r.Get(ColAmount)
	if _, ok := r.Fields[ColAmount]; !ok {
		amount = "0"
	}
	return BankRow{
		Line:           r.Line,
		VariableSymbol: NormalizeSymbol(r.Get(ColVariableSymbol)),
		Amount:         ParseAmount(amount),
		Date:           ParseDate(r.Get(ColDate)),
		Raw:            r.Fields,
	}
}

// NormalizeSymbol trims whitespace and leading zeros, so "000123" and "123"
// compare equal.
func NormalizeSymbol(vs string) string {
	return strings.TrimLeft(strings.TrimSpace(vs), "0")
}

// ParseAmount reads Czech formatted numbers ("1 234,56"). Anything that
// does not parse is zero; matching works on symbol and date alone.
func ParseAmount(s string) decimal.Decimal {
	s = amountSpaces.Replace(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ParseDate returns the calendar day at midnight UTC, or nil when the value
// matches no accepted layout or names an impossible day.
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
