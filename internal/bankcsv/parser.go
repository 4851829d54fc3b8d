// Package bankcsv reads bank statement exports. It knows the column names
// used by the common Czech banks and keeps every field verbatim; cleaning of
// individual values happens in Normalize.
package bankcsv

import (
	"encoding/csv"
	"strings"
)

// Canonical column keys produced by the header mapping.
const (
	ColVariableSymbol = "variable_symbol"
	ColAmount         = "amount"
	ColDate           = "date"
	ColCounterAccount = "counter_account"
	ColCounterName    = "counter_name"
	ColMessage        = "message"
)

var headerSynonyms = map[string]string{
	"vs":                ColVariableSymbol,
	"variabilní symbol": ColVariableSymbol,
	"variabilni symbol": ColVariableSymbol,
	"variable symbol":   ColVariableSymbol,
	"var. symbol":       ColVariableSymbol,
	"var.symbol":        ColVariableSymbol,

	"částka": ColAmount,
	"castka": ColAmount,
	"amount": ColAmount,
	"objem":  ColAmount,
	"suma":   ColAmount,

	"datum":            ColDate,
	"date":             ColDate,
	"datum zaúčtování": ColDate,
	"datum zauctovani": ColDate,
	"datum platby":     ColDate,

	"protiúčet":           ColCounterAccount,
	"protiucet":           ColCounterAccount,
	"název protiúčtu":     ColCounterName,
	"zpráva pro příjemce": ColMessage,
	"zprava pro prijemce": ColMessage,
}

var headerNoise = strings.NewReplacer(
	"\ufeff", "", // byte-order mark
	`"`, "",
	"'", "",
	"\u201c", "",
	"\u201d", "",
	"\u201e", "",
	"\u2018", "",
	"\u2019", "",
)

// Row is one data line of the export keyed by canonical header.
type Row struct {
	Line   int // 1-based line in the uploaded text
	Fields map[string]string
}

// Get returns the raw value of a column, or "" when the export lacks it.
func (r Row) Get(col string) string {
	return r.Fields[col]
}

// CanonicalHeader maps a header cell onto one of the Col* keys. Unknown
// headers come back cleaned but otherwise unchanged.
func CanonicalHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.TrimSpace(headerNoise.Replace(h))
	if canonical, ok := headerSynonyms[h]; ok {
		return canonical
	}
	return h
}

// DetectDelimiter picks ';' when the header line has one, ',' otherwise.
func DetectDelimiter(headerLine string) rune {
	if strings.Contains(headerLine, ";") {
		return ';'
	}
	return ','
}

type line struct {
	no   int
	text string
}

// Parse splits an export into rows. Blank lines are ignored, an export
// without at least one data line yields nothing, and rows whose field count
// differs from the header are dropped.
func Parse(raw string) []Row {
	var lines []line
	for i, l := range strings.Split(raw, "\n") {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		lines = append(lines, line{no: i + 1, text: l})
	}
	if len(lines) < 2 {
		return nil
	}

	delim := DetectDelimiter(lines[0].text)

	header := tokenize(lines[0].text, delim)
	for i, h := range header {
		header[i] = CanonicalHeader(h)
	}

	rows := make([]Row, 0, len(lines)-1)
	for _, l := range lines[1:] {
		values := tokenize(l.text, delim)
		if len(values) != len(header) {
			continue
		}

		fields := make(map[string]string, len(header))
		for i, key := range header {
			fields[key] = values[i]
		}
		rows = append(rows, Row{Line: l.no, Fields: fields})
	}
	return rows
}

// tokenize splits one line honouring double-quoted fields. Broken quoting
// falls back to a plain split so a row is never lost to a parse error.
func tokenize(text string, delim rune) []string {
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = delim
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	record, err := r.Read()
	if err != nil {
		return strings.Split(text, string(delim))
	}
	return record
}
