// Package validate implements the fixed rule set applied to each transaction
// record: per-field checks that accumulate error codes, plus the pre-flight
// column presence check. Validation is per-record and stateless across rows,
// so rows may be checked concurrently.
package validate

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"txnpipe/internal/tabular"
)

var (
	// idPattern matches the raw (untrimmed) transaction id. Lowercase input
	// fails the pattern; the cleaner does not uppercase ids.
	idPattern = regexp.MustCompile(`^[A-Z0-9_-]{8,32}$`)

	countryPattern = regexp.MustCompile(`^[A-Z]{2}$`)
)

// Amount window boundaries, inclusive.
var (
	minAmount = decimal.RequireFromString("0.01")
	maxAmount = decimal.RequireFromString("999999999.99")
)

// Timestamp window boundaries. Values strictly outside are rejected.
var (
	epochFloor = time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC)
	futureCeil = time.Date(2030, time.December, 31, 0, 0, 0, 0, time.UTC)
)

// timestampLayouts is the ordered list of accepted layouts; the first match
// wins. RFC3339 at the end acts as the lenient fallback and admits
// offset-carrying inputs.
var timestampLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z",
	time.RFC3339,
}

// ParseTimestamp parses s against the accepted layouts in order. The cleaner
// reuses it so validation and canonicalization agree on what parses.
func ParseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// CheckRow evaluates the four field rules against rec and returns every
// triggered code in detection order: transaction id, amount, timestamp,
// country. An empty result means the record is valid. The record is never
// mutated.
func CheckRow(rec tabular.Record) []Code {
	var codes []Code
	codes = append(codes, checkID(rec[tabular.FieldTransactionID])...)
	codes = append(codes, checkAmount(rec[tabular.FieldAmount])...)
	codes = append(codes, checkTimestamp(rec[tabular.FieldTimestamp])...)
	codes = append(codes, checkCountry(rec[tabular.FieldCountry])...)
	return codes
}

func isBlank(v any) bool {
	if v == nil {
		return true
	}
	return strings.TrimSpace(tabular.AsString(v)) == ""
}

func checkID(v any) []Code {
	if isBlank(v) {
		return []Code{CodeIDMissing}
	}
	// The pattern runs on the raw string form: surrounding whitespace is a
	// format violation, not something validation forgives.
	if !idPattern.MatchString(tabular.AsString(v)) {
		return []Code{CodeIDFormat}
	}
	return nil
}

// checkAmount runs the numeric checks. Sign, range, and precision are
// independent and can all fire on the same value; an unparseable amount
// short-circuits to E201 alone.
func checkAmount(v any) []Code {
	if v == nil {
		return []Code{CodeAmountMissing}
	}
	s := strings.TrimSpace(tabular.AsString(v))
	d, err := decimal.NewFromString(s)
	if err != nil {
		return []Code{CodeAmountFormat}
	}

	var codes []Code
	if d.Sign() <= 0 {
		codes = append(codes, CodeAmountNotPos)
	}
	if d.LessThan(minAmount) || d.GreaterThan(maxAmount) {
		codes = append(codes, CodeAmountRange)
	}
	if i := strings.IndexByte(s, '.'); i >= 0 && len(s)-i-1 > 2 {
		codes = append(codes, CodeAmountPrecision)
	}
	return codes
}

func checkTimestamp(v any) []Code {
	if v == nil {
		return []Code{CodeTimestampMissing}
	}
	s := strings.TrimSpace(tabular.AsString(v))
	t, ok := ParseTimestamp(s)
	if !ok {
		return []Code{CodeTimestampFormat}
	}

	var codes []Code
	if t.Before(epochFloor) {
		codes = append(codes, CodeTimestampPreEpoch)
	}
	if t.After(futureCeil) {
		codes = append(codes, CodeTimestampFuture)
	}
	return codes
}

// checkCountry distinguishes malformed codes (E401) from well-formed codes
// that simply are not in the recognized set (E402).
func checkCountry(v any) []Code {
	if isBlank(v) {
		return []Code{CodeCountryMissing}
	}
	s := strings.TrimSpace(tabular.AsString(v))
	if !countryPattern.MatchString(s) {
		return []Code{CodeCountryFormat}
	}
	if !CountryRecognized(s) {
		return []Code{CodeCountryUnknown}
	}
	return nil
}
