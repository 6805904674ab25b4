// Package clean normalizes validated records into canonical form. It only
// ever sees rows that already passed validation, so it never fails: a value
// that will not reparse degrades to nil instead of erroring.
package clean

import (
	"strings"

	"github.com/shopspring/decimal"

	"txnpipe/internal/tabular"
	"txnpipe/internal/validate"
)

// TimestampLayout is the canonical timestamp form: offset and zone
// information from the source string is dropped, not converted.
const TimestampLayout = "2006-01-02T15:04:05"

// Table normalizes every row of t, field by field:
//
//   - transaction_id: string, trimmed
//   - amount: reparsed as a decimal and rounded to 2 places, half away from
//     zero (100.005 rounds to 100.01); unparseable values become nil
//   - timestamp: reparsed and reformatted as TimestampLayout; unparseable
//     values become nil
//   - country: trimmed and uppercased
//
// Extra columns pass through untouched. The input table is not mutated, and
// cleaning an already-clean table is a no-op. An empty input yields an empty
// table that still carries the four canonical column names so downstream
// aggregation can branch on emptiness safely.
func Table(t tabular.Table) tabular.Table {
	if len(t.Rows) == 0 {
		cols := t.Columns
		if len(cols) == 0 {
			cols = append([]string{}, tabular.RequiredColumns...)
		}
		return tabular.Table{Columns: cols}
	}

	out := tabular.Table{
		Columns: append([]string{}, t.Columns...),
		Rows:    make([]tabular.Record, 0, len(t.Rows)),
	}
	for _, rec := range t.Rows {
		out.Rows = append(out.Rows, Row(rec))
	}
	return out
}

// Row returns a normalized copy of rec.
func Row(rec tabular.Record) tabular.Record {
	out := rec.Clone()
	out[tabular.FieldTransactionID] = strings.TrimSpace(tabular.AsString(rec[tabular.FieldTransactionID]))
	out[tabular.FieldAmount] = Amount(rec[tabular.FieldAmount])
	out[tabular.FieldTimestamp] = Timestamp(rec[tabular.FieldTimestamp])
	out[tabular.FieldCountry] = strings.ToUpper(strings.TrimSpace(tabular.AsString(rec[tabular.FieldCountry])))
	return out
}

// Amount reparses v and rounds to 2 fractional digits, half away from zero.
// Rounding happens in decimal space before the float64 conversion so the
// .xx5 boundary is exact. Unparseable input yields nil.
func Amount(v any) any {
	if v == nil {
		return nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(tabular.AsString(v)))
	if err != nil {
		return nil
	}
	f, _ := d.Round(2).Float64()
	return f
}

// Timestamp reparses v against the accepted layouts and reformats it as
// TimestampLayout. Unparseable input yields nil.
func Timestamp(v any) any {
	if v == nil {
		return nil
	}
	t, ok := validate.ParseTimestamp(strings.TrimSpace(tabular.AsString(v)))
	if !ok {
		return nil
	}
	return t.Format(TimestampLayout)
}
