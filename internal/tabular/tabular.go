// Package tabular defines the in-memory table model shared by every pipeline
// stage. A batch is parsed once into a Table and then flows through
// validation, cleaning, and statistics without further I/O.
package tabular

import (
	"fmt"
	"strconv"
	"time"
)

// Canonical column names for the four required transaction fields. Input
// batches may carry extra columns; those pass through every stage untouched.
const (
	FieldTransactionID = "transaction_id"
	FieldAmount        = "amount"
	FieldTimestamp     = "timestamp"
	FieldCountry       = "country"
)

// RequiredColumns lists the columns every batch must provide, in the order
// the per-field checks run.
var RequiredColumns = []string{
	FieldTransactionID,
	FieldAmount,
	FieldTimestamp,
	FieldCountry,
}

// Record is one row of a batch, keyed by column name. Values are raw as
// parsed: string, numeric, or nil for an empty cell.
type Record map[string]any

// Clone returns a shallow copy of the record. Stages that annotate or rewrite
// rows clone first so the caller's table is never mutated.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Table is an ordered batch of records with named columns. Row order is the
// source order and is preserved by every stage.
type Table struct {
	Columns []string
	Rows    []Record
}

// Len returns the number of rows.
func (t Table) Len() int { return len(t.Rows) }

// HasColumn reports whether name is one of the table's columns.
func (t Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// AsString renders a cell value the way the validator and cleaner see it.
// nil becomes "". Numeric values use their shortest round-trip form so a
// cleaned float re-enters parsing without drift.
func AsString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case bool:
		if t {
			return "true"
		}
		return "false"
	case time.Time:
		return t.Format(time.RFC3339)
	default:
		return fmt.Sprint(t)
	}
}
