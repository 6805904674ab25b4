// Package parser defines the contract for turning raw input bytes into a
// table of records.
package parser

import (
	"io"

	"txnpipe/internal/tabular"
)

// Parser consumes one input and returns the parsed table plus the number of
// malformed rows that were skipped.
type Parser interface {
	Parse(r io.Reader) (tabular.Table, int, error)
}
