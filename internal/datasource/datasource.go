// Package datasource abstracts where a transaction batch comes from.
package datasource

import (
	"context"
	"io"
)

// Source yields the raw bytes of one batch. Callers own the returned
// ReadCloser.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}
