// Package file reads batches from the local filesystem.
package file

import (
	"context"
	"fmt"
	"io"
	"os"
)

// Local opens a fixed path on the local disk.
type Local struct{ path string }

// NewLocal binds a source to path. The file is not touched until Open.
func NewLocal(path string) *Local { return &Local{path: path} }

// Open returns the file for reading. A canceled context short-circuits
// before the filesystem is touched, and filesystem errors are wrapped with
// the path while staying errors.Is-compatible (e.g. os.ErrNotExist).
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	return f, nil
}
