// Package storage persists run output to a relational database. Concrete
// backends register themselves by kind; callers stay backend-agnostic and
// talk to the Repository interface only.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Config selects and configures a backend.
type Config struct {
	// Kind names a registered backend: "sqlite", "postgres", "mysql",
	// "mssql".
	Kind string

	// DSN is the driver connection string.
	DSN string

	// TablePrefix prefixes the archive tables. Empty defaults to
	// "txnpipe".
	TablePrefix string
}

// Repository is the persistence contract shared by all backends.
type Repository interface {
	// Init creates the archive tables when they do not exist yet.
	Init(ctx context.Context) error

	// InsertRows bulk-inserts rows into table. Every row must have
	// len(columns) values. Returns the number of rows written.
	InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)

	// Close releases the underlying connections.
	Close()
}

// Factory constructs a Repository from a Config.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register makes a backend available under kind. Backends call this from
// init; a duplicate kind panics because it is a programming error.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	if _, dup := factories[kind]; dup {
		panic(fmt.Sprintf("storage: duplicate backend %q", kind))
	}
	factories[kind] = f
}

// New opens a Repository for cfg.Kind. Unknown kinds list the registered
// ones in the error so a missing blank import is easy to spot.
func New(ctx context.Context, cfg Config) (Repository, error) {
	mu.RLock()
	f, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: unknown backend %q (registered: %v)", cfg.Kind, Kinds())
	}
	return f(ctx, cfg)
}

// Kinds returns the registered backend names, sorted.
func Kinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
