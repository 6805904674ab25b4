// Package mysql implements a MySQL-backed storage.Repository using
// database/sql with multi-value INSERT statements.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"txnpipe/internal/storage"
)

// insertChunk bounds the number of rows per multi-value INSERT so the
// statement stays well under max_allowed_packet.
const insertChunk = 500

// Repository is a MySQL-backed implementation of storage.Repository.
type Repository struct {
	db     *sql.DB
	tables storage.Tables
}

// NewRepository opens a MySQL connection from the DSN, e.g.
// "user:pass@tcp(host:3306)/db".
func NewRepository(ctx context.Context, cfg storage.Config) (*Repository, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("mysql: DSN must not be empty")
	}

	db, err := sql.Open("mysql", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("mysql: open: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("mysql: ping: %w", err)
	}

	return &Repository{db: db, tables: storage.TablesFor(cfg.TablePrefix)}, nil
}

// Init creates the archive tables when absent. run_id is VARCHAR because
// MySQL cannot index an unbounded TEXT primary key.
func (r *Repository) Init(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			run_id VARCHAR(64) PRIMARY KEY,
			job VARCHAR(255),
			executed_at VARCHAR(64),
			duration_seconds DOUBLE,
			total_rows BIGINT,
			valid_rows BIGINT,
			invalid_rows BIGINT,
			quality_score DOUBLE,
			report JSON
		)`, r.tables.Runs),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			run_id VARCHAR(64),
			txn_id VARCHAR(64),
			amount DOUBLE,
			occurred_at VARCHAR(64),
			country VARCHAR(8)
		)`, r.tables.Transactions),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			run_id VARCHAR(64),
			txn_id TEXT,
			amount TEXT,
			occurred_at TEXT,
			country TEXT,
			rejection_reason TEXT
		)`, r.tables.Rejects),
	}
	for _, s := range stmts {
		if _, err := r.db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("mysql: init: %w", err)
		}
	}
	return nil
}

// InsertRows inserts rows into table with chunked multi-value INSERTs
// inside one transaction.
func (r *Repository) InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("mysql: InsertRows: columns must not be empty")
	}
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("mysql: begin tx: %w", err)
	}

	rowPlaceholder := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ") + ")"

	var inserted int64
	for start := 0; start < len(rows); start += insertChunk {
		end := start + insertChunk
		if end > len(rows) {
			end = len(rows)
		}
		chunk := rows[start:end]

		placeholders := make([]string, len(chunk))
		args := make([]any, 0, len(chunk)*len(columns))
		for i, row := range chunk {
			if len(row) != len(columns) {
				_ = tx.Rollback()
				return inserted, fmt.Errorf("mysql: InsertRows: row length %d != columns length %d", len(row), len(columns))
			}
			placeholders[i] = rowPlaceholder
			args = append(args, row...)
		}

		stmtSQL := fmt.Sprintf(
			"INSERT INTO %s (%s) VALUES %s",
			table,
			strings.Join(columns, ", "),
			strings.Join(placeholders, ", "),
		)
		if _, err := tx.ExecContext(ctx, stmtSQL, args...); err != nil {
			_ = tx.Rollback()
			return inserted, fmt.Errorf("mysql: insert: %w", err)
		}
		inserted += int64(len(chunk))
	}

	if err := tx.Commit(); err != nil {
		return inserted, fmt.Errorf("mysql: commit: %w", err)
	}
	return inserted, nil
}

// Close closes the database handle.
func (r *Repository) Close() { _ = r.db.Close() }

var _ storage.Repository = (*Repository)(nil)

func init() {
	storage.Register("mysql", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		return NewRepository(ctx, cfg)
	})
}
