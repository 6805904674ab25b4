package sqlite

import (
	"context"
	"testing"

	"txnpipe/internal/storage"
)

func openTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(context.Background(), storage.Config{
		Kind: "sqlite",
		DSN:  ":memory:",
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(repo.Close)
	if err := repo.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	return repo
}

func TestInitIsIdempotent(t *testing.T) {
	repo := openTestRepo(t)
	if err := repo.Init(context.Background()); err != nil {
		t.Fatalf("second init: %v", err)
	}
}

func TestInsertRows(t *testing.T) {
	repo := openTestRepo(t)
	tables := storage.TablesFor("")

	rows := [][]any{
		{"run-1", "TXN_001_ABC", 100.5, "2025-01-13T14:30:00", "US"},
		{"run-1", "TXN_002_DEF", 42.0, "2025-01-14T09:00:00", "GB"},
	}
	n, err := repo.InsertRows(context.Background(), tables.Transactions, storage.TransactionColumns, rows)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if n != 2 {
		t.Fatalf("inserted = %d, want 2", n)
	}

	var count int
	if err := repo.db.QueryRowContext(context.Background(),
		"SELECT COUNT(*) FROM "+tables.Transactions).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}
}

func TestInsertRows_EmptyIsNoop(t *testing.T) {
	repo := openTestRepo(t)
	n, err := repo.InsertRows(context.Background(), storage.TablesFor("").Rejects, storage.RejectColumns, nil)
	if err != nil || n != 0 {
		t.Fatalf("n=%d err=%v", n, err)
	}
}

func TestInsertRows_WidthMismatch(t *testing.T) {
	repo := openTestRepo(t)
	_, err := repo.InsertRows(context.Background(), storage.TablesFor("").Transactions,
		storage.TransactionColumns, [][]any{{"run-1", "short"}})
	if err == nil {
		t.Fatal("expected width mismatch error")
	}
}

func TestNewRepository_EmptyDSN(t *testing.T) {
	if _, err := NewRepository(context.Background(), storage.Config{}); err == nil {
		t.Fatal("expected error for empty DSN")
	}
}
