package storage

import (
	"context"
	"strings"
	"testing"

	"txnpipe/internal/stats"
	"txnpipe/internal/tabular"
	"txnpipe/internal/validate"
)

type fakeRepo struct {
	inserts map[string][][]any
	columns map[string][]string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{inserts: map[string][][]any{}, columns: map[string][]string{}}
}

func (f *fakeRepo) Init(ctx context.Context) error { return nil }

func (f *fakeRepo) InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	f.inserts[table] = append(f.inserts[table], rows...)
	f.columns[table] = columns
	return int64(len(rows)), nil
}

func (f *fakeRepo) Close() {}

func TestTablesFor(t *testing.T) {
	got := TablesFor("txn")
	if got.Runs != "txn_runs" || got.Transactions != "txn_transactions" || got.Rejects != "txn_rejects" {
		t.Fatalf("tables = %+v", got)
	}
	if def := TablesFor(""); def.Runs != "txnpipe_runs" {
		t.Fatalf("default tables = %+v", def)
	}
}

func TestArchiveRun(t *testing.T) {
	valid := tabular.Table{
		Columns: tabular.RequiredColumns,
		Rows: []tabular.Record{
			{
				tabular.FieldTransactionID: "TXN_001_ABC",
				tabular.FieldAmount:        100.5,
				tabular.FieldTimestamp:     "2025-01-13T14:30:00",
				tabular.FieldCountry:       "US",
			},
		},
	}
	invalid := tabular.Table{
		Columns: append(append([]string{}, tabular.RequiredColumns...), validate.RejectionColumn),
		Rows: []tabular.Record{
			{
				tabular.FieldTransactionID: "TXN_003",
				tabular.FieldAmount:        "250.75",
				tabular.FieldTimestamp:     "2050-01-01T00:00:00",
				tabular.FieldCountry:       "JP",
				validate.RejectionColumn:   "E101; E303",
			},
		},
	}
	report := stats.Calculate("run-7", valid, invalid, map[string]int{"E101": 1, "E303": 1}, 0)

	repo := newFakeRepo()
	if err := ArchiveRun(context.Background(), repo, "txn", "daily", valid, invalid, report); err != nil {
		t.Fatalf("ArchiveRun: %v", err)
	}

	runs := repo.inserts["txn_runs"]
	if len(runs) != 1 {
		t.Fatalf("run rows = %d", len(runs))
	}
	if runs[0][0] != "run-7" || runs[0][1] != "daily" {
		t.Errorf("run row = %v", runs[0])
	}
	if doc, ok := runs[0][len(runs[0])-1].(string); !ok || !strings.Contains(doc, "error_breakdown") {
		t.Errorf("report doc = %v", runs[0][len(runs[0])-1])
	}

	txns := repo.inserts["txn_transactions"]
	if len(txns) != 1 || txns[0][1] != "TXN_001_ABC" || txns[0][2] != 100.5 {
		t.Errorf("transactions = %v", txns)
	}

	rejects := repo.inserts["txn_rejects"]
	if len(rejects) != 1 {
		t.Fatalf("rejects = %v", rejects)
	}
	if rejects[0][5] != "E101; E303" {
		t.Errorf("reject reason = %v", rejects[0][5])
	}
	// Reject values are archived as text, even the unparseable ones.
	if rejects[0][2] != "250.75" {
		t.Errorf("reject amount = %v", rejects[0][2])
	}
}

func TestNew_UnknownKind(t *testing.T) {
	_, err := New(context.Background(), Config{Kind: "bolt"})
	if err == nil || !strings.Contains(err.Error(), "unknown backend") {
		t.Fatalf("err = %v", err)
	}
}

func TestRegister_DuplicatePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate registration")
		}
	}()
	Register("dup-kind", func(ctx context.Context, cfg Config) (Repository, error) { return nil, nil })
	Register("dup-kind", func(ctx context.Context, cfg Config) (Repository, error) { return nil, nil })
}
