package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"txnpipe/internal/stats"
	"txnpipe/internal/tabular"
	"txnpipe/internal/validate"
)

// DefaultPrefix is used when Config.TablePrefix is empty.
const DefaultPrefix = "txnpipe"

// Tables holds the resolved archive table names for one prefix.
type Tables struct {
	Runs         string
	Transactions string
	Rejects      string
}

// TablesFor resolves the archive table names for prefix.
func TablesFor(prefix string) Tables {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return Tables{
		Runs:         prefix + "_runs",
		Transactions: prefix + "_transactions",
		Rejects:      prefix + "_rejects",
	}
}

// Column sets shared by every backend. The column naming avoids words that
// are reserved in any of the supported dialects.
var (
	RunColumns = []string{
		"run_id", "job", "executed_at", "duration_seconds",
		"total_rows", "valid_rows", "invalid_rows", "quality_score", "report",
	}
	TransactionColumns = []string{"run_id", "txn_id", "amount", "occurred_at", "country"}
	RejectColumns      = []string{"run_id", "txn_id", "amount", "occurred_at", "country", "rejection_reason"}
)

// ArchiveRun writes one completed run to repo: a summary row, the cleaned
// valid rows and the annotated rejects. The repository must already be
// initialized.
func ArchiveRun(ctx context.Context, repo Repository, prefix, job string, valid, invalid tabular.Table, report stats.Report) error {
	t := TablesFor(prefix)

	doc, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("storage: marshal report: %w", err)
	}
	runRow := []any{
		report.ExecutionMetadata.RunID,
		job,
		report.ExecutionMetadata.ExecutionTimestamp,
		report.ExecutionMetadata.ProcessingDurationSeconds,
		report.IngestionSummary.TotalRowsRead,
		report.IngestionSummary.ValidRows,
		report.IngestionSummary.InvalidRows,
		report.IngestionSummary.DataQualityScorePercent,
		string(doc),
	}
	if _, err := repo.InsertRows(ctx, t.Runs, RunColumns, [][]any{runRow}); err != nil {
		return fmt.Errorf("storage: archive run summary: %w", err)
	}

	runID := report.ExecutionMetadata.RunID
	txnRows := make([][]any, 0, valid.Len())
	for _, rec := range valid.Rows {
		txnRows = append(txnRows, []any{
			runID,
			rec[tabular.FieldTransactionID],
			rec[tabular.FieldAmount],
			rec[tabular.FieldTimestamp],
			rec[tabular.FieldCountry],
		})
	}
	if _, err := repo.InsertRows(ctx, t.Transactions, TransactionColumns, txnRows); err != nil {
		return fmt.Errorf("storage: archive transactions: %w", err)
	}

	rejRows := make([][]any, 0, invalid.Len())
	for _, rec := range invalid.Rows {
		rejRows = append(rejRows, []any{
			runID,
			tabular.AsString(rec[tabular.FieldTransactionID]),
			tabular.AsString(rec[tabular.FieldAmount]),
			tabular.AsString(rec[tabular.FieldTimestamp]),
			tabular.AsString(rec[tabular.FieldCountry]),
			tabular.AsString(rec[validate.RejectionColumn]),
		})
	}
	if _, err := repo.InsertRows(ctx, t.Rejects, RejectColumns, rejRows); err != nil {
		return fmt.Errorf("storage: archive rejects: %w", err)
	}
	return nil
}
