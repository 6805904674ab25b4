package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"txnpipe/internal/tabular"
	"txnpipe/internal/validate"
)

func batch(rows ...[4]string) tabular.Table {
	t := tabular.Table{Columns: tabular.RequiredColumns}
	for _, r := range rows {
		t.Rows = append(t.Rows, tabular.Record{
			tabular.FieldTransactionID: r[0],
			tabular.FieldAmount:        r[1],
			tabular.FieldTimestamp:     r[2],
			tabular.FieldCountry:       r[3],
		})
	}
	return t
}

func TestRun_EndToEnd(t *testing.T) {
	in := batch(
		[4]string{"TXN_001_ABC", "100.50", "2025-01-13T14:30:00Z", "US"},
		[4]string{"TXN_002_DEF", "-50.00", "2025-01-12T10:15:00", "GB"},
		[4]string{"TXN_003", "250.75", "2050-01-01T00:00:00", "JP"},
	)

	res, err := Run(context.Background(), in, Options{Job: "test"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.RunID == "" {
		t.Error("run id must be set")
	}
	if res.Valid.Len() != 1 || res.Invalid.Len() != 2 {
		t.Fatalf("valid/invalid = %d/%d, want 1/2", res.Valid.Len(), res.Invalid.Len())
	}

	// The surviving row is cleaned to canonical form.
	got := res.Valid.Rows[0]
	if got[tabular.FieldAmount] != 100.5 {
		t.Errorf("amount = %v", got[tabular.FieldAmount])
	}
	if got[tabular.FieldTimestamp] != "2025-01-13T14:30:00" {
		t.Errorf("timestamp = %v", got[tabular.FieldTimestamp])
	}

	sum := res.Stats.IngestionSummary
	if sum.TotalRowsRead != 3 || sum.DataQualityScorePercent != 33.33 {
		t.Errorf("summary = %+v", sum)
	}

	breakdown := res.Stats.ErrorBreakdown
	for _, code := range []string{"E203", "E202", "E303", "E101"} {
		if breakdown[code] == 0 {
			t.Errorf("breakdown missing %s: %v", code, breakdown)
		}
	}

	// Rejected rows carry their reasons.
	reasons := make([]string, 0, res.Invalid.Len())
	for _, rec := range res.Invalid.Rows {
		reasons = append(reasons, tabular.AsString(rec[validate.RejectionColumn]))
	}
	joined := strings.Join(reasons, "|")
	if !strings.Contains(joined, "E203") || !strings.Contains(joined, "E101") {
		t.Errorf("reasons = %v", reasons)
	}
}

func TestRun_MissingColumnIsFatal(t *testing.T) {
	in := tabular.Table{
		Columns: []string{"transaction_id", "amount", "timestamp"},
		Rows: []tabular.Record{
			{"transaction_id": "TXN_001_ABC", "amount": "1.00", "timestamp": "2025-01-13"},
		},
	}

	_, err := Run(context.Background(), in, Options{})
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("err = %v, want *SchemaError", err)
	}
	if len(schemaErr.Missing) != 1 || schemaErr.Missing[0] != "country" {
		t.Fatalf("missing = %v", schemaErr.Missing)
	}
	if !strings.Contains(schemaErr.Error(), "country") {
		t.Fatalf("message = %q", schemaErr.Error())
	}
}

func TestRun_AllInvalidStillReports(t *testing.T) {
	in := batch(
		[4]string{"bad", "-1", "2050-01-01", "zz"},
		[4]string{"also_bad", "abc", "nope", "XX"},
	)

	res, err := Run(context.Background(), in, Options{Workers: 4})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Valid.Len() != 0 || res.Invalid.Len() != 2 {
		t.Fatalf("valid/invalid = %d/%d", res.Valid.Len(), res.Invalid.Len())
	}
	if res.Stats.IngestionSummary.DataQualityScorePercent != 0 {
		t.Errorf("score = %v", res.Stats.IngestionSummary.DataQualityScorePercent)
	}
	// The valid table still carries the canonical columns for downstream
	// writers.
	if len(res.Valid.Columns) == 0 {
		t.Error("valid table lost its columns")
	}
}

func TestRun_EmptyBatch(t *testing.T) {
	in := tabular.Table{Columns: tabular.RequiredColumns}
	res, err := Run(context.Background(), in, Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Stats.IngestionSummary.TotalRowsRead != 0 {
		t.Errorf("total rows = %d", res.Stats.IngestionSummary.TotalRowsRead)
	}
}
