package validate

import (
	"context"
	"reflect"
	"strconv"
	"testing"

	"txnpipe/internal/tabular"
)

func TestCheckColumns(t *testing.T) {
	tests := []struct {
		name    string
		cols    []string
		wantOK  bool
		wantMsg string
	}{
		{
			name:   "all required present",
			cols:   []string{"transaction_id", "amount", "timestamp", "country"},
			wantOK: true,
		},
		{
			name:   "extra columns do not hurt",
			cols:   []string{"transaction_id", "amount", "timestamp", "country", "merchant"},
			wantOK: true,
		},
		{
			name:    "one missing",
			cols:    []string{"transaction_id", "amount", "timestamp"},
			wantOK:  false,
			wantMsg: "missing required columns: country",
		},
		{
			name:    "empty table reports all in canonical order",
			cols:    nil,
			wantOK:  false,
			wantMsg: "missing required columns: transaction_id, amount, timestamp, country",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ok, msg := CheckColumns(tc.cols)
			if ok != tc.wantOK {
				t.Fatalf("CheckColumns() ok = %v, want %v", ok, tc.wantOK)
			}
			if !ok && msg != tc.wantMsg {
				t.Fatalf("CheckColumns() msg = %q, want %q", msg, tc.wantMsg)
			}
		})
	}
}

func TestPartition_AnnotatesAndConserves(t *testing.T) {
	in := tabular.Table{
		Columns: tabular.RequiredColumns,
		Rows: []tabular.Record{
			rec("TXN_001_ABC", "100.50", "2025-01-13T14:30:00Z", "US"),
			rec("bad", "100.50", "2025-01-13", "US"),
			rec("TXN_002_DEF", "-50.00", "2025-01-12", "GB"),
		},
	}

	valid, invalid, err := Partition(context.Background(), in, 1)
	if err != nil {
		t.Fatalf("Partition: %v", err)
	}
	if valid.Len() != 1 || invalid.Len() != 2 {
		t.Fatalf("partition sizes = %d/%d, want 1/2", valid.Len(), invalid.Len())
	}
	if valid.Len()+invalid.Len() != in.Len() {
		t.Fatal("rows not conserved")
	}

	wantCols := append(append([]string{}, tabular.RequiredColumns...), RejectionColumn)
	if !reflect.DeepEqual(invalid.Columns, wantCols) {
		t.Fatalf("invalid columns = %v, want %v", invalid.Columns, wantCols)
	}

	if got := invalid.Rows[0][RejectionColumn]; got != "E101" {
		t.Fatalf("first reject reason = %v, want E101", got)
	}
	if got := invalid.Rows[1][RejectionColumn]; got != "E203; E202" {
		t.Fatalf("second reject reason = %v, want %q", got, "E203; E202")
	}

	// The input rows must not gain the rejection column.
	if _, ok := in.Rows[1][RejectionColumn]; ok {
		t.Fatal("input row was mutated")
	}
}

func TestPartition_ConcurrentMatchesSequential(t *testing.T) {
	in := tabular.Table{Columns: tabular.RequiredColumns}
	for i := 0; i < 100; i++ {
		r := rec("TXN_"+strconv.Itoa(10000000+i), "10.00", "2025-01-13", "US")
		if i%3 == 0 {
			r[tabular.FieldAmount] = "-1"
		}
		in.Rows = append(in.Rows, r)
	}

	seqValid, seqInvalid, err := Partition(context.Background(), in, 1)
	if err != nil {
		t.Fatalf("sequential: %v", err)
	}
	parValid, parInvalid, err := Partition(context.Background(), in, 8)
	if err != nil {
		t.Fatalf("parallel: %v", err)
	}

	if !reflect.DeepEqual(seqValid.Rows, parValid.Rows) {
		t.Fatal("valid rows differ between sequential and parallel runs")
	}
	if !reflect.DeepEqual(seqInvalid.Rows, parInvalid.Rows) {
		t.Fatal("invalid rows differ between sequential and parallel runs")
	}
}

func TestPartition_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	in := tabular.Table{
		Columns: tabular.RequiredColumns,
		Rows:    []tabular.Record{rec("TXN_001_ABC", "1.00", "2025-01-13", "US")},
	}
	if _, _, err := Partition(ctx, in, 1); err == nil {
		t.Fatal("expected context error")
	}
}

func TestJoinCodes(t *testing.T) {
	got := JoinCodes([]Code{CodeAmountNotPos, CodeAmountRange})
	if got != "E203; E202" {
		t.Fatalf("JoinCodes = %q", got)
	}
	if JoinCodes(nil) != "" {
		t.Fatal("JoinCodes(nil) should be empty")
	}
}
