// Package stats aggregates a processed batch into a serializable report:
// run metadata, row counts, an error-code breakdown and per-column
// statistics over the cleaned data.
package stats

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"txnpipe/internal/tabular"
	"txnpipe/internal/validate"
)

// Report is the top-level statistics document for one run.
type Report struct {
	ExecutionMetadata ExecutionMetadata `json:"execution_metadata"`
	IngestionSummary  IngestionSummary  `json:"ingestion_summary"`
	ErrorBreakdown    map[string]int    `json:"error_breakdown"`
	ColumnStatistics  ColumnStatistics  `json:"column_statistics"`
}

type ExecutionMetadata struct {
	RunID                     string  `json:"run_id"`
	ExecutionTimestamp        string  `json:"execution_timestamp"`
	ProcessingDurationSeconds float64 `json:"processing_duration_seconds"`
}

type IngestionSummary struct {
	TotalRowsRead           int     `json:"total_rows_read"`
	ValidRows               int     `json:"valid_rows"`
	InvalidRows             int     `json:"invalid_rows"`
	DataQualityScorePercent float64 `json:"data_quality_score_percent"`
}

type ColumnStatistics struct {
	TransactionID StringStats   `json:"transaction_id"`
	Amount        NumericStats  `json:"amount"`
	Timestamp     DatetimeStats `json:"timestamp"`
	Country       StringStats   `json:"country"`
}

// NumericStats describes a float column. Pointer fields stay nil when the
// column has no non-null values; StdDev additionally needs at least two.
type NumericStats struct {
	Type   string   `json:"type"`
	Count  int      `json:"count"`
	Nulls  int      `json:"nulls"`
	Min    *float64 `json:"min"`
	Max    *float64 `json:"max"`
	Mean   *float64 `json:"mean"`
	Median *float64 `json:"median"`
	StdDev *float64 `json:"std_dev"`
	Sum    *float64 `json:"sum"`
}

// ValueCount is one entry of a most-common ranking.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

type StringStats struct {
	Type        string       `json:"type"`
	Count       int          `json:"count"`
	Nulls       int          `json:"nulls"`
	UniqueCount int          `json:"unique_count"`
	MostCommon  []ValueCount `json:"most_common"`
	AvgLength   *float64     `json:"avg_length"`
}

type DatetimeStats struct {
	Type          string  `json:"type"`
	Count         int     `json:"count"`
	Nulls         int     `json:"nulls"`
	Earliest      *string `json:"earliest"`
	Latest        *string `json:"latest"`
	DateRangeDays *int    `json:"date_range_days"`
}

var codePattern = regexp.MustCompile(`E\d{3}`)

// TallyCodes counts error-code occurrences across the rejection reasons of
// the invalid table. A row carrying several codes contributes to each.
func TallyCodes(invalid tabular.Table) map[string]int {
	tally := make(map[string]int)
	for _, rec := range invalid.Rows {
		reason := tabular.AsString(rec[validate.RejectionColumn])
		for _, code := range codePattern.FindAllString(reason, -1) {
			tally[code]++
		}
	}
	return tally
}

// Calculate builds the full report from the cleaned valid table, the
// annotated invalid table and a pre-computed error tally. The quality score
// is valid/total as a percentage, rounded to 2 places, and 0 for an empty
// batch.
func Calculate(runID string, valid, invalid tabular.Table, tally map[string]int, elapsed time.Duration) Report {
	total := valid.Len() + invalid.Len()
	score := 0.0
	if total > 0 {
		score = round2(float64(valid.Len()) / float64(total) * 100)
	}
	if tally == nil {
		tally = map[string]int{}
	}

	return Report{
		ExecutionMetadata: ExecutionMetadata{
			RunID:                     runID,
			ExecutionTimestamp:        time.Now().Format(time.RFC3339),
			ProcessingDurationSeconds: round2(elapsed.Seconds()),
		},
		IngestionSummary: IngestionSummary{
			TotalRowsRead:           total,
			ValidRows:               valid.Len(),
			InvalidRows:             invalid.Len(),
			DataQualityScorePercent: score,
		},
		ErrorBreakdown: tally,
		ColumnStatistics: ColumnStatistics{
			TransactionID: stringColumn(valid, tabular.FieldTransactionID),
			Amount:        numericColumn(valid, tabular.FieldAmount),
			Timestamp:     datetimeColumn(valid, tabular.FieldTimestamp),
			Country:       stringColumn(valid, tabular.FieldCountry),
		},
	}
}

func numericColumn(t tabular.Table, field string) NumericStats {
	st := NumericStats{Type: "float"}
	var values []float64
	for _, rec := range t.Rows {
		f, ok := asFloat(rec[field])
		if !ok {
			st.Nulls++
			continue
		}
		values = append(values, f)
	}
	st.Count = len(values)
	if len(values) == 0 {
		return st
	}

	sorted := append([]float64{}, values...)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	st.Min = ptr(sorted[0])
	st.Max = ptr(sorted[len(sorted)-1])
	st.Mean = ptr(round2(mean))
	st.Median = ptr(round2(median(sorted)))
	st.Sum = ptr(round2(sum))
	if len(values) > 1 {
		ss := 0.0
		for _, v := range values {
			d := v - mean
			ss += d * d
		}
		st.StdDev = ptr(round2(math.Sqrt(ss / float64(len(values)-1))))
	}
	return st
}

func stringColumn(t tabular.Table, field string) StringStats {
	st := StringStats{Type: "string"}
	counts := make(map[string]int)
	var order []string
	totalLen := 0
	for _, rec := range t.Rows {
		v := rec[field]
		if v == nil {
			st.Nulls++
			continue
		}
		s := tabular.AsString(v)
		if strings.TrimSpace(s) == "" {
			st.Nulls++
			continue
		}
		if counts[s] == 0 {
			order = append(order, s)
		}
		counts[s]++
		totalLen += len(s)
		st.Count++
	}
	st.UniqueCount = len(counts)
	st.MostCommon = []ValueCount{}
	if st.Count == 0 {
		return st
	}

	ranked := make([]ValueCount, 0, len(order))
	for _, s := range order {
		ranked = append(ranked, ValueCount{Value: s, Count: counts[s]})
	}
	// Stable sort keeps first-encountered order among ties.
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Count > ranked[j].Count })
	if len(ranked) > 5 {
		ranked = ranked[:5]
	}
	st.MostCommon = ranked
	st.AvgLength = ptr(round2(float64(totalLen) / float64(st.Count)))
	return st
}

func datetimeColumn(t tabular.Table, field string) DatetimeStats {
	st := DatetimeStats{Type: "datetime"}
	var earliest, latest time.Time
	var earliestRaw, latestRaw string
	for _, rec := range t.Rows {
		v := rec[field]
		if v == nil {
			st.Nulls++
			continue
		}
		s := tabular.AsString(v)
		ts, ok := validate.ParseTimestamp(s)
		if !ok {
			st.Nulls++
			continue
		}
		if st.Count == 0 || ts.Before(earliest) {
			earliest, earliestRaw = ts, s
		}
		if st.Count == 0 || ts.After(latest) {
			latest, latestRaw = ts, s
		}
		st.Count++
	}
	if st.Count == 0 {
		return st
	}
	st.Earliest = ptr(earliestRaw)
	st.Latest = ptr(latestRaw)
	st.DateRangeDays = ptr(int(latest.Sub(earliest).Hours() / 24))
	return st
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// median expects sorted input.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func ptr[T any](v T) *T { return &v }
