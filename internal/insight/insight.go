// Package insight performs heuristic profiling of a parsed batch: quality
// scoring, duplicate and outlier detection, and plain-language
// recommendations. It runs on the raw parsed table, before validation, so
// its findings cover rows the pipeline later rejects.
package insight

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/zeebo/xxh3"

	"txnpipe/internal/tabular"
	"txnpipe/internal/validate"
)

// Recommendation is one advisory finding with a suggested remedy.
type Recommendation struct {
	Type     string `json:"type"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
	Action   string `json:"action"`
}

// Profile summarizes the table shape.
type Profile struct {
	Rows               int `json:"rows"`
	Columns            int `json:"columns"`
	NumericColumns     int `json:"numeric_columns"`
	CategoricalColumns int `json:"categorical_columns"`
	DatetimeColumns    int `json:"datetime_columns"`
}

// Analysis is the full advisory report for one batch.
type Analysis struct {
	QualityScore     float64          `json:"quality_score"`
	DataProfile      Profile          `json:"data_profile"`
	IssuesDetected   []string         `json:"issues_detected"`
	Recommendations  []Recommendation `json:"recommendations"`
	Insights         []string         `json:"insights"`
	SuggestedActions []string         `json:"suggested_actions"`
}

type columnKind int

const (
	kindCategorical columnKind = iota
	kindNumeric
	kindDatetime
)

// Analyze profiles t and returns findings. An empty table yields a zero
// score and empty (non-nil) slices.
func Analyze(t tabular.Table) Analysis {
	a := Analysis{
		IssuesDetected:   []string{},
		Recommendations:  []Recommendation{},
		Insights:         []string{},
		SuggestedActions: []string{},
	}
	if t.Len() == 0 {
		a.DataProfile = Profile{Columns: len(t.Columns)}
		return a
	}

	kinds := classifyColumns(t)
	missingPct := missingPercent(t)
	duplicatePct := duplicatePercent(t)
	completeness := 100 - missingPct

	a.DataProfile = profile(t, kinds)
	a.Insights = insights(t, kinds)
	a.IssuesDetected = detectIssues(t, kinds)
	a.Recommendations = recommend(t, kinds, missingPct, duplicatePct)
	a.SuggestedActions = suggestActions(missingPct, duplicatePct, a.IssuesDetected)

	score := completeness - duplicatePct*0.5
	a.QualityScore = math.Max(0, math.Min(100, score))
	return a
}

// classifyColumns infers a kind per column from the non-null values: actual
// numbers are numeric, strings that all parse as timestamps are datetime,
// everything else is categorical.
func classifyColumns(t tabular.Table) map[string]columnKind {
	kinds := make(map[string]columnKind, len(t.Columns))
	for _, col := range t.Columns {
		kind := kindCategorical
		sawValue := false
		allNumeric, allDatetime := true, true
		for _, rec := range t.Rows {
			v := rec[col]
			if v == nil {
				continue
			}
			sawValue = true
			if _, ok := asNumber(v); !ok {
				allNumeric = false
			}
			s, isStr := v.(string)
			if !isStr {
				allDatetime = false
			} else if _, ok := validate.ParseTimestamp(strings.TrimSpace(s)); !ok {
				allDatetime = false
			}
			if !allNumeric && !allDatetime {
				break
			}
		}
		if sawValue {
			switch {
			case allNumeric:
				kind = kindNumeric
			case allDatetime:
				kind = kindDatetime
			}
		}
		kinds[col] = kind
	}
	return kinds
}

func missingPercent(t tabular.Table) float64 {
	totalCells := t.Len() * len(t.Columns)
	if totalCells == 0 {
		return 0
	}
	missing := 0
	for _, rec := range t.Rows {
		for _, col := range t.Columns {
			if rec[col] == nil {
				missing++
			}
		}
	}
	return float64(missing) / float64(totalCells) * 100
}

// duplicatePercent hashes each row in column order and counts repeats.
func duplicatePercent(t tabular.Table) float64 {
	if t.Len() == 0 {
		return 0
	}
	seen := make(map[uint64]struct{}, t.Len())
	duplicates := 0
	var sb strings.Builder
	for _, rec := range t.Rows {
		sb.Reset()
		for _, col := range t.Columns {
			sb.WriteString(tabular.AsString(rec[col]))
			sb.WriteByte(0x1f)
		}
		h := xxh3.HashString(sb.String())
		if _, dup := seen[h]; dup {
			duplicates++
		} else {
			seen[h] = struct{}{}
		}
	}
	return float64(duplicates) / float64(t.Len()) * 100
}

func profile(t tabular.Table, kinds map[string]columnKind) Profile {
	p := Profile{Rows: t.Len(), Columns: len(t.Columns)}
	for _, kind := range kinds {
		switch kind {
		case kindNumeric:
			p.NumericColumns++
		case kindDatetime:
			p.DatetimeColumns++
		default:
			p.CategoricalColumns++
		}
	}
	return p
}

func insights(t tabular.Table, kinds map[string]columnKind) []string {
	out := []string{
		fmt.Sprintf("Dataset contains %d rows and %d columns", t.Len(), len(t.Columns)),
	}

	var numeric, categorical []string
	for _, col := range t.Columns {
		switch kinds[col] {
		case kindNumeric:
			numeric = append(numeric, col)
		case kindCategorical:
			categorical = append(categorical, col)
		}
	}
	if len(numeric) > 0 {
		out = append(out, "Numeric columns: "+strings.Join(numeric, ", "))
	}
	if len(categorical) > 0 {
		out = append(out, "Categorical columns: "+strings.Join(categorical, ", "))
	}

	for _, col := range t.Columns {
		switch kinds[col] {
		case kindNumeric:
			values := numericValues(t, col)
			if sk, ok := skewness(values); ok && math.Abs(sk) > 1 {
				out = append(out, fmt.Sprintf("Column '%s' has skewed distribution (skewness: %.2f)", col, sk))
			}
		case kindCategorical:
			unique := uniqueCount(t, col)
			if float64(unique)/float64(t.Len()) > 0.9 {
				out = append(out, fmt.Sprintf("Column '%s' has high cardinality (%d unique values)", col, unique))
			}
		}
	}
	return out
}

func detectIssues(t tabular.Table, kinds map[string]columnKind) []string {
	issues := []string{}

	for _, col := range t.Columns {
		empty := true
		for _, rec := range t.Rows {
			if rec[col] != nil {
				empty = false
				break
			}
		}
		if empty {
			issues = append(issues, fmt.Sprintf("Column '%s' is completely empty", col))
		}
	}

	for _, col := range t.Columns {
		if kinds[col] != kindNumeric {
			continue
		}
		values := numericValues(t, col)
		if n := countOutliers(values); n > 0 {
			issues = append(issues, fmt.Sprintf("Column '%s' contains %d potential outliers", col, n))
		}
	}
	return issues
}

func recommend(t tabular.Table, kinds map[string]columnKind, missingPct, duplicatePct float64) []Recommendation {
	recs := []Recommendation{}

	if missingPct > 10 {
		var missingCols []string
		for _, col := range t.Columns {
			for _, rec := range t.Rows {
				if rec[col] == nil {
					missingCols = append(missingCols, col)
					break
				}
			}
		}
		recs = append(recs, Recommendation{
			Type:     "missing_values",
			Severity: "high",
			Message:  fmt.Sprintf("High missing data (%.1f%%) in columns: %v", missingPct, missingCols),
			Action:   "Consider imputation or removal of rows with missing values",
		})
	}

	if duplicatePct > 5 {
		recs = append(recs, Recommendation{
			Type:     "duplicates",
			Severity: "medium",
			Message:  fmt.Sprintf("Found %.1f%% duplicate rows", duplicatePct),
			Action:   "Remove duplicates before further analysis",
		})
	}

	for _, col := range t.Columns {
		if kinds[col] != kindCategorical {
			continue
		}
		if allValuesNumericText(t, col) {
			recs = append(recs, Recommendation{
				Type:     "data_type",
				Severity: "low",
				Message:  fmt.Sprintf("Column '%s' appears to be numeric but stored as text", col),
				Action:   "Convert to numeric for better analysis",
			})
		}
	}
	return recs
}

func suggestActions(missingPct, duplicatePct float64, issues []string) []string {
	actions := []string{}
	if missingPct > 0 {
		actions = append(actions, "Handle missing values (impute or remove)")
	}
	if duplicatePct > 0 {
		actions = append(actions, "Remove duplicate records")
	}
	if len(issues) > 0 {
		actions = append(actions, "Investigate and handle detected issues")
	}
	actions = append(actions,
		"Validate data against business rules",
		"Export cleaned data for further analysis",
	)
	return actions
}

func numericValues(t tabular.Table, col string) []float64 {
	var out []float64
	for _, rec := range t.Rows {
		if v := rec[col]; v != nil {
			if f, ok := asNumber(v); ok {
				out = append(out, f)
			}
		}
	}
	return out
}

func uniqueCount(t tabular.Table, col string) int {
	seen := make(map[string]struct{})
	for _, rec := range t.Rows {
		if v := rec[col]; v != nil {
			seen[tabular.AsString(v)] = struct{}{}
		}
	}
	return len(seen)
}

// allValuesNumericText reports whether every non-null value of col is a
// string that parses as a number. Columns with no values do not qualify.
func allValuesNumericText(t tabular.Table, col string) bool {
	saw := false
	for _, rec := range t.Rows {
		v := rec[col]
		if v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			return false
		}
		if _, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err != nil {
			return false
		}
		saw = true
	}
	return saw
}

func asNumber(v any) (float64, bool) {
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

// skewness returns the moment-based skewness m3 / m2^1.5. It needs at least
// three values and nonzero variance.
func skewness(values []float64) (float64, bool) {
	n := float64(len(values))
	if n < 3 {
		return 0, false
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= n

	var m2, m3 float64
	for _, v := range values {
		d := v - mean
		m2 += d * d
		m3 += d * d * d
	}
	m2 /= n
	m3 /= n
	if m2 == 0 {
		return 0, false
	}
	return m3 / math.Pow(m2, 1.5), true
}

// countOutliers applies the 1.5x IQR fence with linearly interpolated
// quartiles.
func countOutliers(values []float64) int {
	if len(values) < 4 {
		return 0
	}
	sorted := append([]float64{}, values...)
	sort.Float64s(sorted)
	q1 := quantile(sorted, 0.25)
	q3 := quantile(sorted, 0.75)
	iqr := q3 - q1
	lo, hi := q1-1.5*iqr, q3+1.5*iqr

	n := 0
	for _, v := range sorted {
		if v < lo || v > hi {
			n++
		}
	}
	return n
}

// quantile expects sorted input and interpolates between ranks.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
