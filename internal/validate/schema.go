package validate

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"txnpipe/internal/tabular"
)

// RejectionColumn is the column appended to every invalid row. Its value is
// the triggered codes joined with "; " in detection order.
const RejectionColumn = "rejection_reason"

// ReasonSeparator joins codes into the rejection reason string.
const ReasonSeparator = "; "

// MissingColumns returns the required columns absent from cols, in canonical
// order. Extra columns never count against the batch.
func MissingColumns(cols []string) []string {
	present := make(map[string]struct{}, len(cols))
	for _, c := range cols {
		present[c] = struct{}{}
	}
	var missing []string
	for _, req := range tabular.RequiredColumns {
		if _, ok := present[req]; !ok {
			missing = append(missing, req)
		}
	}
	return missing
}

// CheckColumns is the pre-flight schema check. It reports whether every
// required column is present, with a diagnostic listing all missing columns
// at once. A table with no columns reports all four missing.
func CheckColumns(cols []string) (bool, string) {
	missing := MissingColumns(cols)
	if len(missing) > 0 {
		return false, fmt.Sprintf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return true, "schema columns valid"
}

// JoinCodes renders codes as a rejection reason string.
func JoinCodes(codes []Code) string {
	parts := make([]string, len(codes))
	for i, c := range codes {
		parts[i] = string(c)
	}
	return strings.Join(parts, ReasonSeparator)
}

// Partition checks every row of t and splits it into a valid and an invalid
// table. Valid rows keep their original field values untouched; invalid rows
// are cloned and annotated with RejectionColumn. Row order within each
// partition follows the input, and len(valid)+len(invalid) always equals the
// input length.
//
// Rows are checked concurrently by up to workers goroutines (sequentially
// when workers is not positive); results are collected back in input order
// before partitioning, so concurrency never changes the output. The only
// error Partition can return is context cancellation.
func Partition(ctx context.Context, t tabular.Table, workers int) (valid, invalid tabular.Table, err error) {
	if workers < 1 {
		workers = 1
	}
	if workers > len(t.Rows) {
		workers = len(t.Rows)
	}

	outcomes := make([][]Code, len(t.Rows))
	if workers > 1 {
		g, gctx := errgroup.WithContext(ctx)
		for w := 0; w < workers; w++ {
			w := w
			g.Go(func() error {
				for i := w; i < len(t.Rows); i += workers {
					select {
					case <-gctx.Done():
						return gctx.Err()
					default:
					}
					outcomes[i] = CheckRow(t.Rows[i])
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return tabular.Table{}, tabular.Table{}, err
		}
	} else {
		for i, rec := range t.Rows {
			if err := ctx.Err(); err != nil {
				return tabular.Table{}, tabular.Table{}, err
			}
			outcomes[i] = CheckRow(rec)
		}
	}

	valid = tabular.Table{Columns: t.Columns}
	invalid = tabular.Table{Columns: append(append([]string{}, t.Columns...), RejectionColumn)}

	for i, rec := range t.Rows {
		codes := outcomes[i]
		if len(codes) == 0 {
			valid.Rows = append(valid.Rows, rec)
			continue
		}
		annotated := rec.Clone()
		annotated[RejectionColumn] = JoinCodes(codes)
		invalid.Rows = append(invalid.Rows, annotated)
	}
	return valid, invalid, nil
}
