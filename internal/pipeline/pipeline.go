// Package pipeline runs a batch of transaction rows through the three
// processing phases: validation, cleaning and statistics. One call handles
// one batch; there is no incremental or streaming mode.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"txnpipe/internal/clean"
	"txnpipe/internal/metrics"
	"txnpipe/internal/stats"
	"txnpipe/internal/tabular"
	"txnpipe/internal/validate"
)

// SchemaError is returned when a required column is absent from the input.
// It is fatal: no row output or statistics are produced.
type SchemaError struct {
	Missing []string
	Msg     string
}

func (e *SchemaError) Error() string { return e.Msg }

// Options tunes a run. The zero value is usable.
type Options struct {
	// Job names the run in logs and metrics. Empty defaults to "txnpipe".
	Job string
	// Workers bounds validation concurrency. Values below 1 mean
	// sequential.
	Workers int
}

// Result is the complete output of one batch run.
type Result struct {
	RunID   string
	Valid   tabular.Table
	Invalid tabular.Table
	Stats   stats.Report
}

// Run processes t and returns the cleaned valid rows, the annotated invalid
// rows and the statistics report. A missing required column yields a
// *SchemaError and no partial output.
func Run(ctx context.Context, t tabular.Table, opt Options) (*Result, error) {
	job := opt.Job
	if job == "" {
		job = "txnpipe"
	}
	runID := uuid.NewString()
	started := time.Now()
	log.Printf("run %s: starting, %d rows", runID, t.Len())
	metrics.RecordRows(job, "read", int64(t.Len()))

	if ok, msg := validate.CheckColumns(t.Columns); !ok {
		err := &SchemaError{Missing: validate.MissingColumns(t.Columns), Msg: msg}
		metrics.RecordPhase(job, "validate", err, time.Since(started))
		return nil, err
	}

	phaseStart := time.Now()
	valid, invalid, err := validate.Partition(ctx, t, opt.Workers)
	metrics.RecordPhase(job, "validate", err, time.Since(phaseStart))
	if err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}
	metrics.RecordRows(job, "valid", int64(valid.Len()))
	metrics.RecordRows(job, "invalid", int64(invalid.Len()))
	log.Printf("run %s: validated, %d valid / %d invalid", runID, valid.Len(), invalid.Len())

	phaseStart = time.Now()
	cleaned := clean.Table(valid)
	metrics.RecordPhase(job, "clean", nil, time.Since(phaseStart))

	phaseStart = time.Now()
	tally := stats.TallyCodes(invalid)
	report := stats.Calculate(runID, cleaned, invalid, tally, time.Since(started))
	metrics.RecordPhase(job, "statistics", nil, time.Since(phaseStart))
	log.Printf("run %s: done in %.2fs, quality %.2f%%",
		runID, time.Since(started).Seconds(), report.IngestionSummary.DataQualityScorePercent)

	return &Result{RunID: runID, Valid: cleaned, Invalid: invalid, Stats: report}, nil
}
