// Package metrics defines a minimal pluggable metrics facade. The default
// backend discards everything; main wires a real backend when one is
// configured, so library code can emit unconditionally.
package metrics

import "time"

// Labels are attached to every emission.
type Labels map[string]string

// Backend is implemented by concrete sinks (push gateway, dogstatsd).
type Backend interface {
	IncCounter(name string, delta float64, labels Labels)
	ObserveDuration(name string, value float64, labels Labels)
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)      {}
func (nopBackend) ObserveDuration(string, float64, Labels) {}
func (nopBackend) Flush() error                            { return nil }

var backend Backend = nopBackend{}

// SetBackend installs b as the process-wide sink. Nil keeps the current
// backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush forces buffered emissions out. Call once before exit.
func Flush() error { return backend.Flush() }

// RecordPhase emits the outcome and duration of one pipeline phase.
func RecordPhase(job, phase string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	labels := Labels{"job": job, "phase": phase, "status": status}
	backend.IncCounter("txnpipe_phase_total", 1, labels)
	backend.ObserveDuration("txnpipe_phase_duration_seconds", d.Seconds(), labels)
}

// RecordRows emits a row-count delta for one phase outcome kind, e.g.
// "read", "valid", "invalid".
func RecordRows(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter("txnpipe_rows_total", float64(delta), Labels{"job": job, "kind": kind})
}
