package metrics

import (
	"errors"
	"testing"
	"time"
)

type fakeBackend struct {
	counters  map[string]float64
	labels    map[string]Labels
	durations map[string]float64
	flushed   int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		counters:  map[string]float64{},
		labels:    map[string]Labels{},
		durations: map[string]float64{},
	}
}

func (f *fakeBackend) IncCounter(name string, delta float64, labels Labels) {
	f.counters[name] += delta
	f.labels[name] = labels
}

func (f *fakeBackend) ObserveDuration(name string, value float64, labels Labels) {
	f.durations[name] = value
	f.labels[name] = labels
}

func (f *fakeBackend) Flush() error {
	f.flushed++
	return nil
}

func withFake(t *testing.T) *fakeBackend {
	t.Helper()
	fake := newFakeBackend()
	SetBackend(fake)
	t.Cleanup(func() { SetBackend(nopBackend{}) })
	return fake
}

func TestRecordPhase(t *testing.T) {
	fake := withFake(t)

	RecordPhase("job1", "validate", nil, 2*time.Second)
	if fake.counters["txnpipe_phase_total"] != 1 {
		t.Errorf("counter = %v", fake.counters)
	}
	if fake.durations["txnpipe_phase_duration_seconds"] != 2 {
		t.Errorf("duration = %v", fake.durations)
	}
	got := fake.labels["txnpipe_phase_total"]
	if got["job"] != "job1" || got["phase"] != "validate" || got["status"] != "success" {
		t.Errorf("labels = %v", got)
	}

	RecordPhase("job1", "archive", errors.New("boom"), time.Second)
	if fake.labels["txnpipe_phase_total"]["status"] != "failure" {
		t.Errorf("labels = %v", fake.labels["txnpipe_phase_total"])
	}
}

func TestRecordRows(t *testing.T) {
	fake := withFake(t)

	RecordRows("job1", "valid", 10)
	RecordRows("job1", "valid", 5)
	RecordRows("job1", "valid", 0)
	RecordRows("job1", "valid", -3)

	if fake.counters["txnpipe_rows_total"] != 15 {
		t.Errorf("counter = %v, want 15", fake.counters["txnpipe_rows_total"])
	}
	if got := fake.labels["txnpipe_rows_total"]; got["kind"] != "valid" {
		t.Errorf("labels = %v", got)
	}
}

func TestSetBackend_NilKeepsCurrent(t *testing.T) {
	fake := withFake(t)
	SetBackend(nil)
	RecordRows("job1", "read", 1)
	if fake.counters["txnpipe_rows_total"] != 1 {
		t.Error("nil SetBackend replaced the active backend")
	}
}

func TestFlush(t *testing.T) {
	fake := withFake(t)
	if err := Flush(); err != nil {
		t.Fatal(err)
	}
	if fake.flushed != 1 {
		t.Errorf("flushed = %d", fake.flushed)
	}
}
