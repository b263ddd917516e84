package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pmcafe/kiosk/pkg/logger"
	"github.com/pmcafe/kiosk/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

type testJob struct {
	name string
	err  error
	runs atomic.Int32
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(context.Context) error {
	t.runs.Add(1)
	return t.err
}

type fakeLock struct {
	mu       sync.Mutex
	held     bool
	releases int
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.held {
		return false, nil
	}
	f.held = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.held = false
	f.releases++
	return nil
}

func TestNewServiceRequiresLogger(t *testing.T) {
	if _, err := NewService(ServiceParams{}); err == nil {
		t.Fatalf("expected error without logger")
	}
}

func TestRunEntryRecordsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	service, err := NewService(ServiceParams{Logger: logger.Nop(), Metrics: metrics.NewJobMetrics(reg)})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	ok := &testJob{name: "ok"}
	fail := &testJob{name: "fail", err: errors.New("boom")}

	service.runEntry(context.Background(), Entry{Job: ok})
	service.runEntry(context.Background(), Entry{Job: fail})

	if ok.runs.Load() != 1 || fail.runs.Load() != 1 {
		t.Fatalf("expected each job to run once, got ok=%d fail=%d", ok.runs.Load(), fail.runs.Load())
	}
	if got := counterValue(t, reg, "job_success", "ok"); got != 1 {
		t.Fatalf("expected success counter 1, got %v", got)
	}
	if got := counterValue(t, reg, "job_failure", "fail"); got != 1 {
		t.Fatalf("expected failure counter 1, got %v", got)
	}
}

func TestRunEntrySkipsWhenLockHeld(t *testing.T) {
	service, _ := NewService(ServiceParams{Logger: logger.Nop()})
	lock := &fakeLock{held: true}
	job := &testJob{name: "warm"}

	service.runEntry(context.Background(), Entry{Job: job, Lock: lock})
	if job.runs.Load() != 0 {
		t.Fatalf("job must not run while another instance holds the lock")
	}

	lock.held = false
	service.runEntry(context.Background(), Entry{Job: job, Lock: lock})
	if job.runs.Load() != 1 || lock.releases != 1 {
		t.Fatalf("expected one run and one release, got runs=%d releases=%d", job.runs.Load(), lock.releases)
	}
}

func TestRunStartsImmediatelyAndStopsOnCancel(t *testing.T) {
	job := &testJob{name: "poll"}
	service, _ := NewService(ServiceParams{
		Logger:   logger.Nop(),
		Registry: NewRegistry(Entry{Job: job, Interval: time.Hour}, Entry{}),
	})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- service.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for job.runs.Load() == 0 {
		select {
		case <-deadline:
			t.Fatalf("job did not run on start")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("scheduler did not stop")
	}
}

func TestRegistryCopiesEntries(t *testing.T) {
	registry := NewRegistry(Entry{Job: &testJob{name: "a"}}, Entry{Job: nil})
	entries := registry.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected nil job to be dropped, got %d entries", len(entries))
	}
	entries[0].Job = nil
	if registry.Entries()[0].Job == nil {
		t.Fatalf("internal slice leaked")
	}
}

func counterValue(t *testing.T, reg *prometheus.Registry, name, job string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if labelValue(m, "job") == job {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func labelValue(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}
