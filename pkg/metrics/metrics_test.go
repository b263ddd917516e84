package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestJobMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewJobMetrics(reg)
	job := "order-refresh"
	metrics.ObserveDuration(job, 250*time.Millisecond)
	metrics.IncSuccess(job)
	metrics.IncFailure(job)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "job_success", "job", job); err != nil {
		t.Fatalf("fetch success: %v", err)
	} else if got != 1 {
		t.Fatalf("expected success=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "job_failure", "job", job); err != nil {
		t.Fatalf("fetch failure: %v", err)
	} else if got != 1 {
		t.Fatalf("expected failure=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "job_duration_seconds", "job", job); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestJobMetricsNormalizesEmptyJob(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewJobMetrics(reg)
	metrics.IncSuccess("")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "job_success", "job", "unknown"); err != nil || got != 1 {
		t.Fatalf("expected unknown label, got %f err=%v", got, err)
	}
}

func TestOrderMetricsCountsSubmissionsAndAllocations(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewOrderMetrics(reg)
	metrics.IncSubmission("CELL", OutcomeSuccess)
	metrics.IncSubmission("CELL", OutcomeSuccess)
	metrics.IncSubmission("PERSONAL", OutcomeRejected)
	metrics.IncAllocation(AllocationForcedReuse)
	metrics.MarkRefreshed(time.Unix(1700000000, 0))
	metrics.SetActiveSessions(3)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "order_submissions_total", "outcome", OutcomeSuccess); err != nil || got != 2 {
		t.Fatalf("expected 2 successful submissions, got %f err=%v", got, err)
	}
	if got, err := fetchCounterValue(mfs, "daily_number_allocations_total", "outcome", AllocationForcedReuse); err != nil || got != 1 {
		t.Fatalf("expected 1 forced reuse, got %f err=%v", got, err)
	}
	mf := findMetricFamily(mfs, "order_refresh_last_success_timestamp_seconds")
	if mf == nil || mf.GetMetric()[0].GetGauge().GetValue() != 1700000000 {
		t.Fatalf("unexpected refresh gauge %v", mf)
	}
	mf = findMetricFamily(mfs, "kiosk_sessions_active")
	if mf == nil || mf.GetMetric()[0].GetGauge().GetValue() != 3 {
		t.Fatalf("unexpected sessions gauge %v", mf)
	}
}

func TestNilRegistererIsNoop(t *testing.T) {
	var jobs *JobMetrics
	jobs.IncSuccess("x")
	NewJobMetrics(nil).IncFailure("x")

	var orders *OrderMetrics
	orders.IncSubmission("CELL", OutcomeFailed)
	NewOrderMetrics(nil).IncAllocation(AllocationFresh)
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
