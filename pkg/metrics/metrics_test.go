package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("reading counter: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestObserve(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry())

	m.ObservePost("train", 6)
	m.ObservePost("train", 9)
	m.ObservePost("skipped", 0)
	m.ObserveRecord("train", "file")
	m.ObserveCacheLookup("author-genders", "hit")
	m.ObserveSubmission("male")

	if got := counterValue(t, m.PostsTotal.WithLabelValues("train")); got != 2 {
		t.Errorf("posts{train} = %v, want 2", got)
	}
	if got := counterValue(t, m.PostsTotal.WithLabelValues("skipped")); got != 1 {
		t.Errorf("posts{skipped} = %v, want 1", got)
	}
	if got := counterValue(t, m.RecordsWritten.WithLabelValues("train", "file")); got != 1 {
		t.Errorf("records{train,file} = %v, want 1", got)
	}
	if got := counterValue(t, m.CacheLookupsTotal.WithLabelValues("author-genders", "hit")); got != 1 {
		t.Errorf("cache lookups = %v, want 1", got)
	}
	if got := counterValue(t, m.SubmissionRecords.WithLabelValues("male")); got != 1 {
		t.Errorf("submission{male} = %v, want 1", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObservePost("train", 3)
	m.ObserveRecord("test", "kafka")
	m.ObserveCacheLookup("x", "miss")
	m.ObserveRunDuration(1.5)
	m.ObserveSubmission("female")
}
