package perf

import (
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// sampleCount returns the total observations in the named histogram family.
func sampleCount(t *testing.T, reg *prometheus.Registry, name string) uint64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	var total uint64
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			total += m.GetHistogram().GetSampleCount()
		}
	}
	return total
}

// counterValue sums the named counter family.
func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	var total float64
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

// TestCollector_Record verifies requests and queries land in separate histograms.
func TestCollector_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.Record(Entry{Kind: KindRequest, Method: "GET", Path: "/api/waivers", StatusCode: 200, Duration: 10 * time.Millisecond})
	c.Record(Entry{Kind: KindRequest, Method: "GET", Path: "/api/waivers", StatusCode: 200, Duration: 30 * time.Millisecond})
	c.Record(Entry{Kind: KindQuery, Path: "ExecContext", Duration: 5 * time.Millisecond})

	if c.TotalRecorded() != 3 {
		t.Errorf("TotalRecorded = %d, want 3", c.TotalRecorded())
	}
	if got := sampleCount(t, reg, "rollcall_http_request_duration_seconds"); got != 2 {
		t.Errorf("request samples = %d, want 2", got)
	}
	if got := sampleCount(t, reg, "rollcall_sql_query_duration_seconds"); got != 1 {
		t.Errorf("query samples = %d, want 1", got)
	}
}

// TestCollector_WaiverCounters verifies the workflow counters.
func TestCollector_WaiverCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.WaiverSubmitted("created")
	c.WaiverSubmitted("rejected")
	c.WaiverDecided("approve", "ok")

	if got := counterValue(t, reg, "rollcall_waiver_submissions_total"); got != 2 {
		t.Errorf("submissions = %v, want 2", got)
	}
	if got := counterValue(t, reg, "rollcall_waiver_decisions_total"); got != 1 {
		t.Errorf("decisions = %v, want 1", got)
	}
}

// TestCollector_Nil verifies a nil collector is a no-op.
func TestCollector_Nil(t *testing.T) {
	var c *Collector
	c.Record(Entry{Kind: KindQuery, Path: "QueryContext"})
	c.WaiverSubmitted("created")
	c.WaiverDecided("deny", "ok")
	if c.TotalRecorded() != 0 {
		t.Error("nil collector should report zero")
	}
}

// TestCollector_ConcurrentRecord verifies Record is safe under concurrency.
func TestCollector_ConcurrentRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				c.Record(Entry{Kind: KindQuery, Path: "QueryRowContext", Duration: time.Millisecond})
			}
		}()
	}
	wg.Wait()

	if c.TotalRecorded() != 1000 {
		t.Errorf("TotalRecorded = %d, want 1000", c.TotalRecorded())
	}
}
