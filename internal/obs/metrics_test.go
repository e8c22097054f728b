package obs

import "testing"

func TestMockMetrics_RecordsCountsAndHists(t *testing.T) {
	m := NewMockMetrics()
	m.IncCounter("plan_requests_total", map[string]string{"status": "ok"})
	m.IncCounter("plan_requests_total", map[string]string{"status": "ok"})
	m.ObserveHistogram("plan_duration_ms", 12, map[string]string{"stage": "retrieve"})
	m.ObserveHistogram("plan_duration_ms", 34, map[string]string{"stage": "cluster"})
	if m.Counters["plan_requests_total"] != 2 {
		t.Fatalf("expected 2 plan requests, got %d", m.Counters["plan_requests_total"])
	}
	if len(m.Hists["plan_duration_ms"]) != 2 {
		t.Fatalf("expected 2 histogram records, got %d", len(m.Hists["plan_duration_ms"]))
	}
}
