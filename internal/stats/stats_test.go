package stats

import (
	"testing"
	"time"
)

func TestRenderSnapshotPercentiles(t *testing.T) {
	stats := New(100, time.Hour)
	for i, ms := range []int64{100, 200, 300, 400, 500} {
		stats.Record(time.Duration(ms)*time.Millisecond, 10+i)
	}

	snap := stats.Snapshot()
	if snap.Count != 5 || snap.Total != 5 {
		t.Fatalf("expected count=5 total=5, got %d %d", snap.Count, snap.Total)
	}
	if snap.MinMs != 100 || snap.MaxMs != 500 {
		t.Fatalf("expected min=100 max=500, got %d %d", snap.MinMs, snap.MaxMs)
	}
	if snap.AvgMs != 300 {
		t.Fatalf("expected avg=300, got %f", snap.AvgMs)
	}
	if snap.P50Ms != 300 {
		t.Fatalf("expected p50=300, got %f", snap.P50Ms)
	}
	if snap.P95Ms != 480 {
		t.Fatalf("expected p95=480, got %f", snap.P95Ms)
	}
	if snap.P99Ms != 496 {
		t.Fatalf("expected p99=496, got %f", snap.P99Ms)
	}
	if snap.AvgSlides != 12 {
		t.Fatalf("expected avg slides=12, got %f", snap.AvgSlides)
	}
}

func TestRenderWindowKeepsNewest(t *testing.T) {
	stats := New(3, time.Hour)
	for _, ms := range []int64{900, 10, 20, 30} {
		stats.Record(time.Duration(ms)*time.Millisecond, 1)
	}
	snap := stats.Snapshot()
	if snap.Count != 3 {
		t.Fatalf("expected count=3, got %d", snap.Count)
	}
	if snap.MaxMs != 30 {
		t.Fatalf("expected oldest sample dropped, got max=%d", snap.MaxMs)
	}
	if snap.Total != 4 {
		t.Fatalf("expected lifetime total=4, got %d", snap.Total)
	}
}

func TestRenderPrunesExpiredSamples(t *testing.T) {
	stats := New(10, 10*time.Millisecond)
	stats.Record(100*time.Millisecond, 1)
	time.Sleep(25 * time.Millisecond)

	snap := stats.Snapshot()
	if snap.Count != 0 {
		t.Fatalf("expected count=0 after prune, got %d", snap.Count)
	}
	if snap.Total != 1 {
		t.Fatalf("expected lifetime total to survive prune, got %d", snap.Total)
	}
}

func TestRenderFailuresAndClamp(t *testing.T) {
	stats := New(10, time.Hour)
	stats.Fail()
	stats.Record(-time.Second, 0)

	snap := stats.Snapshot()
	if snap.Failures != 1 || snap.Total != 2 {
		t.Fatalf("expected failures=1 total=2, got %d %d", snap.Failures, snap.Total)
	}
	if snap.MinMs != 0 {
		t.Fatalf("expected clamped duration=0, got %d", snap.MinMs)
	}
}
