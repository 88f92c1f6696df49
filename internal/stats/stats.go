// Package stats keeps rolling latency percentiles for slide renders.
package stats

import (
	"sort"
	"sync"
	"time"
)

type sample struct {
	timestamp  time.Time
	durationMs int64
	slides     int
}

// Snapshot is a point-in-time aggregate of render samples.
type Snapshot struct {
	Count     int     `json:"count"`
	Total     int64   `json:"total"`
	Failures  int64   `json:"failures"`
	AvgSlides float64 `json:"avg_slides"`
	MinMs     int64   `json:"min_ms"`
	MaxMs     int64   `json:"max_ms"`
	AvgMs     float64 `json:"avg_ms"`
	P50Ms     float64 `json:"p50_ms"`
	P95Ms     float64 `json:"p95_ms"`
	P99Ms     float64 `json:"p99_ms"`
}

// Render tracks recent render latencies within a rolling window bounded by
// both sample count and age. Lifetime totals are kept separately.
type Render struct {
	mu         sync.Mutex
	samples    []sample
	maxSamples int
	maxAge     time.Duration

	total    int64
	failures int64
}

func New(maxSamples int, maxAge time.Duration) *Render {
	if maxSamples <= 0 {
		maxSamples = 1000
	}
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &Render{
		samples:    make([]sample, 0, 256),
		maxSamples: maxSamples,
		maxAge:     maxAge,
	}
}

// Record adds one successful render.
func (s *Render) Record(d time.Duration, slides int) {
	ms := d.Milliseconds()
	if ms < 0 {
		ms = 0
	}
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.total++
	s.pruneLocked(now)
	s.samples = append(s.samples, sample{
		timestamp:  now,
		durationMs: ms,
		slides:     slides,
	})
	if over := len(s.samples) - s.maxSamples; over > 0 {
		s.samples = append(s.samples[:0], s.samples[over:]...)
	}
}

// Fail counts a render that did not produce a deck.
func (s *Render) Fail() {
	s.mu.Lock()
	s.total++
	s.failures++
	s.mu.Unlock()
}

func (s *Render) Snapshot() Snapshot {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(now)
	snap := Snapshot{Total: s.total, Failures: s.failures}
	if len(s.samples) == 0 {
		return snap
	}

	values := make([]int64, 0, len(s.samples))
	var sum int64
	var slides int
	for _, sm := range s.samples {
		values = append(values, sm.durationMs)
		sum += sm.durationMs
		slides += sm.slides
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })

	snap.Count = len(values)
	snap.AvgSlides = float64(slides) / float64(len(values))
	snap.MinMs = values[0]
	snap.MaxMs = values[len(values)-1]
	snap.AvgMs = float64(sum) / float64(len(values))
	snap.P50Ms = percentile(values, 50)
	snap.P95Ms = percentile(values, 95)
	snap.P99Ms = percentile(values, 99)
	return snap
}

func (s *Render) pruneLocked(now time.Time) {
	cutoff := now.Add(-s.maxAge)
	writeIdx := 0
	for _, sm := range s.samples {
		if !sm.timestamp.Before(cutoff) {
			s.samples[writeIdx] = sm
			writeIdx++
		}
	}
	s.samples = s.samples[:writeIdx]
}

// percentile interpolates linearly between the two nearest ranks.
func percentile(sortedValues []int64, pct float64) float64 {
	if len(sortedValues) == 0 {
		return 0
	}
	if pct <= 0 {
		return float64(sortedValues[0])
	}
	if pct >= 100 {
		return float64(sortedValues[len(sortedValues)-1])
	}

	index := (float64(len(sortedValues)-1) * pct) / 100.0
	lower := int(index)
	upper := lower + 1
	if upper >= len(sortedValues) {
		return float64(sortedValues[lower])
	}
	weight := index - float64(lower)
	lo := float64(sortedValues[lower])
	hi := float64(sortedValues[upper])
	return lo + ((hi - lo) * weight)
}
