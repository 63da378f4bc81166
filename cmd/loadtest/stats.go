package main

import (
	"fmt"
	"io"
	"math"
	"slices"
	"sync"
	"time"
)

// Stats accumulates request outcomes from concurrent workers.
type Stats struct {
	mu        sync.Mutex
	total     int
	errors    int
	cacheHits int
	latencies map[string][]time.Duration
	codes     map[int]int
}

func NewStats() *Stats {
	return &Stats{
		latencies: make(map[string][]time.Duration),
		codes:     make(map[int]int),
	}
}

// Record stores one request. status is 0 when the request never got a
// response.
func (s *Stats) Record(kind string, latency time.Duration, status int, cache string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total++
	if status < 200 || status >= 300 {
		s.errors++
	}
	if status == 0 {
		return
	}
	s.codes[status]++
	if cache == "hit" {
		s.cacheHits++
	}
	s.latencies[kind] = append(s.latencies[kind], latency)
}

// LatencySummary describes one kind of query.
type LatencySummary struct {
	Count              int
	Min, Avg, Max      time.Duration
	P50, P90, P95, P99 time.Duration
}

func summarize(latencies []time.Duration) LatencySummary {
	if len(latencies) == 0 {
		return LatencySummary{}
	}
	sorted := slices.Clone(latencies)
	slices.Sort(sorted)
	var sum time.Duration
	for _, l := range sorted {
		sum += l
	}
	return LatencySummary{
		Count: len(sorted),
		Min:   sorted[0],
		Avg:   sum / time.Duration(len(sorted)),
		Max:   sorted[len(sorted)-1],
		P50:   percentile(sorted, 50),
		P90:   percentile(sorted, 90),
		P95:   percentile(sorted, 95),
		P99:   percentile(sorted, 99),
	}
}

// percentile uses the nearest-rank method on an ascending slice.
func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	return sorted[max(0, min(idx, len(sorted)-1))]
}

// Report writes the results to w. It returns false when nothing completed.
func (s *Stats) Report(w io.Writer, elapsed time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	fmt.Fprintln(w, "=== Results ===")
	fmt.Fprintf(w, "Total requests:  %d\n", s.total)
	fmt.Fprintf(w, "Errors:          %d\n", s.errors)
	if s.total == 0 {
		fmt.Fprintln(w, "\nWARNING: no requests completed. Is the service running?")
		return false
	}
	fmt.Fprintf(w, "Error rate:      %.2f%%\n", float64(s.errors)/float64(s.total)*100)
	fmt.Fprintf(w, "Requests/sec:    %.2f\n", float64(s.total)/elapsed.Seconds())
	fmt.Fprintf(w, "Cache hits:      %d\n", s.cacheHits)

	kinds := make([]string, 0, len(s.latencies))
	for kind := range s.latencies {
		kinds = append(kinds, kind)
	}
	slices.Sort(kinds)
	for _, kind := range kinds {
		sum := summarize(s.latencies[kind])
		fmt.Fprintf(w, "\n=== %s latency (%d requests) ===\n", kind, sum.Count)
		fmt.Fprintf(w, "Min: %s  Avg: %s  Max: %s\n", sum.Min, sum.Avg, sum.Max)
		fmt.Fprintf(w, "P50: %s  P90: %s  P95: %s  P99: %s\n", sum.P50, sum.P90, sum.P95, sum.P99)
	}

	codes := make([]int, 0, len(s.codes))
	for code := range s.codes {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	fmt.Fprintln(w, "\n=== Status codes ===")
	for _, code := range codes {
		fmt.Fprintf(w, "  %d: %d\n", code, s.codes[code])
	}
	return true
}
