// Package stats provides traversal counters and timing for scan
// operations. It captures how much of the tree was visited, how much
// was pruned or degraded, and memory usage, to help judge the cost of
// a snapshot without inspecting the document itself.
package stats

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

// Stats holds metrics for a single scan invocation.
type Stats struct {
	ScanStart time.Time
	ScanEnd   time.Time

	// Counts of emitted entries by kind.
	Entries     int
	Files       int
	Directories int
	Cycles      int
	Unknown     int

	// Counts of paths that produced no entry.
	Excluded int
	Skipped  int

	// Degraded entries (permission, stat or enumeration failures).
	Errors int

	// Depth tracking.
	MaxDepthHits int
	DeepestLevel int

	// Memory stats (captured at end).
	HeapAlloc  uint64
	TotalAlloc uint64
	NumGC      uint32
}

// New creates a new Stats instance.
func New() *Stats {
	return &Stats{}
}

// Begin marks the start of a scan and resets all counters.
func (s *Stats) Begin() {
	*s = Stats{ScanStart: time.Now()}
}

// Finish marks the end of the scan and captures memory stats.
func (s *Stats) Finish() {
	s.ScanEnd = time.Now()
	s.captureMemoryStats()
}

// captureMemoryStats reads current memory statistics from runtime.
func (s *Stats) captureMemoryStats() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	s.HeapAlloc = m.HeapAlloc
	s.TotalAlloc = m.TotalAlloc
	s.NumGC = m.NumGC
}

// RecordEntry counts one emitted entry at the given depth.
func (s *Stats) RecordEntry(depth int) {
	s.Entries++
	if depth > s.DeepestLevel {
		s.DeepestLevel = depth
	}
}

// Duration returns the wall-clock time of the scan.
func (s *Stats) Duration() time.Duration {
	if s.ScanEnd.IsZero() {
		return 0
	}
	return s.ScanEnd.Sub(s.ScanStart)
}

// EntriesPerSecond returns the traversal throughput.
func (s *Stats) EntriesPerSecond() float64 {
	d := s.Duration()
	if d == 0 || s.Entries == 0 {
		return 0
	}
	return float64(s.Entries) / d.Seconds()
}

// FormatDuration formats a duration for display.
func FormatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm%.1fs", int(d.Minutes()), d.Seconds()-float64(int(d.Minutes())*60))
}

// FormatBytes formats bytes for human-readable display.
func FormatBytes(bytes uint64) string {
	const (
		kb = 1024
		mb = kb * 1024
		gb = mb * 1024
	)

	switch {
	case bytes >= gb:
		return fmt.Sprintf("%.1f GB", float64(bytes)/gb)
	case bytes >= mb:
		return fmt.Sprintf("%.1f MB", float64(bytes)/mb)
	case bytes >= kb:
		return fmt.Sprintf("%.1f KB", float64(bytes)/kb)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// String returns a formatted string representation of the stats.
func (s *Stats) String() string {
	var b strings.Builder

	b.WriteString("\n=== Scan Statistics ===\n\n")

	b.WriteString("Timing:\n")
	b.WriteString(fmt.Sprintf("  Duration:      %8s\n", FormatDuration(s.Duration())))
	b.WriteString(fmt.Sprintf("  Entries/sec:   %8.1f\n", s.EntriesPerSecond()))

	b.WriteString("\nTraversal:\n")
	b.WriteString(fmt.Sprintf("  Entries:         %5d\n", s.Entries))
	b.WriteString(fmt.Sprintf("  Files:           %5d\n", s.Files))
	b.WriteString(fmt.Sprintf("  Directories:     %5d\n", s.Directories))
	if s.Cycles > 0 {
		b.WriteString(fmt.Sprintf("  Cycles:          %5d\n", s.Cycles))
	}
	if s.Unknown > 0 {
		b.WriteString(fmt.Sprintf("  Unknown:         %5d\n", s.Unknown))
	}
	if s.Excluded > 0 {
		b.WriteString(fmt.Sprintf("  Excluded:        %5d\n", s.Excluded))
	}
	if s.Skipped > 0 {
		b.WriteString(fmt.Sprintf("  Skipped:         %5d\n", s.Skipped))
	}
	if s.Errors > 0 {
		b.WriteString(fmt.Sprintf("  Errors:          %5d\n", s.Errors))
	}
	b.WriteString(fmt.Sprintf("  Deepest level:   %5d\n", s.DeepestLevel))
	if s.MaxDepthHits > 0 {
		b.WriteString(fmt.Sprintf("  Depth cutoffs:   %5d\n", s.MaxDepthHits))
	}

	b.WriteString("\nMemory:\n")
	b.WriteString(fmt.Sprintf("  Heap in use:   %8s\n", FormatBytes(s.HeapAlloc)))
	b.WriteString(fmt.Sprintf("  Total alloc:   %8s\n", FormatBytes(s.TotalAlloc)))
	b.WriteString(fmt.Sprintf("  GC cycles:     %8d\n", s.NumGC))

	return b.String()
}

// ToJSON returns a map suitable for JSON serialization.
func (s *Stats) ToJSON() map[string]any {
	return map[string]any{
		"timing": map[string]any{
			"duration_ms":     s.Duration().Milliseconds(),
			"entries_per_sec": s.EntriesPerSecond(),
		},
		"traversal": map[string]any{
			"entries":       s.Entries,
			"files":         s.Files,
			"directories":   s.Directories,
			"cycles":        s.Cycles,
			"unknown":       s.Unknown,
			"excluded":      s.Excluded,
			"skipped":       s.Skipped,
			"errors":        s.Errors,
			"deepest_level": s.DeepestLevel,
			"depth_cutoffs": s.MaxDepthHits,
		},
		"memory": map[string]any{
			"heap_bytes":  s.HeapAlloc,
			"total_bytes": s.TotalAlloc,
			"gc_cycles":   s.NumGC,
		},
	}
}
