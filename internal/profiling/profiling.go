// Package profiling records CPU time per named section of a frame.
//
//	defer profiling.Track("shadow.Render")()
//
// The loop calls ResetFrame when a frame starts and EndFrame when it ends;
// finished frames go into a short history for averages.
package profiling

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// HistoryFrames is the number of finished frames kept for averages.
const HistoryFrames = 120

var (
	mu          sync.Mutex
	frameTotals = make(map[string]time.Duration)

	history [HistoryFrames]map[string]time.Duration
	next    int
	filled  int
)

// Track returns a stop function that adds the elapsed time to name.
func Track(name string) func() {
	start := time.Now()
	return func() {
		d := time.Since(start)
		mu.Lock()
		frameTotals[name] += d
		mu.Unlock()
	}
}

// ResetFrame clears the totals of the current frame.
func ResetFrame() {
	mu.Lock()
	clear(frameTotals)
	mu.Unlock()
}

// EndFrame moves the current totals into the history and starts a new frame.
func EndFrame() {
	mu.Lock()
	defer mu.Unlock()
	history[next] = frameTotals
	frameTotals = make(map[string]time.Duration, len(frameTotals))
	next = (next + 1) % HistoryFrames
	filled = min(filled+1, HistoryFrames)
}

// ResetHistory drops every finished frame.
func ResetHistory() {
	mu.Lock()
	defer mu.Unlock()
	history = [HistoryFrames]map[string]time.Duration{}
	next, filled = 0, 0
}

// Snapshot returns a copy of the current frame totals.
func Snapshot() map[string]time.Duration {
	mu.Lock()
	defer mu.Unlock()
	out := make(map[string]time.Duration, len(frameTotals))
	for k, v := range frameTotals {
		out[k] = v
	}
	return out
}

// Average returns the mean time of name over the finished frames in the
// history, counting frames where it did not run as zero.
func Average(name string) time.Duration {
	mu.Lock()
	defer mu.Unlock()
	if filled == 0 {
		return 0
	}
	var total time.Duration
	for i := 0; i < filled; i++ {
		total += history[i][name]
	}
	return total / time.Duration(filled)
}

// SumWithPrefix adds up every current entry whose name starts with prefix,
// e.g. "pass." for all render passes.
func SumWithPrefix(prefix string) time.Duration {
	mu.Lock()
	defer mu.Unlock()
	var total time.Duration
	for k, v := range frameTotals {
		if strings.HasPrefix(k, prefix) {
			total += v
		}
	}
	return total
}

type entry struct {
	name string
	dur  time.Duration
}

func top(n int) []entry {
	ss := Snapshot()
	list := make([]entry, 0, len(ss))
	for k, v := range ss {
		list = append(list, entry{name: k, dur: v})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].dur == list[j].dur {
			return list[i].name < list[j].name
		}
		return list[i].dur > list[j].dur
	})
	return list[:min(max(n, 0), len(list))]
}

// TopN formats the n slowest entries of the current frame, e.g.
// "renderer.Render:4.2ms, shadow.Render:2.1ms".
func TopN(n int) string {
	entries := top(n)
	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = e.name + ":" + formatMs(e.dur)
	}
	return strings.Join(parts, ", ")
}

// Fields returns the n slowest entries of the current frame as log fields,
// slowest first.
func Fields(n int) []zap.Field {
	entries := top(n)
	fields := make([]zap.Field, len(entries))
	for i, e := range entries {
		fields[i] = zap.Duration(e.name, e.dur)
	}
	return fields
}

// formatMs keeps one decimal and drops a trailing ".0".
func formatMs(d time.Duration) string {
	s := fmt.Sprintf("%.1f", float64(d.Microseconds())/1000)
	return strings.TrimSuffix(s, ".0") + "ms"
}
