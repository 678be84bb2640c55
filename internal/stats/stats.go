// Package stats accumulates and reports the per-level fetch/miss
// statistics of spec.md §4.6, grounded in
// original_source/cachesim.c's fullcount/print_count/print_fraction/
// print_stats and its STAT_HEADER column layout.
package stats

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cachesim/cachesim/internal/access"
	"github.com/cachesim/cachesim/internal/hierarchy"
	"github.com/cachesim/cachesim/internal/ttywidth"
)

// header is the exact column layout spec.md §6 requires:
// "Metrics     Total       Instruction Data        Read        Write".
const header = "Metrics     Total       Instruction Data        Read        Write\n" +
	"----------- ----------- ----------- ----------- ----------- -----------\n"

// fullCounts expands the three raw per-mode counters into the five
// reporting categories {Total, Instruction, Data, Read, Write}. Total is
// Read+Write+Instruction, not Read+Write+Instruction+Data, since
// Data == Read+Write (spec.md §4.6).
func fullCounts(c [3]uint64) [5]uint64 {
	var f [5]uint64
	f[1] = c[access.InstFetch]
	f[3] = c[access.DataRead]
	f[4] = c[access.DataWrite]
	f[2] = f[3] + f[4]
	f[0] = f[2] + f[1]
	return f
}

func printCounts(w io.Writer, title string, c [5]uint64) {
	fmt.Fprintf(w, "%-11s %11d %11d %11d %11d %11d\n", title, c[0], c[1], c[2], c[3], c[4])
}

// printFractions divides n by d category-wise, except for the "fraction
// of total fetches" row (n == d) where every category divides by the
// Total column instead of its own.
func printFractions(w io.Writer, title string, n, d [5]uint64) {
	sameSlice := n == d
	var f [5]float64
	for i := range f {
		denom := d[i]
		if sameSlice {
			denom = d[0]
		}
		if denom != 0 {
			f[i] = float64(n[i]) / float64(denom)
		}
	}
	fmt.Fprintf(w, "%-11s %11f %11f %11f %11f %11f\n", title, f[0], f[1], f[2], f[3], f[4])
}

// ttyRule returns a rule line sized to w's detected terminal width, or ""
// when w isn't a terminal (redirected to a file or pipe keeps the exact
// fixed-width STAT_HEADER layout scriptable, per SPEC_FULL.md §11.2).
func ttyRule(w io.Writer) string {
	f, ok := w.(*os.File)
	if !ok || !ttywidth.IsTerminal(f) {
		return ""
	}
	return strings.Repeat("=", ttywidth.Of(f)) + "\n"
}

// Report writes the full multi-level report: one table per cache level,
// then DRAM, then total/average time, matching print_stats.
func Report(w io.Writer, h *hierarchy.Hierarchy, dramAccessTime uint32, totalEvents uint64) {
	var totalTime float64
	rule := ttyRule(w)

	for _, p := range h.Levels[:len(h.Levels)-1] {
		fetches := fullCounts(p.FetchCount)
		misses := fullCounts(p.MissCount)
		levelTime := float64(fetches[1])*float64(p.I.HitTime) + float64(fetches[2])*float64(p.D.HitTime)
		totalTime += levelTime

		fmt.Fprint(w, rule)
		fmt.Fprintf(w, "L%d cache\n%s", p.N, header)
		printCounts(w, "fetches", fetches)
		printFractions(w, " fraction", fetches, fetches)
		printCounts(w, "misses", misses)
		printFractions(w, " miss rate", misses, fetches)
		fmt.Fprintf(w, "Total time spent on L%d: %.0f\n\n", p.N, levelTime)
	}

	dram := h.Levels[len(h.Levels)-1]
	fetches := fullCounts(dram.FetchCount)
	dramTime := float64(fetches[0]) * float64(dramAccessTime)
	totalTime += dramTime

	fmt.Fprint(w, rule)
	fmt.Fprintf(w, "DRAM\n%s", header)
	printCounts(w, "fetches", fetches)
	printFractions(w, " fraction", fetches, fetches)
	fmt.Fprintf(w, "Total time spent on DRAM: %.0f\n\n", dramTime)

	avg := 0.0
	if totalEvents != 0 {
		avg = totalTime / float64(totalEvents)
	}
	fmt.Fprintf(w, "Total time: %.0f, average time per instruction: %g\n", totalTime, avg)
}
