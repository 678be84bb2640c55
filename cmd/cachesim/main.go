// Command cachesim simulates a multi-level CPU cache hierarchy against a
// memory-reference trace and reports per-level fetch/miss statistics.
// Wiring grounded on original_source/cachesim.c's main()/parse_args(),
// restructured as a testable run(args, stdin, stdout, stderr) function in
// the style of calvinalkan-agent-task/cmd/tk/main.go.
package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cachesim/cachesim/internal/access"
	"github.com/cachesim/cachesim/internal/cachelevel"
	"github.com/cachesim/cachesim/internal/cfgerr"
	"github.com/cachesim/cachesim/internal/config"
	"github.com/cachesim/cachesim/internal/hierarchy"
	"github.com/cachesim/cachesim/internal/memo"
	"github.com/cachesim/cachesim/internal/report"
	"github.com/cachesim/cachesim/internal/simlog"
	"github.com/cachesim/cachesim/internal/stats"
	"github.com/cachesim/cachesim/internal/trace"
)

const usage = `CACHESIM
usage: cachesim [options] input_file

OPTIONS
-L<n>,<cachespec>     specify unified L<n> cache
-I<n>,<cachespec>     specify split L<n> instruction cache
-D<n>,<cachespec>     specify split L<n> data cache
-T,<T>                specify DRAM access time = <T>
--config <file>       HuJSON file describing cache levels
--memo <spec>         "local", or comma-separated host:port Redis endpoints
--out <file>          write the report to <file> instead of stdout
-v, --debug           enable debug logging
--debug-log <file>    write debug logs to this rotated file instead of stderr
--seed <n>            seed the RND replacement policy's random source

<cachespec>: <A>,<B>,<C>,<T>,<flags>
	A: associativity
	B: block size
	C: capacity
	T: hit time
	flags: sum of
		00	write-allocate OFF
		01	write-allocate ON
		00	replacement LRU
		10	replacement RND
		20	replacement FIFO
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts, err := config.Parse(args)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if opts.Help {
		fmt.Fprint(stdout, usage)
		return 0
	}

	logger, runID, err := simlog.New(simlog.Options{Debug: opts.Debug, LogFile: opts.DebugLog})
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer logger.Sync() //nolint:errcheck

	h, err := config.BuildHierarchy(opts)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	input, closeInput, err := openTrace(opts.TraceFile, stdin)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer closeInput() //nolint:errcheck

	ctx := context.Background()
	memoizer, closeMemo := memo.New(ctx, opts.MemoAddrs)
	defer closeMemo() //nolint:errcheck

	hook := func(levelIdx int, addr uint64, mode access.Mode, outcome *cachelevel.Outcome) {
		if outcome == nil {
			logger.Debugw("dram access", "addr", addr, "mode", mode.String())
			return
		}
		logger.Debugw("cache access", "level", levelIdx, "addr", addr,
			"mode", mode.String(), "outcome", outcomeString(outcome.Kind))
	}

	reader := trace.NewMemoReader(input, memoizer)
	var totalEvents uint64
	for {
		rec, ok := reader.Next()
		if !ok {
			break
		}
		h.PairAccess(0, rec.Addr, rec.Mode, hook)
		totalEvents++
	}

	if err := h.Flush(hook); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	if local, ok := memoizer.(*memo.Local); ok {
		hits, misses := local.Stats()
		logger.Debugw("trace memo summary", "hits", hits, "misses", misses)
	}

	var buf bytes.Buffer
	var out io.Writer = &buf
	if opts.OutPath == "" {
		out = stdout
	}
	stats.Report(out, h, opts.DRAMTime, totalEvents)
	if err := report.Write(stdout, opts.OutPath, &buf); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	if addr, ok := firstDistributedMemoAddr(opts.MemoAddrs); ok {
		totalMisses := totalMissCount(h)
		if err := memo.PublishRunSummary(addr, runID, totalEvents, totalMisses); err != nil {
			logger.Debugw("run summary publish failed", "addr", addr, "error", err)
		}
	}

	return 0
}

// firstDistributedMemoAddr reports the first Redis endpoint behind --memo,
// when --memo names a distributed memo (anything other than "" or "local").
func firstDistributedMemoAddr(spec string) (string, bool) {
	if spec == "" || spec == "local" {
		return "", false
	}
	addrs := strings.Split(spec, ",")
	return addrs[0], true
}

// totalMissCount sums every level's per-mode miss counters (the DRAM
// sentinel's MissCount is always zero, since hierarchy.PairAccess never
// increments it there).
func totalMissCount(h *hierarchy.Hierarchy) uint64 {
	var total uint64
	for _, p := range h.Levels {
		for _, c := range p.MissCount {
			total += c
		}
	}
	return total
}

// openTrace resolves the positional trace-file argument: "-" or absent
// means standard input (spec.md §6).
func openTrace(path string, stdin io.Reader) (io.Reader, func() error, error) {
	if path == "" || path == "-" {
		return stdin, func() error { return nil }, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", cfgerr.ErrTraceFileNotOpenable, err)
	}
	return f, f.Close, nil
}

func outcomeString(k cachelevel.OutcomeKind) string {
	switch k {
	case cachelevel.Hit:
		return "hit"
	case cachelevel.MissNoKick:
		return "miss"
	case cachelevel.MissKick:
		return "miss-kick"
	default:
		return "unknown"
	}
}
