package hierarchy

import (
	"testing"

	"github.com/cachesim/cachesim/internal/access"
	"github.com/cachesim/cachesim/internal/cacheline"
	"github.com/cachesim/cachesim/internal/cachelevel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unifiedLevel(t *testing.T, n int, assoc, block, cap, hit uint32, writeAlloc bool) *LevelPair {
	t.Helper()
	l, err := cachelevel.New(cachelevel.Config{
		Assoc: assoc, BlockSize: block, Capacity: cap, HitTime: hit,
		WriteAlloc: writeAlloc, Policy: cacheline.LRU,
	}, nil)
	require.NoError(t, err)
	return &LevelPair{N: n, I: l, D: l}
}

func dramSentinel() *LevelPair { return &LevelPair{N: -1} }

// Counter consistency (spec.md §8 property 10): FetchCount[mode] at a
// level equals the number of PairAccess invocations at that level/mode.
func TestCounterConsistency(t *testing.T) {
	l1 := unifiedLevel(t, 1, 2, 4, 16, 1, true)
	h := &Hierarchy{Levels: []*LevelPair{l1, dramSentinel()}}

	h.PairAccess(0, 0x00, access.DataRead, nil)
	h.PairAccess(0, 0x00, access.DataRead, nil) // hit second time
	h.PairAccess(0, 0x10, access.InstFetch, nil)

	assert.Equal(t, uint64(2), l1.FetchCount[access.DataRead])
	assert.Equal(t, uint64(1), l1.FetchCount[access.InstFetch])
	assert.Equal(t, uint64(1), l1.MissCount[access.DataRead]) // only the first 0x00 missed
}

// Scenario 5 (spec.md §8): block-size expansion. L1 B=16, L2 B=4: an L1
// miss on 0x00 issues four L2 accesses at 0x00,0x04,0x08,0x0C.
func TestBlockExpansionWiderUpperLevel(t *testing.T) {
	l1 := unifiedLevel(t, 1, 1, 16, 16, 1, true) // single line, B=16
	l2 := unifiedLevel(t, 2, 1, 4, 4, 4, true)   // single line, B=4
	h := &Hierarchy{Levels: []*LevelPair{l1, l2, dramSentinel()}}

	var l2Addrs []uint64
	hook := func(levelIdx int, addr uint64, mode access.Mode, outcome *cachelevel.Outcome) {
		if levelIdx == 1 {
			l2Addrs = append(l2Addrs, addr)
		}
	}
	h.PairAccess(0, 0x00, access.DataRead, hook)

	assert.Equal(t, []uint64{0x00, 0x04, 0x08, 0x0C}, l2Addrs)
}

// Scenario 5 (spec.md §8), converse: L1 B=4, L2 B>=B1 issues one L2 access.
func TestBlockExpansionNarrowerUpperLevel(t *testing.T) {
	l1 := unifiedLevel(t, 1, 1, 4, 4, 1, true)
	l2 := unifiedLevel(t, 2, 1, 16, 16, 4, true)
	h := &Hierarchy{Levels: []*LevelPair{l1, l2, dramSentinel()}}

	var l2Count int
	hook := func(levelIdx int, addr uint64, mode access.Mode, outcome *cachelevel.Outcome) {
		if levelIdx == 1 {
			l2Count++
		}
	}
	h.PairAccess(0, 0x00, access.DataRead, hook)
	assert.Equal(t, 1, l2Count)
}

// Miss-kick propagation: a dirty eviction issues a refill followed by a
// writeback to the next level (spec.md §4.4 steps 6-7, "Ordering").
func TestMissKickPropagatesWritebackAfterRefill(t *testing.T) {
	l1 := unifiedLevel(t, 1, 2, 4, 16, 1, true)
	h := &Hierarchy{Levels: []*LevelPair{l1, dramSentinel()}}

	var dramModes []access.Mode
	hook := func(levelIdx int, addr uint64, mode access.Mode, outcome *cachelevel.Outcome) {
		if levelIdx == 1 {
			dramModes = append(dramModes, mode)
		}
	}

	h.PairAccess(0, 0x00, access.DataWrite, hook) // set0 line A dirty
	h.PairAccess(0, 0x08, access.DataWrite, hook) // set0 line B dirty, full
	dramModes = nil
	h.PairAccess(0, 0x10, access.DataWrite, hook) // evicts dirty tag0: refill (DataRead) then writeback (DataWrite)

	require.Len(t, dramModes, 2)
	assert.Equal(t, access.DataRead, dramModes[0])
	assert.Equal(t, access.DataWrite, dramModes[1])
}

func TestFlushWritesBackEveryDirtyLineThenDramAbsorbs(t *testing.T) {
	l1 := unifiedLevel(t, 1, 2, 4, 16, 1, true)
	h := &Hierarchy{Levels: []*LevelPair{l1, dramSentinel()}}

	h.PairAccess(0, 0x00, access.DataWrite, nil)
	h.PairAccess(0, 0x08, access.DataWrite, nil)

	var writebacks int
	hook := func(levelIdx int, addr uint64, mode access.Mode, outcome *cachelevel.Outcome) {
		if levelIdx == 1 {
			writebacks++
		}
	}
	require.NoError(t, h.Flush(hook))
	assert.Equal(t, 2, writebacks)

	// Idempotence: a second flush has nothing dirty left.
	writebacks = 0
	require.NoError(t, h.Flush(hook))
	assert.Equal(t, 0, writebacks)
}
