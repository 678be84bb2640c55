// Package hierarchy implements the inter-level propagation protocol of
// spec.md §4.4: the ordered L[0..k], DRAM driver, pair_access,
// pair_access_block, write-allocate + writeback propagation, and
// block-size expansion across levels. Grounded in
// original_source/cachesim.c's cache_pair_access/cache_pair_access_block/
// cache_pair_flush.
package hierarchy

import (
	"github.com/cachesim/cachesim/internal/access"
	"github.com/cachesim/cachesim/internal/cachelevel"
)

// LevelPair is one hierarchy entry: a level index, its instruction and
// data caches (identical pointers for a unified level), and its
// per-mode fetch/miss counters. A DRAM sentinel has I == D == nil and
// terminates the recursion (spec.md §4.4 step 2, §9 "Hierarchy as a
// sequence with a sentinel").
type LevelPair struct {
	N int
	I *cachelevel.Level
	D *cachelevel.Level

	FetchCount [3]uint64
	MissCount  [3]uint64
}

// dram reports whether this entry is the terminal DRAM sentinel.
func (p *LevelPair) dram() bool { return p.I == nil }

// cacheFor selects the I or D side for mode (spec.md §4.4 step 3).
func (p *LevelPair) cacheFor(mode access.Mode) *cachelevel.Level {
	if mode == access.InstFetch {
		return p.I
	}
	return p.D
}

// Hierarchy is the ordered sequence L[0], L[1], ..., L[k], DRAM.
type Hierarchy struct {
	Levels []*LevelPair // Levels[len-1] is always the DRAM sentinel.
}

// OnAccess, when set, is called after every pair_access with enough
// detail to drive debug logging (internal/simlog); it is optional.
// outcome is nil for the DRAM sentinel, which has no hit/miss concept.
type OnAccess func(levelIdx int, addr uint64, mode access.Mode, outcome *cachelevel.Outcome)

// PairAccess implements spec.md §4.4's pair_access.
func (h *Hierarchy) PairAccess(levelIdx int, addr uint64, mode access.Mode, hook OnAccess) {
	p := h.Levels[levelIdx]
	p.FetchCount[mode]++

	if p.dram() {
		if hook != nil {
			hook(levelIdx, addr, mode, nil)
		}
		return
	}

	c := p.cacheFor(mode)
	outcome := c.Access(addr, mode == access.DataWrite)
	if hook != nil {
		hook(levelIdx, addr, mode, &outcome)
	}
	if outcome.Kind == cachelevel.Hit {
		return
	}

	p.MissCount[mode]++
	blockSize := uint64(c.BlockSize)
	blockStart := addr &^ (blockSize - 1)
	blockEnd := blockStart + blockSize

	refillMode := mode.RefillMode()
	h.PairAccessBlock(levelIdx+1, blockStart, blockEnd, refillMode, hook)

	if outcome.Kind == cachelevel.MissKick {
		h.PairAccessBlock(levelIdx+1, outcome.KickedAddr, outcome.KickedAddr+blockSize, access.DataWrite, hook)
	}
}

// PairAccessBlock implements spec.md §4.4's pair_access_block: it issues
// one PairAccess per block at the *next* level's block size, so a
// larger upper-level block expands into multiple lower-level accesses
// (spec.md §8 scenario 5).
func (h *Hierarchy) PairAccessBlock(levelIdx int, start, end uint64, mode access.Mode, hook OnAccess) {
	p := h.Levels[levelIdx]

	var nextBlockSize uint64
	if p.dram() {
		nextBlockSize = end - start
	} else {
		nextBlockSize = uint64(p.cacheFor(mode).BlockSize)
	}

	for addr := start; addr < end; addr += nextBlockSize {
		h.PairAccess(levelIdx, addr, mode, hook)
	}
}

// Flush walks levels L[0]..L[k] in order, flushing the I cache then
// (if distinct) the D cache of each into the next level
// (spec.md §4.5). Each flushed block is issued as a DataWrite access
// against the next level.
func (h *Hierarchy) Flush(hook OnAccess) error {
	for idx, p := range h.Levels {
		if p.dram() {
			break
		}
		if err := p.I.Flush(func(base uint64) error {
			h.PairAccessBlock(idx+1, base, base+uint64(p.I.BlockSize), access.DataWrite, hook)
			return nil
		}); err != nil {
			return err
		}
		if p.D != p.I {
			if err := p.D.Flush(func(base uint64) error {
				h.PairAccessBlock(idx+1, base, base+uint64(p.D.BlockSize), access.DataWrite, hook)
				return nil
			}); err != nil {
				return err
			}
		}
	}
	return nil
}
