// Package config parses the CLI flags and optional HuJSON config file of
// spec.md §6 / SPEC_FULL.md §13.1 into validated per-level cache specs,
// and builds the resulting internal/hierarchy.Hierarchy. Grounded on
// original_source/cachesim.c's parse_args/make_cache/removegaps, and on
// calvinalkan-agent-task/config.go for the HuJSON-then-JSON config-file
// pattern.
package config

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"regexp"
	"strconv"

	"github.com/cachesim/cachesim/internal/cacheline"
	"github.com/cachesim/cachesim/internal/cachelevel"
	"github.com/cachesim/cachesim/internal/cfgerr"
	"github.com/cachesim/cachesim/internal/hierarchy"
	"github.com/spf13/pflag"
	"github.com/tailscale/hujson"
)

// MaxLevel is the original's hardcoded MAXLEVEL: this simulator models at
// most two cache levels before DRAM (SPEC_FULL.md §12).
const MaxLevel = 2

// LevelSpec is one parsed "<A>,<B>,<C>,<T>,<flags>" cachespec.
type LevelSpec struct {
	Assoc     uint32
	BlockSize uint32
	Capacity  uint32
	HitTime   uint32
	Flags     uint32
}

// levelEntry accumulates the I/D assignment for one level number while
// parsing, mirroring struct cache_pair.
type levelEntry struct {
	n        int
	i, d     *LevelSpec
	unified  bool
	assigned byte // bit 0 = I assigned, bit 1 = D assigned
}

// Options is the fully parsed, not-yet-validated configuration.
type Options struct {
	Levels    [MaxLevel]*levelEntry
	DRAMTime  uint32
	TraceFile string

	Help     bool
	Debug    bool
	DebugLog string
	Seed     int64

	ConfigFile string
	MemoAddrs  string
	OutPath    string
}

// jsonConfig is the --config file shape (SPEC_FULL.md §10.2): the same
// level geometry as the CLI, expressed as JSON/HuJSON instead of flags.
type jsonConfig struct {
	DRAMTime *uint32          `json:"dram_access_time"`
	Levels   []jsonLevelEntry `json:"levels"`
}

type jsonLevelEntry struct {
	N         int    `json:"n"`
	Type      string `json:"type"` // "unified", "instruction", "data"
	Assoc     uint32 `json:"assoc"`
	BlockSize uint32 `json:"block_size"`
	Capacity  uint32 `json:"capacity"`
	HitTime   uint32 `json:"hit_time"`
	Flags     uint32 `json:"flags"`
}

var levelSpecRE = regexp.MustCompile(`^-([LID])(\d+),(\d+),(\d+),(\d+),(\d+),([0-7]+)$`)
var dramTimeRE = regexp.MustCompile(`^-T,(\d+)$`)

// Parse reads args (normally os.Args[1:]) into Options. Level-spec and
// "-T,<T>" tokens are set aside before pflag runs, because
// "-L1,4,16,1024,1,01" glues its discriminator, level number, and value
// together in a shape neither stdlib flag nor pflag can register; pflag
// handles the remaining flags, rejecting unknown ones, and the set-aside
// tokens plus pflag's positional leftovers go to the hand-rolled
// level-spec tokenizer (SPEC_FULL.md §13.1).
func Parse(args []string) (*Options, error) {
	opts := &Options{}

	var specArgs, flagArgs []string
	for _, arg := range args {
		switch {
		case levelSpecRE.MatchString(arg) || dramTimeRE.MatchString(arg):
			specArgs = append(specArgs, arg)
		case arg == "-help":
			flagArgs = append(flagArgs, "--help")
		default:
			flagArgs = append(flagArgs, arg)
		}
	}

	fs := pflag.NewFlagSet("cachesim", pflag.ContinueOnError)
	fs.BoolVarP(&opts.Help, "help", "h", false, "print usage and exit")
	fs.BoolVarP(&opts.Debug, "debug", "v", false, "enable debug logging")
	fs.StringVar(&opts.DebugLog, "debug-log", "", "write debug logs to this rotated file instead of stderr")
	fs.Int64Var(&opts.Seed, "seed", 1, "seed for the RND replacement policy's random source")
	fs.StringVar(&opts.ConfigFile, "config", "", "HuJSON file describing cache levels")
	fs.StringVar(&opts.MemoAddrs, "memo", "", "\"local\", or comma-separated host:port Redis endpoints for the distributed trace memo")
	fs.StringVar(&opts.OutPath, "out", "", "write the report to this file instead of stdout")

	if err := fs.Parse(flagArgs); err != nil {
		return nil, fmt.Errorf("%w: %v", cfgerr.ErrUnknownOption, err)
	}
	if opts.Help {
		return opts, nil
	}

	if opts.ConfigFile != "" {
		if err := applyConfigFile(opts, opts.ConfigFile); err != nil {
			return nil, err
		}
	}

	fromConfig := opts.Levels
	for _, arg := range append(specArgs, fs.Args()...) {
		if m := dramTimeRE.FindStringSubmatch(arg); m != nil {
			t, _ := strconv.ParseUint(m[1], 10, 32)
			opts.DRAMTime = uint32(t)
			continue
		}
		if m := levelSpecRE.FindStringSubmatch(arg); m != nil {
			// The first CLI spec for a level replaces what the config file set for it.
			if n, _ := strconv.Atoi(m[2]); n >= 1 && n <= MaxLevel && opts.Levels[n-1] == fromConfig[n-1] {
				opts.Levels[n-1] = nil
			}
			if err := applyLevelSpec(opts, m); err != nil {
				return nil, err
			}
			continue
		}
		if arg == "-" || (len(arg) > 0 && arg[0] != '-') {
			opts.TraceFile = arg
			continue
		}
		return nil, fmt.Errorf("%w: %s", cfgerr.ErrUnknownOption, arg)
	}

	return opts, nil
}

// applyLevelSpec parses one "-L1,4,16,1024,1,01"-shaped token (already
// matched by levelSpecRE) and records it, exactly as make_cache assigns
// into L[n-1].i/.d with the same "cannot specify twice" conflict check.
func applyLevelSpec(opts *Options, m []string) error {
	typ := m[1]
	n, _ := strconv.Atoi(m[2])
	if n <= 0 || n > MaxLevel {
		return fmt.Errorf("%w: L%d", cfgerr.ErrBadLevelNumber, n)
	}
	assoc, _ := strconv.ParseUint(m[3], 10, 32)
	blk, _ := strconv.ParseUint(m[4], 10, 32)
	cap_, _ := strconv.ParseUint(m[5], 10, 32)
	hit, _ := strconv.ParseUint(m[6], 10, 32)
	flags, _ := strconv.ParseUint(m[7], 8, 32)

	spec := &LevelSpec{
		Assoc: uint32(assoc), BlockSize: uint32(blk), Capacity: uint32(cap_),
		HitTime: uint32(hit), Flags: uint32(flags),
	}

	e := opts.Levels[n-1]
	if e == nil {
		e = &levelEntry{n: n}
		opts.Levels[n-1] = e
	}

	assign := byte(3)
	if typ == "I" {
		assign = 1
	} else if typ == "D" {
		assign = 2
	}
	conflict := assign & e.assigned
	if conflict != 0 {
		return fmt.Errorf("%w: L%d", cfgerr.ErrDuplicateLevel, n)
	}
	if assign&1 != 0 {
		e.i = spec
	}
	if assign&2 != 0 {
		e.d = spec
	}
	e.unified = typ == "L"
	e.assigned |= assign
	return nil
}

// applyConfigFile merges a HuJSON config into opts. CLI flags parsed
// afterward in Parse take precedence over anything set here: Parse's
// level-spec loop discards a config-file level before applying the first
// CLI spec for that level, and a CLI -T,<T> overwrites the DRAM time.
func applyConfigFile(opts *Options, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %v", cfgerr.ErrTraceFileNotOpenable, err)
	}
	std, err := hujson.Standardize(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", cfgerr.ErrBadGeometry, err)
	}
	var jc jsonConfig
	if err := json.Unmarshal(std, &jc); err != nil {
		return fmt.Errorf("%w: %v", cfgerr.ErrBadGeometry, err)
	}
	if jc.DRAMTime != nil {
		opts.DRAMTime = *jc.DRAMTime
	}
	for _, jl := range jc.Levels {
		typ := "L"
		switch jl.Type {
		case "instruction":
			typ = "I"
		case "data":
			typ = "D"
		}
		m := []string{"", typ, strconv.Itoa(jl.N),
			strconv.FormatUint(uint64(jl.Assoc), 10),
			strconv.FormatUint(uint64(jl.BlockSize), 10),
			strconv.FormatUint(uint64(jl.Capacity), 10),
			strconv.FormatUint(uint64(jl.HitTime), 10),
			strconv.FormatUint(uint64(jl.Flags), 8)}
		if err := applyLevelSpec(opts, m); err != nil {
			return err
		}
	}
	return nil
}

// Validate compacts opts.Levels into a contiguous L[1..k] sequence,
// rejecting gaps and half-specified splits (removegaps).
func Validate(opts *Options) ([]*levelEntry, error) {
	var entries []*levelEntry
	for _, e := range opts.Levels {
		if e == nil {
			continue
		}
		switch e.assigned {
		case 3:
			entries = append(entries, e)
		case 1:
			return nil, fmt.Errorf("%w: L%d missing its data side", cfgerr.ErrMissingSplitSide, e.n)
		case 2:
			return nil, fmt.Errorf("%w: L%d missing its instruction side", cfgerr.ErrMissingSplitSide, e.n)
		}
	}
	for i, e := range entries {
		if e.n != i+1 {
			return nil, fmt.Errorf("%w: expected L%d, found L%d", cfgerr.ErrLevelGap, i+1, e.n)
		}
	}
	if len(entries) == 0 {
		return nil, cfgerr.ErrNoInputSpecified
	}
	return entries, nil
}

// BuildHierarchy validates opts and constructs the Hierarchy spec.md §4.4
// describes: one LevelPair per validated entry, terminated by the DRAM
// sentinel.
func BuildHierarchy(opts *Options) (*hierarchy.Hierarchy, error) {
	entries, err := Validate(opts)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	h := &hierarchy.Hierarchy{Levels: make([]*hierarchy.LevelPair, 0, len(entries)+1)}

	for _, e := range entries {
		iLevel, err := newLevel(e.i, rng)
		if err != nil {
			return nil, fmt.Errorf("%w: L%d instruction side: %v", cfgerr.ErrBadGeometry, e.n, err)
		}
		dLevel := iLevel
		if !e.unified {
			dLevel, err = newLevel(e.d, rng)
			if err != nil {
				return nil, fmt.Errorf("%w: L%d data side: %v", cfgerr.ErrBadGeometry, e.n, err)
			}
		}
		h.Levels = append(h.Levels, &hierarchy.LevelPair{N: e.n, I: iLevel, D: dLevel})
	}
	h.Levels = append(h.Levels, &hierarchy.LevelPair{N: 0}) // DRAM sentinel

	return h, nil
}

func newLevel(spec *LevelSpec, rng *rand.Rand) (*cachelevel.Level, error) {
	policy, err := cacheline.ParsePolicy(spec.Flags)
	if err != nil {
		return nil, err
	}
	cfg := cachelevel.Config{
		Assoc: spec.Assoc, BlockSize: spec.BlockSize, Capacity: spec.Capacity,
		HitTime: spec.HitTime, WriteAlloc: cacheline.WriteAllocate(spec.Flags), Policy: policy,
	}
	var levelRNG *rand.Rand
	if policy == cacheline.RND {
		levelRNG = rng
	}
	return cachelevel.New(cfg, levelRNG)
}
