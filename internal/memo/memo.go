package memo

import (
	"context"
	"strings"
)

// defaultBucketCnt/defaultCapPerBucket size the local memoizer generously
// for a single trace replay; these are not exposed as flags since the
// memo is purely an internal speed optimization (SPEC_FULL.md §11.1).
const (
	defaultBucketCnt    = 64
	defaultCapPerBucket = 4096
)

// New builds the memoizer named by the --memo flag: empty disables
// memoization, "local" uses an in-process cache, and a comma-separated
// list of "host:port" Redis endpoints builds a Distributed memoizer. The
// returned closer is a no-op for NoMemo/local.
func New(ctx context.Context, spec string) (m Memoizer, closer func() error) {
	switch {
	case spec == "":
		return NoMemo, func() error { return nil }
	case spec == "local":
		return NewLocal(defaultBucketCnt, defaultCapPerBucket), func() error { return nil }
	default:
		d := NewDistributed(ctx, strings.Split(spec, ","))
		return d, d.Close
	}
}
