// Package simerr implements the "internal invariant violation" error
// class of spec.md §7: hash holds an invalid line, a line missing from
// the hash, an unknown policy reached at runtime. These cannot arise
// from valid input; Assert panics rather than returning an error,
// mirroring the original's assert() calls in hash_find/hash_del/
// cache_access.
package simerr

import "fmt"

// Assert panics with a formatted message if cond is false. Reserved for
// conditions the spec guarantees can never be false given valid input
// and a correct implementation.
func Assert(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf("internal invariant violation: "+format, args...))
	}
}
