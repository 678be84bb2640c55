package trace

import (
	"bufio"
	"errors"
	"io"

	"github.com/cachesim/cachesim/internal/memo"
)

var errMalformedLine = errors.New("trace: malformed line")

// MemoReader reads one record per line, decoding each line through a
// memo.Memoizer so repeated lines in a long trace skip re-parsing
// (SPEC_FULL.md §11.1). Unlike Reader, it works at line granularity
// rather than token granularity: only the first record on a line is
// read (further fields on that line are ignored), and a line that does
// not hold a whole record, including a blank line or a record wrapped
// across lines, ends the stream.
type MemoReader struct {
	scanner *bufio.Scanner
	memo    memo.Memoizer
	stopped bool
}

// NewMemoReader wraps r with a line scanner, decoding through m.
func NewMemoReader(r io.Reader, m memo.Memoizer) *MemoReader {
	s := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	s.Buffer(buf, 1024*1024)
	return &MemoReader{scanner: s, memo: m}
}

// Next mirrors Reader.Next's EOF/parse-error contract.
func (r *MemoReader) Next() (Record, bool) {
	if r.stopped {
		return Record{}, false
	}
	if !r.scanner.Scan() {
		r.stopped = true
		return Record{}, false
	}

	line := append([]byte(nil), r.scanner.Bytes()...)
	rec, err := r.memo.Decode(line, func(l []byte) (memo.Record, error) {
		dr, ok := DecodeLine(l)
		if !ok {
			return memo.Record{}, errMalformedLine
		}
		return memo.Record{Mode: dr.Mode, Addr: dr.Addr}, nil
	})
	if err != nil {
		r.stopped = true
		return Record{}, false
	}
	return Record{Mode: rec.Mode, Addr: rec.Addr}, true
}
