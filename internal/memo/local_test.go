package memo

import (
	"errors"
	"testing"

	"github.com/cachesim/cachesim/internal/access"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeCounting(calls *int) func([]byte) (Record, error) {
	return func(line []byte) (Record, error) {
		*calls++
		return Record{Mode: access.DataRead, Addr: 0x42}, nil
	}
}

func TestNoMemoAlwaysCallsDecode(t *testing.T) {
	calls := 0
	decode := decodeCounting(&calls)

	for i := 0; i < 3; i++ {
		_, err := NoMemo.Decode([]byte("0 42"), decode)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, calls)
}

func TestLocalMemoizesRepeatedLines(t *testing.T) {
	l := NewLocal(4, 8)
	calls := 0
	decode := decodeCounting(&calls)

	for i := 0; i < 5; i++ {
		rec, err := l.Decode([]byte("0 42"), decode)
		require.NoError(t, err)
		assert.Equal(t, Record{Mode: access.DataRead, Addr: 0x42}, rec)
	}

	assert.Equal(t, 1, calls, "decode should only run once for a repeated line")
	hits, misses := l.Stats()
	assert.Equal(t, uint64(4), hits)
	assert.Equal(t, uint64(1), misses)
}

func TestLocalDistinguishesDifferentLines(t *testing.T) {
	l := NewLocal(4, 8)
	calls := 0
	decode := func(line []byte) (Record, error) {
		calls++
		if string(line) == "0 10" {
			return Record{Mode: access.DataRead, Addr: 0x10}, nil
		}
		return Record{Mode: access.DataWrite, Addr: 0x20}, nil
	}

	a, err := l.Decode([]byte("0 10"), decode)
	require.NoError(t, err)
	b, err := l.Decode([]byte("1 20"), decode)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Equal(t, 2, calls)
}

func TestLocalEvictsLRUOnceFull(t *testing.T) {
	l := NewLocal(1, 2) // single bucket, capacity 2
	decode := func(line []byte) (Record, error) { return Record{Addr: uint64(line[0])}, nil }

	_, _ = l.Decode([]byte{1}, decode)
	_, _ = l.Decode([]byte{2}, decode)
	_, _ = l.Decode([]byte{3}, decode) // evicts {1}, the LRU entry

	calls := 0
	countingDecode := func(line []byte) (Record, error) {
		calls++
		return Record{Addr: uint64(line[0])}, nil
	}
	_, _ = l.Decode([]byte{1}, countingDecode)
	assert.Equal(t, 1, calls, "evicted entry should require a fresh decode")
}

func TestLocalPropagatesDecodeError(t *testing.T) {
	l := NewLocal(1, 2)
	boom := errors.New("boom")
	_, err := l.Decode([]byte("x"), func([]byte) (Record, error) { return Record{}, boom })
	assert.ErrorIs(t, err, boom)
}
