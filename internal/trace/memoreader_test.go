package trace

import (
	"strings"
	"testing"

	"github.com/cachesim/cachesim/internal/access"
	"github.com/cachesim/cachesim/internal/memo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoReaderDecodesSameAsReader(t *testing.T) {
	input := "2 0x10\n1 0x20\n0 0xff\n"
	r := NewMemoReader(strings.NewReader(input), memo.NoMemo)

	rec, ok := r.Next()
	require.True(t, ok)
	assert.Equal(t, Record{Mode: access.InstFetch, Addr: 0x10}, rec)

	rec, ok = r.Next()
	require.True(t, ok)
	assert.Equal(t, Record{Mode: access.DataWrite, Addr: 0x20}, rec)

	rec, ok = r.Next()
	require.True(t, ok)
	assert.Equal(t, Record{Mode: access.DataRead, Addr: 0xff}, rec)

	_, ok = r.Next()
	assert.False(t, ok)
}

func TestMemoReaderMemoizesRepeatedLines(t *testing.T) {
	l := memo.NewLocal(4, 8)
	input := strings.Repeat("0 100\n", 5)
	r := NewMemoReader(strings.NewReader(input), l)

	for i := 0; i < 5; i++ {
		rec, ok := r.Next()
		require.True(t, ok)
		assert.Equal(t, Record{Mode: access.DataRead, Addr: 0x100}, rec)
	}
	hits, misses := l.Stats()
	assert.Equal(t, uint64(4), hits)
	assert.Equal(t, uint64(1), misses)
}
