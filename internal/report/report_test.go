package report

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteToFileIsAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.txt")
	buf := bytes.NewBufferString("L1 cache\nfetches 1 1 0 0 0\n")

	require.NoError(t, Write(&bytes.Buffer{}, path, buf))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "L1 cache\nfetches 1 1 0 0 0\n", string(data))
}

func TestWriteEmptyPathGoesToStdout(t *testing.T) {
	buf := bytes.NewBufferString("report body")
	var stdout bytes.Buffer
	require.NoError(t, Write(&stdout, "", buf))
	assert.Equal(t, "report body", stdout.String())
}
