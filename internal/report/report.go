// Package report writes the final statistics report (SPEC_FULL.md §11.3):
// to stdout by default, or atomically to a file when --out is given, so a
// write interrupted mid-flight never leaves a half-written report behind.
// Grounded on calvinalkan-agent-task/cache_binary.go's
// atomic.WriteFile(path, bytes.NewReader(buf)) pattern.
package report

import (
	"bytes"
	"io"

	"github.com/natefinch/atomic"
)

// Write sends buf to stdout, or atomically to path if path is non-empty.
func Write(stdout io.Writer, path string, buf *bytes.Buffer) error {
	if path == "" {
		_, err := io.Copy(stdout, buf)
		return err
	}
	return atomic.WriteFile(path, bytes.NewReader(buf.Bytes()))
}
