// Package ttywidth detects the terminal width of an output file descriptor
// (SPEC_FULL.md §11.2), so the fixed-width stats table can add a rule sized
// to the real terminal instead of assuming 80 columns when one is
// attached. golang.org/x/sys/unix is a transitive dependency of the
// teacher pack (calvinalkan-agent-task/go.mod); this is its direct use.
package ttywidth

import (
	"os"

	"golang.org/x/sys/unix"
)

// defaultWidth is the original's fixed assumption, used whenever stdout
// isn't a terminal (redirected to a file or pipe) or the ioctl fails.
const defaultWidth = 80

// Of returns the terminal width of f, or defaultWidth if f is not a TTY.
func Of(f *os.File) int {
	ws, err := unix.IoctlGetWinsize(int(f.Fd()), unix.TIOCGWINSZ)
	if err != nil || ws.Col == 0 {
		return defaultWidth
	}
	return int(ws.Col)
}

// IsTerminal reports whether f supports the window-size ioctl, i.e. is
// attached to a terminal rather than a redirected file or pipe.
func IsTerminal(f *os.File) bool {
	_, err := unix.IoctlGetWinsize(int(f.Fd()), unix.TIOCGWINSZ)
	return err == nil
}
