// Package cfgerr declares the sentinel errors for configuration failures
// (spec.md §7 "Configuration error"): bad geometry, duplicate level,
// missing split half, unknown option. One sentinel per failure mode,
// grounded on calvinalkan-agent-task/errors.go's style.
package cfgerr

import "errors"

var (
	ErrUnknownOption        = errors.New("unknown option")
	ErrBadLevelNumber       = errors.New("level number out of range")
	ErrDuplicateLevel       = errors.New("cache already specified for this level and side")
	ErrMissingSplitSide     = errors.New("split level is missing its other side")
	ErrLevelGap             = errors.New("level sequence has a gap")
	ErrBadGeometry          = errors.New("invalid cache geometry")
	ErrNoInputSpecified     = errors.New("no cache levels specified")
	ErrTraceFileNotOpenable = errors.New("trace file could not be opened")
)
