// Package simlog provides the structured debug logger that replaces the
// original's "#ifdef DEBUG"-gated debug() macro (SPEC_FULL.md §10.1).
// Grounded on other_examples' y3owk1n-neru accessibility cache, which
// pairs go.uber.org/zap with gopkg.in/natefinch/lumberjack.v2, and on
// calvinalkan-agent-task/internal/store/id.go's google/uuid usage for run
// identity.
package simlog

import (
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures logger construction.
type Options struct {
	// Debug raises the level from warn (the original's default, quiet,
	// build) to debug.
	Debug bool
	// LogFile, if set, routes output through a rotated lumberjack.Logger
	// instead of stderr, so a long trace replay can't grow one file
	// unboundedly.
	LogFile string
}

// New builds a *zap.SugaredLogger tagged with a fresh run UUID, attached
// as a "run" field so concurrent or successive invocations' debug logs
// can be told apart. The same run ID is returned so callers can fold it
// into other run-scoped output, such as a published run summary.
func New(opts Options) (*zap.SugaredLogger, string, error) {
	level := zapcore.WarnLevel
	if opts.Debug {
		level = zapcore.DebugLevel
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var sink zapcore.WriteSyncer
	if opts.LogFile != "" {
		sink = zapcore.AddSync(&lumberjack.Logger{
			Filename:   opts.LogFile,
			MaxSize:    50, // megabytes
			MaxBackups: 3,
			MaxAge:     7, // days
			Compress:   true,
		})
	} else {
		sink = zapcore.Lock(os.Stderr)
	}

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), sink, level)
	logger := zap.New(core)

	runID, err := uuid.NewV7()
	if err != nil {
		return nil, "", err
	}
	return logger.Sugar().With("run", runID.String()), runID.String(), nil
}
