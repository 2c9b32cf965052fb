// Package observability provides the structured logger and typed error
// envelopes used at the payload index's persistence and facade boundaries
// (spec.md §7, SPEC_FULL.md §4.I), following the teacher's zap-based
// CLILogger convention.
package observability

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/3leaps/payloadindex/internal/config"
)

// CLILogger is the package-level logger used by callers that have not wired
// their own, mirroring the teacher's internal/observability.CLILogger.
var CLILogger = zap.NewNop()

// NewLogger builds a zap.Logger from cfg. Profile "STRUCTURED" yields JSON
// output suitable for log aggregation; any other profile yields a
// human-readable console encoder, matching the teacher's two logging modes.
func NewLogger(cfg config.Logging) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if err := level.Set(strings.ToLower(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.EncoderConfig.TimeKey = "ts"
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if !strings.EqualFold(cfg.Profile, "STRUCTURED") {
		zapCfg.Encoding = "console"
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}
	return logger, nil
}

// SetGlobal installs logger as the package-level CLILogger used by code that
// does not receive a logger through dependency injection.
func SetGlobal(logger *zap.Logger) {
	if logger == nil {
		return
	}
	CLILogger = logger
}
