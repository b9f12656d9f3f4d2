// Package logging builds the zap loggers used by the server and the CLI.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a logger at the given level. Format "json" selects the
// production encoder, "console" the human readable development one.
// Output is "stdout", "stderr" or a file path; empty means stdout.
func New(level, format, output string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	var cfg zap.Config
	switch strings.ToLower(format) {
	case "", "json":
		cfg = zap.NewProductionConfig()
	case "console":
		cfg = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	out := outputPath(output)
	cfg.OutputPaths = []string{out}
	cfg.ErrorOutputPaths = []string{out}
	return cfg.Build(zap.AddStacktrace(zapcore.ErrorLevel))
}

// Must is New for callers that cannot recover from a bad level or format.
// It falls back to a production logger.
func Must(level, format, output string) *zap.Logger {
	l, err := New(level, format, output)
	if err == nil {
		return l
	}
	l, _ = zap.NewProduction()
	l.Warn("invalid logging settings, using defaults", zap.Error(err))
	return l
}

func outputPath(output string) string {
	if o := strings.TrimSpace(output); o != "" {
		return o
	}
	return "stdout"
}
