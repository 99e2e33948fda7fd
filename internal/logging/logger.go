// Copyright (c) 2025 QueryMind
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// IsVerbose reports whether verbose diagnostics were requested through the environment.
func IsVerbose() bool {
	return os.Getenv("QUERYMIND_VERBOSE") == "1"
}

// New builds the process logger at level (a zap level name such as "warn" or
// "debug"; empty means warn). Verbose forces debug level with the development
// console encoder; otherwise records go to stderr without timestamps so regular
// command output stays clean.
func New(level string, verbose bool) (*zap.Logger, error) {
	lvl := zapcore.WarnLevel
	if level != "" {
		parsed, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log_level %q: %w", level, err)
		}
		lvl = parsed
	}

	var cfg zap.Config
	if verbose {
		cfg = zap.NewDevelopmentConfig()
		lvl = zapcore.DebugLevel
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Encoding = "console"
		cfg.EncoderConfig.TimeKey = ""
		cfg.Sampling = nil
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = !verbose

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

// Token returns a zap field describing a bearer token without revealing it.
func Token(value string) zap.Field {
	if value == "" {
		return zap.String("token", "<none>")
	}
	return zap.String("token", fmt.Sprintf("<redacted:%d chars>", len(value)))
}
