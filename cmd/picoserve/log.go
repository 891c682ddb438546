// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"log/slog"

	"github.com/z5labs/picoserve/config"
	"github.com/z5labs/picoserve/otelslog"

	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
)

// newLogHandler returns a zap backed slog.Handler. The returned func
// flushes any buffered log entries.
func newLogHandler(cfg config.LogConfig) (slog.Handler, func() error, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(zapLevel(cfg.Level))

	logger, err := zcfg.Build()
	if err != nil {
		return nil, nil, err
	}
	zh := zapslog.NewHandler(logger.Core(), &zapslog.HandlerOptions{
		AddSource: cfg.Development,
	})
	return otelslog.NewHandler(zh), logger.Sync, nil
}

func zapLevel(l slog.Level) zapcore.Level {
	switch {
	case l < slog.LevelInfo:
		return zapcore.DebugLevel
	case l < slog.LevelWarn:
		return zapcore.InfoLevel
	case l < slog.LevelError:
		return zapcore.WarnLevel
	default:
		return zapcore.ErrorLevel
	}
}
