// Package logger provides structured logging for the event harvester.
//
// It is a thin layer over the global zap logger (configured by
// config.InitLogger) that keeps call sites short:
//
//	logger.Info("Source scraped", logger.Fields{
//	    "source": "apsa",
//	    "candidates": 12,
//	})
//
//	logger.Error("Saving catalog failed", logger.Fields{"path": path}, err)
package logger

import (
	"sort"
	"time"

	"go.uber.org/zap"
)

// Fields represents structured log fields
type Fields map[string]interface{}

// zapFields converts fields to zap fields in key order so output is stable
func zapFields(fields Fields, err error) []zap.Field {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]zap.Field, 0, len(keys)+1)
	for _, k := range keys {
		switch v := fields[k].(type) {
		case time.Duration:
			out = append(out, zap.Duration(k, v))
		case error:
			out = append(out, zap.NamedError(k, v))
		default:
			out = append(out, zap.Any(k, v))
		}
	}
	if err != nil {
		out = append(out, zap.Error(err))
	}
	return out
}

// Debug logs a debug message with optional structured fields
func Debug(message string, fields Fields) {
	zap.L().Debug(message, zapFields(fields, nil)...)
}

// Info logs an informational message with optional structured fields
func Info(message string, fields Fields) {
	zap.L().Info(message, zapFields(fields, nil)...)
}

// Warn logs a warning message with optional structured fields
func Warn(message string, fields Fields) {
	zap.L().Warn(message, zapFields(fields, nil)...)
}

// Error logs an error message with optional structured fields and an error object
func Error(message string, fields Fields, err error) {
	zap.L().Error(message, zapFields(fields, err)...)
}

// Sync flushes buffered log entries
func Sync() {
	_ = zap.L().Sync()
}
