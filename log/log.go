// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package log wraps github.com/charmbracelet/log behind a
// single package-level logger, used throughout gpu/scene/ngl
// for the warn paths (a replaced driver registration, a
// duplicate timer query in one frame, a failed mipmap
// generation, a devwatch notification dropped or failed) and
// for driver registration messages. There is no sample-count
// clamp or NPOT mipmap fallback in the engine, so neither is
// logged.
package log

import (
	"os"

	"github.com/charmbracelet/log"
)

var logger = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	Prefix:          "ngl",
})

// SetLevel sets the minimum level emitted by the package
// logger. Typical values are log.DebugLevel, log.InfoLevel,
// log.WarnLevel and log.ErrorLevel from charmbracelet/log.
func SetLevel(level log.Level) { logger.SetLevel(level) }

// Debug logs at debug level.
func Debug(msg any, keyvals ...any) { logger.Debug(msg, keyvals...) }

// Info logs at info level.
func Info(msg any, keyvals ...any) { logger.Info(msg, keyvals...) }

// Warn logs at warn level. It is the level used for the
// warn paths listed in the package doc (e.g. the ignored
// duplicate timer query).
func Warn(msg any, keyvals ...any) { logger.Warn(msg, keyvals...) }

// Error logs at error level.
func Error(msg any, keyvals ...any) { logger.Error(msg, keyvals...) }

// With returns a derived logger carrying the given key/value
// pairs on every subsequent call, e.g. log.With("node",
// label).Warn("disabled mipmap").
func With(keyvals ...any) *log.Logger { return logger.With(keyvals...) }
