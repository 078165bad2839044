package main

import (
	"log/slog"

	"gopkg.in/natefinch/lumberjack.v2"
)

// newServeLogger builds the slog.Logger used by the serve daemon. Output
// goes to a size-rotated file via lumberjack rather than growing an
// unbounded log on a long-lived issuer process.
func newServeLogger(path string) *slog.Logger {
	if path == "" {
		return slog.Default()
	}
	rotator := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    50, // megabytes
		MaxBackups: 5,
		MaxAge:     30, // days
		Compress:   true,
	}
	return slog.New(slog.NewJSONHandler(rotator, nil))
}
