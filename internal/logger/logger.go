// SPDX-FileCopyrightText: 2025 The Hardware Sampling Authors
// SPDX-License-Identifier: MIT

package logger

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
)

// New builds a slog.Logger writing to w in the given format ("text"
// or "json") at the given level. Unknown levels fall back to info; an
// unknown format panics since formats are validated by config.
func New(level, format string, w io.Writer) *slog.Logger {
	return slog.New(handlerForFormat(format, parseLogLevel(level), w))
}

func handlerForFormat(format string, level slog.Level, w io.Writer) slog.Handler {
	switch format {
	case "json":
		return slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:     level,
			AddSource: true,
		})

	case "text":
		return slog.NewTextHandler(w, &slog.HandlerOptions{
			Level:     level,
			AddSource: true,
			// trim source paths to the last two directories so log
			// lines stay readable
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				if a.Key != slog.SourceKey {
					return a
				}
				src, ok := a.Value.Any().(*slog.Source)
				if !ok {
					return a
				}
				parts := strings.Split(filepath.ToSlash(src.File), "/")
				if len(parts) > 2 {
					parts = parts[len(parts)-3:]
				}
				src.File = filepath.Join(parts...)
				return a
			},
		})

	default:
		panic(fmt.Sprintf("invalid log format: %s", format))
	}
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
