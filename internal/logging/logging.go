// Package logging sets up the colored slog handler used by the binaries.
package logging

import (
	"fmt"
	"io"
	log "log/slog"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

var levels = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

func ParseLevel(s string) (log.Level, error) {
	lvl, ok := levels[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return log.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
	return lvl, nil
}

// New returns a tint logger writing to w. An unknown level falls back to
// info and is reported as an error alongside the logger.
func New(w io.Writer, level string, noColor bool) (*log.Logger, error) {
	lvl, err := ParseLevel(level)
	return log.New(tint.NewHandler(w, &tint.Options{
		Level:      lvl,
		TimeFormat: time.Kitchen,
		NoColor:    noColor,
	})), err
}
