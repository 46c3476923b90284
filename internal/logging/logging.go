// Package logging builds the JSON line logger shared by every component.
// Each entry carries ts, level and msg plus component-specific fields.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

func init() {
	zerolog.TimestampFieldName = "ts"
	zerolog.MessageFieldName = "msg"
	zerolog.TimeFieldFormat = time.RFC3339Nano
}

// New returns a logger writing to w with timestamps rendered in loc.
// Unknown level strings fall back to info.
func New(w io.Writer, loc *time.Location, level string) zerolog.Logger {
	if loc == nil {
		loc = time.UTC
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).
		Level(lvl).
		With().
		Timestamp().
		Logger().
		Hook(locationHook{loc: loc})
}

// Default writes to stdout at info level in UTC.
func Default() zerolog.Logger {
	return New(os.Stdout, time.UTC, "info")
}

// Location resolves an IANA zone name, falling back to UTC.
func Location(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Component returns a child logger tagged with the component field.
func Component(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}

type locationHook struct {
	loc *time.Location
}

// Run records the local wall time alongside the UTC ts when the zone differs.
func (h locationHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	if h.loc != time.UTC {
		e.Str("local_ts", time.Now().In(h.loc).Format(time.RFC3339Nano))
	}
}
