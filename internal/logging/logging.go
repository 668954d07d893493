// Package logging centralizes zerolog setup so every package in gorilix
// logs through the same console-friendly writer during development and
// the same structured JSON writer in production.
package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	once sync.Once
	base zerolog.Logger
)

// configure sets zerolog's global time field format and builds the base
// logger; New runs it once, on first use, before handing out a component
// logger bound to "component".
func configure() {
	zerolog.TimeFieldFormat = time.RFC3339
	level := parseLevel(os.Getenv("GORILIX_LOG_LEVEL"))
	var w io.Writer = os.Stderr
	if strings.EqualFold(os.Getenv("GORILIX_LOG_FORMAT"), "console") {
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	}
	base = zerolog.New(w).Level(level).With().Timestamp().Logger()
}

func parseLevel(s string) zerolog.Level {
	if s == "" {
		return zerolog.InfoLevel
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(s))
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}

// New returns a logger bound to the given component name, e.g.
// logging.New("supervisor") or logging.New("cluster").
func New(component string) zerolog.Logger {
	once.Do(configure)
	return base.With().Str("component", component).Logger()
}

// Nop returns a logger that discards everything, for tests that don't
// care about log output.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
