// Package logging builds the zerolog loggers shared by the server, the
// worker and the CLI commands.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// New returns a JSON logger at the given level. Logs go to file when set,
// stdout otherwise. When pretty is true and no file is configured a console
// writer is used instead of JSON.
func New(level, file string, pretty bool) (zerolog.Logger, func(), error) {
	closer := func() {}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Logger{}, closer, fmt.Errorf("parse log level %q: %w", level, err)
	}

	var writer io.Writer = os.Stdout
	switch {
	case file != "":
		if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
			return zerolog.Logger{}, closer, fmt.Errorf("create logs dir: %w", err)
		}

		f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Logger{}, closer, err
		}
		closer = func() { _ = f.Close() }
		writer = f
	case pretty:
		writer = zerolog.ConsoleWriter{Out: os.Stdout}
	}

	l := zerolog.New(writer).
		With().
		Timestamp().
		Logger().
		Level(lvl)

	return l, closer, nil
}

// SetGlobal replaces the package-level zerolog logger.
func SetGlobal(l zerolog.Logger) {
	log.Logger = l
}

// Component derives a logger tagged with the "component" key.
func Component(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}
