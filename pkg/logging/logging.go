// Package logging configures the process-wide zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/natefinch/lumberjack"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"volumeview/pkg/config"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Setup builds a logger from cfg, installs it as the global logger and
// returns it together with a closer for the underlying output. Log
// messages go to a rotating file when cfg.File is set, otherwise to a
// console writer on stderr.
func Setup(cfg config.Logging) (zerolog.Logger, io.Closer, error) {
	level := zerolog.InfoLevel
	if cfg.Level != "" {
		var err error
		level, err = zerolog.ParseLevel(strings.ToLower(cfg.Level))
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
	}

	var (
		out    io.Writer
		closer io.Closer = nopCloser{}
	)
	if cfg.File == "" {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	} else {
		l := &lumberjack.Logger{
			Filename: cfg.File,
			MaxSize:  cfg.MaxSize, // megabytes
			MaxAge:   cfg.MaxAge,  // days
		}
		out, closer = l, l
	}

	logger := New(out, level)
	zerolog.SetGlobalLevel(level)
	log.Logger = logger
	return logger, closer, nil
}

// New returns a timestamped logger writing to w at the given level
func New(w io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
