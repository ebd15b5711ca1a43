// Package logging builds the service logger from LoggingConfig
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/amirphl/filterkit/config"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New returns a logger writing to stdout, a rotated file, or both.
// The returned closer releases the log file and is never nil.
func New(cfg config.LoggingConfig) (zerolog.Logger, io.Closer, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return zerolog.Nop(), nopCloser{}, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	if level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var (
		writers []io.Writer
		closer  io.Closer = nopCloser{}
	)
	stdout := io.Writer(os.Stdout)
	if cfg.Format == "text" {
		stdout = zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) { w.Out = os.Stdout })
	}

	switch cfg.Output {
	case "", "stdout":
		writers = append(writers, stdout)
	case "file", "both":
		file := &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
		writers = append(writers, file)
		closer = file
		if cfg.Output == "both" {
			writers = append(writers, stdout)
		}
	default:
		return zerolog.Nop(), nopCloser{}, fmt.Errorf("invalid log output %q", cfg.Output)
	}

	ctx := zerolog.New(zerolog.MultiLevelWriter(writers...)).Level(level).With().Timestamp()
	if cfg.EnableCaller {
		ctx = ctx.Caller()
	}
	return ctx.Logger(), closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
