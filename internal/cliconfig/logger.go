package cliconfig

import (
	"io"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger builds the CLI logger: human-readable lines on stderr and, when
// logFile is set, JSON lines in a size-rotated file.
func NewLogger(stderr io.Writer, level, logFile string) (zerolog.Logger, io.Closer, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), nil, err
	}

	console := zerolog.ConsoleWriter{Out: stderr, TimeFormat: time.RFC3339}
	if logFile == "" {
		return zerolog.New(console).Level(lvl).With().Timestamp().Logger(), nopCloser{}, nil
	}

	file := &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	}
	out := zerolog.MultiLevelWriter(console, file)
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger(), file, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
