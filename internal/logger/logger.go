// Package logger builds the single logrus logger shared by every component
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// EnvLogLevel is the environment variable holding the log level
const EnvLogLevel = "LOG_LEVEL"

// Format selects the logrus formatter
type Format string

const (
	// FormatText renders human readable lines
	FormatText Format = "text"
	// FormatJSON renders one JSON object per line
	FormatJSON Format = "json"
)

// Options configures the logger
type Options struct {
	// Level is the log level name (trace, debug, info, warn, error). Empty falls back to LOG_LEVEL.
	Level string
	// Format is the output format
	Format Format
	// Output is where log lines are written. Defaults to stderr.
	Output io.Writer
}

// New creates and configures a logger. It is called once at process start and the result
// is passed to every component that logs.
func New(opts Options) *logrus.Logger {
	log := logrus.New()

	switch opts.Format {
	case FormatJSON:
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	if opts.Output != nil {
		log.SetOutput(opts.Output)
	} else {
		log.SetOutput(os.Stderr)
	}

	configureLogLevel(log, opts.Level)
	return log
}

// Discard returns a logger that drops everything, for tests
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func configureLogLevel(log *logrus.Logger, levelStr string) {
	log.SetLevel(logrus.InfoLevel)

	if levelStr == "" {
		levelStr = os.Getenv(EnvLogLevel)
	}
	if levelStr == "" {
		return
	}

	level, err := logrus.ParseLevel(strings.ToLower(levelStr))
	if err != nil {
		log.Warnf("Invalid log level '%s', defaulting to 'info'", levelStr)
		return
	}

	log.SetLevel(level)
	log.Debugf("Log level set to '%s'", level)
}
