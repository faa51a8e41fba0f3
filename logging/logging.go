// Package logging sets up the zerolog loggers used by the command.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/adrg/xdg"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogFileName is the name of the log file, relative to the XDG state
// directory
const LogFileName = "mdtemplate/mdtemplate.log"

// SetupLogger configures the global logger for the given verbosity. Log
// records go to the console writer and, if it can be opened, to the log
// file under the XDG state directory. Verbosity 0 logs warnings and
// errors, 1 adds info, 2 debug and 3 or more trace.
func SetupLogger(verbosity int, console io.Writer, noColor bool) {
	zerolog.SetGlobalLevel(LevelFor(verbosity))

	writers := []io.Writer{
		zerolog.ConsoleWriter{
			Out:        console,
			TimeFormat: time.Kitchen,
			NoColor:    noColor,
		},
	}

	logFile, err := xdg.StateFile(LogFileName)
	if err == nil {
		var f *os.File
		f, err = openLogFile(logFile)
		if err == nil {
			writers = append(writers, f)
		}
	}

	log.Logger = zerolog.New(io.MultiWriter(writers...)).With().Timestamp().Logger()

	if err != nil {
		log.Warn().Err(err).Str("path", logFile).
			Msg("Failed to open log file, logging to console only")
	}

	if verbosity >= 2 {
		log.Logger = log.Logger.With().Caller().Logger()
	}

	log.Debug().Int("verbosity", verbosity).Str("logFile", logFile).
		Msg("Logger initialized")
}

// LevelFor returns the log level for the verbosity
func LevelFor(verbosity int) zerolog.Level {
	switch verbosity {
	case 0:
		return zerolog.WarnLevel
	case 1:
		return zerolog.InfoLevel
	case 2:
		return zerolog.DebugLevel
	}
	if verbosity < 0 {
		return zerolog.WarnLevel
	}
	return zerolog.TraceLevel
}

// GetLogger returns a logger with the component field set to name
func GetLogger(name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}

// LogOperationStart logs the start of an operation and returns a function
// which logs its completion and duration
func LogOperationStart(logger zerolog.Logger, operation string) func() {
	start := time.Now()
	logger.Debug().Str("operation", operation).Msg("Operation started")

	return func() {
		logger.Debug().
			Str("operation", operation).
			Dur("duration", time.Since(start)).
			Msg("Operation completed")
	}
}

// openLogFile opens the log file for appending, creating it if needed
func openLogFile(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}
