// Package logs wires the per-subsystem loggers shared by every package in
// this module, in the same shape as the teacher's logger/logger.go: one
// backend, one rotator, and a small set of named subsystem loggers fetched
// once at package init.
package logs

import (
	"os"

	"github.com/decred/slog"
	"github.com/jrick/logrotate/rotator"
	"github.com/pkg/errors"
)

// LogRotator is the on-disk half of the logging backend. Until
// InitLogRotator sets it, log output goes to stdout only.
var LogRotator *rotator.Rotator

type logWriter struct{}

func (logWriter) Write(p []byte) (int, error) {
	os.Stdout.Write(p)
	if LogRotator != nil {
		LogRotator.Write(p)
	}
	return len(p), nil
}

var backend = slog.NewBackend(logWriter{})

// InitLogRotator creates the rotating log file at logFile. Subsequent log
// writes go to both stdout and the rotator.
func InitLogRotator(logFile string, maxRolls int) error {
	r, err := rotator.New(logFile, 10*1024, false, maxRolls)
	if err != nil {
		return err
	}
	LogRotator = r
	return nil
}

// Subsystem tags, one per component in spec.md §2.
const (
	TagScanner   = "SCAN"
	TagRegistry  = "INFN"
	TagStatement = "STMT"
	TagGovernace = "RSV"
	TagVoteStore = "MNPY"
	TagVoter     = "MNVT"
	TagValidator = "MNVA"
	TagSnapshot  = "SNAP"
	TagNode      = "NODE"
)

var loggers = map[string]slog.Logger{}

// Get returns (creating if necessary) the logger for the named subsystem,
// defaulting to info level the way the teacher's backend does for
// subsystems that are never explicitly configured.
func Get(tag string) slog.Logger {
	if l, ok := loggers[tag]; ok {
		return l
	}
	l := backend.Logger(tag)
	l.SetLevel(slog.LevelInfo)
	loggers[tag] = l
	return l
}

// SetLevel changes the level of every known subsystem logger, mirroring
// the teacher's SetLogLevels used from config parsing.
func SetLevel(level slog.Level) {
	for _, l := range loggers {
		l.SetLevel(level)
	}
}

// SetLevelFromString parses s (e.g. "trace", "debug", "info", "warn",
// "error", "critical") and applies it to every known subsystem logger,
// mirroring the teacher's SetLogLevels(cfg.LogLevel) called from config
// parsing.
func SetLevelFromString(s string) error {
	level, ok := slog.LevelFromString(s)
	if !ok {
		return errors.Errorf("logs: unknown log level %q", s)
	}
	SetLevel(level)
	return nil
}
