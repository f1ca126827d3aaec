// Package applog wires up the btclog backend shared by every package in
// this module that logs (curve, bdhke, ledger, api) and the rotating file
// sink cmd/mintd writes to.
package applog

import (
	"fmt"
	"io"
	"os"

	"github.com/btcsuite/btclog"
	"github.com/jrick/logrotate/rotator"

	"github.com/shellcash/ecash/api"
	"github.com/shellcash/ecash/bdhke"
	"github.com/shellcash/ecash/curve"
	"github.com/shellcash/ecash/ledger"
)

// maxLogRolls is the number of rotated log files logrotate keeps around.
const maxLogRolls = 8

// subsystems lists every package that exposes a UseLogger/DisableLog pair,
// keyed by the short tag used in log lines.
var subsystems = map[string]func(btclog.Logger){
	"CURV": curve.UseLogger,
	"BDHK": bdhke.UseLogger,
	"LDGR": ledger.UseLogger,
	"API ": api.UseLogger,
}

var logRotator *rotator.Rotator

// backendLog is the btclog.Backend every subsystem logger is created from.
var backendLog = btclog.NewBackend(logWriter{})

// logWriter forwards to both stdout and logRotator, mirroring the
// dual-sink convention used throughout the btcsuite tooling.
type logWriter struct{}

func (logWriter) Write(p []byte) (int, error) {
	os.Stdout.Write(p)
	if logRotator != nil {
		logRotator.Write(p)
	}
	return len(p), nil
}

// InitLogRotator opens (creating if necessary) a rotating log file at
// logFile. It must be called before any subsystem logs if file output is
// wanted; without it, output goes to stdout only.
func InitLogRotator(logFile string) error {
	r, err := rotator.New(logFile, 10*1024, false, maxLogRolls)
	if err != nil {
		return fmt.Errorf("applog: create log rotator: %w", err)
	}
	logRotator = r
	return nil
}

// SetLogLevels parses a btclog level name (trace, debug, info, warn,
// error, critical, off) and applies it to every known subsystem.
func SetLogLevels(levelName string) error {
	level, ok := btclog.LevelFromString(levelName)
	if !ok {
		return fmt.Errorf("applog: unknown log level %q", levelName)
	}
	for tag, useLogger := range subsystems {
		logger := backendLog.Logger(tag)
		logger.SetLevel(level)
		useLogger(logger)
	}
	return nil
}

// Writer exposes the shared sink for callers (e.g. cmd/mintd's own
// top-level logger) that want to log through the same backend without
// belonging to one of the fixed subsystems above.
func Writer() io.Writer {
	return logWriter{}
}
