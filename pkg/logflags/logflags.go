// Package logflags holds the loggers of the debugger and the switches that
// decide how chatty they are.
package logflags

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

var (
	debugEvents     = false
	debugExceptions = false

	logOut io.Writer = os.Stderr
	level            = logrus.InfoLevel
)

// Setup configures the loggers. Level is a logrus level name; an empty or
// invalid level keeps "info". Enabling either debug switch lowers the level
// to debug so the traces are visible.
func Setup(logLevel string, events, exceptions bool) error {
	debugEvents = events
	debugExceptions = exceptions

	level = logrus.InfoLevel
	if logLevel != "" {
		lvl, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		level = lvl
	}
	if (events || exceptions) && level < logrus.DebugLevel {
		level = logrus.DebugLevel
	}
	return nil
}

// SetOutput redirects every logger created afterwards to w.
func SetOutput(w io.Writer) {
	logOut = w
}

// DebugEvents reports whether every debug event should be traced.
func DebugEvents() bool {
	return debugEvents
}

// DebugExceptions reports whether exception details should be traced.
func DebugExceptions() bool {
	return debugExceptions
}

func makeLogger(fields logrus.Fields) *logrus.Entry {
	logger := logrus.New()
	logger.Out = logOut
	logger.Level = level
	logger.Formatter = &logrus.TextFormatter{DisableTimestamp: true}
	return logger.WithFields(fields)
}

// WindowsNatLogger returns the logger of the native Windows layer.
func WindowsNatLogger() *logrus.Entry {
	return makeLogger(logrus.Fields{"layer": "windows-nat"})
}

// CommandLogger returns the logger used by the command line front end.
func CommandLogger() *logrus.Entry {
	return makeLogger(logrus.Fields{"layer": "cmd"})
}
