// Package config reads the debugger settings from viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/hitzhangjie/wdbg/pkg/logflags"
	"github.com/hitzhangjie/wdbg/pkg/target"
)

// Setting keys, as they appear in ~/.wdbg.yaml. Environment variables use
// the WDBG_ prefix with dots replaced by underscores, e.g.
// WDBG_DEBUG_EVENTS=true.
const (
	KeyLogLevel        = "log.level"
	KeyDebugEvents     = "debug.events"
	KeyDebugExceptions = "debug.exceptions"
	KeyWaitTimeout     = "wait.timeout"
	KeyReportThreads   = "report.threads"
	KeyReportLibraries = "report.libraries"
)

// EnvKeyReplacer maps setting keys to environment variable names.
var EnvKeyReplacer = strings.NewReplacer(".", "_")

// Config holds the settings of one debugger session.
type Config struct {
	LogLevel        string
	DebugEvents     bool
	DebugExceptions bool
	WaitTimeout     time.Duration
	ReportThreads   bool
	ReportLibraries bool
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyDebugEvents, false)
	v.SetDefault(KeyDebugExceptions, false)
	v.SetDefault(KeyWaitTimeout, time.Second)
	v.SetDefault(KeyReportThreads, false)
	v.SetDefault(KeyReportLibraries, false)
}

// Load reads the settings from v.
func Load(v *viper.Viper) (*Config, error) {
	c := &Config{
		LogLevel:        v.GetString(KeyLogLevel),
		DebugEvents:     v.GetBool(KeyDebugEvents),
		DebugExceptions: v.GetBool(KeyDebugExceptions),
		WaitTimeout:     v.GetDuration(KeyWaitTimeout),
		ReportThreads:   v.GetBool(KeyReportThreads),
		ReportLibraries: v.GetBool(KeyReportLibraries),
	}
	if c.WaitTimeout < 0 {
		return nil, fmt.Errorf("%s must not be negative: %v", KeyWaitTimeout, c.WaitTimeout)
	}
	return c, nil
}

// SetupLogging applies the logging settings.
func (c *Config) SetupLogging() error {
	if err := logflags.Setup(c.LogLevel, c.DebugEvents, c.DebugExceptions); err != nil {
		return fmt.Errorf("%s: %w", KeyLogLevel, err)
	}
	return nil
}

// Options converts the settings into the options of a debuggee.
func (c *Config) Options() target.Options {
	return target.Options{
		WaitTimeout:         c.WaitTimeout,
		ReportThreadEvents:  c.ReportThreads,
		ReportLibraryEvents: c.ReportLibraries,
		Logger:              logflags.WindowsNatLogger(),
	}
}
