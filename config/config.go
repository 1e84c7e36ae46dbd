// Package config turns parsed options into the logger and scheduler
// settings of a run.
package config

import (
	"github.com/retroenv/retrogolib/log"
	"github.com/tuboc/chip8vm/emulator"
	"github.com/tuboc/chip8vm/options"
)

// CreateLogger returns a logger at debug level when tracing is enabled
// and at error level in quiet mode.
func CreateLogger(debug, quiet bool) *log.Logger {
	cfg := log.DefaultConfig()
	switch {
	case debug:
		cfg.Level = log.DebugLevel
	case quiet:
		cfg.Level = log.ErrorLevel
	}
	return log.NewWithConfig(cfg)
}

// Emulator returns the scheduler settings for the parsed options.
func Emulator(opts options.Program) emulator.Config {
	return emulator.Config{
		CycleRate: opts.CycleRate,
		SavePath:  opts.Save,
	}
}
