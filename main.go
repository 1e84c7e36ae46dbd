// Package main implements a CHIP-8 emulator with save states.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/retroenv/retrogolib/app"
	"github.com/retroenv/retrogolib/log"
	"github.com/tuboc/chip8vm/config"
	e "github.com/tuboc/chip8vm/emulator"
	"github.com/tuboc/chip8vm/options"
	"github.com/tuboc/chip8vm/sdlhw"
	"github.com/tuboc/chip8vm/termhw"
)

func init() {
	// SDL must be driven from the main thread
	runtime.LockOSThread()
}

func main() {
	os.Exit(run())
}

func run() int {
	opts, err := options.ParseFlags(os.Args)
	if err != nil {
		var usageErr *options.UsageError
		if errors.As(err, &usageErr) {
			if usageErr.Error() != "" {
				fmt.Fprintln(os.Stderr, usageErr.Error())
			}
			usageErr.ShowUsage(os.Stderr)
			return 1
		}
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	logger := config.CreateLogger(opts.Debug, opts.Quiet)

	screen, err := e.NewDefaultScreen(opts.Scale)
	if err != nil {
		logger.Error("Invalid display configuration", log.Err(err))
		return 1
	}

	hw, err := newHardware(opts, screen, logger)
	if err != nil {
		logger.Error("Initializing display failed", log.Err(err))
		return 1
	}
	defer func() {
		if err := hw.Close(); err != nil {
			logger.Error("Shutting down display failed", log.Err(err))
		}
	}()

	chip8, err := newChip8(opts, hw, screen, logger)
	if err != nil {
		if errors.Is(err, e.ErrMalformedSnapshot) {
			logger.Error("Loading save state failed, not a valid save file",
				log.String("file", opts.Load), log.Err(err))
		} else {
			logger.Error("Loading program failed", log.Err(err))
		}
		return 1
	}

	emu := e.NewEmulator(chip8, logger, config.Emulator(opts))

	ctx := app.Context()
	if err := emu.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("Emulation cancelled")
			return 0
		}
		return 1
	}
	return 0
}

func newHardware(opts options.Program, screen *e.Screen, logger *log.Logger) (e.Hardware, error) {
	switch opts.Backend {
	case options.BackendTerminal:
		return termhw.New(logger, termhw.DefaultHoldPolls)
	default:
		return sdlhw.New(opts.Title, screen, logger)
	}
}

// newChip8 resumes from the save state if one is given, otherwise it
// loads the ROM.
func newChip8(opts options.Program, hw e.Hardware, screen *e.Screen, logger *log.Logger) (*e.Chip8, error) {
	if opts.Load != "" {
		c, err := e.LoadSnapshotFile(opts.Load, hw, logger, opts.Debug)
		if err != nil {
			return nil, err
		}
		logger.Info("Resuming save state", log.String("file", opts.Load), log.Hex("pc", c.PC()))
		return c, nil
	}

	binary, err := os.ReadFile(opts.ROM)
	if err != nil {
		return nil, fmt.Errorf("reading rom file: %w", err)
	}

	c := e.NewChip8(hw, screen, logger, opts.Debug)
	if err := c.LoadROM(binary); err != nil {
		return nil, fmt.Errorf("loading '%s': %w", opts.ROM, err)
	}
	logger.Debug("Program loaded", log.String("file", opts.ROM), log.Int("size", len(binary)))
	return c, nil
}
