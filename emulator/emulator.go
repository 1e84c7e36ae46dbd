package emulator

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/retroenv/retrogolib/log"
)

// DefaultCycleRate is the wall clock time of one cycle. Timers tick once
// per cycle as well.
const DefaultCycleRate = 2 * time.Millisecond

// Config controls the scheduler.
type Config struct {
	CycleRate time.Duration
	SavePath  string // snapshot destination for SaveState requests
}

// Emulator drives a Chip8 and its hardware at a fixed cycle rate.
type Emulator struct {
	chip8     *Chip8
	hw        Hardware
	logger    *log.Logger
	cycleRate time.Duration
	savePath  string
	running   bool
}

func NewEmulator(c *Chip8, logger *log.Logger, cfg Config) *Emulator {
	rate := cfg.CycleRate
	if rate <= 0 {
		rate = DefaultCycleRate
	}
	return &Emulator{
		chip8:     c,
		hw:        c.hw,
		logger:    logger,
		cycleRate: rate,
		savePath:  cfg.SavePath,
	}
}

// Chip8 returns the machine being driven.
func (e *Emulator) Chip8() *Chip8 {
	return e.chip8
}

// Run executes cycles until the hardware asks to exit, an instruction
// faults or ctx is cancelled. A cancelled run finishes its current cycle
// and returns ctx.Err().
func (e *Emulator) Run(ctx context.Context) error {
	if e.chip8.resumed {
		// the snapshot was taken before the end of its cycle
		e.finishCycle()
		e.chip8.resumed = false
	}
	if err := e.chip8.fetchOpcode(); err != nil {
		e.logger.Error("Execution halted", log.Err(err))
		return err
	}
	if e.chip8.opcode.Value == 0 {
		e.logger.Info("No program loaded", log.Hex("pc", e.chip8.pc))
		return nil
	}

	ticker := time.NewTicker(e.cycleRate)
	defer ticker.Stop()

	e.running = true
	for e.running {
		if err := e.tick(); err != nil {
			e.logger.Error("Execution halted",
				log.Err(err),
				log.String("history", strings.Join(e.chip8.History(), " | ")))
			return err
		}
		if !e.running {
			break
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}

	e.logger.Debug("Emulation stopped", log.String("cycles", strconv.FormatUint(e.chip8.count, 10)))
	return nil
}

// tick runs one cycle: execute, present, poll, timers, pc.
func (e *Emulator) tick() error {
	c := e.chip8
	if err := c.step(); err != nil {
		return err
	}

	c.presentScreen()

	switch e.hw.Poll() {
	case Exit:
		e.running = false
	case SaveState:
		e.save()
	}

	e.finishCycle()
	return nil
}

// finishCycle updates the sound output, the timers and the pc after an
// instruction has executed.
func (e *Emulator) finishCycle() {
	c := e.chip8
	e.hw.Sound(c.SoundActive())
	c.decrementTimer()
	c.advancePC()
}

func (e *Emulator) save() {
	if e.savePath == "" {
		e.logger.Error("Save requested but no save path is configured")
		return
	}
	if err := e.chip8.SaveSnapshotFile(e.savePath); err != nil {
		e.logger.Error("Saving state failed", log.Err(err))
		return
	}
	e.logger.Info("State saved", log.String("file", e.savePath))
}
