package emulator

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/retroenv/retrogolib/log"
)

// snapshot is the persisted form of a Chip8. The record has no version
// field, changing it breaks existing save files.
type snapshot struct {
	Memory         [MemorySize]uint8
	Registers      [RegisterCount]uint8
	IndexReg       uint16
	PC             uint16
	DelayTimer     uint8
	SoundTimer     uint8
	Stack          [StackSize]uint16
	SP             uint8
	UpdatePCCycles uint16
	Fontset        [len(characterSprites)]uint8
	Screen         Screen
	Count          uint64
}

// WriteSnapshot serializes the machine state. The current opcode, the
// hardware, the debug flag and the op history are not part of it.
func (c *Chip8) WriteSnapshot(w io.Writer) error {
	s := snapshot{
		Memory:         c.mem,
		Registers:      c.v,
		IndexReg:       c.i,
		PC:             c.pc,
		DelayTimer:     c.dt,
		SoundTimer:     c.st,
		Stack:          c.stack,
		SP:             c.sp,
		UpdatePCCycles: c.updatePC,
		Fontset:        c.fontset,
		Screen:         *c.screen,
		Count:          c.count,
	}
	if err := gob.NewEncoder(w).Encode(&s); err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	return nil
}

// ReadSnapshot rebuilds a machine from a snapshot. Errors returned by r
// are passed through unchanged, any other decoding failure wraps
// ErrMalformedSnapshot. Debug and hw come from the caller, never from
// the snapshot.
func ReadSnapshot(r io.Reader, hw Hardware, logger *log.Logger, debug bool) (*Chip8, error) {
	rr := &recordingReader{r: r}

	var s snapshot
	if err := gob.NewDecoder(rr).Decode(&s); err != nil {
		if rr.err != nil {
			return nil, rr.err
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}
	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}

	screen := s.Screen
	c := &Chip8{
		mem:      s.Memory,
		v:        s.Registers,
		i:        s.IndexReg,
		pc:       s.PC,
		dt:       s.DelayTimer,
		st:       s.SoundTimer,
		stack:    s.Stack,
		sp:       s.SP,
		updatePC: s.UpdatePCCycles,
		fontset:  s.Fontset,
		screen:   &screen,
		drawFlag: true, // present the restored frame on the first cycle
		count:    s.Count,
		resumed:  true,
		hw:       hw,
		logger:   logger,
		debug:    debug,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	return c, nil
}

func (s *snapshot) validate() error {
	switch {
	case int(s.SP) > StackSize:
		return fmt.Errorf("stack pointer %d exceeds stack size %d", s.SP, StackSize)
	case s.PC > lastFetchAddr:
		return fmt.Errorf("program counter %04X out of range", s.PC)
	case s.UpdatePCCycles != 0 && s.UpdatePCCycles != 2 && s.UpdatePCCycles != 4:
		return fmt.Errorf("invalid pc advance %d", s.UpdatePCCycles)
	case !s.Screen.valid():
		return errors.New("invalid screen geometry")
	}
	return nil
}

// SaveSnapshotFile writes a snapshot to path. The previous file at path
// is only replaced once the new snapshot has been written completely.
func (c *Chip8) SaveSnapshotFile(path string) error {
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating snapshot file: %w", err)
	}
	defer func() {
		_ = os.Remove(f.Name())
	}()

	if err := c.WriteSnapshot(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing snapshot file: %w", err)
	}
	if err := os.Rename(f.Name(), path); err != nil {
		return fmt.Errorf("renaming snapshot file: %w", err)
	}
	return nil
}

// LoadSnapshotFile reads a snapshot written by SaveSnapshotFile.
func LoadSnapshotFile(path string, hw Hardware, logger *log.Logger, debug bool) (*Chip8, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	c, err := ReadSnapshot(f, hw, logger, debug)
	if err != nil {
		if errors.Is(err, ErrMalformedSnapshot) {
			return nil, fmt.Errorf("'%s': %w", path, err)
		}
		return nil, fmt.Errorf("reading snapshot file: %w", err)
	}
	return c, nil
}

// recordingReader remembers the first error of the wrapped reader other
// than io.EOF, so decoder failures can be told apart from I/O failures.
type recordingReader struct {
	r   io.Reader
	err error
}

func (rr *recordingReader) Read(p []byte) (int, error) {
	n, err := rr.r.Read(p)
	if err != nil && !errors.Is(err, io.EOF) && rr.err == nil {
		rr.err = err
	}
	return n, err
}
