package emulator

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/retroenv/retrogolib/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEmulator(t *testing.T, rom []byte, results ...PollResult) (*Emulator, *NullHardware) {
	t.Helper()

	c, hw := newTestChip8(t, rom)
	hw.Results = results
	e := NewEmulator(c, log.NewTestLogger(t), Config{
		CycleRate: time.Microsecond,
		SavePath:  filepath.Join(t.TempDir(), "test.state"),
	})
	return e, hw
}

func TestRunWithoutProgram(t *testing.T) {
	e, hw := newTestEmulator(t, nil)

	require.NoError(t, e.Run(context.Background()))
	assert.Equal(t, 0, hw.Polls)
	assert.Equal(t, uint64(0), e.Chip8().Cycles())
}

func TestRunUntilExit(t *testing.T) {
	e, hw := newTestEmulator(t, []byte{0x12, 0x00}, Continue, Continue, Exit)

	require.NoError(t, e.Run(context.Background()))
	assert.Equal(t, 3, hw.Polls)
	assert.Equal(t, uint64(3), e.Chip8().Cycles())
	assert.Equal(t, uint16(0x200), e.Chip8().PC())
}

func TestRunFault(t *testing.T) {
	e, _ := newTestEmulator(t, []byte{0x60, 0x01, 0x01, 0x23})

	err := e.Run(context.Background())
	assert.ErrorIs(t, err, ErrUnknownInstruction)

	var fault *Fault
	require.ErrorAs(t, err, &fault)
	assert.Equal(t, uint16(0x202), fault.PC)
}

func TestRunCancelled(t *testing.T) {
	e, _ := newTestEmulator(t, []byte{0x12, 0x00})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := e.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, uint64(1), e.Chip8().Cycles())
}

func TestRunPresentsDirtyFrames(t *testing.T) {
	rom := []byte{
		0x00, 0xE0, // CLS
		0x12, 0x02, // JP #202
	}
	e, hw := newTestEmulator(t, rom, Continue, Continue, Continue, Exit)

	require.NoError(t, e.Run(context.Background()))
	assert.Equal(t, 1, hw.Frames)
	assert.False(t, e.Chip8().drawFlag)
}

func TestRunTimersFollowCycles(t *testing.T) {
	rom := []byte{
		0x60, 0x05, // LD V0,#05
		0xF0, 0x15, // LD DT,V0
		0xF0, 0x18, // LD ST,V0
		0x12, 0x06, // JP #206
	}
	e, hw := newTestEmulator(t, rom, Continue, Continue, Continue, Exit)

	require.NoError(t, e.Run(context.Background()))
	c := e.Chip8()
	// DT was set in cycle 2 and decremented in cycles 2 to 4
	assert.Equal(t, uint8(2), c.dt)
	assert.Equal(t, uint8(3), c.st)
	assert.True(t, hw.Beeping)
}

func TestRunSaveState(t *testing.T) {
	rom := []byte{
		0x6A, 0x42, // LD VA,#42
		0x12, 0x02, // JP #202
	}
	e, _ := newTestEmulator(t, rom, SaveState, Exit)

	require.NoError(t, e.Run(context.Background()))

	r, err := LoadSnapshotFile(e.savePath, &NullHardware{}, log.NewTestLogger(t), false)
	require.NoError(t, err)
	assert.Equal(t, uint8(0x42), r.v[0xA])
	// saved before the pc advance of the saving cycle
	assert.Equal(t, uint16(0x200), r.pc)
	assert.Equal(t, uint16(2), r.updatePC)
	assert.Equal(t, uint64(1), r.count)
}

func TestRunResumesAfterSavedInstruction(t *testing.T) {
	rom := []byte{
		0x7A, 0x01, // ADD VA,#01
		0x12, 0x02, // JP #202
	}
	e, _ := newTestEmulator(t, rom, SaveState, Exit)
	require.NoError(t, e.Run(context.Background()))

	hw := &NullHardware{Results: []PollResult{Exit}}
	r, err := LoadSnapshotFile(e.savePath, hw, log.NewTestLogger(t), false)
	require.NoError(t, err)

	resumed := NewEmulator(r, log.NewTestLogger(t), Config{CycleRate: time.Microsecond})
	require.NoError(t, resumed.Run(context.Background()))
	// the ADD is not executed a second time
	assert.Equal(t, uint8(1), r.v[0xA])
	assert.Equal(t, uint16(0x202), r.pc)
	assert.Equal(t, uint64(2), r.count)
}

func TestRunResumedTimersMatchUninterruptedRun(t *testing.T) {
	rom := []byte{
		0x60, 0x05, // LD V0,#05
		0xF0, 0x15, // LD DT,V0
		0xF1, 0x07, // LD V1,DT
		0x12, 0x06, // JP #206
	}

	straight, _ := newTestEmulator(t, rom, Continue, Continue, Continue, Exit)
	require.NoError(t, straight.Run(context.Background()))
	want := straight.Chip8()

	// save in the cycle that sets DT
	e, _ := newTestEmulator(t, rom, Continue, SaveState, Exit)
	require.NoError(t, e.Run(context.Background()))

	hw := &NullHardware{Results: []PollResult{Continue, Exit}}
	r, err := LoadSnapshotFile(e.savePath, hw, log.NewTestLogger(t), false)
	require.NoError(t, err)
	assert.Equal(t, uint8(5), r.dt)

	resumed := NewEmulator(r, log.NewTestLogger(t), Config{CycleRate: time.Microsecond})
	require.NoError(t, resumed.Run(context.Background()))

	assert.Equal(t, uint8(4), want.v[1])
	assert.Equal(t, want.v[1], r.v[1])
	assert.Equal(t, want.dt, r.dt)
	assert.Equal(t, want.pc, r.pc)
	assert.Equal(t, want.count, r.count)
}

func TestRunResumedPastEndOfMemory(t *testing.T) {
	c, _ := newTestChip8(t, []byte{0x12, 0x00})
	c.pc = lastFetchAddr
	c.updatePC = 4

	var buf bytes.Buffer
	require.NoError(t, c.WriteSnapshot(&buf))
	r, err := ReadSnapshot(&buf, &NullHardware{}, log.NewTestLogger(t), false)
	require.NoError(t, err)

	e := NewEmulator(r, log.NewTestLogger(t), Config{CycleRate: time.Microsecond})
	err = e.Run(context.Background())
	assert.ErrorIs(t, err, ErrAddressOutOfRange)
	assert.Equal(t, uint64(0), r.Cycles())
}

func TestRunSaveStateWithoutPath(t *testing.T) {
	c, hw := newTestChip8(t, []byte{0x12, 0x00})
	hw.Results = []PollResult{SaveState, Exit}
	e := NewEmulator(c, log.NewTestLogger(t), Config{})

	assert.Equal(t, DefaultCycleRate, e.cycleRate)
	require.NoError(t, e.Run(context.Background()))
	assert.Equal(t, 2, hw.Polls)
}
