package emulator

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/retroenv/retrogolib/log"
)

const (
	Chip8DisplayW = 64
	Chip8DisplayH = 32
	MemorySize    = 4096
	RegisterCount = 16
	StackSize     = 16
	KeyCount      = 16
	ProgramOffset = 0x200
	FontOffset    = 0x000
	OpHistoryNum  = 16

	lastFetchAddr = MemorySize - 2
)

// Chip8 is the machine state: memory, registers, stack, timers and the
// screen it draws on. It is owned by a single goroutine.
type Chip8 struct {
	mem      [MemorySize]uint8     // memory
	pc       uint16                // program counter
	v        [RegisterCount]uint8  // registers
	i        uint16                // index register
	dt       uint8                 // delay timer
	st       uint8                 // sound timer
	sp       uint8                 // next free stack slot
	stack    [StackSize]uint16     // return addresses
	updatePC uint16                // bytes to advance pc after the current instruction
	fontset  [len(characterSprites)]uint8
	screen   *Screen
	drawFlag bool
	count    uint64 // executed cycles

	opcode Opcode
	hw     Hardware
	logger *log.Logger
	debug  bool
	rnd    *rand.Rand

	// restored from a snapshot taken before the pc advance of its cycle
	resumed bool

	ophistory      [OpHistoryNum]string
	ophistoryIndex int
}

var characterSprites = [80]uint8{
	0xF0, 0x90, 0x90, 0x90, 0xF0, // 0
	0x20, 0x60, 0x20, 0x20, 0x70, // 1
	0xF0, 0x10, 0xF0, 0x80, 0xF0, // 2
	0xF0, 0x10, 0xF0, 0x10, 0xF0, // 3
	0x90, 0x90, 0xF0, 0x10, 0x10, // 4
	0xF0, 0x80, 0xF0, 0x10, 0xF0, // 5
	0xF0, 0x80, 0xF0, 0x90, 0xF0, // 6
	0xF0, 0x10, 0x20, 0x40, 0x40, // 7
	0xF0, 0x90, 0xF0, 0x90, 0xF0, // 8
	0xF0, 0x90, 0xF0, 0x10, 0xF0, // 9
	0xF0, 0x90, 0xF0, 0x90, 0x90, // A
	0xE0, 0x90, 0xE0, 0x90, 0xE0, // B
	0xF0, 0x80, 0x80, 0x80, 0xF0, // C
	0xE0, 0x90, 0x90, 0x90, 0xE0, // D
	0xF0, 0x80, 0xF0, 0x80, 0xF0, // E
	0xF0, 0x80, 0xF0, 0x80, 0x80, // F
}

// NewChip8 returns a powered-on machine with the font loaded and an
// empty program area. A nil screen gets a 64x32 screen at scale 1.
func NewChip8(hw Hardware, screen *Screen, logger *log.Logger, debug bool) *Chip8 {
	if screen == nil {
		screen, _ = NewDefaultScreen(1)
	}
	c := &Chip8{
		pc:      ProgramOffset,
		fontset: characterSprites,
		screen:  screen,
		hw:      hw,
		logger:  logger,
		debug:   debug,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	copy(c.mem[FontOffset:], c.fontset[:])
	return c
}

// LoadROM copies a program image to ProgramOffset.
func (c *Chip8) LoadROM(b []byte) error {
	if len(b) > MemorySize-ProgramOffset {
		return fmt.Errorf("%w: %d bytes, at most %d", ErrROMTooLarge, len(b), MemorySize-ProgramOffset)
	}
	copy(c.mem[ProgramOffset:], b)
	return nil
}

func (c *Chip8) Screen() *Screen {
	return c.screen
}

// PC returns the program counter.
func (c *Chip8) PC() uint16 {
	return c.pc
}

// Cycles returns the number of executed cycles.
func (c *Chip8) Cycles() uint64 {
	return c.count
}

// SoundActive reports whether the sound timer is running.
func (c *Chip8) SoundActive() bool {
	return c.st > 0
}

// History returns the mnemonics of the last executed instructions,
// oldest first.
func (c *Chip8) History() []string {
	h := make([]string, 0, OpHistoryNum)
	for n := 0; n < OpHistoryNum; n++ {
		s := c.ophistory[(c.ophistoryIndex+n)%OpHistoryNum]
		if s != "" {
			h = append(h, s)
		}
	}
	return h
}

// step fetches and executes one instruction without advancing pc.
func (c *Chip8) step() error {
	if err := c.fetchOpcode(); err != nil {
		return err
	}
	c.count++

	if c.debug {
		c.logger.Debug("Executing opcode",
			log.Hex("pc", c.pc),
			log.String("opcode", c.opcode.Mnemonic()),
			log.String("registers", fmt.Sprintf("% X", c.v[:])),
			log.Hex("i", c.i))
	}

	c.ophistory[c.ophistoryIndex] = fmt.Sprintf("%03X-%04X %s", c.pc, c.opcode.Value, c.opcode.Mnemonic())
	c.ophistoryIndex = (c.ophistoryIndex + 1) % OpHistoryNum

	if err := c.execOpcode(); err != nil {
		return &Fault{PC: c.pc, Opcode: c.opcode, Err: err}
	}
	return nil
}

func (c *Chip8) fetchOpcode() error {
	if c.pc > lastFetchAddr {
		return &Fault{PC: c.pc, Err: fmt.Errorf("%w: fetch at %04X", ErrAddressOutOfRange, c.pc)}
	}
	c.opcode = Decode(c.peekOpcode())
	return nil
}

// peekOpcode reads the word at pc without decoding it.
func (c *Chip8) peekOpcode() uint16 {
	if c.pc > lastFetchAddr {
		return 0
	}
	return uint16(c.mem[c.pc])<<8 | uint16(c.mem[c.pc+1])
}

func (c *Chip8) advancePC() {
	c.pc += c.updatePC
}

// presentScreen hands the screen to the hardware if an instruction
// changed it since the last frame.
func (c *Chip8) presentScreen() {
	if c.drawFlag {
		c.hw.Draw(c.screen)
		c.drawFlag = false
	}
}

func (c *Chip8) decrementTimer() {
	if c.dt > 0 {
		c.dt--
	}
	if c.st > 0 {
		c.st--
	}
}

func (c *Chip8) updateCarryFlag(b bool) {
	if b {
		c.v[0xf] = 1
	} else {
		c.v[0xf] = 0
	}
}

func (c *Chip8) pushStack(v uint16) error {
	if int(c.sp) >= StackSize {
		return ErrStackOverflow
	}
	c.stack[c.sp] = v
	c.sp++
	return nil
}

func (c *Chip8) popStack() (uint16, error) {
	if c.sp == 0 {
		return 0, ErrStackUnderflow
	}
	c.sp--
	return c.stack[c.sp], nil
}

// checkRange fails if n bytes starting at addr leave memory.
func checkRange(addr uint16, n int) error {
	if int(addr)+n > MemorySize {
		return fmt.Errorf("%w: %d bytes at %04X", ErrAddressOutOfRange, n, addr)
	}
	return nil
}

// draw XORs an 8 pixel wide, n rows high sprite from memory[i] onto the
// screen at (x, y). Pixels outside the screen are clipped. It returns
// whether any lit pixel was turned off.
func (c *Chip8) draw(x, y, n uint8) (bool, error) {
	if err := checkRange(c.i, int(n)); err != nil {
		return false, err
	}

	flipped := false
	sm := c.mem[c.i:]
	for iy := 0; iy < int(n); iy++ {
		for ix := 0; ix < 8; ix++ {
			tx := int(x) + ix
			ty := int(y) + iy
			if !c.screen.InBounds(tx, ty) {
				continue
			}

			if (sm[iy]>>(7-ix))&0x01 == 0 {
				continue
			}
			if c.screen.XorPixel(tx, ty) {
				flipped = true
			}
		}
	}
	c.drawFlag = true
	return flipped, nil
}
