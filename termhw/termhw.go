//go:build linux || darwin || freebsd || netbsd || openbsd

// Package termhw presents a CHIP-8 machine in a terminal using ANSI
// escape codes, reading the keypad from stdin in raw mode.
package termhw

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/retroenv/retrogolib/log"
	"github.com/tuboc/chip8vm/emulator"
	"golang.org/x/sys/unix"
)

// DefaultHoldPolls is how many polls a key stays down after its byte was
// read. Terminals report no key releases.
const DefaultHoldPolls = 32

const (
	keyEscape = 0x1b
	keyCtrlS  = 0x13
)

var char2Key = map[byte]byte{
	'1': 0x1, '2': 0x2, '3': 0x3, '4': 0xc,
	'q': 0x4, 'w': 0x5, 'e': 0x6, 'r': 0xd,
	'a': 0x7, 's': 0x8, 'd': 0x9, 'f': 0xe,
	'z': 0xa, 'x': 0x0, 'c': 0xb, 'v': 0xf,
}

// Hardware draws into the terminal. Escape exits, Ctrl+S requests a save
// state.
type Hardware struct {
	logger    *log.Logger
	fd        int
	out       *bufio.Writer
	restore   unix.Termios
	holdPolls int
	hold      [emulator.KeyCount]int
	keys      [emulator.KeyCount]bool
	buf       []byte
	beeping   bool
}

var _ emulator.Hardware = (*Hardware)(nil)

// New switches stdin to raw mode.
func New(logger *log.Logger, holdPolls int) (*Hardware, error) {
	if holdPolls <= 0 {
		holdPolls = DefaultHoldPolls
	}
	h := &Hardware{
		logger:    logger,
		fd:        int(os.Stdin.Fd()),
		out:       bufio.NewWriter(os.Stdout),
		holdPolls: holdPolls,
		buf:       make([]byte, 64),
	}
	if err := h.enterRawTerm(); err != nil {
		return nil, err
	}

	// clear, hide cursor
	_, _ = h.out.WriteString("\x1b[2J\x1b[?25l")
	_ = h.out.Flush()
	return h, nil
}

func (h *Hardware) enterRawTerm() error {
	termios, err := unix.IoctlGetTermios(h.fd, ioctlGetTermios)
	if err != nil {
		return fmt.Errorf("reading terminal state: %w", err)
	}

	h.restore = *termios
	termstate := *termios

	termstate.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.INLCR | unix.IXON
	termstate.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.IEXTEN
	termstate.Cflag &^= unix.CSIZE | unix.PARENB
	termstate.Cflag |= unix.CS8

	// reads return immediately, with or without input
	termstate.Cc[unix.VMIN] = 0
	termstate.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(h.fd, ioctlSetTermios, &termstate); err != nil {
		return fmt.Errorf("setting raw terminal mode: %w", err)
	}
	return nil
}

func (h *Hardware) Draw(s *emulator.Screen) {
	renderFrame(h.out, s)
	if err := h.out.Flush(); err != nil {
		h.logger.Error("Writing frame failed", log.Err(err))
	}
}

// renderFrame writes the screen using half block characters, two pixel
// rows per text line.
func renderFrame(w io.Writer, s *emulator.Screen) {
	_, _ = io.WriteString(w, "\x1b[H")
	line := make([]rune, 0, s.ResWidth)
	for y := 0; y < s.ResHeight; y += 2 {
		line = line[:0]
		for x := 0; x < s.ResWidth; x++ {
			top := s.Pixel(x, y)
			bottom := y+1 < s.ResHeight && s.Pixel(x, y+1)
			switch {
			case top && bottom:
				line = append(line, '█')
			case top:
				line = append(line, '▀')
			case bottom:
				line = append(line, '▄')
			default:
				line = append(line, ' ')
			}
		}
		_, _ = io.WriteString(w, string(line)+"\r\n")
	}
}

func (h *Hardware) Poll() emulator.PollResult {
	n, err := unix.Read(h.fd, h.buf)
	if err != nil && err != unix.EAGAIN && err != unix.EINTR {
		h.logger.Error("Reading keyboard failed", log.Err(err))
	}
	if n < 0 {
		n = 0
	}
	return h.handleInput(h.buf[:n])
}

// handleInput ages held keys and applies the bytes read in this poll.
func (h *Hardware) handleInput(b []byte) emulator.PollResult {
	for i := range h.hold {
		if h.hold[i] > 0 {
			h.hold[i]--
		}
	}

	res := emulator.Continue
	for i := 0; i < len(b); i++ {
		c := b[i]
		switch {
		case c == keyEscape:
			if i == len(b)-1 {
				res = emulator.Exit
			}
			// anything after it is an escape sequence of a function or arrow key
			i = len(b)
		case c == keyCtrlS && res == emulator.Continue:
			res = emulator.SaveState
		default:
			if k, ok := char2Key[lower(c)]; ok {
				h.hold[k] = h.holdPolls
			}
		}
	}

	for i := range h.keys {
		h.keys[i] = h.hold[i] > 0
	}
	return res
}

func lower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + 'a' - 'A'
	}
	return c
}

func (h *Hardware) Keys() [emulator.KeyCount]bool {
	return h.keys
}

func (h *Hardware) KeyPressed(key uint8) bool {
	if int(key) >= emulator.KeyCount {
		return false
	}
	return h.keys[key]
}

// Sound rings the terminal bell when the buzzer switches on.
func (h *Hardware) Sound(on bool) {
	if on && !h.beeping {
		_, _ = h.out.WriteString("\a")
		_ = h.out.Flush()
	}
	h.beeping = on
}

// Close restores the terminal.
func (h *Hardware) Close() error {
	_, _ = h.out.WriteString("\x1b[?25h\r\n")
	_ = h.out.Flush()

	if err := unix.IoctlSetTermios(h.fd, ioctlSetTermios, &h.restore); err != nil {
		return fmt.Errorf("restoring terminal mode: %w", err)
	}
	return nil
}
