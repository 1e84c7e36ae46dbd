//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package termhw

import (
	"errors"

	"github.com/retroenv/retrogolib/log"
	"github.com/tuboc/chip8vm/emulator"
)

// DefaultHoldPolls is how many polls a key stays down after its byte was
// read.
const DefaultHoldPolls = 32

// ErrUnsupportedPlatform is returned by New on systems without termios.
var ErrUnsupportedPlatform = errors.New("terminal backend is not supported on this platform")

// Hardware is unavailable on this platform.
type Hardware struct {
	emulator.NullHardware
}

var _ emulator.Hardware = (*Hardware)(nil)

func New(_ *log.Logger, _ int) (*Hardware, error) {
	return nil, ErrUnsupportedPlatform
}
