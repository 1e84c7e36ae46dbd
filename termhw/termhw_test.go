//go:build linux || darwin || freebsd || netbsd || openbsd

package termhw

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tuboc/chip8vm/emulator"
)

func TestRenderFrame(t *testing.T) {
	s, err := emulator.NewDefaultScreen(1)
	require.NoError(t, err)
	s.XorPixel(0, 0)
	s.XorPixel(0, 1)
	s.XorPixel(1, 0)
	s.XorPixel(2, 1)

	var buf bytes.Buffer
	renderFrame(&buf, s)

	out := buf.String()
	require.True(t, strings.HasPrefix(out, "\x1b[H"))
	lines := strings.Split(strings.TrimSuffix(strings.TrimPrefix(out, "\x1b[H"), "\r\n"), "\r\n")
	require.Len(t, lines, emulator.Chip8DisplayH/2)

	first := []rune(lines[0])
	require.Len(t, first, emulator.Chip8DisplayW)
	assert.Equal(t, '█', first[0])
	assert.Equal(t, '▀', first[1])
	assert.Equal(t, '▄', first[2])
	assert.Equal(t, ' ', first[3])
	assert.Equal(t, strings.Repeat(" ", emulator.Chip8DisplayW), lines[1])
}

func TestHandleInput(t *testing.T) {
	h := &Hardware{holdPolls: 2}

	assert.Equal(t, emulator.Continue, h.handleInput([]byte("1V")))
	assert.True(t, h.KeyPressed(0x1))
	assert.True(t, h.KeyPressed(0xf))
	assert.False(t, h.KeyPressed(0x2))
	assert.False(t, h.KeyPressed(0x10))

	// held for one more poll, then released
	assert.Equal(t, emulator.Continue, h.handleInput(nil))
	assert.True(t, h.Keys()[0x1])
	h.handleInput(nil)
	assert.False(t, h.Keys()[0x1])

	assert.Equal(t, emulator.SaveState, h.handleInput([]byte{keyCtrlS}))
	assert.Equal(t, emulator.Exit, h.handleInput([]byte{'q', keyEscape}))
	assert.True(t, h.KeyPressed(0x4))

	// arrow key sequences are ignored
	assert.Equal(t, emulator.Continue, h.handleInput([]byte{keyEscape, '[', 'A'}))
}
