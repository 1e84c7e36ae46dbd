package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tuboc/chip8vm/options"
)

func TestEmulator(t *testing.T) {
	opts, err := options.ParseFlags([]string{"chip8vm", "-rate", "1ms", "-save", "out.state", "pong.ch8"})
	require.NoError(t, err)

	cfg := Emulator(opts)
	assert.Equal(t, time.Millisecond, cfg.CycleRate)
	assert.Equal(t, "out.state", cfg.SavePath)
}

func TestCreateLogger(t *testing.T) {
	assert.NotNil(t, CreateLogger(false, false))
	assert.NotNil(t, CreateLogger(true, false))
	assert.NotNil(t, CreateLogger(false, true))
}
