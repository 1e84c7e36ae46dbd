package emulator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewScreen(t *testing.T) {
	s, err := NewScreen(640, 320, 64, 32)
	require.NoError(t, err)
	assert.Equal(t, 10, s.XScale)
	assert.Equal(t, 10, s.YScale)
	assert.Len(t, s.Pixels, 64*32)

	_, err = NewScreen(0, 320, 64, 32)
	assert.Error(t, err)
	_, err = NewScreen(640, 320, 64, 0)
	assert.Error(t, err)
	_, err = NewScreen(32, 320, 64, 32)
	assert.Error(t, err)
	_, err = NewScreen(640, 16, 64, 32)
	assert.Error(t, err)
}

func TestScreenXorPixel(t *testing.T) {
	s, err := NewDefaultScreen(1)
	require.NoError(t, err)

	assert.False(t, s.XorPixel(3, 4))
	assert.True(t, s.Pixel(3, 4))
	assert.True(t, s.XorPixel(3, 4))
	assert.False(t, s.Pixel(3, 4))

	s.XorPixel(63, 31)
	s.XorPixel(0, 0)
	s.Clear()
	for range s.SetPixels() {
		t.Fatal("pixel still set after clear")
	}
}

func TestScreenInBounds(t *testing.T) {
	s, err := NewDefaultScreen(2)
	require.NoError(t, err)

	assert.True(t, s.InBounds(0, 0))
	assert.True(t, s.InBounds(63, 31))
	assert.False(t, s.InBounds(64, 0))
	assert.False(t, s.InBounds(0, 32))
	assert.False(t, s.InBounds(-1, 0))
}

func TestScreenSetPixels(t *testing.T) {
	s, err := NewDefaultScreen(1)
	require.NoError(t, err)

	s.XorPixel(5, 1)
	s.XorPixel(2, 0)
	s.XorPixel(63, 31)

	var got []Point
	for p := range s.SetPixels() {
		got = append(got, p)
	}
	assert.Equal(t, []Point{{2, 0}, {5, 1}, {63, 31}}, got)

	// stops early
	got = got[:0]
	for p := range s.SetPixels() {
		got = append(got, p)
		break
	}
	assert.Equal(t, []Point{{2, 0}}, got)
}
