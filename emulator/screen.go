package emulator

import (
	"fmt"
	"iter"
)

// Point is a pixel coordinate on the Screen.
type Point struct {
	X, Y int
}

// Screen is the monochrome pixel grid the machine draws on. Width and
// Height are the host window size, ResWidth and ResHeight the emulated
// resolution.
type Screen struct {
	Width     int
	Height    int
	ResWidth  int
	ResHeight int
	XScale    int
	YScale    int
	Pixels    []bool // row major, ResWidth*ResHeight
}

// NewScreen creates a cleared screen. The window must be at least as
// large as the resolution in both directions.
func NewScreen(width, height, resWidth, resHeight int) (*Screen, error) {
	if width <= 0 || height <= 0 || resWidth <= 0 || resHeight <= 0 {
		return nil, fmt.Errorf("zero screen resolution: w%d h%d rw%d rh%d", width, height, resWidth, resHeight)
	}
	xs, ys := width/resWidth, height/resHeight
	if xs == 0 {
		return nil, fmt.Errorf("width %d does not divide into resolution width %d", width, resWidth)
	}
	if ys == 0 {
		return nil, fmt.Errorf("height %d does not divide into resolution height %d", height, resHeight)
	}

	return &Screen{
		Width:     width,
		Height:    height,
		ResWidth:  resWidth,
		ResHeight: resHeight,
		XScale:    xs,
		YScale:    ys,
		Pixels:    make([]bool, resWidth*resHeight),
	}, nil
}

// NewDefaultScreen creates a Chip8DisplayW x Chip8DisplayH screen with the
// given host pixel scale.
func NewDefaultScreen(scale int) (*Screen, error) {
	return NewScreen(Chip8DisplayW*scale, Chip8DisplayH*scale, Chip8DisplayW, Chip8DisplayH)
}

func (s *Screen) Clear() {
	clear(s.Pixels)
}

// XorPixel flips the pixel and returns its previous state. The
// coordinate must be in bounds.
func (s *Screen) XorPixel(x, y int) bool {
	i := y*s.ResWidth + x
	prev := s.Pixels[i]
	s.Pixels[i] = !prev
	return prev
}

func (s *Screen) Pixel(x, y int) bool {
	return s.Pixels[y*s.ResWidth+x]
}

func (s *Screen) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < s.ResWidth && y < s.ResHeight
}

// SetPixels yields the coordinates of every lit pixel, row by row.
func (s *Screen) SetPixels() iter.Seq[Point] {
	return func(yield func(Point) bool) {
		for i, on := range s.Pixels {
			if !on {
				continue
			}
			if !yield(Point{X: i % s.ResWidth, Y: i / s.ResWidth}) {
				return
			}
		}
	}
}

func (s *Screen) valid() bool {
	return s.ResWidth == Chip8DisplayW && s.ResHeight == Chip8DisplayH &&
		len(s.Pixels) == s.ResWidth*s.ResHeight &&
		s.XScale > 0 && s.YScale > 0
}
