// Package sdlhw presents a CHIP-8 machine in an SDL window and reads its
// keypad from the keyboard.
package sdlhw

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/retroenv/retrogolib/log"
	"github.com/tuboc/chip8vm/emulator"
	"github.com/veandco/go-sdl2/sdl"
)

const (
	AudioFrequency = 60
	AudioSamples   = 64
	PauseDelayMs   = 16
)

var scanCode2Key = map[int]byte{
	sdl.SCANCODE_1: 0x1,
	sdl.SCANCODE_2: 0x2,
	sdl.SCANCODE_3: 0x3,
	sdl.SCANCODE_4: 0xc,
	sdl.SCANCODE_Q: 0x4,
	sdl.SCANCODE_W: 0x5,
	sdl.SCANCODE_E: 0x6,
	sdl.SCANCODE_R: 0xd,
	sdl.SCANCODE_A: 0x7,
	sdl.SCANCODE_S: 0x8,
	sdl.SCANCODE_D: 0x9,
	sdl.SCANCODE_F: 0xe,
	sdl.SCANCODE_Z: 0xa,
	sdl.SCANCODE_X: 0x0,
	sdl.SCANCODE_C: 0xb,
	sdl.SCANCODE_V: 0xf,
}

// Hardware is an SDL window with keyboard input and a beeper.
// Escape or closing the window exits, F5 requests a save state and P
// toggles pause. Emulation is also paused while the window has no focus.
type Hardware struct {
	logger   *log.Logger
	window   *sdl.Window
	renderer *sdl.Renderer
	audio    sdl.AudioDeviceID
	beep     []byte

	// window geometry, fixed when the window is opened
	width, xscale, yscale int32

	keys   [emulator.KeyCount]bool
	last   *emulator.Screen
	paused bool
	focus  bool
}

var _ emulator.Hardware = (*Hardware)(nil)

// New opens a window sized for the screen.
func New(title string, screen *emulator.Screen, logger *log.Logger) (*Hardware, error) {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_AUDIO | sdl.INIT_EVENTS); err != nil {
		return nil, fmt.Errorf("initializing sdl: %w", err)
	}

	h := &Hardware{
		logger: logger,
		width:  int32(screen.Width),
		xscale: int32(screen.XScale),
		yscale: int32(screen.YScale),
		last:   screen,
		focus:  true,
		beep:   sineWave(),
	}

	if err := h.initRenderer(title, screen); err != nil {
		sdl.Quit()
		return nil, err
	}

	if err := h.initAudio(); err != nil {
		// the machine runs fine without sound
		logger.Error("Opening audio device failed", log.Err(err))
	}

	return h, nil
}

func (h *Hardware) initRenderer(title string, screen *emulator.Screen) error {
	window, err := sdl.CreateWindow(title, sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		int32(screen.Width), int32(screen.Height), sdl.WINDOW_SHOWN)
	if err != nil {
		return fmt.Errorf("creating window: %w", err)
	}

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED)
	if err != nil {
		_ = window.Destroy()
		return fmt.Errorf("creating renderer: %w", err)
	}

	// workaround for https://bugzilla.libsdl.org/show_bug.cgi?id=4272
	// 	or update sdl2 to 2.0.9
	window.Hide()
	sdl.PumpEvents()
	window.Show()

	h.window = window
	h.renderer = renderer
	return nil
}

func (h *Hardware) initAudio() error {
	want := &sdl.AudioSpec{
		Freq:     AudioSamples * AudioFrequency,
		Format:   sdl.AUDIO_F32LSB,
		Channels: 1,
		Samples:  AudioSamples,
	}
	have := &sdl.AudioSpec{}
	audio, err := sdl.OpenAudioDevice("", false, want, have, 0)
	if err != nil {
		return err
	}

	sdl.PauseAudioDevice(audio, false)
	h.audio = audio
	return nil
}

// sineWave returns one period of a tone as float32 samples.
func sineWave() []byte {
	samples := make([]byte, 4*AudioSamples)
	for i := 0; i < len(samples); i += 4 {
		f := 2.0 * math.Pi * float64(i/4) / AudioSamples
		binary.LittleEndian.PutUint32(samples[i:], math.Float32bits(float32(math.Sin(f))))
	}
	return samples
}

func (h *Hardware) Draw(s *emulator.Screen) {
	h.last = s
	h.render()
}

func (h *Hardware) render() {
	s := h.last
	_ = h.renderer.SetDrawColor(0, 0, 0, 255)
	_ = h.renderer.Clear()

	_ = h.renderer.SetDrawColor(0, 255, 0, 255)
	w, ht := h.xscale, h.yscale
	for p := range s.SetPixels() {
		_ = h.renderer.FillRect(&sdl.Rect{X: int32(p.X) * w, Y: int32(p.Y) * ht, W: w, H: ht})
	}

	if h.paused || !h.focus {
		h.drawPauseIcon()
	}

	h.renderer.Present()
}

// drawPauseIcon draws two bars in the top right corner.
func (h *Hardware) drawPauseIcon() {
	unit := h.xscale
	x := h.width - 5*unit
	y := unit

	_ = h.renderer.SetDrawColor(255, 255, 255, 255)
	_ = h.renderer.FillRect(&sdl.Rect{X: x, Y: y, W: unit, H: 3 * unit})
	_ = h.renderer.FillRect(&sdl.Rect{X: x + 2*unit, Y: y, W: unit, H: 3 * unit})
}

// Poll handles pending window events. While paused it does not return
// until the pause ends or the user asks to exit or save.
func (h *Hardware) Poll() emulator.PollResult {
	wasPaused := false
	for {
		res := h.pollEvents()
		if res != emulator.Continue {
			return res
		}

		paused := h.paused || !h.focus
		if !paused {
			if wasPaused {
				h.render()
			}
			return emulator.Continue
		}
		if !wasPaused {
			h.logger.Debug("Emulation paused")
			h.Sound(false)
			h.render()
			wasPaused = true
		}
		sdl.Delay(PauseDelayMs)
	}
}

func (h *Hardware) pollEvents() emulator.PollResult {
	res := emulator.Continue
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch ev := event.(type) {
		case *sdl.QuitEvent:
			return emulator.Exit

		case *sdl.KeyboardEvent:
			code := int(ev.Keysym.Scancode)
			switch ev.Type {
			case sdl.KEYDOWN:
				if i, ok := scanCode2Key[code]; ok {
					h.keys[i] = true
					continue
				}
				if ev.Repeat != 0 {
					continue
				}
				switch ev.Keysym.Scancode {
				case sdl.SCANCODE_ESCAPE:
					return emulator.Exit
				case sdl.SCANCODE_F5:
					res = emulator.SaveState
				case sdl.SCANCODE_P:
					h.paused = !h.paused
				}

			case sdl.KEYUP:
				if i, ok := scanCode2Key[code]; ok {
					h.keys[i] = false
				}
			}

		case *sdl.WindowEvent:
			switch ev.Event {
			case sdl.WINDOWEVENT_FOCUS_LOST:
				h.focus = false
			case sdl.WINDOWEVENT_FOCUS_GAINED:
				h.focus = true
			}
		}
	}
	return res
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

// Sound keeps a short tone queued while on is set.
func (h *Hardware) Sound(on bool) {
	if h.audio == 0 {
		return
	}
	if !on {
		sdl.ClearQueuedAudio(h.audio)
		return
	}
	if sdl.GetQueuedAudioSize(h.audio) >= uint32(2*len(h.beep)) {
		return
	}
	if err := sdl.QueueAudio(h.audio, h.beep); err != nil {
		h.logger.Error("Queueing audio failed", log.Err(err))
	}
}

func (h *Hardware) Close() error {
	if h.audio != 0 {
		sdl.CloseAudioDevice(h.audio)
	}
	if err := h.renderer.Destroy(); err != nil {
		return fmt.Errorf("destroying renderer: %w", err)
	}
	if err := h.window.Destroy(); err != nil {
		return fmt.Errorf("destroying window: %w", err)
	}
	sdl.Quit()
	return nil
}
