package emulator

// PollResult tells the scheduler what the host wants after a cycle.
type PollResult int

const (
	Continue PollResult = iota
	Exit
	SaveState
)

func (r PollResult) String() string {
	switch r {
	case Continue:
		return "continue"
	case Exit:
		return "exit"
	case SaveState:
		return "save state"
	default:
		return "unknown"
	}
}

// Hardware is the host side of the machine: presentation, keyboard and
// sound output.
type Hardware interface {
	// Draw presents the screen.
	Draw(s *Screen)
	// Poll processes pending host events and refreshes the key state.
	Poll() PollResult
	// Keys returns the pressed state of all 16 keys.
	Keys() [KeyCount]bool
	KeyPressed(key uint8) bool
	// Sound switches the buzzer on or off.
	Sound(on bool)
	Close() error
}

// NullHardware is a Hardware that presents nothing. Keys can be set
// directly and Results is consumed one entry per Poll, Continue once it
// runs out.
type NullHardware struct {
	KeyState [KeyCount]bool
	Results  []PollResult
	Frames   int
	Beeping  bool
	Polls    int
}

func (h *NullHardware) Draw(*Screen) {
	h.Frames++
}

func (h *NullHardware) Poll() PollResult {
	h.Polls++
	if len(h.Results) == 0 {
		return Continue
	}
	r := h.Results[0]
	h.Results = h.Results[1:]
	return r
}

func (h *NullHardware) Keys() [KeyCount]bool {
	return h.KeyState
}

func (h *NullHardware) KeyPressed(key uint8) bool {
	if int(key) >= KeyCount {
		return false
	}
	return h.KeyState[key]
}

func (h *NullHardware) Sound(on bool) {
	h.Beeping = on
}

func (h *NullHardware) Close() error {
	return nil
}
