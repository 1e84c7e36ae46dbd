// Package options contains the program options.
package options

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"
)

// Backends that can present the machine.
const (
	BackendSDL      = "sdl"
	BackendTerminal = "term"
)

// Program options of the emulator.
type Program struct {
	ROM       string        // program image to run
	Load      string        // snapshot to resume from instead of a ROM
	Save      string        // snapshot destination, defaults to <rom>.state
	Backend   string        // sdl or term
	Title     string        // window title
	Scale     int           // host pixels per emulated pixel
	CycleRate time.Duration // wall clock time per cycle
	Debug     bool
	Quiet     bool
}

// UsageError represents an error that should show usage information
type UsageError struct {
	flags *flag.FlagSet
	msg   string
}

func (e *UsageError) Error() string {
	return e.msg
}

// ShowUsage prints the usage text to w.
func (e *UsageError) ShowUsage(w io.Writer) {
	_, _ = fmt.Fprintf(w, "usage: chip8vm [options] [-f] <rom file>\n\n")
	e.flags.SetOutput(w)
	e.flags.PrintDefaults()
	_, _ = fmt.Fprintln(w)
}

// ParseFlags parses the command line, args[0] being the program name.
func ParseFlags(args []string) (Program, error) {
	flags := flag.NewFlagSet(args[0], flag.ContinueOnError)
	flags.SetOutput(io.Discard)

	var opts Program
	flags.StringVar(&opts.ROM, "f", "", "chip8 image file path")
	flags.StringVar(&opts.Load, "load", "", "resume from a saved state file")
	flags.StringVar(&opts.Save, "save", "", "save state file (default: <rom>.state)")
	flags.StringVar(&opts.Backend, "backend", BackendSDL, "presentation backend: sdl, term")
	flags.StringVar(&opts.Title, "title", "Chip-8 Emulator", "window title")
	flags.IntVar(&opts.Scale, "scale", 10, "display scale")
	flags.DurationVar(&opts.CycleRate, "rate", 2*time.Millisecond, "duration of one cycle")
	flags.BoolVar(&opts.Debug, "debug", false, "enable debug logging of every executed instruction")
	flags.BoolVar(&opts.Quiet, "q", false, "quiet mode")

	if err := flags.Parse(args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return opts, &UsageError{flags: flags}
		}
		return opts, &UsageError{flags: flags, msg: err.Error()}
	}

	rest := flags.Args()
	if opts.ROM == "" && len(rest) == 1 {
		opts.ROM = rest[0]
		rest = rest[1:]
	}
	if len(rest) > 0 {
		return opts, &UsageError{flags: flags, msg: fmt.Sprintf("unexpected arguments: %s", strings.Join(rest, " "))}
	}
	if opts.ROM == "" && opts.Load == "" {
		return opts, &UsageError{flags: flags, msg: "no rom or save state file given"}
	}

	if err := normalizeOptions(&opts); err != nil {
		return opts, err
	}
	return opts, nil
}

// normalizeOptions validates option values and fills in derived ones.
func normalizeOptions(opts *Program) error {
	opts.Backend = strings.ToLower(opts.Backend)
	if opts.Backend != BackendSDL && opts.Backend != BackendTerminal {
		return fmt.Errorf("unsupported backend: %s. Valid options: %s, %s",
			opts.Backend, BackendSDL, BackendTerminal)
	}
	if opts.Scale < 1 {
		return fmt.Errorf("invalid display scale %d", opts.Scale)
	}
	if opts.CycleRate <= 0 {
		return fmt.Errorf("invalid cycle rate %s", opts.CycleRate)
	}

	if opts.Save == "" {
		switch {
		case opts.Load != "":
			opts.Save = opts.Load
		default:
			opts.Save = opts.ROM + ".state"
		}
	}
	return nil
}
