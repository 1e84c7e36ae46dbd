package emulator

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownInstruction = errors.New("unknown instruction")
	ErrStackOverflow      = errors.New("stack overflow")
	ErrStackUnderflow     = errors.New("stack underflow")
	ErrAddressOutOfRange  = errors.New("address out of range")
	ErrInvalidRegister    = errors.New("invalid register")
	ErrROMTooLarge        = errors.New("rom does not fit into memory")
	ErrMalformedSnapshot  = errors.New("not a valid save file")
)

// Fault is a fatal execution error raised by the instruction at PC.
type Fault struct {
	PC     uint16
	Opcode Opcode
	Err    error
}

func (f *Fault) Error() string {
	return fmt.Sprintf("%03X-%04X %s: %v", f.PC, f.Opcode.Value, f.Opcode.Mnemonic(), f.Err)
}

func (f *Fault) Unwrap() error {
	return f.Err
}
