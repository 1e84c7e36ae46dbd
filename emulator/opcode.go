package emulator

import (
	"fmt"
	"strings"

	"github.com/retroenv/retrogolib/arch/cpu/chip8"
)

// Opcode is the decoded view of one 16-bit instruction word.
type Opcode struct {
	Value   uint16 // raw instruction word
	X       uint8  // register index in bits 8-11
	Y       uint8  // register index in bits 4-7
	Literal uint16 // low 12 bits, NNN
}

// Decode splits an instruction word into its fields. Every word decodes,
// whether or not it names a real instruction.
func Decode(value uint16) Opcode {
	return Opcode{
		Value:   value,
		X:       uint8((value >> 8) & 0xf),
		Y:       uint8((value >> 4) & 0xf),
		Literal: value & 0x0fff,
	}
}

// Class returns the top nibble.
func (o Opcode) Class() uint8 {
	return uint8(o.Value >> 12)
}

// Byte returns the low byte, NN.
func (o Opcode) Byte() uint8 {
	return uint8(o.Value & 0xff)
}

// Nibble returns the low nibble, N.
func (o Opcode) Nibble() uint8 {
	return uint8(o.Value & 0xf)
}

func (o Opcode) String() string {
	return fmt.Sprintf("Value: 0x%04X X: %d Y: %d Literal: 0x%03X", o.Value, o.X, o.Y, o.Literal)
}

// Mnemonic renders the opcode as assembly text, "???" for words that
// do not name an instruction.
func (o Opcode) Mnemonic() string {
	x, y, nn, nnn := o.X, o.Y, o.Byte(), o.Literal

	switch o.Class() {
	case 0x0:
		switch o.Value {
		case 0x00E0:
			return op(chip8.Cls.Name, "")
		case 0x00EE:
			return op(chip8.Ret.Name, "")
		}
	case 0x1:
		return op(chip8.Jp.Name, "#%03X", nnn)
	case 0x2:
		return op(chip8.Call.Name, "#%03X", nnn)
	case 0x3:
		return op(chip8.Se.Name, "V%X,#%02X", x, nn)
	case 0x4:
		return op(chip8.Sne.Name, "V%X,#%02X", x, nn)
	case 0x5:
		return op(chip8.Se.Name, "V%X,V%X", x, y)
	case 0x6:
		return op(chip8.Ld.Name, "V%X,#%02X", x, nn)
	case 0x7:
		return op(chip8.Add.Name, "V%X,#%02X", x, nn)
	case 0x8:
		switch o.Nibble() {
		case 0x0:
			return op(chip8.Ld.Name, "V%X,V%X", x, y)
		case 0x1:
			return op(chip8.Or.Name, "V%X,V%X", x, y)
		case 0x2:
			return op(chip8.And.Name, "V%X,V%X", x, y)
		case 0x3:
			return op(chip8.Xor.Name, "V%X,V%X", x, y)
		case 0x4:
			return op(chip8.Add.Name, "V%X,V%X", x, y)
		case 0x5:
			return op(chip8.Sub.Name, "V%X,V%X", x, y)
		case 0x6:
			return op(chip8.Shr.Name, "V%X", x)
		case 0x7:
			return op(chip8.Subn.Name, "V%X,V%X", x, y)
		case 0xE:
			return op(chip8.Shl.Name, "V%X", x)
		}
	case 0x9:
		return op(chip8.Sne.Name, "V%X,V%X", x, y)
	case 0xA:
		return op(chip8.Ld.Name, "I,#%03X", nnn)
	case 0xB:
		return op(chip8.Jp.Name, "V0,#%03X", nnn)
	case 0xC:
		return op(chip8.Rnd.Name, "V%X,#%02X", x, nn)
	case 0xD:
		return op(chip8.Drw.Name, "V%X,V%X,%d", x, y, o.Nibble())
	case 0xE:
		switch nn {
		case 0x9E:
			return op(chip8.Skp.Name, "V%X", x)
		case 0xA1:
			return op(chip8.Sknp.Name, "V%X", x)
		}
	case 0xF:
		switch nn {
		case 0x07:
			return op(chip8.Ld.Name, "V%X,DT", x)
		case 0x0A:
			return op(chip8.Ld.Name, "V%X,K", x)
		case 0x15:
			return op(chip8.Ld.Name, "DT,V%X", x)
		case 0x18:
			return op(chip8.Ld.Name, "ST,V%X", x)
		case 0x1E:
			return op(chip8.Add.Name, "I,V%X", x)
		case 0x29:
			return op(chip8.Ld.Name, "F,V%X", x)
		case 0x33:
			return op(chip8.Ld.Name, "B,V%X", x)
		case 0x55:
			return op(chip8.Ld.Name, "[I],V%X", x)
		case 0x65:
			return op(chip8.Ld.Name, "V%X,[I]", x)
		}
	}
	return "???"
}

func op(name, format string, args ...any) string {
	name = strings.ToUpper(name)
	if format == "" {
		return name
	}
	return fmt.Sprintf("%-4s %s", name, fmt.Sprintf(format, args...))
}
