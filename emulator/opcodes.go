package emulator

import (
	"fmt"

	"golang.org/x/exp/slices"
)

func (c *Chip8) execOpcode() error {
	c.updatePC = 2 // unless overridden

	op := c.opcode
	nnn := op.Literal
	nn := op.Byte()
	x := op.X
	y := op.Y
	n := op.Nibble()

	if x >= RegisterCount || y >= RegisterCount {
		return fmt.Errorf("%w: V%d,V%d", ErrInvalidRegister, x, y)
	}

	switch op.Class() {
	case 0x0:
		switch op.Value {
		case 0x00E0: // clear display
			c.screen.Clear()
			c.drawFlag = true

		case 0x00EE: // return from subroutine
			r, err := c.popStack()
			if err != nil {
				return err
			}
			// r is the address of the call, the default advance steps past it
			c.pc = r

		default:
			return ErrUnknownInstruction
		}

	case 0x1: // goto 0x0NNN
		c.pc = nnn
		c.updatePC = 0

	case 0x2: // call 0x0NNN
		if err := c.pushStack(c.pc); err != nil {
			return err
		}
		c.pc = nnn
		c.updatePC = 0

	case 0x3: // 0x3XNN if(Vx==NN)
		if c.v[x] == nn {
			c.updatePC = 4
		}

	case 0x4: // 0x4XNN if(Vx!=NN)
		if c.v[x] != nn {
			c.updatePC = 4
		}

	case 0x5: // 0x5XY0 if(Vx==Vy)
		if c.v[x] == c.v[y] {
			c.updatePC = 4
		}

	case 0x6: // 6XNN Vx = NN
		c.v[x] = nn

	case 0x7: // 7XNN Vx += NN (Carry flag is not changed)
		c.v[x] += nn

	case 0x8:
		switch n {
		case 0x0: // 8XY0 Vx=Vy
			c.v[x] = c.v[y]

		case 0x1: // 8XY1 Vx=Vx|Vy
			c.v[x] |= c.v[y]

		case 0x2: // 8XY2 Vx=Vx&Vy
			c.v[x] &= c.v[y]

		case 0x3: // 8XY3 Vx=Vx^Vy
			c.v[x] ^= c.v[y]

		case 0x4: // 8XY4 Vx += Vy
			carried := uint16(c.v[x])+uint16(c.v[y]) > 0xff
			c.v[x] += c.v[y]
			c.updateCarryFlag(carried)

		case 0x5: // 8XY5 Vx -= Vy, VF is set when there is no borrow
			borrowed := c.v[x] < c.v[y]
			c.v[x] -= c.v[y]
			c.updateCarryFlag(!borrowed)

		case 0x6: // 8XY6 Vx>>=1, Vy is ignored
			val := c.v[x]
			c.v[0xf] = val & 0x01
			c.v[x] = val >> 1

		case 0x7: // 8XY7 Vx=Vy-Vx
			borrowed := c.v[y] < c.v[x]
			c.v[x] = c.v[y] - c.v[x]
			c.updateCarryFlag(!borrowed)

		case 0xE: // 8XYE Vx<<=1, Vy is ignored
			val := c.v[x]
			c.v[0xf] = (val >> 7) & 0x01
			c.v[x] = val << 1

		default:
			return ErrUnknownInstruction
		}

	case 0x9: // 9XY0 if(Vx!=Vy)
		if c.v[x] != c.v[y] {
			c.updatePC = 4
		}

	case 0xA: // ANNN I = NNN
		c.i = nnn

	case 0xB: // BNNN PC=V0+NNN
		c.pc = nnn + uint16(c.v[0])
		c.updatePC = 0

	case 0xC: // CXNN Vx=rand()&NN
		c.v[x] = uint8(c.rnd.Intn(0x100)) & nn

	case 0xD: // DXYN draw(Vx,Vy,N)
		flipped, err := c.draw(c.v[x], c.v[y], n)
		if err != nil {
			return err
		}
		c.updateCarryFlag(flipped)

	case 0xE:
		switch nn {
		case 0x9E: // EX9E if(key()==Vx)
			if c.hw.KeyPressed(c.v[x]) {
				c.updatePC = 4
			}

		case 0xA1: // EXA1 if(key()!=Vx)
			if !c.hw.KeyPressed(c.v[x]) {
				c.updatePC = 4
			}

		default:
			return ErrUnknownInstruction
		}

	case 0xF:
		return c.execMisc(x, nn)
	}

	return nil
}

// execMisc handles the FXNN group.
func (c *Chip8) execMisc(x, nn uint8) error {
	switch nn {
	case 0x07: // FX07 Vx = get_delay()
		c.v[x] = c.dt

	case 0x0A: // FX0A Vx = get_key()
		keys := c.hw.Keys()
		key := slices.Index(keys[:], true)
		if key < 0 {
			// stay on this instruction until a key is down
			c.updatePC = 0
			return nil
		}
		c.v[x] = uint8(key)

	case 0x15: // FX15 delay_timer(Vx)
		c.dt = c.v[x]

	case 0x18: // FX18 sound_timer(Vx)
		c.st = c.v[x]

	case 0x1E: // FX1E I +=Vx
		c.i += uint16(c.v[x])

	case 0x29: // FX29 I=sprite_addr[Vx]
		perGlyph := uint16(len(c.fontset) / KeyCount)
		c.i = FontOffset + uint16(c.v[x])*perGlyph

	case 0x33: // FX33 set_BCD(Vx)
		if err := checkRange(c.i, 3); err != nil {
			return err
		}
		c.mem[c.i+0] = c.v[x] / 100
		c.mem[c.i+1] = (c.v[x] / 10) % 10
		c.mem[c.i+2] = c.v[x] % 10

	case 0x55: // FX55 reg_dump(Vx,&I)
		if err := checkRange(c.i, int(x)+1); err != nil {
			return err
		}
		copy(c.mem[c.i:], c.v[:x+1])

	case 0x65: // FX65 reg_load(Vx,&I)
		if err := checkRange(c.i, int(x)+1); err != nil {
			return err
		}
		copy(c.v[:x+1], c.mem[c.i:])

	default:
		return ErrUnknownInstruction
	}
	return nil
}
