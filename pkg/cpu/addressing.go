package cpu

// executeCycle dispatches one post-fetch cycle of the current
// instruction. The opcode fetch was step 1; the first cycle handled here
// sees step 2. Each case performs exactly one bus access.
func (c *CPU) executeCycle() {
	in := &instructionTable[c.opcode]

	switch in.class {
	case classImplied:
		c.bus.Read(c.PC)
		if in.impl != nil {
			in.impl(c)
		}
		c.endInstruction()

	case classAccumulator:
		c.bus.Read(c.PC)
		c.A = in.rmw(c, c.A)
		c.endInstruction()

	case classKIL:
		c.bus.Read(c.PC)
		c.Halted = true
		c.endInstruction()

	case classPush:
		switch c.step {
		case 2:
			c.bus.Read(c.PC)
		case 3:
			in.impl(c)
			c.endInstruction()
		}

	case classPull:
		switch c.step {
		case 2:
			c.bus.Read(c.PC)
		case 3:
			c.bus.Read(0x100 | uint16(c.SP))
		case 4:
			in.impl(c)
			c.endInstruction()
		}

	case classBranch:
		c.branchCycle(in)

	case classJump:
		switch c.step {
		case 2:
			c.operandLow = c.bus.Read(c.PC)
			c.PC++
		case 3:
			c.operandHigh = c.bus.Read(c.PC)
			c.PC = uint16(c.operandHigh)<<8 | uint16(c.operandLow)
			c.endInstruction()
		}

	case classJumpIndirect:
		switch c.step {
		case 2:
			c.operandLow = c.bus.Read(c.PC)
			c.PC++
		case 3:
			c.operandHigh = c.bus.Read(c.PC)
			c.PC++
			c.effAddr = uint16(c.operandHigh)<<8 | uint16(c.operandLow)
		case 4:
			c.tempValue = c.bus.Read(c.effAddr)
		case 5:
			// Indirect JMP never carries into the high byte: the
			// pointer wraps within its page.
			hiAddr := (c.effAddr & 0xFF00) | uint16(uint8(c.effAddr)+1)
			c.PC = uint16(c.bus.Read(hiAddr))<<8 | uint16(c.tempValue)
			c.endInstruction()
		}

	case classJSR:
		switch c.step {
		case 2:
			c.operandLow = c.bus.Read(c.PC)
			c.PC++
		case 3:
			c.bus.Read(0x100 | uint16(c.SP))
		case 4:
			c.push(uint8(c.PC >> 8))
		case 5:
			c.push(uint8(c.PC))
		case 6:
			c.operandHigh = c.bus.Read(c.PC)
			c.PC = uint16(c.operandHigh)<<8 | uint16(c.operandLow)
			c.endInstruction()
		}

	case classRTS:
		switch c.step {
		case 2:
			c.bus.Read(c.PC)
		case 3:
			c.bus.Read(0x100 | uint16(c.SP))
		case 4:
			c.operandLow = c.pull()
		case 5:
			c.operandHigh = c.pull()
			c.PC = uint16(c.operandHigh)<<8 | uint16(c.operandLow)
		case 6:
			c.bus.Read(c.PC)
			c.PC++
			c.endInstruction()
		}

	case classRTI:
		switch c.step {
		case 2:
			c.bus.Read(c.PC)
		case 3:
			c.bus.Read(0x100 | uint16(c.SP))
		case 4:
			c.P = c.pull()&^FlagBreak | FlagUnused
		case 5:
			c.operandLow = c.pull()
		case 6:
			c.operandHigh = c.pull()
			c.PC = uint16(c.operandHigh)<<8 | uint16(c.operandLow)
			c.endInstruction()
		}

	case classBRK:
		switch c.step {
		case 2:
			c.bus.Read(c.PC) // padding byte
			c.PC++
		case 3:
			c.push(uint8(c.PC >> 8))
		case 4:
			c.push(uint8(c.PC))
		case 5:
			// BRK pushes B set, unlike hardware interrupts.
			c.push(c.P | FlagBreak | FlagUnused)
			c.setFlag(FlagInterrupt, true)
		case 6:
			c.operandLow = c.bus.Read(0xFFFE)
		case 7:
			c.operandHigh = c.bus.Read(0xFFFF)
			c.PC = uint16(c.operandHigh)<<8 | uint16(c.operandLow)
			c.endInstruction()
		}

	default:
		c.memoryCycle(in)
	}
}

// branchCycle handles relative branches: 2 cycles untaken, 3 taken, 4
// when the target crosses a page (with the dummy read at the partially
// fixed address).
func (c *CPU) branchCycle(in *instruction) {
	switch c.step {
	case 2:
		c.operandLow = c.bus.Read(c.PC)
		c.PC++
		if !in.branch(c) {
			c.endInstruction()
		}
	case 3:
		c.bus.Read(c.PC)
		target := c.PC + uint16(int8(c.operandLow))
		if target&0xFF00 == c.PC&0xFF00 {
			c.PC = target
			c.endInstruction()
			return
		}
		c.branchTarget = target
		c.PC = c.PC&0xFF00 | target&0x00FF
	case 4:
		c.bus.Read(c.PC)
		c.PC = c.branchTarget
		c.endInstruction()
	}
}

// memoryCycle handles the read/write/modify classes across all memory
// addressing modes, including the mandatory dummy accesses.
func (c *CPU) memoryCycle(in *instruction) {
	switch in.mode {
	case modeImmediate:
		c.tempValue = c.bus.Read(c.PC)
		c.PC++
		in.read(c, c.tempValue)
		c.endInstruction()

	case modeZeroPage:
		switch c.step {
		case 2:
			c.effAddr = uint16(c.bus.Read(c.PC))
			c.PC++
		default:
			c.finalCycles(in, 3)
		}

	case modeZeroPageX, modeZeroPageY:
		switch c.step {
		case 2:
			c.pointer = c.bus.Read(c.PC)
			c.PC++
		case 3:
			c.bus.Read(uint16(c.pointer))
			index := c.X
			if in.mode == modeZeroPageY {
				index = c.Y
			}
			c.effAddr = uint16(c.pointer + index)
		default:
			c.finalCycles(in, 4)
		}

	case modeAbsolute:
		switch c.step {
		case 2:
			c.operandLow = c.bus.Read(c.PC)
			c.PC++
		case 3:
			c.operandHigh = c.bus.Read(c.PC)
			c.PC++
			c.effAddr = uint16(c.operandHigh)<<8 | uint16(c.operandLow)
		default:
			c.finalCycles(in, 4)
		}

	case modeAbsoluteX, modeAbsoluteY:
		c.indexedCycle(in, 2)

	case modeIndexedIndirect: // (zp,X)
		switch c.step {
		case 2:
			c.pointer = c.bus.Read(c.PC)
			c.PC++
		case 3:
			c.bus.Read(uint16(c.pointer))
			c.pointer += c.X
		case 4:
			c.operandLow = c.bus.Read(uint16(c.pointer))
		case 5:
			c.operandHigh = c.bus.Read(uint16(uint8(c.pointer + 1)))
			c.effAddr = uint16(c.operandHigh)<<8 | uint16(c.operandLow)
		default:
			c.finalCycles(in, 6)
		}

	case modeIndirectIndexed: // (zp),Y
		switch c.step {
		case 2:
			c.pointer = c.bus.Read(c.PC)
			c.PC++
		case 3:
			c.operandLow = c.bus.Read(uint16(c.pointer))
		case 4:
			c.operandHigh = c.bus.Read(uint16(uint8(c.pointer + 1)))
		default:
			c.indexedCycle(in, 3)
		}
	}
}

// indexedCycle implements the shared tail of absolute,X/Y and (zp),Y:
// the wrong-address dummy access on page crossing and the always-extra
// cycle for writes and modifies. firstStep is the step at which the low
// operand byte was fetched minus... for absolute modes it is 2 (low at
// step 2, high at step 3); for (zp),Y it is 3 (low at 3, high at 4).
func (c *CPU) indexedCycle(in *instruction, firstStep uint8) {
	base := uint16(c.operandHigh)<<8 | uint16(c.operandLow)
	index := c.Y
	if in.mode == modeAbsoluteX {
		index = c.X
	}
	eff := base + uint16(index)
	crossed := eff&0xFF00 != base&0xFF00
	// Address with the carry not yet applied to the high byte.
	partial := base&0xFF00 | eff&0x00FF

	switch c.step {
	case firstStep:
		if in.mode != modeIndirectIndexed {
			c.operandLow = c.bus.Read(c.PC)
			c.PC++
		}
	case firstStep + 1:
		if in.mode != modeIndirectIndexed {
			c.operandHigh = c.bus.Read(c.PC)
			c.PC++
		}
	case firstStep + 2:
		c.effAddr = eff
		switch in.class {
		case classRead:
			if crossed {
				c.bus.Read(partial)
				return
			}
			c.tempValue = c.bus.Read(eff)
			in.read(c, c.tempValue)
			c.endInstruction()
		case classUnstableWrite:
			c.bus.Read(partial)
			// The high-byte AND corrupts the target page when the
			// index carries.
			value := in.hi(c, c.operandHigh+1)
			if crossed {
				c.effAddr = eff&0x00FF | uint16(value)<<8
			}
			c.tempValue = value
		default:
			c.bus.Read(partial)
		}
	case firstStep + 3:
		switch in.class {
		case classRead:
			c.tempValue = c.bus.Read(c.effAddr)
			in.read(c, c.tempValue)
			c.endInstruction()
		case classWrite:
			c.bus.Write(c.effAddr, in.write(c))
			c.endInstruction()
		case classUnstableWrite:
			c.bus.Write(c.effAddr, c.tempValue)
			c.endInstruction()
		case classRMW:
			c.tempValue = c.bus.Read(c.effAddr)
		}
	case firstStep + 4:
		c.bus.Write(c.effAddr, c.tempValue)
		c.tempValue = in.rmw(c, c.tempValue)
	case firstStep + 5:
		c.bus.Write(c.effAddr, c.tempValue)
		c.endInstruction()
	}
}

// finalCycles performs the terminal cycles of the simple addressing
// modes once the effective address is known. firstStep is the step of
// the first terminal cycle. The unstable stores never arrive here:
// every SHA/SHX/SHY/TAS encoding is indexed and runs through
// indexedCycle.
func (c *CPU) finalCycles(in *instruction, firstStep uint8) {
	switch in.class {
	case classRead:
		c.tempValue = c.bus.Read(c.effAddr)
		in.read(c, c.tempValue)
		c.endInstruction()
	case classWrite:
		c.bus.Write(c.effAddr, in.write(c))
		c.endInstruction()
	case classRMW:
		switch c.step {
		case firstStep:
			c.tempValue = c.bus.Read(c.effAddr)
		case firstStep + 1:
			c.bus.Write(c.effAddr, c.tempValue)
			c.tempValue = in.rmw(c, c.tempValue)
		case firstStep + 2:
			c.bus.Write(c.effAddr, c.tempValue)
			c.endInstruction()
		}
	}
}
