package cpu

// Addressing modes
type addrMode int

const (
	modeImplied addrMode = iota
	modeAccumulator
	modeImmediate
	modeZeroPage
	modeZeroPageX
	modeZeroPageY
	modeAbsolute
	modeAbsoluteX
	modeAbsoluteY
	modeIndirect
	modeIndexedIndirect
	modeIndirectIndexed
	modeRelative
)

// Execution classes. The class picks the microstep sequence; the mode
// picks the address resolution it runs over.
type opClass int

const (
	classRead opClass = iota
	classWrite
	classRMW
	classImplied
	classAccumulator
	classBranch
	classJump
	classJumpIndirect
	classJSR
	classRTS
	classRTI
	classBRK
	classPush
	classPull
	classKIL
	classUnstableWrite
)

// instruction describes one opcode. Exactly one of the function fields
// is used, selected by class.
type instruction struct {
	name  string
	mode  addrMode
	class opClass

	read   func(c *CPU, value uint8)
	write  func(c *CPU) uint8
	rmw    func(c *CPU, value uint8) uint8
	impl   func(c *CPU)
	branch func(c *CPU) bool
	hi     func(c *CPU, high uint8) uint8
}

// Name returns the mnemonic of an opcode, for tracing.
func Name(opcode uint8) string {
	return instructionTable[opcode].name
}

// ALU helpers

func (c *CPU) lda(v uint8) { c.A = v; c.setZN(c.A) }
func (c *CPU) ldx(v uint8) { c.X = v; c.setZN(c.X) }
func (c *CPU) ldy(v uint8) { c.Y = v; c.setZN(c.Y) }
func (c *CPU) ora(v uint8) { c.A |= v; c.setZN(c.A) }
func (c *CPU) and(v uint8) { c.A &= v; c.setZN(c.A) }
func (c *CPU) eor(v uint8) { c.A ^= v; c.setZN(c.A) }

func (c *CPU) adc(v uint8) {
	carry := uint16(0)
	if c.getFlag(FlagCarry) {
		carry = 1
	}
	sum := uint16(c.A) + uint16(v) + carry
	result := uint8(sum)
	c.setFlag(FlagCarry, sum > 0xFF)
	c.setFlag(FlagOverflow, (c.A^result)&(v^result)&0x80 != 0)
	c.A = result
	c.setZN(c.A)
}

func (c *CPU) sbc(v uint8) { c.adc(v ^ 0xFF) }

func (c *CPU) compare(reg, v uint8) {
	c.setFlag(FlagCarry, reg >= v)
	c.setZN(reg - v)
}

func (c *CPU) bit(v uint8) {
	c.setFlag(FlagZero, c.A&v == 0)
	c.setFlag(FlagOverflow, v&0x40 != 0)
	c.setFlag(FlagNegative, v&0x80 != 0)
}

func (c *CPU) asl(v uint8) uint8 {
	c.setFlag(FlagCarry, v&0x80 != 0)
	v <<= 1
	c.setZN(v)
	return v
}

func (c *CPU) lsr(v uint8) uint8 {
	c.setFlag(FlagCarry, v&1 != 0)
	v >>= 1
	c.setZN(v)
	return v
}

func (c *CPU) rol(v uint8) uint8 {
	carryIn := uint8(0)
	if c.getFlag(FlagCarry) {
		carryIn = 1
	}
	c.setFlag(FlagCarry, v&0x80 != 0)
	v = v<<1 | carryIn
	c.setZN(v)
	return v
}

func (c *CPU) ror(v uint8) uint8 {
	carryIn := uint8(0)
	if c.getFlag(FlagCarry) {
		carryIn = 0x80
	}
	c.setFlag(FlagCarry, v&1 != 0)
	v = v>>1 | carryIn
	c.setZN(v)
	return v
}

func (c *CPU) inc(v uint8) uint8 { v++; c.setZN(v); return v }
func (c *CPU) dec(v uint8) uint8 { v--; c.setZN(v); return v }

// Unofficial combined operations

func (c *CPU) slo(v uint8) uint8 { v = c.asl(v); c.ora(v); return v }
func (c *CPU) rla(v uint8) uint8 { v = c.rol(v); c.and(v); return v }
func (c *CPU) sre(v uint8) uint8 { v = c.lsr(v); c.eor(v); return v }
func (c *CPU) rra(v uint8) uint8 { v = c.ror(v); c.adc(v); return v }
func (c *CPU) dcp(v uint8) uint8 { v--; c.compare(c.A, v); return v }
func (c *CPU) isc(v uint8) uint8 { v++; c.sbc(v); return v }

func (c *CPU) lax(v uint8) { c.A = v; c.X = v; c.setZN(v) }

func (c *CPU) anc(v uint8) {
	c.A &= v
	c.setZN(c.A)
	c.setFlag(FlagCarry, c.A&0x80 != 0)
}

func (c *CPU) alr(v uint8) {
	c.A &= v
	c.A = c.lsr(c.A)
}

func (c *CPU) arr(v uint8) {
	c.A &= v
	carryIn := uint8(0)
	if c.getFlag(FlagCarry) {
		carryIn = 0x80
	}
	c.A = c.A>>1 | carryIn
	c.setZN(c.A)
	c.setFlag(FlagCarry, c.A&0x40 != 0)
	c.setFlag(FlagOverflow, (c.A>>6^c.A>>5)&1 != 0)
}

// ane and lxa leak the revision-specific bus constant.
func (c *CPU) ane(v uint8) {
	c.A = (c.A | c.magic) & c.X & v
	c.setZN(c.A)
}

func (c *CPU) lxa(v uint8) {
	r := (c.A | c.magic) & v
	c.A = r
	c.X = r
	c.setZN(r)
}

func (c *CPU) sbx(v uint8) {
	t := c.A & c.X
	c.setFlag(FlagCarry, t >= v)
	c.X = t - v
	c.setZN(c.X)
}

func (c *CPU) las(v uint8) {
	r := v & c.SP
	c.A = r
	c.X = r
	c.SP = r
	c.setZN(r)
}

// Branch predicates

func bpl(c *CPU) bool { return !c.getFlag(FlagNegative) }
func bmi(c *CPU) bool { return c.getFlag(FlagNegative) }
func bvc(c *CPU) bool { return !c.getFlag(FlagOverflow) }
func bvs(c *CPU) bool { return c.getFlag(FlagOverflow) }
func bcc(c *CPU) bool { return !c.getFlag(FlagCarry) }
func bcs(c *CPU) bool { return c.getFlag(FlagCarry) }
func bne(c *CPU) bool { return !c.getFlag(FlagZero) }
func beq(c *CPU) bool { return c.getFlag(FlagZero) }

// Table constructors

func rd(name string, mode addrMode, fn func(*CPU, uint8)) instruction {
	return instruction{name: name, mode: mode, class: classRead, read: fn}
}

func wr(name string, mode addrMode, fn func(*CPU) uint8) instruction {
	return instruction{name: name, mode: mode, class: classWrite, write: fn}
}

func rmw(name string, mode addrMode, fn func(*CPU, uint8) uint8) instruction {
	return instruction{name: name, mode: mode, class: classRMW, rmw: fn}
}

func acc(name string, fn func(*CPU, uint8) uint8) instruction {
	return instruction{name: name, mode: modeAccumulator, class: classAccumulator, rmw: fn}
}

func imp(name string, fn func(*CPU)) instruction {
	return instruction{name: name, mode: modeImplied, class: classImplied, impl: fn}
}

func br(name string, fn func(*CPU) bool) instruction {
	return instruction{name: name, mode: modeRelative, class: classBranch, branch: fn}
}

func unst(name string, mode addrMode, fn func(*CPU, uint8) uint8) instruction {
	return instruction{name: name, mode: mode, class: classUnstableWrite, hi: fn}
}

func kil() instruction {
	return instruction{name: "KIL", mode: modeImplied, class: classKIL}
}

func nopRead(mode addrMode) instruction {
	return rd("NOP", mode, func(*CPU, uint8) {})
}

var instructionTable = buildInstructionTable()

func buildInstructionTable() [256]instruction {
	var t [256]instruction

	sta := func(c *CPU) uint8 { return c.A }
	stx := func(c *CPU) uint8 { return c.X }
	sty := func(c *CPU) uint8 { return c.Y }
	sax := func(c *CPU) uint8 { return c.A & c.X }

	sha := func(c *CPU, high uint8) uint8 { return c.A & c.X & high }
	shx := func(c *CPU, high uint8) uint8 { return c.X & high }
	shy := func(c *CPU, high uint8) uint8 { return c.Y & high }
	tas := func(c *CPU, high uint8) uint8 {
		c.SP = c.A & c.X
		return c.SP & high
	}

	// Loads and stores
	t[0xA9] = rd("LDA", modeImmediate, (*CPU).lda)
	t[0xA5] = rd("LDA", modeZeroPage, (*CPU).lda)
	t[0xB5] = rd("LDA", modeZeroPageX, (*CPU).lda)
	t[0xAD] = rd("LDA", modeAbsolute, (*CPU).lda)
	t[0xBD] = rd("LDA", modeAbsoluteX, (*CPU).lda)
	t[0xB9] = rd("LDA", modeAbsoluteY, (*CPU).lda)
	t[0xA1] = rd("LDA", modeIndexedIndirect, (*CPU).lda)
	t[0xB1] = rd("LDA", modeIndirectIndexed, (*CPU).lda)

	t[0xA2] = rd("LDX", modeImmediate, (*CPU).ldx)
	t[0xA6] = rd("LDX", modeZeroPage, (*CPU).ldx)
	t[0xB6] = rd("LDX", modeZeroPageY, (*CPU).ldx)
	t[0xAE] = rd("LDX", modeAbsolute, (*CPU).ldx)
	t[0xBE] = rd("LDX", modeAbsoluteY, (*CPU).ldx)

	t[0xA0] = rd("LDY", modeImmediate, (*CPU).ldy)
	t[0xA4] = rd("LDY", modeZeroPage, (*CPU).ldy)
	t[0xB4] = rd("LDY", modeZeroPageX, (*CPU).ldy)
	t[0xAC] = rd("LDY", modeAbsolute, (*CPU).ldy)
	t[0xBC] = rd("LDY", modeAbsoluteX, (*CPU).ldy)

	t[0x85] = wr("STA", modeZeroPage, sta)
	t[0x95] = wr("STA", modeZeroPageX, sta)
	t[0x8D] = wr("STA", modeAbsolute, sta)
	t[0x9D] = wr("STA", modeAbsoluteX, sta)
	t[0x99] = wr("STA", modeAbsoluteY, sta)
	t[0x81] = wr("STA", modeIndexedIndirect, sta)
	t[0x91] = wr("STA", modeIndirectIndexed, sta)

	t[0x86] = wr("STX", modeZeroPage, stx)
	t[0x96] = wr("STX", modeZeroPageY, stx)
	t[0x8E] = wr("STX", modeAbsolute, stx)

	t[0x84] = wr("STY", modeZeroPage, sty)
	t[0x94] = wr("STY", modeZeroPageX, sty)
	t[0x8C] = wr("STY", modeAbsolute, sty)

	// Arithmetic and logic
	t[0x69] = rd("ADC", modeImmediate, (*CPU).adc)
	t[0x65] = rd("ADC", modeZeroPage, (*CPU).adc)
	t[0x75] = rd("ADC", modeZeroPageX, (*CPU).adc)
	t[0x6D] = rd("ADC", modeAbsolute, (*CPU).adc)
	t[0x7D] = rd("ADC", modeAbsoluteX, (*CPU).adc)
	t[0x79] = rd("ADC", modeAbsoluteY, (*CPU).adc)
	t[0x61] = rd("ADC", modeIndexedIndirect, (*CPU).adc)
	t[0x71] = rd("ADC", modeIndirectIndexed, (*CPU).adc)

	t[0xE9] = rd("SBC", modeImmediate, (*CPU).sbc)
	t[0xE5] = rd("SBC", modeZeroPage, (*CPU).sbc)
	t[0xF5] = rd("SBC", modeZeroPageX, (*CPU).sbc)
	t[0xED] = rd("SBC", modeAbsolute, (*CPU).sbc)
	t[0xFD] = rd("SBC", modeAbsoluteX, (*CPU).sbc)
	t[0xF9] = rd("SBC", modeAbsoluteY, (*CPU).sbc)
	t[0xE1] = rd("SBC", modeIndexedIndirect, (*CPU).sbc)
	t[0xF1] = rd("SBC", modeIndirectIndexed, (*CPU).sbc)
	t[0xEB] = rd("SBC", modeImmediate, (*CPU).sbc) // unofficial alias

	t[0x09] = rd("ORA", modeImmediate, (*CPU).ora)
	t[0x05] = rd("ORA", modeZeroPage, (*CPU).ora)
	t[0x15] = rd("ORA", modeZeroPageX, (*CPU).ora)
	t[0x0D] = rd("ORA", modeAbsolute, (*CPU).ora)
	t[0x1D] = rd("ORA", modeAbsoluteX, (*CPU).ora)
	t[0x19] = rd("ORA", modeAbsoluteY, (*CPU).ora)
	t[0x01] = rd("ORA", modeIndexedIndirect, (*CPU).ora)
	t[0x11] = rd("ORA", modeIndirectIndexed, (*CPU).ora)

	t[0x29] = rd("AND", modeImmediate, (*CPU).and)
	t[0x25] = rd("AND", modeZeroPage, (*CPU).and)
	t[0x35] = rd("AND", modeZeroPageX, (*CPU).and)
	t[0x2D] = rd("AND", modeAbsolute, (*CPU).and)
	t[0x3D] = rd("AND", modeAbsoluteX, (*CPU).and)
	t[0x39] = rd("AND", modeAbsoluteY, (*CPU).and)
	t[0x21] = rd("AND", modeIndexedIndirect, (*CPU).and)
	t[0x31] = rd("AND", modeIndirectIndexed, (*CPU).and)

	t[0x49] = rd("EOR", modeImmediate, (*CPU).eor)
	t[0x45] = rd("EOR", modeZeroPage, (*CPU).eor)
	t[0x55] = rd("EOR", modeZeroPageX, (*CPU).eor)
	t[0x4D] = rd("EOR", modeAbsolute, (*CPU).eor)
	t[0x5D] = rd("EOR", modeAbsoluteX, (*CPU).eor)
	t[0x59] = rd("EOR", modeAbsoluteY, (*CPU).eor)
	t[0x41] = rd("EOR", modeIndexedIndirect, (*CPU).eor)
	t[0x51] = rd("EOR", modeIndirectIndexed, (*CPU).eor)

	cmp := func(c *CPU, v uint8) { c.compare(c.A, v) }
	cpx := func(c *CPU, v uint8) { c.compare(c.X, v) }
	cpy := func(c *CPU, v uint8) { c.compare(c.Y, v) }

	t[0xC9] = rd("CMP", modeImmediate, cmp)
	t[0xC5] = rd("CMP", modeZeroPage, cmp)
	t[0xD5] = rd("CMP", modeZeroPageX, cmp)
	t[0xCD] = rd("CMP", modeAbsolute, cmp)
	t[0xDD] = rd("CMP", modeAbsoluteX, cmp)
	t[0xD9] = rd("CMP", modeAbsoluteY, cmp)
	t[0xC1] = rd("CMP", modeIndexedIndirect, cmp)
	t[0xD1] = rd("CMP", modeIndirectIndexed, cmp)

	t[0xE0] = rd("CPX", modeImmediate, cpx)
	t[0xE4] = rd("CPX", modeZeroPage, cpx)
	t[0xEC] = rd("CPX", modeAbsolute, cpx)

	t[0xC0] = rd("CPY", modeImmediate, cpy)
	t[0xC4] = rd("CPY", modeZeroPage, cpy)
	t[0xCC] = rd("CPY", modeAbsolute, cpy)

	t[0x24] = rd("BIT", modeZeroPage, (*CPU).bit)
	t[0x2C] = rd("BIT", modeAbsolute, (*CPU).bit)

	// Shifts and rotates
	t[0x0A] = acc("ASL", (*CPU).asl)
	t[0x06] = rmw("ASL", modeZeroPage, (*CPU).asl)
	t[0x16] = rmw("ASL", modeZeroPageX, (*CPU).asl)
	t[0x0E] = rmw("ASL", modeAbsolute, (*CPU).asl)
	t[0x1E] = rmw("ASL", modeAbsoluteX, (*CPU).asl)

	t[0x4A] = acc("LSR", (*CPU).lsr)
	t[0x46] = rmw("LSR", modeZeroPage, (*CPU).lsr)
	t[0x56] = rmw("LSR", modeZeroPageX, (*CPU).lsr)
	t[0x4E] = rmw("LSR", modeAbsolute, (*CPU).lsr)
	t[0x5E] = rmw("LSR", modeAbsoluteX, (*CPU).lsr)

	t[0x2A] = acc("ROL", (*CPU).rol)
	t[0x26] = rmw("ROL", modeZeroPage, (*CPU).rol)
	t[0x36] = rmw("ROL", modeZeroPageX, (*CPU).rol)
	t[0x2E] = rmw("ROL", modeAbsolute, (*CPU).rol)
	t[0x3E] = rmw("ROL", modeAbsoluteX, (*CPU).rol)

	t[0x6A] = acc("ROR", (*CPU).ror)
	t[0x66] = rmw("ROR", modeZeroPage, (*CPU).ror)
	t[0x76] = rmw("ROR", modeZeroPageX, (*CPU).ror)
	t[0x6E] = rmw("ROR", modeAbsolute, (*CPU).ror)
	t[0x7E] = rmw("ROR", modeAbsoluteX, (*CPU).ror)

	t[0xE6] = rmw("INC", modeZeroPage, (*CPU).inc)
	t[0xF6] = rmw("INC", modeZeroPageX, (*CPU).inc)
	t[0xEE] = rmw("INC", modeAbsolute, (*CPU).inc)
	t[0xFE] = rmw("INC", modeAbsoluteX, (*CPU).inc)

	t[0xC6] = rmw("DEC", modeZeroPage, (*CPU).dec)
	t[0xD6] = rmw("DEC", modeZeroPageX, (*CPU).dec)
	t[0xCE] = rmw("DEC", modeAbsolute, (*CPU).dec)
	t[0xDE] = rmw("DEC", modeAbsoluteX, (*CPU).dec)

	// Register transfers and flags
	t[0xAA] = imp("TAX", func(c *CPU) { c.X = c.A; c.setZN(c.X) })
	t[0xA8] = imp("TAY", func(c *CPU) { c.Y = c.A; c.setZN(c.Y) })
	t[0x8A] = imp("TXA", func(c *CPU) { c.A = c.X; c.setZN(c.A) })
	t[0x98] = imp("TYA", func(c *CPU) { c.A = c.Y; c.setZN(c.A) })
	t[0xBA] = imp("TSX", func(c *CPU) { c.X = c.SP; c.setZN(c.X) })
	t[0x9A] = imp("TXS", func(c *CPU) { c.SP = c.X })

	t[0xE8] = imp("INX", func(c *CPU) { c.X++; c.setZN(c.X) })
	t[0xC8] = imp("INY", func(c *CPU) { c.Y++; c.setZN(c.Y) })
	t[0xCA] = imp("DEX", func(c *CPU) { c.X--; c.setZN(c.X) })
	t[0x88] = imp("DEY", func(c *CPU) { c.Y--; c.setZN(c.Y) })

	t[0x18] = imp("CLC", func(c *CPU) { c.setFlag(FlagCarry, false) })
	t[0x38] = imp("SEC", func(c *CPU) { c.setFlag(FlagCarry, true) })
	t[0x58] = imp("CLI", func(c *CPU) { c.setFlag(FlagInterrupt, false) })
	t[0x78] = imp("SEI", func(c *CPU) { c.setFlag(FlagInterrupt, true) })
	t[0xD8] = imp("CLD", func(c *CPU) { c.setFlag(FlagDecimal, false) })
	t[0xF8] = imp("SED", func(c *CPU) { c.setFlag(FlagDecimal, true) })
	t[0xB8] = imp("CLV", func(c *CPU) { c.setFlag(FlagOverflow, false) })

	t[0xEA] = imp("NOP", func(*CPU) {})

	// Stack
	t[0x48] = instruction{name: "PHA", mode: modeImplied, class: classPush,
		impl: func(c *CPU) { c.push(c.A) }}
	t[0x08] = instruction{name: "PHP", mode: modeImplied, class: classPush,
		impl: func(c *CPU) { c.push(c.P | FlagBreak | FlagUnused) }}
	t[0x68] = instruction{name: "PLA", mode: modeImplied, class: classPull,
		impl: func(c *CPU) { c.A = c.pull(); c.setZN(c.A) }}
	t[0x28] = instruction{name: "PLP", mode: modeImplied, class: classPull,
		impl: func(c *CPU) { c.P = c.pull()&^FlagBreak | FlagUnused }}

	// Control flow
	t[0x4C] = instruction{name: "JMP", mode: modeAbsolute, class: classJump}
	t[0x6C] = instruction{name: "JMP", mode: modeIndirect, class: classJumpIndirect}
	t[0x20] = instruction{name: "JSR", mode: modeAbsolute, class: classJSR}
	t[0x60] = instruction{name: "RTS", mode: modeImplied, class: classRTS}
	t[0x40] = instruction{name: "RTI", mode: modeImplied, class: classRTI}
	t[0x00] = instruction{name: "BRK", mode: modeImplied, class: classBRK}

	t[0x10] = br("BPL", bpl)
	t[0x30] = br("BMI", bmi)
	t[0x50] = br("BVC", bvc)
	t[0x70] = br("BVS", bvs)
	t[0x90] = br("BCC", bcc)
	t[0xB0] = br("BCS", bcs)
	t[0xD0] = br("BNE", bne)
	t[0xF0] = br("BEQ", beq)

	// Unofficial: combined RMW
	t[0x07] = rmw("SLO", modeZeroPage, (*CPU).slo)
	t[0x17] = rmw("SLO", modeZeroPageX, (*CPU).slo)
	t[0x0F] = rmw("SLO", modeAbsolute, (*CPU).slo)
	t[0x1F] = rmw("SLO", modeAbsoluteX, (*CPU).slo)
	t[0x1B] = rmw("SLO", modeAbsoluteY, (*CPU).slo)
	t[0x03] = rmw("SLO", modeIndexedIndirect, (*CPU).slo)
	t[0x13] = rmw("SLO", modeIndirectIndexed, (*CPU).slo)

	t[0x27] = rmw("RLA", modeZeroPage, (*CPU).rla)
	t[0x37] = rmw("RLA", modeZeroPageX, (*CPU).rla)
	t[0x2F] = rmw("RLA", modeAbsolute, (*CPU).rla)
	t[0x3F] = rmw("RLA", modeAbsoluteX, (*CPU).rla)
	t[0x3B] = rmw("RLA", modeAbsoluteY, (*CPU).rla)
	t[0x23] = rmw("RLA", modeIndexedIndirect, (*CPU).rla)
	t[0x33] = rmw("RLA", modeIndirectIndexed, (*CPU).rla)

	t[0x47] = rmw("SRE", modeZeroPage, (*CPU).sre)
	t[0x57] = rmw("SRE", modeZeroPageX, (*CPU).sre)
	t[0x4F] = rmw("SRE", modeAbsolute, (*CPU).sre)
	t[0x5F] = rmw("SRE", modeAbsoluteX, (*CPU).sre)
	t[0x5B] = rmw("SRE", modeAbsoluteY, (*CPU).sre)
	t[0x43] = rmw("SRE", modeIndexedIndirect, (*CPU).sre)
	t[0x53] = rmw("SRE", modeIndirectIndexed, (*CPU).sre)

	t[0x67] = rmw("RRA", modeZeroPage, (*CPU).rra)
	t[0x77] = rmw("RRA", modeZeroPageX, (*CPU).rra)
	t[0x6F] = rmw("RRA", modeAbsolute, (*CPU).rra)
	t[0x7F] = rmw("RRA", modeAbsoluteX, (*CPU).rra)
	t[0x7B] = rmw("RRA", modeAbsoluteY, (*CPU).rra)
	t[0x63] = rmw("RRA", modeIndexedIndirect, (*CPU).rra)
	t[0x73] = rmw("RRA", modeIndirectIndexed, (*CPU).rra)

	t[0xC7] = rmw("DCP", modeZeroPage, (*CPU).dcp)
	t[0xD7] = rmw("DCP", modeZeroPageX, (*CPU).dcp)
	t[0xCF] = rmw("DCP", modeAbsolute, (*CPU).dcp)
	t[0xDF] = rmw("DCP", modeAbsoluteX, (*CPU).dcp)
	t[0xDB] = rmw("DCP", modeAbsoluteY, (*CPU).dcp)
	t[0xC3] = rmw("DCP", modeIndexedIndirect, (*CPU).dcp)
	t[0xD3] = rmw("DCP", modeIndirectIndexed, (*CPU).dcp)

	t[0xE7] = rmw("ISC", modeZeroPage, (*CPU).isc)
	t[0xF7] = rmw("ISC", modeZeroPageX, (*CPU).isc)
	t[0xEF] = rmw("ISC", modeAbsolute, (*CPU).isc)
	t[0xFF] = rmw("ISC", modeAbsoluteX, (*CPU).isc)
	t[0xFB] = rmw("ISC", modeAbsoluteY, (*CPU).isc)
	t[0xE3] = rmw("ISC", modeIndexedIndirect, (*CPU).isc)
	t[0xF3] = rmw("ISC", modeIndirectIndexed, (*CPU).isc)

	// Unofficial: loads and stores
	t[0xA7] = rd("LAX", modeZeroPage, (*CPU).lax)
	t[0xB7] = rd("LAX", modeZeroPageY, (*CPU).lax)
	t[0xAF] = rd("LAX", modeAbsolute, (*CPU).lax)
	t[0xBF] = rd("LAX", modeAbsoluteY, (*CPU).lax)
	t[0xA3] = rd("LAX", modeIndexedIndirect, (*CPU).lax)
	t[0xB3] = rd("LAX", modeIndirectIndexed, (*CPU).lax)

	t[0x87] = wr("SAX", modeZeroPage, sax)
	t[0x97] = wr("SAX", modeZeroPageY, sax)
	t[0x8F] = wr("SAX", modeAbsolute, sax)
	t[0x83] = wr("SAX", modeIndexedIndirect, sax)

	// Unofficial: immediate ALU
	t[0x0B] = rd("ANC", modeImmediate, (*CPU).anc)
	t[0x2B] = rd("ANC", modeImmediate, (*CPU).anc)
	t[0x4B] = rd("ALR", modeImmediate, (*CPU).alr)
	t[0x6B] = rd("ARR", modeImmediate, (*CPU).arr)
	t[0x8B] = rd("ANE", modeImmediate, (*CPU).ane)
	t[0xAB] = rd("LXA", modeImmediate, (*CPU).lxa)
	t[0xCB] = rd("SBX", modeImmediate, (*CPU).sbx)

	// Unofficial: unstable high-byte stores
	t[0x9F] = unst("SHA", modeAbsoluteY, sha)
	t[0x93] = unst("SHA", modeIndirectIndexed, sha)
	t[0x9E] = unst("SHX", modeAbsoluteY, shx)
	t[0x9C] = unst("SHY", modeAbsoluteX, shy)
	t[0x9B] = unst("TAS", modeAbsoluteY, tas)
	t[0xBB] = rd("LAS", modeAbsoluteY, (*CPU).las)

	// Unofficial NOPs
	for _, op := range []uint8{0x1A, 0x3A, 0x5A, 0x7A, 0xDA, 0xFA} {
		t[op] = imp("NOP", func(*CPU) {})
	}
	for _, op := range []uint8{0x80, 0x82, 0x89, 0xC2, 0xE2} {
		t[op] = nopRead(modeImmediate)
	}
	for _, op := range []uint8{0x04, 0x44, 0x64} {
		t[op] = nopRead(modeZeroPage)
	}
	for _, op := range []uint8{0x14, 0x34, 0x54, 0x74, 0xD4, 0xF4} {
		t[op] = nopRead(modeZeroPageX)
	}
	t[0x0C] = nopRead(modeAbsolute)
	for _, op := range []uint8{0x1C, 0x3C, 0x5C, 0x7C, 0xDC, 0xFC} {
		t[op] = nopRead(modeAbsoluteX)
	}

	// KIL opcodes halt the CPU until reset
	for _, op := range []uint8{0x02, 0x12, 0x22, 0x32, 0x42, 0x52,
		0x62, 0x72, 0x92, 0xB2, 0xD2, 0xF2} {
		t[op] = kil()
	}

	return t
}
