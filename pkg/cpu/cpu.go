package cpu

import (
	"github.com/rambo-nes/rambo/pkg/logger"
)

// Bus is the memory interface the CPU drives. Every microstep performs
// exactly one bus access, so dummy reads and writes are observable.
type Bus interface {
	Read(addr uint16) uint8
	Write(addr uint16, value uint8)
}

// Variant selects the CPU silicon revision. Revisions differ only in the
// magic constant leaking into the unstable opcodes (LXA/ANE family).
type Variant int

const (
	RP2A03G Variant = iota
	RP2A03E
	RP2A03H
	RP2A07
)

// Magic returns the bus-noise constant for the unstable opcodes on this
// revision.
func (v Variant) Magic() uint8 {
	switch v {
	case RP2A03E:
		return 0xFF
	case RP2A03H:
		return 0xEF
	default:
		return 0xEE
	}
}

// Interrupt identifies what is latched for delivery at the next
// instruction boundary.
type Interrupt int

const (
	InterruptNone Interrupt = iota
	InterruptNMI
	InterruptIRQ
)

// CPU is a microstep 6502: Tick executes exactly one bus-visible cycle.
// An instruction retires when step returns to zero.
type CPU struct {
	// Registers
	A  uint8
	X  uint8
	Y  uint8
	SP uint8
	PC uint16
	P  uint8

	// Halted is set by a KIL opcode and cleared only by Reset.
	Halted bool

	// Interrupt lines, driven by the core before each Tick. NMI is
	// edge-triggered; IRQ is level-triggered.
	NMILine bool
	IRQLine bool

	nmiEdgePrev bool
	nmiLatched  bool
	servicing   Interrupt

	// Microstep state
	opcode       uint8
	step         uint8
	operandLow   uint8
	operandHigh  uint8
	pointer      uint8
	effAddr      uint16
	tempValue    uint8
	branchTarget uint16

	// Cycles counts executed CPU cycles; parity decides DMA alignment.
	Cycles uint64

	variant Variant
	magic   uint8

	bus Bus
}

// Status flag bits
const (
	FlagCarry     = 1 << 0 // C
	FlagZero      = 1 << 1 // Z
	FlagInterrupt = 1 << 2 // I
	FlagDecimal   = 1 << 3 // D
	FlagBreak     = 1 << 4 // B
	FlagUnused    = 1 << 5 // -
	FlagOverflow  = 1 << 6 // V
	FlagNegative  = 1 << 7 // N
)

// New creates a new CPU instance on the given bus.
func New(bus Bus, variant Variant) *CPU {
	return &CPU{
		bus:     bus,
		SP:      0xFD,
		P:       FlagUnused | FlagInterrupt,
		variant: variant,
		magic:   variant.Magic(),
	}
}

// Reset restores the power-on register state and loads PC from the reset
// vector at $FFFC/$FFFD.
func (c *CPU) Reset() {
	c.A = 0
	c.X = 0
	c.Y = 0
	c.SP = 0xFD
	c.P = FlagUnused | FlagInterrupt
	c.Halted = false
	c.NMILine = false
	c.IRQLine = false
	c.nmiEdgePrev = false
	c.nmiLatched = false
	c.servicing = InterruptNone
	c.step = 0
	c.Cycles = 0

	lo := uint16(c.bus.Read(0xFFFC))
	hi := uint16(c.bus.Read(0xFFFD))
	c.PC = hi<<8 | lo
	logger.LogCPU("reset: PC=$%04X", c.PC)
}

// AtInstructionBoundary reports whether the next Tick fetches an opcode.
func (c *CPU) AtInstructionBoundary() bool {
	return c.step == 0
}

// Servicing reports which interrupt sequence, if any, is in progress.
// The core watches this to acknowledge mapper IRQs when they are taken.
func (c *CPU) Servicing() Interrupt {
	return c.servicing
}

// Tick executes one CPU cycle. The NMI edge detector runs every cycle;
// the latched edge is consumed at the next instruction boundary, where
// NMI outranks IRQ.
func (c *CPU) Tick() {
	c.Cycles++

	if c.NMILine && !c.nmiEdgePrev {
		c.nmiLatched = true
	}
	c.nmiEdgePrev = c.NMILine

	if c.Halted {
		return
	}

	if c.step == 0 {
		c.beginCycle()
		return
	}
	c.step++
	if c.servicing != InterruptNone {
		c.interruptCycle()
		return
	}
	c.executeCycle()
}

// beginCycle runs the instruction-boundary cycle: either the first cycle
// of an interrupt sequence or the opcode fetch.
func (c *CPU) beginCycle() {
	if c.nmiLatched {
		c.servicing = InterruptNMI
		c.step = 1
		c.bus.Read(c.PC) // first of two dummy opcode fetches
		return
	}
	if c.IRQLine && c.P&FlagInterrupt == 0 {
		c.servicing = InterruptIRQ
		c.step = 1
		c.bus.Read(c.PC)
		return
	}

	c.opcode = c.bus.Read(c.PC)
	c.PC++
	c.step = 1
}

// interruptCycle advances the 7-cycle hardware interrupt sequence. The B
// flag is pushed clear for hardware interrupts; bit 5 always pushes set.
func (c *CPU) interruptCycle() {
	switch c.step {
	case 2:
		c.bus.Read(c.PC)
	case 3:
		c.push(uint8(c.PC >> 8))
	case 4:
		c.push(uint8(c.PC))
	case 5:
		c.push((c.P | FlagUnused) &^ FlagBreak)
		c.setFlag(FlagInterrupt, true)
	case 6:
		c.operandLow = c.bus.Read(c.vector())
	case 7:
		c.operandHigh = c.bus.Read(c.vector() + 1)
		c.PC = uint16(c.operandHigh)<<8 | uint16(c.operandLow)
		if c.servicing == InterruptNMI {
			c.nmiLatched = false
		}
		logger.LogCPU("interrupt vectored to $%04X", c.PC)
		c.servicing = InterruptNone
		c.step = 0
	}
}

func (c *CPU) vector() uint16 {
	if c.servicing == InterruptNMI {
		return 0xFFFA
	}
	return 0xFFFE
}

// endInstruction marks the instruction retired; the next Tick is an
// opcode fetch.
func (c *CPU) endInstruction() {
	c.step = 0
}

// Flag operations
func (c *CPU) getFlag(flag uint8) bool {
	return c.P&flag != 0
}

func (c *CPU) setFlag(flag uint8, value bool) {
	if value {
		c.P |= flag
	} else {
		c.P &^= flag
	}
}

// setZN updates Z and N from a result byte.
func (c *CPU) setZN(value uint8) {
	c.setFlag(FlagZero, value == 0)
	c.setFlag(FlagNegative, value&0x80 != 0)
}

// Stack operations
func (c *CPU) push(value uint8) {
	c.bus.Write(0x100|uint16(c.SP), value)
	c.SP--
}

func (c *CPU) pull() uint8 {
	c.SP++
	return c.bus.Read(0x100 | uint16(c.SP))
}

// GetFlag returns the state of a flag (public method for testing)
func (c *CPU) GetFlag(flag uint8) bool {
	return c.getFlag(flag)
}

// StepInstruction ticks until the current instruction (and any pending
// interrupt sequence) retires, returning the cycles consumed. Intended
// for tests and tools; the core drives Tick directly.
func (c *CPU) StepInstruction() int {
	n := 0
	c.Tick()
	n++
	for c.step != 0 && !c.Halted {
		c.Tick()
		n++
	}
	return n
}
