package cpu

import (
	"encoding/binary"
	"io"
)

// state is the packed little-endian snapshot of the CPU, microstep
// fields included so a save taken mid-instruction resumes exactly.
type state struct {
	A, X, Y, SP uint8
	PC          uint16
	P           uint8

	Halted      uint8
	NMILine     uint8
	IRQLine     uint8
	NMIEdgePrev uint8
	NMILatched  uint8
	Servicing   uint8

	Opcode       uint8
	Step         uint8
	OperandLow   uint8
	OperandHigh  uint8
	Pointer      uint8
	TempValue    uint8
	EffAddr      uint16
	BranchTarget uint16

	Cycles uint64
}

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// Serialize writes the CPU snapshot.
func (c *CPU) Serialize(w io.Writer) error {
	s := state{
		A: c.A, X: c.X, Y: c.Y, SP: c.SP, PC: c.PC, P: c.P,
		Halted:      boolByte(c.Halted),
		NMILine:     boolByte(c.NMILine),
		IRQLine:     boolByte(c.IRQLine),
		NMIEdgePrev: boolByte(c.nmiEdgePrev),
		NMILatched:  boolByte(c.nmiLatched),
		Servicing:   uint8(c.servicing),
		Opcode:      c.opcode,
		Step:        c.step,
		OperandLow:  c.operandLow,
		OperandHigh: c.operandHigh,
		Pointer:     c.pointer,
		TempValue:   c.tempValue,
		EffAddr:     c.effAddr,
		BranchTarget: c.branchTarget,
		Cycles:      c.Cycles,
	}
	return binary.Write(w, binary.LittleEndian, &s)
}

// Deserialize restores the CPU snapshot.
func (c *CPU) Deserialize(r io.Reader) error {
	var s state
	if err := binary.Read(r, binary.LittleEndian, &s); err != nil {
		return err
	}
	c.A, c.X, c.Y, c.SP, c.PC, c.P = s.A, s.X, s.Y, s.SP, s.PC, s.P
	c.Halted = s.Halted != 0
	c.NMILine = s.NMILine != 0
	c.IRQLine = s.IRQLine != 0
	c.nmiEdgePrev = s.NMIEdgePrev != 0
	c.nmiLatched = s.NMILatched != 0
	c.servicing = Interrupt(s.Servicing)
	c.opcode = s.Opcode
	c.step = s.Step
	c.operandLow = s.OperandLow
	c.operandHigh = s.OperandHigh
	c.pointer = s.Pointer
	c.tempValue = s.TempValue
	c.effAddr = s.EffAddr
	c.branchTarget = s.BranchTarget
	c.Cycles = s.Cycles
	return nil
}
