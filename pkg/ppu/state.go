package ppu

import (
	"encoding/binary"
	"io"
)

// state is the packed little-endian snapshot of the PPU, including the
// memories, shift registers and the mask delay ring.
type state struct {
	Ctrl, Mask, Status, OAMAddr uint8
	V, T                        uint16
	X                           uint8
	W                           uint8
	ReadBuffer                  uint8

	VRAM       [4096]uint8
	PaletteRAM [32]uint8
	OAM        [256]uint8
	Secondary  [32]uint8

	NtByte, AtByte, PatternLow, PatternHigh       uint8
	BgShiftLow, BgShiftHigh, AtShiftLow, AtShiftHigh uint16

	SpriteCount    uint8
	SpritePatLow   [8]uint8
	SpritePatHigh  [8]uint8
	SpriteAttr     [8]uint8
	SpriteX        [8]uint8
	Sprite0Next    uint8
	Sprite0Current uint8

	EvalN, EvalM uint8
	EvalTmp      uint8
	EvalCopying  uint8
	EvalDone     uint8
	SecIndex     uint8

	MaskRing      [maskDelaySlots]uint8
	MaskRingPos   uint8
	MaskEffective uint8

	A12State uint8
}

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// Serialize writes the PPU snapshot.
func (p *PPU) Serialize(w io.Writer) error {
	s := state{
		Ctrl: p.ctrl, Mask: p.mask, Status: p.status, OAMAddr: p.oamAddr,
		V: p.v, T: p.t, X: p.x, W: boolByte(p.w), ReadBuffer: p.readBuffer,
		VRAM: p.vram, PaletteRAM: p.paletteRAM, OAM: p.oam, Secondary: p.secondary,
		NtByte: p.ntByte, AtByte: p.atByte,
		PatternLow: p.patternLow, PatternHigh: p.patternHigh,
		BgShiftLow: p.bgShiftLow, BgShiftHigh: p.bgShiftHigh,
		AtShiftLow: p.atShiftLow, AtShiftHigh: p.atShiftHigh,
		SpriteCount:    uint8(p.spriteCount),
		SpritePatLow:   p.spritePatLow,
		SpritePatHigh:  p.spritePatHigh,
		SpriteAttr:     p.spriteAttr,
		SpriteX:        p.spriteX,
		Sprite0Next:    boolByte(p.sprite0Next),
		Sprite0Current: boolByte(p.sprite0Current),
		EvalN:          uint8(p.evalN),
		EvalM:          uint8(p.evalM),
		EvalTmp:        p.evalTmp,
		EvalCopying:    boolByte(p.evalCopying),
		EvalDone:       boolByte(p.evalDone),
		SecIndex:       uint8(p.secIndex),
		MaskRing:       p.maskRing,
		MaskRingPos:    uint8(p.maskRingPos),
		MaskEffective:  p.maskEffective,
		A12State:       boolByte(p.a12State),
	}
	return binary.Write(w, binary.LittleEndian, &s)
}

// Deserialize restores the PPU snapshot.
func (p *PPU) Deserialize(r io.Reader) error {
	var s state
	if err := binary.Read(r, binary.LittleEndian, &s); err != nil {
		return err
	}
	p.ctrl, p.mask, p.status, p.oamAddr = s.Ctrl, s.Mask, s.Status, s.OAMAddr
	p.v, p.t, p.x, p.w, p.readBuffer = s.V, s.T, s.X, s.W != 0, s.ReadBuffer
	p.vram, p.paletteRAM, p.oam, p.secondary = s.VRAM, s.PaletteRAM, s.OAM, s.Secondary
	p.ntByte, p.atByte = s.NtByte, s.AtByte
	p.patternLow, p.patternHigh = s.PatternLow, s.PatternHigh
	p.bgShiftLow, p.bgShiftHigh = s.BgShiftLow, s.BgShiftHigh
	p.atShiftLow, p.atShiftHigh = s.AtShiftLow, s.AtShiftHigh
	p.spriteCount = int(s.SpriteCount)
	p.spritePatLow, p.spritePatHigh = s.SpritePatLow, s.SpritePatHigh
	p.spriteAttr, p.spriteX = s.SpriteAttr, s.SpriteX
	p.sprite0Next = s.Sprite0Next != 0
	p.sprite0Current = s.Sprite0Current != 0
	p.evalN, p.evalM = int(s.EvalN), int(s.EvalM)
	p.evalTmp = s.EvalTmp
	p.evalCopying = s.EvalCopying != 0
	p.evalDone = s.EvalDone != 0
	p.secIndex = int(s.SecIndex)
	p.maskRing = s.MaskRing
	p.maskRingPos = int(s.MaskRingPos)
	p.maskEffective = s.MaskEffective
	p.a12State = s.A12State != 0
	return nil
}
