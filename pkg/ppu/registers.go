package ppu

import "github.com/rambo-nes/rambo/pkg/logger"

// CPU-visible register file. The bus router in pkg/nes decodes the
// $2000-$3FFF mirror and calls these; VBlank visibility for $2002 is
// computed there from the ledger and passed in.

// WriteCtrl handles $2000. The nametable select bits also land in t.
func (p *PPU) WriteCtrl(value uint8) {
	p.ctrl = value
	p.t = p.t&0xF3FF | uint16(value&0x03)<<10
}

// Ctrl returns the PPUCTRL register.
func (p *PPU) Ctrl() uint8 { return p.ctrl }

// NMIEnabled reports PPUCTRL bit 7; the core ANDs this with VBlank
// visibility to form the CPU's NMI line level.
func (p *PPU) NMIEnabled() bool { return p.ctrl&CtrlNMIEnable != 0 }

// WriteMask handles $2001. The value enters the delay ring; rendering
// sees it 3-4 dots later.
func (p *PPU) WriteMask(value uint8) {
	p.mask = value
}

// Mask returns the PPUMASK register as last written.
func (p *PPU) Mask() uint8 { return p.mask }

// ReadStatus handles $2002: bit 7 from the ledger-computed visibility,
// bits 6-5 from the internal flags, low bits from open bus. Reading
// clears the write toggle.
func (p *PPU) ReadStatus(vblankVisible bool, openBus uint8) uint8 {
	value := openBus&0x1F | p.status&(StatusSprite0Hit|StatusOverflow)
	if vblankVisible {
		value |= StatusVBlank
	}
	p.w = false
	return value
}

// PeekStatus is ReadStatus without the toggle side effect.
func (p *PPU) PeekStatus(vblankVisible bool, openBus uint8) uint8 {
	value := openBus&0x1F | p.status&(StatusSprite0Hit|StatusOverflow)
	if vblankVisible {
		value |= StatusVBlank
	}
	return value
}

// WriteOAMAddr handles $2003.
func (p *PPU) WriteOAMAddr(value uint8) {
	p.oamAddr = value
}

// ReadOAMData handles $2004 reads. No increment; the attribute bytes
// read back with their unimplemented bits clear.
func (p *PPU) ReadOAMData() uint8 {
	value := p.oam[p.oamAddr]
	if p.oamAddr&0x03 == 0x02 {
		value &= 0xE3
	}
	return value
}

// WriteOAMData handles $2004 writes and advances the pointer.
func (p *PPU) WriteOAMData(value uint8) {
	p.oam[p.oamAddr] = value
	p.oamAddr++
}

// WriteScroll handles $2005. The first write sets coarse/fine X, the
// second coarse/fine Y, toggled by w.
func (p *PPU) WriteScroll(value uint8) {
	if !p.w {
		p.t = p.t&0xFFE0 | uint16(value)>>3
		p.x = value & 0x07
		p.w = true
	} else {
		p.t = p.t&0x8FFF | uint16(value&0x07)<<12
		p.t = p.t&0xFC1F | uint16(value&0xF8)<<2
		p.w = false
	}
}

// WriteAddr handles $2006. The second write copies t into v.
func (p *PPU) WriteAddr(value uint8) {
	if !p.w {
		p.t = p.t&0x80FF | uint16(value&0x3F)<<8
		p.w = true
	} else {
		p.t = p.t&0xFF00 | uint16(value)
		p.v = p.t
		p.w = false
		logger.LogPPU("PPUADDR set to $%04X", p.v)
	}
}

// ReadData handles $2007: buffered for VRAM below the palette, immediate
// for palette entries (the buffer still refills from the nametable
// underneath). Auto-increments v.
func (p *PPU) ReadData() uint8 {
	var value uint8
	if p.v&0x3FFF >= 0x3F00 {
		value = p.paletteEntry(uint8(p.v & 0x1F))
		p.readBuffer = p.vram[p.mirrorNametable(p.v&0x2FFF|0x2000)]
	} else {
		value = p.readBuffer
		p.readBuffer = p.readVRAM(p.v)
	}
	p.incrementAddr()
	return value
}

// PeekData returns what a $2007 read would produce, without the buffer
// refill or increment.
func (p *PPU) PeekData() uint8 {
	if p.v&0x3FFF >= 0x3F00 {
		return p.paletteEntry(uint8(p.v & 0x1F))
	}
	return p.readBuffer
}

// WriteData handles $2007 writes. Auto-increments v.
func (p *PPU) WriteData(value uint8) {
	p.writeVRAM(p.v, value)
	p.incrementAddr()
}

func (p *PPU) incrementAddr() {
	if p.ctrl&CtrlIncrement != 0 {
		p.v += 32
	} else {
		p.v++
	}
}
