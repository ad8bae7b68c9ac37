package ppu

import (
	"github.com/rambo-nes/rambo/pkg/cartridge/mapper"
)

// Cartridge is the CHR/mirroring capability the PPU renders through.
type Cartridge interface {
	PPURead(addr uint16) uint8
	PPUWrite(addr uint16, value uint8)
	Mirroring() mapper.Mirroring
}

// TickFlags is what one PPU dot reports back to the core. The core turns
// NMISignal and VBlankClear into ledger timestamps and feeds A12Rising to
// the mapper.
type TickFlags struct {
	FrameComplete    bool
	RenderingEnabled bool
	NMISignal        bool
	VBlankClear      bool
	A12Rising        bool
}

// PPUCTRL flags
const (
	CtrlNametable   = 0x03
	CtrlIncrement   = 0x04
	CtrlSpriteTable = 0x08
	CtrlBGTable     = 0x10
	CtrlSpriteSize  = 0x20
	CtrlMasterSlave = 0x40
	CtrlNMIEnable   = 0x80
)

// PPUMASK flags
const (
	MaskGreyscale  = 0x01
	MaskBGLeft     = 0x02
	MaskSpriteLeft = 0x04
	MaskBGShow     = 0x08
	MaskSpriteShow = 0x10
	MaskEmphasis   = 0xE0
)

// PPUSTATUS flags
const (
	StatusOverflow   = 0x20
	StatusSprite0Hit = 0x40
	StatusVBlank     = 0x80
)

// maskDelaySlots is the length of the PPUMASK propagation pipeline:
// rendering-enable changes take effect 3-4 dots after the write.
const maskDelaySlots = 4

// PPU is the picture processing unit, ticked once per master-clock
// cycle. All CPU-visible register traffic goes through the methods in
// registers.go; Tick renders exactly one dot.
type PPU struct {
	// Registers
	ctrl   uint8
	mask   uint8
	status uint8 // sprite 0 hit and overflow; VBlank visibility is ledger-derived

	oamAddr uint8

	// Loopy internals
	v uint16
	t uint16
	x uint8
	w bool

	readBuffer uint8

	// Memories
	vram       [4096]uint8 // 2KB mirrored, full 4KB only for four-screen boards
	paletteRAM [32]uint8
	oam        [256]uint8
	secondary  [32]uint8

	// Background pipeline
	ntByte      uint8
	atByte      uint8
	patternLow  uint8
	patternHigh uint8
	bgShiftLow  uint16
	bgShiftHigh uint16
	atShiftLow  uint16
	atShiftHigh uint16

	// Sprite pipeline (fetched on line N for line N+1)
	spriteCount    int
	spritePatLow   [8]uint8
	spritePatHigh  [8]uint8
	spriteAttr     [8]uint8
	spriteX        [8]uint8
	sprite0Next    bool
	sprite0Current bool

	// Progressive sprite evaluation state
	evalN       int
	evalM       int
	evalTmp     uint8
	evalCopying bool
	evalDone    bool
	secIndex    int

	// PPUMASK propagation ring; maskEffective is the delayed value the
	// renderer sees this dot.
	maskRing      [maskDelaySlots]uint8
	maskRingPos   int
	maskEffective uint8

	a12State bool

	cart Cartridge
}

// New creates a new PPU instance
func New() *PPU {
	return &PPU{}
}

// SetCartridge attaches the CHR/mirroring provider.
func (p *PPU) SetCartridge(cart Cartridge) {
	p.cart = cart
}

// Reset restores the power-on register state. OAM, VRAM and the palette
// are preserved, as on hardware.
func (p *PPU) Reset() {
	p.ctrl = 0
	p.mask = 0
	p.status = 0
	p.oamAddr = 0
	p.v = 0
	p.t = 0
	p.x = 0
	p.w = false
	p.readBuffer = 0
	p.bgShiftLow = 0
	p.bgShiftHigh = 0
	p.atShiftLow = 0
	p.atShiftHigh = 0
	p.spriteCount = 0
	p.sprite0Next = false
	p.sprite0Current = false
	p.evalDone = false
	for i := range p.maskRing {
		p.maskRing[i] = 0
	}
	p.maskEffective = 0
	p.a12State = false
}

// effectiveMask is the delayed PPUMASK value used for this dot.
func (p *PPU) effectiveMask() uint8 {
	return p.maskEffective
}

// renderingEnabled reports whether either layer is enabled under the
// delayed mask.
func (p *PPU) renderingEnabled() bool {
	return p.effectiveMask()&(MaskBGShow|MaskSpriteShow) != 0
}

// BGRenderingEnabled reports whether background rendering is enabled
// under the delayed mask. The master clock consults this for the
// odd-frame dot skip.
func (p *PPU) BGRenderingEnabled() bool {
	return p.effectiveMask()&MaskBGShow != 0
}

// Tick advances the PPU by one dot and renders into fb when on a visible
// pixel. The caller supplies the current scanline and dot from the
// master clock. Within the dot the order is: pixel mux, shifter
// movement, shifter reload, memory fetch.
func (p *PPU) Tick(scanline, dot int, fb *[256 * 240]uint32) TickFlags {
	var flags TickFlags

	// The oldest ring slot becomes effective; the register value joins
	// the pipeline in its place.
	p.maskEffective = p.maskRing[p.maskRingPos]
	p.maskRing[p.maskRingPos] = p.mask
	p.maskRingPos = (p.maskRingPos + 1) % maskDelaySlots

	rendering := p.renderingEnabled()
	flags.RenderingEnabled = rendering

	visible := scanline < 240
	prerender := scanline == 261

	if visible || prerender {
		if visible && dot >= 1 && dot <= 256 {
			p.renderPixel(scanline, dot, fb)
		}
		if rendering {
			p.backgroundCycle(dot, &flags)
			p.spriteCycle(scanline, dot, &flags)
			switch {
			case dot == 256:
				p.incrementY()
			case dot == 257:
				p.copyHorizontal()
			case prerender && dot >= 280 && dot <= 304:
				p.copyVertical()
			}
		}
	}

	if scanline == 241 && dot == 1 {
		flags.NMISignal = true
		flags.FrameComplete = true
	}
	if prerender && dot == 1 {
		p.status &^= StatusSprite0Hit | StatusOverflow
		p.w = false
		flags.VBlankClear = true
	}

	return flags
}

// backgroundCycle runs the 8-dot background fetch cadence: shift,
// reload, then one memory access per dot.
func (p *PPU) backgroundCycle(dot int, flags *TickFlags) {
	if (dot >= 2 && dot <= 257) || (dot >= 322 && dot <= 337) {
		p.bgShiftLow <<= 1
		p.bgShiftHigh <<= 1
		p.atShiftLow <<= 1
		p.atShiftHigh <<= 1
	}
	if dot%8 == 1 && ((dot >= 9 && dot <= 257) || dot == 329 || dot == 337) {
		p.reloadShifters()
	}

	switch {
	case (dot >= 1 && dot <= 256) || (dot >= 321 && dot <= 336):
		switch dot % 8 {
		case 1:
			p.fetchNametable()
		case 3:
			p.fetchAttribute()
		case 5:
			p.patternLow = p.fetchPattern(false, flags)
		case 7:
			p.patternHigh = p.fetchPattern(true, flags)
		case 0:
			p.incrementX()
		}
	case dot == 338 || dot == 340:
		// The two throwaway nametable fetches closing the scanline.
		p.fetchNametable()
	}
}

// reloadShifters moves the latched tile into the low bytes of the shift
// registers. The attribute bits are replicated across the byte.
func (p *PPU) reloadShifters() {
	p.bgShiftLow = p.bgShiftLow&0xFF00 | uint16(p.patternLow)
	p.bgShiftHigh = p.bgShiftHigh&0xFF00 | uint16(p.patternHigh)
	if p.atByte&1 != 0 {
		p.atShiftLow = p.atShiftLow&0xFF00 | 0x00FF
	} else {
		p.atShiftLow &= 0xFF00
	}
	if p.atByte&2 != 0 {
		p.atShiftHigh = p.atShiftHigh&0xFF00 | 0x00FF
	} else {
		p.atShiftHigh &= 0xFF00
	}
}

func (p *PPU) fetchNametable() {
	p.ntByte = p.readVRAM(0x2000 | p.v&0x0FFF)
}

func (p *PPU) fetchAttribute() {
	addr := 0x23C0 | p.v&0x0C00 | (p.v>>4)&0x38 | (p.v>>2)&0x07
	attr := p.readVRAM(addr)
	// Pick the quadrant: coarse Y bit 1 and coarse X bit 1.
	shift := (p.v>>4)&4 | p.v&2
	p.atByte = attr >> shift & 0x03
}

// fetchPattern reads one background pattern plane, observing A12.
func (p *PPU) fetchPattern(high bool, flags *TickFlags) uint8 {
	fineY := p.v >> 12 & 0x07
	table := uint16(0)
	if p.ctrl&CtrlBGTable != 0 {
		table = 0x1000
	}
	addr := table | uint16(p.ntByte)<<4 | fineY
	if high {
		addr |= 8
	}
	p.observeA12(addr, flags)
	return p.cart.PPURead(addr)
}

// observeA12 tracks bit 12 of the PPU address bus and reports rising
// edges for the mapper's scanline counter.
func (p *PPU) observeA12(addr uint16, flags *TickFlags) {
	state := addr&0x1000 != 0
	if state && !p.a12State && flags != nil {
		flags.A12Rising = true
	}
	p.a12State = state
}

// incrementX advances coarse X, wrapping into the adjacent nametable.
func (p *PPU) incrementX() {
	if p.v&0x001F == 31 {
		p.v &^= 0x001F
		p.v ^= 0x0400
	} else {
		p.v++
	}
}

// incrementY advances fine Y, rolling into coarse Y at 8 and switching
// the vertical nametable when coarse Y passes row 29. Row 31 wraps
// without switching (the attribute-table rows).
func (p *PPU) incrementY() {
	if p.v&0x7000 != 0x7000 {
		p.v += 0x1000
		return
	}
	p.v &^= 0x7000
	coarseY := p.v >> 5 & 0x1F
	switch coarseY {
	case 29:
		coarseY = 0
		p.v ^= 0x0800
	case 31:
		coarseY = 0
	default:
		coarseY++
	}
	p.v = p.v&^0x03E0 | coarseY<<5
}

func (p *PPU) copyHorizontal() {
	p.v = p.v&^0x041F | p.t&0x041F
}

func (p *PPU) copyVertical() {
	p.v = p.v&^0x7BE0 | p.t&0x7BE0
}

// renderPixel muxes the background and sprite pixels for one visible dot
// and writes the final color.
func (p *PPU) renderPixel(scanline, dot int, fb *[256 * 240]uint32) {
	px := dot - 1
	em := p.effectiveMask()

	var bgPixel uint8
	if em&MaskBGShow != 0 && (px >= 8 || em&MaskBGLeft != 0) {
		shift := 15 - uint16(p.x)
		bgPixel = uint8(p.bgShiftLow>>shift&1 | (p.bgShiftHigh>>shift&1)<<1)
		if bgPixel != 0 {
			attr := uint8(p.atShiftLow>>shift&1 | (p.atShiftHigh>>shift&1)<<1)
			bgPixel |= attr << 2
		}
	}

	var spritePixel uint8
	var spriteBehind bool
	var spriteZero bool
	if em&MaskSpriteShow != 0 && (px >= 8 || em&MaskSpriteLeft != 0) {
		for i := 0; i < p.spriteCount; i++ {
			offset := px - int(p.spriteX[i])
			if offset < 0 || offset > 7 {
				continue
			}
			color := p.spritePatLow[i]>>(7-offset)&1 |
				(p.spritePatHigh[i]>>(7-offset)&1)<<1
			if color == 0 {
				continue
			}
			spritePixel = color | (p.spriteAttr[i]&0x03)<<2 | 0x10
			spriteBehind = p.spriteAttr[i]&0x20 != 0
			spriteZero = i == 0 && p.sprite0Current
			break
		}
	}

	// Sprite 0 hit: both pixels opaque, both layers on, not at x=255.
	if spriteZero && bgPixel&0x03 != 0 && spritePixel&0x03 != 0 && px != 255 &&
		em&MaskBGShow != 0 && em&MaskSpriteShow != 0 {
		p.status |= StatusSprite0Hit
	}

	var paletteIndex uint8
	switch {
	case bgPixel&0x03 == 0 && spritePixel&0x03 == 0:
		paletteIndex = 0
	case bgPixel&0x03 == 0:
		paletteIndex = spritePixel
	case spritePixel&0x03 == 0:
		paletteIndex = bgPixel
	case spriteBehind:
		paletteIndex = bgPixel
	default:
		paletteIndex = spritePixel
	}

	var colorIndex uint8
	if p.renderingEnabled() {
		colorIndex = p.paletteEntry(paletteIndex)
	} else if p.v >= 0x3F00 && p.v <= 0x3FFF {
		// With rendering off the screen shows the palette entry the
		// VRAM pointer rests on.
		colorIndex = p.paletteEntry(uint8(p.v & 0x1F))
	} else {
		colorIndex = p.paletteEntry(0)
	}
	if em&MaskGreyscale != 0 {
		colorIndex &= 0x30
	}

	fb[scanline*256+px] = colorARGB(colorIndex, em&MaskEmphasis)
}

// readVRAM reads the PPU address space below the palette: pattern tables
// through the cartridge, nametables through internal VRAM with the
// cartridge's mirroring.
func (p *PPU) readVRAM(addr uint16) uint8 {
	addr &= 0x3FFF
	if addr < 0x2000 {
		return p.cart.PPURead(addr)
	}
	if addr < 0x3F00 {
		return p.vram[p.mirrorNametable(addr)]
	}
	return p.paletteEntry(uint8(addr & 0x1F))
}

// writeVRAM writes the PPU address space.
func (p *PPU) writeVRAM(addr uint16, value uint8) {
	addr &= 0x3FFF
	switch {
	case addr < 0x2000:
		p.cart.PPUWrite(addr, value)
	case addr < 0x3F00:
		p.vram[p.mirrorNametable(addr)] = value
	default:
		p.writePalette(uint8(addr&0x1F), value)
	}
}

// mirrorNametable folds a $2000-$3EFF address into the VRAM array using
// the cartridge's current mirroring mode.
func (p *PPU) mirrorNametable(addr uint16) uint16 {
	offset := (addr - 0x2000) & 0x0FFF
	mode := mapper.MirrorHorizontal
	if p.cart != nil {
		mode = p.cart.Mirroring()
	}
	switch mode {
	case mapper.MirrorVertical:
		return offset & 0x07FF
	case mapper.MirrorHorizontal:
		// $2000=$2400, $2800=$2C00
		return offset>>1&0x0400 | offset&0x03FF
	case mapper.MirrorSingleScreen0:
		return offset & 0x03FF
	case mapper.MirrorSingleScreen1:
		return 0x0400 | offset&0x03FF
	default: // four-screen
		return offset
	}
}

// OAM returns the sprite table for inspection and save states.
func (p *PPU) OAM() *[256]uint8 { return &p.oam }

// OAMAddr returns the current OAM address pointer.
func (p *PPU) OAMAddr() uint8 { return p.oamAddr }

// Status returns the sprite 0 hit and overflow bits.
func (p *PPU) Status() uint8 { return p.status }

// WriteToggle reports the $2005/$2006 write latch, for tests.
func (p *PPU) WriteToggle() bool { return p.w }

// VRAMAddr returns the current VRAM pointer, for tests.
func (p *PPU) VRAMAddr() uint16 { return p.v }
