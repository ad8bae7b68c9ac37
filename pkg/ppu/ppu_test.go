package ppu

import (
	"testing"

	"github.com/rambo-nes/rambo/pkg/cartridge/mapper"
)

// testCart is an 8KB CHR RAM cartridge with a fixed mirroring mode.
type testCart struct {
	chr    [8192]uint8
	mirror mapper.Mirroring
}

func (c *testCart) PPURead(addr uint16) uint8         { return c.chr[addr&0x1FFF] }
func (c *testCart) PPUWrite(addr uint16, value uint8) { c.chr[addr&0x1FFF] = value }
func (c *testCart) Mirroring() mapper.Mirroring       { return c.mirror }

func newTestPPU() (*PPU, *testCart, *[256 * 240]uint32) {
	cart := &testCart{mirror: mapper.MirrorHorizontal}
	p := New()
	p.SetCartridge(cart)
	p.Reset()
	return p, cart, &[256 * 240]uint32{}
}

// prime pushes the written mask through the delay ring on an idle
// scanline.
func prime(p *PPU, fb *[256 * 240]uint32) {
	for i := 0; i < 8; i++ {
		p.Tick(240, i, fb)
	}
}

func TestScrollRegisterToggle(t *testing.T) {
	p, _, _ := newTestPPU()
	p.WriteScroll(0x7D) // coarse X = 15, fine X = 5
	if p.t&0x1F != 15 || p.x != 5 {
		t.Errorf("t=%04X x=%d after first scroll write", p.t, p.x)
	}
	if !p.WriteToggle() {
		t.Error("w should be set after first write")
	}
	p.WriteScroll(0x5E) // coarse Y = 11, fine Y = 6
	if (p.t>>5)&0x1F != 11 || (p.t>>12)&0x07 != 6 {
		t.Errorf("t=%04X after second scroll write", p.t)
	}
	if p.WriteToggle() {
		t.Error("w should clear after second write")
	}
}

func TestAddrRegisterCopiesTtoV(t *testing.T) {
	p, _, _ := newTestPPU()
	p.WriteAddr(0x21)
	if p.VRAMAddr() != 0 {
		t.Error("v must not change on the first $2006 write")
	}
	p.WriteAddr(0x08)
	if p.VRAMAddr() != 0x2108 {
		t.Errorf("v=%04X, want 2108", p.VRAMAddr())
	}
}

func TestAddrHighWriteMasksTo14Bits(t *testing.T) {
	p, _, _ := newTestPPU()
	p.WriteAddr(0xFF)
	p.WriteAddr(0x00)
	if p.VRAMAddr() != 0x3F00 {
		t.Errorf("v=%04X, want 3F00 (top bits masked)", p.VRAMAddr())
	}
}

func TestDataReadBuffered(t *testing.T) {
	p, _, _ := newTestPPU()
	p.WriteAddr(0x20)
	p.WriteAddr(0x00)
	p.WriteData(0xAA)
	p.WriteData(0xBB)

	p.WriteAddr(0x20)
	p.WriteAddr(0x00)
	first := p.ReadData() // stale buffer
	second := p.ReadData()
	third := p.ReadData()
	if second != 0xAA || third != 0xBB {
		t.Errorf("buffered reads got %02X/%02X/%02X, want ?/AA/BB", first, second, third)
	}
}

func TestDataReadPaletteImmediate(t *testing.T) {
	p, _, _ := newTestPPU()
	p.WriteAddr(0x3F)
	p.WriteAddr(0x01)
	p.WriteData(0x15)

	p.WriteAddr(0x3F)
	p.WriteAddr(0x01)
	if got := p.ReadData(); got != 0x15 {
		t.Errorf("palette read %02X, want 15 (unbuffered)", got)
	}
}

func TestDataIncrement32(t *testing.T) {
	p, _, _ := newTestPPU()
	p.WriteCtrl(CtrlIncrement)
	p.WriteAddr(0x20)
	p.WriteAddr(0x00)
	p.WriteData(0x01)
	if p.VRAMAddr() != 0x2020 {
		t.Errorf("v=%04X, want 2020 (increment 32)", p.VRAMAddr())
	}
}

func TestPaletteBackdropMirroring(t *testing.T) {
	p, _, _ := newTestPPU()
	p.WriteAddr(0x3F)
	p.WriteAddr(0x10)
	p.WriteData(0x2A)
	if got := p.paletteEntry(0x00); got != 0x2A {
		t.Errorf("$3F10 write not visible at $3F00: %02X", got)
	}
	for _, pair := range [][2]uint8{{0x14, 0x04}, {0x18, 0x08}, {0x1C, 0x0C}} {
		p.writePalette(pair[0], 0x20+pair[1])
		if p.paletteEntry(pair[1]) != 0x20+pair[1] {
			t.Errorf("mirror $3F%02X -> $3F%02X broken", pair[0], pair[1])
		}
	}
}

func TestOAMDataSemantics(t *testing.T) {
	p, _, _ := newTestPPU()
	p.WriteOAMAddr(0x10)
	p.WriteOAMData(0x55)
	if p.OAMAddr() != 0x11 {
		t.Error("OAMDATA write must advance the pointer")
	}
	p.WriteOAMAddr(0x10)
	if p.ReadOAMData() != 0x55 {
		t.Error("OAMDATA read returned wrong byte")
	}
	if p.OAMAddr() != 0x10 {
		t.Error("OAMDATA read must not advance the pointer")
	}
	// Attribute bytes mask their unimplemented bits.
	p.WriteOAMAddr(0x02)
	p.WriteOAMData(0xFF)
	p.WriteOAMAddr(0x02)
	if got := p.ReadOAMData(); got != 0xE3 {
		t.Errorf("attribute readback %02X, want E3", got)
	}
}

func TestMaskPropagationDelay(t *testing.T) {
	p, _, fb := newTestPPU()
	p.WriteMask(MaskBGShow)
	for i := 0; i < 4; i++ {
		p.Tick(240, i, fb)
		if p.BGRenderingEnabled() && i < 4 {
			if i < 3 {
				t.Fatalf("mask became effective after %d dots, too early", i+1)
			}
		}
	}
	p.Tick(240, 4, fb)
	if !p.BGRenderingEnabled() {
		t.Error("mask not effective after the delay window")
	}
}

func TestVBlankSignals(t *testing.T) {
	p, _, fb := newTestPPU()
	flags := p.Tick(241, 0, fb)
	if flags.NMISignal {
		t.Error("NMI signal fired at dot 0")
	}
	flags = p.Tick(241, 1, fb)
	if !flags.NMISignal || !flags.FrameComplete {
		t.Error("scanline 241 dot 1 must raise NMISignal and FrameComplete")
	}
	flags = p.Tick(261, 1, fb)
	if !flags.VBlankClear {
		t.Error("pre-render dot 1 must raise VBlankClear")
	}
}

func TestPreRenderClearsFlagsAndToggle(t *testing.T) {
	p, _, fb := newTestPPU()
	p.status |= StatusSprite0Hit | StatusOverflow
	p.WriteAddr(0x21) // leave w set
	p.Tick(261, 1, fb)
	if p.status&(StatusSprite0Hit|StatusOverflow) != 0 {
		t.Error("sprite flags must clear at pre-render dot 1")
	}
	if p.WriteToggle() {
		t.Error("w must reset at pre-render dot 1")
	}
}

func TestSpriteEvaluationFindsNextScanlineSprites(t *testing.T) {
	p, _, fb := newTestPPU()
	// Sprite 0 at Y=1: on scanline 0 evaluation targets scanline 1.
	p.oam[0] = 1
	p.oam[1] = 2
	p.oam[2] = 0
	p.oam[3] = 40
	// Sprite 5 at Y=200: out of range.
	p.oam[20] = 200

	p.WriteMask(MaskBGShow | MaskSpriteShow)
	prime(p, fb)
	for dot := 0; dot <= 320; dot++ {
		p.Tick(0, dot, fb)
	}
	if p.spriteCount != 1 {
		t.Errorf("spriteCount=%d, want 1", p.spriteCount)
	}
	if !p.sprite0Current {
		t.Error("sprite 0 presence not latched")
	}
	if p.spriteX[0] != 40 {
		t.Errorf("sprite X=%d, want 40", p.spriteX[0])
	}
}

func TestSpriteOverflowFlag(t *testing.T) {
	p, _, fb := newTestPPU()
	// Nine sprites on the same line.
	for i := 0; i < 9; i++ {
		p.oam[i*4] = 1
		p.oam[i*4+1] = uint8(i)
		p.oam[i*4+3] = uint8(i * 8)
	}
	p.WriteMask(MaskBGShow | MaskSpriteShow)
	prime(p, fb)
	for dot := 0; dot <= 256; dot++ {
		p.Tick(0, dot, fb)
	}
	if p.status&StatusOverflow == 0 {
		t.Error("ninth in-range sprite must set the overflow flag")
	}
	if p.secIndex != 32 {
		t.Errorf("secondary OAM holds %d bytes, want 32", p.secIndex)
	}
}

func TestSecondaryOAMCleared(t *testing.T) {
	p, _, fb := newTestPPU()
	for i := range p.secondary {
		p.secondary[i] = 0
	}
	p.WriteMask(MaskBGShow | MaskSpriteShow)
	prime(p, fb)
	for dot := 0; dot <= 64; dot++ {
		p.Tick(0, dot, fb)
	}
	for i, v := range p.secondary {
		if v != 0xFF {
			t.Fatalf("secondary[%d]=%02X after clear phase, want FF", i, v)
		}
	}
}

func TestBackgroundPixelPipeline(t *testing.T) {
	p, cart, fb := newTestPPU()

	// Tile 1 row 0: all pixels color 1.
	cart.chr[0x0010] = 0xFF
	// Nametable $2000 tile 0 uses tile index 1.
	p.WriteAddr(0x20)
	p.WriteAddr(0x00)
	p.WriteData(0x01)
	// Palette: backdrop $0F, color 1 of palette 0 = $21.
	p.WriteAddr(0x3F)
	p.WriteAddr(0x00)
	p.WriteData(0x0F)
	p.WriteData(0x21)

	p.WriteAddr(0x20) // reset v so t copy gives origin... t holds $2000 high
	p.WriteAddr(0x00)

	p.WriteMask(MaskBGShow | MaskBGLeft)

	// Pre-render scanline loads the pipeline; scanline 0 renders.
	for dot := 0; dot <= 340; dot++ {
		p.Tick(261, dot, fb)
	}
	for dot := 0; dot <= 256; dot++ {
		p.Tick(0, dot, fb)
	}

	want := colorARGB(0x21, 0)
	if fb[0] != want {
		t.Errorf("pixel (0,0) = %08X, want %08X", fb[0], want)
	}
	backdrop := colorARGB(0x0F, 0)
	if fb[8] != backdrop {
		t.Errorf("pixel (8,0) = %08X, want backdrop %08X", fb[8], backdrop)
	}
}

func TestGreyscaleMask(t *testing.T) {
	p, _, fb := newTestPPU()
	p.WriteAddr(0x3F)
	p.WriteAddr(0x00)
	p.WriteData(0x16) // backdrop color with chroma
	p.WriteAddr(0x20) // park v outside the palette window
	p.WriteAddr(0x00)
	p.WriteMask(MaskGreyscale)
	prime(p, fb)
	p.Tick(0, 1, fb)
	if fb[0] != colorARGB(0x16&0x30, 0) {
		t.Errorf("greyscale pixel %08X, want %08X", fb[0], colorARGB(0x10, 0))
	}
}

func TestA12RisingOnSpriteTableFetch(t *testing.T) {
	p, _, fb := newTestPPU()
	p.WriteCtrl(CtrlSpriteTable) // sprites from $1000, background from $0000
	p.WriteMask(MaskBGShow | MaskSpriteShow)
	prime(p, fb)

	rising := 0
	for dot := 0; dot <= 340; dot++ {
		flags := p.Tick(0, dot, fb)
		if flags.A12Rising {
			if dot < 257 || dot > 320 {
				t.Errorf("A12 rise outside sprite fetch region at dot %d", dot)
			}
			rising++
		}
	}
	if rising == 0 {
		t.Error("no A12 rising edge during sprite fetches")
	}
}

func TestNametableMirroring(t *testing.T) {
	p, cart, _ := newTestPPU()

	cart.mirror = mapper.MirrorHorizontal
	if p.mirrorNametable(0x2000) != p.mirrorNametable(0x2400) {
		t.Error("horizontal: $2000 and $2400 must share a table")
	}
	if p.mirrorNametable(0x2000) == p.mirrorNametable(0x2800) {
		t.Error("horizontal: $2000 and $2800 must differ")
	}

	cart.mirror = mapper.MirrorVertical
	if p.mirrorNametable(0x2000) != p.mirrorNametable(0x2800) {
		t.Error("vertical: $2000 and $2800 must share a table")
	}
	if p.mirrorNametable(0x2000) == p.mirrorNametable(0x2400) {
		t.Error("vertical: $2000 and $2400 must differ")
	}

	cart.mirror = mapper.MirrorSingleScreen0
	if p.mirrorNametable(0x2C00) != p.mirrorNametable(0x2000) {
		t.Error("single screen: all tables must collapse")
	}
}

func TestLoopyIncrements(t *testing.T) {
	p, _, _ := newTestPPU()
	p.v = 0x001F // coarse X at 31
	p.incrementX()
	if p.v != 0x0400 {
		t.Errorf("coarse X wrap: v=%04X, want 0400", p.v)
	}

	p.v = 0x73A0 // fine Y 7, coarse Y 29
	p.incrementY()
	if p.v != 0x0800 {
		t.Errorf("Y increment at row 29: v=%04X, want 0800", p.v)
	}

	p.v = 0x73E0 // fine Y 7, coarse Y 31: wraps without table switch
	p.incrementY()
	if p.v != 0x0000 {
		t.Errorf("Y increment at row 31: v=%04X, want 0000", p.v)
	}
}
