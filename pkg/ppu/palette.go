package ppu

// NES master palette - 64 colors total
var masterPalette = [64][3]uint8{
	// 0x00-0x0F
	{0x80, 0x80, 0x80}, {0x00, 0x3D, 0xA6}, {0x00, 0x12, 0xB0}, {0x44, 0x00, 0x96},
	{0xA1, 0x00, 0x5E}, {0xC7, 0x00, 0x28}, {0xBA, 0x06, 0x00}, {0x8C, 0x17, 0x00},
	{0x5C, 0x2F, 0x00}, {0x10, 0x45, 0x00}, {0x05, 0x4A, 0x00}, {0x00, 0x47, 0x2E},
	{0x00, 0x41, 0x66}, {0x00, 0x00, 0x00}, {0x05, 0x05, 0x05}, {0x05, 0x05, 0x05},

	// 0x10-0x1F
	{0xC7, 0xC7, 0xC7}, {0x00, 0x77, 0xFF}, {0x21, 0x55, 0xFF}, {0x82, 0x37, 0xFA},
	{0xEB, 0x2F, 0xB5}, {0xFF, 0x29, 0x50}, {0xFF, 0x22, 0x00}, {0xD6, 0x32, 0x00},
	{0xC4, 0x62, 0x00}, {0x35, 0x80, 0x00}, {0x05, 0x8F, 0x00}, {0x00, 0x8A, 0x55},
	{0x00, 0x99, 0xCC}, {0x21, 0x21, 0x21}, {0x09, 0x09, 0x09}, {0x09, 0x09, 0x09},

	// 0x20-0x2F
	{0xFF, 0xFF, 0xFF}, {0x0F, 0xD7, 0xFF}, {0x69, 0xA2, 0xFF}, {0xD4, 0x80, 0xFF},
	{0xFF, 0x45, 0xF3}, {0xFF, 0x61, 0x8B}, {0xFF, 0x88, 0x33}, {0xFF, 0x9C, 0x12},
	{0xFA, 0xBC, 0x20}, {0x9F, 0xE3, 0x0E}, {0x2B, 0xF0, 0x35}, {0x0C, 0xF0, 0xA4},
	{0x05, 0xFB, 0xFF}, {0x5E, 0x5E, 0x5E}, {0x0D, 0x0D, 0x0D}, {0x0D, 0x0D, 0x0D},

	// 0x30-0x3F
	{0xFF, 0xFF, 0xFF}, {0xA6, 0xFC, 0xFF}, {0xB3, 0xEC, 0xFF}, {0xDA, 0xAB, 0xEB},
	{0xFF, 0xA8, 0xF9}, {0xFF, 0xAB, 0xB3}, {0xFF, 0xD2, 0xB0}, {0xFF, 0xEF, 0xA6},
	{0xFF, 0xF7, 0x9C}, {0xD7, 0xFF, 0xB3}, {0xC6, 0xFF, 0xDE}, {0xC4, 0xFF, 0xF6},
	{0xC4, 0xF0, 0xFF}, {0xCC, 0xCC, 0xCC}, {0x3C, 0x3C, 0x3C}, {0x3C, 0x3C, 0x3C},
}

// mirrorPaletteIndex folds the sprite backdrop mirrors: $3F10/$3F14/
// $3F18/$3F1C are the same cells as $3F00/$3F04/$3F08/$3F0C.
func mirrorPaletteIndex(index uint8) uint8 {
	index &= 0x1F
	if index >= 0x10 && index&0x03 == 0 {
		index -= 0x10
	}
	return index
}

// paletteEntry reads palette RAM with backdrop mirroring applied.
func (p *PPU) paletteEntry(index uint8) uint8 {
	return p.paletteRAM[mirrorPaletteIndex(index)] & 0x3F
}

// writePalette writes palette RAM with backdrop mirroring applied.
func (p *PPU) writePalette(index, value uint8) {
	p.paletteRAM[mirrorPaletteIndex(index)] = value
}

// PaletteRAM exposes the raw palette cells for save states.
func (p *PPU) PaletteRAM() *[32]uint8 { return &p.paletteRAM }

// colorARGB converts a master palette index plus emphasis bits into an
// ARGB pixel. Each emphasis bit attenuates the other two channels.
func colorARGB(index uint8, emphasis uint8) uint32 {
	rgb := masterPalette[index&0x3F]
	r, g, b := rgb[0], rgb[1], rgb[2]
	if emphasis&0x20 != 0 { // emphasize red
		g = attenuate(g)
		b = attenuate(b)
	}
	if emphasis&0x40 != 0 { // emphasize green
		r = attenuate(r)
		b = attenuate(b)
	}
	if emphasis&0x80 != 0 { // emphasize blue
		r = attenuate(r)
		g = attenuate(g)
	}
	return 0xFF000000 | uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}

func attenuate(c uint8) uint8 {
	return uint8(uint16(c) * 3 / 4)
}
