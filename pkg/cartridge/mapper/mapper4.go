package mapper

import (
	"github.com/rambo-nes/rambo/pkg/logger"
)

// Mapper4 (MMC3) - 8KB PRG / 1KB CHR banking with a scanline counter
// clocked by rising edges of PPU address line 12. The core performs the
// A12 edge detection; each OnA12Rising call clocks the counter once.
type Mapper4 struct {
	data *CartridgeData

	// Bank registers R0-R7 (R0-R5 CHR, R6-R7 PRG)
	bankRegisters [8]uint8
	bankSelect    uint8

	mirroringMode uint8 // 0 = vertical, 1 = horizontal
	prgRAMProtect uint8

	irqReloadValue uint8
	irqCounter     uint8
	irqEnabled     bool
	irqPending     bool
	irqReloadFlag  bool // set by a $C001 write; forces reload on next clock

	prgBankCount uint8
	chrBankCount uint16
}

// NewMapper4 creates a new MMC3 mapper instance
func NewMapper4(data *CartridgeData) *Mapper4 {
	m := &Mapper4{
		data:         data,
		prgBankCount: uint8(len(data.PRGROM) / 8192),
	}
	if len(data.CHRROM) > 0 {
		m.chrBankCount = uint16(len(data.CHRROM) / 1024)
	} else {
		m.chrBankCount = uint16(len(data.CHRRAM) / 1024)
	}
	m.Reset()
	return m
}

// Reset restores the power-on register state
func (m *Mapper4) Reset() {
	m.bankSelect = 0
	m.mirroringMode = 0
	m.prgRAMProtect = 0x80
	m.irqReloadValue = 0
	m.irqCounter = 0
	m.irqEnabled = false
	m.irqPending = false
	m.irqReloadFlag = false
	for i := range m.bankRegisters {
		m.bankRegisters[i] = 0
	}
	if m.prgBankCount >= 2 {
		m.bankRegisters[6] = m.prgBankCount - 2
		m.bankRegisters[7] = m.prgBankCount - 1
	}
}

// CPURead reads from banked PRG ROM or PRG RAM
func (m *Mapper4) CPURead(addr uint16) uint8 {
	switch {
	case addr >= 0x8000:
		return m.data.prgRead(m.prgOffset(addr))
	case addr >= 0x6000:
		if len(m.data.PRGRAM) > 0 && m.prgRAMProtect&0x80 != 0 {
			return m.data.PRGRAM[int(addr-0x6000)%len(m.data.PRGRAM)]
		}
	}
	return 0
}

// prgOffset translates a CPU address through the current PRG mode
func (m *Mapper4) prgOffset(addr uint16) uint32 {
	if m.prgBankCount == 0 {
		return uint32(addr - 0x8000)
	}
	prgMode := (m.bankSelect >> 6) & 1
	var bank uint8
	switch {
	case addr < 0xA000:
		if prgMode == 0 {
			bank = m.bankRegisters[6]
		} else {
			bank = m.prgBankCount - 2
		}
	case addr < 0xC000:
		bank = m.bankRegisters[7]
	case addr < 0xE000:
		if prgMode == 0 {
			bank = m.prgBankCount - 2
		} else {
			bank = m.bankRegisters[6]
		}
	default:
		bank = m.prgBankCount - 1
	}
	bank %= m.prgBankCount
	return uint32(bank)*8192 + uint32(addr&0x1FFF)
}

// CPUWrite handles the MMC3 register pairs at even/odd addresses
func (m *Mapper4) CPUWrite(addr uint16, value uint8) {
	if addr >= 0x6000 && addr < 0x8000 {
		if len(m.data.PRGRAM) > 0 && m.prgRAMProtect&0x80 != 0 && m.prgRAMProtect&0x40 == 0 {
			m.data.PRGRAM[int(addr-0x6000)%len(m.data.PRGRAM)] = value
		}
		return
	}
	if addr < 0x8000 {
		return
	}

	even := addr&1 == 0
	switch {
	case addr < 0xA000:
		if even {
			m.bankSelect = value
		} else {
			m.bankRegisters[m.bankSelect&0x07] = value
		}
	case addr < 0xC000:
		if even {
			m.mirroringMode = value & 1
		} else {
			m.prgRAMProtect = value
		}
	case addr < 0xE000:
		if even {
			m.irqReloadValue = value
		} else {
			// $C001: clear the counter so the next A12 clock reloads it
			m.irqCounter = 0
			m.irqReloadFlag = true
		}
	default:
		if even {
			m.irqEnabled = false
			m.irqPending = false
		} else {
			m.irqEnabled = true
		}
	}
}

// PPURead reads from banked CHR
func (m *Mapper4) PPURead(addr uint16) uint8 {
	return m.data.chrRead(m.chrOffset(addr))
}

// PPUWrite writes to banked CHR RAM
func (m *Mapper4) PPUWrite(addr uint16, value uint8) {
	m.data.chrWrite(m.chrOffset(addr), value)
}

// chrOffset translates a PPU address through the current CHR mode.
// CHR mode 1 swaps the 2KB and 1KB regions between pattern tables.
func (m *Mapper4) chrOffset(addr uint16) uint32 {
	if m.chrBankCount == 0 {
		return uint32(addr)
	}
	chrMode := (m.bankSelect >> 7) & 1
	a := addr
	if chrMode == 1 {
		a ^= 0x1000
	}
	var bank uint16
	var fine uint16
	switch {
	case a < 0x0800:
		bank = uint16(m.bankRegisters[0] &^ 1)
		fine = a & 0x07FF
	case a < 0x1000:
		bank = uint16(m.bankRegisters[1] &^ 1)
		fine = a & 0x07FF
	case a < 0x1400:
		bank = uint16(m.bankRegisters[2])
		fine = a & 0x03FF
	case a < 0x1800:
		bank = uint16(m.bankRegisters[3])
		fine = a & 0x03FF
	case a < 0x1C00:
		bank = uint16(m.bankRegisters[4])
		fine = a & 0x03FF
	default:
		bank = uint16(m.bankRegisters[5])
		fine = a & 0x03FF
	}
	bank %= m.chrBankCount
	return uint32(bank)*1024 + uint32(fine)
}

// OnA12Rising clocks the scanline counter. When the counter reaches zero
// with IRQs enabled the IRQ line is asserted.
func (m *Mapper4) OnA12Rising() {
	if m.irqCounter == 0 || m.irqReloadFlag {
		m.irqCounter = m.irqReloadValue
		m.irqReloadFlag = false
	} else {
		m.irqCounter--
	}

	if m.irqCounter == 0 && m.irqEnabled {
		m.irqPending = true
		logger.LogMapper("MMC3 IRQ asserted (reload=%d)", m.irqReloadValue)
	}
}

// IRQLine reports the level-triggered IRQ output
func (m *Mapper4) IRQLine() bool { return m.irqPending }

// AcknowledgeIRQ deasserts the IRQ line
func (m *Mapper4) AcknowledgeIRQ() { m.irqPending = false }

// Mirroring reflects the $A000 register unless the board is four-screen
func (m *Mapper4) Mirroring() Mirroring {
	if m.data.HeaderMirroring == MirrorFourScreen {
		return MirrorFourScreen
	}
	if m.mirroringMode == 0 {
		return MirrorVertical
	}
	return MirrorHorizontal
}
