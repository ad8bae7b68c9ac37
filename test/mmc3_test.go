package test

import (
	"testing"

	"github.com/rambo-nes/rambo/pkg/cartridge"
	"github.com/rambo-nes/rambo/pkg/nes"
)

// buildMMC3Console assembles a mapper-4 console. The program and
// handler live in the last 8KB bank, which MMC3 fixes at $E000.
func buildMMC3Console(t *testing.T, program, handler []byte) *nes.Console {
	t.Helper()
	header := make([]byte, 16)
	copy(header, "NES\x1A")
	header[4] = 2    // 32KB PRG
	header[6] = 0x40 // mapper 4 low nibble
	prg := make([]byte, 32768)
	copy(prg[0x6000:], handler) // $E000 in the fixed bank
	copy(prg[0x6010:], program) // $E010
	prg[0x7FFA] = 0x00          // NMI -> $E000 (unused)
	prg[0x7FFB] = 0xE0
	prg[0x7FFC] = 0x10 // reset -> $E010
	prg[0x7FFD] = 0xE0
	prg[0x7FFE] = 0x00 // IRQ -> $E000
	prg[0x7FFF] = 0xE0
	data := append(header, prg...)

	cart, err := cartridge.Load(data)
	if err != nil {
		t.Fatalf("cartridge build failed: %v", err)
	}
	console := nes.New(nes.DefaultConfig())
	console.LoadCartridge(cart)
	return console
}

// TestMMC3ScanlineIRQ programs the scanline counter, renders with the
// sprite table on $1000 so A12 rises once per scanline, and expects
// exactly one IRQ (the handler disables further ones).
func TestMMC3ScanlineIRQ(t *testing.T) {
	program := []byte{
		0xA9, 0x00, //       LDA #$00
		0x85, 0x10, //       STA $10
		0xA9, 0x18, //       LDA #$18: background and sprites on
		0x8D, 0x01, 0x20, // STA $2001
		0xA9, 0x08, //       LDA #$08: sprite table at $1000
		0x8D, 0x00, 0x20, // STA $2000
		0xA9, 0x04, //       LDA #$04
		0x8D, 0x00, 0xC0, // STA $C000: reload value 4
		0x8D, 0x01, 0xC0, // STA $C001: force reload
		0x8D, 0x01, 0xE0, // STA $E001: enable IRQ
		0xA9, 0x40, //       LDA #$40: inhibit the APU frame IRQ
		0x8D, 0x17, 0x40, // STA $4017
		0x58,             // CLI
		0x4C, 0x2F, 0xE0, // JMP self
	}
	handler := []byte{
		0xE6, 0x10, //       INC $10
		0x8D, 0x00, 0xE0, // STA $E000: disable further IRQs
		0x40, // RTI
	}
	console := buildMMC3Console(t, program, handler)

	console.RunFrame()
	console.RunFrame()

	if got := console.PeekMemory(0x10); got != 1 {
		t.Errorf("MMC3 IRQ handler ran %d times, want exactly 1", got)
	}
}

// TestMMC3IRQNeverFiresWithoutRendering keeps rendering off: no A12
// edges, no counter clocks, no IRQ.
func TestMMC3IRQNeverFiresWithoutRendering(t *testing.T) {
	program := []byte{
		0xA9, 0x00, //       LDA #$00
		0x85, 0x10, //       STA $10
		0xA9, 0x04, //       LDA #$04
		0x8D, 0x00, 0xC0, // STA $C000
		0x8D, 0x01, 0xC0, // STA $C001
		0x8D, 0x01, 0xE0, // STA $E001
		0xA9, 0x40, //       LDA #$40
		0x8D, 0x17, 0x40, // STA $4017
		0x58,             // CLI
		0x4C, 0x25, 0xE0, // JMP self
	}
	handler := []byte{0xE6, 0x10, 0x40} // INC $10, RTI
	console := buildMMC3Console(t, program, handler)

	console.RunFrame()
	console.RunFrame()

	if got := console.PeekMemory(0x10); got != 0 {
		t.Errorf("IRQ fired %d times with rendering off, want 0", got)
	}
}
