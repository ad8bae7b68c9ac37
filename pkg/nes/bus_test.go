package nes

import (
	"testing"

	"github.com/rambo-nes/rambo/pkg/cartridge"
	"github.com/rambo-nes/rambo/pkg/input"
)

// buildConsole assembles a console around a mapper-0 image whose PRG
// holds the given program at $8000 and the supplied vectors.
func buildConsole(t *testing.T, program []byte, nmiHandler uint16) *Console {
	t.Helper()
	header := make([]byte, 16)
	copy(header, "NES\x1A")
	header[4] = 1 // 16KB PRG, mirrored at $C000
	prg := make([]byte, 16384)
	copy(prg, program)
	// Vectors live at the top of the mirrored bank.
	prg[0x3FFA] = uint8(nmiHandler)
	prg[0x3FFB] = uint8(nmiHandler >> 8)
	prg[0x3FFC] = 0x00 // reset -> $8000
	prg[0x3FFD] = 0x80
	prg[0x3FFE] = uint8(nmiHandler)
	prg[0x3FFF] = uint8(nmiHandler >> 8)
	data := append(header, prg...)

	cart, err := cartridge.Load(data)
	if err != nil {
		t.Fatalf("cartridge build failed: %v", err)
	}
	e := New(DefaultConfig())
	e.LoadCartridge(cart)
	return e
}

func TestResetLoadsResetVector(t *testing.T) {
	e := buildConsole(t, nil, 0x9000)
	if e.CPU.PC != 0x8000 {
		t.Errorf("PC=%04X after reset, want 8000", e.CPU.PC)
	}
}

func TestRAMMirrors(t *testing.T) {
	e := buildConsole(t, nil, 0x9000)
	e.busWrite(0x0000, 0x3C)
	for _, addr := range []uint16{0x0000, 0x0800, 0x1000, 0x1800} {
		if got := e.busRead(addr); got != 0x3C {
			t.Errorf("RAM mirror $%04X read %02X, want 3C", addr, got)
		}
	}
}

func TestOpenBusOnUnmappedReads(t *testing.T) {
	e := buildConsole(t, nil, 0x9000)
	e.busWrite(0x0000, 0x00)
	e.busRead(0x0000) // open bus now 0x00... then seed a known value
	e.busWrite(0x0010, 0xA7)
	e.busRead(0x0010)
	for _, addr := range []uint16{0x4018, 0x401F, 0x4000, 0x4013, 0x4014} {
		if got := e.busRead(addr); got != 0xA7 {
			t.Errorf("unmapped read $%04X returned %02X, want open bus A7", addr, got)
		}
	}
}

func TestOpenBusTimestampAdvances(t *testing.T) {
	e := buildConsole(t, nil, 0x9000)
	e.now = 100
	e.busRead(0x0000)
	if e.OpenBus.LastUpdateCycle != 100 {
		t.Errorf("open bus timestamp %d, want 100", e.OpenBus.LastUpdateCycle)
	}
}

func TestControllerThroughBus(t *testing.T) {
	e := buildConsole(t, nil, 0x9000)
	e.ControllerLatch(input.ButtonA|input.ButtonStart, 0)
	e.busWrite(0x4016, 1)
	e.busWrite(0x4016, 0)
	want := []uint8{1, 0, 0, 1, 0, 0, 0, 0}
	for i, w := range want {
		if got := e.busRead(0x4016) & 1; got != w {
			t.Errorf("controller bit %d = %d, want %d", i, got, w)
		}
	}
	if e.busRead(0x4016)&1 != 1 {
		t.Error("exhausted controller must return 1")
	}
}

func TestPPURegisterMirroring(t *testing.T) {
	e := buildConsole(t, nil, 0x9000)
	e.busWrite(0x2006, 0x20)
	e.busWrite(0x3FFE, 0x10) // mirrors $2006
	if e.PPU.VRAMAddr() != 0x2010 {
		t.Errorf("v=%04X, want 2010 (register mirror)", e.PPU.VRAMAddr())
	}
}

func TestPeekDoesNotDisturbOpenBus(t *testing.T) {
	e := buildConsole(t, nil, 0x9000)
	e.busWrite(0x0010, 0x55)
	e.now = 7
	e.busRead(0x0010)
	stamp := e.OpenBus.LastUpdateCycle
	value := e.OpenBus.Value

	e.now = 99
	got := e.PeekMemory(0x0010)
	if got != 0x55 {
		t.Errorf("peek returned %02X, want 55", got)
	}
	if e.OpenBus.LastUpdateCycle != stamp || e.OpenBus.Value != value {
		t.Error("peek must not touch open bus state")
	}
}

func TestPeekStatusDoesNotClearVBlank(t *testing.T) {
	e := buildConsole(t, nil, 0x9000)
	e.VBlank.LastSetCycle = 1000
	e.now = 2000
	if e.PeekMemory(0x2002)&0x80 == 0 {
		t.Fatal("peeked status should show VBlank")
	}
	if e.VBlank.LastReadCycle != 0 {
		t.Error("peek must not record a read")
	}
	// A real read clears it.
	if e.busRead(0x2002)&0x80 == 0 {
		t.Fatal("read should observe VBlank")
	}
	if e.busRead(0x2002)&0x80 != 0 {
		t.Error("second read in the same span must see bit 7 clear")
	}
}

func TestWriteOnlyRegistersReadOpenBus(t *testing.T) {
	e := buildConsole(t, nil, 0x9000)
	e.busWrite(0x0010, 0xD1)
	e.busRead(0x0010)
	if got := e.busRead(0x2000); got != 0xD1 {
		t.Errorf("$2000 read returned %02X, want open bus D1", got)
	}
	if got := e.busRead(0x2005); got != 0xD1 {
		t.Errorf("$2005 read returned %02X, want open bus D1", got)
	}
}

func TestStatusLowBitsAreOpenBus(t *testing.T) {
	e := buildConsole(t, nil, 0x9000)
	e.busWrite(0x0010, 0x1F)
	e.busRead(0x0010)
	if got := e.busRead(0x2002) & 0x1F; got != 0x1F {
		t.Errorf("status low bits %02X, want open bus 1F", got)
	}
}

func TestROMWritesIgnored(t *testing.T) {
	e := buildConsole(t, nil, 0x9000)
	before := e.busRead(0x8000)
	e.busWrite(0x8000, ^before)
	if e.busRead(0x8000) != before {
		t.Error("writes to mapper-0 ROM must be ignored")
	}
}
