// Package nes is the composition root: it owns every component of the
// console and routes the signals between them, one master-clock cycle at
// a time.
package nes

import (
	"github.com/rambo-nes/rambo/pkg/apu"
	"github.com/rambo-nes/rambo/pkg/cartridge"
	"github.com/rambo-nes/rambo/pkg/clock"
	"github.com/rambo-nes/rambo/pkg/cpu"
	"github.com/rambo-nes/rambo/pkg/input"
	"github.com/rambo-nes/rambo/pkg/ledger"
	"github.com/rambo-nes/rambo/pkg/memory"
	"github.com/rambo-nes/rambo/pkg/ppu"
)

// Config selects the console flavor.
type Config struct {
	Region     cartridge.Region
	CPUVariant cpu.Variant
	SampleRate int
}

// DefaultConfig is an NTSC console with the common silicon revision.
func DefaultConfig() Config {
	return Config{
		Region:     cartridge.RegionNTSC,
		CPUVariant: cpu.RP2A03G,
		SampleRate: 44100,
	}
}

// FrameResult summarizes one completed frame.
type FrameResult struct {
	FrameNumber    uint64
	CyclesExecuted uint64
}

// Console owns all components. Tick advances one PPU cycle in the fixed
// order PPU, APU, CPU; run until FrameComplete for whole frames.
type Console struct {
	Config Config

	Clock *clock.MasterClock
	CPU   *cpu.CPU
	PPU   *ppu.PPU
	APU   *apu.APU
	RAM   *memory.WorkRAM
	Cart  *cartridge.Cartridge

	Pad1 *input.Controller
	Pad2 *input.Controller

	VBlank ledger.VBlankLedger
	Dma    ledger.DmaInteractionLedger

	OAMDMA OAMDMAState
	DMCDMA DMCDMAState

	OpenBus memory.OpenBus

	framebuffer [256 * 240]uint32

	// now is the master-clock timestamp of the cycle being executed;
	// bus accesses stamp the ledgers and open bus with it.
	now uint64

	// lastReadAddr feeds the NTSC DPCM dead-cycle address repeat.
	lastReadAddr uint16

	// NMI line bookkeeping: one delivery per VBlank span.
	prevNMILine   bool
	nmiServedSpan uint64

	prevServicingIRQ bool

	frameDone   bool
	frameNumber uint64
}

// New creates a Console with no cartridge loaded.
func New(config Config) *Console {
	e := &Console{
		Config: config,
		Clock:  clock.New(),
		PPU:    ppu.New(),
		APU:    apu.New(config.SampleRate),
		RAM:    memory.New(),
		Pad1:   input.New(),
		Pad2:   input.New(),
	}
	e.CPU = cpu.New(busAdapter{e}, config.CPUVariant)
	return e
}

// LoadCartridge attaches a parsed ROM image and resets the console.
func (e *Console) LoadCartridge(cart *cartridge.Cartridge) {
	e.Cart = cart
	e.PPU.SetCartridge(cart)
	e.Reset()
}

// Reset returns every component to its defined power-on state.
func (e *Console) Reset() {
	e.Clock.Reset()
	e.RAM.Scramble()
	e.OpenBus.Reset()
	e.PPU.Reset()
	e.APU.Reset()
	e.Pad1.Reset()
	e.Pad2.Reset()
	e.VBlank.Reset()
	e.Dma.Reset()
	e.OAMDMA = OAMDMAState{}
	e.DMCDMA = DMCDMAState{}
	e.prevNMILine = false
	e.nmiServedSpan = 0
	e.prevServicingIRQ = false
	e.frameDone = false
	if e.Cart != nil {
		e.Cart.Reset()
	}
	e.now = 0
	e.CPU.Reset()
	for i := range e.framebuffer {
		e.framebuffer[i] = 0xFF000000
	}
}

// Tick advances one master-clock cycle: PPU first, then APU and CPU on
// their shared slot. The PPU runs first so VBlank and IRQ state are
// current when the CPU samples them in the same slot.
func (e *Console) Tick() {
	e.now = e.Clock.PPUCycles
	step := e.Clock.NextTimingStep(e.PPU.BGRenderingEnabled())

	flags := e.PPU.Tick(step.Scanline, step.Dot, &e.framebuffer)

	if flags.NMISignal {
		e.VBlank.LastSetCycle = e.now
	}
	if flags.VBlankClear {
		e.VBlank.LastClearCycle = e.now
		e.VBlank.LastRaceCycle = 0
	}
	if flags.FrameComplete {
		e.frameDone = true
		e.frameNumber++
	}
	if flags.A12Rising && e.Cart != nil {
		e.Cart.OnA12Rising()
	}

	if !step.CPUTick {
		return
	}

	apuResult := e.APU.Tick()
	if apuResult.DMCRequest && !e.DMCDMA.RdyLow {
		e.startDMCDMA(apuResult.DMCAddress)
	}

	irq := apuResult.IRQ
	if e.Cart != nil && e.Cart.IRQLine() {
		irq = true
	}
	e.CPU.IRQLine = irq

	if e.DMCDMA.RdyLow || e.OAMDMA.Active {
		e.dmaCycle()
		e.CPU.Cycles++ // the stalled CPU still counts the cycle
	} else {
		e.CPU.Tick()
	}

	// Acknowledge the mapper when the CPU commits to servicing an IRQ.
	servicingIRQ := e.CPU.Servicing() == cpu.InterruptIRQ
	if servicingIRQ && !e.prevServicingIRQ && e.Cart != nil {
		e.Cart.AcknowledgeIRQ()
	}
	e.prevServicingIRQ = servicingIRQ

	// The NMI line is computed after the CPU's bus access: a $2002 read
	// racing the VBlank set on this very cycle keeps the line from
	// rising. The CPU's edge detector samples the level on its next
	// cycle.
	e.updateNMILine()
}

// vblankVisible derives the CPU-facing VBlank flag from the ledger: set
// more recently than cleared or read, and not killed by an exact-cycle
// race.
func (e *Console) vblankVisible() bool {
	l := &e.VBlank
	if l.LastSetCycle <= l.LastClearCycle {
		return false
	}
	if l.LastReadCycle >= l.LastSetCycle {
		return false
	}
	if l.LastRaceCycle != 0 && l.LastRaceCycle == l.LastSetCycle {
		return false
	}
	return true
}

// updateNMILine drives the CPU's NMI input: VBlank visibility ANDed with
// the PPUCTRL enable bit, with at most one rising edge per VBlank span.
func (e *Console) updateNMILine() {
	line := e.vblankVisible() && e.PPU.NMIEnabled()
	if line && !e.prevNMILine {
		if e.VBlank.LastSetCycle == e.nmiServedSpan {
			line = false
		} else {
			e.nmiServedSpan = e.VBlank.LastSetCycle
		}
	}
	e.CPU.NMILine = line
	e.prevNMILine = line
}

// RunFrame ticks until the frame-complete boundary.
func (e *Console) RunFrame() FrameResult {
	start := e.Clock.PPUCycles
	e.frameDone = false
	for !e.frameDone {
		e.Tick()
	}
	return FrameResult{
		FrameNumber:    e.frameNumber,
		CyclesExecuted: e.Clock.PPUCycles - start,
	}
}

// ControllerLatch snapshots externally sampled button state for both
// ports.
func (e *Console) ControllerLatch(pad1, pad2 uint8) {
	e.Pad1.Latch(pad1)
	e.Pad2.Latch(pad2)
}

// ConsumeAudioSamples drains the APU output buffer. The slice is valid
// until the next Tick; copy it before advancing.
func (e *Console) ConsumeAudioSamples() []float32 {
	return e.APU.ConsumeOutput()
}

// Framebuffer returns the ARGB frame, top-left origin.
func (e *Console) Framebuffer() *[256 * 240]uint32 {
	return &e.framebuffer
}

// FrameNumber returns the number of completed frames.
func (e *Console) FrameNumber() uint64 {
	return e.frameNumber
}
