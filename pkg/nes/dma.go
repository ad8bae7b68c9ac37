package nes

import (
	"github.com/rambo-nes/rambo/pkg/cartridge"
	"github.com/rambo-nes/rambo/pkg/logger"
)

// OAMDMAState is the $4014 sprite DMA engine: 256 read/write pairs into
// OAM, preceded by one halt cycle and, when started on an odd CPU cycle,
// one extra alignment cycle.
type OAMDMAState struct {
	Active         bool
	SourcePage     uint8
	CurrentOffset  uint8
	CurrentCycle   uint16
	HaltCycle      bool
	NeedsAlignment bool
	TempValue      uint8
	writePhase     bool
}

// DMCDMAState is the sample-fetch engine: four stall cycles of which
// only the last performs the read.
type DMCDMAState struct {
	RdyLow          bool
	StallRemaining  uint8
	SampleAddress   uint16
	SampleByte      uint8
	TransferComplete bool
	LastReadAddress uint16
}

// startOAMDMA begins a sprite DMA triggered by a $4014 write.
func (e *Console) startOAMDMA(page uint8) {
	e.OAMDMA = OAMDMAState{
		Active:         true,
		SourcePage:     page,
		HaltCycle:      true,
		NeedsAlignment: e.CPU.Cycles&1 == 1,
	}
	logger.LogDMA("OAM DMA from $%02X00, odd start=%v", page, e.OAMDMA.NeedsAlignment)
}

// startDMCDMA begins a sample fetch requested by the APU.
func (e *Console) startDMCDMA(addr uint16) {
	e.DMCDMA.RdyLow = true
	e.DMCDMA.StallRemaining = 4
	e.DMCDMA.SampleAddress = addr
	e.DMCDMA.TransferComplete = false
	e.DMCDMA.LastReadAddress = e.lastReadAddr
	logger.LogDMA("DMC DMA fetch of $%04X", addr)
}

// dmaCycle executes one CPU slot on behalf of the DMA engines. DMC
// outranks OAM, but only its halt and read cycles actually steal the
// bus; OAM transfers continue under the dummy and alignment cycles.
func (e *Console) dmaCycle() {
	d := &e.DMCDMA
	o := &e.OAMDMA

	if d.RdyLow {
		switch d.StallRemaining {
		case 4:
			// Halt cycle: the bus is DMC's, OAM pauses here.
			e.Dma.LastDmcActiveCycle = e.now
			if o.Active {
				e.Dma.OamPauseCycle = e.now
			}
			e.dmcDeadCycle()
			d.StallRemaining--
		case 3, 2:
			// Dummy and alignment cycles: OAM may keep transferring.
			if o.Active && !o.HaltCycle && !o.NeedsAlignment {
				e.oamDMACycle()
			} else {
				e.dmcDeadCycle()
				e.oamWaitCycle()
			}
			d.StallRemaining--
		case 1:
			d.SampleByte = e.busRead(d.SampleAddress)
			e.APU.CompleteDMCFetch(d.SampleByte)
			d.StallRemaining = 0
			d.RdyLow = false
			d.TransferComplete = true
			e.Dma.LastDmcInactiveCycle = e.now
			if o.Active {
				// One pure wait before OAM resumes transfers.
				o.NeedsAlignment = true
				e.Dma.NeedsAlignmentAfterDmc = true
			}
		}
		return
	}

	if !o.Active {
		return
	}
	if o.HaltCycle {
		o.HaltCycle = false
		return
	}
	if o.NeedsAlignment {
		o.NeedsAlignment = false
		if e.Dma.NeedsAlignmentAfterDmc {
			e.Dma.NeedsAlignmentAfterDmc = false
			e.Dma.OamResumeCycle = e.now
		}
		return
	}
	e.oamDMACycle()
}

// oamWaitCycle consumes OAM's startup cycles while DMC owns the timing.
func (e *Console) oamWaitCycle() {
	o := &e.OAMDMA
	if !o.Active {
		return
	}
	if o.HaltCycle {
		o.HaltCycle = false
	} else if o.NeedsAlignment && !e.Dma.NeedsAlignmentAfterDmc {
		o.NeedsAlignment = false
	}
}

// oamDMACycle runs one of the 512 transfer cycles: reads on even
// transfer cycles, writes into OAM on odd ones. OAM bytes land at the
// current OAM address and wrap; nothing is duplicated across a pause.
func (e *Console) oamDMACycle() {
	o := &e.OAMDMA
	if !o.writePhase {
		o.TempValue = e.busRead(uint16(o.SourcePage)<<8 | uint16(o.CurrentOffset))
		o.writePhase = true
	} else {
		e.PPU.WriteOAMData(o.TempValue)
		o.writePhase = false
		o.CurrentOffset++
		if o.CurrentOffset == 0 {
			o.Active = false
		}
	}
	o.CurrentCycle++
}

// dmcDeadCycle models the bus during DMC's non-read stall cycles. The
// NTSC part repeats the last CPU read (the DPCM corruption bug); PAL
// leaves the bus alone.
func (e *Console) dmcDeadCycle() {
	if e.Config.Region != cartridge.RegionNTSC {
		return
	}
	e.busRead(e.DMCDMA.LastReadAddress)
}
