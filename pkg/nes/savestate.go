package nes

import (
	"encoding/binary"
	"io"
)

// Save-state layout: a tagged concatenation of component snapshots in a
// fixed order, every field little-endian packed. Loading a snapshot
// reproduces identical tick behavior from that point on.

// snapshotMagic identifies the format; the version bumps on any layout
// change.
var snapshotMagic = [4]byte{'R', 'M', 'B', 'O'}

const snapshotVersion uint32 = 1

type clockState struct {
	PPUCycles uint64
	Scanline  int32
	Dot       int32
	Frame     uint64
}

type consoleState struct {
	Now           uint64
	LastReadAddr  uint16
	PrevNMILine   uint8
	FrameDone     uint8
	NMIServedSpan uint64
	FrameNumber   uint64
	OpenBusValue  uint8
	OpenBusCycle  uint64
}

type ledgerState struct {
	LastSetCycle   uint64
	LastClearCycle uint64
	LastReadCycle  uint64
	LastRaceCycle  uint64

	LastDmcActiveCycle   uint64
	LastDmcInactiveCycle uint64
	OamPauseCycle        uint64
	OamResumeCycle       uint64
	NeedsAlignment       uint8
}

type dmaState struct {
	OamActive         uint8
	OamSourcePage     uint8
	OamCurrentOffset  uint8
	OamCurrentCycle   uint16
	OamHaltCycle      uint8
	OamNeedsAlignment uint8
	OamTempValue      uint8
	OamWritePhase     uint8

	DmcRdyLow           uint8
	DmcStallRemaining   uint8
	DmcSampleAddress    uint16
	DmcSampleByte       uint8
	DmcTransferComplete uint8
	DmcLastReadAddress  uint16
}

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// Serialize writes the full console snapshot in the fixed component
// order: clock, CPU, PPU, APU, work RAM, ledgers, DMA engines,
// cartridge RAM.
func (e *Console) Serialize(w io.Writer) error {
	if err := binary.Write(w, binary.LittleEndian, snapshotMagic); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, snapshotVersion); err != nil {
		return err
	}

	cs := clockState{
		PPUCycles: e.Clock.PPUCycles,
		Scanline:  int32(e.Clock.Scanline),
		Dot:       int32(e.Clock.Dot),
		Frame:     e.Clock.Frame,
	}
	if err := binary.Write(w, binary.LittleEndian, &cs); err != nil {
		return err
	}
	if err := e.CPU.Serialize(w); err != nil {
		return err
	}
	if err := e.PPU.Serialize(w); err != nil {
		return err
	}
	if err := e.APU.Serialize(w); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, &e.RAM.Data); err != nil {
		return err
	}

	ls := ledgerState{
		LastSetCycle:         e.VBlank.LastSetCycle,
		LastClearCycle:       e.VBlank.LastClearCycle,
		LastReadCycle:        e.VBlank.LastReadCycle,
		LastRaceCycle:        e.VBlank.LastRaceCycle,
		LastDmcActiveCycle:   e.Dma.LastDmcActiveCycle,
		LastDmcInactiveCycle: e.Dma.LastDmcInactiveCycle,
		OamPauseCycle:        e.Dma.OamPauseCycle,
		OamResumeCycle:       e.Dma.OamResumeCycle,
		NeedsAlignment:       boolByte(e.Dma.NeedsAlignmentAfterDmc),
	}
	if err := binary.Write(w, binary.LittleEndian, &ls); err != nil {
		return err
	}

	ds := dmaState{
		OamActive:         boolByte(e.OAMDMA.Active),
		OamSourcePage:     e.OAMDMA.SourcePage,
		OamCurrentOffset:  e.OAMDMA.CurrentOffset,
		OamCurrentCycle:   e.OAMDMA.CurrentCycle,
		OamHaltCycle:      boolByte(e.OAMDMA.HaltCycle),
		OamNeedsAlignment: boolByte(e.OAMDMA.NeedsAlignment),
		OamTempValue:      e.OAMDMA.TempValue,
		OamWritePhase:     boolByte(e.OAMDMA.writePhase),

		DmcRdyLow:           boolByte(e.DMCDMA.RdyLow),
		DmcStallRemaining:   e.DMCDMA.StallRemaining,
		DmcSampleAddress:    e.DMCDMA.SampleAddress,
		DmcSampleByte:       e.DMCDMA.SampleByte,
		DmcTransferComplete: boolByte(e.DMCDMA.TransferComplete),
		DmcLastReadAddress:  e.DMCDMA.LastReadAddress,
	}
	if err := binary.Write(w, binary.LittleEndian, &ds); err != nil {
		return err
	}

	es := consoleState{
		Now:           e.now,
		LastReadAddr:  e.lastReadAddr,
		PrevNMILine:   boolByte(e.prevNMILine),
		FrameDone:     boolByte(e.frameDone),
		NMIServedSpan: e.nmiServedSpan,
		FrameNumber:   e.frameNumber,
		OpenBusValue:  e.OpenBus.Value,
		OpenBusCycle:  e.OpenBus.LastUpdateCycle,
	}
	if err := binary.Write(w, binary.LittleEndian, &es); err != nil {
		return err
	}

	return e.serializeCartridgeRAM(w)
}

// serializeCartridgeRAM persists the mutable cartridge memories.
func (e *Console) serializeCartridgeRAM(w io.Writer) error {
	var prgLen, chrLen uint32
	if e.Cart != nil {
		prgLen = uint32(len(e.Cart.PRGRAM))
		chrLen = uint32(len(e.Cart.CHRRAM))
	}
	if err := binary.Write(w, binary.LittleEndian, prgLen); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, chrLen); err != nil {
		return err
	}
	if prgLen > 0 {
		if _, err := w.Write(e.Cart.PRGRAM); err != nil {
			return err
		}
	}
	if chrLen > 0 {
		if _, err := w.Write(e.Cart.CHRRAM); err != nil {
			return err
		}
	}
	return nil
}

// Deserialize restores a snapshot written by Serialize. The same
// cartridge must already be loaded.
func (e *Console) Deserialize(r io.Reader) error {
	var magic [4]byte
	if err := binary.Read(r, binary.LittleEndian, &magic); err != nil {
		return err
	}
	if magic != snapshotMagic {
		return errBadSnapshot
	}
	var version uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return err
	}
	if version != snapshotVersion {
		return errBadSnapshot
	}

	var cs clockState
	if err := binary.Read(r, binary.LittleEndian, &cs); err != nil {
		return err
	}
	e.Clock.PPUCycles = cs.PPUCycles
	e.Clock.Scanline = int(cs.Scanline)
	e.Clock.Dot = int(cs.Dot)
	e.Clock.Frame = cs.Frame

	if err := e.CPU.Deserialize(r); err != nil {
		return err
	}
	if err := e.PPU.Deserialize(r); err != nil {
		return err
	}
	if err := e.APU.Deserialize(r); err != nil {
		return err
	}
	if err := binary.Read(r, binary.LittleEndian, &e.RAM.Data); err != nil {
		return err
	}

	var ls ledgerState
	if err := binary.Read(r, binary.LittleEndian, &ls); err != nil {
		return err
	}
	e.VBlank.LastSetCycle = ls.LastSetCycle
	e.VBlank.LastClearCycle = ls.LastClearCycle
	e.VBlank.LastReadCycle = ls.LastReadCycle
	e.VBlank.LastRaceCycle = ls.LastRaceCycle
	e.Dma.LastDmcActiveCycle = ls.LastDmcActiveCycle
	e.Dma.LastDmcInactiveCycle = ls.LastDmcInactiveCycle
	e.Dma.OamPauseCycle = ls.OamPauseCycle
	e.Dma.OamResumeCycle = ls.OamResumeCycle
	e.Dma.NeedsAlignmentAfterDmc = ls.NeedsAlignment != 0

	var ds dmaState
	if err := binary.Read(r, binary.LittleEndian, &ds); err != nil {
		return err
	}
	e.OAMDMA = OAMDMAState{
		Active:         ds.OamActive != 0,
		SourcePage:     ds.OamSourcePage,
		CurrentOffset:  ds.OamCurrentOffset,
		CurrentCycle:   ds.OamCurrentCycle,
		HaltCycle:      ds.OamHaltCycle != 0,
		NeedsAlignment: ds.OamNeedsAlignment != 0,
		TempValue:      ds.OamTempValue,
		writePhase:     ds.OamWritePhase != 0,
	}
	e.DMCDMA = DMCDMAState{
		RdyLow:           ds.DmcRdyLow != 0,
		StallRemaining:   ds.DmcStallRemaining,
		SampleAddress:    ds.DmcSampleAddress,
		SampleByte:       ds.DmcSampleByte,
		TransferComplete: ds.DmcTransferComplete != 0,
		LastReadAddress:  ds.DmcLastReadAddress,
	}

	var es consoleState
	if err := binary.Read(r, binary.LittleEndian, &es); err != nil {
		return err
	}
	e.now = es.Now
	e.lastReadAddr = es.LastReadAddr
	e.prevNMILine = es.PrevNMILine != 0
	e.frameDone = es.FrameDone != 0
	e.nmiServedSpan = es.NMIServedSpan
	e.frameNumber = es.FrameNumber
	e.OpenBus.Value = es.OpenBusValue
	e.OpenBus.LastUpdateCycle = es.OpenBusCycle

	return e.deserializeCartridgeRAM(r)
}

func (e *Console) deserializeCartridgeRAM(r io.Reader) error {
	var prgLen, chrLen uint32
	if err := binary.Read(r, binary.LittleEndian, &prgLen); err != nil {
		return err
	}
	if err := binary.Read(r, binary.LittleEndian, &chrLen); err != nil {
		return err
	}
	if e.Cart == nil {
		if prgLen != 0 || chrLen != 0 {
			return errBadSnapshot
		}
		return nil
	}
	if int(prgLen) != len(e.Cart.PRGRAM) || int(chrLen) != len(e.Cart.CHRRAM) {
		return errBadSnapshot
	}
	if prgLen > 0 {
		if _, err := io.ReadFull(r, e.Cart.PRGRAM); err != nil {
			return err
		}
	}
	if chrLen > 0 {
		if _, err := io.ReadFull(r, e.Cart.CHRRAM); err != nil {
			return err
		}
	}
	return nil
}
