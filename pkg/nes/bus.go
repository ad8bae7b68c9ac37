package nes

// busAdapter exposes the console's bus routing to the CPU.
type busAdapter struct {
	e *Console
}

func (b busAdapter) Read(addr uint16) uint8 {
	return b.e.busRead(addr)
}

func (b busAdapter) Write(addr uint16, value uint8) {
	b.e.busWrite(addr, value)
}

// busRead routes a CPU read. Every completed read leaves its value on
// the open bus; unmapped regions return what was left there.
func (e *Console) busRead(addr uint16) uint8 {
	var value uint8
	switch {
	case addr < 0x2000:
		value = e.RAM.Read(addr)
	case addr < 0x4000:
		value = e.readPPURegister(0x2000 | addr&0x0007)
	case addr == 0x4015:
		value = e.APU.ReadStatus()
	case addr == 0x4016:
		value = e.OpenBus.Value&0xE0 | e.Pad1.Read()
	case addr == 0x4017:
		value = e.OpenBus.Value&0xE0 | e.Pad2.Read()
	case addr < 0x4020:
		// $4000-$4014 are write-only; $4018-$401F are unmapped.
		value = e.OpenBus.Value
	default:
		if e.Cart != nil {
			value = e.Cart.CPURead(addr)
		} else {
			value = e.OpenBus.Value
		}
	}
	e.OpenBus.Update(value, e.now)
	e.lastReadAddr = addr
	return value
}

// busWrite routes a CPU write. Writes to ROM and unmapped space are
// silently ignored, as on hardware.
func (e *Console) busWrite(addr uint16, value uint8) {
	switch {
	case addr < 0x2000:
		e.RAM.Write(addr, value)
	case addr < 0x4000:
		e.writePPURegister(0x2000|addr&0x0007, value)
	case addr == 0x4014:
		e.startOAMDMA(value)
	case addr == 0x4016:
		e.Pad1.Write(value)
		e.Pad2.Write(value)
	case addr < 0x4018:
		e.APU.WriteRegister(addr, value)
	case addr < 0x4020:
		// Unmapped.
	default:
		if e.Cart != nil {
			e.Cart.CPUWrite(addr, value)
		}
	}
}

// readPPURegister dispatches the readable PPU registers; the write-only
// ones read back as open bus.
func (e *Console) readPPURegister(reg uint16) uint8 {
	switch reg {
	case 0x2002:
		return e.readPPUStatus()
	case 0x2004:
		return e.PPU.ReadOAMData()
	case 0x2007:
		return e.PPU.ReadData()
	default:
		return e.OpenBus.Value
	}
}

// writePPURegister dispatches PPU register writes.
func (e *Console) writePPURegister(reg uint16, value uint8) {
	switch reg {
	case 0x2000:
		e.PPU.WriteCtrl(value)
	case 0x2001:
		e.PPU.WriteMask(value)
	case 0x2003:
		e.PPU.WriteOAMAddr(value)
	case 0x2004:
		e.PPU.WriteOAMData(value)
	case 0x2005:
		e.PPU.WriteScroll(value)
	case 0x2006:
		e.PPU.WriteAddr(value)
	case 0x2007:
		e.PPU.WriteData(value)
	}
}

// readPPUStatus implements the $2002 read side effect. A read landing on
// the exact cycle the VBlank flag was set records the race first; the
// visible flag is computed from the pre-read timestamps, and only then
// does the read timestamp advance. The race read still returns the flag
// as set, but the recorded race keeps the NMI line from ever rising for
// this span.
func (e *Console) readPPUStatus() uint8 {
	l := &e.VBlank
	active := l.LastSetCycle > l.LastClearCycle
	if active && e.now == l.LastSetCycle {
		l.LastRaceCycle = l.LastSetCycle
	}
	visible := active && l.LastReadCycle < l.LastSetCycle
	value := e.PPU.ReadStatus(visible, e.OpenBus.Value)
	l.LastReadCycle = e.now
	return value
}

// PeekMemory reads an address with no side effects: no open-bus update,
// no register latches, no ledger timestamps. Debuggers and watch
// expressions use this path.
func (e *Console) PeekMemory(addr uint16) uint8 {
	switch {
	case addr < 0x2000:
		return e.RAM.Read(addr)
	case addr < 0x4000:
		return e.peekPPURegister(0x2000 | addr&0x0007)
	case addr == 0x4015:
		return e.APU.PeekStatus()
	case addr == 0x4016:
		return e.OpenBus.Value&0xE0 | e.Pad1.Peek()
	case addr == 0x4017:
		return e.OpenBus.Value&0xE0 | e.Pad2.Peek()
	case addr < 0x4020:
		return e.OpenBus.Value
	default:
		if e.Cart != nil {
			return e.Cart.CPURead(addr)
		}
		return e.OpenBus.Value
	}
}

func (e *Console) peekPPURegister(reg uint16) uint8 {
	switch reg {
	case 0x2002:
		l := &e.VBlank
		visible := l.LastSetCycle > l.LastClearCycle && l.LastReadCycle < l.LastSetCycle
		return e.PPU.PeekStatus(visible, e.OpenBus.Value)
	case 0x2004:
		return e.PPU.ReadOAMData()
	case 0x2007:
		return e.PPU.PeekData()
	default:
		return e.OpenBus.Value
	}
}
