// Package ledger holds the pure-data edge ledgers. The emulation core is
// the only writer; every field is a timestamp in master-clock PPU cycles
// or a plain flag. The ledgers carry no behavior beyond Reset.
package ledger

// VBlankLedger records when the VBlank flag was set, cleared, read and
// raced. NMI line computation and $2002 read semantics are derived from
// these timestamps by the core.
type VBlankLedger struct {
	// LastSetCycle is the master-clock cycle of the most recent VBlank
	// set (scanline 241 dot 1).
	LastSetCycle uint64

	// LastClearCycle is the cycle of the most recent VBlank clear
	// (pre-render scanline 261 dot 1).
	LastClearCycle uint64

	// LastReadCycle is the cycle of the most recent $2002 read.
	LastReadCycle uint64

	// LastRaceCycle is nonzero when a $2002 read landed on the exact
	// cycle the flag was set. Such a read suppresses NMI for the span.
	LastRaceCycle uint64
}

// Reset clears all timestamps.
func (l *VBlankLedger) Reset() {
	*l = VBlankLedger{}
}

// DmaInteractionLedger records the cycles at which DMC DMA activity
// started and stopped and where OAM DMA paused and resumed around it.
type DmaInteractionLedger struct {
	LastDmcActiveCycle   uint64
	LastDmcInactiveCycle uint64
	OamPauseCycle        uint64
	OamResumeCycle       uint64

	// NeedsAlignmentAfterDmc is set while a paused OAM DMA still owes
	// one pure wait cycle before its next transfer.
	NeedsAlignmentAfterDmc bool
}

// Reset clears all timestamps and flags.
func (l *DmaInteractionLedger) Reset() {
	*l = DmaInteractionLedger{}
}
