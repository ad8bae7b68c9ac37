package ledger

import "testing"

func TestVBlankLedgerReset(t *testing.T) {
	l := VBlankLedger{
		LastSetCycle:   10,
		LastClearCycle: 20,
		LastReadCycle:  30,
		LastRaceCycle:  40,
	}
	l.Reset()
	if l != (VBlankLedger{}) {
		t.Errorf("reset left state behind: %+v", l)
	}
}

func TestDmaLedgerReset(t *testing.T) {
	l := DmaInteractionLedger{
		LastDmcActiveCycle:     1,
		LastDmcInactiveCycle:   2,
		OamPauseCycle:          3,
		OamResumeCycle:         4,
		NeedsAlignmentAfterDmc: true,
	}
	l.Reset()
	if l != (DmaInteractionLedger{}) {
		t.Errorf("reset left state behind: %+v", l)
	}
}
