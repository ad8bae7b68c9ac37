package apu

import "testing"

func newTestAPU() *APU {
	return New(0) // no sample generation in unit tests
}

func TestLengthCounterLoad(t *testing.T) {
	a := newTestAPU()
	a.WriteRegister(0x4015, 0x01) // enable pulse 1
	a.WriteRegister(0x4003, 0x08) // length index 1 -> 254
	if a.Pulse1.Length.Value != 254 {
		t.Errorf("length=%d, want 254", a.Pulse1.Length.Value)
	}
}

func TestLengthLoadIgnoredWhenDisabled(t *testing.T) {
	a := newTestAPU()
	a.WriteRegister(0x4003, 0x08)
	if a.Pulse1.Length.Value != 0 {
		t.Error("length load must be ignored while the channel is disabled")
	}
}

func TestDisableClearsLength(t *testing.T) {
	a := newTestAPU()
	a.WriteRegister(0x4015, 0x0F)
	a.WriteRegister(0x4003, 0x08)
	a.WriteRegister(0x400B, 0x08)
	a.WriteRegister(0x4015, 0x00)
	if a.Pulse1.Length.Value != 0 || a.Triangle.Length.Value != 0 {
		t.Error("disabling channels must zero their length counters")
	}
}

func TestStatusBits(t *testing.T) {
	a := newTestAPU()
	a.WriteRegister(0x4015, 0x03)
	a.WriteRegister(0x4003, 0x08)
	a.WriteRegister(0x4007, 0x08)
	status := a.ReadStatus()
	if status&0x03 != 0x03 {
		t.Errorf("status=%02X, want pulse bits set", status)
	}
}

func TestFrameIRQAtStep4(t *testing.T) {
	a := newTestAPU()
	for i := 0; i < frameStep4-1; i++ {
		if res := a.Tick(); res.IRQ {
			t.Fatalf("IRQ asserted early at cycle %d", i)
		}
	}
	if res := a.Tick(); !res.IRQ {
		t.Error("frame IRQ must assert at the step-4 cycle")
	}
}

func TestFrameIRQInhibited(t *testing.T) {
	a := newTestAPU()
	a.WriteRegister(0x4017, 0x40) // inhibit
	for i := 0; i < frameRoll4+10; i++ {
		if res := a.Tick(); res.IRQ {
			t.Fatalf("IRQ asserted despite inhibit at cycle %d", i)
		}
	}
}

func TestStatusReadClearsFrameIRQ(t *testing.T) {
	a := newTestAPU()
	a.FrameIRQ = true
	status := a.ReadStatus()
	if status&0x40 == 0 {
		t.Error("status must report the frame IRQ")
	}
	if a.FrameIRQ {
		t.Error("status read must clear the frame IRQ flag")
	}
}

func TestFiveStepModeNoIRQ(t *testing.T) {
	a := newTestAPU()
	a.WriteRegister(0x4017, 0x80)
	for i := 0; i < frameRoll5+10; i++ {
		if res := a.Tick(); res.IRQ {
			t.Fatalf("5-step mode asserted IRQ at cycle %d", i)
		}
	}
}

func TestFiveStepImmediateClock(t *testing.T) {
	a := newTestAPU()
	a.WriteRegister(0x4015, 0x01)
	a.WriteRegister(0x4000, 0x00) // halt clear
	a.WriteRegister(0x4003, 0x08) // length 254
	a.WriteRegister(0x4017, 0x80) // 5-step: immediate quarter+half
	if a.Pulse1.Length.Value != 253 {
		t.Errorf("length=%d, want 253 (immediate half-frame clock)", a.Pulse1.Length.Value)
	}
}

func TestEnvelopeDecay(t *testing.T) {
	a := newTestAPU()
	a.WriteRegister(0x4015, 0x01)
	a.WriteRegister(0x4000, 0x00) // envelope period 0, not constant
	a.WriteRegister(0x4003, 0x08) // sets start flag
	a.quarterFrame()
	if a.Pulse1.Envelope.Decay != 15 {
		t.Errorf("decay=%d after start, want 15", a.Pulse1.Envelope.Decay)
	}
	a.quarterFrame()
	if a.Pulse1.Envelope.Decay != 14 {
		t.Errorf("decay=%d, want 14", a.Pulse1.Envelope.Decay)
	}
}

func TestEnvelopeLoop(t *testing.T) {
	a := newTestAPU()
	a.Pulse1.Envelope.Loop = true
	a.Pulse1.Envelope.Start = true
	a.quarterFrame()
	for i := 0; i < 15; i++ {
		a.quarterFrame()
	}
	if a.Pulse1.Envelope.Decay != 0 {
		t.Fatalf("decay=%d, want 0", a.Pulse1.Envelope.Decay)
	}
	a.quarterFrame()
	if a.Pulse1.Envelope.Decay != 15 {
		t.Errorf("looped decay=%d, want 15", a.Pulse1.Envelope.Decay)
	}
}

func TestSweepNegateComplements(t *testing.T) {
	a := newTestAPU()
	a.Pulse1.Period = 0x200
	a.Pulse1.Sweep.Shift = 2
	a.Pulse1.Sweep.Negate = true
	// Pulse 1 uses ones complement: one lower than pulse 2.
	if got := a.Pulse1.sweepTarget(true); got != 0x200-0x80-1 {
		t.Errorf("pulse1 target=%03X, want 17F", got)
	}
	a.Pulse2.Period = 0x200
	a.Pulse2.Sweep.Shift = 2
	a.Pulse2.Sweep.Negate = true
	if got := a.Pulse2.sweepTarget(false); got != 0x200-0x80 {
		t.Errorf("pulse2 target=%03X, want 180", got)
	}
}

func TestSweepMuting(t *testing.T) {
	a := newTestAPU()
	a.Pulse1.Period = 7
	if !a.Pulse1.sweepMuting(true) {
		t.Error("period below 8 must mute")
	}
	a.Pulse1.Period = 0x700
	a.Pulse1.Sweep.Shift = 0
	if !a.Pulse1.sweepMuting(true) {
		t.Error("target beyond $7FF must mute")
	}
	a.Pulse1.Period = 0x100
	a.Pulse1.Sweep.Shift = 1
	if a.Pulse1.sweepMuting(true) {
		t.Error("in-range configuration should not mute")
	}
}

func TestSweepAppliesTarget(t *testing.T) {
	a := newTestAPU()
	a.Pulse1.Period = 0x100
	a.Pulse1.Sweep.Enabled = true
	a.Pulse1.Sweep.Shift = 1
	a.Pulse1.Sweep.Period = 0
	a.Pulse1.Sweep.Counter = 0
	a.Pulse1.clockSweep(true)
	if a.Pulse1.Period != 0x180 {
		t.Errorf("period=%03X after sweep, want 180", a.Pulse1.Period)
	}
}

func TestTriangleLinearCounter(t *testing.T) {
	a := newTestAPU()
	a.WriteRegister(0x4015, 0x04)
	a.WriteRegister(0x4008, 0x05) // control clear, reload 5
	a.WriteRegister(0x400B, 0x00) // sets the reload flag
	a.quarterFrame()
	if a.Triangle.LinearCounter != 5 {
		t.Errorf("linear=%d, want 5 (reload)", a.Triangle.LinearCounter)
	}
	a.quarterFrame()
	if a.Triangle.LinearCounter != 4 {
		t.Errorf("linear=%d, want 4", a.Triangle.LinearCounter)
	}
}

func TestNoiseLFSRAdvances(t *testing.T) {
	a := newTestAPU()
	a.Noise.Period = 0
	before := a.Noise.ShiftReg
	a.Noise.tickTimer()
	if a.Noise.ShiftReg == before {
		t.Error("LFSR did not shift")
	}
	// Register 1 shifts to 0 with feedback 1 in bit 14.
	if a.Noise.ShiftReg != 0x4000 {
		t.Errorf("shiftReg=%04X, want 4000", a.Noise.ShiftReg)
	}
}

func TestDMCRequestsFetchWhenBufferEmpty(t *testing.T) {
	a := newTestAPU()
	a.WriteRegister(0x4012, 0x04) // sample address $C100
	a.WriteRegister(0x4013, 0x01) // 17 bytes
	a.WriteRegister(0x4015, 0x10) // enable DMC
	res := a.Tick()
	if !res.DMCRequest {
		t.Fatal("empty buffer with bytes remaining must request DMA")
	}
	if res.DMCAddress != 0xC100 {
		t.Errorf("request address %04X, want C100", res.DMCAddress)
	}
}

func TestDMCCompleteFetchAdvances(t *testing.T) {
	a := newTestAPU()
	a.WriteRegister(0x4012, 0x00)
	a.WriteRegister(0x4013, 0x00) // length 1
	a.WriteRegister(0x4015, 0x10)
	a.CompleteDMCFetch(0xAA)
	if !a.DMC.SampleBufferFull || a.DMC.SampleBuffer != 0xAA {
		t.Error("fetch completion must fill the sample buffer")
	}
	if a.DMC.BytesRemaining != 0 {
		t.Errorf("bytesRemaining=%d, want 0", a.DMC.BytesRemaining)
	}
	if a.DMC.CurrentAddress != 0xC001 {
		t.Errorf("currentAddress=%04X, want C001", a.DMC.CurrentAddress)
	}
}

func TestDMCLoopRestartsSample(t *testing.T) {
	a := newTestAPU()
	a.WriteRegister(0x4010, 0x40) // loop
	a.WriteRegister(0x4012, 0x00)
	a.WriteRegister(0x4013, 0x00)
	a.WriteRegister(0x4015, 0x10)
	a.CompleteDMCFetch(0x00)
	if a.DMC.BytesRemaining != a.DMC.SampleLength {
		t.Error("looping sample must restart on exhaustion")
	}
	if a.DMC.CurrentAddress != a.DMC.SampleAddress {
		t.Error("looping sample must rewind the address")
	}
}

func TestDMCIRQOnSampleEnd(t *testing.T) {
	a := newTestAPU()
	a.WriteRegister(0x4010, 0x80) // IRQ enable
	a.WriteRegister(0x4012, 0x00)
	a.WriteRegister(0x4013, 0x00)
	a.WriteRegister(0x4015, 0x10)
	a.CompleteDMCFetch(0x00)
	if !a.DMC.IRQFlag {
		t.Error("sample end with IRQ enabled must set the DMC IRQ flag")
	}
	if !a.IRQLine() {
		t.Error("DMC IRQ must drive the IRQ line")
	}
	a.WriteRegister(0x4015, 0x10)
	if a.DMC.IRQFlag {
		t.Error("$4015 write must clear the DMC IRQ flag")
	}
}

func TestDMCOutputLevelBounds(t *testing.T) {
	a := newTestAPU()
	a.DMC.Silence = false
	a.DMC.OutputLevel = 126
	a.DMC.ShiftReg = 0xFF
	a.DMC.BitsRemaining = 8
	a.DMC.Timer = 0
	var res TickResult
	a.tickDMC(&res)
	if a.DMC.OutputLevel > 127 {
		t.Errorf("output level %d escaped 0..127", a.DMC.OutputLevel)
	}
}

func TestDirectLoadOutput(t *testing.T) {
	a := newTestAPU()
	a.WriteRegister(0x4011, 0xFF)
	if a.DMC.OutputLevel != 0x7F {
		t.Errorf("output=%d, want 127 (7-bit load)", a.DMC.OutputLevel)
	}
}

func TestMixerSilenceIsZero(t *testing.T) {
	a := newTestAPU()
	if out := a.mixChannels(); out != 0 {
		t.Errorf("silent mix = %f, want 0", out)
	}
}

func TestFrameCounterRolls(t *testing.T) {
	a := newTestAPU()
	for i := 0; i < frameRoll4; i++ {
		a.Tick()
	}
	if a.FrameCycle != 0 {
		t.Errorf("frame cycle=%d after roll, want 0", a.FrameCycle)
	}
}
