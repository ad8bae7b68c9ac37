package apu

import (
	"encoding/binary"
	"io"
)

// pulseState, triangleState, noiseState and dmcState pack the channels
// for save states.
type envelopeState struct {
	Start, Loop, Constant uint8
	Volume, Decay, Divider uint8
}

type sweepState struct {
	Enabled, Negate, Reload uint8
	Period, Shift, Counter  uint8
}

type pulseState struct {
	Enabled  uint8
	Duty     uint8
	Sequence uint8
	Timer    uint16
	Period   uint16
	Length   uint8
	Halt     uint8
	Envelope envelopeState
	Sweep    sweepState
}

type state struct {
	Pulse1, Pulse2 pulseState

	TriangleEnabled uint8
	TriangleControl uint8
	LinearCounter   uint8
	LinearReload    uint8
	LinearFlag      uint8
	TriangleSeq     uint8
	TriangleTimer   uint16
	TrianglePeriod  uint16
	TriangleLength  uint8
	TriangleHalt    uint8

	NoiseEnabled uint8
	NoiseMode    uint8
	NoiseShift   uint16
	NoiseTimer   uint16
	NoisePeriod  uint16
	NoiseLength  uint8
	NoiseHalt    uint8
	NoiseEnv     envelopeState

	DMCIRQEnabled    uint8
	DMCIRQFlag       uint8
	DMCLoop          uint8
	DMCRate          uint8
	DMCTimer         uint16
	DMCSampleAddress uint16
	DMCSampleLength  uint16
	DMCCurrentAddr   uint16
	DMCBytesRemaining uint16
	DMCSampleBuffer  uint8
	DMCBufferFull    uint8
	DMCShiftReg      uint8
	DMCBitsRemaining uint8
	DMCSilence       uint8
	DMCOutputLevel   uint8

	FrameMode5 uint8
	IRQInhibit uint8
	FrameCycle uint32
	FrameIRQ   uint8
	OddCycle   uint8
	Cycles     uint64
}

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

func packEnvelope(e *EnvelopeGenerator) envelopeState {
	return envelopeState{
		Start: boolByte(e.Start), Loop: boolByte(e.Loop), Constant: boolByte(e.Constant),
		Volume: e.Volume, Decay: e.Decay, Divider: e.Divider,
	}
}

func unpackEnvelope(e *EnvelopeGenerator, s envelopeState) {
	e.Start, e.Loop, e.Constant = s.Start != 0, s.Loop != 0, s.Constant != 0
	e.Volume, e.Decay, e.Divider = s.Volume, s.Decay, s.Divider
}

func packPulse(p *PulseChannel) pulseState {
	return pulseState{
		Enabled: boolByte(p.Enabled), Duty: p.Duty, Sequence: p.Sequence,
		Timer: p.Timer, Period: p.Period,
		Length: p.Length.Value, Halt: boolByte(p.Length.Halt),
		Envelope: packEnvelope(&p.Envelope),
		Sweep: sweepState{
			Enabled: boolByte(p.Sweep.Enabled), Negate: boolByte(p.Sweep.Negate),
			Reload: boolByte(p.Sweep.Reload),
			Period: p.Sweep.Period, Shift: p.Sweep.Shift, Counter: p.Sweep.Counter,
		},
	}
}

func unpackPulse(p *PulseChannel, s pulseState) {
	p.Enabled, p.Duty, p.Sequence = s.Enabled != 0, s.Duty, s.Sequence
	p.Timer, p.Period = s.Timer, s.Period
	p.Length.Value, p.Length.Halt = s.Length, s.Halt != 0
	unpackEnvelope(&p.Envelope, s.Envelope)
	p.Sweep.Enabled, p.Sweep.Negate, p.Sweep.Reload =
		s.Sweep.Enabled != 0, s.Sweep.Negate != 0, s.Sweep.Reload != 0
	p.Sweep.Period, p.Sweep.Shift, p.Sweep.Counter =
		s.Sweep.Period, s.Sweep.Shift, s.Sweep.Counter
}

// Serialize writes the APU snapshot. The sample output buffer is not
// part of the persisted state.
func (a *APU) Serialize(w io.Writer) error {
	s := state{
		Pulse1: packPulse(&a.Pulse1),
		Pulse2: packPulse(&a.Pulse2),

		TriangleEnabled: boolByte(a.Triangle.Enabled),
		TriangleControl: boolByte(a.Triangle.Control),
		LinearCounter:   a.Triangle.LinearCounter,
		LinearReload:    a.Triangle.LinearReload,
		LinearFlag:      boolByte(a.Triangle.LinearFlag),
		TriangleSeq:     a.Triangle.Sequence,
		TriangleTimer:   a.Triangle.Timer,
		TrianglePeriod:  a.Triangle.Period,
		TriangleLength:  a.Triangle.Length.Value,
		TriangleHalt:    boolByte(a.Triangle.Length.Halt),

		NoiseEnabled: boolByte(a.Noise.Enabled),
		NoiseMode:    boolByte(a.Noise.Mode),
		NoiseShift:   a.Noise.ShiftReg,
		NoiseTimer:   a.Noise.Timer,
		NoisePeriod:  a.Noise.Period,
		NoiseLength:  a.Noise.Length.Value,
		NoiseHalt:    boolByte(a.Noise.Length.Halt),
		NoiseEnv:     packEnvelope(&a.Noise.Envelope),

		DMCIRQEnabled:     boolByte(a.DMC.IRQEnabled),
		DMCIRQFlag:        boolByte(a.DMC.IRQFlag),
		DMCLoop:           boolByte(a.DMC.Loop),
		DMCRate:           a.DMC.Rate,
		DMCTimer:          a.DMC.Timer,
		DMCSampleAddress:  a.DMC.SampleAddress,
		DMCSampleLength:   a.DMC.SampleLength,
		DMCCurrentAddr:    a.DMC.CurrentAddress,
		DMCBytesRemaining: a.DMC.BytesRemaining,
		DMCSampleBuffer:   a.DMC.SampleBuffer,
		DMCBufferFull:     boolByte(a.DMC.SampleBufferFull),
		DMCShiftReg:       a.DMC.ShiftReg,
		DMCBitsRemaining:  a.DMC.BitsRemaining,
		DMCSilence:        boolByte(a.DMC.Silence),
		DMCOutputLevel:    a.DMC.OutputLevel,

		FrameMode5: boolByte(a.FrameMode5),
		IRQInhibit: boolByte(a.IRQInhibit),
		FrameCycle: a.FrameCycle,
		FrameIRQ:   boolByte(a.FrameIRQ),
		OddCycle:   boolByte(a.oddCycle),
		Cycles:     a.Cycles,
	}
	return binary.Write(w, binary.LittleEndian, &s)
}

// Deserialize restores the APU snapshot.
func (a *APU) Deserialize(r io.Reader) error {
	var s state
	if err := binary.Read(r, binary.LittleEndian, &s); err != nil {
		return err
	}
	unpackPulse(&a.Pulse1, s.Pulse1)
	unpackPulse(&a.Pulse2, s.Pulse2)

	a.Triangle.Enabled = s.TriangleEnabled != 0
	a.Triangle.Control = s.TriangleControl != 0
	a.Triangle.LinearCounter = s.LinearCounter
	a.Triangle.LinearReload = s.LinearReload
	a.Triangle.LinearFlag = s.LinearFlag != 0
	a.Triangle.Sequence = s.TriangleSeq
	a.Triangle.Timer = s.TriangleTimer
	a.Triangle.Period = s.TrianglePeriod
	a.Triangle.Length.Value = s.TriangleLength
	a.Triangle.Length.Halt = s.TriangleHalt != 0

	a.Noise.Enabled = s.NoiseEnabled != 0
	a.Noise.Mode = s.NoiseMode != 0
	a.Noise.ShiftReg = s.NoiseShift
	a.Noise.Timer = s.NoiseTimer
	a.Noise.Period = s.NoisePeriod
	a.Noise.Length.Value = s.NoiseLength
	a.Noise.Length.Halt = s.NoiseHalt != 0
	unpackEnvelope(&a.Noise.Envelope, s.NoiseEnv)

	a.DMC.IRQEnabled = s.DMCIRQEnabled != 0
	a.DMC.IRQFlag = s.DMCIRQFlag != 0
	a.DMC.Loop = s.DMCLoop != 0
	a.DMC.Rate = s.DMCRate
	a.DMC.Timer = s.DMCTimer
	a.DMC.SampleAddress = s.DMCSampleAddress
	a.DMC.SampleLength = s.DMCSampleLength
	a.DMC.CurrentAddress = s.DMCCurrentAddr
	a.DMC.BytesRemaining = s.DMCBytesRemaining
	a.DMC.SampleBuffer = s.DMCSampleBuffer
	a.DMC.SampleBufferFull = s.DMCBufferFull != 0
	a.DMC.ShiftReg = s.DMCShiftReg
	a.DMC.BitsRemaining = s.DMCBitsRemaining
	a.DMC.Silence = s.DMCSilence != 0
	a.DMC.OutputLevel = s.DMCOutputLevel

	a.FrameMode5 = s.FrameMode5 != 0
	a.IRQInhibit = s.IRQInhibit != 0
	a.FrameCycle = s.FrameCycle
	a.FrameIRQ = s.FrameIRQ != 0
	a.oddCycle = s.OddCycle != 0
	a.Cycles = s.Cycles
	return nil
}
