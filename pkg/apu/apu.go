package apu

// APU is the audio processing unit, ticked once per CPU cycle. The
// frame counter uses the exact NTSC cycle schedule; pulse and noise
// timers clock every second CPU cycle, the triangle every cycle.
type APU struct {
	Pulse1   PulseChannel
	Pulse2   PulseChannel
	Triangle TriangleChannel
	Noise    NoiseChannel
	DMC      DMCChannel

	// Frame counter
	FrameMode5    bool // $4017 bit 7
	IRQInhibit    bool // $4017 bit 6
	FrameCycle    uint32
	FrameIRQ      bool

	// Cycle parity for the half-rate channel clocks
	oddCycle bool

	Cycles uint64

	// Audio output
	Output          []float32
	sampleCounter   float64
	cyclesPerSample float64
}

// TickResult reports the APU's outputs for one CPU cycle.
type TickResult struct {
	// IRQ is the level of the combined frame/DMC interrupt line.
	IRQ bool

	// DMCRequest asks the core to schedule a DMC DMA fetch of
	// DMCAddress.
	DMCRequest bool
	DMCAddress uint16
}

// PulseChannel is one of the two square wave channels.
type PulseChannel struct {
	Enabled  bool
	Duty     uint8
	Sequence uint8
	Timer    uint16
	Period   uint16
	Length   LengthCounter
	Envelope EnvelopeGenerator
	Sweep    SweepUnit
}

// TriangleChannel is the 32-step triangle wave channel.
type TriangleChannel struct {
	Enabled       bool
	Control       bool // halt length / hold linear
	LinearCounter uint8
	LinearReload  uint8
	LinearFlag    bool
	Sequence      uint8
	Timer         uint16
	Period        uint16
	Length        LengthCounter
}

// NoiseChannel is the LFSR noise channel.
type NoiseChannel struct {
	Enabled  bool
	Mode     bool
	ShiftReg uint16
	Timer    uint16
	Period   uint16
	Length   LengthCounter
	Envelope EnvelopeGenerator
}

// DMCChannel is the delta modulation channel. The sample fetches go
// through the core's DMC DMA engine, never through a direct memory read
// here.
type DMCChannel struct {
	IRQEnabled bool
	IRQFlag    bool
	Loop       bool
	Rate       uint8
	Timer      uint16

	SampleAddress  uint16
	SampleLength   uint16
	CurrentAddress uint16
	BytesRemaining uint16

	SampleBuffer    uint8
	SampleBufferFull bool

	ShiftReg      uint8
	BitsRemaining uint8
	Silence       bool
	OutputLevel   uint8
}

// SweepUnit adjusts a pulse channel's period on half-frames.
type SweepUnit struct {
	Enabled bool
	Period  uint8
	Negate  bool
	Shift   uint8
	Reload  bool
	Counter uint8
}

// LengthCounter silences a channel when it reaches zero.
type LengthCounter struct {
	Value uint8
	Halt  bool
}

// EnvelopeGenerator produces the decaying volume for pulse and noise.
type EnvelopeGenerator struct {
	Start    bool
	Loop     bool
	Constant bool
	Volume   uint8
	Decay    uint8
	Divider  uint8
}

// Length counter lookup table
var lengthTable = [32]uint8{
	10, 254, 20, 2, 40, 4, 80, 6, 160, 8, 60, 10, 14, 12, 26, 14,
	12, 16, 24, 18, 48, 20, 96, 22, 192, 24, 72, 26, 16, 28, 32, 30,
}

// NTSC frame counter schedule (CPU cycles)
const (
	frameQuarter1 = 7457
	frameHalf1    = 14913
	frameQuarter3 = 22371
	frameStep4    = 29829
	frameRoll4    = 29830
	frameHalf5    = 37281
	frameRoll5    = 37282
)

// New creates a new APU producing samples at the given rate.
func New(sampleRate int) *APU {
	a := &APU{
		Output: make([]float32, 0, 4096),
	}
	if sampleRate > 0 {
		a.cyclesPerSample = 1789773.0 / float64(sampleRate)
	}
	a.initializeChannels()
	return a
}

// Reset restores the power-on state.
func (a *APU) Reset() {
	a.Pulse1 = PulseChannel{}
	a.Pulse2 = PulseChannel{}
	a.Triangle = TriangleChannel{}
	a.Noise = NoiseChannel{}
	a.DMC = DMCChannel{}
	a.FrameMode5 = false
	a.IRQInhibit = false
	a.FrameCycle = 0
	a.FrameIRQ = false
	a.oddCycle = false
	a.Cycles = 0
	a.Output = a.Output[:0]
	a.sampleCounter = 0
	a.initializeChannels()
}

func (a *APU) initializeChannels() {
	a.Noise.ShiftReg = 1
	a.DMC.Silence = true
	a.DMC.BitsRemaining = 8
}

// Tick advances the APU by one CPU cycle.
func (a *APU) Tick() TickResult {
	a.Cycles++
	var result TickResult

	a.tickFrameCounter()

	// Channel timers: the triangle runs at CPU rate, everything else
	// at half rate.
	a.Triangle.tickTimer()
	a.oddCycle = !a.oddCycle
	if a.oddCycle {
		a.Pulse1.tickTimer()
		a.Pulse2.tickTimer()
		a.Noise.tickTimer()
	}
	a.tickDMC(&result)

	if a.cyclesPerSample > 0 {
		a.sampleCounter++
		if a.sampleCounter >= a.cyclesPerSample {
			a.sampleCounter -= a.cyclesPerSample
			a.Output = append(a.Output, a.mixChannels())
			if len(a.Output) > 65536 {
				copy(a.Output, a.Output[len(a.Output)-32768:])
				a.Output = a.Output[:32768]
			}
		}
	}

	result.IRQ = a.FrameIRQ && !a.IRQInhibit || a.DMC.IRQFlag
	return result
}

// tickFrameCounter walks the NTSC event schedule. Quarter-frame events
// clock envelopes and the linear counter; half-frame events additionally
// clock length counters and sweeps.
func (a *APU) tickFrameCounter() {
	a.FrameCycle++
	if a.FrameMode5 {
		switch a.FrameCycle {
		case frameQuarter1, frameQuarter3:
			a.quarterFrame()
		case frameHalf1, frameHalf5:
			a.quarterFrame()
			a.halfFrame()
		case frameRoll5:
			a.FrameCycle = 0
		}
		return
	}
	switch a.FrameCycle {
	case frameQuarter1, frameQuarter3:
		a.quarterFrame()
	case frameHalf1:
		a.quarterFrame()
		a.halfFrame()
	case frameStep4:
		a.quarterFrame()
		a.halfFrame()
		if !a.IRQInhibit {
			a.FrameIRQ = true
		}
	case frameRoll4:
		a.FrameCycle = 0
	}
}

func (a *APU) quarterFrame() {
	a.Pulse1.Envelope.clock()
	a.Pulse2.Envelope.clock()
	a.Noise.Envelope.clock()
	a.Triangle.clockLinearCounter()
}

func (a *APU) halfFrame() {
	a.Pulse1.Length.clock()
	a.Pulse2.Length.clock()
	a.Triangle.Length.clock()
	a.Noise.Length.clock()
	a.Pulse1.clockSweep(true)
	a.Pulse2.clockSweep(false)
}

// IRQLine reports the current level of the APU interrupt output.
func (a *APU) IRQLine() bool {
	return a.FrameIRQ && !a.IRQInhibit || a.DMC.IRQFlag
}

// ConsumeOutput returns the accumulated samples and empties the buffer.
// The returned slice is only valid until the next Tick; copy it out
// before advancing the emulation.
func (a *APU) ConsumeOutput() []float32 {
	out := a.Output
	a.Output = a.Output[:0]
	return out
}
