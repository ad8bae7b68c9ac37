package clock

// NTSC frame geometry
const (
	DotsPerScanline   = 341
	ScanlinesPerFrame = 262
	PreRenderScanline = 261
	VBlankScanline    = 241
)

// MasterClock tracks the monotonic PPU cycle counter and derives the
// current scanline, dot and frame number. The PPU runs three cycles for
// every CPU/APU cycle on NTSC.
type MasterClock struct {
	// PPUCycles is the monotonic master counter. It advances by 1 per
	// step, or by 2 when the odd-frame dot skip fires.
	PPUCycles uint64

	Scanline int
	Dot      int
	Frame    uint64
}

// TimingStep describes one master-clock slot: where the PPU is about to
// tick, and which subordinate clocks fire in the same slot.
type TimingStep struct {
	Scanline int
	Dot      int
	CPUTick  bool
	APUTick  bool
	SkipSlot bool
}

// New creates a MasterClock at power-on position (pre-advance cycle 0,
// scanline 0, dot 0, frame 0).
func New() *MasterClock {
	return &MasterClock{}
}

// Reset returns the clock to the power-on position.
func (c *MasterClock) Reset() {
	c.PPUCycles = 0
	c.Scanline = 0
	c.Dot = 0
	c.Frame = 0
}

// IsOddFrame reports whether the current frame is odd. The odd-frame dot
// skip only applies on odd frames with background rendering enabled.
func (c *MasterClock) IsOddFrame() bool {
	return c.Frame&1 == 1
}

// NextTimingStep returns the timing description for the current slot and
// advances the clock past it. bgRendering must reflect whether background
// rendering is enabled at this exact moment; it gates the NTSC odd-frame
// skip of pre-render dot 340.
//
// CPUTick and APUTick are true when the pre-advance counter is a multiple
// of three. When SkipSlot is set the counter jumps two PPU cycles: dot 340
// of the pre-render scanline never happens on that frame.
func (c *MasterClock) NextTimingStep(bgRendering bool) TimingStep {
	step := TimingStep{
		Scanline: c.Scanline,
		Dot:      c.Dot,
		CPUTick:  c.PPUCycles%3 == 0,
	}
	step.APUTick = step.CPUTick

	if c.Scanline == PreRenderScanline && c.Dot == DotsPerScanline-2 &&
		c.IsOddFrame() && bgRendering {
		// Odd-frame skip: jump straight from dot 339 to scanline 0 dot 0.
		step.SkipSlot = true
		c.PPUCycles += 2
		c.Dot = 0
		c.Scanline = 0
		c.Frame++
		return step
	}

	c.PPUCycles++
	c.Dot++
	if c.Dot == DotsPerScanline {
		c.Dot = 0
		c.Scanline++
		if c.Scanline == ScanlinesPerFrame {
			c.Scanline = 0
			c.Frame++
		}
	}
	return step
}
