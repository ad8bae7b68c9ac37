package apu

// Duty cycle sequences for pulse channels (8 steps each)
var dutyCycles = [4][8]uint8{
	{0, 1, 0, 0, 0, 0, 0, 0}, // 12.5%
	{0, 1, 1, 0, 0, 0, 0, 0}, // 25%
	{0, 1, 1, 1, 1, 0, 0, 0}, // 50%
	{1, 0, 0, 1, 1, 1, 1, 1}, // 25% (negated)
}

// Triangle wave sequence (32 steps)
var triangleSequence = [32]uint8{
	15, 14, 13, 12, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1, 0,
	0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15,
}

// Noise timer periods (NTSC, CPU cycles / 2)
var noisePeriods = [16]uint16{
	4, 8, 16, 32, 64, 96, 128, 160, 202, 254, 380, 508, 762, 1016, 2034, 4068,
}

// DMC timer periods (NTSC, CPU cycles)
var dmcRates = [16]uint16{
	428, 380, 340, 320, 286, 254, 226, 214, 190, 160, 142, 128, 106, 84, 72, 54,
}

// clock advances an envelope on a quarter-frame.
func (e *EnvelopeGenerator) clock() {
	if e.Start {
		e.Start = false
		e.Decay = 15
		e.Divider = e.Volume
		return
	}
	if e.Divider > 0 {
		e.Divider--
		return
	}
	e.Divider = e.Volume
	if e.Decay > 0 {
		e.Decay--
	} else if e.Loop {
		e.Decay = 15
	}
}

// output is the envelope's current volume contribution.
func (e *EnvelopeGenerator) output() uint8 {
	if e.Constant {
		return e.Volume
	}
	return e.Decay
}

// clock decrements a length counter on a half-frame.
func (l *LengthCounter) clock() {
	if !l.Halt && l.Value > 0 {
		l.Value--
	}
}

// tickTimer advances the pulse sequencer when the timer expires.
func (p *PulseChannel) tickTimer() {
	if p.Timer == 0 {
		p.Timer = p.Period
		p.Sequence = (p.Sequence + 1) % 8
	} else {
		p.Timer--
	}
}

// sweepTarget computes the period the sweep unit is aiming at. Pulse 1
// negates in ones complement (one lower), pulse 2 in twos complement.
func (p *PulseChannel) sweepTarget(pulse1 bool) int {
	change := int(p.Period >> p.Sweep.Shift)
	if p.Sweep.Negate {
		if pulse1 {
			return int(p.Period) - change - 1
		}
		return int(p.Period) - change
	}
	return int(p.Period) + change
}

// sweepMuting reports whether the sweep unit forces silence: period
// below 8 or target beyond $7FF.
func (p *PulseChannel) sweepMuting(pulse1 bool) bool {
	if p.Period < 8 {
		return true
	}
	return p.sweepTarget(pulse1) > 0x7FF
}

// clockSweep advances the sweep divider on a half-frame and applies the
// target when due.
func (p *PulseChannel) clockSweep(pulse1 bool) {
	s := &p.Sweep
	if s.Counter == 0 && s.Enabled && s.Shift != 0 && !p.sweepMuting(pulse1) {
		target := p.sweepTarget(pulse1)
		if target >= 0 {
			p.Period = uint16(target)
		}
	}
	if s.Counter == 0 || s.Reload {
		s.Counter = s.Period
		s.Reload = false
	} else {
		s.Counter--
	}
}

// output is the pulse channel's current sample level.
func (p *PulseChannel) output(pulse1 bool) uint8 {
	if !p.Enabled || p.Length.Value == 0 || p.sweepMuting(pulse1) {
		return 0
	}
	if dutyCycles[p.Duty][p.Sequence] == 0 {
		return 0
	}
	return p.Envelope.output()
}

// tickTimer advances the triangle sequencer. The sequencer only moves
// while both counters are nonzero, freezing the output level otherwise.
func (t *TriangleChannel) tickTimer() {
	if t.Timer == 0 {
		t.Timer = t.Period
		if t.Length.Value > 0 && t.LinearCounter > 0 {
			t.Sequence = (t.Sequence + 1) % 32
		}
	} else {
		t.Timer--
	}
}

// clockLinearCounter advances the linear counter on a quarter-frame.
func (t *TriangleChannel) clockLinearCounter() {
	if t.LinearFlag {
		t.LinearCounter = t.LinearReload
	} else if t.LinearCounter > 0 {
		t.LinearCounter--
	}
	if !t.Control {
		t.LinearFlag = false
	}
}

// output is the triangle channel's current sample level.
func (t *TriangleChannel) output() uint8 {
	if !t.Enabled {
		return 0
	}
	return triangleSequence[t.Sequence]
}

// tickTimer advances the noise LFSR when the timer expires.
func (n *NoiseChannel) tickTimer() {
	if n.Timer != 0 {
		n.Timer--
		return
	}
	n.Timer = n.Period
	var tap uint16
	if n.Mode {
		tap = n.ShiftReg >> 6
	} else {
		tap = n.ShiftReg >> 1
	}
	feedback := (n.ShiftReg ^ tap) & 1
	n.ShiftReg = n.ShiftReg>>1 | feedback<<14
}

// output is the noise channel's current sample level.
func (n *NoiseChannel) output() uint8 {
	if !n.Enabled || n.Length.Value == 0 || n.ShiftReg&1 != 0 {
		return 0
	}
	return n.Envelope.output()
}

// tickDMC advances the DMC timer and output unit, raising a DMA request
// when the sample buffer runs dry with bytes left in the sample.
func (a *APU) tickDMC(result *TickResult) {
	d := &a.DMC

	if d.Timer != 0 {
		d.Timer--
	} else {
		d.Timer = dmcRates[d.Rate&0x0F] - 1

		if !d.Silence {
			bit := d.ShiftReg & 1
			if bit == 1 && d.OutputLevel <= 125 {
				d.OutputLevel += 2
			} else if bit == 0 && d.OutputLevel >= 2 {
				d.OutputLevel -= 2
			}
		}
		d.ShiftReg >>= 1
		d.BitsRemaining--
		if d.BitsRemaining == 0 {
			d.BitsRemaining = 8
			if d.SampleBufferFull {
				d.Silence = false
				d.ShiftReg = d.SampleBuffer
				d.SampleBufferFull = false
			} else {
				d.Silence = true
			}
		}
	}

	if !d.SampleBufferFull && d.BytesRemaining > 0 {
		result.DMCRequest = true
		result.DMCAddress = d.CurrentAddress
	}
}

// CompleteDMCFetch delivers a sample byte read by the DMC DMA engine.
// The address and length counters advance here; the end-of-sample loop
// and IRQ rules apply.
func (a *APU) CompleteDMCFetch(value uint8) {
	d := &a.DMC
	d.SampleBuffer = value
	d.SampleBufferFull = true
	if d.CurrentAddress == 0xFFFF {
		d.CurrentAddress = 0x8000
	} else {
		d.CurrentAddress++
	}
	d.BytesRemaining--
	if d.BytesRemaining == 0 {
		if d.Loop {
			d.CurrentAddress = d.SampleAddress
			d.BytesRemaining = d.SampleLength
		} else if d.IRQEnabled {
			d.IRQFlag = true
		}
	}
}

// mixChannels applies the NES nonlinear mixer.
func (a *APU) mixChannels() float32 {
	pulse1 := a.Pulse1.output(true)
	pulse2 := a.Pulse2.output(false)
	triangle := a.Triangle.output()
	noise := a.Noise.output()
	dmc := a.DMC.OutputLevel

	pulseSum := float32(pulse1 + pulse2)
	var pulseOut float32
	if pulseSum > 0 {
		pulseOut = 95.52 / (8128.0/pulseSum + 100.0)
	}

	tndSum := float32(triangle)/8227.0 + float32(noise)/12241.0 + float32(dmc)/22638.0
	var tndOut float32
	if tndSum > 0 {
		tndOut = 159.79 / (1.0/tndSum + 100.0)
	}

	return pulseOut + tndOut
}
