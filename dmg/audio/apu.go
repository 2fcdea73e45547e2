// Package audio implements the DMG APU: four channels (two pulse, one
// wave, one noise) mixed to stereo output, driven by a 512Hz frame
// sequencer. Output is exposed as normalized float32 samples through a
// one-pole DC-blocking highpass, rather than raw int16 PCM, so callers can
// feed the stream straight into a floating-point audio backend without an
// extra conversion stage.
package audio

import (
	"github.com/dmgcore/dmgcore/dmg/addr"
	"github.com/dmgcore/dmgcore/dmg/bit"
	"github.com/dmgcore/dmgcore/dmg/timing"
)

const waveRAMSize = 16
const cyclesPerStep = 8192 // 4194304 / 512

// APU is the Audio Processing Unit of a DMG Game Boy. It generates 4-channel
// audio: CH1 (square+sweep), CH2 (square), CH3 (wave), CH4 (noise), all
// mixed to stereo output.
type APU struct {
	enabled           bool
	ch                [4]Channel
	vinLeft, vinRight bool
	volLeft, volRight uint8
	vinSample         int16

	mixLeftAcc         int64
	mixRightAcc        int64
	mixAccumCycles     int
	sampleBuffer       []float32 // interleaved L/R, post-highpass
	sampleCursor       int
	pcmCycleAcc        float64
	pcmCyclesPerSample float64
	hostSampleRate     int

	// one-pole DC-blocking highpass state, applied independently per side
	// (the raw mixed signal carries a sizable DC offset from the square and
	// noise channels' non-centered duty cycles).
	highpassLeftPrevIn, highpassLeftPrevOut   float32
	highpassRightPrevIn, highpassRightPrevOut float32

	step   int
	cycles int

	NR10, NR11, NR12, NR13, NR14 uint8
	NR21, NR22, NR23, NR24       uint8
	NR30, NR31, NR32, NR33, NR34 uint8
	NR41, NR42, NR43, NR44       uint8
	NR50, NR51, NR52             uint8
	waveRAM                      [waveRAMSize]uint8
}

// highpassAlpha controls the DC-blocking filter's cutoff; closer to 1.0
// removes DC more slowly but colors the audible spectrum less.
const highpassAlpha = 0.999

// Channel represents one of the four APU channels. Fields are used
// depending on channel type:
//   - duty: for square waves (ch1-2), which pattern/shape to use (0-3)
//   - sweep: changes frequency over time (only for ch1)
//   - envelope: changes volume over time (for ch1-2, ch4)
//   - period: how often to make a cycle, frequency = 2048 - period (for ch1-3)
//   - DAC: Digital-to-Analog Converter, if off the channel is silent (all channels)
//   - LFSR: Linear Feedback Shift Register, a pseudo-random bit generator (for ch4)
type Channel struct {
	enabled bool

	left, right bool

	duty   uint8
	timer  uint8
	length uint16
	volume uint8

	sweepPeriod  uint8
	sweepDown    bool
	sweepStep    uint8
	sweepEnabled bool
	sweepTimer   uint8
	shadowFreq   uint16
	sweepNegUsed bool

	envelopePace    uint8
	envelopeUp      bool
	envelopeCounter uint8
	envelopeLatched bool

	period       uint16
	trigger      bool
	lengthEnable bool
	freqTimer    int
	dutyStep     uint8
	waveIndex    uint8
	waveSample   uint8
	noiseTimer   int

	lfsr        uint16
	use7bitLFSR bool
	shift       uint8
	divider     uint8

	dacEnabled bool

	muted bool
}

func (ch *Channel) calculateSweepFrequency() (newFreq uint16, overflow bool) {
	if ch.sweepStep == 0 {
		return ch.shadowFreq, false
	}
	return ch.checkSweepOverflow()
}

func (ch *Channel) checkSweepOverflow() (newFreq uint16, overflow bool) {
	freqChange := ch.shadowFreq >> ch.sweepStep
	if ch.sweepDown {
		if freqChange > ch.shadowFreq {
			newFreq = 0
		} else {
			newFreq = ch.shadowFreq - freqChange
		}
	} else {
		newFreq = ch.shadowFreq + freqChange
	}
	return newFreq, newFreq > 2047
}

// New creates an APU producing samples at hostSampleRate.
func New(hostSampleRate int) *APU {
	if hostSampleRate <= 0 {
		hostSampleRate = 44100
	}
	a := &APU{hostSampleRate: hostSampleRate}
	a.pcmCyclesPerSample = float64(timing.CPUFrequency) / float64(hostSampleRate)
	return a
}

// Tick advances the APU by CPU T-cycles.
func (a *APU) Tick(cycles int) {
	if !a.enabled {
		return
	}

	a.tickGenerators(cycles)
	a.cycles += cycles

	for a.cycles >= cyclesPerStep {
		a.cycles -= cyclesPerStep
		a.tickSequence()
	}
}

func (a *APU) tickGenerators(cycles int) {
	if cycles <= 0 {
		return
	}

	var leftLevel, rightLevel int64
	for i := range 4 {
		ch := &a.ch[i]
		if !ch.enabled || !ch.dacEnabled || ch.muted {
			continue
		}

		var level int64
		switch i {
		case 0, 1:
			level = a.stepSquare(ch, cycles)
		case 2:
			level = a.stepWave(ch, cycles)
		case 3:
			level = a.stepNoise(ch, cycles)
		}
		if level == 0 {
			continue
		}

		if ch.left {
			leftLevel += level
		}
		if ch.right {
			rightLevel += level
		}
	}
	if a.vinLeft {
		leftLevel += int64(a.vinSample)
	}
	if a.vinRight {
		rightLevel += int64(a.vinSample)
	}

	a.mixLeftAcc += leftLevel * int64(cycles)
	a.mixRightAcc += rightLevel * int64(cycles)
	a.mixAccumCycles += cycles
	a.flushMix(cycles)
}

func (a *APU) flushMix(cycles int) {
	if a.hostSampleRate <= 0 || a.pcmCyclesPerSample == 0 {
		return
	}

	a.pcmCycleAcc += float64(cycles)
	if a.pcmCycleAcc < a.pcmCyclesPerSample {
		return
	}
	a.pcmCycleAcc -= a.pcmCyclesPerSample

	left, right := a.exportMixedSample()
	left = a.highpass(left, &a.highpassLeftPrevIn, &a.highpassLeftPrevOut)
	right = a.highpass(right, &a.highpassRightPrevIn, &a.highpassRightPrevOut)
	a.sampleBuffer = append(a.sampleBuffer, left, right)
}

// highpass applies a one-pole DC-blocking filter: y[n] = x[n] - x[n-1] +
// alpha*y[n-1]. prevIn/prevOut carry the per-side filter state between
// calls.
func (a *APU) highpass(sample float32, prevIn, prevOut *float32) float32 {
	out := sample - *prevIn + highpassAlpha*(*prevOut)
	*prevIn = sample
	*prevOut = out
	return out
}

func (a *APU) exportMixedSample() (float32, float32) {
	if a.mixAccumCycles == 0 {
		return 0, 0
	}

	leftAvg := float64(a.mixLeftAcc) / float64(a.mixAccumCycles)
	rightAvg := float64(a.mixRightAcc) / float64(a.mixAccumCycles)

	left, right := scaleToFloat(leftAvg, a.volLeft), scaleToFloat(rightAvg, a.volRight)

	a.mixLeftAcc = 0
	a.mixRightAcc = 0
	a.mixAccumCycles = 0

	return left, right
}

func (a *APU) stepSquare(ch *Channel, cycles int) int64 {
	period := a.squarePeriodCycles(ch)
	if period == 0 {
		return 0
	}
	if ch.freqTimer <= 0 {
		ch.freqTimer = period
	}

	ch.freqTimer -= cycles
	for ch.freqTimer <= 0 {
		ch.freqTimer += period
		ch.dutyStep = (ch.dutyStep + 1) & 0x7
	}

	pattern := dutyPatterns[ch.duty&0x3][ch.dutyStep]
	if ch.volume == 0 {
		return 0
	}
	level := int64(ch.volume)
	if pattern == 0 {
		return -level
	}
	return level
}

func (a *APU) stepWave(ch *Channel, cycles int) int64 {
	period := a.wavePeriodCycles(ch)
	if period == 0 {
		return 0
	}
	if ch.freqTimer <= 0 {
		ch.freqTimer = period
	}

	ch.freqTimer -= cycles
	for ch.freqTimer <= 0 {
		ch.freqTimer += period
		ch.waveIndex = (ch.waveIndex + 1) & 0x1F
	}

	sample := int64(a.readWaveSample(ch.waveIndex)) - 8
	switch ch.volume & 0b11 {
	case 0:
		return 0
	case 1:
		return sample
	case 2:
		return sample / 2
	case 3:
		return sample / 4
	default:
		return sample
	}
}

func (a *APU) stepNoise(ch *Channel, cycles int) int64 {
	period := a.noisePeriodCycles(ch)
	if period == 0 {
		return 0
	}
	if ch.lfsr == 0 {
		ch.lfsr = 0x7FFF
	}
	if ch.noiseTimer <= 0 {
		ch.noiseTimer = period
	}

	ch.noiseTimer -= cycles
	for ch.noiseTimer <= 0 {
		ch.noiseTimer += period
		fed := (ch.lfsr & 1) ^ ((ch.lfsr >> 1) & 1)
		ch.lfsr = (ch.lfsr >> 1) | (fed << 14)
		if ch.use7bitLFSR {
			ch.lfsr = (ch.lfsr &^ (1 << 6)) | (fed << 6)
		}
	}

	if ch.volume == 0 {
		return 0
	}
	level := int64(ch.volume)
	if bit.IsSet(0, uint8(ch.lfsr)) {
		return -level
	}
	return level
}

func (a *APU) squarePeriodCycles(ch *Channel) int {
	period := 2048 - int(ch.period&0x7FF)
	if period <= 0 {
		return 0
	}
	return period * 4
}

func (a *APU) wavePeriodCycles(ch *Channel) int {
	period := 2048 - int(ch.period&0x7FF)
	if period <= 0 {
		return 0
	}
	return period * 2
}

var noiseDividers = [8]int{8, 16, 32, 48, 64, 80, 96, 112}

func (a *APU) noisePeriodCycles(ch *Channel) int {
	div := noiseDividers[ch.divider&0x7]
	period := div << ch.shift
	if period <= 0 {
		return 0
	}
	return period
}

func (a *APU) readWaveSample(index uint8) uint8 {
	byteIdx := index >> 1
	value := a.waveRAM[byteIdx]
	a.ch[2].waveSample = value
	if index&1 == 0 {
		return value >> 4
	}
	return value & 0x0F
}

// waveRAMLocked reports whether Wave RAM is presently aliased to CH3's
// current sample instead of being directly addressable.
func (a *APU) waveRAMLocked() bool {
	return a.enabled && a.ch[2].enabled && a.ch[2].dacEnabled
}

var dutyPatterns = [4][8]int64{
	{0, 1, 0, 0, 0, 0, 0, 0},
	{0, 1, 1, 0, 0, 0, 0, 0},
	{0, 1, 1, 1, 1, 0, 0, 0},
	{1, 0, 0, 1, 1, 1, 1, 1},
}

// sampleScale normalizes the [-60,60]-ish mixed integer range down to [-1,1].
const sampleScale = 1.0 / 60.0

func scaleToFloat(avg float64, masterVol uint8) float32 {
	gain := float64(masterVol+1) / 8.0
	value := avg * gain * sampleScale
	if value > 1 {
		value = 1
	} else if value < -1 {
		value = -1
	}
	return float32(value)
}

// tickSequence advances the sequencer by one step (512Hz).
//
//	Step | Length (256Hz) | Sweep (128Hz) | Envelope (64Hz)
//	------------------------------------------------------
//	0    | yes            | -             | -
//	1    | -              | -             | -
//	2    | yes            | yes           | -
//	3    | -              | -             | -
//	4    | yes            | -             | -
//	5    | -              | -             | -
//	6    | yes            | yes           | -
//	7    | -              | -             | yes
func (a *APU) tickSequence() {
	switch a.step {
	case 0:
		a.tickLength()
	case 2:
		a.tickLength()
		a.tickSweep()
	case 4:
		a.tickLength()
	case 6:
		a.tickLength()
		a.tickSweep()
	case 7:
		a.tickEnvelope()
	}

	a.step++
	a.step %= 8
}

func (a *APU) tickLength() {
	for i := range 4 {
		if a.ch[i].lengthEnable && a.ch[i].length > 0 {
			a.ch[i].length--
			if a.ch[i].length == 0 {
				a.ch[i].enabled = false
			}
		}
	}
}

func (a *APU) tickSweep() {
	ch := &a.ch[0]

	if !ch.sweepEnabled {
		return
	}

	ch.sweepTimer--
	if ch.sweepTimer > 0 {
		return
	}

	ch.sweepTimer = ch.sweepPeriod
	if ch.sweepTimer == 0 {
		ch.sweepTimer = 8
	}

	if ch.sweepPeriod == 0 {
		return
	}

	newFrequency, overflow := ch.checkSweepOverflow()
	if overflow {
		ch.enabled = false
		return
	}
	if ch.sweepDown {
		ch.sweepNegUsed = true
	}
	if ch.sweepStep == 0 {
		return
	}
	ch.shadowFreq = newFrequency
	ch.period = newFrequency
	a.NR14 = (a.NR14 & 0b11111000) | uint8((newFrequency>>8)&0b111)
	a.NR13 = uint8(newFrequency)

	if _, overflow := ch.checkSweepOverflow(); overflow {
		ch.enabled = false
	}
}

func (a *APU) tickEnvelope() {
	for _, idx := range []int{0, 1, 3} {
		ch := &a.ch[idx]
		if !ch.dacEnabled {
			continue
		}
		if ch.envelopeLatched {
			continue
		}

		pace := ch.envelopePace
		if pace == 0 {
			pace = 8
		}

		if ch.envelopeCounter == 0 {
			ch.envelopeCounter = pace
		}
		ch.envelopeCounter--
		if ch.envelopeCounter > 0 {
			continue
		}

		if ch.envelopeUp {
			if ch.volume < 15 {
				ch.volume++
				ch.envelopeCounter = pace
			} else {
				ch.envelopeLatched = true
				ch.envelopeCounter = 0
			}
		} else {
			if ch.volume > 0 {
				ch.volume--
				ch.envelopeCounter = pace
			} else {
				ch.envelopeLatched = true
				ch.envelopeCounter = 0
			}
		}
	}
}

// ReadRegister returns masked register values; write-only and unused bits
// read back as 1.
func (a *APU) ReadRegister(address uint16) uint8 {
	switch address {
	case addr.NR10:
		return a.NR10 | 0b1000_0000
	case addr.NR11:
		return a.NR11 | 0b0011_1111
	case addr.NR12:
		return a.NR12
	case addr.NR13:
		return 0xFF
	case addr.NR14:
		return a.NR14 | 0b1011_1111
	case addr.NR21:
		return a.NR21 | 0b0011_1111
	case addr.NR22:
		return a.NR22
	case addr.NR23:
		return 0xFF
	case addr.NR24:
		return a.NR24 | 0b1011_1111
	case addr.NR30:
		return a.NR30 | 0b0111_1111
	case addr.NR31:
		return 0xFF
	case addr.NR32:
		return a.NR32 | 0b1001_1111
	case addr.NR33:
		return 0xFF
	case addr.NR34:
		return a.NR34 | 0b1011_1111
	case addr.NR41:
		return 0xFF
	case addr.NR42:
		return a.NR42
	case addr.NR43:
		return a.NR43
	case addr.NR44:
		return a.NR44 | 0b1011_1111
	case addr.NR50:
		return a.NR50
	case addr.NR51:
		return a.NR51
	case addr.NR52:
		status := uint8(0b0111_0000)
		if a.enabled {
			status = bit.Set(7, status)
		}
		for i := range 4 {
			if a.ch[i].enabled {
				status = bit.Set(uint8(i), status)
			}
		}
		return status
	}
	if address >= addr.WaveRAMStart && address <= addr.WaveRAMEnd {
		if a.waveRAMLocked() {
			return a.ch[2].waveSample
		}
		return a.waveRAM[address-addr.WaveRAMStart]
	}
	return 0xFF
}

// WriteRegister stores the given register/Wave-RAM byte, then updates
// internal channel state accordingly.
func (a *APU) WriteRegister(address uint16, value uint8) {
	isInWaveRAM := address >= addr.WaveRAMStart && address <= addr.WaveRAMEnd

	if !a.enabled && address != addr.NR52 && !isInWaveRAM {
		return
	}

	switch address {
	case addr.NR10:
		a.NR10 = value
	case addr.NR11:
		a.NR11 = value
		a.ch[0].length = 64 - uint16(bit.ExtractBits(value, 5, 0))
	case addr.NR12:
		a.NR12 = value
		ch := &a.ch[0]
		pace := bit.ExtractBits(value, 2, 0)
		if pace == 0 {
			ch.envelopeCounter = 8
		} else {
			ch.envelopeCounter = pace
		}
		ch.envelopeLatched = false
	case addr.NR13:
		a.NR13 = value
	case addr.NR14:
		a.NR14 = value
	case addr.NR21:
		a.NR21 = value
		a.ch[1].length = 64 - uint16(bit.ExtractBits(value, 5, 0))
	case addr.NR22:
		a.NR22 = value
		ch := &a.ch[1]
		pace := bit.ExtractBits(value, 2, 0)
		if pace == 0 {
			ch.envelopeCounter = 8
		} else {
			ch.envelopeCounter = pace
		}
		ch.envelopeLatched = false
	case addr.NR23:
		a.NR23 = value
	case addr.NR24:
		a.NR24 = value
	case addr.NR30:
		a.NR30 = value
	case addr.NR31:
		a.NR31 = value
		a.ch[2].length = 256 - uint16(value)
	case addr.NR32:
		a.NR32 = value
	case addr.NR33:
		a.NR33 = value
	case addr.NR34:
		a.NR34 = value
	case addr.NR41:
		a.NR41 = value
		a.ch[3].length = 64 - uint16(bit.ExtractBits(value, 5, 0))
	case addr.NR42:
		a.NR42 = value
		ch := &a.ch[3]
		pace := bit.ExtractBits(value, 2, 0)
		if pace == 0 {
			ch.envelopeCounter = 8
		} else {
			ch.envelopeCounter = pace
		}
		ch.envelopeLatched = false
	case addr.NR43:
		a.NR43 = value
	case addr.NR44:
		a.NR44 = value
	case addr.NR50:
		a.NR50 = value
	case addr.NR51:
		a.NR51 = value
	case addr.NR52:
		a.NR52 = value
	default:
	}

	if isInWaveRAM {
		offset := address - addr.WaveRAMStart
		if a.waveRAMLocked() {
			idx := a.ch[2].waveIndex >> 1
			a.waveRAM[idx] = value
			a.ch[2].waveSample = value
		} else {
			a.waveRAM[offset] = value
		}
	}

	a.mapRegistersToState()
}

// handleLengthEnableTransition centralizes the oddities around enabling
// length and triggering channels:
//   - enabling length in the second half of a sequencer period clocks once
//   - triggers reload length from zero before that clock
//   - a trigger after a clocked-to-zero reloads before the forced extra clock
//   - the extra clock also occurs while already enabled when a trigger
//     reloads from zero (the "force" path)
//
// Reference: https://gbdev.io/pandocs/Audio_details.html#obscure-behavior.
func (a *APU) handleLengthEnableTransition(prevEnabled bool, lengthBefore uint16, triggered bool, maxLength uint16, chIdx int) {
	ch := &a.ch[chIdx]
	lengthWasZero := lengthBefore == 0
	clockOnEnable := !prevEnabled && ch.lengthEnable && a.step%2 == 1 && lengthBefore > 0

	if triggered && (lengthWasZero || (clockOnEnable && lengthBefore == 1)) {
		ch.length = maxLength
	}

	if !ch.lengthEnable {
		return
	}

	forceClock := lengthWasZero && triggered && ch.length > 0
	if !forceClock && prevEnabled {
		return
	}

	if a.step%2 == 1 && ch.length > 0 {
		ch.length--
		if ch.length == 0 {
			ch.enabled = false
		}
	}
}

func (a *APU) mapRegistersToState() {
	a.enabled = bit.IsSet(7, a.NR52)

	if !a.enabled {
		a.NR10, a.NR11, a.NR12, a.NR13, a.NR14 = 0, 0, 0, 0, 0
		a.NR21, a.NR22, a.NR23, a.NR24 = 0, 0, 0, 0
		a.NR30, a.NR31, a.NR32, a.NR33, a.NR34 = 0, 0, 0, 0, 0
		a.NR41, a.NR42, a.NR43, a.NR44 = 0, 0, 0, 0
		a.NR50, a.NR51 = 0, 0
		for i := range a.ch {
			a.ch[i].enabled = false
		}
	}

	for i := range 4 {
		a.ch[i].right = bit.IsSet(uint8(i), a.NR51)
		a.ch[i].left = bit.IsSet(uint8(i+4), a.NR51)
	}

	a.vinLeft, a.vinRight = bit.IsSet(7, a.NR50), bit.IsSet(3, a.NR50)
	a.volLeft, a.volRight = bit.ExtractBits(a.NR50, 6, 4), bit.ExtractBits(a.NR50, 2, 0)

	prevSweepDown := a.ch[0].sweepDown
	a.ch[0].sweepPeriod = bit.ExtractBits(a.NR10, 6, 4)
	a.ch[0].sweepDown = bit.IsSet(3, a.NR10)
	a.ch[0].sweepStep = bit.ExtractBits(a.NR10, 2, 0)
	if !a.ch[0].sweepDown && prevSweepDown && a.ch[0].sweepNegUsed && (a.ch[0].sweepPeriod > 0 || a.ch[0].sweepStep > 0) {
		a.ch[0].enabled = false
	}

	a.ch[0].duty = bit.ExtractBits(a.NR11, 7, 6)
	a.ch[0].timer = bit.ExtractBits(a.NR11, 5, 0)

	a.ch[0].volume = bit.ExtractBits(a.NR12, 7, 4)
	a.ch[0].envelopeUp = bit.IsSet(3, a.NR12)
	a.ch[0].envelopePace = bit.ExtractBits(a.NR12, 2, 0)
	a.ch[0].dacEnabled = (a.ch[0].volume > 0) || a.ch[0].envelopeUp

	a.ch[0].period = bit.Combine(a.NR14&0b111, a.NR13)

	prevLenEnable := a.ch[0].lengthEnable
	lengthBefore := a.ch[0].length
	triggered := bit.IsSet(7, a.NR14)
	a.ch[0].lengthEnable = bit.IsSet(6, a.NR14)
	a.ch[0].trigger = triggered
	if a.ch[0].trigger {
		if a.ch[0].dacEnabled {
			a.ch[0].enabled = true
		}
		a.ch[0].envelopeLatched = false
		if a.ch[0].envelopePace == 0 {
			a.ch[0].envelopeCounter = 8
		} else {
			a.ch[0].envelopeCounter = a.ch[0].envelopePace
		}
		a.ch[0].dutyStep = 0
		a.ch[0].freqTimer = a.squarePeriodCycles(&a.ch[0])
		a.ch[0].sweepEnabled = a.ch[0].sweepPeriod > 0 || a.ch[0].sweepStep > 0
		a.ch[0].sweepTimer = a.ch[0].sweepPeriod
		if a.ch[0].sweepTimer == 0 {
			a.ch[0].sweepTimer = 8
		}
		a.ch[0].shadowFreq = a.ch[0].period
		a.ch[0].sweepNegUsed = false

		if a.ch[0].sweepStep != 0 {
			if a.ch[0].sweepDown {
				a.ch[0].sweepNegUsed = true
			}
			if _, overflow := a.ch[0].calculateSweepFrequency(); overflow {
				a.ch[0].enabled = false
			}
		}

		a.NR14 = bit.Reset(7, a.NR14)
		a.ch[0].trigger = false
	}
	a.handleLengthEnableTransition(prevLenEnable, lengthBefore, triggered, 64, 0)

	a.ch[1].duty = bit.ExtractBits(a.NR21, 7, 6)
	a.ch[1].timer = bit.ExtractBits(a.NR21, 5, 0)

	a.ch[1].volume = bit.ExtractBits(a.NR22, 7, 4)
	a.ch[1].envelopeUp = bit.IsSet(3, a.NR22)
	a.ch[1].envelopePace = bit.ExtractBits(a.NR22, 2, 0)
	a.ch[1].dacEnabled = (a.ch[1].volume > 0) || a.ch[1].envelopeUp

	a.ch[1].period = bit.Combine(a.NR24&0b111, a.NR23)

	prevLenEnable = a.ch[1].lengthEnable
	lengthBefore = a.ch[1].length
	triggered = bit.IsSet(7, a.NR24)
	a.ch[1].lengthEnable = bit.IsSet(6, a.NR24)
	a.ch[1].trigger = triggered
	if a.ch[1].trigger {
		if a.ch[1].dacEnabled {
			a.ch[1].enabled = true
		}
		a.ch[1].envelopeLatched = false
		if a.ch[1].envelopePace == 0 {
			a.ch[1].envelopeCounter = 8
		} else {
			a.ch[1].envelopeCounter = a.ch[1].envelopePace
		}
		a.ch[1].dutyStep = 0
		a.ch[1].freqTimer = a.squarePeriodCycles(&a.ch[1])
		a.NR24 = bit.Reset(7, a.NR24)
		a.ch[1].trigger = false
	}
	a.handleLengthEnableTransition(prevLenEnable, lengthBefore, triggered, 64, 1)

	a.ch[2].dacEnabled = bit.IsSet(7, a.NR30)
	a.ch[2].timer = a.NR31
	a.ch[2].volume = bit.ExtractBits(a.NR32, 6, 5)
	a.ch[2].period = bit.Combine(a.NR34&0b111, a.NR33)

	prevLenEnable = a.ch[2].lengthEnable
	lengthBefore = a.ch[2].length
	triggered = bit.IsSet(7, a.NR34)
	a.ch[2].lengthEnable = bit.IsSet(6, a.NR34)
	a.ch[2].trigger = triggered
	if a.ch[2].trigger {
		if a.ch[2].dacEnabled {
			a.ch[2].enabled = true
		}
		a.ch[2].freqTimer = a.wavePeriodCycles(&a.ch[2])
		a.ch[2].waveIndex = 0
		a.ch[2].waveSample = a.waveRAM[0]
		a.NR34 = bit.Reset(7, a.NR34)
		a.ch[2].trigger = false
	}
	a.handleLengthEnableTransition(prevLenEnable, lengthBefore, triggered, 256, 2)

	a.ch[3].timer = bit.ExtractBits(a.NR41, 5, 0)

	a.ch[3].volume = bit.ExtractBits(a.NR42, 7, 4)
	a.ch[3].envelopeUp = bit.IsSet(3, a.NR42)
	a.ch[3].envelopePace = bit.ExtractBits(a.NR42, 2, 0)

	a.ch[3].shift = bit.ExtractBits(a.NR43, 7, 4)
	a.ch[3].use7bitLFSR = bit.IsSet(3, a.NR43)
	a.ch[3].divider = bit.ExtractBits(a.NR43, 2, 0)

	a.ch[3].dacEnabled = (a.ch[3].volume > 0) || a.ch[3].envelopeUp

	prevLenEnable = a.ch[3].lengthEnable
	lengthBefore = a.ch[3].length
	triggered = bit.IsSet(7, a.NR44)
	a.ch[3].lengthEnable = bit.IsSet(6, a.NR44)
	a.ch[3].trigger = triggered
	if a.ch[3].trigger {
		if a.ch[3].dacEnabled {
			a.ch[3].enabled = true
		}
		a.ch[3].envelopeLatched = false
		if a.ch[3].envelopePace == 0 {
			a.ch[3].envelopeCounter = 8
		} else {
			a.ch[3].envelopeCounter = a.ch[3].envelopePace
		}
		a.ch[3].lfsr = 0x7FFF
		a.ch[3].noiseTimer = a.noisePeriodCycles(&a.ch[3])
		a.NR44 = bit.Reset(7, a.NR44)
		a.ch[3].trigger = false
	}
	a.handleLengthEnableTransition(prevLenEnable, lengthBefore, triggered, 64, 3)

	for i := range a.ch {
		if !a.ch[i].dacEnabled {
			a.ch[i].enabled = false
		}
	}
}

// GetSamples returns count interleaved stereo float32 samples (2*count
// values), draining the internal buffer. Each side is clamped to [-1,1]
// before the DC-blocking filter, so filtered values can slightly exceed
// that range. If fewer than count samples are available the slice is
// padded with silence so callers that push straight to a fixed-size audio
// buffer never stall.
func (a *APU) GetSamples(count int) []float32 {
	if count <= 0 {
		return nil
	}

	needed := count * 2
	available := len(a.sampleBuffer) - a.sampleCursor
	if available <= 0 {
		return make([]float32, needed)
	}

	out := make([]float32, needed)
	toCopy := min(available, needed)
	copy(out, a.sampleBuffer[a.sampleCursor:a.sampleCursor+toCopy])
	a.sampleCursor += toCopy

	if a.sampleCursor >= len(a.sampleBuffer) {
		a.sampleBuffer = a.sampleBuffer[:0]
		a.sampleCursor = 0
	}

	return out
}

// ToggleChannel toggles the mute state of a channel, for debug UIs.
func (a *APU) ToggleChannel(idx int) {
	if idx < 0 || idx >= 4 {
		return
	}
	a.ch[idx].muted = !a.ch[idx].muted
}

// SoloChannel mutes every channel except idx. Calling it again with the
// same index un-mutes everything.
func (a *APU) SoloChannel(channel int) {
	if channel < 0 || channel >= 4 {
		return
	}

	soloed := true
	for i := range a.ch {
		if a.ch[i].muted != (i != channel) {
			soloed = false
		}
	}
	if soloed {
		for i := range a.ch {
			a.ch[i].muted = false
		}
		return
	}

	for i := range a.ch {
		a.ch[i].muted = i != channel
	}
}

// GetChannelStatus reports whether each channel is currently producing
// sound (as opposed to muted/soloed for debug purposes).
func (a *APU) GetChannelStatus() (bool, bool, bool, bool) {
	return a.ch[0].enabled, a.ch[1].enabled, a.ch[2].enabled, a.ch[3].enabled
}

// GetChannelVolumes returns the current post-envelope volume for each
// channel.
func (a *APU) GetChannelVolumes() (ch1, ch2, ch3, ch4 uint8) {
	return a.ch[0].volume, a.ch[1].volume, a.ch[2].volume, a.ch[3].volume
}
