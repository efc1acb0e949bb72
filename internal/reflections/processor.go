package reflections

import (
	"github.com/amplimix/amplimix/internal/ambisonic"
	"github.com/amplimix/amplimix/internal/dsp"
)

type tap struct {
	delaySamples int
	magnitude    float64
}

// Processor renders one Room's early reflections for a mono input block
// into a first-order B-format buffer, every block.
type Processor struct {
	sampleRate      int
	blockSize       int
	maxDelaySamples int

	room Room
	lpf  *dsp.OnePole
	ring *dsp.DelayLine

	current, target [wallCount]tap
	crossfading     bool

	filtered   []float32
	tapBlock   []float32
	currentOut *ambisonic.BFormat
	targetOut  *ambisonic.BFormat
}

// NewProcessor constructs a Processor for the given sample rate and
// block size, with a delay line sized to hold maxDistance meters of
// history at the default speed of sound.
func NewProcessor(sampleRate, blockSize int, maxDistance float64) *Processor {
	maxDelay := int(maxDistance/defaultSpeedOfSound*float64(sampleRate)) + blockSize
	return &Processor{
		sampleRate:      sampleRate,
		blockSize:       blockSize,
		maxDelaySamples: maxDelay,
		lpf:             dsp.NewOnePole(0),
		ring:            dsp.NewDelayLine(maxDelay),
		filtered:        make([]float32, blockSize),
		tapBlock:        make([]float32, blockSize),
		currentOut:      ambisonic.NewBFormat(1, true, blockSize),
		targetOut:       ambisonic.NewBFormat(1, true, blockSize),
	}
}

// SetRoom updates the room configuration. The next Process call computes
// output from both the previous and new tap configurations and
// equal-power crossfades between them over the block, avoiding the click
// an instantaneous delay/gain jump would cause.
func (p *Processor) SetRoom(room Room) {
	if !p.crossfading {
		p.current = p.target
	}
	p.room = room
	p.target = computeTaps(room, p.sampleRate, p.blockSize, p.maxDelaySamples)
	p.lpf.SetCoefficient(cutoffFromAbsorption(room.averageAbsorption()))
	p.crossfading = true
}

func computeTaps(room Room, sampleRate, blockSize, maxDelay int) [wallCount]tap {
	var out [wallCount]tap
	speed := room.speedOfSound()
	ceiling := maxDelay - blockSize
	for i, w := range room.Walls {
		delay := int(w.Distance / speed * float64(sampleRate))
		if delay < 0 {
			delay = 0
		}
		if delay > ceiling {
			delay = ceiling
		}
		out[i] = tap{
			delaySamples: delay,
			magnitude:    w.Coefficient / (w.Distance + 1),
		}
	}
	return out
}

// cutoffFromAbsorption maps a room's average high-frequency absorption
// (0..1) to a one-pole smoothing coefficient: more absorption means a
// duller (lower-cutoff, more-smoothed) pre-reflection filter.
func cutoffFromAbsorption(absorption float64) float32 {
	if absorption < 0 {
		absorption = 0
	} else if absorption > 1 {
		absorption = 1
	}
	return float32(absorption * 0.9)
}

// Process filters mono through the room's shared low-pass, inserts it
// into the ring delay, and accumulates all six wall taps into out, a
// first-order B-format buffer (overwritten, not added to).
func (p *Processor) Process(out *ambisonic.BFormat, mono []float32) {
	p.lpf.Process(p.filtered, mono)
	p.ring.Insert(p.filtered)

	if p.crossfading {
		p.accumulate(p.currentOut, p.current)
		p.accumulate(p.targetOut, p.target)
		for c := 0; c < out.Channels(); c++ {
			dsp.EqualPowerCrossfade(out.Channel(c), p.currentOut.Channel(c), p.targetOut.Channel(c))
		}
		p.current = p.target
		p.crossfading = false
		return
	}
	p.accumulate(out, p.target)
}

func (p *Processor) accumulate(dst *ambisonic.BFormat, taps [wallCount]tap) {
	dst.Clear()
	w := dst.Channel(0)
	acn1 := dst.Channel(1)
	acn2 := dst.Channel(2)
	acn3 := dst.Channel(3)

	for i, t := range taps {
		p.ring.ReadAt(p.tapBlock, t.delaySamples)
		axis := wallACNAxis[i]
		mag := float32(t.magnitude)
		for n, s := range p.tapBlock {
			sample := s * mag
			w[n] += sample
			acn1[n] += sample * float32(axis[0])
			acn2[n] += sample * float32(axis[1])
			acn3[n] += sample * float32(axis[2])
		}
	}
}

// Reset clears the low-pass state and delay-line history.
func (p *Processor) Reset() {
	p.lpf.Reset()
	p.ring.Reset()
}
