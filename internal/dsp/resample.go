package dsp

import "math"

// ChannelPolicy selects how a Converter maps between source and
// destination channel counts. Any combination other than these three is
// rejected by NewConverter.
type ChannelPolicy int

const (
	ChannelIdentity ChannelPolicy = iota
	ChannelMonoToStereo
	ChannelStereoToMono
)

const tapsPerPhase = 32

// Converter is a combined sample-rate and channel converter. Rate
// conversion uses a windowed-sinc polyphase filter generated once at
// construction (or SetSampleRate) into a transposed per-phase layout; a
// per-channel tail-sample state buffer carries history between Process
// calls so block boundaries introduce no discontinuity.
type Converter struct {
	srcRate, dstRate         int
	srcChannels, dstChannels int
	policy                   ChannelPolicy

	upsample   int // U = dst / gcd(src, dst)
	downsample int // D = src / gcd(src, dst)
	phases     [][]float32

	workChannels int // channel count after the channel policy, before resampling
	history      [][]float32
	nRel         []int
	phase        []int
}

// NewConverter constructs a Converter for the given source/destination
// sample rates and channel counts. Returns ErrUnsupportedChannelPolicy
// if the channel combination isn't identity, mono->stereo, or
// stereo->mono.
func NewConverter(srcRate, dstRate, srcChannels, dstChannels int) (*Converter, error) {
	policy, workChannels, err := resolveChannelPolicy(srcChannels, dstChannels)
	if err != nil {
		return nil, err
	}

	c := &Converter{
		srcChannels:  srcChannels,
		dstChannels:  dstChannels,
		policy:       policy,
		workChannels: workChannels,
	}
	c.configureRate(srcRate, dstRate)
	return c, nil
}

func resolveChannelPolicy(srcChannels, dstChannels int) (ChannelPolicy, int, error) {
	switch {
	case srcChannels == dstChannels:
		return ChannelIdentity, srcChannels, nil
	case srcChannels == 1 && dstChannels == 2:
		return ChannelMonoToStereo, 2, nil
	case srcChannels == 2 && dstChannels == 1:
		return ChannelStereoToMono, 1, nil
	default:
		return 0, 0, ErrUnsupportedChannelPolicy
	}
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	if a < 0 {
		return -a
	}
	return a
}

// configureRate (re)builds the polyphase filter bank and resets
// per-channel conversion state, preserving the state buffer's length
// semantics (it is reallocated, not shrunk in place, matching the
// spec's "resizes the state buffer" contract).
func (c *Converter) configureRate(srcRate, dstRate int) {
	c.srcRate = srcRate
	c.dstRate = dstRate

	g := gcd(srcRate, dstRate)
	if g == 0 {
		g = 1
	}
	c.upsample = dstRate / g
	c.downsample = srcRate / g

	c.phases = generateWindowedSincPolyphase(c.upsample, c.downsample, tapsPerPhase)

	c.history = make([][]float32, c.workChannels)
	c.nRel = make([]int, c.workChannels)
	c.phase = make([]int, c.workChannels)
	for ch := range c.history {
		c.history[ch] = make([]float32, tapsPerPhase-1)
	}
}

// SetSampleRate reconfigures the converter for a new rate pair,
// preserving each channel's already-accumulated tail history by
// truncating or zero-extending it to the new tap count.
func (c *Converter) SetSampleRate(newSrc, newDst int) {
	oldHistory := c.history
	c.configureRate(newSrc, newDst)
	for ch := range c.history {
		if ch < len(oldHistory) {
			n := copy(c.history[ch], oldHistory[ch])
			_ = n
		}
	}
}

// Reset clears all per-channel tail state and phase/position counters
// without changing the configured rates or channel policy.
func (c *Converter) Reset() {
	for ch := range c.history {
		for i := range c.history[ch] {
			c.history[ch][i] = 0
		}
		c.nRel[ch] = 0
		c.phase[ch] = 0
	}
}

// ExpectedOutputFrames predicts how many output frames Process will
// produce for an input block of the given length, used by the
// orchestrator to size per-block decode requests.
func (c *Converter) ExpectedOutputFrames(inFrames int) int {
	return (inFrames * c.upsample) / c.downsample
}

// RequiredInputFrames predicts how many input frames Process needs to
// produce at least outFrames output frames.
func (c *Converter) RequiredInputFrames(outFrames int) int {
	return (outFrames*c.downsample)/c.upsample + 1
}

// Process applies the channel policy then the polyphase resampler to
// input (workChannels-after-policy planar channels of equal length) and
// writes as many output frames as fit in output's channels, returning
// the frames actually consumed and produced.
func (c *Converter) Process(input [][]float32, output [][]float32) (consumed, produced int) {
	remapped := c.applyChannelPolicy(input)

	outLen := 0
	if len(output) > 0 {
		outLen = len(output[0])
	}

	for ch := 0; ch < c.workChannels; ch++ {
		n := c.processChannel(ch, remapped[ch], output[ch], outLen)
		produced = n
	}
	if len(input) > 0 {
		consumed = len(input[0])
	}
	return consumed, produced
}

// applyChannelPolicy returns workChannels planar slices derived from
// input according to the configured ChannelPolicy.
func (c *Converter) applyChannelPolicy(input [][]float32) [][]float32 {
	switch c.policy {
	case ChannelMonoToStereo:
		n := len(input[0])
		left := make([]float32, n)
		right := make([]float32, n)
		const scale = float32(0.7071067811865476) // 1/sqrt(2)
		for i, s := range input[0] {
			left[i] = s * scale
			right[i] = s * scale
		}
		return [][]float32{left, right}
	case ChannelStereoToMono:
		n := len(input[0])
		mono := make([]float32, n)
		const scale = float32(0.7071067811865476)
		for i := range mono {
			mono[i] = (input[0][i] + input[1][i]) * scale
		}
		return [][]float32{mono}
	default:
		return input
	}
}

// processChannel runs the polyphase filter for a single working channel,
// consuming in and writing up to len(out) samples.
func (c *Converter) processChannel(ch int, in, out []float32, outLen int) int {
	history := c.history[ch]
	tail := len(history)
	extended := make([]float32, tail+len(in))
	copy(extended, history)
	copy(extended[tail:], in)

	produced := 0
	nRel := c.nRel[ch]
	phase := c.phase[ch]
	for produced < outLen {
		local := nRel + tail
		if local >= len(extended) {
			break
		}
		var acc float32
		coeffs := c.phases[phase]
		for k := 0; k < len(coeffs); k++ {
			acc += coeffs[k] * extended[local-k]
		}
		out[produced] = acc
		produced++

		phase += c.downsample
		for phase >= c.upsample {
			phase -= c.upsample
			nRel++
		}
	}

	nRel -= len(in)
	if nRel < -tail {
		nRel = -tail
	}
	c.nRel[ch] = nRel
	c.phase[ch] = phase

	if len(extended) >= tail {
		copy(history, extended[len(extended)-tail:])
	}

	return produced
}

// generateWindowedSincPolyphase builds a Blackman-windowed sinc
// low-pass filter sized for a rational U/D resampling ratio, laid out
// transposed so phase p's coefficients (phases[p]) are contiguous for
// the convolver's straight-line dot product.
func generateWindowedSincPolyphase(upsample, downsample, tapsPerPh int) [][]float32 {
	limiter := upsample
	if downsample > limiter {
		limiter = downsample
	}
	cutoff := 1.0 / float64(limiter)

	totalTaps := tapsPerPh * upsample
	h := make([]float64, totalTaps)
	center := float64(totalTaps-1) / 2
	for i := 0; i < totalTaps; i++ {
		x := float64(i) - center
		var sinc float64
		if x == 0 {
			sinc = 1
		} else {
			arg := math.Pi * cutoff * x
			sinc = math.Sin(arg) / arg
		}
		w := 0.42 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(totalTaps-1)) +
			0.08*math.Cos(4*math.Pi*float64(i)/float64(totalTaps-1))
		h[i] = sinc * cutoff * w
	}

	phases := make([][]float32, upsample)
	for p := 0; p < upsample; p++ {
		phases[p] = make([]float32, tapsPerPh)
		for k := 0; k < tapsPerPh; k++ {
			idx := p + k*upsample
			if idx < totalTaps {
				phases[p][k] = float32(h[idx])
			}
		}
	}
	return phases
}
