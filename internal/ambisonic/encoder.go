package ambisonic

// Encoder computes ambisonic spherical-harmonic coefficients for a
// moving mono point source and writes (or accumulates) the encoded
// signal into a BFormat buffer. When the source's direction changes
// between process calls, the previous coefficient set is crossfaded
// into the new one over round(interp*blockLen) samples to avoid zipper
// noise from an instantaneous coefficient jump.
type Encoder struct {
	order int
	is3D  bool

	prevCoeffs []float64
	currCoeffs []float64
	interp     float64 // fraction of a block spent crossfading, e.g. 0.1
}

// NewEncoder constructs an Encoder for the given ambisonic order/mode.
// interp is the fraction of a block (0,1] spent crossfading after a
// direction change.
func NewEncoder(order int, is3D bool, interp float64) *Encoder {
	c := ChannelCount(order, is3D)
	e := &Encoder{
		order:      order,
		is3D:       is3D,
		prevCoeffs: make([]float64, c),
		currCoeffs: make([]float64, c),
		interp:     interp,
	}
	e.currCoeffs[0] = 1 // default: omnidirectional until first SetDirection
	copy(e.prevCoeffs, e.currCoeffs)
	return e
}

// SetDirection updates the target direction (radians) and gain the next
// Process/ProcessAccumulate call encodes toward, crossfading from the
// coefficients in effect at the time of the previous call.
func (e *Encoder) SetDirection(azimuth, elevation, gain float64, orderWeights []float64) {
	copy(e.prevCoeffs, e.currCoeffs)
	coeffs := encodeSN3D(e.order, e.is3D, azimuth, elevation)
	for i, c := range coeffs {
		w := 1.0
		if orderWeights != nil {
			degree := acnDegree(i)
			if degree < len(orderWeights) {
				w = orderWeights[degree]
			}
		}
		e.currCoeffs[i] = c * gain * w
	}
}

// acnDegree returns the ambisonic order (degree) n that ACN index acn
// belongs to: n*n <= acn <= n*n+2n.
func acnDegree(acn int) int {
	n := 0
	for n*(n+2) < acn {
		n++
	}
	return n
}

// Process writes mono[i] * blendedCoeff[c] into out's channel c,
// crossfading the coefficient set over the first interp-fraction of the
// block if SetDirection was called since the prior Process call.
func (e *Encoder) Process(out *BFormat, mono []float32) {
	e.run(out, mono, false)
}

// ProcessAccumulate behaves like Process but adds into out instead of
// overwriting it.
func (e *Encoder) ProcessAccumulate(out *BFormat, mono []float32) {
	e.run(out, mono, true)
}

func (e *Encoder) run(out *BFormat, mono []float32, accumulate bool) {
	n := len(mono)
	fadeLen := int(e.interp*float64(n) + 0.5)
	if fadeLen > n {
		fadeLen = n
	}

	for c := 0; c < out.Channels(); c++ {
		ch := out.Channel(c)
		prev := e.prevCoeffs[c]
		curr := e.currCoeffs[c]
		for i := 0; i < fadeLen; i++ {
			t := float32(0.0)
			if fadeLen > 1 {
				t = float32(i) / float32(fadeLen-1)
			}
			coeff := float32(prev)*(1-t) + float32(curr)*t
			sample := mono[i] * coeff
			if accumulate {
				ch[i] += sample
			} else {
				ch[i] = sample
			}
		}
		for i := fadeLen; i < n; i++ {
			sample := mono[i] * float32(curr)
			if accumulate {
				ch[i] += sample
			} else {
				ch[i] = sample
			}
		}
	}
	copy(e.prevCoeffs, e.currCoeffs)
}
