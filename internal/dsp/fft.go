package dsp

import "math"

// FFT computes a real-input forward transform and its inverse for a
// fixed power-of-two size N, producing/consuming the N/2+1 non-redundant
// bins in split-complex layout (separate real and imaginary slices) so
// the partitioned convolver can complex-multiply-accumulate two spectra
// with straight-line SIMD-friendly loops.
type FFT struct {
	n       int
	bins    int
	cosTbl  []float64
	sinTbl  []float64
	re, im  []float64 // scratch, sized n
}

// NewFFT constructs an FFT for transforms of size n, which must be a
// power of two.
func NewFFT(n int) *FFT {
	if n <= 0 || n&(n-1) != 0 {
		panic(ErrInvalidConfig)
	}
	f := &FFT{
		n:    n,
		bins: n/2 + 1,
		re:   make([]float64, n),
		im:   make([]float64, n),
	}
	f.cosTbl = make([]float64, n)
	f.sinTbl = make([]float64, n)
	for i := 0; i < n; i++ {
		theta := -2 * math.Pi * float64(i) / float64(n)
		f.cosTbl[i] = math.Cos(theta)
		f.sinTbl[i] = math.Sin(theta)
	}
	return f
}

// Size returns the transform length N.
func (f *FFT) Size() int { return f.n }

// Bins returns N/2 + 1, the number of non-redundant frequency bins.
func (f *FFT) Bins() int { return f.bins }

// Forward transforms the N-sample real input into re/im, each of length
// Bins(). len(input) must equal N; len(re) and len(im) must equal Bins().
func (f *FFT) Forward(input []float32, re, im []float64) {
	for i := 0; i < f.n; i++ {
		f.re[i] = float64(input[i])
		f.im[i] = 0
	}
	f.transform(f.re, f.im, false)
	copy(re, f.re[:f.bins])
	copy(im, f.im[:f.bins])
}

// Inverse reconstructs an N-sample real signal from its Bins()-length
// split-complex spectrum (re/im), writing into output (length N).
func (f *FFT) Inverse(re, im []float64, output []float32) {
	// Rebuild the full, conjugate-symmetric N-point spectrum.
	f.re[0] = re[0]
	f.im[0] = 0
	if f.n%2 == 0 {
		f.re[f.n/2] = re[f.n/2]
		f.im[f.n/2] = 0
	}
	limit := f.bins - 1
	if f.n%2 == 0 {
		limit = f.bins - 2 // Nyquist bin already set above
	}
	for i := 1; i <= limit; i++ {
		f.re[i] = re[i]
		f.im[i] = im[i]
		f.re[f.n-i] = re[i]
		f.im[f.n-i] = -im[i]
	}
	f.transform(f.re, f.im, true)
	scale := 1.0 / float64(f.n)
	for i := 0; i < f.n; i++ {
		output[i] = float32(f.re[i] * scale)
	}
}

// transform runs an in-place iterative radix-2 Cooley-Tukey DFT (or its
// inverse, which is the same butterfly network with conjugated twiddles)
// over re/im, both length n.
func (f *FFT) transform(re, im []float64, inverse bool) {
	n := len(re)
	// bit-reversal permutation
	for i, j := 1, 0; i < n; i++ {
		bit := n >> 1
		for ; j&bit != 0; bit >>= 1 {
			j &^= bit
		}
		j |= bit
		if i < j {
			re[i], re[j] = re[j], re[i]
			im[i], im[j] = im[j], im[i]
		}
	}

	for size := 2; size <= n; size <<= 1 {
		half := size / 2
		tableStep := n / size
		for start := 0; start < n; start += size {
			for k := 0; k < half; k++ {
				idx := (k * tableStep) % n
				tc := f.cosTbl[idx]
				ts := f.sinTbl[idx]
				if inverse {
					ts = -ts
				}
				i, j := start+k, start+k+half
				tr := re[j]*tc - im[j]*ts
				ti := re[j]*ts + im[j]*tc
				re[j] = re[i] - tr
				im[j] = im[i] - ti
				re[i] = re[i] + tr
				im[i] = im[i] + ti
			}
		}
	}
}
