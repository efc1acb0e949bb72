package dsp

import "sync"

// TwoStageConvolver splits convolution against a long impulse response
// into a short head section, convolved at a small partition size for
// low added latency, and a long tail section, convolved at a large
// partition size because the tail dominates the IR's energy but can
// tolerate the extra latency its larger FFT size introduces. The tail
// stage can run on a worker goroutine while the head stage runs inline,
// via StartBackgroundProcessing/WaitForBackgroundProcessing.
type TwoStageConvolver struct {
	head *Convolver
	tail *Convolver

	blockSize   int // = tail.SegmentSize(), the unit Process operates on
	headBlocks  int // blockSize / head.SegmentSize()
	headOut     []float32
	tailOut     []float32
	tailInput   []float32
	wg          sync.WaitGroup
}

// NewTwoStageConvolver splits impulseResponse at headLength samples: the
// first headLength samples convolve at headSegment granularity, the
// remainder at tailSegment granularity. tailSegment must be an integer
// multiple of headSegment.
func NewTwoStageConvolver(impulseResponse []float32, headLength, headSegment, tailSegment int) *TwoStageConvolver {
	if headLength > len(impulseResponse) {
		headLength = len(impulseResponse)
	}
	headIR := impulseResponse[:headLength]
	tailIR := impulseResponse[headLength:]
	if len(tailIR) == 0 {
		tailIR = make([]float32, tailSegment)
	}

	t := &TwoStageConvolver{
		head:       NewConvolver(headIR, headSegment),
		tail:       NewConvolver(tailIR, tailSegment),
		blockSize:  tailSegment,
		headBlocks: tailSegment / headSegment,
	}
	t.headOut = make([]float32, tailSegment)
	t.tailOut = make([]float32, tailSegment)
	t.tailInput = make([]float32, tailSegment)
	return t
}

// BlockSize returns the sample count Process expects per call.
func (t *TwoStageConvolver) BlockSize() int { return t.blockSize }

// StartBackgroundProcessing launches the tail convolution for in
// (length BlockSize()) on a worker goroutine. Callers must pair every
// call with WaitForBackgroundProcessing before reading the result or
// reusing in.
func (t *TwoStageConvolver) StartBackgroundProcessing(in []float32) {
	copy(t.tailInput, in)
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		t.tail.Process(t.tailOut, t.tailInput)
	}()
}

// WaitForBackgroundProcessing blocks until the most recently started
// background tail convolution has completed.
func (t *TwoStageConvolver) WaitForBackgroundProcessing() {
	t.wg.Wait()
}

// Process convolves a BlockSize()-length input block against the full
// impulse response, running the tail stage on a worker goroutine
// concurrently with the inline head stage.
func (t *TwoStageConvolver) Process(out, in []float32) {
	t.StartBackgroundProcessing(in)

	headSeg := t.head.SegmentSize()
	for i := 0; i < t.headBlocks; i++ {
		off := i * headSeg
		t.head.Process(t.headOut[off:off+headSeg], in[off:off+headSeg])
	}

	t.WaitForBackgroundProcessing()

	for i := range out {
		out[i] = t.headOut[i] + t.tailOut[i]
	}
}

// Reset clears both stages' internal history and overlap state.
func (t *TwoStageConvolver) Reset() {
	t.head.Reset()
	t.tail.Reset()
}
