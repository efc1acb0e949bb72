package dsp

import (
	"encoding/binary"
	"math"

	"github.com/smallnest/ringbuffer"
)

// DelayLine is a fixed-length single-channel sample history used by the
// reflections processor's early-reflection taps. Samples are stored byte-packed
// in a smallnest/ringbuffer.RingBuffer so Insert/Process are plain
// stream reads and writes rather than index arithmetic.
type DelayLine struct {
	rb        *ringbuffer.RingBuffer
	maxFrames int
}

// NewDelayLine constructs a DelayLine holding at most maxFrames samples
// of history, zero-filled.
func NewDelayLine(maxFrames int) *DelayLine {
	d := &DelayLine{
		rb:        ringbuffer.New(maxFrames * 4),
		maxFrames: maxFrames,
	}
	zero := make([]byte, maxFrames*4)
	_, _ = d.rb.Write(zero)
	return d
}

// Process reads the oldest len(out) frames of history into out without
// advancing the delay line; pair with Insert of an equal-length block to
// implement a fixed-length delay tap.
func (d *DelayLine) Process(out []float32) {
	d.readWords(out, 0)
}

// ReadAt reads len(out) frames into out, delaySamples behind the most
// recently Inserted sample (delaySamples=0 reads the newest available
// window; delaySamples=maxFrames-len(out) reads the oldest, i.e. is
// equivalent to Process). It lets several taps at different delays share
// one DelayLine, as the reflections processor's six walls do.
func (d *DelayLine) ReadAt(out []float32, delaySamples int) {
	skip := d.maxFrames - delaySamples - len(out)
	if skip < 0 {
		skip = 0
	}
	d.readWords(out, skip)
}

func (d *DelayLine) readWords(out []float32, skipFrames int) {
	byteOff := skipFrames * 4
	n := byteOff + len(out)*4
	first, second := d.rb.Peek(n)
	for i := range out {
		off := byteOff + i*4
		var word []byte
		switch {
		case off+4 <= len(first):
			word = first[off : off+4]
		case off < len(first):
			// straddles the wrap point between first and second
			stitched := make([]byte, 4)
			copy(stitched, first[off:])
			copy(stitched[len(first)-off:], second)
			word = stitched
		default:
			word = second[off-len(first) : off-len(first)+4]
		}
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(word))
	}
}

// Insert advances the write head by len(block) frames, discarding the
// oldest len(block) frames of history to make room.
func (d *DelayLine) Insert(block []float32) {
	need := len(block) * 4
	if need > d.rb.Free() {
		discard := make([]byte, need-d.rb.Free())
		_, _ = d.rb.Read(discard)
	}
	buf := make([]byte, need)
	for i, s := range block {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(s))
	}
	_, _ = d.rb.Write(buf)
}

// Reset clears the delay line back to silence.
func (d *DelayLine) Reset() {
	d.rb.Reset()
	zero := make([]byte, d.maxFrames*4)
	_, _ = d.rb.Write(zero)
}
