// Package codec implements the Decoder contract spec §6.3 describes as
// the boundary between stored sound bytes and the in-memory sound
// objects the core plays: "the core sees them only as already-
// constructed in-memory asset objects." Everything upstream of Decoder
// (file I/O, soundbank schema parsing) is a loading collaborator's job,
// out of scope here (spec §1).
package codec

import (
	"fmt"
	"io"

	"github.com/amplimix/amplimix/internal/errors"
)

// Format is the immutable tuple a Decoder reports once it has opened a
// resource: sample rate, channel count, bits per sample and frame count.
// It carries no frame stride or sample kind.
type Format struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
	FrameCount    int // 0 for an unbounded/streaming source
}

// Decoder is the contract every codec in this package implements:
// report the format discovered while opening a resource, then stream
// planar float32 frames from it on demand. This is a strict superset of
// layer.Source (same Stream/Seek shape) so any Decoder can be adapted
// into a layer.Source directly; codec intentionally doesn't import
// internal/layer to keep this package's dependency direction one-way.
type Decoder interface {
	Format() Format
	// Stream fills dst (planar, one slice per channel) with up to
	// len(dst[0]) frames starting at the decoder's current read cursor,
	// returning how many frames were produced and whether the end of
	// the resource was reached during this call (spec §4.14: "Decoder
	// failures during stream result in the layer transitioning to halt").
	Stream(dst [][]float32) (produced int, ended bool)
	// Seek resets the read cursor to frame, used for loop wraparound.
	Seek(frame int) error
	Close() error
}

// Opener knows how to decode a particular file format from r.
type Opener func(r io.ReadSeeker) (Decoder, error)

var openers = map[string]Opener{
	"wav": OpenWAV,
	"aac": OpenAAC,
}

// Open dispatches to the Decoder registered for name (spec §6.3 names
// these the same as the asset's declared codec, e.g. "wav" or "aac").
// Sample-rate/channel validation against the mixer's supported
// conversion policy happens at layer setup (internal/dsp.NewConverter),
// not here — a Decoder's only job is reporting what it actually
// contains (spec §4.14: "Sample-rate conversion of an unsupported
// channel combination fails at layer setup, not mid-block").
func Open(name string, r io.ReadSeeker) (Decoder, error) {
	open, ok := openers[name]
	if !ok {
		return nil, errors.Newf("unsupported codec %q", name).
			Component("codec").
			Category(errors.CategoryValidation).
			Build()
	}
	dec, err := open(r)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", name, err)
	}
	return dec, nil
}
