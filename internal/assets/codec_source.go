package assets

import (
	"io"

	"github.com/amplimix/amplimix/internal/codec"
	"github.com/amplimix/amplimix/internal/layer"
)

// codecSource adapts a codec.Decoder to layer.Source, the shape every
// playable Sound.Opener must return. The two interfaces already share
// Stream/Seek; only Channels/SampleRate need deriving from Format.
type codecSource struct {
	codec.Decoder
}

func (s codecSource) Channels() int   { return s.Decoder.Format().Channels }
func (s codecSource) SampleRate() int { return s.Decoder.Format().SampleRate }

// NewCodecOpener builds a Sound.Opener that opens name's codec
// (e.g. "wav", "aac") fresh against open each time a layer plays this
// sound, so concurrent plays of the same asset never share a decoder's
// read cursor (spec §4.14's Sound is the immutable definition; Opener
// produces the per-play streaming state).
func NewCodecOpener(name string, open func() (io.ReadSeeker, error)) Opener {
	return func() (layer.Source, error) {
		r, err := open()
		if err != nil {
			return nil, err
		}
		dec, err := codec.Open(name, r)
		if err != nil {
			return nil, err
		}
		return codecSource{Decoder: dec}, nil
	}
}
