package assets

import (
	"github.com/amplimix/amplimix/internal/layer"
)

// SampleKind distinguishes the two PCM sample encodings spec §3's sound
// format tuple allows.
type SampleKind int

const (
	SampleKindInt SampleKind = iota
	SampleKindFloat
)

// Format is the immutable tuple spec §3 associates with a sound once its
// decoder has opened the underlying resource: {sample_rate, channel_count,
// bits_per_sample, frame_count, frame_stride_bytes, sample_kind}.
type Format struct {
	SampleRate       int
	Channels         int
	BitsPerSample    int
	FrameCount       int
	FrameStrideBytes int
	Kind             SampleKind
}

// Opener opens a fresh, independent playback cursor over a sound's
// decoded audio, satisfying layer.Source. Each Play allocates its own
// Opener result so concurrent layers playing the same Sound don't share
// a read cursor.
type Opener func() (layer.Source, error)

// Sound is the asset-facing view of a single piece of decoded or
// streamable audio (spec §3, §4.14), grounded on original_source's
// Sound/SoundInstance split: Sound is the immutable definition, Open
// produces the per-play streaming state a Layer pulls from.
type Sound struct {
	ID   SoundID
	Name string

	Format Format
	Open   Opener

	Bus         BusID
	Attenuation AttenuationID
	Effect      EffectID

	Gain        float32
	Pitch       float32
	Priority    float32
	Spatialized bool
	Loop        bool
}
