// Package device implements the §6.1 device driver boundary: opening a
// platform playback device and feeding it from the mixing core's
// Mix(output, frameCount) callback, converting the core's internal
// float32 planar buffers into whatever interleaved format the device
// negotiated.
package device

// SampleFormat is one of the interleaved output encodings a device may
// negotiate (spec §6.1's DeviceDescription.sample_format).
type SampleFormat int

const (
	FormatU8 SampleFormat = iota
	FormatS16
	FormatS24
	FormatS32
	FormatF32
)

// Description mirrors spec §6.1's DeviceDescription: the negotiated
// shape of a playback device the driver must conform the mixer's
// output to.
type Description struct {
	SampleRate   int
	Channels     int // one of 1, 2, 4, 6, 8
	Format       SampleFormat
	BufferFrames int
}

// MixFunc is the shape of the mixing core's per-callback entry point
// (internal/mixer.Amplimix.Mix): it fills up to len(output[0]) frames
// of planar float32 per channel and reports how many frames it
// actually produced.
type MixFunc func(output [][]float32, frameCount int) (framesProduced int)
