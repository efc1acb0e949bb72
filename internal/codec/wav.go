package codec

import (
	"fmt"
	"io"

	"github.com/go-audio/wav"

	"github.com/amplimix/amplimix/internal/errors"
)

// wavDecoder decodes an entire WAV file up front into a planar float32
// buffer. One-shot sounds are short enough that this is simpler and
// cheaper than streaming the RIFF data chunk incrementally, and it
// makes Seek (used for loop wraparound) a plain index reset rather than
// a re-parse of chunk boundaries.
type wavDecoder struct {
	format Format
	data   [][]float32
	cursor int
}

// OpenWAV implements Opener for the "wav" codec name using
// github.com/go-audio/wav, decoding the full PCM chunk via
// Decoder.FullPCMBuffer and normalizing samples to [-1, 1] using the
// file's reported bit depth.
func OpenWAV(r io.ReadSeeker) (Decoder, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, errors.Newf("not a valid wav file").
			Component("codec").
			Category(errors.CategoryFileParsing).
			Build()
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decoding wav pcm chunk: %w", err)
	}
	if buf.Format == nil || buf.Format.NumChannels <= 0 {
		return nil, errors.Newf("wav file reports no channels").
			Component("codec").
			Category(errors.CategoryFileParsing).
			Build()
	}

	channels := buf.Format.NumChannels
	frameCount := len(buf.Data) / channels
	planar := make([][]float32, channels)
	for c := range planar {
		planar[c] = make([]float32, frameCount)
	}

	bitDepth := buf.SourceBitDepth
	if bitDepth <= 0 {
		bitDepth = 16
	}
	maxVal := float32(int64(1) << uint(bitDepth-1))
	for i := 0; i < frameCount; i++ {
		for c := 0; c < channels; c++ {
			planar[c][i] = float32(buf.Data[i*channels+c]) / maxVal
		}
	}

	return &wavDecoder{
		format: Format{
			SampleRate:    buf.Format.SampleRate,
			Channels:      channels,
			BitsPerSample: bitDepth,
			FrameCount:    frameCount,
		},
		data: planar,
	}, nil
}

func (d *wavDecoder) Format() Format { return d.format }

func (d *wavDecoder) Stream(dst [][]float32) (produced int, ended bool) {
	total := 0
	if len(d.data) > 0 {
		total = len(d.data[0])
	}
	remaining := total - d.cursor
	n := 0
	if len(dst) > 0 {
		n = len(dst[0])
	}
	if n > remaining {
		n = remaining
	}
	if n < 0 {
		n = 0
	}

	for c := range dst {
		if c < len(d.data) {
			copy(dst[c][:n], d.data[c][d.cursor:d.cursor+n])
		}
		for i := n; i < len(dst[c]); i++ {
			dst[c][i] = 0
		}
	}
	d.cursor += n
	return n, d.cursor >= total
}

func (d *wavDecoder) Seek(frame int) error {
	total := 0
	if len(d.data) > 0 {
		total = len(d.data[0])
	}
	if frame < 0 || frame > total {
		return errors.Newf("seek frame %d out of range [0,%d]", frame, total).
			Component("codec").
			Category(errors.CategoryValidation).
			Build()
	}
	d.cursor = frame
	return nil
}

func (d *wavDecoder) Close() error { return nil }
