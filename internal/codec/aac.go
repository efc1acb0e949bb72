package codec

import (
	"fmt"
	"io"

	"github.com/llehouerou/go-aac"

	"github.com/amplimix/amplimix/internal/errors"
)

// aacDecoder decodes an ADTS/raw AAC stream frame-by-frame via
// github.com/llehouerou/go-aac up front, the same full-decode-then-
// stream-from-memory strategy wavDecoder uses, since one-shot sound
// assets are short enough to hold entirely in planar float32.
type aacDecoder struct {
	format Format
	data   [][]float32
	cursor int
}

// OpenAAC implements Opener for the "aac" codec name. It walks the
// stream frame by frame via Decoder.Decode, advancing by each frame's
// reported BytesConsumed and accumulating whatever channel/sample-rate
// metadata and PCM samples each frame reports (spec §4.14: "Decoder
// failures during stream result in the layer transitioning to halt" —
// here, a zero-BytesConsumed frame or a decode error simply ends the
// walk, returning whatever was decoded so far rather than failing the
// whole open).
func OpenAAC(r io.ReadSeeker) (Decoder, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading aac stream: %w", err)
	}
	if len(raw) == 0 {
		return nil, errors.Newf("empty aac stream").
			Component("codec").
			Category(errors.CategoryFileParsing).
			Build()
	}

	dec := aac.NewDecoder()
	defer dec.Close()

	var (
		channels   int
		sampleRate int
		interleave []int16
	)

	offset := 0
	for offset < len(raw) {
		out, info, err := dec.Decode(raw[offset:])
		if err != nil {
			break
		}
		if info == nil || info.BytesConsumed == 0 {
			break
		}
		if info.Channels > 0 {
			channels = int(info.Channels)
		}
		if info.SampleRate > 0 {
			sampleRate = int(info.SampleRate)
		}
		if samples, ok := out.([]int16); ok {
			interleave = append(interleave, samples...)
		}
		offset += int(info.BytesConsumed)
	}

	if channels == 0 {
		channels = 1
	}
	frameCount := 0
	if channels > 0 {
		frameCount = len(interleave) / channels
	}

	planar := make([][]float32, channels)
	for c := range planar {
		planar[c] = make([]float32, frameCount)
	}
	const maxInt16 = float32(1 << 15)
	for i := 0; i < frameCount; i++ {
		for c := 0; c < channels; c++ {
			planar[c][i] = float32(interleave[i*channels+c]) / maxInt16
		}
	}

	return &aacDecoder{
		format: Format{
			SampleRate:    sampleRate,
			Channels:      channels,
			BitsPerSample: 16,
			FrameCount:    frameCount,
		},
		data: planar,
	}, nil
}

func (d *aacDecoder) Format() Format { return d.format }

func (d *aacDecoder) Stream(dst [][]float32) (produced int, ended bool) {
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

func (d *aacDecoder) Seek(frame int) error {
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

func (d *aacDecoder) Close() error { return nil }
