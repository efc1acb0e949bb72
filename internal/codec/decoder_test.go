package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenRejectsUnknownCodec(t *testing.T) {
	_, err := Open("flac", nil)
	require.Error(t, err)
}

type stubDecoder struct {
	data [][]float32
	cur  int
}

func (s *stubDecoder) Format() Format {
	return Format{SampleRate: 48000, Channels: len(s.data), FrameCount: len(s.data[0])}
}

func (s *stubDecoder) Stream(dst [][]float32) (int, bool) {
	n := len(dst[0])
	remaining := len(s.data[0]) - s.cur
	if n > remaining {
		n = remaining
	}
	for c := range dst {
		copy(dst[c][:n], s.data[c][s.cur:s.cur+n])
	}
	s.cur += n
	return n, s.cur >= len(s.data[0])
}

func (s *stubDecoder) Seek(frame int) error { s.cur = frame; return nil }
func (s *stubDecoder) Close() error         { return nil }

func TestDecoderStreamReportsEndAtResourceBoundary(t *testing.T) {
	d := &stubDecoder{data: [][]float32{{1, 2, 3}}}
	out := [][]float32{make([]float32, 2)}
	n, ended := d.Stream(out)
	assert.Equal(t, 2, n)
	assert.False(t, ended)

	out2 := [][]float32{make([]float32, 2)}
	n, ended = d.Stream(out2)
	assert.Equal(t, 1, n)
	assert.True(t, ended)
}
