package device

import (
	"encoding/binary"
	"math"
)

// bytesPerSample reports the interleaved frame stride for one channel
// of the given format.
func bytesPerSample(f SampleFormat) int {
	switch f {
	case FormatU8:
		return 1
	case FormatS16:
		return 2
	case FormatS24:
		return 3
	case FormatS32, FormatF32:
		return 4
	default:
		return 2
	}
}

// interleave writes planar float32 samples (one slice per channel, as
// Amplimix.Mix produces) into dst as frames-interleaved samples in the
// device's negotiated format, clamping out-of-range values the same way
// the teacher's byte-format converter clamps when narrowing (spec §6.1:
// "a final conversion stage writes into the driver's requested
// interleaved format").
func interleave(dst []byte, planar [][]float32, frames int, format SampleFormat) {
	channels := len(planar)
	stride := bytesPerSample(format)

	for i := 0; i < frames; i++ {
		for c := 0; c < channels; c++ {
			sample := planar[c][i]
			off := (i*channels + c) * stride

			switch format {
			case FormatU8:
				dst[off] = floatToU8(sample)
			case FormatS16:
				binary.LittleEndian.PutUint16(dst[off:off+2], uint16(floatToS16(sample)))
			case FormatS24:
				putS24(dst[off:off+3], floatToS24(sample))
			case FormatS32:
				binary.LittleEndian.PutUint32(dst[off:off+4], uint32(floatToS32(sample)))
			case FormatF32:
				binary.LittleEndian.PutUint32(dst[off:off+4], math.Float32bits(clampFloat(sample)))
			}
		}
	}
}

func clampFloat(v float32) float32 {
	if v > 1.0 {
		return 1.0
	}
	if v < -1.0 {
		return -1.0
	}
	return v
}

func floatToS16(v float32) int16 {
	scaled := float64(clampFloat(v)) * 32767.0
	if scaled > 32767 {
		scaled = 32767
	} else if scaled < -32768 {
		scaled = -32768
	}
	return int16(scaled)
}

func floatToS32(v float32) int32 {
	scaled := float64(clampFloat(v)) * 2147483647.0
	if scaled > 2147483647 {
		scaled = 2147483647
	} else if scaled < -2147483648 {
		scaled = -2147483648
	}
	return int32(scaled)
}

func floatToS24(v float32) int32 {
	scaled := float64(clampFloat(v)) * 8388607.0
	if scaled > 8388607 {
		scaled = 8388607
	} else if scaled < -8388608 {
		scaled = -8388608
	}
	return int32(scaled)
}

func floatToU8(v float32) byte {
	scaled := (float64(clampFloat(v))*0.5 + 0.5) * 255.0
	if scaled > 255 {
		scaled = 255
	} else if scaled < 0 {
		scaled = 0
	}
	return byte(scaled)
}

func putS24(dst []byte, v int32) {
	dst[0] = byte(v)
	dst[1] = byte(v >> 8)
	dst[2] = byte(v >> 16)
}
