package ambisonic

// Decoder renders a BFormat buffer to a fixed set of speaker feeds by a
// per-channel dot product against each speaker's decode row.
type Decoder struct {
	order    int
	is3D     bool
	speakers []Speaker
}

// NewDecoder configures a Decoder for the named layout at the given
// ambisonic order/mode, precomputing each speaker's decode row.
func NewDecoder(order int, is3D bool, layoutName string) *Decoder {
	d := &Decoder{
		order:    order,
		is3D:     is3D,
		speakers: SpeakerLayout(layoutName),
	}
	channels := ChannelCount(order, is3D)
	for i := range d.speakers {
		sp := &d.speakers[i]
		if sp.Silent {
			sp.coeffs = make([]float64, channels)
			continue
		}
		row := encodeSN3D(order, is3D, sp.Azimuth, sp.Elevation)
		for c := range row {
			row[c] *= decoderScale(c)
		}
		sp.coeffs = row
	}
	return d
}

// SpeakerCount returns the number of speaker feeds this Decoder produces.
func (d *Decoder) SpeakerCount() int { return len(d.speakers) }

// Speakers returns the configured speaker directions, read-only.
func (d *Decoder) Speakers() []Speaker { return d.speakers }

// Decode renders in into out, one slice per speaker in layout order,
// each a per-channel dot product of the ambisonic frame against that
// speaker's decode row.
func (d *Decoder) Decode(out [][]float32, in *BFormat) {
	frames := in.Frames()
	for s, sp := range d.speakers {
		dst := out[s]
		if sp.Silent {
			for i := 0; i < frames; i++ {
				dst[i] = 0
			}
			continue
		}
		for i := 0; i < frames; i++ {
			var acc float64
			for c, w := range sp.coeffs {
				acc += float64(in.Channel(c)[i]) * w
			}
			dst[i] = float32(acc)
		}
	}
}
