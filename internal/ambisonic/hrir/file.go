package hrir

import (
	"encoding/binary"
	"io"

	"github.com/amplimix/amplimix/internal/errors"
)

// ComponentHRIR identifies errors raised while reading an HRIR-sphere
// file.
const ComponentHRIR = "ambisonic"

const magic = "AMIR"

// ReadSphere parses an AMIR-format HRIR-sphere file (spec §6.4) from r
// and builds its Sphere, including the BSP tree.
func ReadSphere(r io.Reader) (*Sphere, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, errors.New(err).Component(ComponentHRIR).Category(errors.CategoryFileIO).
			Context("operation", "read_magic").Build()
	}
	if string(header[:]) != magic {
		return nil, errors.Newf("unrecognized HRIR sphere magic %q", header[:]).
			Component(ComponentHRIR).Category(errors.CategoryFileParsing).Build()
	}

	var version uint16
	var sampleRate, irLength, vertexCount, indexCount uint32
	for _, field := range []any{&version, &sampleRate, &irLength, &vertexCount, &indexCount} {
		if err := binary.Read(r, binary.LittleEndian, field); err != nil {
			return nil, errors.New(err).Component(ComponentHRIR).Category(errors.CategoryFileParsing).
				Context("operation", "read_header").Build()
		}
	}

	vertices := make([]Vertex, vertexCount)
	for i := range vertices {
		v := &vertices[i]
		var pos [3]float32
		if err := binary.Read(r, binary.LittleEndian, &pos); err != nil {
			return nil, errors.New(err).Component(ComponentHRIR).Category(errors.CategoryFileParsing).
				Context("operation", "read_vertex_position").Context("index", i).Build()
		}
		v.Position = [3]float64{float64(pos[0]), float64(pos[1]), float64(pos[2])}

		v.LeftIR = make([]float32, irLength)
		if err := binary.Read(r, binary.LittleEndian, v.LeftIR); err != nil {
			return nil, errors.New(err).Component(ComponentHRIR).Category(errors.CategoryFileParsing).
				Context("operation", "read_left_ir").Context("index", i).Build()
		}
		v.RightIR = make([]float32, irLength)
		if err := binary.Read(r, binary.LittleEndian, v.RightIR); err != nil {
			return nil, errors.New(err).Component(ComponentHRIR).Category(errors.CategoryFileParsing).
				Context("operation", "read_right_ir").Context("index", i).Build()
		}
		if err := binary.Read(r, binary.LittleEndian, &v.LeftDelay); err != nil {
			return nil, errors.New(err).Component(ComponentHRIR).Category(errors.CategoryFileParsing).Build()
		}
		if err := binary.Read(r, binary.LittleEndian, &v.RightDelay); err != nil {
			return nil, errors.New(err).Component(ComponentHRIR).Category(errors.CategoryFileParsing).Build()
		}
	}

	faceCount := indexCount / 3
	faces := make([]Face, faceCount)
	for i := range faces {
		var idx [3]uint32
		if err := binary.Read(r, binary.LittleEndian, &idx); err != nil {
			return nil, errors.New(err).Component(ComponentHRIR).Category(errors.CategoryFileParsing).
				Context("operation", "read_face").Context("index", i).Build()
		}
		faces[i] = Face{A: int(idx[0]), B: int(idx[1]), C: int(idx[2])}
	}

	return NewSphere(int(sampleRate), int(irLength), vertices, faces), nil
}
