package hrir

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSphereFile(t *testing.T, vertexCount, irLength int, faces [][3]uint32) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteString(magic)
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint16(1)))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(48000)))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(irLength)))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(vertexCount)))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(len(faces)*3)))

	for v := 0; v < vertexCount; v++ {
		pos := [3]float32{float32(v), 0, 0}
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, pos))
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, make([]float32, irLength)))
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, make([]float32, irLength)))
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, float32(0)))
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, float32(0)))
	}
	for _, f := range faces {
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, f))
	}
	return buf.Bytes()
}

func TestReadSphereParsesValidFile(t *testing.T) {
	data := writeSphereFile(t, 4, 8, [][3]uint32{{0, 1, 2}, {1, 2, 3}})
	s, err := ReadSphere(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 48000, s.SampleRate)
	assert.Equal(t, 8, s.IRLength)
	assert.Len(t, s.Vertices, 4)
	assert.Len(t, s.Faces, 2)
}

func TestReadSphereRejectsBadMagic(t *testing.T) {
	data := writeSphereFile(t, 4, 8, [][3]uint32{{0, 1, 2}})
	data[0] = 'X'
	_, err := ReadSphere(bytes.NewReader(data))
	assert.Error(t, err)
}

func TestReadSphereRejectsTruncatedFile(t *testing.T) {
	data := writeSphereFile(t, 4, 8, [][3]uint32{{0, 1, 2}})
	_, err := ReadSphere(bytes.NewReader(data[:len(data)-4]))
	assert.Error(t, err)
}
