package pkgfile

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeName(buf *bytes.Buffer, name string) {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(name)))
	buf.Write(lenBuf[:])
	buf.WriteString(name)
}

func writeU64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

func buildArchive(t *testing.T, compression Compression, items map[string][]byte) []byte {
	t.Helper()

	names := make([]string, 0, len(items))
	for name := range items {
		names = append(names, name)
	}

	var payload bytes.Buffer
	offsets := make(map[string]uint64, len(items))
	for _, name := range names {
		offsets[name] = uint64(payload.Len())
		payload.Write(items[name])
	}

	payloadBytes := payload.Bytes()
	if compression == CompressionZlib {
		var compressed bytes.Buffer
		zw := zlib.NewWriter(&compressed)
		_, err := zw.Write(payloadBytes)
		require.NoError(t, err)
		require.NoError(t, zw.Close())
		payloadBytes = compressed.Bytes()
	}

	var out bytes.Buffer
	out.WriteString(magic)
	var version [2]byte
	binary.LittleEndian.PutUint16(version[:], 1)
	out.Write(version[:])
	out.WriteByte(byte(compression))
	writeU64(&out, uint64(len(names)))

	for _, name := range names {
		writeName(&out, name)
		writeU64(&out, offsets[name])
		writeU64(&out, uint64(len(items[name])))
	}

	out.Write(payloadBytes)
	return out.Bytes()
}

func TestOpenRoundTripsUncompressedItems(t *testing.T) {
	raw := buildArchive(t, CompressionNone, map[string][]byte{
		"a.wav": []byte("hello"),
		"b.wav": []byte("world!"),
	})

	pkg, err := Open(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, uint16(1), pkg.Version)
	assert.Len(t, pkg.Items(), 2)

	r, ok := pkg.Open("a.wav")
	require.True(t, ok)
	var buf bytes.Buffer
	_, err = buf.ReadFrom(r)
	require.NoError(t, err)
	assert.Equal(t, "hello", buf.String())
}

func TestOpenInflatesZlibPayload(t *testing.T) {
	raw := buildArchive(t, CompressionZlib, map[string][]byte{
		"only.aac": []byte("compressed payload contents"),
	})

	pkg, err := Open(bytes.NewReader(raw))
	require.NoError(t, err)

	r, ok := pkg.Open("only.aac")
	require.True(t, ok)
	var buf bytes.Buffer
	_, err = buf.ReadFrom(r)
	require.NoError(t, err)
	assert.Equal(t, "compressed payload contents", buf.String())
}

func TestOpenRejectsBadMagic(t *testing.T) {
	raw := buildArchive(t, CompressionNone, map[string][]byte{"x": []byte("y")})
	raw[0] = 'X'

	_, err := Open(bytes.NewReader(raw))
	require.Error(t, err)
}

func TestOpenRejectsUnknownCompression(t *testing.T) {
	raw := buildArchive(t, CompressionNone, map[string][]byte{"x": []byte("y")})
	raw[6] = 9

	_, err := Open(bytes.NewReader(raw))
	require.Error(t, err)
}

func TestPackageOpenReportsMissingItem(t *testing.T) {
	raw := buildArchive(t, CompressionNone, map[string][]byte{"x": []byte("y")})
	pkg, err := Open(bytes.NewReader(raw))
	require.NoError(t, err)

	_, ok := pkg.Open("missing")
	assert.False(t, ok)
}
