// Package pkgfile implements the read-only AMPK package archive format
// spec §6.2 describes as the on-disk container asset-loading
// collaborators unpack: "Read-only archive consumed by asset-loading
// collaborators, described here because the core consumes the unpacked
// items." The core itself never touches this format directly.
package pkgfile

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"io"

	"github.com/amplimix/amplimix/internal/errors"
)

// Compression identifies the single algorithm the whole payload section
// was compressed with (spec §6.2 byte 6).
type Compression byte

const (
	CompressionNone Compression = 0
	CompressionZlib Compression = 1
)

const (
	magic      = "AMPK"
	headerSize = 15 // magic(4) + version(2) + compression(1) + item count(8)
)

// Item is one named entry's location within the decompressed payload.
type Item struct {
	Name   string
	Offset uint64
	Size   uint64
}

// Package is a fully parsed AMPK archive: its item table plus the
// decompressed payload bytes every Item's Offset/Size slices into.
// Parsing decompresses the whole payload once, up front, rather than
// per item, since zlib's DEFLATE stream can't be random-accessed by
// item without re-inflating from the start.
type Package struct {
	Version     uint16
	Compression Compression

	items   []Item
	byName  map[string]int
	payload []byte
}

// Open parses an AMPK archive from r in full (spec §6.2's header, item
// table, then payload).
func Open(r io.Reader) (*Package, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(raw) < headerSize {
		return nil, errors.Newf("package too small for header (%d bytes)", len(raw)).
			Component("pkgfile").
			Category(errors.CategoryFileParsing).
			Build()
	}
	if string(raw[0:4]) != magic {
		return nil, errors.Newf("bad magic %q, want %q", raw[0:4], magic).
			Component("pkgfile").
			Category(errors.CategoryFileParsing).
			Build()
	}

	version := binary.LittleEndian.Uint16(raw[4:6])
	compression := Compression(raw[6])
	if compression != CompressionNone && compression != CompressionZlib {
		return nil, errors.Newf("invalid compression algorithm %d", compression).
			Component("pkgfile").
			Category(errors.CategoryFileParsing).
			Build()
	}
	itemCount := binary.LittleEndian.Uint64(raw[7:15])

	cursor := headerSize
	items := make([]Item, 0, itemCount)
	byName := make(map[string]int, itemCount)
	for i := uint64(0); i < itemCount; i++ {
		name, n, err := readName(raw[cursor:])
		if err != nil {
			return nil, err
		}
		cursor += n

		if cursor+16 > len(raw) {
			return nil, errors.Newf("item table truncated after %d items", i).
				Component("pkgfile").
				Category(errors.CategoryFileParsing).
				Build()
		}
		offset := binary.LittleEndian.Uint64(raw[cursor : cursor+8])
		size := binary.LittleEndian.Uint64(raw[cursor+8 : cursor+16])
		cursor += 16

		byName[name] = len(items)
		items = append(items, Item{Name: name, Offset: offset, Size: size})
	}

	payload := raw[cursor:]
	if compression == CompressionZlib {
		payload, err = inflate(payload)
		if err != nil {
			return nil, err
		}
	}

	return &Package{
		Version:     version,
		Compression: compression,
		items:       items,
		byName:      byName,
		payload:     payload,
	}, nil
}

// readName parses a u32-length-prefixed UTF-8 name at the start of buf,
// returning the name and the number of bytes it occupied (spec §6.2:
// "length-prefixed UTF-8 name"; the prefix width isn't specified there,
// so this picks u32 to match the item table's other little-endian
// u64 fields' byte order — see DESIGN.md).
func readName(buf []byte) (string, int, error) {
	if len(buf) < 4 {
		return "", 0, errors.Newf("item name length truncated").
			Component("pkgfile").
			Category(errors.CategoryFileParsing).
			Build()
	}
	length := binary.LittleEndian.Uint32(buf[0:4])
	end := 4 + int(length)
	if end > len(buf) {
		return "", 0, errors.Newf("item name truncated (want %d bytes)", length).
			Component("pkgfile").
			Category(errors.CategoryFileParsing).
			Build()
	}
	return string(buf[4:end]), end, nil
}

func inflate(compressed []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, errors.Newf("zlib header invalid: %v", err).
			Component("pkgfile").
			Category(errors.CategoryFileParsing).
			Build()
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, errors.Newf("zlib inflate failed: %v", err).
			Component("pkgfile").
			Category(errors.CategoryFileParsing).
			Build()
	}
	return out, nil
}

// Items returns every entry's name and location, in archive order.
func (p *Package) Items() []Item { return p.items }

// Open returns a seekable reader over the named item's decompressed
// bytes, or false if no item by that name exists. The result is
// seekable (rather than a plain io.Reader) so callers can hand it
// straight to codec.Open, which requires io.ReadSeeker.
func (p *Package) Open(name string) (io.ReadSeeker, bool) {
	idx, ok := p.byName[name]
	if !ok {
		return nil, false
	}
	item := p.items[idx]
	if item.Offset+item.Size > uint64(len(p.payload)) {
		return nil, false
	}
	return bytes.NewReader(p.payload[item.Offset : item.Offset+item.Size]), true
}
