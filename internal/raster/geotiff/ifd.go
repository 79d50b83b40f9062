package geotiff

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
)

const (
	classicMagic = 42
	bigMagic     = 43
)

type header struct {
	order     binary.ByteOrder
	big       bool
	ifdOffset uint64
}

// entry is a decoded directory entry with its raw value bytes.
type entry struct {
	typ   fieldType
	count uint64
	raw   []byte
}

type directory map[tag]entry

func readHeader(r io.ReaderAt) (header, error) {
	var h header
	buf := make([]byte, 16)
	if _, err := r.ReadAt(buf[:8], 0); err != nil {
		return h, fmt.Errorf("read header: %w", err)
	}

	switch string(buf[:2]) {
	case "II":
		h.order = binary.LittleEndian
	case "MM":
		h.order = binary.BigEndian
	default:
		return h, errors.New("not a TIFF file")
	}

	switch h.order.Uint16(buf[2:4]) {
	case classicMagic:
		h.ifdOffset = uint64(h.order.Uint32(buf[4:8]))
	case bigMagic:
		h.big = true
		if h.order.Uint16(buf[4:6]) != 8 {
			return h, errors.New("invalid BigTIFF offset size")
		}
		if _, err := r.ReadAt(buf[8:16], 8); err != nil {
			return h, fmt.Errorf("read BigTIFF header: %w", err)
		}
		h.ifdOffset = h.order.Uint64(buf[8:16])
	default:
		return h, fmt.Errorf("invalid TIFF identifier %d", h.order.Uint16(buf[2:4]))
	}

	if h.ifdOffset == 0 {
		return h, errors.New("file contains no image directory")
	}
	return h, nil
}

// readDirectory parses the first IFD. Later IFDs hold overviews and masks.
func readDirectory(r io.ReaderAt, h header) (directory, error) {
	countSize, entrySize, inline := 2, 12, 4
	if h.big {
		countSize, entrySize, inline = 8, 20, 8
	}

	buf := make([]byte, countSize)
	if _, err := r.ReadAt(buf, int64(h.ifdOffset)); err != nil {
		return nil, fmt.Errorf("read directory size: %w", err)
	}
	var n uint64
	if h.big {
		n = h.order.Uint64(buf)
	} else {
		n = uint64(h.order.Uint16(buf))
	}
	if n == 0 || n > 4096 {
		return nil, fmt.Errorf("invalid directory entry count %d", n)
	}

	block := make([]byte, int(n)*entrySize)
	if _, err := r.ReadAt(block, int64(h.ifdOffset)+int64(countSize)); err != nil {
		return nil, fmt.Errorf("read directory: %w", err)
	}

	dir := make(directory, n)
	for i := 0; i < int(n); i++ {
		e := block[i*entrySize : (i+1)*entrySize]
		id := tag(h.order.Uint16(e[0:2]))
		typ := fieldType(h.order.Uint16(e[2:4]))
		if typ.size() == 0 {
			continue
		}

		var count uint64
		var value []byte
		if h.big {
			count = h.order.Uint64(e[4:12])
			value = e[12:20]
		} else {
			count = uint64(h.order.Uint32(e[4:8]))
			value = e[8:12]
		}

		size := count * uint64(typ.size())
		if size > 1<<30 {
			return nil, fmt.Errorf("tag %d: value too large (%d bytes)", id, size)
		}

		var raw []byte
		if size <= uint64(inline) {
			raw = append([]byte(nil), value[:size]...)
		} else {
			var offset uint64
			if h.big {
				offset = h.order.Uint64(value)
			} else {
				offset = uint64(h.order.Uint32(value))
			}
			raw = make([]byte, size)
			if _, err := r.ReadAt(raw, int64(offset)); err != nil {
				return nil, fmt.Errorf("tag %d: read value: %w", id, err)
			}
		}
		dir[id] = entry{typ: typ, count: count, raw: raw}
	}

	return dir, nil
}

// uints decodes integer-typed values.
func (d directory) uints(t tag, order binary.ByteOrder) ([]uint64, bool) {
	e, ok := d[t]
	if !ok {
		return nil, false
	}
	out := make([]uint64, e.count)
	for i := range out {
		switch e.typ {
		case typeByte, typeUndefined:
			out[i] = uint64(e.raw[i])
		case typeShort:
			out[i] = uint64(order.Uint16(e.raw[i*2:]))
		case typeLong:
			out[i] = uint64(order.Uint32(e.raw[i*4:]))
		case typeLong8, typeIFD8:
			out[i] = order.Uint64(e.raw[i*8:])
		default:
			return nil, false
		}
	}
	return out, true
}

func (d directory) scalar(t tag, order binary.ByteOrder, def uint64) (uint64, error) {
	if _, ok := d[t]; !ok {
		return def, nil
	}
	v, ok := d.uints(t, order)
	if !ok || len(v) == 0 {
		return 0, fmt.Errorf("tag %d: expected an integer value", t)
	}
	return v[0], nil
}

// floats decodes FLOAT or DOUBLE values.
func (d directory) floats(t tag, order binary.ByteOrder) ([]float64, bool) {
	e, ok := d[t]
	if !ok {
		return nil, false
	}
	out := make([]float64, e.count)
	for i := range out {
		switch e.typ {
		case typeDouble:
			out[i] = math.Float64frombits(order.Uint64(e.raw[i*8:]))
		case typeFloat:
			out[i] = float64(math.Float32frombits(order.Uint32(e.raw[i*4:])))
		default:
			return nil, false
		}
	}
	return out, true
}

func (d directory) ascii(t tag) (string, bool) {
	e, ok := d[t]
	if !ok || e.typ != typeASCII {
		return "", false
	}
	return strings.TrimSpace(strings.TrimRight(string(e.raw), "\x00")), true
}
