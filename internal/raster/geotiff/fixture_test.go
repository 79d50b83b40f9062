package geotiff

import (
	"bytes"
	"compress/lzw"
	"compress/zlib"
	"encoding/binary"
	"math"
	"sort"
	"testing"

	"github.com/woozymasta/skyglow/internal/geo"
)

// fixture describes a GeoTIFF written by the tests themselves.
type fixture struct {
	order         binary.ByteOrder
	big           bool
	width, height int
	tileW, tileH  int // zero for strips
	rowsPerStrip  int
	compression   uint16
	predictor     uint16
	noData        string
	bounds        geo.Bounds
	data          []float32
}

type fxEntry struct {
	tag   uint16
	typ   fieldType
	count uint64
	data  []byte
}

func (f fixture) encodeBlock(samples []float32, rowWidth, rows int) []byte {
	buf := make([]byte, len(samples)*4)
	if f.predictor == predictorFloatingPoint {
		rowBytes := rowWidth * 4
		for y := 0; y < rows; y++ {
			row := buf[y*rowBytes : (y+1)*rowBytes]
			for x := 0; x < rowWidth; x++ {
				bits := math.Float32bits(samples[y*rowWidth+x])
				row[x] = byte(bits >> 24)
				row[rowWidth+x] = byte(bits >> 16)
				row[2*rowWidth+x] = byte(bits >> 8)
				row[3*rowWidth+x] = byte(bits)
			}
			for i := len(row) - 1; i > 0; i-- {
				row[i] -= row[i-1]
			}
		}
	} else {
		for i, v := range samples {
			f.order.PutUint32(buf[i*4:], math.Float32bits(v))
		}
	}

	var out bytes.Buffer
	switch f.compression {
	case compressionDeflate, compressionDeflateOld:
		zw := zlib.NewWriter(&out)
		zw.Write(buf)
		zw.Close()
	case compressionLZW:
		lw := lzw.NewWriter(&out, lzw.MSB, 8)
		lw.Write(buf)
		lw.Close()
	default:
		out.Write(buf)
	}
	return out.Bytes()
}

// blocks splits the image into encoded strips or tiles.
func (f fixture) blocks() [][]byte {
	var out [][]byte
	if f.tileW > 0 {
		for ty := 0; ty < (f.height+f.tileH-1)/f.tileH; ty++ {
			for tx := 0; tx < (f.width+f.tileW-1)/f.tileW; tx++ {
				samples := make([]float32, f.tileW*f.tileH)
				for y := 0; y < f.tileH; y++ {
					for x := 0; x < f.tileW; x++ {
						col, row := tx*f.tileW+x, ty*f.tileH+y
						if col < f.width && row < f.height {
							samples[y*f.tileW+x] = f.data[row*f.width+col]
						}
					}
				}
				out = append(out, f.encodeBlock(samples, f.tileW, f.tileH))
			}
		}
		return out
	}

	rps := f.rowsPerStrip
	if rps == 0 {
		rps = f.height
	}
	for start := 0; start < f.height; start += rps {
		rows := min(rps, f.height-start)
		out = append(out, f.encodeBlock(f.data[start*f.width:(start+rows)*f.width], f.width, rows))
	}
	return out
}

func (f fixture) build(t *testing.T) []byte {
	t.Helper()
	o := f.order
	if o == nil {
		o = binary.LittleEndian
		f.order = o
	}
	if f.compression == 0 {
		f.compression = compressionNone
	}
	if f.predictor == 0 {
		f.predictor = predictorNone
	}

	var file bytes.Buffer
	if o == binary.ByteOrder(binary.LittleEndian) {
		file.WriteString("II")
	} else {
		file.WriteString("MM")
	}
	if f.big {
		binary.Write(&file, o, uint16(bigMagic))
		binary.Write(&file, o, uint16(8))
		binary.Write(&file, o, uint16(0))
		binary.Write(&file, o, uint64(0))
	} else {
		binary.Write(&file, o, uint16(classicMagic))
		binary.Write(&file, o, uint32(0))
	}

	var offsets, counts []uint64
	for _, b := range f.blocks() {
		offsets = append(offsets, uint64(file.Len()))
		counts = append(counts, uint64(len(b)))
		file.Write(b)
	}
	if file.Len()%2 == 1 {
		file.WriteByte(0)
	}

	short := func(id tag, v ...uint16) fxEntry {
		b := make([]byte, 2*len(v))
		for i, x := range v {
			o.PutUint16(b[i*2:], x)
		}
		return fxEntry{uint16(id), typeShort, uint64(len(v)), b}
	}
	long := func(id tag, v ...uint64) fxEntry {
		if f.big {
			b := make([]byte, 8*len(v))
			for i, x := range v {
				o.PutUint64(b[i*8:], x)
			}
			return fxEntry{uint16(id), typeLong8, uint64(len(v)), b}
		}
		b := make([]byte, 4*len(v))
		for i, x := range v {
			o.PutUint32(b[i*4:], uint32(x))
		}
		return fxEntry{uint16(id), typeLong, uint64(len(v)), b}
	}
	double := func(id tag, v ...float64) fxEntry {
		b := make([]byte, 8*len(v))
		for i, x := range v {
			o.PutUint64(b[i*8:], math.Float64bits(x))
		}
		return fxEntry{uint16(id), typeDouble, uint64(len(v)), b}
	}

	sx := (f.bounds.MaxLon - f.bounds.MinLon) / float64(f.width)
	sy := (f.bounds.MaxLat - f.bounds.MinLat) / float64(f.height)
	entries := []fxEntry{
		long(tagImageWidth, uint64(f.width)),
		long(tagImageLength, uint64(f.height)),
		short(tagBitsPerSample, 32),
		short(tagCompression, f.compression),
		short(tagSamplesPerPixel, 1),
		short(tagPredictor, f.predictor),
		short(tagSampleFormat, sampleFormatFloat),
		double(tagModelPixelScale, sx, sy, 0),
		double(tagModelTiepoint, 0, 0, 0, f.bounds.MinLon, f.bounds.MaxLat, 0),
	}
	if f.tileW > 0 {
		entries = append(entries,
			long(tagTileWidth, uint64(f.tileW)),
			long(tagTileLength, uint64(f.tileH)),
			long(tagTileOffsets, offsets...),
			long(tagTileByteCounts, counts...),
		)
	} else {
		rps := f.rowsPerStrip
		if rps == 0 {
			rps = f.height
		}
		entries = append(entries,
			long(tagRowsPerStrip, uint64(rps)),
			long(tagStripOffsets, offsets...),
			long(tagStripByteCounts, counts...),
		)
	}
	if f.noData != "" {
		entries = append(entries, fxEntry{uint16(tagGDALNoData), typeASCII, uint64(len(f.noData) + 1), append([]byte(f.noData), 0)})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].tag < entries[j].tag })

	countSize, entrySize, inline, nextSize := 2, 12, 4, 4
	if f.big {
		countSize, entrySize, inline, nextSize = 8, 20, 8, 8
	}
	ifdOffset := uint64(file.Len())
	extra := ifdOffset + uint64(countSize+len(entries)*entrySize+nextSize)

	var ifd, tail bytes.Buffer
	if f.big {
		binary.Write(&ifd, o, uint64(len(entries)))
	} else {
		binary.Write(&ifd, o, uint16(len(entries)))
	}
	for _, e := range entries {
		binary.Write(&ifd, o, e.tag)
		binary.Write(&ifd, o, uint16(e.typ))
		value := make([]byte, inline)
		if len(e.data) <= inline {
			copy(value, e.data)
		} else {
			at := extra + uint64(tail.Len())
			if f.big {
				o.PutUint64(value, at)
			} else {
				o.PutUint32(value, uint32(at))
			}
			tail.Write(e.data)
			if tail.Len()%2 == 1 {
				tail.WriteByte(0)
			}
		}
		if f.big {
			binary.Write(&ifd, o, e.count)
		} else {
			binary.Write(&ifd, o, uint32(e.count))
		}
		ifd.Write(value)
	}
	ifd.Write(make([]byte, nextSize))

	file.Write(ifd.Bytes())
	file.Write(tail.Bytes())

	out := file.Bytes()
	if f.big {
		o.PutUint64(out[8:], ifdOffset)
	} else {
		o.PutUint32(out[4:], uint32(ifdOffset))
	}
	return out
}
