// Package geotiff reads single-band float32 GeoTIFF rasters through the
// raster.Dataset interface.
package geotiff

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/karlseguin/ccache/v3"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/woozymasta/skyglow/internal/geo"
	"github.com/woozymasta/skyglow/internal/photometry"
	"github.com/woozymasta/skyglow/internal/raster"
)

// DefaultBlockCache is the number of decoded blocks kept in memory.
const DefaultBlockCache = 512

const blockTTL = time.Hour

// Options tune a Reader.
type Options struct {
	// BlockCache is the maximum number of decoded blocks kept in memory.
	BlockCache int64
}

// Reader is a raster.Dataset backed by a GeoTIFF file. It is safe for
// concurrent use.
type Reader struct {
	src    io.ReaderAt
	closer io.Closer
	order  binary.ByteOrder

	width, height  int
	blockW, blockH int
	blocksAcross   int
	tiled          bool
	offsets        []uint64
	counts         []uint64

	compression uint64
	predictor   uint64

	bounds geo.Bounds
	noData *float32

	blocks   *ccache.Cache[[]float32]
	inflight singleflight.Group
}

var _ raster.Dataset = (*Reader)(nil)

// Open opens the GeoTIFF at path.
func Open(path string, opts Options) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	r, err := NewReader(f, opts)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	r.closer = f

	log.Info().
		Str("path", path).
		Int("width", r.width).
		Int("height", r.height).
		Str("bounds", r.bounds.String()).
		Bool("tiled", r.tiled).
		Uint64("compression", r.compression).
		Msg("GeoTIFF opened")

	return r, nil
}

// NewReader parses the GeoTIFF structure from src. src must allow
// concurrent ReadAt calls.
func NewReader(src io.ReaderAt, opts Options) (*Reader, error) {
	h, err := readHeader(src)
	if err != nil {
		return nil, err
	}
	dir, err := readDirectory(src, h)
	if err != nil {
		return nil, err
	}

	r := &Reader{src: src, order: h.order}
	if err := r.parse(dir); err != nil {
		return nil, err
	}

	size := opts.BlockCache
	if size <= 0 {
		size = DefaultBlockCache
	}
	r.blocks = ccache.New(ccache.Configure[[]float32]().MaxSize(size).ItemsToPrune(uint32(max(size/16, 1))))

	return r, nil
}

func (r *Reader) parse(dir directory) error {
	width, err := dir.scalar(tagImageWidth, r.order, 0)
	if err != nil {
		return err
	}
	height, err := dir.scalar(tagImageLength, r.order, 0)
	if err != nil {
		return err
	}
	if width == 0 || height == 0 || width > math.MaxInt32 || height > math.MaxInt32 {
		return fmt.Errorf("invalid image size %dx%d", width, height)
	}
	r.width, r.height = int(width), int(height)

	checks := []struct {
		t    tag
		def  uint64
		want uint64
		name string
	}{
		{tagSamplesPerPixel, 1, 1, "samples per pixel"},
		{tagBitsPerSample, 32, 32, "bits per sample"},
		{tagSampleFormat, 1, sampleFormatFloat, "sample format"},
	}
	for _, c := range checks {
		v, err := dir.scalar(c.t, r.order, c.def)
		if err != nil {
			return err
		}
		if v != c.want {
			return fmt.Errorf("unsupported %s %d", c.name, v)
		}
	}

	if r.compression, err = dir.scalar(tagCompression, r.order, compressionNone); err != nil {
		return err
	}
	switch r.compression {
	case compressionNone, compressionLZW, compressionDeflate, compressionDeflateOld:
	default:
		return fmt.Errorf("unsupported compression %d", r.compression)
	}
	if r.predictor, err = dir.scalar(tagPredictor, r.order, predictorNone); err != nil {
		return err
	}
	if r.predictor != predictorNone && r.predictor != predictorFloatingPoint {
		return fmt.Errorf("unsupported predictor %d", r.predictor)
	}

	if err := r.parseLayout(dir); err != nil {
		return err
	}
	if err := r.parseGeoreference(dir); err != nil {
		return err
	}

	if s, ok := dir.ascii(tagGDALNoData); ok && s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("invalid GDAL_NODATA %q: %w", s, err)
		}
		nd := float32(v)
		r.noData = &nd
	}

	return nil
}

func (r *Reader) parseLayout(dir directory) error {
	if _, ok := dir[tagTileWidth]; ok {
		tw, err := dir.scalar(tagTileWidth, r.order, 0)
		if err != nil {
			return err
		}
		th, err := dir.scalar(tagTileLength, r.order, 0)
		if err != nil {
			return err
		}
		if tw == 0 || th == 0 || tw > math.MaxInt32 || th > math.MaxInt32 {
			return fmt.Errorf("invalid tile size %dx%d", tw, th)
		}
		r.tiled = true
		r.blockW, r.blockH = int(tw), int(th)
		r.blocksAcross = (r.width + r.blockW - 1) / r.blockW
		r.offsets, _ = dir.uints(tagTileOffsets, r.order)
		r.counts, _ = dir.uints(tagTileByteCounts, r.order)
	} else {
		rps, err := dir.scalar(tagRowsPerStrip, r.order, uint64(r.height))
		if err != nil {
			return err
		}
		if rps == 0 || rps > uint64(r.height) {
			rps = uint64(r.height)
		}
		r.blockW, r.blockH = r.width, int(rps)
		r.blocksAcross = 1
		r.offsets, _ = dir.uints(tagStripOffsets, r.order)
		r.counts, _ = dir.uints(tagStripByteCounts, r.order)
	}

	blocksDown := (r.height + r.blockH - 1) / r.blockH
	want := r.blocksAcross * blocksDown
	if len(r.offsets) < want || len(r.counts) < want {
		return fmt.Errorf("image has %d block offsets and %d byte counts, want %d", len(r.offsets), len(r.counts), want)
	}
	return nil
}

func (r *Reader) parseGeoreference(dir directory) error {
	w, h := float64(r.width), float64(r.height)

	if scale, ok := dir.floats(tagModelPixelScale, r.order); ok && len(scale) >= 2 {
		tie, ok := dir.floats(tagModelTiepoint, r.order)
		if !ok || len(tie) < 6 {
			return errors.New("missing or invalid ModelTiepoint")
		}
		sx, sy := scale[0], math.Abs(scale[1])
		west := tie[3] - tie[0]*sx
		north := tie[4] + tie[1]*sy
		r.bounds = geo.Bounds{MinLon: west, MaxLon: west + w*sx, MinLat: north - h*sy, MaxLat: north}
	} else if m, ok := dir.floats(tagModelTransformation, r.order); ok && len(m) >= 8 {
		if m[1] != 0 || m[4] != 0 {
			return errors.New("rotated ModelTransformation is not supported")
		}
		west, north := m[3], m[7]
		r.bounds = geo.Bounds{MinLon: west, MaxLon: west + w*m[0], MinLat: north + h*m[5], MaxLat: north}
	} else {
		return errors.New("missing georeferencing (ModelPixelScale or ModelTransformation)")
	}

	if !r.bounds.Valid() {
		return fmt.Errorf("invalid georeferenced bounds %s", r.bounds)
	}
	return nil
}

func (r *Reader) Bounds() geo.Bounds { return r.bounds }
func (r *Reader) Width() int         { return r.width }
func (r *Reader) Height() int        { return r.height }

// Tiled reports whether the image uses tiles rather than strips.
func (r *Reader) Tiled() bool { return r.tiled }

// Close releases the file and stops the block cache.
func (r *Reader) Close() error {
	r.blocks.Stop()
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}

// ReadWindow implements raster.Dataset. GDAL_NODATA values come back as
// photometry.NoData.
func (r *Reader) ReadWindow(w raster.Window, outW, outH int, method raster.Resampling) ([]float32, error) {
	if !w.Within(r.width, r.height) {
		return nil, fmt.Errorf("window %s outside %dx%d image", w, r.width, r.height)
	}
	v := &view{r: r, cur: -1}
	return raster.Resample(w, outW, outH, method, v.at)
}

// view memoises blocks for a single ReadWindow call so the shared cache is
// consulted once per block rather than once per pixel.
type view struct {
	r      *Reader
	cur    int
	data   []float32
	blocks map[int][]float32
}

func (v *view) at(col, row int) (float32, error) {
	r := v.r
	bx, by := col/r.blockW, row/r.blockH
	idx := by*r.blocksAcross + bx

	if idx != v.cur {
		data, ok := v.blocks[idx]
		if !ok {
			var err error
			if data, err = r.block(idx); err != nil {
				return 0, err
			}
			if v.blocks == nil {
				v.blocks = make(map[int][]float32)
			}
			v.blocks[idx] = data
		}
		v.cur, v.data = idx, data
	}

	return v.data[(row-by*r.blockH)*r.blockW+(col-bx*r.blockW)], nil
}

func (r *Reader) block(idx int) ([]float32, error) {
	key := strconv.Itoa(idx)
	if item := r.blocks.Get(key); item != nil && !item.Expired() {
		return item.Value(), nil
	}

	v, err, _ := r.inflight.Do(key, func() (any, error) {
		data, err := r.loadBlock(idx)
		if err != nil {
			return nil, err
		}
		r.blocks.Set(key, data, blockTTL)
		return data, nil
	})
	if err != nil {
		return nil, fmt.Errorf("block %d: %w", idx, err)
	}
	return v.([]float32), nil
}

func (r *Reader) loadBlock(idx int) ([]float32, error) {
	rows := r.blockH
	if !r.tiled {
		// the last strip may be short
		rows = min(r.blockH, r.height-idx*r.blockH)
	}
	size := r.blockW * rows * 4

	raw := make([]byte, r.counts[idx])
	if n, err := r.src.ReadAt(raw, int64(r.offsets[idx])); n < len(raw) {
		return nil, fmt.Errorf("read: %w", err)
	}

	buf, err := decompress(r.compression, raw, size)
	if err != nil {
		return nil, err
	}
	data, err := decodeFloats(buf, r.order, r.predictor, r.blockW, rows)
	if err != nil {
		return nil, err
	}

	if r.noData != nil {
		nd := *r.noData
		isNaN := math.IsNaN(float64(nd))
		for i, v := range data {
			if v == nd || (isNaN && v != v) {
				data[i] = photometry.NoData
			}
		}
	}

	return data, nil
}
