package geotiff

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"golang.org/x/image/tiff/lzw"
)

func decompress(compression uint64, src []byte, size int) ([]byte, error) {
	var rc io.ReadCloser
	switch compression {
	case compressionNone:
		return src, nil
	case compressionLZW:
		rc = lzw.NewReader(bytes.NewReader(src), lzw.MSB, 8)
	case compressionDeflate, compressionDeflateOld:
		z, err := zlib.NewReader(bytes.NewReader(src))
		if err != nil {
			return nil, fmt.Errorf("deflate: %w", err)
		}
		rc = z
	default:
		return nil, fmt.Errorf("unsupported compression %d", compression)
	}
	defer rc.Close()

	out := bytes.NewBuffer(make([]byte, 0, size))
	if _, err := io.Copy(out, rc); err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}
	return out.Bytes(), nil
}

// decodeFloats converts decompressed block bytes into float32 samples. rowWidth
// is the number of samples per encoded row, needed to undo prediction.
func decodeFloats(buf []byte, order binary.ByteOrder, predictor uint64, rowWidth, rows int) ([]float32, error) {
	n := rowWidth * rows
	if len(buf) < n*4 {
		return nil, fmt.Errorf("block holds %d bytes, want %d", len(buf), n*4)
	}
	out := make([]float32, n)

	switch predictor {
	case predictorNone:
		for i := range out {
			out[i] = math.Float32frombits(order.Uint32(buf[i*4:]))
		}

	case predictorFloatingPoint:
		rowBytes := rowWidth * 4
		for y := 0; y < rows; y++ {
			row := buf[y*rowBytes : (y+1)*rowBytes]
			for i := 1; i < len(row); i++ {
				row[i] += row[i-1]
			}
			// bytes are stored as planes, most significant first
			for x := 0; x < rowWidth; x++ {
				bits := uint32(row[x])<<24 |
					uint32(row[rowWidth+x])<<16 |
					uint32(row[2*rowWidth+x])<<8 |
					uint32(row[3*rowWidth+x])
				out[y*rowWidth+x] = math.Float32frombits(bits)
			}
		}

	default:
		return nil, fmt.Errorf("unsupported predictor %d", predictor)
	}

	return out, nil
}
