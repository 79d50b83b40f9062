package render

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"strings"

	"github.com/chai2010/webp"
)

// Encoder serializes tile images.
type Encoder interface {
	Encode(w io.Writer, img image.Image) error
	ContentType() string
	// Ext is the file extension without the dot.
	Ext() string
}

// PNGEncoder writes PNG tiles.
type PNGEncoder struct {
	enc png.Encoder
}

// NewPNGEncoder favours encode speed over size since tiles are cached.
func NewPNGEncoder() *PNGEncoder {
	return &PNGEncoder{enc: png.Encoder{CompressionLevel: png.BestSpeed}}
}

func (e *PNGEncoder) Encode(w io.Writer, img image.Image) error { return e.enc.Encode(w, img) }
func (e *PNGEncoder) ContentType() string                      { return "image/png" }
func (e *PNGEncoder) Ext() string                              { return "png" }

// WebPEncoder writes lossless WebP tiles.
type WebPEncoder struct {
	Quality float32
}

func (e *WebPEncoder) Encode(w io.Writer, img image.Image) error {
	return webp.Encode(w, img, &webp.Options{Lossless: true, Quality: e.Quality})
}
func (e *WebPEncoder) ContentType() string { return "image/webp" }
func (e *WebPEncoder) Ext() string         { return "webp" }

// EncoderFor returns the encoder for a format name or file extension.
func EncoderFor(format string) (Encoder, error) {
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "png", "":
		return NewPNGEncoder(), nil
	case "webp":
		return &WebPEncoder{Quality: 90}, nil
	default:
		return nil, fmt.Errorf("unsupported tile format %q", format)
	}
}

// EncodeBytes encodes img into a new byte slice.
func EncodeBytes(enc Encoder, img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := enc.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode %s tile: %w", enc.Ext(), err)
	}
	return buf.Bytes(), nil
}
