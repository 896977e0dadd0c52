// Package preprocess prepares photographs for the local OCR engine: contrast
// stretch, luminance grayscale, PNG re-encode. It never fails; on any problem
// the input bytes are returned unchanged.
package preprocess

import (
	"bytes"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"log/slog"
	"math"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	ContrastFactor = 1.5
	Midpoint       = 128.0
)

// Preprocessor holds read-only tuning; safe for concurrent use.
type Preprocessor struct {
	maxDim int
	logger *slog.Logger
}

type Option func(*Preprocessor)

// WithMaxDimension downscales images whose longer side exceeds n pixels.
func WithMaxDimension(n int) Option {
	return func(p *Preprocessor) {
		if n > 0 {
			p.maxDim = n
		}
	}
}

func New(logger *slog.Logger, opts ...Option) *Preprocessor {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Preprocessor{logger: logger}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Preprocess runs the default Preprocessor.
func Preprocess(img []byte) []byte {
	return New(nil).Process(img)
}

// Process returns a grayscale PNG of img, or img itself if anything goes wrong.
func (p *Preprocessor) Process(img []byte) (out []byte) {
	out = img
	defer func() {
		if r := recover(); r != nil {
			p.logger.Warn("preprocess.panic", "panic", r)
			out = img
		}
	}()

	src, format, err := image.Decode(bytes.NewReader(img))
	if err != nil {
		p.logger.Debug("preprocess.decode_failed", "error", err, "bytes", len(img))
		return img
	}
	src = p.bound(src)

	gray := Apply(src)
	var buf bytes.Buffer
	if err := png.Encode(&buf, gray); err != nil {
		p.logger.Debug("preprocess.encode_failed", "error", err)
		return img
	}
	p.logger.Debug("preprocess.ok",
		"format", format,
		"width", gray.Bounds().Dx(),
		"height", gray.Bounds().Dy(),
		"in_bytes", len(img),
		"out_bytes", buf.Len(),
	)
	return buf.Bytes()
}

func (p *Preprocessor) bound(src image.Image) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if p.maxDim <= 0 || (w <= p.maxDim && h <= p.maxDim) {
		return src
	}
	scale := float64(p.maxDim) / float64(max(w, h))
	dw := max(1, int(math.Round(float64(w)*scale)))
	dh := max(1, int(math.Round(float64(h)*scale)))
	dst := image.NewNRGBA(image.Rect(0, 0, dw, dh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

// Apply stretches contrast per channel and converts to luminance grayscale.
func Apply(src image.Image) *image.Gray {
	b := src.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
			dst.SetGray(x-b.Min.X, y-b.Min.Y, color.Gray{
				Y: Luminance(Contrast(c.R), Contrast(c.G), Contrast(c.B)),
			})
		}
	}
	return dst
}

// Contrast maps v to (v-128)*1.5+128 clamped to 0..255.
func Contrast(v uint8) uint8 {
	return clamp((float64(v)-Midpoint)*ContrastFactor + Midpoint)
}

// Luminance is 0.299R + 0.587G + 0.114B.
func Luminance(r, g, b uint8) uint8 {
	return clamp(0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b))
}

func clamp(v float64) uint8 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
