package preprocess

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContrast(t *testing.T) {
	cases := []struct {
		in, want uint8
	}{
		{128, 128},
		{0, 0},
		{255, 255},
		{100, 86},
		{200, 236},
		{40, 0},
		{230, 255},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Contrast(c.in), "contrast(%d)", c.in)
	}
}

func TestLuminance(t *testing.T) {
	assert.Equal(t, uint8(0), Luminance(0, 0, 0))
	assert.Equal(t, uint8(255), Luminance(255, 255, 255))
	assert.Equal(t, uint8(76), Luminance(255, 0, 0))
	assert.Equal(t, uint8(150), Luminance(0, 255, 0))
	assert.Equal(t, uint8(29), Luminance(0, 0, 255))
}

func TestPreprocess_UndecodableReturnsInput(t *testing.T) {
	inputs := [][]byte{
		nil,
		{},
		[]byte("definitely not an image"),
		{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0x00},
	}
	for _, in := range inputs {
		var out []byte
		assert.NotPanics(t, func() { out = Preprocess(in) })
		assert.Equal(t, in, out)
	}
}

func TestPreprocess_ProducesGrayPNG(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 4, 2))
	src.Set(0, 0, color.NRGBA{R: 255, A: 255})
	src.Set(1, 0, color.NRGBA{G: 255, A: 255})
	src.Set(2, 0, color.NRGBA{B: 255, A: 255})
	src.Set(3, 0, color.NRGBA{R: 128, G: 128, B: 128, A: 255})

	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, src, &jpeg.Options{Quality: 100}))

	out := Preprocess(buf.Bytes())
	require.NotEqual(t, buf.Bytes(), out)

	decoded, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	gray, ok := decoded.(*image.Gray)
	require.True(t, ok, "expected *image.Gray, got %T", decoded)
	assert.Equal(t, 4, gray.Bounds().Dx())
	assert.Equal(t, 2, gray.Bounds().Dy())
}

func TestApply_ExactPixels(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	src.Set(0, 0, color.NRGBA{R: 200, G: 100, B: 50, A: 255})
	src.Set(1, 0, color.NRGBA{R: 128, G: 128, B: 128, A: 255})

	gray := Apply(src)
	want := Luminance(Contrast(200), Contrast(100), Contrast(50))
	assert.Equal(t, want, gray.GrayAt(0, 0).Y)
	assert.Equal(t, uint8(128), gray.GrayAt(1, 0).Y)
}

func TestPreprocess_Downscales(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 400, 100))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))

	out := New(nil, WithMaxDimension(100)).Process(buf.Bytes())
	cfg, err := png.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Width)
	assert.Equal(t, 25, cfg.Height)
}
