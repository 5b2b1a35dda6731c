package mask

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"

	"composer/internal/domain"
)

func encodeTestPNG(t *testing.T, w, h int, fill color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, fill)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func decodeTestPNG(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img
}

func isPaint(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	return r == 0xffff && g == 0xffff && b == 0xffff
}

func TestSynthesizeInpaintThresholdsStrokesToBinary(t *testing.T) {
	base := encodeTestPNG(t, 16, 16, color.RGBA{R: 10, G: 20, B: 30, A: 255})

	res, err := Synthesize(base, ModeInpaint, Params{
		Strokes: []Stroke{{X: 8, Y: 8, Radius: 3}},
	})
	require.NoError(t, err)
	require.Equal(t, 16, res.Width)
	require.Equal(t, 16, res.Height)

	maskImg := decodeTestPNG(t, res.Mask)
	require.Equal(t, image.Rect(0, 0, 16, 16), maskImg.Bounds())

	// Stroke interior is paint, far corners are keep.
	require.True(t, isPaint(maskImg.At(8, 8)))
	require.True(t, isPaint(maskImg.At(9, 9)))
	require.False(t, isPaint(maskImg.At(0, 0)))
	require.False(t, isPaint(maskImg.At(15, 0)))
	require.False(t, isPaint(maskImg.At(15, 15)))

	// Every pixel must be exactly paint or keep, no gradients.
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			r, g, b, _ := maskImg.At(x, y).RGBA()
			paint := r == 0xffff && g == 0xffff && b == 0xffff
			keep := r == 0 && g == 0 && b == 0
			require.True(t, paint || keep, "pixel (%d,%d) is not binary", x, y)
		}
	}

	// Base is returned unmodified in dimensions and content.
	baseImg := decodeTestPNG(t, res.Base)
	require.Equal(t, image.Rect(0, 0, 16, 16), baseImg.Bounds())
	r, g, b, _ := baseImg.At(3, 3).RGBA()
	require.Equal(t, uint32(10*0x101), r)
	require.Equal(t, uint32(20*0x101), g)
	require.Equal(t, uint32(30*0x101), b)
}

func TestSynthesizeInpaintEmptyStrokesIsValid(t *testing.T) {
	base := encodeTestPNG(t, 8, 8, color.White)

	res, err := Synthesize(base, ModeInpaint, Params{})
	require.NoError(t, err)

	maskImg := decodeTestPNG(t, res.Mask)
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			require.False(t, isPaint(maskImg.At(x, y)), "pixel (%d,%d) should be keep", x, y)
		}
	}
}

func TestSynthesizeOutpaintGeometry(t *testing.T) {
	base := encodeTestPNG(t, 10, 6, color.RGBA{R: 200, G: 100, B: 50, A: 255})
	pad := Padding{Top: 4, Right: 3, Bottom: 2, Left: 1}

	res, err := Synthesize(base, ModeOutpaint, Params{Padding: pad})
	require.NoError(t, err)
	require.Equal(t, 10+1+3, res.Width)
	require.Equal(t, 6+4+2, res.Height)

	maskImg := decodeTestPNG(t, res.Mask)
	keep := image.Rect(pad.Left, pad.Top, pad.Left+10, pad.Top+6)
	for y := 0; y < res.Height; y++ {
		for x := 0; x < res.Width; x++ {
			inside := image.Pt(x, y).In(keep)
			require.Equal(t, !inside, isPaint(maskImg.At(x, y)),
				"pixel (%d,%d) inside=%v", x, y, inside)
		}
	}

	// Original pixels are preserved exactly at the keep offset.
	canvas := decodeTestPNG(t, res.Base)
	r, g, b, _ := canvas.At(pad.Left, pad.Top).RGBA()
	require.Equal(t, uint32(200*0x101), r)
	require.Equal(t, uint32(100*0x101), g)
	require.Equal(t, uint32(50*0x101), b)
}

func TestSynthesizeOutpaintZeroPaddingIsDegenerateButValid(t *testing.T) {
	base := encodeTestPNG(t, 5, 5, color.White)

	res, err := Synthesize(base, ModeOutpaint, Params{})
	require.NoError(t, err)
	require.Equal(t, 5, res.Width)
	require.Equal(t, 5, res.Height)

	maskImg := decodeTestPNG(t, res.Mask)
	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			require.False(t, isPaint(maskImg.At(x, y)))
		}
	}
}

func TestSynthesizeOutpaintRejectsNegativePadding(t *testing.T) {
	base := encodeTestPNG(t, 5, 5, color.White)

	_, err := Synthesize(base, ModeOutpaint, Params{Padding: Padding{Left: -1}})
	require.ErrorIs(t, err, domain.ErrNegativePadding)
}

func TestSynthesizeRejectsUndecodableBase(t *testing.T) {
	for _, base := range [][]byte{nil, []byte("not an image")} {
		_, err := Synthesize(base, ModeInpaint, Params{})
		require.ErrorIs(t, err, domain.ErrUndecodableImage)
	}
}

func TestSynthesizeClampsOversizedBase(t *testing.T) {
	base := encodeTestPNG(t, MaxEdge*2, 100, color.White)

	res, err := Synthesize(base, ModeInpaint, Params{})
	require.NoError(t, err)
	require.Equal(t, MaxEdge, res.Width)
	require.Equal(t, 50, res.Height)

	maskImg := decodeTestPNG(t, res.Mask)
	require.Equal(t, res.Width, maskImg.Bounds().Dx())
	require.Equal(t, res.Height, maskImg.Bounds().Dy())
}
