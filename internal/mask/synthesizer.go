// Package mask turns user edit gestures into provider-consumable binary masks.
//
// The generation capability expects a hard mask: every pixel is either
// eligible for repainting ("paint", encoded white) or preserved ("keep",
// encoded black). In-paint strokes accumulate on an alpha overlay and are
// thresholded to binary on synthesis; out-paint padding expands the canvas
// and marks everything newly added as paint.
package mask

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	_ "image/gif"
	_ "image/jpeg"

	xdraw "golang.org/x/image/draw"

	"composer/internal/domain"
)

// Mode selects the synthesis algorithm.
type Mode string

const (
	ModeInpaint  Mode = "inpaint"
	ModeOutpaint Mode = "outpaint"
)

const (
	// AlphaThreshold is the overlay alpha above which a pixel counts as
	// painted. Zero means any touched pixel is paint.
	AlphaThreshold = 0

	// MaxEdge bounds the long edge of the base image. Larger bases are
	// downscaled before synthesis to keep provider payloads reasonable.
	MaxEdge = 2048
)

var (
	// PaintColor marks pixels eligible for AI repainting.
	PaintColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	// KeepColor marks pixels that must be preserved.
	KeepColor = color.RGBA{A: 255}
	// FillColor is the neutral color for newly added out-paint regions.
	FillColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// Stroke is one filled circle of an in-paint gesture, in base-image pixels.
type Stroke struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius"`
}

// Padding is the out-paint expansion in pixels per edge.
type Padding struct {
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
	Left   int `json:"left"`
}

// Params carries the mode-specific gesture input.
type Params struct {
	Strokes []Stroke
	Padding Padding
}

// Result pairs the (possibly expanded) base image with its binary mask.
// Both are PNG-encoded and share the same pixel dimensions.
type Result struct {
	Base   []byte
	Mask   []byte
	Width  int
	Height int
}

// Synthesize builds the edit payload for one submission. It fails only when
// the base image cannot be decoded or out-paint padding is negative; an empty
// stroke list is valid and yields an all-keep mask.
func Synthesize(base []byte, mode Mode, params Params) (Result, error) {
	img, err := decodeBase(base)
	if err != nil {
		return Result{}, err
	}
	img = clampToMaxEdge(img)

	switch mode {
	case ModeInpaint:
		return synthesizeInpaint(img, params.Strokes)
	case ModeOutpaint:
		return synthesizeOutpaint(img, params.Padding)
	default:
		return Result{}, fmt.Errorf("unsupported mask mode %q", mode)
	}
}

func decodeBase(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, domain.ErrUndecodableImage
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUndecodableImage, err)
	}
	return img, nil
}

// clampToMaxEdge downscales oversized bases with a high-quality interpolator
// so the mask and base stay dimension-aligned at a bounded size.
func clampToMaxEdge(img image.Image) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	long := w
	if h > long {
		long = h
	}
	if long <= MaxEdge {
		return img
	}

	scale := float64(MaxEdge) / float64(long)
	dw := int(float64(w) * scale)
	dh := int(float64(h) * scale)
	if dw < 1 {
		dw = 1
	}
	if dh < 1 {
		dh = 1
	}
	scaled := image.NewRGBA(image.Rect(0, 0, dw, dh))
	xdraw.CatmullRom.Scale(scaled, scaled.Bounds(), img, bounds, xdraw.Over, nil)
	return scaled
}

func synthesizeInpaint(img image.Image, strokes []Stroke) (Result, error) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	overlay := image.NewAlpha(image.Rect(0, 0, w, h))
	for _, stroke := range strokes {
		fillCircle(overlay, stroke)
	}

	maskImg := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(maskImg, maskImg.Bounds(), &image.Uniform{KeepColor}, image.Point{}, draw.Src)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if overlay.AlphaAt(x, y).A > AlphaThreshold {
				maskImg.SetRGBA(x, y, PaintColor)
			}
		}
	}

	baseOut, err := encodePNG(img)
	if err != nil {
		return Result{}, err
	}
	maskOut, err := encodePNG(maskImg)
	if err != nil {
		return Result{}, err
	}
	return Result{Base: baseOut, Mask: maskOut, Width: w, Height: h}, nil
}

func synthesizeOutpaint(img image.Image, pad Padding) (Result, error) {
	if pad.Top < 0 || pad.Right < 0 || pad.Bottom < 0 || pad.Left < 0 {
		return Result{}, domain.ErrNegativePadding
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	newW := w + pad.Left + pad.Right
	newH := h + pad.Top + pad.Bottom
	keep := image.Rect(pad.Left, pad.Top, pad.Left+w, pad.Top+h)

	canvas := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.Draw(canvas, canvas.Bounds(), &image.Uniform{FillColor}, image.Point{}, draw.Src)
	draw.Draw(canvas, keep, img, bounds.Min, draw.Src)

	maskImg := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.Draw(maskImg, maskImg.Bounds(), &image.Uniform{PaintColor}, image.Point{}, draw.Src)
	draw.Draw(maskImg, keep, &image.Uniform{KeepColor}, image.Point{}, draw.Src)

	baseOut, err := encodePNG(canvas)
	if err != nil {
		return Result{}, err
	}
	maskOut, err := encodePNG(maskImg)
	if err != nil {
		return Result{}, err
	}
	return Result{Base: baseOut, Mask: maskOut, Width: newW, Height: newH}, nil
}

// fillCircle paints one opaque stroke onto the overlay, scanning only the
// bounding box of the circle.
func fillCircle(overlay *image.Alpha, stroke Stroke) {
	if stroke.Radius <= 0 {
		return
	}
	bounds := overlay.Bounds()
	minX := int(stroke.X - stroke.Radius)
	maxX := int(stroke.X + stroke.Radius + 1)
	minY := int(stroke.Y - stroke.Radius)
	maxY := int(stroke.Y + stroke.Radius + 1)
	if minX < bounds.Min.X {
		minX = bounds.Min.X
	}
	if minY < bounds.Min.Y {
		minY = bounds.Min.Y
	}
	if maxX > bounds.Max.X {
		maxX = bounds.Max.X
	}
	if maxY > bounds.Max.Y {
		maxY = bounds.Max.Y
	}

	r2 := stroke.Radius * stroke.Radius
	for y := minY; y < maxY; y++ {
		for x := minX; x < maxX; x++ {
			dx := float64(x) + 0.5 - stroke.X
			dy := float64(y) + 0.5 - stroke.Y
			if dx*dx+dy*dy <= r2 {
				overlay.SetAlpha(x, y, color.Alpha{A: 255})
			}
		}
	}
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
