package watermark

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
)

const jpegQuality = 85

// Tiler stamps a watermark image across photos in a repeating grid. Previews
// served from the public bucket always go through a Tiler; the clean original
// stays in the private bucket.
type Tiler struct {
	mark    image.Image
	opacity uint8
	spacing int
}

// NewTiler decodes the watermark stamp (PNG or JPEG). opacity is 0-255,
// spacing is the gap between stamps in pixels.
func NewTiler(markData []byte, opacity uint8, spacing int) (*Tiler, error) {
	mark, _, err := image.Decode(bytes.NewReader(markData))
	if err != nil {
		return nil, fmt.Errorf("failed to decode watermark: %w", err)
	}
	if spacing < 0 {
		spacing = 0
	}

	return &Tiler{mark: mark, opacity: opacity, spacing: spacing}, nil
}

// Apply decodes src, tiles the watermark over it and re-encodes as JPEG.
func (t *Tiler) Apply(src []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("failed to decode source image: %w", err)
	}

	bounds := img.Bounds()
	canvas := image.NewRGBA(bounds)
	draw.Draw(canvas, bounds, img, bounds.Min, draw.Src)

	mask := image.NewUniform(color.Alpha{A: t.opacity})
	markBounds := t.mark.Bounds()
	stepX := markBounds.Dx() + t.spacing
	stepY := markBounds.Dy() + t.spacing

	// Offset every other row by half a step so crops can't dodge the grid.
	row := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y += stepY {
		offset := 0
		if row%2 == 1 {
			offset = stepX / 2
		}
		for x := bounds.Min.X - offset; x < bounds.Max.X; x += stepX {
			target := image.Rect(x, y, x+markBounds.Dx(), y+markBounds.Dy())
			draw.DrawMask(canvas, target, t.mark, markBounds.Min, mask, image.Point{}, draw.Over)
		}
		row++
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, canvas, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode watermarked image: %w", err)
	}
	return buf.Bytes(), nil
}

// DefaultStamp renders a fallback stamp for deployments without a branded
// watermark file: a diagonal stripe block that survives JPEG recompression.
func DefaultStamp() []byte {
	const size = 96
	stamp := image.NewRGBA(image.Rect(0, 0, size, size))
	stripe := color.RGBA{R: 255, G: 255, B: 255, A: 110}
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if (x+y)%24 < 6 {
				stamp.SetRGBA(x, y, stripe)
			}
		}
	}

	var buf bytes.Buffer
	// Encoding a generated RGBA into an in-memory buffer cannot fail.
	png.Encode(&buf, stamp)
	return buf.Bytes()
}
