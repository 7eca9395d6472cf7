package convert

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"golang.org/x/image/draw"
)

// Decode reads a PNG capture.
func Decode(data []byte) (image.Image, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("convert: decode png: %w", err)
	}
	return img, nil
}

// Prepare rotates img counter-clockwise by rotate degrees (0, 90, 180 or 270)
// and fits it onto a white canvas the size of panel. Images that already
// match the panel are copied unscaled; others are scaled with Catmull-Rom,
// keeping the aspect ratio, and centred.
func Prepare(img image.Image, panel Panel, rotate int) (*image.NRGBA, error) {
	rotated, err := Rotate(img, rotate)
	if err != nil {
		return nil, err
	}

	dst := image.NewNRGBA(image.Rect(0, 0, panel.Width, panel.Height))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	sb := rotated.Bounds()
	if sb.Dx() == panel.Width && sb.Dy() == panel.Height {
		draw.Draw(dst, dst.Bounds(), rotated, sb.Min, draw.Src)
		return dst, nil
	}

	scale := min(float64(panel.Width)/float64(sb.Dx()), float64(panel.Height)/float64(sb.Dy()))
	w := int(float64(sb.Dx())*scale + 0.5)
	h := int(float64(sb.Dy())*scale + 0.5)
	x0 := (panel.Width - w) / 2
	y0 := (panel.Height - h) / 2

	draw.CatmullRom.Scale(dst, image.Rect(x0, y0, x0+w, y0+h), rotated, sb, draw.Over, nil)
	return dst, nil
}

// Rotate turns img counter-clockwise by a multiple of 90 degrees.
func Rotate(img image.Image, degrees int) (*image.NRGBA, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	var dst *image.NRGBA
	var at func(x, y int) (int, int)

	switch ((degrees % 360) + 360) % 360 {
	case 0:
		dst = image.NewNRGBA(image.Rect(0, 0, w, h))
		at = func(x, y int) (int, int) { return x, y }
	case 90:
		dst = image.NewNRGBA(image.Rect(0, 0, h, w))
		at = func(x, y int) (int, int) { return y, w - 1 - x }
	case 180:
		dst = image.NewNRGBA(image.Rect(0, 0, w, h))
		at = func(x, y int) (int, int) { return w - 1 - x, h - 1 - y }
	case 270:
		dst = image.NewNRGBA(image.Rect(0, 0, h, w))
		at = func(x, y int) (int, int) { return h - 1 - y, x }
	default:
		return nil, fmt.Errorf("convert: rotation must be a multiple of 90, got %d", degrees)
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx, dy := at(x, y)
			dst.Set(dx, dy, img.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return dst, nil
}
