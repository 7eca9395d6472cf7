package convert

import (
	"fmt"
	"image"
	"image/color"
)

// Panel describes a tri-colour (black/red/white) e-paper panel.
type Panel struct {
	Width  int
	Height int
}

// Waveshare12in48B is the 12.48" B panel inkcal was built for.
var Waveshare12in48B = Panel{Width: 1304, Height: 984}

// Stride is the number of bytes per packed row.
func (p Panel) Stride() int { return (p.Width + 7) / 8 }

// PlaneSize is the size in bytes of one packed plane.
func (p Panel) PlaneSize() int { return p.Stride() * p.Height }

// Ink is the colour a pixel is drawn with.
type Ink int

const (
	InkWhite Ink = iota
	InkBlack
	InkRed
)

// Pack converts img into packed 1bpp black and red planes for panel.
//
// img must be exactly panel.Width wide and at least panel.Height tall; taller
// images are centre-cropped. Each plane is y-major, MSB-first:
//
//	byteIndex = y*stride + x>>3
//	mask      = 0x80 >> (x & 7)
//
// A set bit is white. Inked pixels clear their bit in the matching plane.
func Pack(img *image.NRGBA, panel Panel) (black, red []byte, err error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	if w != panel.Width {
		return nil, nil, fmt.Errorf("convert: expected width %d, got %d", panel.Width, w)
	}
	if h < panel.Height {
		return nil, nil, fmt.Errorf("convert: expected height >= %d, got %d", panel.Height, h)
	}

	startY := (h - panel.Height) / 2
	stride := panel.Stride()

	black = blankPlane(panel)
	red = blankPlane(panel)

	for py := 0; py < panel.Height; py++ {
		rowOff := (startY + py) * img.Stride

		for px := 0; px < panel.Width; px++ {
			i := rowOff + px*4
			a := img.Pix[i+3]
			// Mostly transparent pixels are treated as paper.
			if a < 128 {
				continue
			}

			ink := Classify(color.NRGBA{R: img.Pix[i], G: img.Pix[i+1], B: img.Pix[i+2], A: a})
			if ink == InkWhite {
				continue
			}

			byteIndex := py*stride + (px >> 3)
			mask := byte(0x80 >> (px & 7))
			switch ink {
			case InkBlack:
				black[byteIndex] &^= mask
			case InkRed:
				red[byteIndex] &^= mask
			}
		}
	}

	return black, red, nil
}

// Solid returns planes that paint the whole panel with ink. The display
// cycle uses them to exercise every pixel against ghosting.
func Solid(panel Panel, ink Ink) (black, red []byte) {
	black = blankPlane(panel)
	red = blankPlane(panel)
	switch ink {
	case InkBlack:
		clear(black)
	case InkRed:
		clear(red)
	}
	return black, red
}

func blankPlane(panel Panel) []byte {
	p := make([]byte, panel.PlaneSize())
	for i := range p {
		p[i] = 0xFF
	}
	return p
}

// Classify decides whether a pixel is drawn black, red or left white.
//
// With luma Y = 0.299R + 0.587G + 0.114B and redness = R - max(G, B):
//
//   - Y < 64 is black
//   - R > 128 and redness > 32 is red
//   - everything else is white
func Classify(c color.NRGBA) Ink {
	r, g, b := float64(c.R), float64(c.G), float64(c.B)

	y := 0.299*r + 0.587*g + 0.114*b
	redness := r - max(g, b)

	if y < 64 {
		return InkBlack
	}
	if r > 128 && redness > 32 {
		return InkRed
	}
	return InkWhite
}
