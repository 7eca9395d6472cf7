// Package epd drives the e-paper panel. The hardware driver wraps the
// Waveshare C library and is only built on linux/arm with cgo; FileDisplay
// stands in everywhere else.
package epd

import (
	"fmt"

	"inkcal/internal/convert"
)

// Display is a tri-colour panel taking packed black and red planes.
type Display interface {
	Init() error
	Clear() error
	Show(black, red []byte) error
	Sleep() error
}

// Calibrate paints the panel white, black, red and white again, cycles
// times, to counter ghosting.
func Calibrate(d Display, panel convert.Panel, cycles int) error {
	inks := []convert.Ink{convert.InkWhite, convert.InkBlack, convert.InkRed, convert.InkWhite}
	for c := 0; c < cycles; c++ {
		for _, ink := range inks {
			black, red := convert.Solid(panel, ink)
			if err := d.Show(black, red); err != nil {
				return fmt.Errorf("epd: calibrate: %w", err)
			}
		}
	}
	return nil
}

func checkPlanes(panel convert.Panel, black, red []byte) error {
	want := panel.PlaneSize()
	if len(black) != want || len(red) != want {
		return fmt.Errorf("epd: invalid buffer size, expected %d bytes per plane, got %d/%d", want, len(black), len(red))
	}
	return nil
}
