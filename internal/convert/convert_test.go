package convert

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

var (
	white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	black = color.NRGBA{A: 255}
	red   = color.NRGBA{R: 220, G: 20, B: 20, A: 255}
)

func TestClassify(t *testing.T) {
	cases := []struct {
		c    color.NRGBA
		want Ink
	}{
		{white, InkWhite},
		{black, InkBlack},
		{red, InkRed},
		{color.NRGBA{R: 40, G: 40, B: 40, A: 255}, InkBlack},
		{color.NRGBA{R: 200, G: 180, B: 180, A: 255}, InkWhite},
		{color.NRGBA{R: 136, G: 136, B: 136, A: 255}, InkWhite},
	}
	for _, tc := range cases {
		if got := Classify(tc.c); got != tc.want {
			t.Errorf("Classify(%v): expected %d, got %d", tc.c, tc.want, got)
		}
	}
}

func TestPanelGeometry(t *testing.T) {
	if got := Waveshare12in48B.Stride(); got != 163 {
		t.Fatalf("expected stride 163, got %d", got)
	}
	if got := (Panel{Width: 10, Height: 2}).PlaneSize(); got != 4 {
		t.Fatalf("expected 2 bytes per row, got %d", got)
	}
}

func TestPack(t *testing.T) {
	panel := Panel{Width: 16, Height: 2}
	img := image.NewNRGBA(image.Rect(0, 0, 16, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 16; x++ {
			img.SetNRGBA(x, y, white)
		}
	}
	img.SetNRGBA(0, 0, black)
	img.SetNRGBA(9, 1, red)
	img.SetNRGBA(15, 1, color.NRGBA{A: 10}) // transparent

	b, r, err := Pack(img, panel)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []byte{0x7F, 0xFF, 0xFF, 0xFF}; !bytes.Equal(b, want) {
		t.Fatalf("black plane: expected %x, got %x", want, b)
	}
	if want := []byte{0xFF, 0xFF, 0xFF, 0xBF}; !bytes.Equal(r, want) {
		t.Fatalf("red plane: expected %x, got %x", want, r)
	}
}

func TestPackCropsTallImages(t *testing.T) {
	panel := Panel{Width: 8, Height: 1}
	img := image.NewNRGBA(image.Rect(0, 0, 8, 3))
	img.SetNRGBA(0, 1, black)

	b, _, err := Pack(img, panel)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Row 1 is the centre row; transparent rows elsewhere stay white.
	if b[0] != 0x7F {
		t.Fatalf("expected centre row to be packed, got %x", b[0])
	}
}

func TestPackRejectsWrongSize(t *testing.T) {
	panel := Panel{Width: 8, Height: 4}
	if _, _, err := Pack(image.NewNRGBA(image.Rect(0, 0, 9, 4)), panel); err == nil {
		t.Fatalf("expected width error")
	}
	if _, _, err := Pack(image.NewNRGBA(image.Rect(0, 0, 8, 3)), panel); err == nil {
		t.Fatalf("expected height error")
	}
}

func TestSolid(t *testing.T) {
	panel := Panel{Width: 8, Height: 2}
	b, r := Solid(panel, InkRed)
	if !bytes.Equal(b, []byte{0xFF, 0xFF}) || !bytes.Equal(r, []byte{0, 0}) {
		t.Fatalf("unexpected red planes %x / %x", b, r)
	}
	b, r = Solid(panel, InkWhite)
	if !bytes.Equal(b, []byte{0xFF, 0xFF}) || !bytes.Equal(r, []byte{0xFF, 0xFF}) {
		t.Fatalf("unexpected white planes %x / %x", b, r)
	}
}

func TestRotate(t *testing.T) {
	// 2x1 image: black at (0,0), white at (1,0).
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, black)
	img.SetNRGBA(1, 0, white)

	ccw, err := Rotate(img, 90)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ccw.Bounds().Dx() != 1 || ccw.Bounds().Dy() != 2 {
		t.Fatalf("unexpected bounds %v", ccw.Bounds())
	}
	// Counter-clockwise: the right end moves to the top.
	if ccw.NRGBAAt(0, 0) != white || ccw.NRGBAAt(0, 1) != black {
		t.Fatalf("unexpected 90 rotation")
	}

	cw, err := Rotate(img, 270)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cw.NRGBAAt(0, 0) != black || cw.NRGBAAt(0, 1) != white {
		t.Fatalf("unexpected 270 rotation")
	}

	half, err := Rotate(img, 180)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if half.NRGBAAt(0, 0) != white || half.NRGBAAt(1, 0) != black {
		t.Fatalf("unexpected 180 rotation")
	}

	if _, err := Rotate(img, 45); err == nil {
		t.Fatalf("expected error for 45 degrees")
	}
}

func TestPrepareFitsPanel(t *testing.T) {
	panel := Panel{Width: 40, Height: 20}
	src := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			src.SetNRGBA(x, y, black)
		}
	}

	out, err := Prepare(src, panel, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Bounds() != image.Rect(0, 0, 40, 20) {
		t.Fatalf("unexpected bounds %v", out.Bounds())
	}
	// Scaled to 20x20 and centred: columns 0..9 stay white.
	if out.NRGBAAt(2, 10) != white {
		t.Fatalf("expected letterbox to stay white, got %v", out.NRGBAAt(2, 10))
	}
	if Classify(out.NRGBAAt(20, 10)) != InkBlack {
		t.Fatalf("expected centre to be black, got %v", out.NRGBAAt(20, 10))
	}
}

func TestDecode(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := Decode(buf.Bytes())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Bounds().Dx() != 3 || got.Bounds().Dy() != 2 {
		t.Fatalf("unexpected bounds %v", got.Bounds())
	}
	if _, err := Decode([]byte("not a png")); err == nil {
		t.Fatalf("expected decode error")
	}
}
