package raster

import (
	"fmt"
	"image"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// freetypeFace renders static TrueType fonts through the FreeType port.
type freetypeFace struct {
	font      *truetype.Font
	threshold uint8
	faces     map[int]font.Face
}

func newFreetypeFace(data []byte, threshold uint8) (*freetypeFace, error) {
	f, err := freetype.ParseFont(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	return &freetypeFace{
		font:      f,
		threshold: threshold,
		faces:     make(map[int]font.Face),
	}, nil
}

func (f *freetypeFace) Axes() []Axis {
	return nil
}

// face returns a cached face for a pixel size. At 72 DPI one point is one
// pixel, so Size doubles as the ppem.
func (f *freetypeFace) face(size int) font.Face {
	if fc, ok := f.faces[size]; ok {
		return fc
	}
	fc := truetype.NewFace(f.font, &truetype.Options{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingNone,
	})
	f.faces[size] = fc
	return fc
}

func (f *freetypeFace) Render(ch rune, size int, coords []float64) (Glyph, error) {
	if size <= 0 {
		return Glyph{}, ErrInvalidSize
	}
	if err := checkCoords(nil, coords); err != nil {
		return Glyph{}, err
	}
	if f.font.Index(ch) == 0 {
		return Glyph{}, fmt.Errorf("%w: %q", ErrMissingGlyph, ch)
	}

	dr, mask, maskp, _, ok := f.face(size).Glyph(fixed.Point26_6{}, ch)
	if !ok {
		return Glyph{}, fmt.Errorf("%w: %q", ErrMissingGlyph, ch)
	}

	// dr is relative to the baseline origin with y growing down
	b := NewBitmap(dr.Dy(), dr.Dx())
	for y := 0; y < b.Rows; y++ {
		for x := 0; x < b.Cols; x++ {
			if coverage(mask, maskp.X+x, maskp.Y+y) >= f.threshold {
				b.Set(y, x, Foreground)
			}
		}
	}

	return Glyph{
		Char:   ch,
		Bitmap: b,
		Metrics: Metrics{
			Height:   b.Rows,
			Width:    b.Cols,
			YBearing: -dr.Min.Y,
			XBearing: dr.Min.X,
		},
	}, nil
}

// coverage returns the 8-bit alpha of a mask pixel.
func coverage(mask image.Image, x, y int) uint8 {
	if a, ok := mask.(*image.Alpha); ok {
		return a.AlphaAt(x, y).A
	}
	_, _, _, a := mask.At(x, y).RGBA()
	return uint8(a >> 8)
}
