// Package raster renders monochrome glyph bitmaps from font files and aligns
// batches of them onto a common pixel grid.
//
// Two rendering engines are available: a FreeType port for static TrueType
// fonts and a go-text/typesetting based engine that understands OpenType
// font variations. Both produce the same Bitmap representation so the rest
// of the pipeline never needs to know which one was used.
package raster

import (
	"fmt"
	"strings"
)

const (
	// Foreground marks an inked pixel.
	Foreground uint8 = 0
	// Background marks an empty pixel.
	Background uint8 = 1
)

// Bitmap is a row-major grid of binary pixels where 0 is ink and 1 is
// background. The zero value is an empty 0x0 bitmap.
type Bitmap struct {
	Rows int
	Cols int
	Pix  []uint8
}

// NewBitmap returns a rows x cols bitmap filled with background pixels.
func NewBitmap(rows, cols int) Bitmap {
	if rows < 0 {
		rows = 0
	}
	if cols < 0 {
		cols = 0
	}
	pix := make([]uint8, rows*cols)
	for i := range pix {
		pix[i] = Background
	}
	return Bitmap{Rows: rows, Cols: cols, Pix: pix}
}

// ParseBitmap builds a bitmap from text rows, where '#' is ink and any other
// character is background. All rows must have the same length.
func ParseBitmap(rows ...string) (Bitmap, error) {
	if len(rows) == 0 {
		return Bitmap{}, nil
	}
	cols := len(rows[0])
	b := NewBitmap(len(rows), cols)
	for y, row := range rows {
		if len(row) != cols {
			return Bitmap{}, fmt.Errorf("row %d has %d columns, expected %d", y, len(row), cols)
		}
		for x := 0; x < cols; x++ {
			if row[x] == '#' {
				b.Set(y, x, Foreground)
			}
		}
	}
	return b, nil
}

// MustParseBitmap is like ParseBitmap but panics on malformed input.
func MustParseBitmap(rows ...string) Bitmap {
	b, err := ParseBitmap(rows...)
	if err != nil {
		panic(err)
	}
	return b
}

// At returns the pixel at (row, col). Out of range reads return Background.
func (b Bitmap) At(row, col int) uint8 {
	if row < 0 || row >= b.Rows || col < 0 || col >= b.Cols {
		return Background
	}
	return b.Pix[row*b.Cols+col]
}

// Set writes a pixel. Out of range writes are ignored.
func (b Bitmap) Set(row, col int, v uint8) {
	if row < 0 || row >= b.Rows || col < 0 || col >= b.Cols {
		return
	}
	b.Pix[row*b.Cols+col] = v
}

// Empty reports whether the bitmap has no ink at all.
func (b Bitmap) Empty() bool {
	return b.InkCount() == 0
}

// InkCount returns the number of foreground pixels.
func (b Bitmap) InkCount() int {
	n := 0
	for _, p := range b.Pix {
		if p == Foreground {
			n++
		}
	}
	return n
}

// SameShape reports whether two bitmaps have identical dimensions.
func (b Bitmap) SameShape(o Bitmap) bool {
	return b.Rows == o.Rows && b.Cols == o.Cols
}

// Clone returns a deep copy.
func (b Bitmap) Clone() Bitmap {
	pix := make([]uint8, len(b.Pix))
	copy(pix, b.Pix)
	return Bitmap{Rows: b.Rows, Cols: b.Cols, Pix: pix}
}

// String renders the bitmap as text using '#' for ink and '.' for background.
func (b Bitmap) String() string {
	var sb strings.Builder
	for y := 0; y < b.Rows; y++ {
		for x := 0; x < b.Cols; x++ {
			if b.At(y, x) == Foreground {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Metrics holds the layout of a rendered glyph in whole pixels. YBearing is
// the distance from the baseline up to the top row of the bitmap; XBearing
// is the distance from the origin to the left column.
type Metrics struct {
	Height   int
	Width    int
	YBearing int
	XBearing int
}

// Glyph is one rendered character with its layout metrics.
type Glyph struct {
	Char   rune
	Bitmap Bitmap
	Metrics
}
