// Package visualize draws glyph pairs with the points that decide their
// Hausdorff distance.
package visualize

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"gocv.io/x/gocv"

	"github.com/wbrown/soundshape/raster"
	"github.com/wbrown/soundshape/shape"
	"github.com/wbrown/soundshape/store"
)

const (
	// CellSize is the side of one bitmap pixel in the output image.
	CellSize = 16
	header   = 44
	arrowLen = 2 * CellSize
)

var (
	ink        = color.RGBA{0, 0, 0, 255}
	paper      = color.RGBA{255, 255, 255, 255}
	gutter     = color.RGBA{200, 200, 200, 255}
	forwardCol = color.RGBA{255, 0, 0, 255}
	reverseCol = color.RGBA{0, 255, 255, 255}
)

// ErrWrite is returned when OpenCV cannot encode or write an image.
var ErrWrite = errors.New("visualize: failed to write image")

// layout maps bitmap cells to image pixels.
type layout struct {
	cols1, rows int
	width       int
	height      int
}

func newLayout(b1, b2 raster.Bitmap) layout {
	rows := max(b1.Rows, b2.Rows)
	return layout{
		cols1:  b1.Cols,
		rows:   rows,
		width:  (b1.Cols+b2.Cols)*CellSize + CellSize,
		height: header + rows*CellSize,
	}
}

// origin returns the top-left pixel of a cell. second selects the right
// hand bitmap.
func (l layout) origin(p shape.Point, second bool) image.Point {
	x := p.Col * CellSize
	if second {
		x += (l.cols1 + 1) * CellSize
	}
	return image.Point{X: x, Y: header + p.Row*CellSize}
}

func (l layout) centre(p shape.Point, second bool) image.Point {
	o := l.origin(p, second)
	return image.Point{X: o.X + CellSize/2, Y: o.Y + CellSize/2}
}

// Pair draws b1 and b2 side by side. points1 lie in b1 and points2 in b2;
// index 0 is the forward pair (sup over b1) drawn red and index 1 the
// backward pair drawn cyan. dist1 and dist2 are the two directed distances.
// The caller owns the returned Mat.
func Pair(char1, char2 rune, b1, b2 raster.Bitmap, points1, points2 [2]shape.Point, dist1, dist2 float64) gocv.Mat {
	l := newLayout(b1, b2)
	img := gocv.NewMatWithSize(l.height, l.width, gocv.MatTypeCV8UC3)
	fill(&img, image.Rect(0, 0, l.width, l.height), paper)

	gx := l.cols1 * CellSize
	fill(&img, image.Rect(gx, header, gx+CellSize, l.height), gutter)
	paint(&img, l, b1, false)
	paint(&img, l, b2, true)

	mid := image.Point{X: l.width / 2, Y: header + l.rows*CellSize/2}
	for i, c := range []color.RGBA{forwardCol, reverseCol} {
		for side, p := range []shape.Point{points1[i], points2[i]} {
			second := side == 1
			o := l.origin(p, second)
			fill(&img, image.Rect(o.X, o.Y, o.X+CellSize, o.Y+CellSize), c)
			arrow(&img, l.centre(p, second), mid, c)
		}
	}

	gocv.PutText(&img, fmt.Sprintf("sup %c inf %c d(%c,%c): %.2f", char1, char2, char1, char2, dist1),
		image.Point{X: 4, Y: 18}, gocv.FontHersheySimplex, 0.5, forwardCol, 1)
	gocv.PutText(&img, fmt.Sprintf("sup %c inf %c d(%c,%c): %.2f", char2, char1, char1, char2, dist2),
		image.Point{X: 4, Y: 38}, gocv.FontHersheySimplex, 0.5, reverseCol, 1)
	return img
}

// SavePair renders a pair with Pair and writes it to path. The format
// follows the file extension.
func SavePair(path string, char1, char2 rune, b1, b2 raster.Bitmap, points1, points2 [2]shape.Point, dist1, dist2 float64) error {
	img := Pair(char1, char2, b1, b2, points1, points2, dist1, dist2)
	defer img.Close()
	if !gocv.IMWrite(path, img) {
		return fmt.Errorf("%w: %s", ErrWrite, path)
	}
	return nil
}

// SaveGlyphSet writes one image per stored shape distance of a glyph set
// into dir, named after the set and the character pair. If pair is
// non-empty only that pair is written. It returns the number of images.
func SaveGlyphSet(s *store.Store, glyphSetID uint64, dir string, pair string) (int, error) {
	var (
		glyphs    []store.Glyph
		distances []store.ShapeDistance
	)
	err := s.View(func(tx *store.Tx) error {
		var err error
		if glyphs, err = tx.Glyphs(glyphSetID); err != nil {
			return err
		}
		distances, err = tx.ShapeDistances(glyphSetID)
		return err
	})
	if err != nil {
		return 0, err
	}
	if len(glyphs) == 0 {
		return 0, fmt.Errorf("glyph set %d: %w", glyphSetID, store.ErrNotFound)
	}

	byID := make(map[uint64]store.Glyph, len(glyphs))
	for _, g := range glyphs {
		byID[g.ID] = g
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, err
	}

	written := 0
	for _, d := range distances {
		name := string([]rune{d.Char1, d.Char2})
		if pair != "" && pair != name {
			continue
		}
		g1, g2 := byID[d.Glyph1], byID[d.Glyph2]
		path := filepath.Join(dir, fmt.Sprintf("%d_%s.png", glyphSetID, name))
		err := SavePair(path, d.Char1, d.Char2, g1.Bitmap, g2.Bitmap, d.Points1, d.Points2,
			between(d.Points1[0], d.Points2[0]), between(d.Points2[1], d.Points1[1]))
		if err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}

func between(p, q shape.Point) float64 {
	return math.Hypot(float64(p.Row-q.Row), float64(p.Col-q.Col))
}

func fill(img *gocv.Mat, r image.Rectangle, c color.RGBA) {
	r = r.Intersect(image.Rect(0, 0, img.Cols(), img.Rows()))
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			// BGR
			img.SetUCharAt(y, x*3, c.B)
			img.SetUCharAt(y, x*3+1, c.G)
			img.SetUCharAt(y, x*3+2, c.R)
		}
	}
}

func paint(img *gocv.Mat, l layout, b raster.Bitmap, second bool) {
	for row := 0; row < b.Rows; row++ {
		for col := 0; col < b.Cols; col++ {
			if b.At(row, col) != raster.Foreground {
				continue
			}
			o := l.origin(shape.Point{Row: row, Col: col}, second)
			fill(img, image.Rect(o.X, o.Y, o.X+CellSize, o.Y+CellSize), ink)
		}
	}
}

// arrow points at a cell from the side facing mid, stopping at the cell
// edge.
func arrow(img *gocv.Mat, at, mid image.Point, c color.RGBA) {
	dx, dy := 1, 1
	if at.X >= mid.X {
		dx = -1
	}
	if at.Y >= mid.Y {
		dy = -1
	}
	tip := image.Point{X: at.X + dx*CellSize/2, Y: at.Y + dy*CellSize/2}
	tail := image.Point{X: tip.X + dx*arrowLen, Y: tip.Y + dy*arrowLen}
	gocv.ArrowedLine(img, tail, tip, c, 2)
}
