package visualize

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"gocv.io/x/gocv"

	"github.com/wbrown/soundshape/raster"
	"github.com/wbrown/soundshape/shape"
	"github.com/wbrown/soundshape/store"
)

func pixel(img gocv.Mat, x, y int) color.RGBA {
	return color.RGBA{
		R: img.GetUCharAt(y, x*3+2),
		G: img.GetUCharAt(y, x*3+1),
		B: img.GetUCharAt(y, x*3),
		A: 255,
	}
}

func TestPair(t *testing.T) {
	t.Parallel()
	b1 := raster.MustParseBitmap(
		"#..#",
		"....",
		"....",
		"...#",
	)
	b2 := raster.MustParseBitmap(
		"...#",
		"....",
		"....",
		"#...",
	)
	points1 := [2]shape.Point{{Row: 0, Col: 0}, {Row: 3, Col: 3}}
	points2 := [2]shape.Point{{Row: 3, Col: 0}, {Row: 0, Col: 3}}

	img := Pair('a', 'b', b1, b2, points1, points2, 3, 3)
	defer img.Close()

	if img.Cols() != 9*CellSize || img.Rows() != header+4*CellSize {
		t.Fatalf("image is %dx%d", img.Cols(), img.Rows())
	}
	if img.Type() != gocv.MatTypeCV8UC3 {
		t.Fatalf("type = %v", img.Type())
	}

	half := CellSize / 2
	at := func(row, col int, second bool) (int, int) {
		x := col*CellSize + half
		if second {
			x += 5 * CellSize
		}
		return x, header + row*CellSize + half
	}
	tests := []struct {
		name     string
		row, col int
		second   bool
		want     color.RGBA
	}{
		{"forward point in first", 0, 0, false, forwardCol},
		{"backward point in first", 3, 3, false, reverseCol},
		{"forward point in second", 3, 0, true, forwardCol},
		{"backward point in second", 0, 3, true, reverseCol},
		{"ink", 0, 3, false, ink},
		{"paper", 0, 0, true, paper},
	}
	for _, tt := range tests {
		x, y := at(tt.row, tt.col, tt.second)
		if got := pixel(img, x, y); got != tt.want {
			t.Errorf("%s: pixel (%d,%d) = %v, want %v", tt.name, x, y, got, tt.want)
		}
	}
	if got := pixel(img, 4*CellSize+half, img.Rows()-4); got != gutter {
		t.Errorf("gutter = %v", got)
	}
}

func TestSaveGlyphSet(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	s, err := store.Open(filepath.Join(dir, "db"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	bitmaps := []raster.Bitmap{
		raster.MustParseBitmap("#..", "...", "..."),
		raster.MustParseBitmap("...", ".#.", "..."),
		raster.MustParseBitmap("...", "...", "..#"),
	}
	chars := []rune("abd")
	var id uint64
	err = s.Update(func(tx *store.Tx) error {
		glyphs := make([]store.Glyph, len(chars))
		for i, ch := range chars {
			glyphs[i] = store.Glyph{Char: ch, Bitmap: bitmaps[i]}
		}
		gs := store.GlyphSet{FontID: 1, Size: 3, Chars: chars}
		if id, err = tx.CreateGlyphSet(&gs, glyphs); err != nil {
			return err
		}
		stored, err := tx.Glyphs(id)
		if err != nil {
			return err
		}
		var ds []store.ShapeDistance
		for i := 0; i < len(stored); i++ {
			for j := i + 1; j < len(stored); j++ {
				res, err := shape.Hausdorff(stored[i].Bitmap, stored[j].Bitmap)
				if err != nil {
					return err
				}
				p1, p2 := res.ContributingPoints()
				ds = append(ds, store.ShapeDistance{
					Glyph1: stored[i].ID, Glyph2: stored[j].ID,
					Char1: stored[i].Char, Char2: stored[j].Char,
					Metric: shape.Metric, Distance: res.Distance,
					Points1: p1, Points2: p2,
				})
			}
		}
		return tx.PutShapeDistances(id, ds)
	})
	if err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(dir, "img")
	n, err := SaveGlyphSet(s, id, out, "")
	if err != nil {
		t.Fatalf("SaveGlyphSet: %v", err)
	}
	if n != 3 {
		t.Errorf("wrote %d images, want 3", n)
	}
	for _, name := range []string{"ab", "ad", "bd"} {
		fi, err := os.Stat(filepath.Join(out, fmt.Sprintf("%d_%s.png", id, name)))
		if err != nil || fi.Size() == 0 {
			t.Errorf("%s: %v", name, err)
		}
	}

	n, err = SaveGlyphSet(s, id, out, "bd")
	if err != nil || n != 1 {
		t.Errorf("filtered SaveGlyphSet = %d, %v", n, err)
	}
	if _, err := SaveGlyphSet(s, id+1, out, ""); err == nil {
		t.Error("missing glyph set succeeded")
	}
}
