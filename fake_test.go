package soundshape

import (
	"path/filepath"
	"testing"

	"github.com/wbrown/soundshape/raster"
	"github.com/wbrown/soundshape/store"
)

// fakeFace draws each character as a single ink pixel on a one-row strip.
// The column depends on the character and on the first coordinate, so
// different coordinates give different shape distances.
type fakeFace struct {
	axes []raster.Axis
	// failBelow blanks 'a' when the first coordinate is below it.
	failBelow float64
	// same draws every character identically.
	same    bool
	renders int
}

const fakeCols = 26

func (f *fakeFace) Axes() []raster.Axis {
	return f.axes
}

func (f *fakeFace) Render(ch rune, size int, coords []float64) (raster.Glyph, error) {
	if size <= 0 {
		return raster.Glyph{}, raster.ErrInvalidSize
	}
	f.renders++

	var c float64
	if len(coords) > 0 {
		c = coords[0]
	} else if len(f.axes) > 0 {
		c = f.axes[0].Default
	}

	b := raster.NewBitmap(1, fakeCols)
	blank := ch == 'a' && len(f.axes) > 0 && c < f.failBelow
	if !blank {
		col := 0
		if !f.same {
			mult := 1 + int(c/25)%5
			col = (int(ch-'a') * mult) % fakeCols
		}
		b.Set(0, col, raster.Foreground)
	}
	return raster.Glyph{
		Char:    ch,
		Bitmap:  b,
		Metrics: raster.Metrics{Height: 1, Width: fakeCols, YBearing: 1},
	}, nil
}

var weightAxis = raster.Axis{Name: "Weight", Tag: "wght", Minimum: 0, Default: 50, Maximum: 100}

type fixture struct {
	store     *store.Store
	evaluator *Evaluator
	face      *fakeFace
	font      store.Font
	static    store.Font
}

func newFixture(t *testing.T, face *fakeFace, opts ...Option) *fixture {
	t.Helper()

	s, err := store.Open(filepath.Join(t.TempDir(), "soundshape.db"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	fx := &fixture{store: s, face: face}
	fx.font = store.Font{Name: "Fake", FileName: "Fake.ttf", IsVariable: true, Axes: []raster.Axis{weightAxis}}
	fx.static = store.Font{Name: "Static", FileName: "Static.ttf"}
	err = s.Update(func(tx *store.Tx) error {
		if _, err := tx.PutFont(&fx.font); err != nil {
			return err
		}
		_, err := tx.PutFont(&fx.static)
		return err
	})
	if err != nil {
		t.Fatalf("PutFont: %v", err)
	}

	staticFace := &fakeFace{}
	opts = append([]Option{
		WithSeed(1),
		WithFaceLoader(func(f store.Font) (raster.Face, error) {
			if f.IsVariable {
				return face, nil
			}
			return staticFace, nil
		}),
	}, opts...)
	fx.evaluator, err = NewEvaluator(s, opts...)
	if err != nil {
		t.Fatalf("NewEvaluator: %v", err)
	}
	return fx
}
