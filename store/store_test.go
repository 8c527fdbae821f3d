package store

import (
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/wbrown/soundshape/raster"
	"github.com/wbrown/soundshape/shape"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if s.Path() != path {
		t.Fatalf("Path() = %q, want %q", s.Path(), path)
	}
	return s
}

func TestCodecRoundTrip(t *testing.T) {
	t.Parallel()

	in := Glyph{ID: 3, GlyphSetID: 9, Char: 'q', Bitmap: raster.MustParseBitmap("#.", ".#")}
	data, err := encode(&in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var out Glyph
	if err := decode(data, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Char != 'q' || out.Bitmap.String() != in.Bitmap.String() {
		t.Errorf("round trip mismatch: %+v", out)
	}
	if err := decode([]byte("garbage"), &out); err == nil {
		t.Error("expected error decoding garbage")
	}
}

func TestGlyphSetKey(t *testing.T) {
	t.Parallel()

	a := GlyphSetKey(1, 32, nil, []rune("ab"))
	b := GlyphSetKey(1, 32, []float64{}, []rune("ab"))
	if a != b {
		t.Errorf("nil and empty coords should share a key: %q vs %q", a, b)
	}
	if a == GlyphSetKey(1, 32, []float64{400}, []rune("ab")) {
		t.Error("coords should change the key")
	}
	if a == GlyphSetKey(1, 32, nil, []rune("ba")) {
		t.Error("char order should change the key")
	}
	if GlyphSetKey(1, 32, []float64{1, 23}, nil) == GlyphSetKey(1, 32, []float64{12, 3}, nil) {
		t.Error("coordinate boundaries must be preserved")
	}

	negZero := math.Copysign(0, -1)
	pos := GlyphSetKey(1, 32, []float64{0, -10}, []rune("ab"))
	neg := GlyphSetKey(1, 32, []float64{negZero, -10}, []rune("ab"))
	if pos != neg {
		t.Errorf("-0 and 0 should share a key: %q vs %q", pos, neg)
	}
}

func TestFonts(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	err := s.Update(func(tx *Tx) error {
		f := Font{Name: "Roboto", FileName: "Roboto.ttf", Data: []byte{1, 2, 3}}
		id, err := tx.PutFont(&f)
		if err != nil {
			return err
		}
		if id != 1 || f.ID != 1 {
			t.Errorf("first font id = %d", id)
		}
		dup := Font{Name: "Roboto", FileName: "Roboto.ttf"}
		again, err := tx.PutFont(&dup)
		if !errors.Is(err, ErrExists) || again != id {
			t.Errorf("duplicate PutFont = (%d, %v)", again, err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	err = s.View(func(tx *Tx) error {
		f, err := tx.FontByFile("Roboto.ttf")
		if err != nil {
			return err
		}
		if f.Name != "Roboto" || len(f.Data) != 3 {
			t.Errorf("FontByFile = %+v", f)
		}
		if _, err := tx.FontByName("Missing"); !errors.Is(err, ErrNotFound) {
			t.Errorf("FontByName(Missing) error = %v", err)
		}
		fonts, err := tx.Fonts()
		if err != nil {
			return err
		}
		if len(fonts) != 1 {
			t.Errorf("Fonts() returned %d fonts", len(fonts))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View: %v", err)
	}
}

func createGlyphSet(t *testing.T, s *Store, size int, glyphs []Glyph) uint64 {
	t.Helper()
	chars := make([]rune, len(glyphs))
	for i, g := range glyphs {
		chars[i] = g.Char
	}
	var id uint64
	err := s.Update(func(tx *Tx) error {
		var err error
		gs := GlyphSet{FontID: 1, Size: size, Chars: chars}
		id, err = tx.CreateGlyphSet(&gs, glyphs)
		return err
	})
	if err != nil {
		t.Fatalf("CreateGlyphSet: %v", err)
	}
	return id
}

func seedGlyphSet(t *testing.T, s *Store) (uint64, []Glyph) {
	t.Helper()
	glyphs := []Glyph{
		{Char: 'a', Bitmap: raster.MustParseBitmap("#.", "..")},
		{Char: 'b', Bitmap: raster.MustParseBitmap("..", ".#")},
		{Char: 'c', Bitmap: raster.MustParseBitmap("##", "..")},
	}
	return createGlyphSet(t, s, 16, glyphs), glyphs
}

func TestCreateGlyphSetUnique(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	id, glyphs := seedGlyphSet(t, s)
	if glyphs[0].ID == 0 || glyphs[0].GlyphSetID != id {
		t.Errorf("glyph ids not assigned: %+v", glyphs[0])
	}

	err := s.Update(func(tx *Tx) error {
		gs := GlyphSet{FontID: 1, Size: 16, Chars: []rune("abc")}
		got, err := tx.CreateGlyphSet(&gs, []Glyph{{Char: 'a'}})
		if !errors.Is(err, ErrExists) || got != id {
			t.Errorf("duplicate CreateGlyphSet = (%d, %v), want (%d, ErrExists)", got, err, id)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	err = s.View(func(tx *Tx) error {
		sets, err := tx.GlyphSets()
		if err != nil {
			return err
		}
		if len(sets) != 1 {
			t.Errorf("got %d glyph sets, want 1", len(sets))
		}
		gs, err := tx.GlyphSet(id)
		if err != nil {
			return err
		}
		stored, err := tx.Glyphs(id)
		if err != nil {
			return err
		}
		if len(stored) != 3 || len(gs.GlyphIDs) != 3 {
			t.Fatalf("got %d glyphs, %d ids", len(stored), len(gs.GlyphIDs))
		}
		for i, g := range stored {
			if g.ID != gs.GlyphIDs[i] || g.Char != rune("abc"[i]) {
				t.Errorf("glyph %d = %+v", i, g)
			}
		}
		if got, ok := tx.GlyphSetID(gs.Key()); !ok || got != id {
			t.Errorf("GlyphSetID = (%d, %v)", got, ok)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View: %v", err)
	}
}

func TestFailedUpdateLeavesNothing(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	id, _ := seedGlyphSet(t, s)

	boom := errors.New("boom")
	err := s.Update(func(tx *Tx) error {
		if err := tx.PutShapeDistances(id, []ShapeDistance{{Metric: shape.Metric, Distance: 1}}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Update error = %v", err)
	}

	s.View(func(tx *Tx) error {
		if tx.HasShapeDistances(id) {
			t.Error("rolled back shape distances are visible")
		}
		return nil
	})
}

func TestDeleteGlyphSetCascades(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	id, glyphs := seedGlyphSet(t, s)
	other := createGlyphSet(t, s, 24, []Glyph{{Char: 'a'}, {Char: 'b'}})

	err := s.Update(func(tx *Tx) error {
		ds := []ShapeDistance{
			{Glyph1: glyphs[0].ID, Glyph2: glyphs[1].ID, Char1: 'a', Char2: 'b', Metric: shape.Metric, Distance: 1.5},
		}
		if err := tx.PutShapeDistances(id, ds); err != nil {
			return err
		}
		if err := tx.PutShapeDistances(other, []ShapeDistance{{Metric: shape.Metric, Distance: 2}}); err != nil {
			return err
		}
		if err := tx.PutCorrelation(Correlation{GlyphSetID: id, ShapeMetric: shape.Metric, SoundMetric: "Edit", R: 0.5}); err != nil {
			return err
		}
		exp := Experiment{Name: "grid", Method: "grid"}
		eid, err := tx.CreateExperiment(&exp)
		if err != nil {
			return err
		}
		if err := tx.LinkExperiment(eid, id); err != nil {
			return err
		}
		return tx.LinkExperiment(eid, other)
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := s.Update(func(tx *Tx) error { return tx.DeleteGlyphSet(id) }); err != nil {
		t.Fatalf("DeleteGlyphSet: %v", err)
	}

	err = s.View(func(tx *Tx) error {
		if _, err := tx.GlyphSet(id); !errors.Is(err, ErrNotFound) {
			t.Errorf("glyph set still present: %v", err)
		}
		if g, _ := tx.Glyphs(id); len(g) != 0 {
			t.Errorf("%d glyphs survived", len(g))
		}
		if tx.HasShapeDistances(id) {
			t.Error("shape distances survived")
		}
		if _, err := tx.Correlation(id, shape.Metric, "Edit"); !errors.Is(err, ErrNotFound) {
			t.Errorf("correlation survived: %v", err)
		}
		links, err := tx.ExperimentGlyphSets(1)
		if err != nil {
			return err
		}
		if len(links) != 1 || links[0] != other {
			t.Errorf("links = %v, want [%d]", links, other)
		}
		if !tx.HasShapeDistances(other) {
			t.Error("unrelated glyph set lost its distances")
		}
		if _, ok := tx.GlyphSetID(GlyphSetKey(1, 16, nil, []rune("abc"))); ok {
			t.Error("key index still points at deleted set")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View: %v", err)
	}

	err = s.Update(func(tx *Tx) error { return tx.DeleteGlyphSet(id) })
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete error = %v, want ErrNotFound", err)
	}
}

func TestSoundDistances(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	err := s.Update(func(tx *Tx) error {
		for _, d := range []SoundDistance{
			{Char1: 'b', Char2: 'c', Metric: "Edit", Distance: 3},
			{Char1: 'b', Char2: 'a', Metric: "Edit", Distance: 2},
			{Char1: 'a', Char2: 'b', Metric: "Edit_Sum", Distance: 7},
		} {
			if err := tx.PutSoundDistance(d); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	s.View(func(tx *Tx) error {
		edit, err := tx.SoundDistances("Edit")
		if err != nil {
			t.Fatalf("SoundDistances: %v", err)
		}
		if len(edit) != 2 {
			t.Fatalf("got %d Edit rows, want 2", len(edit))
		}
		if edit[0].Char1 != 'a' || edit[0].Char2 != 'b' || edit[1].Char1 != 'b' {
			t.Errorf("unexpected order: %+v", edit)
		}
		if tx.SoundDistanceCount() != 3 {
			t.Errorf("SoundDistanceCount = %d", tx.SoundDistanceCount())
		}
		return nil
	})
}

func TestExperiments(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	id, _ := seedGlyphSet(t, s)

	err := s.Update(func(tx *Tx) error {
		e := Experiment{Name: "anneal", Method: "simulated_annealing",
			Hyperparameters: map[string]float64{"temperature": 0.02}}
		eid, err := tx.CreateExperiment(&e)
		if err != nil {
			return err
		}
		if err := tx.LinkExperiment(eid, id); err != nil {
			return err
		}
		if err := tx.LinkExperiment(eid, id); err != nil {
			return err
		}
		if err := tx.LinkExperiment(eid, 999); !errors.Is(err, ErrNotFound) {
			t.Errorf("link to missing glyph set error = %v", err)
		}
		if err := tx.PutExperiment(Experiment{ID: 77}); !errors.Is(err, ErrNotFound) {
			t.Errorf("PutExperiment(missing) error = %v", err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	s.View(func(tx *Tx) error {
		e, err := tx.Experiment(1)
		if err != nil {
			t.Fatalf("Experiment: %v", err)
		}
		if e.Hyperparameters["temperature"] != 0.02 {
			t.Errorf("hyperparameters = %v", e.Hyperparameters)
		}
		links, _ := tx.ExperimentGlyphSets(1)
		if len(links) != 1 || links[0] != id {
			t.Errorf("links = %v", links)
		}
		return nil
	})
}
