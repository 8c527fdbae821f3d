// Package soundshape measures sound-shape systematicity: how well the
// visual distances between rendered letters correlate with the phonetic
// distances between the sounds they stand for.
//
// An Evaluator renders a glyph set, computes pairwise Hausdorff distances
// and correlates them with each phonetic metric, memoising every step in a
// store. Search strategies drive the evaluator across the design space of
// variable fonts.
package soundshape

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/wbrown/soundshape/phoneme"
	"github.com/wbrown/soundshape/raster"
	"github.com/wbrown/soundshape/shape"
	"github.com/wbrown/soundshape/store"
)

// ShapeFunc computes the distance between two aligned bitmaps.
type ShapeFunc func(b1, b2 raster.Bitmap) (shape.Result, error)

// shapeMetrics are the shape metrics an Evaluator can compute.
var shapeMetrics = map[string]ShapeFunc{
	shape.Metric: shape.Hausdorff,
}

// Result is the outcome of one evaluation: Pearson r of the shape distances
// against each sound metric.
type Result struct {
	GlyphSetID uint64
	Edit       float64
	EditSum    float64
	Euclidean  float64
	Hamming    float64
}

// Score is the value searches maximise.
func (r Result) Score() float64 {
	return r.Edit
}

// Evaluator runs the render, distance and correlation chain with each step
// cached in a store. It is not safe for concurrent use.
type Evaluator struct {
	store       *store.Store
	log         *slog.Logger
	engine      string
	threshold   uint8
	seed        int64
	shapeMetric string
	loadFace    FaceLoader
	now         func() time.Time

	rng   *rand.Rand
	faces map[uint64]raster.Face
}

// NewEvaluator creates an evaluator on s and seeds the sound distance table
// if the store does not hold it yet.
func NewEvaluator(s *store.Store, opts ...Option) (*Evaluator, error) {
	e := &Evaluator{
		store:       s,
		engine:      raster.EngineAuto,
		threshold:   DefaultThreshold,
		seed:        time.Now().UnixNano(),
		shapeMetric: shape.Metric,
		now:         time.Now,
		faces:       make(map[uint64]raster.Face),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = Logger()
	}
	if e.loadFace == nil {
		engine, threshold := e.engine, e.threshold
		e.loadFace = func(f store.Font) (raster.Face, error) {
			return raster.Open(f.Data, raster.WithEngine(engine), raster.WithThreshold(threshold))
		}
	}
	if _, ok := shapeMetrics[e.shapeMetric]; !ok {
		return nil, &ConfigError{Param: "shape metric", Reason: fmt.Sprintf("unknown metric %q", e.shapeMetric)}
	}
	e.rng = rand.New(rand.NewSource(e.seed))

	if err := e.seedSounds(); err != nil {
		return nil, err
	}
	return e, nil
}

// Store returns the backing store.
func (e *Evaluator) Store() *store.Store {
	return e.store
}

// seedSounds writes the phonetic distance table once per store.
func (e *Evaluator) seedSounds() error {
	all := phoneme.Distances()
	var have int
	if err := e.store.View(func(tx *store.Tx) error {
		have = tx.SoundDistanceCount()
		return nil
	}); err != nil {
		return err
	}
	if have >= len(all) {
		e.log.Debug("sound distances already present", "count", have, "db", e.store.Path())
		return nil
	}

	err := e.store.Update(func(tx *store.Tx) error {
		for _, d := range all {
			err := tx.PutSoundDistance(store.SoundDistance{
				Char1:    d.Char1,
				Char2:    d.Char2,
				Metric:   d.Metric,
				Distance: d.Distance,
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to seed sound distances: %w", err)
	}
	e.log.Info("seeded sound distances", "count", len(all), "db", e.store.Path())
	return nil
}

// face returns the cached face for a font, opening it on first use.
func (e *Evaluator) face(font store.Font) (raster.Face, error) {
	if f, ok := e.faces[font.ID]; ok {
		return f, nil
	}
	f, err := e.loadFace(font)
	if err != nil {
		return nil, fmt.Errorf("failed to open font %s: %w", font.Name, err)
	}
	e.faces[font.ID] = f
	return f, nil
}

// checkCoords verifies a coordinate vector against the font's axes.
func checkCoords(font store.Font, coords []float64) error {
	if len(coords) == 0 {
		return nil
	}
	if len(coords) != len(font.Axes) {
		return &ConfigError{
			Param:  "coords",
			Reason: fmt.Sprintf("%d values for font %s with %d axes", len(coords), font.Name, len(font.Axes)),
		}
	}
	for i, a := range font.Axes {
		if !a.Contains(coords[i]) {
			return &ConfigError{
				Param:  "coords",
				Reason: fmt.Sprintf("%s=%g outside [%g, %g]", a.Tag, coords[i], a.Minimum, a.Maximum),
			}
		}
	}
	return nil
}

// GetGlyphs returns the ID of the glyph set for the given key, rendering and
// storing it first if needed.
func (e *Evaluator) GetGlyphs(chars []rune, font store.Font, size int, coords []float64) (uint64, error) {
	if len(chars) == 0 {
		return 0, &ConfigError{Param: "chars", Reason: "no characters"}
	}
	if err := checkCoords(font, coords); err != nil {
		return 0, err
	}

	key := store.GlyphSetKey(font.ID, size, coords, chars)
	var (
		id    uint64
		found bool
	)
	if err := e.store.View(func(tx *store.Tx) error {
		id, found = tx.GlyphSetID(key)
		return nil
	}); err != nil {
		return 0, err
	}
	if found {
		e.log.Debug("glyph set cache hit", "id", id, "font", font.Name, "size", size)
		return id, nil
	}

	face, err := e.face(font)
	if err != nil {
		return 0, err
	}
	bitmaps, err := raster.RenderAligned(face, chars, size, coords)
	if err != nil {
		return 0, err
	}

	glyphs := make([]store.Glyph, len(chars))
	for i, ch := range chars {
		glyphs[i] = store.Glyph{Char: ch, Bitmap: bitmaps[i]}
	}
	gs := store.GlyphSet{
		FontID:  font.ID,
		Size:    size,
		Coords:  append([]float64(nil), coords...),
		Chars:   append([]rune(nil), chars...),
		Created: e.now(),
	}

	err = e.store.Update(func(tx *store.Tx) error {
		var err error
		id, err = tx.CreateGlyphSet(&gs, glyphs)
		return err
	})
	switch {
	case errors.Is(err, store.ErrExists):
		e.log.Debug("glyph set created concurrently", "id", id)
		return id, nil
	case err != nil:
		return 0, fmt.Errorf("failed to store glyph set: %w", err)
	}
	e.log.Debug("rendered glyph set", "id", id, "font", font.Name, "size", size, "coords", coords)
	return id, nil
}

// DeleteGlyphSet removes the glyph set for the given key and everything it
// owns. It returns the number of glyph sets removed, 0 or 1.
func (e *Evaluator) DeleteGlyphSet(chars []rune, font store.Font, size int, coords []float64) (int, error) {
	key := store.GlyphSetKey(font.ID, size, coords, chars)
	deleted := 0
	err := e.store.Update(func(tx *store.Tx) error {
		id, ok := tx.GlyphSetID(key)
		if !ok {
			return nil
		}
		if err := tx.DeleteGlyphSet(id); err != nil {
			return err
		}
		deleted = 1
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete glyph set: %w", err)
	}
	return deleted, nil
}

// GetAndSaveShapeDistances returns the shape distances of a glyph set,
// computing every pair and storing them in one batch if none exist yet. Any
// stored row means the set is complete. ErrFailedRender aborts the batch
// with nothing stored.
func (e *Evaluator) GetAndSaveShapeDistances(glyphSetID uint64) ([]store.ShapeDistance, error) {
	var (
		existing []store.ShapeDistance
		glyphs   []store.Glyph
	)
	err := e.store.View(func(tx *store.Tx) error {
		if _, err := tx.GlyphSet(glyphSetID); err != nil {
			return err
		}
		if tx.HasShapeDistances(glyphSetID) {
			var err error
			existing, err = tx.ShapeDistances(glyphSetID)
			return err
		}
		var err error
		glyphs, err = tx.Glyphs(glyphSetID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		e.log.Debug("shape distances cache hit", "glyphset", glyphSetID, "count", len(existing))
		return existing, nil
	}

	metric := e.shapeMetric
	distance := shapeMetrics[metric]
	out := make([]store.ShapeDistance, 0, len(glyphs)*(len(glyphs)-1)/2)
	for i := 0; i < len(glyphs); i++ {
		for j := i + 1; j < len(glyphs); j++ {
			g1, g2 := glyphs[i], glyphs[j]
			res, err := distance(g1.Bitmap, g2.Bitmap)
			if err != nil {
				return nil, fmt.Errorf("glyph set %d, %q/%q: %w", glyphSetID, g1.Char, g2.Char, err)
			}
			p1, p2 := res.ContributingPoints()
			out = append(out, store.ShapeDistance{
				Glyph1:   g1.ID,
				Glyph2:   g2.ID,
				Char1:    g1.Char,
				Char2:    g2.Char,
				Metric:   metric,
				Distance: res.Distance,
				Points1:  p1,
				Points2:  p2,
			})
		}
	}

	err = e.store.Update(func(tx *store.Tx) error {
		if tx.HasShapeDistances(glyphSetID) {
			var err error
			existing, err = tx.ShapeDistances(glyphSetID)
			return err
		}
		return tx.PutShapeDistances(glyphSetID, out)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store shape distances: %w", err)
	}
	if existing != nil {
		return existing, nil
	}
	return out, nil
}

// Evaluate runs the full chain for one glyph set key and returns the
// correlations against every sound metric. With overwrite, any existing
// glyph set for the key is deleted and recomputed.
func (e *Evaluator) Evaluate(chars []rune, font store.Font, size int, coords []float64, overwrite bool) (Result, error) {
	if overwrite {
		n, err := e.DeleteGlyphSet(chars, font, size, coords)
		if err != nil {
			return Result{}, err
		}
		if n > 0 {
			e.log.Debug("deleted glyph set for overwrite", "font", font.Name, "size", size)
		}
	}

	id, err := e.GetGlyphs(chars, font, size, coords)
	if err != nil {
		return Result{}, err
	}
	if _, err := e.GetAndSaveShapeDistances(id); err != nil {
		return Result{}, err
	}

	res := Result{GlyphSetID: id}
	for _, m := range []struct {
		metric string
		dst    *float64
	}{
		{phoneme.Edit, &res.Edit},
		{phoneme.EditSum, &res.EditSum},
		{phoneme.Euclidean, &res.Euclidean},
		{phoneme.Hamming, &res.Hamming},
	} {
		c, err := e.GetCorrelation(id, m.metric, e.shapeMetric)
		if err != nil {
			return Result{}, err
		}
		*m.dst = c.R
	}
	return res, nil
}
