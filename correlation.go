package soundshape

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/wbrown/soundshape/store"
)

type charPair struct {
	c1, c2 rune
}

func canonicalPair(a, b rune) charPair {
	if a > b {
		a, b = b, a
	}
	return charPair{a, b}
}

func (p charPair) less(o charPair) bool {
	if p.c1 != o.c1 {
		return p.c1 < o.c1
	}
	return p.c2 < o.c2
}

// GetCorrelation returns the Pearson correlation between the shape distances
// of a glyph set and one sound metric, computing and storing it on first
// request. Both sequences are ordered by character pair; mismatched pairs or
// a constant sequence yield a *ConsistencyError.
func (e *Evaluator) GetCorrelation(glyphSetID uint64, soundMetric, shapeMetric string) (store.Correlation, error) {
	var cached store.Correlation
	err := e.store.View(func(tx *store.Tx) error {
		var err error
		cached, err = tx.Correlation(glyphSetID, shapeMetric, soundMetric)
		return err
	})
	switch {
	case err == nil:
		e.log.Debug("correlation cache hit", "glyphset", glyphSetID, "sound", soundMetric)
		return cached, nil
	case !errors.Is(err, store.ErrNotFound):
		return store.Correlation{}, err
	}

	shapeRows, err := e.GetAndSaveShapeDistances(glyphSetID)
	if err != nil {
		return store.Correlation{}, err
	}

	var (
		gs        store.GlyphSet
		soundRows []store.SoundDistance
	)
	err = e.store.View(func(tx *store.Tx) error {
		var err error
		if gs, err = tx.GlyphSet(glyphSetID); err != nil {
			return err
		}
		soundRows, err = tx.SoundDistances(soundMetric)
		return err
	})
	if err != nil {
		return store.Correlation{}, err
	}

	shapePairs, shapeSeq := shapeSequence(shapeRows, shapeMetric)
	soundPairs, soundSeq := soundSequence(soundRows, gs.Chars)

	if len(shapeSeq) != len(soundSeq) {
		return store.Correlation{}, &ConsistencyError{
			GlyphSetID: glyphSetID,
			Reason: fmt.Sprintf("%d %s distances but %d %s distances",
				len(shapeSeq), shapeMetric, len(soundSeq), soundMetric),
		}
	}
	for i := range shapePairs {
		if shapePairs[i] != soundPairs[i] {
			return store.Correlation{}, &ConsistencyError{
				GlyphSetID: glyphSetID,
				Reason: fmt.Sprintf("pair %d is %c%c in shape distances but %c%c in sound distances",
					i, shapePairs[i].c1, shapePairs[i].c2, soundPairs[i].c1, soundPairs[i].c2),
			}
		}
	}
	if len(shapeSeq) < 2 {
		return store.Correlation{}, &ConsistencyError{
			GlyphSetID: glyphSetID,
			Reason:     fmt.Sprintf("need at least two character pairs, have %d", len(shapeSeq)),
		}
	}
	if constant(shapeSeq) {
		return store.Correlation{}, &ConsistencyError{
			GlyphSetID: glyphSetID,
			Reason:     fmt.Sprintf("%s distances are constant, correlation is undefined", shapeMetric),
		}
	}
	if constant(soundSeq) {
		return store.Correlation{}, &ConsistencyError{
			GlyphSetID: glyphSetID,
			Reason:     fmt.Sprintf("%s distances are constant, correlation is undefined", soundMetric),
		}
	}

	r, p := pearson(shapeSeq, soundSeq)
	c := store.Correlation{
		GlyphSetID:  glyphSetID,
		ShapeMetric: shapeMetric,
		SoundMetric: soundMetric,
		R:           r,
		P:           p,
		N:           len(shapeSeq),
	}
	if err := e.store.Update(func(tx *store.Tx) error {
		return tx.PutCorrelation(c)
	}); err != nil {
		return store.Correlation{}, fmt.Errorf("failed to store correlation: %w", err)
	}
	return c, nil
}

// shapeSequence orders the rows of one metric by canonical character pair.
func shapeSequence(rows []store.ShapeDistance, metric string) ([]charPair, []float64) {
	type entry struct {
		pair charPair
		d    float64
	}
	var entries []entry
	for _, r := range rows {
		if r.Metric != metric {
			continue
		}
		entries = append(entries, entry{canonicalPair(r.Char1, r.Char2), r.Distance})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].pair.less(entries[j].pair)
	})

	pairs := make([]charPair, len(entries))
	seq := make([]float64, len(entries))
	for i, en := range entries {
		pairs[i], seq[i] = en.pair, en.d
	}
	return pairs, seq
}

// soundSequence keeps the rows whose characters both appear in chars. Rows
// arrive ordered by (Char1, Char2).
func soundSequence(rows []store.SoundDistance, chars []rune) ([]charPair, []float64) {
	in := make(map[rune]bool, len(chars))
	for _, ch := range chars {
		in[ch] = true
	}
	var (
		pairs []charPair
		seq   []float64
	)
	for _, r := range rows {
		if in[r.Char1] && in[r.Char2] {
			pairs = append(pairs, canonicalPair(r.Char1, r.Char2))
			seq = append(seq, r.Distance)
		}
	}
	return pairs, seq
}

func constant(xs []float64) bool {
	for _, x := range xs[1:] {
		if x != xs[0] {
			return false
		}
	}
	return true
}

// pearson returns the correlation coefficient and its two-sided p-value
// under the null hypothesis of no correlation.
func pearson(x, y []float64) (r, p float64) {
	r = stat.Correlation(x, y, nil)
	n := float64(len(x))
	switch {
	case len(x) <= 2:
		return r, 1
	case math.Abs(r) >= 1:
		return r, 0
	}

	t := r * math.Sqrt((n-2)/(1-r*r))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: n - 2}
	p = 2 * dist.Survival(math.Abs(t))
	return r, math.Min(1, math.Max(0, p))
}
