package store

import "fmt"

// ShapeDistances returns the stored shape distances of a glyph set in
// insertion order.
func (t *Tx) ShapeDistances(glyphSetID uint64) ([]ShapeDistance, error) {
	var out []ShapeDistance
	err := t.scanPrefix(bucketShapeDistances, itob(glyphSetID), func(_, v []byte) error {
		var d ShapeDistance
		if err := decode(v, &d); err != nil {
			return err
		}
		out = append(out, d)
		return nil
	})
	return out, err
}

// HasShapeDistances reports whether any shape distance exists for a glyph
// set.
func (t *Tx) HasShapeDistances(glyphSetID uint64) bool {
	prefix := itob(glyphSetID)
	k, _ := t.bucket(bucketShapeDistances).Cursor().Seek(prefix)
	return k != nil && len(k) >= 8 && btoi(k[:8]) == glyphSetID
}

// PutShapeDistances appends a batch of shape distances to a glyph set,
// assigning IDs in order.
func (t *Tx) PutShapeDistances(glyphSetID uint64, ds []ShapeDistance) error {
	b := t.bucket(bucketShapeDistances)
	for i := range ds {
		id, err := b.NextSequence()
		if err != nil {
			return fmt.Errorf("failed to allocate shape distance id: %w", err)
		}
		ds[i].ID = id
		ds[i].GlyphSetID = glyphSetID
		if err := t.put(bucketShapeDistances, childKey(glyphSetID, id), &ds[i]); err != nil {
			return err
		}
	}
	return nil
}

// PutSoundDistance writes or replaces one sound distance. The pair is
// stored with the smaller character first.
func (t *Tx) PutSoundDistance(d SoundDistance) error {
	if d.Char1 > d.Char2 {
		d.Char1, d.Char2 = d.Char2, d.Char1
	}
	return t.put(bucketSoundDistances, soundKey(d.Metric, d.Char1, d.Char2), &d)
}

// SoundDistances returns every stored distance for a metric, ordered by
// (Char1, Char2).
func (t *Tx) SoundDistances(metric string) ([]SoundDistance, error) {
	prefix := append([]byte(metric), 0)
	var out []SoundDistance
	err := t.scanPrefix(bucketSoundDistances, prefix, func(_, v []byte) error {
		var d SoundDistance
		if err := decode(v, &d); err != nil {
			return err
		}
		out = append(out, d)
		return nil
	})
	return out, err
}

// SoundDistanceCount returns the number of stored sound distances across
// all metrics.
func (t *Tx) SoundDistanceCount() int {
	n := 0
	c := t.bucket(bucketSoundDistances).Cursor()
	for k, _ := c.First(); k != nil; k, _ = c.Next() {
		n++
	}
	return n
}

// Correlation loads a cached correlation.
func (t *Tx) Correlation(glyphSetID uint64, shapeMetric, soundMetric string) (Correlation, error) {
	var c Correlation
	if err := t.get(bucketCorrelations, correlationKey(glyphSetID, shapeMetric, soundMetric), &c); err != nil {
		return Correlation{}, fmt.Errorf("correlation %d/%s/%s: %w", glyphSetID, shapeMetric, soundMetric, err)
	}
	return c, nil
}

// PutCorrelation writes or replaces a correlation.
func (t *Tx) PutCorrelation(c Correlation) error {
	return t.put(bucketCorrelations, correlationKey(c.GlyphSetID, c.ShapeMetric, c.SoundMetric), &c)
}

// Correlations returns every correlation of a glyph set.
func (t *Tx) Correlations(glyphSetID uint64) ([]Correlation, error) {
	var out []Correlation
	err := t.scanPrefix(bucketCorrelations, itob(glyphSetID), func(_, v []byte) error {
		var c Correlation
		if err := decode(v, &c); err != nil {
			return err
		}
		out = append(out, c)
		return nil
	})
	return out, err
}
