package store

import (
	"bytes"
	"fmt"
	"time"
)

// GlyphSetID looks up a glyph set by its canonical key.
func (t *Tx) GlyphSetID(key string) (uint64, bool) {
	v := t.bucket(bucketGlyphSetKeys).Get([]byte(key))
	if v == nil {
		return 0, false
	}
	return btoi(v), true
}

// CreateGlyphSet inserts a glyph set together with its glyphs, in order.
// IDs are assigned to gs and to each glyph. If a glyph set with the same key
// already exists nothing is written and its ID is returned with ErrExists.
func (t *Tx) CreateGlyphSet(gs *GlyphSet, glyphs []Glyph) (uint64, error) {
	key := gs.Key()
	if id, ok := t.GlyphSetID(key); ok {
		return id, ErrExists
	}

	id, err := t.bucket(bucketGlyphSets).NextSequence()
	if err != nil {
		return 0, fmt.Errorf("failed to allocate glyph set id: %w", err)
	}
	gs.ID = id
	if gs.Created.IsZero() {
		gs.Created = time.Now()
	}

	gb := t.bucket(bucketGlyphs)
	gs.GlyphIDs = make([]uint64, len(glyphs))
	for i := range glyphs {
		gid, err := gb.NextSequence()
		if err != nil {
			return 0, fmt.Errorf("failed to allocate glyph id: %w", err)
		}
		glyphs[i].ID = gid
		glyphs[i].GlyphSetID = id
		gs.GlyphIDs[i] = gid
		if err := t.put(bucketGlyphs, childKey(id, gid), &glyphs[i]); err != nil {
			return 0, err
		}
	}

	if err := t.put(bucketGlyphSets, itob(id), gs); err != nil {
		return 0, err
	}
	if err := t.bucket(bucketGlyphSetKeys).Put([]byte(key), itob(id)); err != nil {
		return 0, err
	}
	return id, nil
}

// GlyphSet loads a glyph set by ID.
func (t *Tx) GlyphSet(id uint64) (GlyphSet, error) {
	var gs GlyphSet
	if err := t.get(bucketGlyphSets, itob(id), &gs); err != nil {
		return GlyphSet{}, fmt.Errorf("glyph set %d: %w", id, err)
	}
	return gs, nil
}

// GlyphSets returns every glyph set in ID order.
func (t *Tx) GlyphSets() ([]GlyphSet, error) {
	var out []GlyphSet
	err := t.bucket(bucketGlyphSets).ForEach(func(_, v []byte) error {
		var gs GlyphSet
		if err := decode(v, &gs); err != nil {
			return err
		}
		out = append(out, gs)
		return nil
	})
	return out, err
}

// Glyphs returns the glyphs of a glyph set in insertion order.
func (t *Tx) Glyphs(glyphSetID uint64) ([]Glyph, error) {
	var out []Glyph
	err := t.scanPrefix(bucketGlyphs, itob(glyphSetID), func(_, v []byte) error {
		var g Glyph
		if err := decode(v, &g); err != nil {
			return err
		}
		out = append(out, g)
		return nil
	})
	return out, err
}

// DeleteGlyphSet removes a glyph set and everything it owns: glyphs, shape
// distances, correlations and experiment links.
func (t *Tx) DeleteGlyphSet(id uint64) error {
	gs, err := t.GlyphSet(id)
	if err != nil {
		return err
	}

	prefix := itob(id)
	for _, b := range [][]byte{bucketGlyphs, bucketShapeDistances, bucketCorrelations} {
		if _, err := t.deletePrefix(b, prefix); err != nil {
			return fmt.Errorf("failed to delete %s of glyph set %d: %w", b, id, err)
		}
	}

	// links are keyed experiment|glyphset, so match on the suffix
	links := t.bucket(bucketExperimentSets)
	var stale [][]byte
	err = links.ForEach(func(k, _ []byte) error {
		if len(k) == 16 && bytes.Equal(k[8:], prefix) {
			stale = append(stale, append([]byte(nil), k...))
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, k := range stale {
		if err := links.Delete(k); err != nil {
			return err
		}
	}

	if err := t.bucket(bucketGlyphSetKeys).Delete([]byte(gs.Key())); err != nil {
		return err
	}
	return t.bucket(bucketGlyphSets).Delete(prefix)
}
