package store

import "fmt"

// CreateExperiment inserts an experiment and assigns its ID.
func (t *Tx) CreateExperiment(e *Experiment) (uint64, error) {
	id, err := t.bucket(bucketExperiments).NextSequence()
	if err != nil {
		return 0, fmt.Errorf("failed to allocate experiment id: %w", err)
	}
	e.ID = id
	if err := t.put(bucketExperiments, itob(id), e); err != nil {
		return 0, err
	}
	return id, nil
}

// PutExperiment replaces an existing experiment, typically to set End.
func (t *Tx) PutExperiment(e Experiment) error {
	if t.bucket(bucketExperiments).Get(itob(e.ID)) == nil {
		return fmt.Errorf("experiment %d: %w", e.ID, ErrNotFound)
	}
	return t.put(bucketExperiments, itob(e.ID), &e)
}

// Experiment loads an experiment by ID.
func (t *Tx) Experiment(id uint64) (Experiment, error) {
	var e Experiment
	if err := t.get(bucketExperiments, itob(id), &e); err != nil {
		return Experiment{}, fmt.Errorf("experiment %d: %w", id, err)
	}
	return e, nil
}

// Experiments returns every experiment in ID order.
func (t *Tx) Experiments() ([]Experiment, error) {
	var out []Experiment
	err := t.bucket(bucketExperiments).ForEach(func(_, v []byte) error {
		var e Experiment
		if err := decode(v, &e); err != nil {
			return err
		}
		out = append(out, e)
		return nil
	})
	return out, err
}

// LinkExperiment records that an experiment evaluated a glyph set. Linking
// the same pair twice is a no-op.
func (t *Tx) LinkExperiment(experimentID, glyphSetID uint64) error {
	if t.bucket(bucketExperiments).Get(itob(experimentID)) == nil {
		return fmt.Errorf("experiment %d: %w", experimentID, ErrNotFound)
	}
	if t.bucket(bucketGlyphSets).Get(itob(glyphSetID)) == nil {
		return fmt.Errorf("glyph set %d: %w", glyphSetID, ErrNotFound)
	}
	return t.bucket(bucketExperimentSets).Put(childKey(experimentID, glyphSetID), []byte{})
}

// ExperimentGlyphSets returns the glyph sets linked to an experiment in ID
// order.
func (t *Tx) ExperimentGlyphSets(experimentID uint64) ([]uint64, error) {
	var out []uint64
	err := t.scanPrefix(bucketExperimentSets, itob(experimentID), func(k, _ []byte) error {
		out = append(out, btoi(k[8:]))
		return nil
	})
	return out, err
}
