// Package store persists fonts, glyph sets and the distances and
// correlations derived from them in a single bbolt file.
//
// Every multi-row write happens inside one Update call, so a batch of glyphs
// or shape distances is either fully visible or not at all. Rows owned by a
// glyph set are keyed by the glyph set ID, which lets DeleteGlyphSet cascade
// with prefix scans.
package store

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrExists is returned when inserting a record whose unique key is
	// already present. The existing ID is returned alongside it.
	ErrExists = errors.New("store: already exists")
)

var (
	bucketFonts          = []byte("fonts")
	bucketFontFiles      = []byte("font_files")
	bucketGlyphSets      = []byte("glyphsets")
	bucketGlyphSetKeys   = []byte("glyphset_keys")
	bucketGlyphs         = []byte("glyphs")
	bucketShapeDistances = []byte("shape_distances")
	bucketSoundDistances = []byte("sound_distances")
	bucketCorrelations   = []byte("correlations")
	bucketExperiments    = []byte("experiments")
	bucketExperimentSets = []byte("experiment_glyphsets")
)

var allBuckets = [][]byte{
	bucketFonts,
	bucketFontFiles,
	bucketGlyphSets,
	bucketGlyphSetKeys,
	bucketGlyphs,
	bucketShapeDistances,
	bucketSoundDistances,
	bucketCorrelations,
	bucketExperiments,
	bucketExperimentSets,
}

// Store is a handle on an open database file. It is safe for concurrent
// use; bbolt serialises writers.
type Store struct {
	db *bolt.DB
}

// Open opens or creates the database at path and makes sure every bucket
// exists.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open store %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the database file.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.db.Path()
}

// Update runs fn in a read-write transaction. If fn returns an error
// nothing it wrote is kept.
func (s *Store) Update(fn func(*Tx) error) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return fn(&Tx{tx: tx})
	})
}

// View runs fn in a read-only transaction.
func (s *Store) View(fn func(*Tx) error) error {
	return s.db.View(func(tx *bolt.Tx) error {
		return fn(&Tx{tx: tx})
	})
}

// Tx is a transaction handle. It must not be used after the function passed
// to Update or View returns.
type Tx struct {
	tx *bolt.Tx
}

func (t *Tx) bucket(name []byte) *bolt.Bucket {
	return t.tx.Bucket(name)
}

// get decodes the record stored under key into v.
func (t *Tx) get(bucket, key []byte, v any) error {
	data := t.bucket(bucket).Get(key)
	if data == nil {
		return ErrNotFound
	}
	return decode(data, v)
}

func (t *Tx) put(bucket, key []byte, v any) error {
	data, err := encode(v)
	if err != nil {
		return err
	}
	return t.bucket(bucket).Put(key, data)
}

// scanPrefix calls fn for every key in bucket starting with prefix.
func (t *Tx) scanPrefix(bucket, prefix []byte, fn func(k, v []byte) error) error {
	c := t.bucket(bucket).Cursor()
	for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
		if err := fn(k, v); err != nil {
			return err
		}
	}
	return nil
}

// deletePrefix removes every key in bucket starting with prefix and returns
// how many were removed.
func (t *Tx) deletePrefix(bucket, prefix []byte) (int, error) {
	var keys [][]byte
	err := t.scanPrefix(bucket, prefix, func(k, _ []byte) error {
		keys = append(keys, append([]byte(nil), k...))
		return nil
	})
	if err != nil {
		return 0, err
	}
	b := t.bucket(bucket)
	for _, k := range keys {
		if err := b.Delete(k); err != nil {
			return 0, err
		}
	}
	return len(keys), nil
}
