package store

import "fmt"

// PutFont inserts a font and assigns its ID. Fonts are unique by file
// name; inserting a duplicate returns the existing ID and ErrExists.
func (t *Tx) PutFont(f *Font) (uint64, error) {
	files := t.bucket(bucketFontFiles)
	if existing := files.Get([]byte(f.FileName)); existing != nil {
		return btoi(existing), ErrExists
	}

	id, err := t.bucket(bucketFonts).NextSequence()
	if err != nil {
		return 0, fmt.Errorf("failed to allocate font id: %w", err)
	}
	f.ID = id
	if err := t.put(bucketFonts, itob(id), f); err != nil {
		return 0, err
	}
	if err := files.Put([]byte(f.FileName), itob(id)); err != nil {
		return 0, err
	}
	return id, nil
}

// Font loads a font by ID.
func (t *Tx) Font(id uint64) (Font, error) {
	var f Font
	if err := t.get(bucketFonts, itob(id), &f); err != nil {
		return Font{}, fmt.Errorf("font %d: %w", id, err)
	}
	return f, nil
}

// FontByFile loads a font by its ingested file name.
func (t *Tx) FontByFile(fileName string) (Font, error) {
	id := t.bucket(bucketFontFiles).Get([]byte(fileName))
	if id == nil {
		return Font{}, fmt.Errorf("font file %s: %w", fileName, ErrNotFound)
	}
	return t.Font(btoi(id))
}

// FontByName returns the first font, in ID order, whose Name matches.
func (t *Tx) FontByName(name string) (Font, error) {
	fonts, err := t.Fonts()
	if err != nil {
		return Font{}, err
	}
	for _, f := range fonts {
		if f.Name == name {
			return f, nil
		}
	}
	return Font{}, fmt.Errorf("font %q: %w", name, ErrNotFound)
}

// Fonts returns every font in ID order.
func (t *Tx) Fonts() ([]Font, error) {
	var out []Font
	err := t.bucket(bucketFonts).ForEach(func(_, v []byte) error {
		var f Font
		if err := decode(v, &f); err != nil {
			return err
		}
		out = append(out, f)
		return nil
	})
	return out, err
}
