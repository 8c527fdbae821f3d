package soundshape

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/flopp/go-findfont"

	"github.com/wbrown/soundshape/raster"
	"github.com/wbrown/soundshape/store"
)

// fontExtensions are the font file types Ingest picks up.
var fontExtensions = map[string]bool{
	".otf": true,
	".ttf": true,
}

// Ingest walks dir recursively and stores every OpenType and TrueType font
// it finds. Files already stored under the same file name are left alone,
// and files that fail to parse are logged and skipped. It returns the fonts
// added by this call.
func Ingest(s *store.Store, dir string) ([]store.Font, error) {
	log := Logger()
	var added []store.Font

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !fontExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		f, err := IngestFile(s, path)
		switch {
		case errors.Is(err, store.ErrExists):
			log.Debug("font already ingested", "file", f.FileName)
		case err != nil:
			log.Warn("skipping font", "path", path, "err", err)
		default:
			log.Info("ingested font", "name", f.Name, "variable", f.IsVariable, "axes", len(f.Axes))
			added = append(added, f)
		}
		return nil
	})
	if err != nil {
		return added, fmt.Errorf("failed to scan %s: %w", dir, err)
	}
	return added, nil
}

// IngestFile reads one font file, reads its variation axes and stores it.
// If a font with the same file name exists it is returned with
// store.ErrExists.
func IngestFile(s *store.Store, path string) (store.Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return store.Font{}, fmt.Errorf("failed to read font: %w", err)
	}

	face, err := raster.Open(data, raster.WithEngine(raster.EngineGoText))
	if err != nil {
		return store.Font{}, err
	}
	axes := face.Axes()
	for _, a := range axes {
		if err := a.Validate(); err != nil {
			return store.Font{}, err
		}
	}

	fileName := filepath.Base(path)
	f := store.Font{
		Name:       strings.TrimSuffix(fileName, filepath.Ext(fileName)),
		FileName:   fileName,
		Data:       data,
		IsVariable: len(axes) > 0,
		Axes:       axes,
	}

	err = s.Update(func(tx *store.Tx) error {
		id, err := tx.PutFont(&f)
		if errors.Is(err, store.ErrExists) {
			f.ID = id
		}
		return err
	})
	if errors.Is(err, store.ErrExists) {
		return f, err
	}
	if err != nil {
		return store.Font{}, fmt.Errorf("failed to store font: %w", err)
	}
	return f, nil
}

// IngestSystemFont locates an installed font by name or file name and
// ingests it.
func IngestSystemFont(s *store.Store, name string) (store.Font, error) {
	path, err := findfont.Find(name)
	if err != nil {
		return store.Font{}, fmt.Errorf("failed to find system font %q: %w", name, err)
	}
	return IngestFile(s, path)
}
