package comicsource

import (
	"context"
	"fmt"
	"image"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/hollowleaf/comicsource/internal/natord"
)

// dirImage is one collected image on the filesystem.
type dirImage struct {
	rel  string
	abs  string
	size int64
	mod  time.Time
}

// DirSource serves images straight from the filesystem, conforming to
// the same contract as the container readers. It wraps either a
// directory (images collected recursively, natural-sorted) or a single
// loose image file.
//
// The two cases carry different identity strategies on purpose: a lone
// image file is recognized by content, so renaming it keeps its key; a
// folder is recognized by place (inode and device), since its contents
// are expected to change over time.
type DirSource struct {
	path       string
	name       string
	standalone bool
	logger     *slog.Logger
	measurer   Measurer
	files      []dirImage
	keyMemo    string
}

var _ ImageSource = (*DirSource)(nil)

func openDir(ctx context.Context, dirPath string, o *openOptions) (*DirSource, error) {
	fi, err := os.Stat(dirPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCannotOpen, dirPath, err)
	}

	s := &DirSource{
		path:     dirPath,
		logger:   o.logger,
		measurer: o.measurer,
	}

	if !fi.IsDir() {
		if !isImagePath(dirPath) {
			return nil, fmt.Errorf("%s: %w", dirPath, ErrNoContent)
		}
		s.standalone = true
		s.name = baseNameNoExt(dirPath)
		s.files = []dirImage{{
			rel:  filepath.Base(dirPath),
			abs:  dirPath,
			size: fi.Size(),
			mod:  fi.ModTime(),
		}}
		return s, nil
	}

	o.report(PhaseBuildingList)
	s.name = filepath.Base(dirPath)

	err = filepath.WalkDir(dirPath, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			// Unreadable subtrees are skipped, not fatal.
			s.logger.Warn("directory walk error", "path", p, "error", walkErr)
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dirPath, p)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if excludedPath(rel) || !isImagePath(rel) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			s.logger.Warn("stat failed", "path", p, "error", err)
			return nil
		}
		s.files = append(s.files, dirImage{rel: rel, abs: p, size: info.Size(), mod: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(s.files) == 0 {
		return nil, fmt.Errorf("%s: %w", dirPath, ErrNoContent)
	}

	cmp := natord.New()
	natord.SortStableFunc(cmp, s.files, func(f dirImage) string { return f.rel })
	return s, nil
}

func (s *DirSource) entry(i int) (*dirImage, error) {
	if i < 0 || i >= len(s.files) {
		return nil, fmt.Errorf("image %d: %w", i, ErrNotFound)
	}
	return &s.files[i], nil
}

func (s *DirSource) Name() string     { return s.name }
func (s *DirSource) Path() string     { return s.path }
func (s *DirSource) Standalone() bool { return s.standalone }
func (s *DirSource) Count() int       { return len(s.files) }

// ImageData reads the file from disk on every call. Directory contents
// mutate underneath us, so nothing is cached.
func (s *DirSource) ImageData(i int) ([]byte, error) {
	f, err := s.entry(i)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.abs)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCannotOpen, f.abs, err)
	}
	return data, nil
}

func (s *DirSource) LoadImage(i int) (image.Image, error) {
	data, err := s.ImageData(i)
	if err != nil {
		return nil, err
	}
	return decodeImage(data)
}

func (s *DirSource) FileName(i int) (string, error) {
	f, err := s.entry(i)
	if err != nil {
		return "", err
	}
	return filepath.Base(f.abs), nil
}

func (s *DirSource) RelativePath(i int) (string, error) {
	f, err := s.entry(i)
	if err != nil {
		return "", err
	}
	return f.rel, nil
}

func (s *DirSource) ImageSize(i int) (Dimensions, error) {
	data, err := s.ImageData(i)
	if err != nil {
		return Dimensions{}, err
	}
	return s.measurer.Measure(data)
}

func (s *DirSource) FileSize(i int) (int64, error) {
	f, err := s.entry(i)
	if err != nil {
		return 0, err
	}
	return f.size, nil
}

func (s *DirSource) ImageFormat(i int) (string, error) {
	f, err := s.entry(i)
	if err != nil {
		return "", err
	}
	return formatLabel(f.rel), nil
}

func (s *DirSource) FileDate(i int) (time.Time, error) {
	f, err := s.entry(i)
	if err != nil {
		return time.Time{}, err
	}
	return f.mod, nil
}

// FileKey returns the content key for a standalone file and the location
// key for a folder.
func (s *DirSource) FileKey() (string, error) {
	if s.keyMemo != "" {
		return s.keyMemo, nil
	}
	var (
		key string
		err error
	)
	if s.standalone {
		key, err = keyForFile(s.path)
	} else {
		key, err = locationKey(s.path)
	}
	if err != nil {
		return "", err
	}
	s.keyMemo = key
	return key, nil
}

// ImageFileKey always uses the content strategy: individual files are
// recognized by their bytes.
func (s *DirSource) ImageFileKey(i int) (string, error) {
	f, err := s.entry(i)
	if err != nil {
		return "", err
	}
	return keyForFile(f.abs)
}

func (s *DirSource) Close() error { return nil }
