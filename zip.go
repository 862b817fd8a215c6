package comicsource

import (
	"context"
	"fmt"
	"io"

	zip "github.com/yeka/zip"
)

// zipReader serves the ZIP family (zip, cbz). Extraction is lazy: entry
// bytes are decompressed on first access and cached.
type zipReader struct {
	containerBase
	rc       *zip.ReadCloser
	files    map[string]*zip.File
	password string
}

var _ ContainerReader = (*zipReader)(nil)

// openZip opens a ZIP-family container.
//
// The zip library can enumerate encrypted entries but other ZIP readers
// silently drop them, so the entry count declared by the EOCD record is
// probed as well: a declared count above the enumerable count means
// encrypted entries were hidden. An encrypted container opened without a
// password comes back with NeedsPassword set and zero entries rather
// than failing, so the caller can retry without re-parsing logic.
func openZip(ctx context.Context, filePath string, o *openOptions, password string) (*zipReader, error) {
	rc, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCannotOpen, filePath, err)
	}

	r := &zipReader{
		containerBase: newContainerBase(filePath, o),
		rc:            rc,
		files:         make(map[string]*zip.File, len(rc.File)),
		password:      password,
	}
	r.extract = r.extractEntry

	declared, probeErr := declaredEntryCount(filePath)
	if probeErr != nil {
		r.logger.Debug("eocd probe failed", "path", filePath, "error", probeErr)
	} else if declared > len(rc.File) {
		r.hasEncrypted = true
	}

	o.report(PhaseBuildingList)

	entries := make([]Entry, 0, len(rc.File))
	for _, f := range rc.File {
		if f.IsEncrypted() && password != "" {
			f.SetPassword(password)
		}
		fi := f.FileInfo()
		entries = append(entries, Entry{
			Path:      f.Name,
			IsDir:     fi.IsDir(),
			Size:      int64(f.UncompressedSize64),
			Modified:  fi.ModTime(),
			Encrypted: f.IsEncrypted(),
		})
		r.files[f.Name] = f
	}
	r.populate(entries)

	if err := ctx.Err(); err != nil {
		rc.Close()
		return nil, err
	}

	if password == "" && r.hasEncrypted && (len(r.images) == 0 || r.allImagesEncrypted()) {
		// Entirely locked, not just carrying locked extras.
		r.needsPassword = true
		r.clearEntries()
		return r, nil
	}
	if password != "" {
		if err := r.verifyPassword(); err != nil {
			r.logger.Debug("zip password rejected", "path", filePath, "error", err)
			r.wrongPassword = true
			r.clearEntries()
			return r, nil
		}
	}
	return r, nil
}

// allImagesEncrypted reports whether every image entry is locked.
func (r *zipReader) allImagesEncrypted() bool {
	if len(r.images) == 0 {
		return false
	}
	for i := range r.images {
		if !r.images[i].Encrypted {
			return false
		}
	}
	return true
}

// verifyPassword decrypts the first encrypted kept entry in full. The
// result lands in the extraction cache, so verification is not wasted
// work. A container with no encrypted entries verifies trivially.
func (r *zipReader) verifyPassword() error {
	for _, m := range r.merged {
		f, ok := r.files[m.Name]
		if !ok || !f.IsEncrypted() {
			continue
		}
		_, err := r.entryData(m.Name)
		return err
	}
	return nil
}

func (r *zipReader) extractEntry(entryPath string) ([]byte, error) {
	f, ok := r.files[entryPath]
	if !ok {
		return nil, fmt.Errorf("entry %s: %w", entryPath, ErrNotFound)
	}
	if f.IsEncrypted() && r.password == "" {
		return nil, fmt.Errorf("entry %s: %w", entryPath, ErrPasswordRequired)
	}

	rd, err := f.Open()
	if err != nil {
		return nil, r.wrapEntryErr(f, err)
	}
	defer rd.Close()

	data, err := io.ReadAll(rd)
	if err != nil {
		return nil, r.wrapEntryErr(f, err)
	}
	return data, nil
}

func (r *zipReader) wrapEntryErr(f *zip.File, err error) error {
	if f.IsEncrypted() && r.password != "" {
		return fmt.Errorf("entry %s: %w: %v", f.Name, ErrWrongPassword, err)
	}
	return fmt.Errorf("entry %s: %w: %v", f.Name, ErrCannotOpen, err)
}

func (r *zipReader) Close() error {
	return r.rc.Close()
}
