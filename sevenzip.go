package comicsource

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/bodgit/sevenzip"
)

// sevenZipReader serves the 7z family (7z, cb7). The library exposes no
// cheap per-entry random access, so the whole container is decompressed
// into the entry cache during open. That eager-at-open pass is a genuine
// constraint of the format's solid streams, not a stylistic choice; ZIP
// and RAR stay lazy.
type sevenZipReader struct {
	containerBase
	password string
}

var _ ContainerReader = (*sevenZipReader)(nil)

func openSevenZip(ctx context.Context, filePath string, o *openOptions, password string) (*sevenZipReader, error) {
	r := &sevenZipReader{
		containerBase: newContainerBase(filePath, o),
		password:      password,
	}
	r.extract = r.cacheOnly

	var (
		rc  *sevenzip.ReadCloser
		err error
	)
	if password != "" {
		rc, err = sevenzip.OpenReaderWithPassword(filePath, password)
	} else {
		rc, err = sevenzip.OpenReader(filePath)
	}
	if err != nil {
		if passwordShaped(err) {
			r.flagPasswordFailure()
			return r, nil
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrCannotOpen, filePath, err)
	}
	defer rc.Close()

	o.report(PhaseBuildingList)

	entries := make([]Entry, 0, len(rc.File))
	for _, f := range rc.File {
		entries = append(entries, Entry{
			Path:     sevenZipPath(f.Name),
			IsDir:    f.FileInfo().IsDir(),
			Size:     int64(f.UncompressedSize),
			Modified: f.Modified,
		})
	}
	r.populate(entries)
	if r.isEmpty() {
		return r, nil
	}

	// Eager pass: decompress every kept entry now.
	o.report(PhaseExtracting)
	keep := make(map[string]struct{}, len(r.merged))
	for _, m := range r.merged {
		keep[m.Name] = struct{}{}
	}
	for _, f := range rc.File {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := sevenZipPath(f.Name)
		if _, ok := keep[name]; ok {
			if err := r.cacheFile(name, f); err != nil {
				return r.eagerFailure(name, err)
			}
		}
	}
	return r, nil
}

func (r *sevenZipReader) cacheFile(name string, f *sevenzip.File) error {
	rd, err := f.Open()
	if err != nil {
		return err
	}
	defer rd.Close()

	data, err := io.ReadAll(rd)
	if err != nil {
		return err
	}
	r.cache[name] = data
	return nil
}

// eagerFailure classifies a decompression error from the eager pass.
// Unsupported compression filters and password failures are terminal for
// the whole container, and must be reported rather than silently
// dropping the entry.
func (r *sevenZipReader) eagerFailure(name string, err error) (*sevenZipReader, error) {
	switch {
	case unsupportedShaped(err):
		return nil, fmt.Errorf("entry %s: %w: %v", name, ErrUnsupportedCompression, err)
	case passwordShaped(err) || badDataShaped(err):
		r.flagPasswordFailure()
		return r, nil
	default:
		return nil, fmt.Errorf("entry %s: %w: %v", name, ErrCannotOpen, err)
	}
}

func (r *sevenZipReader) flagPasswordFailure() {
	r.hasEncrypted = true
	if r.password == "" {
		r.needsPassword = true
	} else {
		r.wrongPassword = true
	}
	r.clearEntries()
	r.cache = make(map[string][]byte)
}

// cacheOnly is the extract function after the eager pass: every readable
// entry is already in the cache, so a miss is a hard absence.
func (r *sevenZipReader) cacheOnly(entryPath string) ([]byte, error) {
	return nil, fmt.Errorf("entry %s not extracted: %w", entryPath, ErrNotFound)
}

func sevenZipPath(name string) string {
	return strings.ReplaceAll(name, `\`, "/")
}
