package comicsource

import (
	"fmt"
	"image"
	"log/slog"
	"os"
	"path"
	"strings"
	"time"

	"github.com/hollowleaf/comicsource/internal/natord"
)

// containerBase carries the state and capability methods shared by the
// three reader families. Concrete readers supply the extract function;
// everything above raw entry bytes lives here.
//
// The extraction cache is populated on first access and read thereafter.
// Population is not synchronized; a reader serves one caller at a time.
type containerBase struct {
	path          string
	name          string
	logger        *slog.Logger
	measurer      Measurer
	tempDir       string
	maxNestedSize int64

	images []Entry
	nested []Entry
	merged []MergedEntry

	needsPassword bool
	wrongPassword bool
	hasEncrypted  bool

	// extract returns the decompressed bytes of the entry with the given
	// container path. Assigned by the concrete reader.
	extract func(entryPath string) ([]byte, error)

	cache   map[string][]byte
	keyMemo string
}

func newContainerBase(filePath string, o *openOptions) containerBase {
	return containerBase{
		path:          filePath,
		name:          baseNameNoExt(filePath),
		logger:        o.logger,
		measurer:      o.measurer,
		tempDir:       o.tempDir,
		maxNestedSize: o.maxNestedSize,
		cache:         make(map[string][]byte),
	}
}

// populate classifies, filters, and natural-sorts the raw entry list,
// producing the image, nested-archive, and merged sequences. The sort is
// stable, so entries comparing equal keep enumeration order.
func (b *containerBase) populate(entries []Entry) {
	type kept struct {
		entry Entry
		kind  entryKind
	}
	var keep []kept
	for _, e := range entries {
		if e.IsDir {
			continue
		}
		if e.Encrypted {
			b.hasEncrypted = true
		}
		switch classifyEntry(e.Path) {
		case entryImage:
			keep = append(keep, kept{e, entryImage})
		case entryNested:
			keep = append(keep, kept{e, entryNested})
		}
	}

	cmp := natord.New()
	natord.SortStableFunc(cmp, keep, func(k kept) string { return k.entry.Path })

	for _, k := range keep {
		switch k.kind {
		case entryImage:
			b.merged = append(b.merged, MergedEntry{Name: k.entry.Path, Kind: EntryImage, Index: len(b.images)})
			b.images = append(b.images, k.entry)
		case entryNested:
			b.merged = append(b.merged, MergedEntry{Name: k.entry.Path, Kind: EntryNestedArchive, Index: len(b.nested)})
			b.nested = append(b.nested, k.entry)
		}
	}
}

// clearEntries drops all entries, used when a password failure turns the
// reader into a flag carrier the caller can retry with.
func (b *containerBase) clearEntries() {
	b.images, b.nested, b.merged = nil, nil, nil
}

func (b *containerBase) isEmpty() bool {
	return len(b.images) == 0 && len(b.nested) == 0
}

func (b *containerBase) imageEntry(i int) (*Entry, error) {
	if i < 0 || i >= len(b.images) {
		return nil, fmt.Errorf("image %d: %w", i, ErrNotFound)
	}
	return &b.images[i], nil
}

func (b *containerBase) nestedEntry(i int) (*Entry, error) {
	if i < 0 || i >= len(b.nested) {
		return nil, fmt.Errorf("nested archive %d: %w", i, ErrNotFound)
	}
	return &b.nested[i], nil
}

func (b *containerBase) Name() string     { return b.name }
func (b *containerBase) Path() string     { return b.path }
func (b *containerBase) Standalone() bool { return false }
func (b *containerBase) Count() int       { return len(b.images) }

func (b *containerBase) FileName(i int) (string, error) {
	e, err := b.imageEntry(i)
	if err != nil {
		return "", err
	}
	return path.Base(e.Path), nil
}

func (b *containerBase) RelativePath(i int) (string, error) {
	e, err := b.imageEntry(i)
	if err != nil {
		return "", err
	}
	return e.Path, nil
}

func (b *containerBase) FileSize(i int) (int64, error) {
	e, err := b.imageEntry(i)
	if err != nil {
		return 0, err
	}
	return e.Size, nil
}

func (b *containerBase) FileDate(i int) (time.Time, error) {
	e, err := b.imageEntry(i)
	if err != nil {
		return time.Time{}, err
	}
	if e.Modified.IsZero() {
		return time.Time{}, fmt.Errorf("image %d has no date: %w", i, ErrNotFound)
	}
	return e.Modified, nil
}

func (b *containerBase) ImageFormat(i int) (string, error) {
	e, err := b.imageEntry(i)
	if err != nil {
		return "", err
	}
	return formatLabel(e.Path), nil
}

func (b *containerBase) ImageData(i int) ([]byte, error) {
	e, err := b.imageEntry(i)
	if err != nil {
		return nil, err
	}
	return b.entryData(e.Path)
}

func (b *containerBase) entryData(entryPath string) ([]byte, error) {
	if data, ok := b.cache[entryPath]; ok {
		return data, nil
	}
	data, err := b.extract(entryPath)
	if err != nil {
		return nil, err
	}
	b.cache[entryPath] = data
	return data, nil
}

func (b *containerBase) ImageSize(i int) (Dimensions, error) {
	data, err := b.ImageData(i)
	if err != nil {
		return Dimensions{}, err
	}
	return b.measurer.Measure(data)
}

func (b *containerBase) LoadImage(i int) (image.Image, error) {
	data, err := b.ImageData(i)
	if err != nil {
		return nil, err
	}
	return decodeImage(data)
}

func (b *containerBase) ImageFileKey(i int) (string, error) {
	data, err := b.ImageData(i)
	if err != nil {
		return "", err
	}
	return keyForBytes(data), nil
}

func (b *containerBase) FileKey() (string, error) {
	if b.keyMemo != "" {
		return b.keyMemo, nil
	}
	key, err := keyForFile(b.path)
	if err != nil {
		return "", err
	}
	b.keyMemo = key
	return key, nil
}

func (b *containerBase) Entries() []MergedEntry { return b.merged }
func (b *containerBase) NestedCount() int       { return len(b.nested) }

func (b *containerBase) NestedName(i int) (string, error) {
	e, err := b.nestedEntry(i)
	if err != nil {
		return "", err
	}
	return e.Path, nil
}

// ExtractNested decompresses a nested archive to a private temporary
// file. The caller owns the file and must remove it.
func (b *containerBase) ExtractNested(i int) (string, error) {
	e, err := b.nestedEntry(i)
	if err != nil {
		return "", err
	}
	if b.maxNestedSize > 0 && e.Size > b.maxNestedSize {
		return "", fmt.Errorf("nested archive %s exceeds %d bytes: %w", e.Path, b.maxNestedSize, ErrCannotOpen)
	}
	data, err := b.extract(e.Path)
	if err != nil {
		return "", err
	}

	f, err := os.CreateTemp(b.tempDir, "comicsource-*"+path.Ext(e.Path))
	if err != nil {
		return "", fmt.Errorf("nested archive temp file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("write nested archive: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("write nested archive: %w", err)
	}
	return f.Name(), nil
}

func (b *containerBase) NeedsPassword() bool       { return b.needsPassword }
func (b *containerBase) WrongPassword() bool       { return b.wrongPassword }
func (b *containerBase) HasEncryptedEntries() bool { return b.hasEncrypted }

func (b *containerBase) Close() error { return nil }

// passwordShaped reports whether an error from a decompression library
// looks like a missing or bad password. Structured signals are preferred
// where the libraries expose them; this text check is the fallback.
func passwordShaped(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "password") || strings.Contains(msg, "encrypt")
}

// unsupportedShaped reports whether an error indicates a compression
// method the library does not implement. Not retryable.
func unsupportedShaped(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unsupported") || strings.Contains(msg, "unimplemented")
}
