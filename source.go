package comicsource

import (
	"errors"
	"image"
	"time"
)

// Sentinel errors.
var (
	// ErrCannotOpen is returned when a container is malformed or unreadable.
	ErrCannotOpen = errors.New("comicsource: cannot open container")

	// ErrPasswordRequired is returned when a container is encrypted and no
	// password was supplied. The open is recoverable: re-invoke with
	// WithPassword.
	ErrPasswordRequired = errors.New("comicsource: password required")

	// ErrWrongPassword is returned when the supplied password failed to
	// decrypt the container.
	ErrWrongPassword = errors.New("comicsource: wrong password")

	// ErrUnsupportedCompression is returned when an entry uses a
	// compression method the decompression library does not implement.
	// The container cannot be opened by retrying.
	ErrUnsupportedCompression = errors.New("comicsource: unsupported compression method")

	// ErrNoContent is returned when a container parses cleanly but holds
	// no images and no nested archives.
	ErrNoContent = errors.New("comicsource: no displayable content")

	// ErrNotFound is returned for out-of-range indices and missing
	// per-image metadata.
	ErrNotFound = errors.New("comicsource: not found")
)

// Dimensions holds pixel dimensions of an encoded image.
type Dimensions struct {
	Width  int
	Height int
}

// ImageSource is the uniform capability surface consumed by the view
// layer. Every opened container, directory, composite, and segment
// implements it.
//
// Indices are dense in [0, Count()). Methods taking an index return
// ErrNotFound for out-of-range values; they never panic. Implementations
// are not safe for concurrent use.
type ImageSource interface {
	// Name returns the display name of the source, typically the
	// container or directory base name without extension.
	Name() string

	// Path returns the filesystem path backing the source, if any.
	Path() string

	// Standalone reports whether the source wraps a single loose image
	// file rather than a container or directory.
	Standalone() bool

	// Count returns the number of images.
	Count() int

	// LoadImage decodes the image at the given index.
	LoadImage(i int) (image.Image, error)

	// FileName returns the base file name of the image.
	FileName(i int) (string, error)

	// RelativePath returns the image's path within the source.
	RelativePath(i int) (string, error)

	// ImageSize returns the image's pixel dimensions without decoding
	// the full bitmap.
	ImageSize(i int) (Dimensions, error)

	// FileSize returns the image's uncompressed byte size.
	FileSize(i int) (int64, error)

	// ImageFormat returns a human-readable format label derived from the
	// image's extension ("JPEG", "PNG", ...).
	ImageFormat(i int) (string, error)

	// FileDate returns the image's modification time. ErrNotFound is
	// returned when the container does not record one.
	FileDate(i int) (time.Time, error)

	// FileKey returns the identity key of the whole source. Keys derived
	// from content survive renames; keys derived from location survive
	// content changes. See DirSource for the folder strategy.
	FileKey() (string, error)

	// ImageFileKey returns the content-derived identity key of one image.
	ImageFileKey(i int) (string, error)

	// Close releases every resource the source owns, including temporary
	// files created for nested archives.
	Close() error
}

// EntryKind classifies a kept container entry.
type EntryKind uint8

const (
	// EntryImage is an entry whose extension is on the image allow-list.
	EntryImage EntryKind = iota

	// EntryNestedArchive is an entry that is itself a supported container.
	EntryNestedArchive
)

// MergedEntry is one element of a container's natural-order entry list,
// images and nested archives interleaved. Index points into the
// corresponding image or nested-archive sequence.
type MergedEntry struct {
	Name  string
	Kind  EntryKind
	Index int
}

// ContainerReader extends ImageSource with the container-specific
// capabilities the composite builder needs: raw entry access, nested
// archive extraction, and password state.
type ContainerReader interface {
	ImageSource

	// ImageData returns the raw encoded bytes of the image at the index.
	ImageData(i int) ([]byte, error)

	// Entries returns the natural-order merge of all kept entries.
	// The returned slice is owned by the reader and must not be mutated.
	Entries() []MergedEntry

	// NestedCount returns the number of nested archive entries.
	NestedCount() int

	// NestedName returns the path of the nested archive at the index.
	NestedName(i int) (string, error)

	// ExtractNested decompresses the nested archive at the index to a
	// temporary file and returns its path. The caller owns the file.
	ExtractNested(i int) (string, error)

	// NeedsPassword reports that the container is encrypted and was
	// opened without a password. The reader holds zero entries.
	NeedsPassword() bool

	// WrongPassword reports that a password was supplied and rejected,
	// as opposed to never tried.
	WrongPassword() bool

	// HasEncryptedEntries reports that at least some entries are
	// encrypted, whether or not the container as a whole opened.
	HasEncryptedEntries() bool
}

// Entry is one logical file record read from a container.
type Entry struct {
	// Path is the entry's path within the container, slash-separated.
	Path string

	// IsDir marks directory records, which are always dropped.
	IsDir bool

	// Size is the uncompressed size in bytes.
	Size int64

	// Modified is the recorded modification time, zero when the
	// container does not store one.
	Modified time.Time

	// Encrypted marks entries the container declares as encrypted.
	Encrypted bool
}
