package comicsource

import (
	"fmt"
	"image"
	"time"
)

// partialSource is a segment-restricted view over a shared reader. Every
// call passes straight through after translating the segment-local index
// through the indices table, so one physical reader serves many segments
// without duplicating state. The partial does not own the reader; the
// enclosing composite closes it exactly once.
type partialSource struct {
	reader  ContainerReader
	name    string
	indices []int
}

var _ ImageSource = (*partialSource)(nil)

func newPartialSource(reader ContainerReader, name string, indices []int) *partialSource {
	return &partialSource{reader: reader, name: name, indices: indices}
}

// translate maps a segment-local index to the reader's original index.
// Out-of-range indices fail, never panic.
func (p *partialSource) translate(i int) (int, error) {
	if i < 0 || i >= len(p.indices) {
		return 0, fmt.Errorf("segment index %d: %w", i, ErrNotFound)
	}
	return p.indices[i], nil
}

func (p *partialSource) Name() string     { return p.name }
func (p *partialSource) Path() string     { return p.reader.Path() }
func (p *partialSource) Standalone() bool { return false }
func (p *partialSource) Count() int       { return len(p.indices) }

func (p *partialSource) LoadImage(i int) (image.Image, error) {
	at, err := p.translate(i)
	if err != nil {
		return nil, err
	}
	return p.reader.LoadImage(at)
}

func (p *partialSource) FileName(i int) (string, error) {
	at, err := p.translate(i)
	if err != nil {
		return "", err
	}
	return p.reader.FileName(at)
}

func (p *partialSource) RelativePath(i int) (string, error) {
	at, err := p.translate(i)
	if err != nil {
		return "", err
	}
	return p.reader.RelativePath(at)
}

func (p *partialSource) ImageSize(i int) (Dimensions, error) {
	at, err := p.translate(i)
	if err != nil {
		return Dimensions{}, err
	}
	return p.reader.ImageSize(at)
}

func (p *partialSource) FileSize(i int) (int64, error) {
	at, err := p.translate(i)
	if err != nil {
		return 0, err
	}
	return p.reader.FileSize(at)
}

func (p *partialSource) ImageFormat(i int) (string, error) {
	at, err := p.translate(i)
	if err != nil {
		return "", err
	}
	return p.reader.ImageFormat(at)
}

func (p *partialSource) FileDate(i int) (time.Time, error) {
	at, err := p.translate(i)
	if err != nil {
		return time.Time{}, err
	}
	return p.reader.FileDate(at)
}

func (p *partialSource) FileKey() (string, error) {
	return p.reader.FileKey()
}

func (p *partialSource) ImageFileKey(i int) (string, error) {
	at, err := p.translate(i)
	if err != nil {
		return "", err
	}
	return p.reader.ImageFileKey(at)
}

// Close is a no-op: the reader is owned by the enclosing composite.
func (p *partialSource) Close() error { return nil }
