package comicsource

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/hollowleaf/comicsource/internal/natord"
)

// Segment is one contiguous sub-range of a composite source, backed by
// exactly one underlying image source. A segment wrapping a nested
// archive owns both its source and the temporary file the archive was
// extracted to; both are released on Close.
type Segment struct {
	source     ImageSource
	name       string
	tempPath   string
	ownsSource bool
}

// Name returns the segment's display name.
func (s *Segment) Name() string { return s.name }

// Source returns the image source backing the segment.
func (s *Segment) Source() ImageSource { return s.source }

// Close releases the segment's owned resources. Removing an
// already-removed temp file is not an error.
func (s *Segment) Close() error {
	var errs []error
	if s.ownsSource {
		if err := s.source.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.tempPath != "" {
		if err := os.Remove(s.tempPath); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// CompositeImageSource flattens an ordered sequence of segments into one
// globally-indexed image sequence. Global indices are contiguous in
// [0, Count()); the offset table is rebuilt on every append during
// building and frozen once the open returns.
type CompositeImageSource struct {
	reader   ContainerReader
	logger   *slog.Logger
	segments []*Segment
	offsets  []int
	total    int
}

var _ ImageSource = (*CompositeImageSource)(nil)

func newComposite(reader ContainerReader, logger *slog.Logger) *CompositeImageSource {
	return &CompositeImageSource{reader: reader, logger: logger}
}

func (c *CompositeImageSource) append(seg *Segment) {
	c.segments = append(c.segments, seg)
	c.offsets = append(c.offsets, c.total)
	c.total += seg.source.Count()
}

// locate maps a global index to (segment, local index).
func (c *CompositeImageSource) locate(i int) (*Segment, int, error) {
	if i < 0 || i >= c.total {
		return nil, 0, fmt.Errorf("image %d: %w", i, ErrNotFound)
	}
	k := sort.Search(len(c.offsets), func(n int) bool { return c.offsets[n] > i }) - 1
	return c.segments[k], i - c.offsets[k], nil
}

// Segments returns the ordered segments of the composite.
func (c *CompositeImageSource) Segments() []*Segment { return c.segments }

func (c *CompositeImageSource) Name() string     { return c.reader.Name() }
func (c *CompositeImageSource) Path() string     { return c.reader.Path() }
func (c *CompositeImageSource) Standalone() bool { return false }
func (c *CompositeImageSource) Count() int       { return c.total }

func (c *CompositeImageSource) LoadImage(i int) (image.Image, error) {
	seg, at, err := c.locate(i)
	if err != nil {
		return nil, err
	}
	return seg.source.LoadImage(at)
}

func (c *CompositeImageSource) FileName(i int) (string, error) {
	seg, at, err := c.locate(i)
	if err != nil {
		return "", err
	}
	return seg.source.FileName(at)
}

func (c *CompositeImageSource) RelativePath(i int) (string, error) {
	seg, at, err := c.locate(i)
	if err != nil {
		return "", err
	}
	return seg.source.RelativePath(at)
}

func (c *CompositeImageSource) ImageSize(i int) (Dimensions, error) {
	seg, at, err := c.locate(i)
	if err != nil {
		return Dimensions{}, err
	}
	return seg.source.ImageSize(at)
}

func (c *CompositeImageSource) FileSize(i int) (int64, error) {
	seg, at, err := c.locate(i)
	if err != nil {
		return 0, err
	}
	return seg.source.FileSize(at)
}

func (c *CompositeImageSource) ImageFormat(i int) (string, error) {
	seg, at, err := c.locate(i)
	if err != nil {
		return "", err
	}
	return seg.source.ImageFormat(at)
}

func (c *CompositeImageSource) FileDate(i int) (time.Time, error) {
	seg, at, err := c.locate(i)
	if err != nil {
		return time.Time{}, err
	}
	return seg.source.FileDate(at)
}

func (c *CompositeImageSource) FileKey() (string, error) {
	return c.reader.FileKey()
}

func (c *CompositeImageSource) ImageFileKey(i int) (string, error) {
	seg, at, err := c.locate(i)
	if err != nil {
		return "", err
	}
	return seg.source.ImageFileKey(at)
}

// Close closes every segment, deleting owned temporary files, then the
// underlying reader.
func (c *CompositeImageSource) Close() error {
	var errs []error
	for _, seg := range c.segments {
		if err := seg.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := c.reader.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// cleanupSegments releases segments without touching the reader, for
// build-time failure paths where the caller still owns the reader.
func (c *CompositeImageSource) cleanupSegments() {
	for _, seg := range c.segments {
		if err := seg.Close(); err != nil {
			c.logger.Warn("segment cleanup failed", "segment", seg.name, "error", err)
		}
	}
}

// buildComposite turns an open reader into the source the caller pages
// through. A flat container comes back as the reader itself; nesting or
// multiple directories produce a composite.
func buildComposite(ctx context.Context, r ContainerReader, o *openOptions) (ImageSource, error) {
	if r.NestedCount() == 0 {
		return segmentByDirectory(r, o)
	}

	o.report(PhaseExtracting)
	comp := newComposite(r, o.logger)

	var pending []int
	flush := func() {
		if len(pending) == 0 {
			return
		}
		indices := make([]int, len(pending))
		copy(indices, pending)
		pending = pending[:0]
		comp.append(&Segment{
			source: newPartialSource(r, r.Name(), indices),
			name:   r.Name(),
		})
	}

	children := 0
	for _, m := range r.Entries() {
		if err := ctx.Err(); err != nil {
			comp.cleanupSegments()
			return nil, err
		}
		if m.Kind == EntryImage {
			pending = append(pending, m.Index)
			continue
		}

		// A nested archive ends the current image run.
		flush()
		tempPath, err := r.ExtractNested(m.Index)
		if err != nil {
			o.logger.Warn("nested archive skipped", "entry", m.Name, "error", err)
			continue
		}
		child, err := openPlainContainer(ctx, tempPath, o)
		if err != nil {
			// One bad nested archive must not abort the composite, but
			// its temp file must not leak either.
			os.Remove(tempPath)
			o.logger.Warn("nested archive skipped", "entry", m.Name, "error", err)
			continue
		}
		comp.append(&Segment{
			source:     child,
			name:       baseNameNoExt(m.Name),
			tempPath:   tempPath,
			ownsSource: true,
		})
		children++
	}
	flush()

	if children == 0 {
		// Every nested archive was skipped; the reader alone is the
		// better source.
		comp.cleanupSegments()
		return segmentByDirectory(r, o)
	}
	return comp, nil
}

// segmentByDirectory groups a flat container's images by containing
// directory. A single distinct directory needs no segmentation and the
// plain reader is returned as-is.
func segmentByDirectory(r ContainerReader, o *openOptions) (ImageSource, error) {
	groups := make(map[string][]int)
	for i := 0; i < r.Count(); i++ {
		rel, err := r.RelativePath(i)
		if err != nil {
			return nil, err
		}
		dir := dirOf(rel)
		groups[dir] = append(groups[dir], i)
	}
	if len(groups) <= 1 {
		return r, nil
	}

	dirs := make([]string, 0, len(groups))
	for dir := range groups {
		dirs = append(dirs, dir)
	}
	natord.New().SortStrings(dirs)

	comp := newComposite(r, o.logger)
	for _, dir := range dirs {
		name := dir
		if name == "/" {
			name = r.Name()
		}
		comp.append(&Segment{
			source: newPartialSource(r, name, groups[dir]),
			name:   name,
		})
	}
	return comp, nil
}

// dirOf returns the directory part of a container path; entries at the
// container root share the "/" group.
func dirOf(rel string) string {
	if i := strings.LastIndex(rel, "/"); i >= 0 {
		return rel[:i]
	}
	return "/"
}
