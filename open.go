package comicsource

import (
	"context"
	"fmt"
)

// Open opens the container or directory at path and returns its flattened
// image source. The reader family is selected by extension: zip/cbz,
// rar/cbr, 7z/cb7; anything else is treated as a filesystem source.
//
// Open blocks on file I/O and decompression and should be called off any
// latency-sensitive goroutine. Phase transitions are reported through the
// sink installed with WithPhaseFunc. A caller that abandons an in-flight
// Open simply discards the result; no temp file exists until a nested
// archive is actually extracted, and those are owned by the returned
// source.
//
// When the container is encrypted and no usable password is available,
// Open returns the empty source together with ErrPasswordRequired or
// ErrWrongPassword; the source's NeedsPassword/WrongPassword flags
// distinguish "never tried" from "tried and failed". Re-invoke with
// WithPassword to retry.
func Open(ctx context.Context, path string, opts ...Option) (ImageSource, error) {
	o := newOpenOptions(opts)

	kind := containerKindOf(path)
	if kind == kindNone {
		o.report(PhaseOpening)
		src, err := openDir(ctx, path, o)
		if err != nil {
			return nil, err
		}
		o.report(PhaseDone)
		return src, nil
	}

	password, fromStore := o.resolvePassword(path)

	o.report(PhaseOpening)
	r, err := openContainer(ctx, kind, path, o, password)
	if err != nil {
		return nil, err
	}

	switch {
	case r.NeedsPassword():
		return r, fmt.Errorf("%s: %w", path, ErrPasswordRequired)
	case r.WrongPassword():
		if fromStore && o.creds != nil {
			// The saved password no longer opens this file.
			o.creds.Delete(path)
		}
		return r, fmt.Errorf("%s: %w", path, ErrWrongPassword)
	}

	if password != "" && !fromStore && o.creds != nil {
		if err := o.creds.Save(path, password); err != nil {
			o.logger.Warn("saving password failed", "error", err)
		}
	}

	src, err := buildComposite(ctx, r, o)
	if err != nil {
		r.Close()
		return nil, err
	}
	o.report(PhaseDone)
	return src, nil
}

// resolvePassword picks the explicit password if one was set, otherwise
// consults the credential store.
func (o *openOptions) resolvePassword(path string) (password string, fromStore bool) {
	if o.passwordSet {
		return o.password, false
	}
	if o.creds != nil {
		if saved, ok := o.creds.Get(path); ok {
			return saved, true
		}
	}
	return "", false
}

// openContainer constructs the family reader and applies the shared
// success rule: a container with zero images and zero nested archives is
// a hard failure even when well-formed.
func openContainer(ctx context.Context, kind containerKind, path string, o *openOptions, password string) (ContainerReader, error) {
	var (
		r   ContainerReader
		err error
	)
	switch kind {
	case kindZip:
		r, err = openZip(ctx, path, o, password)
	case kindRar:
		r, err = openRar(ctx, path, o, password)
	case kindSevenZip:
		r, err = openSevenZip(ctx, path, o, password)
	default:
		return nil, fmt.Errorf("%w: %s: not a supported container", ErrCannotOpen, path)
	}
	if err != nil {
		return nil, err
	}
	if r.NeedsPassword() || r.WrongPassword() {
		return r, nil
	}
	if r.Count() == 0 && r.NestedCount() == 0 {
		r.Close()
		return nil, fmt.Errorf("%s: %w", path, ErrNoContent)
	}
	return r, nil
}

// openPlainContainer opens a nested archive one level down. The result
// is never itself flattened: an archive found inside a nested archive is
// served by a plain reader, bounding recursion depth to two. Password
// flags are failures here, because there is no caller to retry a nested
// archive.
func openPlainContainer(ctx context.Context, path string, o *openOptions) (ContainerReader, error) {
	kind := containerKindOf(path)
	if kind == kindNone {
		return nil, fmt.Errorf("%w: %s: not a supported container", ErrCannotOpen, path)
	}

	nested := *o
	nested.phase = nil

	r, err := openContainer(ctx, kind, path, &nested, "")
	if err != nil {
		return nil, err
	}
	if r.NeedsPassword() {
		r.Close()
		return nil, fmt.Errorf("%s: %w", path, ErrPasswordRequired)
	}
	return r, nil
}
