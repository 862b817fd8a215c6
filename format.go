package comicsource

import (
	"path"
	"strings"
)

// entryKind is the raw classification of a container entry name before
// the merged list is built.
type entryKind uint8

const (
	entryIgnored entryKind = iota
	entryImage
	entryNested
)

// imageExts is the fixed allow-list of displayable image extensions.
var imageExts = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {},
	".webp": {}, ".jp2": {}, ".j2k": {},
}

// nestedExts is the fixed allow-list of nested container extensions.
var nestedExts = map[string]struct{}{
	".zip": {}, ".cbz": {}, ".rar": {}, ".cbr": {}, ".7z": {}, ".cb7": {},
}

// formatLabels maps image extensions (without dot) to display labels.
// Extensions outside the table are uppercased as-is.
var formatLabels = map[string]string{
	"jpg":  "JPEG",
	"jpeg": "JPEG",
	"png":  "PNG",
	"gif":  "GIF",
	"webp": "WebP",
	"bmp":  "BMP",
	"tiff": "TIFF",
	"tif":  "TIFF",
	"heic": "HEIC",
	"heif": "HEIC",
	"jp2":  "JPEG 2000",
	"j2k":  "JPEG 2000",
}

// classifyEntry decides what to do with a container entry name.
// Platform metadata directories, dotfiles, and AppleDouble "._" resource
// forks are ignored regardless of extension.
func classifyEntry(name string) entryKind {
	if excludedPath(name) {
		return entryIgnored
	}
	ext := strings.ToLower(path.Ext(name))
	if _, ok := imageExts[ext]; ok {
		return entryImage
	}
	if _, ok := nestedExts[ext]; ok {
		return entryNested
	}
	return entryIgnored
}

// excludedPath reports whether any path component is platform noise.
func excludedPath(name string) bool {
	name = strings.TrimPrefix(strings.ReplaceAll(name, `\`, "/"), "/")
	for _, part := range strings.Split(name, "/") {
		if part == "__MACOSX" {
			return true
		}
		if strings.HasPrefix(part, ".") && part != "." && part != ".." {
			return true
		}
		if strings.HasPrefix(part, "._") {
			return true
		}
	}
	return false
}

// isImagePath reports whether the name carries an allow-listed image
// extension, ignoring the exclusion filter.
func isImagePath(name string) bool {
	_, ok := imageExts[strings.ToLower(path.Ext(name))]
	return ok
}

// formatLabel derives the display label for an image name from its
// extension alone.
func formatLabel(name string) string {
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(name)), ".")
	if label, ok := formatLabels[ext]; ok {
		return label
	}
	return strings.ToUpper(ext)
}

// containerKind identifies the reader family for a file extension.
type containerKind uint8

const (
	kindNone containerKind = iota
	kindZip
	kindRar
	kindSevenZip
)

// containerKindOf maps a path to its reader family. Paths with other
// extensions are treated as filesystem sources.
func containerKindOf(name string) containerKind {
	switch strings.ToLower(path.Ext(strings.ReplaceAll(name, `\`, "/"))) {
	case ".zip", ".cbz":
		return kindZip
	case ".rar", ".cbr":
		return kindRar
	case ".7z", ".cb7":
		return kindSevenZip
	default:
		return kindNone
	}
}

// baseNameNoExt returns the final path component without its extension,
// used for source and segment display names.
func baseNameNoExt(name string) string {
	base := path.Base(strings.ReplaceAll(name, `\`, "/"))
	return strings.TrimSuffix(base, path.Ext(base))
}
