//go:build !unix

package comicsource

// locationKey identifies a folder where inode numbers are unavailable.
func locationKey(path string) (string, error) {
	return fallbackLocationKey(path)
}
