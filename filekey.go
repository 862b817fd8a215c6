package comicsource

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/opencontainers/go-digest"
	"golang.org/x/sync/singleflight"
)

// keyHashLen is the number of digest hex characters kept in an identity key.
const keyHashLen = 16

// fileKeyPrefixSize bounds how much of an on-disk file is hashed for its
// identity key, so huge containers are not read end to end.
const fileKeyPrefixSize = 32 * 1024

// keyGroup dedups concurrent identity-key computation for the same path.
var keyGroup singleflight.Group

// keyForBytes derives the identity key of fully decompressed content.
// Identical bytes always yield the identical key, regardless of name.
func keyForBytes(data []byte) string {
	d := digest.SHA256.FromBytes(data)
	return fmt.Sprintf("%d-%s", len(data), d.Encoded()[:keyHashLen])
}

// fallbackLocationKey is the folder identity used when the platform
// exposes no inode numbers: a digest of the absolute path. Less tolerant
// of moves than the inode form, but stable across re-opens.
func fallbackLocationKey(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("location key: %w", err)
	}
	d := digest.SHA256.FromString(abs)
	return "dir-" + d.Encoded()[:keyHashLen], nil
}

// keyForFile derives the identity key of an on-disk file from its size
// and the digest of its leading 32 KiB.
func keyForFile(path string) (string, error) {
	v, err, _ := keyGroup.Do(path, func() (any, error) {
		f, err := os.Open(path)
		if err != nil {
			return "", fmt.Errorf("file key: %w", err)
		}
		defer f.Close()

		fi, err := f.Stat()
		if err != nil {
			return "", fmt.Errorf("file key: %w", err)
		}

		prefix, err := io.ReadAll(io.LimitReader(f, fileKeyPrefixSize))
		if err != nil {
			return "", fmt.Errorf("file key: %w", err)
		}
		d := digest.SHA256.FromBytes(prefix)
		return fmt.Sprintf("%d-%s", fi.Size(), d.Encoded()[:keyHashLen]), nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}
