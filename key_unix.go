//go:build unix

package comicsource

import (
	"fmt"
	"os"
	"syscall"
)

// locationKey identifies a folder by inode and device. The key survives
// content changes but not a move to another volume.
func locationKey(path string) (string, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("location key: %w", err)
	}
	st, ok := fi.Sys().(*syscall.Stat_t)
	if !ok {
		return fallbackLocationKey(path)
	}
	return fmt.Sprintf("dir-%x-%x", uint64(st.Dev), st.Ino), nil
}
