// Package testutil builds container and image fixtures for tests.
package testutil

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"testing"

	zip "github.com/yeka/zip"
)

// ZipEntry describes one file to place in a test archive. A non-empty
// Password produces an AES-256 encrypted entry.
type ZipEntry struct {
	Name     string
	Data     []byte
	Password string
}

// ZipBytes builds a ZIP archive in memory.
func ZipBytes(tb testing.TB, entries []ZipEntry) []byte {
	tb.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, e := range entries {
		var (
			fw  io.Writer
			err error
		)
		if e.Password != "" {
			fw, err = w.Encrypt(e.Name, e.Password, zip.AES256Encryption)
		} else {
			fw, err = w.Create(e.Name)
		}
		if err != nil {
			tb.Fatalf("create zip entry %s: %v", e.Name, err)
		}
		if _, err := fw.Write(e.Data); err != nil {
			tb.Fatalf("write zip entry %s: %v", e.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		tb.Fatalf("close zip writer: %v", err)
	}
	return buf.Bytes()
}

// WriteZip builds a ZIP archive on disk.
func WriteZip(tb testing.TB, path string, entries []ZipEntry) {
	tb.Helper()
	if err := os.WriteFile(path, ZipBytes(tb, entries), 0o644); err != nil {
		tb.Fatalf("write zip %s: %v", path, err)
	}
}

// PNG returns a valid PNG image of the given dimensions.
func PNG(tb testing.TB, w, h int) []byte {
	tb.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		tb.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// JPEG returns a valid JPEG image of the given dimensions.
func JPEG(tb testing.TB, w, h int) []byte {
	tb.Helper()

	img := image.NewGray(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		tb.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}
