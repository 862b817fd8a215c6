package comicsource

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// The End-Of-Central-Directory record sits in the last
// min(fileSize, 65557) bytes of a ZIP file: a 22-byte fixed record plus
// an up-to-65535-byte comment.
const (
	eocdSignature  = 0x06054b50
	eocdRecordLen  = 22
	eocdMaxScan    = eocdRecordLen + 0xFFFF
	eocdCountShift = 10 // offset of the 16-bit total-entries field
)

var errNoEOCD = errors.New("comicsource: no end-of-central-directory record")

// declaredEntryCount reads the total-entries field of a ZIP file's EOCD
// record. ZIP libraries silently omit entries they cannot decrypt;
// comparing this declared count against the enumerable count exposes the
// blind spot.
func declaredEntryCount(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("eocd probe: %w", err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("eocd probe: %w", err)
	}

	scan := int64(eocdMaxScan)
	if fi.Size() < scan {
		scan = fi.Size()
	}
	buf := make([]byte, scan)
	if _, err := f.ReadAt(buf, fi.Size()-scan); err != nil && err != io.EOF {
		return 0, fmt.Errorf("eocd probe: %w", err)
	}
	return findEOCDCount(buf)
}

// findEOCDCount scans buf backward for the EOCD signature 50 4B 05 06 and
// returns the little-endian 16-bit total-entries field at +10 from the
// signature start.
func findEOCDCount(buf []byte) (int, error) {
	for i := len(buf) - eocdRecordLen; i >= 0; i-- {
		if binary.LittleEndian.Uint32(buf[i:]) != eocdSignature {
			continue
		}
		return int(binary.LittleEndian.Uint16(buf[i+eocdCountShift:])), nil
	}
	return 0, errNoEOCD
}
