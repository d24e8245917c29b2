package services

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/richardwesthaver/btrfs-progs/internal/interfaces"
)

// DeviceFile provides read-only access to one block device or image
// file for the duration of a dump run.
type DeviceFile struct {
	file *os.File
	path string
}

// OpenDevice opens a device path read-only.
func OpenDevice(path string) (*DeviceFile, error) {
	if path == "" {
		return nil, fmt.Errorf("device path cannot be empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", path, err)
	}

	return &DeviceFile{file: file, path: path}, nil
}

// Path returns the filename the device was opened from.
func (d *DeviceFile) Path() string {
	return d.path
}

// ReadAt reads from the underlying descriptor at the given offset.
func (d *DeviceFile) ReadAt(p []byte, off int64) (int, error) {
	return d.file.ReadAt(p, off)
}

// EndOffset reports the device's end offset. Only block devices and
// regular files permit size determination; for any other descriptor
// type (pipes, character devices) ok is false and the caller must
// attempt the read regardless of the candidate offset.
func (d *DeviceFile) EndOffset() (uint64, bool, error) {
	fi, err := d.file.Stat()
	if err != nil {
		return 0, false, fmt.Errorf("unable to stat %s: %w", d.path, err)
	}

	mode := fi.Mode()
	isBlock := mode&os.ModeDevice != 0 && mode&os.ModeCharDevice == 0
	if !mode.IsRegular() && !isBlock {
		return 0, false, nil
	}

	// Stat reports zero size for block devices, so seek to the end in
	// both cases, the way the rest of the btrfs tooling does.
	end, err := d.file.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, false, fmt.Errorf("cannot read end of file %s: %w", d.path, err)
	}

	return uint64(end), true, nil
}

// ReadRecord reads a fixed-size record at the given offset. A clean
// zero-byte read means the record is absent (device too small); a
// short nonzero read or any other failure is an I/O error.
func (d *DeviceFile) ReadRecord(offset uint64, size int) ([]byte, interfaces.RecordReadOutcome, error) {
	buf := make([]byte, size)

	n, err := d.file.ReadAt(buf, int64(offset))
	if n == size {
		return buf, interfaces.RecordPresent, nil
	}

	if n == 0 && (err == nil || errors.Is(err, io.EOF)) {
		return nil, interfaces.RecordAbsent, nil
	}

	if err == nil || errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return nil, interfaces.RecordAbsent, fmt.Errorf("failed to read the superblock on %s at %d: read %d/%d bytes: %w",
		d.path, offset, n, size, err)
}

// Close closes the underlying descriptor.
func (d *DeviceFile) Close() error {
	if d.file != nil {
		return d.file.Close()
	}
	return nil
}
