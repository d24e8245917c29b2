package interfaces

import "io"

// RecordReadOutcome is the three-way result of attempting to read a
// superblock record from a device. Absence is not an error: small
// devices legitimately lack the higher mirrors.
type RecordReadOutcome int

const (
	// RecordPresent means the full record was read.
	RecordPresent RecordReadOutcome = iota
	// RecordAbsent means the candidate offset lies beyond the device
	// end, or the device returned a clean zero-byte read there.
	RecordAbsent
)

// DeviceReader provides sized, offset-addressed access to one open
// block device or image file.
type DeviceReader interface {
	io.ReaderAt
	io.Closer

	// Path returns the filename the device was opened from, for
	// diagnostics.
	Path() string

	// EndOffset reports the device's end offset in bytes. ok is false
	// when the descriptor type does not permit size determination
	// (pipes and other special files), in which case reads must be
	// attempted regardless of the candidate offset. A descriptor that
	// should be sizable but cannot be stat'd or seeked returns an error.
	EndOffset() (size uint64, ok bool, err error)

	// ReadRecord reads a fixed-size record at the given offset and
	// reports whether it was present. A short or failed read that is
	// not a clean absence is returned as an error.
	ReadRecord(offset uint64, size int) ([]byte, RecordReadOutcome, error)
}
