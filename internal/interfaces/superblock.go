package interfaces

import (
	"github.com/richardwesthaver/btrfs-progs/internal/types"
)

// SuperblockReader exposes the fields of one parsed superblock record.
type SuperblockReader interface {
	// Magic returns the signature field used to authenticate the record.
	Magic() uint64

	// FsID returns the filesystem UUID.
	FsID() types.UUID

	// MetadataUUID returns the metadata UUID, which differs from FsID
	// only when the METADATA_UUID incompat flag is set.
	MetadataUUID() types.UUID

	// Bytenr returns the physical offset recorded inside the copy.
	Bytenr() uint64

	// Flags returns the superblock flag bits.
	Flags() uint64

	// Generation returns the transaction generation of the copy.
	Generation() uint64

	// Label returns the filesystem label with trailing NULs stripped.
	Label() string

	// CsumType returns the checksum algorithm identifier.
	CsumType() uint16

	// TotalBytes returns the filesystem size in bytes.
	TotalBytes() uint64

	// BytesUsed returns the allocated byte count.
	BytesUsed() uint64

	// NumDevices returns the device count of the filesystem.
	NumDevices() uint64

	// IncompatFlags returns the backward-incompatible feature bits.
	IncompatFlags() uint64

	// Superblock returns the fully parsed record for direct field
	// access by the renderer.
	Superblock() *types.SuperBlock
}
