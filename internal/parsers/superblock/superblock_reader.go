package superblock

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/richardwesthaver/btrfs-progs/internal/interfaces"
	"github.com/richardwesthaver/btrfs-progs/internal/types"
)

// superblockReader implements the SuperblockReader interface over one
// parsed on-disk record.
type superblockReader struct {
	superblock *types.SuperBlock
	data       []byte
	endian     binary.ByteOrder
}

// NewSuperblockReader parses a raw superblock record. The buffer must
// hold the full fixed-size record. The magic field is parsed but not
// enforced here: authentication is the caller's decision, so records
// with a bad signature can still be dumped under --force.
func NewSuperblockReader(data []byte, endian binary.ByteOrder) (interfaces.SuperblockReader, error) {
	if len(data) < types.SuperInfoSize {
		return nil, fmt.Errorf("data too small for superblock: got %d bytes, need %d", len(data), types.SuperInfoSize)
	}

	sb := parseSuperblock(data, endian)

	return &superblockReader{
		superblock: sb,
		data:       data,
		endian:     endian,
	}, nil
}

// parseSuperblock decodes the fixed little-endian layout of
// btrfs_super_block into the types struct.
func parseSuperblock(data []byte, endian binary.ByteOrder) *types.SuperBlock {
	sb := &types.SuperBlock{}

	copy(sb.Csum[:], data[0:32])
	copy(sb.FsID[:], data[32:48])
	sb.Bytenr = endian.Uint64(data[48:56])
	sb.Flags = endian.Uint64(data[56:64])
	sb.Magic = endian.Uint64(data[64:72])
	sb.Generation = endian.Uint64(data[72:80])
	sb.Root = endian.Uint64(data[80:88])
	sb.ChunkRoot = endian.Uint64(data[88:96])
	sb.LogRoot = endian.Uint64(data[96:104])
	sb.LogRootTransid = endian.Uint64(data[104:112])
	sb.TotalBytes = endian.Uint64(data[112:120])
	sb.BytesUsed = endian.Uint64(data[120:128])
	sb.RootDirObjectid = endian.Uint64(data[128:136])
	sb.NumDevices = endian.Uint64(data[136:144])
	sb.Sectorsize = endian.Uint32(data[144:148])
	sb.Nodesize = endian.Uint32(data[148:152])
	sb.Leafsize = endian.Uint32(data[152:156])
	sb.Stripesize = endian.Uint32(data[156:160])
	sb.SysChunkArraySize = endian.Uint32(data[160:164])
	sb.ChunkRootGeneration = endian.Uint64(data[164:172])
	sb.CompatFlags = endian.Uint64(data[172:180])
	sb.CompatRoFlags = endian.Uint64(data[180:188])
	sb.IncompatFlags = endian.Uint64(data[188:196])
	sb.CsumType = endian.Uint16(data[196:198])
	sb.RootLevel = data[198]
	sb.ChunkRootLevel = data[199]
	sb.LogRootLevel = data[200]

	parseDevItem(&sb.DevItem, data[201:201+types.DevItemSize], endian)

	copy(sb.Label[:], data[299:299+types.LabelSize])
	sb.CacheGeneration = endian.Uint64(data[555:563])
	sb.UUIDTreeGeneration = endian.Uint64(data[563:571])
	copy(sb.MetadataUUID[:], data[571:587])
	sb.NrGlobalRoots = endian.Uint64(data[587:595])

	// 27 reserved u64 slots precede the system chunk array.
	copy(sb.SysChunkArray[:], data[811:811+types.SysChunkArraySize])

	offset := 811 + types.SysChunkArraySize
	for i := 0; i < types.NumBackupRoots; i++ {
		parseRootBackup(&sb.SuperRoots[i], data[offset:offset+types.RootBackupSize], endian)
		offset += types.RootBackupSize
	}

	return sb
}

// parseDevItem decodes the embedded 98-byte btrfs_dev_item.
func parseDevItem(di *types.DevItem, data []byte, endian binary.ByteOrder) {
	di.DevID = endian.Uint64(data[0:8])
	di.TotalBytes = endian.Uint64(data[8:16])
	di.BytesUsed = endian.Uint64(data[16:24])
	di.IoAlign = endian.Uint32(data[24:28])
	di.IoWidth = endian.Uint32(data[28:32])
	di.SectorSize = endian.Uint32(data[32:36])
	di.Type = endian.Uint64(data[36:44])
	di.Generation = endian.Uint64(data[44:52])
	di.StartOffset = endian.Uint64(data[52:60])
	di.DevGroup = endian.Uint32(data[60:64])
	di.SeekSpeed = data[64]
	di.Bandwidth = data[65]
	copy(di.UUID[:], data[66:82])
	copy(di.FsID[:], data[82:98])
}

// parseRootBackup decodes one 168-byte btrfs_root_backup record.
func parseRootBackup(rb *types.RootBackup, data []byte, endian binary.ByteOrder) {
	rb.TreeRoot = endian.Uint64(data[0:8])
	rb.TreeRootGen = endian.Uint64(data[8:16])
	rb.ChunkRoot = endian.Uint64(data[16:24])
	rb.ChunkRootGen = endian.Uint64(data[24:32])
	rb.ExtentRoot = endian.Uint64(data[32:40])
	rb.ExtentRootGen = endian.Uint64(data[40:48])
	rb.FsRoot = endian.Uint64(data[48:56])
	rb.FsRootGen = endian.Uint64(data[56:64])
	rb.DevRoot = endian.Uint64(data[64:72])
	rb.DevRootGen = endian.Uint64(data[72:80])
	rb.CsumRoot = endian.Uint64(data[80:88])
	rb.CsumRootGen = endian.Uint64(data[88:96])
	rb.TotalBytes = endian.Uint64(data[96:104])
	rb.BytesUsed = endian.Uint64(data[104:112])
	rb.NumDevices = endian.Uint64(data[112:120])
	// Four unused u64 slots sit between num_devices and the levels.
	rb.TreeRootLevel = data[152]
	rb.ChunkRootLevel = data[153]
	rb.ExtentRootLevel = data[154]
	rb.FsRootLevel = data[155]
	rb.DevRootLevel = data[156]
	rb.CsumRootLevel = data[157]
}

// Magic returns the signature field of the record.
func (sr *superblockReader) Magic() uint64 {
	return sr.superblock.Magic
}

// FsID returns the filesystem UUID.
func (sr *superblockReader) FsID() types.UUID {
	return sr.superblock.FsID
}

// MetadataUUID returns the metadata UUID.
func (sr *superblockReader) MetadataUUID() types.UUID {
	return sr.superblock.MetadataUUID
}

// Bytenr returns the physical offset recorded inside the copy.
func (sr *superblockReader) Bytenr() uint64 {
	return sr.superblock.Bytenr
}

// Flags returns the superblock flag bits.
func (sr *superblockReader) Flags() uint64 {
	return sr.superblock.Flags
}

// Generation returns the transaction generation of the copy.
func (sr *superblockReader) Generation() uint64 {
	return sr.superblock.Generation
}

// Label returns the filesystem label with trailing NULs stripped.
func (sr *superblockReader) Label() string {
	label := sr.superblock.Label[:]
	if i := bytes.IndexByte(label, 0); i >= 0 {
		label = label[:i]
	}
	return string(label)
}

// CsumType returns the checksum algorithm identifier.
func (sr *superblockReader) CsumType() uint16 {
	return sr.superblock.CsumType
}

// TotalBytes returns the filesystem size in bytes.
func (sr *superblockReader) TotalBytes() uint64 {
	return sr.superblock.TotalBytes
}

// BytesUsed returns the allocated byte count.
func (sr *superblockReader) BytesUsed() uint64 {
	return sr.superblock.BytesUsed
}

// NumDevices returns the device count of the filesystem.
func (sr *superblockReader) NumDevices() uint64 {
	return sr.superblock.NumDevices
}

// IncompatFlags returns the backward-incompatible feature bits.
func (sr *superblockReader) IncompatFlags() uint64 {
	return sr.superblock.IncompatFlags
}

// Superblock returns the fully parsed record.
func (sr *superblockReader) Superblock() *types.SuperBlock {
	return sr.superblock
}
