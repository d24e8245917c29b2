package types

// Btrfs on-disk superblock layout and the constants that locate and
// authenticate it. All multi-byte fields are little-endian on disk.

const (
	// SuperInfoOffset is the byte offset of the primary superblock
	// (mirror 0), 64 KiB from the start of the device.
	SuperInfoOffset = 0x1_0000

	// SuperInfoSize is the fixed size of one on-disk superblock record.
	SuperInfoSize = 4096

	// SuperMirrorMax is the number of superblock copy slots. Copies
	// beyond mirror 0 exist only on devices large enough to reach them.
	SuperMirrorMax = 3

	// Magic is the superblock signature ("_BHRfS_M" read as a
	// little-endian uint64 at byte offset 64 of the record).
	Magic = 0x4D5F53665248425F
)

// superblockOffsets is the fixed table of mirror locations. Mirror 0
// sits in the reserved area near the start of the device; the higher
// mirrors are spaced so that only 64 MiB and 256 GiB devices carry them.
var superblockOffsets = [SuperMirrorMax]uint64{
	SuperInfoOffset, // 64 KiB
	0x400_0000,      // 64 MiB
	0x40_0000_0000,  // 256 GiB
}

// SuperblockOffset maps a mirror index to its byte offset on the device.
// The index must be in [0, SuperMirrorMax); validating it is the
// caller's responsibility.
func SuperblockOffset(mirror int) uint64 {
	return superblockOffsets[mirror]
}

// Checksum algorithms recognized in the csum_type field.
const (
	CsumTypeCrc32c  = 0
	CsumTypeXxhash  = 1
	CsumTypeSha256  = 2
	CsumTypeBlake2b = 3
)

// Label and system chunk array sizes embedded in the superblock.
const (
	LabelSize          = 256
	SysChunkArraySize  = 2048
	NumBackupRoots     = 4
	DevItemSize        = 98
	RootBackupSize     = 168
	NumReservedSlots   = 27
	SuperBlockDataSize = 3531 // bytes actually used; the rest is padding
)

// Incompat feature flag bits.
const (
	FeatureIncompatMixedBackref   = 1 << 0
	FeatureIncompatDefaultSubvol  = 1 << 1
	FeatureIncompatMixedGroups    = 1 << 2
	FeatureIncompatCompressLzo    = 1 << 3
	FeatureIncompatCompressZstd   = 1 << 4
	FeatureIncompatBigMetadata    = 1 << 5
	FeatureIncompatExtendedIref   = 1 << 6
	FeatureIncompatRaid56         = 1 << 7
	FeatureIncompatSkinnyMetadata = 1 << 8
	FeatureIncompatNoHoles        = 1 << 9
	FeatureIncompatMetadataUUID   = 1 << 10
	FeatureIncompatRaid1c34       = 1 << 11
	FeatureIncompatZoned          = 1 << 12
	FeatureIncompatExtentTreeV2   = 1 << 13
)

// Superblock flag bits.
const (
	HeaderFlagWritten     = 1 << 0
	HeaderFlagReloc       = 1 << 1
	SuperFlagChangingFsid = 1 << 35
	SuperFlagSeeding      = 1 << 32
	SuperFlagMetadump     = 1 << 33
	SuperFlagMetadumpV2   = 1 << 34
)

// UUID is a 16-byte on-disk identifier (filesystem or device).
type UUID [16]byte

// DevItem describes the device the superblock copy was read from.
// It occupies 98 bytes starting at record offset 201.
type DevItem struct {
	// The internal btrfs device id.
	DevID uint64
	// Size of the device in bytes.
	TotalBytes uint64
	// Bytes allocated on this device.
	BytesUsed uint64
	// Optimal I/O alignment, width, and minimal size for this device.
	IoAlign    uint32
	IoWidth    uint32
	SectorSize uint32
	// Block-group allocation type driving this device.
	Type uint64
	// Expected generation for this device.
	Generation uint64
	// Starting byte of this partition on the device, to allow for stripe
	// alignment.
	StartOffset uint64
	// Grouping information for allocation decisions.
	DevGroup uint32
	// Seek speed 0-100 where 100 is the fastest.
	SeekSpeed uint8
	// Bandwidth 0-100 where 100 is the fastest.
	Bandwidth uint8
	// The device UUID generated when the device was added.
	UUID UUID
	// The UUID of the filesystem that owns this device.
	FsID UUID
}

// RootBackup is one of the four rotating backup-root records kept at
// the tail of the superblock. Each record is 168 bytes.
type RootBackup struct {
	TreeRoot        uint64
	TreeRootGen     uint64
	ChunkRoot       uint64
	ChunkRootGen    uint64
	ExtentRoot      uint64
	ExtentRootGen   uint64
	FsRoot          uint64
	FsRootGen       uint64
	DevRoot         uint64
	DevRootGen      uint64
	CsumRoot        uint64
	CsumRootGen     uint64
	TotalBytes      uint64
	BytesUsed       uint64
	NumDevices      uint64
	TreeRootLevel   uint8
	ChunkRootLevel  uint8
	ExtentRootLevel uint8
	FsRootLevel     uint8
	DevRootLevel    uint8
	CsumRootLevel   uint8
}

// SuperBlock is the in-memory form of one 4096-byte on-disk superblock
// record.
type SuperBlock struct {
	// Checksum of everything past this field.
	Csum [32]byte
	// Filesystem UUID.
	FsID UUID
	// Physical address of this copy; each mirror records its own offset.
	Bytenr uint64
	Flags  uint64
	// Signature, always Magic on an authentic record.
	Magic      uint64
	Generation uint64
	// Logical address of the root tree root.
	Root uint64
	// Logical address of the chunk tree root.
	ChunkRoot uint64
	// Logical address of the log tree root.
	LogRoot uint64
	// Historical field, no longer written.
	LogRootTransid  uint64
	TotalBytes      uint64
	BytesUsed       uint64
	RootDirObjectid uint64
	NumDevices      uint64
	Sectorsize      uint32
	Nodesize        uint32
	// Historical alias of Nodesize, kept on disk for old tools.
	Leafsize            uint32
	Stripesize          uint32
	SysChunkArraySize   uint32
	ChunkRootGeneration uint64
	CompatFlags         uint64
	CompatRoFlags       uint64
	IncompatFlags       uint64
	CsumType            uint16
	RootLevel           uint8
	ChunkRootLevel      uint8
	LogRootLevel        uint8
	DevItem             DevItem
	Label               [LabelSize]byte
	CacheGeneration     uint64
	UUIDTreeGeneration  uint64
	// Filesystem metadata UUID, equal to FsID unless the
	// FeatureIncompatMetadataUUID flag is set.
	MetadataUUID  UUID
	NrGlobalRoots uint64
	// The first SysChunkArraySize bytes are valid.
	SysChunkArray [SysChunkArraySize]byte
	SuperRoots    [NumBackupRoots]RootBackup
}

// CsumTypeName returns the display name for a csum_type value.
func CsumTypeName(t uint16) string {
	switch t {
	case CsumTypeCrc32c:
		return "crc32c"
	case CsumTypeXxhash:
		return "xxhash64"
	case CsumTypeSha256:
		return "sha256"
	case CsumTypeBlake2b:
		return "blake2b"
	default:
		return "unknown"
	}
}

// CsumSize returns the digest size in bytes for a csum_type value.
func CsumSize(t uint16) int {
	switch t {
	case CsumTypeCrc32c:
		return 4
	case CsumTypeXxhash:
		return 8
	case CsumTypeSha256, CsumTypeBlake2b:
		return 32
	default:
		return 4
	}
}

// incompatFlagNames maps each known incompat bit to its display name,
// in bit order.
var incompatFlagNames = []struct {
	Bit  uint64
	Name string
}{
	{FeatureIncompatMixedBackref, "MIXED_BACKREF"},
	{FeatureIncompatDefaultSubvol, "DEFAULT_SUBVOL"},
	{FeatureIncompatMixedGroups, "MIXED_GROUPS"},
	{FeatureIncompatCompressLzo, "COMPRESS_LZO"},
	{FeatureIncompatCompressZstd, "COMPRESS_ZSTD"},
	{FeatureIncompatBigMetadata, "BIG_METADATA"},
	{FeatureIncompatExtendedIref, "EXTENDED_IREF"},
	{FeatureIncompatRaid56, "RAID56"},
	{FeatureIncompatSkinnyMetadata, "SKINNY_METADATA"},
	{FeatureIncompatNoHoles, "NO_HOLES"},
	{FeatureIncompatMetadataUUID, "METADATA_UUID"},
	{FeatureIncompatRaid1c34, "RAID1C34"},
	{FeatureIncompatZoned, "ZONED"},
	{FeatureIncompatExtentTreeV2, "EXTENT_TREE_V2"},
}

// IncompatFlagNames decodes an incompat_flags value into the names of
// the set bits, in bit order.
func IncompatFlagNames(flags uint64) []string {
	var names []string
	for _, f := range incompatFlagNames {
		if flags&f.Bit != 0 {
			names = append(names, f.Name)
		}
	}
	return names
}
