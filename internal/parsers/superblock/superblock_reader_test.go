package superblock

import (
	"encoding/binary"
	"testing"

	"github.com/richardwesthaver/btrfs-progs/internal/types"
)

// createTestSuperblockData builds a synthetic 4096-byte superblock
// record with recognizable values in every field group.
func createTestSuperblockData(magic uint64, endian binary.ByteOrder) []byte {
	data := make([]byte, types.SuperInfoSize)

	// Checksum bytes
	for i := 0; i < 32; i++ {
		data[i] = byte(i + 1)
	}

	// Filesystem UUID
	fsid := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0A, 0x0B, 0x0C, 0x0D, 0x0E, 0x0F, 0x10}
	copy(data[32:48], fsid)

	endian.PutUint64(data[48:56], 65536)      // bytenr
	endian.PutUint64(data[56:64], 0x1)        // flags
	endian.PutUint64(data[64:72], magic)      // magic
	endian.PutUint64(data[72:80], 5)          // generation
	endian.PutUint64(data[80:88], 30408704)   // root
	endian.PutUint64(data[88:96], 22020096)   // chunk root
	endian.PutUint64(data[96:104], 0)         // log root
	endian.PutUint64(data[104:112], 0)        // log root transid
	endian.PutUint64(data[112:120], 10<<30)   // total bytes (10 GiB)
	endian.PutUint64(data[120:128], 114688)   // bytes used
	endian.PutUint64(data[128:136], 6)        // root dir objectid
	endian.PutUint64(data[136:144], 1)        // num devices
	endian.PutUint32(data[144:148], 4096)     // sectorsize
	endian.PutUint32(data[148:152], 16384)    // nodesize
	endian.PutUint32(data[152:156], 16384)    // leafsize
	endian.PutUint32(data[156:160], 4096)     // stripesize
	endian.PutUint32(data[160:164], 97)       // sys chunk array size
	endian.PutUint64(data[164:172], 5)        // chunk root generation
	endian.PutUint64(data[172:180], 0)        // compat flags
	endian.PutUint64(data[180:188], 0)        // compat ro flags
	endian.PutUint64(data[188:196], 0x341)    // incompat flags
	endian.PutUint16(data[196:198], 0)        // csum type (crc32c)
	data[198] = 1                             // root level
	data[199] = 1                             // chunk root level
	data[200] = 0                             // log root level

	// Dev item at offset 201
	di := data[201 : 201+types.DevItemSize]
	endian.PutUint64(di[0:8], 1)          // devid
	endian.PutUint64(di[8:16], 10<<30)    // total bytes
	endian.PutUint64(di[16:24], 114688)   // bytes used
	endian.PutUint32(di[24:28], 4096)     // io align
	endian.PutUint32(di[28:32], 4096)     // io width
	endian.PutUint32(di[32:36], 4096)     // sector size
	endian.PutUint64(di[36:44], 0)        // type
	endian.PutUint64(di[44:52], 0)        // generation
	endian.PutUint64(di[52:60], 0)        // start offset
	endian.PutUint32(di[60:64], 0)        // dev group
	di[64] = 0                            // seek speed
	di[65] = 0                            // bandwidth
	for i := 0; i < 16; i++ {
		di[66+i] = byte(0x20 + i) // device uuid
	}
	copy(di[82:98], fsid) // device fsid matches the filesystem

	// Label at offset 299, NUL padded
	copy(data[299:], "test-filesystem")

	endian.PutUint64(data[555:563], 0) // cache generation
	endian.PutUint64(data[563:571], 5) // uuid tree generation

	// Metadata UUID mirrors the fsid unless METADATA_UUID is set
	copy(data[571:587], fsid)

	// System chunk array begins at 811 after the reserved slots
	for i := 0; i < 97; i++ {
		data[811+i] = byte(i)
	}

	// Four backup roots at the tail
	offset := 811 + types.SysChunkArraySize
	for i := 0; i < types.NumBackupRoots; i++ {
		rb := data[offset : offset+types.RootBackupSize]
		endian.PutUint64(rb[0:8], uint64(1000+i))  // tree root
		endian.PutUint64(rb[8:16], uint64(10+i))   // tree root gen
		endian.PutUint64(rb[16:24], uint64(2000+i))
		endian.PutUint64(rb[24:32], uint64(10+i))
		endian.PutUint64(rb[96:104], 10<<30)  // total bytes
		endian.PutUint64(rb[104:112], 114688) // bytes used
		endian.PutUint64(rb[112:120], 1)      // num devices
		rb[152] = 1                           // tree root level
		rb[153] = 1                           // chunk root level
		offset += types.RootBackupSize
	}

	return data
}

func TestSuperblockReader(t *testing.T) {
	endian := binary.LittleEndian
	data := createTestSuperblockData(types.Magic, endian)

	sr, err := NewSuperblockReader(data, endian)
	if err != nil {
		t.Fatalf("NewSuperblockReader() failed: %v", err)
	}

	if magic := sr.Magic(); magic != types.Magic {
		t.Errorf("Magic() = 0x%016X, want 0x%016X", magic, uint64(types.Magic))
	}

	if bytenr := sr.Bytenr(); bytenr != 65536 {
		t.Errorf("Bytenr() = %d, want 65536", bytenr)
	}

	if gen := sr.Generation(); gen != 5 {
		t.Errorf("Generation() = %d, want 5", gen)
	}

	if label := sr.Label(); label != "test-filesystem" {
		t.Errorf("Label() = %q, want %q", label, "test-filesystem")
	}

	if total := sr.TotalBytes(); total != 10<<30 {
		t.Errorf("TotalBytes() = %d, want %d", total, uint64(10<<30))
	}

	if used := sr.BytesUsed(); used != 114688 {
		t.Errorf("BytesUsed() = %d, want 114688", used)
	}

	if n := sr.NumDevices(); n != 1 {
		t.Errorf("NumDevices() = %d, want 1", n)
	}

	if ct := sr.CsumType(); ct != types.CsumTypeCrc32c {
		t.Errorf("CsumType() = %d, want %d", ct, types.CsumTypeCrc32c)
	}

	if flags := sr.IncompatFlags(); flags != 0x341 {
		t.Errorf("IncompatFlags() = 0x%x, want 0x341", flags)
	}

	expectedFsid := types.UUID{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0A, 0x0B, 0x0C, 0x0D, 0x0E, 0x0F, 0x10}
	if fsid := sr.FsID(); fsid != expectedFsid {
		t.Errorf("FsID() = %v, want %v", fsid, expectedFsid)
	}
	if mu := sr.MetadataUUID(); mu != expectedFsid {
		t.Errorf("MetadataUUID() = %v, want %v", mu, expectedFsid)
	}

	sb := sr.Superblock()

	if sb.Root != 30408704 {
		t.Errorf("Root = %d, want 30408704", sb.Root)
	}
	if sb.ChunkRoot != 22020096 {
		t.Errorf("ChunkRoot = %d, want 22020096", sb.ChunkRoot)
	}
	if sb.Sectorsize != 4096 || sb.Nodesize != 16384 {
		t.Errorf("Sectorsize/Nodesize = %d/%d, want 4096/16384", sb.Sectorsize, sb.Nodesize)
	}
	if sb.SysChunkArraySize != 97 {
		t.Errorf("SysChunkArraySize = %d, want 97", sb.SysChunkArraySize)
	}
	if sb.RootLevel != 1 || sb.ChunkRootLevel != 1 || sb.LogRootLevel != 0 {
		t.Errorf("levels = %d/%d/%d, want 1/1/0", sb.RootLevel, sb.ChunkRootLevel, sb.LogRootLevel)
	}
}

func TestSuperblockReader_DevItem(t *testing.T) {
	endian := binary.LittleEndian
	data := createTestSuperblockData(types.Magic, endian)

	sr, err := NewSuperblockReader(data, endian)
	if err != nil {
		t.Fatalf("NewSuperblockReader() failed: %v", err)
	}

	di := sr.Superblock().DevItem

	if di.DevID != 1 {
		t.Errorf("DevItem.DevID = %d, want 1", di.DevID)
	}
	if di.TotalBytes != 10<<30 {
		t.Errorf("DevItem.TotalBytes = %d, want %d", di.TotalBytes, uint64(10<<30))
	}
	if di.IoAlign != 4096 || di.IoWidth != 4096 || di.SectorSize != 4096 {
		t.Errorf("DevItem io geometry = %d/%d/%d, want 4096/4096/4096", di.IoAlign, di.IoWidth, di.SectorSize)
	}

	expectedUUID := types.UUID{0x20, 0x21, 0x22, 0x23, 0x24, 0x25, 0x26, 0x27, 0x28, 0x29, 0x2A, 0x2B, 0x2C, 0x2D, 0x2E, 0x2F}
	if di.UUID != expectedUUID {
		t.Errorf("DevItem.UUID = %v, want %v", di.UUID, expectedUUID)
	}
	if di.FsID != sr.FsID() {
		t.Errorf("DevItem.FsID = %v, want %v", di.FsID, sr.FsID())
	}
}

func TestSuperblockReader_BackupRoots(t *testing.T) {
	endian := binary.LittleEndian
	data := createTestSuperblockData(types.Magic, endian)

	sr, err := NewSuperblockReader(data, endian)
	if err != nil {
		t.Fatalf("NewSuperblockReader() failed: %v", err)
	}

	sb := sr.Superblock()
	for i := 0; i < types.NumBackupRoots; i++ {
		rb := sb.SuperRoots[i]
		if rb.TreeRoot != uint64(1000+i) {
			t.Errorf("SuperRoots[%d].TreeRoot = %d, want %d", i, rb.TreeRoot, 1000+i)
		}
		if rb.TreeRootGen != uint64(10+i) {
			t.Errorf("SuperRoots[%d].TreeRootGen = %d, want %d", i, rb.TreeRootGen, 10+i)
		}
		if rb.ChunkRoot != uint64(2000+i) {
			t.Errorf("SuperRoots[%d].ChunkRoot = %d, want %d", i, rb.ChunkRoot, 2000+i)
		}
		if rb.NumDevices != 1 {
			t.Errorf("SuperRoots[%d].NumDevices = %d, want 1", i, rb.NumDevices)
		}
		if rb.TreeRootLevel != 1 || rb.ChunkRootLevel != 1 {
			t.Errorf("SuperRoots[%d] levels = %d/%d, want 1/1", i, rb.TreeRootLevel, rb.ChunkRootLevel)
		}
	}
}

// Bad magic is parsed, not rejected: authenticating the record is the
// dumper's decision so --force can still render it.
func TestSuperblockReader_BadMagicStillParses(t *testing.T) {
	endian := binary.LittleEndian
	data := createTestSuperblockData(0xDEADBEEF, endian)

	sr, err := NewSuperblockReader(data, endian)
	if err != nil {
		t.Fatalf("NewSuperblockReader() failed: %v", err)
	}

	if magic := sr.Magic(); magic != 0xDEADBEEF {
		t.Errorf("Magic() = 0x%X, want 0xDEADBEEF", magic)
	}
	if magic := sr.Magic(); magic == types.Magic {
		t.Error("Magic() unexpectedly equals the valid signature")
	}
}

func TestSuperblockReader_ErrorCases(t *testing.T) {
	endian := binary.LittleEndian

	testCases := []struct {
		name     string
		dataSize int
	}{
		{"Empty data", 0},
		{"Too small data", 512},
		{"One byte short", types.SuperInfoSize - 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			data := make([]byte, tc.dataSize)
			if _, err := NewSuperblockReader(data, endian); err == nil {
				t.Error("NewSuperblockReader() should have failed")
			}
		})
	}
}

func TestSuperblockReader_EmptyLabel(t *testing.T) {
	endian := binary.LittleEndian
	data := createTestSuperblockData(types.Magic, endian)

	// Wipe the label field entirely.
	for i := 299; i < 299+types.LabelSize; i++ {
		data[i] = 0
	}

	sr, err := NewSuperblockReader(data, endian)
	if err != nil {
		t.Fatalf("NewSuperblockReader() failed: %v", err)
	}

	if label := sr.Label(); label != "" {
		t.Errorf("Label() = %q, want empty", label)
	}
}
