package types

import "testing"

// TestSuperblockOffset verifies the mirror locator is deterministic and
// strictly increasing across the mirror range.
func TestSuperblockOffset(t *testing.T) {
	expected := []uint64{
		0x1_0000,       // 64 KiB
		0x400_0000,     // 64 MiB
		0x40_0000_0000, // 256 GiB
	}

	for i := 0; i < SuperMirrorMax; i++ {
		got := SuperblockOffset(i)
		if got != expected[i] {
			t.Errorf("SuperblockOffset(%d) = %d, want %d", i, got, expected[i])
		}
		// Repeated calls yield the same offset.
		if again := SuperblockOffset(i); again != got {
			t.Errorf("SuperblockOffset(%d) not deterministic: %d then %d", i, got, again)
		}
	}

	for i := 1; i < SuperMirrorMax; i++ {
		if SuperblockOffset(i) <= SuperblockOffset(i-1) {
			t.Errorf("offsets not strictly increasing: offset(%d)=%d <= offset(%d)=%d",
				i, SuperblockOffset(i), i-1, SuperblockOffset(i-1))
		}
	}

	if SuperblockOffset(0) != SuperInfoOffset {
		t.Errorf("SuperblockOffset(0) = %d, want SuperInfoOffset %d", SuperblockOffset(0), SuperInfoOffset)
	}
}

func TestCsumTypeName(t *testing.T) {
	testCases := []struct {
		csumType uint16
		name     string
		size     int
	}{
		{CsumTypeCrc32c, "crc32c", 4},
		{CsumTypeXxhash, "xxhash64", 8},
		{CsumTypeSha256, "sha256", 32},
		{CsumTypeBlake2b, "blake2b", 32},
		{99, "unknown", 4},
	}

	for _, tc := range testCases {
		if got := CsumTypeName(tc.csumType); got != tc.name {
			t.Errorf("CsumTypeName(%d) = %q, want %q", tc.csumType, got, tc.name)
		}
		if got := CsumSize(tc.csumType); got != tc.size {
			t.Errorf("CsumSize(%d) = %d, want %d", tc.csumType, got, tc.size)
		}
	}
}

func TestIncompatFlagNames(t *testing.T) {
	names := IncompatFlagNames(FeatureIncompatMixedBackref | FeatureIncompatCompressZstd | FeatureIncompatZoned)
	want := []string{"MIXED_BACKREF", "COMPRESS_ZSTD", "ZONED"}

	if len(names) != len(want) {
		t.Fatalf("IncompatFlagNames() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("IncompatFlagNames()[%d] = %q, want %q", i, names[i], want[i])
		}
	}

	if names := IncompatFlagNames(0); names != nil {
		t.Errorf("IncompatFlagNames(0) = %v, want nil", names)
	}
}
