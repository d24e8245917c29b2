package superblock

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/richardwesthaver/btrfs-progs/internal/interfaces"
	"github.com/richardwesthaver/btrfs-progs/internal/types"
)

// FormatOutput renders one parsed superblock record according to the
// selected output format. full controls whether the backup roots and
// other verbose detail are included.
func FormatOutput(w io.Writer, sr interfaces.SuperblockReader, format string, full bool) error {
	switch format {
	case "text":
		return formatText(w, sr, full)
	case "json":
		return formatJSON(w, sr, full)
	case "yaml":
		return formatYAML(w, sr, full)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

// formatText writes the human-readable field dump.
func formatText(w io.Writer, sr interfaces.SuperblockReader, full bool) error {
	sb := sr.Superblock()
	tw := tabwriter.NewWriter(w, 0, 8, 1, '\t', 0)

	magicNote := "[match]"
	if sb.Magic != types.Magic {
		magicNote = "[DON'T MATCH]"
	}

	fmt.Fprintf(tw, "csum_type\t%d (%s)\n", sb.CsumType, types.CsumTypeName(sb.CsumType))
	fmt.Fprintf(tw, "csum_size\t%d\n", types.CsumSize(sb.CsumType))
	fmt.Fprintf(tw, "csum\t0x%x\n", sb.Csum[:types.CsumSize(sb.CsumType)])
	fmt.Fprintf(tw, "bytenr\t%d\n", sb.Bytenr)
	fmt.Fprintf(tw, "flags\t0x%x\n", sb.Flags)
	fmt.Fprintf(tw, "magic\t%s %s\n", magicString(sb.Magic), magicNote)
	fmt.Fprintf(tw, "fsid\t%s\n", uuid.UUID(sb.FsID).String())
	fmt.Fprintf(tw, "metadata_uuid\t%s\n", uuid.UUID(sb.MetadataUUID).String())
	fmt.Fprintf(tw, "label\t%s\n", sr.Label())
	fmt.Fprintf(tw, "generation\t%d\n", sb.Generation)
	fmt.Fprintf(tw, "root\t%d\n", sb.Root)
	fmt.Fprintf(tw, "sys_array_size\t%d\n", sb.SysChunkArraySize)
	fmt.Fprintf(tw, "chunk_root_generation\t%d\n", sb.ChunkRootGeneration)
	fmt.Fprintf(tw, "root_level\t%d\n", sb.RootLevel)
	fmt.Fprintf(tw, "chunk_root\t%d\n", sb.ChunkRoot)
	fmt.Fprintf(tw, "chunk_root_level\t%d\n", sb.ChunkRootLevel)
	fmt.Fprintf(tw, "log_root\t%d\n", sb.LogRoot)
	fmt.Fprintf(tw, "log_root_level\t%d\n", sb.LogRootLevel)
	fmt.Fprintf(tw, "total_bytes\t%d (%s)\n", sb.TotalBytes, humanize.IBytes(sb.TotalBytes))
	fmt.Fprintf(tw, "bytes_used\t%d (%s)\n", sb.BytesUsed, humanize.IBytes(sb.BytesUsed))
	fmt.Fprintf(tw, "sectorsize\t%d\n", sb.Sectorsize)
	fmt.Fprintf(tw, "nodesize\t%d\n", sb.Nodesize)
	fmt.Fprintf(tw, "leafsize (deprecated)\t%d\n", sb.Leafsize)
	fmt.Fprintf(tw, "stripesize\t%d\n", sb.Stripesize)
	fmt.Fprintf(tw, "root_dir\t%d\n", sb.RootDirObjectid)
	fmt.Fprintf(tw, "num_devices\t%d\n", sb.NumDevices)
	fmt.Fprintf(tw, "compat_flags\t0x%x\n", sb.CompatFlags)
	fmt.Fprintf(tw, "compat_ro_flags\t0x%x\n", sb.CompatRoFlags)
	fmt.Fprintf(tw, "incompat_flags\t0x%x%s\n", sb.IncompatFlags, incompatSuffix(sb.IncompatFlags))
	fmt.Fprintf(tw, "cache_generation\t%d\n", sb.CacheGeneration)
	fmt.Fprintf(tw, "uuid_tree_generation\t%d\n", sb.UUIDTreeGeneration)

	di := &sb.DevItem
	devFsidNote := "[match]"
	if di.FsID != sb.FsID && di.FsID != sb.MetadataUUID {
		devFsidNote = "[DON'T MATCH]"
	}
	fmt.Fprintf(tw, "dev_item.uuid\t%s\n", uuid.UUID(di.UUID).String())
	fmt.Fprintf(tw, "dev_item.fsid\t%s %s\n", uuid.UUID(di.FsID).String(), devFsidNote)
	fmt.Fprintf(tw, "dev_item.type\t%d\n", di.Type)
	fmt.Fprintf(tw, "dev_item.total_bytes\t%d\n", di.TotalBytes)
	fmt.Fprintf(tw, "dev_item.bytes_used\t%d\n", di.BytesUsed)
	fmt.Fprintf(tw, "dev_item.io_align\t%d\n", di.IoAlign)
	fmt.Fprintf(tw, "dev_item.io_width\t%d\n", di.IoWidth)
	fmt.Fprintf(tw, "dev_item.sector_size\t%d\n", di.SectorSize)
	fmt.Fprintf(tw, "dev_item.devid\t%d\n", di.DevID)
	fmt.Fprintf(tw, "dev_item.dev_group\t%d\n", di.DevGroup)
	fmt.Fprintf(tw, "dev_item.seek_speed\t%d\n", di.SeekSpeed)
	fmt.Fprintf(tw, "dev_item.bandwidth\t%d\n", di.Bandwidth)
	fmt.Fprintf(tw, "dev_item.generation\t%d\n", di.Generation)

	if full {
		for i := range sb.SuperRoots {
			rb := &sb.SuperRoots[i]
			fmt.Fprintf(tw, "backup_roots[%d]:\n", i)
			fmt.Fprintf(tw, "\tbackup_tree_root:\t%d\tgen: %d\tlevel: %d\n", rb.TreeRoot, rb.TreeRootGen, rb.TreeRootLevel)
			fmt.Fprintf(tw, "\tbackup_chunk_root:\t%d\tgen: %d\tlevel: %d\n", rb.ChunkRoot, rb.ChunkRootGen, rb.ChunkRootLevel)
			fmt.Fprintf(tw, "\tbackup_extent_root:\t%d\tgen: %d\tlevel: %d\n", rb.ExtentRoot, rb.ExtentRootGen, rb.ExtentRootLevel)
			fmt.Fprintf(tw, "\tbackup_fs_root:\t%d\tgen: %d\tlevel: %d\n", rb.FsRoot, rb.FsRootGen, rb.FsRootLevel)
			fmt.Fprintf(tw, "\tbackup_dev_root:\t%d\tgen: %d\tlevel: %d\n", rb.DevRoot, rb.DevRootGen, rb.DevRootLevel)
			fmt.Fprintf(tw, "\tbackup_csum_root:\t%d\tgen: %d\tlevel: %d\n", rb.CsumRoot, rb.CsumRootGen, rb.CsumRootLevel)
			fmt.Fprintf(tw, "\tbackup_total_bytes:\t%d\n", rb.TotalBytes)
			fmt.Fprintf(tw, "\tbackup_bytes_used:\t%d\n", rb.BytesUsed)
			fmt.Fprintf(tw, "\tbackup_num_devices:\t%d\n", rb.NumDevices)
		}
	}

	return tw.Flush()
}

// magicString renders the 8-byte signature as ASCII where printable.
func magicString(magic uint64) string {
	var b strings.Builder
	for i := 0; i < 8; i++ {
		c := byte(magic >> (8 * i))
		if c >= 0x20 && c < 0x7F {
			b.WriteByte(c)
		} else {
			b.WriteByte('.')
		}
	}
	return b.String()
}

// incompatSuffix renders the decoded flag names, if any are set.
func incompatSuffix(flags uint64) string {
	names := types.IncompatFlagNames(flags)
	if len(names) == 0 {
		return ""
	}
	return " ( " + strings.Join(names, " | ") + " )"
}

// Summary is the machine-readable projection of one superblock record
// used by the json and yaml output formats.
type Summary struct {
	CsumType           string   `json:"csum_type" yaml:"csum_type"`
	Bytenr             uint64   `json:"bytenr" yaml:"bytenr"`
	Flags              uint64   `json:"flags" yaml:"flags"`
	MagicValid         bool     `json:"magic_valid" yaml:"magic_valid"`
	FsID               string   `json:"fsid" yaml:"fsid"`
	MetadataUUID       string   `json:"metadata_uuid" yaml:"metadata_uuid"`
	Label              string   `json:"label" yaml:"label"`
	Generation         uint64   `json:"generation" yaml:"generation"`
	Root               uint64   `json:"root" yaml:"root"`
	ChunkRoot          uint64   `json:"chunk_root" yaml:"chunk_root"`
	LogRoot            uint64   `json:"log_root" yaml:"log_root"`
	TotalBytes         uint64   `json:"total_bytes" yaml:"total_bytes"`
	BytesUsed          uint64   `json:"bytes_used" yaml:"bytes_used"`
	Sectorsize         uint32   `json:"sectorsize" yaml:"sectorsize"`
	Nodesize           uint32   `json:"nodesize" yaml:"nodesize"`
	NumDevices         uint64   `json:"num_devices" yaml:"num_devices"`
	IncompatFlags      []string `json:"incompat_flags" yaml:"incompat_flags"`
	DeviceID           uint64   `json:"device_id" yaml:"device_id"`
	DeviceUUID         string   `json:"device_uuid" yaml:"device_uuid"`
	BackupRoots        []uint64 `json:"backup_roots,omitempty" yaml:"backup_roots,omitempty"`
	BackupRootGens     []uint64 `json:"backup_root_gens,omitempty" yaml:"backup_root_gens,omitempty"`
	UUIDTreeGeneration uint64   `json:"uuid_tree_generation" yaml:"uuid_tree_generation"`
}

// buildSummary projects the parsed record into the Summary DTO.
func buildSummary(sr interfaces.SuperblockReader, full bool) *Summary {
	sb := sr.Superblock()

	s := &Summary{
		CsumType:           types.CsumTypeName(sb.CsumType),
		Bytenr:             sb.Bytenr,
		Flags:              sb.Flags,
		MagicValid:         sb.Magic == types.Magic,
		FsID:               uuid.UUID(sb.FsID).String(),
		MetadataUUID:       uuid.UUID(sb.MetadataUUID).String(),
		Label:              sr.Label(),
		Generation:         sb.Generation,
		Root:               sb.Root,
		ChunkRoot:          sb.ChunkRoot,
		LogRoot:            sb.LogRoot,
		TotalBytes:         sb.TotalBytes,
		BytesUsed:          sb.BytesUsed,
		Sectorsize:         sb.Sectorsize,
		Nodesize:           sb.Nodesize,
		NumDevices:         sb.NumDevices,
		IncompatFlags:      types.IncompatFlagNames(sb.IncompatFlags),
		DeviceID:           sb.DevItem.DevID,
		DeviceUUID:         uuid.UUID(sb.DevItem.UUID).String(),
		UUIDTreeGeneration: sb.UUIDTreeGeneration,
	}

	if full {
		for i := range sb.SuperRoots {
			s.BackupRoots = append(s.BackupRoots, sb.SuperRoots[i].TreeRoot)
			s.BackupRootGens = append(s.BackupRootGens, sb.SuperRoots[i].TreeRootGen)
		}
	}

	return s
}

// formatJSON writes the summary as indented JSON.
func formatJSON(w io.Writer, sr interfaces.SuperblockReader, full bool) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(buildSummary(sr, full))
}

// formatYAML writes the summary as YAML.
func formatYAML(w io.Writer, sr interfaces.SuperblockReader, full bool) error {
	encoder := yaml.NewEncoder(w)
	defer encoder.Close()
	return encoder.Encode(buildSummary(sr, full))
}
