package services

import (
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/richardwesthaver/btrfs-progs/internal/interfaces"
	"github.com/richardwesthaver/btrfs-progs/internal/parsers/superblock"
	"github.com/richardwesthaver/btrfs-progs/internal/types"
)

// locationKind distinguishes the two ways a dump target can be
// addressed. The choice is made exactly once, at the CLI boundary, and
// never re-interpreted downstream.
type locationKind int

const (
	locationMirror locationKind = iota
	locationRaw
)

// Location is the resolved addressing of one superblock attempt:
// either a mirror index run through the fixed offset table, or a raw
// byte offset supplied directly by the caller.
type Location struct {
	kind  locationKind
	value uint64
}

// MirrorLocation addresses the copy at mirror index n. The index must
// be in [0, types.SuperMirrorMax).
func MirrorLocation(n int) Location {
	return Location{kind: locationMirror, value: uint64(n)}
}

// RawLocation addresses a byte offset directly, bypassing the mirror
// table.
func RawLocation(offset uint64) Location {
	return Location{kind: locationRaw, value: offset}
}

// Offset resolves the location to a device byte offset.
func (l Location) Offset() uint64 {
	if l.kind == locationMirror {
		return types.SuperblockOffset(int(l.value))
	}
	return l.value
}

// DumpRequest is the resolved intent of one dump-super invocation.
type DumpRequest struct {
	// Devices are processed strictly in the order given.
	Devices []string
	// All dumps every mirror slot; otherwise Location is used once per
	// device.
	All      bool
	Location Location
	// Full includes backup roots and other verbose detail.
	Full bool
	// Force dumps records whose magic does not match.
	Force bool
	// Format selects the renderer output (text, json, yaml).
	Format string
	// Verbose reports skipped and absent copies on the diagnostic
	// stream instead of passing them over silently.
	Verbose bool
}

// DumpService drives superblock dumps across devices and mirrors.
type DumpService struct {
	out  io.Writer
	errw io.Writer

	// openDevice is swappable so tests can supply fake devices.
	openDevice func(path string) (interfaces.DeviceReader, error)
}

// NewDumpService creates a service writing dumps to out and
// diagnostics to errw.
func NewDumpService(out, errw io.Writer) *DumpService {
	return &DumpService{
		out:  out,
		errw: errw,
		openDevice: func(path string) (interfaces.DeviceReader, error) {
			return OpenDevice(path)
		},
	}
}

// ProcessDevices runs the request against every device in order. A
// fatal error stops that device's remaining mirrors but the run
// continues with the next device; the returned error reflects any
// failure across the whole run. Each device's descriptor is closed
// before the next device is opened.
func (s *DumpService) ProcessDevices(req *DumpRequest) error {
	var failed bool

	for _, path := range req.Devices {
		if err := s.processDevice(path, req); err != nil {
			fmt.Fprintf(s.errw, "error: %v\n", err)
			failed = true
		}
	}

	if failed {
		return fmt.Errorf("failed to dump superblocks on one or more devices")
	}
	return nil
}

// processDevice handles all requested mirrors for a single device.
func (s *DumpService) processDevice(path string, req *DumpRequest) error {
	dev, err := s.openDevice(path)
	if err != nil {
		return err
	}
	defer dev.Close()

	if req.All {
		for idx := 0; idx < types.SuperMirrorMax; idx++ {
			if err := s.dumpOne(dev, types.SuperblockOffset(idx), req); err != nil {
				return err
			}
		}
		return nil
	}

	return s.dumpOne(dev, req.Location.Offset(), req)
}

// dumpOne attempts one (device, offset) superblock: probe for
// presence, read, authenticate, render. Absence is a silent skip.
func (s *DumpService) dumpOne(dev interfaces.DeviceReader, offset uint64, req *DumpRequest) error {
	end, sizable, err := dev.EndOffset()
	if err != nil {
		return err
	}
	if sizable && offset > end {
		if req.Verbose {
			fmt.Fprintf(s.errw, "skipping superblock on %s at %d past end of device\n", dev.Path(), offset)
		}
		return nil
	}

	buf, outcome, err := dev.ReadRecord(offset, types.SuperInfoSize)
	if err != nil {
		return err
	}
	if outcome == interfaces.RecordAbsent {
		if req.Verbose {
			fmt.Fprintf(s.errw, "no superblock on %s at %d\n", dev.Path(), offset)
		}
		return nil
	}

	sr, err := superblock.NewSuperblockReader(buf, binary.LittleEndian)
	if err != nil {
		return fmt.Errorf("superblock on %s at %d: %w", dev.Path(), offset, err)
	}

	if sr.Magic() != types.Magic && !req.Force {
		return fmt.Errorf("bad magic on superblock on %s at %d (use --force to dump it anyway)", dev.Path(), offset)
	}

	fmt.Fprintf(s.out, "superblock: bytenr=%d, device=%s\n", offset, dev.Path())
	fmt.Fprintln(s.out, strings.Repeat("-", 57))
	if err := superblock.FormatOutput(s.out, sr, req.Format, req.Full); err != nil {
		return fmt.Errorf("failed to format superblock on %s at %d: %w", dev.Path(), offset, err)
	}
	fmt.Fprintln(s.out)

	return nil
}
