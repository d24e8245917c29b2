package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/richardwesthaver/btrfs-progs/internal/config"
	"github.com/richardwesthaver/btrfs-progs/internal/services"
	"github.com/richardwesthaver/btrfs-progs/internal/types"
)

var (
	dumpSuperFull   bool
	dumpSuperAll    bool
	dumpSuperForce  bool
	dumpSuperSlot   uint64
	dumpSuperBytenr uint64
	dumpSuperCopy   uint64
	dumpSuperFormat string
)

var dumpSuperCmd = &cobra.Command{
	Use:   "dump-super [options] device [device...]",
	Short: "Dump superblock from a device in a textual form",
	Long: `Dump btrfs superblock copies from one or more devices.

Examples:
  # Dump the primary superblock
  btrfs-inspect dump-super /dev/sda

  # Dump all superblock copies with full detail
  btrfs-inspect dump-super --all --full /dev/sda

  # Dump a superblock at an arbitrary offset
  btrfs-inspect dump-super --bytenr 65536 image.raw`,

	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadInspectConfig()
		cobra.CheckErr(err)

		req, err := resolveDumpRequest(cmd, args, cfg)
		cobra.CheckErr(err)

		var errw io.Writer = os.Stderr
		if quiet {
			errw = io.Discard
		}

		svc := services.NewDumpService(os.Stdout, errw)
		cobra.CheckErr(svc.ProcessDevices(req))
	},
}

func init() {
	rootCmd.AddCommand(dumpSuperCmd)
	registerDumpSuperFlags(dumpSuperCmd)
}

func registerDumpSuperFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVarP(&dumpSuperFull, "full", "f", false, "print full superblock information, backup roots etc.")
	cmd.Flags().BoolVarP(&dumpSuperAll, "all", "a", false, "print information about all superblock copies")
	cmd.Flags().BoolVarP(&dumpSuperForce, "force", "F", false, "attempt to dump superblocks with bad magic")
	cmd.Flags().Uint64VarP(&dumpSuperSlot, "super", "s", 0, "specify which copy to print out (values: 0, 1, 2)")
	cmd.Flags().Uint64Var(&dumpSuperBytenr, "bytenr", 0, "specify alternate superblock offset")
	cmd.Flags().StringVarP(&dumpSuperFormat, "output", "o", "", "output format (text, json, yaml)")

	// Old spelling of --super, kept for backward compatibility.
	cmd.Flags().Uint64VarP(&dumpSuperCopy, "copy", "i", 0, "specify which copy to print out (values: 0, 1, 2)")
	cmd.Flags().MarkDeprecated("copy", "please use -s or --super")

	cmd.MarkFlagsMutuallyExclusive("super", "bytenr")
}

// resolveDumpRequest translates flags, arguments, and configuration
// defaults into the concrete dump request. Addressing is decided here
// exactly once: a mirror index or a raw offset, never re-interpreted
// later.
func resolveDumpRequest(cmd *cobra.Command, args []string, cfg *config.InspectConfig) (*services.DumpRequest, error) {
	req := &services.DumpRequest{
		Devices:  args,
		All:      cfg.AllMirrors,
		Location: services.MirrorLocation(0),
		Full:     cfg.FullDetail,
		Force:    dumpSuperForce,
		Format:   cfg.OutputFormat,
		Verbose:  verbose && !quiet,
	}

	if cmd.Flags().Changed("all") {
		req.All = dumpSuperAll
	}
	if cmd.Flags().Changed("full") {
		req.Full = dumpSuperFull
	}
	if cmd.Flags().Changed("output") {
		req.Format = dumpSuperFormat
	}

	if cmd.Flags().Changed("copy") {
		if dumpSuperCopy >= types.SuperMirrorMax {
			return nil, fmt.Errorf("super mirror too big: %d >= %d", dumpSuperCopy, types.SuperMirrorMax)
		}
		req.Location = services.MirrorLocation(int(dumpSuperCopy))
	}

	// Historical dual interpretation of -s: a value beyond the valid
	// mirror range is taken as a raw byte offset.
	if cmd.Flags().Changed("super") {
		if dumpSuperSlot >= types.SuperMirrorMax {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: deprecated use of -s <bytenr> with %d, assuming --bytenr\n", dumpSuperSlot)
			req.Location = services.RawLocation(dumpSuperSlot)
		} else {
			req.Location = services.MirrorLocation(int(dumpSuperSlot))
		}
		req.All = false
	}

	if cmd.Flags().Changed("bytenr") {
		req.Location = services.RawLocation(dumpSuperBytenr)
		req.All = false
	}

	return req, nil
}
