package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/moinakg/pcompress-go/internal/archive"
	"github.com/moinakg/pcompress-go/internal/frame"
	"github.com/moinakg/pcompress-go/internal/pcerr"
	"github.com/moinakg/pcompress-go/internal/statlog"
)

// newArchiveCommand implements the `-a` archive-create flow and its
// extraction counterpart (spec §4.8) as two cobra subcommands, since
// unlike compress/decompress they operate on a set of file-tree roots
// or a destination directory rather than a single input/output stream.
func newArchiveCommand(log *logrus.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Create or extract a multi-file archive (spec §4.8 metadata stream)",
	}
	cmd.AddCommand(newArchiveCreateCommand(log), newArchiveExtractCommand(log))
	return cmd
}

func newArchiveCreateCommand(log *logrus.Logger) *cobra.Command {
	var f coreFlags
	cmd := &cobra.Command{
		Use:   "create <output> <path>...",
		Short: "Build an archive from one or more file-tree roots",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runArchiveCreate(log, &f, args[0], args[1:])
		},
	}
	addCoreFlags(cmd, &f)
	return cmd
}

func runArchiveCreate(log *logrus.Logger, f *coreFlags, outPath string, roots []string) error {
	if len(roots) == 0 {
		return fmt.Errorf("pcompress: archive create needs at least one path to archive")
	}
	opts, err := f.buildOptions()
	if err != nil {
		return err
	}

	if _, statErr := os.Stat(outPath); statErr == nil {
		return pcerr.NewSoft(fmt.Errorf("pcompress: target %s already exists", outPath), exitTargetExists)
	}
	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("pcompress: creating archive output: %w", err)
	}
	defer out.Close()

	start := time.Now()
	stats, err := archive.CreateArchive(context.Background(), roots, out, opts)
	if err != nil {
		os.Remove(outPath)
		return fmt.Errorf("pcompress: archive create: %w", err)
	}
	statlog.Report(log, stats, time.Since(start), f.verbose, f.showChunks)
	return nil
}

func newArchiveExtractCommand(log *logrus.Logger) *cobra.Command {
	var f coreFlags
	var destDir string
	var skipNewer bool
	cmd := &cobra.Command{
		Use:   "extract <archive>",
		Short: "Extract a previously created archive into a destination directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runArchiveExtract(log, &f, args[0], destDir, skipNewer)
		},
	}
	addCoreFlags(cmd, &f)
	cmd.Flags().StringVarP(&destDir, "dest", "o", ".", "destination directory")
	cmd.Flags().BoolVarP(&skipNewer, "no-overwrite-newer", "K", false, "refuse to extract when the destination directory already exists")
	return cmd
}

func runArchiveExtract(log *logrus.Logger, f *coreFlags, inPath, destDir string, skipNewer bool) error {
	opts, err := f.buildOptions()
	if err != nil {
		return err
	}

	in, err := os.Open(inPath)
	if err != nil {
		return fmt.Errorf("pcompress: opening archive: %w", err)
	}
	defer in.Close()

	if opts.CipherID != 0 && f.passfile != "" {
		_, salt, err := frame.PeekSalt(in)
		if err != nil {
			return fmt.Errorf("pcompress: reading salt from header: %w", err)
		}
		if _, err := in.Seek(0, io.SeekStart); err != nil {
			return fmt.Errorf("pcompress: rewinding archive: %w", err)
		}
		key, _, err := readPassphraseKey(f.passfile, f.keylen, salt)
		if err != nil {
			return err
		}
		opts.Key = key
	}

	if skipNewer {
		if _, err := os.Stat(destDir); err == nil {
			return fmt.Errorf("pcompress: destination %s already exists, refusing to overwrite (-K)", destDir)
		}
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("pcompress: creating destination: %w", err)
	}

	start := time.Now()
	stats, err := archive.ExtractArchive(context.Background(), in, destDir, opts)
	if err != nil {
		return fmt.Errorf("pcompress: archive extract: %w", err)
	}
	statlog.Report(log, stats, time.Since(start), f.verbose, f.showChunks)
	return nil
}
