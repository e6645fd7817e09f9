package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/moinakg/pcompress-go/internal/frame"
	"github.com/moinakg/pcompress-go/internal/pipeline"
	"github.com/moinakg/pcompress-go/internal/statlog"
)

func newDecompressCommand(log *logrus.Logger) *cobra.Command {
	var f coreFlags
	cmd := &cobra.Command{
		Use:   "decompress [input] [output]",
		Short: "Decompress a file or stream previously produced by compress",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecompress(log, &f, args)
		},
	}
	addCoreFlags(cmd, &f)
	return cmd
}

func runDecompress(log *logrus.Logger, f *coreFlags, args []string) error {
	opts, err := f.buildOptions()
	if err != nil {
		return err
	}

	in, out, outPath, closeFn, err := openStreams(f.pipeMode, args)
	if err != nil {
		return err
	}
	defer closeFn()

	if opts.CipherID != 0 && f.passfile != "" {
		seeker, ok := in.(io.ReadSeeker)
		if !ok {
			return fmt.Errorf("pcompress: password-based decryption needs a seekable input, not a pipe")
		}
		_, salt, err := frame.PeekSalt(seeker)
		if err != nil {
			return fmt.Errorf("pcompress: reading salt from header: %w", err)
		}
		if _, err := seeker.Seek(0, io.SeekStart); err != nil {
			return fmt.Errorf("pcompress: rewinding input: %w", err)
		}
		key, _, err := readPassphraseKey(f.passfile, f.keylen, salt)
		if err != nil {
			return err
		}
		opts.Key = key
	}

	start := time.Now()
	stats, err := pipeline.Decompress(context.Background(), in, out, opts)
	if err != nil {
		if outPath != "" {
			os.Remove(outPath)
		}
		return fmt.Errorf("pcompress: decompress: %w", err)
	}
	statlog.Report(log, stats, time.Since(start), f.verbose, f.showChunks)
	return nil
}
