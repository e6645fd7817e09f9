package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/moinakg/pcompress-go/internal/pcerr"
	"github.com/moinakg/pcompress-go/internal/pipeline"
	"github.com/moinakg/pcompress-go/internal/statlog"
)

// exitTargetExists is the process exit code for spec §7's "target file
// exists (compress)" soft-error condition.
const exitTargetExists = 3

func newCompressCommand(log *logrus.Logger) *cobra.Command {
	var f coreFlags
	cmd := &cobra.Command{
		Use:   "compress [input] [output]",
		Short: "Compress a file or stream",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompress(log, &f, args)
		},
	}
	addCoreFlags(cmd, &f)
	return cmd
}

func runCompress(log *logrus.Logger, f *coreFlags, args []string) error {
	opts, err := f.buildOptions()
	if err != nil {
		return err
	}

	in, out, outPath, closeFn, err := openStreams(f.pipeMode, args)
	if err != nil {
		return err
	}
	defer closeFn()

	start := time.Now()
	stats, err := pipeline.Compress(context.Background(), in, out, opts)
	if err != nil {
		if outPath != "" {
			os.Remove(outPath)
		}
		return fmt.Errorf("pcompress: compress: %w", err)
	}
	statlog.Report(log, stats, time.Since(start), f.verbose, f.showChunks)
	return nil
}

// openStreams resolves the (input, output) io pair for compress/decompress:
// -p (pipeMode) or no positional args means stdin/stdout, matching the
// teacher's own "no args means nothing to do" CLI contract but extended to
// a streaming pipe per spec §6's -p flag. The returned path is empty when
// the output is stdout, so callers know not to unlink a pipe on failure.
func openStreams(pipeMode bool, args []string) (io.Reader, io.Writer, string, func(), error) {
	if pipeMode || len(args) == 0 {
		return os.Stdin, os.Stdout, "", func() {}, nil
	}

	inFile, err := os.Open(args[0])
	if err != nil {
		return nil, nil, "", nil, fmt.Errorf("pcompress: opening input: %w", err)
	}

	var outFile *os.File
	var outPath string
	if len(args) >= 2 {
		outPath = args[1]
		if _, statErr := os.Stat(outPath); statErr == nil {
			inFile.Close()
			return nil, nil, "", nil, pcerr.NewSoft(fmt.Errorf("pcompress: target %s already exists", outPath), exitTargetExists)
		}
		outFile, err = os.Create(outPath)
		if err != nil {
			inFile.Close()
			return nil, nil, "", nil, fmt.Errorf("pcompress: creating output: %w", err)
		}
	} else {
		outFile = os.Stdout
	}

	closeFn := func() {
		inFile.Close()
		if outFile != os.Stdout {
			outFile.Close()
		}
	}
	return inFile, outFile, outPath, closeFn, nil
}
