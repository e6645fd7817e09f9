// Command pcompress is the CLI surface of spec.md §6, with one subcommand
// per mode: compress, decompress, list (archive only), and archive
// (create/extract), built on github.com/spf13/cobra the way the rest
// of the retrieval pack's cobra-based CLIs (fenilsonani-vcs) structure a
// multi-subcommand tool: one *cobra.Command constructor per mode, wired
// together from main.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/moinakg/pcompress-go/internal/pcerr"
)

var version = "dev"

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	rootCmd := &cobra.Command{
		Use:     "pcompress",
		Short:   "Chunked, parallel, multi-algorithm compressor",
		Version: version,
	}

	rootCmd.AddCommand(
		newCompressCommand(log),
		newDecompressCommand(log),
		newListCommand(log),
		newArchiveCommand(log),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(pcerr.ExitCode(err))
	}
}
