package statlog

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/moinakg/pcompress-go/internal/pipeline"
)

// Report prints a run's Stats at shutdown, honouring the CLI's -v
// (verbose, per-field) and -C (summary ratio/throughput only, passed as
// summary) flags.
// Neither flag set prints anything, matching the teacher's own CLI
// which stays silent unless asked.
func Report(log *logrus.Logger, stats pipeline.Stats, elapsed time.Duration, verbose, summary bool) {
	if !verbose && !summary {
		return
	}

	ratio := 0.0
	if stats.BytesIn > 0 {
		ratio = float64(stats.BytesOut) / float64(stats.BytesIn) * 100
	}
	throughput := 0.0
	if elapsed > 0 {
		throughput = float64(stats.BytesIn) / elapsed.Seconds()
	}

	if summary {
		log.WithFields(logrus.Fields{
			"in":         BytesToSize(uint64(stats.BytesIn)),
			"out":        BytesToSize(uint64(stats.BytesOut)),
			"ratio_pct":  fmtRatio(ratio),
			"throughput": BytesToSize(uint64(throughput)) + "/s",
			"elapsed":    elapsed.Round(time.Millisecond),
		}).Info("pcompress: done")
	}

	if verbose {
		log.WithFields(logrus.Fields{
			"chunks_in":           stats.ChunksIn,
			"chunks_out":          stats.ChunksOut,
			"bytes_in":            BytesToSize(uint64(stats.BytesIn)),
			"bytes_out":           BytesToSize(uint64(stats.BytesOut)),
			"deduped_chunks":      stats.DedupedChunks,
			"preprocessed_chunks": stats.PreprocessedChunks,
		}).Info("pcompress: chunk stats")
	}
}

func fmtRatio(pct float64) string {
	return fmt.Sprintf("%.2f", pct)
}
