// Package pcerr defines the error taxonomy used across the pcompress
// pipeline: fatal errors abort the run, recoverable errors are retried
// locally, and soft errors are reported only through the process exit code.
package pcerr

import (
	"errors"
	"fmt"
)

// Fatal wraps an error that must abort the run: allocation failure, short
// write, MAC/digest mismatch, header CRC mismatch, malformed frame, cipher
// init failure, or an unknown algorithm id encountered on decompress.
type Fatal struct {
	Op  string
	Err error
}

func (f *Fatal) Error() string {
	if f.Op == "" {
		return f.Err.Error()
	}
	return fmt.Sprintf("%s: %v", f.Op, f.Err)
}

func (f *Fatal) Unwrap() error { return f.Err }

// NewFatal wraps err as a Fatal error tagged with the operation that failed.
func NewFatal(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Fatal{Op: op, Err: err}
}

// IsFatal reports whether err (or anything it wraps) is a Fatal error.
func IsFatal(err error) bool {
	var f *Fatal
	return errors.As(err, &f)
}

// Soft wraps an error that is only reported via the process exit code:
// password mismatch, target exists, target path not a directory.
type Soft struct {
	Err      error
	ExitCode int
}

func (s *Soft) Error() string { return s.Err.Error() }
func (s *Soft) Unwrap() error { return s.Err }

func NewSoft(err error, exitCode int) error {
	if err == nil {
		return nil
	}
	return &Soft{Err: err, ExitCode: exitCode}
}

// ExitCode extracts the process exit code for err: 0 on nil, the Soft
// error's code if it is one, or 1 for any other error.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var s *Soft
	if errors.As(err, &s) {
		return s.ExitCode
	}
	return 1
}

var (
	// ErrMacMismatch is returned by decompression when a chunk's or the
	// file header's HMAC does not verify (CRC32 failures in the
	// non-encrypting path return ErrHeaderCRC).
	ErrMacMismatch = errors.New("pcompress: MAC mismatch")
	// ErrDigestMismatch is returned when the stored per-chunk digest does
	// not match the recomputed digest of the decompressed bytes.
	ErrDigestMismatch = errors.New("pcompress: digest mismatch")
	// ErrHeaderCRC is returned when the file header's trailing CRC32, or a
	// chunk frame's CRC32 in the non-encrypting path, does not match.
	ErrHeaderCRC = errors.New("pcompress: file header CRC mismatch")
	// ErrFrameCorrupt is returned when a chunk frame cannot be parsed:
	// impossible length, impossible flags, or a truncated chunk.
	ErrFrameCorrupt = errors.New("pcompress: corrupt chunk frame")
	// ErrUnknownAlgorithm is returned when a decompressor encounters an
	// algorithm id it does not recognise.
	ErrUnknownAlgorithm = errors.New("pcompress: unknown algorithm")
	// ErrCancelled names a run stopped by a fatal error elsewhere in the
	// pipeline. The pipeline does not return it: a stopped run ends with
	// the first error or the context's error.
	ErrCancelled = errors.New("pcompress: run cancelled")
	// ErrUnavailable names an algorithm with no implementation in this
	// build (PPMd, libbsc, Skein). The codec and digest packages do not
	// return it; they report those algorithms with their own
	// "not available in this build" errors.
	ErrUnavailable = errors.New("pcompress: algorithm not available in this build")
)
