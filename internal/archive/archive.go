package archive

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/moinakg/pcompress-go/internal/pipeline"
)

// walkPaths builds an Entry list and a parallel slice of absolute
// on-disk paths, in lockstep, for every regular file under roots. The
// ordering of the two returned slices must stay in sync: concatReader
// below opens files strictly in this order, and the decoded Entry list
// on extraction drives splitWriter in that same order, mirroring the
// teacher's pfs0_writer.go comment that "AddFile assumes files are
// added in order."
func walkPaths(roots []string) (entries []Entry, paths []string, err error) {
	for _, root := range roots {
		base := filepath.Dir(root)
		walkErr := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				return nil
			}
			rel, err := filepath.Rel(base, path)
			if err != nil {
				return err
			}
			entries = append(entries, Entry{
				Name: filepath.ToSlash(rel),
				Size: uint64(info.Size()),
				Mode: uint32(info.Mode().Perm()),
			})
			paths = append(paths, path)
			return nil
		})
		if walkErr != nil {
			return nil, nil, fmt.Errorf("archive: walk %s: %w", root, walkErr)
		}
	}
	return entries, paths, nil
}

// concatReader presents a sequence of files, opened lazily one at a
// time, as a single continuous io.Reader — the input Compress sees is
// indistinguishable from one big file, so pipeline.Compress needs no
// archive-awareness beyond the MetaBody/Archive option fields.
type concatReader struct {
	paths   []string
	idx     int
	current *os.File
}

func newConcatReader(paths []string) *concatReader {
	return &concatReader{paths: paths}
}

func (c *concatReader) Read(p []byte) (int, error) {
	for {
		if c.current == nil {
			if c.idx >= len(c.paths) {
				return 0, io.EOF
			}
			f, err := os.Open(c.paths[c.idx])
			if err != nil {
				return 0, err
			}
			c.current = f
		}
		n, err := c.current.Read(p)
		if n > 0 {
			return n, nil
		}
		if err == io.EOF {
			c.current.Close()
			c.current = nil
			c.idx++
			continue
		}
		if err != nil {
			c.current.Close()
			c.current = nil
			return 0, err
		}
	}
}

func (c *concatReader) Close() error {
	if c.current != nil {
		return c.current.Close()
	}
	return nil
}

// splitWriter receives the continuous decompressed output stream and
// re-splits it back into the individual files described by entries,
// in the same order they were concatenated on the create side.
type splitWriter struct {
	destDir   string
	entries   []Entry
	idx       int
	remaining uint64
	current   *os.File
}

func newSplitWriter(destDir string, entries []Entry) *splitWriter {
	return &splitWriter{destDir: destDir, entries: entries}
}

func (s *splitWriter) openNext() error {
	for s.idx < len(s.entries) && s.entries[s.idx].Size == 0 {
		if err := s.createEmpty(s.entries[s.idx]); err != nil {
			return err
		}
		s.idx++
	}
	if s.idx >= len(s.entries) {
		return nil
	}
	e := s.entries[s.idx]
	path := filepath.Join(s.destDir, filepath.FromSlash(e.Name))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, os.FileMode(e.Mode))
	if err != nil {
		return err
	}
	s.current = f
	s.remaining = e.Size
	return nil
}

func (s *splitWriter) createEmpty(e Entry) error {
	path := filepath.Join(s.destDir, filepath.FromSlash(e.Name))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, os.FileMode(e.Mode))
	if err != nil {
		return err
	}
	return f.Close()
}

func (s *splitWriter) Write(p []byte) (int, error) {
	total := 0
	for len(p) > 0 {
		if s.current == nil {
			if err := s.openNext(); err != nil {
				return total, err
			}
			if s.current == nil {
				return total, fmt.Errorf("archive: extracted data exceeds sum of entry sizes")
			}
		}
		n := len(p)
		if uint64(n) > s.remaining {
			n = int(s.remaining)
		}
		wn, err := s.current.Write(p[:n])
		total += wn
		if err != nil {
			return total, err
		}
		s.remaining -= uint64(wn)
		p = p[wn:]
		if s.remaining == 0 {
			if err := s.current.Close(); err != nil {
				return total, err
			}
			s.current = nil
			s.idx++
		}
	}
	return total, nil
}

// Close finalises any entries that were zero-length and never opened
// by Write (e.g. a trailing empty file), and closes the file still
// held open, if any.
func (s *splitWriter) Close() error {
	if s.current != nil {
		if err := s.current.Close(); err != nil {
			return err
		}
		s.current = nil
	}
	for s.idx < len(s.entries) {
		if err := s.createEmpty(s.entries[s.idx]); err != nil {
			return err
		}
		s.idx++
	}
	return nil
}

// CreateArchive walks roots, builds the metadata-stream entry list,
// and compresses the concatenated file contents into w as a single
// archive-mode pcompress stream (spec §4.8).
func CreateArchive(ctx context.Context, roots []string, w io.Writer, opts pipeline.Options) (pipeline.Stats, error) {
	entries, paths, err := walkPaths(roots)
	if err != nil {
		return pipeline.Stats{}, err
	}

	opts.Archive = true
	opts.MetaBody = EncodeEntries(entries)

	cr := newConcatReader(paths)
	defer cr.Close()

	return pipeline.Compress(ctx, cr, w, opts)
}

// ExtractArchive reads an archive-mode pcompress stream from r and
// recreates its files under destDir, using the metadata-stream entry
// list recovered mid-decode to split the continuous output back into
// individual files.
func ExtractArchive(ctx context.Context, r io.Reader, destDir string, opts pipeline.Options) (pipeline.Stats, error) {
	var sw *splitWriter
	opts.OnMetadata = func(body []byte) error {
		entries, err := DecodeEntries(body)
		if err != nil {
			return err
		}
		sw = newSplitWriter(destDir, entries)
		return nil
	}

	pw := &lazyWriter{open: func() (io.Writer, error) {
		if sw == nil {
			return nil, fmt.Errorf("archive: data chunk arrived before metadata stream")
		}
		return sw, nil
	}}

	stats, err := pipeline.Decompress(ctx, r, pw, opts)
	if err != nil {
		return stats, err
	}
	if sw != nil {
		if cerr := sw.Close(); cerr != nil {
			return stats, cerr
		}
	}
	return stats, nil
}

// lazyWriter defers resolving its real destination until first write,
// since pipeline.Decompress's OnMetadata callback (which supplies the
// entry list splitWriter needs) only fires once the metadata chunk is
// read, strictly before any data chunk — but after Decompress has
// already been handed its io.Writer.
type lazyWriter struct {
	open func() (io.Writer, error)
	w    io.Writer
}

func (l *lazyWriter) Write(p []byte) (int, error) {
	if l.w == nil {
		w, err := l.open()
		if err != nil {
			return 0, err
		}
		l.w = w
	}
	return l.w.Write(p)
}
