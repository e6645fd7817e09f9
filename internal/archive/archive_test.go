package archive

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/moinakg/pcompress-go/internal/codec"
	"github.com/moinakg/pcompress-go/internal/digest"
	"github.com/moinakg/pcompress-go/internal/pipeline"
)

func TestEncodeDecodeEntriesRoundTrip(t *testing.T) {
	entries := []Entry{
		{Name: "a.txt", Size: 10, Mode: 0o644},
		{Name: "sub/b.bin", Size: 0, Mode: 0o600},
		{Name: "sub/c.dat", Size: 123456, Mode: 0o755},
	}
	body := EncodeEntries(entries)
	back, err := DecodeEntries(body)
	if err != nil {
		t.Fatalf("DecodeEntries: %v", err)
	}
	if len(back) != len(entries) {
		t.Fatalf("entry count mismatch: got %d, want %d", len(back), len(entries))
	}
	for i := range entries {
		if back[i] != entries[i] {
			t.Fatalf("entry %d mismatch: got %+v, want %+v", i, back[i], entries[i])
		}
	}
}

func writeTestTree(t *testing.T, root string) {
	t.Helper()
	files := map[string]string{
		"one.txt":        "contents of the first file, repeated a bit. " + string(bytes.Repeat([]byte("x"), 2000)),
		"nested/two.txt": "a second, smaller file",
		"nested/empty":   "",
	}
	for name, contents := range files {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("MkdirAll: %v", err)
		}
		if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}
}

func TestCreateExtractArchiveRoundTrip(t *testing.T) {
	srcDir := t.TempDir()
	writeTestTree(t, srcDir)

	opts := pipeline.Options{
		ChunkSize: 64 * 1024,
		Level:     6,
		NWorkers:  2,
		Algo:      codec.Zlib,
		Cksum:     digest.SHA256,
	}

	var archived bytes.Buffer
	if _, err := CreateArchive(context.Background(), []string{srcDir}, &archived, opts); err != nil {
		t.Fatalf("CreateArchive: %v", err)
	}

	destDir := t.TempDir()
	if _, err := ExtractArchive(context.Background(), bytes.NewReader(archived.Bytes()), destDir, opts); err != nil {
		t.Fatalf("ExtractArchive: %v", err)
	}

	wantRoot := filepath.Join(destDir, filepath.Base(srcDir))
	var gotFiles []string
	if err := filepath.Walk(wantRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(wantRoot, path)
		if err != nil {
			return err
		}
		gotFiles = append(gotFiles, filepath.ToSlash(rel))
		wantPath := filepath.Join(srcDir, rel)
		want, err := os.ReadFile(wantPath)
		if err != nil {
			return err
		}
		got, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("content mismatch for %s: got %d bytes, want %d bytes", rel, len(got), len(want))
		}
		return nil
	}); err != nil {
		t.Fatalf("walking extracted tree: %v", err)
	}

	sort.Strings(gotFiles)
	want := []string{"nested/empty", "nested/two.txt", "one.txt"}
	if len(gotFiles) != len(want) {
		t.Fatalf("extracted file set mismatch: got %v, want %v", gotFiles, want)
	}
	for i := range want {
		if gotFiles[i] != want[i] {
			t.Fatalf("extracted file set mismatch: got %v, want %v", gotFiles, want)
		}
	}
}

func TestListReportsEntriesAndChunks(t *testing.T) {
	srcDir := t.TempDir()
	writeTestTree(t, srcDir)

	opts := pipeline.Options{
		ChunkSize: 4096,
		Level:     6,
		NWorkers:  2,
		Algo:      codec.Zlib,
		Cksum:     digest.SHA256,
	}

	var archived bytes.Buffer
	if _, err := CreateArchive(context.Background(), []string{srcDir}, &archived, opts); err != nil {
		t.Fatalf("CreateArchive: %v", err)
	}

	res, err := List(bytes.NewReader(archived.Bytes()), nil)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(res.Entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(res.Entries))
	}
	if len(res.Chunks) == 0 {
		t.Fatalf("expected at least one chunk summary")
	}
}
