// Package iofs is the filesystem shim every other package writes and reads
// through. It never lets a caller observe a partially written file: every
// write goes through a temp-file-then-rename sequence on the same
// directory as the final path.
package iofs

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// Shim wraps an afero.Fs with the atomic-write and tolerant-read helpers
// the pipeline needs. The zero value is not usable; construct with New or
// NewMem.
type Shim struct {
	fs afero.Fs
}

// New returns a Shim backed by the real OS filesystem.
func New() Shim {
	return Shim{fs: afero.NewOsFs()}
}

// NewMem returns a Shim backed by an in-memory filesystem, for deterministic
// tests that don't want to touch disk.
func NewMem() Shim {
	return Shim{fs: afero.NewMemMapFs()}
}

// Wrap adapts an existing afero.Fs (e.g. a BasePathFs scoped to one run's
// output directory).
func Wrap(fs afero.Fs) Shim {
	return Shim{fs: fs}
}

// Fs exposes the underlying afero.Fs for callers that need direct access
// (e.g. markdown tests asserting on file contents).
func (s Shim) Fs() afero.Fs {
	return s.fs
}

// MkdirAll idempotently creates dir and any missing parents.
func (s Shim) MkdirAll(dir string, mode fs.FileMode) error {
	return s.fs.MkdirAll(dir, mode)
}

// WriteFileAtomic writes data to a temp file in filepath.Dir(path) and
// renames it over path once fully flushed. The temp file is always cleaned
// up on any error path; the final file only becomes visible via the rename.
func (s Shim) WriteFileAtomic(path string, data []byte, mode fs.FileMode) error {
	dir := filepath.Dir(path)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("WriteFileAtomic: mkdir %s: %w", dir, err)
	}

	tmp, err := afero.TempFile(s.fs, dir, ".llp-tmp-*")
	if err != nil {
		return fmt.Errorf("WriteFileAtomic: create temp in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	defer func() { _ = s.fs.Remove(tmpName) }()

	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("WriteFileAtomic: chmod: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("WriteFileAtomic: write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("WriteFileAtomic: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("WriteFileAtomic: close: %w", err)
	}
	if err := s.fs.Rename(tmpName, path); err != nil {
		return fmt.Errorf("WriteFileAtomic: rename into place: %w", err)
	}
	return nil
}

// WriteLinesAtomic is WriteFileAtomic for pre-joined LF-terminated lines;
// it exists so callers building jsonl output don't pay for an extra string
// concatenation of the whole file before writing.
func (s Shim) WriteLinesAtomic(path string, lines [][]byte, mode fs.FileMode) error {
	var buf bytes.Buffer
	for _, l := range lines {
		buf.Write(l)
		buf.WriteByte('\n')
	}
	return s.WriteFileAtomic(path, buf.Bytes(), mode)
}

// ReadFile reads path, stripping a leading UTF-8 BOM if present; it does
// not otherwise transform content. Callers that also need CRLF/CR
// normalization should use ReadAllTolerant.
func (s Shim) ReadFile(path string) ([]byte, error) {
	b, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return nil, err
	}
	return stripBOM(b), nil
}

// Open returns a buffered reader over path with the leading BOM (if any)
// already consumed, suitable for streaming decoders.
func (s Shim) Open(path string) (afero.File, *bufio.Reader, error) {
	f, err := s.fs.Open(path)
	if err != nil {
		return nil, nil, err
	}
	br := bufio.NewReaderSize(f, 1<<20)
	peek, err := br.Peek(3)
	if err == nil && bytes.Equal(peek, bom) {
		_, _ = br.Discard(3)
	}
	return f, br, nil
}

// Exists reports whether path exists, treating any stat error other than
// "not exist" as false (callers that need to distinguish should Stat
// directly).
func (s Shim) Exists(path string) bool {
	_, err := s.fs.Stat(path)
	return err == nil
}

var bom = []byte{0xEF, 0xBB, 0xBF}

func stripBOM(b []byte) []byte {
	if bytes.HasPrefix(b, bom) {
		return b[3:]
	}
	return b
}

// ReadAllTolerant reads everything from r, stripping a leading BOM and
// normalizing CRLF/CR to LF.
func ReadAllTolerant(r io.Reader) ([]byte, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	b = stripBOM(b)
	b = bytes.ReplaceAll(b, []byte("\r\n"), []byte("\n"))
	b = bytes.ReplaceAll(b, []byte("\r"), []byte("\n"))
	return b, nil
}

// IsNotExist mirrors os.IsNotExist for afero-returned errors.
func IsNotExist(err error) bool {
	return os.IsNotExist(err)
}
