package dataset

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Compression is inferred from the file suffix.
type Compression int

const (
	CompressionNone Compression = iota
	CompressionGzip
	CompressionZstd
)

// CompressionFor returns the codec for path based on its suffix.
func CompressionFor(path string) Compression {
	switch {
	case strings.HasSuffix(path, ".gz"):
		return CompressionGzip
	case strings.HasSuffix(path, ".zst"):
		return CompressionZstd
	default:
		return CompressionNone
	}
}

// TrimCompressionSuffix strips .gz or .zst so callers can inspect the inner
// extension (e.g. .csv vs .txt).
func TrimCompressionSuffix(path string) string {
	path = strings.TrimSuffix(path, ".gz")
	return strings.TrimSuffix(path, ".zst")
}

type multiCloser struct {
	io.Reader
	closers []io.Closer
}

func (m *multiCloser) Close() error {
	var first error
	for _, c := range m.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// openFile opens path for reading, transparently decompressing it.
func openFile(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	switch CompressionFor(path) {
	case CompressionGzip:
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close() //nolint:errcheck
			return nil, fmt.Errorf("gzip: %s: %w", path, err)
		}
		return &multiCloser{Reader: gz, closers: []io.Closer{gz, f}}, nil
	case CompressionZstd:
		dec, err := zstd.NewReader(f)
		if err != nil {
			f.Close() //nolint:errcheck
			return nil, fmt.Errorf("zstd: %s: %w", path, err)
		}
		rc := dec.IOReadCloser()
		return &multiCloser{Reader: rc, closers: []io.Closer{rc, f}}, nil
	default:
		return f, nil
	}
}

type writeCloser struct {
	io.Writer
	closers []io.Closer
}

func (w *writeCloser) Close() error {
	var first error
	for _, c := range w.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// createFile creates path for writing, compressing according to its suffix.
// The compressor is flushed before the file is closed.
func createFile(path string) (io.WriteCloser, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	switch CompressionFor(path) {
	case CompressionGzip:
		gz := gzip.NewWriter(f)
		return &writeCloser{Writer: gz, closers: []io.Closer{gz, f}}, nil
	case CompressionZstd:
		enc, err := zstd.NewWriter(f)
		if err != nil {
			f.Close() //nolint:errcheck
			return nil, fmt.Errorf("zstd: %s: %w", path, err)
		}
		return &writeCloser{Writer: enc, closers: []io.Closer{enc, f}}, nil
	default:
		return f, nil
	}
}
