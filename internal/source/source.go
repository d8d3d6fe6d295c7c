// Package source opens acquisition files for decoding.
package source

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/spf13/afero"
)

// SniffSize is the number of leading bytes returned by Sniff.
const SniffSize = 512

// ErrEmptyPath is returned when Open is called without a path.
var ErrEmptyPath = errors.New("file path is empty")

// Input is an opened acquisition file. It is an io.ReadSeeker positioned at
// offset 0 and must be closed by the caller.
type Input struct {
	Name       string
	Size       int64
	Compressed bool

	rs     io.ReadSeeker
	closer io.Closer
}

// Open opens path on fsys. Files ending in ".zst" are decompressed into
// memory so the result stays seekable.
func Open(fsys afero.Fs, path string) (*Input, error) {
	if path == "" {
		slog.Error("source has empty path")
		return nil, ErrEmptyPath
	}

	slog.Debug("opening acquisition file", "path", path)

	file, err := fsys.Open(path)
	if err != nil {
		slog.Error("failed to open file", "path", path, "error", err)
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	if !IsCompressed(path) {
		info, err := file.Stat()
		if err != nil {
			file.Close()
			slog.Error("failed to stat file", "path", path, "error", err)
			return nil, fmt.Errorf("failed to stat file: %w", err)
		}
		return &Input{Name: path, Size: info.Size(), rs: file, closer: file}, nil
	}

	defer file.Close()

	dec, err := zstd.NewReader(file)
	if err != nil {
		slog.Error("failed to create zstd decoder", "path", path, "error", err)
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}
	defer dec.Close()

	data, err := io.ReadAll(dec)
	if err != nil {
		slog.Error("failed to decompress file", "path", path, "error", err)
		return nil, fmt.Errorf("decompressing %s: %w", path, err)
	}

	slog.Debug("decompressed acquisition file", "path", path, "size_bytes", len(data))

	return &Input{
		Name:       path,
		Size:       int64(len(data)),
		Compressed: true,
		rs:         bytes.NewReader(data),
	}, nil
}

// IsCompressed reports whether path names a zstd-compressed file.
func IsCompressed(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".zst")
}

// Read implements io.Reader.
func (in *Input) Read(p []byte) (int, error) {
	return in.rs.Read(p)
}

// Seek implements io.Seeker.
func (in *Input) Seek(offset int64, whence int) (int64, error) {
	return in.rs.Seek(offset, whence)
}

// Close releases the underlying file, if any.
func (in *Input) Close() error {
	if in.closer == nil {
		return nil
	}
	err := in.closer.Close()
	in.closer = nil
	return err
}

// Sniff returns up to SniffSize leading bytes and rewinds the input.
func (in *Input) Sniff() ([]byte, error) {
	if _, err := in.rs.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	head, err := readHead(in.rs)
	if err != nil {
		return nil, err
	}
	if _, err := in.rs.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return head, nil
}

// SniffFile returns up to SniffSize leading bytes of path without opening
// it for decoding. Compressed files are decompressed only as far as needed.
func SniffFile(fsys afero.Fs, path string) ([]byte, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}

	file, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	if !IsCompressed(path) {
		return readHead(file)
	}

	dec, err := zstd.NewReader(file, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}
	defer dec.Close()

	head, err := readHead(dec)
	if err != nil {
		slog.Debug("failed to sniff compressed file", "path", path, "error", err)
		return nil, fmt.Errorf("decompressing %s: %w", path, err)
	}
	return head, nil
}

func readHead(r io.Reader) ([]byte, error) {
	buf := make([]byte, SniffSize)
	n, err := io.ReadFull(r, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, err
	}
	return buf[:n], nil
}
