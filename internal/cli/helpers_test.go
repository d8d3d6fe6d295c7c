package cli

import (
	"bytes"
	"encoding/binary"
	"log/slog"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

const (
	headerSize      = 156
	systemSize      = 592
	applicationSize = 1512
	processingSize  = 108

	sequenceNameOffset = headerSize + systemSize + 760
)

// riDatFile builds a RiDat file with zeroed parameters apart from title and
// sequence name. Each sample is {time, real, imag}.
func riDatFile(version int32, title, sequence string, samples ...[3]float64) []byte {
	le := binary.LittleEndian
	var buf bytes.Buffer
	binary.Write(&buf, le, int32(190955))
	binary.Write(&buf, le, version)
	for _, size := range []int32{headerSize, systemSize, applicationSize, processingSize} {
		binary.Write(&buf, le, size)
	}
	titleBytes := make([]byte, 128)
	copy(titleBytes, title)
	buf.Write(titleBytes)
	binary.Write(&buf, le, int32(-1))

	sections := make([]byte, systemSize+applicationSize+processingSize)
	copy(sections[sequenceNameOffset-headerSize:], sequence)
	buf.Write(sections)

	for _, s := range samples {
		binary.Write(&buf, le, float32(s[1]))
		binary.Write(&buf, le, float32(s[2]))
		binary.Write(&buf, le, s[0])
	}
	return buf.Bytes()
}

func zstdCompress(t *testing.T, data []byte) []byte {
	t.Helper()
	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	defer enc.Close()
	return enc.EncodeAll(data, nil)
}

func writeFile(t *testing.T, fsys afero.Fs, path string, data []byte) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fsys, path, data, 0644))
}

type runResult struct {
	code   int
	stdout string
	stderr string
}

// runCLI runs a fresh CLI over fsys and restores the default logger afterwards.
func runCLI(t *testing.T, fsys afero.Fs, args ...string) runResult {
	t.Helper()
	original := slog.Default()
	t.Cleanup(func() { slog.SetDefault(original) })

	var stdout, stderr bytes.Buffer
	code := NewCLIWithFilesystem(fsys).Run(append([]string{"ridat"}, args...), &bytes.Buffer{}, &stdout, &stderr)
	return runResult{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

// withCatalog writes a config file enabling a catalog in a temp directory and
// returns the --config flag pointing at it.
func withCatalog(t *testing.T, fsys afero.Fs) []string {
	t.Helper()
	dbPath := t.TempDir() + "/catalog.db"
	writeFile(t, fsys, "/etc/ridat/config.json",
		[]byte(`{"catalog": {"enabled": true, "database_path": "`+dbPath+`"}}`))
	return []string{"--config", "/etc/ridat/config.json"}
}
