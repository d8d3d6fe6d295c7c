package convert

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/go-audio/aiff"
	"github.com/go-audio/audio"
	"github.com/nmrtools/ridat/internal/ridat"
)

// AiffExporter writes the trace as 2-channel 16-bit AIFF. The encoder
// patches chunk sizes on close, so the output must be an io.WriteSeeker.
type AiffExporter struct{}

// NewAiffExporter creates a new AIFF exporter instance
func NewAiffExporter() *AiffExporter {
	return &AiffExporter{}
}

func (e *AiffExporter) Name() string      { return "aiff" }
func (e *AiffExporter) Extension() string { return ".aiff" }

func (e *AiffExporter) Export(rec *ridat.AcquisitionRecord, w io.Writer) error {
	slog.Debug("starting AIFF export", "samples", rec.Len())

	if rec.Len() == 0 {
		slog.Error("cannot export empty record as AIFF")
		return ErrEmptyRecord
	}

	ws, ok := w.(io.WriteSeeker)
	if !ok {
		slog.Error("AIFF export needs a seekable output", "writer", fmt.Sprintf("%T", w))
		return ErrNotSeekable
	}

	rate := sampleRate(rec)
	left, right := pcm16(rec)

	data := make([]int, 0, 2*len(left))
	for i := range left {
		data = append(data, left[i], right[i])
	}
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 2, SampleRate: rate},
		Data:           data,
		SourceBitDepth: 16,
	}

	enc := aiff.NewEncoder(ws, rate, 16, 2)
	if err := enc.Write(buf); err != nil {
		slog.Error("failed to write AIFF samples", "error", err)
		return fmt.Errorf("writing AIFF samples: %w", err)
	}
	if err := enc.Close(); err != nil {
		slog.Error("failed to finalize AIFF file", "error", err)
		return fmt.Errorf("finalizing AIFF file: %w", err)
	}

	slog.Info("AIFF export completed",
		"samples", len(left),
		"sample_rate", rate,
		"channels", 2)
	return nil
}
