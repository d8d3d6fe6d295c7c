package convert

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/nmrtools/ridat/internal/ridat"
	"github.com/youpy/go-wav"
)

// WavExporter writes the trace as 2-channel 16-bit PCM: real left, imaginary right.
type WavExporter struct{}

// NewWavExporter creates a new WAV exporter instance
func NewWavExporter() *WavExporter {
	return &WavExporter{}
}

func (e *WavExporter) Name() string      { return "wav" }
func (e *WavExporter) Extension() string { return ".wav" }

func (e *WavExporter) Export(rec *ridat.AcquisitionRecord, w io.Writer) error {
	slog.Debug("starting WAV export", "samples", rec.Len())

	if rec.Len() == 0 {
		slog.Error("cannot export empty record as WAV")
		return ErrEmptyRecord
	}

	rate := sampleRate(rec)
	left, right := pcm16(rec)

	samples := make([]wav.Sample, len(left))
	for i := range left {
		samples[i].Values[0] = left[i]
		samples[i].Values[1] = right[i]
	}

	writer := wav.NewWriter(w, uint32(len(samples)), 2, uint32(rate), 16)
	if err := writer.WriteSamples(samples); err != nil {
		slog.Error("failed to write WAV samples", "error", err)
		return fmt.Errorf("writing WAV samples: %w", err)
	}

	slog.Info("WAV export completed",
		"samples", len(samples),
		"sample_rate", rate,
		"channels", 2)
	return nil
}
