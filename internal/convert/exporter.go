// Package convert writes decoded acquisitions to other file formats.
package convert

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/nmrtools/ridat/internal/ridat"
)

var (
	// ErrEmptyRecord is returned by audio exporters for records without samples.
	ErrEmptyRecord = errors.New("record has no samples")
	// ErrUnknownFormat is returned when no exporter is registered under a name.
	ErrUnknownFormat = errors.New("unknown export format")
	// ErrNotSeekable is returned when an exporter needs to rewrite its output.
	ErrNotSeekable = errors.New("output is not seekable")
)

// DefaultSampleRate is used for audio output when the dwell time is unusable.
const DefaultSampleRate = 1000

// Exporter writes an acquisition record in one output format.
type Exporter interface {
	Export(rec *ridat.AcquisitionRecord, w io.Writer) error
	Name() string
	Extension() string
}

// Registry holds exporters keyed by name.
type Registry struct {
	exporters map[string]Exporter
}

// NewRegistry creates a new empty exporter registry
func NewRegistry() *Registry {
	slog.Debug("creating new exporter registry")
	return &Registry{exporters: make(map[string]Exporter)}
}

// NewDefaultRegistry creates a registry with text, WAV and AIFF exporters.
// The text exporter uses delimiter.
func NewDefaultRegistry(delimiter string) *Registry {
	slog.Debug("creating default exporter registry with text, WAV and AIFF support")

	registry := NewRegistry()
	registry.Register(NewTextExporter(delimiter))
	registry.Register(NewWavExporter())
	registry.Register(NewAiffExporter())

	slog.Info("default exporter registry initialized",
		"supported_formats", registry.Names())

	return registry
}

// Register adds an exporter, replacing any exporter with the same name.
func (r *Registry) Register(exporter Exporter) {
	if exporter == nil {
		slog.Warn("attempted to register nil exporter")
		return
	}

	name := strings.ToLower(exporter.Name())
	if _, exists := r.exporters[name]; exists {
		slog.Warn("replacing registered exporter", "format", name)
	}
	r.exporters[name] = exporter

	slog.Debug("exporter registered", "format", name, "total_exporters", len(r.exporters))
}

// Get returns the exporter registered under name (case-insensitive).
func (r *Registry) Get(name string) (Exporter, error) {
	exporter, ok := r.exporters[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q (supported: %s)", ErrUnknownFormat, name, strings.Join(r.Names(), ", "))
	}
	return exporter, nil
}

// Names returns the registered format names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.exporters))
	for name := range r.exporters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// sampleRate returns the record's sampling rate rounded to whole hertz.
func sampleRate(rec *ridat.AcquisitionRecord) int {
	rate := math.Round(rec.SampleRate())
	if rate < 1 || rate > math.MaxUint32 {
		return DefaultSampleRate
	}
	return int(rate)
}

// pcm16 scales the real and imaginary traces to 16-bit integers so that the
// largest magnitude in either channel maps to full scale.
func pcm16(rec *ridat.AcquisitionRecord) (left, right []int) {
	peak := 0.0
	for i := range rec.Real {
		peak = math.Max(peak, math.Abs(rec.Real[i]))
		peak = math.Max(peak, math.Abs(rec.Imag[i]))
	}

	scale := 0.0
	if peak > 0 && !math.IsInf(peak, 0) {
		scale = math.MaxInt16 / peak
	}

	left = make([]int, len(rec.Real))
	right = make([]int, len(rec.Imag))
	for i := range rec.Real {
		left[i] = clamp16(rec.Real[i] * scale)
		right[i] = clamp16(rec.Imag[i] * scale)
	}
	return left, right
}

func clamp16(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	return int(math.Max(math.MinInt16, math.Min(math.MaxInt16, math.Round(v))))
}
