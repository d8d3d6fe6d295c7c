package convert

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/nmrtools/ridat/internal/ridat"
)

// DefaultDelimiter separates columns in text exports.
const DefaultDelimiter = "\t"

// ErrEmptyDelimiter is returned when a text export is configured without a delimiter.
var ErrEmptyDelimiter = errors.New("the delimiter can not be empty")

// TextExporter writes one line per sample: time, real and imaginary values.
type TextExporter struct {
	Delimiter string
}

// NewTextExporter creates a text exporter using delimiter between columns.
func NewTextExporter(delimiter string) *TextExporter {
	return &TextExporter{Delimiter: delimiter}
}

func (e *TextExporter) Name() string      { return "text" }
func (e *TextExporter) Extension() string { return ".txt" }

// Export writes a commented header line followed by the samples in %.18e form.
func (e *TextExporter) Export(rec *ridat.AcquisitionRecord, w io.Writer) error {
	if e.Delimiter == "" {
		slog.Error("text export has empty delimiter")
		return ErrEmptyDelimiter
	}

	slog.Debug("starting text export", "samples", rec.Len(), "delimiter", e.Delimiter)

	d := e.Delimiter
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# Time (us)%sReal (Machine Units)%sImag (Machine Units)\n", d, d)
	for i := 0; i < rec.Len(); i++ {
		fmt.Fprintf(bw, "%.18e%s%.18e%s%.18e\n", rec.Time[i], d, rec.Real[i], d, rec.Imag[i])
	}
	if err := bw.Flush(); err != nil {
		slog.Error("failed to write text export", "error", err)
		return fmt.Errorf("writing text export: %w", err)
	}

	slog.Info("text export completed", "samples", rec.Len())
	return nil
}
