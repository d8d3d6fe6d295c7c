// Package ridat decodes .RiDat acquisition files written by RINMR-based
// spectrometer software.
package ridat

import (
	"errors"
	"io"
	"log/slog"

	"github.com/nmrtools/ridat/internal/binary"
	"github.com/nmrtools/ridat/internal/source"
	"github.com/spf13/afero"
)

const (
	// Magic is the first word of every RiDat and RiImage file.
	Magic = 190955

	// VersionData marks a RiDat file.
	VersionData = 0
	// VersionImage marks a RiImage file, which shares the header but not the layout.
	VersionImage = 1

	TitleWidth        = 128
	ShortTextWidth    = 20
	PhaseTextWidth    = 132
	SequenceNameWidth = 32
	GradientTextWidth = 4

	// SampleRecordSize is the size of one (real f32, imag f32, time f64) record.
	SampleRecordSize = 16
)

// Section names used in truncation errors.
const (
	SectionHeader      = "header"
	SectionSystem      = "system"
	SectionApplication = "application"
	SectionProcessing  = "processing"
	SectionSamples     = "samples"
)

// Decoder decodes RiDat files.
type Decoder struct{}

// NewDecoder creates a new RiDat decoder instance
func NewDecoder() *Decoder {
	slog.Debug("creating new RiDat decoder instance")
	return &Decoder{}
}

// Decode reads a complete RiDat file from rs. The stream is rewound to
// offset 0 first, so decoding the same stream twice gives equal records.
// On error no record is returned.
func (d *Decoder) Decode(rs io.ReadSeeker) (*AcquisitionRecord, error) {
	slog.Debug("starting RiDat decode operation")

	r, h, err := readHeader(rs)
	if err != nil {
		slog.Error("RiDat header rejected", "kind", KindOf(err).String(), "error", err)
		return nil, err
	}

	rec := &AcquisitionRecord{Title: h.Title}

	sections := []struct {
		name   string
		offset int64
		fields []field
	}{
		{SectionSystem, h.SystemOffset(), systemLayout(&rec.System)},
		{SectionApplication, h.ApplicationOffset(), applicationLayout(&rec.Application)},
		{SectionProcessing, h.ProcessingOffset(), processingLayout(&rec.Processing)},
	}
	for _, s := range sections {
		slog.Debug("decoding RiDat section", "section", s.name, "offset", s.offset)
		if err := r.SeekTo(s.offset); err != nil {
			slog.Error("failed to seek to RiDat section", "section", s.name, "offset", s.offset, "error", err)
			return nil, seekFailed(s.name, s.fields[0].name, s.offset, err)
		}
		if err := readFields(r, s.name, s.fields); err != nil {
			slog.Error("RiDat section truncated", "section", s.name, "error", err)
			return nil, err
		}
	}

	if err := readSamples(r, h.SamplesOffset(), rec); err != nil {
		slog.Error("failed to read RiDat samples", "error", err)
		return nil, err
	}

	slog.Info("RiDat decode completed successfully",
		"title", rec.Title,
		"sequence", rec.Application.SequenceName,
		"samples", rec.Len(),
		"samples_offset", h.SamplesOffset())

	return rec, nil
}

// ReadHeader reads and validates only the file header.
func (d *Decoder) ReadHeader(rs io.ReadSeeker) (*Header, error) {
	_, h, err := readHeader(rs)
	if err != nil {
		return nil, err
	}
	return h, nil
}

// HeaderOf reads and validates only the header of rs.
func HeaderOf(rs io.ReadSeeker) (*Header, error) {
	return NewDecoder().ReadHeader(rs)
}

// Decode decodes rs with a default Decoder.
func Decode(rs io.ReadSeeker) (*AcquisitionRecord, error) {
	return NewDecoder().Decode(rs)
}

// DecodeFile opens path on fsys and decodes it. Paths ending in .zst are
// decompressed first. Failure to open the file is reported as
// KindStreamUnavailable.
func DecodeFile(fsys afero.Fs, path string) (*AcquisitionRecord, error) {
	slog.Debug("starting RiDat file decode", "path", path)

	in, err := source.Open(fsys, path)
	if err != nil {
		slog.Error("failed to open RiDat file", "path", path, "error", err)
		return nil, unavailable(err)
	}
	defer in.Close()

	return NewDecoder().Decode(in)
}

// readHeader validates magic and version and reads the remaining header
// fields. It returns the reader positioned after the header.
func readHeader(rs io.ReadSeeker) (*binary.Reader, *Header, error) {
	if rs == nil {
		return nil, nil, unavailable(binary.ErrNilStream)
	}

	r := binary.NewReader(rs)
	if err := r.SeekTo(0); err != nil {
		return nil, nil, unavailable(err)
	}

	h := &Header{}

	magic, err := r.ReadInt32()
	if err != nil {
		if isShortRead(err) {
			return nil, nil, &DecodeError{Kind: KindBadMagic, Section: SectionHeader, Field: "Magic", Err: err}
		}
		return nil, nil, unavailable(err)
	}
	h.Magic = magic
	if magic != Magic {
		return nil, nil, &DecodeError{Kind: KindBadMagic, Section: SectionHeader, Field: "Magic", Value: magic}
	}

	version, err := r.ReadInt32()
	if err != nil {
		if !isShortRead(err) {
			return nil, nil, unavailable(err)
		}
		return nil, nil, truncated(SectionHeader, "Version", 4, err)
	}
	h.Version = version
	switch version {
	case VersionData:
	case VersionImage:
		return nil, nil, &DecodeError{Kind: KindUnsupportedVariant, Section: SectionHeader, Field: "Version", Value: version}
	default:
		return nil, nil, &DecodeError{Kind: KindUnknownVersion, Section: SectionHeader, Field: "Version", Value: version}
	}

	if err := readFields(r, SectionHeader, headerLayout(h)); err != nil {
		return nil, nil, err
	}

	slog.Debug("RiDat header read",
		"sect1", h.Sect1,
		"sect2", h.Sect2,
		"sect3", h.Sect3,
		"sect4", h.Sect4,
		"title", h.Title)

	return r, h, nil
}

// readSamples appends 16-byte sample records starting at offset until the
// stream runs out. A trailing partial record is dropped.
func readSamples(r *binary.Reader, offset int64, rec *AcquisitionRecord) error {
	rec.Time = []float64{}
	rec.Real = []float64{}
	rec.Imag = []float64{}

	if err := r.SeekTo(offset); err != nil {
		return seekFailed(SectionSamples, "Samples", offset, err)
	}

	var buf [SampleRecordSize]byte
	for {
		err := r.ReadFull(buf[:])
		if isShortRead(err) {
			break
		}
		if err != nil {
			return unavailable(err)
		}
		rec.Real = append(rec.Real, float64(r.Float32At(buf[:], 0)))
		rec.Imag = append(rec.Imag, float64(r.Float32At(buf[:], 4)))
		rec.Time = append(rec.Time, r.Float64At(buf[:], 8))

		if len(rec.Time)%16384 == 0 {
			slog.Debug("reading RiDat samples", "samples_read", len(rec.Time))
		}
	}
	return nil
}

// seekFailed classifies a failed seek to a section. A negative offset comes
// from corrupt section sizes and is reported as truncation.
func seekFailed(section, field string, offset int64, err error) *DecodeError {
	if errors.Is(err, binary.ErrNegativeOffset) {
		return truncated(section, field, offset, err)
	}
	return unavailable(err)
}

func isShortRead(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}
