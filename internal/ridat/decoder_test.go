package ridat

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/nmrtools/ridat/internal/binary"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeTwoSamples(t *testing.T) {
	rec := &AcquisitionRecord{Title: "CPMG water"}
	rec.Application.SequenceName = "CPMG"
	rec.Application.DW = 2

	data := validFile(rec,
		Sample{Real: 1.5, Imag: -0.5, Time: 0.001},
		Sample{Real: 2.0, Imag: 0.0, Time: 0.002},
	).build()

	got, err := Decode(newReader(t, data))
	require.NoError(t, err)

	assert.Equal(t, "CPMG water", got.Title)
	assert.Equal(t, "CPMG", got.Application.SequenceName)
	assert.Equal(t, []float64{0.001, 0.002}, got.Time)
	assert.Equal(t, []float64{1.5, 2.0}, got.Real)
	assert.Equal(t, []float64{-0.5, 0.0}, got.Imag)
	assert.Equal(t, 2, got.Len())
	assert.Equal(t, Sample{Time: 0.002, Real: 2.0, Imag: 0.0}, got.Sample(1))
}

func TestDecodeRoundTripsEveryField(t *testing.T) {
	want := newFilledRecord()
	samples := []Sample{
		{Time: 0, Real: 0.25, Imag: -0.25},
		{Time: 2e-6, Real: 1024, Imag: -4096.5},
		{Time: 4e-6, Real: -3.0517578125e-05, Imag: 65504},
	}
	data := validFile(want, samples...).build()

	got, err := Decode(newReader(t, data))
	require.NoError(t, err)

	for _, s := range samples {
		want.Time = append(want.Time, s.Time)
		want.Real = append(want.Real, s.Real)
		want.Imag = append(want.Imag, s.Imag)
	}
	assert.Equal(t, want, got)

	for row := 1; row < len(got.Application.MoreGains); row++ {
		assert.Equal(t, [9]float32{}, got.Application.MoreGains[row], "MoreGains row %d is never stored", row)
	}
}

func TestDecodeTextTruncatedAtNUL(t *testing.T) {
	rec := &AcquisitionRecord{}
	file := validFile(rec)
	file.title = []byte("Sample A\x00leftover bytes")

	got, err := Decode(newReader(t, file.build()))
	require.NoError(t, err)
	assert.Equal(t, "Sample A", got.Title)
}

func TestDecodeFollowsSectionOffsets(t *testing.T) {
	want := newFilledRecord()
	file := validFile(want, Sample{Time: 1, Real: 2, Imag: 3})
	file.gap = 12

	got, err := Decode(newReader(t, file.build()))
	require.NoError(t, err)

	assert.Equal(t, want.System, got.System)
	assert.Equal(t, want.Application, got.Application)
	assert.Equal(t, want.Processing, got.Processing)
	assert.Equal(t, []float64{1}, got.Time)
}

func TestDecodeEmptySamples(t *testing.T) {
	got, err := Decode(newReader(t, validFile(&AcquisitionRecord{}).build()))
	require.NoError(t, err)

	assert.NotNil(t, got.Time)
	assert.NotNil(t, got.Real)
	assert.NotNil(t, got.Imag)
	assert.Zero(t, got.Len())
}

func TestDecodeDropsPartialSample(t *testing.T) {
	for _, tail := range []int{1, 8, 15} {
		file := validFile(&AcquisitionRecord{}, Sample{Time: 1, Real: 1, Imag: 1})
		file.tail = bytes.Repeat([]byte{0xFF}, tail)

		got, err := Decode(newReader(t, file.build()))
		require.NoError(t, err, "tail of %d bytes", tail)
		assert.Equal(t, 1, got.Len(), "tail of %d bytes", tail)
	}
}

func TestDecodeIsDeterministic(t *testing.T) {
	data := validFile(newFilledRecord(), Sample{Time: 1, Real: 2, Imag: 3}).build()
	rs := newReader(t, data)

	first, err := Decode(rs)
	require.NoError(t, err)

	// The stream is left at EOF; a second decode must rewind.
	second, err := Decode(rs)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestDecodeBadMagic(t *testing.T) {
	file := validFile(newFilledRecord())
	file.magic = 12345
	cr := &countingReader{rs: newReader(t, file.build())}

	rec, err := Decode(cr)
	assert.Nil(t, rec)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBadMagic)
	assert.Equal(t, KindBadMagic, KindOf(err))
	assert.Equal(t, 4, cr.read, "nothing past the magic may be read")

	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, int32(12345), de.Value)
	assert.Contains(t, err.Error(), "got 12345")
}

func TestDecodeShortMagic(t *testing.T) {
	for _, data := range [][]byte{nil, {0xEB}, {0xEB, 0xE9, 0x02}} {
		_, err := Decode(newReader(t, data))
		assert.Equal(t, KindBadMagic, KindOf(err), "%d bytes", len(data))
		assert.NotContains(t, err.Error(), "got 0", "no magic value was read")
	}
}

func TestDecodeRiImage(t *testing.T) {
	file := validFile(newFilledRecord())
	file.version = VersionImage
	cr := &countingReader{rs: newReader(t, file.build())}

	rec, err := Decode(cr)
	assert.Nil(t, rec)
	assert.ErrorIs(t, err, ErrUnsupportedVariant)
	assert.Equal(t, KindUnsupportedVariant, KindOf(err))
	assert.Equal(t, 8, cr.read, "section contents must not be read")
}

func TestDecodeUnknownVersion(t *testing.T) {
	for _, version := range []int32{2, 7, -1} {
		file := validFile(&AcquisitionRecord{})
		file.version = version

		_, err := Decode(newReader(t, file.build()))
		assert.ErrorIs(t, err, ErrUnknownVersion)

		var de *DecodeError
		require.True(t, errors.As(err, &de))
		assert.Equal(t, version, de.Value)
	}
}

func TestDecodeTruncated(t *testing.T) {
	const (
		sys  = headerSize
		app  = sys + systemSize
		proc = app + applicationSize
	)

	tests := []struct {
		name    string
		length  int
		section string
		field   string
		offset  int64
	}{
		{"missing version", 6, SectionHeader, "Version", 4},
		{"inside header", 20, SectionHeader, "Sect4", 20},
		{"inside title", 100, SectionHeader, "Title", 24},
		{"header only", headerSize, SectionSystem, "Dead1", sys},
		{"inside system", sys + 166 - headerSize, SectionSystem, "P90", sys + 8},
		{"inside system end marker", app - 2, SectionSystem, "SysEndMark", app - 4},
		{"inside sequence name", app + 770, SectionApplication, "SequenceName", app + 760},
		{"inside late delays", app + 1230, SectionApplication, "Delays[12:32]", app + 1220},
		{"inside processing", proc + 50, SectionProcessing, "PB", proc + 48},
	}

	data := validFile(newFilledRecord()).build()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := Decode(newReader(t, data[:tt.length]))
			assert.Nil(t, rec)
			require.ErrorIs(t, err, ErrTruncatedSection)

			var de *DecodeError
			require.True(t, errors.As(err, &de))
			assert.Equal(t, tt.section, de.Section)
			assert.Equal(t, tt.field, de.Field)
			assert.Equal(t, tt.offset, de.Offset)
		})
	}
}

func TestDecodeNegativeSectionOffsets(t *testing.T) {
	data := validFile(newFilledRecord(), Sample{Time: 1, Real: 2, Imag: 3}).build()

	tests := []struct {
		name    string
		sect    int
		size    int32
		section string
		field   string
		offset  int64
	}{
		{"negative Sect1", 1, -256, SectionSystem, "Dead1", -256},
		{"Sect2 pulls application before zero", 2, -1000, SectionApplication, "SI", headerSize - 1000},
		{"Sect4 pulls samples before zero", 4, -10000, SectionSamples, "Samples", headerSize + systemSize + applicationSize - 10000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(fsys, "/runs/bad.RiDat", withSect(data, tt.sect, tt.size), 0644))

			rec, err := DecodeFile(fsys, "/runs/bad.RiDat")
			assert.Nil(t, rec)
			require.ErrorIs(t, err, ErrTruncatedSection)
			assert.ErrorIs(t, err, binary.ErrNegativeOffset)

			var de *DecodeError
			require.True(t, errors.As(err, &de))
			assert.Equal(t, tt.section, de.Section)
			assert.Equal(t, tt.field, de.Field)
			assert.Equal(t, tt.offset, de.Offset)
		})
	}
}

func TestDecodeEndsExactlyAfterProcessing(t *testing.T) {
	data := validFile(newFilledRecord()).build()
	require.Len(t, data, headerSize+systemSize+applicationSize+processingSize)

	rec, err := Decode(newReader(t, data))
	require.NoError(t, err)
	assert.Zero(t, rec.Len())
}

func TestDecodeStreamUnavailable(t *testing.T) {
	_, err := Decode(nil)
	assert.Equal(t, KindStreamUnavailable, KindOf(err))
	assert.ErrorIs(t, err, ErrStreamUnavailable)

	data := validFile(&AcquisitionRecord{},
		Sample{Time: 1, Real: 1, Imag: 1},
		Sample{Time: 2, Real: 2, Imag: 2},
	).build()
	ioErr := errors.New("device removed")
	fr := &failingReader{rs: newReader(t, data), limit: int64(len(data) - SampleRecordSize), err: ioErr}

	rec, err := Decode(fr)
	assert.Nil(t, rec)
	assert.Equal(t, KindStreamUnavailable, KindOf(err))
	assert.ErrorIs(t, err, ioErr)
}

func TestDecodeSectionReadFailureIsStreamUnavailable(t *testing.T) {
	data := validFile(newFilledRecord()).build()
	ioErr := errors.New("connection reset")

	for _, limit := range []int64{6, headerSize + 100, headerSize + systemSize + 800} {
		fr := &failingReader{rs: newReader(t, data), limit: limit, err: ioErr}

		rec, err := Decode(fr)
		assert.Nil(t, rec)
		assert.Equal(t, KindStreamUnavailable, KindOf(err), "failure after %d bytes", limit)
		assert.ErrorIs(t, err, ioErr)
	}
}

func TestReadHeader(t *testing.T) {
	rec := &AcquisitionRecord{Title: "header only"}
	data := validFile(rec).build()

	h, err := NewDecoder().ReadHeader(newReader(t, data))
	require.NoError(t, err)
	assert.Equal(t, int32(Magic), h.Magic)
	assert.Equal(t, int32(VersionData), h.Version)
	assert.Equal(t, "header only", h.Title)
	assert.Equal(t, int64(headerSize), h.SystemOffset())
	assert.Equal(t, int64(headerSize+systemSize), h.ApplicationOffset())
	assert.Equal(t, int64(headerSize+systemSize+applicationSize), h.ProcessingOffset())
	assert.Equal(t, int64(len(data)), h.SamplesOffset())

	file := validFile(rec)
	file.version = VersionImage
	_, err = HeaderOf(newReader(t, file.build()))
	assert.ErrorIs(t, err, ErrUnsupportedVariant)
}

func TestDecodeFile(t *testing.T) {
	fsys := afero.NewMemMapFs()
	data := validFile(newFilledRecord(), Sample{Time: 1, Real: 2, Imag: 3}).build()
	require.NoError(t, afero.WriteFile(fsys, "/runs/a.RiDat", data, 0644))

	var compressed bytes.Buffer
	enc, err := zstd.NewWriter(&compressed)
	require.NoError(t, err)
	_, err = io.Copy(enc, bytes.NewReader(data))
	require.NoError(t, err)
	require.NoError(t, enc.Close())
	require.NoError(t, afero.WriteFile(fsys, "/runs/a.RiDat.zst", compressed.Bytes(), 0644))

	plain, err := DecodeFile(fsys, "/runs/a.RiDat")
	require.NoError(t, err)
	packed, err := DecodeFile(fsys, "/runs/a.RiDat.zst")
	require.NoError(t, err)
	assert.Equal(t, plain, packed)

	_, err = DecodeFile(fsys, "/runs/missing.RiDat")
	assert.Equal(t, KindStreamUnavailable, KindOf(err))
}
