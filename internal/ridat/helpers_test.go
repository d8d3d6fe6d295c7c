package ridat

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"testing"
)

// Section byte sizes computed by hand from the file layout, end markers included.
const (
	headerSize      = 156
	systemSize      = 592
	applicationSize = 1512
	processingSize  = 108
)

// fillFields assigns a distinct value to every destination of a layout so a
// misattributed read shows up as a mismatch.
func fillFields(fields []field, next *int) {
	for _, f := range fields {
		switch d := f.dest.(type) {
		case *int32:
			*next++
			*d = int32(*next)
		case *float32:
			*next++
			*d = float32(*next) + 0.25
		case *float64:
			*next++
			*d = float64(*next) + 0.125
		case *string:
			*next++
			s := fmt.Sprintf("t%d", *next)
			if len(s) > f.width {
				s = s[:f.width]
			}
			*d = s
		case []int32:
			for i := range d {
				*next++
				d[i] = int32(*next)
			}
		case []float32:
			for i := range d {
				*next++
				d[i] = float32(*next) + 0.5
			}
		}
	}
}

// newFilledRecord returns a record with every parameter set to a distinct value.
func newFilledRecord() *AcquisitionRecord {
	rec := &AcquisitionRecord{Title: "T2 relaxation, water"}
	next := 0
	fillFields(systemLayout(&rec.System), &next)
	fillFields(applicationLayout(&rec.Application), &next)
	fillFields(processingLayout(&rec.Processing), &next)
	return rec
}

// encodeFields writes a layout in stream order. Discarded words are written as -1.
func encodeFields(buf *bytes.Buffer, fields []field) {
	le := binary.LittleEndian
	for _, f := range fields {
		switch d := f.dest.(type) {
		case nil:
			binary.Write(buf, le, int32(-1))
		case *int32:
			binary.Write(buf, le, *d)
		case *float32:
			binary.Write(buf, le, *d)
		case *float64:
			binary.Write(buf, le, *d)
		case *string:
			b := make([]byte, f.width)
			copy(b, *d)
			buf.Write(b)
		case []int32:
			binary.Write(buf, le, d)
		case []float32:
			binary.Write(buf, le, d)
		}
	}
}

// synthFile describes a synthetic RiDat file.
type synthFile struct {
	magic   int32
	version int32
	title   []byte // raw title bytes, zero padded to TitleWidth
	rec     *AcquisitionRecord
	samples []Sample
	tail    []byte // bytes appended after the last sample record
	gap     int    // zero bytes inserted after each section
}

func validFile(rec *AcquisitionRecord, samples ...Sample) synthFile {
	return synthFile{
		magic:   Magic,
		version: VersionData,
		title:   []byte(rec.Title),
		rec:     rec,
		samples: samples,
	}
}

// build encodes the description into a complete file image.
func (s synthFile) build() []byte {
	le := binary.LittleEndian
	var buf bytes.Buffer

	var sys, app, proc bytes.Buffer
	encodeFields(&sys, systemLayout(&s.rec.System))
	encodeFields(&app, applicationLayout(&s.rec.Application))
	encodeFields(&proc, processingLayout(&s.rec.Processing))
	gap := make([]byte, s.gap)

	binary.Write(&buf, le, s.magic)
	binary.Write(&buf, le, s.version)
	binary.Write(&buf, le, int32(headerSize+s.gap))
	binary.Write(&buf, le, int32(sys.Len()+s.gap))
	binary.Write(&buf, le, int32(app.Len()+s.gap))
	binary.Write(&buf, le, int32(proc.Len()+s.gap))
	title := make([]byte, TitleWidth)
	copy(title, s.title)
	buf.Write(title)
	binary.Write(&buf, le, int32(-1))

	for _, section := range []*bytes.Buffer{&sys, &app, &proc} {
		buf.Write(gap)
		buf.Write(section.Bytes())
	}
	buf.Write(gap)

	for _, smp := range s.samples {
		binary.Write(&buf, le, float32(smp.Real))
		binary.Write(&buf, le, float32(smp.Imag))
		binary.Write(&buf, le, smp.Time)
	}
	buf.Write(s.tail)
	return buf.Bytes()
}

// countingReader records how many bytes were read through it.
type countingReader struct {
	rs   io.ReadSeeker
	read int
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.rs.Read(p)
	c.read += n
	return n, err
}

func (c *countingReader) Seek(offset int64, whence int) (int64, error) {
	return c.rs.Seek(offset, whence)
}

// failingReader fails every read after the first limit bytes with err.
type failingReader struct {
	rs    io.ReadSeeker
	limit int64
	err   error
	pos   int64
}

func (f *failingReader) Read(p []byte) (int, error) {
	if f.pos >= f.limit {
		return 0, f.err
	}
	if remain := f.limit - f.pos; int64(len(p)) > remain {
		p = p[:remain]
	}
	n, err := f.rs.Read(p)
	f.pos += int64(n)
	return n, err
}

func (f *failingReader) Seek(offset int64, whence int) (int64, error) {
	pos, err := f.rs.Seek(offset, whence)
	f.pos = pos
	return pos, err
}

// withSect returns a copy of a built file with section size word n
// (1-based) replaced.
func withSect(data []byte, n int, size int32) []byte {
	out := bytes.Clone(data)
	binary.LittleEndian.PutUint32(out[4+4*n:], uint32(size))
	return out
}

func newReader(t *testing.T, data []byte) *bytes.Reader {
	t.Helper()
	return bytes.NewReader(data)
}
