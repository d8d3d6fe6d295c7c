package ridat

import (
	"fmt"

	"github.com/nmrtools/ridat/internal/binary"
)

// fieldKind is the stored representation of one element.
type fieldKind uint8

const (
	kindInt32 fieldKind = iota
	kindFloat32
	kindFloat64
	kindText
)

func (k fieldKind) String() string {
	switch k {
	case kindInt32:
		return "int32"
	case kindFloat32:
		return "float32"
	case kindFloat64:
		return "float64"
	case kindText:
		return "text"
	default:
		return "unknown"
	}
}

// field is one entry of a section layout: a named run of count elements of
// the same kind, bound to the destination it is decoded into. A nil dest
// marks a word that is read and discarded.
type field struct {
	name  string
	kind  fieldKind
	width int // bytes per element
	count int
	dest  any
}

// size returns the number of bytes the field occupies in the stream.
func (f field) size() int {
	return f.width * f.count
}

func i32(name string, dest *int32) field {
	return field{name: name, kind: kindInt32, width: 4, count: 1, dest: dest}
}

func f32(name string, dest *float32) field {
	return field{name: name, kind: kindFloat32, width: 4, count: 1, dest: dest}
}

func f64(name string, dest *float64) field {
	return field{name: name, kind: kindFloat64, width: 8, count: 1, dest: dest}
}

func text(name string, width int, dest *string) field {
	return field{name: name, kind: kindText, width: width, count: 1, dest: dest}
}

func i32s(name string, dest []int32) field {
	return field{name: name, kind: kindInt32, width: 4, count: len(dest), dest: dest}
}

func f32s(name string, dest []float32) field {
	return field{name: name, kind: kindFloat32, width: 4, count: len(dest), dest: dest}
}

// mark is a 4-byte word that is read but not kept.
func mark(name string) field {
	return field{name: name, kind: kindInt32, width: 4, count: 1}
}

// read decodes the field from r into its destination.
func (f field) read(r *binary.Reader) error {
	switch d := f.dest.(type) {
	case nil:
		_, err := r.ReadInt32()
		return err
	case *int32:
		v, err := r.ReadInt32()
		if err != nil {
			return err
		}
		*d = v
	case *float32:
		v, err := r.ReadFloat32()
		if err != nil {
			return err
		}
		*d = v
	case *float64:
		v, err := r.ReadFloat64()
		if err != nil {
			return err
		}
		*d = v
	case *string:
		v, err := r.ReadText(f.width)
		if err != nil {
			return err
		}
		*d = v
	case []int32:
		for i := range d {
			v, err := r.ReadInt32()
			if err != nil {
				return err
			}
			d[i] = v
		}
	case []float32:
		for i := range d {
			v, err := r.ReadFloat32()
			if err != nil {
				return err
			}
			d[i] = v
		}
	default:
		return fmt.Errorf("field %s: unsupported destination %T", f.name, f.dest)
	}
	return nil
}

// value returns a copy of the decoded value, or nil for discarded words.
func (f field) value() any {
	switch d := f.dest.(type) {
	case *int32:
		return *d
	case *float32:
		return *d
	case *float64:
		return *d
	case *string:
		return *d
	case []int32:
		return append([]int32(nil), d...)
	case []float32:
		return append([]float32(nil), d...)
	default:
		return nil
	}
}

// readFields decodes a section layout in order. A short read is reported as
// a truncated section naming the field that could not be filled; any other
// read error means the stream itself failed.
func readFields(r *binary.Reader, section string, fields []field) error {
	for _, f := range fields {
		start := r.Pos()
		if err := f.read(r); err != nil {
			if !isShortRead(err) {
				return unavailable(err)
			}
			return truncated(section, f.name, start, err)
		}
	}
	return nil
}

// layoutSize returns the number of bytes a layout occupies in the stream.
func layoutSize(fields []field) int {
	n := 0
	for _, f := range fields {
		n += f.size()
	}
	return n
}

// region is a run of consecutive array elements filled by a single read.
type region struct {
	start int
	count int
}

func (g region) end() int {
	return g.start + g.count
}

// byteOffset is the position of the region's first element within its array.
func (g region) byteOffset(elemSize int) int {
	return g.start * elemSize
}

func (g region) label(array string) string {
	return fmt.Sprintf("%s[%d:%d]", array, g.start, g.end())
}

// Fill schedules, in stream order, for the arrays the application section
// populates through non-adjacent reads.
var (
	delaysFill    = []region{{0, 5}, {5, 7}, {12, 20}}
	countersFill  = []region{{0, 5}, {5, 7}, {12, 20}}
	gradientsFill = []region{{0, 9}, {9, 23}}
	moreGainsFill = []region{{0, 9}}
)

func headerLayout(h *Header) []field {
	return []field{
		i32("Sect1", &h.Sect1),
		i32("Sect2", &h.Sect2),
		i32("Sect3", &h.Sect3),
		i32("Sect4", &h.Sect4),
		text("Title", TitleWidth, &h.Title),
		i32("IdEndMark", &h.EndMark),
	}
}

func channelTrims(prefix string, c *RFChannel) []field {
	return []field{
		i32(prefix+"MultReg", &c.MultReg),
		i32(prefix+"PhaseTwiddle", &c.PhaseTwiddle),
		i32(prefix+"ChanAOffset", &c.ChanAOffset),
		i32(prefix+"ChanBOffset", &c.ChanBOffset),
		i32(prefix+"ExtAPhaseTrim", &c.ExtAPhaseTrim),
		i32(prefix+"ExtAAmpTrim", &c.ExtAAmpTrim),
		i32(prefix+"ExtBPhaseTrim", &c.ExtBPhaseTrim),
		i32(prefix+"ExtBAmpTrim", &c.ExtBAmpTrim),
		i32(prefix+"IntAAmpTrim", &c.IntAAmpTrim),
		i32(prefix+"IntBAmpTrim", &c.IntBAmpTrim),
		i32(prefix+"PhaseTrim0", &c.PhaseTrim0),
		i32(prefix+"AmpTrim0", &c.AmpTrim0),
		i32(prefix+"PhaseTrim90", &c.PhaseTrim90),
		i32(prefix+"AmpTrim90", &c.AmpTrim90),
		i32(prefix+"PhaseTrim180", &c.PhaseTrim180),
		i32(prefix+"AmpTrim180", &c.AmpTrim180),
		i32(prefix+"PhaseTrim270", &c.PhaseTrim270),
		i32(prefix+"AmpTrim270", &c.AmpTrim270),
	}
}

func systemLayout(p *SystemParameters) []field {
	fields := []field{
		f32("Dead1", &p.Dead1),
		f32("Dead2", &p.Dead2),
		f32("P90", &p.P90),
		f32("P180", &p.P180),
	}

	for i := range p.Channels {
		c := &p.Channels[i]
		prefix := fmt.Sprintf("RF%d.", i)
		fields = append(fields,
			f64(prefix+"SF", &c.SF),
			f64(prefix+"Offset", &c.Offset),
		)
		if i == 0 {
			fields = append(fields, i32("Channel0Spare", &p.Channel0Spare))
		}
		fields = append(fields, channelTrims(prefix, c)...)
	}
	for i := range p.Channels {
		fields = append(fields, i32(fmt.Sprintf("RF%d.QuadTrim", i), &p.Channels[i].QuadTrim))
	}

	for i := range p.GSH {
		fields = append(fields, text(fmt.Sprintf("GSH%d", i+1), ShortTextWidth, &p.GSH[i]))
	}
	fields = append(fields, f64("EndTime", &p.EndTime))

	axes := []struct {
		name string
		k, a *[4]float32
	}{
		{"X", &p.PreXK, &p.PreXA},
		{"Y", &p.PreYK, &p.PreYA},
		{"Z", &p.PreZK, &p.PreZA},
	}
	for _, ax := range axes {
		for i := 0; i < 4; i++ {
			fields = append(fields,
				f32(fmt.Sprintf("Pre%sK[%d]", ax.name, i), &ax.k[i]),
				f32(fmt.Sprintf("Pre%sA[%d]", ax.name, i), &ax.a[i]),
			)
		}
	}

	return append(fields,
		f32("XB0K", &p.XB0K),
		f32("XB0A", &p.XB0A),
		f32("YB0K", &p.YB0K),
		f32("YB0A", &p.YB0A),
		f32("ZB0K", &p.ZB0K),
		f32("ZB0A", &p.ZB0A),
		f32("DummyPar1", &p.DummyPar1),
		f32("DummyPar2", &p.DummyPar2),
		f32("Dec90", &p.Dec90),
		text("CPD", ShortTextWidth, &p.CPD),
		i32("Trigger", &p.Trigger),
		f32("XB0", &p.XB0),
		f32("YB0", &p.YB0),
		f32("ZB0", &p.ZB0),
		f32("XOffset", &p.XOffset),
		f32("YOffset", &p.YOffset),
		f32("ZOffset", &p.ZOffset),
		i32("Acquisition", &p.Acquisition),
		mark("SysEndMark"),
	)
}

func applicationLayout(p *ApplicationParameters) []field {
	delays := func(n int) field {
		g := delaysFill[n]
		return f32s(g.label("Delays"), p.Delays[g.start:g.end()])
	}
	counters := func(n int) field {
		g := countersFill[n]
		return i32s(g.label("Counters"), p.Counters[g.start:g.end()])
	}
	gradients := func(n int) field {
		g := gradientsFill[n]
		return i32s(g.label("Gradients"), p.Gradients[g.start:g.end()])
	}

	fields := []field{
		i32("SI", &p.SI),
		f32("DW", &p.DW),
		f32s("Pulses", p.Pulses[:]),
		f32("RD", &p.RD),
		f32("Tau", &p.Tau),
		delays(0),
		i32("NS", &p.NS),
		f32("FW", &p.FW),
	}
	for i := range p.PH {
		fields = append(fields, text(fmt.Sprintf("PH%d", i+1), PhaseTextWidth, &p.PH[i]))
	}
	fields = append(fields,
		f32("RG", &p.RG),
		i32("NECH", &p.NECH),
		f64("SW", &p.SW),
		i32("DB", &p.DB),
		f64("Bessel", &p.Bessel),
		f64("Butterworth", &p.Butterworth),
		text("SequenceName", SequenceNameWidth, &p.SequenceName),
		f32s("RFAmpsCh0", p.RFAmpsCh0[:]),
		f32s("RFAmpsCh1", p.RFAmpsCh1[:]),
		f32("WW", &p.WW),
		counters(0),
		i32("GRead", &p.GRead),
		i32("GPhase", &p.GPhase),
		i32("GSlice", &p.GSlice),
		gradients(0),
		f32("MAC1", &p.MAC1),
		f32("MAC2", &p.MAC2),
	)
	for i := range p.SH {
		fields = append(fields, text(fmt.Sprintf("SH%d", i+1), ShortTextWidth, &p.SH[i]))
	}
	g := moreGainsFill[0]
	return append(fields,
		i32("DS", &p.DS),
		i32("NA", &p.NA),
		i32s("GradientIncrements", p.GradientIncrements[:]),
		i32("DimX", &p.DimX),
		i32("DimY", &p.DimY),
		i32("DimZ", &p.DimZ),
		i32("DimC", &p.DimC),
		i32("ImageEchos", &p.ImageEchos),
		i32("ImageSlices", &p.ImageSlices),
		delays(1),
		text("GradPhase", GradientTextWidth, &p.GradPhase),
		text("GradSlice", GradientTextWidth, &p.GradSlice),
		text("GradRead", GradientTextWidth, &p.GradRead),
		i32("TimePoints", &p.TimePoints),
		i32("SNR", &p.SNR),
		counters(1),
		f32s("FPs", p.FPs[:]),
		f32("GReadX", &p.GReadX),
		f32("GReadY", &p.GReadY),
		f32("GReadZ", &p.GReadZ),
		f32("GPhaseX", &p.GPhaseX),
		f32("GPhaseY", &p.GPhaseY),
		f32("GPhaseZ", &p.GPhaseZ),
		f32("GSliceX", &p.GSliceX),
		f32("GSliceY", &p.GSliceY),
		f32("GSliceZ", &p.GSliceZ),
		delays(2),
		counters(2),
		gradients(1),
		f32s(g.label("MoreGains[0]"), p.MoreGains[0][g.start:g.end()]),
		mark("AppEndMark"),
	)
}

func processingLayout(p *ProcessingParameters) []field {
	return []field{
		i32("ProcFlags", &p.ProcFlags),
		i32s("ProcDummies", p.ProcDummies[:]),
		f32("LB", &p.LB),
		f32("PA", &p.PA),
		f32("PB", &p.PB),
		f32("DP", &p.DP),
		i32("SMP", &p.SMP),
		i32("PivotPoint", &p.PivotPoint),
		i32("NOBC", &p.NOBC),
		i32("PPRF", &p.PPRF),
		f64("PPTH", &p.PPTH),
		f64("PPBL", &p.PPBL),
		i32("PPAF", &p.PPAF),
		f32("INC2D", &p.INC2D),
		f64("SD2D", &p.SD2D),
		mark("ProcEndMark"),
	}
}
