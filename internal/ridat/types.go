package ridat

// Header is the fixed block at the start of every RiDat file.
//
// The four section values are cumulative boundaries: section N starts at the
// sum of Sect1..SectN.
type Header struct {
	Magic   int32
	Version int32
	Sect1   int32
	Sect2   int32
	Sect3   int32
	Sect4   int32
	Title   string
	EndMark int32
}

// SystemOffset returns the absolute offset of the system parameters.
func (h *Header) SystemOffset() int64 {
	return int64(h.Sect1)
}

// ApplicationOffset returns the absolute offset of the application parameters.
func (h *Header) ApplicationOffset() int64 {
	return int64(h.Sect1) + int64(h.Sect2)
}

// ProcessingOffset returns the absolute offset of the processing parameters.
func (h *Header) ProcessingOffset() int64 {
	return h.ApplicationOffset() + int64(h.Sect3)
}

// SamplesOffset returns the absolute offset of the first sample record.
func (h *Header) SamplesOffset() int64 {
	return h.ProcessingOffset() + int64(h.Sect4)
}

// RFChannel holds the calibration and trim values of one RF channel.
type RFChannel struct {
	SF     float64
	Offset float64

	MultReg       int32
	PhaseTwiddle  int32
	ChanAOffset   int32
	ChanBOffset   int32
	ExtAPhaseTrim int32
	ExtAAmpTrim   int32
	ExtBPhaseTrim int32
	ExtBAmpTrim   int32
	IntAAmpTrim   int32
	IntBAmpTrim   int32
	PhaseTrim0    int32
	AmpTrim0      int32
	PhaseTrim90   int32
	AmpTrim90     int32
	PhaseTrim180  int32
	AmpTrim180    int32
	PhaseTrim270  int32
	AmpTrim270    int32

	// QuadTrim is stored after all three channels.
	QuadTrim int32
}

// SystemParameters are instrument-level calibration values.
type SystemParameters struct {
	Dead1 float32
	Dead2 float32
	P90   float32
	P180  float32

	Channels [3]RFChannel
	// Channel0Spare is the reserved word between channel 0's Offset and MultReg.
	Channel0Spare int32

	GSH     [5]string
	EndTime float64

	// Pre-emphasis coefficients per axis, stored interleaved K0 A0 K1 A1 ...
	PreXK [4]float32
	PreXA [4]float32
	PreYK [4]float32
	PreYA [4]float32
	PreZK [4]float32
	PreZA [4]float32

	XB0K float32
	XB0A float32
	YB0K float32
	YB0A float32
	ZB0K float32
	ZB0A float32

	DummyPar1 float32
	DummyPar2 float32
	Dec90     float32
	CPD       string
	Trigger   int32

	XB0     float32
	YB0     float32
	ZB0     float32
	XOffset float32
	YOffset float32
	ZOffset float32

	Acquisition int32
}

// ApplicationParameters describe the pulse sequence and acquisition.
type ApplicationParameters struct {
	SI     int32   // number of points
	DW     float32 // dwell time, µs
	Pulses [5]float32
	RD     float32 // recycle delay
	Tau    float32
	Delays [32]float32
	NS     int32 // number of scans
	FW     float32
	PH     [5]string
	RG     float32 // receiver gain
	NECH   int32   // number of echoes
	SW     float64
	DB     int32

	Bessel       float64
	Butterworth  float64
	SequenceName string

	RFAmpsCh0 [6]float32
	RFAmpsCh1 [6]float32
	WW        float32
	Counters  [32]int32

	GRead     int32
	GPhase    int32
	GSlice    int32
	Gradients [32]int32
	MAC1      float32
	MAC2      float32
	SH        [5]string
	DS        int32
	NA        int32

	GradientIncrements [9]int32

	DimX        int32
	DimY        int32
	DimZ        int32
	DimC        int32
	ImageEchos  int32
	ImageSlices int32

	GradPhase  string
	GradSlice  string
	GradRead   string
	TimePoints int32
	SNR        int32
	FPs        [5]float32

	GReadX  float32
	GReadY  float32
	GReadZ  float32
	GPhaseX float32
	GPhaseY float32
	GPhaseZ float32
	GSliceX float32
	GSliceY float32
	GSliceZ float32

	// MoreGains is declared 9x9 by the producer; only row 0 is ever stored.
	MoreGains [9][9]float32
}

// ProcessingParameters are post-acquisition processing settings.
type ProcessingParameters struct {
	ProcFlags   int32
	ProcDummies [9]int32

	LB float32 // line broadening
	PA float32
	PB float32
	DP float32

	SMP        int32
	PivotPoint int32
	NOBC       int32
	PPRF       int32
	PPTH       float64
	PPBL       float64
	PPAF       int32
	INC2D      float32
	SD2D       float64
}

// AcquisitionRecord is the result of decoding one RiDat file. Time, Real and
// Imag are index-aligned and always have equal length.
type AcquisitionRecord struct {
	Title       string
	System      SystemParameters
	Application ApplicationParameters
	Processing  ProcessingParameters

	Time []float64
	Real []float64
	Imag []float64
}

// Sample is one (time, real, imaginary) triple of the signal trace.
type Sample struct {
	Time float64
	Real float64
	Imag float64
}
