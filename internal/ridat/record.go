package ridat

import (
	"github.com/elliotchance/orderedmap/v3"
)

// Len returns the number of samples in the trace.
func (a *AcquisitionRecord) Len() int {
	return len(a.Time)
}

// Sample returns the i-th (time, real, imaginary) triple.
func (a *AcquisitionRecord) Sample(i int) Sample {
	return Sample{Time: a.Time[i], Real: a.Real[i], Imag: a.Imag[i]}
}

// SampleRate derives the sampling rate in Hz from the dwell time (µs).
// It returns 0 when the dwell time is not positive.
func (a *AcquisitionRecord) SampleRate() float64 {
	if a.Application.DW <= 0 {
		return 0
	}
	return 1e6 / float64(a.Application.DW)
}

// Parameters lists every decoded parameter in the order it is stored in the
// file, keyed by "<section>.<field>". Discarded words are omitted.
func (a *AcquisitionRecord) Parameters() *orderedmap.OrderedMap[string, any] {
	params := orderedmap.NewOrderedMap[string, any]()
	params.Set(SectionHeader+".Title", a.Title)

	sections := []struct {
		name   string
		fields []field
	}{
		{SectionSystem, systemLayout(&a.System)},
		{SectionApplication, applicationLayout(&a.Application)},
		{SectionProcessing, processingLayout(&a.Processing)},
	}
	for _, s := range sections {
		for _, f := range s.fields {
			if f.dest == nil {
				continue
			}
			params.Set(s.name+"."+f.name, f.value())
		}
	}
	return params
}
