package neuron

import "github.com/greyshaman/runen/common"

// ProcessorKind names the signal processing algorithm plugged into a
// neuron.
type ProcessorKind int

const (
	// RCSA is the redundant-completion signal accumulator: the default
	// capacity-and-weight processor implemented by Neurosoma.
	RCSA ProcessorKind = iota
	// STDP reserves the spike-timing-dependent variant.
	STDP
	// SVTDP reserves the combined timing-and-capacity variant.
	SVTDP
)

// String returns the textual name of the processor kind.
func (k ProcessorKind) String() string {
	switch k {
	case RCSA:
		return "RCSA"
	case STDP:
		return "STDP"
	case SVTDP:
		return "SVTDP"
	default:
		return "Unknown"
	}
}

// Processor is the firing-rule engine of a neuron. Implementations own
// the accumulator state; the neuron serializes calls under its core
// write lock, so implementations need no locking of their own.
type Processor interface {
	// Accept integrates one weighted input arriving on port and
	// reports whether the neuron fires. connectedPorts is the number
	// of inputs with a bound source at the moment of arrival. When
	// fired is true, emit is the non-negative output intensity.
	Accept(port common.PortIndex, weighted common.Intensity, connectedPorts int) (emit common.Intensity, fired bool)

	// Reset returns the processor to its resting state with the given
	// bias and clears the hit register.
	Reset(bias common.Weight)

	// Kind identifies the algorithm.
	Kind() ProcessorKind

	// Accumulator returns the current accumulated value.
	Accumulator() common.Intensity

	// ResetCount returns the number of fires produced so far.
	ResetCount() uint64

	// HitRegisterSize returns the number of ports that contributed a
	// pulse since the last fire.
	HitRegisterSize() int
}
