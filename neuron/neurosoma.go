package neuron

import "github.com/greyshaman/runen/common"

// Neurosoma is the default RCSA processor: a signed accumulator with a
// hit register over input ports. It fires either when every currently
// connected port has contributed once since the last fire, or
// immediately when any single port repeats before the others catch up.
// The repeat branch keeps a fast upstream path from deadlocking the
// fan-in wait.
type Neurosoma struct {
	bias        common.Intensity
	accumulator common.Intensity

	// hits holds the ports that delivered a pulse since the last fire.
	hits map[common.PortIndex]struct{}

	resetCounter uint64
}

// NewNeurosoma creates a resting neurosoma: the accumulator starts at
// the bias level.
func NewNeurosoma(bias common.Weight) *Neurosoma {
	return &Neurosoma{
		bias:        common.Intensity(bias),
		accumulator: common.Intensity(bias),
		hits:        make(map[common.PortIndex]struct{}),
	}
}

// Accept implements Processor.
func (s *Neurosoma) Accept(port common.PortIndex, weighted common.Intensity, connectedPorts int) (common.Intensity, bool) {
	if _, repeated := s.hits[port]; repeated {
		// The port repeated before the remaining fan-in arrived:
		// pre-empt with whatever has accumulated so far and start the
		// next cycle from this pulse.
		emit := s.accumulator
		if emit < 0 {
			emit = 0
		}
		s.accumulator = weighted + s.bias
		s.resetCounter++
		clear(s.hits)
		s.hits[port] = struct{}{}
		return emit, true
	}

	s.accumulator += weighted
	s.hits[port] = struct{}{}

	if connectedPorts > 0 && len(s.hits) >= connectedPorts {
		emit := s.accumulator
		if emit < 0 {
			emit = 0
		}
		s.accumulator = s.bias
		s.resetCounter++
		clear(s.hits)
		return emit, true
	}
	return 0, false
}

// Reset implements Processor.
func (s *Neurosoma) Reset(bias common.Weight) {
	s.bias = common.Intensity(bias)
	s.accumulator = common.Intensity(bias)
	s.resetCounter = 0
	clear(s.hits)
}

// Kind implements Processor.
func (s *Neurosoma) Kind() ProcessorKind { return RCSA }

// Accumulator implements Processor.
func (s *Neurosoma) Accumulator() common.Intensity { return s.accumulator }

// ResetCount implements Processor.
func (s *Neurosoma) ResetCount() uint64 { return s.resetCounter }

// HitRegisterSize implements Processor.
func (s *Neurosoma) HitRegisterSize() int { return len(s.hits) }

// Forget drops the given port from the hit register. The neuron does
// not call it: disconnecting a port leaves the hit register unchanged,
// which is cleared only by a fire or by Reset.
func (s *Neurosoma) Forget(port common.PortIndex) {
	delete(s.hits, port)
}
