// Package synaptic implements the per-input stage of a neuron: the
// synapse token bucket that rate-limits incoming pulses, and the
// dendrite weighting applied to whatever the bucket delivers.
package synaptic

import (
	"fmt"

	"github.com/greyshaman/runen/common"
)

// Synapse models the mediator resource of a single neuron input. Each
// accepted pulse is clamped to the currently available capacity, the
// delivered amount is drawn from the bucket, and the bucket then
// regenerates up to its configured maximum. The synapse never blocks
// the producer and holds no lock: it is owned and serialized by its
// neuron's receiver path.
type Synapse struct {
	capacityMax  common.Capacity
	regeneration common.Capacity
	weight       common.Weight

	current common.Capacity

	// source is the id of the connected upstream party, empty while
	// the input is unbound. A synapse has at most one active source.
	source string
}

// New validates the configuration and returns a synapse with a full
// bucket. The regeneration amount must not exceed the capacity limit
// and the limit must be at least one.
func New(capacityMax, regeneration common.Capacity, weight common.Weight) (*Synapse, error) {
	if capacityMax < 1 {
		return nil, fmt.Errorf("synapse capacity %d: %w", capacityMax, common.ErrNotSupportedArgValue)
	}
	if regeneration > capacityMax {
		return nil, fmt.Errorf("synapse regeneration %d exceeds capacity %d: %w",
			regeneration, capacityMax, common.ErrNotSupportedArgValue)
	}
	return &Synapse{
		capacityMax:  capacityMax,
		regeneration: regeneration,
		weight:       weight,
		current:      capacityMax,
	}, nil
}

// Accept clamps the incoming intensity to the available capacity,
// draws the delivered amount from the bucket and regenerates. The
// returned value is the delivered (pre-weighting) intensity; negative
// input delivers zero.
func (s *Synapse) Accept(intensity common.Intensity) common.Intensity {
	if intensity < 0 {
		intensity = 0
	}
	delivered := intensity
	if avail := common.Intensity(s.current); delivered > avail {
		delivered = avail
	}

	rest := common.Intensity(s.current) - delivered + common.Intensity(s.regeneration)
	if rest > common.Intensity(s.capacityMax) {
		rest = common.Intensity(s.capacityMax)
	}
	s.current = common.Capacity(rest)

	return delivered
}

// Weigh applies the signed dendrite weight to a delivered intensity.
func (s *Synapse) Weigh(delivered common.Intensity) common.Intensity {
	return delivered * common.Intensity(s.weight)
}

// Connect binds the synapse to the upstream party identified by
// sourceID and refills the bucket. It fails if a source is already
// bound.
func (s *Synapse) Connect(sourceID string) error {
	if s.source != "" {
		return &common.PortBusyError{ID: s.source}
	}
	s.source = sourceID
	s.current = s.capacityMax
	return nil
}

// Rebind replaces the bound source unconditionally and refills the
// bucket. Used when a port is reconnected to a new upstream.
func (s *Synapse) Rebind(sourceID string) {
	s.source = sourceID
	s.current = s.capacityMax
}

// Disconnect clears the bound source.
func (s *Synapse) Disconnect() {
	s.source = ""
}

// Connected reports whether the synapse has a bound source.
func (s *Synapse) Connected() bool {
	return s.source != ""
}

// Source returns the id of the bound source, empty when unbound.
func (s *Synapse) Source() string {
	return s.source
}

// CurrentCapacity returns the remaining mediator resource.
func (s *Synapse) CurrentCapacity() common.Capacity {
	return s.current
}

// CapacityMax returns the configured bucket limit.
func (s *Synapse) CapacityMax() common.Capacity {
	return s.capacityMax
}

// Regeneration returns the configured per-pulse recovery amount.
func (s *Synapse) Regeneration() common.Capacity {
	return s.regeneration
}

// Weight returns the configured dendrite weight.
func (s *Synapse) Weight() common.Weight {
	return s.weight
}
