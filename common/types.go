// Package common defines shared data types used throughout the runen
// library. These types provide a consistent representation for the
// fundamental quantities exchanged between neurons: pulse intensities,
// synaptic capacities and dendrite weights.
package common

// Intensity is the value carried by a pulse. It is wide enough to hold
// the weighted form of a fully delivered pulse: the largest Capacity ×
// the largest |Weight| fits without overflow.
type Intensity int32

// Capacity represents the synaptic mediator resource of one input.
// The token bucket of a synapse never exceeds 255 units.
type Capacity uint8

// Weight is the signed dendrite weight applied to a delivered pulse.
// Positive weights excite, negative weights inhibit.
type Weight int16

// PortIndex addresses one input (synapse) of a neuron.
type PortIndex int

// HitCount counts signal arrivals at a port or neuron.
type HitCount uint64

// MonitoringMode selects whether components emit status records onto
// the network monitoring channel.
type MonitoringMode int

const (
	// MonitoringNone is the default silent mode.
	MonitoringNone MonitoringMode = iota
	// Monitoring enables emission of status records from neurons and
	// ports into the network monitoring store.
	Monitoring
)

// String returns the textual representation of the MonitoringMode.
func (m MonitoringMode) String() string {
	switch m {
	case MonitoringNone:
		return "None"
	case Monitoring:
		return "Monitoring"
	default:
		return "Unknown"
	}
}
