package neuron

import "github.com/greyshaman/runen/common"

// CommandKind tags the commands a network distributes to its neurons
// over the broadcast command bus.
type CommandKind int

const (
	// SwitchMonitoringMode tells the neuron to change its monitoring
	// emission mode.
	SwitchMonitoringMode CommandKind = iota
)

// Command is one instruction broadcast by the network. Every neuron
// runs a listener task that applies commands as they arrive, so mode
// transitions are eventually consistent across the network.
type Command struct {
	Kind CommandKind
	Mode common.MonitoringMode
}
