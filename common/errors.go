package common

import (
	"errors"
	"fmt"
)

// Sentinel errors for conditions that carry no argument. Callers match
// them with errors.Is.
var (
	// ErrIdNotFound reports a lookup miss for a structured identifier.
	ErrIdNotFound = errors.New("id not found")

	// ErrOnlySingleAllowed reports an attempt to create a second
	// instance of a component kind that allows no siblings.
	ErrOnlySingleAllowed = errors.New("only a single instance allowed")

	// ErrOccupiedKey reports an insert into an already occupied map slot.
	ErrOccupiedKey = errors.New("key already occupied")

	// ErrNotSupportedArgValue reports an argument outside its allowed range.
	ErrNotSupportedArgValue = errors.New("not supported argument value")

	// ErrIncorrectPortType reports a port used against its direction,
	// e.g. sending a signal into an output port.
	ErrIncorrectPortType = errors.New("incorrect port type")

	// ErrPatternNotFound reports an identifier that matched no known pattern.
	ErrPatternNotFound = errors.New("pattern not found")

	// ErrClosedLoop reports a rejected self link: a neuron may only be
	// wired to itself when it owns at least two dendrites and no prior
	// self link exists.
	ErrClosedLoop = errors.New("closed loop rejected")

	// ErrSignalSuppressed is the non-fatal outcome of firing a
	// non-positive pulse: the emission is swallowed to stop endless
	// zero-signal loops.
	ErrSignalSuppressed = errors.New("signal suppressed")

	// ErrDeadEndAxon is the non-fatal outcome of firing on an axon
	// without subscribers.
	ErrDeadEndAxon = errors.New("dead end axon")

	// ErrSendingWithoutConnection reports a send attempt on a port that
	// has no connected source.
	ErrSendingWithoutConnection = errors.New("sending without connection")

	// ErrPortAlreadyFree reports freeing a port that is not set up.
	ErrPortAlreadyFree = errors.New("port already free")

	// ErrSignalSend reports a failed publish on a signal channel.
	ErrSignalSend = errors.New("signal send error")

	// ErrExpectedDataNotPresent reports missing data where the caller
	// guaranteed presence.
	ErrExpectedDataNotPresent = errors.New("expected data not present")
)

// NeuronNotFoundError reports a registry lookup miss for a neuron id.
type NeuronNotFoundError struct {
	ID string
}

func (e *NeuronNotFoundError) Error() string {
	return fmt.Sprintf("neuron %q not found", e.ID)
}

// DendriteNotFoundError reports a missing input port on a neuron.
type DendriteNotFoundError struct {
	Port PortIndex
}

func (e *DendriteNotFoundError) Error() string {
	return fmt.Sprintf("dendrite not found at port %d", e.Port)
}

// PortNotFoundError reports a missing external network port.
type PortNotFoundError struct {
	Port int
}

func (e *PortNotFoundError) Error() string {
	return fmt.Sprintf("port %d not found", e.Port)
}

// PortBusyError reports a port (external or synaptic) that already has
// an active binding.
type PortBusyError struct {
	ID string
}

func (e *PortBusyError) Error() string {
	return fmt.Sprintf("port %q is busy", e.ID)
}

// NeuronAlreadyExistsError reports a duplicate neuron id at insert.
type NeuronAlreadyExistsError struct {
	ID string
}

func (e *NeuronAlreadyExistsError) Error() string {
	return fmt.Sprintf("neuron %q already exists", e.ID)
}

// IdBusyError reports an identifier already claimed by another component.
type IdBusyError struct {
	ID string
}

func (e *IdBusyError) Error() string {
	return fmt.Sprintf("id %q is busy", e.ID)
}

// MonitoringChannelClosedError reports a status record lost because the
// monitoring channel was closed under the sender.
type MonitoringChannelClosedError struct {
	Msg string
}

func (e *MonitoringChannelClosedError) Error() string {
	return fmt.Sprintf("monitoring channel closed: %s", e.Msg)
}

// MonitoringChannelFullError reports a status record dropped because
// the bounded monitoring channel had no free slot. The drainer keeps
// running; the loss is counted, not fatal.
type MonitoringChannelFullError struct {
	Msg string
}

func (e *MonitoringChannelFullError) Error() string {
	return fmt.Sprintf("monitoring channel full: %s", e.Msg)
}
