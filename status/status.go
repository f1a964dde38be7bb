// Package status defines the monitoring records emitted by neurons and
// ports when the network monitoring mode is enabled. Records are
// tagged snapshots: they carry counters at a point in time and no
// references into live state.
package status

import (
	"time"

	"github.com/greyshaman/runen/common"
	"github.com/greyshaman/runen/pulse"
)

// Record is a tagged monitoring entry: either a NeuronInfo or a
// PortInfo.
type Record interface {
	// RecordID returns the id of the component that produced the record.
	RecordID() string
	// RecordTime returns the snapshot timestamp.
	RecordTime() time.Time
}

// NeuronInfo is the counters snapshot of one neuron.
type NeuronInfo struct {
	Timestamp time.Time
	ID        string

	// DendriteCount is the number of configured input ports.
	DendriteCount int
	// DendriteConnectedCount is the number of ports with a bound source.
	DendriteConnectedCount int
	// DendriteHitCount is the size of the hit register: ports that
	// contributed a pulse since the last fire.
	DendriteHitCount int

	ResetCount  uint64
	HitCount    uint64
	Accumulator common.Intensity

	// ReceiverCount is the number of axon subscribers.
	ReceiverCount int
	// TotalWeight is the sum of all dendrite weights.
	TotalWeight common.Intensity
}

// RecordID implements Record.
func (i NeuronInfo) RecordID() string { return i.ID }

// RecordTime implements Record.
func (i NeuronInfo) RecordTime() time.Time { return i.Timestamp }

// PortInfo is the counters snapshot of one external port.
type PortInfo struct {
	Timestamp time.Time
	ID        string

	HitCount common.HitCount
	// RecentSignal is the pulse that triggered the record.
	RecentSignal pulse.Signal
}

// RecordID implements Record.
func (i PortInfo) RecordID() string { return i.ID }

// RecordTime implements Record.
func (i PortInfo) RecordTime() time.Time { return i.Timestamp }
