// Package network provides the coordinator of the neuron graph. The
// Network owns the neuron registry, the external input and output
// ports, the broadcast command bus, the monitoring store and the
// shutdown machinery. Neurons reference the network only through the
// channels it hands them; there are no sibling pointers between
// neurons — wiring always goes through the registry.
package network

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/greyshaman/runen/bus"
	"github.com/greyshaman/runen/common"
	"github.com/greyshaman/runen/ident"
	"github.com/greyshaman/runen/neuron"
	"github.com/greyshaman/runen/status"
)

const (
	// DefaultChannelCapacity bounds every broadcast and monitoring
	// channel in the network fabric.
	DefaultChannelCapacity = 5

	// DefaultGracefulShutdownPeriod is how long the monitoring drainer
	// keeps accepting in-flight records after cancellation.
	DefaultGracefulShutdownPeriod = 20 * time.Millisecond
)

// Options tune the runtime parameters of a network.
type Options struct {
	// ChannelCapacity is the bounded capacity of the signal, command
	// and monitoring channels. Zero selects DefaultChannelCapacity.
	ChannelCapacity int

	// GracefulShutdownPeriod is the drain grace of the monitoring
	// collector. Zero selects DefaultGracefulShutdownPeriod.
	GracefulShutdownPeriod time.Duration
}

func (o Options) withDefaults() Options {
	if o.ChannelCapacity <= 0 {
		o.ChannelCapacity = DefaultChannelCapacity
	}
	if o.GracefulShutdownPeriod <= 0 {
		o.GracefulShutdownPeriod = DefaultGracefulShutdownPeriod
	}
	return o
}

// IDFactory allocates process-unique network indices. Injected so the
// id sequence is owned by the caller instead of a package global.
type IDFactory struct {
	mu   sync.Mutex
	next int
}

// Next returns the next free network index.
func (f *IDFactory) Next() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := f.next
	f.next++
	return n
}

// defaultFactory backs New for callers that do not manage indices
// themselves.
var defaultFactory IDFactory

// Network is the high level container of neurons and ports.
type Network struct {
	id      string
	layerID string
	opts    Options

	ctx    context.Context
	cancel context.CancelFunc

	neuronsMu sync.RWMutex
	neurons   map[string]*neuron.Neuron

	inputsMu sync.RWMutex
	inputs   map[int]*inputPort

	outputsMu sync.RWMutex
	outputs   map[int]*outputPort

	modeMu sync.RWMutex
	mode   common.MonitoringMode

	commands *bus.Broadcaster[neuron.Command]

	monitoringCh chan status.Record
	storeMu      sync.Mutex
	store        []status.Record

	tracker sync.WaitGroup
}

// New creates a network using the package default id factory.
func New(opts Options) (*Network, error) {
	return NewWithFactory(&defaultFactory, opts)
}

// NewWithFactory creates a network whose index is drawn from the given
// factory. The monitoring drainer task starts immediately.
func NewWithFactory(factory *IDFactory, opts Options) (*Network, error) {
	opts = opts.withDefaults()

	id, err := ident.Compose("", factory.Next(), ident.Network)
	if err != nil {
		return nil, fmt.Errorf("creating network: %w", err)
	}
	layerID, err := ident.Compose(id, 0, ident.HiddenLayer)
	if err != nil {
		return nil, fmt.Errorf("creating network %s: %w", id, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	net := &Network{
		id:           id,
		layerID:      layerID,
		opts:         opts,
		ctx:          ctx,
		cancel:       cancel,
		neurons:      make(map[string]*neuron.Neuron),
		inputs:       make(map[int]*inputPort),
		outputs:      make(map[int]*outputPort),
		commands:     bus.New[neuron.Command](opts.ChannelCapacity),
		monitoringCh: make(chan status.Record, opts.ChannelCapacity),
	}

	net.tracker.Add(1)
	go func() {
		defer net.tracker.Done()
		net.monitoringDrainLoop()
	}()

	return net, nil
}

// ID returns the network identifier.
func (net *Network) ID() string {
	return net.id
}

// monitoringDrainLoop is the sole consumer of the monitoring channel.
// After cancellation it keeps draining for the graceful shutdown
// period so in-flight sends from firing neurons still land in the
// store.
func (net *Network) monitoringDrainLoop() {
	for {
		select {
		case record := <-net.monitoringCh:
			net.appendRecord(record)
		case <-net.ctx.Done():
			deadline := time.After(net.opts.GracefulShutdownPeriod)
			for {
				select {
				case record := <-net.monitoringCh:
					net.appendRecord(record)
				case <-deadline:
					return
				}
			}
		}
	}
}

func (net *Network) appendRecord(record status.Record) {
	net.storeMu.Lock()
	net.store = append(net.store, record)
	net.storeMu.Unlock()
}

// PopMonitoringStore drains the monitoring store and returns the
// snapshot of records collected since the previous call.
func (net *Network) PopMonitoringStore() []status.Record {
	net.storeMu.Lock()
	defer net.storeMu.Unlock()
	snapshot := net.store
	net.store = nil
	return snapshot
}

// SetMonitoringMode switches the network monitoring mode and
// broadcasts the transition to every neuron. Neurons apply the change
// eventually through their command listeners.
func (net *Network) SetMonitoringMode(mode common.MonitoringMode) {
	net.modeMu.Lock()
	net.mode = mode
	net.modeMu.Unlock()

	if _, err := net.commands.Send(neuron.Command{Kind: neuron.SwitchMonitoringMode, Mode: mode}); err != nil {
		// Command bus closed: the network is shutting down.
		return
	}
}

// MonitoringMode returns the current network monitoring mode.
func (net *Network) MonitoringMode() common.MonitoringMode {
	net.modeMu.RLock()
	defer net.modeMu.RUnlock()
	return net.mode
}

// CreateNeuron allocates the next free neuron id, builds the neuron
// with the given bias and input configurations and registers it. An
// empty configuration list yields a single default input.
func (net *Network) CreateNeuron(bias common.Weight, inputs []neuron.InputCfg) (*neuron.Neuron, error) {
	net.neuronsMu.Lock()
	defer net.neuronsMu.Unlock()

	id, err := ident.Compose(net.layerID, net.availableNeuronIndexLocked(), ident.Neuron)
	if err != nil {
		return nil, fmt.Errorf("creating neuron: %w", err)
	}
	if _, exists := net.neurons[id]; exists {
		return nil, &common.NeuronAlreadyExistsError{ID: id}
	}

	commands := net.commands.Subscribe()
	n, err := neuron.Build(net.ctx, neuron.Config{ID: id, Bias: bias, Inputs: inputs}, neuron.Deps{
		Commands:        commands,
		Monitoring:      net.monitoringCh,
		Tracker:         &net.tracker,
		InitialMode:     net.MonitoringMode(),
		ChannelCapacity: net.opts.ChannelCapacity,
	})
	if err != nil {
		commands.Cancel()
		return nil, err
	}
	net.neurons[id] = n
	return n, nil
}

// availableNeuronIndexLocked picks the next index above the current
// maximum suffix. Caller holds the registry lock.
func (net *Network) availableNeuronIndexLocked() int {
	next := 0
	for id := range net.neurons {
		idx, err := ident.Index(id, ident.Neuron)
		if err != nil {
			continue
		}
		if idx >= next {
			next = idx + 1
		}
	}
	return next
}

// GetNeuron looks a neuron up by id.
func (net *Network) GetNeuron(id string) (*neuron.Neuron, error) {
	net.neuronsMu.RLock()
	defer net.neuronsMu.RUnlock()
	n, ok := net.neurons[id]
	if !ok {
		return nil, &common.NeuronNotFoundError{ID: id}
	}
	return n, nil
}

// HasNeuron reports whether the registry holds the given id.
func (net *Network) HasNeuron(id string) bool {
	net.neuronsMu.RLock()
	defer net.neuronsMu.RUnlock()
	_, ok := net.neurons[id]
	return ok
}

// Len returns the number of registered neurons.
func (net *Network) Len() int {
	net.neuronsMu.RLock()
	defer net.neuronsMu.RUnlock()
	return len(net.neurons)
}

// NeuronIDs returns the registered ids in unspecified order.
func (net *Network) NeuronIDs() []string {
	net.neuronsMu.RLock()
	defer net.neuronsMu.RUnlock()
	ids := make([]string, 0, len(net.neurons))
	for id := range net.neurons {
		ids = append(ids, id)
	}
	return ids
}

// RemoveNeuron unregisters the neuron and aborts all of its tasks.
func (net *Network) RemoveNeuron(id string) error {
	net.neuronsMu.Lock()
	n, ok := net.neurons[id]
	if ok {
		delete(net.neurons, id)
	}
	net.neuronsMu.Unlock()

	if !ok {
		return &common.NeuronNotFoundError{ID: id}
	}
	n.Stop()
	return nil
}

// ConnectNeurons subscribes dstPort of the destination neuron to the
// source neuron's axon.
func (net *Network) ConnectNeurons(srcID, dstID string, dstPort common.PortIndex) error {
	src, err := net.GetNeuron(srcID)
	if err != nil {
		return err
	}
	dst, err := net.GetNeuron(dstID)
	if err != nil {
		return err
	}
	return src.LinkTo(dst, dstPort)
}

// GetCurrentNeuronStatus snapshots the counters of one neuron.
func (net *Network) GetCurrentNeuronStatus(id string) (status.NeuronInfo, error) {
	n, err := net.GetNeuron(id)
	if err != nil {
		return status.NeuronInfo{}, err
	}
	return n.Status(), nil
}

// Shutdown cancels every task of the network, waits for the monitoring
// drainer to finish its grace period and joins all spawned goroutines.
func (net *Network) Shutdown() {
	net.cancel()
	net.commands.Close()

	net.neuronsMu.Lock()
	for _, n := range net.neurons {
		n.Stop()
	}
	net.neuronsMu.Unlock()

	net.outputsMu.Lock()
	for port, out := range net.outputs {
		out.stop()
		delete(net.outputs, port)
	}
	net.outputsMu.Unlock()

	net.inputsMu.Lock()
	for port, in := range net.inputs {
		in.pub.Close()
		delete(net.inputs, port)
	}
	net.inputsMu.Unlock()

	net.tracker.Wait()
}
