// Package neuron implements the neuron actor: the owner of per-input
// synapses, the accumulator processor and the axon broadcast outlet.
// Each connected input is served by a dedicated receiver goroutine
// that pipes inbound pulses through the synapse, the dendrite weight
// and the firing rule. State mutations happen behind a single RW lock
// on the neuron core; the firing rule publishes on the axon while
// still holding the write lock, and monitoring sends are deferred to
// a spawned goroutine so back-pressure never feeds into the critical
// section.
package neuron

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/greyshaman/runen/bus"
	"github.com/greyshaman/runen/common"
	"github.com/greyshaman/runen/ident"
	"github.com/greyshaman/runen/pulse"
	"github.com/greyshaman/runen/status"
	"github.com/greyshaman/runen/synaptic"
)

// Deps carries the network-provided collaborators of a neuron. The
// monitoring channel is a weak-style handle: sends are non-blocking
// and losses are counted, never propagated into the signal path.
type Deps struct {
	// Commands is the neuron's subscription to the network command
	// bus. May be nil for standalone neurons in tests.
	Commands *bus.Subscription[Command]

	// Monitoring is the network monitoring sink.
	Monitoring chan<- status.Record

	// Tracker registers every goroutine the neuron spawns so network
	// shutdown can join them.
	Tracker *sync.WaitGroup

	// InitialMode is the network monitoring mode at creation time.
	InitialMode common.MonitoringMode

	// ChannelCapacity bounds the axon broadcast buffer. Zero selects
	// bus.DefaultCapacity.
	ChannelCapacity int
}

// dendrite bundles the runtime state of one input port.
type dendrite struct {
	id     string
	syn    *synaptic.Synapse
	sub    *bus.Subscription[pulse.Signal]
	cancel context.CancelFunc
}

// Neuron is a single actor of the network graph.
type Neuron struct {
	id string
	// somaID and axonID are the component identifiers derived from the
	// neuron id. A legacy-form neuron id yields empty component ids.
	somaID string
	axonID string

	ctx    context.Context
	cancel context.CancelFunc
	deps   Deps

	mu        sync.RWMutex
	bias      common.Weight
	dendrites map[common.PortIndex]*dendrite
	soma      Processor
	axon      *bus.Broadcaster[pulse.Signal]

	hitCounter      uint64
	suppressedCount uint64
	deadEndCount    uint64
	monitorDrops    uint64

	mode common.MonitoringMode
}

// Build creates a neuron from its configuration, wires the command
// listener and leaves it ready to accept connections. An empty input
// list gets the single default input.
func Build(ctx context.Context, cfg Config, deps Deps) (*Neuron, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("building neuron %q: %w", cfg.ID, err)
	}
	inputs := cfg.Inputs
	if len(inputs) == 0 {
		inputs = []InputCfg{DefaultInputCfg()}
	}

	// A neuron owns exactly one neurosoma and one axon; both ids carry
	// index zero and the sibling rule rejects anything else.
	somaID, _ := ident.Compose(cfg.ID, 0, ident.Neurosoma)
	if somaID != "" && !ident.CheckSiblings(somaID, ident.Neurosoma) {
		return nil, fmt.Errorf("neurosoma %q: %w", somaID, common.ErrOnlySingleAllowed)
	}
	axonID, _ := ident.Compose(cfg.ID, 0, ident.Axon)
	if axonID != "" && !ident.CheckSiblings(axonID, ident.Axon) {
		return nil, fmt.Errorf("axon %q: %w", axonID, common.ErrOnlySingleAllowed)
	}

	dendrites, err := buildDendrites(cfg.ID, inputs)
	if err != nil {
		return nil, fmt.Errorf("building neuron %q: %w", cfg.ID, err)
	}

	nctx, cancel := context.WithCancel(ctx)
	n := &Neuron{
		id:        cfg.ID,
		somaID:    somaID,
		axonID:    axonID,
		ctx:       nctx,
		cancel:    cancel,
		deps:      deps,
		bias:      cfg.Bias,
		dendrites: dendrites,
		soma:      NewNeurosoma(cfg.Bias),
		mode:      deps.InitialMode,
	}

	if deps.Commands != nil {
		n.spawn(n.commandLoop)
	}
	return n, nil
}

// buildDendrites constructs the input map for the given configurations,
// composing each port's dendrite id from the neuron id.
func buildDendrites(neuronID string, inputs []InputCfg) (map[common.PortIndex]*dendrite, error) {
	dendrites := make(map[common.PortIndex]*dendrite, len(inputs))
	for i, in := range inputs {
		syn, err := synaptic.New(in.CapacityMax, in.Regeneration, in.Weight)
		if err != nil {
			return nil, err
		}
		dendID, _ := ident.Compose(neuronID, i, ident.Dendrite)
		dendrites[common.PortIndex(i)] = &dendrite{id: dendID, syn: syn}
	}
	return dendrites, nil
}

// NeurosomaID returns the composed identifier of the accumulator
// component, empty for legacy-form neuron ids.
func (n *Neuron) NeurosomaID() string {
	return n.somaID
}

// AxonID returns the composed identifier of the axon outlet, empty for
// legacy-form neuron ids.
func (n *Neuron) AxonID() string {
	return n.axonID
}

// ID returns the stable identifier of the neuron.
func (n *Neuron) ID() string {
	return n.id
}

// Configure replaces the input map with the given per-input
// configurations, resets the accumulator to the bias level, clears the
// hit register and aborts the receiver tasks of the previous inputs.
func (n *Neuron) Configure(bias common.Weight, inputs []InputCfg) error {
	if len(inputs) == 0 {
		inputs = []InputCfg{DefaultInputCfg()}
	}
	fresh, err := buildDendrites(n.id, inputs)
	if err != nil {
		return fmt.Errorf("configuring neuron %q: %w", n.id, err)
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	for _, d := range n.dendrites {
		if d.cancel != nil {
			d.cancel()
		}
		if d.sub != nil {
			d.sub.Cancel()
		}
	}
	n.dendrites = fresh
	n.bias = bias
	n.soma.Reset(bias)
	return nil
}

// GetConfig returns the current per-input configurations and bias.
func (n *Neuron) GetConfig() Config {
	n.mu.RLock()
	defer n.mu.RUnlock()

	inputs := make([]InputCfg, len(n.dendrites))
	for port, d := range n.dendrites {
		inputs[int(port)] = InputCfg{
			CapacityMax:  d.syn.CapacityMax(),
			Regeneration: d.syn.Regeneration(),
			Weight:       d.syn.Weight(),
		}
	}
	return Config{ID: n.id, Bias: n.bias, Inputs: inputs}
}

// ConnectedSources returns the bound source id of every connected
// input port. Used when snapshotting a live network into a topology
// document.
func (n *Neuron) ConnectedSources() map[common.PortIndex]string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	sources := make(map[common.PortIndex]string)
	for port, d := range n.dendrites {
		if d.syn.Connected() {
			sources[port] = d.syn.Source()
		}
	}
	return sources
}

// AxonOutlet returns the axon broadcaster, creating it on first use.
func (n *Neuron) AxonOutlet() *bus.Broadcaster[pulse.Signal] {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.axon == nil {
		n.axon = bus.New[pulse.Signal](n.deps.ChannelCapacity)
	}
	return n.axon
}

// ProvideOutput returns a fresh subscriber to the neuron's axon,
// lazily creating the broadcast publisher on the first call.
func (n *Neuron) ProvideOutput() *bus.Subscription[pulse.Signal] {
	return n.AxonOutlet().Subscribe()
}

// LinkTo subscribes the given input port of the other neuron to this
// neuron's axon. Self links are rejected unless the neuron owns at
// least two dendrites and carries no prior self link.
func (n *Neuron) LinkTo(other *Neuron, port common.PortIndex) error {
	if other.ID() == n.id {
		n.mu.RLock()
		dendriteCount := len(n.dendrites)
		selfLinked := n.selfLinkedLocked()
		n.mu.RUnlock()
		if dendriteCount < 2 || selfLinked {
			return fmt.Errorf("linking %q to itself: %w", n.id, common.ErrClosedLoop)
		}
	}
	sub := n.ProvideOutput()
	if err := other.Connect(n.id, port, sub); err != nil {
		sub.Cancel()
		return err
	}
	return nil
}

// selfLinkedLocked reports whether any dendrite is already bound to
// this neuron's own axon. Caller holds at least the read lock.
func (n *Neuron) selfLinkedLocked() bool {
	for _, d := range n.dendrites {
		if d.syn.Source() == n.id {
			return true
		}
	}
	return false
}

// Connect binds the subscription as the inbound stream of the given
// port and spawns the receiver task that drives every arriving pulse
// through the synapse, the weight stage and the firing rule. A stale
// receiver task left on the port is aborted before the new one is
// installed. Connecting to a bound port fails with a busy error.
func (n *Neuron) Connect(sourceID string, port common.PortIndex, sub *bus.Subscription[pulse.Signal]) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	d, ok := n.dendrites[port]
	if !ok {
		return &common.DendriteNotFoundError{Port: port}
	}
	if d.syn.Connected() {
		synID, _ := ident.Compose(n.id, int(port), ident.Synapse)
		return &common.PortBusyError{ID: synID}
	}
	if d.cancel != nil {
		d.cancel()
	}
	if d.sub != nil {
		d.sub.Cancel()
	}

	d.syn.Rebind(sourceID)
	cctx, cancel := context.WithCancel(n.ctx)
	d.cancel = cancel
	d.sub = sub
	dendID := d.id
	n.spawn(func() { n.receiverLoop(cctx, port, dendID, sub) })
	return nil
}

// Disconnect unbinds the given port, aborting its receiver task.
func (n *Neuron) Disconnect(port common.PortIndex) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	d, ok := n.dendrites[port]
	if !ok {
		return &common.DendriteNotFoundError{Port: port}
	}
	if !d.syn.Connected() {
		return fmt.Errorf("disconnecting port %d of %q: %w", port, n.id, common.ErrSendingWithoutConnection)
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.sub != nil {
		d.sub.Cancel()
		d.sub = nil
	}
	d.syn.Disconnect()
	return nil
}

// SetMonitoringMode switches status record emission for this neuron.
func (n *Neuron) SetMonitoringMode(mode common.MonitoringMode) {
	n.mu.Lock()
	n.mode = mode
	n.mu.Unlock()
}

// MonitoringMode returns the neuron's current monitoring mode.
func (n *Neuron) MonitoringMode() common.MonitoringMode {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.mode
}

// InputPortsLen returns the number of configured inputs.
func (n *Neuron) InputPortsLen() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.dendrites)
}

// ConnectedPortsLen returns the number of inputs with a bound source.
func (n *Neuron) ConnectedPortsLen() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.connectedLocked()
}

// Status takes a consistent counters snapshot of the neuron core.
func (n *Neuron) Status() status.NeuronInfo {
	n.mu.RLock()
	defer n.mu.RUnlock()

	var totalWeight common.Intensity
	for _, d := range n.dendrites {
		totalWeight += common.Intensity(d.syn.Weight())
	}
	receivers := 0
	if n.axon != nil {
		receivers = n.axon.SubscriberCount()
	}
	return status.NeuronInfo{
		Timestamp:              time.Now(),
		ID:                     n.id,
		DendriteCount:          len(n.dendrites),
		DendriteConnectedCount: n.connectedLocked(),
		DendriteHitCount:       n.soma.HitRegisterSize(),
		ResetCount:             n.soma.ResetCount(),
		HitCount:               n.hitCounter,
		Accumulator:            n.soma.Accumulator(),
		ReceiverCount:          receivers,
		TotalWeight:            totalWeight,
	}
}

// Stop aborts the command listener and every receiver task. Called by
// the network when the neuron is removed.
func (n *Neuron) Stop() {
	n.cancel()
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, d := range n.dendrites {
		if d.sub != nil {
			d.sub.Cancel()
			d.sub = nil
		}
		d.cancel = nil
		d.syn.Disconnect()
	}
	if n.axon != nil {
		n.axon.Close()
	}
}

// connectedLocked counts bound inputs. Caller holds the lock.
func (n *Neuron) connectedLocked() int {
	count := 0
	for _, d := range n.dendrites {
		if d.syn.Connected() {
			count++
		}
	}
	return count
}

// spawn runs fn on a goroutine registered with the network tracker.
func (n *Neuron) spawn(fn func()) {
	if n.deps.Tracker != nil {
		n.deps.Tracker.Add(1)
		go func() {
			defer n.deps.Tracker.Done()
			fn()
		}()
		return
	}
	go fn()
}

// commandLoop applies commands broadcast by the network until the
// neuron stops or the command bus closes.
func (n *Neuron) commandLoop() {
	for {
		cmd, err := n.deps.Commands.Recv(n.ctx)
		if err != nil {
			var lag *bus.LagError
			if errors.As(err, &lag) {
				log.Printf("neuron %s: command bus lagged by %d", n.id, lag.Skipped)
				continue
			}
			return
		}
		switch cmd.Kind {
		case SwitchMonitoringMode:
			n.SetMonitoringMode(cmd.Mode)
		}
	}
}

// receiverLoop drains one inbound subscription. A panic in the signal
// path is isolated to this task: the port is marked disconnected and
// the neuron keeps serving its other inputs.
func (n *Neuron) receiverLoop(ctx context.Context, port common.PortIndex, dendID string, sub *bus.Subscription[pulse.Signal]) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("neuron %s: receiver on dendrite %s panicked: %v", n.id, dendID, r)
			n.dropPort(port, sub)
		}
	}()
	for {
		sig, err := sub.Recv(ctx)
		if err != nil {
			var lag *bus.LagError
			switch {
			case errors.As(err, &lag):
				log.Printf("neuron %s: dendrite %s lagged by %d pulses", n.id, dendID, lag.Skipped)
				continue
			case errors.Is(err, bus.ErrClosed):
				n.dropPort(port, sub)
				return
			default:
				// Context cancelled: rebind or shutdown.
				return
			}
		}
		n.receive(port, sig)
	}
}

// dropPort marks the port disconnected if it is still served by the
// given subscription. A racing rebind keeps its fresh binding.
func (n *Neuron) dropPort(port common.PortIndex, sub *bus.Subscription[pulse.Signal]) {
	n.mu.Lock()
	defer n.mu.Unlock()
	d, ok := n.dendrites[port]
	if !ok || d.sub != sub {
		return
	}
	d.syn.Disconnect()
	d.sub = nil
	d.cancel = nil
}

// receive runs the full input pipeline for one pulse under the core
// write lock: synapse clamp and draw, dendrite weighting, firing rule
// and, when the rule fires, the axon publish.
func (n *Neuron) receive(port common.PortIndex, sig pulse.Signal) {
	n.mu.Lock()
	n.hitCounter++
	d, ok := n.dendrites[port]
	if !ok {
		n.mu.Unlock()
		return
	}
	delivered := d.syn.Accept(sig.Intensity)
	weighted := d.syn.Weigh(delivered)

	emit, fired := n.soma.Accept(port, weighted, n.connectedLocked())
	if fired {
		switch err := n.fireLocked(emit); {
		case err == nil:
		case errors.Is(err, common.ErrSignalSuppressed):
			n.suppressedCount++
		case errors.Is(err, common.ErrDeadEndAxon):
			n.deadEndCount++
		default:
			log.Printf("neuron %s: neurosoma %s fire failed: %v", n.id, n.somaID, err)
		}
	}
	mode := n.mode
	n.mu.Unlock()

	if mode == common.Monitoring {
		n.spawn(n.sendStatus)
	}
}

// fireLocked publishes a positive output pulse on the axon. Called
// with the write lock held. Non-positive emissions are suppressed and
// a subscriber-less axon is reported as a dead end; both outcomes are
// non-fatal to the neuron.
func (n *Neuron) fireLocked(emit common.Intensity) error {
	if emit <= 0 {
		return common.ErrSignalSuppressed
	}
	if n.axon == nil {
		return common.ErrDeadEndAxon
	}
	subscribers, err := n.axon.Send(pulse.New(emit))
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrSignalSend, err)
	}
	if subscribers == 0 {
		return common.ErrDeadEndAxon
	}
	return nil
}

// sendStatus pushes a counters snapshot onto the monitoring channel.
// The send never blocks: a full channel counts a drop and moves on.
func (n *Neuron) sendStatus() {
	if n.deps.Monitoring == nil {
		return
	}
	record := n.Status()
	select {
	case n.deps.Monitoring <- record:
	default:
		n.mu.Lock()
		n.monitorDrops++
		n.mu.Unlock()
		log.Printf("neuron %s: %v", n.id, &common.MonitoringChannelFullError{Msg: "status record dropped"})
	}
}
