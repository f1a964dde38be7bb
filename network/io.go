package network

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/greyshaman/runen/bus"
	"github.com/greyshaman/runen/common"
	"github.com/greyshaman/runen/ident"
	"github.com/greyshaman/runen/pulse"
	"github.com/greyshaman/runen/status"
)

// inputPort multiplexes one external source onto one neuron input. It
// owns the broadcast publisher the target synapse subscribes to.
type inputPort struct {
	id   string
	hits common.HitCount
	pub  *bus.Broadcaster[pulse.Signal]
}

// outputPort subscribes to a neuron's axon and publishes hit counters
// to the monitoring bus. External consumers take their own fresh
// subscriptions from the same axon.
type outputPort struct {
	id       string
	neuronID string
	hits     common.HitCount
	axon     *bus.Broadcaster[pulse.Signal]
	sub      *bus.Subscription[pulse.Signal]
	cancel   context.CancelFunc
}

func (p *outputPort) stop() {
	if p.cancel != nil {
		p.cancel()
	}
	if p.sub != nil {
		p.sub.Cancel()
	}
}

// SetupInput creates the external input port extPort and subscribes
// the given input of the target neuron to it. An already used port
// number fails with a busy error.
func (net *Network) SetupInput(extPort int, neuronID string, neuronPort common.PortIndex) error {
	n, err := net.GetNeuron(neuronID)
	if err != nil {
		return err
	}
	portID, err := ident.Compose(net.id, extPort, ident.InputPort)
	if err != nil {
		return fmt.Errorf("setting up input %d: %w", extPort, err)
	}

	net.inputsMu.Lock()
	defer net.inputsMu.Unlock()
	if _, busy := net.inputs[extPort]; busy {
		return &common.PortBusyError{ID: portID}
	}

	pub := bus.New[pulse.Signal](net.opts.ChannelCapacity)
	if err := n.Connect(portID, neuronPort, pub.Subscribe()); err != nil {
		pub.Close()
		return err
	}
	net.inputs[extPort] = &inputPort{id: portID, pub: pub}
	return nil
}

// Input publishes the signal on the external input port and returns
// the number of subscribers notified. When monitoring is enabled a
// port status record is appended.
func (net *Network) Input(sig pulse.Signal, extPort int) (int, error) {
	net.inputsMu.Lock()
	in, ok := net.inputs[extPort]
	if !ok {
		net.inputsMu.Unlock()
		return 0, &common.PortNotFoundError{Port: extPort}
	}
	in.hits++
	hits := in.hits
	id := in.id
	pub := in.pub
	net.inputsMu.Unlock()

	notified, err := pub.Send(sig)
	if err != nil {
		return 0, fmt.Errorf("input on port %d: %w: %v", extPort, common.ErrSignalSend, err)
	}
	if net.MonitoringMode() == common.Monitoring {
		net.sendPortStatus(id, hits, sig)
	}
	return notified, nil
}

// SetupOutput subscribes the output port extPort to the axon of the
// given neuron and spawns the port's counter task.
func (net *Network) SetupOutput(extPort int, neuronID string) error {
	n, err := net.GetNeuron(neuronID)
	if err != nil {
		return err
	}
	portID, err := ident.Compose(net.id, extPort, ident.OutputPort)
	if err != nil {
		return fmt.Errorf("setting up output %d: %w", extPort, err)
	}

	net.outputsMu.Lock()
	defer net.outputsMu.Unlock()
	if _, busy := net.outputs[extPort]; busy {
		return &common.PortBusyError{ID: portID}
	}

	axon := n.AxonOutlet()
	pctx, cancel := context.WithCancel(net.ctx)
	out := &outputPort{
		id:       portID,
		neuronID: neuronID,
		axon:     axon,
		sub:      axon.Subscribe(),
		cancel:   cancel,
	}
	net.outputs[extPort] = out

	net.tracker.Add(1)
	go func() {
		defer net.tracker.Done()
		net.outputLoop(pctx, extPort, out)
	}()
	return nil
}

// outputLoop counts every pulse observed by the output port and, when
// monitoring is on, reports it to the monitoring bus.
func (net *Network) outputLoop(ctx context.Context, extPort int, out *outputPort) {
	for {
		sig, err := out.sub.Recv(ctx)
		if err != nil {
			var lag *bus.LagError
			switch {
			case errors.As(err, &lag):
				log.Printf("output port %s lagged by %d pulses", out.id, lag.Skipped)
				continue
			case errors.Is(err, bus.ErrClosed):
				return
			default:
				return
			}
		}

		net.outputsMu.Lock()
		out.hits++
		hits := out.hits
		net.outputsMu.Unlock()

		if net.MonitoringMode() == common.Monitoring {
			net.sendPortStatus(out.id, hits, sig)
		}
	}
}

// GetOutputReceiver returns a fresh subscription to the stream behind
// the output port for an external consumer.
func (net *Network) GetOutputReceiver(extPort int) (*bus.Subscription[pulse.Signal], error) {
	net.outputsMu.RLock()
	defer net.outputsMu.RUnlock()
	out, ok := net.outputs[extPort]
	if !ok {
		return nil, &common.PortNotFoundError{Port: extPort}
	}
	return out.axon.Subscribe(), nil
}

// FreeOutput releases the output port and aborts its counter task.
func (net *Network) FreeOutput(extPort int) error {
	net.outputsMu.Lock()
	defer net.outputsMu.Unlock()
	out, ok := net.outputs[extPort]
	if !ok {
		return fmt.Errorf("freeing output %d: %w", extPort, common.ErrPortAlreadyFree)
	}
	delete(net.outputs, extPort)
	out.stop()
	return nil
}

// InputPortsLen returns the number of configured input ports.
func (net *Network) InputPortsLen() int {
	net.inputsMu.RLock()
	defer net.inputsMu.RUnlock()
	return len(net.inputs)
}

// OutputPortsLen returns the number of configured output ports.
func (net *Network) OutputPortsLen() int {
	net.outputsMu.RLock()
	defer net.outputsMu.RUnlock()
	return len(net.outputs)
}

// OutputBindings returns the neuron id behind every output port.
func (net *Network) OutputBindings() map[int]string {
	net.outputsMu.RLock()
	defer net.outputsMu.RUnlock()
	bindings := make(map[int]string, len(net.outputs))
	for port, out := range net.outputs {
		bindings[port] = out.neuronID
	}
	return bindings
}

// sendPortStatus pushes a port record onto the monitoring channel
// without blocking; a full channel drops the record with a log notice.
func (net *Network) sendPortStatus(portID string, hits common.HitCount, recent pulse.Signal) {
	record := status.PortInfo{
		Timestamp:    time.Now(),
		ID:           portID,
		HitCount:     hits,
		RecentSignal: recent,
	}
	select {
	case net.monitoringCh <- record:
	default:
		log.Printf("port %s: %v", portID, &common.MonitoringChannelFullError{Msg: "status record dropped"})
	}
}
