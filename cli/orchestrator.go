// Package cli provides the command-line orchestrator of the runen
// runtime. It interprets the resolved application configuration, sets
// up the network, and manages the execution flow for the different
// modes of operation (run, convert, validate, export).
package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/greyshaman/runen/bus"
	"github.com/greyshaman/runen/common"
	"github.com/greyshaman/runen/config"
	"github.com/greyshaman/runen/network"
	"github.com/greyshaman/runen/neuron"
	"github.com/greyshaman/runen/pulse"
	"github.com/greyshaman/runen/storage"
)

// Orchestrator drives one application run based on the CLI
// configuration.
type Orchestrator struct {
	AppCfg *config.AppConfig
	Net    *network.Network
	Logger *storage.SQLiteLogger
}

// NewOrchestrator creates an orchestrator for the given configuration.
func NewOrchestrator(appCfg *config.AppConfig) *Orchestrator {
	return &Orchestrator{AppCfg: appCfg}
}

// Run executes the selected mode. It is the main entry point of the
// orchestrator.
func (o *Orchestrator) Run() error {
	switch o.AppCfg.Cli.Mode {
	case config.ModeRun:
		return o.runTopologyMode()
	case config.ModeConvert:
		return o.runConvertMode()
	case config.ModeValidate:
		return o.runValidateMode()
	case config.ModeExport:
		return storage.ExportLogData(o.AppCfg.Cli.DbPath, o.AppCfg.Cli.ExportTable, o.AppCfg.Cli.ExportOutput)
	default:
		// AppConfig.Validate catches this earlier in normal flows.
		return fmt.Errorf("unknown mode %q", o.AppCfg.Cli.Mode)
	}
}

// networkOptions maps the runtime parameters onto network options.
func (o *Orchestrator) networkOptions() network.Options {
	return network.Options{
		ChannelCapacity:        o.AppCfg.Runtime.ChannelCapacity,
		GracefulShutdownPeriod: o.AppCfg.Runtime.GracefulShutdownPeriod(),
	}
}

// runTopologyMode builds a network from the topology file, feeds the
// configured pulses into input port 0 and reports what the output
// ports observed. With monitoring enabled and a database path set, the
// drained records are persisted.
func (o *Orchestrator) runTopologyMode() error {
	doc, err := config.LoadTopology(o.AppCfg.Cli.TopologyFile)
	if err != nil {
		return err
	}
	net, _, err := config.BuildNetwork(doc, o.networkOptions())
	if err != nil {
		return err
	}
	o.Net = net
	defer net.Shutdown()

	if o.AppCfg.Cli.Monitoring {
		net.SetMonitoringMode(common.Monitoring)
	}

	receivers, err := o.subscribeOutputs(doc.Outputs)
	if err != nil {
		return err
	}

	quiescence := o.AppCfg.Runtime.QuiescencePeriod()
	for _, intensity := range o.AppCfg.Cli.Inputs {
		if _, err := net.Input(pulse.New(common.Intensity(intensity)), 0); err != nil {
			return fmt.Errorf("feeding input %d: %w", intensity, err)
		}
		time.Sleep(quiescence)
	}
	time.Sleep(quiescence)

	o.reportOutputs(receivers)
	return o.persistMonitoring()
}

// runConvertMode wires the fixed two-bit to one-hot converter network
// and feeds it the configured bits: a pulse of intensity 0 lights
// output 0, a pulse of intensity 1 lights output 1.
func (o *Orchestrator) runConvertMode() error {
	net, err := network.New(o.networkOptions())
	if err != nil {
		return err
	}
	o.Net = net
	defer net.Shutdown()

	if err := BuildConverter(net); err != nil {
		return err
	}

	receivers, err := o.subscribeOutputs(2)
	if err != nil {
		return err
	}

	bits := o.AppCfg.Cli.Inputs
	if len(bits) == 0 {
		bits = []int{0, 1}
	}
	quiescence := o.AppCfg.Runtime.QuiescencePeriod()
	for _, bit := range bits {
		fmt.Printf("Sending %d at first bit\n", bit)
		if _, err := net.Input(pulse.New(common.Intensity(bit)), 0); err != nil {
			return fmt.Errorf("feeding bit %d: %w", bit, err)
		}
		time.Sleep(quiescence)
	}
	time.Sleep(quiescence)

	o.reportOutputs(receivers)
	return nil
}

// runValidateMode parses the topology file and checks it without
// building a network.
func (o *Orchestrator) runValidateMode() error {
	doc, err := config.LoadTopology(o.AppCfg.Cli.TopologyFile)
	if err != nil {
		return err
	}
	if err := doc.Validate(); err != nil {
		return err
	}
	fmt.Printf("Topology %s: %d neurons, %d links, %d inputs, %d outputs — OK\n",
		o.AppCfg.Cli.TopologyFile, len(doc.Neurons), len(doc.Links), doc.Inputs, doc.Outputs)
	return nil
}

// subscribeOutputs takes a fresh receiver on every output port.
func (o *Orchestrator) subscribeOutputs(count int) (map[int]*bus.Subscription[pulse.Signal], error) {
	receivers := make(map[int]*bus.Subscription[pulse.Signal], count)
	for port := 0; port < count; port++ {
		sub, err := o.Net.GetOutputReceiver(port)
		if err != nil {
			// A declared but unwired output port has nothing to observe.
			var notFound *common.PortNotFoundError
			if errors.As(err, &notFound) {
				continue
			}
			return nil, err
		}
		receivers[port] = sub
	}
	return receivers, nil
}

// reportOutputs drains whatever the output receivers buffered and
// prints the observed pulse sequences.
func (o *Orchestrator) reportOutputs(receivers map[int]*bus.Subscription[pulse.Signal]) {
	ports := make([]int, 0, len(receivers))
	for port := range receivers {
		ports = append(ports, port)
	}
	sort.Ints(ports)

	for _, port := range ports {
		for {
			ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
			sig, err := receivers[port].Recv(ctx)
			cancel()
			if err != nil {
				var lag *bus.LagError
				if errors.As(err, &lag) {
					log.Printf("output %d lagged by %d pulses", port, lag.Skipped)
					continue
				}
				break
			}
			fmt.Printf("-+= %d =+- (%d)\n", port, sig.Intensity)
		}
	}
}

// persistMonitoring drains the monitoring store into the SQLite
// database when configured.
func (o *Orchestrator) persistMonitoring() error {
	if !o.AppCfg.Cli.Monitoring || o.AppCfg.Cli.DbPath == "" {
		return nil
	}
	logger, err := storage.NewSQLiteLogger(o.AppCfg.Cli.DbPath)
	if err != nil {
		return err
	}
	o.Logger = logger
	defer func() {
		if errClose := logger.Close(); errClose != nil {
			log.Printf("closing SQLite logger: %v", errClose)
		}
	}()

	records := o.Net.PopMonitoringStore()
	if err := logger.LogRecords(records); err != nil {
		return err
	}
	fmt.Printf("Persisted %d monitoring records to %s\n", len(records), o.AppCfg.Cli.DbPath)
	return nil
}

// BuildConverter wires the fixed two-bit to one-hot topology into the
// given network: one relay neuron fans out to two detector neurons
// whose weights make exactly one of them fire per input value.
func BuildConverter(net *network.Network) error {
	relay, err := net.CreateNeuron(1, nil)
	if err != nil {
		return err
	}
	zeroDetector, err := net.CreateNeuron(1, []neuron.InputCfg{
		{CapacityMax: 2, Regeneration: 2, Weight: -1},
		{CapacityMax: 1, Regeneration: 1, Weight: 1},
	})
	if err != nil {
		return err
	}
	oneDetector, err := net.CreateNeuron(1, []neuron.InputCfg{
		{CapacityMax: 1, Regeneration: 1, Weight: -2},
		{CapacityMax: 2, Regeneration: 2, Weight: 1},
	})
	if err != nil {
		return err
	}

	for port := common.PortIndex(0); port < 2; port++ {
		if err := net.ConnectNeurons(relay.ID(), zeroDetector.ID(), port); err != nil {
			return err
		}
		if err := net.ConnectNeurons(relay.ID(), oneDetector.ID(), port); err != nil {
			return err
		}
	}

	if err := net.SetupInput(0, relay.ID(), 0); err != nil {
		return err
	}
	if err := net.SetupOutput(0, zeroDetector.ID()); err != nil {
		return err
	}
	return net.SetupOutput(1, oneDetector.ID())
}
