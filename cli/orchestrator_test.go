package cli

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greyshaman/runen/config"
	"github.com/greyshaman/runen/network"
	"github.com/greyshaman/runen/neuron"
	"github.com/greyshaman/runen/pulse"
)

func TestBuildConverterWiresTheFixedTopology(t *testing.T) {
	net, err := network.New(network.Options{})
	require.NoError(t, err)
	defer net.Shutdown()

	require.NoError(t, BuildConverter(net))
	assert.Equal(t, 3, net.Len())
	assert.Equal(t, 1, net.InputPortsLen())
	assert.Equal(t, 2, net.OutputPortsLen())
}

func TestConverterLightsExactlyOneOutputPerBit(t *testing.T) {
	net, err := network.New(network.Options{})
	require.NoError(t, err)
	defer net.Shutdown()
	require.NoError(t, BuildConverter(net))

	zeroRx, err := net.GetOutputReceiver(0)
	require.NoError(t, err)
	defer zeroRx.Cancel()
	oneRx, err := net.GetOutputReceiver(1)
	require.NoError(t, err)
	defer oneRx.Cancel()

	recv := func(sub interface {
		Recv(context.Context) (pulse.Signal, error)
	}) (pulse.Signal, error) {
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		return sub.Recv(ctx)
	}

	// Bit value 0 lights output 0 and leaves output 1 silent.
	_, err = net.Input(pulse.New(0), 0)
	require.NoError(t, err)
	sig, err := recv(zeroRx)
	require.NoError(t, err)
	assert.True(t, sig.IsPositive())
	_, err = recv(oneRx)
	require.Error(t, err)

	// Bit value 1 lights output 1 and leaves output 0 silent.
	_, err = net.Input(pulse.New(1), 0)
	require.NoError(t, err)
	sig, err = recv(oneRx)
	require.NoError(t, err)
	assert.True(t, sig.IsPositive())
	_, err = recv(zeroRx)
	require.Error(t, err)
}

func TestOrchestratorRunsValidateMode(t *testing.T) {
	dir := t.TempDir()
	doc := &config.Document{Inputs: 0, Outputs: 0}
	path := filepath.Join(dir, "net.json")
	require.NoError(t, config.SaveTopology(doc, path))

	appCfg, err := config.NewAppConfig("")
	require.NoError(t, err)
	appCfg.Cli.Mode = config.ModeValidate
	appCfg.Cli.TopologyFile = path
	require.NoError(t, appCfg.Validate())

	require.NoError(t, NewOrchestrator(appCfg).Run())
}

func TestOrchestratorRunsTopologyWithMonitoringPersistence(t *testing.T) {
	dir := t.TempDir()
	zero := 0

	topology := &config.Document{
		Inputs:  1,
		Outputs: 1,
		Neurons: []neuron.Config{
			{ID: "N_0::HL_0::Z_0", Bias: 1, Inputs: []neuron.InputCfg{
				{CapacityMax: 1, Regeneration: 1, Weight: 1},
			}},
		},
		Links: []config.LinkCfg{
			{Kind: config.LinkInput, InputPort: &zero, DstID: "N_0::HL_0::Z_0", DstSynapseIdx: &zero},
			{Kind: config.LinkOutput, SrcID: "N_0::HL_0::Z_0", OutputPort: &zero},
		},
	}

	topoPath := filepath.Join(dir, "net.yaml")
	require.NoError(t, config.SaveTopology(topology, topoPath))

	dbPath := filepath.Join(dir, "run.db")
	appCfg, err := config.NewAppConfig("")
	require.NoError(t, err)
	appCfg.Cli.Mode = config.ModeRun
	appCfg.Cli.TopologyFile = topoPath
	appCfg.Cli.DbPath = dbPath
	appCfg.Cli.Monitoring = true
	appCfg.Cli.Inputs = []int{1, 1}
	require.NoError(t, appCfg.Validate())

	require.NoError(t, NewOrchestrator(appCfg).Run())
	assert.FileExists(t, dbPath)
}

func TestOrchestratorRunsConvertMode(t *testing.T) {
	appCfg, err := config.NewAppConfig("")
	require.NoError(t, err)
	appCfg.Cli.Mode = config.ModeConvert
	appCfg.Cli.Inputs = []int{0, 1}
	require.NoError(t, appCfg.Validate())

	require.NoError(t, NewOrchestrator(appCfg).Run())
}

func TestOrchestratorRejectsUnknownMode(t *testing.T) {
	appCfg, err := config.NewAppConfig("")
	require.NoError(t, err)
	appCfg.Cli.Mode = "simulate"
	require.Error(t, NewOrchestrator(appCfg).Run())
}
