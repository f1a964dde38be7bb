package network

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greyshaman/runen/common"
	"github.com/greyshaman/runen/pulse"
	"github.com/greyshaman/runen/status"
)

func TestInputRequiresSetup(t *testing.T) {
	net := newTestNetwork(t)

	var notFound *common.PortNotFoundError
	_, err := net.Input(pulse.New(1), 0)
	require.ErrorAs(t, err, &notFound)
}

func TestSetupInputOnUsedPortFails(t *testing.T) {
	net := newTestNetwork(t)
	n, err := net.CreateNeuron(1, nil)
	require.NoError(t, err)

	require.NoError(t, net.SetupInput(0, n.ID(), 0))
	assert.Equal(t, 1, net.InputPortsLen())

	other, err := net.CreateNeuron(1, nil)
	require.NoError(t, err)

	var busy *common.PortBusyError
	err = net.SetupInput(0, other.ID(), 0)
	require.ErrorAs(t, err, &busy)
}

func TestSetupInputForMissingNeuronFails(t *testing.T) {
	net := newTestNetwork(t)

	var notFound *common.NeuronNotFoundError
	err := net.SetupInput(0, "missed", 0)
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, 0, net.InputPortsLen())
}

func TestInputReachesTheNeuron(t *testing.T) {
	net := newTestNetwork(t)
	n, err := net.CreateNeuron(1, nil)
	require.NoError(t, err)
	require.NoError(t, net.SetupInput(0, n.ID(), 0))

	notified, err := net.Input(pulse.New(1), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, notified)

	require.Eventually(t, func() bool {
		stat, err := net.GetCurrentNeuronStatus(n.ID())
		return err == nil && stat.HitCount == 1
	}, time.Second, time.Millisecond)
}

func TestOutputPortLifecycle(t *testing.T) {
	net := newTestNetwork(t)
	n, err := net.CreateNeuron(1, nil)
	require.NoError(t, err)

	require.NoError(t, net.SetupOutput(0, n.ID()))
	assert.Equal(t, 1, net.OutputPortsLen())

	// A second setup on the same port is busy.
	var busy *common.PortBusyError
	err = net.SetupOutput(0, n.ID())
	require.ErrorAs(t, err, &busy)

	// Free, then the port number is reusable: the observable
	// subscriber contract is restored by the new setup.
	require.NoError(t, net.FreeOutput(0))
	assert.Equal(t, 0, net.OutputPortsLen())
	require.NoError(t, net.SetupOutput(0, n.ID()))

	// Freeing twice reports the port as already free.
	require.NoError(t, net.FreeOutput(0))
	err = net.FreeOutput(0)
	require.ErrorIs(t, err, common.ErrPortAlreadyFree)
}

func TestGetOutputReceiverObservesPulses(t *testing.T) {
	net := newTestNetwork(t)
	n, err := net.CreateNeuron(1, nil)
	require.NoError(t, err)
	require.NoError(t, net.SetupInput(0, n.ID(), 0))
	require.NoError(t, net.SetupOutput(0, n.ID()))

	rx, err := net.GetOutputReceiver(0)
	require.NoError(t, err)
	defer rx.Cancel()

	_, err = net.Input(pulse.New(1), 0)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	sig, err := rx.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, common.Intensity(2), sig.Intensity)

	_, err = net.GetOutputReceiver(9)
	var notFound *common.PortNotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestMonitoringCollectsPortAndNeuronRecords(t *testing.T) {
	net := newTestNetwork(t)
	net.SetMonitoringMode(common.Monitoring)

	n, err := net.CreateNeuron(1, nil)
	require.NoError(t, err)
	require.NoError(t, net.SetupInput(0, n.ID(), 0))
	require.NoError(t, net.SetupOutput(0, n.ID()))

	assert.Empty(t, net.PopMonitoringStore())

	_, err = net.Input(pulse.New(1), 0)
	require.NoError(t, err)

	var records []status.Record
	require.Eventually(t, func() bool {
		records = append(records, net.PopMonitoringStore()...)
		return len(records) >= 3
	}, time.Second, time.Millisecond)

	var neuronRecords, portRecords int
	for _, record := range records {
		switch info := record.(type) {
		case status.NeuronInfo:
			neuronRecords++
			assert.Equal(t, n.ID(), info.ID)
			assert.Equal(t, 1, info.DendriteCount)
			assert.Equal(t, 1, info.DendriteConnectedCount)
			assert.Equal(t, 0, info.DendriteHitCount)
			assert.Equal(t, common.Intensity(1), info.Accumulator)
			assert.Equal(t, 1, info.ReceiverCount)
		case status.PortInfo:
			portRecords++
			assert.Equal(t, common.HitCount(1), info.HitCount)
			assert.False(t, info.Timestamp.IsZero())
		}
	}
	assert.GreaterOrEqual(t, neuronRecords, 1)
	assert.GreaterOrEqual(t, portRecords, 2)
}

func TestOutputBindings(t *testing.T) {
	net := newTestNetwork(t)
	n, err := net.CreateNeuron(1, nil)
	require.NoError(t, err)
	require.NoError(t, net.SetupOutput(3, n.ID()))

	bindings := net.OutputBindings()
	assert.Equal(t, map[int]string{3: n.ID()}, bindings)
}
