package ident

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComposeNetworkID(t *testing.T) {
	id, err := Compose("", 0, Network)
	require.NoError(t, err)
	assert.Equal(t, "N_0", id)

	id, err = Compose("", 5, Network)
	require.NoError(t, err)
	assert.Equal(t, "N_5", id)
}

func TestComposeRejectsWrongContainer(t *testing.T) {
	_, err := Compose("27637263", 5, Network)
	assert.Error(t, err)

	_, err = Compose("", 5, Neuron)
	assert.Error(t, err)

	_, err = Compose("N_0", 1, Neuron) // neurons live inside a layer
	assert.Error(t, err)
}

func TestComposeComponentChain(t *testing.T) {
	layer, err := Compose("N_1", 0, HiddenLayer)
	require.NoError(t, err)
	assert.Equal(t, "N_1::HL_0", layer)

	neuronID, err := Compose(layer, 3, Neuron)
	require.NoError(t, err)
	assert.Equal(t, "N_1::HL_0::Z_3", neuronID)

	synapseID, err := Compose(neuronID, 2, Synapse)
	require.NoError(t, err)
	assert.Equal(t, "N_1::HL_0::Z_3::A_2", synapseID)

	inputID, err := Compose("N_1", 4, InputPort)
	require.NoError(t, err)
	assert.Equal(t, "N_1::I_4", inputID)
}

func TestIsValid(t *testing.T) {
	cases := []struct {
		id    string
		kind  Kind
		valid bool
	}{
		{"N_0", Network, true},
		{"N_0::HL_0::Z_12", Neuron, true},
		{"M0Z12", Neuron, true}, // legacy form
		{"N_0::HL_0::Z_1::E_0", Axon, true},
		{"N_0::I_3", InputPort, true},
		{"N_0::O_3", OutputPort, true},
		{"Z_1", Neuron, false},
		{"N_0::Z_1", Neuron, false},
		{"N_0::HL_0::Z_1::A_0", Axon, false},
		{"M0Y1", Neuron, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.valid, IsValid(c.id, c.kind), "id %q kind %v", c.id, c.kind)
	}
}

func TestIndexExtraction(t *testing.T) {
	idx, err := Index("N_0::HL_0::Z_12", Neuron)
	require.NoError(t, err)
	assert.Equal(t, 12, idx)

	idx, err = Index("M3Z7", Neuron)
	require.NoError(t, err)
	assert.Equal(t, 7, idx)

	idx, err = Index("N_0::HL_0::Z_1::A_4", Synapse)
	require.NoError(t, err)
	assert.Equal(t, 4, idx)

	_, err = Index("", Neuron)
	assert.Error(t, err)

	_, err = Index("N_0::HL_0::Z_1::E_4", Synapse)
	assert.Error(t, err)
}

func TestSiblingRules(t *testing.T) {
	// Synapses allow siblings at any index.
	assert.True(t, CheckSiblings("N_0::HL_0::Z_1::A_0", Synapse))
	assert.True(t, CheckSiblings("N_0::HL_0::Z_1::A_5", Synapse))

	// A neuron owns exactly one neurosoma and one axon.
	assert.True(t, CheckSiblings("N_0::HL_0::Z_1::G_0", Neurosoma))
	assert.False(t, CheckSiblings("N_0::HL_0::Z_1::G_1", Neurosoma))
	assert.True(t, CheckSiblings("N_0::HL_0::Z_1::E_0", Axon))
	assert.False(t, CheckSiblings("N_0::HL_0::Z_1::E_2", Axon))
}
