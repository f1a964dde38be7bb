package synaptic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greyshaman/runen/common"
)

func TestNewRejectsBadConfigurations(t *testing.T) {
	_, err := New(0, 0, 1)
	assert.ErrorIs(t, err, common.ErrNotSupportedArgValue)

	_, err = New(1, 2, 1)
	assert.ErrorIs(t, err, common.ErrNotSupportedArgValue)

	s, err := New(2, 1, -1)
	require.NoError(t, err)
	assert.Equal(t, common.Capacity(2), s.CurrentCapacity())
}

func TestAcceptClampsToAvailableCapacity(t *testing.T) {
	s, err := New(1, 1, 1)
	require.NoError(t, err)

	// A signal exceeding the capacity is clipped.
	assert.Equal(t, common.Intensity(1), s.Accept(3))

	// Negative intensities deliver nothing.
	assert.Equal(t, common.Intensity(0), s.Accept(-3))
}

func TestAcceptDrawsAndRegenerates(t *testing.T) {
	s, err := New(4, 1, 1)
	require.NoError(t, err)

	// Full bucket delivers 3, draws it, regenerates 1: capacity 2.
	assert.Equal(t, common.Intensity(3), s.Accept(3))
	assert.Equal(t, common.Capacity(2), s.CurrentCapacity())

	// Delivery limited to the remaining 2.
	assert.Equal(t, common.Intensity(2), s.Accept(3))
	assert.Equal(t, common.Capacity(1), s.CurrentCapacity())
}

func TestAcceptWithExhaustedBucketDeliversZero(t *testing.T) {
	s, err := New(1, 0, 1)
	require.NoError(t, err)

	assert.Equal(t, common.Intensity(1), s.Accept(1))
	assert.Equal(t, common.Capacity(0), s.CurrentCapacity())

	// No regeneration: nothing left to deliver.
	assert.Equal(t, common.Intensity(0), s.Accept(5))
}

func TestCapacityStaysWithinBounds(t *testing.T) {
	s, err := New(3, 3, 1)
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		s.Accept(common.Intensity(i % 7))
		current := s.CurrentCapacity()
		assert.LessOrEqual(t, current, common.Capacity(3))
	}
}

func TestWeighAppliesSign(t *testing.T) {
	excite, err := New(2, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, common.Intensity(6), excite.Weigh(2))

	inhibit, err := New(2, 2, -2)
	require.NoError(t, err)
	assert.Equal(t, common.Intensity(-4), inhibit.Weigh(2))
}

func TestConnectionLifecycle(t *testing.T) {
	s, err := New(2, 1, 1)
	require.NoError(t, err)
	assert.False(t, s.Connected())

	require.NoError(t, s.Connect("N_0::HL_0::Z_1"))
	assert.True(t, s.Connected())
	assert.Equal(t, "N_0::HL_0::Z_1", s.Source())

	// A second source is refused while bound.
	var busy *common.PortBusyError
	err = s.Connect("N_0::HL_0::Z_2")
	require.ErrorAs(t, err, &busy)

	// Rebind replaces unconditionally and refills the bucket.
	s.Accept(2)
	s.Rebind("N_0::HL_0::Z_3")
	assert.Equal(t, "N_0::HL_0::Z_3", s.Source())
	assert.Equal(t, common.Capacity(2), s.CurrentCapacity())

	s.Disconnect()
	assert.False(t, s.Connected())
}
