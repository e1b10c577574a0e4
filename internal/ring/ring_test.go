package ring

import (
	"testing"

	"github.com/ringbus/mbus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoNodeCfgs() []*mbus.Config {
	return []*mbus.Config{
		{RecvBuffers: []*mbus.RecvSlot{{Buffer: make([]byte, 8), Length: 8}}},
		{ShortPrefix: 0x3, RecvBuffers: []*mbus.RecvSlot{{Buffer: make([]byte, 8), Length: 8}}},
	}
}

func TestNewWiresDistinctSetGPIOVal(t *testing.T) {
	r, err := New(twoNodeCfgs())
	require.NoError(t, err)
	require.Len(t, r.nodes, 2)
	for _, n := range r.nodes {
		assert.NotNil(t, n.Config.SetGPIOVal)
		assert.Equal(t, mbus.StateIdle, n.FSM.State())
	}
}

func TestTickClockAdvancesBothNodesOutOfIdle(t *testing.T) {
	r, err := New(twoNodeCfgs())
	require.NoError(t, err)

	r.TickClock(mbus.Low)

	assert.NotEqual(t, mbus.StateIdle, r.Node(0).FSM.State())
	assert.NotEqual(t, mbus.StateIdle, r.Node(1).FSM.State())
}

func TestPulseDeliversThroughToSuccessor(t *testing.T) {
	r, err := New(twoNodeCfgs())
	require.NoError(t, err)

	// Pulsing node 0's DOUT should reach node 1's DIN via the wired
	// forward link without panicking or deadlocking.
	r.Pulse(0, mbus.Low, mbus.High, mbus.Low)
}
