package mbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTxCursorWalksBitsLSBFirst(t *testing.T) {
	var c txCursor
	c.arm([]byte{0b0000_0101, 0xff}, 2, false)

	var got []Level
	for !c.done() {
		got = append(got, c.bit())
		c.advance()
	}

	want := []Level{High, Low, High, Low, Low, Low, Low, Low}
	for i := 0; i < 8; i++ {
		want = append(want, High)
	}
	assert.Equal(t, want, got)
}

func TestTxCursorResetZerosIndices(t *testing.T) {
	var c txCursor
	c.arm([]byte{1, 2, 3}, 3, true)
	c.advance()
	c.advance()
	c.reset()
	assert.Equal(t, uint8(0), c.bitIdx)
	assert.Equal(t, 0, c.byteIdx)
	assert.True(t, c.priority, "reset must not clear arm()'s configuration, only the indices")
}

func TestRxCursorClaimAndStoreBit(t *testing.T) {
	var c rxCursor
	c.reset()
	require.False(t, c.claimed())

	c.claim(2, 1)
	require.True(t, c.claimed())
	assert.Equal(t, 2, c.slotIdx)
	assert.Equal(t, 1, c.byteIdx)

	slot := &RecvSlot{Buffer: make([]byte, 4), Length: 4}
	for _, bit := range []Level{High, Low, High, Low, Low, Low, Low, Low} {
		c.storeBit(slot, bit)
	}
	assert.Equal(t, byte(0b0000_0101), slot.Buffer[1])
	assert.Equal(t, 2, c.byteIdx)
}

func TestRxCursorOverruns(t *testing.T) {
	var c rxCursor
	c.reset()
	c.claim(0, 0)
	slot := &RecvSlot{Buffer: make([]byte, 2), Length: 2}

	assert.False(t, c.overruns(slot))
	c.byteIdx = 2
	assert.False(t, c.overruns(slot), "byteIdx == Length is the last valid write position")
	c.byteIdx = 3
	assert.True(t, c.overruns(slot))
}

func TestRxCursorShiftAddrIsMSBFirst(t *testing.T) {
	var c rxCursor
	c.reset()
	for _, bit := range []Level{High, Low, High, Low} {
		c.shiftAddr(bit)
	}
	assert.Equal(t, uint32(0b1010), c.addr)
}
