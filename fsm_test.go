package mbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFSM(t *testing.T) (*FSM, *Config) {
	t.Helper()
	cfg := testConfig(0x3, 0, 0, 8)
	f, err := NewFSM(cfg)
	require.NoError(t, err)
	return f, cfg
}

func TestNewFSMRejectsInvalidConfig(t *testing.T) {
	_, err := NewFSM(&Config{})
	assert.ErrorIs(t, err, ErrIllegalArgument)
}

func TestInitSetsIdleDefaults(t *testing.T) {
	f, _ := newTestFSM(t)
	assert.Equal(t, StateIdle, f.State())
	assert.Equal(t, RoleForward, f.Role())
	assert.Equal(t, NoError, f.LastError())
}

func TestInitRecoversFromErrorState(t *testing.T) {
	f, cfg := newTestFSM(t)
	f.state = StateError
	f.err = ClockSynchError

	require.NoError(t, f.Init(cfg))
	assert.Equal(t, StateIdle, f.State())
	assert.Equal(t, NoError, f.LastError())
}

func TestErrorStateIsStickyNoop(t *testing.T) {
	f, _ := newTestFSM(t)
	f.state = StateError
	f.err = DataSynchError

	f.OnClkEdge(Low)
	f.OnDinEdge(Low)

	assert.Equal(t, StateError, f.State())
	assert.Equal(t, DataSynchError, f.LastError())
}

func TestDuplicateClkinEdgeLatchesFatalError(t *testing.T) {
	var gotErr error
	cfg := testConfig(0x3, 0, 0, 8)
	cfg.OnError = func(err error) { gotErr = err }
	f, err := NewFSM(cfg)
	require.NoError(t, err)

	f.OnClkEdge(High) // repeats the post-reset idle level: duplicate

	assert.Equal(t, StateError, f.State())
	assert.Equal(t, ClockSynchError, f.LastError())
	assert.Equal(t, ErrClockSynchError, gotErr)
}

func TestDuplicateDinEdgeLatchesFatalError(t *testing.T) {
	var gotErr error
	cfg := testConfig(0x3, 0, 0, 8)
	cfg.OnError = func(err error) { gotErr = err }
	f, err := NewFSM(cfg)
	require.NoError(t, err)

	f.OnDinEdge(High)

	assert.Equal(t, StateError, f.State())
	assert.Equal(t, DataSynchError, f.LastError())
	assert.Equal(t, ErrDataSynchError, gotErr)
}

func TestSendWhileBusyFailsSynchronously(t *testing.T) {
	f, _ := newTestFSM(t)
	f.OnClkEdge(Low) // advance out of Idle so a second Send sees the bus busy

	var gotN int
	var gotErr error
	f.cfg.OnSendDone = func(n int, err error) { gotN, gotErr = n, err }

	f.Send([]byte{0x01}, 1, false)

	assert.Equal(t, 0, gotN)
	assert.ErrorIs(t, gotErr, ErrBusBusy)
}

func TestSendArmsCursorAndDrivesDoutLow(t *testing.T) {
	var driven []Level
	cfg := testConfig(0x3, 0, 0, 8)
	cfg.SetGPIOVal = func(_ GPIO, l Level) { driven = append(driven, l) }
	f, err := NewFSM(cfg)
	require.NoError(t, err)

	f.Send([]byte{0x42}, 1, true)

	assert.Equal(t, RoleTransmit, f.Role())
	assert.Equal(t, []Level{Low}, driven)
	assert.True(t, f.tx.priority)
	assert.Equal(t, 1, f.tx.length)
}
