package mbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateStringKnownAndUnknown(t *testing.T) {
	assert.Equal(t, "IDLE", StateIdle.String())
	assert.Equal(t, "ERROR", StateError.String())
	assert.Equal(t, "UNKNOWN", State(200).String())
}

func TestRoleString(t *testing.T) {
	assert.Equal(t, "INTERRUPTER", RoleInterrupter.String())
	assert.Equal(t, "UNKNOWN", Role(200).String())
}

func TestRequestingInterruptStates(t *testing.T) {
	for _, s := range []State{StateRequestInterrupt, StateRequestingInterrupt, StateRequestedInterrupt} {
		assert.True(t, s.requestingInterrupt(), "%s should stretch CLKOUT high", s)
	}
	for _, s := range []State{StateIdle, StateDriveData, StatePreBeginControl} {
		assert.False(t, s.requestingInterrupt(), "%s should mirror CLKIN", s)
	}
}
