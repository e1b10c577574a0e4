package mbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveOrdinaryArbitrationWon(t *testing.T) {
	f := &FSM{}
	f.tracker.reset()
	f.tracker.lastDin = High
	f.tracker.lastDout = Low
	f.resolveOrdinaryArbitration()
	assert.Equal(t, RoleTransmit, f.role)
}

func TestResolveOrdinaryArbitrationLostToContender(t *testing.T) {
	f := &FSM{}
	f.tracker.reset()
	f.tracker.lastDin = Low
	f.resolveOrdinaryArbitration()
	assert.Equal(t, RoleForward, f.role)
}

func TestResolveOrdinaryArbitrationDidNotContend(t *testing.T) {
	f := &FSM{}
	f.tracker.reset()
	f.tracker.lastDin = High
	f.tracker.lastDout = High
	f.resolveOrdinaryArbitration()
	assert.Equal(t, RoleForward, f.role)
}

func TestDrivePriorityBitOnlyWhenArmedPriority(t *testing.T) {
	var driven []Level
	f := &FSM{cfg: &Config{SetGPIOVal: func(_ GPIO, l Level) { driven = append(driven, l) }}}
	f.tx.priority = false
	f.drivePriorityBit()
	assert.Empty(t, driven)

	f.tx.priority = true
	f.drivePriorityBit()
	assert.Equal(t, []Level{High}, driven)
}

func TestResolvePriorityArbitrationPreemptsOrdinaryWinner(t *testing.T) {
	f := &FSM{role: RoleTransmit}
	f.tx.priority = false
	f.tracker.reset()
	f.tracker.lastDin = High
	state := f.resolvePriorityArbitration()
	assert.Equal(t, RoleForward, f.role)
	assert.Equal(t, StateArbReservedDrive, state)
}

func TestResolvePriorityArbitrationPromotesPrioritySender(t *testing.T) {
	f := &FSM{role: RoleForward}
	f.tx.priority = true
	f.tracker.reset()
	f.tracker.lastDin = Low
	state := f.resolvePriorityArbitration()
	assert.Equal(t, RoleTransmit, f.role)
	assert.Equal(t, StateDriveData, state)
}

func TestResolvePriorityArbitrationOrdinaryWinnerSurvives(t *testing.T) {
	f := &FSM{role: RoleTransmit}
	f.tx.priority = true
	f.tracker.reset()
	f.tracker.lastDin = High
	state := f.resolvePriorityArbitration()
	assert.Equal(t, RoleTransmit, f.role)
	assert.Equal(t, StateDriveData, state)
}
