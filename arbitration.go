package mbus

// resolveOrdinaryArbitration implements the ARBITRATION -> PRIO_DRIVE step
// (spec §4.3 step 3): sample the bus and decide whether we won the
// ordinary arbitration round, lost it, or never contended.
func (f *FSM) resolveOrdinaryArbitration() {
	switch {
	case f.tracker.lastDin == High && f.tracker.lastDout == Low:
		// We drove low and nobody else did: won ordinary arbitration.
		f.role = RoleTransmit
	default:
		// Either lastDin == Low (someone else is arbitrating and we were
		// not the lowest-priority driver) or we never drove low.
		f.role = RoleForward
	}
}

// drivePriorityBit implements the PRIO_DRIVE -> PRIO_LATCH step (spec §4.3
// step 4): priority senders drive DOUT high; priority inverts the bit
// sense relative to ordinary arbitration's active-low intent.
func (f *FSM) drivePriorityBit() {
	if f.tx.priority {
		f.driveDout(High)
	}
}

// resolvePriorityArbitration implements the PRIO_LATCH step (spec §4.3
// step 5): resolve the priority round, returning the next state.
func (f *FSM) resolvePriorityArbitration() State {
	switch f.role {
	case RoleTransmit:
		if !f.tx.priority && f.tracker.lastDin == High {
			// Preempted by a priority sender.
			f.role = RoleForward
		}
	default:
		if f.tx.priority && f.tracker.lastDin == Low {
			// We may promote to TRANSMIT: no higher-priority
			// contender drove low.
			f.role = RoleTransmit
		}
	}

	if f.role == RoleTransmit {
		// The caller's buffer already includes the address bytes;
		// skip the reserved arbitration slots and address-decode
		// path entirely.
		return StateDriveData
	}
	return StateArbReservedDrive
}
