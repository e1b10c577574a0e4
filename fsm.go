// Package mbus implements the bit-banging protocol core of MBus, a
// two-wire synchronous, chip-to-chip ring bus. A node participates by
// sampling incoming CLKIN/DIN edges, mutating outgoing CLKOUT/DOUT on a
// bit-by-bit basis, and exchanging bits in lock-step with the bus clock.
//
// FSM is a single, non-reentrant finite-state machine driven entirely by
// two external edge notifications, OnClkEdge and OnDinEdge. It owns no
// goroutines, performs no I/O of its own, and never blocks: actual GPIO
// access and interrupt dispatch are the caller's responsibility, supplied
// through Config. The caller must guarantee OnClkEdge and OnDinEdge never
// run concurrently with each other or with themselves — typically by
// running both at the same interrupt priority with preemption disabled.
package mbus

// FSM is the MBus bit-banging state machine for a single node. A process
// may own any number of FSM values (each independently configured and
// wired to its own GPIO lines), but a single FSM must never be driven from
// more than one goroutine at a time.
type FSM struct {
	cfg *Config

	tracker tracker
	tx      txCursor
	rx      rxCursor

	state State
	role  Role

	interruptCount uint8
	err            ErrorKind
	ack            Level
}

// NewFSM allocates and initializes an FSM for cfg. cfg must remain valid
// for the lifetime of the returned FSM.
func NewFSM(cfg *Config) (*FSM, error) {
	f := &FSM{}
	if err := f.Init(cfg); err != nil {
		return nil, err
	}
	return f, nil
}

// Init wires cfg into f and resets every FSM field, per spec §4.1. It may
// be called again at any time (including from StateError) to recover the
// FSM; this is the only supported recovery path out of StateError.
func (f *FSM) Init(cfg *Config) error {
	if !cfg.valid() {
		return ErrIllegalArgument
	}
	*f = FSM{cfg: cfg}
	f.tracker.reset()
	f.rx.reset()
	f.state = StateIdle
	f.role = RoleForward
	f.err = NoError
	return nil
}

// State returns the FSM's current phase. Intended for tests and
// diagnostics; the protocol itself never exposes it to peers.
func (f *FSM) State() State { return f.state }

// Role returns the FSM's current logical role within the transaction (or
// RoleForward while idle).
func (f *FSM) Role() Role { return f.role }

// LastError returns the error kind latched by the most recent transaction,
// or NoError.
func (f *FSM) LastError() ErrorKind { return f.err }

// Send arbitrates for the bus and then writes buf onto the wire, including
// any address bytes buf already contains (spec §4.1). buf must remain
// valid until OnSendDone fires. Only one Send may be outstanding at a
// time; calling Send while a transaction is already in progress fails
// synchronously with ErrBusBusy and performs no state change.
func (f *FSM) Send(buf []byte, length int, priority bool) {
	if f.state != StateIdle {
		if f.cfg.OnSendDone != nil {
			f.cfg.OnSendDone(0, ErrBusBusy)
		}
		return
	}
	f.tx.arm(buf, length, priority)
	f.role = RoleTransmit
	// The FSM will pick this up on the next CLKIN falling edge; it is
	// safe to drive DOUT and set the logical role immediately.
	f.driveDout(Low)
}

// OnClkEdge must be called by the platform shim on every CLKIN edge,
// non-reentrantly, before the source interrupt is cleared. level is the
// new CLKIN level.
func (f *FSM) OnClkEdge(level Level) {
	if f.state == StateError {
		return
	}
	if f.tracker.observeClkin(level) {
		f.latchFatalError(ClockSynchError)
		return
	}
	f.interruptCount = 0

	f.state = f.stepClk()
	f.applyClkoutPolicy()

	if f.state == StateBeginIdle {
		f.dispatchCompletion()
	}
}

// latchFatalError drives the FSM into its terminal StateError: unlike
// RecvOverflow (which is recoverable via the interrupt-request protocol
// and reported through the ordinary BEGIN_IDLE dispatch path), a sync
// fault has no further edges to wait for, so the client is notified
// immediately instead of at a BEGIN_IDLE transition that will now never
// come.
func (f *FSM) latchFatalError(kind ErrorKind) {
	f.state = StateError
	f.err = kind
	if f.cfg.OnError != nil {
		f.cfg.OnError(Error{kind})
	}
}

// stepClk runs the bit-framing state table (spec §4.6) for a single CLKIN
// edge and returns the next state. f.state still holds the
// pre-transition value while this runs.
func (f *FSM) stepClk() State {
	din := f.tracker.lastDin

	switch f.state {
	case StateIdle:
		f.tx.reset()
		f.rx.reset()
		f.ack = Low
		return StatePrearb

	case StatePrearb:
		return StateArbitration

	case StateArbitration:
		f.resolveOrdinaryArbitration()
		return StatePrioDrive

	case StatePrioDrive:
		f.drivePriorityBit()
		return StatePrioLatch

	case StatePrioLatch:
		return f.resolvePriorityArbitration()

	case StateArbReservedDrive:
		return StateArbReservedLatch

	case StateArbReservedLatch:
		return StateDriveShortAddr

	case StateDriveShortAddr:
		return StateLatchShortAddr

	case StateLatchShortAddr:
		return f.latchShortAddrBit(din)

	case StateDriveLongAddr:
		return StateLatchLongAddr

	case StateLatchLongAddr:
		return f.latchLongAddrBit(din)

	case StateDriveData:
		if f.role == RoleTransmit {
			f.driveDout(f.tx.bit())
			f.tx.advance()
		}
		return StateLatchData

	case StateLatchData:
		return f.stepLatchData(din)

	case StateRequestInterrupt:
		if f.tracker.lastClkin == Low {
			return StateRequestingInterrupt
		}
		return StateRequestInterrupt

	case StateRequestingInterrupt:
		if f.tracker.lastClkin == Low {
			return StateRequestedInterrupt
		}
		return StateRequestingInterrupt

	case StateRequestedInterrupt:
		return StateRequestedInterrupt

	case StatePreBeginControl:
		return StateBeginControl

	case StateBeginControl:
		return StateDriveCB0

	case StateDriveCB0:
		if f.role == RoleInterrupter {
			if f.err == NoError {
				f.driveDout(High) // EoM
			} else {
				f.driveDout(Low) // !EoM
			}
		}
		return StateLatchCB0

	case StateLatchCB0:
		f.ack = din
		switch {
		case f.role == RoleReceive:
			// Switch to TX mode to send CB1.
			f.role = RoleTransmit
		case f.err == NoError:
			f.role = RoleForward
		}
		return StateDriveCB1

	case StateDriveCB1:
		switch {
		case f.role == RoleInterrupter:
			if f.err == RecvOverflow {
				f.driveDout(High) // Tx/Rx error
			}
		case f.role == RoleTransmit:
			// Actually the receiver, but TX'ing CB1.
			if f.ack == High {
				f.driveDout(Low) // Ack
			}
		}
		return StateLatchCB1

	case StateLatchCB1:
		f.role = RoleForward
		if f.tx.byteIdx > 0 {
			// We transmitted.
			f.ack = din
		}
		return StateDriveIdle

	case StateDriveIdle:
		return StateBeginIdle

	case StateBeginIdle:
		if f.tracker.lastDin == High {
			return StateIdle
		}
		return StatePrearb

	default:
		return f.state
	}
}

// stepLatchData implements the LATCH_DATA step (spec §4.5): advance the
// transmit cursor to completion, or the receive cursor with overrun
// detection.
func (f *FSM) stepLatchData(din Level) State {
	next := StateDriveData

	if f.role == RoleTransmit && f.tx.done() {
		next = StateRequestInterrupt
		f.err = NoError
	}

	if f.role == RoleReceive {
		slot := f.cfg.RecvBuffers[f.rx.slotIdx]
		if f.rx.overruns(slot) {
			f.role = RoleTransmit
			f.err = RecvOverflow
			return StateRequestInterrupt
		}
		f.rx.storeBit(slot, din)
	}

	return next
}

// OnDinEdge must be called by the platform shim on every DIN edge,
// non-reentrantly. level is the new DIN level.
func (f *FSM) OnDinEdge(level Level) {
	if f.state == StateError {
		return
	}
	if f.tracker.observeDin(level) {
		f.latchFatalError(DataSynchError)
		return
	}

	if level == High {
		f.interruptCount++
	}

	if f.interruptCount >= 3 {
		if f.state == StateRequestedInterrupt {
			f.role = RoleInterrupter
		}
		f.state = StatePreBeginControl
	}

	f.forwardDinToDout(level)
}
