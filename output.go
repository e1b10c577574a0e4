package mbus

// driveDout sets DOUT to level and records it in the tracker so later
// arbitration/control steps can observe what we last drove.
func (f *FSM) driveDout(level Level) {
	f.cfg.SetGPIOVal(f.cfg.DOUTGpio, level)
	f.tracker.setDout(level)
}

func (f *FSM) driveClkout(level Level) {
	f.cfg.SetGPIOVal(f.cfg.CLKOUTGpio, level)
}

// applyClkoutPolicy is the Output Driver component's CLKIN-edge half
// (spec §4.6 "CLKOUT policy"), evaluated at the end of every CLKIN
// handler once f.state holds the post-transition value: while requesting
// an interrupt, CLKOUT is stretched high; otherwise it mirrors CLKIN.
func (f *FSM) applyClkoutPolicy() {
	if f.state.requestingInterrupt() {
		f.driveClkout(High)
	} else {
		f.driveClkout(f.tracker.lastClkin)
	}
}

// forwardDinToDout is the Output Driver component's DIN-edge half
// (spec §4.7 step 4): on every DIN edge, forward DIN to DOUT unless we
// are actively TRANSMIT, propagating the data around the ring. The three
// cases below correspond to the spec's three bullets; they collapse to
// the same rule (forward unless TRANSMIT) except for the control-setup
// range, which forwards unconditionally. The comparisons rely on State's
// declaration order matching spec §4.6's state table order.
func (f *FSM) forwardDinToDout(din Level) {
	switch {
	case f.state < StateRequestInterrupt:
		if f.role != RoleTransmit {
			f.driveDout(din)
		}
	case f.state <= StateBeginControl:
		f.driveDout(din)
	default:
		if f.role != RoleTransmit {
			f.driveDout(din)
		}
	}
}
