package mbus

// claimSlot scans Config.RecvBuffers in index order for the first slot
// with a positive Length (spec §4.4: "scan in index order for
// recv_buffer_lengths[i] > 0") and returns its index, or (0, false) if none
// is available.
func claimSlot(cfg *Config) (idx int, ok bool) {
	for i, slot := range cfg.RecvBuffers {
		if slot.Length > 0 {
			return i, true
		}
	}
	return 0, false
}

// resolveBroadcastChannel demotes a RoleReceiveBroadcast role back to
// RoleForward unless the low nibble of the decoded address (the channel
// number) is subscribed in BroadcastChannels.
func (f *FSM) resolveBroadcastChannel() {
	if f.role != RoleReceiveBroadcast {
		return
	}
	channel := uint(f.rx.addr & 0xf)
	if f.cfg.BroadcastChannels&(1<<channel) != 0 {
		f.role = RoleReceive
	} else {
		f.role = RoleForward
	}
}

// claimReceiveSlot claims the first available buffer slot for the decoded
// address, recording it into the slot's Addr field, and returns the next
// state: StateDriveData on success, or StateRequestInterrupt with
// RecvOverflow latched if no slot is available (spec §4.4).
//
// headerWord is the value written into RecvSlot.Addr: for a short address
// this is the 8-bit short header (prefix nibble, then channel nibble)
// shifted into the high byte (spec §4.4 / §9, avoiding the older variant's
// host-endian-memcpy hazard); for a long address it is the 24-bit prefix
// as-is.
func (f *FSM) claimReceiveSlot(headerWord uint32) State {
	idx, ok := claimSlot(f.cfg)
	if !ok {
		f.err = RecvOverflow
		return StateRequestInterrupt
	}
	slot := f.cfg.RecvBuffers[idx]
	slot.Addr = headerWord
	f.rx.claim(idx, 0)
	return StateDriveData
}

// latchShortAddrBit folds one more bit into the short-address accumulator
// and, on the 4th and 8th bits, applies the short-header decode rules of
// spec §4.4. It returns the next state.
func (f *FSM) latchShortAddrBit(din Level) State {
	f.rx.shiftAddr(din)
	f.rx.bitIdx++

	switch f.rx.bitIdx {
	case 4:
		switch {
		case f.rx.addr == 0xf:
			return StateDriveLongAddr
		case uint8(f.rx.addr) == f.cfg.ShortPrefix:
			f.role = RoleReceive
		case f.rx.addr == 0:
			f.role = RoleReceiveBroadcast
		default:
			f.role = RoleForward
		}
		return StateDriveShortAddr
	case 8:
		f.resolveBroadcastChannel()
		if f.role == RoleReceive {
			return f.claimReceiveSlot(f.rx.addr << 24)
		}
		return StateDriveData
	default:
		return StateDriveShortAddr
	}
}

// latchLongAddrBit is the symmetric long-address counterpart: 24
// significant bits accumulated (bits 5..28 of the overall address window,
// continuing the same accumulator as the escaped short header), matched
// against FullPrefix, with the full 32-bit total checked at bit 32.
func (f *FSM) latchLongAddrBit(din Level) State {
	f.rx.shiftAddr(din)
	f.rx.bitIdx++

	switch f.rx.bitIdx {
	case 28:
		prefix := f.rx.addr & 0xffffff
		switch {
		case prefix == f.cfg.FullPrefix:
			f.role = RoleReceive
		case prefix == 0:
			f.role = RoleReceiveBroadcast
		default:
			f.role = RoleForward
		}
		return StateDriveLongAddr
	case 32:
		f.resolveBroadcastChannel()
		if f.role == RoleReceive {
			return f.claimReceiveSlot((f.rx.addr >> 4) & 0xffffff)
		}
		return StateDriveData
	default:
		return StateDriveLongAddr
	}
}
