package mbus

// dispatchCompletion implements the Callback Dispatcher component: at the
// unique transition into BEGIN_IDLE, exactly one client callback fires
// (spec §4.9).
func (f *FSM) dispatchCompletion() {
	switch {
	case f.err != NoError:
		if f.cfg.OnError != nil {
			f.cfg.OnError(Error{f.err})
		}
	case f.tx.byteIdx > 0:
		if f.cfg.OnSendDone != nil {
			f.cfg.OnSendDone(f.tx.byteIdx, nil)
		}
	case f.rx.byteIdx > 0 && f.rx.claimed():
		slot := f.cfg.RecvBuffers[f.rx.slotIdx]
		slot.Length = -f.rx.byteIdx
		if f.cfg.OnRecv != nil {
			f.cfg.OnRecv(f.rx.slotIdx)
		}
	}
}
