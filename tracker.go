package mbus

// tracker is the Signal Tracker component: it remembers the last observed
// level of each of the three signals the FSM cares about (CLKIN, DIN, and
// the locally-driven DOUT) and flags the duplicate-edge condition the spec
// treats as a hard synchronization fault — the same level reported twice in
// a row on the same line.
type tracker struct {
	lastClkin Level
	lastDin   Level
	lastDout  Level
}

func (t *tracker) reset() {
	t.lastClkin = High
	t.lastDin = High
	t.lastDout = High
}

// observeClkin updates lastClkin and reports whether this was a duplicate
// (non-edge) notification.
func (t *tracker) observeClkin(level Level) (duplicate bool) {
	if t.lastClkin == level {
		return true
	}
	t.lastClkin = level
	return false
}

// observeDin updates lastDin and reports whether this was a duplicate
// (non-edge) notification.
func (t *tracker) observeDin(level Level) (duplicate bool) {
	if t.lastDin == level {
		return true
	}
	t.lastDin = level
	return false
}

func (t *tracker) setDout(level Level) {
	t.lastDout = level
}
