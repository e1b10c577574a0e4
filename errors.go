package mbus

import "fmt"

// ErrorKind identifies one of the error conditions the FSM can report, per
// the wire protocol's error kinds.
type ErrorKind uint8

const (
	NoError ErrorKind = iota
	BusBusy
	ClockSynchError
	DataSynchError
	RecvOverflow
	Interrupted
)

var errorKindNames = map[ErrorKind]string{
	NoError:         "NoError",
	BusBusy:         "BusBusy",
	ClockSynchError: "ClockSynchError",
	DataSynchError:  "DataSynchError",
	RecvOverflow:    "RecvOverflow",
	Interrupted:     "Interrupted",
}

func (k ErrorKind) String() string {
	if name, ok := errorKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", uint8(k))
}

// Error wraps an ErrorKind so it satisfies the error interface while
// staying directly comparable (==, errors.Is) to the sentinels below.
type Error struct {
	Kind ErrorKind
}

func (e Error) Error() string {
	return e.Kind.String()
}

// Sentinel errors, one per ErrorKind.
var (
	ErrBusBusy         = Error{BusBusy}
	ErrClockSynchError = Error{ClockSynchError}
	ErrDataSynchError  = Error{DataSynchError}
	ErrRecvOverflow    = Error{RecvOverflow}
	ErrInterrupted     = Error{Interrupted}
)

// ErrIllegalArgument is returned by Init when the supplied Config is
// structurally invalid (e.g. zero receive buffer slots).
var ErrIllegalArgument = fmt.Errorf("mbus: illegal argument")
